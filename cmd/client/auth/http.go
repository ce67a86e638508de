package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
	ErrTokenExpired  = errors.New("token_expired")
)

// ParseAuthorization 은 "Bearer <token>" 형식의 헤더 값에서 토큰을 꺼낸다.
func ParseAuthorization(header string) (string, error) {
	if header == "" {
		return "", ErrMissingHeader
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", ErrInvalidFormat
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// ExtractBearerToken 은 UI 셸이 보낸 Authorization 헤더에서 백엔드 액세스 토큰을 꺼낸다.
func ExtractBearerToken(c *gin.Context) (string, error) {
	return ParseAuthorization(c.GetHeader("Authorization"))
}

// AbortWithUnauthorized 는 401 과 함께 {"error": ...} 본문으로 요청을 중단한다.
// UI 셸은 이 응답을 받으면 재로그인 화면으로 보낸다.
func AbortWithUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "relogin": true})
}
