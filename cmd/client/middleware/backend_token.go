package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bankr/cmd/client/auth"
)

// BackendToken 은 셸이 보낸 Bearer 토큰을 백엔드 호출 컨텍스트에 싣는다.
// 헤더가 없으면 설정의 기본 토큰이 쓰이도록 그냥 통과시키고,
// 형식이 잘못된 헤더만 401 로 거절한다.
func BackendToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if errors.Is(err, auth.ErrMissingHeader) {
			c.Next()
			return
		}
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithToken(c.Request.Context(), token))
		c.Next()
	}
}
