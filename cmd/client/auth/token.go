package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxKeyToken ctxKey = "access_token"

// WithToken 은 백엔드 호출에 사용할 액세스 토큰을 컨텍스트에 싣는다.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxKeyToken).(string)
	return v
}

// TokenExpired 는 JWT 의 exp 클레임만 보고 만료 여부를 판단한다.
// 서명 검증은 백엔드 몫이므로 여기서는 하지 않는다.
// JWT 가 아니거나 exp 가 없는 토큰은 만료되지 않은 것으로 본다.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
