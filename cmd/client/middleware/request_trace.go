package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bankr/cmd/client/trace"
	"bankr/cmd/internal/logger"
)

const headerRequestID = "X-Request-Id"

// 채팅 본문에는 금융 정보가 담기므로 debug 레벨에서만, 잘라서 남긴다.
const maxBodyLog = 512

// RequestTrace 는 UI 셸 요청마다 Request ID 를 보장하고 컨텍스트/응답 헤더에 싣는다.
// 백엔드 호출은 같은 Request ID 에 span 1,2,3,... 을 붙여 나간다.
func RequestTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		requestID := req.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = trace.GenerateID()
		}
		ctx := trace.WithRequest(req.Context(), requestID)
		c.Request = req.WithContext(ctx)
		c.Writer.Header().Set(headerRequestID, requestID)

		var body string
		if req.Body != nil && req.ContentLength != 0 && req.Method != http.MethodGet {
			if raw, err := io.ReadAll(req.Body); err == nil {
				body = logger.RedactBody(raw, maxBodyLog)
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			}
		}

		c.Next()

		fields := logger.Fields{
			"method":        req.Method,
			"path":          c.FullPath(),
			"status":        c.Writer.Status(),
			"duration_ms":   time.Since(start).Milliseconds(),
			"request_id":    requestID,
			"backend_calls": trace.Spans(c.Request.Context()),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		logger.InfoWithFields("completed request", fields)
		if body != "" {
			logger.DebugWithFields("request body", logger.Fields{"request_id": requestID, "body": body})
		}
	}
}
