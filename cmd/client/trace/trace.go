// Package trace 는 셸 요청이나 컨트롤러 작업 하나에서 나가는 백엔드 호출들을
// 같은 X-Request-Id 로 묶는다.
package trace

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Info 는 작업 하나의 추적 정보다. 같은 작업에서 파생된 Info 들은 span 카운터를 공유한다.
type Info struct {
	RequestID string
	// Operation 은 "chat.send" 처럼 컨트롤러 작업 이름이다. 셸 요청에서 바로 나가는 호출은 비어 있다.
	Operation string
	spans     *atomic.Int64
}

func GenerateID() string {
	return uuid.NewString()
}

// WithRequest 는 requestID 로 새 추적을 시작한다. span 은 0 에서 시작한다.
func WithRequest(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, &Info{RequestID: requestID, spans: new(atomic.Int64)})
}

// Start 는 ctx 의 추적 정보에 작업 이름을 붙인다. 추적 정보가 없으면 새 Request ID 로 시작한다.
// context.WithoutCancel 로 떼어낸 컨텍스트에서도 값은 그대로 이어진다.
func Start(ctx context.Context, operation string) context.Context {
	parent := fromContext(ctx)
	if parent == nil {
		ctx = WithRequest(ctx, GenerateID())
		parent = fromContext(ctx)
	}
	return context.WithValue(ctx, ctxKey{}, &Info{
		RequestID: parent.RequestID,
		Operation: operation,
		spans:     parent.spans,
	})
}

func fromContext(ctx context.Context) *Info {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

func RequestID(ctx context.Context) string {
	if info := fromContext(ctx); info != nil {
		return info.RequestID
	}
	return ""
}

func Operation(ctx context.Context) string {
	if info := fromContext(ctx); info != nil {
		return info.Operation
	}
	return ""
}

// Spans 는 지금까지 나간 백엔드 호출 수다.
func Spans(ctx context.Context) int64 {
	if info := fromContext(ctx); info != nil {
		return info.spans.Load()
	}
	return 0
}

// NextSpan 은 백엔드 호출 하나에 붙일 (requestID, spanID) 를 만든다.
// 추적 정보가 없는 호출은 매번 새 Request ID 와 span 1 을 받는다.
func NextSpan(ctx context.Context) (string, string) {
	info := fromContext(ctx)
	if info == nil {
		return GenerateID(), "1"
	}
	return info.RequestID, strconv.FormatInt(info.spans.Add(1), 10)
}
