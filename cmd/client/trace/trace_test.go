package trace

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSpanIncrementsWithinRequest(t *testing.T) {
	ctx := WithRequest(context.Background(), "req-1")

	reqID, span := NextSpan(ctx)
	assert.Equal(t, "req-1", reqID)
	assert.Equal(t, "1", span)

	_, span = NextSpan(ctx)
	assert.Equal(t, "2", span)
	assert.Equal(t, int64(2), Spans(ctx))
}

func TestNextSpanWithoutTrace(t *testing.T) {
	reqID, span := NextSpan(context.Background())
	assert.NotEmpty(t, reqID)
	assert.Equal(t, "1", span)
	assert.Equal(t, int64(0), Spans(context.Background()))
	assert.Empty(t, Operation(context.Background()))
}

func TestStartSharesSpanCounter(t *testing.T) {
	parent := WithRequest(context.Background(), "req-7")
	NextSpan(parent)

	op := Start(parent, "chat.send")
	assert.Equal(t, "req-7", RequestID(op))
	assert.Equal(t, "chat.send", Operation(op))
	assert.Empty(t, Operation(parent))

	_, span := NextSpan(context.WithoutCancel(op))
	assert.Equal(t, "2", span)
	assert.Equal(t, int64(2), Spans(parent))
}

func TestStartWithoutTraceCreatesRequestID(t *testing.T) {
	op := Start(context.Background(), "chat.load")
	assert.NotEmpty(t, RequestID(op))
	assert.Equal(t, "chat.load", Operation(op))
}

func TestNextSpanConcurrent(t *testing.T) {
	ctx := WithRequest(context.Background(), "req-c")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			NextSpan(ctx)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), Spans(ctx))
}
