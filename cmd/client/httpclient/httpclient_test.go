package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/auth"
	"bankr/cmd/client/trace"
	"bankr/cmd/internal/logger"
)

func TestNewRequestRejectsQueryInPath(t *testing.T) {
	c := NewBaseClient("http://example.test/api", Config{})
	_, err := c.NewRequest(context.Background(), http.MethodGet, "/chats?x=1", nil, nil)
	assert.Error(t, err)
}

func TestNewRequestJoinsBasePath(t *testing.T) {
	c := NewBaseClient("http://example.test/api", Config{})
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/analytics/tips", url.Values{"limit": {"20"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/api/analytics/tips?limit=20", req.URL.String())
}

func TestDoJSONSetsAuthAndTraceHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotSpan string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		gotSpan = r.Header.Get("X-Span-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, Config{AccessToken: "default-token"})
	ctx := trace.Start(trace.WithRequest(context.Background(), "req-42"), "chat.send")
	ctx = auth.WithToken(ctx, "ctx-token")

	req, err := c.NewRequest(ctx, http.MethodGet, "/ping", nil, nil)
	require.NoError(t, err)

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.DoJSON(req, &out))

	assert.True(t, out.OK)
	assert.Equal(t, "Bearer ctx-token", gotAuth)
	assert.Equal(t, "req-42", gotRequestID)
	assert.Equal(t, "1", gotSpan)
}

func TestDoJSONClassifiesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"You have reached your free message limit."}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, Config{})
	req, err := c.NewRequest(context.Background(), http.MethodPost, "/messages", nil, nil)
	require.NoError(t, err)

	err = c.DoJSON(req, nil)
	assert.ErrorIs(t, err, apierr.ErrQuotaExceeded)
}

func TestDoJSONMessageField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"db down"}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, Config{})
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/chats", nil, nil)
	require.NoError(t, err)

	err = c.DoJSON(req, nil)
	require.ErrorIs(t, err, apierr.ErrServer)
	var ae *apierr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "db down", ae.Message)
}

func TestExpiredTokenSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	c := NewBaseClient(srv.URL, Config{AccessToken: signed, Now: func() time.Time { return now }})
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/chats", nil, nil)
	require.NoError(t, err)

	err = c.DoJSON(req, nil)
	assert.ErrorIs(t, err, apierr.ErrAuth)
	assert.False(t, called)
}

func TestNetworkFailureIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	c := NewBaseClient(baseURL, Config{Timeout: time.Second})
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/chats", nil, nil)
	require.NoError(t, err)

	err = c.DoJSON(req, nil)
	assert.ErrorIs(t, err, apierr.ErrNetwork)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logger.Log
	logger.Log = logger.NewWriterLogger(&buf, "debug")
	t.Cleanup(func() { logger.Log = prev })
	return &buf
}

func TestRequestBodyLogRedactsCredentials(t *testing.T) {
	logs := captureLogs(t)

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, Config{})
	req, err := c.NewJSONRequest(context.Background(), http.MethodPost, "/plaid/exchange-public-token", nil, map[string]any{
		"public_token": "public-sandbox-123",
		"metadata":     map[string]string{"institution": "Chase", "link_token": "link-abc"},
	})
	require.NoError(t, err)
	require.NoError(t, c.DoJSON(req, nil))

	assert.Equal(t, "public-sandbox-123", got["public_token"], "wire body must stay intact")
	out := logs.String()
	assert.Contains(t, out, "httpclient request success")
	assert.Contains(t, out, "Chase")
	assert.NotContains(t, out, "public-sandbox-123")
	assert.NotContains(t, out, "link-abc")
}

func TestRequestBodyLogRedactsOnFailure(t *testing.T) {
	logs := captureLogs(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	c := NewBaseClient(baseURL, Config{Timeout: time.Second})
	req, err := c.NewJSONRequest(context.Background(), http.MethodPost, "/plaid/exchange-public-token", nil, map[string]string{"public_token": "public-sandbox-123"})
	require.NoError(t, err)
	require.Error(t, c.DoJSON(req, nil))

	out := logs.String()
	assert.Contains(t, out, "httpclient request failed")
	assert.NotContains(t, out, "public-sandbox-123")
}

func TestNewRequestKeepsEscapedSegment(t *testing.T) {
	c := NewBaseClient("http://example.test/api", Config{})
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/chats/..%2Fplaid%2Fdisconnect", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/api/chats/..%2Fplaid%2Fdisconnect", req.URL.String())
}
