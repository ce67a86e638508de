package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/auth"
	"bankr/cmd/client/trace"
	"bankr/cmd/internal/logger"
)

// Config 는 백엔드 HTTP 클라이언트 공통 설정이다.
type Config struct {
	Timeout time.Duration
	// AccessToken 은 컨텍스트에 토큰이 없을 때 사용할 기본 토큰이다.
	AccessToken string
	// Now 는 토큰 만료 판단에 쓰는 시계다. nil 이면 time.Now.
	Now func() time.Time
}

const maxBodyLog = 1024

// authRoundTripper 는 모든 백엔드 호출에 Bearer 토큰, X-Request-Id/X-Span-Id 헤더를 붙이고
// 공통 로깅을 수행한다. 만료된 JWT 는 네트워크로 보내지 않고 바로 ErrAuth 로 돌려준다.
type authRoundTripper struct {
	inner        http.RoundTripper
	defaultToken string
	now          func() time.Time
}

func (l *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx := req.Context()
	requestID, spanID := trace.NextSpan(ctx)
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("X-Span-Id", spanID)

	token := auth.TokenFromContext(ctx)
	if token == "" {
		token = l.defaultToken
	}
	if token != "" && req.Header.Get("Authorization") == "" {
		if auth.TokenExpired(token, l.now()) {
			logger.WarnWithFields("httpclient token expired", logger.Fields{
				"method":     req.Method,
				"url":        req.URL.String(),
				"request_id": requestID,
			})
			return nil, apierr.New(apierr.ErrAuth, http.StatusUnauthorized, "access token expired", auth.ErrTokenExpired)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var bodySnippet string
	if req.Body != nil {
		if bodyBytes, err := io.ReadAll(req.Body); err == nil {
			// 연동 토큰이 본문에 실려 나가므로 가린 사본만 남긴다.
			bodySnippet = logger.RedactBody(bodyBytes, maxBodyLog)
			req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}
	}

	resp, err := l.inner.RoundTrip(req)
	duration := time.Since(start)
	fields := logger.Fields{
		"method":     req.Method,
		"url":        req.URL.String(),
		"duration":   duration.String(),
		"request_id": requestID,
		"span_id":    spanID,
	}
	if op := trace.Operation(ctx); op != "" {
		fields["op"] = op
	}
	if bodySnippet != "" {
		fields["body"] = bodySnippet
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("httpclient request failed", fields)
		return nil, err
	}

	fields["status"] = resp.StatusCode
	logger.DebugWithFields("httpclient request success", fields)
	return resp, nil
}

// BaseClient 는 공통 http.Client 와 baseURL 을 묶어 URL 생성, 요청 실행, 에러 분류를 돕는다.
type BaseClient struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewBaseClient(baseURL string, cfg Config) *BaseClient {
	return &BaseClient{
		HTTPClient: New(cfg),
		BaseURL:    baseURL,
	}
}

// NewBaseClientWithClient 는 이미 생성된 http.Client 를 사용한다. nil 이면 기본 클라이언트.
func NewBaseClientWithClient(httpClient *http.Client, baseURL string) *BaseClient {
	if httpClient == nil {
		httpClient = NewDefault()
	}
	return &BaseClient{
		HTTPClient: httpClient,
		BaseURL:    baseURL,
	}
}

// NewRequest 는 baseURL 과 상대 경로, 쿼리, 바디로 요청을 만든다.
// relPath 는 이미 이스케이프된 경로로 취급한다. 세그먼트 안의 %2F 는 그대로 전송된다.
// 쿼리는 반드시 query 인자로 전달해야 한다. relPath 에 '?' 가 있으면 에러.
func (c *BaseClient) NewRequest(ctx context.Context, method, relPath string, query url.Values, body io.Reader) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.Contains(relPath, "?") {
		return nil, fmt.Errorf("httpclient: relPath must not contain query string (use query parameter instead): %s", relPath)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	if relPath != "" {
		base = base.JoinPath(relPath)
	}
	if len(query) > 0 {
		base.RawQuery = query.Encode()
	}
	return http.NewRequestWithContext(ctx, method, base.String(), body)
}

// NewJSONRequest 는 payload 를 JSON 으로 인코딩한 요청을 만든다.
func (c *BaseClient) NewJSONRequest(ctx context.Context, method, relPath string, query url.Values, payload any) (*http.Request, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.NewRequest(ctx, method, relPath, query, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Do 는 요청을 실행한다. 응답을 받지 못한 실패는 ErrNetwork 로 분류한다.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		var classified *apierr.Error
		if errors.As(err, &classified) {
			return nil, classified
		}
		return nil, apierr.Network(err)
	}
	return resp, nil
}

// DoJSON 은 요청을 실행하고 2xx 가 아니면 분류된 에러를, 2xx 면 out 에 디코딩한 결과를 돌려준다.
// out 이 nil 이면 본문은 버린다.
func (c *BaseClient) DoJSON(req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DecodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	const maxBodySize = 5 * 1024 * 1024
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return apierr.New(apierr.ErrServer, resp.StatusCode, "malformed response body", err)
	}
	return nil
}

// errorBody 는 백엔드 에러 응답의 두 가지 형태 {"error": ...}, {"message": ...} 를 모두 받는다.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DecodeError 는 실패 응답 본문에서 서버 메시지를 읽어 분류된 에러를 만든다.
func DecodeError(resp *http.Response) *apierr.Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	message := strings.TrimSpace(string(raw))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Error != "":
			message = body.Error
		case body.Message != "":
			message = body.Message
		}
	}
	return apierr.FromStatus(resp.StatusCode, message)
}

// New 는 주어진 설정으로 http.Client 를 생성한다. Timeout 이 0 이면 30초.
func New(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &authRoundTripper{
			inner:        http.DefaultTransport,
			defaultToken: cfg.AccessToken,
			now:          now,
		},
	}
}

func NewDefault() *http.Client {
	return New(Config{})
}
