// Package apierr 는 백엔드 호출 실패를 UI 가 다루는 몇 가지 종류로 분류한다.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuth 는 세션 만료/무효(401). 재로그인으로 이어져야 한다.
	ErrAuth = errors.New("auth_error")
	// ErrQuotaExceeded 는 무료 메시지 한도 소진. 업그레이드 경로로 보낸다.
	ErrQuotaExceeded = errors.New("quota_exceeded")
	// ErrServer 는 5xx 응답.
	ErrServer = errors.New("server_error")
	// ErrNetwork 는 연결 실패(응답 자체를 받지 못함).
	ErrNetwork = errors.New("network_error")
	// ErrValidation 은 로컬 입력 검증 실패 또는 400/422 응답.
	ErrValidation = errors.New("validation_error")
	ErrNotFound   = errors.New("not_found")
	// ErrRequest 는 위에 해당하지 않는 나머지 4xx 응답.
	ErrRequest = errors.New("request_failed")
)

// quotaMarker 는 서버가 무료 한도 초과를 알릴 때 403 본문에 넣는 문구다.
const quotaMarker = "free message limit"

// Error 는 분류된 실패 하나를 나타낸다. errors.Is(err, ErrAuth) 처럼 Kind 로 비교한다.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status=%d %s", e.Kind, e.StatusCode, msg)
	}
	if msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

func New(kind error, statusCode int, message string, cause error) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Message: message, Cause: cause}
}

func Validation(message string) *Error {
	return New(ErrValidation, 0, message, nil)
}

func Network(cause error) *Error {
	return New(ErrNetwork, 0, "", cause)
}

// FromStatus 는 HTTP 상태 코드와 서버 에러 메시지로 실패 종류를 결정한다.
// 403 은 메시지에 무료 한도 문구가 있을 때만 ErrQuotaExceeded 로 본다.
func FromStatus(statusCode int, message string) *Error {
	var kind error
	switch {
	case statusCode == http.StatusUnauthorized:
		kind = ErrAuth
	case statusCode == http.StatusForbidden && strings.Contains(strings.ToLower(message), quotaMarker):
		kind = ErrQuotaExceeded
	case statusCode == http.StatusNotFound:
		kind = ErrNotFound
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		kind = ErrValidation
	case statusCode >= 500:
		kind = ErrServer
	default:
		kind = ErrRequest
	}
	return New(kind, statusCode, message, nil)
}

// KindOf 는 err 의 분류 sentinel 을 반환한다. 분류되지 않은 에러는 nil.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, kind := range []error{ErrAuth, ErrQuotaExceeded, ErrServer, ErrNetwork, ErrValidation, ErrNotFound, ErrRequest} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// UserMessage 는 UI 에 그대로 보여줄 문구를 만든다.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case ErrAuth:
		return "Session expired. Please log in again."
	case ErrQuotaExceeded:
		return "You've reached your free message limit. Please subscribe to continue."
	case ErrServer:
		return "Server error. Please try again later."
	case ErrNetwork:
		return "No internet connection."
	case ErrValidation:
		var e *Error
		if errors.As(err, &e) && e.Message != "" {
			return e.Message
		}
		return "Invalid request."
	case ErrNotFound:
		return "Not found."
	default:
		var e *Error
		if errors.As(err, &e) && e.Message != "" {
			return e.Message
		}
		return "Something went wrong. Please try again."
	}
}
