package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger 는 클라이언트 코어 전역에서 사용하는 최소 로거 인터페이스다.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields 는 구조화 로그를 위한 공통 필드 타입이다.
type Fields map[string]any

// Log 는 전역 로거 인스턴스다.
// Init 이 호출되지 않더라도 info 레벨로 동작한다.
var Log Logger = NewLogger("info")

const defaultAppName = "bankr-client"

// Init 은 주어진 레벨로 전역 로거를 교체한다. 빈 값이면 info 를 사용한다.
func Init(level string) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}
	Log = NewLogger(level)
}

// NewLogger 는 주어진 레벨로 gookit/slog 기반 JSON 로거를 생성한다. 출력은 stdout.
func NewLogger(level string) Logger {
	return NewWriterLogger(os.Stdout, level)
}

// NewWriterLogger 는 out 으로 JSON 로그를 쓰는 로거다.
func NewWriterLogger(out io.Writer, level string) Logger {
	logLevel := slog.LevelByName(level)

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h := handler.NewIOWriter(out, levels)
	formatter := slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{
			slog.FieldKeyDatetime,
			slog.FieldKeyLevel,
			slog.FieldKeyMessage,
		}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "datetime",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "message",
		}
		f.TimeFormat = "2006-01-02T15:04:05"
	})
	h.SetFormatter(formatter)

	return slog.NewWithHandlers(h)
}

// withAppName 은 app 필드를 BANKR_APP_NAME 환경변수(없으면 기본값)로 보강한다.
func withAppName(fields Fields) Fields {
	if fields == nil {
		fields = Fields{}
	}
	if _, ok := fields["app"]; !ok {
		name := os.Getenv("BANKR_APP_NAME")
		if name == "" {
			name = defaultAppName
		}
		fields["app"] = name
	}
	return fields
}

// sensitiveKeys 는 값이 로그에 남으면 안 되는 필드다.
var sensitiveKeys = map[string]struct{}{
	"authorization": {},
	"access_token":  {},
	"token":         {},
	"link_token":    {},
	"public_token":  {},
}

const redacted = "[redacted]"

// redact 는 호출자의 map 을 바꾸지 않도록 민감한 필드가 있을 때만 사본을 만든다.
func redact(fields Fields) Fields {
	var out Fields
	for k := range fields {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; !ok {
			continue
		}
		if out == nil {
			out = make(Fields, len(fields))
			for kk, vv := range fields {
				out[kk] = vv
			}
		}
		out[k] = redacted
	}
	if out == nil {
		return fields
	}
	return out
}

// RedactBody 는 로그에 남길 JSON 본문에서 민감한 키의 값을 어느 깊이에 있든 가린 뒤 limit 바이트로 자른다.
// JSON 이 아니면 내용을 확인할 수 없으므로 빈 문자열을 돌려준다.
func RedactBody(raw []byte, limit int) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	out, err := json.Marshal(redactValue(v))
	if err != nil {
		return ""
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return string(out)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, vv := range t {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				t[k] = redacted
				continue
			}
			t[k] = redactValue(vv)
		}
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
	}
	return v
}

func logWithFields(level slog.Level, msg string, fields Fields) {
	fields = withAppName(redact(fields))
	lg, ok := Log.(*slog.Logger)
	if !ok {
		switch level {
		case slog.DebugLevel:
			Log.Debug(msg)
		case slog.WarnLevel:
			Log.Warn(msg)
		case slog.ErrorLevel:
			Log.Error(msg)
		default:
			Log.Info(msg)
		}
		return
	}
	rec := lg.WithFields(slog.M(fields))
	switch level {
	case slog.DebugLevel:
		rec.Debug(msg)
	case slog.WarnLevel:
		rec.Warn(msg)
	case slog.ErrorLevel:
		rec.Error(msg)
	default:
		rec.Info(msg)
	}
}

// InfoWithFields 는 request_id, chat_id 등 구조화 필드를 포함한 JSON 로그를 출력한다.
func InfoWithFields(msg string, fields Fields) {
	logWithFields(slog.InfoLevel, msg, fields)
}

func DebugWithFields(msg string, fields Fields) {
	logWithFields(slog.DebugLevel, msg, fields)
}

func WarnWithFields(msg string, fields Fields) {
	logWithFields(slog.WarnLevel, msg, fields)
}

func ErrorWithFields(msg string, fields Fields) {
	logWithFields(slog.ErrorLevel, msg, fields)
}
