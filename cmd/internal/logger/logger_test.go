package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactSensitiveFields(t *testing.T) {
	in := Fields{"public_token": "public-sandbox-123", "Authorization": "Bearer x", "chat_id": "c1"}

	out := redact(in)

	assert.Equal(t, redacted, out["public_token"])
	assert.Equal(t, redacted, out["Authorization"])
	assert.Equal(t, "c1", out["chat_id"])
	assert.Equal(t, "public-sandbox-123", in["public_token"], "caller map must not change")
}

func TestRedactWithoutSensitiveFieldsReturnsSameMap(t *testing.T) {
	in := Fields{"chat_id": "c1"}
	out := redact(in)
	out["extra"] = true
	assert.Equal(t, true, in["extra"])
}

func TestRedactBodyNestedKeys(t *testing.T) {
	raw := []byte(`{"public_token":"public-sandbox-123","metadata":{"institution":"Chase","access_token":"access-1"},"accounts":[{"id":"a1","Token":"t"}],"amount":12.50}`)

	out := RedactBody(raw, 0)

	assert.NotContains(t, out, "public-sandbox-123")
	assert.NotContains(t, out, "access-1")
	assert.JSONEq(t, `{"public_token":"[redacted]","metadata":{"institution":"Chase","access_token":"[redacted]"},"accounts":[{"id":"a1","Token":"[redacted]"}],"amount":12.50}`, out)
}

func TestRedactBodyTruncatesAfterRedaction(t *testing.T) {
	raw := []byte(`{"token":"` + strings.Repeat("s", 64) + `","content":"hello"}`)

	out := RedactBody(raw, 20)

	assert.Len(t, out, 20)
	assert.NotContains(t, out, "sss")
}

func TestRedactBodyNonJSONOmitted(t *testing.T) {
	assert.Empty(t, RedactBody([]byte("public_token=public-sandbox-123"), 0))
	assert.Empty(t, RedactBody(nil, 0))
	assert.Empty(t, RedactBody([]byte("  \n"), 0))
}

func TestWithAppName(t *testing.T) {
	t.Setenv("BANKR_APP_NAME", "")
	assert.Equal(t, defaultAppName, withAppName(nil)["app"])

	t.Setenv("BANKR_APP_NAME", "bankr-desktop")
	assert.Equal(t, "bankr-desktop", withAppName(Fields{})["app"])
	assert.Equal(t, "kept", withAppName(Fields{"app": "kept"})["app"])
}

func TestInitFallsBackToInfo(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	Init("  ")
	assert.NotNil(t, Log)
	InfoWithFields("logger smoke", Fields{"token": "secret"})
}
