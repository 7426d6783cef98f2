package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONRedactsTokens(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", "json")

	l.Info("login", "username", "ada", "access_token", "eyJhbGciOi", "password", "hunter22")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ada", entry["username"])
	assert.Equal(t, redacted, entry["access_token"])
	assert.Equal(t, redacted, entry["password"])
}

func TestPrettyHandler_RespectsLevelAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("visible", "refresh", "secret-refresh")
	out := buf.String()
	assert.Contains(t, out, "visible")
	assert.NotContains(t, out, "secret-refresh")
	assert.Contains(t, out, redacted)
}

func TestPrettyHandler_GroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := slog.New(h).WithGroup("backend").With("resource", "mentors")

	l.Debug("call")
	assert.Contains(t, buf.String(), "backend.resource")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.NotNil(t, FromContext(ctx))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, custom, FromContext(NewContext(ctx, custom)))
}
