package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"err":     slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "warn", FormatJSON, false)
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("table not allowed", "table", "users")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "table not allowed", rec["msg"])
	assert.Equal(t, "users", rec["table"])
	assert.Equal(t, "geodash", rec["service"])
}

func TestNewLogger_AutoFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "info", FormatAuto, false)
	require.NoError(t, err)

	log.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")

	_, err = newLogger(&buf, "info", "xml", false)
	assert.Error(t, err)
}
