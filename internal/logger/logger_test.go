package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("encoded", "sets", 3)
	log.Debug("hidden")

	out := buf.String()
	require.Contains(t, out, `"msg":"encoded"`)
	require.Contains(t, out, `"sets":3`)
	require.NotContains(t, out, "hidden")
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug).With("session", "abc").WithGroup("set")
	log.Debug("coded", "type", "I", "note", "two words")

	out := buf.String()
	require.Contains(t, out, "DEBUG")
	require.Contains(t, out, "coded")
	require.Contains(t, out, "session=abc")
	require.Contains(t, out, "set.type=I")
	require.Contains(t, out, `set.note="two words"`)
}

func TestForFormat(t *testing.T) {
	var buf bytes.Buffer
	ForFormat("text", &buf, slog.LevelWarn).Warn("careful")
	require.Contains(t, buf.String(), "msg=careful")

	buf.Reset()
	ForFormat("json", &buf, slog.LevelInfo).Info("x")
	require.Contains(t, buf.String(), `"msg":"x"`)
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	l := Text(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), l)

	require.Same(t, l, FromContext(ctx))
	require.NotNil(t, FromContext(context.Background()))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing happens")
	l.With("k", "v").Info("still nothing")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), in)
	}
}
