package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf})

	l.WithBackend("in").WithAttempt("tx-1", "a-1", "in").Warn(context.Background(), "commit failed", "error", "boom")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "backend=in")
	assert.Contains(t, out, "transaction=tx-1")
	assert.Contains(t, out, "attempt=a-1")
	assert.Contains(t, out, "error=boom")
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf})
	l.Info(context.Background(), "hidden")
	l.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
	l.Error(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(Config{JSON: true, Output: &buf}).WithOperation("setup").Info(context.Background(), "ok")
	assert.Contains(t, buf.String(), `"operation":"setup"`)
}

func TestNop(t *testing.T) {
	var nilLogger *Logger
	assert.NotPanics(t, func() {
		nilLogger.With("a", 1).Info(context.Background(), "x")
		Nop().WithTransaction("tx", "out").Error(context.Background(), "x")
		OrNop(nil).Warn(context.Background(), "x")
	})
}
