package logging

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger(t *testing.T) {
	t.Run("writes JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		logger.Info("test message", slog.String("component", "test"), slog.Int("count", 42))

		output := buf.String()
		assert.Contains(t, output, `"level":"INFO"`)
		assert.Contains(t, output, `"msg":"test message"`)
		assert.Contains(t, output, `"component":"test"`)
		assert.Contains(t, output, `"count":42`)
	})

	t.Run("respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelWarn)

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warning message")

		output := buf.String()
		assert.NotContains(t, output, "debug message")
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, "warning message")
	})

	t.Run("development logger writes text", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(&buf, slog.LevelInfo, true).Info("hello", slog.String("k", "v"))
		assert.Contains(t, buf.String(), "msg=hello")
		assert.Contains(t, buf.String(), "k=v")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHelpers(t *testing.T) {
	t.Run("LogError", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		LogError(logger, "failed to fetch arrivals", assert.AnError, slog.String("map_id", "40170"))

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"msg":"failed to fetch arrivals"`)
		assert.Contains(t, output, `"map_id":"40170"`)
		assert.Contains(t, output, assert.AnError.Error())
	})

	t.Run("LogOperation drops zero duration", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		LogOperation(logger, "runs_saved", slog.Duration("duration", 0), slog.Int("count", 3))

		output := buf.String()
		assert.Contains(t, output, `"msg":"runs_saved"`)
		assert.Contains(t, output, `"count":3`)
		assert.NotContains(t, output, "duration")
	})

	t.Run("LogHTTPRequest levels by status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		LogHTTPRequest(logger, "GET", "/health", 200, 1.5)
		LogHTTPRequest(logger, "GET", "/transit/train/station/abc", 400, 0.7)
		LogHTTPRequest(logger, "GET", "/transit/alerts", 502, 12)

		output := buf.String()
		assert.Contains(t, output, `"level":"INFO","msg":"http_request","method":"GET","path":"/health","status":200`)
		assert.Contains(t, output, `"level":"WARN"`)
		assert.Contains(t, output, `"level":"ERROR"`)
	})

	t.Run("nil logger is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogError(nil, "x", assert.AnError)
			LogOperation(nil, "x")
			LogHTTPRequest(nil, "GET", "/", 200, 0)
		})
	})
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

type failingCloser struct{ err error }

func (f failingCloser) Close() error { return f.err }

type fakeTx struct{ err error }

func (f fakeTx) Rollback() error { return f.err }

func TestSafeCloseWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	SafeCloseWithLogging(failingCloser{}, logger, "ok")
	assert.Empty(t, buf.String())

	SafeCloseWithLogging(failingCloser{err: errors.New("busy")}, logger, "close db")
	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), `"operation":"close db"`)
	assert.Contains(t, buf.String(), `"error":"busy"`)

	assert.NotPanics(t, func() { SafeCloseWithLogging(nil, logger, "nil") })
}

func TestSafeRollbackWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	SafeRollbackWithLogging(fakeTx{err: sql.ErrTxDone}, logger, "save runs")
	assert.Empty(t, buf.String())

	SafeRollbackWithLogging(fakeTx{err: errors.New("disk I/O error")}, logger, "save runs")
	assert.Contains(t, buf.String(), `"component":"database"`)
}
