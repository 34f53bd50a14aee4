package logger

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-vault/internal/config"
)

func TestNew_FormatSelection(t *testing.T) {
	tests := []struct {
		name       string
		logFormat  string
		expectJSON bool
	}{
		{name: "json format", logFormat: "json", expectJSON: true},
		{name: "text format", logFormat: "text", expectJSON: false},
		{name: "default format (empty)", logFormat: "", expectJSON: true},
		{name: "unknown format defaults to json", logFormat: "unknown", expectJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, config.Config{LogLevel: "info", LogFormat: tt.logFormat})

			log.Info("test message", "key", "value")

			output := buf.String()
			if tt.expectJSON {
				assert.Contains(t, output, `"msg":"test message"`)
				assert.Contains(t, output, `"key":"value"`)
				assert.Contains(t, output, `"service":"note-vault"`)
			} else {
				assert.Contains(t, output, "test message")
				assert.Contains(t, output, "key=value")
				assert.NotContains(t, output, `"msg":`)
			}
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.Config{LogLevel: "warn", LogFormat: "json"})

	log.Info("info message")
	assert.Empty(t, buf.String(), "info should be suppressed at warn level")

	log.Warn("warn message")
	assert.Contains(t, buf.String(), "warn message")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestInit_IdempotentAndConcurrent(t *testing.T) {
	const numGoroutines = 10
	var wg sync.WaitGroup
	results := make([]*slog.Logger, numGoroutines)

	for i := range numGoroutines {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			log, err := Init(config.Config{LogLevel: "error", LogFormat: "json"})
			assert.NoError(t, err)
			results[index] = log
		}(i)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	for i := 1; i < numGoroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Same(t, results[0], L())

	other, err := Init(config.Config{LogLevel: "debug", LogFormat: "text"})
	require.NoError(t, err)
	assert.Same(t, results[0], other, "a different config does not replace the logger")
}
