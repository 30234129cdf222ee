package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	t.Run("initializes_json_handler", func(t *testing.T) {
		InitLogger("info", "json")
		assert.NotNil(t, logger)
	})

	t.Run("initializes_text_handler", func(t *testing.T) {
		InitLogger("info", "text")
		assert.NotNil(t, logger)
	})

	t.Run("debug_level_adds_source", func(t *testing.T) {
		InitLogger("debug", "json")
		assert.NotNil(t, logger)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"warn", "WARN"},
		{"error", "ERROR"},
		{"info", "INFO"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level).String())
		})
	}
}

func TestFromContext(t *testing.T) {
	InitLogger("info", "json")

	t.Run("plain_context_returns_base_logger", func(t *testing.T) {
		l := FromContext(context.Background())
		assert.NotNil(t, l)
	})

	t.Run("operation_attached", func(t *testing.T) {
		ctx := WithOperation(context.Background(), "login")
		l := FromContext(ctx)
		assert.NotNil(t, l)
		assert.NotSame(t, logger, l)
	})

	t.Run("client_id_attached", func(t *testing.T) {
		ctx := WithClientID(context.Background(), "install-1")
		l := FromContext(ctx)
		assert.NotNil(t, l)
		assert.NotSame(t, logger, l)
	})

	t.Run("empty_values_ignored", func(t *testing.T) {
		ctx := WithOperation(context.Background(), "")
		l := FromContext(ctx)
		assert.Same(t, logger, l)
	})
}

func TestPackageLevelHelpers(t *testing.T) {
	InitLogger("debug", "text")

	// Must not panic regardless of initialization order
	Debug("debug message", "k", "v")
	Info("info message", "k", "v")
	Warn("warn message", "k", "v")
	Error("error message", "k", "v")
}
