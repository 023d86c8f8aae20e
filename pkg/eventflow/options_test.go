package eventflow

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventflow/pkg/eventflow/config"
	"github.com/randalmurphal/eventflow/pkg/eventflow/deadletter"
	"github.com/randalmurphal/eventflow/pkg/eventflow/event"
)

func TestDefaultStoreConfig(t *testing.T) {
	cfg := defaultStoreConfig()
	assert.Equal(t, 256, cfg.bufferSize)
	assert.Equal(t, 1000, cfg.maxDepth)
	assert.Nil(t, cfg.logger)
	assert.Nil(t, cfg.resolver)
	assert.Nil(t, cfg.onError)
	assert.Nil(t, cfg.journal)
	assert.False(t, cfg.metrics)
	assert.False(t, cfg.tracing)
}

func TestOptions_AreApplied(t *testing.T) {
	t.Run("WithBufferSize", func(t *testing.T) {
		cfg := defaultStoreConfig()
		WithBufferSize(64)(&cfg)
		assert.Equal(t, 64, cfg.bufferSize)
	})

	t.Run("WithBufferSize ignores non-positive", func(t *testing.T) {
		cfg := defaultStoreConfig()
		WithBufferSize(0)(&cfg)
		assert.Equal(t, 256, cfg.bufferSize)
		WithBufferSize(-1)(&cfg)
		assert.Equal(t, 256, cfg.bufferSize)
	})

	t.Run("WithMaxDepth", func(t *testing.T) {
		cfg := defaultStoreConfig()
		WithMaxDepth(10)(&cfg)
		assert.Equal(t, 10, cfg.maxDepth)
	})

	t.Run("WithMaxDepth ignores non-positive", func(t *testing.T) {
		cfg := defaultStoreConfig()
		WithMaxDepth(0)(&cfg)
		assert.Equal(t, 1000, cfg.maxDepth)
	})

	t.Run("WithLogger", func(t *testing.T) {
		cfg := defaultStoreConfig()
		logger := slog.Default()
		WithLogger(logger)(&cfg)
		assert.Equal(t, logger, cfg.logger)
	})

	t.Run("WithResolver", func(t *testing.T) {
		cfg := defaultStoreConfig()
		registry := event.NewRegistry()
		WithResolver(registry)(&cfg)
		assert.Equal(t, registry, cfg.resolver)
	})

	t.Run("WithErrorHandler", func(t *testing.T) {
		cfg := defaultStoreConfig()
		WithErrorHandler(func(error) []any { return nil })(&cfg)
		assert.NotNil(t, cfg.onError)
	})

	t.Run("WithDeadLetter", func(t *testing.T) {
		cfg := defaultStoreConfig()
		journal := deadletter.NewMemoryJournal(deadletter.MemoryConfig{})
		WithDeadLetter(journal)(&cfg)
		assert.Equal(t, deadletter.Journal(journal), cfg.journal)
	})

	t.Run("WithMetrics and WithTracing", func(t *testing.T) {
		cfg := defaultStoreConfig()
		WithMetrics(true)(&cfg)
		WithTracing(true)(&cfg)
		assert.True(t, cfg.metrics)
		assert.True(t, cfg.tracing)
	})
}

func TestWithValidator_TypeMismatch(t *testing.T) {
	// A validator for the wrong state type is a programming error and
	// must fail loudly at construction.
	assert.Panics(t, func() {
		New(0, WithValidator(func(s string) error { return nil }))
	})
}

func TestWithValidator_Matching(t *testing.T) {
	store := New(0, WithValidator(func(s int) error {
		if s < 0 {
			return errors.New("negative")
		}
		return nil
	}))
	defer store.Close()
	assert.NotNil(t, store.validator)
}

func TestFromSettings(t *testing.T) {
	t.Run("plain settings", func(t *testing.T) {
		opts, err := FromSettings(config.Settings{
			BufferSize: 64,
			MaxDepth:   10,
			Metrics:    true,
			Tracing:    true,
		})
		require.NoError(t, err)

		cfg := defaultStoreConfig()
		for _, opt := range opts {
			opt(&cfg)
		}
		assert.Equal(t, 64, cfg.bufferSize)
		assert.Equal(t, 10, cfg.maxDepth)
		assert.True(t, cfg.metrics)
		assert.True(t, cfg.tracing)
		assert.Nil(t, cfg.resolver)
		assert.Nil(t, cfg.journal)
	})

	t.Run("data events build a resolver", func(t *testing.T) {
		opts, err := FromSettings(config.Settings{
			DataEvents: []string{"audit.note", "audit.view"},
		})
		require.NoError(t, err)

		cfg := defaultStoreConfig()
		for _, opt := range opts {
			opt(&cfg)
		}
		require.NotNil(t, cfg.resolver)
		assert.ElementsMatch(t, []string{"audit.note", "audit.view"}, cfg.resolver.Types())
	})

	t.Run("duplicate data events fail", func(t *testing.T) {
		_, err := FromSettings(config.Settings{
			DataEvents: []string{"a", "a"},
		})
		assert.Error(t, err)
	})

	t.Run("dead letter path opens a journal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "failures.db")
		opts, err := FromSettings(config.Settings{DeadLetterPath: path})
		require.NoError(t, err)

		cfg := defaultStoreConfig()
		for _, opt := range opts {
			opt(&cfg)
		}
		require.NotNil(t, cfg.journal)
		cfg.journal.Close()
	})
}
