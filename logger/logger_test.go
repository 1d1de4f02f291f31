package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeineduck/tallyvm/config"
)

func TestLoggerNew(t *testing.T) {
	t.Run("ValidDevelopmentMode", func(t *testing.T) {
		logger, guard, err := New("development", "debug", "")
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.NoError(t, guard.Close())
	})

	t.Run("ValidProductionMode", func(t *testing.T) {
		logger, guard, err := New("production", "info", "")
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.NoError(t, guard.Close())
	})

	t.Run("InvalidMode", func(t *testing.T) {
		_, _, err := New("invalid_mode", "info", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging mode")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		_, _, err := New("production", "invalid_level", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging level")
	})

	t.Run("ValidLevels", func(t *testing.T) {
		levels := []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}
		for _, level := range levels {
			t.Run(level, func(t *testing.T) {
				logger, guard, err := New("production", level, "")
				require.NoError(t, err)
				assert.NotNil(t, logger)
				guard.Close()
			})
		}
	})
}

func TestLoggerNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	logger, guard, err := NewFromConfig(config.LoggingConfig{
		Mode:  "production",
		Level: "info",
		Dir:   dir,
	})
	require.NoError(t, err)

	logger.Info("hello file")
	logger.Debug("filtered out")
	require.NoError(t, guard.Close())

	name := FilePrefix + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello file"`)
	assert.NotContains(t, string(data), "filtered out")
}

func TestDailyFileRollsOver(t *testing.T) {
	dir := t.TempDir()
	d, err := openDailyFile(dir)
	require.NoError(t, err)
	defer d.Close()

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	d.now = func() time.Time { return day }

	_, err = d.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = d.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	first, err := os.ReadFile(filepath.Join(dir, "tallyvm-2026-03-01.log"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "tallyvm-2026-03-02.log"))
	require.NoError(t, err)

	assert.Equal(t, "first\n", string(first))
	assert.Equal(t, "second\n", string(second))

	_, err = d.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
