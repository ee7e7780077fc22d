package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"officebook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	app := config.AppConfig{Name: "officebook", Environment: "test", Version: "0.1.0"}

	cases := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"Defaults", config.LoggingConfig{}},
		{"Stderr", config.LoggingConfig{Level: "debug", Output: "stderr"}},
		{"Console", config.LoggingConfig{Level: "warn", Format: "console"}},
		{"UnknownLevelFallsBack", config.LoggingConfig{Level: "shouty"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, closer, err := New(tc.cfg, app)
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Nil(t, closer)
		})
	}

	t.Run("FileOutput", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "officebook.log")
		cfg := config.LoggingConfig{Level: "error", Output: "file", FilePath: logPath}

		logger, closer, err := New(cfg, app)
		require.NoError(t, err)
		require.NotNil(t, logger)
		require.NotNil(t, closer)
		require.NoError(t, closer.Close())

		_, err = os.Stat(logPath)
		assert.NoError(t, err)
	})

	t.Run("FileWithoutPath", func(t *testing.T) {
		cfg := config.LoggingConfig{Output: "file"}
		_, _, err := New(cfg, app)
		assert.Error(t, err)
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	logger := Component(&base, "report-worker")
	logger.Info().Msg("queue drained")

	assert.Contains(t, buf.String(), `"component":"report-worker"`)
}
