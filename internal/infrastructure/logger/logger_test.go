package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestProductionConfig(t *testing.T) {
	cfg := ProductionConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "default config", cfg: DefaultConfig()},
		{name: "production config", cfg: ProductionConfig()},
		{
			name: "debug console",
			cfg: &Config{
				Level:      "debug",
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02T15:04:05Z07:00",
			},
		},
		{
			name: "json with service name",
			cfg: &Config{
				Level:      "info",
				Format:     "json",
				Output:     "stderr",
				TimeFormat: "2006-01-02T15:04:05Z07:00",
				Service:    "billing-backend",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)

			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNew_UnwritableOutput(t *testing.T) {
	_, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     filepath.Join(t.TempDir(), "missing", "app.log"),
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	})

	require.Error(t, err)
}

func TestNew_ServiceFieldOnEveryEntry(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "billing.log")
	logger, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     logPath,
		TimeFormat: "2006-01-02T15:04:05Z07:00",
		Service:    "billing-backend",
	})
	require.NoError(t, err)

	logger.Info("invoice finalized", zap.String("invoice_number", "INV-OP-202609-00001"))
	require.NoError(t, Sync(logger))

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "billing-backend", entry["service"])
	assert.Equal(t, "invoice finalized", entry["msg"])
	assert.Equal(t, "INV-OP-202609-00001", entry["invoice_number"])
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", "staging"} {
		t.Run(env, func(t *testing.T) {
			logger, err := NewForEnvironment(env)

			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestCreateWriter(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "STDOUT"} {
		t.Run(output, func(t *testing.T) {
			writer, err := createWriter(output)

			require.NoError(t, err)
			assert.NotNil(t, writer)
		})
	}
}

func TestCreateWriterFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "server.log")

	writer, err := createWriter(logPath)

	require.NoError(t, err)
	assert.NotNil(t, writer)
}

func TestEncoderFormats(t *testing.T) {
	cfg := &Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	}
	assert.NotNil(t, createEncoder(cfg))

	cfg.Format = "json"
	assert.NotNil(t, createEncoder(cfg))
}
