package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "b3data/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"BE", "BB"}, cfg.Processing.RegionCodes)
	assert.Equal(t, "_", cfg.Processing.RegionSeparator)
	assert.Equal(t, TimestampLayout, cfg.Processing.TimestampLayout)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.True(t, cfg.Telemetry.EnableMetrics)
	require.NoError(t, cfg.Validate())
}

func TestLoadFrom_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("B3_LOGGING_LEVEL", "debug")
	t.Setenv("B3_PROCESSING_REGION_CODES", "BB,BE,DE")
	t.Setenv("B3_TELEMETRY_SAMPLE_RATIO", "0.5")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"BB", "BE", "DE"}, cfg.Processing.RegionCodes)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRatio)
	// untouched fields keep their defaults
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b3data.yaml")
	content := `
logging:
  level: warn
  output: console
processing:
  region_separator: "-"
  sheet: Data
telemetry:
  enable_metrics: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("B3_LOGGING_LEVEL", "error")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level, "env wins over file")
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "-", cfg.Processing.RegionSeparator)
	assert.Equal(t, "Data", cfg.Processing.Sheet)
	assert.False(t, cfg.Telemetry.EnableMetrics)
	assert.Equal(t, []string{"BE", "BB"}, cfg.Processing.RegionCodes, "absent keys keep defaults")
}

func TestLoadFrom_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "missing file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent.yaml")
			},
		},
		{
			name: "malformed yaml",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "bad.yaml")
				require.NoError(t, os.WriteFile(path, []byte("logging: [unclosed"), 0o644))
				return path
			},
		},
		{
			name: "invalid log level",
			setup: func(t *testing.T) string {
				t.Setenv("B3_LOGGING_LEVEL", "verbose")
				return ""
			},
		},
		{
			name: "sample ratio out of range",
			setup: func(t *testing.T) string {
				t.Setenv("B3_TELEMETRY_SAMPLE_RATIO", "2")
				return ""
			},
		},
		{
			name: "file output without path",
			setup: func(t *testing.T) string {
				t.Setenv("B3_LOGGING_OUTPUT", "file")
				t.Setenv("B3_LOGGING_FILE_PATH", "")
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.setup(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrConfig))
		})
	}
}

func TestValidate_EmptyRegionCodes(t *testing.T) {
	cfg := Default()
	cfg.Processing.RegionCodes = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, apperrors.ExitCode(err))
}

func TestGetConfigFilePath_Env(t *testing.T) {
	t.Setenv("B3_CONFIG", "/etc/b3data.yaml")
	assert.Equal(t, "/etc/b3data.yaml", getConfigFilePath())
}
