package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray deckenrich.yaml
// or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, DefaultTextURL, cfg.Text.URL)
	assert.Equal(t, DefaultChartURL, cfg.Chart.URL)
	assert.Equal(t, 60*time.Second, cfg.Chart.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Chart.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Diagram.PollInterval)
	assert.Zero(t, cfg.Text.PollInterval)
	assert.Equal(t, 2.0, cfg.ValidationThreshold)
	assert.Zero(t, cfg.MaxConcurrency)
	assert.Zero(t, cfg.RunDeadline)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CHART_SERVICE_URL", "http://localhost:9000/")
	t.Setenv("CHART_SERVICE_TIMEOUT", "30")
	t.Setenv("CHART_POLL_INTERVAL", "500ms")
	t.Setenv("VALIDATION_THRESHOLD", "1.5")
	t.Setenv("DISPATCH_MAX_CONCURRENCY", "8")
	t.Setenv("RUN_DEADLINE", "2m")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Chart.URL)
	assert.Equal(t, 30*time.Second, cfg.Chart.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Chart.PollInterval)
	assert.Equal(t, 1.5, cfg.ValidationThreshold)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.RunDeadline)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_ConfigFileAndDotenv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deckenrich.yaml"), []byte(
		"text_service_url: http://text.local\nimage_service_timeout: 15\n",
	), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"DIAGRAM_SERVICE_URL=http://diagram.local\nIMAGE_SERVICE_TIMEOUT=20\n",
	), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("DIAGRAM_SERVICE_URL")
		os.Unsetenv("IMAGE_SERVICE_TIMEOUT")
	})

	cfg, err := Load(LoadOptions{EnvFiles: []string{".env", "missing.env"}})
	require.NoError(t, err)

	assert.Equal(t, "http://text.local", cfg.Text.URL)
	assert.Equal(t, "http://diagram.local", cfg.Diagram.URL)
	assert.Equal(t, 20*time.Second, cfg.Image.Timeout, "environment beats the config file")
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	dir := isolate(t)
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(dir, "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad duration",
			env:     map[string]string{"TEXT_SERVICE_TIMEOUT": "soon"},
			wantErr: "TEXT_SERVICE_TIMEOUT",
		},
		{
			name:    "poll longer than timeout",
			env:     map[string]string{"DIAGRAM_SERVICE_TIMEOUT": "1", "DIAGRAM_POLL_INTERVAL": "5"},
			wantErr: "DIAGRAM_POLL_INTERVAL exceeds",
		},
		{
			name:    "threshold below one",
			env:     map[string]string{"VALIDATION_THRESHOLD": "0.5"},
			wantErr: "VALIDATION_THRESHOLD",
		},
		{
			name:    "negative concurrency",
			env:     map[string]string{"DISPATCH_MAX_CONCURRENCY": "-1"},
			wantErr: "DISPATCH_MAX_CONCURRENCY",
		},
		{
			name:    "unknown log format",
			env:     map[string]string{"LOG_FORMAT": "xml"},
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(LoadOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServiceConfig(t *testing.T) {
	isolate(t)
	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	sc := cfg.ServiceConfig(deck.ServiceDiagram)
	assert.Equal(t, "diagram", sc.Name)
	assert.Equal(t, DefaultDiagramURL, sc.BaseURL)
	assert.Equal(t, 30, sc.MaxAttempts())

	set := cfg.Clients()
	assert.NotNil(t, set.Text)
	assert.NotNil(t, set.Chart)
	assert.NotNil(t, set.Image)
	assert.NotNil(t, set.Diagram)
}
