package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
vision:
  training_endpoint: https://example.com
  project_id: proj-1
  training_timeout: 90
labels:
  - name: 인물
    id: 2
    threshold: 0.9
    weight: 1.2
dashboard:
  viewcount_iteration: viewcount-v1
  trending_iteration: trending-v1
  default_threshold: 0.5
store:
  type: sqlite
  sqlite:
    dsn: file:test.db
server:
  port: 8000
log:
  level: debug
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", cfg.Vision.TrainingEndpoint)
	assert.Equal(t, "proj-1", cfg.Vision.ProjectID)
	assert.Equal(t, 90, cfg.Vision.TrainingTimeout)

	require.Len(t, cfg.Labels, 1)
	assert.Equal(t, "인물", cfg.Labels[0].Name)
	assert.Equal(t, 2, cfg.Labels[0].ID)
	assert.InDelta(t, 1.2, cfg.Labels[0].Weight, 1e-9)

	assert.Equal(t, "viewcount-v1", cfg.Dashboard.ViewCountIteration)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigSecretsFromEnv(t *testing.T) {
	t.Setenv("THUMBTREND_VISION_TRAINING_KEY", "env-training-key")
	t.Setenv("THUMBTREND_VISION_PREDICTION_KEY", "env-prediction-key")
	t.Setenv("THUMBTREND_AUTH_SECRET", "env-secret")

	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "env-training-key", cfg.Vision.TrainingKey)
	assert.Equal(t, "env-prediction-key", cfg.Vision.PredictionKey)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
