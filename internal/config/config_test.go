package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 60, cfg.Server.TimeoutSeconds)
	require.Equal(t, "gcs", cfg.Storage.Backend)
	require.Equal(t, "us-east-1", cfg.Storage.Region)
	require.Equal(t, 2, cfg.Fetch.MaxRetries)
	require.InDelta(t, 0.5, cfg.Fetch.BackoffFactor, 1e-9)
	require.Equal(t, "conversions", cfg.DB.Table)
	require.False(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
storage:
  backend: memory
fetch:
  max_retries: 4
  backoff_factor: 0.25
logging:
  development: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "memory", cfg.Storage.Backend)
	require.Equal(t, 4, cfg.Fetch.MaxRetries)
	require.InDelta(t, 0.25, cfg.Fetch.BackoffFactor, 1e-9)
	require.True(t, cfg.Logging.Development)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Server:  ServerConfig{Port: 8080, TimeoutSeconds: 60},
			Storage: StorageConfig{Backend: "memory"},
			Fetch:   FetchConfig{MaxRetries: 2, BackoffFactor: 0.5},
		}
	}

	cfg := base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage.Backend = "s3"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Fetch.MaxRetries = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Fetch.BackoffFactor = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.PubSub.TopicName = "conversions"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.PubSub.TopicName = "conversions"
	cfg.PubSub.ProjectID = "proj"
	require.NoError(t, cfg.Validate())
}
