package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/threshold/internal/cluster"
	"github.com/tensorplex-labs/threshold/internal/threshold"
)

func cleanEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		FileEnv, "THRESH_METHOD", "THRESH_SEED", "THRESH_CLUSTER", "THRESH_FILTER",
		"THRESH_FILTER_SIGMA", "THRESH_GESD_ALPHA", "THRESH_META_GROUPS",
		"SERVER_PORT", "REDIS_ENABLED", "REDIS_HOST", "REDIS_TTL", "CLIENT_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("ENVIRONMENT", "test")
}

func TestLoadDefaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "mad", cfg.Threshold.Method)
	assert.Equal(t, uint64(1234), cfg.Threshold.Seed)
	assert.Equal(t, "spec", cfg.Threshold.Cluster)
	assert.Equal(t, "wiener", cfg.Threshold.Filter)
	assert.Equal(t, 380, cfg.Threshold.MetaGroups)
	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, 4194304, cfg.Server.BodySizeLimit)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("THRESH_METHOD", "gesd")
	t.Setenv("THRESH_GESD_ALPHA", "0.01")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("REDIS_TTL", "1m")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gesd", cfg.Threshold.Method)
	assert.Equal(t, 0.01, cfg.Threshold.GESDAlpha)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
}

func TestLoadYAMLThenEnvironment(t *testing.T) {
	cleanEnv(t)

	path := filepath.Join(t.TempDir(), "thresh.yaml")
	raw := []byte(`
threshold:
  method: filter
  filter: savgol
  sigma: 4
server:
  port: 7000
redis:
  enabled: true
  host: cache.internal
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("SERVER_PORT", "7100")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "filter", cfg.Threshold.Method)
	assert.Equal(t, "savgol", cfg.Threshold.Filter)
	assert.Equal(t, 4.0, cfg.Threshold.Sigma)
	assert.Equal(t, 7100, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoadMissingFile(t *testing.T) {
	cleanEnv(t)
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown method", "THRESH_METHOD", "iqr"},
		{"unknown cluster", "THRESH_CLUSTER", "hdbscan"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"gesd alpha", "THRESH_GESD_ALPHA", "1.5"},
		{"client timeout", "CLIENT_TIMEOUT", "1ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestThresholdOptions(t *testing.T) {
	tc := ThresholdConfig{
		Seed:       7,
		Cluster:    "kmeans",
		Filter:     "gaussian",
		Sigma:      2,
		Center:     "median",
		GESDAlpha:  0.05,
		MTTAlpha:   0.99,
		MetaGroups: 12,
	}
	opts := tc.Options()

	assert.Equal(t, uint64(7), opts.Seed)
	assert.Equal(t, cluster.Kind("kmeans"), opts.Cluster)
	assert.Equal(t, threshold.FilterGaussian, opts.Filter)
	assert.Equal(t, threshold.CenterMedian, opts.Center)
	assert.Equal(t, 12, opts.MetaGroups)
	assert.NoError(t, opts.Validate())
}
