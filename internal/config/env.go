// Package config defines the service configuration and its loaders.
package config

import (
	"time"

	"github.com/tensorplex-labs/threshold/internal/cluster"
	"github.com/tensorplex-labs/threshold/internal/threshold"
)

// Config is read from an optional YAML file and then from the environment,
// which wins.
type Config struct {
	Environment string          `yaml:"environment" env:"ENVIRONMENT, overwrite, default=prod"`
	Threshold   ThresholdConfig `yaml:"threshold"`
	Server      ServerConfig    `yaml:"server"`
	Client      ClientConfig    `yaml:"client"`
	Redis       RedisConfig     `yaml:"redis"`
}

// ThresholdConfig holds the defaults applied to requests that leave an
// option out.
type ThresholdConfig struct {
	Method          string  `yaml:"method" env:"THRESH_METHOD, overwrite, default=mad"`
	Seed            uint64  `yaml:"seed" env:"THRESH_SEED, overwrite, default=1234"`
	Cluster         string  `yaml:"cluster" env:"THRESH_CLUSTER, overwrite, default=spec"`
	Filter          string  `yaml:"filter" env:"THRESH_FILTER, overwrite, default=wiener"`
	Sigma           float64 `yaml:"sigma" env:"THRESH_FILTER_SIGMA, overwrite"`
	Center          string  `yaml:"center" env:"THRESH_CHAU_CENTER, overwrite, default=mean"`
	GESDAlpha       float64 `yaml:"gesd_alpha" env:"THRESH_GESD_ALPHA, overwrite, default=0.05"`
	GESDMaxOutliers int     `yaml:"gesd_max_outliers" env:"THRESH_GESD_MAX_OUTLIERS, overwrite"`
	MTTAlpha        float64 `yaml:"mtt_alpha" env:"THRESH_MTT_ALPHA, overwrite, default=0.99"`
	MTTMaxOutliers  int     `yaml:"mtt_max_outliers" env:"THRESH_MTT_MAX_OUTLIERS, overwrite"`
	MetaModel       string  `yaml:"meta_model" env:"THRESH_META_MODEL, overwrite"`
	MetaGroups      int     `yaml:"meta_groups" env:"THRESH_META_GROUPS, overwrite, default=380"`
}

// Options converts the configured defaults to procedure options. The meta
// predictor is not part of the config and is attached by the caller.
func (t ThresholdConfig) Options() threshold.Options {
	return threshold.Options{
		Seed:            t.Seed,
		Cluster:         cluster.Kind(t.Cluster),
		Filter:          threshold.FilterKind(t.Filter),
		Sigma:           t.Sigma,
		Center:          threshold.Center(t.Center),
		GESDAlpha:       t.GESDAlpha,
		GESDMaxOutliers: t.GESDMaxOutliers,
		MTTAlpha:        t.MTTAlpha,
		MTTMaxOutliers:  t.MTTMaxOutliers,
		MetaGroups:      t.MetaGroups,
	}
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host          string `yaml:"host" env:"SERVER_HOST, overwrite, default=0.0.0.0"`
	Port          int    `yaml:"port" env:"SERVER_PORT, overwrite, default=8888"`
	BodySizeLimit int    `yaml:"body_limit" env:"SERVER_BODY_LIMIT, overwrite, default=4194304"`
}

// ClientConfig configures the HTTP client of the remote command.
type ClientConfig struct {
	URL     string        `yaml:"url" env:"THRESH_SERVER_URL, overwrite, default=http://127.0.0.1:8888"`
	Timeout time.Duration `yaml:"timeout" env:"CLIENT_TIMEOUT, overwrite, default=30s"`
}

// RedisConfig configures the result cache. With Enabled unset results are
// cached in memory.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED, overwrite"`
	Host     string        `yaml:"host" env:"REDIS_HOST, overwrite, default=127.0.0.1"`
	Port     int           `yaml:"port" env:"REDIS_PORT, overwrite, default=6379"`
	Username string        `yaml:"username" env:"REDIS_USERNAME, overwrite"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD, overwrite"`
	DB       int           `yaml:"db" env:"REDIS_DB, overwrite"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL, overwrite, default=10m"`
	// MemoryEntries bounds the in-memory cache.
	MemoryEntries int `yaml:"memory_entries" env:"CACHE_MEMORY_ENTRIES, overwrite, default=1024"`
}
