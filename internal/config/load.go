package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/tensorplex-labs/threshold/internal/threshold"
)

// FileEnv names the variable pointing at the optional YAML config file.
const FileEnv = "THRESH_CONFIG_FILE"

// Load reads .env if present, then the YAML file named by
// THRESH_CONFIG_FILE, then the environment, and validates the result.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	cfg := &Config{}
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFromYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	log.Debug().Str("path", path).Msg("config file loaded")
	return nil
}

func validate(cfg *Config) error {
	switch strings.ToLower(cfg.Environment) {
	case "dev", "test", "prod":
	default:
		return fmt.Errorf("environment must be dev, test or prod, got %q", cfg.Environment)
	}

	if _, err := threshold.ParseMethod(cfg.Threshold.Method); err != nil {
		return err
	}
	if err := cfg.Threshold.Options().Validate(); err != nil {
		return err
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.BodySizeLimit < 1024 {
		return fmt.Errorf("server body limit must be at least 1024 bytes, got %d", cfg.Server.BodySizeLimit)
	}
	if cfg.Client.Timeout < time.Second || cfg.Client.Timeout > 10*time.Minute {
		return fmt.Errorf("client timeout must be between 1s and 10m, got %v", cfg.Client.Timeout)
	}

	if cfg.Redis.Enabled {
		if cfg.Redis.Host == "" {
			return fmt.Errorf("redis host cannot be empty when redis is enabled")
		}
		if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
			return fmt.Errorf("redis port must be between 1 and 65535, got %d", cfg.Redis.Port)
		}
	}
	if cfg.Redis.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %v", cfg.Redis.TTL)
	}
	if cfg.Redis.MemoryEntries < 1 {
		return fmt.Errorf("memory cache entries must be at least 1, got %d", cfg.Redis.MemoryEntries)
	}
	return nil
}
