// Package config loads gateway configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage backend names accepted in the config file.
const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendLevelDB = "leveldb"
)

// Config is the gateway configuration.
type Config struct {
	Server struct {
		Port   int    `yaml:"port" env:"GATEWAY_PORT"`
		Origin string `yaml:"origin" env:"GATEWAY_ORIGIN"`
	} `yaml:"server"`

	Storage struct {
		Backend string `yaml:"backend" env:"GATEWAY_STORAGE_BACKEND"`
		Redis   struct {
			Addr     string `yaml:"addr" env:"GATEWAY_REDIS_ADDR"`
			Password string `yaml:"password" env:"GATEWAY_REDIS_PASSWORD"`
			DB       int    `yaml:"db" env:"GATEWAY_REDIS_DB"`
		} `yaml:"redis"`
		LevelDB struct {
			Path string `yaml:"path" env:"GATEWAY_LEVELDB_PATH"`
		} `yaml:"leveldb"`
	} `yaml:"storage"`

	Cache struct {
		Prefix   string   `yaml:"prefix" env:"GATEWAY_CACHE_PREFIX"`
		Version  string   `yaml:"version" env:"GATEWAY_CACHE_VERSION"`
		Manifest []string `yaml:"manifest"`
		// NoCache extends the built-in sensitive-URL patterns.
		NoCache []string `yaml:"noCache"`
	} `yaml:"cache"`

	Session struct {
		LoginRoute string `yaml:"loginRoute" env:"GATEWAY_LOGIN_ROUTE"`
	} `yaml:"session"`

	Logging struct {
		Level  string `yaml:"level" env:"GATEWAY_LOG_LEVEL"`
		Pretty bool   `yaml:"pretty" env:"GATEWAY_LOG_PRETTY"`
	} `yaml:"logging"`
}

// Load reads the YAML file at path, applies environment overrides, fills
// defaults and validates. An empty path skips the file and builds the
// config from environment and defaults alone.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMemory
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "localhost:6379"
	}
	if cfg.Session.LoginRoute == "" {
		cfg.Session.LoginRoute = "/login"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Server.Origin = strings.TrimRight(cfg.Server.Origin, "/")
}

func validate(cfg *Config) error {
	if cfg.Server.Origin == "" {
		return fmt.Errorf("server.origin is required")
	}
	u, err := url.Parse(cfg.Server.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.origin must be an absolute URL, got %q", cfg.Server.Origin)
	}

	switch cfg.Storage.Backend {
	case BackendMemory, BackendRedis:
	case BackendLevelDB:
		if cfg.Storage.LevelDB.Path == "" {
			return fmt.Errorf("storage.leveldb.path is required for the leveldb backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Cache.Prefix == "" {
		return fmt.Errorf("cache.prefix is required")
	}
	if cfg.Cache.Version == "" {
		return fmt.Errorf("cache.version is required")
	}
	for i, p := range cfg.Cache.Manifest {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("cache.manifest[%d]: path %q must start with /", i, p)
		}
	}
	return nil
}
