package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// BackendConfig holds synthesis worker settings. Accelerator reports
// whether the worker runs on dedicated hardware, which serializes chunk
// synthesis to a single in-flight call.
type BackendConfig struct {
	URL            string        `mapstructure:"url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConnections int           `mapstructure:"max_connections"`
	Accelerator    bool          `mapstructure:"accelerator"`
}

// StorageConfig holds filesystem and database locations.
type StorageConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	CacheDir     string `mapstructure:"cache_dir"`
	AssetDir     string `mapstructure:"asset_dir"`
	EmbeddingDir string `mapstructure:"embedding_dir"`
	DatabasePath string `mapstructure:"database_path"`
}

// PipelineConfig holds chunking and scheduling settings.
type PipelineConfig struct {
	ChunkSentences int `mapstructure:"chunk_sentences"`
	// Workers overrides the hardware-derived pool size when > 0.
	Workers int `mapstructure:"workers"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LimitsConfig holds request limit settings.
type LimitsConfig struct {
	MaxTextLength int `mapstructure:"max_text_length"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       "0.0.0.0:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Backend: BackendConfig{
			URL:            "http://127.0.0.1:8081",
			Timeout:        120 * time.Second,
			MaxConnections: 100,
			Accelerator:    false,
		},
		Storage: StorageConfig{
			OutputDir:    "data/outputs",
			CacheDir:     "data/cache",
			AssetDir:     "data/assets",
			EmbeddingDir: "data/embeddings",
			DatabasePath: "data/tallo.db",
		},
		Pipeline: PipelineConfig{
			ChunkSentences: 3,
			Workers:        0,
		},
		Auth: AuthConfig{
			APIKey: "",
		},
		Limits: LimitsConfig{
			MaxTextLength: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load returns a Config populated with defaults and environment overrides.
func Load() (*Config, error) {
	return LoadWithDefaults(nil)
}

// LoadWithDefaults loads configuration using defaults and an optional
// overrides map (for tests).
func LoadWithDefaults(overrides map[string]interface{}) (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if overrides != nil {
		raw, err := json.Marshal(overrides)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TALLO_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("TALLO_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("TALLO_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("TALLO_BACKEND"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("TALLO_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = d
		}
	}
	if v := os.Getenv("TALLO_BACKEND_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.MaxConnections = n
		}
	}
	if v := os.Getenv("TALLO_BACKEND_ACCELERATOR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Backend.Accelerator = b
		}
	}
	if v := os.Getenv("TALLO_OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := os.Getenv("TALLO_CACHE_DIR"); v != "" {
		cfg.Storage.CacheDir = v
	}
	if v := os.Getenv("TALLO_ASSET_DIR"); v != "" {
		cfg.Storage.AssetDir = v
	}
	if v := os.Getenv("TALLO_EMBEDDING_DIR"); v != "" {
		cfg.Storage.EmbeddingDir = v
	}
	if v := os.Getenv("TALLO_DATABASE_PATH"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv("TALLO_CHUNK_SENTENCES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.ChunkSentences = n
		}
	}
	if v := os.Getenv("TALLO_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("TALLO_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("TALLO_MAX_TEXT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxTextLength = n
		}
	}
	if v := os.Getenv("TALLO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TALLO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
