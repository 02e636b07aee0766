package main

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	viper.Reset()
	initConfig()

	cfg, err := loadConfig(rootCmd)
	assert.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Listen)
	assert.Equal(t, "http://127.0.0.1:8081", cfg.Backend.URL)
	assert.False(t, cfg.Backend.Accelerator)
	assert.Equal(t, "data/cache", cfg.Storage.CacheDir)
	assert.Equal(t, 3, cfg.Pipeline.ChunkSentences)
	assert.Equal(t, 0, cfg.Pipeline.Workers)
	assert.Equal(t, "", cfg.Auth.APIKey)
	assert.Equal(t, 0, cfg.Limits.MaxTextLength)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfigFromEnv(t *testing.T) {
	viper.Reset()
	os.Setenv("TALLO_LISTEN", "0.0.0.0:9090")
	os.Setenv("TALLO_BACKEND", "http://worker:8081")
	os.Setenv("TALLO_BACKEND_ACCELERATOR", "true")
	os.Setenv("TALLO_CHUNK_SENTENCES", "5")
	os.Setenv("TALLO_WORKERS", "4")
	os.Setenv("TALLO_API_KEY", "test-key")
	os.Setenv("TALLO_MAX_TEXT_LENGTH", "5000")
	os.Setenv("TALLO_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("TALLO_LISTEN")
		os.Unsetenv("TALLO_BACKEND")
		os.Unsetenv("TALLO_BACKEND_ACCELERATOR")
		os.Unsetenv("TALLO_CHUNK_SENTENCES")
		os.Unsetenv("TALLO_WORKERS")
		os.Unsetenv("TALLO_API_KEY")
		os.Unsetenv("TALLO_MAX_TEXT_LENGTH")
		os.Unsetenv("TALLO_LOG_LEVEL")
	}()

	initConfig()

	cfg, err := loadConfig(rootCmd)
	assert.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Listen)
	assert.Equal(t, "http://worker:8081", cfg.Backend.URL)
	assert.True(t, cfg.Backend.Accelerator)
	assert.Equal(t, 5, cfg.Pipeline.ChunkSentences)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, "test-key", cfg.Auth.APIKey)
	assert.Equal(t, 5000, cfg.Limits.MaxTextLength)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
