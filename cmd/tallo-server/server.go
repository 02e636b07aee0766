package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tallo-speech/tallo-go/internal/api"
	"github.com/tallo-speech/tallo-go/internal/backend"
	"github.com/tallo-speech/tallo-go/internal/cache"
	"github.com/tallo-speech/tallo-go/internal/config"
	"github.com/tallo-speech/tallo-go/internal/pipeline"
	"github.com/tallo-speech/tallo-go/internal/speaker"
	"github.com/tallo-speech/tallo-go/internal/store"
)

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("listen", cfg.Server.Listen).
		Str("backend", cfg.Backend.URL).
		Bool("accelerator", cfg.Backend.Accelerator).
		Str("log_level", cfg.Logging.Level).
		Msg("Starting tallo server")

	backendClient := backend.NewClient(&cfg.Backend)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := backendClient.Health(ctx); err != nil {
		logger.Warn().Err(err).Msg("Worker health check failed - server will start but synthesis may not work")
	} else {
		logger.Info().Str("backend", cfg.Backend.URL).Msg("Worker connection verified")
	}
	cancel()

	st, err := store.Open(context.Background(), cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer st.Close()

	cacheManager, err := cache.NewManager(st, cfg.Storage.CacheDir, logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	speakers, err := speaker.NewRegistry(st, backendClient, cacheManager, cfg.Storage.EmbeddingDir, logger)
	if err != nil {
		return fmt.Errorf("init speaker registry: %w", err)
	}

	p, err := pipeline.New(backendClient, speakers, cacheManager, cfg, logger)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	router := api.NewRouter(cfg, p, speakers, backendClient, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Listen).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Listen:       viper.GetString("server.listen"),
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
		},
		Backend: config.BackendConfig{
			URL:            viper.GetString("backend.url"),
			Timeout:        viper.GetDuration("backend.timeout"),
			MaxConnections: viper.GetInt("backend.max_connections"),
			Accelerator:    viper.GetBool("backend.accelerator"),
		},
		Storage: config.StorageConfig{
			OutputDir:    viper.GetString("storage.output_dir"),
			CacheDir:     viper.GetString("storage.cache_dir"),
			AssetDir:     viper.GetString("storage.asset_dir"),
			EmbeddingDir: viper.GetString("storage.embedding_dir"),
			DatabasePath: viper.GetString("storage.database_path"),
		},
		Pipeline: config.PipelineConfig{
			ChunkSentences: viper.GetInt("pipeline.chunk_sentences"),
			Workers:        viper.GetInt("pipeline.workers"),
		},
		Auth: config.AuthConfig{
			APIKey: viper.GetString("auth.api_key"),
		},
		Limits: config.LimitsConfig{
			MaxTextLength: viper.GetInt("limits.max_text_length"),
		},
		Logging: config.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}

	// --data-dir relocates every storage path that was not set explicitly.
	if cmd != nil {
		if flag := cmd.Flags().Lookup("data-dir"); flag != nil && flag.Changed {
			if base, err := cmd.Flags().GetString("data-dir"); err == nil && base != "" {
				defaults := config.Default()
				if cfg.Storage.OutputDir == defaults.Storage.OutputDir {
					cfg.Storage.OutputDir = filepath.Join(base, "outputs")
				}
				if cfg.Storage.CacheDir == defaults.Storage.CacheDir {
					cfg.Storage.CacheDir = filepath.Join(base, "cache")
				}
				if cfg.Storage.AssetDir == defaults.Storage.AssetDir {
					cfg.Storage.AssetDir = filepath.Join(base, "assets")
				}
				if cfg.Storage.EmbeddingDir == defaults.Storage.EmbeddingDir {
					cfg.Storage.EmbeddingDir = filepath.Join(base, "embeddings")
				}
				if cfg.Storage.DatabasePath == defaults.Storage.DatabasePath {
					cfg.Storage.DatabasePath = filepath.Join(base, "tallo.db")
				}
			}
		}
	}

	return cfg, nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
