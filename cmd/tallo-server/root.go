package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tallo-server",
	Short: "Chunked speech synthesis API server",
	Long: `tallo-server fronts a speech synthesis worker with chunked
long-text handling, per-speaker voice profiles, and a content cache so
repeated narration of the same pages costs no synthesis time.

Start the server:
  tallo-server

Start with custom settings:
  tallo-server --listen 0.0.0.0:8080 --backend http://localhost:8081

Use environment variables:
  TALLO_LISTEN=0.0.0.0:8080 TALLO_BACKEND=http://localhost:8081 tallo-server`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tallo-server %s\n", Version)
		fmt.Printf("  Commit:     %s\n", Commit)
		fmt.Printf("  Build Date: %s\n", BuildDate)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.Flags().String("listen", "0.0.0.0:8080", "Server listen address")
	rootCmd.Flags().Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	rootCmd.Flags().Duration("write-timeout", 120*time.Second, "HTTP write timeout")

	rootCmd.Flags().String("backend", "http://127.0.0.1:8081", "Synthesis worker URL")
	rootCmd.Flags().Duration("backend-timeout", 120*time.Second, "Synthesis worker request timeout")
	rootCmd.Flags().Bool("accelerator", false, "Worker runs on dedicated hardware (serializes chunk synthesis)")

	rootCmd.Flags().String("data-dir", "data", "Base directory for outputs, cache, and the profile database")
	rootCmd.Flags().Int("chunk-sentences", 3, "Sentences per synthesis chunk")
	rootCmd.Flags().Int("workers", 0, "Worker pool size override (0 = derive from hardware)")

	rootCmd.Flags().String("api-key", "", "API key for authentication (empty = no auth)")
	rootCmd.Flags().Int("max-text-length", 0, "Maximum text length (0 = unlimited)")

	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "json", "Log format (json, text)")

	bindFlags()

	rootCmd.AddCommand(versionCmd)
}

func bindFlags() {
	bindings := []struct {
		key  string
		flag string
	}{
		{"server.listen", "listen"},
		{"server.read_timeout", "read-timeout"},
		{"server.write_timeout", "write-timeout"},
		{"backend.url", "backend"},
		{"backend.timeout", "backend-timeout"},
		{"backend.accelerator", "accelerator"},
		{"pipeline.chunk_sentences", "chunk-sentences"},
		{"pipeline.workers", "workers"},
		{"auth.api_key", "api-key"},
		{"limits.max_text_length", "max-text-length"},
		{"logging.level", "log-level"},
		{"logging.format", "log-format"},
	}

	for _, b := range bindings {
		flag := rootCmd.Flags().Lookup(b.flag)
		if flag == nil {
			continue
		}
		_ = viper.BindPFlag(b.key, flag)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TALLO")
	viper.AutomaticEnv()

	viper.BindEnv("server.listen", "TALLO_LISTEN")
	viper.BindEnv("backend.url", "TALLO_BACKEND")
	viper.BindEnv("backend.timeout", "TALLO_BACKEND_TIMEOUT")
	viper.BindEnv("backend.accelerator", "TALLO_BACKEND_ACCELERATOR")
	viper.BindEnv("storage.output_dir", "TALLO_OUTPUT_DIR")
	viper.BindEnv("storage.cache_dir", "TALLO_CACHE_DIR")
	viper.BindEnv("storage.asset_dir", "TALLO_ASSET_DIR")
	viper.BindEnv("storage.embedding_dir", "TALLO_EMBEDDING_DIR")
	viper.BindEnv("storage.database_path", "TALLO_DATABASE_PATH")
	viper.BindEnv("pipeline.chunk_sentences", "TALLO_CHUNK_SENTENCES")
	viper.BindEnv("pipeline.workers", "TALLO_WORKERS")
	viper.BindEnv("auth.api_key", "TALLO_API_KEY")
	viper.BindEnv("limits.max_text_length", "TALLO_MAX_TEXT_LENGTH")
	viper.BindEnv("logging.level", "TALLO_LOG_LEVEL")
	viper.BindEnv("logging.format", "TALLO_LOG_FORMAT")

	viper.SetDefault("server.listen", "0.0.0.0:8080")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 120*time.Second)
	viper.SetDefault("backend.url", "http://127.0.0.1:8081")
	viper.SetDefault("backend.timeout", 120*time.Second)
	viper.SetDefault("backend.max_connections", 100)
	viper.SetDefault("backend.accelerator", false)
	viper.SetDefault("storage.output_dir", "data/outputs")
	viper.SetDefault("storage.cache_dir", "data/cache")
	viper.SetDefault("storage.asset_dir", "data/assets")
	viper.SetDefault("storage.embedding_dir", "data/embeddings")
	viper.SetDefault("storage.database_path", "data/tallo.db")
	viper.SetDefault("pipeline.chunk_sentences", 3)
	viper.SetDefault("pipeline.workers", 0)
	viper.SetDefault("auth.api_key", "")
	viper.SetDefault("limits.max_text_length", 0)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	bindFlags()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
