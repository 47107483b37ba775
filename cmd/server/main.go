package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/brightminds/internal/api"
	"github.com/good-yellow-bee/brightminds/internal/api/health"
	"github.com/good-yellow-bee/brightminds/internal/metrics"
	"github.com/good-yellow-bee/brightminds/internal/storage"
	"github.com/good-yellow-bee/brightminds/pkg/config"
)

var (
	configFile string
	envFile    string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "brightminds-server",
	Short: "BrightMinds API server",
	Long: `BrightMinds API server stores student records, generates analyses and
serves the parent, teacher and admin front ends.

Configuration comes from an optional YAML file, then a .env file, then
environment variables (PORT, MONGO_URI, JWT_SECRET, DB_TYPE, SQLITE_PATH,
IEP_EXTRACTION_URL, CORS_ORIGINS), then flags.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("brightminds-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (overrides PORT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every request")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*Config, error) {
	var cfg *Config
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	if err := LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	cfg.Verbose = verbose

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == DevJWTSecret {
		log.Printf("warning: using the development JWT secret; set JWT_SECRET in production")
	}

	store, err := storage.New(cfg.Database.Type, cfg.DSN())
	if err != nil {
		return err
	}
	if err := storage.OpenAndMigrate(store); err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Database.Type, err)
	}
	defer store.Close()
	log.Printf("%s storage ready", cfg.Database.Type)

	srv, err := api.New(cfg.APIConfig(), store)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}
	if cfg.Extraction.URL != "" {
		srv.RegisterHealthChecker(health.NewHTTPChecker("iep_extraction", cfg.Extraction.URL))
	}

	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("starting brightminds-server %s", config.Version)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gCtx)
	})

	if cfg.Metrics.Enabled && cfg.Metrics.Address != "" {
		ms := metrics.NewServer(cfg.Metrics.Address)
		g.Go(ms.Start)
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return ms.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
