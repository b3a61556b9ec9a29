package cmd

import (
	"fmt"
	"os"

	"kindle-sync/core/config"
	"kindle-sync/core/database"
	"kindle-sync/core/logger"
	"kindle-sync/feature/library"
	"kindle-sync/feature/library/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "kindle-sync",
	Short: "Kindle Highlights Sync",
	Long: `Kindle Sync keeps a local library of your Kindle books and highlights.
It scrapes the Amazon notebook, reconciles changes into a SQLite database
and can serve or export the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting
		// We default to console format to match user expectations (CLI tool)
		// We use "debug" level configuration to get ISO8601 timestamps (DevConfig) instead of Epoch (ProdConfig)
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			// Log the error with structured logger (Console encoding will make it pretty)
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

// env bundles the pieces every command needs.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	feature *library.Feature
}

// setup loads configuration and opens the database. Every command goes
// through here so that flags, env vars and .env behave identically.
func setup() (*env, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := store.New(db, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	f, err := library.NewFeature(s, cfg.Sync, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize library: %w", err)
	}

	return &env{cfg: cfg, log: l, store: s, feature: f}, nil
}
