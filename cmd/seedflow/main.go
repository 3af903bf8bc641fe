package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seedflow/infrastructure/bridge"
	"seedflow/infrastructure/config"
	httpserver "seedflow/infrastructure/http"
	"seedflow/infrastructure/logging"
	"seedflow/infrastructure/sqlite"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "seedflow",
	Short:         "Seed production dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the production dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	db, err := sqlite.OpenDB(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(ctx, db, cfg.SQLite.MigrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	client, err := bridge.NewClient(cfg.Bridge, logger)
	if err != nil {
		return err
	}

	server := httpserver.NewServer(cfg, db, client, logger)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	logger.Info("seedflow started",
		zap.String("addr", cfg.Server.Addr),
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.String("bridge", cfg.Bridge.BaseURL))

	<-ctx.Done()
	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
	return nil
}
