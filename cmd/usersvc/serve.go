package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"userManagement/internal/config"
	"userManagement/internal/db"
	grpcserver "userManagement/internal/grpc"
	"userManagement/internal/logger"
	"userManagement/repository"
)

func newServeCmd() *cobra.Command {
	var addr, driver, dsn, level string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server",
		Long:  "Start the UserService gRPC server. Flags override the corresponding environment variables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.GRPC.Address = addr
			}
			if flags.Changed("db-driver") {
				cfg.Database.Driver = driver
			}
			if flags.Changed("db-dsn") {
				cfg.Database.DSN = dsn
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = level
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logger.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()
			log.Info("configuration loaded", zap.Stringer("config", cfg))

			// Open DB
			d, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					log.Error("close db", zap.Error(err))
				}
			}()

			users := repository.NewUserRepository(d)

			// Start gRPC
			bound, shutdown, err := grpcserver.StartGRPC(cfg, users, log)
			if err != nil {
				return fmt.Errorf("start grpc: %w", err)
			}
			log.Info("gRPC server listening", zap.String("address", bound.String()))

			// Wait for signal
			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigc
			log.Info("shutting down", zap.String("signal", sig.String()))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Warn("shutdown", zap.Error(err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (GRPC_ADDRESS)")
	cmd.Flags().StringVar(&driver, "db-driver", "", "database driver: sqlite3 or mysql (DB_DRIVER)")
	cmd.Flags().StringVar(&dsn, "db-dsn", "", "database DSN or mysql:// URL (DB_DSN)")
	cmd.Flags().StringVar(&level, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	return cmd
}
