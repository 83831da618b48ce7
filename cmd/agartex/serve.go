// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Agar-OSS/agartex-service/internal/auth"
	authpg "github.com/Agar-OSS/agartex-service/internal/auth/postgres"
	"github.com/Agar-OSS/agartex-service/internal/config"
	"github.com/Agar-OSS/agartex-service/internal/logging"
	"github.com/Agar-OSS/agartex-service/internal/observability"
	"github.com/Agar-OSS/agartex-service/internal/store"
	"github.com/Agar-OSS/agartex-service/internal/web"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the HTTP service that registers users, issues session
cookies on login and validates them on protected routes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, autoMigrate)
		},
	}

	cmd.Flags().String("addr", "", "service listen address")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	cmd.Flags().String("cookie-name", "", "session cookie name")
	cmd.Flags().Bool("cookie-secure", false, "set the Secure attribute on session cookies")
	cmd.Flags().Int64("session-lifetime", 0, "session lifetime in seconds")
	cmd.Flags().Int("hash-cost", 0, "bcrypt cost for password hashing")
	cmd.Flags().String("log-format", "", "log format (json or text)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, autoMigrate bool) error {
	logging.SetDefault("agartex", version, cfg.Log.Format)
	logger := slog.Default()

	if autoMigrate {
		migrator, err := store.NewMigrator(cfg.Database.URL)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").Wrap(err)
		}
		logger.Info("migrations applied")
	}

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	hasher, err := auth.NewBcryptHasher(cfg.Auth.HashCost)
	if err != nil {
		return err
	}

	userRepo := authpg.NewUserRepository(pool)
	sessionRepo := authpg.NewSessionRepository(pool)

	userService, err := auth.NewUserService(userRepo, hasher)
	if err != nil {
		return err
	}
	sessionService, err := auth.NewSessionService(sessionRepo, userRepo, hasher, cfg.Session.Lifetime())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Observability server, when configured. Readiness follows the database.
	var metrics *observability.Metrics
	var obsServer *observability.Server
	if cfg.Server.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.Server.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		metrics = obsServer.Metrics()
	}

	handler, err := web.NewHandler(sessionService, userService, cfg.Session.CookieName, cfg.Session.CookieSecure, metrics, logger)
	if err != nil {
		return err
	}

	webServer := web.NewServer(cfg.Server.Addr, handler.Routes())
	webErrCh, err := webServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, webErrCh, "web")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		logger.Warn("failed to stop web server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("failed to stop observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the run context when a server fails after
// startup, so the process exits instead of limping along.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
