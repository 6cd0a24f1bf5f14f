package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/cryptbill/cryptbill/internal/infrastructure/config"
	"github.com/cryptbill/cryptbill/internal/infrastructure/database"
	"github.com/cryptbill/cryptbill/internal/infrastructure/migration"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/cryptbill/cryptbill/internal/interfaces/http"
	"github.com/cryptbill/cryptbill/internal/shared/goroutine"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
	"github.com/cryptbill/cryptbill/internal/shared/version"
)

var (
	opts               bootstrap.Options
	autoMigrate        bool
	skipMigrationCheck bool
	noSchedulers       bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the invoice HTTP API together with the payment sweep and recurrence schedulers.`,
		RunE:  run,
	}

	opts.AddFlags(cmd)
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&skipMigrationCheck, "skip-migration-check", false, "Skip migration status check on startup")
	cmd.Flags().BoolVar(&noSchedulers, "no-schedulers", false, "Serve HTTP only; run the background jobs in a separate worker")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.InitWithDatabase(&opts)
	if err != nil {
		return err
	}
	defer database.Close()

	env := opts.Environment()
	log.Infow("starting server",
		"environment", env,
		"version", version.Current,
		"auto_migrate", autoMigrate,
	)

	gin.SetMode(cfg.Server.Mode)

	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
	}

	if err := handleMigrations(env, log); err != nil {
		return fmt.Errorf("migration handling failed: %w", err)
	}

	container, err := httpRouter.NewContainer(database.Get(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}
	container.SetupRoutes()

	if !noSchedulers {
		container.StartSchedulers()
	}

	return serve(cfg, container, log)
}

func serve(cfg *config.Config, container *httpRouter.Container, log logger.Interface) error {
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      container.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	goroutine.SafeGo(log, "http-server", func() {
		log.Infow("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode,
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		log.Infow("shutting down server...")
	case err := <-serveErr:
		log.Errorw("failed to start server", "error", err)
		runErr = err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		runErr = errors.Join(runErr, err)
	}

	// schedulers stop after HTTP so in-flight manual checks can still confirm
	if err := container.Shutdown(ctx); err != nil {
		log.Errorw("failed to stop background services", "error", err)
		runErr = errors.Join(runErr, err)
	}

	if runErr == nil {
		log.Infow("server exited gracefully")
	}
	return runErr
}

func handleMigrations(environment string, log logger.Interface) error {
	if skipMigrationCheck {
		log.Infow("skipping migration check")
		return nil
	}

	manager := migration.NewManager("goose")

	if autoMigrate {
		if environment == "production" {
			log.Warnw("auto-migration is enabled in production environment - this is not recommended!")
		}

		log.Infow("running auto-migration")
		if err := manager.Migrate(database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("auto-migration completed successfully")
		return nil
	}

	log.Infow("checking migration status")

	ver, err := manager.Version(database.Get())
	if err != nil {
		log.Warnw("failed to check migration status", "error", err)
	} else {
		log.Infow("current migration version", "version", ver)
	}

	return nil
}
