package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryptbill/cryptbill/internal/infrastructure/database"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/cryptbill/cryptbill/internal/interfaces/http"
)

var opts bootstrap.Options

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background jobs without the HTTP API",
		Long:  `Run the payment sweep and invoice recurrence schedulers until interrupted.`,
		RunE:  run,
	}

	opts.AddFlags(cmd)

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.InitWithDatabase(&opts)
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("starting invoice worker",
		"environment", opts.Environment(),
		"sweep_interval", cfg.Scheduler.SweepInterval(),
		"recurrence_interval", cfg.Scheduler.RecurrenceInterval(),
	)

	container, err := httpRouter.NewContainer(database.Get(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}
	container.StartSchedulers()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	log.Infow("received shutdown signal", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.Shutdown(ctx); err != nil {
		log.Errorw("worker shutdown incomplete", "error", err)
		return err
	}

	log.Infow("worker stopped")
	return nil
}
