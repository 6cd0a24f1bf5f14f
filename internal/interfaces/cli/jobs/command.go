package jobs

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cryptbill/cryptbill/internal/infrastructure/database"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/cryptbill/cryptbill/internal/interfaces/http"
)

var opts bootstrap.Options

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run one pass of a background job",
		Long:  `Run the payment sweep or the recurrence tick once, synchronously, and print what it did.`,
	}

	opts.AddFlags(cmd)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "sweep",
			Short: "Check every pending invoice against the chain once",
			RunE:  runSweep,
		},
		&cobra.Command{
			Use:   "recur",
			Short: "Spawn successors for every due recurring invoice once",
			RunE:  runRecur,
		},
	)

	return cmd
}

func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *httpRouter.Container) error) error {
	cfg, log, err := bootstrap.InitWithDatabase(&opts)
	if err != nil {
		return err
	}
	defer database.Close()

	container, err := httpRouter.NewContainer(database.Get(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}
	defer func() {
		if err := container.Shutdown(context.Background()); err != nil {
			log.Warnw("failed to release resources", "error", err)
		}
	}()

	// Ctrl-C stops dispatching new checks; in-flight ones complete
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, container)
}

func runSweep(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *httpRouter.Container) error {
		report, err := c.VerifyPayment().Sweep(ctx)
		if err != nil {
			return fmt.Errorf("payment sweep failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), RenderSweepReport(report))
		return nil
	})
}

func runRecur(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *httpRouter.Container) error {
		report, err := c.SpawnRecurring().Tick(ctx)
		if err != nil {
			return fmt.Errorf("recurrence tick failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), RenderSpawnReport(report))
		return nil
	})
}
