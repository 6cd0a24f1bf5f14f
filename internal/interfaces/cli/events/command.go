package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/cryptbill/cryptbill/internal/infrastructure/pubsub"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/bootstrap"
)

var (
	opts    bootstrap.Options
	rawJSON bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect invoice events",
	}

	opts.AddFlags(cmd)

	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow invoice events relayed over Redis until interrupted",
		RunE:  runTail,
	}
	tailCmd.Flags().BoolVar(&rawJSON, "json", false, "Print each event as a JSON line")

	cmd.AddCommand(tailCmd)

	return cmd
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(&opts)
	if err != nil {
		return err
	}
	if !cfg.Redis.Enabled {
		return errors.New("redis is disabled: invoice events are only relayed when redis.enabled is true")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := pubsub.NewRedisEventBus(client, log.Named("eventbus"))
	out := cmd.OutOrStdout()

	err = bus.Subscribe(ctx, nil, func(event pubsub.ReceivedEvent) {
		if err := writeEvent(out, event, rawJSON); err != nil {
			log.Warnw("failed to print event", "event_id", event.EventID, "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func writeEvent(w io.Writer, event pubsub.ReceivedEvent, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(event)
	}
	_, err := fmt.Fprintf(w, "%s  %-16s %s\n", event.OccurredAt.UTC().Format(time.RFC3339), event.Type, event.InvoiceID)
	return err
}
