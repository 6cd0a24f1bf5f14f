package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cryptbill/cryptbill/internal/interfaces/cli/directory"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/events"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/jobs"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/migrate"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/server"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/worker"
	"github.com/cryptbill/cryptbill/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "cryptbill",
		Short:   "Cryptbill - crypto invoicing and payment verification",
		Long:    `Cryptbill issues invoices payable in LTC, USDT or USDC, confirms payments against the chain, and spawns recurring invoices.`,
		Version: version.Current,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
		jobs.NewCommand(),
		directory.NewCommand(),
		events.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
