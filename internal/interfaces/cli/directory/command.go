// Package directory maintains the local staff and client directory. In
// production the directory service owns these rows; the commands exist for
// local runs and demos.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/infrastructure/database"
	infraDirectory "github.com/cryptbill/cryptbill/internal/infrastructure/directory"
	"github.com/cryptbill/cryptbill/internal/interfaces/cli/bootstrap"
	"github.com/cryptbill/cryptbill/internal/shared/utils/logutil"
)

var (
	opts        bootstrap.Options
	staffName   string
	inactive    bool
	clientName  string
	clientEmail string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Manage staff, client and receiving address records",
	}

	opts.AddFlags(cmd)

	staffCmd := &cobra.Command{
		Use:   "staff <staff-id>",
		Short: "Create or update a staff member",
		Args:  cobra.ExactArgs(1),
		RunE:  runStaff,
	}
	staffCmd.Flags().StringVar(&staffName, "name", "", "Display name")
	staffCmd.Flags().BoolVar(&inactive, "inactive", false, "Mark the staff member inactive; inactive staff cannot invoice")

	addressCmd := &cobra.Command{
		Use:   "address <staff-id> <LTC|USDT|USDC> [address]",
		Short: "Set a staff receiving address; omit the address to remove it",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  runAddress,
	}

	clientCmd := &cobra.Command{
		Use:   "client <client-id>",
		Short: "Create or update a client",
		Args:  cobra.ExactArgs(1),
		RunE:  runClient,
	}
	clientCmd.Flags().StringVar(&clientName, "name", "", "Display name")
	clientCmd.Flags().StringVar(&clientEmail, "email", "", "Contact email")

	cmd.AddCommand(staffCmd, addressCmd, clientCmd)

	return cmd
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *infraDirectory.GormDirectory) error) error {
	if _, _, err := bootstrap.InitWithDatabase(&opts); err != nil {
		return err
	}
	defer database.Close()

	return fn(cmd.Context(), infraDirectory.NewGormDirectory(database.Get()))
}

func runStaff(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *infraDirectory.GormDirectory) error {
		if err := store.UpsertStaff(ctx, args[0], staffName, !inactive); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "staff %s saved (active=%t)\n", args[0], !inactive)
		return nil
	})
}

func runAddress(cmd *cobra.Command, args []string) error {
	asset := vo.Asset(strings.ToUpper(args[1]))
	if !asset.IsValid() {
		return fmt.Errorf("unsupported asset %q: must be LTC, USDT or USDC", args[1])
	}
	address := ""
	if len(args) == 3 {
		address = args[2]
	}

	return withStore(cmd, func(ctx context.Context, store *infraDirectory.GormDirectory) error {
		if err := store.SetStaffAddress(ctx, args[0], asset, address); err != nil {
			return err
		}
		if address == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s address of %s removed\n", asset, args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s address of %s set to %s (%s)\n", asset, args[0], address, asset.Network())
		return nil
	})
}

func runClient(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *infraDirectory.GormDirectory) error {
		if err := store.UpsertClient(ctx, args[0], clientName, clientEmail); err != nil {
			return err
		}
		if clientEmail == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "client %s saved\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "client %s saved (%s)\n", args[0], logutil.MaskEmail(clientEmail))
		return nil
	})
}
