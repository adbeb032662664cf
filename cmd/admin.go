package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mezonai/snapledger/system"
)

func newAdminCmds(opts *globalOptions) []*cobra.Command {
	blacklistCmd := &cobra.Command{
		Use:   "blacklist <account> <true|false>",
		Short: "Set or clear the blacklist flag of an account (ledger owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flag, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid flag %q: %w", args[1], err)
			}
			return opts.mutate("blacklist", func(caller string, sys *system.System) error {
				if err := sys.Ledger.SetBlacklisted(caller, args[0], flag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s blacklisted=%t\n", args[0], flag)
				return nil
			})
		},
	}

	freezeCmd := &cobra.Command{
		Use:   "freeze <account> <amount>",
		Short: "Set the frozen amount of an account; 0 unfreezes (ledger owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("freeze", func(caller string, sys *system.System) error {
				amount, err := parseToken(sys, args[1])
				if err != nil {
					return err
				}
				if err := sys.Ledger.FreezeBalance(caller, args[0], amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s frozen %s\n", args[0], formatToken(sys, amount))
				return nil
			})
		},
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Issue a new snapshot id (ledger owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("snapshot", func(caller string, sys *system.System) error {
				id, err := sys.Ledger.Snapshot(caller)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "snapshot %d\n", id)
				return nil
			})
		},
	}

	var ownershipTarget string
	transferOwnershipCmd := &cobra.Command{
		Use:   "transfer-ownership <new-owner>",
		Short: "Hand ownership of the ledger, the payout currency or the engine to a new owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("transfer-ownership", func(caller string, sys *system.System) error {
				var err error
				switch ownershipTarget {
				case "ledger":
					err = sys.Ledger.TransferOwnership(caller, args[0])
				case "payout":
					err = sys.Payout.TransferOwnership(caller, args[0])
				case "engine":
					err = sys.Engine.TransferOwnership(caller, args[0])
				default:
					err = fmt.Errorf("unknown target %q (want ledger, payout or engine)", ownershipTarget)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s owner is now %s\n", ownershipTarget, args[0])
				return nil
			})
		},
	}
	transferOwnershipCmd.Flags().StringVar(&ownershipTarget, "target", "ledger", "Component to transfer: ledger, payout or engine")

	return []*cobra.Command{blacklistCmd, freezeCmd, snapshotCmd, transferOwnershipCmd}
}
