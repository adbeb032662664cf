package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mezonai/snapledger/system"
)

func newPayoutCmds(opts *globalOptions) []*cobra.Command {
	payoutMintCmd := &cobra.Command{
		Use:   "payout-mint <to> <amount>",
		Short: "Mint payout currency, e.g. to fund the engine's custody (payout owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("payout-mint", func(caller string, sys *system.System) error {
				amount, err := parsePayout(sys, args[1])
				if err != nil {
					return err
				}
				if err := sys.Payout.Mint(caller, args[0], amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "minted %s to %s\n", formatPayout(sys, amount), args[0])
				return nil
			})
		},
	}

	payoutTransferCmd := &cobra.Command{
		Use:   "payout-transfer <to> <amount>",
		Short: "Transfer payout currency from the caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("payout-transfer", func(caller string, sys *system.System) error {
				amount, err := parsePayout(sys, args[1])
				if err != nil {
					return err
				}
				if err := sys.Payout.Transfer(caller, args[0], amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transferred %s from %s to %s\n", formatPayout(sys, amount), caller, args[0])
				return nil
			})
		},
	}

	return []*cobra.Command{payoutMintCmd, payoutTransferCmd}
}
