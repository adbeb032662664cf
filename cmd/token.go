package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mezonai/snapledger/system"
)

func newTokenCmds(opts *globalOptions) []*cobra.Command {
	mintCmd := &cobra.Command{
		Use:   "mint <to> <amount>",
		Short: "Mint restricted tokens to an address (owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("mint", func(caller string, sys *system.System) error {
				amount, err := parseToken(sys, args[1])
				if err != nil {
					return err
				}
				if err := sys.Ledger.Mint(caller, args[0], amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "minted %s to %s\n", formatToken(sys, amount), args[0])
				return nil
			})
		},
	}

	burnCmd := &cobra.Command{
		Use:   "burn <amount>",
		Short: "Burn tokens from the caller's available balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("burn", func(caller string, sys *system.System) error {
				amount, err := parseToken(sys, args[0])
				if err != nil {
					return err
				}
				if err := sys.Ledger.Burn(caller, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "burned %s from %s\n", formatToken(sys, amount), caller)
				return nil
			})
		},
	}

	transferCmd := &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Transfer tokens from the caller",
		Long: `Transfer moves tokens from --caller to the recipient. Blacklisted parties
and amounts above the caller's available (unfrozen) balance are rejected.

Examples:
  snapledger transfer user2 10 --caller user1
  snapledger transfer user2 1_000.5 --caller user1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("transfer", func(caller string, sys *system.System) error {
				amount, err := parseToken(sys, args[1])
				if err != nil {
					return err
				}
				if err := sys.Ledger.Transfer(caller, args[0], amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transferred %s from %s to %s\n", formatToken(sys, amount), caller, args[0])
				return nil
			})
		},
	}

	approveCmd := &cobra.Command{
		Use:   "approve <spender> <amount>",
		Short: "Set the allowance of a spender over the caller's tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("approve", func(caller string, sys *system.System) error {
				amount, err := parseToken(sys, args[1])
				if err != nil {
					return err
				}
				if err := sys.Ledger.Approve(caller, args[0], amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s may spend %s of %s\n", args[0], formatToken(sys, amount), caller)
				return nil
			})
		},
	}

	transferFromCmd := &cobra.Command{
		Use:   "transfer-from <from> <to> <amount>",
		Short: "Transfer tokens on behalf of another holder using an allowance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("transfer-from", func(caller string, sys *system.System) error {
				amount, err := parseToken(sys, args[2])
				if err != nil {
					return err
				}
				if err := sys.Ledger.TransferFrom(caller, args[0], args[1], amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transferred %s from %s to %s\n", formatToken(sys, amount), args[0], args[1])
				return nil
			})
		},
	}

	return []*cobra.Command{mintCmd, burnCmd, transferCmd, approveCmd, transferFromCmd}
}
