package cmd

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/mezonai/snapledger/system"
)

func newQueryCmds(opts *globalOptions) []*cobra.Command {
	var balanceSnapshot uint64
	balanceCmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account's balances, or its balance at --snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.query(func(sys *system.System) error {
				out := cmd.OutOrStdout()
				if cmd.Flags().Changed("snapshot") {
					balance, err := sys.Ledger.BalanceOfAt(args[0], balanceSnapshot)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s at snapshot %d: %s\n", args[0], balanceSnapshot, formatToken(sys, balance))
					return nil
				}
				acc := sys.Ledger.GetAccount(args[0])
				fmt.Fprintf(out, "balance:     %s\n", formatToken(sys, acc.Balance))
				fmt.Fprintf(out, "frozen:      %s\n", formatToken(sys, acc.Frozen))
				fmt.Fprintf(out, "available:   %s\n", formatToken(sys, acc.Available()))
				fmt.Fprintf(out, "blacklisted: %t\n", acc.Blacklisted)
				fmt.Fprintf(out, "payout:      %s\n", formatPayout(sys, sys.Payout.BalanceOf(args[0])))
				return nil
			})
		},
	}
	balanceCmd.Flags().Uint64Var(&balanceSnapshot, "snapshot", 0, "Snapshot id to query")

	var supplySnapshot uint64
	supplyCmd := &cobra.Command{
		Use:   "supply",
		Short: "Show the total supply, or the supply at --snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.query(func(sys *system.System) error {
				var supply *uint256.Int
				if cmd.Flags().Changed("snapshot") {
					var err error
					if supply, err = sys.Ledger.TotalSupplyAt(supplySnapshot); err != nil {
						return err
					}
				} else {
					supply = sys.Ledger.TotalSupply()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (current snapshot %d)\n", formatToken(sys, supply), sys.Ledger.CurrentSnapshotID())
				return nil
			})
		},
	}
	supplyCmd.Flags().Uint64Var(&supplySnapshot, "snapshot", 0, "Snapshot id to query")

	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "List every holder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.query(func(sys *system.System) error {
				for _, acc := range sys.Ledger.GetAllAccounts() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tfrozen=%s\tblacklisted=%t\n",
						acc.Address, formatToken(sys, acc.Balance), formatToken(sys, acc.Frozen), acc.Blacklisted)
				}
				return nil
			})
		},
	}

	revisionsCmd := &cobra.Command{
		Use:   "revisions",
		Short: "List every saved revision with its chained state hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.query(func(sys *system.System) error {
				revisions, err := sys.Revisions()
				if err != nil {
					return err
				}
				for _, r := range revisions {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", r.Revision, r.Hash)
				}
				return nil
			})
		},
	}

	return []*cobra.Command{balanceCmd, supplyCmd, accountsCmd, revisionsCmd}
}
