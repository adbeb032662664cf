package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mezonai/snapledger/system"
)

func newDistributionCmds(opts *globalOptions) []*cobra.Command {
	fundCmd := &cobra.Command{
		Use:   "fund <pool-amount>",
		Short: "Open a new distribution period over a fresh snapshot (engine owner only)",
		Long: `Fund takes a snapshot of the ledger and records the pool to distribute.
The pool must already sit in the engine's custody. A new period supersedes the
previous one; unclaimed interest from the old period can no longer be claimed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("fund", func(caller string, sys *system.System) error {
				pool, err := parsePayout(sys, args[0])
				if err != nil {
					return err
				}
				period, err := sys.Engine.SetTotalInterest(caller, pool)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "period funded: snapshot %d, pool %s, supply at snapshot %s\n",
					period.SnapshotID, formatPayout(sys, period.PoolAmount), formatToken(sys, period.TotalSupplyAtSnapshot))
				return nil
			})
		},
	}

	claimCmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim the caller's interest from the current period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate("claim", func(caller string, sys *system.System) error {
				record, err := sys.Engine.ClaimInterest(caller)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s claimed %s for snapshot %d\n",
					caller, formatPayout(sys, record.Amount), record.SnapshotID)
				return nil
			})
		},
	}

	periodCmd := &cobra.Command{
		Use:   "period",
		Short: "Show the current distribution period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.query(func(sys *system.System) error {
				period := sys.Engine.Period()
				if period == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "no period funded")
					return nil
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "snapshot:           %d\n", period.SnapshotID)
				fmt.Fprintf(out, "pool:               %s\n", formatPayout(sys, period.PoolAmount))
				fmt.Fprintf(out, "supply at snapshot: %s\n", formatToken(sys, period.TotalSupplyAtSnapshot))
				fmt.Fprintf(out, "funded at:          %s\n", period.FundedAt.UTC().Format(time.RFC3339))
				fmt.Fprintf(out, "custody:            %s\n", formatPayout(sys, sys.Payout.BalanceOf(sys.Engine.Address())))
				if opts.caller != "" {
					entitlement, err := sys.Engine.Entitlement(opts.caller)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "entitlement of %s: %s (claimed=%t)\n",
						opts.caller, formatPayout(sys, entitlement), sys.Engine.HasClaimed(opts.caller))
				}
				return nil
			})
		},
	}

	return []*cobra.Command{fundCmd, claimCmd, periodCmd}
}
