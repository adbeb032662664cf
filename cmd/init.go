package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mezonai/snapledger/config"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/store"
	"github.com/mezonai/snapledger/system"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var genesisPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the ledger, payout currency and engine from a genesis file",
		Long: `Initialize a new state database by:
- Deploying the payout currency, oracle, token and distribution engine
- Minting the initial supply to the owner and applying allocations
- Funding the engine's custody and optionally handing it ledger ownership
- Saving the result as revision 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			genesis, err := config.LoadGenesisConfig(genesisPath)
			if err != nil {
				return err
			}
			storeCfg, err := opts.storeConfig()
			if err != nil {
				return err
			}
			st, err := store.OpenStateStore(storeCfg)
			if err != nil {
				return err
			}
			sys, err := system.NewFromGenesis(genesis, events.NewEventRouter(nil))
			if err != nil {
				st.Close()
				return err
			}
			if err := sys.Attach(st); err != nil {
				st.Close()
				return err
			}
			defer sys.Close()
			_, hash, err := sys.StateHash()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s: supply %s, state hash %s\n",
				genesis.Token.Symbol, formatToken(sys, sys.Ledger.TotalSupply()), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&genesisPath, "genesis", "config/genesis.yml", "Path to genesis configuration file")
	return cmd
}
