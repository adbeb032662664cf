package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mezonai/snapledger/config"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/store"
	"github.com/mezonai/snapledger/system"
)

// globalOptions are shared by every command through persistent flags
type globalOptions struct {
	nodeConfig string
	dataDir    string
	caller     string
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "snapledger",
		Short:         "Snapshot ledger and interest distribution CLI",
		Long:          "Command line interface for a restricted token ledger with snapshots and pro-rata interest payouts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.nodeConfig, "config", "", "Path to node .ini configuration (optional)")
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "./data", "LevelDB directory, used when --config is not set")
	rootCmd.PersistentFlags().StringVar(&opts.caller, "caller", "", "Identity performing the operation")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newServeCmd(opts),
	)
	rootCmd.AddCommand(newTokenCmds(opts)...)
	rootCmd.AddCommand(newAdminCmds(opts)...)
	rootCmd.AddCommand(newPayoutCmds(opts)...)
	rootCmd.AddCommand(newDistributionCmds(opts)...)
	rootCmd.AddCommand(newQueryCmds(opts)...)
	return rootCmd
}

func Execute() {
	defer logx.Close()
	if err := NewRootCmd().Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		logx.Close()
		os.Exit(1)
	}
}

func (o *globalOptions) storeConfig() (*store.StoreConfig, error) {
	if o.nodeConfig == "" {
		return &store.StoreConfig{Type: store.LevelDBStoreType, Directory: o.dataDir}, nil
	}
	nodeCfg, err := config.LoadNodeConfig(o.nodeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load node config: %w", err)
	}
	return &nodeCfg.Store, nil
}

// openSystem restores the last saved state
func (o *globalOptions) openSystem() (*system.System, error) {
	return o.openSystemWithRouter(events.NewEventRouter(nil))
}

func (o *globalOptions) openSystemWithRouter(router *events.EventRouter) (*system.System, error) {
	cfg, err := o.storeConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.OpenStateStore(cfg)
	if err != nil {
		return nil, err
	}
	sys, err := system.Open(st, router)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open state (did you run init?): %w", err)
	}
	return sys, nil
}

func (o *globalOptions) requireCaller() (string, error) {
	if o.caller == "" {
		return "", fmt.Errorf("--caller is required")
	}
	return o.caller, nil
}

// mutate opens the system, runs one operation and saves on success
func (o *globalOptions) mutate(name string, op func(caller string, sys *system.System) error) error {
	caller, err := o.requireCaller()
	if err != nil {
		return err
	}
	sys, err := o.openSystem()
	if err != nil {
		return err
	}
	defer sys.Close()
	return sys.Execute(name, func(sys *system.System) error {
		return op(caller, sys)
	})
}

// query opens the system read-only; nothing is saved
func (o *globalOptions) query(fn func(sys *system.System) error) error {
	sys, err := o.openSystem()
	if err != nil {
		return err
	}
	defer sys.Close()
	return sys.View(fn)
}
