package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/store"
	"github.com/mezonai/snapledger/utils"
)

// LoadGenesisConfig reads and parses the genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open genesis file")
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, errors.Wrapf(err, "failed to decode genesis file %s", path)
	}
	cfg := &cfgFile.Config
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid genesis file %s", path)
	}
	logx.Info("CONFIG", fmt.Sprintf("Loaded genesis | token=%s | owner=%s | engine=%s | allocations=%d",
		cfg.Token.Symbol, cfg.Owner, cfg.Engine.Address, len(cfg.Allocations)))
	return cfg, nil
}

func (g *GenesisConfig) applyDefaults() {
	if g.Token.Decimals == 0 {
		g.Token.Decimals = utils.DefaultDecimals
	}
	if g.Payout.Name == "" {
		g.Payout.Name = "Mock Tether USD"
	}
	if g.Payout.Symbol == "" {
		g.Payout.Symbol = "USDT"
	}
	if g.Payout.Decimals == 0 {
		g.Payout.Decimals = utils.DefaultDecimals
	}
}

// Validate checks addresses and that every amount parses and allocations fit the supply
func (g *GenesisConfig) Validate() error {
	if g.Owner == "" {
		return errors.New("owner cannot be empty")
	}
	if g.Engine.Address == "" {
		return errors.New("engine address cannot be empty")
	}
	if g.Engine.Address == g.Owner {
		return errors.New("engine address must differ from owner")
	}
	if g.Token.Name == "" || g.Token.Symbol == "" {
		return errors.New("token name and symbol cannot be empty")
	}
	supply, err := utils.ParseUnits(orZero(g.Token.InitialSupply), g.Token.Decimals)
	if err != nil {
		return errors.Wrap(err, "token initial_supply")
	}
	if _, err := utils.ParseUnits(orZero(g.Payout.CustodyFunding), g.Payout.Decimals); err != nil {
		return errors.Wrap(err, "payout custody_funding")
	}
	if _, err := utils.ParseUnits(orZero(g.Oracle.IndexPrice), g.Token.Decimals); err != nil {
		return errors.Wrap(err, "oracle index_price")
	}

	allocated, _ := utils.ParseUnits("0", g.Token.Decimals)
	for i, a := range g.Allocations {
		if a.Address == "" {
			return errors.Errorf("allocation %d: address cannot be empty", i)
		}
		amount, err := utils.ParseUnits(a.Amount, g.Token.Decimals)
		if err != nil {
			return errors.Wrapf(err, "allocation %d", i)
		}
		if _, overflow := allocated.AddOverflow(allocated, amount); overflow {
			return errors.New("allocations overflow")
		}
	}
	if allocated.Cmp(supply) > 0 {
		return errors.Errorf("allocations %s exceed initial supply %s",
			utils.FormatUnits(allocated, g.Token.Decimals), utils.FormatUnits(supply, g.Token.Decimals))
	}
	return nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// NodeConfig is the local runtime configuration read from an .ini file
type NodeConfig struct {
	Store   store.StoreConfig
	Metrics MetricsConfig
}

type MetricsConfig struct {
	Enabled bool   `ini:"enabled"`
	Listen  string `ini:"listen"`
}

// LoadNodeConfig reads the [store] and [metrics] sections of an .ini file
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load node config %s", path)
	}
	nodeCfg := &NodeConfig{
		Store: store.StoreConfig{Type: store.LevelDBStoreType, Directory: "./data"},
	}
	if err := cfg.Section("store").MapTo(&nodeCfg.Store); err != nil {
		return nil, err
	}
	if err := cfg.Section("metrics").MapTo(&nodeCfg.Metrics); err != nil {
		return nil, err
	}
	if err := nodeCfg.Store.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid [store] section")
	}
	return nodeCfg, nil
}
