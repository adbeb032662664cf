package config

// TokenConfig describes the restricted token minted at genesis
type TokenConfig struct {
	Name          string `yaml:"name"`
	Symbol        string `yaml:"symbol"`
	Decimals      uint8  `yaml:"decimals"`
	InitialSupply string `yaml:"initial_supply"`
}

// PayoutConfig describes the payout currency and how much of it funds the engine's custody
type PayoutConfig struct {
	Name           string `yaml:"name"`
	Symbol         string `yaml:"symbol"`
	Decimals       uint8  `yaml:"decimals"`
	CustodyFunding string `yaml:"custody_funding"`
}

type EngineConfig struct {
	Address string `yaml:"address"`
	// OwnsLedger hands ledger ownership to the engine after allocations are made
	OwnsLedger bool `yaml:"owns_ledger"`
}

type OracleConfig struct {
	IndexPrice string `yaml:"index_price"`
}

// Allocation moves part of the initial supply from the owner to an address
type Allocation struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

// GenesisConfig holds the configuration from genesis.yml. Amounts are
// decimal strings in whole units, scaled by the matching decimals.
type GenesisConfig struct {
	Owner       string       `yaml:"owner"`
	Token       TokenConfig  `yaml:"token"`
	Payout      PayoutConfig `yaml:"payout"`
	Engine      EngineConfig `yaml:"engine"`
	Oracle      OracleConfig `yaml:"oracle"`
	Allocations []Allocation `yaml:"allocations"`
}

// ConfigFile is the top-level structure for genesis.yml
type ConfigFile struct {
	Config GenesisConfig `yaml:"config"`
}
