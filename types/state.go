package types

// The *State types are the persisted form of each component. Amounts are decimal
// strings so the encoding does not depend on how a JSON codec treats big integers.

type CheckpointRecord struct {
	SnapshotID uint64 `json:"id"`
	Value      string `json:"value"`
}

type LedgerState struct {
	Metadata          TokenMetadata                 `json:"metadata"`
	Owner             string                        `json:"owner"`
	CurrentSnapshotID uint64                        `json:"current_snapshot_id"`
	TotalSupply       string                        `json:"total_supply"`
	Balances          map[string]string             `json:"balances"`
	Frozen            map[string]string             `json:"frozen"`
	Blacklist         []string                      `json:"blacklist"`
	Allowances        map[string]map[string]string  `json:"allowances"`
	BalanceHistory    map[string][]CheckpointRecord `json:"balance_history"`
	SupplyHistory     []CheckpointRecord            `json:"supply_history"`
}

type PayoutState struct {
	Metadata    TokenMetadata                `json:"metadata"`
	Owner       string                       `json:"owner"`
	TotalSupply string                       `json:"total_supply"`
	Balances    map[string]string            `json:"balances"`
	Allowances  map[string]map[string]string `json:"allowances"`
}

type PeriodState struct {
	SnapshotID            uint64 `json:"snapshot_id"`
	PoolAmount            string `json:"pool_amount"`
	TotalSupplyAtSnapshot string `json:"total_supply_at_snapshot"`
	FundedAtUnix          int64  `json:"funded_at_unix"`
}

type ClaimState struct {
	Account    string `json:"account"`
	Amount     string `json:"amount"`
	SnapshotID uint64 `json:"snapshot_id"`
}

type DistributionState struct {
	Owner   string              `json:"owner"`
	Custody string              `json:"custody"`
	Period  *PeriodState        `json:"period,omitempty"`
	Claimed map[uint64][]string `json:"claimed"`
	Claims  []ClaimState        `json:"claims"`
}

// SystemState bundles every component so it can be written in one atomic batch
type SystemState struct {
	Ledger       LedgerState       `json:"ledger"`
	Payout       PayoutState       `json:"payout"`
	Distribution DistributionState `json:"distribution"`
	IndexPrice   string            `json:"index_price"`
}

// The records below are the per-key persisted form. A StateDelta lists only the
// records one operation touched; the store writes them in a single batch.

type LedgerMeta struct {
	Metadata          TokenMetadata `json:"metadata"`
	Owner             string        `json:"owner"`
	CurrentSnapshotID uint64        `json:"current_snapshot_id"`
	TotalSupply       string        `json:"total_supply"`
}

// AccountRecord holds the live fields of one ledger account. Balance is empty
// when the address never held tokens, e.g. an account blacklisted up front.
type AccountRecord struct {
	Address     string `json:"address"`
	Balance     string `json:"balance,omitempty"`
	Frozen      string `json:"frozen,omitempty"`
	Blacklisted bool   `json:"blacklisted,omitempty"`
}

type AllowanceRecord struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type BalanceCheckpoint struct {
	Account    string `json:"account"`
	SnapshotID uint64 `json:"id"`
	Value      string `json:"value"`
}

type PayoutMeta struct {
	Metadata    TokenMetadata `json:"metadata"`
	Owner       string        `json:"owner"`
	TotalSupply string        `json:"total_supply"`
}

type PayoutBalance struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type EngineMeta struct {
	Owner   string       `json:"owner"`
	Custody string       `json:"custody"`
	Period  *PeriodState `json:"period,omitempty"`
}

// ClaimMark is the claimed flag of one account in one period; Claimed false removes it
type ClaimMark struct {
	SnapshotID uint64 `json:"snapshot_id"`
	Account    string `json:"account"`
	Claimed    bool   `json:"claimed"`
}

// ClaimEntry is one paid claim at its position in the append-only claim log
type ClaimEntry struct {
	Seq uint64 `json:"seq"`
	ClaimState
}

type StateDelta struct {
	Ledger             *LedgerMeta
	Accounts           []AccountRecord
	Allowances         []AllowanceRecord
	BalanceCheckpoints []BalanceCheckpoint
	SupplyCheckpoints  []CheckpointRecord
	Payout             *PayoutMeta
	PayoutBalances     []PayoutBalance
	PayoutAllowances   []AllowanceRecord
	Engine             *EngineMeta
	ClaimMarks         []ClaimMark
	Claims             []ClaimEntry
	IndexPrice         *string
}
