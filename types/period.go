package types

import (
	"time"

	"github.com/holiman/uint256"
)

// DistributionPeriod is one funding cycle of the interest engine
type DistributionPeriod struct {
	SnapshotID            uint64       `json:"snapshot_id"`
	PoolAmount            *uint256.Int `json:"pool_amount"`
	TotalSupplyAtSnapshot *uint256.Int `json:"total_supply_at_snapshot"`
	FundedAt              time.Time    `json:"funded_at"`
}

// ClaimRecord is emitted once per successful claim, including zero-amount claims
type ClaimRecord struct {
	Account    string       `json:"account"`
	Amount     *uint256.Int `json:"amount"`
	SnapshotID uint64       `json:"snapshot_id"`
}
