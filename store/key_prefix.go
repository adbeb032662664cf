package store

// Declare database key prefix for objects
const (
	PrefixStateFormat = "meta:format"
	StateKeyRevision  = "state:revision"
	StateKeyDigest    = "state:digest"
	PrefixStateHash   = "state_hash:"

	// every state record lives under PrefixRecord
	PrefixRecord            = "rec:"
	KeyLedgerMeta           = "rec:ledger:meta"
	PrefixAccount           = "rec:ledger:account:"
	PrefixAllowance         = "rec:ledger:allowance:"
	PrefixBalanceCheckpoint = "rec:ledger:balance_cp:"
	PrefixSupplyCheckpoint  = "rec:ledger:supply_cp:"
	KeyPayoutMeta           = "rec:payout:meta"
	PrefixPayoutBalance     = "rec:payout:balance:"
	PrefixPayoutAllowance   = "rec:payout:allowance:"
	KeyEngineMeta           = "rec:engine:meta"
	PrefixClaimMark         = "rec:engine:mark:"
	PrefixClaim             = "rec:engine:claim:"
	KeyIndexPrice           = "rec:oracle:price"
)

// stateFormatVersion is bumped when the record layout changes incompatibly
const stateFormatVersion = "2"
