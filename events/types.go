package events

import (
	"time"

	"github.com/holiman/uint256"
)

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventTransfer             EventType = "Transfer"
	EventApproval             EventType = "Approval"
	EventSnapshot             EventType = "Snapshot"
	EventBlacklistUpdated     EventType = "BlacklistUpdated"
	EventBalanceFrozen        EventType = "BalanceFrozen"
	EventOwnershipTransferred EventType = "OwnershipTransferred"
	EventInterestFunded       EventType = "InterestFunded"
	EventInterestClaimed      EventType = "InterestClaimed"
)

// LedgerEvent represents any event emitted by a ledger component.
// Source names the emitting component, e.g. the token symbol.
type LedgerEvent interface {
	Type() EventType
	Source() string
	Timestamp() time.Time
}

type base struct {
	source    string
	timestamp time.Time
}

func newBase(source string) base {
	return base{source: source, timestamp: time.Now()}
}

func (b base) Source() string {
	return b.source
}

func (b base) Timestamp() time.Time {
	return b.timestamp
}

// Transfer is emitted for every balance move; From is empty for mints, To is empty for burns
type Transfer struct {
	base
	From   string
	To     string
	Amount *uint256.Int
}

func NewTransfer(source, from, to string, amount *uint256.Int) *Transfer {
	return &Transfer{base: newBase(source), From: from, To: to, Amount: new(uint256.Int).Set(amount)}
}

func (e *Transfer) Type() EventType {
	return EventTransfer
}

type Approval struct {
	base
	Owner   string
	Spender string
	Amount  *uint256.Int
}

func NewApproval(source, owner, spender string, amount *uint256.Int) *Approval {
	return &Approval{base: newBase(source), Owner: owner, Spender: spender, Amount: new(uint256.Int).Set(amount)}
}

func (e *Approval) Type() EventType {
	return EventApproval
}

type Snapshot struct {
	base
	ID uint64
}

func NewSnapshot(source string, id uint64) *Snapshot {
	return &Snapshot{base: newBase(source), ID: id}
}

func (e *Snapshot) Type() EventType {
	return EventSnapshot
}

type BlacklistUpdated struct {
	base
	Account     string
	Blacklisted bool
}

func NewBlacklistUpdated(source, account string, blacklisted bool) *BlacklistUpdated {
	return &BlacklistUpdated{base: newBase(source), Account: account, Blacklisted: blacklisted}
}

func (e *BlacklistUpdated) Type() EventType {
	return EventBlacklistUpdated
}

type BalanceFrozen struct {
	base
	Account string
	Amount  *uint256.Int
}

func NewBalanceFrozen(source, account string, amount *uint256.Int) *BalanceFrozen {
	return &BalanceFrozen{base: newBase(source), Account: account, Amount: new(uint256.Int).Set(amount)}
}

func (e *BalanceFrozen) Type() EventType {
	return EventBalanceFrozen
}

type OwnershipTransferred struct {
	base
	PreviousOwner string
	NewOwner      string
}

func NewOwnershipTransferred(source, previous, next string) *OwnershipTransferred {
	return &OwnershipTransferred{base: newBase(source), PreviousOwner: previous, NewOwner: next}
}

func (e *OwnershipTransferred) Type() EventType {
	return EventOwnershipTransferred
}

type InterestFunded struct {
	base
	SnapshotID            uint64
	PoolAmount            *uint256.Int
	TotalSupplyAtSnapshot *uint256.Int
}

func NewInterestFunded(source string, snapshotID uint64, pool, supply *uint256.Int) *InterestFunded {
	return &InterestFunded{
		base:                  newBase(source),
		SnapshotID:            snapshotID,
		PoolAmount:            new(uint256.Int).Set(pool),
		TotalSupplyAtSnapshot: new(uint256.Int).Set(supply),
	}
}

func (e *InterestFunded) Type() EventType {
	return EventInterestFunded
}

type InterestClaimed struct {
	base
	Account    string
	Amount     *uint256.Int
	SnapshotID uint64
}

func NewInterestClaimed(source, account string, amount *uint256.Int, snapshotID uint64) *InterestClaimed {
	return &InterestClaimed{base: newBase(source), Account: account, Amount: new(uint256.Int).Set(amount), SnapshotID: snapshotID}
}

func (e *InterestClaimed) Type() EventType {
	return EventInterestClaimed
}
