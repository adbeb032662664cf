package distribution

import (
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/mezonai/snapledger/auth"
	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/monitoring"
	"github.com/mezonai/snapledger/types"
)

const eventSource = "distribution"

// Ledger is the snapshot-capable token the engine distributes against
type Ledger interface {
	// SnapshotWithSupply issues a snapshot and returns the supply it froze, or
	// fails without issuing one when the supply is zero
	SnapshotWithSupply(caller string) (uint64, *uint256.Int, error)
	TotalSupply() *uint256.Int
	BalanceOfAt(addr string, id uint64) (*uint256.Int, error)
	IsBlacklisted(addr string) bool
}

// Currency is the payout token held in the engine's custody
type Currency interface {
	BalanceOf(addr string) *uint256.Int
	Transfer(caller, to string, amount *uint256.Int) error
}

type Config struct {
	// Address is the engine's own identity: it must own the ledger and holds the pool
	Address     string
	Owner       string
	Ledger      Ledger
	Currency    Currency
	EventRouter *events.EventRouter
}

// Engine pays a funded pool out to holders in proportion to their snapshotted
// balance. Only the most recently funded period is claimable.
type Engine struct {
	mu          sync.Mutex
	address     string
	ownable     *auth.Ownable
	ledger      Ledger
	currency    Currency
	period      *types.DistributionPeriod
	claimed     map[uint64]map[string]bool
	claims      []types.ClaimRecord
	eventRouter *events.EventRouter
	now         func() time.Time

	// claim marks changed and claims appended since the last TakeChanges
	dirtyMarks    map[claimKey]struct{}
	flushedClaims int
}

type claimKey struct {
	snapshotID uint64
	account    string
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Address == "" {
		return nil, errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress)
	}
	if cfg.Ledger == nil || cfg.Currency == nil {
		return nil, fmt.Errorf("distribution engine requires a ledger and a payout currency")
	}
	ownable, err := auth.NewOwnable(eventSource, cfg.Owner, cfg.EventRouter)
	if err != nil {
		return nil, err
	}
	return &Engine{
		address:     cfg.Address,
		ownable:     ownable,
		ledger:      cfg.Ledger,
		currency:    cfg.Currency,
		claimed:     make(map[uint64]map[string]bool),
		eventRouter: cfg.EventRouter,
		now:         time.Now,
		dirtyMarks:  make(map[claimKey]struct{}),
	}, nil
}

func (e *Engine) Address() string {
	return e.address
}

func (e *Engine) Owner() string {
	return e.ownable.Owner()
}

func (e *Engine) TransferOwnership(caller, newOwner string) error {
	return e.ownable.TransferOwnership(caller, newOwner)
}

// SetTotalInterest opens a new distribution period over a fresh snapshot. The
// pool must already sit in the engine's custody. Any previous period is superseded.
func (e *Engine) SetTotalInterest(caller string, pool *uint256.Int) (*types.DistributionPeriod, error) {
	if err := e.ownable.OnlyOwner(caller); err != nil {
		return nil, e.reject(err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if pool == nil || pool.IsZero() {
		return nil, e.reject(errs.NewError(errs.ErrCodeInvalidAmount, errs.ErrMsgInvalidAmount))
	}
	custody := e.currency.BalanceOf(e.address)
	if custody.Cmp(pool) < 0 {
		return nil, e.reject(errs.NewErrorf(errs.ErrCodeTransferFailed,
			"custody holds %s, pool requires %s", custody.Dec(), pool.Dec()))
	}
	if e.ledger.TotalSupply().IsZero() {
		return nil, e.reject(errs.NewError(errs.ErrCodeZeroSupply, errs.ErrMsgZeroSupply))
	}

	// nothing is written before this call and nothing can fail after it
	snapshotID, supply, err := e.ledger.SnapshotWithSupply(e.address)
	if err != nil {
		return nil, e.reject(fmt.Errorf("could not take snapshot: %w", err))
	}

	period := &types.DistributionPeriod{
		SnapshotID:            snapshotID,
		PoolAmount:            new(uint256.Int).Set(pool),
		TotalSupplyAtSnapshot: supply,
		FundedAt:              e.now(),
	}
	e.period = period

	logx.Info("DISTRIBUTION", fmt.Sprintf("Period funded | snapshot=%d | pool=%s | supply=%s",
		snapshotID, pool.Dec(), supply.Dec()))
	monitoring.IncreasePeriodsFunded()
	e.eventRouter.Publish(events.NewInterestFunded(eventSource, snapshotID, pool, supply))
	return copyPeriod(period), nil
}

// ClaimInterest pays caller's share of the current period exactly once. A zero
// share is still recorded as claimed.
func (e *Engine) ClaimInterest(caller string) (*types.ClaimRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == "" {
		return nil, e.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	if e.period == nil {
		return nil, e.reject(errs.NewError(errs.ErrCodeNoActivePeriod, errs.ErrMsgNoActivePeriod))
	}
	if e.ledger.IsBlacklisted(caller) {
		return nil, e.reject(errs.NewError(errs.ErrCodeBlacklisted, errs.ErrMsgBlacklisted))
	}
	snapshotID := e.period.SnapshotID
	if e.claimed[snapshotID][caller] {
		return nil, e.reject(errs.NewError(errs.ErrCodeAlreadyClaimed, errs.ErrMsgAlreadyClaimed))
	}

	amount, err := e.entitlement(caller)
	if err != nil {
		return nil, e.reject(err)
	}

	e.markClaimed(snapshotID, caller)
	if !amount.IsZero() {
		if err := e.currency.Transfer(e.address, caller, amount); err != nil {
			e.unmarkClaimed(snapshotID, caller)
			return nil, e.reject(errs.NewErrorf(errs.ErrCodeTransferFailed, "%s: %v", errs.ErrMsgTransferFailed, err))
		}
	}

	record := types.ClaimRecord{Account: caller, Amount: amount, SnapshotID: snapshotID}
	e.claims = append(e.claims, record)

	logx.Info("DISTRIBUTION", fmt.Sprintf("Interest claimed | account=%s | amount=%s | snapshot=%d",
		caller, amount.Dec(), snapshotID))
	monitoring.RecordClaim(amount)
	e.eventRouter.Publish(events.NewInterestClaimed(eventSource, caller, amount, snapshotID))
	return &types.ClaimRecord{Account: caller, Amount: new(uint256.Int).Set(amount), SnapshotID: snapshotID}, nil
}

// Entitlement previews what account would receive from the current period
func (e *Engine) Entitlement(account string) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.period == nil {
		return nil, errs.NewError(errs.ErrCodeNoActivePeriod, errs.ErrMsgNoActivePeriod)
	}
	return e.entitlement(account)
}

// entitlement is floor(balanceAtSnapshot * pool / supplyAtSnapshot); dust stays in custody
func (e *Engine) entitlement(account string) (*uint256.Int, error) {
	balance, err := e.ledger.BalanceOfAt(account, e.period.SnapshotID)
	if err != nil {
		return nil, err
	}
	if balance.IsZero() {
		return uint256.NewInt(0), nil
	}
	if e.period.TotalSupplyAtSnapshot.IsZero() {
		return nil, errs.NewError(errs.ErrCodeZeroSupply, errs.ErrMsgZeroSupply)
	}
	amount, overflow := new(uint256.Int).MulDivOverflow(balance, e.period.PoolAmount, e.period.TotalSupplyAtSnapshot)
	if overflow {
		return nil, errs.NewError(errs.ErrCodeOverflow, errs.ErrMsgOverflow)
	}
	return amount, nil
}

func (e *Engine) markClaimed(snapshotID uint64, account string) {
	accounts, ok := e.claimed[snapshotID]
	if !ok {
		accounts = make(map[string]bool)
		e.claimed[snapshotID] = accounts
	}
	accounts[account] = true
	e.dirtyMarks[claimKey{snapshotID, account}] = struct{}{}
}

func (e *Engine) unmarkClaimed(snapshotID uint64, account string) {
	delete(e.claimed[snapshotID], account)
	if len(e.claimed[snapshotID]) == 0 {
		delete(e.claimed, snapshotID)
	}
	e.dirtyMarks[claimKey{snapshotID, account}] = struct{}{}
}

// CurrentSnapshotID returns the snapshot id of the current period, 0 before any funding
func (e *Engine) CurrentSnapshotID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.period == nil {
		return 0
	}
	return e.period.SnapshotID
}

// TotalInterest returns the pool of the current period, 0 before any funding
func (e *Engine) TotalInterest() *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.period == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(e.period.PoolAmount)
}

// Period returns a copy of the current period, nil before any funding
func (e *Engine) Period() *types.DistributionPeriod {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.period == nil {
		return nil
	}
	return copyPeriod(e.period)
}

// HasClaimed reports whether account already claimed from the current period
func (e *Engine) HasClaimed(account string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.period == nil {
		return false
	}
	return e.claimed[e.period.SnapshotID][account]
}

// Claims returns every claim paid so far, across periods, in order
func (e *Engine) Claims() []types.ClaimRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.ClaimRecord, len(e.claims))
	for i, c := range e.claims {
		out[i] = types.ClaimRecord{Account: c.Account, Amount: new(uint256.Int).Set(c.Amount), SnapshotID: c.SnapshotID}
	}
	return out
}

func (e *Engine) reject(err error) error {
	monitoring.RecordRejectedOp(eventSource, string(errs.CodeOf(err)))
	logx.Warn("DISTRIBUTION", fmt.Sprintf("Operation rejected | reason=%v", err))
	return err
}

func copyPeriod(p *types.DistributionPeriod) *types.DistributionPeriod {
	return &types.DistributionPeriod{
		SnapshotID:            p.SnapshotID,
		PoolAmount:            new(uint256.Int).Set(p.PoolAmount),
		TotalSupplyAtSnapshot: new(uint256.Int).Set(p.TotalSupplyAtSnapshot),
		FundedAt:              p.FundedAt,
	}
}
