package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/mezonai/snapledger/auth"
	"github.com/mezonai/snapledger/checkpoint"
	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/monitoring"
	"github.com/mezonai/snapledger/oracle"
	"github.com/mezonai/snapledger/snapshot"
	"github.com/mezonai/snapledger/types"
)

var maxUint256 = new(uint256.Int).SetAllOne()

// Config describes a new restricted ledger. InitialSupply is minted to Owner.
type Config struct {
	Metadata      types.TokenMetadata
	Owner         string
	InitialSupply *uint256.Int
	Oracle        oracle.Provider
	EventRouter   *events.EventRouter
}

// Ledger is the restricted token: balances, allowances, blacklist and frozen
// amounts, with every balance and supply change written through to checkpoints.
type Ledger struct {
	mu          sync.RWMutex
	metadata    types.TokenMetadata
	ownable     *auth.Ownable
	balances    map[string]*uint256.Int
	frozen      map[string]*uint256.Int
	blacklist   map[string]bool
	allowances  map[string]map[string]*uint256.Int
	totalSupply *uint256.Int

	balanceHistory *checkpoint.Store[string]
	supplyHistory  *checkpoint.History
	snapshots      *snapshot.Controller

	oracle      oracle.Provider
	eventRouter *events.EventRouter
	changes     *changeSet
}

func newLedger(metadata types.TokenMetadata, owner string, provider oracle.Provider, eventRouter *events.EventRouter) (*Ledger, error) {
	ownable, err := auth.NewOwnable(metadata.Symbol, owner, eventRouter)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		metadata:       metadata,
		ownable:        ownable,
		balances:       make(map[string]*uint256.Int),
		frozen:         make(map[string]*uint256.Int),
		blacklist:      make(map[string]bool),
		allowances:     make(map[string]map[string]*uint256.Int),
		totalSupply:    uint256.NewInt(0),
		balanceHistory: checkpoint.NewStore[string](),
		supplyHistory:  &checkpoint.History{},
		snapshots:      snapshot.NewController(metadata.Symbol, eventRouter),
		oracle:         provider,
		eventRouter:    eventRouter,
		changes:        newChangeSet(),
	}, nil
}

// NewLedger creates the ledger and mints the initial supply to the owner
func NewLedger(cfg Config) (*Ledger, error) {
	l, err := newLedger(cfg.Metadata, cfg.Owner, cfg.Oracle, cfg.EventRouter)
	if err != nil {
		return nil, err
	}
	if cfg.InitialSupply != nil && !cfg.InitialSupply.IsZero() {
		l.mu.Lock()
		err = l.update("", cfg.Owner, cfg.InitialSupply)
		l.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("could not mint initial supply: %w", err)
		}
	}
	logx.Info("LEDGER", fmt.Sprintf("Ledger created | symbol=%s | owner=%s | supply=%s", cfg.Metadata.Symbol, cfg.Owner, l.totalSupply.Dec()))
	return l, nil
}

func (l *Ledger) Metadata() types.TokenMetadata {
	return l.metadata
}

func (l *Ledger) Owner() string {
	return l.ownable.Owner()
}

// TransferOwnership hands the privileged identity to newOwner, e.g. the distribution engine
func (l *Ledger) TransferOwnership(caller, newOwner string) error {
	return l.reject(l.ownable.TransferOwnership(caller, newOwner))
}

func (l *Ledger) BalanceOf(addr string) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceOf(addr)
}

func (l *Ledger) FrozenBalanceOf(addr string) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frozenOf(addr)
}

// AvailableBalanceOf returns balance minus frozen amount, the only transferable part
func (l *Ledger) AvailableBalanceOf(addr string) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.availableOf(addr)
}

func (l *Ledger) IsBlacklisted(addr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blacklist[addr]
}

func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.totalSupply)
}

func (l *Ledger) Allowance(owner, spender string) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowanceOf(owner, spender)
}

// GetAccount returns a read view of addr; unknown addresses have zero balances
func (l *Ledger) GetAccount(addr string) *types.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &types.Account{
		Address:     addr,
		Balance:     l.balanceOf(addr),
		Frozen:      l.frozenOf(addr),
		Blacklisted: l.blacklist[addr],
	}
}

// GetAllAccounts returns every address that ever held a balance, sorted by address
func (l *Ledger) GetAllAccounts() []*types.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	addrs := make([]string, 0, len(l.balances))
	for addr := range l.balances {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	accounts := make([]*types.Account, 0, len(addrs))
	for _, addr := range addrs {
		accounts = append(accounts, &types.Account{
			Address:     addr,
			Balance:     l.balanceOf(addr),
			Frozen:      l.frozenOf(addr),
			Blacklisted: l.blacklist[addr],
		})
	}
	return accounts
}

// IndexPrice reads the reference index from the oracle, for display only
func (l *Ledger) IndexPrice() (*uint256.Int, error) {
	if l.oracle == nil {
		return nil, oracle.ErrNoPrice
	}
	return l.oracle.IndexPrice()
}

func (l *Ledger) Transfer(caller, to string, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller == "" || to == "" {
		return l.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	if err := l.update(caller, to, amount); err != nil {
		return l.reject(err)
	}
	logx.Info("LEDGER", fmt.Sprintf("Transfer | from=%s | to=%s | amount=%s", caller, to, amount.Dec()))
	return nil
}

// Approve sets the allowance of spender over caller's balance
func (l *Ledger) Approve(caller, spender string, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller == "" || spender == "" {
		return l.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	l.setAllowance(caller, spender, amount)
	l.eventRouter.Publish(events.NewApproval(l.metadata.Symbol, caller, spender, amount))
	return nil
}

// TransferFrom moves amount from owner to recipient on behalf of caller, spending its allowance.
// An allowance of 2^256-1 is treated as unlimited and never decremented.
func (l *Ledger) TransferFrom(caller, from, to string, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller == "" || from == "" || to == "" {
		return l.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	allowance := l.allowanceOf(from, caller)
	if allowance.Cmp(amount) < 0 {
		return l.reject(errs.NewError(errs.ErrCodeInsufficientAllowance, errs.ErrMsgInsufficientAllowance))
	}
	if err := l.update(from, to, amount); err != nil {
		return l.reject(err)
	}
	if !allowance.Eq(maxUint256) {
		l.setAllowance(from, caller, new(uint256.Int).Sub(allowance, amount))
	}
	logx.Info("LEDGER", fmt.Sprintf("TransferFrom | spender=%s | from=%s | to=%s | amount=%s", caller, from, to, amount.Dec()))
	return nil
}

// Mint creates amount new units for to. Privileged.
func (l *Ledger) Mint(caller, to string, amount *uint256.Int) error {
	if err := l.ownable.OnlyOwner(caller); err != nil {
		return l.reject(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if to == "" {
		return l.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	if err := l.update("", to, amount); err != nil {
		return l.reject(err)
	}
	logx.Info("LEDGER", fmt.Sprintf("Mint | to=%s | amount=%s | supply=%s", to, amount.Dec(), l.totalSupply.Dec()))
	return nil
}

// Burn destroys amount of caller's available balance
func (l *Ledger) Burn(caller string, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller == "" {
		return l.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	if err := l.update(caller, "", amount); err != nil {
		return l.reject(err)
	}
	logx.Info("LEDGER", fmt.Sprintf("Burn | from=%s | amount=%s | supply=%s", caller, amount.Dec(), l.totalSupply.Dec()))
	return nil
}

// SetBlacklisted toggles the restriction flag of account. Balances are untouched. Privileged.
func (l *Ledger) SetBlacklisted(caller, account string, blacklisted bool) error {
	if err := l.ownable.OnlyOwner(caller); err != nil {
		return l.reject(err)
	}
	if account == "" {
		return l.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if blacklisted {
		l.blacklist[account] = true
	} else {
		delete(l.blacklist, account)
	}
	l.changes.touchAccount(account)
	logx.Info("LEDGER", fmt.Sprintf("Blacklist updated | account=%s | blacklisted=%t", account, blacklisted))
	l.eventRouter.Publish(events.NewBlacklistUpdated(l.metadata.Symbol, account, blacklisted))
	return nil
}

// FreezeBalance sets the frozen amount of account. It constrains future transfers only
// and is never lowered automatically. Privileged.
func (l *Ledger) FreezeBalance(caller, account string, amount *uint256.Int) error {
	if err := l.ownable.OnlyOwner(caller); err != nil {
		return l.reject(err)
	}
	if account == "" {
		return l.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.Cmp(l.balanceOf(account)) > 0 {
		return l.reject(errs.NewError(errs.ErrCodeFreezeExceedsBalance, errs.ErrMsgFreezeExceedsBalance))
	}
	if amount.IsZero() {
		delete(l.frozen, account)
	} else {
		l.frozen[account] = new(uint256.Int).Set(amount)
	}
	l.changes.touchAccount(account)
	logx.Info("LEDGER", fmt.Sprintf("Balance frozen | account=%s | amount=%s", account, amount.Dec()))
	l.eventRouter.Publish(events.NewBalanceFrozen(l.metadata.Symbol, account, amount))
	return nil
}

// Snapshot issues a new snapshot id. Privileged; the distribution engine calls it
// after it has been made owner of the ledger.
func (l *Ledger) Snapshot(caller string) (uint64, error) {
	if err := l.ownable.OnlyOwner(caller); err != nil {
		return 0, l.reject(err)
	}
	// hold the write lock so no mutation reads the id while it changes
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshots.Snapshot(), nil
}

// SnapshotWithSupply issues a snapshot and returns the total supply it freezes.
// A zero supply fails with ErrZeroSupply and issues nothing. Privileged.
func (l *Ledger) SnapshotWithSupply(caller string) (uint64, *uint256.Int, error) {
	if err := l.ownable.OnlyOwner(caller); err != nil {
		return 0, nil, l.reject(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.totalSupply.IsZero() {
		return 0, nil, l.reject(errs.NewError(errs.ErrCodeZeroSupply, errs.ErrMsgZeroSupply))
	}
	id := l.snapshots.Snapshot()
	return id, l.supplyHistory.ValueAt(id), nil
}

// CurrentSnapshotID returns the latest issued snapshot id
func (l *Ledger) CurrentSnapshotID() uint64 {
	return l.snapshots.Current()
}

// BalanceOfAt returns the balance addr held at the instant snapshot id was taken
func (l *Ledger) BalanceOfAt(addr string, id uint64) (*uint256.Int, error) {
	if err := l.snapshots.Validate(id); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceHistory.ValueAt(addr, id), nil
}

// TotalSupplyAt returns the total supply at the instant snapshot id was taken
func (l *Ledger) TotalSupplyAt(id uint64) (*uint256.Int, error) {
	if err := l.snapshots.Validate(id); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supplyHistory.ValueAt(id), nil
}

// update is the transfer hook shared by mint (from == ""), burn (to == "") and transfers.
// Every check runs before the first write so a failure leaves no partial state.
func (l *Ledger) update(from, to string, amount *uint256.Int) error {
	if from != "" && l.blacklist[from] {
		return errs.NewError(errs.ErrCodeBlacklistedSender, errs.ErrMsgBlacklistedSender)
	}
	if to != "" && l.blacklist[to] {
		return errs.NewError(errs.ErrCodeBlacklistedRecipient, errs.ErrMsgBlacklistedRecipient)
	}
	if from != "" && amount.Cmp(l.availableOf(from)) > 0 {
		return errs.NewError(errs.ErrCodeInsufficientAvailableBalance, errs.ErrMsgInsufficientAvailableBalance)
	}
	if from == "" {
		if _, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount); overflow {
			return errs.NewError(errs.ErrCodeOverflow, errs.ErrMsgOverflow)
		}
	}

	current := l.snapshots.Current()
	if from == "" {
		l.totalSupply.Add(l.totalSupply, amount)
	} else {
		l.setBalance(from, new(uint256.Int).Sub(l.balanceOf(from), amount), current)
	}
	if to == "" {
		l.totalSupply.Sub(l.totalSupply, amount)
	} else {
		l.setBalance(to, new(uint256.Int).Add(l.balanceOf(to), amount), current)
	}
	if from == "" || to == "" {
		l.supplyHistory.Record(current, l.totalSupply)
		l.changes.touchSupply(current)
	}

	monitoring.RecordTransfer(l.metadata.Symbol)
	l.eventRouter.Publish(events.NewTransfer(l.metadata.Symbol, from, to, amount))
	return nil
}

// setBalance writes the live balance and its checkpoint stamped with the current id
func (l *Ledger) setBalance(addr string, balance *uint256.Int, current uint64) {
	l.balances[addr] = balance
	l.balanceHistory.Record(addr, current, balance)
	l.changes.touchAccount(addr)
	l.changes.touchCheckpoint(addr, current)
}

func (l *Ledger) setAllowance(owner, spender string, amount *uint256.Int) {
	spenders, ok := l.allowances[owner]
	if !ok {
		spenders = make(map[string]*uint256.Int)
		l.allowances[owner] = spenders
	}
	spenders[spender] = new(uint256.Int).Set(amount)
	l.changes.touchAllowance(owner, spender)
}

func (l *Ledger) balanceOf(addr string) *uint256.Int {
	if b, ok := l.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return uint256.NewInt(0)
}

func (l *Ledger) frozenOf(addr string) *uint256.Int {
	if f, ok := l.frozen[addr]; ok {
		return new(uint256.Int).Set(f)
	}
	return uint256.NewInt(0)
}

func (l *Ledger) availableOf(addr string) *uint256.Int {
	balance, frozen := l.balanceOf(addr), l.frozenOf(addr)
	if balance.Cmp(frozen) <= 0 {
		return uint256.NewInt(0)
	}
	return balance.Sub(balance, frozen)
}

func (l *Ledger) allowanceOf(owner, spender string) *uint256.Int {
	if a, ok := l.allowances[owner][spender]; ok {
		return new(uint256.Int).Set(a)
	}
	return uint256.NewInt(0)
}

// reject logs and counts a failed operation and passes err through
func (l *Ledger) reject(err error) error {
	if err == nil {
		return nil
	}
	monitoring.RecordRejectedOp(l.metadata.Symbol, string(errs.CodeOf(err)))
	logx.Warn("LEDGER", fmt.Sprintf("Operation rejected | symbol=%s | reason=%v", l.metadata.Symbol, err))
	return err
}
