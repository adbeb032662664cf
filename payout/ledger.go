package payout

import (
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/mezonai/snapledger/auth"
	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/monitoring"
	"github.com/mezonai/snapledger/types"
	"github.com/mezonai/snapledger/utils"
)

// DefaultMetadata mirrors the mock stablecoin used as payout currency
var DefaultMetadata = types.TokenMetadata{Name: "Mock Tether USD", Symbol: "USDT", Decimals: utils.DefaultDecimals}

// Ledger is a plain balance/allowance ledger with owner-only minting. It has no
// snapshots and no restrictions; it only moves the interest paid to holders.
type Ledger struct {
	mu          sync.RWMutex
	metadata    types.TokenMetadata
	ownable     *auth.Ownable
	balances    map[string]*uint256.Int
	allowances  map[string]map[string]*uint256.Int
	totalSupply *uint256.Int
	eventRouter *events.EventRouter

	// touched since the last TakeChanges
	dirtyBalances   map[string]struct{}
	dirtyAllowances map[[2]string]struct{}
}

// NewLedger creates an empty payout ledger; supply starts at zero
func NewLedger(metadata types.TokenMetadata, owner string, eventRouter *events.EventRouter) (*Ledger, error) {
	ownable, err := auth.NewOwnable(metadata.Symbol, owner, eventRouter)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		metadata:    metadata,
		ownable:     ownable,
		balances:    make(map[string]*uint256.Int),
		allowances:  make(map[string]map[string]*uint256.Int),
		totalSupply:     uint256.NewInt(0),
		eventRouter:     eventRouter,
		dirtyBalances:   make(map[string]struct{}),
		dirtyAllowances: make(map[[2]string]struct{}),
	}, nil
}

func (p *Ledger) Metadata() types.TokenMetadata {
	return p.metadata
}

func (p *Ledger) Owner() string {
	return p.ownable.Owner()
}

func (p *Ledger) TransferOwnership(caller, newOwner string) error {
	return p.ownable.TransferOwnership(caller, newOwner)
}

func (p *Ledger) BalanceOf(addr string) *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balanceOf(addr)
}

func (p *Ledger) TotalSupply() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(uint256.Int).Set(p.totalSupply)
}

func (p *Ledger) Allowance(owner, spender string) *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if a, ok := p.allowances[owner][spender]; ok {
		return new(uint256.Int).Set(a)
	}
	return uint256.NewInt(0)
}

// Mint credits amount to to. Privileged; intended for funding custody in test and local setups.
func (p *Ledger) Mint(caller, to string, amount *uint256.Int) error {
	if err := p.ownable.OnlyOwner(caller); err != nil {
		return p.reject(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if to == "" {
		return p.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	if err := p.move("", to, amount); err != nil {
		return p.reject(err)
	}
	logx.Info("PAYOUT", fmt.Sprintf("Mint | to=%s | amount=%s", to, amount.Dec()))
	return nil
}

func (p *Ledger) Transfer(caller, to string, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller == "" || to == "" {
		return p.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	if err := p.move(caller, to, amount); err != nil {
		return p.reject(err)
	}
	logx.Info("PAYOUT", fmt.Sprintf("Transfer | from=%s | to=%s | amount=%s", caller, to, amount.Dec()))
	return nil
}

func (p *Ledger) Approve(caller, spender string, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller == "" || spender == "" {
		return p.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	p.setAllowance(caller, spender, amount)
	p.eventRouter.Publish(events.NewApproval(p.metadata.Symbol, caller, spender, amount))
	return nil
}

func (p *Ledger) TransferFrom(caller, from, to string, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller == "" || from == "" || to == "" {
		return p.reject(errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress))
	}
	allowance := uint256.NewInt(0)
	if a, ok := p.allowances[from][caller]; ok {
		allowance.Set(a)
	}
	if allowance.Cmp(amount) < 0 {
		return p.reject(errs.NewError(errs.ErrCodeInsufficientAllowance, errs.ErrMsgInsufficientAllowance))
	}
	if err := p.move(from, to, amount); err != nil {
		return p.reject(err)
	}
	p.setAllowance(from, caller, allowance.Sub(allowance, amount))
	return nil
}

// move debits from (unless minting) and credits to after all checks passed
func (p *Ledger) move(from, to string, amount *uint256.Int) error {
	if from != "" && p.balanceOf(from).Cmp(amount) < 0 {
		return errs.NewError(errs.ErrCodeInsufficientBalance, errs.ErrMsgInsufficientBalance)
	}
	if from == "" {
		if _, overflow := new(uint256.Int).AddOverflow(p.totalSupply, amount); overflow {
			return errs.NewError(errs.ErrCodeOverflow, errs.ErrMsgOverflow)
		}
		p.totalSupply.Add(p.totalSupply, amount)
	} else {
		p.balances[from] = new(uint256.Int).Sub(p.balanceOf(from), amount)
		p.dirtyBalances[from] = struct{}{}
	}
	p.balances[to] = new(uint256.Int).Add(p.balanceOf(to), amount)
	p.dirtyBalances[to] = struct{}{}

	monitoring.RecordTransfer(p.metadata.Symbol)
	p.eventRouter.Publish(events.NewTransfer(p.metadata.Symbol, from, to, amount))
	return nil
}

func (p *Ledger) setAllowance(owner, spender string, amount *uint256.Int) {
	spenders, ok := p.allowances[owner]
	if !ok {
		spenders = make(map[string]*uint256.Int)
		p.allowances[owner] = spenders
	}
	spenders[spender] = new(uint256.Int).Set(amount)
	p.dirtyAllowances[[2]string{owner, spender}] = struct{}{}
}

func (p *Ledger) balanceOf(addr string) *uint256.Int {
	if b, ok := p.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return uint256.NewInt(0)
}

func (p *Ledger) reject(err error) error {
	monitoring.RecordRejectedOp(p.metadata.Symbol, string(errs.CodeOf(err)))
	logx.Warn("PAYOUT", fmt.Sprintf("Operation rejected | symbol=%s | reason=%v", p.metadata.Symbol, err))
	return err
}

// Export returns the persisted form of the payout ledger
func (p *Ledger) Export() types.PayoutState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state := types.PayoutState{
		Metadata:    p.metadata,
		Owner:       p.ownable.Owner(),
		TotalSupply: utils.Uint256ToString(p.totalSupply),
		Balances:    make(map[string]string, len(p.balances)),
		Allowances:  make(map[string]map[string]string, len(p.allowances)),
	}
	for addr, b := range p.balances {
		state.Balances[addr] = utils.Uint256ToString(b)
	}
	for owner, spenders := range p.allowances {
		out := make(map[string]string, len(spenders))
		for spender, a := range spenders {
			out[spender] = utils.Uint256ToString(a)
		}
		state.Allowances[owner] = out
	}
	return state
}

// LoadLedger rebuilds a payout ledger and checks that balances sum to supply
func LoadLedger(state types.PayoutState, eventRouter *events.EventRouter) (*Ledger, error) {
	p, err := NewLedger(state.Metadata, state.Owner, eventRouter)
	if err != nil {
		return nil, err
	}
	p.totalSupply = utils.Uint256FromString(state.TotalSupply)

	addrs := make([]string, 0, len(state.Balances))
	for addr := range state.Balances {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	sum := uint256.NewInt(0)
	for _, addr := range addrs {
		b := utils.Uint256FromString(state.Balances[addr])
		p.balances[addr] = b
		if _, overflow := sum.AddOverflow(sum, b); overflow {
			return nil, fmt.Errorf("payout balances overflow")
		}
	}
	if !sum.Eq(p.totalSupply) {
		return nil, fmt.Errorf("payout balances sum %s differs from total supply %s", sum.Dec(), p.totalSupply.Dec())
	}
	for owner, spenders := range state.Allowances {
		for spender, a := range spenders {
			p.setAllowance(owner, spender, utils.Uint256FromString(a))
		}
	}
	p.dirtyAllowances = make(map[[2]string]struct{})
	return p, nil
}

// TakeChanges adds the balances and allowances touched since the previous call
// to delta, together with the meta record, and forgets them
func (p *Ledger) TakeChanges(delta *types.StateDelta) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delta.Payout = &types.PayoutMeta{
		Metadata:    p.metadata,
		Owner:       p.ownable.Owner(),
		TotalSupply: utils.Uint256ToString(p.totalSupply),
	}
	for addr := range p.dirtyBalances {
		delta.PayoutBalances = append(delta.PayoutBalances, types.PayoutBalance{
			Address: addr,
			Balance: utils.Uint256ToString(p.balanceOf(addr)),
		})
	}
	for key := range p.dirtyAllowances {
		delta.PayoutAllowances = append(delta.PayoutAllowances, types.AllowanceRecord{
			Owner:   key[0],
			Spender: key[1],
			Amount:  utils.Uint256ToString(p.allowances[key[0]][key[1]]),
		})
	}
	p.dirtyBalances = make(map[string]struct{})
	p.dirtyAllowances = make(map[[2]string]struct{})
}
