package ledger

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/mezonai/snapledger/checkpoint"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/oracle"
	"github.com/mezonai/snapledger/types"
	"github.com/mezonai/snapledger/utils"
)

// Export returns the persisted form of the ledger, including full checkpoint histories
func (l *Ledger) Export() types.LedgerState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state := types.LedgerState{
		Metadata:          l.metadata,
		Owner:             l.ownable.Owner(),
		CurrentSnapshotID: l.snapshots.Current(),
		TotalSupply:       utils.Uint256ToString(l.totalSupply),
		Balances:          make(map[string]string, len(l.balances)),
		Frozen:            make(map[string]string, len(l.frozen)),
		Blacklist:         make([]string, 0, len(l.blacklist)),
		Allowances:        make(map[string]map[string]string, len(l.allowances)),
		BalanceHistory:    make(map[string][]types.CheckpointRecord, l.balanceHistory.Len()),
		SupplyHistory:     toRecords(l.supplyHistory.Entries()),
	}
	for addr, b := range l.balances {
		state.Balances[addr] = utils.Uint256ToString(b)
	}
	for addr, f := range l.frozen {
		state.Frozen[addr] = utils.Uint256ToString(f)
	}
	for addr := range l.blacklist {
		state.Blacklist = append(state.Blacklist, addr)
	}
	sort.Strings(state.Blacklist)
	for owner, spenders := range l.allowances {
		out := make(map[string]string, len(spenders))
		for spender, a := range spenders {
			out[spender] = utils.Uint256ToString(a)
		}
		state.Allowances[owner] = out
	}
	for _, addr := range l.balanceHistory.Keys(func(a, b string) bool { return a < b }) {
		state.BalanceHistory[addr] = toRecords(l.balanceHistory.History(addr).Entries())
	}
	return state
}

// LoadLedger rebuilds a ledger from its persisted form without re-running the genesis mint
func LoadLedger(state types.LedgerState, provider oracle.Provider, eventRouter *events.EventRouter) (*Ledger, error) {
	l, err := newLedger(state.Metadata, state.Owner, provider, eventRouter)
	if err != nil {
		return nil, err
	}

	l.snapshots.Restore(state.CurrentSnapshotID)
	l.totalSupply = utils.Uint256FromString(state.TotalSupply)
	for addr, b := range state.Balances {
		l.balances[addr] = utils.Uint256FromString(b)
	}
	for addr, f := range state.Frozen {
		l.frozen[addr] = utils.Uint256FromString(f)
	}
	for _, addr := range state.Blacklist {
		l.blacklist[addr] = true
	}
	for owner, spenders := range state.Allowances {
		for spender, a := range spenders {
			l.setAllowance(owner, spender, utils.Uint256FromString(a))
		}
	}
	for addr, records := range state.BalanceHistory {
		h, err := fromRecords(records, state.CurrentSnapshotID)
		if err != nil {
			return nil, fmt.Errorf("invalid balance history for %s: %w", addr, err)
		}
		l.balanceHistory.Set(addr, h)
	}
	if l.supplyHistory, err = fromRecords(state.SupplyHistory, state.CurrentSnapshotID); err != nil {
		return nil, fmt.Errorf("invalid supply history: %w", err)
	}

	if err := l.checkConsistency(); err != nil {
		return nil, err
	}
	l.changes = newChangeSet()
	return l, nil
}

// checkConsistency verifies the invariants a restored ledger must satisfy:
// live values match the last checkpoint, balances sum to supply, frozen never exceeds balance.
func (l *Ledger) checkConsistency() error {
	sum := uint256.NewInt(0)
	for addr, b := range l.balances {
		if !l.balanceHistory.Latest(addr).Eq(b) {
			return fmt.Errorf("balance of %s does not match its latest checkpoint", addr)
		}
		if _, overflow := sum.AddOverflow(sum, b); overflow {
			return fmt.Errorf("balances overflow")
		}
	}
	if !sum.Eq(l.totalSupply) {
		return fmt.Errorf("balances sum %s differs from total supply %s", sum.Dec(), l.totalSupply.Dec())
	}
	if !l.supplyHistory.Latest().Eq(l.totalSupply) {
		return fmt.Errorf("total supply does not match its latest checkpoint")
	}
	for addr, f := range l.frozen {
		if f.Cmp(l.balanceOf(addr)) > 0 {
			return fmt.Errorf("frozen amount of %s exceeds its balance", addr)
		}
	}
	return nil
}

func toRecords(entries []checkpoint.Checkpoint) []types.CheckpointRecord {
	records := make([]types.CheckpointRecord, len(entries))
	for i, e := range entries {
		records[i] = types.CheckpointRecord{SnapshotID: e.SnapshotID, Value: utils.Uint256ToString(e.Value)}
	}
	return records
}

func fromRecords(records []types.CheckpointRecord, current uint64) (*checkpoint.History, error) {
	entries := make([]checkpoint.Checkpoint, len(records))
	for i, r := range records {
		if r.SnapshotID > current {
			return nil, fmt.Errorf("checkpoint id %d is ahead of snapshot counter %d", r.SnapshotID, current)
		}
		entries[i] = checkpoint.Checkpoint{SnapshotID: r.SnapshotID, Value: utils.Uint256FromString(r.Value)}
	}
	return checkpoint.NewHistory(entries)
}
