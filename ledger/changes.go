package ledger

import (
	"github.com/mezonai/snapledger/types"
	"github.com/mezonai/snapledger/utils"
)

// changeSet tracks what mutations touched since the last flush. Checkpoint
// entries are tracked by the first epoch touched; only entries from that
// epoch on can have changed, since earlier epochs are closed.
type changeSet struct {
	accounts    map[string]struct{}
	allowances  map[[2]string]struct{}
	checkpoints map[string]uint64
	supply      bool
	supplyFrom  uint64
}

func newChangeSet() *changeSet {
	return &changeSet{
		accounts:    make(map[string]struct{}),
		allowances:  make(map[[2]string]struct{}),
		checkpoints: make(map[string]uint64),
	}
}

func (c *changeSet) touchAccount(addr string) {
	c.accounts[addr] = struct{}{}
}

func (c *changeSet) touchAllowance(owner, spender string) {
	c.allowances[[2]string{owner, spender}] = struct{}{}
}

func (c *changeSet) touchCheckpoint(addr string, epoch uint64) {
	if _, ok := c.checkpoints[addr]; !ok {
		c.checkpoints[addr] = epoch
	}
}

func (c *changeSet) touchSupply(epoch uint64) {
	if !c.supply {
		c.supply = true
		c.supplyFrom = epoch
	}
}

// TakeChanges adds the records touched since the previous call to delta and
// starts a new change set. The meta record is always included. The cost is
// proportional to what changed, not to the number of accounts or checkpoints.
func (l *Ledger) TakeChanges(delta *types.StateDelta) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delta.Ledger = &types.LedgerMeta{
		Metadata:          l.metadata,
		Owner:             l.ownable.Owner(),
		CurrentSnapshotID: l.snapshots.Current(),
		TotalSupply:       utils.Uint256ToString(l.totalSupply),
	}
	for addr := range l.changes.accounts {
		delta.Accounts = append(delta.Accounts, l.accountRecord(addr))
	}
	for key := range l.changes.allowances {
		delta.Allowances = append(delta.Allowances, types.AllowanceRecord{
			Owner:   key[0],
			Spender: key[1],
			Amount:  utils.Uint256ToString(l.allowanceOf(key[0], key[1])),
		})
	}
	for addr, from := range l.changes.checkpoints {
		for _, e := range l.balanceHistory.History(addr).EntriesFrom(from) {
			delta.BalanceCheckpoints = append(delta.BalanceCheckpoints, types.BalanceCheckpoint{
				Account:    addr,
				SnapshotID: e.SnapshotID,
				Value:      utils.Uint256ToString(e.Value),
			})
		}
	}
	if l.changes.supply {
		delta.SupplyCheckpoints = append(delta.SupplyCheckpoints, toRecords(l.supplyHistory.EntriesFrom(l.changes.supplyFrom))...)
	}
	l.changes = newChangeSet()
}

func (l *Ledger) accountRecord(addr string) types.AccountRecord {
	record := types.AccountRecord{Address: addr, Blacklisted: l.blacklist[addr]}
	if b, ok := l.balances[addr]; ok {
		record.Balance = utils.Uint256ToString(b)
	}
	if f, ok := l.frozen[addr]; ok {
		record.Frozen = utils.Uint256ToString(f)
	}
	return record
}
