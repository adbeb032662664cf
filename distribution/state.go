package distribution

import (
	"fmt"
	"sort"
	"time"

	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/types"
	"github.com/mezonai/snapledger/utils"
)

// Export returns the persisted form of the engine
func (e *Engine) Export() types.DistributionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := types.DistributionState{
		Owner:   e.ownable.Owner(),
		Custody: e.address,
		Claimed: make(map[uint64][]string, len(e.claimed)),
		Claims:  make([]types.ClaimState, 0, len(e.claims)),
	}
	state.Period = e.periodState()
	for id, accounts := range e.claimed {
		list := make([]string, 0, len(accounts))
		for account := range accounts {
			list = append(list, account)
		}
		sort.Strings(list)
		state.Claimed[id] = list
	}
	for _, c := range e.claims {
		state.Claims = append(state.Claims, claimState(c))
	}
	return state
}

// TakeChanges adds the claim marks changed and the claims paid since the
// previous call to delta, together with the engine meta record
func (e *Engine) TakeChanges(delta *types.StateDelta) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delta.Engine = &types.EngineMeta{
		Owner:   e.ownable.Owner(),
		Custody: e.address,
		Period:  e.periodState(),
	}
	for key := range e.dirtyMarks {
		delta.ClaimMarks = append(delta.ClaimMarks, types.ClaimMark{
			SnapshotID: key.snapshotID,
			Account:    key.account,
			Claimed:    e.claimed[key.snapshotID][key.account],
		})
	}
	for i := e.flushedClaims; i < len(e.claims); i++ {
		delta.Claims = append(delta.Claims, types.ClaimEntry{Seq: uint64(i), ClaimState: claimState(e.claims[i])})
	}
	e.dirtyMarks = make(map[claimKey]struct{})
	e.flushedClaims = len(e.claims)
}

func (e *Engine) periodState() *types.PeriodState {
	if e.period == nil {
		return nil
	}
	return &types.PeriodState{
		SnapshotID:            e.period.SnapshotID,
		PoolAmount:            utils.Uint256ToString(e.period.PoolAmount),
		TotalSupplyAtSnapshot: utils.Uint256ToString(e.period.TotalSupplyAtSnapshot),
		FundedAtUnix:          e.period.FundedAt.Unix(),
	}
}

func claimState(c types.ClaimRecord) types.ClaimState {
	return types.ClaimState{
		Account:    c.Account,
		Amount:     utils.Uint256ToString(c.Amount),
		SnapshotID: c.SnapshotID,
	}
}

// LoadEngine rebuilds an engine over already restored collaborators
func LoadEngine(state types.DistributionState, ledger Ledger, currency Currency, eventRouter *events.EventRouter) (*Engine, error) {
	e, err := NewEngine(Config{
		Address:     state.Custody,
		Owner:       state.Owner,
		Ledger:      ledger,
		Currency:    currency,
		EventRouter: eventRouter,
	})
	if err != nil {
		return nil, err
	}
	if state.Period != nil {
		e.period = &types.DistributionPeriod{
			SnapshotID:            state.Period.SnapshotID,
			PoolAmount:            utils.Uint256FromString(state.Period.PoolAmount),
			TotalSupplyAtSnapshot: utils.Uint256FromString(state.Period.TotalSupplyAtSnapshot),
			FundedAt:              time.Unix(state.Period.FundedAtUnix, 0),
		}
		if e.period.TotalSupplyAtSnapshot.IsZero() {
			return nil, fmt.Errorf("period %d has zero supply at snapshot", e.period.SnapshotID)
		}
	}
	for id, accounts := range state.Claimed {
		for _, account := range accounts {
			e.markClaimed(id, account)
		}
	}
	for _, c := range state.Claims {
		e.claims = append(e.claims, types.ClaimRecord{
			Account:    c.Account,
			Amount:     utils.Uint256FromString(c.Amount),
			SnapshotID: c.SnapshotID,
		})
	}
	e.dirtyMarks = make(map[claimKey]struct{})
	e.flushedClaims = len(e.claims)
	return e, nil
}
