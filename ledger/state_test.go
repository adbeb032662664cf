package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/jsonx"
	"github.com/mezonai/snapledger/types"
)

func TestExportLoadLedger(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.Transfer(owner, alice, u(100)))
	s1, err := l.Snapshot(owner)
	require.NoError(t, err)
	require.NoError(t, l.Transfer(alice, bob, u(30)))
	require.NoError(t, l.Approve(alice, carol, u(5)))
	require.NoError(t, l.FreezeBalance(owner, alice, u(20)))
	require.NoError(t, l.SetBlacklisted(owner, carol, true))
	s2, err := l.Snapshot(owner)
	require.NoError(t, err)

	raw, err := jsonx.Marshal(l.Export())
	require.NoError(t, err)
	var state types.LedgerState
	require.NoError(t, jsonx.Unmarshal(raw, &state))

	restored, err := LoadLedger(state, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, l.Export(), restored.Export())
	assert.Equal(t, s2, restored.CurrentSnapshotID())
	assert.Equal(t, owner, restored.Owner())
	assert.Equal(t, u(70), restored.BalanceOf(alice))
	assert.Equal(t, u(20), restored.FrozenBalanceOf(alice))
	assert.Equal(t, u(5), restored.Allowance(alice, carol))
	assert.True(t, restored.IsBlacklisted(carol))

	got, err := restored.BalanceOfAt(alice, s1)
	require.NoError(t, err)
	assert.Equal(t, u(100), got)
	got, err = restored.BalanceOfAt(alice, s2)
	require.NoError(t, err)
	assert.Equal(t, u(70), got)

	id, err := restored.Snapshot(owner)
	require.NoError(t, err)
	assert.Equal(t, s2+1, id)
}

func TestLoadLedger_RejectsInconsistentState(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.Transfer(owner, alice, u(100)))

	tests := []struct {
		name   string
		mutate func(s *types.LedgerState)
	}{
		{name: "supply mismatch", mutate: func(s *types.LedgerState) { s.TotalSupply = "999" }},
		{name: "balance without checkpoint", mutate: func(s *types.LedgerState) { s.Balances[alice] = "90"; s.Balances[owner] = "910" }},
		{name: "frozen above balance", mutate: func(s *types.LedgerState) { s.Frozen[alice] = "101" }},
		{name: "checkpoint ahead of counter", mutate: func(s *types.LedgerState) { s.SupplyHistory[0].SnapshotID = 5 }},
		{name: "empty owner", mutate: func(s *types.LedgerState) { s.Owner = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := l.Export()
			tt.mutate(&state)
			_, err := LoadLedger(state, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestTakeChanges_OnlyTouchedRecords(t *testing.T) {
	l := newTestLedger(t, 1000)

	var genesis types.StateDelta
	l.TakeChanges(&genesis)
	require.NotNil(t, genesis.Ledger)
	assert.Equal(t, "1000", genesis.Ledger.TotalSupply)
	assert.Equal(t, []types.AccountRecord{{Address: owner, Balance: "1000"}}, genesis.Accounts)
	assert.Equal(t, []types.BalanceCheckpoint{{Account: owner, SnapshotID: 0, Value: "1000"}}, genesis.BalanceCheckpoints)
	assert.Equal(t, []types.CheckpointRecord{{SnapshotID: 0, Value: "1000"}}, genesis.SupplyCheckpoints)

	var idle types.StateDelta
	l.TakeChanges(&idle)
	assert.NotNil(t, idle.Ledger)
	assert.Empty(t, idle.Accounts)
	assert.Empty(t, idle.BalanceCheckpoints)
	assert.Empty(t, idle.SupplyCheckpoints)

	// one transfer per epoch: each flush carries the two touched accounts and
	// their newest checkpoints, however long the histories have grown
	for i := 0; i < 50; i++ {
		_, err := l.Snapshot(owner)
		require.NoError(t, err)
		require.NoError(t, l.Transfer(owner, alice, u(1)))

		var delta types.StateDelta
		l.TakeChanges(&delta)
		assert.Len(t, delta.Accounts, 2)
		assert.Len(t, delta.BalanceCheckpoints, 2)
		assert.Empty(t, delta.SupplyCheckpoints)
		assert.Equal(t, uint64(i+1), delta.Ledger.CurrentSnapshotID)
	}
	assert.Equal(t, 51, l.balanceHistory.History(owner).Len())

	require.NoError(t, l.Approve(alice, carol, u(5)))
	require.NoError(t, l.SetBlacklisted(owner, bob, true))
	require.NoError(t, l.Burn(alice, u(10)))
	var delta types.StateDelta
	l.TakeChanges(&delta)
	assert.Equal(t, []types.AllowanceRecord{{Owner: alice, Spender: carol, Amount: "5"}}, delta.Allowances)
	assert.ElementsMatch(t, []types.AccountRecord{
		{Address: alice, Balance: "40"},
		{Address: bob, Blacklisted: true},
	}, delta.Accounts)
	assert.Equal(t, []types.CheckpointRecord{{SnapshotID: 50, Value: "990"}}, delta.SupplyCheckpoints)
}

func TestLoadLedger_StartsWithNoChanges(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.Approve(owner, alice, u(5)))

	restored, err := LoadLedger(l.Export(), nil, nil)
	require.NoError(t, err)
	var delta types.StateDelta
	restored.TakeChanges(&delta)
	assert.Empty(t, delta.Accounts)
	assert.Empty(t, delta.Allowances)
	assert.Empty(t, delta.BalanceCheckpoints)
}

func TestSnapshotWithSupply(t *testing.T) {
	l := newTestLedger(t, 1000)

	_, _, err := l.SnapshotWithSupply(alice)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	id, supply, err := l.SnapshotWithSupply(owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, u(1000), supply)

	require.NoError(t, l.Burn(owner, u(1000)))
	_, _, err = l.SnapshotWithSupply(owner)
	assert.ErrorIs(t, err, errs.ErrZeroSupply)
	assert.Equal(t, uint64(1), l.CurrentSnapshotID())
}
