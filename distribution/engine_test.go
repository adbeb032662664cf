package distribution

import (
	"fmt"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/ledger"
	"github.com/mezonai/snapledger/payout"
	"github.com/mezonai/snapledger/types"
)

const (
	owner  = "owner"
	engine = "engine"
	alice  = "alice"
	bob    = "bob"
	carol  = "carol"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// flakyCurrency fails transfers while broken is set
type flakyCurrency struct {
	*payout.Ledger
	broken bool
}

func (f *flakyCurrency) Transfer(caller, to string, amount *uint256.Int) error {
	if f.broken {
		return fmt.Errorf("payout ledger unavailable")
	}
	return f.Ledger.Transfer(caller, to, amount)
}

type fixture struct {
	ledger   *ledger.Ledger
	usdt     *flakyCurrency
	engine   *Engine
	router   *events.EventRouter
	observed []events.LedgerEvent
}

// newFixture mints the given holdings, funds custody with custody units and
// hands ledger ownership to the engine
func newFixture(t *testing.T, holdings map[string]uint64, custody uint64) *fixture {
	t.Helper()
	f := &fixture{router: events.NewEventRouter(nil)}
	f.router.AddHook(func(e events.LedgerEvent) {
		f.observed = append(f.observed, e)
	})

	l, err := ledger.NewLedger(ledger.Config{
		Metadata: types.TokenMetadata{Name: "CSI300 Index Token", Symbol: "CSI300", Decimals: 6},
		Owner:    owner,
	})
	require.NoError(t, err)
	for addr, amount := range holdings {
		require.NoError(t, l.Mint(owner, addr, u(amount)))
	}
	p, err := payout.NewLedger(payout.DefaultMetadata, owner, nil)
	require.NoError(t, err)
	if custody > 0 {
		require.NoError(t, p.Mint(owner, engine, u(custody)))
	}
	f.ledger = l
	f.usdt = &flakyCurrency{Ledger: p}

	f.engine, err = NewEngine(Config{
		Address:     engine,
		Owner:       owner,
		Ledger:      l,
		Currency:    f.usdt,
		EventRouter: f.router,
	})
	require.NoError(t, err)
	f.engine.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	require.NoError(t, l.TransferOwnership(owner, engine))
	return f
}

func TestSetTotalInterest(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)

	period, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), period.SnapshotID)
	assert.Equal(t, u(1000), period.PoolAmount)
	assert.Equal(t, u(400), period.TotalSupplyAtSnapshot)
	assert.Equal(t, time.Unix(1_700_000_000, 0), period.FundedAt)

	assert.Equal(t, uint64(1), f.engine.CurrentSnapshotID())
	assert.Equal(t, uint64(1), f.ledger.CurrentSnapshotID())
	assert.Equal(t, u(1000), f.engine.TotalInterest())

	var funded *events.InterestFunded
	for _, e := range f.observed {
		if ev, ok := e.(*events.InterestFunded); ok {
			funded = ev
		}
	}
	require.NotNil(t, funded)
	assert.Equal(t, uint64(1), funded.SnapshotID)
}

func TestSetTotalInterest_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		holdings map[string]uint64
		custody  uint64
		caller   string
		pool     uint64
		want     error
	}{
		{"non-owner", map[string]uint64{alice: 100}, 1000, alice, 1000, errs.ErrUnauthorized},
		{"zero pool", map[string]uint64{alice: 100}, 1000, owner, 0, errs.ErrInvalidAmount},
		{"custody short", map[string]uint64{alice: 100}, 999, owner, 1000, errs.ErrTransferFailed},
		{"zero supply", map[string]uint64{}, 1000, owner, 1000, errs.ErrZeroSupply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.holdings, tt.custody)

			_, err := f.engine.SetTotalInterest(tt.caller, u(tt.pool))
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, f.engine.Period())
			assert.Equal(t, uint64(0), f.ledger.CurrentSnapshotID(), "rejected funding must not issue a snapshot")
		})
	}
}

func TestSetTotalInterest_EngineMustOwnLedger(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100}, 1000)
	require.NoError(t, f.ledger.TransferOwnership(engine, owner))

	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Nil(t, f.engine.Period())
}

func TestClaimInterest_ProRata(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)

	preview, err := f.engine.Entitlement(alice)
	require.NoError(t, err)
	assert.Equal(t, u(250), preview)

	record, err := f.engine.ClaimInterest(alice)
	require.NoError(t, err)
	assert.Equal(t, alice, record.Account)
	assert.Equal(t, u(250), record.Amount)
	assert.Equal(t, uint64(1), record.SnapshotID)
	assert.Equal(t, u(250), f.usdt.BalanceOf(alice))
	assert.Equal(t, u(750), f.usdt.BalanceOf(engine))
	assert.True(t, f.engine.HasClaimed(alice))
	assert.False(t, f.engine.HasClaimed(bob))

	_, err = f.engine.ClaimInterest(bob)
	require.NoError(t, err)
	assert.Equal(t, u(750), f.usdt.BalanceOf(bob))
	assert.True(t, f.usdt.BalanceOf(engine).IsZero())
	assert.Len(t, f.engine.Claims(), 2)
}

func TestClaimInterest_NoDoublePay(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)

	_, err = f.engine.ClaimInterest(alice)
	require.NoError(t, err)

	_, err = f.engine.ClaimInterest(alice)
	require.ErrorIs(t, err, errs.ErrAlreadyClaimed)
	assert.Equal(t, errs.KindState, errs.KindOf(err))
	assert.Equal(t, u(250), f.usdt.BalanceOf(alice))

	// moving tokens after the snapshot must not create a second entitlement
	require.NoError(t, f.ledger.Transfer(alice, carol, u(100)))
	record, err := f.engine.ClaimInterest(carol)
	require.NoError(t, err)
	assert.True(t, record.Amount.IsZero())
	assert.True(t, f.usdt.BalanceOf(carol).IsZero())
}

func TestClaimInterest_BlacklistBlocksClaim(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)

	// the engine owns the ledger now, so it administers the blacklist
	require.NoError(t, f.ledger.SetBlacklisted(engine, alice, true))

	_, err = f.engine.ClaimInterest(alice)
	require.ErrorIs(t, err, errs.ErrBlacklisted)
	assert.Equal(t, errs.KindRestriction, errs.KindOf(err))
	assert.True(t, f.usdt.BalanceOf(alice).IsZero())
	assert.Equal(t, u(1000), f.usdt.BalanceOf(engine))
	assert.False(t, f.engine.HasClaimed(alice))

	require.NoError(t, f.ledger.SetBlacklisted(engine, alice, false))
	record, err := f.engine.ClaimInterest(alice)
	require.NoError(t, err)
	assert.Equal(t, u(250), record.Amount)
}

func TestClaimInterest_FreezeDoesNotShrinkEntitlement(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)
	require.NoError(t, f.ledger.TransferOwnership(engine, owner))
	require.NoError(t, f.ledger.FreezeBalance(owner, alice, u(50)))
	require.NoError(t, f.ledger.TransferOwnership(owner, engine))

	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)

	atSnapshot, err := f.ledger.BalanceOfAt(alice, 1)
	require.NoError(t, err)
	assert.Equal(t, u(100), atSnapshot)

	record, err := f.engine.ClaimInterest(alice)
	require.NoError(t, err)
	assert.Equal(t, u(250), record.Amount)
}

func TestClaimInterest_ZeroBalanceIsMarked(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100}, 1000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)

	record, err := f.engine.ClaimInterest(carol)
	require.NoError(t, err)
	assert.True(t, record.Amount.IsZero())
	assert.True(t, f.engine.HasClaimed(carol))
	assert.Equal(t, u(1000), f.usdt.BalanceOf(engine))

	_, err = f.engine.ClaimInterest(carol)
	assert.ErrorIs(t, err, errs.ErrAlreadyClaimed)
}

func TestClaimInterest_TransferFailureRollsBack(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)

	f.usdt.broken = true
	_, err = f.engine.ClaimInterest(alice)
	require.ErrorIs(t, err, errs.ErrTransferFailed)
	assert.False(t, f.engine.HasClaimed(alice))
	assert.Empty(t, f.engine.Claims())

	f.usdt.broken = false
	record, err := f.engine.ClaimInterest(alice)
	require.NoError(t, err)
	assert.Equal(t, u(250), record.Amount)
}

func TestClaimInterest_NoActivePeriod(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100}, 1000)

	_, err := f.engine.ClaimInterest(alice)
	require.ErrorIs(t, err, errs.ErrNoActivePeriod)
	_, err = f.engine.Entitlement(alice)
	require.ErrorIs(t, err, errs.ErrNoActivePeriod)
	assert.Equal(t, uint64(0), f.engine.CurrentSnapshotID())
	assert.True(t, f.engine.TotalInterest().IsZero())
	assert.False(t, f.engine.HasClaimed(alice))
}

func TestClaimInterest_NewPeriodSupersedes(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 2000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)
	_, err = f.engine.ClaimInterest(alice)
	require.NoError(t, err)

	require.NoError(t, f.ledger.Transfer(bob, alice, u(100)))
	period, err := f.engine.SetTotalInterest(owner, u(400))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), period.SnapshotID)

	// alice may claim again in the new period, at her new balance
	assert.False(t, f.engine.HasClaimed(alice))
	record, err := f.engine.ClaimInterest(alice)
	require.NoError(t, err)
	assert.Equal(t, u(200), record.Amount)

	// bob never claimed period 1; only period 2 is reachable
	record, err = f.engine.ClaimInterest(bob)
	require.NoError(t, err)
	assert.Equal(t, u(200), record.Amount)
	assert.Equal(t, u(200), f.usdt.BalanceOf(bob))
}

func TestClaimInterest_PaidNeverExceedsPool(t *testing.T) {
	holdings := map[string]uint64{alice: 1, bob: 1, carol: 1}
	f := newFixture(t, holdings, 100)
	_, err := f.engine.SetTotalInterest(owner, u(100))
	require.NoError(t, err)

	paid := uint256.NewInt(0)
	for addr := range holdings {
		record, err := f.engine.ClaimInterest(addr)
		require.NoError(t, err)
		assert.Equal(t, u(33), record.Amount)
		paid.Add(paid, record.Amount)
	}
	assert.Equal(t, u(99), paid)
	// rounding dust stays in custody
	assert.Equal(t, u(1), f.usdt.BalanceOf(engine))
}

func TestClaimInterest_PublishesEvent(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)
	_, err = f.engine.ClaimInterest(alice)
	require.NoError(t, err)

	var claimed *events.InterestClaimed
	for _, e := range f.observed {
		if ev, ok := e.(*events.InterestClaimed); ok {
			claimed = ev
		}
	}
	require.NotNil(t, claimed)
	assert.Equal(t, alice, claimed.Account)
	assert.Equal(t, u(250), claimed.Amount)
	assert.Equal(t, uint64(1), claimed.SnapshotID)
}

func TestEngine_ExportLoad(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)
	_, err = f.engine.ClaimInterest(alice)
	require.NoError(t, err)

	state := f.engine.Export()
	assert.Equal(t, []string{alice}, state.Claimed[1])

	restored, err := LoadEngine(state, f.ledger, f.usdt, nil)
	require.NoError(t, err)
	assert.Equal(t, engine, restored.Address())
	assert.Equal(t, owner, restored.Owner())
	assert.Equal(t, uint64(1), restored.CurrentSnapshotID())
	assert.Equal(t, u(1000), restored.TotalInterest())
	assert.True(t, restored.HasClaimed(alice))
	require.Len(t, restored.Claims(), 1)
	assert.Equal(t, u(250), restored.Claims()[0].Amount)

	_, err = restored.ClaimInterest(alice)
	assert.ErrorIs(t, err, errs.ErrAlreadyClaimed)
	record, err := restored.ClaimInterest(bob)
	require.NoError(t, err)
	assert.Equal(t, u(750), record.Amount)
}

func TestEngine_TakeChanges(t *testing.T) {
	f := newFixture(t, map[string]uint64{alice: 100, bob: 300}, 1000)
	_, err := f.engine.SetTotalInterest(owner, u(1000))
	require.NoError(t, err)
	_, err = f.engine.ClaimInterest(alice)
	require.NoError(t, err)
	f.usdt.broken = true
	_, err = f.engine.ClaimInterest(bob)
	require.ErrorIs(t, err, errs.ErrTransferFailed)

	var delta types.StateDelta
	f.engine.TakeChanges(&delta)
	require.NotNil(t, delta.Engine)
	require.NotNil(t, delta.Engine.Period)
	assert.Equal(t, uint64(1), delta.Engine.Period.SnapshotID)
	assert.Equal(t, engine, delta.Engine.Custody)
	assert.ElementsMatch(t, []types.ClaimMark{
		{SnapshotID: 1, Account: alice, Claimed: true},
		{SnapshotID: 1, Account: bob, Claimed: false},
	}, delta.ClaimMarks)
	require.Len(t, delta.Claims, 1)
	assert.Equal(t, uint64(0), delta.Claims[0].Seq)
	assert.Equal(t, "250", delta.Claims[0].Amount)

	f.usdt.broken = false
	_, err = f.engine.ClaimInterest(bob)
	require.NoError(t, err)
	delta = types.StateDelta{}
	f.engine.TakeChanges(&delta)
	assert.Equal(t, []types.ClaimMark{{SnapshotID: 1, Account: bob, Claimed: true}}, delta.ClaimMarks)
	require.Len(t, delta.Claims, 1)
	assert.Equal(t, uint64(1), delta.Claims[0].Seq)

	restored, err := LoadEngine(f.engine.Export(), f.ledger, f.usdt, nil)
	require.NoError(t, err)
	delta = types.StateDelta{}
	restored.TakeChanges(&delta)
	assert.Empty(t, delta.ClaimMarks)
	assert.Empty(t, delta.Claims)
}
