package payout

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/types"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func newTestPayout(t *testing.T) *Ledger {
	t.Helper()
	p, err := NewLedger(DefaultMetadata, "owner", nil)
	require.NoError(t, err)
	return p
}

func TestDeployment(t *testing.T) {
	p := newTestPayout(t)
	assert.Equal(t, "Mock Tether USD", p.Metadata().Name)
	assert.Equal(t, "USDT", p.Metadata().Symbol)
	assert.Equal(t, uint8(6), p.Metadata().Decimals)
	assert.True(t, p.TotalSupply().IsZero())
	assert.Equal(t, "owner", p.Owner())
}

func TestMinting(t *testing.T) {
	router := events.NewEventRouter(nil)
	var transfers []*events.Transfer
	router.AddHook(func(e events.LedgerEvent) {
		if tr, ok := e.(*events.Transfer); ok {
			transfers = append(transfers, tr)
		}
	})
	p, err := NewLedger(DefaultMetadata, "owner", router)
	require.NoError(t, err)

	require.NoError(t, p.Mint("owner", "addr1", u(1_000_000_000)))
	assert.Equal(t, u(1_000_000_000), p.BalanceOf("addr1"))
	assert.Equal(t, u(1_000_000_000), p.TotalSupply())

	require.Len(t, transfers, 1)
	assert.Equal(t, "", transfers[0].From)
	assert.Equal(t, "addr1", transfers[0].To)

	err = p.Mint("addr1", "addr1", u(100))
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, u(1_000_000_000), p.TotalSupply())
}

func TestStandardFunctions(t *testing.T) {
	p := newTestPayout(t)
	require.NoError(t, p.Mint("owner", "owner", u(10_000)))

	require.NoError(t, p.Transfer("owner", "addr1", u(100)))
	assert.Equal(t, u(9_900), p.BalanceOf("owner"))
	assert.Equal(t, u(100), p.BalanceOf("addr1"))

	require.NoError(t, p.Approve("owner", "addr1", u(200)))
	assert.Equal(t, u(200), p.Allowance("owner", "addr1"))

	require.NoError(t, p.TransferFrom("addr1", "owner", "addr2", u(150)))
	assert.Equal(t, u(9_750), p.BalanceOf("owner"))
	assert.Equal(t, u(150), p.BalanceOf("addr2"))
	assert.Equal(t, u(50), p.Allowance("owner", "addr1"))

	assert.ErrorIs(t, p.TransferFrom("addr1", "owner", "addr2", u(51)), errs.ErrInsufficientAllowance)
	assert.ErrorIs(t, p.Transfer("addr1", "addr2", u(101)), errs.ErrInsufficientBalance)
	assert.ErrorIs(t, p.Transfer("addr1", "", u(1)), errs.ErrInvalidAddress)
	assert.Equal(t, u(100), p.BalanceOf("addr1"))
}

func TestExportLoad(t *testing.T) {
	p := newTestPayout(t)
	require.NoError(t, p.Mint("owner", "engine", u(1_000)))
	require.NoError(t, p.Transfer("engine", "alice", u(250)))
	require.NoError(t, p.Approve("alice", "bob", u(7)))

	restored, err := LoadLedger(p.Export(), nil)
	require.NoError(t, err)
	assert.Equal(t, u(750), restored.BalanceOf("engine"))
	assert.Equal(t, u(250), restored.BalanceOf("alice"))
	assert.Equal(t, u(1_000), restored.TotalSupply())
	assert.Equal(t, u(7), restored.Allowance("alice", "bob"))

	broken := p.Export()
	broken.TotalSupply = "1"
	_, err = LoadLedger(broken, nil)
	assert.Error(t, err)
}

func TestTakeChanges(t *testing.T) {
	p := newTestPayout(t)
	require.NoError(t, p.Mint("owner", "engine", u(1000)))
	require.NoError(t, p.Mint("owner", "alice", u(5)))

	var delta types.StateDelta
	p.TakeChanges(&delta)
	require.NotNil(t, delta.Payout)
	assert.Equal(t, "1005", delta.Payout.TotalSupply)
	assert.ElementsMatch(t, []types.PayoutBalance{
		{Address: "engine", Balance: "1000"},
		{Address: "alice", Balance: "5"},
	}, delta.PayoutBalances)

	require.NoError(t, p.Transfer("engine", "bob", u(250)))
	require.NoError(t, p.Approve("bob", "carol", u(10)))
	delta = types.StateDelta{}
	p.TakeChanges(&delta)
	assert.ElementsMatch(t, []types.PayoutBalance{
		{Address: "engine", Balance: "750"},
		{Address: "bob", Balance: "250"},
	}, delta.PayoutBalances)
	assert.Equal(t, []types.AllowanceRecord{{Owner: "bob", Spender: "carol", Amount: "10"}}, delta.PayoutAllowances)

	delta = types.StateDelta{}
	p.TakeChanges(&delta)
	assert.Empty(t, delta.PayoutBalances)
	assert.Empty(t, delta.PayoutAllowances)
}
