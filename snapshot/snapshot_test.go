package snapshot

import (
	"testing"

	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_SnapshotIsMonotonic(t *testing.T) {
	c := NewController("TEST", nil)
	require.Equal(t, uint64(0), c.Current())

	for want := uint64(1); want <= 5; want++ {
		assert.Equal(t, want, c.Snapshot())
		assert.Equal(t, want, c.Current())
	}
}

func TestController_Validate(t *testing.T) {
	c := NewController("TEST", nil)
	c.Snapshot()

	assert.NoError(t, c.Validate(0))
	assert.NoError(t, c.Validate(1))

	err := c.Validate(2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNonexistentSnapshot)
	assert.Equal(t, errs.KindState, errs.KindOf(err))
}

func TestController_PublishesEvent(t *testing.T) {
	router := events.NewEventRouter(nil)
	var ids []uint64
	router.AddHook(func(e events.LedgerEvent) {
		if s, ok := e.(*events.Snapshot); ok {
			ids = append(ids, s.ID)
		}
	})

	c := NewController("TEST", router)
	c.Snapshot()
	c.Snapshot()
	assert.Equal(t, []uint64{1, 2}, ids)
}

func TestController_Restore(t *testing.T) {
	c := NewController("TEST", nil)
	c.Restore(9)
	assert.Equal(t, uint64(10), c.Snapshot())
}
