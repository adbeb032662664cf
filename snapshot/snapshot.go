package snapshot

import (
	"fmt"
	"sync"

	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/monitoring"
)

// Controller issues snapshot ids. Id 0 means no snapshot was taken yet;
// every call to Snapshot yields the next id even if no balance changed.
type Controller struct {
	mu          sync.RWMutex
	current     uint64
	source      string
	eventRouter *events.EventRouter
}

func NewController(source string, eventRouter *events.EventRouter) *Controller {
	return &Controller{
		source:      source,
		eventRouter: eventRouter,
	}
}

// Current returns the latest issued id
func (c *Controller) Current() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Snapshot freezes a new logical instant and returns its id
func (c *Controller) Snapshot() uint64 {
	c.mu.Lock()
	c.current++
	id := c.current
	c.mu.Unlock()

	logx.Info("SNAPSHOT", fmt.Sprintf("Snapshot taken | source=%s | id=%d", c.source, id))
	monitoring.SetCurrentSnapshotID(c.source, id)
	c.eventRouter.Publish(events.NewSnapshot(c.source, id))
	return id
}

// Validate rejects ids that have not been issued yet
func (c *Controller) Validate(id uint64) error {
	current := c.Current()
	if id > current {
		return errs.NewErrorf(errs.ErrCodeNonexistentSnapshot, errs.ErrMsgNonexistentSnapshot, id, current)
	}
	return nil
}

// Restore resets the counter from persisted state
func (c *Controller) Restore(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = id
	monitoring.SetCurrentSnapshotID(c.source, id)
}
