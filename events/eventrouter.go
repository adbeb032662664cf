package events

import (
	"sync"
)

// EventRouter fans ledger events out to the bus and to synchronous hooks.
// A nil *EventRouter is valid and drops everything, so components can be built without one.
type EventRouter struct {
	eventBus *EventBus
	hooks    []func(LedgerEvent)
	mu       sync.RWMutex
}

// NewEventRouter creates a new EventRouter instance; eventBus may be nil
func NewEventRouter(eventBus *EventBus) *EventRouter {
	return &EventRouter{
		eventBus: eventBus,
	}
}

// AddHook registers fn to be called synchronously for every routed event
func (er *EventRouter) AddHook(fn func(LedgerEvent)) {
	er.mu.Lock()
	defer er.mu.Unlock()
	er.hooks = append(er.hooks, fn)
}

// Publish routes event to hooks first, then to bus subscribers
func (er *EventRouter) Publish(event LedgerEvent) {
	if er == nil {
		return
	}
	er.mu.RLock()
	hooks := er.hooks
	er.mu.RUnlock()

	for _, hook := range hooks {
		hook(event)
	}
	if er.eventBus != nil {
		er.eventBus.Publish(event)
	}
}

// EventBus returns the underlying bus, nil if none
func (er *EventRouter) EventBus() *EventBus {
	if er == nil {
		return nil
	}
	return er.eventBus
}
