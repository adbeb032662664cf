package auth

import (
	"fmt"
	"sync"

	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/logx"
)

// Ownable holds the single privileged identity of a component. Privileged
// operations call OnlyOwner with the caller before touching any state.
type Ownable struct {
	mu          sync.RWMutex
	owner       string
	source      string
	eventRouter *events.EventRouter
}

func NewOwnable(source, owner string, eventRouter *events.EventRouter) (*Ownable, error) {
	if owner == "" {
		return nil, errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress)
	}
	return &Ownable{
		owner:       owner,
		source:      source,
		eventRouter: eventRouter,
	}, nil
}

func (o *Ownable) Owner() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.owner
}

// OnlyOwner returns an authorization error unless caller is the owner
func (o *Ownable) OnlyOwner(caller string) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if caller == "" || caller != o.owner {
		return errs.NewErrorf(errs.ErrCodeUnauthorized, errs.ErrMsgUnauthorized, caller)
	}
	return nil
}

// TransferOwnership hands the privileged identity to newOwner
func (o *Ownable) TransferOwnership(caller, newOwner string) error {
	if err := o.OnlyOwner(caller); err != nil {
		return err
	}
	if newOwner == "" {
		return errs.NewError(errs.ErrCodeInvalidAddress, errs.ErrMsgInvalidAddress)
	}

	o.mu.Lock()
	previous := o.owner
	o.owner = newOwner
	o.mu.Unlock()

	logx.Info("AUTH", fmt.Sprintf("Ownership transferred | source=%s | from=%s | to=%s", o.source, previous, newOwner))
	o.eventRouter.Publish(events.NewOwnershipTransferred(o.source, previous, newOwner))
	return nil
}
