package oracle

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"
)

var ErrNoPrice = errors.New("oracle has no price")

// Provider supplies the reference index value. The ledger only displays it;
// no distribution math depends on it.
type Provider interface {
	IndexPrice() (*uint256.Int, error)
}

// Static is a Provider whose price is set by hand, used for local runs and tests
type Static struct {
	mu    sync.RWMutex
	price *uint256.Int
}

func NewStatic(price *uint256.Int) *Static {
	s := &Static{}
	if price != nil {
		s.price = new(uint256.Int).Set(price)
	}
	return s
}

func (s *Static) SetPrice(price *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.price = new(uint256.Int).Set(price)
}

func (s *Static) IndexPrice() (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.price == nil {
		return nil, ErrNoPrice
	}
	return new(uint256.Int).Set(s.price), nil
}
