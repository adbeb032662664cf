package system

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mezonai/snapledger/config"
	"github.com/mezonai/snapledger/distribution"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/ledger"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/oracle"
	"github.com/mezonai/snapledger/payout"
	"github.com/mezonai/snapledger/store"
	"github.com/mezonai/snapledger/types"
	"github.com/mezonai/snapledger/utils"
)

// System wires the restricted ledger, the payout currency and the distribution
// engine together. Mutations go through Execute, which runs one operation at a
// time and persists the records it touched only when the operation succeeds.
type System struct {
	mu          sync.Mutex
	Ledger      *ledger.Ledger
	Payout      *payout.Ledger
	Engine      *distribution.Engine
	Oracle      *oracle.Static
	eventRouter *events.EventRouter
	store       *store.StateStore
}

// NewFromGenesis deploys every component the way the reference deployment does:
// payout currency, oracle, token with its initial supply, engine, allocations,
// custody funding, then ledger ownership handed to the engine.
func NewFromGenesis(cfg *config.GenesisConfig, eventRouter *events.EventRouter) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	price, err := utils.ParseUnits(orZero(cfg.Oracle.IndexPrice), cfg.Token.Decimals)
	if err != nil {
		return nil, err
	}
	supply, err := utils.ParseUnits(orZero(cfg.Token.InitialSupply), cfg.Token.Decimals)
	if err != nil {
		return nil, err
	}
	custody, err := utils.ParseUnits(orZero(cfg.Payout.CustodyFunding), cfg.Payout.Decimals)
	if err != nil {
		return nil, err
	}

	s := &System{eventRouter: eventRouter}
	if s.Payout, err = payout.NewLedger(types.TokenMetadata{
		Name: cfg.Payout.Name, Symbol: cfg.Payout.Symbol, Decimals: cfg.Payout.Decimals,
	}, cfg.Owner, eventRouter); err != nil {
		return nil, fmt.Errorf("failed to create payout ledger: %w", err)
	}
	s.Oracle = oracle.NewStatic(nil)
	if !price.IsZero() {
		s.Oracle.SetPrice(price)
	}
	if s.Ledger, err = ledger.NewLedger(ledger.Config{
		Metadata:      types.TokenMetadata{Name: cfg.Token.Name, Symbol: cfg.Token.Symbol, Decimals: cfg.Token.Decimals},
		Owner:         cfg.Owner,
		InitialSupply: supply,
		Oracle:        s.Oracle,
		EventRouter:   eventRouter,
	}); err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}
	if s.Engine, err = distribution.NewEngine(distribution.Config{
		Address:     cfg.Engine.Address,
		Owner:       cfg.Owner,
		Ledger:      s.Ledger,
		Currency:    s.Payout,
		EventRouter: eventRouter,
	}); err != nil {
		return nil, fmt.Errorf("failed to create distribution engine: %w", err)
	}

	for _, a := range cfg.Allocations {
		amount, err := utils.ParseUnits(a.Amount, cfg.Token.Decimals)
		if err != nil {
			return nil, err
		}
		if err := s.Ledger.Transfer(cfg.Owner, a.Address, amount); err != nil {
			return nil, fmt.Errorf("failed to allocate to %s: %w", a.Address, err)
		}
	}
	if !custody.IsZero() {
		if err := s.Payout.Mint(cfg.Owner, cfg.Engine.Address, custody); err != nil {
			return nil, fmt.Errorf("failed to fund engine custody: %w", err)
		}
	}
	if cfg.Engine.OwnsLedger {
		if err := s.Ledger.TransferOwnership(cfg.Owner, cfg.Engine.Address); err != nil {
			return nil, fmt.Errorf("failed to hand ledger ownership to engine: %w", err)
		}
	}

	logx.Info("SYSTEM", fmt.Sprintf("Genesis applied | token=%s | supply=%s | custody=%s",
		cfg.Token.Symbol, supply.Dec(), custody.Dec()))
	return s, nil
}

// Load rebuilds a system from its persisted form
func Load(state *types.SystemState, eventRouter *events.EventRouter) (*System, error) {
	s := &System{eventRouter: eventRouter, Oracle: oracle.NewStatic(nil)}
	if price := utils.Uint256FromString(state.IndexPrice); !price.IsZero() {
		s.Oracle.SetPrice(price)
	}

	var err error
	if s.Ledger, err = ledger.LoadLedger(state.Ledger, s.Oracle, eventRouter); err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	if s.Payout, err = payout.LoadLedger(state.Payout, eventRouter); err != nil {
		return nil, fmt.Errorf("failed to load payout ledger: %w", err)
	}
	if s.Engine, err = distribution.LoadEngine(state.Distribution, s.Ledger, s.Payout, eventRouter); err != nil {
		return nil, fmt.Errorf("failed to load distribution engine: %w", err)
	}
	return s, nil
}

// Open loads the latest state saved in st and binds the system to it
func Open(st *store.StateStore, eventRouter *events.EventRouter) (*System, error) {
	state, revision, err := st.Load()
	if err != nil {
		return nil, err
	}
	s, err := Load(state, eventRouter)
	if err != nil {
		return nil, err
	}
	s.store = st
	logx.Info("SYSTEM", fmt.Sprintf("State opened | revision=%d | snapshot=%d", revision, s.Ledger.CurrentSnapshotID()))
	return s, nil
}

// Attach binds a freshly built system to st and saves every record as the first revision
func (s *System) Attach(st *store.StateStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if revision, err := st.Revision(); err != nil {
		return err
	} else if revision != 0 {
		return fmt.Errorf("store already holds state at revision %d", revision)
	}
	s.takeDelta()
	if _, _, err := st.Apply(store.FullDelta(s.Export())); err != nil {
		return err
	}
	s.store = st
	return nil
}

// Export returns the persisted form of every component
func (s *System) Export() *types.SystemState {
	return &types.SystemState{
		Ledger:       s.Ledger.Export(),
		Payout:       s.Payout.Export(),
		Distribution: s.Engine.Export(),
		IndexPrice:   s.indexPrice(),
	}
}

// StateHash returns the latest saved revision and its chained state hash.
// A system without a store reports revision 0 and an empty hash.
func (s *System) StateHash() (uint64, string, error) {
	if s.store == nil {
		return 0, "", nil
	}
	return s.store.Head()
}

// Revisions lists the state hash of every saved revision, oldest first
func (s *System) Revisions() ([]store.RevisionHash, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.StateHashes()
}

// Execute runs op on its own and saves the records it touched if op succeeds.
// A failed op leaves nothing behind; every component checks before it writes.
// When the save fails, memory is reloaded from the last saved revision so it
// never runs ahead of the store.
func (s *System) Execute(name string, op func(*System) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := op(s); err != nil {
		logx.Warn("SYSTEM", fmt.Sprintf("Operation failed | op=%s | reason=%v", name, err))
		return err
	}
	if err := s.persist(); err != nil {
		logx.Error("SYSTEM", fmt.Sprintf("Operation not saved | op=%s | reason=%v", name, err))
		if rollbackErr := s.rollback(); rollbackErr != nil {
			return fmt.Errorf("%s could not be saved (%v) and state could not be reloaded: %w", name, err, rollbackErr)
		}
		return fmt.Errorf("%s could not be saved, state reverted: %w", name, err)
	}
	return nil
}

// View runs a read-only fn under the same serialization as Execute
func (s *System) View(fn func(*System) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (s *System) persist() error {
	delta := s.takeDelta()
	if s.store == nil {
		return nil
	}
	_, _, err := s.store.Apply(delta)
	return err
}

// takeDelta collects and clears the change sets of every component
func (s *System) takeDelta() *types.StateDelta {
	delta := &types.StateDelta{}
	s.Ledger.TakeChanges(delta)
	s.Payout.TakeChanges(delta)
	s.Engine.TakeChanges(delta)
	price := s.indexPrice()
	delta.IndexPrice = &price
	return delta
}

// rollback replaces every component with the last saved revision
func (s *System) rollback() error {
	if s.store == nil {
		return nil
	}
	state, revision, err := s.store.Load()
	if err != nil {
		return err
	}
	restored, err := Load(state, s.eventRouter)
	if err != nil {
		return err
	}
	s.Ledger, s.Payout, s.Engine, s.Oracle = restored.Ledger, restored.Payout, restored.Engine, restored.Oracle
	logx.Warn("SYSTEM", fmt.Sprintf("State reverted | revision=%d", revision))
	return nil
}

func (s *System) indexPrice() string {
	price, err := s.Oracle.IndexPrice()
	if errors.Is(err, oracle.ErrNoPrice) {
		price = nil
	}
	return utils.Uint256ToString(price)
}

func (s *System) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
