package store

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/mezonai/snapledger/jsonx"
	"github.com/mezonai/snapledger/types"
)

// record is one key of the persisted state; a nil value deletes the key
type record struct {
	key   []byte
	value []byte
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// pairKey joins two addresses with a NUL byte, which addresses never contain
func pairKey(prefix, a, b string) []byte {
	return []byte(prefix + a + "\x00" + b)
}

// balanceCheckpointKey orders the checkpoints of one account by snapshot id
func balanceCheckpointKey(account string, id uint64) []byte {
	return append([]byte(PrefixBalanceCheckpoint+account+"\x00"), uint64Bytes(id)...)
}

func supplyCheckpointKey(id uint64) []byte {
	return append([]byte(PrefixSupplyCheckpoint), uint64Bytes(id)...)
}

func claimMarkKey(id uint64, account string) []byte {
	return append(append([]byte(PrefixClaimMark), uint64Bytes(id)...), account...)
}

func claimKey(seq uint64) []byte {
	return append([]byte(PrefixClaim), uint64Bytes(seq)...)
}

// deltaRecords encodes every record of delta. Keys are unique; a later record
// for the same key replaces an earlier one. The result is sorted by key.
func deltaRecords(delta *types.StateDelta) ([]record, error) {
	byKey := make(map[string]record)
	var encodeErr error
	put := func(key []byte, v interface{}) {
		if encodeErr != nil {
			return
		}
		value, err := jsonx.Marshal(v)
		if err != nil {
			encodeErr = fmt.Errorf("failed to encode %q: %w", key, err)
			return
		}
		byKey[string(key)] = record{key: key, value: value}
	}

	if delta.Ledger != nil {
		put([]byte(KeyLedgerMeta), delta.Ledger)
	}
	for _, a := range delta.Accounts {
		put([]byte(PrefixAccount+a.Address), a)
	}
	for _, a := range delta.Allowances {
		put(pairKey(PrefixAllowance, a.Owner, a.Spender), a)
	}
	for _, c := range delta.BalanceCheckpoints {
		put(balanceCheckpointKey(c.Account, c.SnapshotID), c)
	}
	for _, c := range delta.SupplyCheckpoints {
		put(supplyCheckpointKey(c.SnapshotID), c)
	}
	if delta.Payout != nil {
		put([]byte(KeyPayoutMeta), delta.Payout)
	}
	for _, b := range delta.PayoutBalances {
		put([]byte(PrefixPayoutBalance+b.Address), b)
	}
	for _, a := range delta.PayoutAllowances {
		put(pairKey(PrefixPayoutAllowance, a.Owner, a.Spender), a)
	}
	if delta.Engine != nil {
		put([]byte(KeyEngineMeta), delta.Engine)
	}
	for _, m := range delta.ClaimMarks {
		key := claimMarkKey(m.SnapshotID, m.Account)
		if m.Claimed {
			put(key, m)
		} else {
			byKey[string(key)] = record{key: key}
		}
	}
	for _, c := range delta.Claims {
		put(claimKey(c.Seq), c)
	}
	if delta.IndexPrice != nil {
		put([]byte(KeyIndexPrice), *delta.IndexPrice)
	}
	if encodeErr != nil {
		return nil, encodeErr
	}

	records := make([]record, 0, len(byKey))
	for _, r := range byKey {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return string(records[i].key) < string(records[j].key) })
	return records, nil
}

// FullDelta lists every record of state, used to write a complete system once
func FullDelta(state *types.SystemState) *types.StateDelta {
	l := state.Ledger
	delta := &types.StateDelta{
		Ledger: &types.LedgerMeta{
			Metadata:          l.Metadata,
			Owner:             l.Owner,
			CurrentSnapshotID: l.CurrentSnapshotID,
			TotalSupply:       l.TotalSupply,
		},
		SupplyCheckpoints: l.SupplyHistory,
		Payout: &types.PayoutMeta{
			Metadata:    state.Payout.Metadata,
			Owner:       state.Payout.Owner,
			TotalSupply: state.Payout.TotalSupply,
		},
		Engine: &types.EngineMeta{
			Owner:   state.Distribution.Owner,
			Custody: state.Distribution.Custody,
			Period:  state.Distribution.Period,
		},
		IndexPrice: &state.IndexPrice,
	}

	accounts := make(map[string]*types.AccountRecord)
	account := func(addr string) *types.AccountRecord {
		if a, ok := accounts[addr]; ok {
			return a
		}
		a := &types.AccountRecord{Address: addr}
		accounts[addr] = a
		return a
	}
	for addr, b := range l.Balances {
		account(addr).Balance = b
	}
	for addr, f := range l.Frozen {
		account(addr).Frozen = f
	}
	for _, addr := range l.Blacklist {
		account(addr).Blacklisted = true
	}
	for _, a := range accounts {
		delta.Accounts = append(delta.Accounts, *a)
	}
	for owner, spenders := range l.Allowances {
		for spender, amount := range spenders {
			delta.Allowances = append(delta.Allowances, types.AllowanceRecord{Owner: owner, Spender: spender, Amount: amount})
		}
	}
	for addr, records := range l.BalanceHistory {
		for _, r := range records {
			delta.BalanceCheckpoints = append(delta.BalanceCheckpoints, types.BalanceCheckpoint{
				Account: addr, SnapshotID: r.SnapshotID, Value: r.Value,
			})
		}
	}

	for addr, b := range state.Payout.Balances {
		delta.PayoutBalances = append(delta.PayoutBalances, types.PayoutBalance{Address: addr, Balance: b})
	}
	for owner, spenders := range state.Payout.Allowances {
		for spender, amount := range spenders {
			delta.PayoutAllowances = append(delta.PayoutAllowances, types.AllowanceRecord{Owner: owner, Spender: spender, Amount: amount})
		}
	}

	for id, claimed := range state.Distribution.Claimed {
		for _, addr := range claimed {
			delta.ClaimMarks = append(delta.ClaimMarks, types.ClaimMark{SnapshotID: id, Account: addr, Claimed: true})
		}
	}
	for i, c := range state.Distribution.Claims {
		delta.Claims = append(delta.Claims, types.ClaimEntry{Seq: uint64(i), ClaimState: c})
	}
	return delta
}

// stateDecoder assembles a SystemState from records visited in key order
type stateDecoder struct {
	state     *types.SystemState
	hasLedger bool
	claims    []types.ClaimEntry
}

func newStateDecoder() *stateDecoder {
	return &stateDecoder{state: &types.SystemState{
		Ledger: types.LedgerState{
			Balances:       make(map[string]string),
			Frozen:         make(map[string]string),
			Blacklist:      []string{},
			Allowances:     make(map[string]map[string]string),
			BalanceHistory: make(map[string][]types.CheckpointRecord),
		},
		Payout: types.PayoutState{
			Balances:   make(map[string]string),
			Allowances: make(map[string]map[string]string),
		},
		Distribution: types.DistributionState{
			Claimed: make(map[uint64][]string),
		},
	}}
}

func (d *stateDecoder) add(key, value []byte) error {
	k := string(key)
	s := d.state
	switch {
	case k == KeyLedgerMeta:
		var m types.LedgerMeta
		if err := jsonx.Unmarshal(value, &m); err != nil {
			return decodeError(k, err)
		}
		s.Ledger.Metadata, s.Ledger.Owner = m.Metadata, m.Owner
		s.Ledger.CurrentSnapshotID, s.Ledger.TotalSupply = m.CurrentSnapshotID, m.TotalSupply
		d.hasLedger = true
	case strings.HasPrefix(k, PrefixAccount):
		var a types.AccountRecord
		if err := jsonx.Unmarshal(value, &a); err != nil {
			return decodeError(k, err)
		}
		if a.Balance != "" {
			s.Ledger.Balances[a.Address] = a.Balance
		}
		if a.Frozen != "" {
			s.Ledger.Frozen[a.Address] = a.Frozen
		}
		if a.Blacklisted {
			s.Ledger.Blacklist = append(s.Ledger.Blacklist, a.Address)
		}
	case strings.HasPrefix(k, PrefixAllowance):
		var a types.AllowanceRecord
		if err := jsonx.Unmarshal(value, &a); err != nil {
			return decodeError(k, err)
		}
		putAllowance(s.Ledger.Allowances, a)
	case strings.HasPrefix(k, PrefixBalanceCheckpoint):
		var c types.BalanceCheckpoint
		if err := jsonx.Unmarshal(value, &c); err != nil {
			return decodeError(k, err)
		}
		s.Ledger.BalanceHistory[c.Account] = append(s.Ledger.BalanceHistory[c.Account],
			types.CheckpointRecord{SnapshotID: c.SnapshotID, Value: c.Value})
	case strings.HasPrefix(k, PrefixSupplyCheckpoint):
		var c types.CheckpointRecord
		if err := jsonx.Unmarshal(value, &c); err != nil {
			return decodeError(k, err)
		}
		s.Ledger.SupplyHistory = append(s.Ledger.SupplyHistory, c)
	case k == KeyPayoutMeta:
		var m types.PayoutMeta
		if err := jsonx.Unmarshal(value, &m); err != nil {
			return decodeError(k, err)
		}
		s.Payout.Metadata, s.Payout.Owner, s.Payout.TotalSupply = m.Metadata, m.Owner, m.TotalSupply
	case strings.HasPrefix(k, PrefixPayoutBalance):
		var b types.PayoutBalance
		if err := jsonx.Unmarshal(value, &b); err != nil {
			return decodeError(k, err)
		}
		s.Payout.Balances[b.Address] = b.Balance
	case strings.HasPrefix(k, PrefixPayoutAllowance):
		var a types.AllowanceRecord
		if err := jsonx.Unmarshal(value, &a); err != nil {
			return decodeError(k, err)
		}
		putAllowance(s.Payout.Allowances, a)
	case k == KeyEngineMeta:
		var m types.EngineMeta
		if err := jsonx.Unmarshal(value, &m); err != nil {
			return decodeError(k, err)
		}
		s.Distribution.Owner, s.Distribution.Custody, s.Distribution.Period = m.Owner, m.Custody, m.Period
	case strings.HasPrefix(k, PrefixClaimMark):
		var m types.ClaimMark
		if err := jsonx.Unmarshal(value, &m); err != nil {
			return decodeError(k, err)
		}
		s.Distribution.Claimed[m.SnapshotID] = append(s.Distribution.Claimed[m.SnapshotID], m.Account)
	case strings.HasPrefix(k, PrefixClaim):
		var c types.ClaimEntry
		if err := jsonx.Unmarshal(value, &c); err != nil {
			return decodeError(k, err)
		}
		d.claims = append(d.claims, c)
	case k == KeyIndexPrice:
		if err := jsonx.Unmarshal(value, &s.IndexPrice); err != nil {
			return decodeError(k, err)
		}
	default:
		return fmt.Errorf("unknown state record %q", k)
	}
	return nil
}

// finish orders the logs and checks the claim log has no gaps
func (d *stateDecoder) finish() (*types.SystemState, error) {
	if !d.hasLedger {
		return nil, ErrNoState
	}
	s := d.state
	for addr, records := range s.Ledger.BalanceHistory {
		sortRecords(records)
		s.Ledger.BalanceHistory[addr] = records
	}
	sortRecords(s.Ledger.SupplyHistory)
	sort.Strings(s.Ledger.Blacklist)
	for id := range s.Distribution.Claimed {
		sort.Strings(s.Distribution.Claimed[id])
	}

	sort.Slice(d.claims, func(i, j int) bool { return d.claims[i].Seq < d.claims[j].Seq })
	s.Distribution.Claims = make([]types.ClaimState, 0, len(d.claims))
	for i, c := range d.claims {
		if c.Seq != uint64(i) {
			return nil, fmt.Errorf("claim log has a gap at position %d (found %d)", i, c.Seq)
		}
		s.Distribution.Claims = append(s.Distribution.Claims, c.ClaimState)
	}
	return s, nil
}

func putAllowance(allowances map[string]map[string]string, a types.AllowanceRecord) {
	spenders, ok := allowances[a.Owner]
	if !ok {
		spenders = make(map[string]string)
		allowances[a.Owner] = spenders
	}
	spenders[a.Spender] = a.Amount
}

func sortRecords(records []types.CheckpointRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].SnapshotID < records[j].SnapshotID })
}

func decodeError(key string, err error) error {
	return fmt.Errorf("failed to decode state record %q: %w", key, err)
}
