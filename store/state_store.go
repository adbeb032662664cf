package store

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/mezonai/snapledger/db"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/stringutil"
	"github.com/mezonai/snapledger/types"
)

var ErrNoState = errors.New("no state has been saved")

// StateStore persists the system as one record per account, allowance,
// checkpoint and claim. Each revision writes only the records an operation
// touched, together with the running state digest, the revision counter and
// the chained state hash, in a single batch.
type StateStore struct {
	mu       sync.Mutex
	provider db.IterableProvider
	*GenericStateMetaStore
}

func NewStateStore(provider db.IterableProvider) (*StateStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	format, err := provider.Get([]byte(PrefixStateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to read state format: %w", err)
	}
	if format == nil {
		if err := provider.Put([]byte(PrefixStateFormat), []byte(stateFormatVersion)); err != nil {
			return nil, fmt.Errorf("failed to write state format: %w", err)
		}
	} else if string(format) != stateFormatVersion {
		return nil, fmt.Errorf("unsupported state format %q, want %q", format, stateFormatVersion)
	}
	return &StateStore{
		provider:              provider,
		GenericStateMetaStore: NewGenericStateMetaStore(provider),
	}, nil
}

// Apply writes delta as the next revision and returns that revision and its state hash
func (s *StateStore) Apply(delta *types.StateDelta) (uint64, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := deltaRecords(delta)
	if err != nil {
		return 0, "", err
	}
	current, err := s.revision()
	if err != nil {
		return 0, "", err
	}
	var prev [32]byte
	if current > 0 {
		if prev, err = s.hashAt(current); err != nil {
			return 0, "", err
		}
	}
	digest, err := s.digest()
	if err != nil {
		return 0, "", err
	}

	keys := make([][]byte, len(records))
	for i, r := range records {
		keys[i] = r.key
	}
	old, err := s.provider.GetBatch(keys)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read previous records: %w", err)
	}

	next := current + 1
	head := CombineStateHash(prev, computeRecordsDeltaHash(records))
	hash := hex.EncodeToString(head[:])

	batch := s.provider.Batch()
	defer batch.Close()
	for _, r := range records {
		updateDigest(digest, r.key, old[string(r.key)], r.value)
		if r.value == nil {
			batch.Delete(r.key)
		} else {
			batch.Put(r.key, r.value)
		}
	}
	digestBytes := digest.Bytes32()
	batch.Put([]byte(StateKeyDigest), digestBytes[:])
	batch.Put([]byte(StateKeyRevision), encodeRevision(next))
	putStateHash(batch, next, hash)
	if err := batch.Write(); err != nil {
		return 0, "", fmt.Errorf("failed to write state revision %d: %w", next, err)
	}

	logx.Info("STORE", fmt.Sprintf("State saved | revision=%d | hash=%s | records=%d", next, stringutil.ShortenLog(hash), len(records)))
	return next, hash, nil
}

// Load reads every record back into a SystemState and verifies the state digest.
// It returns ErrNoState when nothing was saved.
func (s *StateStore) Load() (*types.SystemState, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revision, err := s.revision()
	if err != nil {
		return nil, 0, err
	}
	if revision == 0 {
		return nil, 0, ErrNoState
	}

	decoder := newStateDecoder()
	computed := new(uint256.Int)
	var decodeErr error
	err = s.provider.IteratePrefix([]byte(PrefixRecord), func(key, value []byte) bool {
		computed.Add(computed, recordDigest(key, value))
		decodeErr = decoder.add(key, value)
		return decodeErr == nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read state records: %w", err)
	}
	if decodeErr != nil {
		return nil, 0, decodeErr
	}

	stored, err := s.digest()
	if err != nil {
		return nil, 0, err
	}
	if !stored.Eq(computed) {
		return nil, 0, fmt.Errorf("state digest mismatch at revision %d: stored %s, computed %s",
			revision, stored.Hex(), computed.Hex())
	}
	state, err := decoder.finish()
	if err != nil {
		return nil, 0, err
	}
	return state, revision, nil
}

// Head returns the latest revision and its state hash; revision 0 has no hash
func (s *StateStore) Head() (uint64, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revision, err := s.revision()
	if err != nil || revision == 0 {
		return revision, "", err
	}
	hash, _, err := s.GetStateHash(revision)
	return revision, hash, err
}

// Revision returns the latest saved revision, 0 if nothing was saved
func (s *StateStore) Revision() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision()
}

func (s *StateStore) revision() (uint64, error) {
	value, err := s.provider.Get([]byte(StateKeyRevision))
	if err != nil {
		return 0, fmt.Errorf("failed to read state revision: %w", err)
	}
	return decodeRevision(value)
}

func (s *StateStore) digest() (*uint256.Int, error) {
	value, err := s.provider.Get([]byte(StateKeyDigest))
	if err != nil {
		return nil, fmt.Errorf("failed to read state digest: %w", err)
	}
	return new(uint256.Int).SetBytes(value), nil
}

func (s *StateStore) hashAt(revision uint64) ([32]byte, error) {
	var out [32]byte
	hash, ok, err := s.GetStateHash(revision)
	if err != nil {
		return out, err
	}
	if !ok {
		return out, fmt.Errorf("state hash of revision %d is missing", revision)
	}
	raw, err := hex.DecodeString(hash)
	if err != nil || len(raw) != len(out) {
		return out, fmt.Errorf("invalid state hash %q at revision %d", hash, revision)
	}
	copy(out[:], raw)
	return out, nil
}

func (s *StateStore) Close() error {
	return s.provider.Close()
}
