package store

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/mezonai/snapledger/db"
)

// StateMetaStore indexes the ledger state hash of every saved revision.
// Keys:
// - PrefixStateHash + <8-byte big-endian revision> => hex state hash
type StateMetaStore interface {
	GetStateHash(revision uint64) (string, bool, error)
	StateHashes() ([]RevisionHash, error)
}

type RevisionHash struct {
	Revision uint64
	Hash     string
}

type GenericStateMetaStore struct {
	provider db.IterableProvider
}

func NewGenericStateMetaStore(provider db.IterableProvider) *GenericStateMetaStore {
	return &GenericStateMetaStore{provider: provider}
}

func revisionToStateHashKey(revision uint64) []byte {
	key := make([]byte, len(PrefixStateHash)+8)
	copy(key, PrefixStateHash)
	binary.BigEndian.PutUint64(key[len(PrefixStateHash):], revision)
	return key
}

// putStateHash queues the hash of revision into batch
func putStateHash(batch db.DatabaseBatch, revision uint64, hash string) {
	batch.Put(revisionToStateHashKey(revision), []byte(hash))
}

func (s *GenericStateMetaStore) GetStateHash(revision uint64) (string, bool, error) {
	value, err := s.provider.Get(revisionToStateHashKey(revision))
	if err != nil {
		return "", false, fmt.Errorf("failed to get state hash for revision %d: %w", revision, err)
	}
	if len(value) == 0 {
		return "", false, nil
	}
	return string(value), true, nil
}

// StateHashes lists every recorded revision hash in revision order
func (s *GenericStateMetaStore) StateHashes() ([]RevisionHash, error) {
	var out []RevisionHash
	var decodeErr error
	err := s.provider.IteratePrefix([]byte(PrefixStateHash), func(key, value []byte) bool {
		if len(key) != len(PrefixStateHash)+8 {
			decodeErr = fmt.Errorf("invalid state hash key length: %d", len(key))
			return false
		}
		out = append(out, RevisionHash{
			Revision: binary.BigEndian.Uint64(key[len(PrefixStateHash):]),
			Hash:     string(value),
		})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate state hashes: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

func encodeRevision(revision uint64) []byte {
	return []byte(strconv.FormatUint(revision, 10))
}

func decodeRevision(value []byte) (uint64, error) {
	if len(value) == 0 {
		return 0, nil
	}
	revision, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid state revision %q: %w", value, err)
	}
	return revision, nil
}
