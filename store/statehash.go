package store

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/holiman/uint256"
)

// computeRecordsDeltaHash computes a deterministic hash over the records of one revision.
// Each record is encoded as: len(key)|key|present(1B)|len(value)|value
// Records are sorted by key by the caller (deltaRecords already does).
func computeRecordsDeltaHash(records []record) [32]byte {
	if len(records) == 0 {
		return [32]byte{}
	}
	h := sha256.New()
	buf := make([]byte, 8)
	for _, r := range records {
		binary.BigEndian.PutUint64(buf, uint64(len(r.key)))
		h.Write(buf)
		h.Write(r.key)
		if r.value == nil {
			h.Write([]byte{0})
			continue
		}
		h.Write([]byte{1})
		binary.BigEndian.PutUint64(buf, uint64(len(r.value)))
		h.Write(buf)
		h.Write(r.value)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// CombineStateHash combines the previous revision hash and a delta hash.
// new = SHA256(prev || delta). If prev is zero, returns delta.
func CombineStateHash(prev [32]byte, delta [32]byte) [32]byte {
	if isZeroHash(prev) {
		return delta
	}
	h := sha256.New()
	h.Write(prev[:])
	h.Write(delta[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func isZeroHash(h [32]byte) bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}
	return true
}

// recordDigest is SHA256(len(key)|key|value) read as a 256-bit integer
func recordDigest(key, value []byte) *uint256.Int {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(len(key)))
	h.Write(buf)
	h.Write(key)
	h.Write(value)
	return new(uint256.Int).SetBytes(h.Sum(nil))
}

// The state digest is the sum modulo 2^256 of recordDigest over every live record.
// The sum does not depend on order, so a revision updates it from the records it
// writes alone, and a load recomputes it from a full scan.

// updateDigest replaces the contribution of key's old value with its new one.
// A nil value stands for an absent key.
func updateDigest(digest *uint256.Int, key, oldValue, newValue []byte) {
	if oldValue != nil {
		digest.Sub(digest, recordDigest(key, oldValue))
	}
	if newValue != nil {
		digest.Add(digest, recordDigest(key, newValue))
	}
}
