package checkpoint

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
)

// Checkpoint is the value a key held at the end of one snapshot epoch.
// Epoch e spans from the moment snapshot id e was issued until id e+1 is issued,
// so a mutation stamped with the current id e becomes visible to snapshot e+1 onwards.
type Checkpoint struct {
	SnapshotID uint64
	Value      *uint256.Int
}

// History is the ordered checkpoint log of a single key. Entries are strictly
// increasing in SnapshotID; lookups binary search, appends are amortized O(1).
type History struct {
	entries []Checkpoint
}

// Record stores value as the latest value of the epoch currentID. Mutations within
// one epoch coalesce into a single entry.
func (h *History) Record(currentID uint64, value *uint256.Int) {
	v := new(uint256.Int).Set(value)
	n := len(h.entries)
	if n > 0 {
		last := &h.entries[n-1]
		if last.SnapshotID == currentID {
			last.Value = v
			return
		}
		if last.SnapshotID > currentID {
			panic(fmt.Sprintf("checkpoint: snapshot id went backwards (last %d, got %d)", last.SnapshotID, currentID))
		}
	}
	h.entries = append(h.entries, Checkpoint{SnapshotID: currentID, Value: v})
}

// ValueAt returns the value frozen by snapshot id: the entry of the greatest epoch
// strictly before id. A key with no activity before the snapshot yields zero.
func (h *History) ValueAt(id uint64) *uint256.Int {
	idx := sort.Search(len(h.entries), func(i int) bool {
		return h.entries[i].SnapshotID >= id
	})
	if idx == 0 {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(h.entries[idx-1].Value)
}

// Latest returns the live value, zero if nothing was ever recorded
func (h *History) Latest() *uint256.Int {
	if len(h.entries) == 0 {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(h.entries[len(h.entries)-1].Value)
}

func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the log, oldest first
func (h *History) Entries() []Checkpoint {
	out := make([]Checkpoint, len(h.entries))
	for i, e := range h.entries {
		out[i] = Checkpoint{SnapshotID: e.SnapshotID, Value: new(uint256.Int).Set(e.Value)}
	}
	return out
}

// EntriesFrom returns a copy of the entries of epoch id and later, the tail a
// flush has to write after mutations stamped with id
func (h *History) EntriesFrom(id uint64) []Checkpoint {
	idx := sort.Search(len(h.entries), func(i int) bool {
		return h.entries[i].SnapshotID >= id
	})
	out := make([]Checkpoint, 0, len(h.entries)-idx)
	for _, e := range h.entries[idx:] {
		out = append(out, Checkpoint{SnapshotID: e.SnapshotID, Value: new(uint256.Int).Set(e.Value)})
	}
	return out
}

// NewHistory rebuilds a log from persisted entries, rejecting unordered input
func NewHistory(entries []Checkpoint) (*History, error) {
	h := &History{entries: make([]Checkpoint, 0, len(entries))}
	for i, e := range entries {
		if i > 0 && e.SnapshotID <= entries[i-1].SnapshotID {
			return nil, fmt.Errorf("checkpoint entries not strictly increasing at index %d (%d after %d)", i, e.SnapshotID, entries[i-1].SnapshotID)
		}
		if e.Value == nil {
			return nil, fmt.Errorf("checkpoint entry %d has no value", i)
		}
		h.entries = append(h.entries, Checkpoint{SnapshotID: e.SnapshotID, Value: new(uint256.Int).Set(e.Value)})
	}
	return h, nil
}
