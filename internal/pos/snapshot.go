package pos

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/pkg/enums"
)

// PartitionSnapshot is the serialized state of one sale context.
type PartitionSnapshot struct {
	Tabs        []Tab     `json:"tabs"`
	ActiveTabID uuid.UUID `json:"active_tab_id"`
}

// Snapshot is a deep copy of the whole store, suitable for
// persistence and restore.
type Snapshot struct {
	Partitions    map[string]PartitionSnapshot `json:"partitions"`
	LastUpdatedAt time.Time                    `json:"last_updated_at"`
}

func (s *Store) snapshotLocked() Snapshot {
	out := Snapshot{
		Partitions:    make(map[string]PartitionSnapshot, len(s.partitions)),
		LastUpdatedAt: time.Now().UTC(),
	}
	for sc, p := range s.partitions {
		ps := PartitionSnapshot{
			Tabs:        make([]Tab, 0, len(p.tabs)),
			ActiveTabID: p.activeID,
		}
		for _, t := range p.tabs {
			ps.Tabs = append(ps.Tabs, *t.clone())
		}
		out.Partitions[sc.String()] = ps
	}
	return out
}

// Snapshot returns a deep copy of the current store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// EncodeSnapshot serializes a snapshot for storage.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// DecodeSnapshot parses a stored payload. Partitions are decoded
// independently so a corrupt context costs only that context: the
// other side restores intact and the bad one starts fresh.
func DecodeSnapshot(payload []byte) (Snapshot, error) {
	var envelope struct {
		Partitions    map[string]json.RawMessage `json:"partitions"`
		LastUpdatedAt time.Time                  `json:"last_updated_at"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Snapshot{}, err
	}
	out := Snapshot{
		Partitions:    make(map[string]PartitionSnapshot, len(envelope.Partitions)),
		LastUpdatedAt: envelope.LastUpdatedAt,
	}
	for name, raw := range envelope.Partitions {
		var ps PartitionSnapshot
		if err := json.Unmarshal(raw, &ps); err != nil {
			continue
		}
		out.Partitions[name] = ps
	}
	return out, nil
}

// RestoreStore rebuilds a store from a snapshot, repairing structural
// damage instead of failing: a context with no tabs gets one fresh
// tab, an active pointer that names no surviving tab falls back to the
// first tab, and non-positive unit multipliers are reset to one. Both
// sale contexts always exist afterwards.
func RestoreStore(snap Snapshot, onFlush FlushFunc) *Store {
	s := &Store{
		partitions: make(map[enums.SaleContext]*partition, len(saleContexts)),
		onFlush:    onFlush,
	}
	for _, sc := range saleContexts {
		ps, ok := snap.Partitions[sc.String()]
		if !ok || len(ps.Tabs) == 0 {
			s.partitions[sc] = newPartition()
			continue
		}
		p := &partition{tabs: make([]*Tab, 0, len(ps.Tabs))}
		for i := range ps.Tabs {
			tab := ps.Tabs[i].clone()
			for li := range tab.Cart {
				// Hand-edited or legacy rows can carry a zero
				// multiplier, which would divide by zero at submission.
				if tab.Cart[li].QtyMultiplier.LessThanOrEqual(decimal.Zero) {
					tab.Cart[li].QtyMultiplier = decimal.NewFromInt(1)
				}
			}
			p.tabs = append(p.tabs, tab)
		}
		p.activeID = ps.ActiveTabID
		if p.indexOf(p.activeID) < 0 {
			p.activeID = p.tabs[0].ID
		}
		s.partitions[sc] = p
	}
	return s
}
