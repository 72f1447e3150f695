// Package inventory implements the reservable-item store behind the
// booking workflow. Every implementation provides the same atomic
// primitive: TryReserve flips one item AVAILABLE -> RENTED, and at most
// one concurrent caller wins that flip.
package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	contractx "github.com/metroequip/rentflow/rental/contract"
)

// MemoryStore holds inventory in process memory with per-item locking,
// so reservations on different items never contend with each other.
type MemoryStore struct {
	mu      sync.RWMutex // guards the map layout, not item state
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu   sync.Mutex
	item contractx.Item
}

func NewMemoryStore(items []contractx.Item) *MemoryStore {
	entries := make(map[string]*memoryEntry, len(items))
	for _, item := range items {
		entries[item.ID] = &memoryEntry{item: item}
	}
	return &MemoryStore{entries: entries}
}

func (m *MemoryStore) ListAvailable(_ context.Context, query string) ([]contractx.Item, error) {
	m.mu.RLock()
	snapshot := make([]contractx.Item, 0, len(m.entries))
	for _, e := range m.entries {
		e.mu.Lock()
		snapshot = append(snapshot, e.item)
		e.mu.Unlock()
	}
	m.mu.RUnlock()

	return rankAvailable(snapshot, query), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (contractx.Item, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return contractx.Item{}, fmt.Errorf("%w: id=%s", contractx.ErrNotFound, id)
	}

	e.mu.Lock()
	item := e.item
	e.mu.Unlock()
	return item, nil
}

// TryReserve performs the conditional AVAILABLE -> RENTED transition
// under the item's own lock. The status check and the write cannot
// interleave with another caller's on the same id.
func (m *MemoryStore) TryReserve(_ context.Context, id string) (contractx.Reservation, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return contractx.Reservation{}, fmt.Errorf("%w: id=%s", contractx.ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.item.Status != contractx.StatusAvailable {
		return contractx.Reservation{CurrentStatus: e.item.Status}, nil
	}
	e.item.Status = contractx.StatusRented
	return contractx.Reservation{
		Committed: true,
		Ref:       newBookingRef(id),
	}, nil
}

func newBookingRef(itemID string) string {
	return fmt.Sprintf("BK-%s-%s", itemID, uuid.NewString()[:8])
}
