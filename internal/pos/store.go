package pos

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

// FlushFunc receives a deep-copied snapshot after every mutation. The
// store invokes it synchronously in mutation order; implementations
// that persist should hand the snapshot to a queue and return.
type FlushFunc func(Snapshot)

// partition holds the tabs of one sale context. Contexts never share
// tabs or an active pointer.
type partition struct {
	tabs     []*Tab
	activeID uuid.UUID
}

func (p *partition) activeTab() *Tab {
	for _, t := range p.tabs {
		if t.ID == p.activeID {
			return t
		}
	}
	return nil
}

func (p *partition) indexOf(id uuid.UUID) int {
	for i, t := range p.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// nextTabName numbers tabs from the count of live tabs, so names may
// repeat after deletions. Display only, never an identity.
func (p *partition) nextTabName() string {
	return fmt.Sprintf("Order #%d", len(p.tabs)+1)
}

func newPartition() *partition {
	t := freshTab("Order #1")
	return &partition{tabs: []*Tab{t}, activeID: t.ID}
}

func freshTab(name string) *Tab {
	return &Tab{
		ID:        uuid.New(),
		Name:      name,
		Details:   CheckoutDetails{GlobalDiscount: decimal.Zero},
		CreatedAt: time.Now().UTC(),
	}
}

// Store owns every in-progress order composition, partitioned by sale
// context. All reads hand out deep copies; all mutations run under one
// mutex and replace the affected tab wholesale before notifying the
// flush listener.
type Store struct {
	mu         sync.Mutex
	partitions map[enums.SaleContext]*partition
	onFlush    FlushFunc
}

// NewStore builds a store with one empty tab per sale context. A nil
// flush listener disables persistence notifications.
func NewStore(onFlush FlushFunc) *Store {
	s := &Store{
		partitions: map[enums.SaleContext]*partition{
			enums.SaleContextRetail:   newPartition(),
			enums.SaleContextPurchase: newPartition(),
		},
		onFlush: onFlush,
	}
	return s
}

// flushLocked builds and emits a snapshot. Callers hold s.mu, which is
// what keeps snapshot order identical to mutation order.
func (s *Store) flushLocked() {
	if s.onFlush == nil {
		return
	}
	s.onFlush(s.snapshotLocked())
}

func (s *Store) part(sc enums.SaleContext) (*partition, error) {
	p, ok := s.partitions[sc]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown sale context %q", sc))
	}
	return p, nil
}

// ActiveTab returns a deep copy of the context's active tab.
func (s *Store) ActiveTab(sc enums.SaleContext) (*Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.part(sc)
	if err != nil {
		return nil, err
	}
	return p.activeTab().clone(), nil
}

// Tabs returns deep copies of every tab in the context, in creation
// order, plus the active tab id.
func (s *Store) Tabs(sc enums.SaleContext) ([]*Tab, uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.part(sc)
	if err != nil {
		return nil, uuid.Nil, err
	}
	out := make([]*Tab, 0, len(p.tabs))
	for _, t := range p.tabs {
		out = append(out, t.clone())
	}
	return out, p.activeID, nil
}

// CreateTab opens a new empty tab in the context and makes it active.
func (s *Store) CreateTab(sc enums.SaleContext) (*Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.part(sc)
	if err != nil {
		return nil, err
	}
	t := freshTab(p.nextTabName())
	p.tabs = append(p.tabs, t)
	p.activeID = t.ID
	s.flushLocked()
	return t.clone(), nil
}

// SwitchTab changes the context's active tab.
func (s *Store) SwitchTab(sc enums.SaleContext, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.part(sc)
	if err != nil {
		return err
	}
	if p.indexOf(id) < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tab not found")
	}
	p.activeID = id
	s.flushLocked()
	return nil
}

// DeleteTab removes a tab. Deleting the last tab of a context is
// refused so the context always has a composition surface. Deleting
// the active tab activates the first remaining tab.
func (s *Store) DeleteTab(sc enums.SaleContext, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.part(sc)
	if err != nil {
		return err
	}
	idx := p.indexOf(id)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tab not found")
	}
	if len(p.tabs) == 1 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete the last tab")
	}
	p.tabs = append(p.tabs[:idx], p.tabs[idx+1:]...)
	if p.activeID == id {
		p.activeID = p.tabs[0].ID
	}
	s.flushLocked()
	return nil
}

// ClearActiveTab resets the active tab to an empty composition while
// keeping its identity and the rest of the partition untouched.
func (s *Store) ClearActiveTab(sc enums.SaleContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.part(sc)
	if err != nil {
		return err
	}
	idx := p.indexOf(p.activeID)
	p.tabs[idx] = p.tabs[idx].cleared()
	s.flushLocked()
	return nil
}

// mutateActive runs fn against a deep copy of the active tab and, when
// fn reports a change, swaps the copy in wholesale and flushes.
func (s *Store) mutateActive(sc enums.SaleContext, fn func(t *Tab) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.part(sc)
	if err != nil {
		return err
	}
	idx := p.indexOf(p.activeID)
	next := p.tabs[idx].clone()
	changed, err := fn(next)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	p.tabs[idx] = next
	s.flushLocked()
	return nil
}

// activeRef exposes the live active tab pointer for same-package tests
// that assert identity preservation.
func (s *Store) activeRef(sc enums.SaleContext) *Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partitions[sc].activeTab()
}
