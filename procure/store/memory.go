// Package store provides the in-memory Store implementation (tests/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/procure-engine/procure"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	requisitions map[procure.RequisitionID]*procure.Requisition
	orders       map[procure.POID]*procure.PurchaseOrder
	feed         *procure.Feed
}

func NewMemory() *Memory {
	return &Memory{
		requisitions: make(map[procure.RequisitionID]*procure.Requisition),
		orders:       make(map[procure.POID]*procure.PurchaseOrder),
		feed:         procure.NewFeed(),
	}
}

func (m *Memory) InsertRequisition(_ context.Context, r *procure.Requisition) error {
	m.mu.Lock()
	m.requisitions[r.ID] = r.Clone()
	m.mu.Unlock()

	m.feed.Publish(procure.Event{Type: procure.EventInserted, Requisition: r.Clone()})
	return nil
}

func (m *Memory) Requisition(_ context.Context, id procure.RequisitionID) (*procure.Requisition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requisitions[id]
	if !ok {
		return nil, &procure.NotFoundError{Kind: "requisition", ID: string(id)}
	}
	return r.Clone(), nil
}

func (m *Memory) Requisitions(_ context.Context) ([]*procure.Requisition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*procure.Requisition, 0, len(m.requisitions))
	for _, r := range m.requisitions {
		out = append(out, r.Clone())
	}
	sortNewestFirst(out, func(r *procure.Requisition) int64 { return r.UpdatedAt.UnixNano() })
	return out, nil
}

// UpdateRequisition mutates a clone under the write lock; the stored document
// is only replaced if mutate succeeds, so a veto leaves state untouched.
func (m *Memory) UpdateRequisition(_ context.Context, id procure.RequisitionID, mutate func(*procure.Requisition) error) (*procure.Requisition, error) {
	m.mu.Lock()
	r, ok := m.requisitions[id]
	if !ok {
		m.mu.Unlock()
		return nil, &procure.NotFoundError{Kind: "requisition", ID: string(id)}
	}

	next := r.Clone()
	if err := mutate(next); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.requisitions[id] = next
	m.mu.Unlock()

	m.feed.Publish(procure.Event{Type: procure.EventUpdated, Requisition: next.Clone()})
	return next.Clone(), nil
}

func (m *Memory) PurchaseOrder(_ context.Context, id procure.POID) (*procure.PurchaseOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	po, ok := m.orders[id]
	if !ok {
		return nil, &procure.NotFoundError{Kind: "purchase order", ID: string(id)}
	}
	return po.Clone(), nil
}

func (m *Memory) PurchaseOrders(_ context.Context) ([]*procure.PurchaseOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*procure.PurchaseOrder, 0, len(m.orders))
	for _, po := range m.orders {
		out = append(out, po.Clone())
	}
	sortNewestFirst(out, func(po *procure.PurchaseOrder) int64 { return po.UpdatedAt.UnixNano() })
	return out, nil
}

// CommitBundle stages every mutation on clones first and only swaps them in
// once all succeed, giving all-or-nothing semantics under the single lock.
func (m *Memory) CommitBundle(_ context.Context, po *procure.PurchaseOrder, ids []procure.RequisitionID, mutate func(*procure.Requisition) error) error {
	m.mu.Lock()

	staged := make(map[procure.RequisitionID]*procure.Requisition, len(ids))
	for _, id := range ids {
		r, ok := m.requisitions[id]
		if !ok {
			m.mu.Unlock()
			return &procure.NotFoundError{Kind: "requisition", ID: string(id)}
		}
		next := r.Clone()
		if err := mutate(next); err != nil {
			m.mu.Unlock()
			return err
		}
		staged[id] = next
	}

	m.orders[po.ID] = po.Clone()
	for id, next := range staged {
		m.requisitions[id] = next
	}
	m.mu.Unlock()

	m.feed.Publish(procure.Event{Type: procure.EventInserted, PurchaseOrder: po.Clone()})
	for _, id := range ids {
		m.feed.Publish(procure.Event{Type: procure.EventUpdated, Requisition: staged[id].Clone()})
	}
	return nil
}

func (m *Memory) Watch(ctx context.Context) (<-chan procure.Event, error) {
	return m.feed.Subscribe(ctx), nil
}

// Reset clears both collections (demo scenario support).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	m.requisitions = make(map[procure.RequisitionID]*procure.Requisition)
	m.orders = make(map[procure.POID]*procure.PurchaseOrder)
	m.mu.Unlock()
	return nil
}

func sortNewestFirst[T any](items []T, at func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		return at(items[i]) > at(items[j])
	})
}
