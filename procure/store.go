/*
store.go - Persistence interface for requisitions and purchase orders

PURPOSE:
  Defines the interface between the engine and the document store. The store
  is treated as a capability: one queryable collection per entity, keyed by
  opaque ids, with three guarantees the workflow depends on:

  1. TRANSACTIONAL UPDATE: UpdateRequisition applies a mutate function to the
     freshest stored document. Two concurrent approvals serialize; a status
     check inside mutate sees the value that will actually be overwritten,
     never a stale read. This is what keeps a rejected or already-bundled
     requisition from being resurrected by a racing approver.

  2. ATOMIC BATCH: CommitBundle inserts a purchase order and flips every
     source requisition in a single all-or-nothing commit. Partial
     application (a PO without its requisitions flipped, or vice versa) is a
     correctness violation, so sequential independent writes are not an
     acceptable implementation.

  3. CHANGE SUBSCRIPTION: Watch delivers insert/update events so the
     presentation layer re-renders from pushed snapshots instead of polling.

IMPLEMENTATIONS:
  - procure/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go:  SQLite, documents as JSON payloads
  - store/mongo/mongo.go:    MongoDB, session transactions + change streams

ERROR CONTRACT:
  Stores return *NotFoundError for missing ids and *StoreError for
  infrastructure failures. Errors returned by a mutate function pass through
  unchanged and abort the write (and, for CommitBundle, the whole batch).

SEE ALSO:
  - ledger.go: Sole caller of requisition mutation
  - bundler.go: Sole caller of CommitBundle
*/
package procure

import "context"

// =============================================================================
// STORE - Document persistence capability
// =============================================================================

// Store persists requisitions and purchase orders.
type Store interface {
	// InsertRequisition persists a new requisition document.
	InsertRequisition(ctx context.Context, r *Requisition) error

	// Requisition returns the document by id, or *NotFoundError.
	Requisition(ctx context.Context, id RequisitionID) (*Requisition, error)

	// Requisitions returns all requisitions ordered by UpdatedAt descending.
	Requisitions(ctx context.Context) ([]*Requisition, error)

	// UpdateRequisition applies mutate to the freshest stored document and
	// persists the result, as one transactional read-modify-write. If mutate
	// returns an error, nothing is written and the error is returned as-is.
	UpdateRequisition(ctx context.Context, id RequisitionID, mutate func(*Requisition) error) (*Requisition, error)

	// PurchaseOrder returns the document by id, or *NotFoundError.
	PurchaseOrder(ctx context.Context, id POID) (*PurchaseOrder, error)

	// PurchaseOrders returns all purchase orders ordered by UpdatedAt
	// descending.
	PurchaseOrders(ctx context.Context) ([]*PurchaseOrder, error)

	// CommitBundle atomically inserts po and applies mutate to every listed
	// requisition. Either every write applies or none does: any error from
	// mutate, a missing id, or the underlying commit aborts the whole batch
	// with no applied side effects.
	CommitBundle(ctx context.Context, po *PurchaseOrder, ids []RequisitionID, mutate func(*Requisition) error) error

	// Watch returns a stream of insert/update events for both collections.
	// The channel is closed when ctx is done. Slow consumers may miss
	// events; they are expected to re-list on reconnect.
	Watch(ctx context.Context) (<-chan Event, error)
}

// Resetter is an optional store capability used by demo scenario loading.
type Resetter interface {
	// Reset removes all documents from both collections.
	Reset(ctx context.Context) error
}

// =============================================================================
// EVENTS - Change-subscription payload
// =============================================================================

type EventType string

const (
	EventInserted EventType = "inserted"
	EventUpdated  EventType = "updated"
)

// Event is one change-feed entry. Exactly one of Requisition and
// PurchaseOrder is set.
type Event struct {
	Type          EventType      `json:"type"`
	Requisition   *Requisition   `json:"requisition,omitempty"`
	PurchaseOrder *PurchaseOrder `json:"purchase_order,omitempty"`
}
