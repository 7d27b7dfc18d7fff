/*
Package sqlite provides a SQLite-backed implementation of procure.Store.

PURPOSE:
  Persists requisitions and purchase orders as JSON documents, one table per
  collection, with the columns the engine queries on (status, updated_at)
  lifted out beside the payload. The same pattern applies to PostgreSQL with
  a jsonb column - only minor dialect differences.

ATOMICITY:
  - UpdateRequisition runs SELECT + mutate + UPDATE inside one transaction,
    so concurrent approvals serialize and every transition check sees the
    row it is about to overwrite.
  - CommitBundle performs the PO insert and every requisition flip in one
    transaction. Any error rolls the whole batch back; the engine's
    all-or-nothing guarantee maps directly onto the database transaction.

CHANGE FEED:
  SQLite has no native change stream, so Watch is served by an in-process
  fan-out published after each successful commit. Sufficient for the
  single-process deployment this store targets.

WAL MODE:
  Opened with WAL so readers don't block the single writer.

USAGE:
  st, err := sqlite.New("./toolcrib.db")   // ":memory:" for tests
  defer st.Close()

SEE ALSO:
  - procure/store.go: Interface and error contract
  - procure/store/memory.go: In-memory implementation
  - store/mongo: Document store with native transactions/streams
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/procure-engine/procure"
)

// Store implements procure.Store using SQLite.
type Store struct {
	db   *sql.DB
	feed *procure.Feed
}

// New opens (and migrates) a SQLite store at the given path. Use ":memory:"
// for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, feed: procure.NewFeed()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS requisitions (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		project_job TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requisitions_status
		ON requisitions(status);
	CREATE INDEX IF NOT EXISTS idx_requisitions_updated_at
		ON requisitions(updated_at DESC);

	CREATE TABLE IF NOT EXISTS purchase_orders (
		id TEXT PRIMARY KEY,
		po_number TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_purchase_orders_updated_at
		ON purchase_orders(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REQUISITIONS
// =============================================================================

func (s *Store) InsertRequisition(ctx context.Context, r *procure.Requisition) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return &procure.StoreError{Op: "insert requisition", Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO requisitions (id, status, project_job, updated_at, payload) VALUES (?, ?, ?, ?, ?)`,
		string(r.ID), string(r.Status), r.ProjectJob, r.UpdatedAt.UTC().Format(timeLayout), string(payload),
	)
	if err != nil {
		return &procure.StoreError{Op: "insert requisition", Err: err}
	}

	s.feed.Publish(procure.Event{Type: procure.EventInserted, Requisition: r.Clone()})
	return nil
}

func (s *Store) Requisition(ctx context.Context, id procure.RequisitionID) (*procure.Requisition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM requisitions WHERE id = ?`, string(id))
	return scanRequisition(row, id)
}

func (s *Store) Requisitions(ctx context.Context) ([]*procure.Requisition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM requisitions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, &procure.StoreError{Op: "list requisitions", Err: err}
	}
	defer rows.Close()

	var out []*procure.Requisition
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, &procure.StoreError{Op: "list requisitions", Err: err}
		}
		var r procure.Requisition
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, &procure.StoreError{Op: "list requisitions", Err: err}
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, &procure.StoreError{Op: "list requisitions", Err: err}
	}
	return out, nil
}

func (s *Store) UpdateRequisition(ctx context.Context, id procure.RequisitionID, mutate func(*procure.Requisition) error) (*procure.Requisition, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &procure.StoreError{Op: "update requisition", Err: err}
	}
	defer tx.Rollback()

	r, err := loadRequisitionTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(r); err != nil {
		// Mutate vetoes (e.g. InvalidTransitionError) pass through unchanged.
		return nil, err
	}
	if err := writeRequisitionTx(ctx, tx, r); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &procure.StoreError{Op: "update requisition", Err: err}
	}

	s.feed.Publish(procure.Event{Type: procure.EventUpdated, Requisition: r.Clone()})
	return r, nil
}

// =============================================================================
// PURCHASE ORDERS
// =============================================================================

func (s *Store) PurchaseOrder(ctx context.Context, id procure.POID) (*procure.PurchaseOrder, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM purchase_orders WHERE id = ?`, string(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &procure.NotFoundError{Kind: "purchase order", ID: string(id)}
	}
	if err != nil {
		return nil, &procure.StoreError{Op: "get purchase order", Err: err}
	}

	var po procure.PurchaseOrder
	if err := json.Unmarshal([]byte(payload), &po); err != nil {
		return nil, &procure.StoreError{Op: "get purchase order", Err: err}
	}
	return &po, nil
}

func (s *Store) PurchaseOrders(ctx context.Context) ([]*procure.PurchaseOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM purchase_orders ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, &procure.StoreError{Op: "list purchase orders", Err: err}
	}
	defer rows.Close()

	var out []*procure.PurchaseOrder
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, &procure.StoreError{Op: "list purchase orders", Err: err}
		}
		var po procure.PurchaseOrder
		if err := json.Unmarshal([]byte(payload), &po); err != nil {
			return nil, &procure.StoreError{Op: "list purchase orders", Err: err}
		}
		out = append(out, &po)
	}
	if err := rows.Err(); err != nil {
		return nil, &procure.StoreError{Op: "list purchase orders", Err: err}
	}
	return out, nil
}

// CommitBundle inserts the PO and flips every listed requisition inside one
// database transaction. Any failure rolls everything back.
func (s *Store) CommitBundle(ctx context.Context, po *procure.PurchaseOrder, ids []procure.RequisitionID, mutate func(*procure.Requisition) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &procure.StoreError{Op: "commit bundle", Err: err}
	}
	defer tx.Rollback()

	flipped := make([]*procure.Requisition, 0, len(ids))
	for _, id := range ids {
		r, err := loadRequisitionTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(r); err != nil {
			return err
		}
		if err := writeRequisitionTx(ctx, tx, r); err != nil {
			return err
		}
		flipped = append(flipped, r)
	}

	payload, err := json.Marshal(po)
	if err != nil {
		return &procure.StoreError{Op: "commit bundle", Err: err}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO purchase_orders (id, po_number, updated_at, payload) VALUES (?, ?, ?, ?)`,
		string(po.ID), po.PONumber, po.UpdatedAt.UTC().Format(timeLayout), string(payload),
	)
	if err != nil {
		return &procure.StoreError{Op: "commit bundle", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &procure.StoreError{Op: "commit bundle", Err: err}
	}

	s.feed.Publish(procure.Event{Type: procure.EventInserted, PurchaseOrder: po.Clone()})
	for _, r := range flipped {
		s.feed.Publish(procure.Event{Type: procure.EventUpdated, Requisition: r.Clone()})
	}
	return nil
}

// =============================================================================
// CHANGE FEED / RESET
// =============================================================================

func (s *Store) Watch(ctx context.Context) (<-chan procure.Event, error) {
	return s.feed.Subscribe(ctx), nil
}

// Reset clears both collections (demo scenario support).
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM requisitions`); err != nil {
		return &procure.StoreError{Op: "reset", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM purchase_orders`); err != nil {
		return &procure.StoreError{Op: "reset", Err: err}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func scanRequisition(row *sql.Row, id procure.RequisitionID) (*procure.Requisition, error) {
	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &procure.NotFoundError{Kind: "requisition", ID: string(id)}
	}
	if err != nil {
		return nil, &procure.StoreError{Op: "get requisition", Err: err}
	}

	var r procure.Requisition
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, &procure.StoreError{Op: "get requisition", Err: err}
	}
	return &r, nil
}

func loadRequisitionTx(ctx context.Context, tx *sql.Tx, id procure.RequisitionID) (*procure.Requisition, error) {
	var payload string
	err := tx.QueryRowContext(ctx,
		`SELECT payload FROM requisitions WHERE id = ?`, string(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &procure.NotFoundError{Kind: "requisition", ID: string(id)}
	}
	if err != nil {
		return nil, &procure.StoreError{Op: "get requisition", Err: err}
	}

	var r procure.Requisition
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, &procure.StoreError{Op: "get requisition", Err: err}
	}
	return &r, nil
}

func writeRequisitionTx(ctx context.Context, tx *sql.Tx, r *procure.Requisition) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return &procure.StoreError{Op: "write requisition", Err: err}
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE requisitions SET status = ?, project_job = ?, updated_at = ?, payload = ? WHERE id = ?`,
		string(r.Status), r.ProjectJob, r.UpdatedAt.UTC().Format(timeLayout), string(payload), string(r.ID),
	)
	if err != nil {
		return &procure.StoreError{Op: "write requisition", Err: err}
	}
	return nil
}
