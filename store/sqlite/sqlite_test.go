package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/procure-engine/procure"
	"github.com/warp/procure-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func requisitionFixture(id string, at time.Time) *procure.Requisition {
	return &procure.Requisition{
		ID:         procure.RequisitionID(id),
		Department: "machining",
		Type:       procure.TypeDisposableTooling,
		ProjectJob: "J-1042",
		Status:     procure.StatusApprovedManager,
		Items: []procure.LineItem{
			{
				Manufacturer: "Kennametal",
				PartNumber:   "EM-0500-4FL",
				Description:  "1/2 in carbide endmill",
				Qty:          2,
				UnitCost:     decimal.RequireFromString("15.25"),
			},
		},
		Approvals: map[procure.ApproverSlot]procure.Approval{
			procure.SlotManager: {Identity: "mgr@shop", DisplayName: "Mona", At: at},
		},
		LinkedPOIDs: []procure.POID{},
		CreatedBy:   "buyer@shop",
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func poFixture(id string, at time.Time) *procure.PurchaseOrder {
	return &procure.PurchaseOrder{
		ID:           procure.POID(id),
		PONumber:     "PO-100",
		ProjectJob:   "J-1042",
		ShippingType: procure.ShippingStandard,
		ShippingCost: decimal.NewFromInt(5),
		Subtotal:     decimal.NewFromInt(30),
		Total:        decimal.NewFromInt(35),
		Status:       procure.POPending,
		CreatedBy:    "po@shop",
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestSQLite_RequisitionRoundTrip(t *testing.T) {
	// GIVEN: A requisition with approvals, items and decimal costs
	// WHEN: Inserting and reading it back
	// THEN: Every field survives the JSON payload intact

	st := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

	orig := requisitionFixture("r-1", at)
	require.NoError(t, st.InsertRequisition(ctx, orig))

	got, err := st.Requisition(ctx, "r-1")
	require.NoError(t, err)

	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.Status, got.Status)
	assert.Equal(t, orig.ProjectJob, got.ProjectJob)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitCost.Equal(decimal.RequireFromString("15.25")))
	assert.Equal(t, "mgr@shop", got.Approvals[procure.SlotManager].Identity)
	assert.True(t, got.CreatedAt.Equal(at))
}

func TestSQLite_NotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Requisition(ctx, "ghost")
	assert.ErrorIs(t, err, procure.ErrNotFound)
	_, err = st.PurchaseOrder(ctx, "ghost")
	assert.ErrorIs(t, err, procure.ErrNotFound)
}

func TestSQLite_ListNewestFirst(t *testing.T) {
	// GIVEN: Requisitions saved with distinct update times
	// WHEN: Listing
	// THEN: Ordered by updated_at descending

	st := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("old", base.Add(-2*time.Hour))))
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("new", base)))
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("mid", base.Add(-time.Hour))))

	all, err := st.Requisitions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.EqualValues(t, "new", all[0].ID)
	assert.EqualValues(t, "mid", all[1].ID)
	assert.EqualValues(t, "old", all[2].ID)
}

// =============================================================================
// TRANSACTIONAL UPDATE
// =============================================================================

func TestSQLite_UpdateVetoRollsBack(t *testing.T) {
	// GIVEN: A stored requisition
	// WHEN: The mutate callback mutates then errors
	// THEN: The veto error surfaces unchanged and the row is untouched

	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("r-1", time.Now().UTC())))

	_, err := st.UpdateRequisition(ctx, "r-1", func(r *procure.Requisition) error {
		r.Status = procure.StatusRejected
		return &procure.InvalidTransitionError{ID: r.ID, From: r.Status, Action: "reject"}
	})
	assert.ErrorIs(t, err, procure.ErrInvalidTransition)

	stored, err := st.Requisition(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedManager, stored.Status)
}

func TestSQLite_UpdateCommits(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("r-1", time.Now().UTC())))

	updated, err := st.UpdateRequisition(ctx, "r-1", func(r *procure.Requisition) error {
		r.Status = procure.StatusApprovedCFO
		r.UpdatedAt = time.Now().UTC()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedCFO, updated.Status)

	stored, err := st.Requisition(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedCFO, stored.Status)
}

// =============================================================================
// BATCH COMMIT
// =============================================================================

func TestSQLite_CommitBundle_AllOrNothing(t *testing.T) {
	// GIVEN: Two requisitions, the second of which vetoes the flip
	// WHEN: Committing the bundle
	// THEN: The transaction rolls back: no PO row, first requisition untouched

	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("r-1", now)))
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("r-2", now)))

	po := poFixture("po-1", now)
	err := st.CommitBundle(ctx, po, []procure.RequisitionID{"r-1", "r-2"},
		func(r *procure.Requisition) error {
			if r.ID == "r-2" {
				return &procure.InvalidSelectionError{
					Offending: map[procure.RequisitionID]procure.RequisitionStatus{r.ID: r.Status},
				}
			}
			r.Status = procure.StatusPOCreated
			return nil
		})
	assert.ErrorIs(t, err, procure.ErrInvalidSelection)

	_, err = st.PurchaseOrder(ctx, po.ID)
	assert.ErrorIs(t, err, procure.ErrNotFound)

	stored, err := st.Requisition(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedManager, stored.Status,
		"flip of r-1 must roll back with the batch")
}

func TestSQLite_CommitBundle_Commits(t *testing.T) {
	// GIVEN: Two approved requisitions
	// WHEN: The bundle commits
	// THEN: The PO row and both flips are durable and listable

	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("r-1", now)))
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("r-2", now)))

	po := poFixture("po-1", now)
	err := st.CommitBundle(ctx, po, []procure.RequisitionID{"r-1", "r-2"},
		func(r *procure.Requisition) error {
			r.Status = procure.StatusPOCreated
			r.LinkedPOIDs = append(r.LinkedPOIDs, po.ID)
			r.UpdatedAt = now
			return nil
		})
	require.NoError(t, err)

	stored, err := st.PurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "PO-100", stored.PONumber)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(35)))

	for _, id := range []procure.RequisitionID{"r-1", "r-2"} {
		r, err := st.Requisition(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, procure.StatusPOCreated, r.Status)
		assert.Equal(t, []procure.POID{po.ID}, r.LinkedPOIDs)
	}

	orders, err := st.PurchaseOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

// =============================================================================
// WATCH / RESET
// =============================================================================

func TestSQLite_WatchPublishesCommits(t *testing.T) {
	// GIVEN: A subscriber on the store's change feed
	// WHEN: An insert and an update commit
	// THEN: Both events arrive in order

	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := st.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("r-1", time.Now().UTC())))
	_, err = st.UpdateRequisition(ctx, "r-1", func(r *procure.Requisition) error {
		r.Status = procure.StatusApprovedCFO
		return nil
	})
	require.NoError(t, err)

	for i, want := range []procure.EventType{procure.EventInserted, procure.EventUpdated} {
		select {
		case e := <-ch:
			assert.Equal(t, want, e.Type, "event %d", i)
			require.NotNil(t, e.Requisition)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestSQLite_Reset(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, st.InsertRequisition(ctx, requisitionFixture("r-1", now)))
	require.NoError(t, st.CommitBundle(ctx, poFixture("po-1", now),
		[]procure.RequisitionID{"r-1"},
		func(r *procure.Requisition) error { return nil }))

	require.NoError(t, st.Reset(ctx))

	reqs, err := st.Requisitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)
	orders, err := st.PurchaseOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
