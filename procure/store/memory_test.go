package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/procure-engine/procure"
	"github.com/warp/procure-engine/procure/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newRequisition(id string, at time.Time) *procure.Requisition {
	return &procure.Requisition{
		ID:         procure.RequisitionID(id),
		ProjectJob: "J-1",
		Status:     procure.StatusApprovedManager,
		Items: []procure.LineItem{
			{Description: "endmill", Qty: 2, UnitCost: decimal.NewFromInt(15)},
		},
		Approvals:   map[procure.ApproverSlot]procure.Approval{},
		LinkedPOIDs: []procure.POID{},
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func newPO(id string) *procure.PurchaseOrder {
	return &procure.PurchaseOrder{
		ID:       procure.POID(id),
		PONumber: "PO-" + id,
		Status:   procure.POPending,
	}
}

// =============================================================================
// READ / WRITE
// =============================================================================

func TestMemory_RoundTripAndIsolation(t *testing.T) {
	// GIVEN: An inserted requisition
	// WHEN: Reading it and mutating the returned copy
	// THEN: The stored document is unaffected (reads are clones)

	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("r-1", time.Now())))

	got, err := mem.Requisition(ctx, "r-1")
	require.NoError(t, err)
	got.Status = procure.StatusRejected
	got.Items[0].Qty = 99

	again, err := mem.Requisition(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedManager, again.Status)
	assert.EqualValues(t, 2, again.Items[0].Qty)
}

func TestMemory_UnknownIDs(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.Requisition(ctx, "ghost")
	assert.ErrorIs(t, err, procure.ErrNotFound)
	_, err = mem.PurchaseOrder(ctx, "ghost")
	assert.ErrorIs(t, err, procure.ErrNotFound)
	_, err = mem.UpdateRequisition(ctx, "ghost", func(*procure.Requisition) error { return nil })
	assert.ErrorIs(t, err, procure.ErrNotFound)
}

func TestMemory_ListNewestFirst(t *testing.T) {
	// GIVEN: Three requisitions with distinct update times
	// WHEN: Listing
	// THEN: Most recently updated comes first

	mem := store.NewMemory()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("old", base.Add(-2*time.Hour))))
	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("new", base)))
	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("mid", base.Add(-time.Hour))))

	all, err := mem.Requisitions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.EqualValues(t, "new", all[0].ID)
	assert.EqualValues(t, "mid", all[1].ID)
	assert.EqualValues(t, "old", all[2].ID)
}

// =============================================================================
// TRANSACTIONAL UPDATE
// =============================================================================

func TestMemory_UpdateVetoLeavesStateUntouched(t *testing.T) {
	// GIVEN: A stored requisition
	// WHEN: A mutate callback mutates the document and then errors
	// THEN: The error passes through unchanged and no mutation sticks

	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("r-1", time.Now())))

	veto := &procure.InvalidTransitionError{ID: "r-1", From: procure.StatusApprovedManager, Action: "reject"}
	_, err := mem.UpdateRequisition(ctx, "r-1", func(r *procure.Requisition) error {
		r.Status = procure.StatusRejected
		return veto
	})

	var tr *procure.InvalidTransitionError
	require.ErrorAs(t, err, &tr, "mutate errors must not be wrapped")

	stored, err := mem.Requisition(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedManager, stored.Status)
}

func TestMemory_UpdateAppliesOnSuccess(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("r-1", time.Now())))

	updated, err := mem.UpdateRequisition(ctx, "r-1", func(r *procure.Requisition) error {
		r.Status = procure.StatusApprovedCFO
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedCFO, updated.Status)

	stored, err := mem.Requisition(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedCFO, stored.Status)
}

// =============================================================================
// BATCH COMMIT - All or nothing
// =============================================================================

func TestMemory_CommitBundle_AllOrNothing(t *testing.T) {
	// GIVEN: Three requisitions, where the mutate callback vetoes the third
	// WHEN: Committing the bundle
	// THEN: No PO exists and none of the three changed, including the two
	//       that mutated cleanly before the veto

	mem := store.NewMemory()
	ctx := context.Background()
	for _, id := range []string{"r-1", "r-2", "r-3"} {
		require.NoError(t, mem.InsertRequisition(ctx, newRequisition(id, time.Now())))
	}

	po := newPO("po-1")
	err := mem.CommitBundle(ctx, po, []procure.RequisitionID{"r-1", "r-2", "r-3"},
		func(r *procure.Requisition) error {
			if r.ID == "r-3" {
				return errors.New("veto")
			}
			r.Status = procure.StatusPOCreated
			return nil
		})
	require.Error(t, err)

	_, err = mem.PurchaseOrder(ctx, po.ID)
	assert.ErrorIs(t, err, procure.ErrNotFound, "a refused batch must insert nothing")

	for _, id := range []procure.RequisitionID{"r-1", "r-2", "r-3"} {
		stored, err := mem.Requisition(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, procure.StatusApprovedManager, stored.Status, "%s must be untouched", id)
	}
}

func TestMemory_CommitBundle_MissingMember(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("r-1", time.Now())))

	err := mem.CommitBundle(ctx, newPO("po-1"), []procure.RequisitionID{"r-1", "ghost"},
		func(r *procure.Requisition) error { return nil })
	assert.ErrorIs(t, err, procure.ErrNotFound)

	_, err = mem.PurchaseOrder(ctx, "po-1")
	assert.ErrorIs(t, err, procure.ErrNotFound)
}

func TestMemory_CommitBundle_AppliesAll(t *testing.T) {
	// GIVEN: Two requisitions
	// WHEN: The bundle commits cleanly
	// THEN: The PO and both flips are all visible

	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("r-1", time.Now())))
	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("r-2", time.Now())))

	po := newPO("po-1")
	err := mem.CommitBundle(ctx, po, []procure.RequisitionID{"r-1", "r-2"},
		func(r *procure.Requisition) error {
			r.Status = procure.StatusPOCreated
			r.LinkedPOIDs = append(r.LinkedPOIDs, po.ID)
			return nil
		})
	require.NoError(t, err)

	stored, err := mem.PurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, po.PONumber, stored.PONumber)

	for _, id := range []procure.RequisitionID{"r-1", "r-2"} {
		r, err := mem.Requisition(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, procure.StatusPOCreated, r.Status)
		assert.Equal(t, []procure.POID{po.ID}, r.LinkedPOIDs)
	}
}

// =============================================================================
// WATCH
// =============================================================================

func collect(t *testing.T, ch <-chan procure.Event, n int) []procure.Event {
	t.Helper()
	out := make([]procure.Event, 0, n)
	for len(out) < n {
		select {
		case e := <-ch:
			out = append(out, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestMemory_WatchSeesInsertUpdateAndBundle(t *testing.T) {
	// GIVEN: A subscriber watching the store
	// WHEN: A requisition is inserted, updated, then bundled into a PO
	// THEN: The feed delivers the insert, the update, the PO insert, and the
	//       bundle's status-flip update, in order

	mem := store.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := mem.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("r-1", time.Now())))
	_, err = mem.UpdateRequisition(ctx, "r-1", func(r *procure.Requisition) error {
		r.Status = procure.StatusApprovedCFO
		return nil
	})
	require.NoError(t, err)

	po := newPO("po-1")
	require.NoError(t, mem.CommitBundle(ctx, po, []procure.RequisitionID{"r-1"},
		func(r *procure.Requisition) error {
			r.Status = procure.StatusPOCreated
			return nil
		}))

	events := collect(t, ch, 4)

	assert.Equal(t, procure.EventInserted, events[0].Type)
	require.NotNil(t, events[0].Requisition)
	assert.EqualValues(t, "r-1", events[0].Requisition.ID)

	assert.Equal(t, procure.EventUpdated, events[1].Type)
	assert.Equal(t, procure.StatusApprovedCFO, events[1].Requisition.Status)

	assert.Equal(t, procure.EventInserted, events[2].Type)
	require.NotNil(t, events[2].PurchaseOrder)
	assert.EqualValues(t, "po-1", events[2].PurchaseOrder.ID)

	assert.Equal(t, procure.EventUpdated, events[3].Type)
	assert.Equal(t, procure.StatusPOCreated, events[3].Requisition.Status)
}

// =============================================================================
// RESET
// =============================================================================

func TestMemory_Reset(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.InsertRequisition(ctx, newRequisition("r-1", time.Now())))

	require.NoError(t, mem.Reset(ctx))

	all, err := mem.Requisitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
