package procure_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/procure-engine/procure"
)

// =============================================================================
// END TO END - Submit, approve, bundle
// =============================================================================

func TestWorkflow_SubmitApproveBundle(t *testing.T) {
	// GIVEN: A buyer submits a two-endmill requisition at $15 each
	// WHEN: The manager approves, then the CFO approves, then purchasing
	//       bundles it with a second $20 requisition into PO-100 with $5
	//       shipping
	// THEN: Each step's status and totals match, both sources end po_created
	//       with the PO linked back, and the approval trail is complete

	ledger, bundler, mem := newTestBundler(t)
	ctx := context.Background()

	// Submit.
	r := mustCreate(t, ledger, endmillForm())
	assert.True(t, procure.Subtotal(r).Equal(decimal.NewFromInt(30)))

	// Manager approval.
	r, err := ledger.Approve(ctx, r.ID, procure.SlotManager, manager)
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedManager, r.Status)

	// CFO approval.
	r, err = ledger.Approve(ctx, r.ID, procure.SlotCFO, cfo)
	require.NoError(t, err)
	assert.Equal(t, procure.StatusApprovedCFO, r.Status)
	assert.Len(t, r.Approvals, 2)

	// A second approved requisition worth 20.
	other := approvedRequisition(t, ledger, 4, 5)

	// Bundle.
	po, err := bundler.CreatePO(ctx, poForm("PO-100", 5),
		[]procure.RequisitionID{r.ID, other.ID}, purchasing)
	require.NoError(t, err)

	assert.Equal(t, "PO-100", po.PONumber)
	assert.True(t, po.Subtotal.Equal(decimal.NewFromInt(50)))
	assert.True(t, po.Total.Equal(decimal.NewFromInt(55)))
	require.Len(t, po.Items, 2)

	for _, id := range po.RequisitionIDs {
		stored, err := mem.Requisition(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, procure.StatusPOCreated, stored.Status)
		assert.Equal(t, []procure.POID{po.ID}, stored.LinkedPOIDs)
	}

	// The bundled requisitions are spent: no further transitions.
	_, err = ledger.Approve(ctx, r.ID, procure.SlotCFO, cfo)
	assert.ErrorIs(t, err, procure.ErrInvalidTransition)
	_, err = ledger.Reject(ctx, r.ID, manager)
	assert.ErrorIs(t, err, procure.ErrInvalidTransition)
}
