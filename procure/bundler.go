/*
bundler.go - Atomic purchase-order creation

PURPOSE:
  The Bundler consumes one or more approved requisitions and produces
  exactly one purchase order. It is the only creator of POs, the only writer
  of linked_po_ids, and the only component that performs the po_created
  transition.

BUNDLING RULES:
  - Every selected requisition must currently be approved_manager or
    approved_cfo. One disqualifying requisition refuses the entire
    selection; this is a precondition, not a per-item filter.
  - PO items are the CONCATENATION of the source requisitions' items, each
    tagged with its source requisition id. No merging, no deduplication -
    intentional, so every PO line traces back to exactly one source line.
  - subtotal = sum of item subtotals; total = subtotal + shipping.

ATOMICITY:
  The PO insert and every requisition flip go through the store's single
  all-or-nothing commit (Store.CommitBundle). The selection precondition is
  re-checked inside that commit against the freshest documents, so a
  requisition rejected or bundled by a racing session aborts the whole batch
  instead of being silently double-spent.

SEE ALSO:
  - store.go: CommitBundle contract
  - totals.go: Monetary aggregation
*/
package procure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// =============================================================================
// BUNDLER
// =============================================================================

// Bundler owns purchase-order creation. Construct with NewBundler.
type Bundler struct {
	Store    Store
	Notifier Notifier

	now   func() time.Time
	newID func() string
}

func NewBundler(store Store) *Bundler {
	return &Bundler{
		Store:    store,
		Notifier: NopNotifier{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreatePO bundles the selected requisitions into a single new purchase
// order and atomically flips each of them to po_created. Returns the created
// PO.
func (b *Bundler) CreatePO(ctx context.Context, form POForm, selected []RequisitionID, actor Actor) (*PurchaseOrder, error) {
	if !CanCreatePO(actor.Role) {
		return nil, &PermissionError{Role: actor.Role, Action: "create-po"}
	}
	if form.PONumber == "" {
		return nil, &ValidationError{Field: "po_number", Reason: "is required"}
	}
	if form.ProjectJob == "" {
		return nil, &ValidationError{Field: "project_job", Reason: "is required"}
	}

	selected = lo.Uniq(selected)
	if len(selected) == 0 {
		return nil, &ValidationError{Field: "requisition_ids", Reason: "selection is empty"}
	}

	shipping := form.ShippingCost
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}

	// Preflight: load the selection and enforce the all-or-nothing status
	// precondition before building anything.
	sources := make([]*Requisition, 0, len(selected))
	offending := map[RequisitionID]RequisitionStatus{}
	for _, id := range selected {
		r, err := b.Store.Requisition(ctx, id)
		if err != nil {
			return nil, err
		}
		if !bundleable(r.Status) {
			offending[r.ID] = r.Status
			continue
		}
		sources = append(sources, r)
	}
	if len(offending) > 0 {
		return nil, &InvalidSelectionError{Offending: offending}
	}

	now := b.now()
	po := &PurchaseOrder{
		ID:             POID(b.newID()),
		PONumber:       form.PONumber,
		Vendor:         form.Vendor,
		ProjectJob:     form.ProjectJob,
		ShippingType:   form.ShippingType,
		ShippingCost:   shipping,
		Notes:          form.Notes,
		RequisitionIDs: lo.Map(sources, func(r *Requisition, _ int) RequisitionID { return r.ID }),
		Status:         POPending,
		CreatedBy:      actor.Identity,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, r := range sources {
		for _, li := range r.Items {
			po.Items = append(po.Items, POItem{
				LineItem:      li,
				RequisitionID: r.ID,
				Subtotal:      LineTotal(li),
			})
		}
	}
	po.Subtotal = POSubtotal(po.Items)
	po.Total = POTotal(po.Subtotal, po.ShippingCost)

	// The flip is re-validated inside the commit: a requisition that changed
	// state since the preflight aborts the whole batch.
	err := b.Store.CommitBundle(ctx, po, po.RequisitionIDs, func(r *Requisition) error {
		if !bundleable(r.Status) {
			return &InvalidSelectionError{Offending: map[RequisitionID]RequisitionStatus{r.ID: r.Status}}
		}
		r.Status = StatusPOCreated
		r.LinkedPOIDs = append(r.LinkedPOIDs, po.ID)
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.Notifier.PurchaseOrderCreated(po, actor)
	return po, nil
}

// bundleable reports whether a requisition in this status may enter a PO.
func bundleable(status RequisitionStatus) bool {
	return status == StatusApprovedManager || status == StatusApprovedCFO
}
