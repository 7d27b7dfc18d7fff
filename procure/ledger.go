/*
ledger.go - Requisition lifecycle operations

PURPOSE:
  The Ledger exclusively owns requisition mutation: creation, approval,
  rejection. Nothing else writes a requisition except the Bundler's
  po_created flip (bundler.go).

STATE MACHINE:

  (create)          -> submitted
  submitted         -> approved_manager   manager approve  {manager,cfo,admin}
  submitted         -> approved_cfo       cfo approve      {cfo,admin}
  approved_manager  -> approved_cfo       cfo approve      {cfo,admin}
  submitted |
  approved_manager  -> rejected           reject           {manager,cfo,admin}
  approved_manager |
  approved_cfo      -> po_created         Bundler only

  Re-approving an already-filled slot is idempotent: the slot's entry is
  overwritten and the status is left where it is. CFO approval directly from
  submitted is deliberate - manager approval is a recorded checkpoint, not a
  hard prerequisite.

CONCURRENCY:
  Every transition check runs inside the store's transactional
  read-modify-write, against the value that is about to be overwritten.
  Racing approvals serialize; the loser of a race against reject or bundling
  gets InvalidTransitionError instead of silently resurrecting the document.

SEE ALSO:
  - authority.go: Capability checks invoked by every operation
  - bundler.go: The po_created transition
*/
package procure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger owns the requisition lifecycle. Construct with NewLedger; the zero
// value is not usable.
type Ledger struct {
	Store    Store
	Notifier Notifier

	now   func() time.Time
	newID func() string
}

func NewLedger(store Store) *Ledger {
	return &Ledger{
		Store:    store,
		Notifier: NopNotifier{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// =============================================================================
// CREATE
// =============================================================================

// CreateRequisition validates and persists a new requisition in status
// submitted. Empty line items are discarded; quantities are clamped to at
// least 1 and unit costs to at least 0. Validation failures are surfaced to
// the caller and nothing is persisted.
func (l *Ledger) CreateRequisition(ctx context.Context, form RequisitionForm) (*Requisition, error) {
	if form.ProjectJob == "" {
		return nil, &ValidationError{Field: "project_job", Reason: "is required"}
	}

	items := make([]LineItem, 0, len(form.Items))
	for _, f := range form.Items {
		li := LineItem{
			Manufacturer: f.Manufacturer,
			PartNumber:   f.PartNumber,
			Description:  f.Description,
			Qty:          f.Qty,
			UnitCost:     f.UnitCost,
			ToolID:       f.ToolID,
		}
		if li.Empty() {
			continue
		}
		if li.Qty < 1 {
			li.Qty = 1
		}
		if li.UnitCost.IsNegative() {
			li.UnitCost = decimal.Zero
		}
		items = append(items, li)
	}
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "must contain at least one non-empty line"}
	}

	now := l.now()
	r := &Requisition{
		ID:             RequisitionID(l.newID()),
		Department:     form.Department,
		Type:           form.Type,
		OtherType:      form.OtherType,
		ProjectJob:     form.ProjectJob,
		Customer:       form.Customer,
		MachineDown:    form.MachineDown,
		DateRequiredBy: form.DateRequiredBy,
		Notes:          form.Notes,
		Items:          items,
		Status:         StatusSubmitted,
		Approvals:      map[ApproverSlot]Approval{},
		LinkedPOIDs:    []POID{},
		CreatedBy:      form.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := l.Store.InsertRequisition(ctx, r); err != nil {
		return nil, err
	}

	l.Notifier.RequisitionSubmitted(r)
	return r, nil
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

// Approve fills the given approval slot on a requisition and advances its
// status. Re-approval of the same slot overwrites that slot's entry and is
// not an error.
func (l *Ledger) Approve(ctx context.Context, id RequisitionID, slot ApproverSlot, actor Actor) (*Requisition, error) {
	if slot != SlotManager && slot != SlotCFO {
		return nil, &ValidationError{Field: "slot", Reason: "must be manager or cfo"}
	}
	if !CanApprove(slot, actor.Role) {
		return nil, &PermissionError{Role: actor.Role, Action: string(slot) + "-approve"}
	}

	at := l.now()
	updated, err := l.Store.UpdateRequisition(ctx, id, func(r *Requisition) error {
		if !approveLegal(slot, r.Status) {
			return &InvalidTransitionError{ID: id, From: r.Status, Action: string(slot) + " approve"}
		}
		r.Approvals[slot] = Approval{
			Identity:    actor.Identity,
			DisplayName: actor.DisplayName,
			At:          at,
		}
		switch slot {
		case SlotManager:
			r.Status = StatusApprovedManager
		case SlotCFO:
			r.Status = StatusApprovedCFO
		}
		r.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Notifier.RequisitionApproved(updated, slot, actor)
	return updated, nil
}

// approveLegal reports whether filling slot is a legal edge from status.
// A slot's own status is a legal source so re-approval stays idempotent.
func approveLegal(slot ApproverSlot, status RequisitionStatus) bool {
	switch slot {
	case SlotManager:
		return status == StatusSubmitted || status == StatusApprovedManager
	case SlotCFO:
		return status == StatusSubmitted || status == StatusApprovedManager || status == StatusApprovedCFO
	}
	return false
}

// Reject marks a requisition rejected and records the rejector. Legal only
// from submitted or approved_manager; rejected is terminal.
func (l *Ledger) Reject(ctx context.Context, id RequisitionID, actor Actor) (*Requisition, error) {
	if !CanReject(actor.Role) {
		return nil, &PermissionError{Role: actor.Role, Action: "reject"}
	}

	at := l.now()
	updated, err := l.Store.UpdateRequisition(ctx, id, func(r *Requisition) error {
		if r.Status != StatusSubmitted && r.Status != StatusApprovedManager {
			return &InvalidTransitionError{ID: id, From: r.Status, Action: "reject"}
		}
		r.Status = StatusRejected
		r.Rejection = &Approval{
			Identity:    actor.Identity,
			DisplayName: actor.DisplayName,
			At:          at,
		}
		r.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Notifier.RequisitionRejected(updated, actor)
	return updated, nil
}
