/*
notifier.go - Outbound notification hook

PURPOSE:
  Stub hook for downstream delivery (e-mail, webhooks). Actual delivery is
  out of scope; the engine only promises to call the hook after the matching
  state change has committed. Hooks must not fail the operation - errors are
  the implementation's problem.

SEE ALSO:
  - api/notifier.go: zap-backed implementation
*/
package procure

// Notifier receives workflow events after they have been committed.
type Notifier interface {
	RequisitionSubmitted(r *Requisition)
	RequisitionApproved(r *Requisition, slot ApproverSlot, by Actor)
	RequisitionRejected(r *Requisition, by Actor)
	PurchaseOrderCreated(po *PurchaseOrder, by Actor)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) RequisitionSubmitted(*Requisition)                      {}
func (NopNotifier) RequisitionApproved(*Requisition, ApproverSlot, Actor)  {}
func (NopNotifier) RequisitionRejected(*Requisition, Actor)                {}
func (NopNotifier) PurchaseOrderCreated(*PurchaseOrder, Actor)             {}
