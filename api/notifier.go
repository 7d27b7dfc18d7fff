/*
notifier.go - zap-backed implementation of the outbound notification hook

PURPOSE:
  Stands in for e-mail/webhook delivery, which is out of scope: each
  workflow event is logged where a real delivery integration would hang.
*/
package api

import (
	"go.uber.org/zap"

	"github.com/warp/procure-engine/procure"
)

// LogNotifier logs workflow events. It satisfies procure.Notifier.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) RequisitionSubmitted(r *procure.Requisition) {
	n.Log.Info("notify: requisition submitted",
		zap.String("id", string(r.ID)),
		zap.String("project_job", r.ProjectJob),
		zap.Bool("machine_down", r.MachineDown))
}

func (n LogNotifier) RequisitionApproved(r *procure.Requisition, slot procure.ApproverSlot, by procure.Actor) {
	n.Log.Info("notify: requisition approved",
		zap.String("id", string(r.ID)),
		zap.String("slot", string(slot)),
		zap.String("status", string(r.Status)),
		zap.String("by", by.Identity))
}

func (n LogNotifier) RequisitionRejected(r *procure.Requisition, by procure.Actor) {
	n.Log.Info("notify: requisition rejected",
		zap.String("id", string(r.ID)),
		zap.String("by", by.Identity))
}

func (n LogNotifier) PurchaseOrderCreated(po *procure.PurchaseOrder, by procure.Actor) {
	n.Log.Info("notify: purchase order created",
		zap.String("id", string(po.ID)),
		zap.String("po_number", po.PONumber),
		zap.String("total", po.Total.String()),
		zap.String("by", by.Identity))
}
