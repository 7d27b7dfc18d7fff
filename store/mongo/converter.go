package mongo

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/warp/procure-engine/procure"
)

func entityFromRequisition(r *procure.Requisition) *requisitionEntity {
	if r == nil {
		return nil
	}

	out := &requisitionEntity{
		ID:             string(r.ID),
		Department:     r.Department,
		Type:           string(r.Type),
		OtherType:      r.OtherType,
		ProjectJob:     r.ProjectJob,
		Customer:       r.Customer,
		MachineDown:    r.MachineDown,
		DateRequiredBy: r.DateRequiredBy,
		Notes:          r.Notes,
		Items:          lo.Map(r.Items, func(li procure.LineItem, _ int) lineItemEntity { return entityFromLineItem(li) }),
		Status:         string(r.Status),
		Approvals:      make(map[string]approvalEntity, len(r.Approvals)),
		LinkedPOIDs:    lo.Map(r.LinkedPOIDs, func(id procure.POID, _ int) string { return string(id) }),
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	for slot, a := range r.Approvals {
		out.Approvals[string(slot)] = approvalEntity(a)
	}
	if r.Rejection != nil {
		rej := approvalEntity(*r.Rejection)
		out.Rejection = &rej
	}
	return out
}

func entityToRequisition(e *requisitionEntity) *procure.Requisition {
	if e == nil {
		return nil
	}

	out := &procure.Requisition{
		ID:             procure.RequisitionID(e.ID),
		Department:     e.Department,
		Type:           procure.RequisitionType(e.Type),
		OtherType:      e.OtherType,
		ProjectJob:     e.ProjectJob,
		Customer:       e.Customer,
		MachineDown:    e.MachineDown,
		DateRequiredBy: e.DateRequiredBy,
		Notes:          e.Notes,
		Items:          lo.Map(e.Items, func(li lineItemEntity, _ int) procure.LineItem { return entityToLineItem(li) }),
		Status:         procure.RequisitionStatus(e.Status),
		Approvals:      make(map[procure.ApproverSlot]procure.Approval, len(e.Approvals)),
		LinkedPOIDs:    lo.Map(e.LinkedPOIDs, func(id string, _ int) procure.POID { return procure.POID(id) }),
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	for slot, a := range e.Approvals {
		out.Approvals[procure.ApproverSlot(slot)] = procure.Approval(a)
	}
	if e.Rejection != nil {
		rej := procure.Approval(*e.Rejection)
		out.Rejection = &rej
	}
	return out
}

func entityFromPurchaseOrder(po *procure.PurchaseOrder) *purchaseOrderEntity {
	if po == nil {
		return nil
	}

	return &purchaseOrderEntity{
		ID:             string(po.ID),
		PONumber:       po.PONumber,
		Vendor:         po.Vendor,
		ProjectJob:     po.ProjectJob,
		ShippingType:   string(po.ShippingType),
		ShippingCost:   po.ShippingCost.String(),
		Notes:          po.Notes,
		RequisitionIDs: lo.Map(po.RequisitionIDs, func(id procure.RequisitionID, _ int) string { return string(id) }),
		Items: lo.Map(po.Items, func(it procure.POItem, _ int) poItemEntity {
			return poItemEntity{
				lineItemEntity: entityFromLineItem(it.LineItem),
				RequisitionID:  string(it.RequisitionID),
				Subtotal:       it.Subtotal.String(),
			}
		}),
		Subtotal:  po.Subtotal.String(),
		Total:     po.Total.String(),
		Status:    string(po.Status),
		CreatedBy: po.CreatedBy,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}

func entityToPurchaseOrder(e *purchaseOrderEntity) *procure.PurchaseOrder {
	if e == nil {
		return nil
	}

	return &procure.PurchaseOrder{
		ID:             procure.POID(e.ID),
		PONumber:       e.PONumber,
		Vendor:         e.Vendor,
		ProjectJob:     e.ProjectJob,
		ShippingType:   procure.ShippingType(e.ShippingType),
		ShippingCost:   mustDecimal(e.ShippingCost),
		Notes:          e.Notes,
		RequisitionIDs: lo.Map(e.RequisitionIDs, func(id string, _ int) procure.RequisitionID { return procure.RequisitionID(id) }),
		Items: lo.Map(e.Items, func(it poItemEntity, _ int) procure.POItem {
			return procure.POItem{
				LineItem:      entityToLineItem(it.lineItemEntity),
				RequisitionID: procure.RequisitionID(it.RequisitionID),
				Subtotal:      mustDecimal(it.Subtotal),
			}
		}),
		Subtotal:  mustDecimal(e.Subtotal),
		Total:     mustDecimal(e.Total),
		Status:    procure.POStatus(e.Status),
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func entityFromLineItem(li procure.LineItem) lineItemEntity {
	return lineItemEntity{
		Manufacturer: li.Manufacturer,
		PartNumber:   li.PartNumber,
		Description:  li.Description,
		Qty:          li.Qty,
		UnitCost:     li.UnitCost.String(),
		ToolID:       li.ToolID,
	}
}

func entityToLineItem(e lineItemEntity) procure.LineItem {
	return procure.LineItem{
		Manufacturer: e.Manufacturer,
		PartNumber:   e.PartNumber,
		Description:  e.Description,
		Qty:          e.Qty,
		UnitCost:     mustDecimal(e.UnitCost),
		ToolID:       e.ToolID,
	}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
