/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP boundary, decoupled from the domain model.
  Money crosses the wire as float64 for the UI's benefit; the engine keeps
  decimals internally and recomputes every total it returns.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Handlers decode and convert; business validation lives in the engine
  (procure.Ledger / procure.Bundler), which is the authoritative check.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/warp/procure-engine/procure"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ActorDTO identifies the acting user on mutating requests. Authentication
// is out of scope; the caller supplies role and identity.
type ActorDTO struct {
	Role        string `json:"role"`
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name,omitempty"`
}

func (a ActorDTO) toActor() procure.Actor {
	return procure.Actor{
		Role:        procure.Role(a.Role),
		Identity:    a.Identity,
		DisplayName: a.DisplayName,
	}
}

// LineItemDTO is a requisition line in both directions.
type LineItemDTO struct {
	Manufacturer string  `json:"manufacturer,omitempty"`
	PartNumber   string  `json:"part_number,omitempty"`
	Description  string  `json:"description,omitempty"`
	Qty          int64   `json:"qty"`
	UnitCost     float64 `json:"unit_cost"`
	ToolID       string  `json:"tool_id,omitempty"`
}

// ApprovalDTO is one entry of the approval trail.
type ApprovalDTO struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name,omitempty"`
	At          string `json:"at"`
}

// RequisitionDTO is the full requisition projection, including the derived
// subtotal.
type RequisitionDTO struct {
	ID             string                 `json:"id"`
	Department     string                 `json:"department,omitempty"`
	Type           string                 `json:"type"`
	OtherType      string                 `json:"other_type,omitempty"`
	ProjectJob     string                 `json:"project_job"`
	Customer       string                 `json:"customer,omitempty"`
	MachineDown    bool                   `json:"machine_down"`
	DateRequiredBy string                 `json:"date_required_by,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	Items          []LineItemDTO          `json:"items"`
	Status         string                 `json:"status"`
	Approvals      map[string]ApprovalDTO `json:"approvals"`
	Rejection      *ApprovalDTO           `json:"rejection,omitempty"`
	LinkedPOIDs    []string               `json:"linked_po_ids"`
	Subtotal       float64                `json:"subtotal"`
	CreatedBy      string                 `json:"created_by,omitempty"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

// CreateRequisitionRequest is the request to create a requisition.
type CreateRequisitionRequest struct {
	Department     string        `json:"department"`
	Type           string        `json:"type"`
	OtherType      string        `json:"other_type"`
	ProjectJob     string        `json:"project_job"`
	Customer       string        `json:"customer"`
	MachineDown    bool          `json:"machine_down"`
	DateRequiredBy string        `json:"date_required_by"` // YYYY-MM-DD
	Notes          string        `json:"notes"`
	Items          []LineItemDTO `json:"items"`
	Actor          ActorDTO      `json:"actor"`
}

// ApproveRequest fills an approval slot.
type ApproveRequest struct {
	Slot  string   `json:"slot"` // "manager" or "cfo"
	Actor ActorDTO `json:"actor"`
}

// RejectRequest rejects a requisition.
type RejectRequest struct {
	Actor ActorDTO `json:"actor"`
}

// POItemDTO is a purchase-order line with its source requisition.
type POItemDTO struct {
	LineItemDTO
	RequisitionID string  `json:"requisition_id"`
	Subtotal      float64 `json:"subtotal"`
}

// PurchaseOrderDTO is the full PO projection.
type PurchaseOrderDTO struct {
	ID             string      `json:"id"`
	PONumber       string      `json:"po_number"`
	Vendor         string      `json:"vendor,omitempty"`
	ProjectJob     string      `json:"project_job"`
	ShippingType   string      `json:"shipping_type"`
	ShippingCost   float64     `json:"shipping_cost"`
	Notes          string      `json:"notes,omitempty"`
	RequisitionIDs []string    `json:"requisition_ids"`
	Items          []POItemDTO `json:"items"`
	Subtotal       float64     `json:"subtotal"`
	Total          float64     `json:"total"`
	Status         string      `json:"status"`
	CreatedBy      string      `json:"created_by,omitempty"`
	CreatedAt      string      `json:"created_at"`
}

// CreatePORequest bundles approved requisitions into a purchase order.
type CreatePORequest struct {
	PONumber       string   `json:"po_number"`
	Vendor         string   `json:"vendor"`
	ProjectJob     string   `json:"project_job"`
	ShippingType   string   `json:"shipping_type"`
	ShippingCost   float64  `json:"shipping_cost"`
	Notes          string   `json:"notes"`
	RequisitionIDs []string `json:"requisition_ids"`
	Actor          ActorDTO `json:"actor"`
}

// PreviewRequest asks for the running total of a prospective bundle.
type PreviewRequest struct {
	RequisitionIDs []string `json:"requisition_ids"`
}

// PreviewDTO is the bundle preview: selection size and combined subtotal.
type PreviewDTO struct {
	RequisitionIDs []string `json:"requisition_ids"`
	Count          int      `json:"count"`
	Subtotal       float64  `json:"subtotal"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// DOMAIN -> DTO CONVERSION
// =============================================================================

func toRequisitionDTO(r *procure.Requisition) RequisitionDTO {
	dto := RequisitionDTO{
		ID:          string(r.ID),
		Department:  r.Department,
		Type:        string(r.Type),
		OtherType:   r.OtherType,
		ProjectJob:  r.ProjectJob,
		Customer:    r.Customer,
		MachineDown: r.MachineDown,
		Notes:       r.Notes,
		Items:       lo.Map(r.Items, func(li procure.LineItem, _ int) LineItemDTO { return toLineItemDTO(li) }),
		Status:      string(r.Status),
		Approvals:   make(map[string]ApprovalDTO, len(r.Approvals)),
		LinkedPOIDs: lo.Map(r.LinkedPOIDs, func(id procure.POID, _ int) string { return string(id) }),
		Subtotal:    procure.Subtotal(r).InexactFloat64(),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}
	if r.DateRequiredBy != nil {
		dto.DateRequiredBy = r.DateRequiredBy.Format("2006-01-02")
	}
	for slot, a := range r.Approvals {
		dto.Approvals[string(slot)] = toApprovalDTO(a)
	}
	if r.Rejection != nil {
		rej := toApprovalDTO(*r.Rejection)
		dto.Rejection = &rej
	}
	return dto
}

func toApprovalDTO(a procure.Approval) ApprovalDTO {
	return ApprovalDTO{
		Identity:    a.Identity,
		DisplayName: a.DisplayName,
		At:          a.At.Format(time.RFC3339),
	}
}

func toLineItemDTO(li procure.LineItem) LineItemDTO {
	return LineItemDTO{
		Manufacturer: li.Manufacturer,
		PartNumber:   li.PartNumber,
		Description:  li.Description,
		Qty:          li.Qty,
		UnitCost:     li.UnitCost.InexactFloat64(),
		ToolID:       li.ToolID,
	}
}

func toPurchaseOrderDTO(po *procure.PurchaseOrder) PurchaseOrderDTO {
	return PurchaseOrderDTO{
		ID:             string(po.ID),
		PONumber:       po.PONumber,
		Vendor:         po.Vendor,
		ProjectJob:     po.ProjectJob,
		ShippingType:   string(po.ShippingType),
		ShippingCost:   po.ShippingCost.InexactFloat64(),
		Notes:          po.Notes,
		RequisitionIDs: lo.Map(po.RequisitionIDs, func(id procure.RequisitionID, _ int) string { return string(id) }),
		Items: lo.Map(po.Items, func(it procure.POItem, _ int) POItemDTO {
			return POItemDTO{
				LineItemDTO:   toLineItemDTO(it.LineItem),
				RequisitionID: string(it.RequisitionID),
				Subtotal:      it.Subtotal.InexactFloat64(),
			}
		}),
		Subtotal:  po.Subtotal.InexactFloat64(),
		Total:     po.Total.InexactFloat64(),
		Status:    string(po.Status),
		CreatedBy: po.CreatedBy,
		CreatedAt: po.CreatedAt.Format(time.RFC3339),
	}
}

func toLineItemForm(dto LineItemDTO) procure.LineItemForm {
	return procure.LineItemForm{
		Manufacturer: dto.Manufacturer,
		PartNumber:   dto.PartNumber,
		Description:  dto.Description,
		Qty:          dto.Qty,
		UnitCost:     decimal.NewFromFloat(dto.UnitCost),
		ToolID:       dto.ToolID,
	}
}
