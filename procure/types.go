/*
Package procure contains the requisition approval and PO-bundling engine.

PURPOSE:
  This package owns the purchase-requisition lifecycle for the shop floor:
  operators and buyers submit tooling requisitions, managers and the CFO
  approve or reject them, and purchasing bundles approved requisitions into
  purchase orders. Everything presentational (forms, tables, charts) lives
  outside; this package is the single source of truth for the workflow
  invariants.

KEY CONCEPTS IN THIS FILE (types.go):
  - Requisition: A purchase request with line items and an approval trail
  - PurchaseOrder: One or more approved requisitions bundled for a vendor
  - Role / Actor: Who is acting, supplied externally (auth is out of scope)
  - ApproverSlot: Which approval checkpoint an approval fills (manager, cfo)

DESIGN PRINCIPLES:
  1. Forward-only: Status never regresses; rejected and po_created are terminal
  2. Precision: Uses decimal.Decimal for all money, never float64
  3. Derived totals: Subtotals are recomputed from line items, not trusted
  4. Single writer: Only the Ledger mutates requisitions, only the Bundler
     creates purchase orders

SEE ALSO:
  - ledger.go: Requisition lifecycle operations
  - bundler.go: Atomic PO creation
  - authority.go: Role capability predicates
  - store.go: Persistence and change-subscription interface
*/
package procure

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RequisitionID string
type POID string

// =============================================================================
// ROLES - Classification of the acting user, supplied externally
// =============================================================================

type Role string

const (
	RoleOperator   Role = "operator"
	RoleBuyer      Role = "buyer"
	RolePurchasing Role = "purchasing"
	RoleSetup      Role = "setup"
	RoleManager    Role = "manager"
	RoleCFO        Role = "cfo"
	RoleAdmin      Role = "admin"
)

// Actor identifies who is performing an operation. The engine trusts the
// caller to have authenticated the user; it only enforces capability checks
// on the supplied role.
type Actor struct {
	Role        Role   `json:"role"`
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name"`
}

// =============================================================================
// REQUISITION
// =============================================================================

type RequisitionStatus string

const (
	StatusDraft           RequisitionStatus = "draft"
	StatusSubmitted       RequisitionStatus = "submitted"
	StatusApprovedManager RequisitionStatus = "approved_manager"
	StatusApprovedCFO     RequisitionStatus = "approved_cfo"
	StatusPOCreated       RequisitionStatus = "po_created"
	StatusRejected        RequisitionStatus = "rejected"

	// Reserved terminal extensions for the fulfillment flow. Not reachable
	// from any transition in this engine.
	StatusOrdered  RequisitionStatus = "ordered"
	StatusReceived RequisitionStatus = "received"
)

// Terminal reports whether no further transition is accepted from s.
func (s RequisitionStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusPOCreated, StatusOrdered, StatusReceived:
		return true
	}
	return false
}

type RequisitionType string

const (
	TypeDisposableTooling  RequisitionType = "disposable_tooling"
	TypeRawMaterial        RequisitionType = "raw_material"
	TypeRepairsMaintenance RequisitionType = "repairs_maintenance"
	TypeOther              RequisitionType = "other"
)

// ApproverSlot names an approval checkpoint on a requisition. At most one
// approval is recorded per slot; re-approving the same slot overwrites it.
type ApproverSlot string

const (
	SlotManager ApproverSlot = "manager"
	SlotCFO     ApproverSlot = "cfo"
)

// Approval records who filled an approval checkpoint (or rejected) and when.
type Approval struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name"`
	At          time.Time `json:"at"`
}

// LineItem is a single requested line on a requisition. Quantities and costs
// are clamped at creation (qty >= 1, unit cost >= 0), so downstream math
// never has to defend against negative values.
type LineItem struct {
	Manufacturer string          `json:"manufacturer"`
	PartNumber   string          `json:"part_number"`
	Description  string          `json:"description"`
	Qty          int64           `json:"qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ToolID       string          `json:"tool_id,omitempty"`
}

// Empty reports whether the line carries no identifying content. Empty lines
// are discarded at creation.
func (li LineItem) Empty() bool {
	return li.Description == "" && li.PartNumber == "" && li.Manufacturer == ""
}

// Requisition is a purchase request flowing through the approval workflow.
//
// INVARIANTS:
//   - Status only advances along the transition graph; rejected is terminal
//   - Approvals entries are immutable except idempotent overwrite by the
//     same slot; there is no un-approve
//   - LinkedPOIDs is append-only and written only by the Bundler
//   - UpdatedAt advances on every mutation
type Requisition struct {
	ID RequisitionID `json:"id"`

	Department     string          `json:"department"`
	Type           RequisitionType `json:"type"`
	OtherType      string          `json:"other_type,omitempty"`
	ProjectJob     string          `json:"project_job"`
	Customer       string          `json:"customer,omitempty"`
	MachineDown    bool            `json:"machine_down"`
	DateRequiredBy *time.Time      `json:"date_required_by,omitempty"`
	Notes          string          `json:"notes,omitempty"`

	Items []LineItem `json:"items"`

	Status      RequisitionStatus         `json:"status"`
	Approvals   map[ApproverSlot]Approval `json:"approvals"`
	Rejection   *Approval                 `json:"rejection,omitempty"`
	LinkedPOIDs []POID                    `json:"linked_po_ids"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state behind the Ledger's back.
func (r *Requisition) Clone() *Requisition {
	if r == nil {
		return nil
	}
	out := *r
	out.Items = append([]LineItem(nil), r.Items...)
	out.LinkedPOIDs = append([]POID(nil), r.LinkedPOIDs...)
	out.Approvals = make(map[ApproverSlot]Approval, len(r.Approvals))
	for slot, a := range r.Approvals {
		out.Approvals[slot] = a
	}
	if r.Rejection != nil {
		rej := *r.Rejection
		out.Rejection = &rej
	}
	if r.DateRequiredBy != nil {
		d := *r.DateRequiredBy
		out.DateRequiredBy = &d
	}
	return &out
}

// =============================================================================
// PURCHASE ORDER
// =============================================================================

type POStatus string

const (
	POPending POStatus = "pending"
)

type ShippingType string

const (
	ShippingStandard  ShippingType = "standard"
	ShippingExpedite  ShippingType = "expedite"
	ShippingOvernight ShippingType = "overnight"
	ShippingPickup    ShippingType = "pickup"
)

// POItem is a purchase-order line. Items are concatenated from the source
// requisitions, never merged or deduplicated, so every line traces back to
// exactly one source requisition.
type POItem struct {
	LineItem
	RequisitionID RequisitionID   `json:"requisition_id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// PurchaseOrder bundles one or more approved requisitions. It is created
// exactly once by the Bundler, atomically with the status flip of every
// source requisition, and its RequisitionIDs set is fixed at creation.
type PurchaseOrder struct {
	ID       POID   `json:"id"`
	PONumber string `json:"po_number"`

	Vendor       string          `json:"vendor,omitempty"`
	ProjectJob   string          `json:"project_job"`
	ShippingType ShippingType    `json:"shipping_type"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Notes        string          `json:"notes,omitempty"`

	RequisitionIDs []RequisitionID `json:"requisition_ids"`
	Items          []POItem        `json:"items"`

	// Denormalized at creation; must always equal the derived values in
	// totals.go.
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`

	Status    POStatus  `json:"status"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (po *PurchaseOrder) Clone() *PurchaseOrder {
	if po == nil {
		return nil
	}
	out := *po
	out.RequisitionIDs = append([]RequisitionID(nil), po.RequisitionIDs...)
	out.Items = append([]POItem(nil), po.Items...)
	return &out
}

// =============================================================================
// FORMS - Presentation-layer input, validated and clamped by the engine
// =============================================================================

// LineItemForm is a raw requisition line as submitted. Qty and UnitCost are
// clamped by the Ledger (qty >= 1, unit cost >= 0).
type LineItemForm struct {
	Manufacturer string
	PartNumber   string
	Description  string
	Qty          int64
	UnitCost     decimal.Decimal
	ToolID       string
}

// RequisitionForm is the input to Ledger.CreateRequisition.
type RequisitionForm struct {
	Department     string
	Type           RequisitionType
	OtherType      string
	ProjectJob     string
	Customer       string
	MachineDown    bool
	DateRequiredBy *time.Time
	Notes          string
	Items          []LineItemForm
	CreatedBy      string
}

// POForm is the input to Bundler.CreatePO.
type POForm struct {
	PONumber     string
	Vendor       string
	ProjectJob   string
	ShippingType ShippingType
	ShippingCost decimal.Decimal
	Notes        string
}
