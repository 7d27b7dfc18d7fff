package mongo

import "time"

// BSON document shapes for the two collections. Money is stored as the
// decimal's canonical string so no precision is lost in transit.

type requisitionEntity struct {
	ID             string                    `bson:"_id"`
	Department     string                    `bson:"department,omitempty"`
	Type           string                    `bson:"type"`
	OtherType      string                    `bson:"other_type,omitempty"`
	ProjectJob     string                    `bson:"project_job"`
	Customer       string                    `bson:"customer,omitempty"`
	MachineDown    bool                      `bson:"machine_down"`
	DateRequiredBy *time.Time                `bson:"date_required_by,omitempty"`
	Notes          string                    `bson:"notes,omitempty"`
	Items          []lineItemEntity          `bson:"items"`
	Status         string                    `bson:"status"`
	Approvals      map[string]approvalEntity `bson:"approvals"`
	Rejection      *approvalEntity           `bson:"rejection,omitempty"`
	LinkedPOIDs    []string                  `bson:"linked_po_ids"`
	CreatedBy      string                    `bson:"created_by,omitempty"`
	CreatedAt      time.Time                 `bson:"created_at"`
	UpdatedAt      time.Time                 `bson:"updated_at"`
}

type lineItemEntity struct {
	Manufacturer string `bson:"manufacturer,omitempty"`
	PartNumber   string `bson:"part_number,omitempty"`
	Description  string `bson:"description,omitempty"`
	Qty          int64  `bson:"qty"`
	UnitCost     string `bson:"unit_cost"`
	ToolID       string `bson:"tool_id,omitempty"`
}

type approvalEntity struct {
	Identity    string    `bson:"identity"`
	DisplayName string    `bson:"display_name,omitempty"`
	At          time.Time `bson:"at"`
}

type purchaseOrderEntity struct {
	ID             string         `bson:"_id"`
	PONumber       string         `bson:"po_number"`
	Vendor         string         `bson:"vendor,omitempty"`
	ProjectJob     string         `bson:"project_job"`
	ShippingType   string         `bson:"shipping_type"`
	ShippingCost   string         `bson:"shipping_cost"`
	Notes          string         `bson:"notes,omitempty"`
	RequisitionIDs []string       `bson:"requisition_ids"`
	Items          []poItemEntity `bson:"items"`
	Subtotal       string         `bson:"subtotal"`
	Total          string         `bson:"total"`
	Status         string         `bson:"status"`
	CreatedBy      string         `bson:"created_by,omitempty"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

type poItemEntity struct {
	lineItemEntity `bson:",inline"`
	RequisitionID  string `bson:"requisition_id"`
	Subtotal       string `bson:"subtotal"`
}
