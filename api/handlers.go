/*
handlers.go - HTTP API handlers for the procurement engine

PURPOSE:
  Exposes the requisition/PO workflow via REST. Handles HTTP decode/encode
  and delegates every decision to the engine; the handlers perform no
  permission or status checks of their own.

ENDPOINTS:
  Requisitions:
    GET    /api/requisitions               List (updated_at desc)
    POST   /api/requisitions               Create
    GET    /api/requisitions/{id}          Get one
    POST   /api/requisitions/{id}/approve  Fill an approval slot
    POST   /api/requisitions/{id}/reject   Reject

  Purchase orders:
    GET    /api/purchase-orders            List (updated_at desc)
    POST   /api/purchase-orders            Bundle approved requisitions
    GET    /api/purchase-orders/{id}       Get one
    POST   /api/purchase-orders/preview    Selection running total

  Catalog / feed:
    GET    /api/catalog/tools?q=           Prefill lookup (read-only)
    GET    /api/stream                     SSE change feed (stream.go)

ERROR HANDLING:
  Engine errors map onto HTTP statuses by category:
    400 validation, 403 permission, 404 not found,
    409 invalid transition / invalid selection, 500 store.

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router and middleware
  - scenarios.go: Demo data loaders
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/procure-engine/catalog"
	"github.com/warp/procure-engine/procure"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   procure.Store
	Ledger  *procure.Ledger
	Bundler *procure.Bundler
	Catalog catalog.Lookup
	Log     *zap.Logger

	// Track currently loaded demo scenario
	currentScenario string
}

// NewHandler wires a handler over the given engine components.
func NewHandler(store procure.Store, ledger *procure.Ledger, bundler *procure.Bundler, cat catalog.Lookup, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:   store,
		Ledger:  ledger,
		Bundler: bundler,
		Catalog: cat,
		Log:     log,
	}
}

// =============================================================================
// REQUISITION HANDLERS
// =============================================================================

// ListRequisitions returns all requisitions, newest update first.
func (h *Handler) ListRequisitions(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Store.Requisitions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requisitions", err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(reqs, func(r *procure.Requisition, _ int) RequisitionDTO {
		return toRequisitionDTO(r)
	}))
}

// GetRequisition returns a single requisition.
func (h *Handler) GetRequisition(w http.ResponseWriter, r *http.Request) {
	id := procure.RequisitionID(chi.URLParam(r, "id"))

	req, err := h.Store.Requisition(r.Context(), id)
	if err != nil {
		writeError(w, errorStatus(err), "Failed to get requisition", err)
		return
	}

	writeJSON(w, http.StatusOK, toRequisitionDTO(req))
}

// CreateRequisition creates a requisition in status submitted.
func (h *Handler) CreateRequisition(w http.ResponseWriter, r *http.Request) {
	var body CreateRequisitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	form := procure.RequisitionForm{
		Department:  body.Department,
		Type:        procure.RequisitionType(body.Type),
		OtherType:   body.OtherType,
		ProjectJob:  body.ProjectJob,
		Customer:    body.Customer,
		MachineDown: body.MachineDown,
		Notes:       body.Notes,
		Items:       lo.Map(body.Items, func(li LineItemDTO, _ int) procure.LineItemForm { return toLineItemForm(li) }),
		CreatedBy:   body.Actor.Identity,
	}
	if body.DateRequiredBy != "" {
		d, err := time.Parse("2006-01-02", body.DateRequiredBy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date_required_by format (use YYYY-MM-DD)", err)
			return
		}
		form.DateRequiredBy = &d
	}

	req, err := h.Ledger.CreateRequisition(r.Context(), form)
	if err != nil {
		writeError(w, errorStatus(err), "Failed to create requisition", err)
		return
	}

	h.Log.Info("requisition created",
		zap.String("id", string(req.ID)),
		zap.String("project_job", req.ProjectJob),
		zap.String("created_by", req.CreatedBy))

	writeJSON(w, http.StatusCreated, toRequisitionDTO(req))
}

// ApproveRequisition fills an approval slot (manager or cfo).
func (h *Handler) ApproveRequisition(w http.ResponseWriter, r *http.Request) {
	id := procure.RequisitionID(chi.URLParam(r, "id"))

	var body ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := h.Ledger.Approve(r.Context(), id, procure.ApproverSlot(body.Slot), body.Actor.toActor())
	if err != nil {
		writeError(w, errorStatus(err), "Failed to approve requisition", err)
		return
	}

	h.Log.Info("requisition approved",
		zap.String("id", string(req.ID)),
		zap.String("slot", body.Slot),
		zap.String("by", body.Actor.Identity))

	writeJSON(w, http.StatusOK, toRequisitionDTO(req))
}

// RejectRequisition rejects a requisition (terminal).
func (h *Handler) RejectRequisition(w http.ResponseWriter, r *http.Request) {
	id := procure.RequisitionID(chi.URLParam(r, "id"))

	var body RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := h.Ledger.Reject(r.Context(), id, body.Actor.toActor())
	if err != nil {
		writeError(w, errorStatus(err), "Failed to reject requisition", err)
		return
	}

	h.Log.Info("requisition rejected",
		zap.String("id", string(req.ID)),
		zap.String("by", body.Actor.Identity))

	writeJSON(w, http.StatusOK, toRequisitionDTO(req))
}

// =============================================================================
// PURCHASE ORDER HANDLERS
// =============================================================================

// ListPurchaseOrders returns all purchase orders, newest update first.
func (h *Handler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.PurchaseOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list purchase orders", err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(orders, func(po *procure.PurchaseOrder, _ int) PurchaseOrderDTO {
		return toPurchaseOrderDTO(po)
	}))
}

// GetPurchaseOrder returns a single purchase order.
func (h *Handler) GetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id := procure.POID(chi.URLParam(r, "id"))

	po, err := h.Store.PurchaseOrder(r.Context(), id)
	if err != nil {
		writeError(w, errorStatus(err), "Failed to get purchase order", err)
		return
	}

	writeJSON(w, http.StatusOK, toPurchaseOrderDTO(po))
}

// CreatePurchaseOrder bundles the selected requisitions into one PO.
func (h *Handler) CreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var body CreatePORequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	form := procure.POForm{
		PONumber:     body.PONumber,
		Vendor:       body.Vendor,
		ProjectJob:   body.ProjectJob,
		ShippingType: procure.ShippingType(body.ShippingType),
		ShippingCost: decimal.NewFromFloat(body.ShippingCost),
		Notes:        body.Notes,
	}
	ids := lo.Map(body.RequisitionIDs, func(id string, _ int) procure.RequisitionID {
		return procure.RequisitionID(id)
	})

	po, err := h.Bundler.CreatePO(r.Context(), form, ids, body.Actor.toActor())
	if err != nil {
		writeError(w, errorStatus(err), "Failed to create purchase order", err)
		return
	}

	h.Log.Info("purchase order created",
		zap.String("id", string(po.ID)),
		zap.String("po_number", po.PONumber),
		zap.Int("requisitions", len(po.RequisitionIDs)),
		zap.String("by", body.Actor.Identity))

	writeJSON(w, http.StatusCreated, toPurchaseOrderDTO(po))
}

// PreviewPurchaseOrder returns the running total of a prospective bundle
// without creating anything.
func (h *Handler) PreviewPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var body PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	reqs := make([]*procure.Requisition, 0, len(body.RequisitionIDs))
	for _, id := range body.RequisitionIDs {
		req, err := h.Store.Requisition(r.Context(), procure.RequisitionID(id))
		if err != nil {
			writeError(w, errorStatus(err), "Failed to load selection", err)
			return
		}
		reqs = append(reqs, req)
	}

	writeJSON(w, http.StatusOK, PreviewDTO{
		RequisitionIDs: body.RequisitionIDs,
		Count:          len(reqs),
		Subtotal:       procure.SelectionTotal(reqs).InexactFloat64(),
	})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// SearchTools serves the line-item prefill lookup.
func (h *Handler) SearchTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.Catalog.Search(r.Context(), r.URL.Query().Get("q"), 25)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to search catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]string{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}

// errorStatus maps engine error categories onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, procure.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, procure.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, procure.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, procure.ErrInvalidTransition), errors.Is(err, procure.ErrInvalidSelection):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
