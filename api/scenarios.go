/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Pre-built datasets that populate the store with realistic shop-floor
  procurement state. Loaders go through the Ledger and Bundler rather than
  writing the store directly, so every seeded document honors the workflow
  invariants (approval trail, status graph, PO links).

AVAILABLE SCENARIOS:
  empty-shop:   Cleared store, no requisitions
  busy-shop:    A mix of submitted/approved/rejected requisitions plus one
                bundled purchase order

NOTE:
  Loading a scenario resets the store. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: Shared response helpers
  - catalog/seed.go: Demo tool catalog
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/warp/procure-engine/procure"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty-shop",
		Name:        "Empty Shop",
		Description: "Cleared store with no requisitions or purchase orders",
	},
	{
		ID:          "busy-shop",
		Name:        "Busy Shop",
		Description: "Requisitions in every workflow state plus one bundled PO",
	},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the most recently loaded scenario id.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario resets the store and loads the named scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var body LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.resetStore(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}

	var err error
	switch body.ScenarioID {
	case "empty-shop":
		// Reset is the whole scenario.
	case "busy-shop":
		err = h.loadBusyShopScenario(r.Context())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", body.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = body.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": body.ScenarioID})
}

// ResetDatabase clears both collections.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.resetStore(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) resetStore(ctx context.Context) error {
	resetter, ok := h.Store.(procure.Resetter)
	if !ok {
		return fmt.Errorf("store %T does not support reset", h.Store)
	}
	return resetter.Reset(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var demoActors = struct {
	Operator, Buyer, Purchasing, Manager, CFO procure.Actor
}{
	Operator:   procure.Actor{Role: procure.RoleOperator, Identity: "op-7", DisplayName: "Mill Operator"},
	Buyer:      procure.Actor{Role: procure.RoleBuyer, Identity: "buyer-1", DisplayName: "Tooling Buyer"},
	Purchasing: procure.Actor{Role: procure.RolePurchasing, Identity: "purch-1", DisplayName: "Purchasing Desk"},
	Manager:    procure.Actor{Role: procure.RoleManager, Identity: "mgr-1", DisplayName: "Shop Manager"},
	CFO:        procure.Actor{Role: procure.RoleCFO, Identity: "cfo-1", DisplayName: "CFO"},
}

// loadBusyShopScenario seeds requisitions in every workflow state and
// bundles two approved ones into a purchase order.
func (h *Handler) loadBusyShopScenario(ctx context.Context) error {
	// One still waiting on the manager.
	if _, err := h.seedRequisition(ctx, "Job-1042", 2); err != nil {
		return err
	}

	// One manager-approved, ready to bundle.
	r2, err := h.seedRequisition(ctx, "Job-1042", 3)
	if err != nil {
		return err
	}
	if _, err := h.Ledger.Approve(ctx, r2.ID, procure.SlotManager, demoActors.Manager); err != nil {
		return err
	}

	// One fully approved by the CFO.
	r3, err := h.seedRequisition(ctx, "Job-1055", 1)
	if err != nil {
		return err
	}
	if _, err := h.Ledger.Approve(ctx, r3.ID, procure.SlotManager, demoActors.Manager); err != nil {
		return err
	}
	if _, err := h.Ledger.Approve(ctx, r3.ID, procure.SlotCFO, demoActors.CFO); err != nil {
		return err
	}

	// One rejected.
	r4, err := h.seedRequisition(ctx, "Job-1061", 2)
	if err != nil {
		return err
	}
	if _, err := h.Ledger.Reject(ctx, r4.ID, demoActors.Manager); err != nil {
		return err
	}

	// Two more approved and bundled into a PO.
	r5, err := h.seedRequisition(ctx, "Job-1070", 2)
	if err != nil {
		return err
	}
	if _, err := h.Ledger.Approve(ctx, r5.ID, procure.SlotManager, demoActors.Manager); err != nil {
		return err
	}
	r6, err := h.seedRequisition(ctx, "Job-1070", 1)
	if err != nil {
		return err
	}
	if _, err := h.Ledger.Approve(ctx, r6.ID, procure.SlotCFO, demoActors.CFO); err != nil {
		return err
	}

	_, err = h.Bundler.CreatePO(ctx, procure.POForm{
		PONumber:     "PO-" + gofakeit.Numerify("10###"),
		Vendor:       gofakeit.Company(),
		ProjectJob:   "Job-1070",
		ShippingType: procure.ShippingStandard,
		ShippingCost: decimal.NewFromInt(15),
	}, []procure.RequisitionID{r5.ID, r6.ID}, demoActors.Purchasing)
	return err
}

func (h *Handler) seedRequisition(ctx context.Context, projectJob string, lines int) (*procure.Requisition, error) {
	items := make([]procure.LineItemForm, 0, lines)
	for i := 0; i < lines; i++ {
		items = append(items, procure.LineItemForm{
			Manufacturer: gofakeit.Company(),
			PartNumber:   gofakeit.Numerify("PN-#####"),
			Description:  gofakeit.RandomString([]string{"Endmill", "Drill", "Insert", "Tap", "Reamer"}),
			Qty:          int64(gofakeit.Number(1, 10)),
			UnitCost:     decimal.NewFromFloat(gofakeit.Price(5, 250)),
		})
	}

	return h.Ledger.CreateRequisition(ctx, procure.RequisitionForm{
		Department:  "Machining",
		Type:        procure.TypeDisposableTooling,
		ProjectJob:  projectJob,
		MachineDown: gofakeit.Bool(),
		Items:       items,
		CreatedBy:   demoActors.Buyer.Identity,
	})
}
