/*
totals.go - Derived monetary aggregation

PURPOSE:
  Pure functions over current entity snapshots. Totals are recomputed on
  every read and never cached as mutable authoritative state; any stored
  subtotal (e.g. on a purchase order) is a denormalized copy that must equal
  the value derived here.

  Line quantities and unit costs are clamped at creation (ledger.go), so
  these functions never fail and never see negative inputs.

SEE ALSO:
  - bundler.go: Uses these when assembling a PO
  - api/handlers.go: Selection preview endpoint
*/
package procure

import "github.com/shopspring/decimal"

// LineTotal returns qty x unit cost for a single line.
func LineTotal(li LineItem) decimal.Decimal {
	return li.UnitCost.Mul(decimal.NewFromInt(li.Qty))
}

// Subtotal returns the derived requisition subtotal: the sum of qty x unit
// cost over all line items.
func Subtotal(r *Requisition) decimal.Decimal {
	total := decimal.Zero
	for _, li := range r.Items {
		total = total.Add(LineTotal(li))
	}
	return total
}

// SelectionTotal returns the running total of a prospective bundle: the sum
// of the selected requisitions' subtotals. Used to preview a PO before
// creation.
func SelectionTotal(reqs []*Requisition) decimal.Decimal {
	total := decimal.Zero
	for _, r := range reqs {
		total = total.Add(Subtotal(r))
	}
	return total
}

// POSubtotal returns the sum of item subtotals on a purchase order.
func POSubtotal(items []POItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// POTotal returns subtotal plus shipping.
func POTotal(subtotal, shippingCost decimal.Decimal) decimal.Decimal {
	return subtotal.Add(shippingCost)
}
