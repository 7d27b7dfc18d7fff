/*
authority.go - Role capability predicates

PURPOSE:
  One source of truth for who may do what. The UI disables controls for
  unauthorized roles, but that is a display affordance only: the Ledger and
  Bundler call these predicates on every mutating operation, so the rule set
  holds even against a hand-crafted request.

RULES:
  manager approve:  manager, cfo, admin
  cfo approve:      cfo, admin
  reject:           manager, cfo, admin
  create PO:        purchasing, manager, cfo, admin

The CFO's authority supersedes the manager's: a CFO may approve directly from
submitted without a prior manager checkpoint.

SEE ALSO:
  - ledger.go, bundler.go: Callers
*/
package procure

// Stateless predicate set; pure functions of the role.

// CanManagerApprove reports whether role may fill the manager approval slot.
func CanManagerApprove(role Role) bool {
	switch role {
	case RoleManager, RoleCFO, RoleAdmin:
		return true
	}
	return false
}

// CanCFOApprove reports whether role may fill the cfo approval slot.
func CanCFOApprove(role Role) bool {
	switch role {
	case RoleCFO, RoleAdmin:
		return true
	}
	return false
}

// CanReject reports whether role may reject a requisition.
func CanReject(role Role) bool {
	return CanManagerApprove(role)
}

// CanCreatePO reports whether role may bundle requisitions into a purchase
// order.
func CanCreatePO(role Role) bool {
	switch role {
	case RolePurchasing, RoleManager, RoleCFO, RoleAdmin:
		return true
	}
	return false
}

// CanApprove reports whether role may fill the given approval slot.
func CanApprove(slot ApproverSlot, role Role) bool {
	switch slot {
	case SlotManager:
		return CanManagerApprove(role)
	case SlotCFO:
		return CanCFOApprove(role)
	}
	return false
}
