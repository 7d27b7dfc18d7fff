package procure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/procure-engine/procure"
)

// =============================================================================
// CAPABILITY MATRIX
// =============================================================================

func TestAuthority_CapabilityMatrix(t *testing.T) {
	// GIVEN: Every role the engine knows about
	// WHEN: Checking each capability predicate
	// THEN: Exactly the documented roles hold each capability

	cases := []struct {
		role           procure.Role
		managerApprove bool
		cfoApprove     bool
		reject         bool
		createPO       bool
	}{
		{procure.RoleOperator, false, false, false, false},
		{procure.RoleBuyer, false, false, false, false},
		{procure.RoleSetup, false, false, false, false},
		{procure.RolePurchasing, false, false, false, true},
		{procure.RoleManager, true, false, true, true},
		{procure.RoleCFO, true, true, true, true},
		{procure.RoleAdmin, true, true, true, true},
		{procure.Role("unknown"), false, false, false, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.managerApprove, procure.CanManagerApprove(tc.role), "%s manager approve", tc.role)
		assert.Equal(t, tc.cfoApprove, procure.CanCFOApprove(tc.role), "%s cfo approve", tc.role)
		assert.Equal(t, tc.reject, procure.CanReject(tc.role), "%s reject", tc.role)
		assert.Equal(t, tc.createPO, procure.CanCreatePO(tc.role), "%s create po", tc.role)
	}
}

func TestAuthority_CanApproveDispatch(t *testing.T) {
	// GIVEN: The slot-based dispatcher
	// WHEN: Checking slots against roles
	// THEN: It matches the per-slot predicates, and unknown slots deny all

	assert.True(t, procure.CanApprove(procure.SlotManager, procure.RoleManager))
	assert.False(t, procure.CanApprove(procure.SlotCFO, procure.RoleManager))
	assert.True(t, procure.CanApprove(procure.SlotCFO, procure.RoleCFO))
	assert.False(t, procure.CanApprove(procure.ApproverSlot("intern"), procure.RoleAdmin))
}
