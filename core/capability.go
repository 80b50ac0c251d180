package core

// =============================================================================
// CAPABILITY CLASSIFIER - Owner / Manager / Staff
// =============================================================================

// Role is the single place role strings are classified. Authorization-
// sensitive operations (force clock-out, bulk approvals, financial
// visibility) take a Role explicitly instead of reading ambient context.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// ClassifyRole maps a raw role string to a known Role. Unknown strings
// classify as staff, the least-privileged role.
func ClassifyRole(s string) Role {
	switch Role(s) {
	case RoleOwner:
		return RoleOwner
	case RoleManager:
		return RoleManager
	default:
		return RoleStaff
	}
}

// IsManagerial reports whether the role carries manager-level capability.
func (r Role) IsManagerial() bool { return r == RoleOwner || r == RoleManager }

// CanForceClockOut reports whether the role may close another worker's
// time entry. The ledger itself performs no authorization check; callers
// gate on this before invoking ForceClockOut.
func (r Role) CanForceClockOut() bool { return r.IsManagerial() }

// CanApprovePay reports whether the role may approve or release pay stubs.
func (r Role) CanApprovePay() bool { return r.IsManagerial() }

// CanSeeFinancials reports whether the role sees pay figures regardless
// of stub status.
func (r Role) CanSeeFinancials() bool { return r.IsManagerial() }
