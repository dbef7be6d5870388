package domain

import "strings"

// Role is the capacity a principal acts in.
type Role string

const (
	RoleOwner Role = "owner"
	RoleStaff Role = "staff"

	// RoleAdmin is the legacy name for shop owners and resolves like RoleOwner.
	RoleAdmin Role = "admin"
)

// Principal is the acting identity on a request, as loaded by the authentication layer.
type Principal struct {
	ID      string
	Role    Role
	OwnerID string
}

// ResolveTenant maps a principal to the tenant id every ledger operation is scoped to.
// Owners are their own tenant; staff act on behalf of the owner that created them.
func ResolveTenant(p Principal) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", &ValidationError{Field: "principal.id", Reason: "must not be empty"}
	}

	switch p.Role {
	case RoleOwner, RoleAdmin:
		return p.ID, nil
	case RoleStaff:
		if strings.TrimSpace(p.OwnerID) == "" {
			return "", ErrDanglingStaffAccount
		}
		return p.OwnerID, nil
	default:
		return "", ErrUnauthorizedRole
	}
}
