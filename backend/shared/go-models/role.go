package models

import "fmt"

// RoleKind is the staff role attached to every User.
type RoleKind string

const (
	RoleSystemAdmin  RoleKind = "SYSTEM_ADMIN"
	RoleSystemUser   RoleKind = "SYSTEM_USER"
	RoleCompanyAdmin RoleKind = "COMPANY_ADMIN"
	RoleCompanyUser  RoleKind = "COMPANY_USER"
)

// IsSystem reports whether the role carries global scope.
func (r RoleKind) IsSystem() bool {
	return r == RoleSystemAdmin || r == RoleSystemUser
}

// IsCompany reports whether the role is bound to a single company.
func (r RoleKind) IsCompany() bool {
	return r == RoleCompanyAdmin || r == RoleCompanyUser
}

func (r RoleKind) Valid() bool {
	return r.IsSystem() || r.IsCompany()
}

// ParseRole converts the wire form into a RoleKind.
func ParseRole(s string) (RoleKind, error) {
	r := RoleKind(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}
