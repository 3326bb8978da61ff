package access

import "github.com/stowpoint/mono-repo/backend/shared/go-models"

type Capability string

const (
	CapGlobalScope       Capability = "GLOBAL_SCOPE"
	CapManageCompanies   Capability = "MANAGE_COMPANIES"
	CapManageFacilities  Capability = "MANAGE_FACILITIES"
	CapManageUnits       Capability = "MANAGE_UNITS"
	CapManageTenants     Capability = "MANAGE_TENANTS"
	CapAddNotes          Capability = "ADD_NOTES"
	CapManageUsers       Capability = "MANAGE_USERS"
	CapAssignSystemRoles Capability = "ASSIGN_SYSTEM_ROLES"
	CapViewEvents        Capability = "VIEW_EVENTS"
)

// Capabilities is the bundle granted to one role.
type Capabilities map[Capability]struct{}

func (c Capabilities) Has(cap Capability) bool {
	_, ok := c[cap]
	return ok
}

// List returns the bundle in a stable order for API responses.
func (c Capabilities) List() []Capability {
	out := make([]Capability, 0, len(c))
	for _, cap := range allCapabilities {
		if c.Has(cap) {
			out = append(out, cap)
		}
	}
	return out
}

var allCapabilities = []Capability{
	CapGlobalScope, CapManageCompanies, CapManageFacilities, CapManageUnits,
	CapManageTenants, CapAddNotes, CapManageUsers, CapAssignSystemRoles, CapViewEvents,
}

var roleCapabilities = map[models.RoleKind][]Capability{
	models.RoleSystemAdmin: allCapabilities,
	models.RoleSystemUser: {
		CapGlobalScope, CapManageCompanies, CapManageFacilities, CapManageUnits,
		CapManageTenants, CapAddNotes, CapManageUsers, CapViewEvents,
	},
	models.RoleCompanyAdmin: {
		CapManageFacilities, CapManageUnits, CapManageTenants, CapAddNotes,
		CapManageUsers, CapViewEvents,
	},
	models.RoleCompanyUser: {
		CapManageUnits, CapManageTenants, CapAddNotes, CapViewEvents,
	},
}

// CapabilitiesFor returns the bundle for role. Unknown roles get nothing.
func CapabilitiesFor(role models.RoleKind) Capabilities {
	caps := Capabilities{}
	for _, c := range roleCapabilities[role] {
		caps[c] = struct{}{}
	}
	return caps
}
