package models

import "github.com/google/uuid"

// Actor is the authenticated identity issuing a command. It is built per
// request and passed explicitly into every service call.
type Actor struct {
	ID          uuid.UUID
	Role        RoleKind
	CompanyID   *uuid.UUID
	FacilityIDs map[uuid.UUID]struct{}
}

// NewActorFromUser projects a stored user into an Actor.
func NewActorFromUser(u *User) *Actor {
	a := &Actor{
		ID:          u.ID,
		Role:        u.Role,
		FacilityIDs: make(map[uuid.UUID]struct{}, len(u.FacilityIDs)),
	}
	if u.Role.IsCompany() && u.CompanyID != nil {
		cid := *u.CompanyID
		a.CompanyID = &cid
	}
	if u.Role == RoleCompanyUser {
		for _, id := range u.FacilityIDs {
			a.FacilityIDs[id] = struct{}{}
		}
	}
	return a
}

// HasFacility reports whether the facility is in the actor's assignment set.
func (a *Actor) HasFacility(id uuid.UUID) bool {
	_, ok := a.FacilityIDs[id]
	return ok
}

// InCompany reports whether the actor is bound to the given company.
func (a *Actor) InCompany(id uuid.UUID) bool {
	return a.CompanyID != nil && *a.CompanyID == id
}
