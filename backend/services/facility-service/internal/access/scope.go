// Package access decides what an actor may see and change.
//
// Rules, first match wins:
//  1. system roles allow everything;
//  2. a company is allowed when it is the actor's company;
//  3. facility-bound resources need a company match and, for a
//     COMPANY_USER, a facility in the actor's assignment set;
//  4. users: self always, same-company users for company roles
//     (COMPANY_USER read-only for anyone but itself);
//  5. deny.
package access

import (
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// Scope is the resolved view of one actor for the length of a request.
type Scope struct {
	actor *models.Actor
	caps  Capabilities
}

func Resolve(actor *models.Actor) *Scope {
	return &Scope{actor: actor, caps: CapabilitiesFor(actor.Role)}
}

func (s *Scope) Actor() *models.Actor       { return s.actor }
func (s *Scope) Capabilities() Capabilities { return s.caps }

func (s *Scope) Has(c Capability) bool { return s.caps.Has(c) }

// Global reports whether the actor sees every company.
func (s *Scope) Global() bool { return s.caps.Has(CapGlobalScope) }

// Allows is the read predicate.
func (s *Scope) Allows(r Resource) bool {
	return s.decide(r, false)
}

// AllowsMutation is the write predicate.
func (s *Scope) AllowsMutation(r Resource) bool {
	return s.decide(r, true)
}

func (s *Scope) decide(r Resource, mutate bool) bool {
	a := s.actor
	if s.Global() {
		return true
	}

	switch r.Kind {
	case KindCompany:
		return r.CompanyID != nil && a.InCompany(*r.CompanyID)

	case KindFacility, KindUnit, KindTenant, KindNote, KindEvent:
		if r.CompanyID == nil || !a.InCompany(*r.CompanyID) {
			return false
		}
		if a.Role == models.RoleCompanyUser {
			return r.FacilityID != nil && a.HasFacility(*r.FacilityID)
		}
		return true

	case KindUser:
		if r.ID == a.ID {
			return true
		}
		if r.CompanyID == nil || !a.InCompany(*r.CompanyID) {
			return false
		}
		switch a.Role {
		case models.RoleCompanyAdmin:
			return true
		case models.RoleCompanyUser:
			return !mutate
		}
	}
	return false
}

// Require fails with Unauthorized unless the actor holds cap.
func (s *Scope) Require(c Capability) error {
	if !s.caps.Has(c) {
		return utils.NewUnauthorizedError("%s may not perform this action", s.actor.Role)
	}
	return nil
}

// Guard is the single-resource check for commands.
func (s *Scope) Guard(r Resource) error {
	if !s.AllowsMutation(r) {
		return utils.NewUnauthorizedError("%s %s is outside your scope", r.Kind, r.ID)
	}
	return nil
}

// Visible is the single-resource check for id-addressed reads. It does not
// reveal whether an out-of-scope resource exists.
func (s *Scope) Visible(r Resource) error {
	if !s.Allows(r) {
		return utils.NewNotFoundError("%s not found", r.Kind)
	}
	return nil
}

// Filter keeps the items the actor may read.
func Filter[T any](s *Scope, items []T, toResource func(T) Resource) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if s.Allows(toResource(it)) {
			out = append(out, it)
		}
	}
	return out
}
