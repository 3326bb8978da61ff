package access

import (
	"slices"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// UserChange describes the sensitive parts of a user write. Nil fields are
// left untouched.
type UserChange struct {
	Role         *models.RoleKind
	Status       *models.AccountStatusType
	CompanyID    *uuid.UUID
	ClearCompany bool
	FacilityIDs  []uuid.UUID
}

func (c UserChange) touchesCompany() bool { return c.CompanyID != nil || c.ClearCompany }

// GuardUserMutation runs every check a user update or delete must pass.
// target is nil for registrations. The result is always Unauthorized.
func (s *Scope) GuardUserMutation(target *models.User, ch UserChange) error {
	a := s.actor

	if target != nil && target.ID == a.ID {
		return utils.NewUnauthorizedError("you may not edit or delete your own account")
	}

	if a.Role == models.RoleCompanyUser &&
		(ch.Role != nil || ch.Status != nil || ch.touchesCompany()) {
		return utils.NewUnauthorizedError("COMPANY_USER may not change a user's role, status or company")
	}

	if err := s.Require(CapManageUsers); err != nil {
		return err
	}

	if target != nil {
		if err := s.Guard(UserResource(target)); err != nil {
			return err
		}
		if target.Role.IsSystem() && !s.Has(CapAssignSystemRoles) {
			return utils.NewUnauthorizedError("only SYSTEM_ADMIN may modify system accounts")
		}
	}

	if ch.Role != nil && ch.Role.IsSystem() && !s.Has(CapAssignSystemRoles) {
		return utils.NewUnauthorizedError("only SYSTEM_ADMIN may grant %s", *ch.Role)
	}

	if !s.Global() {
		if ch.ClearCompany || (ch.CompanyID != nil && !a.InCompany(*ch.CompanyID)) {
			return utils.NewUnauthorizedError("users may only be assigned to your own company")
		}
	}
	return nil
}

// FacilitiesOwned reports whether every id is in owned.
func FacilitiesOwned(ids []uuid.UUID, owned []*models.Facility) bool {
	for _, id := range ids {
		if !slices.ContainsFunc(owned, func(f *models.Facility) bool { return f.ID == id }) {
			return false
		}
	}
	return true
}
