package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

type world struct {
	companyA, companyB uuid.UUID
	f1, f2, fB         *models.Facility
}

func newWorld() world {
	w := world{companyA: uuid.New(), companyB: uuid.New()}
	w.f1 = &models.Facility{ID: uuid.New(), CompanyID: w.companyA}
	w.f2 = &models.Facility{ID: uuid.New(), CompanyID: w.companyA}
	w.fB = &models.Facility{ID: uuid.New(), CompanyID: w.companyB}
	return w
}

func actor(role models.RoleKind, company *uuid.UUID, facilities ...uuid.UUID) *models.Actor {
	return models.NewActorFromUser(&models.User{
		ID: uuid.New(), Role: role, CompanyID: company, FacilityIDs: facilities,
	})
}

func TestCapabilitiesFor(t *testing.T) {
	require.True(t, CapabilitiesFor(models.RoleSystemAdmin).Has(CapAssignSystemRoles))
	require.False(t, CapabilitiesFor(models.RoleSystemUser).Has(CapAssignSystemRoles))
	require.True(t, CapabilitiesFor(models.RoleCompanyAdmin).Has(CapManageFacilities))
	require.False(t, CapabilitiesFor(models.RoleCompanyAdmin).Has(CapGlobalScope))
	require.False(t, CapabilitiesFor(models.RoleCompanyUser).Has(CapManageUsers))
	require.True(t, CapabilitiesFor(models.RoleCompanyUser).Has(CapManageUnits))
	require.Empty(t, CapabilitiesFor(models.RoleKind("GUEST")))
	require.Equal(t,
		[]Capability{CapManageUnits, CapManageTenants, CapAddNotes, CapViewEvents},
		CapabilitiesFor(models.RoleCompanyUser).List())
}

func TestScope_SystemRolesAllowEverything(t *testing.T) {
	w := newWorld()
	for _, role := range []models.RoleKind{models.RoleSystemAdmin, models.RoleSystemUser} {
		s := Resolve(actor(role, nil))
		require.True(t, s.Allows(FacilityResource(w.fB)))
		require.True(t, s.AllowsMutation(CompanyResource(&models.Company{ID: w.companyA})))
		require.True(t, s.Allows(UserResource(&models.User{ID: uuid.New()})))
	}
}

func TestScope_CompanyRule(t *testing.T) {
	w := newWorld()
	s := Resolve(actor(models.RoleCompanyAdmin, &w.companyA))
	require.True(t, s.Allows(CompanyResource(&models.Company{ID: w.companyA})))
	require.False(t, s.Allows(CompanyResource(&models.Company{ID: w.companyB})))
}

func TestScope_FacilityContainment(t *testing.T) {
	w := newWorld()

	admin := Resolve(actor(models.RoleCompanyAdmin, &w.companyA))
	require.True(t, admin.Allows(FacilityResource(w.f1)))
	require.True(t, admin.Allows(FacilityResource(w.f2)))
	require.False(t, admin.Allows(FacilityResource(w.fB)))

	staff := Resolve(actor(models.RoleCompanyUser, &w.companyA, w.f1.ID))
	require.True(t, staff.Allows(FacilityResource(w.f1)))
	require.False(t, staff.Allows(FacilityResource(w.f2)))
	require.False(t, staff.Allows(FacilityResource(w.fB)))

	unitInF2 := &models.Unit{ID: uuid.New(), FacilityID: w.f2.ID, CompanyID: w.companyA}
	require.False(t, staff.Allows(UnitResource(unitInF2)))
	tenantInF1 := &models.Tenant{ID: uuid.New(), FacilityID: w.f1.ID, CompanyID: w.companyA}
	require.True(t, staff.AllowsMutation(TenantResource(tenantInF1)))

	// A facility id from another company never leaks in via the assignment set.
	cross := Resolve(actor(models.RoleCompanyUser, &w.companyA, w.fB.ID))
	require.False(t, cross.Allows(FacilityResource(w.fB)))
}

func TestScope_CompanyUserNeverSeesUnassignedFacility(t *testing.T) {
	companyID := uuid.New()
	assigned := []uuid.UUID{uuid.New(), uuid.New()}
	s := Resolve(actor(models.RoleCompanyUser, &companyID, assigned...))
	for i := 0; i < 50; i++ {
		f := &models.Facility{ID: uuid.New(), CompanyID: companyID}
		require.False(t, s.Allows(FacilityResource(f)))
	}
}

func TestScope_EventsWithoutFacility(t *testing.T) {
	w := newWorld()
	ev := &models.DomainEvent{ID: uuid.New(), CompanyID: &w.companyA}
	require.True(t, Resolve(actor(models.RoleCompanyAdmin, &w.companyA)).Allows(EventResource(ev)))
	require.False(t, Resolve(actor(models.RoleCompanyUser, &w.companyA, w.f1.ID)).Allows(EventResource(ev)))
}

func TestScope_UserRule(t *testing.T) {
	w := newWorld()
	staffActor := actor(models.RoleCompanyUser, &w.companyA, w.f1.ID)
	staff := Resolve(staffActor)
	colleague := &models.User{ID: uuid.New(), Role: models.RoleCompanyUser, CompanyID: &w.companyA}
	outsider := &models.User{ID: uuid.New(), Role: models.RoleCompanyUser, CompanyID: &w.companyB}
	self := &models.User{ID: staffActor.ID, CompanyID: &w.companyA}

	require.True(t, staff.Allows(UserResource(self)))
	require.True(t, staff.AllowsMutation(UserResource(self)))
	require.True(t, staff.Allows(UserResource(colleague)))
	require.False(t, staff.AllowsMutation(UserResource(colleague)))
	require.False(t, staff.Allows(UserResource(outsider)))

	admin := Resolve(actor(models.RoleCompanyAdmin, &w.companyA))
	require.True(t, admin.AllowsMutation(UserResource(colleague)))
	require.False(t, admin.Allows(UserResource(outsider)))
	require.False(t, admin.Allows(UserResource(&models.User{ID: uuid.New(), Role: models.RoleSystemUser})))
}

func TestScope_GuardAndVisibleErrorKinds(t *testing.T) {
	w := newWorld()
	s := Resolve(actor(models.RoleCompanyAdmin, &w.companyA))

	err := s.Guard(FacilityResource(w.fB))
	require.True(t, utils.IsKind(err, utils.ErrCodeUnauthorized))

	err = s.Visible(FacilityResource(w.fB))
	require.True(t, utils.IsKind(err, utils.ErrCodeNotFound))

	require.NoError(t, s.Guard(FacilityResource(w.f1)))
	require.True(t, utils.IsKind(s.Require(CapManageCompanies), utils.ErrCodeUnauthorized))
}

func TestFilter(t *testing.T) {
	w := newWorld()
	s := Resolve(actor(models.RoleCompanyUser, &w.companyA, w.f1.ID))
	got := Filter(s, []*models.Facility{w.f1, w.f2, w.fB}, FacilityResource)
	require.Equal(t, []*models.Facility{w.f1}, got)
}

func TestGuardUserMutation(t *testing.T) {
	w := newWorld()
	adminRole := models.RoleCompanyAdmin
	sysRole := models.RoleSystemAdmin
	disabled := models.AccountStatusDisabled

	staffActor := actor(models.RoleCompanyUser, &w.companyA, w.f1.ID)
	adminActor := actor(models.RoleCompanyAdmin, &w.companyA)
	colleague := &models.User{ID: uuid.New(), Role: models.RoleCompanyUser, CompanyID: &w.companyA}

	cases := []struct {
		name   string
		actor  *models.Actor
		target *models.User
		change UserChange
		ok     bool
	}{
		{"company user escalates colleague", staffActor, colleague, UserChange{Role: &adminRole}, false},
		{"company user moves colleague", staffActor, colleague, UserChange{CompanyID: &w.companyB}, false},
		{"company user disables colleague", staffActor, colleague, UserChange{Status: &disabled}, false},
		{"company user edits self", staffActor, &models.User{ID: staffActor.ID, CompanyID: &w.companyA}, UserChange{}, false},
		{"admin edits self", adminActor, &models.User{ID: adminActor.ID, CompanyID: &w.companyA}, UserChange{}, false},
		{"admin disables colleague", adminActor, colleague, UserChange{Status: &disabled}, true},
		{"admin grants system role", adminActor, colleague, UserChange{Role: &sysRole}, false},
		{"admin moves user out of company", adminActor, colleague, UserChange{CompanyID: &w.companyB}, false},
		{"admin registers in own company", adminActor, nil, UserChange{Role: &adminRole, CompanyID: &w.companyA}, true},
		{"system user grants system role", actor(models.RoleSystemUser, nil), colleague, UserChange{Role: &sysRole}, false},
		{"system admin grants system role", actor(models.RoleSystemAdmin, nil), colleague, UserChange{Role: &sysRole}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Resolve(tc.actor).GuardUserMutation(tc.target, tc.change)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.True(t, utils.IsKind(err, utils.ErrCodeUnauthorized), "got %v", err)
		})
	}
}
