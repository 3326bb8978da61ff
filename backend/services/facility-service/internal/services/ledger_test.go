package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

func TestNoteService_AddNote(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	hidden := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	staff := f.h.CreateTestActor(models.RoleCompanyUser, &c.ID, fac.ID)
	u := f.h.CreateTestUnit(fac, "N1", 40)
	hiddenUnit := f.h.CreateTestUnit(hidden, "N1", 40)

	n, err := f.notes.AddNote(ctx, staff, models.NoteTargetUnit, fac.ID, u.ID, dtos.AddNoteRequest{Message: "Lock replaced"})
	require.NoError(t, err)
	require.Equal(t, staff.ID, n.CreatedBy)
	require.Equal(t, fac.ID, n.FacilityID)
	require.Equal(t, c.ID, n.CompanyID)

	_, err = f.notes.AddNote(ctx, staff, models.NoteTargetUnit, fac.ID, u.ID, dtos.AddNoteRequest{
		Message: "Call back", RequiredResponse: true,
	})
	requireKind(t, err, utils.ErrCodeValidation)

	n2, err := f.notes.AddNote(ctx, staff, models.NoteTargetUnit, fac.ID, u.ID, dtos.AddNoteRequest{
		Message: "Call back", RequiredResponse: true, ResponseDate: utils.Ptr(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	require.True(t, n2.RequiredResponse)

	_, err = f.notes.AddNote(ctx, staff, models.NoteTargetUnit, hidden.ID, hiddenUnit.ID, dtos.AddNoteRequest{Message: "nope"})
	requireKind(t, err, utils.ErrCodeUnauthorized)

	notes, err := f.notes.List(ctx, staff, models.NoteTargetUnit, fac.ID, u.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "Lock replaced", notes[0].Message)

	_, err = f.notes.List(ctx, staff, models.NoteTargetUnit, hidden.ID, hiddenUnit.ID)
	requireKind(t, err, utils.ErrCodeNotFound)
}

func TestTenantService(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	admin := f.h.CreateTestActor(models.RoleCompanyAdmin, &c.ID)
	u := f.h.CreateTestUnit(fac, "T1", 40)

	in, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("Jane", "Doe"))
	require.NoError(t, err)

	got, err := f.tenants.Get(ctx, admin, fac.ID, in.Tenant.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane", got.FirstName)

	updated, err := f.tenants.Update(ctx, admin, fac.ID, in.Tenant.ID, dtos.UpdateTenantRequest{
		RowVersion: got.RowVersion,
		Contact:    &models.ContactInfo{Email: "jane@doe.test"},
	})
	require.NoError(t, err)
	require.Equal(t, "jane@doe.test", updated.Contact.Email)
	require.Equal(t, []uuid.UUID{u.ID}, updated.UnitIDs, "bindings survive a profile edit")

	_, err = f.tenants.Update(ctx, admin, fac.ID, in.Tenant.ID, dtos.UpdateTenantRequest{
		RowVersion: got.RowVersion,
		FirstName:  utils.StrPtr("Janet"),
	})
	requireKind(t, err, utils.ErrCodeRowVersionConflict)

	page, err := f.tenants.ListByFacility(ctx, admin, fac.ID, false, utils.TableQuery{Search: "doe"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	other := f.h.CreateTestCompany("Other")
	outsider := f.h.CreateTestActor(models.RoleCompanyAdmin, &other.ID)
	_, err = f.tenants.Get(ctx, outsider, fac.ID, in.Tenant.ID)
	requireKind(t, err, utils.ErrCodeNotFound)
	_, err = f.tenants.Update(ctx, outsider, fac.ID, in.Tenant.ID, dtos.UpdateTenantRequest{
		RowVersion: updated.RowVersion, FirstName: utils.StrPtr("X"),
	})
	requireKind(t, err, utils.ErrCodeUnauthorized)
}

func TestEventService_ListIsScoped(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	sys := f.systemAdmin()
	c := f.h.CreateTestCompany("Acme")
	other := f.h.CreateTestCompany("Other")
	f1 := f.h.CreateTestFacility(c.ID, models.FacilityStatusPendingDeployment)
	f2 := f.h.CreateTestFacility(c.ID, models.FacilityStatusPendingDeployment)
	f3 := f.h.CreateTestFacility(other.ID, models.FacilityStatusPendingDeployment)
	for _, fac := range []*models.Facility{f1, f2, f3} {
		_, err := f.facilities.Deploy(ctx, sys, fac.ID)
		require.NoError(t, err)
	}

	staff := f.h.CreateTestActor(models.RoleCompanyUser, &c.ID, f1.ID)
	page, err := f.events.List(ctx, staff, models.EventFilter{}, utils.TableQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, f1.ID, *page.Data[0].FacilityID)

	admin := f.h.CreateTestActor(models.RoleCompanyAdmin, &c.ID)
	page, err = f.events.List(ctx, admin, models.EventFilter{}, utils.TableQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)

	page, err = f.events.List(ctx, sys, models.EventFilter{FacilityID: &f3.ID}, utils.TableQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, sys.ID, page.Data[0].ActorID)
	require.NotNil(t, page.Data[0].Details)

	typ := models.EventTypeUnit
	page, err = f.events.List(ctx, sys, models.EventFilter{EventType: &typ}, utils.TableQuery{})
	require.NoError(t, err)
	require.Zero(t, page.Total)

	from := f.h.Clock.Now()
	page, err = f.events.List(ctx, sys, models.EventFilter{From: &from}, utils.TableQuery{})
	require.NoError(t, err)
	require.Zero(t, page.Total)

	to := from.Add(-time.Hour)
	_, err = f.events.List(ctx, sys, models.EventFilter{From: &from, To: &to}, utils.TableQuery{})
	requireKind(t, err, utils.ErrCodeValidation)
}

func TestCompanyService(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	sys := f.systemAdmin()

	req := dtos.CreateCompanyRequest{
		Name:    "Stow Co",
		Contact: models.ContactInfo{PhoneNumber: "+15555550123"},
		Address: models.Address{Street: "1 Main", City: "Austin", State: "TX", ZipCode: "73301"},
	}
	c, err := f.companies.Create(ctx, sys, req)
	require.NoError(t, err)
	require.Equal(t, models.CompanyStatusEnabled, c.Status)

	admin := f.h.CreateTestActor(models.RoleCompanyAdmin, &c.ID)
	_, err = f.companies.Create(ctx, admin, req)
	requireKind(t, err, utils.ErrCodeUnauthorized)

	disabled, err := f.companies.Update(ctx, sys, dtos.UpdateCompanyRequest{
		ID: c.ID, RowVersion: c.RowVersion, Status: utils.Ptr(models.CompanyStatusDisabled),
	})
	require.NoError(t, err)
	require.Equal(t, models.CompanyStatusDisabled, disabled.Status)

	_, err = f.companies.Update(ctx, sys, dtos.UpdateCompanyRequest{
		ID: c.ID, RowVersion: c.RowVersion, Name: utils.StrPtr("Stale"),
	})
	requireKind(t, err, utils.ErrCodeRowVersionConflict)

	f.h.CreateTestCompany("Hidden")
	page, err := f.companies.List(ctx, admin, utils.TableQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, c.ID, page.Data[0].ID)

	all, err := f.companies.List(ctx, sys, utils.TableQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, all.Total)

	require.Equal(t, []string{models.EventCompanyCreated, models.EventCompanyUpdated}, f.eventNames())
}
