package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories/memory"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

func newTenant(first, last string) dtos.MoveInRequest {
	return dtos.MoveInRequest{Tenant: &dtos.NewTenantRequest{FirstName: first, LastName: last}}
}

// The lifecycle walk-through: deploy, move in, miss a payment, fail to
// move out, settle and move out.
func TestUnitService_Lifecycle(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	c := f.h.CreateTestCompany("Acme")
	admin := f.h.CreateTestActor(models.RoleCompanyAdmin, &c.ID)
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusPendingDeployment)
	u1 := f.h.CreateTestUnit(fac, "U1", 120)

	deployed, err := f.facilities.Deploy(ctx, admin, fac.ID)
	require.NoError(t, err)
	require.Equal(t, models.FacilityStatusEnabled, deployed.Status)

	in, err := f.units.MoveIn(ctx, admin, fac.ID, u1.ID, newTenant("Tom", "One"))
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusRented, in.Unit.Status)
	require.Equal(t, in.Tenant.ID, *in.Unit.TenantID)
	require.NotNil(t, in.Unit.LastMoveInDate)
	require.Nil(t, in.Unit.LastMoveOutDate)
	require.Equal(t, []uuid.UUID{u1.ID}, in.Tenant.UnitIDs)

	missed, err := f.units.MissPayment(ctx, admin, fac.ID, u1.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusDelinquent, missed.Status)
	require.Equal(t, 120.0, missed.PaymentInfo.Balance)

	_, err = f.units.MoveOut(ctx, admin, fac.ID, u1.ID, false)
	requireKind(t, err, utils.ErrCodeConflict)

	settled, err := f.units.SettleBalance(ctx, admin, fac.ID, u1.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusRented, settled.Status)
	require.Zero(t, settled.PaymentInfo.Balance)

	out, err := f.units.MoveOut(ctx, admin, fac.ID, u1.ID, false)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusVacant, out.Unit.Status)
	require.Nil(t, out.Unit.TenantID)
	require.NotNil(t, out.Unit.LastMoveOutDate)
	require.True(t, out.Unit.LastMoveOutDate.After(*out.Unit.LastMoveInDate))

	tenant, err := f.h.TenantRepo.GetByID(ctx, in.Tenant.ID)
	require.NoError(t, err)
	require.Empty(t, tenant.UnitIDs)
	require.NotNil(t, tenant.ArchivedAt, "default retention archives the tenant")

	require.Equal(t, []string{
		models.EventFacilityDeployed,
		models.EventUnitMovedIn,
		models.EventUnitPaymentMissed,
		models.EventUnitBalanceSettled,
		models.EventUnitMovedOut,
	}, f.eventNames())
}

func TestUnitService_MoveInRules(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	admin := f.systemAdmin()
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	otherFac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)

	t.Run("occupied unit conflicts", func(t *testing.T) {
		u := f.h.CreateTestUnit(fac, "B1", 50)
		_, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("A", "B"))
		require.NoError(t, err)
		_, err = f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("C", "D"))
		requireKind(t, err, utils.ErrCodeConflict)
	})

	t.Run("unavailable unit conflicts", func(t *testing.T) {
		u := f.h.CreateTestUnit(fac, "B2", 50)
		_, err := f.units.Update(ctx, admin, fac.ID, u.ID, dtos.UpdateUnitRequest{
			RowVersion: u.RowVersion, Availability: utils.Ptr(false),
		})
		require.NoError(t, err)
		_, err = f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("A", "B"))
		requireKind(t, err, utils.ErrCodeConflict)
	})

	t.Run("tenant from another facility is rejected", func(t *testing.T) {
		elsewhere := f.h.CreateTestUnit(otherFac, "X1", 50)
		in, err := f.units.MoveIn(ctx, admin, otherFac.ID, elsewhere.ID, newTenant("Far", "Away"))
		require.NoError(t, err)

		u := f.h.CreateTestUnit(fac, "B3", 50)
		_, err = f.units.MoveIn(ctx, admin, fac.ID, u.ID, dtos.MoveInRequest{TenantID: &in.Tenant.ID})
		requireKind(t, err, utils.ErrCodeValidation)
	})

	t.Run("existing tenant takes a second unit", func(t *testing.T) {
		u1 := f.h.CreateTestUnit(fac, "B4", 50)
		u2 := f.h.CreateTestUnit(fac, "B5", 50)
		first, err := f.units.MoveIn(ctx, admin, fac.ID, u1.ID, newTenant("Two", "Units"))
		require.NoError(t, err)
		second, err := f.units.MoveIn(ctx, admin, fac.ID, u2.ID, dtos.MoveInRequest{TenantID: &first.Tenant.ID})
		require.NoError(t, err)
		require.ElementsMatch(t, []uuid.UUID{u1.ID, u2.ID}, second.Tenant.UnitIDs)
	})

	t.Run("both or neither tenant forms is a validation error", func(t *testing.T) {
		u := f.h.CreateTestUnit(fac, "B6", 50)
		_, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, dtos.MoveInRequest{})
		requireKind(t, err, utils.ErrCodeValidation)
	})

	t.Run("unit addressed through the wrong facility is not found", func(t *testing.T) {
		u := f.h.CreateTestUnit(fac, "B7", 50)
		_, err := f.units.MoveIn(ctx, admin, otherFac.ID, u.ID, newTenant("A", "B"))
		requireKind(t, err, utils.ErrCodeNotFound)
	})
}

func TestUnitService_StateGuards(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	admin := f.systemAdmin()
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	u := f.h.CreateTestUnit(fac, "C1", 80)

	_, err := f.units.MissPayment(ctx, admin, fac.ID, u.ID, nil)
	requireKind(t, err, utils.ErrCodeInvalidTransition)
	_, err = f.units.SettleBalance(ctx, admin, fac.ID, u.ID, nil)
	requireKind(t, err, utils.ErrCodeInvalidTransition)
	_, err = f.units.MoveOut(ctx, admin, fac.ID, u.ID, false)
	requireKind(t, err, utils.ErrCodeInvalidTransition)
	_, err = f.units.RecordPayment(ctx, admin, fac.ID, u.ID, 10)
	requireKind(t, err, utils.ErrCodeInvalidTransition)

	_, err = f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("A", "B"))
	require.NoError(t, err)
	_, err = f.units.SettleBalance(ctx, admin, fac.ID, u.ID, nil)
	requireKind(t, err, utils.ErrCodeInvalidTransition)
	_, err = f.units.MissPayment(ctx, admin, fac.ID, u.ID, utils.Ptr(-5.0))
	requireKind(t, err, utils.ErrCodeValidation)
}

func TestUnitService_Payments(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	admin := f.systemAdmin()
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	u := f.h.CreateTestUnit(fac, "D1", 100)

	_, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("Pay", "Er"))
	require.NoError(t, err)
	_, err = f.units.MissPayment(ctx, admin, fac.ID, u.ID, utils.Ptr(150.0))
	require.NoError(t, err)

	partial, err := f.units.RecordPayment(ctx, admin, fac.ID, u.ID, 100)
	require.NoError(t, err)
	require.Equal(t, 50.0, partial.PaymentInfo.Balance)
	require.Equal(t, models.UnitStatusDelinquent, partial.Status, "payments never change status")

	_, err = f.units.SettleBalance(ctx, admin, fac.ID, u.ID, utils.Ptr(20.0))
	requireKind(t, err, utils.ErrCodeConflict)

	settled, err := f.units.SettleBalance(ctx, admin, fac.ID, u.ID, utils.Ptr(70.0))
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusRented, settled.Status)
	require.Zero(t, settled.PaymentInfo.Balance)
	require.Equal(t, 20.0, settled.PaymentInfo.PrepaidCredit)
}

func TestUnitService_PrepaidCredit(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	admin := f.systemAdmin()
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	u := f.h.CreateTestUnit(fac, "P1", 100)

	_, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("Pre", "Paid"))
	require.NoError(t, err)
	paid, err := f.units.RecordPayment(ctx, admin, fac.ID, u.ID, 150)
	require.NoError(t, err)
	require.Equal(t, 150.0, paid.PaymentInfo.PrepaidCredit)

	t.Run("credit covers the whole charge", func(t *testing.T) {
		got, err := f.units.MissPayment(ctx, admin, fac.ID, u.ID, nil)
		require.NoError(t, err)
		require.Equal(t, models.UnitStatusRented, got.Status)
		require.Zero(t, got.PaymentInfo.Balance)
		require.Equal(t, 50.0, got.PaymentInfo.PrepaidCredit)
		require.Equal(t, 100.0, f.lastDetails(models.EventUnitPaymentMissed)["credit_applied"])
	})

	t.Run("credit covers part of the charge", func(t *testing.T) {
		got, err := f.units.MissPayment(ctx, admin, fac.ID, u.ID, nil)
		require.NoError(t, err)
		require.Equal(t, models.UnitStatusDelinquent, got.Status)
		require.Equal(t, 50.0, got.PaymentInfo.Balance)
		require.Zero(t, got.PaymentInfo.PrepaidCredit)
	})

	t.Run("move-out records forfeited credit", func(t *testing.T) {
		_, err := f.units.SettleBalance(ctx, admin, fac.ID, u.ID, utils.Ptr(80.0))
		require.NoError(t, err)

		out, err := f.units.MoveOut(ctx, admin, fac.ID, u.ID, false)
		require.NoError(t, err)
		require.Zero(t, out.Unit.PaymentInfo.PrepaidCredit)

		details := f.lastDetails(models.EventUnitMovedOut)
		require.Equal(t, 30.0, details["prepaid_credit_forfeited"])
		require.Equal(t, 0.0, details["balance_written_off"])
	})
}

func TestUnitService_MoveOutOverridePolicy(t *testing.T) {
	setup := func(t *testing.T, policy Policy) (*fixture, *models.Actor, *models.Facility, *models.Unit) {
		f := newFixture(t, policy)
		admin := f.systemAdmin()
		c := f.h.CreateTestCompany("Acme")
		fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
		u := f.h.CreateTestUnit(fac, "E1", 60)
		_, err := f.units.MoveIn(f.h.Ctx, admin, fac.ID, u.ID, newTenant("Owes", "Money"))
		require.NoError(t, err)
		_, err = f.units.MissPayment(f.h.Ctx, admin, fac.ID, u.ID, nil)
		require.NoError(t, err)
		return f, admin, fac, u
	}

	t.Run("policy off refuses the override", func(t *testing.T) {
		f, admin, fac, u := setup(t, Policy{AllowMoveOutWithBalance: false})
		_, err := f.units.MoveOut(f.h.Ctx, admin, fac.ID, u.ID, true)
		requireKind(t, err, utils.ErrCodeConflict)
	})

	t.Run("policy on still needs the override", func(t *testing.T) {
		f, admin, fac, u := setup(t, Policy{AllowMoveOutWithBalance: true})
		_, err := f.units.MoveOut(f.h.Ctx, admin, fac.ID, u.ID, false)
		requireKind(t, err, utils.ErrCodeConflict)
	})

	t.Run("policy on with override moves out", func(t *testing.T) {
		f, admin, fac, u := setup(t, Policy{AllowMoveOutWithBalance: true})
		out, err := f.units.MoveOut(f.h.Ctx, admin, fac.ID, u.ID, true)
		require.NoError(t, err)
		require.Equal(t, models.UnitStatusVacant, out.Unit.Status)
		require.Zero(t, out.Unit.PaymentInfo.Balance)
	})
}

func TestUnitService_TenantRetention(t *testing.T) {
	t.Run("archive keeps the record", func(t *testing.T) {
		f := newFixture(t, Policy{TenantRetention: models.TenantRetentionArchive})
		admin := f.systemAdmin()
		c := f.h.CreateTestCompany("Acme")
		fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
		u := f.h.CreateTestUnit(fac, "F1", 60)
		in, err := f.units.MoveIn(f.h.Ctx, admin, fac.ID, u.ID, newTenant("Arch", "Ived"))
		require.NoError(t, err)

		out, err := f.units.MoveOut(f.h.Ctx, admin, fac.ID, u.ID, false)
		require.NoError(t, err)
		require.NotNil(t, out.Tenant)
		require.NotNil(t, out.Tenant.ArchivedAt)

		active, err := f.tenants.ListByFacility(f.h.Ctx, admin, fac.ID, false, utils.TableQuery{})
		require.NoError(t, err)
		require.Zero(t, active.Total)
		all, err := f.tenants.ListByFacility(f.h.Ctx, admin, fac.ID, true, utils.TableQuery{})
		require.NoError(t, err)
		require.Equal(t, 1, all.Total)
		require.Equal(t, in.Tenant.ID, all.Data[0].ID)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		f := newFixture(t, Policy{TenantRetention: models.TenantRetentionDelete})
		admin := f.systemAdmin()
		c := f.h.CreateTestCompany("Acme")
		fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
		u := f.h.CreateTestUnit(fac, "F1", 60)
		in, err := f.units.MoveIn(f.h.Ctx, admin, fac.ID, u.ID, newTenant("Gone", "Soon"))
		require.NoError(t, err)

		out, err := f.units.MoveOut(f.h.Ctx, admin, fac.ID, u.ID, false)
		require.NoError(t, err)
		require.Nil(t, out.Tenant)

		gone, err := f.h.TenantRepo.GetByID(f.h.Ctx, in.Tenant.ID)
		require.NoError(t, err)
		require.Nil(t, gone)
	})

	t.Run("tenant with another unit is kept active", func(t *testing.T) {
		f := newFixture(t, Policy{TenantRetention: models.TenantRetentionDelete})
		admin := f.systemAdmin()
		c := f.h.CreateTestCompany("Acme")
		fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
		u1 := f.h.CreateTestUnit(fac, "G1", 60)
		u2 := f.h.CreateTestUnit(fac, "G2", 60)
		in, err := f.units.MoveIn(f.h.Ctx, admin, fac.ID, u1.ID, newTenant("Keep", "Me"))
		require.NoError(t, err)
		_, err = f.units.MoveIn(f.h.Ctx, admin, fac.ID, u2.ID, dtos.MoveInRequest{TenantID: &in.Tenant.ID})
		require.NoError(t, err)

		out, err := f.units.MoveOut(f.h.Ctx, admin, fac.ID, u1.ID, false)
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{u2.ID}, out.Tenant.UnitIDs)
		require.Nil(t, out.Tenant.ArchivedAt)
	})
}

func TestUnitService_OccupancyIsAtomic(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	admin := f.systemAdmin()
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	u := f.h.CreateTestUnit(fac, "H1", 60)

	boom := errors.New("tenant write failed")
	f.h.Store.FailNext(memory.OpSaveOccupancyTenant, boom)

	_, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("Half", "Written"))
	requireKind(t, err, utils.ErrCodeInternal)

	stored, err := f.h.UnitRepo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusVacant, stored.Status)
	require.Nil(t, stored.TenantID)
	require.Equal(t, u.RowVersion, stored.RowVersion)

	tenants, err := f.h.TenantRepo.ListByFacilityID(ctx, fac.ID, true)
	require.NoError(t, err)
	require.Empty(t, tenants)
	require.Empty(t, f.eventNames(), "failed commands record no event")

	// The binding stays symmetric once the write goes through.
	in, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("Whole", "Written"))
	require.NoError(t, err)
	tenant, err := f.h.TenantRepo.GetByID(ctx, in.Tenant.ID)
	require.NoError(t, err)
	require.True(t, tenant.HasUnit(u.ID))
	stored, err = f.h.UnitRepo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, tenant.ID, *stored.TenantID)
	require.True(t, stored.Consistent())
}

func TestUnitService_OccupancyContention(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	admin := f.systemAdmin()
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)

	t.Run("a lost race is retried", func(t *testing.T) {
		u := f.h.CreateTestUnit(fac, "J1", 60)
		calls := 0
		f.h.Store.OnUnitUpdate(func(cur *models.Unit) {
			calls++
			if calls == 1 {
				cur.RowVersion++
			}
		})
		defer f.h.Store.OnUnitUpdate(nil)

		in, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("Re", "Try"))
		require.NoError(t, err)
		require.Equal(t, 2, calls)
		require.Equal(t, models.UnitStatusRented, in.Unit.Status)
	})

	t.Run("constant contention gives up", func(t *testing.T) {
		u := f.h.CreateTestUnit(fac, "J2", 60)
		f.h.Store.OnUnitUpdate(func(cur *models.Unit) { cur.RowVersion++ })
		defer f.h.Store.OnUnitUpdate(nil)

		_, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("Never", "In"))
		requireKind(t, err, utils.ErrCodeRowVersionConflict)

		tenants, err := f.h.TenantRepo.ListByFacilityID(ctx, fac.ID, true)
		require.NoError(t, err)
		for _, tn := range tenants {
			require.NotEqual(t, "Never", tn.FirstName)
		}
	})
}

func TestUnitService_UpdateFieldGuard(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	admin := f.systemAdmin()
	c := f.h.CreateTestCompany("Acme")
	fac := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	u := f.h.CreateTestUnit(fac, "K1", 60)
	f.h.CreateTestUnit(fac, "K2", 60)

	in, err := f.units.MoveIn(ctx, admin, fac.ID, u.ID, newTenant("Sit", "Tight"))
	require.NoError(t, err)

	_, err = f.units.Update(ctx, admin, fac.ID, u.ID, dtos.UpdateUnitRequest{
		RowVersion:    in.Unit.RowVersion,
		UnitNumber:    utils.StrPtr("K9"),
		PricePerMonth: utils.Ptr(75.0),
	})
	requireKind(t, err, utils.ErrCodeConflict)
	stored, err := f.h.UnitRepo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "K1", stored.UnitNumber)
	require.Equal(t, 60.0, stored.PaymentInfo.PricePerMonth, "the rest of the patch is not applied")

	priced, err := f.units.Update(ctx, admin, fac.ID, u.ID, dtos.UpdateUnitRequest{
		RowVersion:    in.Unit.RowVersion,
		PricePerMonth: utils.Ptr(75.0),
	})
	require.NoError(t, err)
	require.Equal(t, 75.0, priced.PaymentInfo.PricePerMonth)

	err = f.units.Delete(ctx, admin, fac.ID, u.ID)
	requireKind(t, err, utils.ErrCodeConflict)

	t.Run("duplicate unit number conflicts", func(t *testing.T) {
		vacant := f.h.CreateTestUnit(fac, "K3", 60)
		_, err := f.units.Update(ctx, admin, fac.ID, vacant.ID, dtos.UpdateUnitRequest{
			RowVersion: vacant.RowVersion,
			UnitNumber: utils.StrPtr("k2"),
		})
		requireKind(t, err, utils.ErrCodeConflict)

		_, err = f.units.Create(ctx, admin, fac.ID, dtos.CreateUnitRequest{UnitNumber: "K2", UnitType: "standard"})
		requireKind(t, err, utils.ErrCodeConflict)
	})
}

func TestUnitService_CompanyUserScope(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := f.h.Ctx
	c := f.h.CreateTestCompany("Acme")
	assigned := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	unassigned := f.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	staff := f.h.CreateTestActor(models.RoleCompanyUser, &c.ID, assigned.ID)

	mine := f.h.CreateTestUnit(assigned, "L1", 60)
	theirs := f.h.CreateTestUnit(unassigned, "L1", 60)

	_, err := f.units.MoveIn(ctx, staff, assigned.ID, mine.ID, newTenant("In", "Scope"))
	require.NoError(t, err)

	_, err = f.units.MoveIn(ctx, staff, unassigned.ID, theirs.ID, newTenant("Out", "Scope"))
	requireKind(t, err, utils.ErrCodeUnauthorized)

	_, err = f.units.Get(ctx, staff, unassigned.ID, theirs.ID)
	requireKind(t, err, utils.ErrCodeNotFound)

	_, err = f.units.List(ctx, staff, unassigned.ID, utils.TableQuery{})
	requireKind(t, err, utils.ErrCodeNotFound)

	page, err := f.units.List(ctx, staff, assigned.ID, utils.TableQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
}
