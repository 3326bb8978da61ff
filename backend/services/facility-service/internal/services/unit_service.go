package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/access"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

var unitColumns = []utils.Column[*models.Unit]{
	{Key: "unit_number", Value: func(u *models.Unit) any { return u.UnitNumber }, Searchable: true},
	{Key: "unit_type", Value: func(u *models.Unit) any { return u.UnitType }, Searchable: true},
	{Key: "status", Value: func(u *models.Unit) any { return string(u.Status) }, Searchable: true},
	{Key: "availability", Value: func(u *models.Unit) any { return u.Availability }},
	{Key: "price_per_month", Value: func(u *models.Unit) any { return u.PaymentInfo.PricePerMonth }},
	{Key: "balance", Value: func(u *models.Unit) any { return u.PaymentInfo.Balance }},
	{Key: "last_move_in_date", Value: func(u *models.Unit) any { return u.LastMoveInDate }},
	{Key: "last_move_out_date", Value: func(u *models.Unit) any { return u.LastMoveOutDate }},
}

// UnitService runs the unit occupancy lifecycle:
//
//	VACANT --moveIn--> RENTED --missPayment--> DELINQUENT
//	DELINQUENT --settleBalance--> RENTED
//	RENTED|DELINQUENT --moveOut--> VACANT
type UnitService struct {
	unitRepo     repositories.UnitRepository
	tenantRepo   repositories.TenantRepository
	facilityRepo repositories.FacilityRepository
	events       *EventService
	metrics      *Metrics
	policy       Policy
	now          func() time.Time
}

func NewUnitService(
	unitRepo repositories.UnitRepository,
	tenantRepo repositories.TenantRepository,
	facilityRepo repositories.FacilityRepository,
	events *EventService,
	metrics *Metrics,
	policy Policy,
) *UnitService {
	if policy.TenantRetention == "" {
		policy.TenantRetention = models.TenantRetentionArchive
	}
	return &UnitService{
		unitRepo:     unitRepo,
		tenantRepo:   tenantRepo,
		facilityRepo: facilityRepo,
		events:       events,
		metrics:      metrics,
		policy:       policy,
		now:          time.Now,
	}
}

func (s *UnitService) loadFacility(ctx context.Context, id uuid.UUID) (*models.Facility, error) {
	f, err := s.facilityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, utils.NewInternalError("Failed to load facility", err)
	}
	if f == nil {
		return nil, utils.NewNotFoundError("facility not found")
	}
	return f, nil
}

// load returns the unit when it lives in the given facility.
func (s *UnitService) load(ctx context.Context, facilityID, unitID uuid.UUID) (*models.Unit, error) {
	u, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to load unit", err)
	}
	if u == nil || u.FacilityID != facilityID {
		return nil, utils.NewNotFoundError("unit not found")
	}
	return u, nil
}

func (s *UnitService) loadForCommand(ctx context.Context, scope *access.Scope, facilityID, unitID uuid.UUID) (*models.Unit, error) {
	if err := scope.Require(access.CapManageUnits); err != nil {
		return nil, err
	}
	u, err := s.load(ctx, facilityID, unitID)
	if err != nil {
		return nil, err
	}
	if err := scope.Guard(access.UnitResource(u)); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UnitService) logUnit(ctx context.Context, actor *models.Actor, name, msg string, u *models.Unit, details any) {
	if details == nil {
		details = u
	}
	s.events.log(ctx, actor, eventInput{
		Type:       models.EventTypeUnit,
		Name:       name,
		CompanyID:  utils.Ptr(u.CompanyID),
		FacilityID: utils.Ptr(u.FacilityID),
		TargetID:   u.ID,
		Message:    msg,
		Details:    details,
	})
}

func (s *UnitService) Create(ctx context.Context, actor *models.Actor, facilityID uuid.UUID, req dtos.CreateUnitRequest) (*models.Unit, error) {
	scope := access.Resolve(actor)
	if err := scope.Require(access.CapManageUnits); err != nil {
		return nil, err
	}
	f, err := s.loadFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if err := scope.Guard(access.FacilityResource(f)); err != nil {
		return nil, err
	}
	switch {
	case blank(req.UnitNumber):
		return nil, utils.NewValidationError("unit_number is required")
	case blank(req.UnitType):
		return nil, utils.NewValidationError("unit_type is required")
	case req.PricePerMonth < 0:
		return nil, utils.NewValidationError("price_per_month must not be negative")
	}

	u := &models.Unit{
		ID:             uuid.New(),
		FacilityID:     f.ID,
		CompanyID:      f.CompanyID,
		UnitNumber:     req.UnitNumber,
		UnitType:       req.UnitType,
		Specifications: req.Specifications,
		Status:         models.UnitStatusVacant,
		Availability:   req.Availability == nil || *req.Availability,
		PaymentInfo:    models.PaymentInfo{PricePerMonth: utils.RoundCents(req.PricePerMonth)},
	}
	if err := s.unitRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.NewConflictError("unit number %q already exists in this facility", req.UnitNumber)
		}
		return nil, repoError(err, "unit", "create")
	}

	s.logUnit(ctx, actor, models.EventUnitCreated, "Unit "+u.UnitNumber+" created", u, nil)
	return u, nil
}

func (s *UnitService) Get(ctx context.Context, actor *models.Actor, facilityID, unitID uuid.UUID) (*models.Unit, error) {
	u, err := s.load(ctx, facilityID, unitID)
	if err != nil {
		return nil, err
	}
	if err := access.Resolve(actor).Visible(access.UnitResource(u)); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UnitService) List(ctx context.Context, actor *models.Actor, facilityID uuid.UUID, q utils.TableQuery) (*utils.PageResult[*models.Unit], error) {
	scope := access.Resolve(actor)
	f, err := s.loadFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if err := scope.Visible(access.FacilityResource(f)); err != nil {
		return nil, err
	}
	units, err := s.unitRepo.ListByFacilityID(ctx, facilityID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to list units", err)
	}
	units = access.Filter(scope, units, access.UnitResource)
	return utils.ApplyTableQuery(units, unitColumns, q)
}

// Update applies a partial update at the caller's row_version. Number, type
// and specifications are frozen while the unit is occupied; a patch that
// touches them is rejected as a whole.
func (s *UnitService) Update(ctx context.Context, actor *models.Actor, facilityID, unitID uuid.UUID, req dtos.UpdateUnitRequest) (*models.Unit, error) {
	u, err := s.loadForCommand(ctx, access.Resolve(actor), facilityID, unitID)
	if err != nil {
		return nil, err
	}
	if u.RowVersion != req.RowVersion {
		return nil, utils.NewRowVersionConflictError("unit")
	}

	structural := (req.UnitNumber != nil && *req.UnitNumber != u.UnitNumber) ||
		(req.UnitType != nil && *req.UnitType != u.UnitType) ||
		(req.Specifications != nil && *req.Specifications != u.Specifications)
	if structural && u.Status != models.UnitStatusVacant {
		return nil, utils.NewConflictError("unit_number, unit_type and specifications can only change while the unit is VACANT")
	}

	changed := structural
	if req.UnitNumber != nil {
		if blank(*req.UnitNumber) {
			return nil, utils.NewValidationError("unit_number is required")
		}
		u.UnitNumber = *req.UnitNumber
	}
	if req.UnitType != nil {
		if blank(*req.UnitType) {
			return nil, utils.NewValidationError("unit_type is required")
		}
		u.UnitType = *req.UnitType
	}
	if req.Specifications != nil {
		u.Specifications = *req.Specifications
	}
	if req.Availability != nil && *req.Availability != u.Availability {
		u.Availability, changed = *req.Availability, true
	}
	if req.PricePerMonth != nil {
		if *req.PricePerMonth < 0 {
			return nil, utils.NewValidationError("price_per_month must not be negative")
		}
		if p := utils.RoundCents(*req.PricePerMonth); p != u.PaymentInfo.PricePerMonth {
			u.PaymentInfo.PricePerMonth, changed = p, true
		}
	}
	if !changed {
		return u, nil
	}

	tag, err := s.unitRepo.UpdateIfVersion(ctx, u, req.RowVersion)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.NewConflictError("unit number %q already exists in this facility", u.UnitNumber)
		}
		return nil, repoError(err, "unit", "update")
	}
	if tag.RowsAffected() != 1 {
		return nil, utils.NewRowVersionConflictError("unit")
	}
	u.RowVersion = req.RowVersion + 1

	s.logUnit(ctx, actor, models.EventUnitUpdated, "Unit "+u.UnitNumber+" updated", u, nil)
	return u, nil
}

// Delete soft-deletes a VACANT unit.
func (s *UnitService) Delete(ctx context.Context, actor *models.Actor, facilityID, unitID uuid.UUID) error {
	u, err := s.loadForCommand(ctx, access.Resolve(actor), facilityID, unitID)
	if err != nil {
		return err
	}
	if err := s.unitRepo.SoftDeleteIfVacant(ctx, unitID); err != nil {
		if errors.Is(err, repositories.ErrUnitOccupied) {
			return utils.NewConflictError("unit %s is occupied", u.UnitNumber)
		}
		return repoError(err, "unit", "delete")
	}
	s.logUnit(ctx, actor, models.EventUnitDeleted, "Unit "+u.UnitNumber+" deleted", u,
		map[string]any{"id": u.ID, "unit_number": u.UnitNumber})
	return nil
}

/* ---------- occupancy ---------- */

// buildOccupancy mutates the freshly loaded unit and describes the tenant
// side of the change.
type buildOccupancy func(u *models.Unit) (*repositories.OccupancyChange, error)

// saveOccupancy runs build against the latest unit and commits the unit
// and tenant rows together, retrying when either was changed underneath.
// first is used for the initial attempt to avoid a second read.
func (s *UnitService) saveOccupancy(ctx context.Context, first *models.Unit, build buildOccupancy) (*repositories.OccupancyChange, error) {
	u := first
	for attempt := 0; attempt < repositories.DefaultMaxRetries; attempt++ {
		if u == nil {
			fresh, err := s.unitRepo.GetByID(ctx, first.ID)
			if err != nil {
				return nil, utils.NewInternalError("Failed to load unit", err)
			}
			if fresh == nil {
				return nil, utils.NewNotFoundError("unit not found")
			}
			u = fresh
		}

		expected := u.RowVersion
		ch, err := build(u)
		if err != nil {
			return nil, err
		}
		ch.Unit = u
		ch.ExpectedUnitVersion = expected

		err = s.unitRepo.SaveOccupancy(ctx, ch)
		if err == nil {
			return ch, nil
		}
		if !errors.Is(err, utils.ErrRowVersionConflict) {
			return nil, repoError(err, "unit", "update")
		}
		utils.Logger.WithField("unit_id", first.ID).Debugf("Occupancy write lost a race (attempt %d)", attempt+1)
		u = nil
	}
	return nil, utils.NewRowVersionConflictError("unit")
}

// MoveIn binds a tenant to a VACANT, available unit. The tenant is either
// an existing tenant of the facility or created in the same write.
func (s *UnitService) MoveIn(ctx context.Context, actor *models.Actor, facilityID, unitID uuid.UUID, req dtos.MoveInRequest) (*dtos.OccupancyResponse, error) {
	scope := access.Resolve(actor)
	u, err := s.loadForCommand(ctx, scope, facilityID, unitID)
	if err != nil {
		return nil, err
	}
	if (req.TenantID == nil) == (req.Tenant == nil) {
		return nil, utils.NewValidationError("provide exactly one of tenant_id or tenant")
	}
	if req.Tenant != nil && (blank(req.Tenant.FirstName) || blank(req.Tenant.LastName)) {
		return nil, utils.NewValidationError("tenant first_name and last_name are required")
	}

	ch, err := s.saveOccupancy(ctx, u, func(u *models.Unit) (*repositories.OccupancyChange, error) {
		if u.Status != models.UnitStatusVacant || !u.Availability {
			return nil, utils.NewConflictError("unit %s is not available for move-in", u.UnitNumber)
		}

		ch := &repositories.OccupancyChange{}
		if req.TenantID != nil {
			t, err := s.tenantRepo.GetByID(ctx, *req.TenantID)
			if err != nil {
				return nil, utils.NewInternalError("Failed to load tenant", err)
			}
			if t == nil || !scope.Allows(access.TenantResource(t)) {
				return nil, utils.NewNotFoundError("tenant not found")
			}
			if t.FacilityID != u.FacilityID {
				return nil, utils.NewValidationError("tenant belongs to a different facility")
			}
			ch.ExpectedTenantVersion = t.RowVersion
			t.AddUnit(u.ID)
			t.ArchivedAt = nil
			ch.Tenant = t
		} else {
			ch.Tenant = &models.Tenant{
				ID:         uuid.New(),
				FacilityID: u.FacilityID,
				CompanyID:  u.CompanyID,
				FirstName:  req.Tenant.FirstName,
				LastName:   req.Tenant.LastName,
				Contact:    req.Tenant.Contact,
				Address:    req.Tenant.Address,
				UnitIDs:    []uuid.UUID{u.ID},
			}
			ch.CreateTenant = true
		}

		now := s.now()
		u.Status = models.UnitStatusRented
		u.TenantID = utils.Ptr(ch.Tenant.ID)
		u.LastMoveInDate = &now
		u.LastMoveOutDate = nil
		return ch, nil
	})
	if err != nil {
		return nil, err
	}

	u, t := ch.Unit, ch.Tenant
	s.metrics.transition("unit", string(models.UnitStatusVacant), string(models.UnitStatusRented))
	s.logUnit(ctx, actor, models.EventUnitMovedIn,
		fmt.Sprintf("%s %s moved into unit %s", t.FirstName, t.LastName, u.UnitNumber),
		u, dtos.OccupancyResponse{Unit: u, Tenant: t})
	return &dtos.OccupancyResponse{Unit: u, Tenant: t}, nil
}

// MoveOut releases an occupied unit. A positive balance blocks the move
// unless override is requested and the policy allows it; the written-off
// balance is kept in the event details.
func (s *UnitService) MoveOut(ctx context.Context, actor *models.Actor, facilityID, unitID uuid.UUID, override bool) (*dtos.OccupancyResponse, error) {
	u, err := s.loadForCommand(ctx, access.Resolve(actor), facilityID, unitID)
	if err != nil {
		return nil, err
	}

	var (
		from       models.UnitStatusType
		writtenOff float64
		forfeited  float64
	)
	ch, err := s.saveOccupancy(ctx, u, func(u *models.Unit) (*repositories.OccupancyChange, error) {
		if !u.Status.Occupied() {
			return nil, utils.NewInvalidTransitionError("unit %s is %s; nothing to move out", u.UnitNumber, u.Status)
		}
		if u.PaymentInfo.Balance > 0 {
			if !override {
				return nil, utils.NewConflictError("unit %s has an outstanding balance of %.2f", u.UnitNumber, u.PaymentInfo.Balance)
			}
			if !s.policy.AllowMoveOutWithBalance {
				return nil, utils.NewConflictError("moving out with an outstanding balance is disabled")
			}
		}

		ch := &repositories.OccupancyChange{}
		if u.TenantID != nil {
			t, err := s.tenantRepo.GetByID(ctx, *u.TenantID)
			if err != nil {
				return nil, utils.NewInternalError("Failed to load tenant", err)
			}
			if t != nil {
				ch.ExpectedTenantVersion = t.RowVersion
				t.RemoveUnit(u.ID)
				if len(t.UnitIDs) == 0 {
					switch s.policy.TenantRetention {
					case models.TenantRetentionDelete:
						ch.DeleteTenant = true
					default:
						now := s.now()
						t.ArchivedAt = &now
					}
				}
				ch.Tenant = t
			}
		}

		now := s.now()
		from = u.Status
		writtenOff = max(u.PaymentInfo.Balance, 0)
		forfeited = u.PaymentInfo.PrepaidCredit
		u.Status = models.UnitStatusVacant
		u.TenantID = nil
		u.LastMoveOutDate = &now
		u.PaymentInfo.Balance = 0
		u.PaymentInfo.PrepaidCredit = 0
		return ch, nil
	})
	if err != nil {
		return nil, err
	}

	resp := &dtos.OccupancyResponse{Unit: ch.Unit}
	if !ch.DeleteTenant {
		resp.Tenant = ch.Tenant
	}
	s.metrics.transition("unit", string(from), string(models.UnitStatusVacant))
	s.logUnit(ctx, actor, models.EventUnitMovedOut, "Unit "+ch.Unit.UnitNumber+" moved out", ch.Unit, map[string]any{
		"unit":                     ch.Unit,
		"tenant":                   ch.Tenant,
		"tenant_deleted":           ch.DeleteTenant,
		"balance_written_off":      writtenOff,
		"prepaid_credit_forfeited": forfeited,
	})
	return resp, nil
}

// updatePayment runs a balance change through the optimistic-lock loop.
func (s *UnitService) updatePayment(
	ctx context.Context,
	actor *models.Actor,
	facilityID, unitID uuid.UUID,
	mutate func(u *models.Unit) error,
) (*models.Unit, models.UnitStatusType, error) {
	u, err := s.loadForCommand(ctx, access.Resolve(actor), facilityID, unitID)
	if err != nil {
		return nil, "", err
	}
	from := u.Status
	err = s.unitRepo.UpdateWithRetry(ctx, unitID, func(cur *models.Unit) error {
		from = cur.Status
		if err := mutate(cur); err != nil {
			return err
		}
		u = cur
		return nil
	})
	if err != nil {
		return nil, "", repoError(err, "unit", "update")
	}
	return u, from, nil
}

// MissPayment charges amount, which defaults to one month's price, against
// a RENTED unit. Prepaid credit is spent first; the unit turns DELINQUENT
// only when part of the charge is left unpaid.
func (s *UnitService) MissPayment(ctx context.Context, actor *models.Actor, facilityID, unitID uuid.UUID, amount *float64) (*models.Unit, error) {
	if amount != nil && *amount <= 0 {
		return nil, utils.NewValidationError("amount must be positive")
	}
	var charged, creditUsed float64
	u, from, err := s.updatePayment(ctx, actor, facilityID, unitID, func(u *models.Unit) error {
		if u.Status != models.UnitStatusRented {
			return utils.NewInvalidTransitionError("unit %s is %s; only RENTED units can miss a payment", u.UnitNumber, u.Status)
		}
		charged = u.PaymentInfo.PricePerMonth
		if amount != nil {
			charged = *amount
		}
		charged = utils.RoundCents(charged)
		creditUsed = min(max(u.PaymentInfo.PrepaidCredit, 0), charged)
		u.PaymentInfo.PrepaidCredit = utils.RoundCents(u.PaymentInfo.PrepaidCredit - creditUsed)
		u.PaymentInfo.Balance = utils.RoundCents(u.PaymentInfo.Balance + charged - creditUsed)
		if u.PaymentInfo.Balance > 0 {
			u.Status = models.UnitStatusDelinquent
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Unit %s missed a payment of %.2f", u.UnitNumber, charged)
	if u.Status != from {
		s.metrics.transition("unit", string(from), string(u.Status))
	} else {
		msg = fmt.Sprintf("Unit %s charge of %.2f covered by prepaid credit", u.UnitNumber, charged)
	}
	s.logUnit(ctx, actor, models.EventUnitPaymentMissed, msg, u, map[string]any{
		"unit":           u,
		"charged":        charged,
		"credit_applied": creditUsed,
	})
	return u, nil
}

// RecordPayment lowers the balance without changing the status. Anything
// paid beyond the balance becomes prepaid credit.
func (s *UnitService) RecordPayment(ctx context.Context, actor *models.Actor, facilityID, unitID uuid.UUID, amount float64) (*models.Unit, error) {
	if amount <= 0 {
		return nil, utils.NewValidationError("amount must be positive")
	}
	u, _, err := s.updatePayment(ctx, actor, facilityID, unitID, func(u *models.Unit) error {
		if !u.Status.Occupied() {
			return utils.NewInvalidTransitionError("unit %s is VACANT; payments need a tenant", u.UnitNumber)
		}
		applyPayment(&u.PaymentInfo, amount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logUnit(ctx, actor, models.EventUnitPaymentRecorded,
		fmt.Sprintf("Payment of %.2f recorded for unit %s", amount, u.UnitNumber), u, nil)
	return u, nil
}

// SettleBalance pays amount (default: the full balance) and returns a
// DELINQUENT unit to RENTED. The payment is refused if it would leave a
// balance behind.
func (s *UnitService) SettleBalance(ctx context.Context, actor *models.Actor, facilityID, unitID uuid.UUID, amount *float64) (*models.Unit, error) {
	if amount != nil && *amount <= 0 {
		return nil, utils.NewValidationError("amount must be positive")
	}
	var paid float64
	u, from, err := s.updatePayment(ctx, actor, facilityID, unitID, func(u *models.Unit) error {
		if u.Status != models.UnitStatusDelinquent {
			return utils.NewInvalidTransitionError("unit %s is %s; only DELINQUENT units can be settled", u.UnitNumber, u.Status)
		}
		paid = max(u.PaymentInfo.Balance, 0)
		if amount != nil {
			paid = *amount
		}
		if utils.RoundCents(u.PaymentInfo.Balance-paid) > 0 {
			return utils.NewConflictError("a payment of %.2f leaves %.2f outstanding on unit %s",
				paid, utils.RoundCents(u.PaymentInfo.Balance-paid), u.UnitNumber)
		}
		applyPayment(&u.PaymentInfo, paid)
		u.Status = models.UnitStatusRented
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.transition("unit", string(from), string(u.Status))
	s.logUnit(ctx, actor, models.EventUnitBalanceSettled,
		fmt.Sprintf("Unit %s settled with a payment of %.2f", u.UnitNumber, paid), u, nil)
	return u, nil
}

func applyPayment(p *models.PaymentInfo, amount float64) {
	rest := utils.RoundCents(p.Balance - amount)
	if rest < 0 {
		p.PrepaidCredit = utils.RoundCents(p.PrepaidCredit - rest)
		rest = 0
	}
	p.Balance = rest
}
