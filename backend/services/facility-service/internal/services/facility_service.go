package services

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/access"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

var facilityColumns = []utils.Column[*models.Facility]{
	{Key: "name", Value: func(f *models.Facility) any { return f.Name }, Searchable: true},
	{Key: "status", Value: func(f *models.Facility) any { return string(f.Status) }, Searchable: true},
	{Key: "city", Value: func(f *models.Facility) any { return f.Address.City }, Searchable: true},
	{Key: "state", Value: func(f *models.Facility) any { return f.Address.State }, Searchable: true},
	{Key: "created_at", Value: func(f *models.Facility) any { return f.CreatedAt }},
}

type FacilityService struct {
	facilityRepo repositories.FacilityRepository
	companyRepo  repositories.CompanyRepository
	userRepo     repositories.UserRepository
	events       *EventService
	metrics      *Metrics
}

func NewFacilityService(
	facilityRepo repositories.FacilityRepository,
	companyRepo repositories.CompanyRepository,
	userRepo repositories.UserRepository,
	events *EventService,
	metrics *Metrics,
) *FacilityService {
	return &FacilityService{
		facilityRepo: facilityRepo,
		companyRepo:  companyRepo,
		userRepo:     userRepo,
		events:       events,
		metrics:      metrics,
	}
}

func (s *FacilityService) load(ctx context.Context, id uuid.UUID) (*models.Facility, error) {
	f, err := s.facilityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, utils.NewInternalError("Failed to load facility", err)
	}
	if f == nil {
		return nil, utils.NewNotFoundError("facility not found")
	}
	return f, nil
}

// loadForCommand fetches the facility and checks the actor may change it.
func (s *FacilityService) loadForCommand(ctx context.Context, scope *access.Scope, id uuid.UUID) (*models.Facility, error) {
	if err := scope.Require(access.CapManageFacilities); err != nil {
		return nil, err
	}
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Guard(access.FacilityResource(f)); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FacilityService) checkManager(ctx context.Context, companyID, managerID uuid.UUID) error {
	u, err := s.userRepo.GetByID(ctx, managerID)
	if err != nil {
		return utils.NewInternalError("Failed to load manager", err)
	}
	if u == nil || !u.BelongsTo(companyID) || u.AccountStatus != models.AccountStatusActive {
		return utils.NewValidationError("manager must be an active user of the facility's company")
	}
	return nil
}

func validateFacilityFields(name string, addr models.Address, contact models.ContactInfo) error {
	switch {
	case blank(name):
		return utils.NewValidationError("name is required")
	case !addr.Complete():
		return utils.NewValidationError("address requires street, city, state and zip_code")
	case !contact.Complete():
		return utils.NewValidationError("contact requires an email or a phone number")
	}
	return nil
}

func (s *FacilityService) logFacility(ctx context.Context, actor *models.Actor, name, msg string, f *models.Facility, details any) {
	if details == nil {
		details = f
	}
	s.events.log(ctx, actor, eventInput{
		Type:       models.EventTypeFacility,
		Name:       name,
		CompanyID:  utils.Ptr(f.CompanyID),
		FacilityID: utils.Ptr(f.ID),
		TargetID:   f.ID,
		Message:    msg,
		Details:    details,
	})
}

// Create registers a new facility in PENDING_DEPLOYMENT.
func (s *FacilityService) Create(ctx context.Context, actor *models.Actor, req dtos.CreateFacilityRequest) (*models.Facility, error) {
	scope := access.Resolve(actor)
	if err := scope.Require(access.CapManageFacilities); err != nil {
		return nil, err
	}
	if err := validateFacilityFields(req.Name, req.Address, req.Contact); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to load company", err)
	}
	if company == nil {
		return nil, utils.NewNotFoundError("company not found")
	}
	if err := scope.Guard(access.CompanyResource(company)); err != nil {
		return nil, err
	}
	if req.ManagerID != nil {
		if err := s.checkManager(ctx, company.ID, *req.ManagerID); err != nil {
			return nil, err
		}
	}

	f := &models.Facility{
		ID:        uuid.New(),
		Name:      req.Name,
		CompanyID: company.ID,
		ManagerID: req.ManagerID,
		Address:   req.Address,
		Contact:   req.Contact,
		Status:    models.FacilityStatusPendingDeployment,
		Settings:  req.Settings,
	}
	if f.Settings.Amenities == nil {
		f.Settings.Amenities = []string{}
	}
	if err := s.facilityRepo.Create(ctx, f); err != nil {
		return nil, repoError(err, "facility", "create")
	}

	s.logFacility(ctx, actor, models.EventFacilityCreated, "Facility "+f.Name+" created", f, nil)
	return f, nil
}

func (s *FacilityService) Get(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Facility, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Resolve(actor).Visible(access.FacilityResource(f)); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FacilityService) List(ctx context.Context, actor *models.Actor, q utils.TableQuery) (*utils.PageResult[*models.Facility], error) {
	scope := access.Resolve(actor)

	var (
		facilities []*models.Facility
		err        error
	)
	switch {
	case scope.Global():
		facilities, err = s.facilityRepo.ListAll(ctx)
	case actor.CompanyID != nil:
		facilities, err = s.facilityRepo.ListByCompanyID(ctx, *actor.CompanyID)
	}
	if err != nil {
		return nil, utils.NewInternalError("Failed to list facilities", err)
	}

	facilities = access.Filter(scope, facilities, access.FacilityResource)
	return utils.ApplyTableQuery(facilities, facilityColumns, q)
}

// Deploy moves a facility out of PENDING_DEPLOYMENT. Deploying an enabled
// facility succeeds without writing anything.
func (s *FacilityService) Deploy(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Facility, error) {
	return s.transition(ctx, actor, id, models.FacilityStatusEnabled, models.EventFacilityDeployed,
		func(from models.FacilityStatusType) bool { return from == models.FacilityStatusPendingDeployment })
}

// UpdateStatus applies any legal move of the facility transition table.
func (s *FacilityService) UpdateStatus(ctx context.Context, actor *models.Actor, req dtos.UpdateFacilityStatusRequest) (*models.Facility, error) {
	if !req.Status.Valid() {
		return nil, utils.NewValidationError("unknown facility status %q", req.Status)
	}
	return s.transition(ctx, actor, req.FacilityID, req.Status, models.EventFacilityStatusChanged,
		func(from models.FacilityStatusType) bool { return from.CanTransition(req.Status) })
}

func (s *FacilityService) transition(
	ctx context.Context,
	actor *models.Actor,
	id uuid.UUID,
	to models.FacilityStatusType,
	eventName string,
	legal func(from models.FacilityStatusType) bool,
) (*models.Facility, error) {
	f, err := s.loadForCommand(ctx, access.Resolve(actor), id)
	if err != nil {
		return nil, err
	}

	var from models.FacilityStatusType
	err = s.facilityRepo.UpdateWithRetry(ctx, id, func(cur *models.Facility) error {
		if cur.Status == to {
			return errNoChange
		}
		if !legal(cur.Status) {
			return utils.NewInvalidTransitionError("facility cannot move from %s to %s", cur.Status, to)
		}
		from = cur.Status
		cur.Status = to
		f = cur
		return nil
	})
	if errors.Is(err, errNoChange) {
		return s.load(ctx, id)
	}
	if err != nil {
		return nil, repoError(err, "facility", "update")
	}

	s.metrics.transition("facility", string(from), string(to))
	s.logFacility(ctx, actor, eventName, "Facility "+f.Name+" moved from "+string(from)+" to "+string(to), f, nil)
	return f, nil
}

// Update applies a partial update at the caller's row_version.
func (s *FacilityService) Update(ctx context.Context, actor *models.Actor, id uuid.UUID, req dtos.UpdateFacilityRequest) (*models.Facility, error) {
	f, err := s.loadForCommand(ctx, access.Resolve(actor), id)
	if err != nil {
		return nil, err
	}
	if f.RowVersion != req.RowVersion {
		return nil, utils.NewRowVersionConflictError("facility")
	}
	if req.CompanyID != nil && *req.CompanyID != f.CompanyID {
		return nil, utils.NewInvalidTransitionError("a facility cannot move to another company")
	}

	changed := false
	from := f.Status
	if req.Name != nil && *req.Name != f.Name {
		f.Name, changed = *req.Name, true
	}
	if req.Address != nil && *req.Address != f.Address {
		f.Address, changed = *req.Address, true
	}
	if req.Contact != nil && *req.Contact != f.Contact {
		f.Contact, changed = *req.Contact, true
	}
	if req.Settings != nil && !slices.Equal(req.Settings.Amenities, f.Settings.Amenities) {
		f.Settings, changed = *req.Settings, true
		if f.Settings.Amenities == nil {
			f.Settings.Amenities = []string{}
		}
	}
	switch {
	case req.ClearManager:
		if f.ManagerID != nil {
			f.ManagerID, changed = nil, true
		}
	case req.ManagerID != nil && (f.ManagerID == nil || *f.ManagerID != *req.ManagerID):
		if err := s.checkManager(ctx, f.CompanyID, *req.ManagerID); err != nil {
			return nil, err
		}
		f.ManagerID, changed = req.ManagerID, true
	}
	if req.Status != nil && *req.Status != f.Status {
		if !req.Status.Valid() {
			return nil, utils.NewValidationError("unknown facility status %q", *req.Status)
		}
		if !f.Status.CanTransition(*req.Status) {
			return nil, utils.NewInvalidTransitionError("facility cannot move from %s to %s", f.Status, *req.Status)
		}
		f.Status, changed = *req.Status, true
	}
	if !changed {
		return f, nil
	}
	if err := validateFacilityFields(f.Name, f.Address, f.Contact); err != nil {
		return nil, err
	}

	tag, err := s.facilityRepo.UpdateIfVersion(ctx, f, req.RowVersion)
	if err != nil {
		return nil, repoError(err, "facility", "update")
	}
	if tag.RowsAffected() != 1 {
		return nil, utils.NewRowVersionConflictError("facility")
	}
	f.RowVersion = req.RowVersion + 1

	if from != f.Status {
		s.metrics.transition("facility", string(from), string(f.Status))
	}
	s.logFacility(ctx, actor, models.EventFacilityUpdated, "Facility "+f.Name+" updated", f, nil)
	return f, nil
}

// Delete soft-deletes the facility and its units. Any occupied unit
// blocks the whole operation.
func (s *FacilityService) Delete(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	f, err := s.loadForCommand(ctx, access.Resolve(actor), id)
	if err != nil {
		return err
	}
	if err := s.facilityRepo.SoftDeleteIfVacant(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrFacilityOccupied) {
			return utils.NewConflictError("facility %s still has occupied units", f.Name)
		}
		return repoError(err, "facility", "delete")
	}
	s.logFacility(ctx, actor, models.EventFacilityDeleted, "Facility "+f.Name+" deleted", f,
		map[string]any{"id": f.ID, "name": f.Name})
	return nil
}
