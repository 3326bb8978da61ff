package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/access"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

var tenantColumns = []utils.Column[*models.Tenant]{
	{Key: "first_name", Value: func(t *models.Tenant) any { return t.FirstName }, Searchable: true},
	{Key: "last_name", Value: func(t *models.Tenant) any { return t.LastName }, Searchable: true},
	{Key: "email", Value: func(t *models.Tenant) any { return t.Contact.Email }, Searchable: true},
	{Key: "phone_number", Value: func(t *models.Tenant) any { return t.Contact.PhoneNumber }, Searchable: true},
	{Key: "units", Value: func(t *models.Tenant) any { return len(t.UnitIDs) }},
	{Key: "created_at", Value: func(t *models.Tenant) any { return t.CreatedAt }},
}

// TenantService reads and edits tenants. Tenants are only ever created by
// UnitService.MoveIn.
type TenantService struct {
	tenantRepo   repositories.TenantRepository
	facilityRepo repositories.FacilityRepository
	events       *EventService
}

func NewTenantService(
	tenantRepo repositories.TenantRepository,
	facilityRepo repositories.FacilityRepository,
	events *EventService,
) *TenantService {
	return &TenantService{tenantRepo: tenantRepo, facilityRepo: facilityRepo, events: events}
}

func (s *TenantService) load(ctx context.Context, facilityID, tenantID uuid.UUID) (*models.Tenant, error) {
	t, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to load tenant", err)
	}
	if t == nil || t.FacilityID != facilityID {
		return nil, utils.NewNotFoundError("tenant not found")
	}
	return t, nil
}

func (s *TenantService) Get(ctx context.Context, actor *models.Actor, facilityID, tenantID uuid.UUID) (*models.Tenant, error) {
	t, err := s.load(ctx, facilityID, tenantID)
	if err != nil {
		return nil, err
	}
	if err := access.Resolve(actor).Visible(access.TenantResource(t)); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByFacility lists the facility's tenants. Archived tenants are only
// included on request.
func (s *TenantService) ListByFacility(
	ctx context.Context,
	actor *models.Actor,
	facilityID uuid.UUID,
	includeArchived bool,
	q utils.TableQuery,
) (*utils.PageResult[*models.Tenant], error) {
	scope := access.Resolve(actor)
	f, err := s.facilityRepo.GetByID(ctx, facilityID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to load facility", err)
	}
	if f == nil {
		return nil, utils.NewNotFoundError("facility not found")
	}
	if err := scope.Visible(access.FacilityResource(f)); err != nil {
		return nil, err
	}

	tenants, err := s.tenantRepo.ListByFacilityID(ctx, facilityID, includeArchived)
	if err != nil {
		return nil, utils.NewInternalError("Failed to list tenants", err)
	}
	tenants = access.Filter(scope, tenants, access.TenantResource)
	return utils.ApplyTableQuery(tenants, tenantColumns, q)
}

// Update edits a tenant's personal data at the caller's row_version.
// Unit bindings are owned by the occupancy operations and cannot be
// changed here.
func (s *TenantService) Update(ctx context.Context, actor *models.Actor, facilityID, tenantID uuid.UUID, req dtos.UpdateTenantRequest) (*models.Tenant, error) {
	scope := access.Resolve(actor)
	if err := scope.Require(access.CapManageTenants); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, facilityID, tenantID)
	if err != nil {
		return nil, err
	}
	if err := scope.Guard(access.TenantResource(t)); err != nil {
		return nil, err
	}
	if t.RowVersion != req.RowVersion {
		return nil, utils.NewRowVersionConflictError("tenant")
	}

	changed := false
	if req.FirstName != nil && *req.FirstName != t.FirstName {
		t.FirstName, changed = *req.FirstName, true
	}
	if req.LastName != nil && *req.LastName != t.LastName {
		t.LastName, changed = *req.LastName, true
	}
	if req.Contact != nil && *req.Contact != t.Contact {
		t.Contact, changed = *req.Contact, true
	}
	if req.Address != nil && *req.Address != t.Address {
		t.Address, changed = *req.Address, true
	}
	if !changed {
		return t, nil
	}
	if blank(t.FirstName) || blank(t.LastName) {
		return nil, utils.NewValidationError("first_name and last_name are required")
	}

	tag, err := s.tenantRepo.UpdateIfVersion(ctx, t, req.RowVersion)
	if err != nil {
		return nil, repoError(err, "tenant", "update")
	}
	if tag.RowsAffected() != 1 {
		return nil, utils.NewRowVersionConflictError("tenant")
	}
	t.RowVersion = req.RowVersion + 1

	s.events.log(ctx, actor, eventInput{
		Type:       models.EventTypeTenant,
		Name:       models.EventTenantUpdated,
		CompanyID:  utils.Ptr(t.CompanyID),
		FacilityID: utils.Ptr(t.FacilityID),
		TargetID:   t.ID,
		Message:    "Tenant " + t.FirstName + " " + t.LastName + " updated",
		Details:    t,
	})
	return t, nil
}
