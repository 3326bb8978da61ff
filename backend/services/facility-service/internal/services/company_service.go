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

var companyColumns = []utils.Column[*models.Company]{
	{Key: "name", Value: func(c *models.Company) any { return c.Name }, Searchable: true},
	{Key: "status", Value: func(c *models.Company) any { return string(c.Status) }, Searchable: true},
	{Key: "email", Value: func(c *models.Company) any { return c.Contact.Email }, Searchable: true},
	{Key: "city", Value: func(c *models.Company) any { return c.Address.City }, Searchable: true},
	{Key: "created_at", Value: func(c *models.Company) any { return c.CreatedAt }},
}

type CompanyService struct {
	companyRepo repositories.CompanyRepository
	events      *EventService
}

func NewCompanyService(companyRepo repositories.CompanyRepository, events *EventService) *CompanyService {
	return &CompanyService{companyRepo: companyRepo, events: events}
}

func (s *CompanyService) load(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	c, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, utils.NewInternalError("Failed to load company", err)
	}
	if c == nil {
		return nil, utils.NewNotFoundError("company not found")
	}
	return c, nil
}

func (s *CompanyService) logCompany(ctx context.Context, actor *models.Actor, name, msg string, c *models.Company) {
	s.events.log(ctx, actor, eventInput{
		Type:      models.EventTypeCompany,
		Name:      name,
		CompanyID: utils.Ptr(c.ID),
		TargetID:  c.ID,
		Message:   msg,
		Details:   c,
	})
}

func validateCompanyFields(name string, addr models.Address, contact models.ContactInfo) error {
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

func (s *CompanyService) Create(ctx context.Context, actor *models.Actor, req dtos.CreateCompanyRequest) (*models.Company, error) {
	if err := access.Resolve(actor).Require(access.CapManageCompanies); err != nil {
		return nil, err
	}
	if err := validateCompanyFields(req.Name, req.Address, req.Contact); err != nil {
		return nil, err
	}

	c := &models.Company{
		ID:      uuid.New(),
		Name:    req.Name,
		Contact: req.Contact,
		Address: req.Address,
		Status:  models.CompanyStatusEnabled,
	}
	if err := s.companyRepo.Create(ctx, c); err != nil {
		return nil, repoError(err, "company", "create")
	}

	s.logCompany(ctx, actor, models.EventCompanyCreated, "Company "+c.Name+" created", c)
	return c, nil
}

// Update edits a company, including its status, at the caller's row_version.
func (s *CompanyService) Update(ctx context.Context, actor *models.Actor, req dtos.UpdateCompanyRequest) (*models.Company, error) {
	scope := access.Resolve(actor)
	if err := scope.Require(access.CapManageCompanies); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if c.RowVersion != req.RowVersion {
		return nil, utils.NewRowVersionConflictError("company")
	}

	changed := false
	if req.Name != nil && *req.Name != c.Name {
		c.Name, changed = *req.Name, true
	}
	if req.Contact != nil && *req.Contact != c.Contact {
		c.Contact, changed = *req.Contact, true
	}
	if req.Address != nil && *req.Address != c.Address {
		c.Address, changed = *req.Address, true
	}
	if req.Status != nil && *req.Status != c.Status {
		if !req.Status.Valid() {
			return nil, utils.NewValidationError("unknown company status %q", *req.Status)
		}
		c.Status, changed = *req.Status, true
	}
	if !changed {
		return c, nil
	}
	if err := validateCompanyFields(c.Name, c.Address, c.Contact); err != nil {
		return nil, err
	}

	tag, err := s.companyRepo.UpdateIfVersion(ctx, c, req.RowVersion)
	if err != nil {
		return nil, repoError(err, "company", "update")
	}
	if tag.RowsAffected() != 1 {
		return nil, utils.NewRowVersionConflictError("company")
	}
	c.RowVersion = req.RowVersion + 1

	s.logCompany(ctx, actor, models.EventCompanyUpdated, "Company "+c.Name+" updated", c)
	return c, nil
}

func (s *CompanyService) Get(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Company, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Resolve(actor).Visible(access.CompanyResource(c)); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) List(ctx context.Context, actor *models.Actor, q utils.TableQuery) (*utils.PageResult[*models.Company], error) {
	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, utils.NewInternalError("Failed to list companies", err)
	}
	companies = access.Filter(access.Resolve(actor), companies, access.CompanyResource)
	return utils.ApplyTableQuery(companies, companyColumns, q)
}
