package seeding

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

var (
	DemoCompanyID  = uuid.MustParse("22222222-0000-0000-0000-000000000001")
	DemoFacilityID = uuid.MustParse("22222222-0000-0000-0000-000000000002")
	DemoAdminID    = uuid.MustParse("22222222-0000-0000-0000-000000000003")
	DemoStaffID    = uuid.MustParse("22222222-0000-0000-0000-000000000004")
)

// DemoRepos groups the repositories the demo seed writes to.
type DemoRepos struct {
	Companies  repositories.CompanyRepository
	Facilities repositories.FacilityRepository
	Units      repositories.UnitRepository
	Users      repositories.UserRepository
}

// SeedDemoCompany creates a company with one enabled facility, a handful
// of vacant units, a COMPANY_ADMIN and a facility-scoped COMPANY_USER.
// It is skipped when the demo company already exists.
func SeedDemoCompany(r DemoRepos, password string) error {
	ctx := context.Background()

	existing, err := r.Companies.GetByID(ctx, DemoCompanyID)
	if err != nil {
		return fmt.Errorf("error checking for demo company: %w", err)
	}
	if existing != nil {
		utils.Logger.Infof("Demo company already exists (ID=%s); skipping seed.", existing.ID)
		return nil
	}

	addr := models.Address{Street: "100 Storage Way", City: "Huntsville", State: "AL", ZipCode: "35806"}
	company := &models.Company{
		ID:      DemoCompanyID,
		Name:    "Demo Storage Co",
		Contact: models.ContactInfo{Email: "ops@demo-storage.test", PhoneNumber: "+12565550100"},
		Address: addr,
		Status:  models.CompanyStatusEnabled,
	}
	if err := r.Companies.Create(ctx, company); err != nil {
		return fmt.Errorf("failed to insert demo company: %w", err)
	}

	facility := &models.Facility{
		ID:        DemoFacilityID,
		Name:      "Demo Facility North",
		CompanyID: DemoCompanyID,
		Address:   addr,
		Contact:   company.Contact,
		Status:    models.FacilityStatusEnabled,
		Settings:  models.FacilitySettings{Amenities: []string{"gated", "24h_access"}},
	}
	if err := r.Facilities.Create(ctx, facility); err != nil {
		return fmt.Errorf("failed to insert demo facility: %w", err)
	}

	for i, price := range []float64{49, 79, 129, 199} {
		u := &models.Unit{
			ID:           uuid.New(),
			FacilityID:   DemoFacilityID,
			CompanyID:    DemoCompanyID,
			UnitNumber:   fmt.Sprintf("A-%03d", 101+i),
			UnitType:     "standard",
			Status:       models.UnitStatusVacant,
			Availability: true,
			PaymentInfo:  models.PaymentInfo{PricePerMonth: price},
		}
		if err := r.Units.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to insert demo unit %s: %w", u.UnitNumber, err)
		}
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	companyID := DemoCompanyID
	staff := []*models.User{
		{
			ID: DemoAdminID, Email: "admin@demo-storage.test", PasswordHash: hashed,
			FirstName: "Dana", LastName: "Admin",
			Role: models.RoleCompanyAdmin, CompanyID: &companyID,
			AccountStatus: models.AccountStatusActive,
		},
		{
			ID: DemoStaffID, Email: "desk@demo-storage.test", PasswordHash: hashed,
			FirstName: "Riley", LastName: "Desk",
			Role: models.RoleCompanyUser, CompanyID: &companyID,
			FacilityIDs:   []uuid.UUID{DemoFacilityID},
			AccountStatus: models.AccountStatusActive,
		},
	}
	for _, u := range staff {
		if err := r.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to insert demo user %s: %w", u.Email, err)
		}
	}

	utils.Logger.Infof("Seeded demo company (ID=%s) with facility %s.", DemoCompanyID, DemoFacilityID)
	return nil
}
