// backend/shared/go-testhelpers/data.go

package testhelpers

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "P@ssword123"

var seq atomic.Int64

// UniqueEmail generates a unique email for testing.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@stowpoint.test", prefix, seq.Add(1))
}

func testAddress() models.Address {
	return models.Address{Street: "1 Test Ave", City: "Testville", State: "TS", ZipCode: "54321"}
}

// CreateTestCompany creates and persists an enabled company.
func (h *TestHelper) CreateTestCompany(name string) *models.Company {
	c := &models.Company{
		ID:      uuid.New(),
		Name:    name,
		Contact: models.ContactInfo{Email: UniqueEmail("company")},
		Address: testAddress(),
		Status:  models.CompanyStatusEnabled,
	}
	require.NoError(h.T, h.CompanyRepo.Create(h.Ctx, c), "Failed to create test company")
	return c
}

// CreateTestFacility creates and persists a facility in the given status.
func (h *TestHelper) CreateTestFacility(companyID uuid.UUID, status models.FacilityStatusType) *models.Facility {
	f := &models.Facility{
		ID:        uuid.New(),
		Name:      "Facility " + uuid.NewString()[:8],
		CompanyID: companyID,
		Address:   testAddress(),
		Contact:   models.ContactInfo{PhoneNumber: "+15555550100"},
		Status:    status,
	}
	require.NoError(h.T, h.FacilityRepo.Create(h.Ctx, f), "Failed to create test facility")
	return f
}

// CreateTestUnit creates and persists a vacant, available unit.
func (h *TestHelper) CreateTestUnit(f *models.Facility, number string, price float64) *models.Unit {
	u := &models.Unit{
		ID:           uuid.New(),
		FacilityID:   f.ID,
		CompanyID:    f.CompanyID,
		UnitNumber:   number,
		UnitType:     "standard",
		Status:       models.UnitStatusVacant,
		Availability: true,
		PaymentInfo:  models.PaymentInfo{PricePerMonth: price},
	}
	require.NoError(h.T, h.UnitRepo.Create(h.Ctx, u), "Failed to create test unit")
	return u
}

// CreateTestUser creates and persists an active user. companyID must be
// nil for system roles.
func (h *TestHelper) CreateTestUser(role models.RoleKind, companyID *uuid.UUID, facilityIDs ...uuid.UUID) *models.User {
	hashed, err := utils.HashPassword(TestPassword)
	require.NoError(h.T, err)
	u := &models.User{
		ID:            uuid.New(),
		Email:         UniqueEmail(string(role)),
		PasswordHash:  hashed,
		FirstName:     "Test",
		LastName:      string(role),
		Role:          role,
		CompanyID:     companyID,
		FacilityIDs:   facilityIDs,
		AccountStatus: models.AccountStatusActive,
	}
	require.NoError(h.T, h.UserRepo.Create(h.Ctx, u), "Failed to create test user")
	return u
}

// CreateTestActor creates a user and returns its Actor projection.
func (h *TestHelper) CreateTestActor(role models.RoleKind, companyID *uuid.UUID, facilityIDs ...uuid.UUID) *models.Actor {
	return models.NewActorFromUser(h.CreateTestUser(role, companyID, facilityIDs...))
}
