package seeding

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// DefaultSystemAdminID is stable so re-running the seed is a no-op.
var DefaultSystemAdminID = uuid.MustParse("11111111-2222-3333-4444-555555555555")

const DefaultSystemAdminEmail = "admin@stowpoint.local"

// SeedDefaultSystemAdmin creates the bootstrap SYSTEM_ADMIN account.
func SeedDefaultSystemAdmin(userRepo repositories.UserRepository, password string) error {
	ctx := context.Background()

	// Check by ID first, as this is the source of the unique constraint violation.
	existing, err := userRepo.GetByID(ctx, DefaultSystemAdminID)
	if err != nil {
		return fmt.Errorf("error checking for existing admin by ID: %w", err)
	}
	if existing != nil {
		utils.Logger.Infof("Default admin already exists (ID=%s); skipping seed.", existing.ID)
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to bcrypt-hash default admin password: %w", err)
	}

	admin := &models.User{
		ID:            DefaultSystemAdminID,
		Email:         DefaultSystemAdminEmail,
		PasswordHash:  hashed,
		FirstName:     "Seed",
		LastName:      "Admin",
		Role:          models.RoleSystemAdmin,
		AccountStatus: models.AccountStatusActive,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to insert default admin: %w", err)
	}

	utils.Logger.Infof("Successfully seeded default admin (ID=%s, email=%s).", admin.ID, admin.Email)
	return nil
}
