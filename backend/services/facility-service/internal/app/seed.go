package app

import (
	"fmt"

	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	seeding "github.com/stowpoint/mono-repo/backend/shared/go-seeding"
)

// SeedAllTestAccounts creates the bootstrap SYSTEM_ADMIN and the demo
// company. Both seeds are idempotent.
func SeedAllTestAccounts(repos seeding.DemoRepos, password string) error {
	if err := seeding.SeedDefaultSystemAdmin(repos.Users, password); err != nil {
		return fmt.Errorf("seed system admin: %w", err)
	}
	if err := seeding.SeedDemoCompany(repos, password); err != nil {
		return fmt.Errorf("seed demo company: %w", err)
	}
	return nil
}

// NewDemoRepos builds the seeding repository set on db.
func NewDemoRepos(db repositories.DB) seeding.DemoRepos {
	return seeding.DemoRepos{
		Companies:  repositories.NewCompanyRepository(db),
		Facilities: repositories.NewFacilityRepository(db),
		Units:      repositories.NewUnitRepository(db),
		Users:      repositories.NewUserRepository(db),
	}
}
