package testhelpers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories/memory"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

// TestHelper bundles an in-memory store, its repositories and a signing
// key so service and controller tests can build fixtures without Postgres.
type TestHelper struct {
	T          *testing.T
	Ctx        context.Context
	Store      *memory.Store
	Clock      *Clock
	PrivateKey *rsa.PrivateKey

	// Repositories
	CompanyRepo  repositories.CompanyRepository
	FacilityRepo repositories.FacilityRepository
	UnitRepo     repositories.UnitRepository
	TenantRepo   repositories.TenantRepository
	UserRepo     repositories.UserRepository
	NoteRepo     repositories.NoteRepository
	EventRepo    repositories.DomainEventRepository
}

// NewTestHelper wires a fresh store per test.
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	utils.PasswordCost = 4

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "Failed to generate RSA key")

	store := memory.NewStore()
	clock := NewClock()
	store.SetClock(clock.Now)

	return &TestHelper{
		T:            t,
		Ctx:          context.Background(),
		Store:        store,
		Clock:        clock,
		PrivateKey:   key,
		CompanyRepo:  store.Companies(),
		FacilityRepo: store.Facilities(),
		UnitRepo:     store.Units(),
		TenantRepo:   store.Tenants(),
		UserRepo:     store.Users(),
		NoteRepo:     store.Notes(),
		EventRepo:    store.Events(),
	}
}
