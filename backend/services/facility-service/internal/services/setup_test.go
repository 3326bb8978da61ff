package services

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-testhelpers"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	h          *testhelpers.TestHelper
	events     *EventService
	metrics    *Metrics
	facilities *FacilityService
	units      *UnitService
	tenants    *TenantService
	notes      *NoteService
	users      *UserService
	companies  *CompanyService
}

func newFixture(t *testing.T, policy Policy) *fixture {
	h := testhelpers.NewTestHelper(t)
	events := NewEventService(h.EventRepo)
	metrics := NewMetrics(prometheus.NewRegistry(), "test")

	units := NewUnitService(h.UnitRepo, h.TenantRepo, h.FacilityRepo, events, metrics, policy)
	units.now = h.Clock.Now

	return &fixture{
		h:          h,
		events:     events,
		metrics:    metrics,
		facilities: NewFacilityService(h.FacilityRepo, h.CompanyRepo, h.UserRepo, events, metrics),
		units:      units,
		tenants:    NewTenantService(h.TenantRepo, h.FacilityRepo, events),
		notes:      NewNoteService(h.NoteRepo, h.UnitRepo, h.TenantRepo, events),
		users:      NewUserService(h.UserRepo, h.CompanyRepo, h.FacilityRepo, events),
		companies:  NewCompanyService(h.CompanyRepo, events),
	}
}

// eventNames returns the names of every recorded event, oldest first.
func (f *fixture) eventNames() []string {
	evs, err := f.h.EventRepo.List(f.h.Ctx, models.EventFilter{})
	require.NoError(f.h.T, err)
	names := make([]string, 0, len(evs))
	for _, e := range evs {
		names = append(names, e.EventName)
	}
	return names
}

// lastDetails decodes the details of the newest event with the given name.
func (f *fixture) lastDetails(name string) map[string]any {
	evs, err := f.h.EventRepo.List(f.h.Ctx, models.EventFilter{})
	require.NoError(f.h.T, err)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].EventName != name {
			continue
		}
		require.NotNil(f.h.T, evs[i].Details)
		var out map[string]any
		require.NoError(f.h.T, json.Unmarshal(*evs[i].Details, &out))
		return out
	}
	f.h.T.Fatalf("no %s event recorded", name)
	return nil
}

func (f *fixture) systemAdmin() *models.Actor {
	return f.h.CreateTestActor(models.RoleSystemAdmin, nil)
}

func requireKind(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, utils.IsKind(err, code), "want %s, got %v (%s)", code, err, utils.ErrorCode(err))
}
