package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

func TestScopeOverHTTP(t *testing.T) {
	s := newServer(t, services.DefaultPolicy())
	c := s.h.CreateTestCompany("Acme")
	other := s.h.CreateTestCompany("Other")
	mine := s.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	sibling := s.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	foreign := s.h.CreateTestFacility(other.ID, models.FacilityStatusEnabled)
	foreignUnit := s.h.CreateTestUnit(foreign, "F-1", 50)
	staff := s.h.CreateWebJWT(s.h.CreateTestUser(models.RoleCompanyUser, &c.ID, mine.ID).ID)

	t.Run("list shows assigned facilities only", func(t *testing.T) {
		var page utils.PageResult[models.Facility]
		decodeOK(t, s.do(http.MethodGet, "/facilities", staff, nil), http.StatusOK, &page)
		require.Equal(t, 1, page.Total)
		require.Equal(t, mine.ID, page.Data[0].ID)
	})

	t.Run("out-of-scope reads are not found", func(t *testing.T) {
		requireError(t, s.do(http.MethodGet, "/facilities/"+sibling.ID.String(), staff, nil), http.StatusNotFound, utils.ErrCodeNotFound)
		requireError(t, s.do(http.MethodGet, "/facilities/"+foreign.ID.String(), staff, nil), http.StatusNotFound, utils.ErrCodeNotFound)
		url := fmt.Sprintf("/facilities/%s/units/%s", foreign.ID, foreignUnit.ID)
		requireError(t, s.do(http.MethodGet, url, staff, nil), http.StatusNotFound, utils.ErrCodeNotFound)
	})

	t.Run("out-of-scope commands are unauthorized", func(t *testing.T) {
		url := fmt.Sprintf("/facilities/%s/units/%s/move-in", foreign.ID, foreignUnit.ID)
		rr := s.do(http.MethodPost, url, staff, dtos.MoveInRequest{
			Tenant: &dtos.NewTenantRequest{FirstName: "X", LastName: "Y"},
		})
		requireError(t, rr, http.StatusForbidden, utils.ErrCodeUnauthorized)
	})

	t.Run("company user cannot manage facilities", func(t *testing.T) {
		rr := s.do(http.MethodPut, "/facilities/deploy?facilityId="+mine.ID.String(), staff, nil)
		requireError(t, rr, http.StatusForbidden, utils.ErrCodeUnauthorized)
	})

	t.Run("company user cannot create companies", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/companies/create", staff, dtos.CreateCompanyRequest{
			Name:    "Rogue",
			Address: models.Address{Street: "1 A St", City: "B", State: "CA", ZipCode: "90001"},
			Contact: models.ContactInfo{Email: "rogue@example.test"},
		})
		requireError(t, rr, http.StatusForbidden, utils.ErrCodeUnauthorized)
	})

	t.Run("events are limited to the actor's company", func(t *testing.T) {
		decodeOK(t, s.do(http.MethodPost, fmt.Sprintf("/facilities/%s/units", mine.ID), staff, dtos.CreateUnitRequest{
			UnitNumber: "M-1", UnitType: "5x5", PricePerMonth: 30,
		}), http.StatusCreated, nil)

		var page utils.PageResult[models.DomainEvent]
		url := "/events?company_id=" + other.ID.String()
		decodeOK(t, s.do(http.MethodGet, url, staff, nil), http.StatusOK, &page)
		require.Equal(t, 1, page.Total, "company filter is replaced by the actor's own company")
		require.Equal(t, c.ID, *page.Data[0].CompanyID)
	})
}

func TestAPIKeyOverHTTP(t *testing.T) {
	s := newServer(t, services.DefaultPolicy())
	body := dtos.CreateCompanyRequest{
		Name:    "Service Co",
		Address: models.Address{Street: "5 Main St", City: "Reno", State: "NV", ZipCode: "89501"},
		Contact: models.ContactInfo{PhoneNumber: "+17755550100"},
	}

	var co models.Company
	decodeOK(t, s.doWithKey(http.MethodPost, "/companies/create", testAPIKey, body), http.StatusCreated, &co)
	require.Equal(t, models.CompanyStatusEnabled, co.Status)

	rr := s.doWithKey(http.MethodPost, "/companies/create", "wrong-key", body)
	requireError(t, rr, http.StatusUnauthorized, utils.ErrCodeUnauthorized)
}
