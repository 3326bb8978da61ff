package integration

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

func TestErrorMappingOverHTTP(t *testing.T) {
	s := newServer(t, services.DefaultPolicy())
	c := s.h.CreateTestCompany("Acme")
	fac := s.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	jwt := s.h.CreateWebJWT(s.h.CreateTestUser(models.RoleCompanyAdmin, &c.ID).ID)

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/facilities/create", bytes.NewBufferString("{"))
		req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookieName, Value: jwt})
		rr := s.h.Serve(s.router, req)
		requireError(t, rr, http.StatusBadRequest, utils.ErrCodeInvalidPayload)
	})

	t.Run("missing required field has details", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/facilities/create", jwt, dtos.CreateFacilityRequest{CompanyID: c.ID})
		body := requireError(t, rr, http.StatusBadRequest, utils.ErrCodeValidation)
		require.NotNil(t, body.Details)
	})

	t.Run("bad path id", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/facilities/not-a-uuid", jwt, nil)
		requireError(t, rr, http.StatusBadRequest, utils.ErrCodeValidation)
	})

	t.Run("missing query id", func(t *testing.T) {
		rr := s.do(http.MethodDelete, "/facilities/delete", jwt, nil)
		requireError(t, rr, http.StatusBadRequest, utils.ErrCodeValidation)
	})

	t.Run("unknown sort key", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/facilities?sort=bogus", jwt, nil)
		requireError(t, rr, http.StatusBadRequest, utils.ErrCodeValidation)
	})

	t.Run("stale row version", func(t *testing.T) {
		url := "/facilities/update?facilityId=" + fac.ID.String()
		decodeOK(t, s.do(http.MethodPut, url, jwt, dtos.UpdateFacilityRequest{
			RowVersion: fac.RowVersion, Name: utils.StrPtr("First"),
		}), http.StatusOK, nil)
		rr := s.do(http.MethodPut, url, jwt, dtos.UpdateFacilityRequest{
			RowVersion: fac.RowVersion, Name: utils.StrPtr("Second"),
		})
		requireError(t, rr, http.StatusConflict, utils.ErrCodeRowVersionConflict)
	})

	t.Run("invalid transition", func(t *testing.T) {
		rr := s.do(http.MethodPut, "/facilities/update/status", jwt, dtos.UpdateFacilityStatusRequest{
			FacilityID: fac.ID, Status: models.FacilityStatusPendingDeployment,
		})
		requireError(t, rr, http.StatusUnprocessableEntity, utils.ErrCodeInvalidTransition)
	})

	t.Run("unknown unit", func(t *testing.T) {
		url := fmt.Sprintf("/facilities/%s/units/%s/move-in", fac.ID, uuid.New())
		rr := s.do(http.MethodPost, url, jwt, dtos.MoveInRequest{
			Tenant: &dtos.NewTenantRequest{FirstName: "A", LastName: "B"},
		})
		requireError(t, rr, http.StatusNotFound, utils.ErrCodeNotFound)
	})

	t.Run("move-out of vacant unit", func(t *testing.T) {
		unit := s.h.CreateTestUnit(fac, "V-1", 10)
		url := fmt.Sprintf("/facilities/%s/units/%s/move-out", fac.ID, unit.ID)
		rr := s.do(http.MethodPost, url, jwt, nil)
		requireError(t, rr, http.StatusUnprocessableEntity, utils.ErrCodeInvalidTransition)
	})

	t.Run("wrong method", func(t *testing.T) {
		rr := s.do(http.MethodPatch, "/facilities/create", jwt, nil)
		require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t, services.DefaultPolicy())

	decodeOK(t, s.do(http.MethodGet, "/health", "", nil), http.StatusOK, nil)

	s.db.err = fmt.Errorf("connection refused")
	requireError(t, s.do(http.MethodGet, "/health", "", nil), http.StatusServiceUnavailable, utils.ErrCodeInternal)
	s.db.err = nil

	c := s.h.CreateTestCompany("Acme")
	fac := s.h.CreateTestFacility(c.ID, models.FacilityStatusPendingDeployment)
	decodeOK(t, s.doWithKey(http.MethodPut, "/facilities/deploy?facilityId="+fac.ID.String(), testAPIKey, nil), http.StatusOK, nil)

	rr := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, `facility_service_http_requests_total{method="GET",path="/health",status="200"} 1`)
	require.Contains(t, body, `facility_service_lifecycle_transitions_total{entity="facility",from="PENDING_DEPLOYMENT",to="ENABLED"} 1`)
}

func TestOptionalBodyOverHTTP(t *testing.T) {
	s := newServer(t, services.DefaultPolicy())
	c := s.h.CreateTestCompany("Acme")
	fac := s.h.CreateTestFacility(c.ID, models.FacilityStatusEnabled)
	unit := s.h.CreateTestUnit(fac, "O-1", 75)
	jwt := s.h.CreateWebJWT(s.h.CreateTestUser(models.RoleCompanyAdmin, &c.ID).ID)
	unitURL := fmt.Sprintf("/facilities/%s/units/%s", fac.ID, unit.ID)

	decodeOK(t, s.do(http.MethodPost, unitURL+"/move-in", jwt, dtos.MoveInRequest{
		Tenant: &dtos.NewTenantRequest{FirstName: "Chunk", LastName: "Ed"},
	}), http.StatusOK, nil)

	chunked := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, unitURL+path, io.NopCloser(strings.NewReader(body)))
		req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookieName, Value: jwt})
		require.EqualValues(t, -1, req.ContentLength)
		return s.h.Serve(s.router, req)
	}

	var u models.Unit
	decodeOK(t, chunked("/miss-payment", ""), http.StatusOK, &u)
	require.Equal(t, models.UnitStatusDelinquent, u.Status)
	require.Equal(t, 75.0, u.PaymentInfo.Balance)

	requireError(t, chunked("/settle-balance", "{"), http.StatusBadRequest, utils.ErrCodeInvalidPayload)

	decodeOK(t, chunked("/settle-balance", ""), http.StatusOK, &u)
	require.Equal(t, models.UnitStatusRented, u.Status)

	decodeOK(t, chunked("/move-out", ""), http.StatusOK, nil)
}
