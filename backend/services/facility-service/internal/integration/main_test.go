package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/app"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stowpoint/mono-repo/backend/shared/go-testhelpers"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "integration-api-key"

type pinger struct{ err error }

func (p *pinger) Ping(context.Context) error { return p.err }

// server is one router wired on a fresh in-memory store.
type server struct {
	h      *testhelpers.TestHelper
	router *mux.Router
	db     *pinger
}

func newServer(t *testing.T, policy services.Policy) *server {
	h := testhelpers.NewTestHelper(t)
	db := &pinger{}
	router := app.NewRouter(app.RouterOptions{
		Repos: app.Repos{
			Companies:  h.CompanyRepo,
			Facilities: h.FacilityRepo,
			Units:      h.UnitRepo,
			Tenants:    h.TenantRepo,
			Users:      h.UserRepo,
			Notes:      h.NoteRepo,
			Events:     h.EventRepo,
		},
		Policy:           policy,
		Health:           db,
		Registry:         prometheus.NewRegistry(),
		PrivateKey:       h.PrivateKey,
		PublicKey:        &h.PrivateKey.PublicKey,
		TokenExpiry:      time.Minute,
		APIKey:           testAPIKey,
		ServiceActorID:   uuid.New(),
		CORSHighSecurity: true,
	})
	return &server{h: h, router: router, db: db}
}

// do sends a request as the holder of jwt. An empty jwt sends no cookie.
func (s *server) do(method, url, jwt string, body any) *httptest.ResponseRecorder {
	return s.h.Serve(s.router, s.h.BuildAuthRequest(method, url, jwt, body))
}

// doWithKey sends a request authenticated by the service API key.
func (s *server) doWithKey(method, url, key string, body any) *httptest.ResponseRecorder {
	req := s.h.BuildAuthRequest(method, url, "", body)
	req.Header.Set(middleware.APIKeyHeader, key)
	return s.h.Serve(s.router, req)
}

// requireError checks the status and the error code of a failed response.
func requireError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) utils.ErrorResponse {
	t.Helper()
	require.Equal(t, status, rr.Code, "body: %s", rr.Body.String())
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, code, body.Code)
	return body
}

// decodeOK checks the status and decodes the body into out. out is zeroed
// first so fields omitted from the response never keep an earlier value.
func decodeOK(t *testing.T, rr *httptest.ResponseRecorder, status int, out any) {
	t.Helper()
	require.Equal(t, status, rr.Code, "body: %s", rr.Body.String())
	if out != nil {
		reflect.ValueOf(out).Elem().SetZero()
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), "body: %s", rr.Body.String())
	}
}
