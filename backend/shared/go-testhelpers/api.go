package testhelpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stretchr/testify/require"
)

// BuildAuthRequest builds a request carrying the session cookie.
// body is JSON-encoded unless it is nil.
func (h *TestHelper) BuildAuthRequest(method, reqURL, jwtString string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, reqURL, &buf)
	if jwtString != "" {
		req.AddCookie(&http.Cookie{
			Name:  middleware.AccessTokenCookieName,
			Value: jwtString,
			Path:  "/",
		})
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// Serve runs the request through the handler and returns the recorder.
func (h *TestHelper) Serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON unmarshals the recorder body into out.
func (h *TestHelper) DecodeJSON(rr *httptest.ResponseRecorder, out any) {
	require.NoError(h.T, json.Unmarshal(rr.Body.Bytes(), out), "body: %s", rr.Body.String())
}
