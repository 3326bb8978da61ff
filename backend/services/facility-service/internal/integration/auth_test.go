package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	go_dtos "github.com/stowpoint/mono-repo/backend/shared/go-dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-testhelpers"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	s := newServer(t, services.DefaultPolicy())
	c := s.h.CreateTestCompany("Acme")
	user := s.h.CreateTestUser(models.RoleCompanyAdmin, &c.ID)

	t.Run("wrong password", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/auth/login", "", dtos.LoginRequest{Email: user.Email, Password: "nope-nope"})
		requireError(t, rr, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials)
	})

	t.Run("malformed email", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/auth/login", "", dtos.LoginRequest{Email: "not-an-email", Password: "x"})
		body := requireError(t, rr, http.StatusBadRequest, utils.ErrCodeValidation)
		require.NotNil(t, body.Details)
	})

	var session *http.Cookie
	t.Run("login sets the session cookie", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/auth/login", "", dtos.LoginRequest{Email: user.Email, Password: testhelpers.TestPassword})
		var resp dtos.LoginResponse
		decodeOK(t, rr, http.StatusOK, &resp)
		require.Equal(t, user.ID.String(), resp.User.ID)

		for _, ck := range rr.Result().Cookies() {
			if ck.Name == middleware.AccessTokenCookieName {
				session = ck
			}
		}
		require.NotNil(t, session)
		require.True(t, session.HttpOnly)
		require.True(t, session.Secure)
		require.NotContains(t, rr.Body.String(), "password")
	})

	t.Run("cookie authenticates", func(t *testing.T) {
		require.NotNil(t, session)
		rr := s.do(http.MethodGet, "/users/me", session.Value, nil)
		var me go_dtos.User
		decodeOK(t, rr, http.StatusOK, &me)
		require.Equal(t, user.Email, me.Email)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/auth/logout", "", nil)
		decodeOK(t, rr, http.StatusOK, nil)
		setCookie := rr.Header().Get("Set-Cookie")
		require.True(t, strings.HasPrefix(setCookie, middleware.AccessTokenCookieName+"=;"))
		require.Contains(t, setCookie, "Max-Age=0")
	})

	t.Run("no credentials", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/users/me", "", nil)
		requireError(t, rr, http.StatusUnauthorized, utils.ErrCodeUnauthorized)
	})

	t.Run("disabled account loses access", func(t *testing.T) {
		jwt := s.h.CreateWebJWT(user.ID)
		user.AccountStatus = models.AccountStatusDisabled
		tag, err := s.h.UserRepo.UpdateIfVersion(s.h.Ctx, user, user.RowVersion)
		require.NoError(t, err)
		require.EqualValues(t, 1, tag.RowsAffected())

		rr := s.do(http.MethodGet, "/users/me", jwt, nil)
		requireError(t, rr, http.StatusUnauthorized, utils.ErrCodeUnauthorized)
	})
}
