package middleware

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type contextKey string

const (
	ContextKeyUserID = contextKey("userID")
	ContextKeyActor  = contextKey("actor")

	// Cookie names follow the __Host- prefix rule (no Domain attribute allowed)
	AccessTokenCookieName = "__Host-accessToken"

	// APIKeyHeader carries the static key used by service-to-service callers.
	APIKeyHeader = "X-API-Key"
)

// ActorLoader resolves the subject of a valid token into an Actor.
// It returns (nil, nil) when the user no longer exists or is disabled.
type ActorLoader interface {
	LoadActor(ctx context.Context, userID uuid.UUID) (*models.Actor, error)
}

type AuthOptions struct {
	PublicKey *rsa.PublicKey
	Loader    ActorLoader

	// APIKey enables the X-API-Key path when non-empty. Callers using it
	// act as a SYSTEM_USER with ServiceActorID.
	APIKey         string
	ServiceActorID uuid.UUID
}

// AuthMiddleware – for protected endpoints. If no credential is present
// or it is invalid, returns 401. On success the Actor is stored in the
// request context.
//   - X-API-Key header => service actor
//   - otherwise        => JWT read from AccessTokenCookieName
func AuthMiddleware(opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := r.Header.Get(APIKeyHeader); key != "" {
				if opts.APIKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(opts.APIKey)) != 1 {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid API key", nil,
					)
					return
				}
				actor := &models.Actor{
					ID:          opts.ServiceActorID,
					Role:        models.RoleSystemUser,
					FacilityIDs: map[uuid.UUID]struct{}{},
				}
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
				return
			}

			c, err := r.Cookie(AccessTokenCookieName)
			if err != nil || c.Value == "" {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "missing access_token cookie", nil,
				)
				return
			}

			tok, vErr := ValidateToken(c.Value, opts.PublicKey)
			if vErr != nil || !tok.Valid {
				if errors.Is(vErr, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", vErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", vErr,
				)
				return
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid claims", nil,
				)
				return
			}
			sub, ok := claims["sub"].(string)
			if !ok {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing subject", nil,
				)
				return
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid subject", err,
				)
				return
			}

			actor, err := opts.Loader.LoadActor(r.Context(), userID)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load account", err,
				)
				return
			}
			if actor == nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Account not active", nil,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, sub)
			next.ServeHTTP(w, r.WithContext(WithActor(ctx, actor)))
		})
	}
}

// WithActor stores the actor in ctx.
func WithActor(ctx context.Context, a *models.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, a)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (*models.Actor, bool) {
	a, ok := ctx.Value(ContextKeyActor).(*models.Actor)
	return a, ok && a != nil
}
