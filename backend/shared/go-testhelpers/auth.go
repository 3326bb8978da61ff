package testhelpers

import (
	"time"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stretchr/testify/require"
)

// CreateWebJWT signs a session token for the user with the helper's key.
func (h *TestHelper) CreateWebJWT(userID uuid.UUID) string {
	signed, err := middleware.SignToken(h.PrivateKey, userID.String(), 15*time.Minute)
	require.NoError(h.T, err, "Failed to sign test JWT")
	return signed
}
