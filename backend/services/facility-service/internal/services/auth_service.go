package services

import (
	"context"
	"crypto/rsa"
	"net/http"
	"strings"
	"time"

	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// AuthService defines the interface for staff authentication logic.
type AuthService interface {
	// Login checks the credentials and returns the user with a signed
	// access token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type authService struct {
	userRepo    repositories.UserRepository
	privateKey  *rsa.PrivateKey
	tokenExpiry time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, privateKey *rsa.PrivateKey, tokenExpiry time.Duration) AuthService {
	return &authService{userRepo: userRepo, privateKey: privateKey, tokenExpiry: tokenExpiry}
}

func invalidCredentials() *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusUnauthorized,
		Code:       utils.ErrCodeInvalidCredentials,
		Message:    "Invalid email or password",
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", utils.NewInternalError("Failed to load user", err)
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", invalidCredentials()
	}
	if user.AccountStatus != models.AccountStatusActive {
		return nil, "", utils.NewUnauthorizedError("account is disabled")
	}

	token, err := middleware.SignToken(s.privateKey, user.ID.String(), s.tokenExpiry)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to sign access token")
		return nil, "", utils.NewInternalError("token generation failed", err)
	}
	return user, token, nil
}
