package controllers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	go_dtos "github.com/stowpoint/mono-repo/backend/shared/go-dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type AuthController struct {
	authService  services.AuthService
	tokenExpiry  time.Duration
	highSecurity bool
}

func NewAuthController(s services.AuthService, tokenExpiry time.Duration, highSecurity bool) *AuthController {
	return &AuthController{authService: s, tokenExpiry: tokenExpiry, highSecurity: highSecurity}
}

// POST /auth/login
func (c *AuthController) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, token, err := c.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.Logger.WithFields(logrus.Fields{
			"email":    req.Email,
			"clientIP": utils.ClientIP(r),
		}).Warn("Login failed")
		utils.HandleAppError(w, err)
		return
	}

	setAccessCookie(w, token, c.tokenExpiry, c.highSecurity)
	utils.RespondWithJSON(w, http.StatusOK, dtos.LoginResponse{User: go_dtos.NewUserFromModel(*user)})
}

// POST /auth/logout
func (c *AuthController) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	clearAccessCookie(w, c.highSecurity)
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Logged out successfully"})
}
