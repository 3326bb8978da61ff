package controllers

import (
	"net/http"

	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type UserController struct {
	userService *services.UserService
}

func NewUserController(s *services.UserService) *UserController {
	return &UserController{userService: s}
}

// GET /users
func (c *UserController) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	page, err := c.userService.List(r.Context(), a, utils.ParseTableQuery(r.URL.Query()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

// GET /users/me
func (c *UserController) MeHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	u, err := c.userService.Me(r.Context(), a)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// POST /users/register
func (c *UserController) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req dtos.RegisterUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	u, err := c.userService.Register(r.Context(), a, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.Logger.WithField("userID", u.ID).Info("User registered")
	utils.RespondWithJSON(w, http.StatusCreated, u)
}

// PUT /users/update
func (c *UserController) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req dtos.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	u, err := c.userService.Update(r.Context(), a, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// DELETE /users/delete?userId=
func (c *UserController) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := queryUUID(w, r, "userId")
	if !ok {
		return
	}
	if err := c.userService.Delete(r.Context(), a, id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{
		Message: "User deleted successfully",
		ID:      id.String(),
	})
}
