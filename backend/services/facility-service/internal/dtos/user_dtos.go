package dtos

import (
	"github.com/google/uuid"
	go_dtos "github.com/stowpoint/mono-repo/backend/shared/go-dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

type RegisterUserRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password" validate:"required,min=8"`
	FirstName   string          `json:"first_name" validate:"required"`
	LastName    string          `json:"last_name" validate:"required"`
	Role        models.RoleKind `json:"role" validate:"required"`
	CompanyID   *uuid.UUID      `json:"company_id,omitempty"`
	FacilityIDs []uuid.UUID     `json:"facility_ids,omitempty"`
}

type UpdateUserRequest struct {
	ID            uuid.UUID                 `json:"id" validate:"required"`
	RowVersion    int64                     `json:"row_version" validate:"required,min=1"`
	Email         *string                   `json:"email,omitempty" validate:"omitempty,email"`
	Password      *string                   `json:"password,omitempty" validate:"omitempty,min=8"`
	FirstName     *string                   `json:"first_name,omitempty" validate:"omitempty,min=1"`
	LastName      *string                   `json:"last_name,omitempty" validate:"omitempty,min=1"`
	Role          *models.RoleKind          `json:"role,omitempty"`
	AccountStatus *models.AccountStatusType `json:"account_status,omitempty"`
	CompanyID     *uuid.UUID                `json:"company_id,omitempty"`
	ClearCompany  bool                      `json:"clear_company,omitempty"`
	FacilityIDs   *[]uuid.UUID              `json:"facility_ids,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User go_dtos.User `json:"user"`
}
