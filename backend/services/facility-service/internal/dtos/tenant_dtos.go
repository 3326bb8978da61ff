package dtos

import (
	"time"

	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

type UpdateTenantRequest struct {
	RowVersion int64               `json:"row_version" validate:"required,min=1"`
	FirstName  *string             `json:"first_name,omitempty" validate:"omitempty,min=1"`
	LastName   *string             `json:"last_name,omitempty" validate:"omitempty,min=1"`
	Contact    *models.ContactInfo `json:"contact,omitempty"`
	Address    *models.Address     `json:"address,omitempty"`
}

type AddNoteRequest struct {
	Message          string     `json:"message" validate:"required"`
	RequiredResponse bool       `json:"required_response"`
	ResponseDate     *time.Time `json:"response_date,omitempty"`
}
