package dtos

import (
	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

type CreateCompanyRequest struct {
	Name    string             `json:"name" validate:"required,min=2"`
	Contact models.ContactInfo `json:"contact"`
	Address models.Address     `json:"address"`
}

type UpdateCompanyRequest struct {
	ID         uuid.UUID                 `json:"id" validate:"required"`
	RowVersion int64                     `json:"row_version" validate:"required,min=1"`
	Name       *string                   `json:"name,omitempty" validate:"omitempty,min=2"`
	Contact    *models.ContactInfo       `json:"contact,omitempty"`
	Address    *models.Address           `json:"address,omitempty"`
	Status     *models.CompanyStatusType `json:"status,omitempty"`
}
