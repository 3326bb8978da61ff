package dtos

import (
	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

type CreateFacilityRequest struct {
	CompanyID uuid.UUID               `json:"company_id" validate:"required"`
	Name      string                  `json:"name" validate:"required,min=2"`
	ManagerID *uuid.UUID              `json:"manager_id,omitempty"`
	Address   models.Address          `json:"address"`
	Contact   models.ContactInfo      `json:"contact"`
	Settings  models.FacilitySettings `json:"settings"`
}

// UpdateFacilityRequest is a partial update. RowVersion must match the
// stored facility.
type UpdateFacilityRequest struct {
	RowVersion   int64                      `json:"row_version" validate:"required,min=1"`
	Name         *string                    `json:"name,omitempty" validate:"omitempty,min=2"`
	CompanyID    *uuid.UUID                 `json:"company_id,omitempty"`
	ManagerID    *uuid.UUID                 `json:"manager_id,omitempty"`
	ClearManager bool                       `json:"clear_manager,omitempty"`
	Address      *models.Address            `json:"address,omitempty"`
	Contact      *models.ContactInfo        `json:"contact,omitempty"`
	Status       *models.FacilityStatusType `json:"status,omitempty"`
	Settings     *models.FacilitySettings   `json:"settings,omitempty"`
}

type UpdateFacilityStatusRequest struct {
	FacilityID uuid.UUID                 `json:"facility_id" validate:"required"`
	Status     models.FacilityStatusType `json:"status" validate:"required"`
}
