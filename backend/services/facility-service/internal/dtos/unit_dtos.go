package dtos

import (
	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

type CreateUnitRequest struct {
	UnitNumber     string                    `json:"unit_number" validate:"required"`
	UnitType       string                    `json:"unit_type" validate:"required"`
	Specifications models.UnitSpecifications `json:"specifications"`
	PricePerMonth  float64                   `json:"price_per_month" validate:"gte=0"`
	// Availability defaults to true.
	Availability *bool `json:"availability,omitempty"`
}

type UpdateUnitRequest struct {
	RowVersion     int64                      `json:"row_version" validate:"required,min=1"`
	UnitNumber     *string                    `json:"unit_number,omitempty" validate:"omitempty,min=1"`
	UnitType       *string                    `json:"unit_type,omitempty" validate:"omitempty,min=1"`
	Specifications *models.UnitSpecifications `json:"specifications,omitempty"`
	Availability   *bool                      `json:"availability,omitempty"`
	PricePerMonth  *float64                   `json:"price_per_month,omitempty" validate:"omitempty,gte=0"`
}

type NewTenantRequest struct {
	FirstName string             `json:"first_name" validate:"required"`
	LastName  string             `json:"last_name" validate:"required"`
	Contact   models.ContactInfo `json:"contact"`
	Address   models.Address     `json:"address"`
}

// MoveInRequest binds either an existing tenant of the facility or a new
// one. Exactly one of the two must be set.
type MoveInRequest struct {
	TenantID *uuid.UUID        `json:"tenant_id,omitempty"`
	Tenant   *NewTenantRequest `json:"tenant,omitempty"`
}

type MoveOutRequest struct {
	Override bool `json:"override"`
}

// BalanceRequest is used by miss-payment and settle-balance. A nil Amount
// means the default for the operation.
type BalanceRequest struct {
	Amount *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// OccupancyResponse is returned by move-in and move-out.
type OccupancyResponse struct {
	Unit   *models.Unit   `json:"unit"`
	Tenant *models.Tenant `json:"tenant,omitempty"`
}
