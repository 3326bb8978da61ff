// go-models/unit.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type UnitStatusType string

const (
	UnitStatusVacant     UnitStatusType = "VACANT"
	UnitStatusRented     UnitStatusType = "RENTED"
	UnitStatusDelinquent UnitStatusType = "DELINQUENT"
)

func (s UnitStatusType) Valid() bool {
	return s == UnitStatusVacant || s == UnitStatusRented || s == UnitStatusDelinquent
}

// Occupied reports whether a tenant must be bound in this status.
func (s UnitStatusType) Occupied() bool {
	return s == UnitStatusRented || s == UnitStatusDelinquent
}

type UnitSpecifications struct {
	Width             float64 `json:"width"`
	Depth             float64 `json:"depth"`
	Height            float64 `json:"height"`
	ClimateControlled bool    `json:"climate_controlled"`
	Floor             int     `json:"floor"`
	DoorType          string  `json:"door_type,omitempty"`
}

// PaymentInfo amounts are in the facility's currency.
type PaymentInfo struct {
	PricePerMonth float64 `json:"price_per_month"`
	Balance       float64 `json:"balance"`
	PrepaidCredit float64 `json:"prepaid_credit"`
}

// Unit represents a rentable storage space inside a facility.
// Invariant: Status == VACANT <=> TenantID == nil.
type Unit struct {
	Versioned

	ID              uuid.UUID          `json:"id"`
	FacilityID      uuid.UUID          `json:"facility_id"`
	CompanyID       uuid.UUID          `json:"company_id"`
	UnitNumber      string             `json:"unit_number"`
	UnitType        string             `json:"unit_type"`
	Specifications  UnitSpecifications `json:"specifications"`
	Status          UnitStatusType     `json:"status"`
	Availability    bool               `json:"availability"`
	TenantID        *uuid.UUID         `json:"tenant_id,omitempty"`
	PaymentInfo     PaymentInfo        `json:"payment_info"`
	LastMoveInDate  *time.Time         `json:"last_move_in_date,omitempty"`
	LastMoveOutDate *time.Time         `json:"last_move_out_date,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	DeletedAt       *time.Time         `json:"deleted_at,omitempty"`
}

// ----- concurrency helpers -----
func (u *Unit) GetID() string { return u.ID.String() }

// Consistent checks the occupancy invariant.
func (u *Unit) Consistent() bool {
	if u.Status == UnitStatusVacant {
		return u.TenantID == nil
	}
	return u.TenantID != nil
}
