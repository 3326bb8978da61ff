package models

import (
	"time"

	"github.com/google/uuid"
)

type FacilityStatusType string

const (
	FacilityStatusPendingDeployment FacilityStatusType = "PENDING_DEPLOYMENT"
	FacilityStatusEnabled           FacilityStatusType = "ENABLED"
	FacilityStatusDisabled          FacilityStatusType = "DISABLED"
	FacilityStatusMaintenance       FacilityStatusType = "MAINTENANCE"
)

func (s FacilityStatusType) Valid() bool {
	switch s {
	case FacilityStatusPendingDeployment, FacilityStatusEnabled,
		FacilityStatusDisabled, FacilityStatusMaintenance:
		return true
	}
	return false
}

// facilityTransitions lists every legal status change. PENDING_DEPLOYMENT
// is never a target: a deployed facility does not go back.
var facilityTransitions = map[FacilityStatusType][]FacilityStatusType{
	FacilityStatusPendingDeployment: {FacilityStatusEnabled},
	FacilityStatusEnabled:           {FacilityStatusMaintenance, FacilityStatusDisabled},
	FacilityStatusMaintenance:       {FacilityStatusEnabled},
	FacilityStatusDisabled:          {FacilityStatusEnabled},
}

// CanTransition reports whether from -> to is a legal facility move.
// Same-state moves are not transitions; callers treat them as no-ops.
func (s FacilityStatusType) CanTransition(to FacilityStatusType) bool {
	for _, next := range facilityTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type FacilitySettings struct {
	Amenities []string `json:"amenities"`
}

type Facility struct {
	Versioned

	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	CompanyID uuid.UUID          `json:"company_id"`
	ManagerID *uuid.UUID         `json:"manager_id,omitempty"`
	Address   Address            `json:"address"`
	Contact   ContactInfo        `json:"contact"`
	Status    FacilityStatusType `json:"status"`
	Settings  FacilitySettings   `json:"settings"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	DeletedAt *time.Time         `json:"deleted_at,omitempty"`
}

// ----- concurrency helpers -----
func (f *Facility) GetID() string { return f.ID.String() }
