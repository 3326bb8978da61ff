package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// TenantRetentionMode decides what happens to a tenant once its last
// unit is moved out.
type TenantRetentionMode string

const (
	TenantRetentionArchive TenantRetentionMode = "archive"
	TenantRetentionDelete  TenantRetentionMode = "delete"
)

// Tenant is the occupant of one or more units of a facility.
type Tenant struct {
	Versioned

	ID         uuid.UUID   `json:"id"`
	FacilityID uuid.UUID   `json:"facility_id"`
	CompanyID  uuid.UUID   `json:"company_id"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Contact    ContactInfo `json:"contact"`
	Address    Address     `json:"address"`
	UnitIDs    []uuid.UUID `json:"unit_ids"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	ArchivedAt *time.Time  `json:"archived_at,omitempty"`
}

// ----- concurrency helpers -----
func (t *Tenant) GetID() string { return t.ID.String() }

func (t *Tenant) HasUnit(id uuid.UUID) bool {
	return slices.Contains(t.UnitIDs, id)
}

// AddUnit appends the unit unless it is already bound.
func (t *Tenant) AddUnit(id uuid.UUID) {
	if !t.HasUnit(id) {
		t.UnitIDs = append(t.UnitIDs, id)
	}
}

func (t *Tenant) RemoveUnit(id uuid.UUID) {
	t.UnitIDs = slices.DeleteFunc(t.UnitIDs, func(u uuid.UUID) bool { return u == id })
}
