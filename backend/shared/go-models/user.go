package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatusType string

const (
	AccountStatusActive   AccountStatusType = "ACTIVE"
	AccountStatusDisabled AccountStatusType = "DISABLED"
)

// User is a staff account. Company roles always carry a CompanyID;
// system roles never do.
type User struct {
	Versioned

	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // Never serialize to JSON
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         RoleKind    `json:"role"`
	CompanyID    *uuid.UUID  `json:"company_id,omitempty"`
	FacilityIDs  []uuid.UUID `json:"facility_ids"`

	AccountStatus AccountStatusType `json:"account_status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     *time.Time        `json:"deleted_at,omitempty"`
}

// ----- concurrency helpers -----
func (u *User) GetID() string { return u.ID.String() }

// BelongsTo reports whether the user is bound to the given company.
func (u *User) BelongsTo(companyID uuid.UUID) bool {
	return u.CompanyID != nil && *u.CompanyID == companyID
}
