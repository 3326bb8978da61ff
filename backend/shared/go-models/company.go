package models

import (
	"time"

	"github.com/google/uuid"
)

type CompanyStatusType string

const (
	CompanyStatusEnabled  CompanyStatusType = "ENABLED"
	CompanyStatusDisabled CompanyStatusType = "DISABLED"
)

func (s CompanyStatusType) Valid() bool {
	return s == CompanyStatusEnabled || s == CompanyStatusDisabled
}

type Company struct {
	Versioned

	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Contact   ContactInfo       `json:"contact"`
	Address   Address           `json:"address"`
	Status    CompanyStatusType `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ----- concurrency helpers -----
func (c *Company) GetID() string { return c.ID.String() }
