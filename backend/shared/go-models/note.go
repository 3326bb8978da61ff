package models

import (
	"time"

	"github.com/google/uuid"
)

type NoteTargetType string

const (
	NoteTargetUnit   NoteTargetType = "UNIT"
	NoteTargetTenant NoteTargetType = "TENANT"
)

// Note is an append-only annotation on a unit or tenant.
type Note struct {
	ID               uuid.UUID      `json:"id"`
	TargetType       NoteTargetType `json:"target_type"`
	TargetID         uuid.UUID      `json:"target_id"`
	FacilityID       uuid.UUID      `json:"facility_id"`
	CompanyID        uuid.UUID      `json:"company_id"`
	Message          string         `json:"message"`
	CreatedBy        uuid.UUID      `json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	RequiredResponse bool           `json:"required_response"`
	ResponseDate     *time.Time     `json:"response_date,omitempty"`
}
