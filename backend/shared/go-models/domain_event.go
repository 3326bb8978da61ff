// backend/shared/go-models/domain_event.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeCompany  EventType = "COMPANY"
	EventTypeFacility EventType = "FACILITY"
	EventTypeUnit     EventType = "UNIT"
	EventTypeTenant   EventType = "TENANT"
	EventTypeNote     EventType = "NOTE"
	EventTypeUser     EventType = "USER"
)

const (
	EventCompanyCreated        = "company.created"
	EventCompanyUpdated        = "company.updated"
	EventFacilityCreated       = "facility.created"
	EventFacilityDeployed      = "facility.deployed"
	EventFacilityUpdated       = "facility.updated"
	EventFacilityStatusChanged = "facility.status_changed"
	EventFacilityDeleted       = "facility.deleted"
	EventUnitCreated           = "unit.created"
	EventUnitUpdated           = "unit.updated"
	EventUnitDeleted           = "unit.deleted"
	EventUnitMovedIn           = "unit.moved_in"
	EventUnitMovedOut          = "unit.moved_out"
	EventUnitPaymentMissed     = "unit.payment_missed"
	EventUnitPaymentRecorded   = "unit.payment_recorded"
	EventUnitBalanceSettled    = "unit.balance_settled"
	EventTenantUpdated         = "tenant.updated"
	EventNoteAdded             = "note.added"
	EventUserRegistered        = "user.registered"
	EventUserUpdated           = "user.updated"
	EventUserDeleted           = "user.deleted"
)

// DomainEvent is an immutable record of a completed mutating operation.
type DomainEvent struct {
	ID         uuid.UUID        `json:"id"`
	EventType  EventType        `json:"event_type"`
	EventName  string           `json:"event_name"`
	ActorID    uuid.UUID        `json:"actor_id"`
	CompanyID  *uuid.UUID       `json:"company_id,omitempty"`
	FacilityID *uuid.UUID       `json:"facility_id,omitempty"`
	TargetID   *uuid.UUID       `json:"target_id,omitempty"`
	Message    string           `json:"message"`
	Details    *json.RawMessage `json:"details,omitempty"` // JSONB snapshot of the target after the change
	CreatedAt  time.Time        `json:"created_at"`
}

// EventFilter narrows Domain Event Log reads.
type EventFilter struct {
	FacilityID *uuid.UUID
	CompanyID  *uuid.UUID
	EventType  *EventType
	From       *time.Time
	To         *time.Time
}
