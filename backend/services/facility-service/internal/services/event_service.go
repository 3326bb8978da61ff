package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/access"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

var eventColumns = []utils.Column[*models.DomainEvent]{
	{Key: "created_at", Value: func(e *models.DomainEvent) any { return e.CreatedAt }},
	{Key: "event_type", Value: func(e *models.DomainEvent) any { return string(e.EventType) }, Searchable: true},
	{Key: "event_name", Value: func(e *models.DomainEvent) any { return e.EventName }, Searchable: true},
	{Key: "message", Value: func(e *models.DomainEvent) any { return e.Message }, Searchable: true},
}

// EventService owns the Domain Event Log.
type EventService struct {
	repo repositories.DomainEventRepository
}

func NewEventService(repo repositories.DomainEventRepository) *EventService {
	return &EventService{repo: repo}
}

// Record appends e to the log. ID is assigned when missing.
func (s *EventService) Record(ctx context.Context, e *models.DomainEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return s.repo.Create(ctx, e)
}

// eventInput is what a service knows about a mutation it just committed.
type eventInput struct {
	Type       models.EventType
	Name       string
	CompanyID  *uuid.UUID
	FacilityID *uuid.UUID
	TargetID   uuid.UUID
	Message    string
	Details    any
}

// log records one event for a committed mutation. The mutation already
// happened, so a failed append is logged and not returned.
func (s *EventService) log(ctx context.Context, actor *models.Actor, in eventInput) {
	e := &models.DomainEvent{
		EventType:  in.Type,
		EventName:  in.Name,
		ActorID:    actor.ID,
		CompanyID:  in.CompanyID,
		FacilityID: in.FacilityID,
		Message:    in.Message,
	}
	if in.TargetID != uuid.Nil {
		e.TargetID = utils.Ptr(in.TargetID)
	}
	if in.Details != nil {
		if raw, err := json.Marshal(in.Details); err == nil {
			msg := json.RawMessage(raw)
			e.Details = &msg
		}
	}
	if err := s.Record(ctx, e); err != nil {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"event":     in.Name,
			"actor_id":  actor.ID,
			"target_id": in.TargetID,
		}).Error("Failed to record domain event")
	}
}

// List returns the events the actor may read, narrowed by filter.
func (s *EventService) List(
	ctx context.Context,
	actor *models.Actor,
	filter models.EventFilter,
	q utils.TableQuery,
) (*utils.PageResult[*models.DomainEvent], error) {
	scope := access.Resolve(actor)
	if err := scope.Require(access.CapViewEvents); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, utils.NewValidationError("'to' must not be before 'from'")
	}
	if !scope.Global() {
		if actor.CompanyID == nil {
			return emptyPage[*models.DomainEvent](q), nil
		}
		filter.CompanyID = actor.CompanyID
	}

	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, utils.NewInternalError("Failed to list events", err)
	}
	events = access.Filter(scope, events, access.EventResource)
	return utils.ApplyTableQuery(events, eventColumns, q)
}

func emptyPage[T any](q utils.TableQuery) *utils.PageResult[T] {
	p, _ := utils.ApplyTableQuery[T](nil, nil, utils.TableQuery{Page: q.Page, PageSize: q.PageSize})
	return p
}
