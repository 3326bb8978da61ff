package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/access"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type NoteService struct {
	noteRepo   repositories.NoteRepository
	unitRepo   repositories.UnitRepository
	tenantRepo repositories.TenantRepository
	events     *EventService
}

func NewNoteService(
	noteRepo repositories.NoteRepository,
	unitRepo repositories.UnitRepository,
	tenantRepo repositories.TenantRepository,
	events *EventService,
) *NoteService {
	return &NoteService{noteRepo: noteRepo, unitRepo: unitRepo, tenantRepo: tenantRepo, events: events}
}

// parent resolves the unit or tenant a note hangs off.
func (s *NoteService) parent(ctx context.Context, targetType models.NoteTargetType, facilityID, targetID uuid.UUID) (access.Resource, error) {
	switch targetType {
	case models.NoteTargetUnit:
		u, err := s.unitRepo.GetByID(ctx, targetID)
		if err != nil {
			return access.Resource{}, utils.NewInternalError("Failed to load unit", err)
		}
		if u == nil || u.FacilityID != facilityID {
			return access.Resource{}, utils.NewNotFoundError("unit not found")
		}
		return access.UnitResource(u), nil
	case models.NoteTargetTenant:
		t, err := s.tenantRepo.GetByID(ctx, targetID)
		if err != nil {
			return access.Resource{}, utils.NewInternalError("Failed to load tenant", err)
		}
		if t == nil || t.FacilityID != facilityID {
			return access.Resource{}, utils.NewNotFoundError("tenant not found")
		}
		return access.TenantResource(t), nil
	}
	return access.Resource{}, utils.NewValidationError("unknown note target %q", targetType)
}

// AddNote appends a note to a unit or tenant.
func (s *NoteService) AddNote(
	ctx context.Context,
	actor *models.Actor,
	targetType models.NoteTargetType,
	facilityID, targetID uuid.UUID,
	req dtos.AddNoteRequest,
) (*models.Note, error) {
	scope := access.Resolve(actor)
	if err := scope.Require(access.CapAddNotes); err != nil {
		return nil, err
	}
	res, err := s.parent(ctx, targetType, facilityID, targetID)
	if err != nil {
		return nil, err
	}
	if err := scope.Guard(res); err != nil {
		return nil, err
	}
	if blank(req.Message) {
		return nil, utils.NewValidationError("message is required")
	}
	if req.RequiredResponse && req.ResponseDate == nil {
		return nil, utils.NewValidationError("response_date is required when a response is required")
	}

	n := &models.Note{
		ID:               uuid.New(),
		TargetType:       targetType,
		TargetID:         targetID,
		FacilityID:       *res.FacilityID,
		CompanyID:        *res.CompanyID,
		Message:          req.Message,
		CreatedBy:        actor.ID,
		RequiredResponse: req.RequiredResponse,
		ResponseDate:     req.ResponseDate,
	}
	if err := s.noteRepo.Create(ctx, n); err != nil {
		return nil, repoError(err, "note", "create")
	}

	s.events.log(ctx, actor, eventInput{
		Type:       models.EventTypeNote,
		Name:       models.EventNoteAdded,
		CompanyID:  utils.Ptr(n.CompanyID),
		FacilityID: utils.Ptr(n.FacilityID),
		TargetID:   targetID,
		Message:    "Note added to " + string(targetType),
		Details:    n,
	})
	return n, nil
}

// List returns the notes of a unit or tenant in creation order.
func (s *NoteService) List(
	ctx context.Context,
	actor *models.Actor,
	targetType models.NoteTargetType,
	facilityID, targetID uuid.UUID,
) ([]*models.Note, error) {
	res, err := s.parent(ctx, targetType, facilityID, targetID)
	if err != nil {
		return nil, err
	}
	if err := access.Resolve(actor).Visible(res); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.ListByTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to list notes", err)
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	return notes, nil
}
