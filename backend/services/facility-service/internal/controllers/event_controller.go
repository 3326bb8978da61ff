package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type EventController struct {
	eventService *services.EventService
}

func NewEventController(s *services.EventService) *EventController {
	return &EventController{eventService: s}
}

// GET /events?facility_id=&company_id=&type=&from=&to=
//
// from and to are RFC 3339 timestamps.
func (c *EventController) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	filter, err := parseEventFilter(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	page, err := c.eventService.List(r.Context(), a, filter, utils.ParseTableQuery(r.URL.Query()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

func parseEventFilter(r *http.Request) (models.EventFilter, error) {
	q := r.URL.Query()
	var f models.EventFilter

	for key, dst := range map[string]**uuid.UUID{"facility_id": &f.FacilityID, "company_id": &f.CompanyID} {
		if raw := q.Get(key); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return f, utils.NewValidationError("invalid %s", key)
			}
			*dst = &id
		}
	}
	if raw := q.Get("type"); raw != "" {
		t := models.EventType(strings.ToUpper(raw))
		f.EventType = &t
	}
	for key, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		if raw := q.Get(key); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return f, utils.NewValidationError("%s must be an RFC 3339 timestamp", key)
			}
			*dst = &ts
		}
	}
	return f, nil
}
