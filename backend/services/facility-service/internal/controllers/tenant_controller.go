package controllers

import (
	"net/http"
	"strconv"

	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type TenantController struct {
	tenantService *services.TenantService
	noteService   *services.NoteService
}

func NewTenantController(tenants *services.TenantService, notes *services.NoteService) *TenantController {
	return &TenantController{tenantService: tenants, noteService: notes}
}

// GET /facilities/{facilityId}/tenants?include_archived=
func (c *TenantController) ListTenantsHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, ok := pathUUID(w, r, "facilityId")
	if !ok {
		return
	}
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))

	page, err := c.tenantService.ListByFacility(r.Context(), a, facilityID, includeArchived, utils.ParseTableQuery(r.URL.Query()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

// GET /facilities/{facilityId}/tenants/{id}
func (c *TenantController) GetTenantHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, ok := pathUUID(w, r, "facilityId")
	if !ok {
		return
	}
	tenantID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := c.tenantService.Get(r.Context(), a, facilityID, tenantID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, t)
}

// PUT /facilities/{facilityId}/tenants/{id}
func (c *TenantController) UpdateTenantHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, ok := pathUUID(w, r, "facilityId")
	if !ok {
		return
	}
	tenantID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.UpdateTenantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	t, err := c.tenantService.Update(r.Context(), a, facilityID, tenantID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, t)
}

// POST /facilities/{facilityId}/tenants/{id}/notes
func (c *TenantController) AddTenantNoteHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, ok := pathUUID(w, r, "facilityId")
	if !ok {
		return
	}
	tenantID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.AddNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	n, err := c.noteService.AddNote(r.Context(), a, models.NoteTargetTenant, facilityID, tenantID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, n)
}

// GET /facilities/{facilityId}/tenants/{id}/notes
func (c *TenantController) ListTenantNotesHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, ok := pathUUID(w, r, "facilityId")
	if !ok {
		return
	}
	tenantID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	notes, err := c.noteService.List(r.Context(), a, models.NoteTargetTenant, facilityID, tenantID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, notes)
}
