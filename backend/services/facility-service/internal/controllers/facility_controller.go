package controllers

import (
	"net/http"

	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type FacilityController struct {
	facilityService *services.FacilityService
}

func NewFacilityController(s *services.FacilityService) *FacilityController {
	return &FacilityController{facilityService: s}
}

// GET /facilities
func (c *FacilityController) ListFacilitiesHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	page, err := c.facilityService.List(r.Context(), a, utils.ParseTableQuery(r.URL.Query()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

// GET /facilities/{id}
func (c *FacilityController) GetFacilityHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	f, err := c.facilityService.Get(r.Context(), a, id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, f)
}

// POST /facilities/create
func (c *FacilityController) CreateFacilityHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req dtos.CreateFacilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	f, err := c.facilityService.Create(r.Context(), a, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.Logger.WithField("facilityID", f.ID).Info("Facility created")
	utils.RespondWithJSON(w, http.StatusCreated, f)
}

// PUT /facilities/update?facilityId=
func (c *FacilityController) UpdateFacilityHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := queryUUID(w, r, "facilityId")
	if !ok {
		return
	}
	var req dtos.UpdateFacilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	f, err := c.facilityService.Update(r.Context(), a, id, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, f)
}

// PUT /facilities/update/status
func (c *FacilityController) UpdateFacilityStatusHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req dtos.UpdateFacilityStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	f, err := c.facilityService.UpdateStatus(r.Context(), a, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, f)
}

// PUT /facilities/deploy?facilityId=
func (c *FacilityController) DeployFacilityHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := queryUUID(w, r, "facilityId")
	if !ok {
		return
	}
	f, err := c.facilityService.Deploy(r.Context(), a, id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, f)
}

// DELETE /facilities/delete?facilityId=
func (c *FacilityController) DeleteFacilityHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := queryUUID(w, r, "facilityId")
	if !ok {
		return
	}
	if err := c.facilityService.Delete(r.Context(), a, id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{
		Message: "Facility deleted successfully",
		ID:      id.String(),
	})
}
