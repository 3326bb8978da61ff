package controllers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type UnitController struct {
	unitService *services.UnitService
	noteService *services.NoteService
}

func NewUnitController(units *services.UnitService, notes *services.NoteService) *UnitController {
	return &UnitController{unitService: units, noteService: notes}
}

// GET /facilities/{facilityId}/units
func (c *UnitController) ListUnitsHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, ok := pathUUID(w, r, "facilityId")
	if !ok {
		return
	}
	page, err := c.unitService.List(r.Context(), a, facilityID, utils.ParseTableQuery(r.URL.Query()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

// POST /facilities/{facilityId}/units
func (c *UnitController) CreateUnitHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, ok := pathUUID(w, r, "facilityId")
	if !ok {
		return
	}
	var req dtos.CreateUnitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	u, err := c.unitService.Create(r.Context(), a, facilityID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, u)
}

// GET /facilities/{facilityId}/units/{unitId}
func (c *UnitController) GetUnitHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	u, err := c.unitService.Get(r.Context(), a, facilityID, unitID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// PUT /facilities/{facilityId}/units/{unitId}
func (c *UnitController) UpdateUnitHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	var req dtos.UpdateUnitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	u, err := c.unitService.Update(r.Context(), a, facilityID, unitID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// DELETE /facilities/{facilityId}/units/{unitId}
func (c *UnitController) DeleteUnitHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	if err := c.unitService.Delete(r.Context(), a, facilityID, unitID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{
		Message: "Unit deleted successfully",
		ID:      unitID.String(),
	})
}

// POST /facilities/{facilityId}/units/{unitId}/move-in
func (c *UnitController) MoveInHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	var req dtos.MoveInRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := c.unitService.MoveIn(r.Context(), a, facilityID, unitID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.Logger.WithFields(logrus.Fields{
		"unitID":   unitID,
		"tenantID": resp.Tenant.ID,
	}).Info("Tenant moved in")
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /facilities/{facilityId}/units/{unitId}/move-out
func (c *UnitController) MoveOutHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	var req dtos.MoveOutRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	resp, err := c.unitService.MoveOut(r.Context(), a, facilityID, unitID, req.Override)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.Logger.WithField("unitID", unitID).Info("Tenant moved out")
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /facilities/{facilityId}/units/{unitId}/miss-payment
func (c *UnitController) MissPaymentHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	var req dtos.BalanceRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	u, err := c.unitService.MissPayment(r.Context(), a, facilityID, unitID, req.Amount)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// POST /facilities/{facilityId}/units/{unitId}/settle-balance
func (c *UnitController) SettleBalanceHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	var req dtos.BalanceRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	u, err := c.unitService.SettleBalance(r.Context(), a, facilityID, unitID, req.Amount)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// POST /facilities/{facilityId}/units/{unitId}/payments
func (c *UnitController) RecordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	var req dtos.PaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	u, err := c.unitService.RecordPayment(r.Context(), a, facilityID, unitID, req.Amount)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// POST /facilities/{facilityId}/units/{unitId}/notes
func (c *UnitController) AddUnitNoteHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	var req dtos.AddNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	n, err := c.noteService.AddNote(r.Context(), a, models.NoteTargetUnit, facilityID, unitID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, n)
}

// GET /facilities/{facilityId}/units/{unitId}/notes
func (c *UnitController) ListUnitNotesHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	facilityID, unitID, ok := facilityAndUnit(w, r)
	if !ok {
		return
	}
	notes, err := c.noteService.List(r.Context(), a, models.NoteTargetUnit, facilityID, unitID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, notes)
}
