package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	go_dtos "github.com/stowpoint/mono-repo/backend/shared/go-dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

var validate = validator.New()

// decodeAndValidate reads a JSON body into req and runs the struct tags.
// It writes the 400 response itself and reports whether the caller may
// continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	return decodeBody(w, r, req, false)
}

// decodeOptional is decodeAndValidate for endpoints whose body may be
// omitted. An empty body, chunked or not, leaves req at its zero value.
func decodeOptional(w http.ResponseWriter, r *http.Request, req any) bool {
	return decodeBody(w, r, req, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, req any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(req)
	if optional && errors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return false
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error",
			go_dtos.NewValidationErrorDetails(err), err,
		)
		return false
	}
	return true
}

// actor returns the authenticated actor, answering 401 when absent.
func actor(w http.ResponseWriter, r *http.Request) (*models.Actor, bool) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", nil)
		return nil, false
	}
	return a, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	return parseUUID(w, name, mux.Vars(r)[name])
}

func queryUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	return parseUUID(w, name, r.URL.Query().Get(name))
}

func parseUUID(w http.ResponseWriter, name, raw string) (uuid.UUID, bool) {
	if raw == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, name+" is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid "+name, nil, err)
		return uuid.Nil, false
	}
	return id, true
}

// facilityAndUnit extracts both path ids of a unit route.
func facilityAndUnit(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	facilityID, ok := pathUUID(w, r, "facilityId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	unitID, ok := pathUUID(w, r, "unitId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return facilityID, unitID, true
}
