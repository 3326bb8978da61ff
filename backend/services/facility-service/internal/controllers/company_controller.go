package controllers

import (
	"net/http"

	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

type CompanyController struct {
	companyService *services.CompanyService
}

func NewCompanyController(s *services.CompanyService) *CompanyController {
	return &CompanyController{companyService: s}
}

// GET /companies
func (c *CompanyController) ListCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	page, err := c.companyService.List(r.Context(), a, utils.ParseTableQuery(r.URL.Query()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

// GET /companies/{id}
func (c *CompanyController) GetCompanyHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	co, err := c.companyService.Get(r.Context(), a, id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, co)
}

// POST /companies/create
func (c *CompanyController) CreateCompanyHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req dtos.CreateCompanyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	co, err := c.companyService.Create(r.Context(), a, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, co)
}

// PUT /companies/update
func (c *CompanyController) UpdateCompanyHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req dtos.UpdateCompanyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	co, err := c.companyService.Update(r.Context(), a, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, co)
}
