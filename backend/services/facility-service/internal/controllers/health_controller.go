package controllers

import (
	"context"
	"net/http"

	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// Pinger is satisfied by the application's database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

type healthCheckResponse struct {
	Status string `json:"status"`
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := c.db.Ping(r.Context()); err != nil {
		utils.RespondErrorWithCode(
			w,
			http.StatusServiceUnavailable,
			utils.ErrCodeInternal,
			"Database unreachable",
			nil,
			err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, healthCheckResponse{Status: "OK"})
}
