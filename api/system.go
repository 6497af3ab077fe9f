package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/garnizeh/crm/pkg/repository"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

type SystemHandler struct {
	db repository.HealthRepo
}

func NewSystemHandler(db repository.HealthRepo) *SystemHandler {
	return &SystemHandler{db: db}
}

// HealthHandler answers 503 when the database does not respond.
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("health: database unreachable", slog.Any("err", err))
		writeJSON(w, healthResponse{Status: "unavailable", Service: "crm", Database: "down"}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, healthResponse{Status: "ok", Service: "crm", Database: "up"}, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": version, "buildTime": buildTime}, http.StatusOK)
	}
}
