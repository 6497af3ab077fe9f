package api

import (
	"net/http"
	"time"

	"github.com/garnizeh/crm/pkg/repository"
)

// recentWindow bounds the "recent interactions" dashboard counter.
const recentWindow = 7 * 24 * time.Hour

type ReportsHandler struct {
	repo repository.StatsRepo
	now  func() time.Time
}

func NewReportsHandler(repo repository.StatsRepo) *ReportsHandler {
	return &ReportsHandler{repo: repo, now: time.Now}
}

func (h *ReportsHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.DashboardStats(r.Context(), h.now().Add(-recentWindow))
	if err != nil {
		writeStoreError(w, "dashboard stats", err)
		return
	}
	writeJSON(w, s, http.StatusOK)
}

func (h *ReportsHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.AdminStats(r.Context())
	if err != nil {
		writeStoreError(w, "admin stats", err)
		return
	}
	writeJSON(w, s, http.StatusOK)
}

func (h *ReportsHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.SalesSummary(r.Context())
	if err != nil {
		writeStoreError(w, "sales summary", err)
		return
	}
	writeJSON(w, s, http.StatusOK)
}

func (h *ReportsHandler) CustomerDistribution(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.CustomerDistribution(r.Context())
	if err != nil {
		writeStoreError(w, "customer distribution", err)
		return
	}
	writeJSON(w, emptyIfNil(s), http.StatusOK)
}

func (h *ReportsHandler) ProjectBudget(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.ProjectBudget(r.Context())
	if err != nil {
		writeStoreError(w, "project budget", err)
		return
	}
	writeJSON(w, s, http.StatusOK)
}
