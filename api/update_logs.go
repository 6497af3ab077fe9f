package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

type UpdateLogsHandler struct {
	repo     repository.UpdateLogRepo
	projects repository.ProjectRepo
}

func NewUpdateLogsHandler(repo repository.UpdateLogRepo, projects repository.ProjectRepo) *UpdateLogsHandler {
	return &UpdateLogsHandler{repo: repo, projects: projects}
}

type updateLogRequest struct {
	ChangeType        string `json:"change_type"`
	ResponsiblePerson string `json:"responsible_person"`
	Comment           string `json:"comment"`
}

func (h *UpdateLogsHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := withID(w, r, "projectId")
	if !ok {
		return
	}
	items, err := h.repo.ListUpdateLogsByProject(r.Context(), projectID)
	if err != nil {
		writeStoreError(w, "list update logs", err)
		return
	}
	writeJSON(w, emptyIfNil(items), http.StatusOK)
}

func (h *UpdateLogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := withID(w, r, "projectId")
	if !ok {
		return
	}
	var req updateLogRequest
	if !decodeBody(w, r, "update_log_create", &req) {
		return
	}
	p, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		writeStoreError(w, "create update log", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	l := models.UpdateLog{
		ProjectID:         projectID,
		ChangeType:        strings.TrimSpace(req.ChangeType),
		ResponsiblePerson: strings.TrimSpace(req.ResponsiblePerson),
		Comment:           req.Comment,
		Timestamp:         time.Now().UTC(),
	}
	if err := l.Validate(); err != nil {
		writeStoreError(w, "create update log", err)
		return
	}
	id, err := h.repo.CreateUpdateLog(r.Context(), &l)
	if err != nil {
		writeStoreError(w, "create update log", err)
		return
	}
	l.ID = id
	writeJSON(w, l, http.StatusCreated)
}
