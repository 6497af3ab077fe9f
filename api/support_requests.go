package api

import (
	"net/http"
	"strings"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

type SupportRequestsHandler struct {
	repo     repository.SupportRequestRepo
	projects repository.ProjectRepo
}

func NewSupportRequestsHandler(repo repository.SupportRequestRepo, projects repository.ProjectRepo) *SupportRequestsHandler {
	return &SupportRequestsHandler{repo: repo, projects: projects}
}

type supportRequestPatch struct {
	Type        *string `json:"request_type"`
	Description *string `json:"description"`
	RequestedBy *string `json:"requested_by"`
	Status      *string `json:"status"`
}

func (p supportRequestPatch) apply(req *models.ResourceRequest) error {
	if p.Type != nil {
		t, err := models.ParseRequestType(*p.Type)
		if err != nil {
			return err
		}
		req.Type = t
	}
	if p.Description != nil {
		req.Description = strings.TrimSpace(*p.Description)
	}
	if p.RequestedBy != nil {
		req.RequestedBy = strings.TrimSpace(*p.RequestedBy)
	}
	if p.Status != nil {
		st, err := models.ParseWorkStatus(*p.Status)
		if err != nil {
			return err
		}
		req.Status = st
	}
	return req.Validate()
}

func (h *SupportRequestsHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := withID(w, r, "projectId")
	if !ok {
		return
	}
	items, err := h.repo.ListSupportRequestsByProject(r.Context(), projectID)
	if err != nil {
		writeStoreError(w, "list support requests", err)
		return
	}
	writeJSON(w, emptyIfNil(items), http.StatusOK)
}

func (h *SupportRequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := withID(w, r, "projectId")
	if !ok {
		return
	}
	var patch supportRequestPatch
	if !decodeBody(w, r, "support_request_create", &patch) {
		return
	}
	p, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		writeStoreError(w, "create support request", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	req := models.ResourceRequest{ProjectID: projectID, Status: models.StatusPending}
	if err := patch.apply(&req); err != nil {
		writeStoreError(w, "create support request", err)
		return
	}
	id, err := h.repo.CreateSupportRequest(r.Context(), &req)
	if err != nil {
		writeStoreError(w, "create support request", err)
		return
	}
	req.ID = id
	writeJSON(w, req, http.StatusCreated)
}

func (h *SupportRequestsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	var patch supportRequestPatch
	if !decodeBody(w, r, "support_request_update", &patch) {
		return
	}
	req, err := h.repo.GetSupportRequest(r.Context(), id)
	if err != nil {
		writeStoreError(w, "update support request", err)
		return
	}
	if req == nil {
		writeError(w, http.StatusNotFound, "support request not found")
		return
	}
	if err := patch.apply(req); err != nil {
		writeStoreError(w, "update support request", err)
		return
	}
	if err := h.repo.UpdateSupportRequest(r.Context(), req); err != nil {
		writeStoreError(w, "update support request", err)
		return
	}
	writeJSON(w, req, http.StatusOK)
}
