package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

// ChangeRecorder queues project update-log entries.
type ChangeRecorder interface {
	RecordProjectChange(ctx context.Context, projectID int64, changeType, who, comment string)
}

type nopRecorder struct{}

func (nopRecorder) RecordProjectChange(context.Context, int64, string, string, string) {}

type FundingHandler struct {
	repo      repository.FundingRepo
	customers repository.CustomerRepo
	projects  repository.ProjectRepo
	recorder  ChangeRecorder
	now       func() time.Time
}

func NewFundingHandler(repo repository.FundingRepo, customers repository.CustomerRepo, projects repository.ProjectRepo, recorder ChangeRecorder) *FundingHandler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &FundingHandler{repo: repo, customers: customers, projects: projects, recorder: recorder, now: time.Now}
}

type fundingPatch struct {
	Status        *string  `json:"funding_status"`
	Budget        *float64 `json:"project_budget"`
	DecisionMaker *string  `json:"decision_maker"`
}

// applyFundingPatch returns rec with p applied. The approval date is derived
// from the status: set to now when entering Approved or Funded, cleared for
// any other status, and kept when the status does not change.
func applyFundingPatch(rec models.FundingRecord, p fundingPatch, now time.Time) (models.FundingRecord, error) {
	if p.Status != nil {
		status, err := models.ParseFundingStatus(*p.Status)
		if err != nil {
			return rec, err
		}
		if status != rec.Status || rec.CheckInvariant() != nil {
			rec = rec.WithStatus(status, now)
		}
	}
	if p.Budget != nil {
		rec.Budget = *p.Budget
	}
	if p.DecisionMaker != nil {
		rec.DecisionMaker = *p.DecisionMaker
	}
	return rec, rec.CheckInvariant()
}

// scopeExists reports whether the owner of scope exists.
func (h *FundingHandler) scopeExists(ctx context.Context, scope models.FundingScope) (bool, error) {
	switch scope.Kind {
	case models.ScopeCustomer:
		c, err := h.customers.GetCustomer(ctx, scope.ID)
		return c != nil, err
	case models.ScopeProject:
		p, err := h.projects.GetProject(ctx, scope.ID)
		return p != nil, err
	}
	return false, fmt.Errorf("unknown scope %q", scope.Kind)
}

func (h *FundingHandler) get(w http.ResponseWriter, r *http.Request, scope models.FundingScope) {
	rec, err := h.repo.GetFunding(r.Context(), scope)
	if err != nil {
		writeStoreError(w, "get funding", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "funding not found for "+scope.String())
		return
	}
	writeJSON(w, rec, http.StatusOK)
}

// save upserts the record for scope. When mustExist is set a missing record
// answers 404; when mustBeNew is set an existing record answers 409.
func (h *FundingHandler) save(w http.ResponseWriter, r *http.Request, scope models.FundingScope, mustExist, mustBeNew bool) {
	var p fundingPatch
	if !decodeBody(w, r, "funding", &p) {
		return
	}
	ctx := r.Context()

	ok, err := h.scopeExists(ctx, scope)
	if err != nil {
		writeStoreError(w, "save funding", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, string(scope.Kind)+" not found")
		return
	}

	existing, err := h.repo.GetFunding(ctx, scope)
	if err != nil {
		writeStoreError(w, "save funding", err)
		return
	}
	switch {
	case existing == nil && mustExist:
		writeError(w, http.StatusNotFound, "funding not found for "+scope.String())
		return
	case existing != nil && mustBeNew:
		writeError(w, http.StatusConflict, "funding already exists for "+scope.String())
		return
	}

	base := models.FundingRecord{Status: models.FundingPending}
	if existing != nil {
		base = *existing
	}
	if scope.Kind == models.ScopeCustomer {
		base.CustomerID, base.ProjectID = scope.ID, 0
	} else {
		base.CustomerID, base.ProjectID = 0, scope.ID
	}
	prevStatus := base.Status

	rec, err := applyFundingPatch(base, p, h.now())
	if err != nil {
		writeStoreError(w, "save funding", err)
		return
	}
	id, err := h.repo.SaveFunding(ctx, &rec)
	if err != nil {
		writeStoreError(w, "save funding", err)
		return
	}
	rec.ID = id

	if scope.Kind == models.ScopeProject && (existing == nil || prevStatus != rec.Status) {
		h.recorder.RecordProjectChange(ctx, scope.ID, "funding", actor(r), fmt.Sprintf("funding status %s -> %s", prevStatus, rec.Status))
	}

	status := http.StatusOK
	if existing == nil {
		status = http.StatusCreated
	}
	writeJSON(w, rec, status)
}

func (h *FundingHandler) GetCustomerFunding(w http.ResponseWriter, r *http.Request) {
	if id, ok := withID(w, r, "customerId"); ok {
		h.get(w, r, models.CustomerScope(id))
	}
}

func (h *FundingHandler) CreateCustomerFunding(w http.ResponseWriter, r *http.Request) {
	if id, ok := withID(w, r, "customerId"); ok {
		h.save(w, r, models.CustomerScope(id), false, true)
	}
}

// PutCustomerFunding creates the record on first use, like the original API.
func (h *FundingHandler) PutCustomerFunding(w http.ResponseWriter, r *http.Request) {
	if id, ok := withID(w, r, "customerId"); ok {
		h.save(w, r, models.CustomerScope(id), false, false)
	}
}

func (h *FundingHandler) DeleteCustomerFunding(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "customerId")
	if !ok {
		return
	}
	if err := h.repo.DeleteFunding(r.Context(), models.CustomerScope(id)); err != nil {
		writeStoreError(w, "delete funding", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FundingHandler) GetProjectFunding(w http.ResponseWriter, r *http.Request) {
	if id, ok := withID(w, r, "id"); ok {
		h.get(w, r, models.ProjectScope(id))
	}
}

func (h *FundingHandler) PutProjectFunding(w http.ResponseWriter, r *http.Request) {
	if id, ok := withID(w, r, "id"); ok {
		h.save(w, r, models.ProjectScope(id), false, false)
	}
}

// actor names the authenticated user in update logs.
func actor(r *http.Request) string {
	if email := EmailFromContext(r.Context()); email != "" {
		return email
	}
	if id := UserIDFromContext(r.Context()); id > 0 {
		return fmt.Sprintf("user #%d", id)
	}
	return "system"
}
