package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

type ProjectsHandler struct {
	repo      repository.ProjectRepo
	customers repository.CustomerRepo
	recorder  ChangeRecorder
}

func NewProjectsHandler(repo repository.ProjectRepo, customers repository.CustomerRepo, recorder ChangeRecorder) *ProjectsHandler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &ProjectsHandler{repo: repo, customers: customers, recorder: recorder}
}

type projectPatch struct {
	Name    *string  `json:"project_name"`
	Budget  *float64 `json:"budget"`
	Phase   *string  `json:"phase"`
	Manager *int64   `json:"manager"`
}

func (p projectPatch) apply(pr *models.Project) error {
	if p.Name != nil {
		pr.Name = strings.TrimSpace(*p.Name)
	}
	if p.Budget != nil {
		pr.Budget = *p.Budget
	}
	if p.Phase != nil {
		phase, err := models.ParseProjectPhase(*p.Phase)
		if err != nil {
			return err
		}
		pr.Phase = phase
	}
	if p.Manager != nil {
		pr.Manager = *p.Manager
	}
	return pr.Validate()
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListProjects(r.Context())
	if err != nil {
		writeStoreError(w, "list projects", err)
		return
	}
	writeJSON(w, emptyIfNil(items), http.StatusOK)
}

func (h *ProjectsHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := withID(w, r, "customerId")
	if !ok {
		return
	}
	items, err := h.repo.ListProjectsByCustomer(r.Context(), customerID)
	if err != nil {
		writeStoreError(w, "list projects", err)
		return
	}
	writeJSON(w, emptyIfNil(items), http.StatusOK)
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.repo.GetProject(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get project", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := withID(w, r, "customerId")
	if !ok {
		return
	}
	var patch projectPatch
	if !decodeBody(w, r, "project_create", &patch) {
		return
	}

	c, err := h.customers.GetCustomer(r.Context(), customerID)
	if err != nil {
		writeStoreError(w, "create project", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	p := models.Project{CustomerID: customerID, Phase: models.PhasePlanning}
	if err := patch.apply(&p); err != nil {
		writeStoreError(w, "create project", err)
		return
	}
	id, err := h.repo.CreateProject(r.Context(), &p)
	if err != nil {
		writeStoreError(w, "create project", err)
		return
	}
	p.ID = id
	writeJSON(w, p, http.StatusCreated)
}

// Update applies a partial update. A phase change is recorded in the
// project's update log.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	var patch projectPatch
	if !decodeBody(w, r, "project_update", &patch) {
		return
	}

	p, err := h.repo.GetProject(r.Context(), id)
	if err != nil {
		writeStoreError(w, "update project", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	prevPhase := p.Phase
	if err := patch.apply(p); err != nil {
		writeStoreError(w, "update project", err)
		return
	}
	if err := h.repo.UpdateProject(r.Context(), p); err != nil {
		writeStoreError(w, "update project", err)
		return
	}
	if p.Phase != prevPhase {
		h.recorder.RecordProjectChange(r.Context(), p.ID, "phase", actor(r), fmt.Sprintf("phase %s -> %s", prevPhase, p.Phase))
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteProject(r.Context(), id); err != nil {
		writeStoreError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
