package api

import (
	"net/http"
	"strings"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

type TasksHandler struct {
	repo     repository.TaskRepo
	projects repository.ProjectRepo
}

func NewTasksHandler(repo repository.TaskRepo, projects repository.ProjectRepo) *TasksHandler {
	return &TasksHandler{repo: repo, projects: projects}
}

type taskPatch struct {
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	AssignedTo  *int64  `json:"assigned_to"`
	Status      *string `json:"status"`
}

func (p taskPatch) apply(t *models.Task) error {
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Status != nil {
		st, err := models.ParseWorkStatus(*p.Status)
		if err != nil {
			return err
		}
		t.Status = st
	}
	return t.Validate()
}

func (h *TasksHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := withID(w, r, "projectId")
	if !ok {
		return
	}
	items, err := h.repo.ListTasksByProject(r.Context(), projectID)
	if err != nil {
		writeStoreError(w, "list tasks", err)
		return
	}
	writeJSON(w, emptyIfNil(items), http.StatusOK)
}

func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := withID(w, r, "projectId")
	if !ok {
		return
	}
	var patch taskPatch
	if !decodeBody(w, r, "task_create", &patch) {
		return
	}
	p, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		writeStoreError(w, "create task", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	t := models.Task{ProjectID: projectID, Status: models.StatusPending}
	if err := patch.apply(&t); err != nil {
		writeStoreError(w, "create task", err)
		return
	}
	id, err := h.repo.CreateTask(r.Context(), &t)
	if err != nil {
		writeStoreError(w, "create task", err)
		return
	}
	t.ID = id
	writeJSON(w, t, http.StatusCreated)
}

// Update answers PUT /tasks/{id}, usually {"status": ...}.
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	var patch taskPatch
	if !decodeBody(w, r, "task_update", &patch) {
		return
	}
	t, err := h.repo.GetTask(r.Context(), id)
	if err != nil {
		writeStoreError(w, "update task", err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err := patch.apply(t); err != nil {
		writeStoreError(w, "update task", err)
		return
	}
	if err := h.repo.UpdateTask(r.Context(), t); err != nil {
		writeStoreError(w, "update task", err)
		return
	}
	writeJSON(w, t, http.StatusOK)
}
