package api

import (
	"net/http"
	"strings"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

type SalesHandler struct {
	repo      repository.SalesRepo
	customers repository.CustomerRepo
}

func NewSalesHandler(repo repository.SalesRepo, customers repository.CustomerRepo) *SalesHandler {
	return &SalesHandler{repo: repo, customers: customers}
}

type salesPatch struct {
	CustomerID *int64   `json:"customer_id"`
	Name       *string  `json:"opportunity"`
	Stage      *string  `json:"sales_stage"`
	Revenue    *float64 `json:"revenue"`
	Owner      *int64   `json:"owner"`
}

func (p salesPatch) apply(s *models.SalesOpportunity) error {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Stage != nil {
		st, err := models.ParseSalesStage(*p.Stage)
		if err != nil {
			return err
		}
		s.Stage = st
	}
	if p.Revenue != nil {
		s.Revenue = *p.Revenue
	}
	if p.Owner != nil {
		s.Owner = *p.Owner
	}
	return s.Validate()
}

func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListSales(r.Context(), 0)
	if err != nil {
		writeStoreError(w, "list sales opportunities", err)
		return
	}
	writeJSON(w, emptyIfNil(items), http.StatusOK)
}

func (h *SalesHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := withID(w, r, "customerId")
	if !ok {
		return
	}
	items, err := h.repo.ListSales(r.Context(), customerID)
	if err != nil {
		writeStoreError(w, "list sales opportunities", err)
		return
	}
	writeJSON(w, emptyIfNil(items), http.StatusOK)
}

func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var patch salesPatch
	if !decodeBody(w, r, "sales_create", &patch) {
		return
	}
	s := models.SalesOpportunity{CustomerID: *patch.CustomerID}
	if patch.Owner == nil {
		s.Owner = UserIDFromContext(r.Context())
	}
	if err := patch.apply(&s); err != nil {
		writeStoreError(w, "create sales opportunity", err)
		return
	}
	c, err := h.customers.GetCustomer(r.Context(), s.CustomerID)
	if err != nil {
		writeStoreError(w, "create sales opportunity", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	id, err := h.repo.CreateSale(r.Context(), &s)
	if err != nil {
		writeStoreError(w, "create sales opportunity", err)
		return
	}
	s.ID = id
	writeJSON(w, s, http.StatusCreated)
}

func (h *SalesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	var patch salesPatch
	if !decodeBody(w, r, "sales_update", &patch) {
		return
	}
	s, err := h.repo.GetSale(r.Context(), id)
	if err != nil {
		writeStoreError(w, "update sales opportunity", err)
		return
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "sales opportunity not found")
		return
	}
	if err := patch.apply(s); err != nil {
		writeStoreError(w, "update sales opportunity", err)
		return
	}
	if err := h.repo.UpdateSale(r.Context(), s); err != nil {
		writeStoreError(w, "update sales opportunity", err)
		return
	}
	writeJSON(w, s, http.StatusOK)
}

func (h *SalesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteSale(r.Context(), id); err != nil {
		writeStoreError(w, "delete sales opportunity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
