package api

import (
	"net/http"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

type CustomersHandler struct {
	repo repository.CustomerRepo
}

func NewCustomersHandler(repo repository.CustomerRepo) *CustomersHandler {
	return &CustomersHandler{repo: repo}
}

// customerPatch carries a partial update; nil fields are left untouched.
type customerPatch struct {
	Name               *string `json:"name"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	Company            *string `json:"company"`
	Address            *string `json:"address"`
	Industry           *string `json:"industry"`
	Location           *string `json:"location"`
	Tags               *string `json:"tags"`
	SalesStage         *string `json:"sales_stage"`
	TechnicalEvaluator *string `json:"technical_evaluator"`
	DecisionMaker      *string `json:"decision_maker"`
}

func (p customerPatch) apply(c *models.Customer) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Name, p.Name)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.Company, p.Company)
	set(&c.Address, p.Address)
	set(&c.Industry, p.Industry)
	set(&c.Location, p.Location)
	set(&c.SalesStage, p.SalesStage)
	set(&c.TechnicalEvaluator, p.TechnicalEvaluator)
	set(&c.DecisionMaker, p.DecisionMaker)
	if p.Tags != nil {
		c.Tag = models.CustomerTag(*p.Tags)
	}
}

// List answers GET /customers with optional industry, location, tags and
// sales_stage query filters.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.CustomerFilter{
		Industry:   q.Get("industry"),
		Location:   q.Get("location"),
		Tag:        q.Get("tags"),
		SalesStage: q.Get("sales_stage"),
	}
	customers, err := h.repo.ListCustomers(r.Context(), f)
	if err != nil {
		writeStoreError(w, "list customers", err)
		return
	}
	writeJSON(w, emptyIfNil(customers), http.StatusOK)
}

func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.repo.GetCustomer(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get customer", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, c, http.StatusOK)
}

func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p customerPatch
	if !decodeBody(w, r, "customer_create", &p) {
		return
	}
	var c models.Customer
	p.apply(&c)
	if err := c.Validate(); err != nil {
		writeStoreError(w, "create customer", err)
		return
	}

	id, err := h.repo.CreateCustomer(r.Context(), &c)
	if err != nil {
		writeStoreError(w, "create customer", err)
		return
	}
	created, err := h.repo.GetCustomer(r.Context(), id)
	if err != nil || created == nil {
		c.ID = id
		created = &c
	}
	writeJSON(w, created, http.StatusCreated)
}

// Update applies a partial update, including {"tags": value}, and answers
// with the stored customer.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	var p customerPatch
	if !decodeBody(w, r, "customer_update", &p) {
		return
	}

	c, err := h.repo.GetCustomer(r.Context(), id)
	if err != nil {
		writeStoreError(w, "update customer", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	p.apply(c)
	if err := c.Validate(); err != nil {
		writeStoreError(w, "update customer", err)
		return
	}
	if err := h.repo.UpdateCustomer(r.Context(), c); err != nil {
		writeStoreError(w, "update customer", err)
		return
	}
	writeJSON(w, c, http.StatusOK)
}
