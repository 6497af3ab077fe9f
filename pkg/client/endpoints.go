package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

func id(v int64) string { return strconv.FormatInt(v, 10) }

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token   string      `json:"token"`
	Role    models.Role `json:"role"`
	UserID  int64       `json:"user_id"`
	Message string      `json:"message"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	return write[LoginResult](ctx, c, http.MethodPost, "/users/login", map[string]string{"email": email, "password": password})
}

func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// Users

func (c *Client) Profile(ctx context.Context) (models.User, error) {
	return get[models.User](ctx, c, "/users/profile", nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	return get[[]models.User](ctx, c, "/users", nil)
}

func (c *Client) GetUser(ctx context.Context, userID int64) (models.User, error) {
	return get[models.User](ctx, c, "/users/"+id(userID), nil)
}

// NewUser is the body of POST /users.
type NewUser struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

func (c *Client) CreateUser(ctx context.Context, u NewUser) (models.User, error) {
	return write[models.User](ctx, c, http.MethodPost, "/users", u)
}

func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+id(userID), nil, nil, nil)
}

// Customers

// CustomerQuery holds the server-side customer filters. Empty fields are omitted.
type CustomerQuery struct {
	Industry   string
	Location   string
	Tag        string
	SalesStage string
}

func (q CustomerQuery) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("industry", q.Industry)
	set("location", q.Location)
	set("tags", q.Tag)
	set("sales_stage", q.SalesStage)
	return v
}

func (c *Client) ListCustomers(ctx context.Context, q CustomerQuery) ([]models.Customer, error) {
	return get[[]models.Customer](ctx, c, "/customers", q.values())
}

func (c *Client) GetCustomer(ctx context.Context, customerID int64) (models.Customer, error) {
	return get[models.Customer](ctx, c, "/customers/"+id(customerID), nil)
}

func (c *Client) CreateCustomer(ctx context.Context, cust models.Customer) (models.Customer, error) {
	if err := cust.Validate(); err != nil {
		return models.Customer{}, err
	}
	return write[models.Customer](ctx, c, http.MethodPost, "/customers", customerBody(cust))
}

// customerBody drops the read-only fields the server rejects.
func customerBody(c models.Customer) Patch {
	p := Patch{"name": c.Name, "email": c.Email}
	opt := map[string]string{
		"phone": c.Phone, "company": c.Company, "address": c.Address,
		"industry": c.Industry, "location": c.Location, "tags": string(c.Tag),
		"sales_stage": c.SalesStage, "technical_evaluator": c.TechnicalEvaluator,
		"decision_maker": c.DecisionMaker,
	}
	for k, v := range opt {
		if v != "" {
			p[k] = v
		}
	}
	return p
}

func (c *Client) UpdateCustomer(ctx context.Context, customerID int64, p Patch) (models.Customer, error) {
	return write[models.Customer](ctx, c, http.MethodPut, "/customers/"+id(customerID), p)
}

// Projects

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	return get[[]models.Project](ctx, c, "/projects", nil)
}

func (c *Client) ListProjectsByCustomer(ctx context.Context, customerID int64) ([]models.Project, error) {
	return get[[]models.Project](ctx, c, "/projects/customers/"+id(customerID), nil)
}

func (c *Client) GetProject(ctx context.Context, projectID int64) (models.Project, error) {
	return get[models.Project](ctx, c, "/projects/"+id(projectID), nil)
}

// Create methods validate locally and send nothing when validation fails.

func (c *Client) CreateProject(ctx context.Context, customerID int64, p models.Project) (models.Project, error) {
	p.CustomerID = customerID
	if p.Phase == "" {
		p.Phase = models.PhasePlanning
	}
	if err := p.Validate(); err != nil {
		return models.Project{}, err
	}
	body := Patch{"project_name": p.Name, "budget": p.Budget, "phase": p.Phase}
	if p.Manager > 0 {
		body["manager"] = p.Manager
	}
	return write[models.Project](ctx, c, http.MethodPost, "/projects/customers/"+id(customerID), body)
}

func (c *Client) UpdateProject(ctx context.Context, projectID int64, p Patch) (models.Project, error) {
	return write[models.Project](ctx, c, http.MethodPut, "/projects/"+id(projectID), p)
}

func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/projects/"+id(projectID), nil, nil, nil)
}

// Tasks

func (c *Client) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	return get[[]models.Task](ctx, c, "/tasks/projects/"+id(projectID), nil)
}

func (c *Client) CreateTask(ctx context.Context, projectID int64, t models.Task) (models.Task, error) {
	t.ProjectID = projectID
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if err := t.Validate(); err != nil {
		return models.Task{}, err
	}
	body := Patch{"description": t.Description, "due_date": t.DueDate, "status": t.Status}
	if t.AssignedTo > 0 {
		body["assigned_to"] = t.AssignedTo
	}
	return write[models.Task](ctx, c, http.MethodPost, "/tasks/projects/"+id(projectID), body)
}

func (c *Client) UpdateTask(ctx context.Context, taskID int64, p Patch) (models.Task, error) {
	return write[models.Task](ctx, c, http.MethodPut, "/tasks/"+id(taskID), p)
}

// Interactions

func (c *Client) ListInteractions(ctx context.Context, customerID int64) ([]models.Interaction, error) {
	return get[[]models.Interaction](ctx, c, "/interactions/"+id(customerID), nil)
}

// NewInteraction is sent as multipart/form-data. File is optional.
type NewInteraction struct {
	Type     models.InteractionType
	Details  string
	FileName string
	File     io.Reader
}

func (c *Client) CreateInteraction(ctx context.Context, customerID int64, in NewInteraction) (models.Interaction, error) {
	if err := (models.Interaction{CustomerID: customerID, Type: in.Type}).Validate(); err != nil {
		return models.Interaction{}, err
	}
	path := "/interactions/" + id(customerID)
	op := http.MethodPost + " " + path

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("interaction_type", string(in.Type)); err != nil {
		return models.Interaction{}, crmerr.Wrap(crmerr.KindValidation, op, err)
	}
	if err := mw.WriteField("details", in.Details); err != nil {
		return models.Interaction{}, crmerr.Wrap(crmerr.KindValidation, op, err)
	}
	if in.File != nil {
		name := in.FileName
		if name == "" {
			name = "upload"
		}
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			return models.Interaction{}, crmerr.Wrap(crmerr.KindValidation, op, err)
		}
		if _, err := io.Copy(fw, in.File); err != nil {
			return models.Interaction{}, crmerr.Wrap(crmerr.KindValidation, op, fmt.Errorf("read attachment: %w", err))
		}
	}
	if err := mw.Close(); err != nil {
		return models.Interaction{}, crmerr.Wrap(crmerr.KindValidation, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), &buf)
	if err != nil {
		return models.Interaction{}, crmerr.Wrap(crmerr.KindNetwork, op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.Interaction
	err = c.send(ctx, req, op, &out)
	return out, err
}

// Funding

func fundingPath(scope models.FundingScope) string {
	if scope.Kind == models.ScopeProject {
		return "/projects/" + id(scope.ID) + "/funding"
	}
	return "/funding/customers/" + id(scope.ID)
}

func (c *Client) GetFunding(ctx context.Context, scope models.FundingScope) (models.FundingRecord, error) {
	return get[models.FundingRecord](ctx, c, fundingPath(scope), nil)
}

// PutFunding creates or updates the record owned by scope.
func (c *Client) PutFunding(ctx context.Context, scope models.FundingScope, p Patch) (models.FundingRecord, error) {
	return write[models.FundingRecord](ctx, c, http.MethodPut, fundingPath(scope), p)
}

func (c *Client) CreateCustomerFunding(ctx context.Context, customerID int64, p Patch) (models.FundingRecord, error) {
	return write[models.FundingRecord](ctx, c, http.MethodPost, fundingPath(models.CustomerScope(customerID)), p)
}

func (c *Client) DeleteCustomerFunding(ctx context.Context, customerID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fundingPath(models.CustomerScope(customerID)), nil, nil, nil)
}

// Sales opportunities

func (c *Client) ListSales(ctx context.Context) ([]models.SalesOpportunity, error) {
	return get[[]models.SalesOpportunity](ctx, c, "/sales_opportunity", nil)
}

func (c *Client) ListSalesByCustomer(ctx context.Context, customerID int64) ([]models.SalesOpportunity, error) {
	return get[[]models.SalesOpportunity](ctx, c, "/sales_opportunity/customer/"+id(customerID), nil)
}

func (c *Client) CreateSale(ctx context.Context, s models.SalesOpportunity) (models.SalesOpportunity, error) {
	if err := s.Validate(); err != nil {
		return models.SalesOpportunity{}, err
	}
	body := Patch{"customer_id": s.CustomerID, "opportunity": s.Name, "sales_stage": s.Stage, "revenue": s.Revenue}
	if s.Owner > 0 {
		body["owner"] = s.Owner
	}
	return write[models.SalesOpportunity](ctx, c, http.MethodPost, "/sales_opportunity", body)
}

func (c *Client) UpdateSale(ctx context.Context, saleID int64, p Patch) (models.SalesOpportunity, error) {
	return write[models.SalesOpportunity](ctx, c, http.MethodPut, "/sales_opportunity/"+id(saleID), p)
}

func (c *Client) DeleteSale(ctx context.Context, saleID int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/sales_opportunity/"+id(saleID), nil, nil, nil)
}

// Update logs

func (c *Client) ListUpdateLogs(ctx context.Context, projectID int64) ([]models.UpdateLog, error) {
	return get[[]models.UpdateLog](ctx, c, "/update_logs/projects/"+id(projectID), nil)
}

func (c *Client) CreateUpdateLog(ctx context.Context, projectID int64, changeType, responsible, comment string) (models.UpdateLog, error) {
	l := models.UpdateLog{ProjectID: projectID, ChangeType: changeType, ResponsiblePerson: responsible}
	if err := l.Validate(); err != nil {
		return models.UpdateLog{}, err
	}
	body := Patch{"change_type": changeType, "responsible_person": responsible, "comment": comment}
	return write[models.UpdateLog](ctx, c, http.MethodPost, "/update_logs/projects/"+id(projectID), body)
}

// Support requests

func (c *Client) ListSupportRequests(ctx context.Context, projectID int64) ([]models.ResourceRequest, error) {
	return get[[]models.ResourceRequest](ctx, c, "/support_requests/projects/"+id(projectID), nil)
}

func (c *Client) CreateSupportRequest(ctx context.Context, projectID int64, r models.ResourceRequest) (models.ResourceRequest, error) {
	r.ProjectID = projectID
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if err := r.Validate(); err != nil {
		return models.ResourceRequest{}, err
	}
	body := Patch{"request_type": r.Type, "description": r.Description, "requested_by": r.RequestedBy, "status": r.Status}
	return write[models.ResourceRequest](ctx, c, http.MethodPost, "/support_requests/projects/"+id(projectID), body)
}

func (c *Client) UpdateSupportRequest(ctx context.Context, requestID int64, p Patch) (models.ResourceRequest, error) {
	return write[models.ResourceRequest](ctx, c, http.MethodPut, "/support_requests/"+id(requestID), p)
}

// Reports

func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	return get[models.DashboardStats](ctx, c, "/dashboard-stats", nil)
}

func (c *Client) AdminDashboard(ctx context.Context) (models.AdminStats, error) {
	return get[models.AdminStats](ctx, c, "/admin/dashboard", nil)
}

func (c *Client) SalesSummary(ctx context.Context) (models.SalesSummary, error) {
	return get[models.SalesSummary](ctx, c, "/reports/sales_summary", nil)
}

func (c *Client) CustomerDistribution(ctx context.Context) ([]models.IndustryCount, error) {
	return get[[]models.IndustryCount](ctx, c, "/reports/customer_distribution", nil)
}

func (c *Client) ProjectBudget(ctx context.Context) (models.BudgetSummary, error) {
	return get[models.BudgetSummary](ctx, c, "/reports/project_budget", nil)
}
