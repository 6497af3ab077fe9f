package models

// Domain models matching the database schema in db/migrations/0001_init.sql.
// JSON names follow the REST API wire format.

import (
	"fmt"
	"strings"
	"time"

	"github.com/garnizeh/crm/pkg/crmerr"
)

// Entity is any persisted record with a stable identity.
type Entity interface {
	EntityID() int64
}

// DateLayout is the wire and storage layout of task due dates.
const DateLayout = "2006-01-02"

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}

func (u User) EntityID() int64 { return u.ID }

type Customer struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	Phone              string        `json:"phone,omitempty"`
	Company            string        `json:"company,omitempty"`
	Address            string        `json:"address,omitempty"`
	Industry           string        `json:"industry,omitempty"`
	Location           string        `json:"location,omitempty"`
	Tag                CustomerTag   `json:"tags,omitempty"`
	SalesStage         string        `json:"sales_stage,omitempty"`
	TechnicalEvaluator string        `json:"technical_evaluator,omitempty"`
	DecisionMaker      string        `json:"decision_maker,omitempty"`
	FundingStatus      FundingStatus `json:"funding_status,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
}

func (c Customer) EntityID() int64 { return c.ID }

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return crmerr.Validation("customer", "name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return crmerr.Validation("customer", "email is required")
	}
	if c.Tag != "" && !c.Tag.IsValid() {
		return crmerr.InvalidEnum("tag", string(c.Tag))
	}
	return nil
}

type Project struct {
	ID         int64        `json:"id"`
	CustomerID int64        `json:"customer_id"`
	Name       string       `json:"project_name"`
	Budget     float64      `json:"budget"`
	Phase      ProjectPhase `json:"phase"`
	Manager    int64        `json:"manager,omitempty"`
}

func (p Project) EntityID() int64 { return p.ID }

func (p Project) Validate() error {
	if p.CustomerID <= 0 {
		return crmerr.Validation("project", "customer_id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return crmerr.Validation("project", "project_name is required")
	}
	if p.Budget < 0 {
		return crmerr.Validation("project", "budget must not be negative")
	}
	if !p.Phase.IsValid() {
		return crmerr.InvalidEnum("phase", string(p.Phase))
	}
	return nil
}

type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Description string     `json:"description"`
	DueDate     string     `json:"due_date"`
	AssignedTo  int64      `json:"assigned_to,omitempty"`
	Status      WorkStatus `json:"status"`
}

func (t Task) EntityID() int64 { return t.ID }

func (t Task) Validate() error {
	if t.ProjectID <= 0 {
		return crmerr.Validation("task", "project_id is required")
	}
	if strings.TrimSpace(t.Description) == "" {
		return crmerr.Validation("task", "description is required")
	}
	if _, err := time.Parse(DateLayout, t.DueDate); err != nil {
		return crmerr.Validation("task", fmt.Sprintf("due_date %q must be YYYY-MM-DD", t.DueDate))
	}
	if !t.Status.IsValid() {
		return crmerr.InvalidEnum("status", string(t.Status))
	}
	return nil
}

type Interaction struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	Type       InteractionType `json:"interaction_type"`
	Details    string          `json:"details,omitempty"`
	FilePath   string          `json:"file_path,omitempty"`
	Timestamp  time.Time       `json:"interaction_date"`
}

func (i Interaction) EntityID() int64 { return i.ID }

func (i Interaction) Validate() error {
	if i.CustomerID <= 0 {
		return crmerr.Validation("interaction", "customer_id is required")
	}
	if !i.Type.IsValid() {
		return crmerr.InvalidEnum("interaction_type", string(i.Type))
	}
	return nil
}

// ScopeKind names the owner of a funding record.
type ScopeKind string

const (
	ScopeCustomer ScopeKind = "customer"
	ScopeProject  ScopeKind = "project"
)

// FundingScope identifies the single owner of a funding record. A customer and
// each of its projects hold independent records.
type FundingScope struct {
	Kind ScopeKind `json:"kind"`
	ID   int64     `json:"id"`
}

func CustomerScope(id int64) FundingScope { return FundingScope{Kind: ScopeCustomer, ID: id} }
func ProjectScope(id int64) FundingScope  { return FundingScope{Kind: ScopeProject, ID: id} }

func (s FundingScope) Valid() bool {
	return (s.Kind == ScopeCustomer || s.Kind == ScopeProject) && s.ID > 0
}

func (s FundingScope) String() string { return fmt.Sprintf("%s/%d", s.Kind, s.ID) }

type FundingRecord struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customer_id,omitempty"`
	ProjectID     int64         `json:"project_id,omitempty"`
	Status        FundingStatus `json:"funding_status"`
	Budget        float64       `json:"project_budget"`
	ApprovalDate  *time.Time    `json:"approval_date"`
	DecisionMaker string        `json:"decision_maker,omitempty"`
}

func (f FundingRecord) EntityID() int64 { return f.ID }

// Scope derives the owner from whichever foreign key is set.
func (f FundingRecord) Scope() FundingScope {
	if f.ProjectID > 0 {
		return ProjectScope(f.ProjectID)
	}
	return CustomerScope(f.CustomerID)
}

// CheckInvariant verifies that ApprovalDate is set exactly when the status is
// Approved or Funded.
func (f FundingRecord) CheckInvariant() error {
	if !f.Status.IsValid() {
		return crmerr.InvalidEnum("funding_status", string(f.Status))
	}
	if f.Status.RequiresApprovalDate() != (f.ApprovalDate != nil) {
		return crmerr.Validation("funding", fmt.Sprintf("approval_date inconsistent with status %s", f.Status))
	}
	return nil
}

// WithStatus returns a copy moved to status, setting or clearing the approval
// date as the status requires.
func (f FundingRecord) WithStatus(status FundingStatus, now time.Time) FundingRecord {
	f.Status = status
	if status.RequiresApprovalDate() {
		t := now.UTC()
		f.ApprovalDate = &t
	} else {
		f.ApprovalDate = nil
	}
	return f
}

type SalesOpportunity struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	Name       string     `json:"opportunity"`
	Stage      SalesStage `json:"sales_stage"`
	Revenue    float64    `json:"revenue"`
	Owner      int64      `json:"owner,omitempty"`
}

func (s SalesOpportunity) EntityID() int64 { return s.ID }

func (s SalesOpportunity) Validate() error {
	if s.CustomerID <= 0 {
		return crmerr.Validation("sales_opportunity", "customer_id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return crmerr.Validation("sales_opportunity", "opportunity is required")
	}
	if !s.Stage.IsValid() {
		return crmerr.InvalidEnum("sales_stage", string(s.Stage))
	}
	return nil
}

type ResourceRequest struct {
	ID          int64       `json:"id"`
	ProjectID   int64       `json:"project_id"`
	Type        RequestType `json:"request_type"`
	Description string      `json:"description"`
	Status      WorkStatus  `json:"status"`
	RequestedBy string      `json:"requested_by"`
}

func (r ResourceRequest) EntityID() int64 { return r.ID }

func (r ResourceRequest) Validate() error {
	if r.ProjectID <= 0 {
		return crmerr.Validation("support_request", "project_id is required")
	}
	if !r.Type.IsValid() {
		return crmerr.InvalidEnum("request_type", string(r.Type))
	}
	if strings.TrimSpace(r.Description) == "" {
		return crmerr.Validation("support_request", "description is required")
	}
	if strings.TrimSpace(r.RequestedBy) == "" {
		return crmerr.Validation("support_request", "requested_by is required")
	}
	if !r.Status.IsValid() {
		return crmerr.InvalidEnum("status", string(r.Status))
	}
	return nil
}

type UpdateLog struct {
	ID                int64     `json:"id"`
	ProjectID         int64     `json:"project_id"`
	ChangeType        string    `json:"change_type"`
	ResponsiblePerson string    `json:"responsible_person"`
	Comment           string    `json:"comment,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

func (l UpdateLog) EntityID() int64 { return l.ID }

func (l UpdateLog) Validate() error {
	if l.ProjectID <= 0 {
		return crmerr.Validation("update_log", "project_id is required")
	}
	if strings.TrimSpace(l.ChangeType) == "" || strings.TrimSpace(l.ResponsiblePerson) == "" {
		return crmerr.Validation("update_log", "change_type and responsible_person are required")
	}
	return nil
}

// DashboardStats are the counters shown on the landing dashboard.
type DashboardStats struct {
	TotalCustomers     int64 `json:"totalCustomers"`
	PendingFunding     int64 `json:"pendingFunding"`
	RecentInteractions int64 `json:"recentInteractions"`
	ActiveDeals        int64 `json:"activeDeals"`
}

// AdminStats are the entity totals shown on the admin dashboard.
type AdminStats struct {
	Customers int64 `json:"customers"`
	Projects  int64 `json:"projects"`
	Sales     int64 `json:"sales"`
}

type SalesSummary struct {
	TotalOpportunities int64   `json:"total_sales_opportunities"`
	TotalRevenue       float64 `json:"total_revenue"`
}

type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int64  `json:"count"`
}

type BudgetSummary struct {
	TotalProjects int64   `json:"total_projects"`
	TotalBudget   float64 `json:"total_budget"`
}
