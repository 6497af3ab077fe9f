package repository

import (
	"context"
	"time"

	"github.com/garnizeh/crm/pkg/models"
)

// Repository interfaces for CRM entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
// Getters return nil, nil when the row does not exist.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CustomerFilter narrows ListCustomers. Empty fields match everything.
type CustomerFilter struct {
	Industry   string
	Location   string
	Tag        string
	SalesStage string
}

type CustomerRepo interface {
	CreateCustomer(ctx context.Context, c *models.Customer) (int64, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error
}

type ProjectRepo interface {
	CreateProject(ctx context.Context, p *models.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListProjectsByCustomer(ctx context.Context, customerID int64) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id int64) error
}

type TaskRepo interface {
	CreateTask(ctx context.Context, t *models.Task) (int64, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
}

type InteractionRepo interface {
	CreateInteraction(ctx context.Context, i *models.Interaction) (int64, error)
	ListInteractionsByCustomer(ctx context.Context, customerID int64) ([]models.Interaction, error)
}

type FundingRepo interface {
	GetFunding(ctx context.Context, scope models.FundingScope) (*models.FundingRecord, error)
	// SaveFunding inserts or replaces the record owned by f.Scope(). For a
	// customer scope the customer's funding_status is updated in the same
	// transaction.
	SaveFunding(ctx context.Context, f *models.FundingRecord) (int64, error)
	DeleteFunding(ctx context.Context, scope models.FundingScope) error
}

type SalesRepo interface {
	CreateSale(ctx context.Context, s *models.SalesOpportunity) (int64, error)
	GetSale(ctx context.Context, id int64) (*models.SalesOpportunity, error)
	// ListSales returns every opportunity when customerID is zero.
	ListSales(ctx context.Context, customerID int64) ([]models.SalesOpportunity, error)
	UpdateSale(ctx context.Context, s *models.SalesOpportunity) error
	DeleteSale(ctx context.Context, id int64) error
}

type SupportRequestRepo interface {
	CreateSupportRequest(ctx context.Context, r *models.ResourceRequest) (int64, error)
	GetSupportRequest(ctx context.Context, id int64) (*models.ResourceRequest, error)
	ListSupportRequestsByProject(ctx context.Context, projectID int64) ([]models.ResourceRequest, error)
	UpdateSupportRequest(ctx context.Context, r *models.ResourceRequest) error
}

type UpdateLogRepo interface {
	CreateUpdateLog(ctx context.Context, l *models.UpdateLog) (int64, error)
	ListUpdateLogsByProject(ctx context.Context, projectID int64) ([]models.UpdateLog, error)
}

type StatsRepo interface {
	// DashboardStats counts interactions newer than since as recent.
	DashboardStats(ctx context.Context, since time.Time) (*models.DashboardStats, error)
	AdminStats(ctx context.Context) (*models.AdminStats, error)
	SalesSummary(ctx context.Context) (*models.SalesSummary, error)
	CustomerDistribution(ctx context.Context) ([]models.IndustryCount, error)
	ProjectBudget(ctx context.Context) (*models.BudgetSummary, error)
}

// Store aggregates every repository the API needs.
// HealthRepo reports whether the backing database answers.
type HealthRepo interface {
	Ping(ctx context.Context) error
}

type Store interface {
	HealthRepo
	UserRepo
	CustomerRepo
	ProjectRepo
	TaskRepo
	InteractionRepo
	FundingRepo
	SalesRepo
	SupportRequestRepo
	UpdateLogRepo
	StatsRepo
}
