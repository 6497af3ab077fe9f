package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, store repository.Store, recorder ChangeRecorder) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	if recorder == nil {
		recorder = nopRecorder{}
	}

	// Create handlers
	systemHandler := NewSystemHandler(store)
	authHandler := NewAuthHandler(store, cfg.JWTSecret, cfg.TokenDuration)
	usersHandler := NewUsersHandler(store)
	customersHandler := NewCustomersHandler(store)
	interactionsHandler := NewInteractionsHandler(store, store, cfg.UploadDir)
	fundingHandler := NewFundingHandler(store, store, store, recorder)
	projectsHandler := NewProjectsHandler(store, store, recorder)
	tasksHandler := NewTasksHandler(store, store)
	supportHandler := NewSupportRequestsHandler(store, store)
	salesHandler := NewSalesHandler(store, store)
	updateLogsHandler := NewUpdateLogsHandler(store, store)
	reportsHandler := NewReportsHandler(store)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/users/login", authHandler.Login).Methods("POST")

	// Protected routes
	api := r.NewRoute().Subrouter()
	api.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	admin := []models.Role{models.RoleAdmin}
	sales := []models.Role{models.RoleAdmin, models.RoleSales}
	pm := []models.Role{models.RoleAdmin, models.RoleProjectManager}

	handle := func(path string, h http.HandlerFunc, method string, roles ...models.Role) {
		if len(roles) == 0 {
			api.Handle(path, h).Methods(method)
			return
		}
		api.Handle(path, requireRole(h, roles...)).Methods(method)
	}

	// Users; /users/profile must precede /users/{id}
	handle("/users/profile", authHandler.Profile, "GET")
	handle("/users", usersHandler.List, "GET")
	handle("/users", usersHandler.Create, "POST", admin...)
	handle("/users/{id:[0-9]+}", usersHandler.Get, "GET")
	handle("/users/{id:[0-9]+}", usersHandler.Delete, "DELETE", admin...)

	// Customers and their interactions
	handle("/customers", customersHandler.List, "GET")
	handle("/customers", customersHandler.Create, "POST", sales...)
	handle("/customers/{id:[0-9]+}", customersHandler.Get, "GET")
	handle("/customers/{id:[0-9]+}", customersHandler.Update, "PUT", sales...)
	handle("/interactions/{customerId:[0-9]+}", interactionsHandler.List, "GET")
	handle("/interactions/{customerId:[0-9]+}", interactionsHandler.Create, "POST", sales...)

	// Funding
	handle("/funding/customers/{customerId:[0-9]+}", fundingHandler.GetCustomerFunding, "GET")
	handle("/funding/customers/{customerId:[0-9]+}", fundingHandler.CreateCustomerFunding, "POST", sales...)
	handle("/funding/customers/{customerId:[0-9]+}", fundingHandler.PutCustomerFunding, "PUT", sales...)
	handle("/funding/customers/{customerId:[0-9]+}", fundingHandler.DeleteCustomerFunding, "DELETE", sales...)
	handle("/projects/{id:[0-9]+}/funding", fundingHandler.GetProjectFunding, "GET")
	handle("/projects/{id:[0-9]+}/funding", fundingHandler.PutProjectFunding, "PUT", pm...)

	// Projects and their tasks, requests and logs
	handle("/projects", projectsHandler.List, "GET")
	handle("/projects/customers/{customerId:[0-9]+}", projectsHandler.ListByCustomer, "GET")
	handle("/projects/customers/{customerId:[0-9]+}", projectsHandler.Create, "POST", pm...)
	handle("/projects/{id:[0-9]+}", projectsHandler.Get, "GET")
	handle("/projects/{id:[0-9]+}", projectsHandler.Update, "PUT", pm...)
	handle("/projects/{id:[0-9]+}", projectsHandler.Delete, "DELETE", pm...)

	handle("/tasks/projects/{projectId:[0-9]+}", tasksHandler.ListByProject, "GET")
	handle("/tasks/projects/{projectId:[0-9]+}", tasksHandler.Create, "POST", pm...)
	handle("/tasks/{id:[0-9]+}", tasksHandler.Update, "PUT", pm...)

	handle("/support_requests/projects/{projectId:[0-9]+}", supportHandler.ListByProject, "GET")
	handle("/support_requests/projects/{projectId:[0-9]+}", supportHandler.Create, "POST", pm...)
	handle("/support_requests/{id:[0-9]+}", supportHandler.Update, "PUT", pm...)

	handle("/update_logs/projects/{projectId:[0-9]+}", updateLogsHandler.ListByProject, "GET")
	handle("/update_logs/projects/{projectId:[0-9]+}", updateLogsHandler.Create, "POST", pm...)

	// Sales pipeline
	handle("/sales_opportunity", salesHandler.List, "GET")
	handle("/sales_opportunity", salesHandler.Create, "POST", sales...)
	handle("/sales_opportunity/customer/{customerId:[0-9]+}", salesHandler.ListByCustomer, "GET")
	handle("/sales_opportunity/{id:[0-9]+}", salesHandler.Update, "PUT", sales...)
	handle("/sales_opportunity/{id:[0-9]+}", salesHandler.Delete, "DELETE", sales...)

	// Reports
	handle("/dashboard-stats", reportsHandler.DashboardStats, "GET")
	handle("/reports/sales_summary", reportsHandler.SalesSummary, "GET", sales...)
	handle("/reports/customer_distribution", reportsHandler.CustomerDistribution, "GET", sales...)
	handle("/reports/project_budget", reportsHandler.ProjectBudget, "GET", pm...)
	handle("/admin/dashboard", reportsHandler.AdminDashboard, "GET", admin...)

	return r
}
