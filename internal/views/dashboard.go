package views

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

// DashboardView holds the counters the session may see. Sections the role
// cannot view are nil.
type DashboardView struct {
	Stats        Section[models.DashboardStats]
	Admin        *Section[models.AdminStats]
	SalesSummary *Section[models.SalesSummary]
	Distribution *Section[[]models.IndustryCount]
	Budget       *Section[models.BudgetSummary]
}

// Dashboard loads the landing page. A session without capabilities gets an
// Unauthorized error and nothing is fetched.
func (l *Loader) Dashboard(ctx context.Context) (DashboardView, error) {
	var v DashboardView
	caps := l.gate.Capabilities()
	if len(caps) == 0 {
		return v, crmerr.New(crmerr.KindUnauthorized, "Dashboard", "no active session")
	}

	var g errgroup.Group
	fetch(ctx, &g, &v.Stats, l.src.DashboardStats)
	if caps.Has(session.ViewAdminDashboard) {
		v.Admin = &Section[models.AdminStats]{}
		fetch(ctx, &g, v.Admin, l.src.AdminDashboard)
	}
	if caps.Has(session.ViewReports) {
		v.SalesSummary = &Section[models.SalesSummary]{}
		fetch(ctx, &g, v.SalesSummary, l.src.SalesSummary)
		v.Distribution = &Section[[]models.IndustryCount]{}
		fetch(ctx, &g, v.Distribution, l.src.CustomerDistribution)
	}
	if caps.Has(session.ViewProjects) {
		v.Budget = &Section[models.BudgetSummary]{}
		fetch(ctx, &g, v.Budget, l.src.ProjectBudget)
	}
	_ = g.Wait()
	return v, nil
}
