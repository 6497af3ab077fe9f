// Package views loads the data behind each front-end page. Related
// collections are fetched in parallel and every section keeps its own error,
// so one failed fetch never hides the others.
package views

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/crm/internal/resolver"
	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/internal/store"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

// Source is the read side of the REST client.
type Source interface {
	GetCustomer(ctx context.Context, id int64) (models.Customer, error)
	ListInteractions(ctx context.Context, customerID int64) ([]models.Interaction, error)
	ListSalesByCustomer(ctx context.Context, customerID int64) ([]models.SalesOpportunity, error)
	ListProjectsByCustomer(ctx context.Context, customerID int64) ([]models.Project, error)
	GetFunding(ctx context.Context, scope models.FundingScope) (models.FundingRecord, error)

	GetProject(ctx context.Context, id int64) (models.Project, error)
	ListTasks(ctx context.Context, projectID int64) ([]models.Task, error)
	ListUpdateLogs(ctx context.Context, projectID int64) ([]models.UpdateLog, error)
	ListSupportRequests(ctx context.Context, projectID int64) ([]models.ResourceRequest, error)

	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	AdminDashboard(ctx context.Context) (models.AdminStats, error)
	SalesSummary(ctx context.Context) (models.SalesSummary, error)
	CustomerDistribution(ctx context.Context) ([]models.IndustryCount, error)
	ProjectBudget(ctx context.Context) (models.BudgetSummary, error)
}

// Gate answers capability checks; *session.Session satisfies it.
type Gate interface {
	Capabilities() session.CapabilitySet
}

// Section is one independently loaded part of a page.
type Section[T any] struct {
	Data T
	Err  error
}

// OK reports whether the section loaded.
func (s Section[T]) OK() bool { return s.Err == nil }

// Notice renders the section error for inline display.
func (s Section[T]) Notice() string { return crmerr.Notice(s.Err) }

type Loader struct {
	src      Source
	stores   *store.Set
	resolver *resolver.Resolver
	gate     Gate
	logger   *slog.Logger
}

// New builds a Loader. res may be nil, in which case no names are resolved.
func New(src Source, stores *store.Set, res *resolver.Resolver, gate Gate, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{src: src, stores: stores, resolver: res, gate: gate, logger: logger}
}

// fetch runs fn on g and records its outcome in sec. The goroutine never
// returns an error so siblings keep running.
func fetch[T any](ctx context.Context, g *errgroup.Group, sec *Section[T], fn func(context.Context) (T, error)) {
	g.Go(func() error {
		sec.Data, sec.Err = fn(ctx)
		return nil
	})
}

func (l *Loader) logFailures(view string, id int64, sections map[string]error) {
	for name, err := range sections {
		if err != nil {
			l.logger.Warn("views: section failed",
				slog.String("view", view), slog.Int64("id", id),
				slog.String("section", name), slog.Any("error", err))
		}
	}
}

func (l *Loader) names(ctx context.Context, refs resolver.Refs) {
	if l.resolver == nil {
		return
	}
	if err := l.resolver.ResolveAll(ctx, refs); err != nil {
		l.logger.Debug("views: name warm-up stopped", slog.Any("error", err))
	}
}
