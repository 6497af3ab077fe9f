// Package workflow applies status-like transitions and submissions to
// entities: the new value is validated, staged in the client store, persisted
// through the API and then reconciled with the server's answer. A failed
// write leaves the confirmed entities untouched.
package workflow

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/garnizeh/crm/internal/store"
	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

// Persister writes to the API and returns the stored entity.
// *client.Client satisfies it.
type Persister interface {
	UpdateTask(ctx context.Context, id int64, p client.Patch) (models.Task, error)
	UpdateSupportRequest(ctx context.Context, id int64, p client.Patch) (models.ResourceRequest, error)
	UpdateSale(ctx context.Context, id int64, p client.Patch) (models.SalesOpportunity, error)
	UpdateProject(ctx context.Context, id int64, p client.Patch) (models.Project, error)
	UpdateCustomer(ctx context.Context, id int64, p client.Patch) (models.Customer, error)
	PutFunding(ctx context.Context, scope models.FundingScope, p client.Patch) (models.FundingRecord, error)

	CreateCustomer(ctx context.Context, c models.Customer) (models.Customer, error)
	CreateProject(ctx context.Context, customerID int64, p models.Project) (models.Project, error)
	CreateTask(ctx context.Context, projectID int64, t models.Task) (models.Task, error)
	CreateInteraction(ctx context.Context, customerID int64, in client.NewInteraction) (models.Interaction, error)
	CreateSale(ctx context.Context, s models.SalesOpportunity) (models.SalesOpportunity, error)
	CreateSupportRequest(ctx context.Context, projectID int64, r models.ResourceRequest) (models.ResourceRequest, error)
	DeleteProject(ctx context.Context, id int64) error
	DeleteSale(ctx context.Context, id int64) error
}

type Engine struct {
	persist Persister
	stores  *store.Set
	guard   *Guard
	clock   func() time.Time
	logger  *slog.Logger
}

type Option func(*Engine)

func WithClock(clock func() time.Time) Option { return func(e *Engine) { e.clock = clock } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithGuard(g *Guard) Option { return func(e *Engine) { e.guard = g } }

func New(p Persister, stores *store.Set, opts ...Option) *Engine {
	e := &Engine{
		persist: p,
		stores:  stores,
		guard:   NewGuard(),
		clock:   time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Stores() *store.Set { return e.stores }

// step describes one transition of an entity held in a store.
type step[T models.Entity] struct {
	op    string
	key   GuardKey
	store *store.Store[T]
	// find returns the confirmed entity; nil uses store.Get(key.ID)
	find    func() (T, error)
	apply   func(T) (T, error)
	persist func(context.Context, T) (T, error)
}

func run[T models.Entity](ctx context.Context, e *Engine, s step[T]) (T, error) {
	var zero T
	release, err := e.guard.Acquire(ctx, s.key)
	if err != nil {
		// nothing was sent; report the caller's own cancellation as is
		return zero, err
	}
	defer release()

	find := s.find
	if find == nil {
		find = func() (T, error) { return s.store.Get(s.key.ID) }
	}
	current, err := find()
	if err != nil {
		return zero, err
	}

	candidate, err := s.apply(current)
	if err != nil {
		return current, err
	}
	id := current.EntityID()
	s.store.Stage(id, candidate)

	saved, err := s.persist(ctx, candidate)
	if err != nil {
		s.store.Rollback(id)
		e.logger.Warn("workflow: transition rolled back", "op", s.op, "key", s.key.String(), "err", err)
		return current, crmerr.Wrap(crmerr.KindPersistence, s.op, err)
	}
	s.store.Confirm(saved)
	e.logger.Debug("workflow: transition confirmed", "op", s.op, "key", s.key.String())
	return saved, nil
}

func (e *Engine) TransitionTask(ctx context.Context, id int64, status string) (models.Task, error) {
	st, err := models.ParseWorkStatus(status)
	if err != nil {
		return models.Task{}, err
	}
	return run(ctx, e, step[models.Task]{
		op:    "TransitionTask",
		key:   GuardKey{"task", id, "status"},
		store: e.stores.Tasks,
		apply: func(t models.Task) (models.Task, error) {
			t.Status = st
			return t, nil
		},
		persist: func(ctx context.Context, t models.Task) (models.Task, error) {
			return e.persist.UpdateTask(ctx, t.ID, client.Patch{"status": t.Status})
		},
	})
}

func (e *Engine) TransitionResourceRequest(ctx context.Context, id int64, status string) (models.ResourceRequest, error) {
	st, err := models.ParseWorkStatus(status)
	if err != nil {
		return models.ResourceRequest{}, err
	}
	return run(ctx, e, step[models.ResourceRequest]{
		op:    "TransitionResourceRequest",
		key:   GuardKey{"support_request", id, "status"},
		store: e.stores.Requests,
		apply: func(r models.ResourceRequest) (models.ResourceRequest, error) {
			r.Status = st
			return r, nil
		},
		persist: func(ctx context.Context, r models.ResourceRequest) (models.ResourceRequest, error) {
			return e.persist.UpdateSupportRequest(ctx, r.ID, client.Patch{"status": r.Status})
		},
	})
}

func (e *Engine) TransitionSalesStage(ctx context.Context, id int64, stage string) (models.SalesOpportunity, error) {
	st, err := models.ParseSalesStage(stage)
	if err != nil {
		return models.SalesOpportunity{}, err
	}
	return run(ctx, e, step[models.SalesOpportunity]{
		op:    "TransitionSalesStage",
		key:   GuardKey{"sales_opportunity", id, "sales_stage"},
		store: e.stores.Sales,
		apply: func(s models.SalesOpportunity) (models.SalesOpportunity, error) {
			s.Stage = st
			return s, nil
		},
		persist: func(ctx context.Context, s models.SalesOpportunity) (models.SalesOpportunity, error) {
			return e.persist.UpdateSale(ctx, s.ID, client.Patch{"sales_stage": s.Stage})
		},
	})
}

func (e *Engine) TransitionProjectPhase(ctx context.Context, id int64, phase string) (models.Project, error) {
	ph, err := models.ParseProjectPhase(phase)
	if err != nil {
		return models.Project{}, err
	}
	return run(ctx, e, step[models.Project]{
		op:    "TransitionProjectPhase",
		key:   GuardKey{"project", id, "phase"},
		store: e.stores.Projects,
		apply: func(p models.Project) (models.Project, error) {
			p.Phase = ph
			return p, nil
		},
		persist: func(ctx context.Context, p models.Project) (models.Project, error) {
			return e.persist.UpdateProject(ctx, p.ID, client.Patch{"phase": p.Phase})
		},
	})
}

// SetCustomerTag sets or, with an empty tag, clears the customer's tag.
func (e *Engine) SetCustomerTag(ctx context.Context, id int64, tag string) (models.Customer, error) {
	var t models.CustomerTag
	if tag != "" {
		var err error
		if t, err = models.ParseCustomerTag(tag); err != nil {
			return models.Customer{}, err
		}
	}
	return run(ctx, e, step[models.Customer]{
		op:    "SetCustomerTag",
		key:   GuardKey{"customer", id, "tags"},
		store: e.stores.Customers,
		apply: func(c models.Customer) (models.Customer, error) {
			c.Tag = t
			return c, nil
		},
		persist: func(ctx context.Context, c models.Customer) (models.Customer, error) {
			return e.persist.UpdateCustomer(ctx, c.ID, client.Patch{"tags": string(c.Tag)})
		},
	})
}

// TransitionFunding moves the record owned by scope to status. Entering
// Approved or Funded stamps the approval date with the engine clock; every
// other status clears it. Re-applying the current status keeps the date.
func (e *Engine) TransitionFunding(ctx context.Context, scope models.FundingScope, status string) (models.FundingRecord, error) {
	st, err := models.ParseFundingStatus(status)
	if err != nil {
		return models.FundingRecord{}, err
	}
	if !scope.Valid() {
		return models.FundingRecord{}, crmerr.Validation("TransitionFunding", "invalid funding scope "+scope.String())
	}
	return run(ctx, e, step[models.FundingRecord]{
		op:    "TransitionFunding",
		key:   GuardKey{"funding/" + string(scope.Kind), scope.ID, "funding_status"},
		store: e.stores.Funding,
		find: func() (models.FundingRecord, error) {
			recs := e.stores.Funding.List(func(r models.FundingRecord) bool { return r.Scope() == scope })
			if len(recs) == 0 {
				return models.FundingRecord{}, crmerr.New(crmerr.KindNotFound, "TransitionFunding", "no funding record for "+scope.String())
			}
			return recs[0], nil
		},
		apply: func(r models.FundingRecord) (models.FundingRecord, error) {
			if r.Status != st || r.CheckInvariant() != nil {
				r = r.WithStatus(st, e.clock())
			}
			return r, r.CheckInvariant()
		},
		persist: func(ctx context.Context, r models.FundingRecord) (models.FundingRecord, error) {
			return e.persist.PutFunding(ctx, scope, client.Patch{"funding_status": r.Status})
		},
	})
}
