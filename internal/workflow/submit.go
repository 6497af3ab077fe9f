package workflow

import (
	"context"

	"github.com/garnizeh/crm/internal/store"
	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

// submit validates v, sends it and confirms the server's answer into s. An
// invalid v sends nothing.
func submit[T models.Entity](ctx context.Context, e *Engine, op string, s *store.Store[T], valid error, send func(context.Context) (T, error)) (T, error) {
	var zero T
	if valid != nil {
		return zero, valid
	}
	saved, err := send(ctx)
	if err != nil {
		e.logger.Warn("workflow: submission failed", "op", op, "err", err)
		return zero, crmerr.Wrap(crmerr.KindPersistence, op, err)
	}
	s.Confirm(saved)
	e.logger.Debug("workflow: submission confirmed", "op", op, "id", saved.EntityID())
	return saved, nil
}

func (e *Engine) SubmitCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	return submit(ctx, e, "SubmitCustomer", e.stores.Customers, c.Validate(),
		func(ctx context.Context) (models.Customer, error) { return e.persist.CreateCustomer(ctx, c) })
}

func (e *Engine) SubmitProject(ctx context.Context, customerID int64, p models.Project) (models.Project, error) {
	p.CustomerID = customerID
	if p.Phase == "" {
		p.Phase = models.PhasePlanning
	}
	return submit(ctx, e, "SubmitProject", e.stores.Projects, p.Validate(),
		func(ctx context.Context) (models.Project, error) { return e.persist.CreateProject(ctx, customerID, p) })
}

func (e *Engine) SubmitTask(ctx context.Context, projectID int64, t models.Task) (models.Task, error) {
	t.ProjectID = projectID
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	return submit(ctx, e, "SubmitTask", e.stores.Tasks, t.Validate(),
		func(ctx context.Context) (models.Task, error) { return e.persist.CreateTask(ctx, projectID, t) })
}

// SubmitInteraction records an interaction, uploading in.File when set.
func (e *Engine) SubmitInteraction(ctx context.Context, customerID int64, in client.NewInteraction) (models.Interaction, error) {
	valid := models.Interaction{CustomerID: customerID, Type: in.Type}.Validate()
	return submit(ctx, e, "SubmitInteraction", e.stores.Interactions, valid,
		func(ctx context.Context) (models.Interaction, error) { return e.persist.CreateInteraction(ctx, customerID, in) })
}

func (e *Engine) SubmitSale(ctx context.Context, s models.SalesOpportunity) (models.SalesOpportunity, error) {
	return submit(ctx, e, "SubmitSale", e.stores.Sales, s.Validate(),
		func(ctx context.Context) (models.SalesOpportunity, error) { return e.persist.CreateSale(ctx, s) })
}

func (e *Engine) SubmitResourceRequest(ctx context.Context, projectID int64, r models.ResourceRequest) (models.ResourceRequest, error) {
	r.ProjectID = projectID
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	return submit(ctx, e, "SubmitResourceRequest", e.stores.Requests, r.Validate(),
		func(ctx context.Context) (models.ResourceRequest, error) {
			return e.persist.CreateSupportRequest(ctx, projectID, r)
		})
}

// DeleteProject removes the project and, as the server cascades, its tasks,
// support requests, update logs and project funding from the stores.
func (e *Engine) DeleteProject(ctx context.Context, id int64) error {
	release, err := e.guard.Acquire(ctx, GuardKey{"project", id, "record"})
	if err != nil {
		return err
	}
	defer release()

	if err := e.persist.DeleteProject(ctx, id); err != nil {
		return crmerr.Wrap(crmerr.KindPersistence, "DeleteProject", err)
	}
	e.stores.Projects.Remove(id)
	removeWhere(e.stores.Tasks, func(t models.Task) bool { return t.ProjectID == id })
	removeWhere(e.stores.Requests, func(r models.ResourceRequest) bool { return r.ProjectID == id })
	removeWhere(e.stores.UpdateLogs, func(l models.UpdateLog) bool { return l.ProjectID == id })
	removeWhere(e.stores.Funding, func(f models.FundingRecord) bool { return f.ProjectID == id })
	e.logger.Debug("workflow: project deleted", "id", id)
	return nil
}

func (e *Engine) DeleteSale(ctx context.Context, id int64) error {
	release, err := e.guard.Acquire(ctx, GuardKey{"sales_opportunity", id, "record"})
	if err != nil {
		return err
	}
	defer release()

	if err := e.persist.DeleteSale(ctx, id); err != nil {
		return crmerr.Wrap(crmerr.KindPersistence, "DeleteSale", err)
	}
	e.stores.Sales.Remove(id)
	return nil
}

func removeWhere[T models.Entity](s *store.Store[T], pred func(T) bool) {
	for _, v := range s.List(pred) {
		s.Remove(v.EntityID())
	}
}
