package views

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/crm/internal/resolver"
	"github.com/garnizeh/crm/pkg/models"
)

type CustomerView struct {
	Customer     Section[models.Customer]
	Interactions Section[[]models.Interaction]
	Sales        Section[[]models.SalesOpportunity]
	Funding      Section[models.FundingRecord]
	Projects     Section[[]models.Project]

	// Managers maps project id to the manager's display name.
	Managers map[int64]string
}

// CustomerDetail loads a customer page.
func (l *Loader) CustomerDetail(ctx context.Context, id int64) CustomerView {
	var v CustomerView
	var g errgroup.Group

	fetch(ctx, &g, &v.Customer, func(ctx context.Context) (models.Customer, error) {
		return l.src.GetCustomer(ctx, id)
	})
	fetch(ctx, &g, &v.Interactions, func(ctx context.Context) ([]models.Interaction, error) {
		return l.src.ListInteractions(ctx, id)
	})
	fetch(ctx, &g, &v.Sales, func(ctx context.Context) ([]models.SalesOpportunity, error) {
		return l.src.ListSalesByCustomer(ctx, id)
	})
	fetch(ctx, &g, &v.Funding, func(ctx context.Context) (models.FundingRecord, error) {
		return l.src.GetFunding(ctx, models.CustomerScope(id))
	})
	fetch(ctx, &g, &v.Projects, func(ctx context.Context) ([]models.Project, error) {
		return l.src.ListProjectsByCustomer(ctx, id)
	})
	_ = g.Wait()

	if v.Customer.OK() {
		l.stores.Customers.Confirm(v.Customer.Data)
	}
	if v.Interactions.OK() {
		l.stores.Interactions.Replace(v.Interactions.Data)
	}
	if v.Sales.OK() {
		l.stores.Sales.Replace(v.Sales.Data)
	}
	if v.Funding.OK() {
		l.stores.Funding.Confirm(v.Funding.Data)
	}
	if v.Projects.OK() {
		l.stores.Projects.Replace(v.Projects.Data)

		var refs resolver.Refs
		for _, p := range v.Projects.Data {
			refs.Users = append(refs.Users, p.Manager)
		}
		l.names(ctx, refs)
		if l.resolver != nil {
			v.Managers = make(map[int64]string, len(v.Projects.Data))
			for _, p := range v.Projects.Data {
				v.Managers[p.ID] = l.resolver.UserName(ctx, p.Manager)
			}
		}
	}

	l.logFailures("customer", id, map[string]error{
		"customer":     v.Customer.Err,
		"interactions": v.Interactions.Err,
		"sales":        v.Sales.Err,
		"funding":      v.Funding.Err,
		"projects":     v.Projects.Err,
	})
	return v
}
