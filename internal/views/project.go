package views

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/crm/internal/resolver"
	"github.com/garnizeh/crm/pkg/models"
)

type ProjectView struct {
	Project    Section[models.Project]
	Tasks      Section[[]models.Task]
	UpdateLogs Section[[]models.UpdateLog]
	Requests   Section[[]models.ResourceRequest]
	Funding    Section[models.FundingRecord]

	// Names are only filled when a resolver is configured.
	Names     resolver.Resolved
	Assignees map[int64]string
}

// ProjectDetail loads a project page.
func (l *Loader) ProjectDetail(ctx context.Context, id int64) ProjectView {
	var v ProjectView
	var g errgroup.Group

	fetch(ctx, &g, &v.Project, func(ctx context.Context) (models.Project, error) {
		return l.src.GetProject(ctx, id)
	})
	fetch(ctx, &g, &v.Tasks, func(ctx context.Context) ([]models.Task, error) {
		return l.src.ListTasks(ctx, id)
	})
	fetch(ctx, &g, &v.UpdateLogs, func(ctx context.Context) ([]models.UpdateLog, error) {
		return l.src.ListUpdateLogs(ctx, id)
	})
	fetch(ctx, &g, &v.Requests, func(ctx context.Context) ([]models.ResourceRequest, error) {
		return l.src.ListSupportRequests(ctx, id)
	})
	fetch(ctx, &g, &v.Funding, func(ctx context.Context) (models.FundingRecord, error) {
		return l.src.GetFunding(ctx, models.ProjectScope(id))
	})
	_ = g.Wait()

	var refs resolver.Refs
	if v.Project.OK() {
		l.stores.Projects.Confirm(v.Project.Data)
		refs.Customers = append(refs.Customers, v.Project.Data.CustomerID)
		refs.Users = append(refs.Users, v.Project.Data.Manager)
	}
	if v.Tasks.OK() {
		l.stores.Tasks.Replace(v.Tasks.Data)
		for _, t := range v.Tasks.Data {
			refs.Users = append(refs.Users, t.AssignedTo)
		}
	}
	if v.UpdateLogs.OK() {
		l.stores.UpdateLogs.Replace(v.UpdateLogs.Data)
	}
	if v.Requests.OK() {
		l.stores.Requests.Replace(v.Requests.Data)
	}
	if v.Funding.OK() {
		l.stores.Funding.Confirm(v.Funding.Data)
	}

	if l.resolver != nil {
		l.names(ctx, refs)
		if v.Project.OK() {
			v.Names = l.resolver.ResolveProject(ctx, v.Project.Data)
		}
		if v.Tasks.OK() {
			v.Assignees = make(map[int64]string, len(v.Tasks.Data))
			for _, t := range v.Tasks.Data {
				v.Assignees[t.ID] = l.resolver.ResolveTask(ctx, t).Assignee
			}
		}
	}

	l.logFailures("project", id, map[string]error{
		"project":     v.Project.Err,
		"tasks":       v.Tasks.Err,
		"update_logs": v.UpdateLogs.Err,
		"requests":    v.Requests.Err,
		"funding":     v.Funding.Err,
	})
	return v
}
