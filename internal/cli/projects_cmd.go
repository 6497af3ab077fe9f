package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/garnizeh/crm/internal/query"
	"github.com/garnizeh/crm/internal/resolver"
	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Browse, create and delete projects and move them between phases",
	}
	cmd.AddCommand(
		newProjectsListCmd(app),
		newProjectsShowCmd(app),
		newProjectsPhaseCmd(app),
		newProjectsAddCmd(app),
		newProjectsDeleteCmd(app),
	)
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	var customerID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ViewProjects); err != nil {
				return err
			}
			ctx := cmd.Context()
			all, err := app.Client.ListProjects(ctx)
			if err != nil {
				return err
			}
			app.Stores.Projects.Replace(all)
			projects := query.FilterProjects(app.Stores.Projects.List(nil), query.Criteria{CustomerID: customerID})

			var refs resolver.Refs
			for _, pr := range projects {
				refs.Customers = append(refs.Customers, pr.CustomerID)
				refs.Users = append(refs.Users, pr.Manager)
			}
			if err := app.Resolver.ResolveAll(ctx, refs); err != nil {
				return crmerr.Wrap(crmerr.KindNetwork, "projects list", err)
			}

			p := app.printer(cmd.OutOrStdout())
			rows := [][]string{}
			for _, pr := range projects {
				names := app.Resolver.ResolveProject(ctx, pr)
				rows = append(rows, []string{
					strconv.FormatInt(pr.ID, 10), pr.Name, names.Customer, p.status(string(pr.Phase)), money(pr.Budget), names.Manager,
				})
			}
			p.table([]string{"ID", "PROJECT", "CUSTOMER", "PHASE", "BUDGET", "MANAGER"}, rows)
			return nil
		},
	}

	cmd.Flags().Int64Var(&customerID, "customer", 0, "Only projects of this customer")
	return cmd
}

func newProjectsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a project with its tasks, requests, funding and change log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ViewProjects); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v := app.Views.ProjectDetail(cmd.Context(), id)
			if !v.Project.OK() {
				return v.Project.Err
			}

			p := app.printer(cmd.OutOrStdout())
			pr := v.Project.Data
			p.title(pr.Name)
			p.fields(
				"id", strconv.FormatInt(pr.ID, 10),
				"customer", v.Names.Customer,
				"phase", p.status(string(pr.Phase)),
				"budget", money(pr.Budget),
				"manager", v.Names.Manager,
			)

			p.title("Funding")
			switch {
			case v.Funding.OK():
				f := v.Funding.Data
				approved := ""
				if f.ApprovalDate != nil {
					approved = f.ApprovalDate.Format(models.DateLayout)
				}
				p.fields("status", p.status(string(f.Status)), "budget", money(f.Budget), "approved", approved)
			case crmerr.KindOf(v.Funding.Err) == crmerr.KindNotFound:
				fmt.Fprintln(p.w, "no funding record")
			default:
				p.notice("funding", v.Funding.Notice())
			}

			p.title("Tasks")
			if v.Tasks.OK() {
				p.table([]string{"ID", "DESCRIPTION", "DUE", "ASSIGNEE", "STATUS"}, taskRows(p, v.Tasks.Data, v.Assignees))
			} else {
				p.notice("tasks", v.Tasks.Notice())
			}

			p.title("Support requests")
			if v.Requests.OK() {
				p.table([]string{"ID", "TYPE", "DESCRIPTION", "REQUESTED BY", "STATUS"}, requestRows(p, v.Requests.Data))
			} else {
				p.notice("support requests", v.Requests.Notice())
			}

			p.title("Change log")
			if v.UpdateLogs.OK() {
				rows := [][]string{}
				for _, l := range v.UpdateLogs.Data {
					rows = append(rows, []string{
						l.Timestamp.Format("2006-01-02 15:04"), l.ChangeType, l.ResponsiblePerson, l.Comment,
					})
				}
				p.table([]string{"WHEN", "CHANGE", "BY", "COMMENT"}, rows)
			} else {
				p.notice("change log", v.UpdateLogs.Notice())
			}
			return nil
		},
	}
}

func newProjectsPhaseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "phase ID PHASE",
		Short: "Move a project to Planning, Development, Testing or Deployment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageProjects); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := models.ParseProjectPhase(args[1]); err != nil {
				return err
			}
			pr, err := app.Client.GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.Stores.Projects.Confirm(pr)

			pr, err = app.Engine.TransitionProjectPhase(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %d is now in %s\n", pr.ID, pr.Phase)
			return nil
		},
	}
}

func taskRows(p printer, tasks []models.Task, assignees map[int64]string) [][]string {
	rows := [][]string{}
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10), t.Description, t.DueDate, assignees[t.ID], p.status(string(t.Status)),
		})
	}
	return rows
}

func requestRows(p printer, reqs []models.ResourceRequest) [][]string {
	rows := [][]string{}
	for _, r := range reqs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10), string(r.Type), r.Description, r.RequestedBy, p.status(string(r.Status)),
		})
	}
	return rows
}
