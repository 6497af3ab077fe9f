package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/models"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Project tasks",
	}
	cmd.AddCommand(newTasksListCmd(app), newTasksStatusCmd(app), newTasksAddCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ViewProjects); err != nil {
				return err
			}
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tasks, err := app.Client.ListTasks(ctx, projectID)
			if err != nil {
				return err
			}
			app.Stores.Tasks.Replace(tasks)

			assignees := make(map[int64]string, len(tasks))
			for _, t := range tasks {
				assignees[t.ID] = app.Resolver.ResolveTask(ctx, t).Assignee
			}
			p := app.printer(cmd.OutOrStdout())
			p.table([]string{"ID", "DESCRIPTION", "DUE", "ASSIGNEE", "STATUS"}, taskRows(p, tasks, assignees))
			return nil
		},
	}
}

func newTasksStatusCmd(app *App) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set a task to Pending, In Progress or Completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageProjects); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := models.ParseWorkStatus(args[1]); err != nil {
				return err
			}
			tasks, err := app.Client.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			app.Stores.Tasks.Replace(tasks)

			t, err := app.Engine.TransitionTask(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", t.ID, t.Status)
			return nil
		},
	}

	cmd.Flags().Int64Var(&projectID, "project", 0, "Project the task belongs to")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newRequestsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"request"},
		Short:   "Project support requests",
	}
	cmd.AddCommand(newRequestsListCmd(app), newRequestsStatusCmd(app), newRequestsAddCmd(app))
	return cmd
}

func newRequestsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List the support requests of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ViewProjects); err != nil {
				return err
			}
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			reqs, err := app.Client.ListSupportRequests(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			app.Stores.Requests.Replace(reqs)
			p := app.printer(cmd.OutOrStdout())
			p.table([]string{"ID", "TYPE", "DESCRIPTION", "REQUESTED BY", "STATUS"}, requestRows(p, reqs))
			return nil
		},
	}
}

func newRequestsStatusCmd(app *App) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set a support request to Pending, In Progress or Completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageProjects); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := models.ParseWorkStatus(args[1]); err != nil {
				return err
			}
			reqs, err := app.Client.ListSupportRequests(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			app.Stores.Requests.Replace(reqs)

			r, err := app.Engine.TransitionResourceRequest(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Support request %d is now %s\n", r.ID, r.Status)
			return nil
		},
	}

	cmd.Flags().Int64Var(&projectID, "project", 0, "Project the request belongs to")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
