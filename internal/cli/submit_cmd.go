package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

func newCustomersAddCmd(app *App) *cobra.Command {
	var c models.Customer
	var tag string

	cmd := &cobra.Command{
		Use:   "add --name NAME --email EMAIL",
		Short: "Create a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.EditCustomers); err != nil {
				return err
			}
			c.Tag = models.CustomerTag(tag)
			cu, err := app.Engine.SubmitCustomer(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created customer %d (%s)\n", cu.ID, cu.Name)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.Name, "name", "", "Customer name")
	f.StringVar(&c.Email, "email", "", "Contact email")
	f.StringVar(&c.Phone, "phone", "", "Phone number")
	f.StringVar(&c.Company, "company", "", "Company")
	f.StringVar(&c.Address, "address", "", "Postal address")
	f.StringVar(&c.Industry, "industry", "", "Industry")
	f.StringVar(&c.Location, "location", "", "Location")
	f.StringVar(&tag, "tag", "", "VIP, Potential or Archived")
	f.StringVar(&c.SalesStage, "sales-stage", "", "Sales stage")
	f.StringVar(&c.TechnicalEvaluator, "technical-evaluator", "", "Technical evaluator")
	f.StringVar(&c.DecisionMaker, "decision-maker", "", "Decision maker")
	return cmd
}

func newProjectsAddCmd(app *App) *cobra.Command {
	var p models.Project
	var phase string

	cmd := &cobra.Command{
		Use:   "add CUSTOMER_ID --name NAME",
		Short: "Create a project for a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageProjects); err != nil {
				return err
			}
			customerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			p.Phase = models.ProjectPhase(phase)
			pr, err := app.Engine.SubmitProject(cmd.Context(), customerID, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %d (%s) in %s\n", pr.ID, pr.Name, pr.Phase)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Name, "name", "", "Project name")
	cmd.Flags().Float64Var(&p.Budget, "budget", 0, "Budget")
	cmd.Flags().StringVar(&phase, "phase", "", "Starting phase (default Planning)")
	cmd.Flags().Int64Var(&p.Manager, "manager", 0, "Manager user id")
	return cmd
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project with its tasks, requests and funding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageProjects); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.Engine.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", id)
			return nil
		},
	}
}

func newTasksAddCmd(app *App) *cobra.Command {
	var t models.Task
	var status string

	cmd := &cobra.Command{
		Use:   "add PROJECT_ID --description TEXT --due YYYY-MM-DD",
		Short: "Create a task in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageProjects); err != nil {
				return err
			}
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			t.Status = models.WorkStatus(status)
			task, err := app.Engine.SubmitTask(cmd.Context(), projectID, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d due %s (%s)\n", task.ID, task.DueDate, task.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&t.Description, "description", "", "What needs doing")
	cmd.Flags().StringVar(&t.DueDate, "due", "", "Due date, YYYY-MM-DD")
	cmd.Flags().Int64Var(&t.AssignedTo, "assignee", 0, "Assignee user id")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default Pending)")
	return cmd
}

func newRequestsAddCmd(app *App) *cobra.Command {
	var r models.ResourceRequest
	var typ, status string

	cmd := &cobra.Command{
		Use:   "add PROJECT_ID --type TYPE --description TEXT --requested-by NAME",
		Short: "Open a support request on a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageProjects); err != nil {
				return err
			}
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			r.Type = models.RequestType(typ)
			r.Status = models.WorkStatus(status)
			req, err := app.Engine.SubmitResourceRequest(cmd.Context(), projectID, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created support request %d (%s)\n", req.ID, req.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "Request type")
	cmd.Flags().StringVar(&r.Description, "description", "", "What is needed")
	cmd.Flags().StringVar(&r.RequestedBy, "requested-by", "", "Who asked for it")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default Pending)")
	return cmd
}

func newSalesAddCmd(app *App) *cobra.Command {
	var s models.SalesOpportunity
	var stage string

	cmd := &cobra.Command{
		Use:   "add CUSTOMER_ID --name NAME --stage STAGE",
		Short: "Create a sales opportunity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageSales); err != nil {
				return err
			}
			customerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			s.CustomerID = customerID
			s.Stage = models.SalesStage(stage)
			sale, err := app.Engine.SubmitSale(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created opportunity %d (%s) at %s\n", sale.ID, sale.Name, sale.Stage)
			return nil
		},
	}

	cmd.Flags().StringVar(&s.Name, "name", "", "Opportunity name")
	cmd.Flags().StringVar(&stage, "stage", "", "Proposal Sent, Negotiation or Qualified")
	cmd.Flags().Float64Var(&s.Revenue, "revenue", 0, "Expected revenue")
	cmd.Flags().Int64Var(&s.Owner, "owner", 0, "Owner user id (default: you)")
	return cmd
}

func newSalesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a sales opportunity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageSales); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.Engine.DeleteSale(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted opportunity %d\n", id)
			return nil
		},
	}
}

func newInteractionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interactions",
		Aliases: []string{"interaction"},
		Short:   "Customer interactions",
	}
	cmd.AddCommand(newInteractionsAddCmd(app))
	return cmd
}

func newInteractionsAddCmd(app *App) *cobra.Command {
	var typ, details, file string

	cmd := &cobra.Command{
		Use:   "add CUSTOMER_ID --type TYPE [--file PATH]",
		Short: "Record an interaction, optionally attaching a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.EditCustomers); err != nil {
				return err
			}
			customerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := client.NewInteraction{Type: models.InteractionType(typ), Details: details}
			if file != "" {
				if typ == "" {
					in.Type = models.InteractionFileUpload
				}
				f, err := os.Open(file)
				if err != nil {
					return crmerr.Wrap(crmerr.KindValidation, "interactions add", err)
				}
				defer f.Close()
				in.File, in.FileName = f, filepath.Base(file)
			}
			rec, err := app.Engine.SubmitInteraction(cmd.Context(), customerID, in)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("Recorded %s interaction %d", rec.Type, rec.ID)
			if rec.FilePath != "" {
				msg += " with " + rec.FilePath
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "Email, Call, Meeting or File Upload")
	cmd.Flags().StringVar(&details, "details", "", "Notes")
	cmd.Flags().StringVar(&file, "file", "", "Attachment to upload")
	return cmd
}
