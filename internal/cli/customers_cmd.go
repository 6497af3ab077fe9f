package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garnizeh/crm/internal/query"
	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

func newCustomersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"customer"},
		Short:   "Browse and edit customers",
	}
	cmd.AddCommand(
		newCustomersListCmd(app),
		newCustomersShowCmd(app),
		newCustomersTagCmd(app),
		newCustomersFiltersCmd(app),
		newCustomersAddCmd(app),
	)
	return cmd
}

func newCustomersListCmd(app *App) *cobra.Command {
	var c query.Criteria

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ViewCustomers); err != nil {
				return err
			}
			if c.Tag != "" {
				if _, err := models.ParseCustomerTag(c.Tag); err != nil {
					return err
				}
			}
			all, err := app.Client.ListCustomers(cmd.Context(), client.CustomerQuery{})
			if err != nil {
				return err
			}
			app.Stores.Customers.Replace(all)

			rows := [][]string{}
			for _, cu := range query.FilterCustomers(app.Stores.Customers.List(nil), c) {
				rows = append(rows, []string{
					strconv.FormatInt(cu.ID, 10), cu.Name, cu.Email, cu.Industry, cu.Location, string(cu.Tag), cu.SalesStage,
				})
			}
			app.printer(cmd.OutOrStdout()).table(
				[]string{"ID", "NAME", "EMAIL", "INDUSTRY", "LOCATION", "TAG", "STAGE"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&c.Industry, "industry", "", "Exact industry")
	cmd.Flags().StringVar(&c.Location, "location", "", "Exact location")
	cmd.Flags().StringVar(&c.Tag, "tag", "", "VIP, Potential or Archived")
	cmd.Flags().StringVar(&c.SalesStage, "sales-stage", "", "Exact sales stage")
	return cmd
}

func newCustomersShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a customer with its interactions, sales, funding and projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ViewCustomers); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			caps := app.Session.Capabilities()
			v := app.Views.CustomerDetail(cmd.Context(), id)
			if !v.Customer.OK() {
				return v.Customer.Err
			}

			p := app.printer(cmd.OutOrStdout())
			cu := v.Customer.Data
			p.title(cu.Name)
			p.fields(
				"id", strconv.FormatInt(cu.ID, 10),
				"email", cu.Email,
				"phone", cu.Phone,
				"company", cu.Company,
				"industry", cu.Industry,
				"location", cu.Location,
				"tag", string(cu.Tag),
				"sales stage", cu.SalesStage,
				"technical evaluator", cu.TechnicalEvaluator,
				"decision maker", cu.DecisionMaker,
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

			p.title("Interactions")
			if v.Interactions.OK() {
				rows := [][]string{}
				for _, in := range v.Interactions.Data {
					rows = append(rows, []string{
						in.Timestamp.Format(models.DateLayout), string(in.Type), in.Details, in.FilePath,
					})
				}
				p.table([]string{"DATE", "TYPE", "DETAILS", "FILE"}, rows)
			} else {
				p.notice("interactions", v.Interactions.Notice())
			}

			if caps.Has(session.ViewSales) {
				p.title("Sales opportunities")
				if v.Sales.OK() {
					rows := [][]string{}
					for _, s := range v.Sales.Data {
						rows = append(rows, []string{
							strconv.FormatInt(s.ID, 10), s.Name, p.status(string(s.Stage)), money(s.Revenue),
						})
					}
					p.table([]string{"ID", "OPPORTUNITY", "STAGE", "REVENUE"}, rows)
				} else {
					p.notice("sales", v.Sales.Notice())
				}
			}

			p.title("Projects")
			if v.Projects.OK() {
				rows := [][]string{}
				for _, pr := range v.Projects.Data {
					rows = append(rows, []string{
						strconv.FormatInt(pr.ID, 10), pr.Name, p.status(string(pr.Phase)), money(pr.Budget), v.Managers[pr.ID],
					})
				}
				p.table([]string{"ID", "PROJECT", "PHASE", "BUDGET", "MANAGER"}, rows)
			} else {
				p.notice("projects", v.Projects.Notice())
			}
			return nil
		},
	}
}

func newCustomersTagCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tag ID [TAG]",
		Short: "Set a customer's tag (VIP, Potential, Archived); omit TAG to clear it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.EditCustomers); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tag := ""
			if len(args) == 2 {
				tag = args[1]
			}
			cu, err := app.Client.GetCustomer(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.Stores.Customers.Confirm(cu)

			cu, err = app.Engine.SetCustomerTag(cmd.Context(), id, tag)
			if err != nil {
				return err
			}
			if cu.Tag == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Customer %d untagged\n", cu.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Customer %d tagged %s\n", cu.ID, cu.Tag)
			return nil
		},
	}
}

func newCustomersFiltersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the values available for each customer filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ViewCustomers); err != nil {
				return err
			}
			all, err := app.Client.ListCustomers(cmd.Context(), client.CustomerQuery{})
			if err != nil {
				return err
			}
			rows := [][]string{}
			for _, name := range query.CustomerFieldNames() {
				field, err := query.CustomerField(name)
				if err != nil {
					return err
				}
				rows = append(rows, []string{name, strings.Join(query.DistinctValues(all, field), ", ")})
			}
			app.printer(cmd.OutOrStdout()).table([]string{"FILTER", "VALUES"}, rows)
			return nil
		},
	}
}
