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

func newSalesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Sales opportunities",
	}
	cmd.AddCommand(newSalesListCmd(app), newSalesStageCmd(app), newSalesAddCmd(app), newSalesDeleteCmd(app))
	return cmd
}

func newSalesListCmd(app *App) *cobra.Command {
	var c query.Criteria

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales opportunities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ViewSales); err != nil {
				return err
			}
			if c.SalesStage != "" {
				if _, err := models.ParseSalesStage(c.SalesStage); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			all, err := app.Client.ListSales(ctx)
			if err != nil {
				return err
			}
			app.Stores.Sales.Replace(all)
			sales := query.FilterSalesOpportunities(app.Stores.Sales.List(nil), c)

			var refs resolver.Refs
			for _, s := range sales {
				refs.Customers = append(refs.Customers, s.CustomerID)
				refs.Users = append(refs.Users, s.Owner)
			}
			if err := app.Resolver.ResolveAll(ctx, refs); err != nil {
				return crmerr.Wrap(crmerr.KindNetwork, "sales list", err)
			}

			p := app.printer(cmd.OutOrStdout())
			rows := [][]string{}
			for _, s := range sales {
				names := app.Resolver.ResolveSalesOpportunity(ctx, s)
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10), s.Name, names.Customer, p.status(string(s.Stage)), money(s.Revenue), names.Owner,
				})
			}
			p.table([]string{"ID", "OPPORTUNITY", "CUSTOMER", "STAGE", "REVENUE", "OWNER"}, rows)
			return nil
		},
	}

	cmd.Flags().Int64Var(&c.CustomerID, "customer", 0, "Only opportunities of this customer")
	cmd.Flags().StringVar(&c.SalesStage, "stage", "", "Proposal Sent, Negotiation or Qualified")
	return cmd
}

func newSalesStageCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stage ID STAGE",
		Short: "Move an opportunity to Proposal Sent, Negotiation or Qualified",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.require(session.ManageSales); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := models.ParseSalesStage(args[1]); err != nil {
				return err
			}
			all, err := app.Client.ListSales(cmd.Context())
			if err != nil {
				return err
			}
			app.Stores.Sales.Replace(all)

			s, err := app.Engine.TransitionSalesStage(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opportunity %d is now at %s\n", s.ID, s.Stage)
			return nil
		},
	}
}
