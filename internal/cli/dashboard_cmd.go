package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the counters your role can see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Views.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			p := app.printer(cmd.OutOrStdout())
			itoa := func(n int64) string { return strconv.FormatInt(n, 10) }

			p.title("Overview")
			if v.Stats.OK() {
				s := v.Stats.Data
				p.fields(
					"customers", itoa(s.TotalCustomers),
					"pending funding", itoa(s.PendingFunding),
					"interactions this week", itoa(s.RecentInteractions),
					"active deals", itoa(s.ActiveDeals),
				)
			} else {
				p.notice("overview", v.Stats.Notice())
			}

			if v.Admin != nil {
				p.title("Administration")
				if v.Admin.OK() {
					a := v.Admin.Data
					p.fields("customers", itoa(a.Customers), "projects", itoa(a.Projects), "sales", itoa(a.Sales))
				} else {
					p.notice("administration", v.Admin.Notice())
				}
			}
			if v.SalesSummary != nil {
				p.title("Sales")
				if v.SalesSummary.OK() {
					s := v.SalesSummary.Data
					p.fields("opportunities", itoa(s.TotalOpportunities), "revenue", money(s.TotalRevenue))
				} else {
					p.notice("sales", v.SalesSummary.Notice())
				}
			}
			if v.Distribution != nil {
				p.title("Customers by industry")
				if v.Distribution.OK() {
					rows := [][]string{}
					for _, d := range v.Distribution.Data {
						rows = append(rows, []string{d.Industry, itoa(d.Count)})
					}
					p.table([]string{"INDUSTRY", "CUSTOMERS"}, rows)
				} else {
					p.notice("distribution", v.Distribution.Notice())
				}
			}
			if v.Budget != nil {
				p.title("Project budget")
				if v.Budget.OK() {
					b := v.Budget.Data
					p.fields("projects", itoa(b.TotalProjects), "total budget", money(b.TotalBudget))
				} else {
					p.notice("budget", v.Budget.Notice())
				}
			}
			return nil
		},
	}
}
