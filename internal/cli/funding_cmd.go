package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

func newFundingCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "funding",
		Short: "Customer and project funding",
	}
	cmd.AddCommand(newFundingSetCmd(app))
	return cmd
}

func newFundingSetCmd(app *App) *cobra.Command {
	var customerID, projectID int64

	cmd := &cobra.Command{
		Use:   "set (--customer ID | --project ID) STATUS",
		Short: "Set funding to Pending, Approved, Funded or Rejected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := models.CustomerScope(customerID)
			if projectID != 0 {
				scope = models.ProjectScope(projectID)
			}
			if err := app.require(session.FundingCapability(scope)); err != nil {
				return err
			}
			status, err := models.ParseFundingStatus(args[0])
			if err != nil {
				return err
			}
			if !scope.Valid() {
				return crmerr.Validation("funding set", "a positive --customer or --project id is required")
			}

			ctx := cmd.Context()
			var rec models.FundingRecord
			cur, err := app.Client.GetFunding(ctx, scope)
			switch {
			case err == nil:
				app.Stores.Funding.Confirm(cur)
				rec, err = app.Engine.TransitionFunding(ctx, scope, string(status))
			case crmerr.KindOf(err) == crmerr.KindNotFound:
				// first status for this scope; the server creates the record
				rec, err = app.Client.PutFunding(ctx, scope, client.Patch{"funding_status": status})
				if err == nil {
					app.Stores.Funding.Confirm(rec)
				}
			}
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("Funding for %s is now %s", scope, rec.Status)
			if rec.ApprovalDate != nil {
				msg += " (approved " + rec.ApprovalDate.Format(models.DateLayout) + ")"
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().Int64Var(&customerID, "customer", 0, "Customer-level funding")
	cmd.Flags().Int64Var(&projectID, "project", 0, "Project-level funding")
	cmd.MarkFlagsMutuallyExclusive("customer", "project")
	cmd.MarkFlagsOneRequired("customer", "project")
	return cmd
}
