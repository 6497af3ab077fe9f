package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/crmerr"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("CRM_PASSWORD")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return crmerr.Validation("login", "email and password are required")
			}
			res, err := app.Client.Login(cmd.Context(), email, password)
			if client.IsUnauthorized(err) {
				return errors.New("login failed: invalid credentials")
			}
			if err != nil {
				return err
			}
			app.Session.Begin(res.Token, string(res.Role))
			if !app.Session.Active() || app.Session.Role() == "" {
				app.Session.End()
				return crmerr.New(crmerr.KindUnauthorized, "login", "server returned an unusable session")
			}
			if err := app.Sessions.Save(app.Session); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", email, app.Session.Role())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (default $CRM_PASSWORD)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Session.End()
			if err := app.Sessions.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and what they may do",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.Active() {
				return crmerr.New(crmerr.KindUnauthorized, "whoami", "not logged in")
			}
			u, err := app.Client.Profile(cmd.Context())
			if err != nil {
				return err
			}
			p := app.printer(cmd.OutOrStdout())
			p.fields(
				"name", u.Name,
				"email", u.Email,
				"role", string(app.Session.Role()),
			)
			caps := app.Session.Capabilities().Sorted()
			names := make([]string, len(caps))
			for i, c := range caps {
				names[i] = string(c)
			}
			p.fields("capabilities", strings.Join(names, ", "))
			return nil
		},
	}
}
