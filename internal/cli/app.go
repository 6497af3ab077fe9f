// Package cli implements crmctl, the command-line front-end of the CRM API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/garnizeh/crm/internal/resolver"
	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/internal/store"
	"github.com/garnizeh/crm/internal/views"
	"github.com/garnizeh/crm/internal/workflow"
	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/crmerr"
)

// errForbidden is returned when the signed-in role lacks a capability.
var errForbidden = errors.New("permission denied")

// App wires one crmctl invocation.
type App struct {
	Client   *client.Client
	Session  *session.Session
	Sessions session.FileStore
	Stores   *store.Set
	Engine   *workflow.Engine
	Resolver *resolver.Resolver
	Views    *views.Loader

	// Styled renders tables with lipgloss; plain TSV otherwise.
	Styled bool
	Logger *slog.Logger
}

// NewApp builds an App around c. The session is loaded from sessions by
// the root command before any subcommand runs.
func NewApp(c *client.Client, sessions session.FileStore, styled bool, clock func() time.Time, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if clock == nil {
		clock = time.Now
	}
	sess := session.New(clock)
	api := c.WithTokenSource(sess)
	stores := store.NewSet()
	res := resolver.New(api, stores)

	return &App{
		Client:   api,
		Session:  sess,
		Sessions: sessions,
		Stores:   stores,
		Engine:   workflow.New(api, stores, workflow.WithClock(clock), workflow.WithLogger(logger)),
		Resolver: res,
		Views:    views.New(api, stores, res, sess, logger),
		Styled:   styled,
		Logger:   logger,
	}
}

// require fails unless the session is active and grants c.
func (a *App) require(c session.Capability) error {
	if !a.Session.Active() {
		return crmerr.New(crmerr.KindUnauthorized, "crmctl", "not logged in")
	}
	if !a.Session.Can(c) {
		role := string(a.Session.Role())
		if role == "" {
			role = "no role"
		}
		return fmt.Errorf("%w: %s cannot %s", errForbidden, role, c)
	}
	return nil
}

// Run executes args and returns the process exit code. Errors are printed
// to stderr as user-facing notices.
func Run(ctx context.Context, app *App, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if client.IsUnauthorized(err) && app.Session.Token() != "" {
		app.Session.End()
		if cerr := app.Sessions.Clear(); cerr != nil {
			app.Logger.Warn("cli: clear session", slog.Any("error", cerr))
		}
	}
	msg := crmerr.Notice(err)
	if crmerr.KindOf(err) == crmerr.KindUnauthorized && app.Session.Active() {
		msg = "Your role is not allowed to do that."
	}
	fmt.Fprintln(stderr, msg)
	return 1
}

// NewRootCmd creates the top-level "crmctl" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "crmctl",
		Short:         "Customer, project and sales workflows from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Sessions.Load(app.Session)
		},
	}

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newCustomersCmd(app),
		newInteractionsCmd(app),
		newProjectsCmd(app),
		newTasksCmd(app),
		newRequestsCmd(app),
		newSalesCmd(app),
		newFundingCmd(app),
		newDashboardCmd(app),
	)
	return root
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, crmerr.Validation("crmctl", fmt.Sprintf("%q is not a valid id", s))
	}
	return id, nil
}
