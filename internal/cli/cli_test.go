package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/crm/api"
	dbfs "github.com/garnizeh/crm/db"
	"github.com/garnizeh/crm/internal/config"
	dbpkg "github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/internal/repository/sqlite"
	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

const testPassword = "correct horse"

// testEnv runs crmctl invocations against a real API server backed by a
// temporary database. Invocations share the session file like separate
// processes would.
type testEnv struct {
	url         string
	repo        *sqlite.SQLiteRepo
	sessionPath string
	now         func() time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	d, err := dbpkg.New(ctx, "file:"+filepath.Join(dir, "crm.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, dbpkg.Migrate(ctx, d, dbfs.Migrations))
	repo := sqlite.New(d, nil)

	hash, err := api.HashPassword(testPassword)
	require.NoError(t, err)
	for _, u := range []models.User{
		{Name: "Ada Admin", Email: "admin@crm.test", Role: models.RoleAdmin},
		{Name: "Sam Sales", Email: "sales@crm.test", Role: models.RoleSales},
		{Name: "Pat Manager", Email: "pm@crm.test", Role: models.RoleProjectManager},
	} {
		u.PasswordHash = hash
		_, err := repo.CreateUser(ctx, &u)
		require.NoError(t, err)
	}

	cfg := &config.Config{JWTSecret: "cli-test-secret", TokenDuration: time.Hour, UploadDir: filepath.Join(dir, "uploads")}
	srv := httptest.NewServer(api.SetupRoutes(cfg, "test", "now", repo, nil))
	t.Cleanup(srv.Close)

	return &testEnv{
		url:         srv.URL,
		repo:        repo,
		sessionPath: filepath.Join(dir, "home", "session.yaml"),
		now:         time.Now,
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	c, err := client.New(client.Config{BaseURL: e.url, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	defer c.Close()

	app := NewApp(c, session.FileStore{Path: e.sessionPath}, false, e.now, nil)
	var out, errOut bytes.Buffer
	code := Run(context.Background(), app, args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func (e *testEnv) login(t *testing.T, who string) {
	t.Helper()
	code, out, errOut := e.run(t, "login", "--email", who+"@crm.test", "--password", testPassword)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "Logged in as "+who+"@crm.test")
}

func (e *testEnv) seed(t *testing.T) (acme, shop, project, task int64) {
	t.Helper()
	ctx := context.Background()
	var err error
	acme, err = e.repo.CreateCustomer(ctx, &models.Customer{Name: "Acme", Email: "a@acme.test", Industry: "Tech", Location: "Lisbon"})
	require.NoError(t, err)
	shop, err = e.repo.CreateCustomer(ctx, &models.Customer{Name: "Shop", Email: "s@shop.test", Industry: "Retail", Location: "Porto"})
	require.NoError(t, err)
	project, err = e.repo.CreateProject(ctx, &models.Project{CustomerID: acme, Name: "Portal", Budget: 1000, Phase: models.PhasePlanning, Manager: 3})
	require.NoError(t, err)
	task, err = e.repo.CreateTask(ctx, &models.Task{ProjectID: project, Description: "ship it", DueDate: "2025-06-01", Status: models.StatusPending, AssignedTo: 3})
	require.NoError(t, err)
	return
}

func TestLoginWhoamiLogout(t *testing.T) {
	e := newTestEnv(t)
	e.login(t, "sales")

	info, err := os.Stat(e.sessionPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	code, out, _ := e.run(t, "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Sam Sales")
	assert.Contains(t, out, "role\tSales")
	assert.Contains(t, out, "ViewSales")
	assert.NotContains(t, out, "ViewAdminDashboard")

	code, out, _ = e.run(t, "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Logged out")

	code, _, errOut := e.run(t, "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "log in again")
}

func TestLogin_Rejected(t *testing.T) {
	e := newTestEnv(t)
	code, _, errOut := e.run(t, "login", "--email", "sales@crm.test", "--password", "wrong")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid credentials")
	_, err := os.Stat(e.sessionPath)
	assert.True(t, os.IsNotExist(err))

	code, _, errOut = e.run(t, "login", "--email", "sales@crm.test")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "email and password are required")
}

func TestCustomersListAndFilters(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	e.login(t, "sales")

	code, out, errOut := e.run(t, "customers", "list", "--industry", "Tech")
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID\tNAME\tEMAIL\tINDUSTRY\tLOCATION\tTAG\tSTAGE", lines[0])
	assert.Contains(t, lines[1], "Acme")

	code, out, _ = e.run(t, "customers", "filters")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "industry\tRetail, Tech")
	assert.Contains(t, out, "location\tLisbon, Porto")

	code, _, errOut = e.run(t, "customers", "list", "--tag", "Gold")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid value")
}

func TestCustomersShowAndTag(t *testing.T) {
	e := newTestEnv(t)
	acme, _, _, _ := e.seed(t)
	e.login(t, "sales")
	id := itoa(acme)

	code, out, errOut := e.run(t, "customers", "tag", id, "VIP")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "tagged VIP")

	got, err := e.repo.GetCustomer(context.Background(), acme)
	require.NoError(t, err)
	assert.Equal(t, models.TagVIP, got.Tag)

	code, _, errOut = e.run(t, "customers", "tag", id, "Gold")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid value")

	code, out, errOut = e.run(t, "customers", "show", id)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "# Acme")
	assert.Contains(t, out, "tag\tVIP")
	assert.Contains(t, out, "no funding record")
	assert.Contains(t, out, "Portal")
	assert.Contains(t, out, "Pat Manager")

	code, out, _ = e.run(t, "customers", "tag", id)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "untagged")

	code, _, errOut = e.run(t, "customers", "show", "999")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Not found")
}

func TestCapabilityGate(t *testing.T) {
	e := newTestEnv(t)
	_, _, project, _ := e.seed(t)
	e.login(t, "sales")

	code, _, errOut := e.run(t, "projects", "phase", itoa(project), "Testing")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "permission denied: Sales cannot ManageProjects")

	// the refusal happens before any request, so the session survives
	_, err := os.Stat(e.sessionPath)
	assert.NoError(t, err)

	code, _, errOut = e.run(t, "customers", "list")
	assert.Equal(t, 0, code, errOut)
}

func TestNotLoggedIn(t *testing.T) {
	e := newTestEnv(t)
	code, _, errOut := e.run(t, "customers", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "log in again")
}

func TestProjectWorkflow(t *testing.T) {
	e := newTestEnv(t)
	_, _, project, task := e.seed(t)
	e.login(t, "pm")
	pid := itoa(project)

	code, out, errOut := e.run(t, "tasks", "status", itoa(task), "In Progress", "--project", pid)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "is now In Progress")

	code, _, errOut = e.run(t, "tasks", "status", itoa(task), "Done", "--project", pid)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid value")

	code, out, errOut = e.run(t, "projects", "phase", pid, "Testing")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "now in Testing")

	code, out, errOut = e.run(t, "funding", "set", "--project", pid, "Approved")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "now Approved (approved ")

	code, out, errOut = e.run(t, "funding", "set", "--project", pid, "Rejected")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "now Rejected")
	assert.NotContains(t, out, "approved ")

	code, _, errOut = e.run(t, "funding", "set", "--project", pid, "2")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid value")

	code, out, errOut = e.run(t, "projects", "show", pid)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "phase\tTesting")
	assert.Contains(t, out, "status\tRejected")
	assert.Contains(t, out, "ship it")
	assert.Contains(t, out, "In Progress")

	code, out, errOut = e.run(t, "projects", "list")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Portal\tAcme\tTesting\t1000.00\tPat Manager")
}

func TestFundingSet_CustomerScope(t *testing.T) {
	e := newTestEnv(t)
	acme, _, _, _ := e.seed(t)
	e.login(t, "sales")

	code, _, _ := e.run(t, "funding", "set", "Approved")
	assert.Equal(t, 1, code)

	code, out, errOut := e.run(t, "funding", "set", "--customer", itoa(acme), "Funded")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Funding for customer/"+itoa(acme)+" is now Funded")

	code, _, errOut = e.run(t, "funding", "set", "--customer", "999", "Funded")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Not found")
}

func TestFundingSet_GateFollowsScope(t *testing.T) {
	e := newTestEnv(t)
	acme, _, project, _ := e.seed(t)

	e.login(t, "sales")
	code, _, errOut := e.run(t, "funding", "set", "--project", itoa(project), "Approved")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "permission denied: Sales cannot ManageProjectFunding")

	e.login(t, "pm")
	code, _, errOut = e.run(t, "funding", "set", "--customer", itoa(acme), "Approved")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "permission denied: Project Manager cannot ManageCustomerFunding")

	code, out, errOut := e.run(t, "funding", "set", "--project", itoa(project), "Pending")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "is now Pending")
}

func TestSubmitAndDelete(t *testing.T) {
	e := newTestEnv(t)
	e.login(t, "sales")

	code, out, errOut := e.run(t, "customers", "add", "--name", "Shop", "--email", "s@shop.test", "--industry", "Retail")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Created customer ")
	customers, err := e.repo.ListCustomers(context.Background(), repository.CustomerFilter{})
	require.NoError(t, err)
	require.Len(t, customers, 1)
	cid := itoa(customers[0].ID)

	code, _, errOut = e.run(t, "customers", "add", "--name", "NoMail")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "email is required")

	attachment := filepath.Join(t.TempDir(), "contract.pdf")
	require.NoError(t, os.WriteFile(attachment, []byte("%PDF-1.4"), 0o600))
	code, out, errOut = e.run(t, "interactions", "add", cid, "--details", "signed", "--file", attachment)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Recorded File Upload interaction")
	assert.Contains(t, out, "contract.pdf")

	code, out, errOut = e.run(t, "sales", "add", cid, "--name", "Kiosk deal", "--stage", "Qualified", "--revenue", "250")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "at Qualified")
	code, _, errOut = e.run(t, "sales", "add", cid, "--name", "Bad", "--stage", "Won")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid value")

	sales, err := e.repo.ListSales(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	sid := itoa(sales[0].ID)
	code, out, errOut = e.run(t, "sales", "delete", sid)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Deleted opportunity "+sid)
	sales, err = e.repo.ListSales(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sales)

	code, _, errOut = e.run(t, "projects", "add", cid, "--name", "Kiosk")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "permission denied")

	e.login(t, "pm")
	code, out, errOut = e.run(t, "projects", "add", cid, "--name", "Kiosk", "--budget", "400")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "in Planning")
	projects, err := e.repo.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	pid := itoa(projects[0].ID)

	code, _, errOut = e.run(t, "tasks", "add", "0", "--description", "install", "--due", "2025-07-01")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not a valid id")
	code, _, errOut = e.run(t, "tasks", "add", pid, "--description", "install", "--due", "07/01/2025")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "YYYY-MM-DD")
	code, out, errOut = e.run(t, "tasks", "add", pid, "--description", "install", "--due", "2025-07-01")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "due 2025-07-01 (Pending)")

	code, out, errOut = e.run(t, "requests", "add", pid, "--type", "Technical", "--description", "screens", "--requested-by", "pat")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "(Technical)")

	code, out, errOut = e.run(t, "projects", "delete", pid)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Deleted project "+pid)
	code, _, errOut = e.run(t, "projects", "show", pid)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Not found")
}

func TestSalesStage(t *testing.T) {
	e := newTestEnv(t)
	acme, _, _, _ := e.seed(t)
	sale, err := e.repo.CreateSale(context.Background(), &models.SalesOpportunity{
		CustomerID: acme, Name: "Renewal", Stage: models.StageProposalSent, Revenue: 500, Owner: 2,
	})
	require.NoError(t, err)
	e.login(t, "sales")

	code, out, errOut := e.run(t, "sales", "stage", itoa(sale), "Negotiation")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "now at Negotiation")

	code, out, errOut = e.run(t, "sales", "list", "--stage", "Negotiation")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Renewal\tAcme\tNegotiation\t500.00\tSam Sales")

	code, _, errOut = e.run(t, "sales", "stage", "999", "Qualified")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Not found")
}

func TestDashboardPerRole(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	e.login(t, "admin")
	code, out, errOut := e.run(t, "dashboard")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "customers\t2")
	assert.Contains(t, out, "# Administration")
	assert.Contains(t, out, "# Project budget")

	e.login(t, "pm")
	code, out, _ = e.run(t, "dashboard")
	require.Equal(t, 0, code)
	assert.NotContains(t, out, "# Administration")
	assert.NotContains(t, out, "# Sales")
	assert.Contains(t, out, "# Project budget")
	assert.Contains(t, out, "projects\t1")
	assert.NotContains(t, out, "! budget:")
}

func TestRejectedSessionIsCleared(t *testing.T) {
	e := newTestEnv(t)
	e.login(t, "admin")

	forged, err := api.IssueToken("another-secret", &models.User{ID: 1, Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	s := session.New(nil)
	s.Begin(forged, "Admin")
	require.NoError(t, session.FileStore{Path: e.sessionPath}.Save(s))

	code, _, errOut := e.run(t, "customers", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "log in again")
	_, err = os.Stat(e.sessionPath)
	assert.True(t, os.IsNotExist(err))
}

func TestExpiredSessionFailsClosed(t *testing.T) {
	e := newTestEnv(t)
	e.login(t, "admin")
	e.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	code, _, errOut := e.run(t, "dashboard")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "log in again")
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "NAME"}, [][]string{{"1", "Acme"}, {"22", "Shop"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "1   Acme")
	assert.Contains(t, lines[3], "22  Shop")
	assert.Empty(t, renderTable(nil, nil))
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
