package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/garnizeh/crm/api"
	dbfs "github.com/garnizeh/crm/db"
	"github.com/garnizeh/crm/internal/config"
	dbpkg "github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/internal/repository/sqlite"
	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/models"
)

type testServer struct {
	srv    *httptest.Server
	tokens map[models.Role]string
	cfg    *config.Config
}

type recordedChange struct {
	projectID  int64
	changeType string
}

type fakeRecorder struct{ changes []recordedChange }

func (f *fakeRecorder) RecordProjectChange(_ context.Context, projectID int64, changeType, _, _ string) {
	f.changes = append(f.changes, recordedChange{projectID, changeType})
}

func newTestServer(t *testing.T, rec api.ChangeRecorder) *testServer {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	d, err := dbpkg.New(ctx, "file:"+filepath.Join(dir, "crm.db"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlite.New(d, nil)

	cfg := &config.Config{JWTSecret: "test-secret", TokenDuration: time.Hour, UploadDir: filepath.Join(dir, "uploads")}
	ts := &testServer{tokens: map[models.Role]string{}, cfg: cfg}
	for i, role := range models.RoleValues() {
		u := &models.User{Name: string(role), Email: string(role) + "@example.com", Role: role, PasswordHash: "x"}
		id, err := store.CreateUser(ctx, u)
		if err != nil {
			t.Fatalf("create user %d: %v", i, err)
		}
		u.ID = id
		tok, err := api.IssueToken(cfg.JWTSecret, u, time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		ts.tokens[role] = tok
	}

	ts.srv = httptest.NewServer(api.SetupRoutes(cfg, "test", "now", store, rec))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, role models.Role, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, ts.srv.URL+path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+ts.tokens[role])
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	return res.StatusCode, data
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", string(b), err)
	}
	return v
}

func TestRoutes_AuthAndRoles(t *testing.T) {
	ts := newTestServer(t, nil)

	if code, body := ts.do(t, "", http.MethodGet, "/health", nil); code != http.StatusOK || decode[map[string]string](t, body)["database"] != "up" {
		t.Fatalf("health: %d %s", code, body)
	}
	if code, _ := ts.do(t, "", http.MethodGet, "/customers", nil); code != http.StatusUnauthorized {
		t.Fatalf("customers without token: %d", code)
	}
	if code, _ := ts.do(t, models.RoleProjectManager, http.MethodGet, "/customers", nil); code != http.StatusOK {
		t.Fatalf("customers as PM: %d", code)
	}
	if code, _ := ts.do(t, models.RoleProjectManager, http.MethodPost, "/customers", map[string]string{"name": "A", "email": "a@x.io"}); code != http.StatusForbidden {
		t.Fatalf("customer create as PM: %d", code)
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodGet, "/admin/dashboard", nil); code != http.StatusForbidden {
		t.Fatalf("admin dashboard as Sales: %d", code)
	}
	code, body := ts.do(t, models.RoleAdmin, http.MethodGet, "/users/profile", nil)
	if code != http.StatusOK || decode[models.User](t, body).Role != models.RoleAdmin {
		t.Fatalf("profile: %d %s", code, body)
	}
}

// Each client capability must be accepted by the server for exactly the roles
// that hold it. Open reads only need the one direction.
func TestRoutes_RoleGateParity(t *testing.T) {
	ts := newTestServer(t, nil)
	cases := []struct {
		cap          session.Capability
		method, path string
		exact        bool
	}{
		{session.ViewAdminDashboard, http.MethodGet, "/admin/dashboard", true},
		{session.ViewCustomers, http.MethodGet, "/customers", false},
		{session.EditCustomers, http.MethodPost, "/customers", true},
		{session.EditCustomers, http.MethodPut, "/customers/1", true},
		{session.EditCustomers, http.MethodPost, "/interactions/1", true},
		{session.ViewSales, http.MethodGet, "/sales_opportunity", false},
		{session.ManageSales, http.MethodPost, "/sales_opportunity", true},
		{session.ManageSales, http.MethodDelete, "/sales_opportunity/1", true},
		{session.ViewProjects, http.MethodGet, "/projects", false},
		{session.ViewProjects, http.MethodGet, "/reports/project_budget", true},
		{session.ManageProjects, http.MethodPost, "/projects/customers/1", true},
		{session.ManageProjects, http.MethodDelete, "/projects/1", true},
		{session.ManageProjects, http.MethodPost, "/tasks/projects/1", true},
		{session.ManageProjects, http.MethodPut, "/tasks/1", true},
		{session.ManageProjects, http.MethodPost, "/support_requests/projects/1", true},
		{session.ManageCustomerFunding, http.MethodPut, "/funding/customers/1", true},
		{session.ManageProjectFunding, http.MethodPut, "/projects/1/funding", true},
		{session.ManageUsers, http.MethodPost, "/users", true},
		{session.ViewReports, http.MethodGet, "/reports/sales_summary", true},
		{session.ViewReports, http.MethodGet, "/reports/customer_distribution", true},
	}
	for _, role := range models.RoleValues() {
		caps := session.CapabilitiesFor(role)
		for _, c := range cases {
			code, _ := ts.do(t, role, c.method, c.path, map[string]any{})
			allowed := code != http.StatusForbidden
			if caps.Has(c.cap) && !allowed {
				t.Errorf("%s holds %s but %s %s is forbidden", role, c.cap, c.method, c.path)
			}
			if c.exact && !caps.Has(c.cap) && allowed {
				t.Errorf("%s lacks %s but %s %s answered %d", role, c.cap, c.method, c.path, code)
			}
		}
	}
}

func TestRoutes_CustomerLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := ts.do(t, models.RoleSales, http.MethodPost, "/customers", map[string]string{"name": "Acme", "email": "ops@acme.io", "industry": "Tech"})
	if code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, body)
	}
	c := decode[models.Customer](t, body)

	// schema rejects an empty patch
	if code, _ := ts.do(t, models.RoleSales, http.MethodPut, "/customers/"+itoa(c.ID), map[string]string{}); code != http.StatusBadRequest {
		t.Fatalf("empty patch: %d", code)
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodPut, "/customers/"+itoa(c.ID), map[string]string{"tags": "Gold"}); code != http.StatusBadRequest {
		t.Fatalf("invalid tag: %d", code)
	}
	code, body = ts.do(t, models.RoleSales, http.MethodPut, "/customers/"+itoa(c.ID), map[string]string{"tags": "VIP"})
	if code != http.StatusOK || decode[models.Customer](t, body).Tag != models.TagVIP {
		t.Fatalf("tag update: %d %s", code, body)
	}

	code, body = ts.do(t, models.RoleSales, http.MethodGet, "/customers?industry=Tech", nil)
	if code != http.StatusOK || len(decode[[]models.Customer](t, body)) != 1 {
		t.Fatalf("filter: %d %s", code, body)
	}
	code, body = ts.do(t, models.RoleSales, http.MethodGet, "/customers?industry=Retail", nil)
	if code != http.StatusOK || string(bytes.TrimSpace(body)) != "[]" {
		t.Fatalf("empty filter: %d %s", code, body)
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodGet, "/customers/999", nil); code != http.StatusNotFound {
		t.Fatalf("missing customer: %d", code)
	}
}

func TestRoutes_CustomerFundingKeepsApprovalDate(t *testing.T) {
	ts := newTestServer(t, nil)
	_, body := ts.do(t, models.RoleAdmin, http.MethodPost, "/customers", map[string]string{"name": "Acme", "email": "ops@acme.io"})
	c := decode[models.Customer](t, body)
	path := "/funding/customers/" + itoa(c.ID)

	if code, _ := ts.do(t, models.RoleSales, http.MethodPut, "/funding/customers/999", map[string]any{"funding_status": "Pending"}); code != http.StatusNotFound {
		t.Fatalf("PUT for missing customer: %d", code)
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodPost, path, map[string]any{"funding_status": "2"}); code != http.StatusBadRequest {
		t.Fatalf("legacy code accepted: %d", code)
	}

	code, body := ts.do(t, models.RoleSales, http.MethodPost, path, map[string]any{"funding_status": "Pending", "project_budget": 5000})
	if code != http.StatusCreated {
		t.Fatalf("create funding: %d %s", code, body)
	}
	if rec := decode[models.FundingRecord](t, body); rec.ApprovalDate != nil {
		t.Fatalf("pending record has approval date")
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodPost, path, map[string]any{"funding_status": "Pending"}); code != http.StatusConflict {
		t.Fatalf("second POST: %d", code)
	}

	code, body = ts.do(t, models.RoleSales, http.MethodPut, path, map[string]any{"funding_status": "Approved"})
	rec := decode[models.FundingRecord](t, body)
	if code != http.StatusOK || rec.Status != models.FundingApproved || rec.ApprovalDate == nil || rec.Budget != 5000 {
		t.Fatalf("approve: %d %s", code, body)
	}

	_, body = ts.do(t, models.RoleSales, http.MethodGet, "/customers/"+itoa(c.ID), nil)
	if got := decode[models.Customer](t, body).FundingStatus; got != models.FundingApproved {
		t.Fatalf("customer funding_status = %q", got)
	}

	code, body = ts.do(t, models.RoleSales, http.MethodPut, path, map[string]any{"funding_status": "Rejected"})
	if rec := decode[models.FundingRecord](t, body); code != http.StatusOK || rec.ApprovalDate != nil {
		t.Fatalf("reject: %d %s", code, body)
	}

	if code, _ := ts.do(t, models.RoleSales, http.MethodDelete, path, nil); code != http.StatusNoContent {
		t.Fatalf("delete: %d", code)
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodGet, path, nil); code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", code)
	}
}

func TestRoutes_ProjectTasksAndChangeLog(t *testing.T) {
	rec := &fakeRecorder{}
	ts := newTestServer(t, rec)
	_, body := ts.do(t, models.RoleAdmin, http.MethodPost, "/customers", map[string]string{"name": "Acme", "email": "ops@acme.io"})
	c := decode[models.Customer](t, body)

	code, body := ts.do(t, models.RoleProjectManager, http.MethodPost, "/projects/customers/"+itoa(c.ID), map[string]any{"project_name": "Portal", "budget": 1200})
	if code != http.StatusCreated {
		t.Fatalf("create project: %d %s", code, body)
	}
	p := decode[models.Project](t, body)
	if p.Phase != models.PhasePlanning {
		t.Fatalf("default phase = %q", p.Phase)
	}

	code, body = ts.do(t, models.RoleProjectManager, http.MethodPut, "/projects/"+itoa(p.ID), map[string]any{"phase": "Testing"})
	if code != http.StatusOK || decode[models.Project](t, body).Phase != models.PhaseTesting {
		t.Fatalf("phase update: %d %s", code, body)
	}

	code, body = ts.do(t, models.RoleProjectManager, http.MethodPost, "/tasks/projects/"+itoa(p.ID), map[string]any{"description": "wire sso", "due_date": "2025-05-01"})
	if code != http.StatusCreated {
		t.Fatalf("create task: %d %s", code, body)
	}
	task := decode[models.Task](t, body)
	if task.Status != models.StatusPending {
		t.Fatalf("default status = %q", task.Status)
	}
	if code, _ := ts.do(t, models.RoleProjectManager, http.MethodPut, "/tasks/"+itoa(task.ID), map[string]any{"status": "Done"}); code != http.StatusBadRequest {
		t.Fatalf("invalid status: %d", code)
	}
	code, body = ts.do(t, models.RoleProjectManager, http.MethodPut, "/tasks/"+itoa(task.ID), map[string]any{"status": "In Progress"})
	if code != http.StatusOK || decode[models.Task](t, body).Status != models.StatusInProgress {
		t.Fatalf("status update: %d %s", code, body)
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodPut, "/tasks/"+itoa(task.ID), map[string]any{"status": "Completed"}); code != http.StatusForbidden {
		t.Fatalf("sales task update: %d", code)
	}

	code, body = ts.do(t, models.RoleProjectManager, http.MethodPut, "/projects/"+itoa(p.ID)+"/funding", map[string]any{"funding_status": "Funded"})
	if fr := decode[models.FundingRecord](t, body); code != http.StatusCreated || fr.ApprovalDate == nil || fr.ProjectID != p.ID {
		t.Fatalf("project funding: %d %s", code, body)
	}

	if len(rec.changes) != 2 || rec.changes[0].changeType != "phase" || rec.changes[1].changeType != "funding" {
		t.Fatalf("unexpected recorded changes: %+v", rec.changes)
	}

	code, body = ts.do(t, models.RoleProjectManager, http.MethodPost, "/update_logs/projects/"+itoa(p.ID), map[string]any{"change_type": "note", "responsible_person": "pm"})
	if code != http.StatusCreated {
		t.Fatalf("update log: %d %s", code, body)
	}
	code, body = ts.do(t, models.RoleSales, http.MethodGet, "/update_logs/projects/"+itoa(p.ID), nil)
	if code != http.StatusOK || len(decode[[]models.UpdateLog](t, body)) != 1 {
		t.Fatalf("list logs: %d %s", code, body)
	}

	if code, _ := ts.do(t, models.RoleProjectManager, http.MethodDelete, "/projects/"+itoa(p.ID), nil); code != http.StatusNoContent {
		t.Fatalf("delete project: %d", code)
	}
	_, body = ts.do(t, models.RoleProjectManager, http.MethodGet, "/tasks/projects/"+itoa(p.ID), nil)
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Fatalf("tasks survived project delete: %s", body)
	}
}

func TestRoutes_SalesAndReports(t *testing.T) {
	ts := newTestServer(t, nil)
	_, body := ts.do(t, models.RoleSales, http.MethodPost, "/customers", map[string]string{"name": "Acme", "email": "ops@acme.io", "industry": "Tech"})
	c := decode[models.Customer](t, body)

	code, body := ts.do(t, models.RoleSales, http.MethodPost, "/sales_opportunity", map[string]any{"customer_id": c.ID, "opportunity": "Renewal", "sales_stage": "Negotiation", "revenue": 900})
	if code != http.StatusCreated {
		t.Fatalf("create sale: %d %s", code, body)
	}
	s := decode[models.SalesOpportunity](t, body)
	if s.Owner == 0 {
		t.Fatalf("owner not defaulted to caller")
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodPost, "/sales_opportunity", map[string]any{"customer_id": 999, "opportunity": "X", "sales_stage": "Qualified"}); code != http.StatusNotFound {
		t.Fatalf("sale for missing customer: %d", code)
	}

	_, body = ts.do(t, models.RoleSales, http.MethodGet, "/dashboard-stats", nil)
	stats := decode[models.DashboardStats](t, body)
	if stats.TotalCustomers != 1 || stats.ActiveDeals != 1 {
		t.Fatalf("dashboard: %+v", stats)
	}
	_, body = ts.do(t, models.RoleSales, http.MethodGet, "/reports/sales_summary", nil)
	if sum := decode[models.SalesSummary](t, body); sum.TotalRevenue != 900 {
		t.Fatalf("summary: %+v", sum)
	}

	code, body = ts.do(t, models.RoleSales, http.MethodPut, "/sales_opportunity/"+itoa(s.ID), map[string]any{"sales_stage": "Qualified"})
	if code != http.StatusOK || decode[models.SalesOpportunity](t, body).Stage != models.StageQualified {
		t.Fatalf("stage update: %d %s", code, body)
	}
	if code, _ := ts.do(t, models.RoleSales, http.MethodDelete, "/sales_opportunity/"+itoa(s.ID), nil); code != http.StatusNoContent {
		t.Fatalf("delete sale: %d", code)
	}
}

func TestRoutes_InteractionUpload(t *testing.T) {
	ts := newTestServer(t, nil)
	_, body := ts.do(t, models.RoleSales, http.MethodPost, "/customers", map[string]string{"name": "Acme", "email": "ops@acme.io"})
	c := decode[models.Customer](t, body)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("interaction_type", "File Upload")
	_ = mw.WriteField("details", "signed contract")
	fw, _ := mw.CreateFormFile("file", "../../contract v1.pdf")
	_, _ = fw.Write([]byte("%PDF-1.4"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.srv.URL+"/interactions/"+itoa(c.ID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.tokens[models.RoleSales])
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("upload: %d %s", res.StatusCode, data)
	}
	in := decode[models.Interaction](t, data)
	if in.FilePath == "" || filepath.Base(in.FilePath) != in.FilePath {
		t.Fatalf("unexpected stored name %q", in.FilePath)
	}
	if _, err := os.Stat(filepath.Join(ts.cfg.UploadDir, in.FilePath)); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	_, body = ts.do(t, models.RoleSales, http.MethodGet, "/interactions/"+itoa(c.ID), nil)
	if got := decode[[]models.Interaction](t, body); len(got) != 1 || got[0].Type != models.InteractionFileUpload {
		t.Fatalf("list interactions: %s", body)
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
