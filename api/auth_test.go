package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/crm/api"
	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository/mock"
)

func storeUser(m *mock.Mocks, id int64, email, pw string, role models.Role) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	m.UserRepo.Stored = &models.User{ID: id, Name: "Bob", Email: email, Role: role, PasswordHash: string(hash)}
}

func TestAuthHandlers(t *testing.T) {
	secret := "testsecret"
	tokenDur := 1 * time.Hour

	tests := []struct {
		name       string
		body       any
		prepare    func(m *mock.Mocks)
		wantStatus int
		checkBody  func(t *testing.T, body []byte)
	}{
		{
			name:       "Login_InvalidRequest",
			body:       "not a json",
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Login_MissingFields_Email",
			body:       map[string]string{"password": "nop"},
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, b []byte) {
				if !bytes.Contains(b, []byte("details")) {
					t.Fatalf("expected schema details, got %s", string(b))
				}
			},
		},
		{
			name:       "Login_MissingFields_Password",
			body:       map[string]string{"email": "missing@example.com"},
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Login_MissingUser",
			body:       map[string]string{"email": "missing@example.com", "password": "nop"},
			prepare:    func(m *mock.Mocks) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Login_RepoError",
			body: map[string]string{"email": "bob@example.com", "password": "hunter2"},
			prepare: func(m *mock.Mocks) {
				m.UserRepo.GetErr = fmt.Errorf("db down")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Login_WrongPassword",
			body: map[string]string{"email": "c@example.com", "password": "wrongpw"},
			prepare: func(m *mock.Mocks) {
				storeUser(m, 3, "c@example.com", "rightpw", models.RoleSales)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Login_Success",
			body: map[string]string{"email": "bob@example.com", "password": "hunter2"},
			prepare: func(m *mock.Mocks) {
				storeUser(m, 2, "bob@example.com", "hunter2", models.RoleProjectManager)
			},
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte) {
				var ar struct {
					Token   string `json:"token"`
					Role    string `json:"role"`
					Message string `json:"message"`
				}
				if err := json.Unmarshal(b, &ar); err != nil {
					t.Fatalf("unmarshal token: %v", err)
				}
				if ar.Role != string(models.RoleProjectManager) || ar.Message == "" {
					t.Fatalf("unexpected login response: %s", string(b))
				}
				tok, err := jwt.Parse(ar.Token, func(token *jwt.Token) (any, error) { return []byte(secret), nil })
				if err != nil {
					t.Fatalf("invalid token: %v", err)
				}
				claims := tok.Claims.(jwt.MapClaims)
				if claims["user_id"].(float64) != 2 || claims["role"] != string(models.RoleProjectManager) {
					t.Fatalf("unexpected claims: %v", claims)
				}
				if expF, ok := claims["exp"].(float64); !ok || int64(expF) < time.Now().Unix() {
					t.Fatalf("invalid exp claim")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := mock.NewMocks()
			if tt.prepare != nil {
				tt.prepare(mocks)
			}
			handler := api.NewAuthHandler(mocks.UserRepo, secret, tokenDur)

			b, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewReader(b))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			res := w.Result()
			defer res.Body.Close()
			data, _ := io.ReadAll(res.Body)
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("%s: expected status %d got %d body=%s", tt.name, tt.wantStatus, res.StatusCode, string(data))
			}
			if tt.checkBody != nil {
				tt.checkBody(t, data)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	mocks := mock.NewMocks()
	storeUser(mocks, 7, "p@example.com", "pw", models.RoleAdmin)
	handler := api.NewAuthHandler(mocks.UserRepo, "s", time.Hour)

	// no user in context
	w := httptest.NewRecorder()
	handler.Profile(w, httptest.NewRequest(http.MethodGet, "/users/profile", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req = req.WithContext(context.WithValue(req.Context(), api.CtxUserID, int64(7)))
	w = httptest.NewRecorder()
	handler.Profile(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Fatalf("profile leaked password hash: %s", w.Body.String())
	}
}

func TestIssueToken_RoundTripThroughMiddleware(t *testing.T) {
	u := &models.User{ID: 4, Email: "s@example.com", Role: models.RoleSales}
	tok, err := api.IssueToken("k", u, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotID int64
	var gotRole models.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = api.UserIDFromContext(r.Context())
		gotRole = api.RoleFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	api.JWTAuthMiddlewareWithSecret("k")(next).ServeHTTP(httptest.NewRecorder(), req)

	if gotID != 4 || gotRole != models.RoleSales {
		t.Fatalf("claims not propagated: id=%d role=%q", gotID, gotRole)
	}
}

func TestEnsureAdmin(t *testing.T) {
	mocks := mock.NewMocks()
	ctx := context.Background()

	created, err := api.EnsureAdmin(ctx, mocks.UserRepo, "root@example.com", "pw")
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}
	if mocks.UserRepo.Stored.Role != models.RoleAdmin {
		t.Fatalf("bootstrap user role = %q", mocks.UserRepo.Stored.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(mocks.UserRepo.Stored.PasswordHash), []byte("pw")) != nil {
		t.Fatalf("password not hashed with bcrypt")
	}

	created, err = api.EnsureAdmin(ctx, mocks.UserRepo, "root@example.com", "pw")
	if err != nil || created {
		t.Fatalf("second call: created=%v err=%v", created, err)
	}

	mocks.UserRepo.GetErr = fmt.Errorf("db down")
	if _, err := api.EnsureAdmin(ctx, mocks.UserRepo, "x@example.com", "pw"); err == nil {
		t.Fatalf("expected lookup error")
	}
}
