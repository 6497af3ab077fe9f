package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

type UsersHandler struct {
	repo repository.UserRepo
}

func NewUsersHandler(repo repository.UserRepo) *UsersHandler {
	return &UsersHandler{repo: repo}
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		writeStoreError(w, "list users", err)
		return
	}
	writeJSON(w, emptyIfNil(users), http.StatusOK)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.repo.GetUserByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, user, http.StatusOK)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r, "user_create", &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeStoreError(w, "create user", err)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error hashing password")
		return
	}

	u := &models.User{Name: strings.TrimSpace(req.Name), Email: strings.TrimSpace(req.Email), Role: role, PasswordHash: hash}
	id, err := h.repo.CreateUser(r.Context(), u)
	if err != nil {
		writeStoreError(w, "create user", err)
		return
	}
	u.ID = id
	writeJSON(w, u, http.StatusCreated)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := withID(w, r, "id")
	if !ok {
		return
	}
	if id == UserIDFromContext(r.Context()) {
		writeError(w, http.StatusBadRequest, "cannot delete the current user")
		return
	}
	if err := h.repo.DeleteUser(r.Context(), id); err != nil {
		writeStoreError(w, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// EnsureAdmin creates an Admin user with email and password unless a user
// with that email already exists. It reports whether a user was created.
func EnsureAdmin(ctx context.Context, repo repository.UserRepo, email, password string) (bool, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	u := &models.User{Name: "Administrator", Email: email, Role: models.RoleAdmin, PasswordHash: hash}
	if _, err := repo.CreateUser(ctx, u); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
