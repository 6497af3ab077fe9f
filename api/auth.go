package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

type AuthHandler struct {
	userRepo      repository.UserRepo
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{userRepo: ur, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string      `json:"token"`
	Role    models.Role `json:"role"`
	UserID  int64       `json:"user_id"`
	Message string      `json:"message"`
}

// IssueToken signs an HS256 token carrying the user's id, role and email.
func IssueToken(secret string, u *models.User, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"role":    string(u.Role),
		"email":   u.Email,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, "login", &req) {
		return
	}

	user, err := h.userRepo.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokenStr, err := IssueToken(h.jwtSecret, user, h.tokenDuration)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error signing token")
		return
	}

	writeJSON(w, loginResponse{Token: tokenStr, Role: user.Role, UserID: user.ID, Message: "Login successful"}, http.StatusOK)
}

// Profile returns the user identified by the bearer token.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id := UserIDFromContext(r.Context())
	if id <= 0 {
		writeError(w, http.StatusUnauthorized, "token carries no user")
		return
	}

	user, err := h.userRepo.GetUserByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get profile", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, user, http.StatusOK)
}
