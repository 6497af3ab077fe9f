// Package session holds the signed-in user's token and role and derives the
// capabilities the front-end may offer.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/crm/pkg/models"
)

// Session is the explicit login context handed to the components that need
// it. The zero value is a signed-out session.
type Session struct {
	mu     sync.RWMutex
	token  string
	role   models.Role
	userID int64
	exp    time.Time
	now    func() time.Time
}

// New returns a signed-out session using clock, or time.Now when nil.
func New(clock func() time.Time) *Session {
	return &Session{now: clock}
}

type tokenClaims struct {
	Role   string `json:"role"`
	UserID int64  `json:"user_id"`
	jwt.RegisteredClaims
}

// decodeClaims reads the claims without verifying the signature; the server
// does that on every request.
func decodeClaims(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Begin starts a session after a successful login. role is the role returned
// by the login response; when empty it is taken from the token's claims. An
// unrecognised role leaves the session with no capabilities.
func (s *Session) Begin(token, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.role = ""
	s.userID = 0
	s.exp = time.Time{}

	claims, err := decodeClaims(token)
	if err == nil {
		s.userID = claims.UserID
		if claims.ExpiresAt != nil {
			s.exp = claims.ExpiresAt.Time
		}
		if role == "" {
			role = claims.Role
		}
	} else if role == "" {
		return
	}
	if r, err := models.ParseRole(role); err == nil {
		s.role = r
	}
}

// End clears the session.
func (s *Session) End() {
	s.mu.Lock()
	s.token, s.role, s.userID, s.exp = "", "", 0, time.Time{}
	s.mu.Unlock()
}

// Token implements client.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Active reports whether the session holds a token that has not expired.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked()
}

func (s *Session) activeLocked() bool {
	if s.token == "" {
		return false
	}
	return s.exp.IsZero() || s.clock().Before(s.exp)
}

// Capabilities returns what the current role may do; an expired or absent
// session yields the empty set.
func (s *Session) Capabilities() CapabilitySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.activeLocked() {
		return CapabilitiesFor("")
	}
	return CapabilitiesFor(s.role)
}

func (s *Session) Can(c Capability) bool {
	return s.Capabilities().Has(c)
}
