package session

import (
	"sync"

	"github.com/golang-jwt/jwt/v4"

	"gigmarket/pkg/errors"
)

// Identity is the signed-in user as read from the bearer token.
type Identity struct {
	UserID string
	Name   string
	Role   string
}

// Session holds the bearer credential and the identity derived from it.
// It is injected into the usecases rather than read from ambient globals, and
// has an explicit set/get/clear lifecycle.
type Session struct {
	mu       sync.RWMutex
	token    string
	identity *Identity
}

func New() *Session {
	return &Session{}
}

type tokenClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Set stores the token and extracts the identity from its claims. The token
// is parsed without signature verification: validating it is the backend's
// job, the client only reads who it is acting as.
func (s *Session) Set(token string) error {
	claims := &tokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return errors.Unauthorized("Malformed bearer token", err)
	}
	if claims.Subject == "" {
		return errors.Unauthorized("Bearer token has no subject", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = &Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Role:   claims.Role,
	}
	return nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the current identity, or nil when signed out.
func (s *Session) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = nil
}
