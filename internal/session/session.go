// Package session keeps logged-in principals and carries them through request
// contexts.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleMarketer Role = "marketer"
)

// Principal identifies who is making a request.
type Principal struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

var ErrUnknownToken = errors.New("unknown session token")

// Store is an in-memory token registry. Tokens do not expire.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Principal
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]Principal)}
}

// Create issues a new opaque token for p.
func (s *Store) Create(p Principal) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = p
	s.mu.Unlock()
	return token
}

func (s *Store) Get(token string) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.sessions[token]
	if !ok {
		return Principal{}, ErrUnknownToken
	}
	return p, nil
}

func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal attached to ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
