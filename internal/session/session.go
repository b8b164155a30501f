// Package session implements per-request authentication state: an opaque,
// server-side session record referenced by an HTTP cookie. A session may bind
// at most one actor id per kind at a time.
package session

import (
	"context"
	"time"
)

// Kind discriminates the two actor kinds a session can bind.
type Kind string

const (
	KindClient   Kind = "client"
	KindProvider Kind = "provider"
)

// Session is the stored session record. It intentionally carries only
// identity pointers, not auth state.
type Session struct {
	ID         string    `json:"id"`
	ClientID   *int64    `json:"client_id,omitempty"`
	ProviderID *int64    `json:"provider_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Actor returns the bound actor id for the kind, or nil.
func (s *Session) Actor(kind Kind) *int64 {
	if s == nil {
		return nil
	}
	if kind == KindProvider {
		return s.ProviderID
	}
	return s.ClientID
}

// SetActor binds an actor id for the kind.
func (s *Session) SetActor(kind Kind, id int64) {
	if kind == KindProvider {
		s.ProviderID = &id
		return
	}
	s.ClientID = &id
}

// Store defines how sessions are stored and retrieved. Implementations
// (e.g. Redis) must remain stateless and opaque. Get returns (nil, nil)
// when the session does not exist.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
