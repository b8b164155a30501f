package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Manager binds one HTTP request/response pair to at most one session.
// It lazily loads the session referenced by the request cookie and issues
// or clears the cookie as the session changes. A Manager is single-request
// and not safe for concurrent use.
type Manager struct {
	store Store
	ttl   time.Duration
	opts  CookieOptions

	w http.ResponseWriter
	r *http.Request

	cur    *Session
	loaded bool
}

// NewManager constructs a per-request session manager.
func NewManager(store Store, ttl time.Duration, opts CookieOptions, w http.ResponseWriter, r *http.Request) *Manager {
	return &Manager{store: store, ttl: ttl, opts: opts, w: w, r: r}
}

// load reads the request cookie and fetches the session once per request.
func (m *Manager) load(ctx context.Context) (*Session, error) {
	if m.loaded {
		return m.cur, nil
	}
	m.loaded = true
	c, err := m.r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	s, err := m.store.Get(ctx, c.Value)
	if err != nil {
		return nil, err
	}
	m.cur = s
	return s, nil
}

// Actor returns the bound actor id for the kind, or nil when the request
// carries no session or the session binds no actor of that kind.
func (m *Manager) Actor(ctx context.Context, kind Kind) (*int64, error) {
	s, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Actor(kind), nil
}

// Bind associates the actor id with the request's session, creating the
// session and issuing the cookie on first bind.
func (m *Manager) Bind(ctx context.Context, kind Kind, id int64) error {
	s, err := m.load(ctx)
	if err != nil {
		return err
	}
	if s != nil {
		s.SetActor(kind, id)
		return m.store.Update(ctx, *s)
	}

	sid, err := uuid.NewV4()
	if err != nil {
		return err
	}
	fresh := Session{ID: sid.String(), ExpiresAt: time.Now().Add(m.ttl)}
	fresh.SetActor(kind, id)
	if err := m.store.Create(ctx, fresh); err != nil {
		return err
	}
	m.cur = &fresh
	SetCookie(m.w, fresh.ID, fresh.ExpiresAt, m.opts)
	return nil
}

// Destroy deletes the stored session and clears the cookie. Both are
// attempted regardless of individual failures; the combined error is
// returned so the caller can report it.
func (m *Manager) Destroy(ctx context.Context) error {
	s, loadErr := m.load(ctx)

	var delErr error
	if s != nil {
		delErr = m.store.Delete(ctx, s.ID)
	}
	ClearCookie(m.w, m.opts)
	m.cur = nil
	return errors.Join(loadErr, delErr)
}
