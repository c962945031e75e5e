package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/remote"
	"storefront/internal/storage"
	"storefront/internal/watch"
)

// ErrUnresolved is returned for transitions attempted before Restore has
// finished.
var ErrUnresolved = errors.New("session not resolved yet")

const (
	msgLoginOK        = "signed in"
	msgLoginFailed    = "sign in failed"
	msgRegisterOK     = "account created"
	msgRegisterFailed = "registration failed"
	msgLoading        = "session is still loading"
	msgSuperseded     = "request superseded by a newer session change"
)

type authAPI interface {
	Profile(ctx context.Context, accessToken string) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*remote.AuthResponse, error)
	Register(ctx context.Context, in remote.RegisterInput) (*remote.AuthResponse, error)
}

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Result reports the outcome of Login or Register. Failures carry a message
// suitable for display; they are never returned as errors.
type Result struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Identity *domain.Identity `json:"user,omitempty"`
}

// Snapshot is what subscribers and readers see.
type Snapshot struct {
	State    State            `json:"state"`
	Identity *domain.Identity `json:"user,omitempty"`
}

// Manager holds the one authenticated identity of this storefront, or none.
//
// Every remote call is tagged with a generation taken when it is issued. Any
// later Login, Register, Logout or Invalidate bumps the generation, so a
// response that arrives after the session has moved on is dropped instead
// of overwriting newer state.
type Manager struct {
	api    authAPI
	store  store
	logger *log.Logger
	hub    *watch.Hub[Snapshot]

	restoreOnce sync.Once

	mu         sync.Mutex
	state      State
	identity   *domain.Identity
	creds      domain.Credentials
	generation uint64
}

func New(api authAPI, s store, logger *log.Logger) *Manager {
	return &Manager{
		api:    api,
		store:  s,
		logger: logger,
		hub:    watch.NewHub[Snapshot](),
		state:  StateUnresolved,
	}
}

// Restore validates the persisted credential pair against the profile
// endpoint and leaves the session Authenticated or Anonymous. Any failure
// discards the stored pair. Only the first call does work; concurrent
// callers wait for it.
func (m *Manager) Restore(ctx context.Context) {
	m.restoreOnce.Do(func() {
		identity, creds := m.validateStored(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if identity != nil {
			m.state = StateAuthenticated
			m.identity = identity
			m.creds = creds
			m.logger.Printf("session: restored user %d", identity.ID)
		} else {
			m.state = StateAnonymous
		}
		m.hub.Publish(m.snapshot())
	})
}

func (m *Manager) validateStored(ctx context.Context) (*domain.Identity, domain.Credentials) {
	raw, err := m.store.Get(ctx, storage.KeyCredentials)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			m.logger.Printf("session: read credentials: %v", err)
			m.discardStored(ctx)
		}
		return nil, domain.Credentials{}
	}

	var creds domain.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil || !creds.Valid() {
		m.logger.Printf("session: discarding unusable stored credentials")
		m.discardStored(ctx)
		return nil, domain.Credentials{}
	}

	identity, err := m.api.Profile(ctx, creds.AccessToken)
	if err != nil {
		m.logger.Printf("session: stored credentials rejected: %v", err)
		m.discardStored(ctx)
		return nil, domain.Credentials{}
	}
	return identity, creds
}

func (m *Manager) discardStored(ctx context.Context) {
	if err := m.store.Delete(ctx, storage.KeyCredentials); err != nil {
		m.logger.Printf("session: delete credentials: %v", err)
	}
}

// Login exchanges email and password for a credential pair.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	gen, ok := m.issue()
	if !ok {
		return Result{Success: false, Message: msgLoading}
	}
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.Printf("session: login failed: %v", err)
		return Result{Success: false, Message: failureMessage(err, msgLoginFailed, "error", "detail")}
	}
	return m.authenticate(ctx, gen, resp, msgLoginOK)
}

// Register creates an account and signs it in. Field-level errors from the
// remote are preferred over its generic ones.
func (m *Manager) Register(ctx context.Context, in remote.RegisterInput) Result {
	gen, ok := m.issue()
	if !ok {
		return Result{Success: false, Message: msgLoading}
	}
	resp, err := m.api.Register(ctx, in)
	if err != nil {
		m.logger.Printf("session: register failed: %v", err)
		return Result{Success: false, Message: failureMessage(err, msgRegisterFailed,
			"email", "username", "password", "password2", "error", "detail")}
	}
	return m.authenticate(ctx, gen, resp, msgRegisterOK)
}

// issue starts a new generation for a remote call, refusing while Unresolved.
func (m *Manager) issue() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUnresolved {
		return 0, false
	}
	m.generation++
	return m.generation, true
}

func (m *Manager) authenticate(ctx context.Context, gen uint64, resp *remote.AuthResponse, okMsg string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		m.logger.Printf("session: dropping stale auth response")
		return Result{Success: false, Message: msgSuperseded}
	}

	creds := resp.Credentials()
	raw, err := json.Marshal(creds)
	if err == nil {
		err = m.store.Put(ctx, storage.KeyCredentials, raw)
	}
	if err != nil {
		// the session still works for this process; it just won't survive a restart
		m.logger.Printf("session: persist credentials: %v", err)
	}

	identity := resp.User
	m.state = StateAuthenticated
	m.identity = &identity
	m.creds = creds
	m.hub.Publish(m.snapshot())
	return Result{Success: true, Message: okMsg, Identity: copyIdentity(m.identity)}
}

// Logout clears the identity and the stored credentials. It is safe to call
// when already anonymous. Before Restore finishes it returns ErrUnresolved
// and changes nothing.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUnresolved {
		return ErrUnresolved
	}
	m.generation++
	m.clearLocked()
	if err := m.store.Delete(ctx, storage.KeyCredentials); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

// Invalidate drops the session if accessToken is still the current one. It
// is used when the remote rejects the token mid-session.
func (m *Manager) Invalidate(ctx context.Context, accessToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.creds.AccessToken != accessToken {
		return
	}
	m.logger.Printf("session: access token rejected, signing out")
	m.generation++
	m.clearLocked()
	if err := m.store.Delete(ctx, storage.KeyCredentials); err != nil {
		m.logger.Printf("session: delete credentials: %v", err)
	}
}

func (m *Manager) clearLocked() {
	m.state = StateAnonymous
	m.identity = nil
	m.creds = domain.Credentials{}
	m.hub.Publish(m.snapshot())
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity != nil
}

func (m *Manager) Identity() *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyIdentity(m.identity)
}

// AccessToken returns the current bearer token, empty when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds.AccessToken
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	return m.hub.Subscribe()
}

func (m *Manager) snapshot() Snapshot {
	return Snapshot{State: m.state, Identity: copyIdentity(m.identity)}
}

func copyIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	out := *id
	return &out
}

func failureMessage(err error, fallback string, fields ...string) string {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(fields...); msg != "" {
			return msg
		}
	}
	return fallback
}
