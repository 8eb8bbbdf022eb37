package session

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/tokenstore"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/metrics"
)

// Authenticator performs the backend side of login, registration and
// profile lookup.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Me(ctx context.Context) (*model.User, error)
}

// Manager owns the current session. Backend calls run unlocked; persisting
// and committing a transition happen under one mutex so transitions never
// interleave.
type Manager struct {
	store   tokenstore.Store
	auth    Authenticator
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	bootOnce sync.Once
	bootErr  error

	transition sync.Mutex

	mu           sync.RWMutex
	state        State
	transitioned bool

	subMu  sync.Mutex
	subs   map[int]Subscriber
	nextID int
}

type Option func(*Manager)

func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l.With("session")
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func NewManager(store tokenstore.Store, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		auth:   auth,
		logger: logger.Nop(),
		now:    time.Now,
		subs:   make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetAuthenticator replaces the backend used for login and profile calls.
func (m *Manager) SetAuthenticator(auth Authenticator) {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.auth = auth
}

func (m *Manager) authenticator() Authenticator {
	m.transition.Lock()
	defer m.transition.Unlock()
	return m.auth
}

// Bootstrap loads persisted credentials once per process. Later calls return
// the first result. If a transition already happened the store is not read.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.bootOnce.Do(func() {
		m.transition.Lock()
		defer m.transition.Unlock()

		if m.hasTransitioned() {
			return
		}

		creds, ok, err := m.store.Load(ctx)
		if err != nil {
			m.logger.Error(err, "failed to load stored credentials")
			m.bootErr = err
			m.commit(unauthenticated(), ReasonBootstrap)
			return
		}
		if !ok {
			m.commit(unauthenticated(), ReasonBootstrap)
			return
		}
		m.commit(authenticated(creds.Token, creds.User), ReasonBootstrap)
	})
	return m.bootErr
}

// Login authenticates against the backend, persists the credentials and
// moves to Authenticated. On any failure the state is unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	auth := m.authenticator()
	resp, err := auth.Login(ctx, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, resp, ReasonLogin)
}

// Register creates an account and signs in with the returned credentials.
func (m *Manager) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	auth := m.authenticator()
	resp, err := auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, resp, ReasonRegister)
}

func (m *Manager) establish(ctx context.Context, resp *model.AuthResponse, reason Reason) (*model.User, error) {
	if resp == nil || resp.Token == "" || resp.User == nil {
		return nil, errors.Decode("authentication response is missing token or user", nil)
	}

	m.transition.Lock()
	defer m.transition.Unlock()

	if err := m.store.Save(ctx, tokenstore.Credentials{Token: resp.Token, User: resp.User}); err != nil {
		m.logger.Error(err, "failed to persist credentials", "reason", string(reason))
		return nil, err
	}
	m.commit(authenticated(resp.Token, resp.User), reason)
	return resp.User.Clone(), nil
}

// Logout clears the stored credentials and moves to Unauthenticated. A
// storage failure is logged and does not stop the transition.
func (m *Manager) Logout(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error(err, "failed to clear stored credentials")
	}
	m.commit(unauthenticated(), ReasonLogout)
}

// Expire handles a token rejected by the backend. It signs out only if token
// is still the current one and reports whether it did.
func (m *Manager) Expire(ctx context.Context, token string) bool {
	m.transition.Lock()
	defer m.transition.Unlock()

	cur := m.snapshot()
	if !cur.Authenticated() || cur.Token != token {
		m.logger.Debug("ignoring rejection of a stale token")
		return false
	}

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error(err, "failed to clear stored credentials")
	}
	m.commit(unauthenticated(), ReasonExpired)
	m.logger.Info("session expired")
	return true
}

// RefreshProfile fetches the current profile and replaces the stored user.
// The result is dropped if the session changed while the call was in flight.
func (m *Manager) RefreshProfile(ctx context.Context) (*model.User, error) {
	before := m.Current()
	if !before.Authenticated() {
		return nil, errors.Validation("not signed in", nil)
	}

	user, err := m.authenticator().Me(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Decode("profile response is empty", nil)
	}

	m.transition.Lock()
	defer m.transition.Unlock()

	cur := m.snapshot()
	if !cur.Authenticated() || cur.Token != before.Token {
		return nil, errors.Validation("session changed during profile refresh", nil)
	}
	if err := m.store.Save(ctx, tokenstore.Credentials{Token: cur.Token, User: user}); err != nil {
		return nil, err
	}
	m.commit(authenticated(cur.Token, user), ReasonProfile)
	return user.Clone(), nil
}

// Current returns a copy of the session state.
func (m *Manager) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Token returns the bearer token, empty when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Authenticated()
}

// Subscribe registers fn for every later transition. fn runs synchronously
// on the goroutine that made the transition and must not start another one.
func (m *Manager) Subscribe(fn Subscriber) (unsubscribe func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			delete(m.subs, id)
		})
	}
}

func (m *Manager) snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) hasTransitioned() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transitioned
}

// commit must be called with m.transition held.
func (m *Manager) commit(next State, reason Reason) {
	m.mu.Lock()
	m.state = next
	m.transitioned = true
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionTransitions.WithLabelValues(next.Status.String(), string(reason)).Inc()
	}
	m.logger.Debug("session transition", "state", next.Status.String(), "reason", string(reason))

	m.subMu.Lock()
	subs := make([]Subscriber, 0, len(m.subs))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	m.subMu.Unlock()

	at := m.now()
	for _, fn := range subs {
		fn(Event{State: next.clone(), Reason: reason, At: at})
	}
}
