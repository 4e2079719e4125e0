package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/services"
	"github.com/desertthunder/festa/internal/shared"
)

// Authenticator performs the account calls the session depends on. [services.UserService] implements it.
type Authenticator interface {
	Login(ctx context.Context, id, pw string) (*models.TokenPair, error)
	Profile(ctx context.Context, accessToken string) (*models.Profile, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// State is a point-in-time copy of the session.
type State struct {
	AccessToken   string
	RefreshToken  string
	User          *models.Profile
	Authenticated bool
	Loading       bool
	Expiry        time.Time
}

// Options configures a [Manager].
type Options struct {
	Auth   Authenticator
	Store  Store // defaults to an empty [MemoryStore]
	Logger *log.Logger
}

// Manager is the single owner of authentication state.
type Manager struct {
	auth   Authenticator
	store  Store
	logger *log.Logger

	mu            sync.RWMutex
	token         oauth2.Token
	user          *models.Profile
	authenticated bool
	loading       bool
	epoch         uint64 // bumped by every login and logout

	refreshes singleflight.Group
	expired   atomic.Bool

	subsMu  sync.Mutex
	subs    map[int]chan State
	nextSub int
	hooks   []func()
}

// New creates a [Manager] and loads any tokens left in the store by a previous run.
func New(ctx context.Context, opts Options) (*Manager, error) {
	if opts.Auth == nil {
		return nil, fmt.Errorf("%w: session authenticator", shared.ErrMissingConfig)
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore("", "")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	tok, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	m := &Manager{
		auth:   opts.Auth,
		store:  opts.Store,
		logger: opts.Logger.WithPrefix("session"),
		subs:   map[int]chan State{},
	}
	if tok != nil {
		m.token = oauth2.Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, Expiry: expiryOf(tok.AccessToken)}
	}
	return m, nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

func (m *Manager) snapshot() State {
	s := State{
		AccessToken:   m.token.AccessToken,
		RefreshToken:  m.token.RefreshToken,
		Authenticated: m.authenticated,
		Loading:       m.loading,
		Expiry:        m.token.Expiry,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// Tokens returns the current access and refresh tokens. Empty means none is held.
func (m *Manager) Tokens() (access, refresh string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token.AccessToken, m.token.RefreshToken
}

// Login exchanges credentials for tokens and loads the profile.
//
// An unapproved account yields [shared.ErrAccountNotApproved] and nothing is stored. When the profile
// cannot be fetched the tokens are still kept and the returned profile is nil: the session holds
// credentials but is not authenticated until [Manager.Initialize] succeeds.
func (m *Manager) Login(ctx context.Context, id, pw string) (*models.Profile, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	pair, err := m.auth.Login(ctx, id, pw)
	if err != nil {
		return nil, err
	}

	profile, err := m.auth.Profile(ctx, pair.AccessToken)
	switch {
	case err != nil:
		m.logger.Warn("profile fetch failed after login, continuing without a profile", "id", id, "err", err)
		profile = nil
	case !profile.Role.Approved():
		m.logger.Warn("login refused for unapproved account", "id", id, "role", profile.Role)
		return nil, fmt.Errorf("%w: %s", shared.ErrAccountNotApproved, id)
	}

	tok := oauth2.Token{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, Expiry: expiryOf(pair.AccessToken)}

	m.mu.Lock()
	if err := m.store.Save(ctx, &tok); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	m.token = tok
	m.user = profile
	m.authenticated = profile != nil
	m.epoch++
	m.mu.Unlock()

	m.expired.Store(false)
	m.notify()
	m.logger.Info("logged in", "id", id, "profile", profile != nil)
	return profile, nil
}

// Initialize restores the session from the stored access token.
//
// A 401 while the refresh token is held triggers one refresh and a second attempt. Any other failure
// clears the session and returns an error wrapping [shared.ErrProfileFetch].
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.RLock()
	access, refresh, epoch := m.token.AccessToken, m.token.RefreshToken, m.epoch
	m.mu.RUnlock()

	if access == "" {
		return nil
	}

	m.setLoading(true)
	defer m.setLoading(false)

	profile, err := m.auth.Profile(ctx, access)
	if err != nil && services.StatusCode(err) == http.StatusUnauthorized && refresh != "" {
		m.logger.Debug("stored access token rejected, refreshing")
		if access, err = m.renew(ctx, access); err == nil {
			profile, err = m.auth.Profile(ctx, access)
		}
	}
	if err == nil && !profile.Role.Approved() {
		err = shared.ErrAccountNotApproved
	}

	if err != nil {
		if lerr := m.Logout(ctx); lerr != nil {
			m.logger.Error("failed to clear session", "err", lerr)
		}
		return fmt.Errorf("%w: %w", shared.ErrProfileFetch, err)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return shared.ErrSessionExpired
	}
	m.user = profile
	m.authenticated = true
	m.mu.Unlock()

	m.notify()
	return nil
}

// Logout clears the session and the store. It is idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.token = oauth2.Token{}
	m.user = nil
	m.authenticated = false
	m.epoch++
	err := m.store.Clear(ctx)
	m.mu.Unlock()

	m.notify()
	if err != nil {
		return fmt.Errorf("failed to clear session storage: %w", err)
	}
	return nil
}

// RefreshAccessToken mints a new access token from the refresh token and commits it.
//
// Concurrent callers share one refresh. A refresh that completes after a logout is discarded with
// [shared.ErrSessionExpired].
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	return m.renew(ctx, "")
}

// renew refreshes the access token. When stale is set and the held token already differs from it, another
// caller refreshed in the meantime and the held token is returned without a network call.
func (m *Manager) renew(ctx context.Context, stale string) (string, error) {
	m.mu.RLock()
	refresh := m.token.RefreshToken
	m.mu.RUnlock()

	if refresh == "" {
		return "", shared.ErrNoRefreshToken
	}

	ch := m.refreshes.DoChan(refresh, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx), refresh, stale)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func (m *Manager) refresh(ctx context.Context, refresh, stale string) (string, error) {
	m.mu.RLock()
	current, epoch := m.token.AccessToken, m.epoch
	m.mu.RUnlock()

	if stale != "" && current != "" && current != stale {
		return current, nil
	}

	access, err := m.auth.Refresh(ctx, refresh)
	if err != nil {
		m.logger.Warn("token refresh failed", "err", err)
		return "", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	m.mu.Lock()
	if m.epoch != epoch || m.token.RefreshToken != refresh {
		m.mu.Unlock()
		m.logger.Debug("discarding refresh that finished after logout")
		return "", shared.ErrSessionExpired
	}

	tok := m.token
	tok.AccessToken = access
	tok.Expiry = expiryOf(access)
	if err := m.store.Save(ctx, &tok); err != nil {
		m.mu.Unlock()
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	m.token = tok
	m.mu.Unlock()

	m.notify()
	m.logger.Debug("access token refreshed", "expiry", tok.Expiry)
	return access, nil
}

// OnExpired registers fn to run when the session is force-cleared after an unrecoverable 401.
//
// Hooks run on the goroutine of the failing request and must not block.
func (m *Manager) OnExpired(fn func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// expire clears the session and runs the expiry hooks. Only the first call after a login has any effect.
func (m *Manager) expire(ctx context.Context) {
	if !m.expired.CompareAndSwap(false, true) {
		return
	}

	m.logger.Warn("session expired, login required")
	if err := m.Logout(context.WithoutCancel(ctx)); err != nil {
		m.logger.Error("failed to clear expired session", "err", err)
	}

	m.subsMu.Lock()
	hooks := append([]func(){}, m.hooks...)
	m.subsMu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Subscribe returns a channel that receives the state after every change, and a function that ends the
// subscription. A slow reader only sees the latest state.
func (m *Manager) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsMu.Lock()
			defer m.subsMu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

func (m *Manager) notify() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if len(m.subs) == 0 {
		return
	}

	s := m.Snapshot()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
	m.notify()
}

// IsExpired reports whether err means the user has to log in again.
func IsExpired(err error) bool {
	return errors.Is(err, shared.ErrSessionExpired) || errors.Is(err, shared.ErrNoRefreshToken) || errors.Is(err, shared.ErrRefreshFailed)
}
