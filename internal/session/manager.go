// Package session owns the authenticated session: sign-up, sign-in,
// sign-out, restoration, token refresh, and publication of every change
// to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/authprovider"
	"github.com/pennypal/pennypal/internal/logging"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/records"
)

// EventType names a session change.
type EventType string

const (
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is delivered to listeners on every session change. Session is
// nil when signed out.
type Event struct {
	Seq     int64
	Type    EventType
	At      time.Time
	Session *model.Session
}

// Listener receives events in publication order. A listener must not
// call Manager methods that publish.
type Listener func(Event)

// Provider is the identity provider.
type Provider interface {
	SignUp(ctx context.Context, email, password string, profile model.Profile) (*authprovider.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*model.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// ProfileWriter writes the users row after sign-up.
type ProfileWriter interface {
	InsertUser(ctx context.Context, rec model.UserRecord) error
}

// Persister keeps the session across processes.
type Persister interface {
	SaveSession(ctx context.Context, s *model.Session) error
	LoadSession(ctx context.Context) (*model.Session, error)
	ClearSession(ctx context.Context) error
}

// ErrNoPendingSignUp is returned by RetryProfile when no partial sign-up exists.
var ErrNoPendingSignUp = errors.New("session: no sign-up awaiting its profile")

const (
	defaultRefreshMargin = time.Minute
	defaultRetryDelay    = 30 * time.Second
	historySize          = 20
)

// Manager holds the current session. Create one per process with New.
type Manager struct {
	provider Provider
	profiles ProfileWriter
	store    Persister
	log      logging.Logger

	now           func() time.Time
	refreshMargin time.Duration
	retryDelay    time.Duration

	// pubMu serializes state change plus delivery so listeners observe
	// changes in the order they happened.
	pubMu sync.Mutex

	mu        sync.RWMutex
	session   *model.Session
	pending   *authprovider.SignUpResult
	seq       int64
	history   []Event
	nextSubID int
	subs      map[int]Listener
	changed   chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRefreshMargin sets how long before expiry a token is refreshed.
func WithRefreshMargin(d time.Duration) Option {
	return func(m *Manager) { m.refreshMargin = d }
}

// WithRetryDelay sets the wait after a refresh fails on the network.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) { m.retryDelay = d }
}

// New returns a Manager. store may be nil to disable persistence.
func New(provider Provider, profiles ProfileWriter, store Persister, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		provider:      provider,
		profiles:      profiles,
		store:         store,
		log:           log.With("component", "session"),
		now:           time.Now,
		refreshMargin: defaultRefreshMargin,
		retryDelay:    defaultRetryDelay,
		subs:          make(map[int]Listener),
		changed:       make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Current returns the held session, or nil.
func (m *Manager) Current() *model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// AccessToken returns the held access token, or "".
func (m *Manager) AccessToken() string {
	if s := m.Current(); s != nil {
		return s.AccessToken
	}
	return ""
}

// Subscribe registers l and returns its unsubscribe func. Unsubscribing
// twice is a no-op.
func (m *Manager) Subscribe(l Listener) (unsubscribe func()) {
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.subs[id] = l
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Close drops every listener.
func (m *Manager) Close() {
	m.mu.Lock()
	m.subs = make(map[int]Listener)
	m.mu.Unlock()
}

// History returns the most recent events, oldest first.
func (m *Manager) History() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.history))
	copy(out, m.history)
	return out
}

// SignUp creates an identity and writes its profile row. The session is
// published only after the row is written. If the write fails the
// identity stays, the error is a *apperr.ProfileWriteError and
// RetryProfile can finish the job. A nil session with a nil error means
// the provider is waiting for email confirmation.
func (m *Manager) SignUp(ctx context.Context, email, password, name, occupation string) (*model.Session, error) {
	res, err := m.provider.SignUp(ctx, email, password, model.Profile{Name: name, Occupation: occupation})
	if err != nil {
		m.log.Warn(ctx, "sign up rejected", "email", email, "kind", apperr.KindOf(err).String())
		return nil, err
	}
	return m.completeSignUp(ctx, res)
}

// RetryProfile repeats the profile write of the last partial sign-up.
func (m *Manager) RetryProfile(ctx context.Context) (*model.Session, error) {
	m.mu.RLock()
	res := m.pending
	m.mu.RUnlock()
	if res == nil {
		return nil, ErrNoPendingSignUp
	}
	return m.completeSignUp(ctx, res)
}

// PendingProfile returns the user id of a partial sign-up, or "".
func (m *Manager) PendingProfile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pending == nil {
		return ""
	}
	return m.pending.User.ID
}

func (m *Manager) completeSignUp(ctx context.Context, res *authprovider.SignUpResult) (*model.Session, error) {
	writeCtx := ctx
	if res.Session != nil {
		writeCtx = records.WithToken(ctx, res.Session.AccessToken)
	}

	if err := m.profiles.InsertUser(writeCtx, model.NewUserRecord(res.User)); err != nil {
		m.mu.Lock()
		m.pending = res
		m.mu.Unlock()
		m.log.Error(ctx, "profile write failed after sign up", "user_id", res.User.ID, "err", err)
		return nil, &apperr.ProfileWriteError{UserID: res.User.ID, Err: err}
	}

	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()

	if res.Session == nil {
		m.log.Info(ctx, "sign up awaiting email confirmation", "user_id", res.User.ID)
		return nil, nil
	}
	m.log.Info(ctx, "signed up", "user_id", res.User.ID)
	m.publish(ctx, EventSignedIn, res.Session)
	return res.Session, nil
}

// SignIn authenticates with a password. On failure the held session is
// left untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	s, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.log.Warn(ctx, "sign in failed", "email", email, "kind", apperr.KindOf(err).String())
		return nil, err
	}
	m.log.Info(ctx, "signed in", "user_id", s.User.ID)
	m.publish(ctx, EventSignedIn, s)
	return s, nil
}

// SignOut revokes the session with the provider and clears it locally.
// The local session is cleared even when the provider call fails; that
// failure is logged and returned.
func (m *Manager) SignOut(ctx context.Context) error {
	cur := m.Current()
	if cur == nil {
		return nil
	}

	err := m.provider.SignOut(ctx, cur.AccessToken)
	m.publish(ctx, EventSignedOut, nil)
	if err != nil {
		m.log.Warn(ctx, "provider sign out failed, local session cleared", "user_id", cur.User.ID, "err", err)
		return fmt.Errorf("session: sign out: %w", err)
	}
	m.log.Info(ctx, "signed out", "user_id", cur.User.ID)
	return nil
}

// Restore loads the persisted session once, refreshing it if it is about
// to expire, and publishes INITIAL_SESSION with the result.
func (m *Manager) Restore(ctx context.Context) (*model.Session, error) {
	var stored *model.Session
	if m.store != nil {
		s, err := m.store.LoadSession(ctx)
		if err != nil {
			m.log.Warn(ctx, "could not load stored session", "err", err)
		}
		stored = s
	}

	if stored != nil && stored.ExpiresWithin(m.now(), m.refreshMargin) {
		fresh, err := m.provider.Refresh(ctx, stored.RefreshToken)
		switch {
		case err == nil:
			stored = fresh
		case apperr.KindOf(err) == apperr.KindAuth:
			m.log.Info(ctx, "stored session no longer valid", "user_id", stored.User.ID)
			stored = nil
		default:
			// Keep it; Run retries the refresh.
			m.log.Warn(ctx, "refresh on restore failed", "err", err)
		}
	}

	m.publish(ctx, EventInitialSession, stored)
	return stored, nil
}

// Run refreshes the token ahead of expiry until ctx is done, publishing
// TOKEN_REFRESHED, or SIGNED_OUT when the provider refuses the refresh.
func (m *Manager) Run(ctx context.Context) error {
	for !m.step(ctx) {
	}
	return nil
}

// step waits for the next refresh deadline or session change. It
// reports true once ctx is done.
func (m *Manager) step(ctx context.Context) bool {
	cur := m.Current()

	var wait <-chan time.Time
	if cur != nil && !cur.ExpiresAt.IsZero() {
		d := cur.ExpiresAt.Sub(m.now()) - m.refreshMargin
		if d < 0 {
			d = 0
		}
		t := time.NewTimer(d)
		defer t.Stop()
		wait = t.C
	}

	select {
	case <-ctx.Done():
		return true
	case <-m.changed:
		return false
	case <-wait:
	}

	if m.refresh(ctx, cur) {
		return false
	}

	retry := time.NewTimer(m.retryDelay)
	defer retry.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-m.changed:
	case <-retry.C:
	}
	return false
}

// refresh exchanges cur's refresh token. It reports false when the
// attempt should be retried later.
func (m *Manager) refresh(ctx context.Context, cur *model.Session) bool {
	fresh, err := m.provider.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuth {
			m.log.Warn(ctx, "refresh refused, signing out", "user_id", cur.User.ID, "err", err)
			m.publishIf(ctx, cur, EventSignedOut, nil)
			return true
		}
		m.log.Warn(ctx, "refresh failed, will retry", "err", err)
		return false
	}
	m.log.Debug(ctx, "token refreshed", "user_id", fresh.User.ID, "expires_at", fresh.ExpiresAt)
	m.publishIf(ctx, cur, EventTokenRefreshed, fresh)
	return true
}

func (m *Manager) publish(ctx context.Context, typ EventType, s *model.Session) {
	m.publishIf(ctx, nil, typ, s)
}

// publishIf replaces the session and delivers the event. When expect is
// non-nil the change is dropped unless expect is still the held session,
// so a refresh never resurrects a session replaced in the meantime.
func (m *Manager) publishIf(ctx context.Context, expect *model.Session, typ EventType, s *model.Session) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	if expect != nil && m.session != expect {
		m.mu.Unlock()
		return
	}
	m.session = s
	m.seq++
	ev := Event{Seq: m.seq, Type: typ, At: m.now(), Session: s}
	m.history = append(m.history, ev)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
	listeners := make([]Listener, 0, len(m.subs))
	for _, l := range m.subs {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	select {
	case m.changed <- struct{}{}:
	default:
	}

	m.persist(ctx, s)

	for _, l := range listeners {
		l(ev)
	}
}

func (m *Manager) persist(ctx context.Context, s *model.Session) {
	if m.store == nil {
		return
	}
	var err error
	if s == nil {
		err = m.store.ClearSession(ctx)
	} else {
		err = m.store.SaveSession(ctx, s)
	}
	if err != nil {
		m.log.Warn(ctx, "persisting session failed", "err", err)
	}
}
