package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/authprovider"
	"github.com/pennypal/pennypal/internal/logging"
	"github.com/pennypal/pennypal/internal/model"
)

type fakeProvider struct {
	mu sync.Mutex

	signUpRes  *authprovider.SignUpResult
	signUpErr  error
	signInErr  error
	refreshRes *model.Session
	refreshErr error
	signOutErr error

	refreshCalls []string
	signOutCalls []string
}

func (f *fakeProvider) SignUp(_ context.Context, email, _ string, profile model.Profile) (*authprovider.SignUpResult, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.signUpRes, nil
}

func (f *fakeProvider) SignInWithPassword(_ context.Context, email, _ string) (*model.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return newSession("id-"+email, time.Time{}), nil
}

func (f *fakeProvider) Refresh(_ context.Context, refreshToken string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls = append(f.refreshCalls, refreshToken)
	return f.refreshRes, f.refreshErr
}

func (f *fakeProvider) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls = append(f.signOutCalls, accessToken)
	return f.signOutErr
}

type fakeProfiles struct {
	mu   sync.Mutex
	err  error
	rows []model.UserRecord
}

func (f *fakeProfiles) InsertUser(_ context.Context, rec model.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rec)
	return nil
}

type memStore struct {
	mu      sync.Mutex
	session *model.Session
	saves   int
	clears  int
}

func (s *memStore) SaveSession(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	s.saves++
	return nil
}

func (s *memStore) LoadSession(context.Context) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, nil
}

func (s *memStore) ClearSession(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.clears++
	return nil
}

func newSession(id string, exp time.Time) *model.Session {
	return &model.Session{
		AccessToken:  "at-" + id,
		RefreshToken: "rt-" + id,
		ExpiresAt:    exp,
		User:         model.User{ID: id, Email: id + "@example.com"},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 64)}
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return Event{}
	}
}

func newManager(p *fakeProvider, prof *fakeProfiles, st *memStore, opts ...Option) *Manager {
	if prof == nil {
		prof = &fakeProfiles{}
	}
	var persister Persister
	if st != nil {
		persister = st
	}
	return New(p, prof, persister, logging.Discard(), opts...)
}

func TestSignInPublishesAndPersists(t *testing.T) {
	st := &memStore{}
	m := newManager(&fakeProvider{}, nil, st)
	rec := newRecorder()
	m.Subscribe(rec.listen)

	s, err := m.SignIn(context.Background(), "asha", "pw")
	require.NoError(t, err)

	ev := rec.next(t)
	assert.Equal(t, EventSignedIn, ev.Type)
	assert.Same(t, s, ev.Session)
	assert.Same(t, s, m.Current())
	assert.Equal(t, "at-id-asha", m.AccessToken())
	assert.Same(t, s, st.session)
}

func TestSignInFailureKeepsSession(t *testing.T) {
	p := &fakeProvider{}
	m := newManager(p, nil, nil)
	prev, err := m.SignIn(context.Background(), "first", "pw")
	require.NoError(t, err)

	rec := newRecorder()
	m.Subscribe(rec.listen)
	p.signInErr = &apperr.AuthError{Message: "Invalid login credentials"}

	_, err = m.SignIn(context.Background(), "first", "wrong")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.Same(t, prev, m.Current())
	assert.Empty(t, rec.all())
}

func TestSignUpWritesProfileThenPublishes(t *testing.T) {
	sess := newSession("U9", time.Time{})
	sess.User.Profile = model.Profile{Name: "Ravi", Occupation: "Student"}
	p := &fakeProvider{signUpRes: &authprovider.SignUpResult{User: sess.User, Session: sess}}
	prof := &fakeProfiles{}
	m := newManager(p, prof, nil)
	rec := newRecorder()
	m.Subscribe(rec.listen)

	got, err := m.SignUp(context.Background(), "U9@example.com", "pw", "Ravi", "Student")
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, []model.UserRecord{{AuthID: "U9", Name: "Ravi", Email: "U9@example.com", Occupation: "Student"}}, prof.rows)
	assert.Equal(t, EventSignedIn, rec.next(t).Type)
}

func TestSignUpPartialFailure(t *testing.T) {
	sess := newSession("U9", time.Time{})
	p := &fakeProvider{signUpRes: &authprovider.SignUpResult{User: sess.User, Session: sess}}
	prof := &fakeProfiles{err: errors.New("users insert refused")}
	m := newManager(p, prof, nil)
	rec := newRecorder()
	m.Subscribe(rec.listen)

	_, err := m.SignUp(context.Background(), "U9@example.com", "pw", "Ravi", "Student")
	require.Error(t, err)
	assert.Equal(t, apperr.KindProfileWrite, apperr.KindOf(err))

	var pw *apperr.ProfileWriteError
	require.ErrorAs(t, err, &pw)
	assert.Equal(t, "U9", pw.UserID)
	assert.Nil(t, m.Current())
	assert.Empty(t, rec.all())
	assert.Equal(t, "U9", m.PendingProfile())

	prof.err = nil
	got, err := m.RetryProfile(context.Background())
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, "", m.PendingProfile())
	assert.Equal(t, EventSignedIn, rec.next(t).Type)

	_, err = m.RetryProfile(context.Background())
	assert.ErrorIs(t, err, ErrNoPendingSignUp)
}

func TestSignUpRejectedByProvider(t *testing.T) {
	p := &fakeProvider{signUpErr: &apperr.AuthError{Message: "User already registered"}}
	prof := &fakeProfiles{}
	m := newManager(p, prof, nil)

	_, err := m.SignUp(context.Background(), "dup@example.com", "pw", "", "")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.Empty(t, prof.rows)
}

func TestSignUpAwaitingConfirmation(t *testing.T) {
	p := &fakeProvider{signUpRes: &authprovider.SignUpResult{User: model.User{ID: "U3", Email: "c@example.com"}}}
	prof := &fakeProfiles{}
	m := newManager(p, prof, nil)
	rec := newRecorder()
	m.Subscribe(rec.listen)

	got, err := m.SignUp(context.Background(), "c@example.com", "pw", "C", "Chef")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Len(t, prof.rows, 1)
	assert.Empty(t, rec.all())
}

func TestSignOutClearsEvenOnProviderError(t *testing.T) {
	st := &memStore{}
	p := &fakeProvider{signOutErr: &apperr.NetworkError{Op: "sign out", Err: errors.New("offline")}}
	m := newManager(p, nil, st)
	_, err := m.SignIn(context.Background(), "asha", "pw")
	require.NoError(t, err)

	rec := newRecorder()
	m.Subscribe(rec.listen)

	err = m.SignOut(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
	assert.Nil(t, m.Current())
	assert.Nil(t, st.session)
	assert.Equal(t, []string{"at-id-asha"}, p.signOutCalls)

	ev := rec.next(t)
	assert.Equal(t, EventSignedOut, ev.Type)
	assert.Nil(t, ev.Session)
}

func TestSignOutWithoutSessionIsNoop(t *testing.T) {
	p := &fakeProvider{}
	m := newManager(p, nil, nil)
	require.NoError(t, m.SignOut(context.Background()))
	assert.Empty(t, p.signOutCalls)
}

func TestRestore(t *testing.T) {
	now := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("empty", func(t *testing.T) {
		m := newManager(&fakeProvider{}, nil, &memStore{}, WithClock(clock))
		rec := newRecorder()
		m.Subscribe(rec.listen)

		got, err := m.Restore(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
		ev := rec.next(t)
		assert.Equal(t, EventInitialSession, ev.Type)
		assert.Nil(t, ev.Session)
	})

	t.Run("valid", func(t *testing.T) {
		stored := newSession("U1", now.Add(time.Hour))
		p := &fakeProvider{}
		m := newManager(p, nil, &memStore{session: stored}, WithClock(clock))

		got, err := m.Restore(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "U1", got.User.ID)
		assert.Empty(t, p.refreshCalls)
	})

	t.Run("expired is refreshed", func(t *testing.T) {
		stored := newSession("U1", now.Add(-time.Minute))
		fresh := newSession("U1", now.Add(time.Hour))
		p := &fakeProvider{refreshRes: fresh}
		m := newManager(p, nil, &memStore{session: stored}, WithClock(clock))

		got, err := m.Restore(context.Background())
		require.NoError(t, err)
		assert.Same(t, fresh, got)
		assert.Equal(t, []string{"rt-U1"}, p.refreshCalls)
	})

	t.Run("refused refresh drops session", func(t *testing.T) {
		st := &memStore{session: newSession("U1", now.Add(-time.Minute))}
		p := &fakeProvider{refreshErr: &apperr.AuthError{Message: "Invalid Refresh Token"}}
		m := newManager(p, nil, st, WithClock(clock))

		got, err := m.Restore(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Nil(t, st.session)
	})
}

func TestLastWriteWins(t *testing.T) {
	m := newManager(&fakeProvider{}, nil, nil)

	var (
		mu   sync.Mutex
		last Event
		seqs []int64
	)
	m.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		last = ev
		seqs = append(seqs, ev.Seq)
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				_ = m.SignOut(context.Background())
				return
			}
			_, _ = m.SignIn(context.Background(), fmt.Sprintf("user%d", i), "pw")
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, m.Current(), last.Session)
	for i := 1; i < len(seqs); i++ {
		assert.Less(t, seqs[i-1], seqs[i])
	}
}

func TestUnsubscribe(t *testing.T) {
	m := newManager(&fakeProvider{}, nil, nil)
	rec := newRecorder()
	unsub := m.Subscribe(rec.listen)

	_, _ = m.SignIn(context.Background(), "a", "pw")
	unsub()
	unsub()
	_, _ = m.SignIn(context.Background(), "b", "pw")

	assert.Len(t, rec.all(), 1)

	rec2 := newRecorder()
	m.Subscribe(rec2.listen)
	m.Close()
	_, _ = m.SignIn(context.Background(), "c", "pw")
	assert.Empty(t, rec2.all())
}

func TestHistoryIsBounded(t *testing.T) {
	m := newManager(&fakeProvider{}, nil, nil)
	for i := 0; i < historySize+5; i++ {
		_, _ = m.SignIn(context.Background(), fmt.Sprintf("u%d", i), "pw")
	}
	h := m.History()
	require.Len(t, h, historySize)
	assert.Equal(t, int64(historySize+5), h[len(h)-1].Seq)
}

func TestRunRefreshesBeforeExpiry(t *testing.T) {
	now := time.Now()
	fresh := newSession("U1", now.Add(time.Hour))
	p := &fakeProvider{refreshRes: fresh}
	m := newManager(p, nil, nil, WithRefreshMargin(time.Minute))
	m.publish(context.Background(), EventSignedIn, newSession("U1", now.Add(30*time.Second)))

	rec := newRecorder()
	m.Subscribe(rec.listen)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()

	ev := rec.next(t)
	assert.Equal(t, EventTokenRefreshed, ev.Type)
	assert.Same(t, fresh, m.Current())

	cancel()
	<-done
}

func TestRunSignsOutWhenRefreshRefused(t *testing.T) {
	now := time.Now()
	p := &fakeProvider{refreshErr: &apperr.AuthError{Message: "refresh token revoked"}}
	m := newManager(p, nil, nil, WithRefreshMargin(time.Minute))
	m.publish(context.Background(), EventSignedIn, newSession("U1", now.Add(10*time.Second)))

	rec := newRecorder()
	m.Subscribe(rec.listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	ev := rec.next(t)
	assert.Equal(t, EventSignedOut, ev.Type)
	assert.Nil(t, m.Current())
}

func TestRunRetriesAfterNetworkFailure(t *testing.T) {
	now := time.Now()
	p := &fakeProvider{refreshErr: &apperr.NetworkError{Op: "refresh", Err: errors.New("offline")}}
	m := newManager(p, nil, nil, WithRefreshMargin(time.Minute), WithRetryDelay(10*time.Millisecond))
	m.publish(context.Background(), EventSignedIn, newSession("U1", now.Add(10*time.Second)))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Greater(t, len(p.refreshCalls), 1)
	assert.NotNil(t, m.Current())
}
