package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/model"
)

// fakeTable is an in-memory payments table speaking enough PostgREST
// for the round-trip tests.
type fakeTable struct {
	mu       sync.Mutex
	payments []model.Payment
	users    []model.UserRecord
	auth     []string
}

func (f *fakeTable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/users":
		var rec model.UserRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		f.users = append(f.users, rec)
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/payments":
		var p model.Payment
		_ = json.NewDecoder(r.Body).Decode(&p)
		p.ID = model.FlexID(strconv.Itoa(len(f.payments) + 1))
		f.payments = append(f.payments, p)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]model.Payment{p})
	case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/payments":
		authID := r.URL.Query().Get("auth_id")
		autopay := r.URL.Query().Get("autopay")
		out := []model.Payment{}
		for _, p := range f.payments {
			if "eq."+p.AuthID != authID {
				continue
			}
			if autopay == "is.true" && !p.Autopay {
				continue
			}
			out = append(out, p)
		}
		_ = json.NewEncoder(w).Encode(out)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newRESTStore(t *testing.T, h http.Handler, tokens TokenSource) *REST {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s, err := NewREST(srv.URL, "anon", tokens, time.Second)
	require.NoError(t, err)
	return s
}

func payment(name string, autopay bool) model.Payment {
	p, err := model.PaymentForm{Name: name, Amount: "800", Category: "utilities", DueDate: "2024-07-10", Autopay: autopay}.ToPayment("U1")
	if err != nil {
		panic(err)
	}
	return p
}

func TestAutopayRoundTrip(t *testing.T) {
	table := &fakeTable{}
	s := newRESTStore(t, table, func() string { return "user-token" })
	ctx := context.Background()

	stored, err := s.InsertPayment(ctx, payment("Internet Bill", true))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	_, err = s.InsertPayment(ctx, payment("Gym", false))
	require.NoError(t, err)

	got, err := s.ListAutopayPayments(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Internet Bill", got[0].Name)
	assert.True(t, got[0].Active())

	other, err := s.ListAutopayPayments(ctx, "U2")
	require.NoError(t, err)
	assert.Empty(t, other)

	for _, a := range table.auth {
		assert.Equal(t, "Bearer user-token", a)
	}
}

func TestInsertUserFallsBackToAnonKey(t *testing.T) {
	table := &fakeTable{}
	s := newRESTStore(t, table, func() string { return "" })

	rec := model.UserRecord{AuthID: "U1", Name: "Asha", Email: "a@b.c", Occupation: "Engineer"}
	require.NoError(t, s.InsertUser(context.Background(), rec))
	assert.Equal(t, []model.UserRecord{rec}, table.users)
	assert.Equal(t, []string{"Bearer anon"}, table.auth)
}

func TestRESTErrorMapping(t *testing.T) {
	s := newRESTStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value","details":"Key (auth_id)=(U1) already exists."}`))
	}), nil)

	err := s.InsertUser(context.Background(), model.UserRecord{AuthID: "U1"})
	var se *apperr.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Contains(t, se.Message, "duplicate key value")
}

func TestRESTMalformedList(t *testing.T) {
	s := newRESTStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}), nil)

	_, err := s.ListAutopayPayments(context.Background(), "U1")
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
}

func TestNewRESTRequiresConfig(t *testing.T) {
	_, err := NewREST("", "anon", nil, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestContextTokenOverridesSource(t *testing.T) {
	table := &fakeTable{}
	s := newRESTStore(t, table, func() string { return "held" })

	ctx := WithToken(context.Background(), "fresh-signup")
	require.NoError(t, s.InsertUser(ctx, model.UserRecord{AuthID: "U1"}))
	assert.Equal(t, []string{"Bearer fresh-signup"}, table.auth)
}
