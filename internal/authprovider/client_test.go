package authprovider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/model"
)

const testAnonKey = "anon-test-key"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/", testAnonKey, WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient("", "key")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewClient("http://x", " ")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSignInWithPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "asha@example.com", body["email"])
		assert.Equal(t, "hunter22", body["password"])

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "at",
			"refresh_token": "rt",
			"token_type":    "bearer",
			"expires_at":    1720612800,
			"user": map[string]any{
				"id":            "U1",
				"email":         "asha@example.com",
				"user_metadata": map[string]string{"name": "Asha", "occupation": "Engineer"},
			},
		})
	})

	sess, err := c.SignInWithPassword(context.Background(), "asha@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "at", sess.AccessToken)
	assert.Equal(t, "rt", sess.RefreshToken)
	assert.Equal(t, "U1", sess.User.ID)
	assert.Equal(t, "Asha", sess.User.Profile.Name)
	assert.Equal(t, time.Unix(1720612800, 0).UTC(), sess.ExpiresAt)
}

func TestSignInBadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
	})

	_, err := c.SignInWithPassword(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)

	var ae *apperr.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "invalid_grant", ae.Code)
	assert.Equal(t, "Invalid login credentials", ae.Message)
}

func TestSignUpWithSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	token := signedToken(t, "U9", exp)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		var body struct {
			Email string        `json:"email"`
			Data  model.Profile `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Student", body.Data.Occupation)

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  token,
			"refresh_token": "rt",
			"user":          map[string]any{"id": "U9", "email": body.Email},
		})
	})

	res, err := c.SignUp(context.Background(), "new@example.com", "pw123456", model.Profile{Name: "Ravi", Occupation: "Student"})
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "U9", res.User.ID)
	assert.Equal(t, exp, res.Session.ExpiresAt)
}

func TestSignUpPendingConfirmation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "U3", "email": "c@example.com"})
	})

	res, err := c.SignUp(context.Background(), "c@example.com", "pw123456", model.Profile{})
	require.NoError(t, err)
	assert.Nil(t, res.Session)
	assert.Equal(t, "U3", res.User.ID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":       422,
			"error_code": "user_already_exists",
			"msg":        "User already registered",
		})
	})

	_, err := c.SignUp(context.Background(), "dup@example.com", "pw123456", model.Profile{})
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.Equal(t, "User already registered", apperr.Message(err))
}

func TestRefreshUsesExpiresIn(t *testing.T) {
	now := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"refresh_token":"rt-old"}`, string(b))
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "not-a-jwt",
			"refresh_token": "rt-new",
			"expires_in":    3600,
			"user":          map[string]any{"id": "U1"},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, testAnonKey, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	sess, err := c.Refresh(context.Background(), "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "rt-new", sess.RefreshToken)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)
}

func TestSignOutSendsBearer(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.SignOut(context.Background(), "at-123"))
	assert.Equal(t, "Bearer at-123", gotAuth)
}

func TestGetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{"id": "U1", "email": "a@b.c", "user_metadata": map[string]string{"name": "A"}})
	})

	u, err := c.GetUser(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "A", u.Profile.Name)
}

func TestServerAndMalformedErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/user" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{not json"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetUser(context.Background(), "at")
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))

	err = c.SignOut(context.Background(), "at")
	var se *apperr.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, testAnonKey)
	require.NoError(t, err)
	_, err = c.SignInWithPassword(context.Background(), "a@b.c", "pw")
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
}

func TestParseClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	claims, err := ParseClaims(signedToken(t, "U1", exp))
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.Subject)
	assert.Equal(t, exp, claims.Expiry())

	_, err = ParseClaims("garbage")
	assert.Error(t, err)
}
