// Package store persists the current auth session in SQLite so a later
// process can restore it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pennypal/pennypal/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SessionStore is a single-slot SQLite session store.
type SessionStore struct {
	db *sql.DB
}

// Open opens or creates the session database at the given path.
func Open(dbPath string) (*SessionStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SessionStore{db: db}, nil
}

// Close closes the session database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// SaveSession replaces the stored session.
func (s *SessionStore) SaveSession(ctx context.Context, sess *model.Session) error {
	if sess == nil {
		return s.ClearSession(ctx)
	}

	expiresAt := ""
	if !sess.ExpiresAt.IsZero() {
		expiresAt = sess.ExpiresAt.UTC().Format(time.RFC3339)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO auth_session
		(slot, user_id, email, name, occupation, access_token, refresh_token,
		 token_type, expires_at, saved_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.User.ID, sess.User.Email, sess.User.Profile.Name, sess.User.Profile.Occupation,
		sess.AccessToken, sess.RefreshToken, sess.TokenType, expiresAt, now,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// LoadSession returns the stored session, or nil when none is stored.
func (s *SessionStore) LoadSession(ctx context.Context) (*model.Session, error) {
	var (
		sess                 model.Session
		name, occupation     sql.NullString
		tokenType, expiresAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT
		user_id, email, name, occupation, access_token, refresh_token, token_type, expires_at
		FROM auth_session WHERE slot = 1`).Scan(
		&sess.User.ID, &sess.User.Email, &name, &occupation,
		&sess.AccessToken, &sess.RefreshToken, &tokenType, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	sess.User.Profile.Name = name.String
	sess.User.Profile.Occupation = occupation.String
	sess.TokenType = tokenType.String
	if expiresAt.Valid && expiresAt.String != "" {
		sess.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt.String)
	}
	return &sess, nil
}

// ClearSession removes the stored session.
func (s *SessionStore) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM auth_session"); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
