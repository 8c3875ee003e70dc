package model

import "time"

// Profile is the metadata attached to an identity at sign-up.
type Profile struct {
	Name       string `json:"name,omitempty"`
	Occupation string `json:"occupation,omitempty"`
}

// User is the identity the provider returns.
type User struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Profile Profile `json:"user_metadata"`
}

// Session is an authenticated session. A held *Session is never mutated;
// every change publishes a new value.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// UserID returns the identity id, or "" for a nil session.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.User.ID
}

// ExpiresWithin reports whether the access token expires before now+d.
// A zero ExpiresAt never expires.
func (s *Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(d).Before(s.ExpiresAt)
}

// DisplayName prefers the profile name and falls back to the email.
func (s *Session) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.User.Profile.Name != "" {
		return s.User.Profile.Name
	}
	return s.User.Email
}

// UserRecord is the row written to the users table after sign-up.
type UserRecord struct {
	AuthID     string `json:"auth_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Occupation string `json:"occupation"`
}

// NewUserRecord builds the profile row for a freshly created identity.
func NewUserRecord(u User) UserRecord {
	return UserRecord{
		AuthID:     u.ID,
		Name:       u.Profile.Name,
		Email:      u.Email,
		Occupation: u.Profile.Occupation,
	}
}
