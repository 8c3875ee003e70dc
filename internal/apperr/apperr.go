// Package apperr defines the failure taxonomy shared by the session layer,
// the data gateway and the views. Presentation code switches on Kind and
// never inspects message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for display.
type Kind int

const (
	KindNone Kind = iota
	KindAuth
	KindProfileWrite
	KindNetwork
	KindServer
	KindValidation
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindProfileWrite:
		return "profile_write"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// ErrNotSignedIn is returned by operations that need a session when none is held.
var ErrNotSignedIn = errors.New("you must be logged in")

// AuthError is a rejection by the identity provider: bad credentials,
// duplicate email, weak password, or a refused refresh token.
type AuthError struct {
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProfileWriteError means the identity was created but the profile row
// was not written. The identity is not rolled back.
type ProfileWriteError struct {
	UserID string
	Err    error
}

func (e *ProfileWriteError) Error() string {
	return fmt.Sprintf("account %s created but profile was not saved: %v", e.UserID, e.Err)
}

func (e *ProfileWriteError) Unwrap() error { return e.Err }

// NetworkError is a transport failure or a timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response or a body that could not be parsed.
// Status is zero for malformed bodies on a 2xx response.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Message)
}

// ValidationError is a locally rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation is shorthand for a field-less ValidationError.
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// KindOf classifies err. ProfileWriteError wins over whatever it wraps.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		pw *ProfileWriteError
		ae *AuthError
		ne *NetworkError
		se *ServerError
		ve *ValidationError
	)
	switch {
	case errors.As(err, &pw):
		return KindProfileWrite
	case errors.Is(err, ErrNotSignedIn), errors.As(err, &ae):
		return KindAuth
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ne):
		return KindNetwork
	case errors.As(err, &se):
		return KindServer
	default:
		return KindUnknown
	}
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotSignedIn) {
		return "You must be logged in to do that."
	}
	var (
		pw *ProfileWriteError
		ae *AuthError
		ve *ValidationError
		se *ServerError
	)
	switch {
	case errors.As(err, &pw):
		return "Your account was created but your profile could not be saved. Press R to retry."
	case errors.As(err, &ae):
		return ae.Error()
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &se):
		if se.Message != "" && se.Status != 0 {
			return fmt.Sprintf("Server error (%d): %s", se.Status, se.Message)
		}
		return "The server returned an unexpected response."
	}
	switch KindOf(err) {
	case KindNetwork:
		return "Could not reach the server. Check your connection and try again."
	default:
		return err.Error()
	}
}
