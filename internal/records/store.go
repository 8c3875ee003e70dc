// Package records reads and writes the users and payments tables, either
// through the provider's REST endpoint or directly over Postgres.
package records

import (
	"context"

	"github.com/pennypal/pennypal/internal/model"
)

// Store is the record store used by sign-up and the payment views.
type Store interface {
	// InsertUser writes the profile row for a new identity.
	InsertUser(ctx context.Context, rec model.UserRecord) error
	// InsertPayment writes a payment and returns the stored row.
	InsertPayment(ctx context.Context, p model.Payment) (model.Payment, error)
	// ListAutopayPayments returns userID's payments with autopay set.
	ListAutopayPayments(ctx context.Context, userID string) ([]model.Payment, error)
}

// TokenSource returns the bearer token for the current session, or ""
// when signed out.
type TokenSource func() string

type tokenKey struct{}

// WithToken returns a context whose requests authenticate with token,
// overriding the store's TokenSource. Sign-up uses it to write the
// profile row before the new session is published.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}
