package records

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/pressly/goose/v3"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/records/migrations"
)

// DBTX is the subset of database/sql used by Postgres. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres is a Store that talks to the database directly.
type Postgres struct {
	db DBTX
}

// NewPostgres returns a Store over db, typically the *sql.DB from
// OpenPostgres.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres opens a pgx-backed *sql.DB and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("records: opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("records: connecting to database: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("records: setting dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("records: migrating: %w", err)
	}
	return nil
}

// InsertUser implements Store.
func (r *Postgres) InsertUser(ctx context.Context, rec model.UserRecord) error {
	query :=
		`INSERT INTO users (auth_id, name, email, occupation)
		 VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, rec.AuthID, rec.Name, rec.Email, rec.Occupation); err != nil {
		return dbError("insert user", err)
	}
	return nil
}

// InsertPayment implements Store.
func (r *Postgres) InsertPayment(ctx context.Context, p model.Payment) (model.Payment, error) {
	query :=
		`INSERT INTO payments (payment_name, category, amount, frequency, payment_method,
		                       due_date, autopay, auth_id, status, auto_payment_enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Category, p.Amount, p.Frequency, p.Method,
		p.DueDate, p.Autopay, p.AuthID, p.Status, p.AutoPaymentEnabled,
	).Scan(&id)
	if err != nil {
		return model.Payment{}, dbError("insert payment", err)
	}

	p.ID = model.FlexID(fmt.Sprint(id))
	return p, nil
}

// ListAutopayPayments implements Store.
func (r *Postgres) ListAutopayPayments(ctx context.Context, userID string) ([]model.Payment, error) {
	query :=
		`SELECT id, payment_name, category, amount, frequency, payment_method,
		        due_date, autopay, auth_id, status, auto_payment_enabled
		 FROM payments
		 WHERE auth_id = $1 AND autopay = TRUE
		 ORDER BY due_date`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbError("list payments", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Payment
	for rows.Next() {
		var (
			p  model.Payment
			id int64
		)
		if err := rows.Scan(&id, &p.Name, &p.Category, &p.Amount, &p.Frequency, &p.Method,
			&p.DueDate, &p.Autopay, &p.AuthID, &p.Status, &p.AutoPaymentEnabled); err != nil {
			return nil, dbError("list payments", err)
		}
		p.ID = model.FlexID(fmt.Sprint(id))
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list payments", err)
	}
	return out, nil
}

// dbError classifies err. Lost connections and timeouts are network
// failures; everything else is reported by the database itself.
func dbError(op string, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne):
		return &apperr.NetworkError{Op: op, Err: err}
	}
	return &apperr.ServerError{Op: op, Message: "db error: " + err.Error()}
}

