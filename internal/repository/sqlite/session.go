package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sebav/tienda/internal/domain"
)

// SessionRepository implements domain.SessionRepository using SQLite.
// The session table holds at most one row.
type SessionRepository struct {
	db *sql.DB
}

func (r *SessionRepository) Save(ctx context.Context, email string, loginTime time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session (id, email, login_time) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET email = excluded.email, login_time = excluded.login_time`,
		email, loginTime.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context) (*domain.Session, error) {
	var email, loginTime string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, login_time FROM session WHERE id = 1`).Scan(&email, &loginTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, loginTime)
	if err != nil {
		// A marker we cannot deserialize counts as no session at all.
		return nil, domain.ErrNotFound
	}
	return &domain.Session{Email: email, LoginTime: t}, nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
