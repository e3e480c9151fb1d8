package domain

import (
	"context"
	"time"
)

// Session marks which account, if any, is currently logged in.
// At most one exists at a time; it is stored independently of the
// account collection.
type Session struct {
	Email     string
	LoginTime time.Time
}

// SessionRepository persists the single session marker.
type SessionRepository interface {
	Save(ctx context.Context, email string, loginTime time.Time) error
	Get(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}
