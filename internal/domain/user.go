package domain

import (
	"context"
	"time"
)

// User represents a locally registered account. Passwords are stored as
// given: credential validation is exact string equality, matching the
// demo's persisted shape. Do not reuse this outside a local demo.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
}

// UserStats summarizes the account collection.
type UserStats struct {
	TotalUsers     int
	LastRegistered *time.Time
}

// UserRepository defines persistence operations for accounts.
// Email is the natural key for lookups; lookup misses return ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	All(ctx context.Context) ([]User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateName(ctx context.Context, email, name string) (bool, error)
	Delete(ctx context.Context, email string) (bool, error)
	DeleteAll(ctx context.Context) error
	Stats(ctx context.Context) (UserStats, error)
}
