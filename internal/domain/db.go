package domain

import "context"

// Database is the storage port. Two interchangeable backends exist
// (embedded SQLite and a flat JSON state file); the services depend only
// on this interface and the repositories it hands out, never on a
// concrete backend.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error

	Users() UserRepository
	Sessions() SessionRepository
	Settings() SettingsRepository
	Products() ProductRepository
}
