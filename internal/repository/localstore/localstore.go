// Package localstore implements the storage port over a single JSON state
// file, mirroring the browser local-storage variant of the demo. Every
// mutation rewrites the file; a missing or malformed file reads as an
// empty store, never an error.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sebav/tienda/internal/domain"
)

// Store is the file-backed storage port.
type Store struct {
	path string

	mu    sync.Mutex
	state state
}

type state struct {
	Users       []userRecord      `json:"users"`
	CurrentUser *sessionRecord    `json:"currentUser,omitempty"`
	Settings    map[string]string `json:"settings,omitempty"`
	Products    []domain.Product  `json:"products,omitempty"`
}

type userRecord struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type sessionRecord struct {
	Email     string `json:"email"`
	LoginTime string `json:"loginTime"`
}

// New creates a Store backed by the given file path. Call Migrate to load
// existing state before use.
func New(path string) *Store {
	return &Store{path: path}
}

// Migrate loads the state file. Missing or unreadable state starts empty.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		// Corrupt state is discarded rather than wedging startup.
		s.state = state{}
	}
	return nil
}

// Close flushes nothing; every mutation already persisted.
func (s *Store) Close() error {
	return nil
}

func (s *Store) Users() domain.UserRepository       { return &userRepo{s} }
func (s *Store) Sessions() domain.SessionRepository { return &sessionRepo{s} }
func (s *Store) Settings() domain.SettingsRepository {
	return &settingsRepo{s}
}
func (s *Store) Products() domain.ProductRepository { return &productRepo{s} }

// persist writes the state file atomically. Callers must hold s.mu.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Check-then-act, as the original: good enough for a single-user demo.
	for _, u := range r.s.state.Users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}

	r.s.state.Users = append(r.s.state.Users, userRecord{
		ID:        user.ID,
		Email:     user.Email,
		Password:  user.Password,
		Name:      user.Name,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	return r.s.persist()
}

func (r *userRepo) All(ctx context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]domain.User, 0, len(r.s.state.Users))
	for _, rec := range r.s.state.Users {
		users = append(users, rec.toUser())
	}
	return users, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range r.s.state.Users {
		if rec.Email == email {
			u := rec.toUser()
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range r.s.state.Users {
		if rec.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) UpdateName(ctx context.Context, email, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.state.Users {
		if r.s.state.Users[i].Email == email {
			r.s.state.Users[i].Name = name
			return true, r.s.persist()
		}
	}
	return false, nil
}

func (r *userRepo) Delete(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.state.Users[:0]
	removed := false
	for _, rec := range r.s.state.Users {
		if rec.Email == email {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	r.s.state.Users = kept
	if !removed {
		return false, nil
	}
	return true, r.s.persist()
}

func (r *userRepo) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.state.Users = nil
	return r.s.persist()
}

func (r *userRepo) Stats(ctx context.Context) (domain.UserStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := domain.UserStats{TotalUsers: len(r.s.state.Users)}
	for _, rec := range r.s.state.Users {
		u := rec.toUser()
		if stats.LastRegistered == nil || u.CreatedAt.After(*stats.LastRegistered) {
			t := u.CreatedAt
			stats.LastRegistered = &t
		}
	}
	return stats, nil
}

func (rec userRecord) toUser() domain.User {
	// Unparseable timestamps degrade to the zero time instead of failing
	// the whole read.
	t, _ := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	return domain.User{
		ID:        rec.ID,
		Email:     rec.Email,
		Password:  rec.Password,
		Name:      rec.Name,
		CreatedAt: t,
	}
}

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Save(ctx context.Context, email string, loginTime time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.state.CurrentUser = &sessionRecord{
		Email:     email,
		LoginTime: loginTime.UTC().Format(time.RFC3339Nano),
	}
	return r.s.persist()
}

func (r *sessionRepo) Get(ctx context.Context) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec := r.s.state.CurrentUser
	if rec == nil || rec.Email == "" {
		return nil, domain.ErrNotFound
	}
	t, err := time.Parse(time.RFC3339Nano, rec.LoginTime)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return &domain.Session{Email: rec.Email, LoginTime: t}, nil
}

func (r *sessionRepo) Clear(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.state.CurrentUser = nil
	return r.s.persist()
}

type settingsRepo struct{ s *Store }

func (r *settingsRepo) Get(ctx context.Context, key string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	value, ok := r.s.state.Settings[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return value, nil
}

func (r *settingsRepo) Set(ctx context.Context, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.state.Settings == nil {
		r.s.state.Settings = make(map[string]string)
	}
	r.s.state.Settings[key] = value
	return r.s.persist()
}

func (r *settingsRepo) Delete(ctx context.Context, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.state.Settings, key)
	return r.s.persist()
}

type productRepo struct{ s *Store }

func (r *productRepo) Seed(ctx context.Context, products []domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing := make(map[int64]bool, len(r.s.state.Products))
	for _, p := range r.s.state.Products {
		existing[p.ID] = true
	}
	added := false
	for _, p := range products {
		if existing[p.ID] {
			continue
		}
		r.s.state.Products = append(r.s.state.Products, p)
		added = true
	}
	if !added {
		return nil
	}
	return r.s.persist()
}

func (r *productRepo) All(ctx context.Context) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	products := make([]domain.Product, len(r.s.state.Products))
	copy(products, r.s.state.Products)
	return products, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.state.Products {
		if p.ID == id {
			prod := p
			return &prod, nil
		}
	}
	return nil, domain.ErrNotFound
}
