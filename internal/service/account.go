package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sebav/tienda/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the address matches the accepted form:
// no whitespace or extra @, and a dot somewhere after the @. Every form
// that takes an email uses this one pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Hard-coded demo account, accepted regardless of the stored collection.
const (
	fallbackEmail    = "seba@gmail.com"
	fallbackPassword = "123456"
)

// AccountService owns the persisted account collection and the current
// session marker. Form-level validation happens here, before anything
// touches persistence.
type AccountService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
}

// NewAccountService creates a new AccountService over the storage port.
func NewAccountService(users domain.UserRepository, sessions domain.SessionRepository) *AccountService {
	return &AccountService{users: users, sessions: sessions}
}

// Register validates the form, checks email uniqueness, and persists a new
// account with a fresh id and creation timestamp.
func (s *AccountService) Register(ctx context.Context, email, password, confirmPassword string) (*domain.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if password != confirmPassword {
		return nil, fmt.Errorf("%w: las contraseñas no coinciden", domain.ErrInvalidInput)
	}

	// Friendly pre-flight check; the SQLite backend additionally enforces
	// uniqueness with an index, so a lost race still fails cleanly.
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login validates the form and the credentials, writes the session marker
// on success, and returns the authenticated account. Bad credentials are
// ErrUnauthorized; the demo fallback account always authenticates.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	var user *domain.User
	if email == fallbackEmail && password == fallbackPassword {
		user = &domain.User{ID: "demo", Email: fallbackEmail, Name: "Seba"}
	} else {
		found, err := s.Validate(ctx, email, password)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrUnauthorized
			}
			return nil, fmt.Errorf("validate user: %w", err)
		}
		user = found
	}

	if err := s.sessions.Save(ctx, user.Email, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return user, nil
}

// Validate returns the account whose stored email and password equal the
// inputs exactly. A mismatch is ErrNotFound, never a hard failure.
func (s *AccountService) Validate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Password != password {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// Logout clears the session marker.
func (s *AccountService) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// CurrentUser returns the active session marker, or ErrNotFound when no
// one is logged in.
func (s *AccountService) CurrentUser(ctx context.Context) (*domain.Session, error) {
	return s.sessions.Get(ctx)
}

// SaveCurrentUser stamps a fresh session marker for the given email.
func (s *AccountService) SaveCurrentUser(ctx context.Context, email string) error {
	return s.sessions.Save(ctx, email, time.Now().UTC())
}

// Users returns all stored accounts in insertion order.
func (s *AccountService) Users(ctx context.Context) ([]domain.User, error) {
	return s.users.All(ctx)
}

// UserByEmail returns the account for the given email, or ErrNotFound.
func (s *AccountService) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

// EmailExists reports whether an account with the given email is stored.
func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.users.EmailExists(ctx, email)
}

// UpdateName overwrites the display name of the account with the given
// email. Returns false when no such account exists.
func (s *AccountService) UpdateName(ctx context.Context, email, name string) (bool, error) {
	return s.users.UpdateName(ctx, email, name)
}

// Delete removes a single account by email.
func (s *AccountService) Delete(ctx context.Context, email string) (bool, error) {
	return s.users.Delete(ctx, email)
}

// ClearAll removes every stored account.
func (s *AccountService) ClearAll(ctx context.Context) error {
	return s.users.DeleteAll(ctx)
}

// Stats summarizes the stored collection.
func (s *AccountService) Stats(ctx context.Context) (domain.UserStats, error) {
	return s.users.Stats(ctx)
}

func validateCredentials(email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: el email es requerido", domain.ErrInvalidInput)
	}
	if !ValidEmail(email) {
		return fmt.Errorf("%w: formato de email inválido", domain.ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: la contraseña es requerida", domain.ErrInvalidInput)
	}
	if len(password) < 6 {
		return fmt.Errorf("%w: la contraseña debe tener al menos 6 caracteres", domain.ErrInvalidInput)
	}
	return nil
}
