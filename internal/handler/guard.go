package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/service"
)

type contextKey string

const sessionContextKey contextKey = "session"

const authCookieName = "auth_token"

// SessionFromContext extracts the authenticated session from the request
// context. Returns nil when the request is unauthenticated.
func SessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionContextKey).(*domain.Session)
	return sess
}

// Guard protects routes behind the session marker. It validates the JWT
// cookie, then checks the persisted marker; with strict mode on, it also
// re-validates that the marker's account still exists before letting the
// navigation proceed.
type Guard struct {
	accounts     *service.AccountService
	secret       []byte
	cookieSecure bool
	strict       bool
}

// NewGuard creates a route guard.
func NewGuard(accounts *service.AccountService, jwtSecret string, cookieSecure, strict bool) *Guard {
	return &Guard{
		accounts:     accounts,
		secret:       []byte(jwtSecret),
		cookieSecure: cookieSecure,
		strict:       strict,
	}
}

// RequireAuth wraps a protected handler. Denied requests receive 401 with
// a redirect hint to the login view; the protected handler never runs.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.authenticate(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":    "No autenticado.",
				"redirect": "/login",
			})
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) authenticate(r *http.Request) (*domain.Session, error) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		return nil, err
	}

	email, err := g.validateToken(cookie.Value)
	if err != nil {
		return nil, err
	}

	sess, err := g.accounts.CurrentUser(r.Context())
	if err != nil {
		return nil, err
	}
	if sess.Email == "" || sess.Email != email {
		return nil, domain.ErrUnauthorized
	}

	if g.strict {
		// A marker whose account vanished from the collection is invalid.
		// Note this refuses the demo fallback account, which is never stored.
		if _, err := g.accounts.UserByEmail(r.Context(), sess.Email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrUnauthorized
			}
			slog.Error("re-validate session account", "error", err)
			return nil, err
		}
	}

	return sess, nil
}

// issueToken signs a JWT whose subject is the account email.
func (g *Guard) issueToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.secret)
}

// validateToken parses and validates a JWT token string, returning the
// email from the sub claim.
func (g *Guard) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	email, err := claims.GetSubject()
	if err != nil || email == "" {
		return "", domain.ErrUnauthorized
	}
	return email, nil
}

func (g *Guard) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})
}

func (g *Guard) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   g.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// SecurityHeaders sets baseline security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
