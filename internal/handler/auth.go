package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/service"
)

var phonePattern = regexp.MustCompile(`^[\+]?[0-9\s\-\(\)]{8,}$`)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	accounts *service.AccountService
	guard    *Guard
	limiter  *service.TokenBucket
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *service.AccountService, guard *Guard, limiter *service.TokenBucket) *AuthHandler {
	return &AuthHandler{accounts: accounts, guard: guard, limiter: limiter}
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "Demasiados intentos. Espera un momento.")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Credenciales incorrectas")
		default:
			slog.Error("login user", "error", err)
			writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado. Intenta nuevamente.")
		}
		return
	}

	token, err := h.guard.issueToken(user.Email)
	if err != nil {
		slog.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado. Intenta nuevamente.")
		return
	}
	h.guard.setAuthCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"email":"...","password":"...","confirmPassword":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "Demasiados intentos. Espera un momento.")
		return
	}

	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, "Este email ya está registrado")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.Error("register user", "error", err)
			writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado. Intenta nuevamente.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogout clears the session marker and the auth cookie.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context()); err != nil {
		slog.Error("logout", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}
	h.guard.clearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the current session marker.
// GET /api/auth/me
// Response: {"session": {...}}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "No autenticado.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": toSessionDTO(sess),
	})
}

// HandleRecover processes the password-recovery form. The demo cannot
// send mail; a valid form updates the account's display name when the
// email is known and always reports success.
// POST /api/auth/recover
// Request: {"email":"...","name":"...","phone":"..."}
func (h *AuthHandler) HandleRecover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if msg := validateRecoveryForm(req.Email, req.Name, req.Phone); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	exists, err := h.accounts.EmailExists(r.Context(), req.Email)
	if err != nil {
		slog.Error("check recovery email", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}
	if exists {
		if _, err := h.accounts.UpdateName(r.Context(), req.Email, req.Name); err != nil {
			slog.Error("update name on recovery", "error", err)
			writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
			return
		}
	}

	// Same response either way: recovery must not leak which emails exist.
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Solicitud de recuperación enviada",
	})
}

func validateRecoveryForm(email, name, phone string) string {
	if email == "" {
		return "El email es requerido"
	}
	if !service.ValidEmail(email) {
		return "Formato de email inválido"
	}
	if name == "" {
		return "El nombre es requerido"
	}
	if len(strings.TrimSpace(name)) < 2 {
		return "El nombre debe tener al menos 2 caracteres"
	}
	if phone == "" {
		return "El número de teléfono es requerido"
	}
	if !phonePattern.MatchString(phone) {
		return "Formato de teléfono inválido"
	}
	return ""
}

// clientIP keys the rate limiter by remote address, host part only.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
