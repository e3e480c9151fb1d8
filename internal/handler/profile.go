package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/service"
)

// ProfileHandler serves the profile view: the session's account, the
// stored photo reference, and account-collection statistics.
type ProfileHandler struct {
	accounts *service.AccountService
	catalog  *service.CatalogService
	settings domain.SettingsRepository
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(accounts *service.AccountService, catalog *service.CatalogService, settings domain.SettingsRepository) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, catalog: catalog, settings: settings}
}

// HandleGet returns the profile for the current session.
// GET /api/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "No autenticado.")
		return
	}

	resp := map[string]any{
		"session": toSessionDTO(sess),
		"user":    nil,
		"photo":   "",
	}

	// The fallback demo account has no stored record; the profile still renders.
	user, err := h.accounts.UserByEmail(r.Context(), sess.Email)
	if err == nil {
		resp["user"] = toUserDTO(user)
	} else if !errors.Is(err, domain.ErrNotFound) {
		slog.Error("load profile account", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}

	photo, err := h.settings.Get(r.Context(), domain.SettingProfilePhoto)
	if err == nil {
		resp["photo"] = photo
	} else if !errors.Is(err, domain.ErrNotFound) {
		slog.Error("load profile photo", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateName overwrites the display name of the session's account.
// PUT /api/profile
// Request: {"name":"..."}
func (h *ProfileHandler) HandleUpdateName(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "No autenticado.")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if len(strings.TrimSpace(req.Name)) < 2 {
		writeError(w, http.StatusUnprocessableEntity, "El nombre debe tener al menos 2 caracteres")
		return
	}

	updated, err := h.accounts.UpdateName(r.Context(), sess.Email, req.Name)
	if err != nil {
		slog.Error("update profile name", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Cuenta no encontrada.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdatePhoto stores an opaque photo reference for the profile.
// PUT /api/profile/photo
// Request: {"url":"..."}
func (h *ProfileHandler) HandleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	var err error
	if req.URL == "" {
		err = h.settings.Delete(r.Context(), domain.SettingProfilePhoto)
	} else {
		err = h.settings.Set(r.Context(), domain.SettingProfilePhoto, req.URL)
	}
	if err != nil {
		slog.Error("store profile photo", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats returns account-collection statistics.
// GET /api/users/stats
func (h *ProfileHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.accounts.Stats(r.Context())
	if err != nil {
		slog.Error("load user stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// HandleSetCatalogURL stores or clears the catalog base-URL override.
// PUT /api/settings/catalog-url
// Request: {"url":"http://192.168.1.83:3000"} or {"url":""} to clear
func (h *ProfileHandler) HandleSetCatalogURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.catalog.SetCatalogURL(r.Context(), req.URL); err != nil {
		slog.Error("set catalog url", "error", err)
		writeError(w, http.StatusInternalServerError, "Ocurrió un error inesperado.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
