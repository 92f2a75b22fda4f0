package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/service"
)

// AdminHandler serves the permission table. Routes are mounted behind
// session.Store.Elevated, so ordinary callers never reach these methods.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// HTTP: GET /api/admin/profiles?q=
func (h *AdminHandler) HandleProfiles(w http.ResponseWriter, r *http.Request, sess model.Session) {
	profiles, err := h.admin.Profiles(r.Context(), sess, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// ToggleRequest names the capability to flip.
type ToggleRequest struct {
	Capability model.Capability `json:"capability"`
}

// HandleToggle flips one capability flag and returns the row as the table
// now shows it. On a failed write the table is already rolled back and the
// error is returned.
//
// HTTP: POST /api/admin/profiles/{id}/toggle  {"capability": "can_create_event"}
func (h *AdminHandler) HandleToggle(w http.ResponseWriter, r *http.Request, sess model.Session) {
	var req ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.admin.Toggle(r.Context(), sess, chi.URLParam(r, "id"), req.Capability)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
