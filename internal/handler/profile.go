package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/service"
)

// SessionRefresher re-reads the caller after a profile mutation.
type SessionRefresher interface {
	Refresh(ctx context.Context, sess model.Session) model.Session
}

// ProfileHandler serves the runner directory and the profile edit form.
type ProfileHandler struct {
	profiles *service.ProfileService
	sessions SessionRefresher
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, sessions SessionRefresher, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, sessions: sessions, logger: logger}
}

// HandleDirectory lists runners newest first.
//
// HTTP: GET /api/profiles?q=dhaka
func (h *ProfileHandler) HandleDirectory(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.Directory(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleGet returns one runner.
//
// HTTP: GET /api/profiles/{id}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUpdate applies the edit form to the caller's profile and answers
// with the refreshed profile.
//
// HTTP: PUT /api/profile
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request, sess model.Session) {
	var upd model.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	if err := h.profiles.UpdateOwn(r.Context(), sess, upd); err != nil {
		writeError(w, err)
		return
	}
	fresh := h.sessions.Refresh(r.Context(), sess)
	writeJSON(w, http.StatusOK, fresh.Profile)
}

// HandleAvatar accepts a multipart upload in the "avatar" field and answers
// with the refreshed profile, whose avatar_url points at the new image.
//
// HTTP: POST /api/profile/avatar
func (h *ProfileHandler) HandleAvatar(w http.ResponseWriter, r *http.Request, sess model.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxAvatarBytes+64<<10)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperror.ValidationFailed("avatar", "avatar must be at most 2 MiB"))
			return
		}
		writeError(w, apperror.ValidationFailed("avatar", "avatar file is required"))
		return
	}
	defer file.Close()

	if _, err := h.profiles.SetAvatar(r.Context(), sess, header.Header.Get("Content-Type"), file, header.Size); err != nil {
		writeError(w, err)
		return
	}
	fresh := h.sessions.Refresh(r.Context(), sess)
	writeJSON(w, http.StatusOK, fresh.Profile)
}
