package handler

import (
	"log/slog"
	"net/http"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/service"
)

// StateCookies issues and checks the OAuth state cookie.
type StateCookies interface {
	IssueState(w http.ResponseWriter) string
	VerifyState(w http.ResponseWriter, r *http.Request) bool
}

// StravaHandler links the caller's profile to Strava and lists their runs.
type StravaHandler struct {
	strava  *service.StravaService
	cookies StateCookies
	logger  *slog.Logger
}

// NewStravaHandler creates a StravaHandler.
func NewStravaHandler(strava *service.StravaService, cookies StateCookies, logger *slog.Logger) *StravaHandler {
	return &StravaHandler{strava: strava, cookies: cookies, logger: logger}
}

// HandleConnect sends the caller to the Strava consent page.
//
// HTTP: GET /api/strava/connect
func (h *StravaHandler) HandleConnect(w http.ResponseWriter, r *http.Request, sess model.Session) {
	if !h.strava.Enabled() {
		writeError(w, apperror.Unavailable("Strava integration"))
		return
	}
	target, err := h.strava.AuthorizeURL(h.cookies.IssueState(w))
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleCallback stores the tokens for the returned code.
//
// HTTP: GET /api/strava/callback?code=xxx&state=yyy
func (h *StravaHandler) HandleCallback(w http.ResponseWriter, r *http.Request, sess model.Session) {
	if !h.cookies.VerifyState(w, r) {
		h.logger.Warn("strava callback: state mismatch", slog.String("userID", sess.UserID()))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		http.Redirect(w, r, "/?strava=denied", http.StatusSeeOther)
		return
	}

	if err := h.strava.Connect(r.Context(), sess, r.URL.Query().Get("code")); err != nil {
		h.logger.Error("strava callback: connect failed",
			slog.String("userID", sess.UserID()),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	http.Redirect(w, r, "/?strava=connected", http.StatusSeeOther)
}

// HandleActivities lists the caller's three latest Strava activities.
//
// HTTP: GET /api/strava/activities
func (h *StravaHandler) HandleActivities(w http.ResponseWriter, r *http.Request, sess model.Session) {
	activities, err := h.strava.Recent(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// HandleSync imports the caller's latest runs now.
//
// HTTP: POST /api/strava/sync
func (h *StravaHandler) HandleSync(w http.ResponseWriter, r *http.Request, sess model.Session) {
	n, err := h.strava.Sync(r.Context(), sess.UserID())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}
