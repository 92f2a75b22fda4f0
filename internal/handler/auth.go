package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/session"
)

// AuthHandler drives the OAuth sign-in flow and reports the current session.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin    → redirect the browser to the provider's consent page
//   - HandleCallback → verify state, exchange the code, set the session cookie
//   - HandleLogout   → clear the session cookie
//   - HandleSession  → describe the caller (never fails)
type AuthHandler struct {
	store  *session.Store
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(store *session.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{store: store, logger: logger}
}

// HandleLogin redirects to the provider named in the path.
//
// HTTP: GET /auth/{provider}/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	target, err := h.store.SignInURL(w, chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleCallback completes the sign-in.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter against its cookie (CSRF check)
//  2. Bail out to /?auth=denied if the runner declined
//  3. Exchange the code, upsert account and profile, issue the token
//  4. Set the session cookie and go home
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	if !h.store.VerifyState(w, r) {
		h.logger.Warn("auth callback: state mismatch", slog.String("provider", provider))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied",
			slog.String("provider", provider),
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	token, _, err := h.store.Complete(r.Context(), provider, r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	h.store.Start(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.store.SignOut(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// SessionResponse describes the caller to the frontend.
type SessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *model.Account `json:"user,omitempty"`
	Profile       *model.Profile `json:"profile,omitempty"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	Providers     []string       `json:"providers"`
}

// HandleSession reports who is signed in. Signed-out callers get
// {"authenticated": false}, never an error.
//
// HTTP: GET /api/session
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request, sess model.Session) {
	resp := SessionResponse{
		Authenticated: sess.Authenticated(),
		Providers:     h.store.Providers(),
	}
	if sess.Authenticated() {
		resp.User = sess.User
		resp.Profile = sess.Profile
		if !sess.ExpiresAt.IsZero() {
			exp := sess.ExpiresAt
			resp.ExpiresAt = &exp
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
