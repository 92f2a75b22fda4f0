package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/rs/xid"
)

// Cookie names.
const (
	SessionCookie = "token"
	StateCookie   = "oauth_state"
)

const stateTTL = 10 * time.Minute

// Cookies writes and reads the session and OAuth state cookies.
//
// COOKIE-BASED TOKEN STORAGE:
// HttpOnly keeps the token out of reach of page scripts. SameSite=Lax means
// the cookie rides along on top-level navigations (the OAuth redirect back
// to us) but not on cross-site POSTs. Secure is on whenever BASE_URL is https.
type Cookies struct {
	Secure bool
}

// SetSession stores the session token for ttl.
func (c Cookies) SetSession(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession tells the browser to drop the session cookie.
func (c Cookies) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken returns the raw session token, or "" when absent.
func (c Cookies) SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// IssueState generates a random state value, stores it in a short-lived
// cookie and returns it for the provider redirect.
func (c Cookies) IssueState(w http.ResponseWriter) string {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

// VerifyState checks the callback's state against the cookie and clears the
// cookie either way. State is single-use.
func (c Cookies) VerifyState(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(StateCookie)
	http.SetCookie(w, &http.Cookie{
		Name:   StateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	if err != nil || cookie.Value == "" {
		return false
	}
	got := r.URL.Query().Get("state")
	return subtle.ConstantTimeCompare([]byte(got), []byte(cookie.Value)) == 1
}
