// Package session resolves the current caller into a model.Session and owns
// the sign-in, sign-out and refresh operations.
//
// There is no ambient user in the request context. Handlers that need the
// caller are written as HandlerFunc and receive the resolved Session as an
// explicit argument; Store.With, Store.Require and Store.Elevated adapt them
// to plain http.HandlerFunc for the router.
//
// Resolve never fails: a missing cookie, a bad token, a deleted account or a
// store error all degrade to the zero (signed-out) Session and are logged.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/auth"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// HandlerFunc is an HTTP handler that receives the resolved caller.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, sess model.Session)

// AdminPolicy decides which sign-in emails get the elevated role.
type AdminPolicy interface {
	IsAdminEmail(email string) bool
}

// Store is the session store. A nil TokenService disables sign-in: every
// request resolves to the signed-out session.
type Store struct {
	tokens    *auth.TokenService
	providers auth.Providers
	cookies   auth.Cookies
	accounts  repository.AccountRepository
	profiles  repository.ProfileRepository
	admins    AdminPolicy
	logger    *slog.Logger
}

// NewStore wires a Store. All dependencies are injected here.
func NewStore(
	tokens *auth.TokenService,
	providers auth.Providers,
	cookies auth.Cookies,
	accounts repository.AccountRepository,
	profiles repository.ProfileRepository,
	admins AdminPolicy,
	logger *slog.Logger,
) *Store {
	if providers == nil {
		providers = auth.Providers{}
	}
	return &Store{
		tokens:    tokens,
		providers: providers,
		cookies:   cookies,
		accounts:  accounts,
		profiles:  profiles,
		admins:    admins,
		logger:    logger,
	}
}

// Enabled reports whether sign-in is possible at all.
func (s *Store) Enabled() bool {
	return s.tokens != nil
}

// Providers returns the names of the configured sign-in providers.
func (s *Store) Providers() []string {
	return s.providers.Names()
}

// Resolve reads the session cookie and loads the caller's account and profile.
func (s *Store) Resolve(r *http.Request) model.Session {
	if s.tokens == nil {
		return model.Session{}
	}
	raw := s.cookies.SessionToken(r)
	if raw == "" {
		return model.Session{}
	}

	subject, expires, err := s.tokens.Validate(raw)
	if err != nil {
		s.logger.Debug("session: rejecting token", slog.String("error", err.Error()))
		return model.Session{}
	}

	sess, err := s.load(r.Context(), subject)
	if err != nil {
		s.logger.Warn("session: resolving caller",
			slog.String("userID", subject),
			slog.String("error", err.Error()),
		)
		return model.Session{}
	}
	sess.AccessToken = raw
	sess.ExpiresAt = expires
	return sess
}

func (s *Store) load(ctx context.Context, userID string) (model.Session, error) {
	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return model.Session{}, fmt.Errorf("loading account: %w", err)
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return model.Session{}, fmt.Errorf("loading profile: %w", err)
	}
	return model.Session{User: account, Profile: profile}, nil
}

// SignInURL issues an OAuth state cookie and returns the provider's
// authorization URL. The caller redirects; nothing else is returned.
func (s *Store) SignInURL(w http.ResponseWriter, provider string) (string, error) {
	if s.tokens == nil {
		return "", apperror.Unavailable("sign-in")
	}
	p, ok := s.providers.Get(provider)
	if !ok {
		return "", apperror.NotFound("sign-in provider", provider)
	}
	return p.AuthURL(s.cookies.IssueState(w)), nil
}

// VerifyState checks the OAuth callback's state parameter against its cookie.
func (s *Store) VerifyState(w http.ResponseWriter, r *http.Request) bool {
	return s.cookies.VerifyState(w, r)
}

// Complete finishes an OAuth sign-in: exchanges the code, creates or refreshes
// the account and profile, and issues a session token.
//
// Accounts whose verified email is listed as an admin email get the elevated
// role on every sign-in.
func (s *Store) Complete(ctx context.Context, provider, code string) (string, model.Session, error) {
	if s.tokens == nil {
		return "", model.Session{}, apperror.Unavailable("sign-in")
	}
	p, ok := s.providers.Get(provider)
	if !ok {
		return "", model.Session{}, apperror.NotFound("sign-in provider", provider)
	}
	if code == "" {
		return "", model.Session{}, apperror.ValidationFailed("code", "missing OAuth code")
	}

	id, err := p.Exchange(ctx, code)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("session: %s exchange: %w", provider, err)
	}

	account := &model.Account{
		Provider:       id.Provider,
		ProviderUserID: id.ProviderUserID,
		Email:          id.Email,
		EmailVerified:  id.EmailVerified,
	}
	if err := s.accounts.UpsertAccount(ctx, account); err != nil {
		return "", model.Session{}, fmt.Errorf("session: upserting account: %w", err)
	}

	elevated := id.EmailVerified && s.admins != nil && s.admins.IsAdminEmail(id.Email)
	profile := &model.Profile{
		ID:        account.ID,
		Email:     id.Email,
		Username:  id.Username,
		FullName:  id.FullName,
		AvatarURL: id.AvatarURL,
	}
	if elevated {
		profile.Role = model.RoleSuperadmin
	}
	if err := s.profiles.EnsureProfile(ctx, profile); err != nil {
		return "", model.Session{}, fmt.Errorf("session: ensuring profile: %w", err)
	}
	if elevated && !profile.Elevated() {
		if err := s.profiles.SetRole(ctx, profile.ID, model.RoleSuperadmin); err != nil {
			return "", model.Session{}, fmt.Errorf("session: elevating profile: %w", err)
		}
		profile.Role = model.RoleSuperadmin
	}

	token, err := s.tokens.Generate(account.ID)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("session: issuing token: %w", err)
	}
	_, expires, err := s.tokens.Validate(token)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("session: reading issued token: %w", err)
	}

	s.logger.Info("runner signed in",
		slog.String("userID", account.ID),
		slog.String("provider", provider),
		slog.Bool("elevated", profile.Elevated()),
	)

	return token, model.Session{
		AccessToken: token,
		ExpiresAt:   expires,
		User:        account,
		Profile:     profile,
	}, nil
}

// Start writes the session cookie for a token returned by Complete.
func (s *Store) Start(w http.ResponseWriter, token string) {
	s.cookies.SetSession(w, token, s.tokens.TTL())
}

// SignOut clears the session cookie. The token itself stays valid until it
// expires, but the browser no longer sends it.
func (s *Store) SignOut(w http.ResponseWriter) {
	s.cookies.ClearSession(w)
}

// Refresh re-reads the account and profile behind sess and returns a new
// Session. Used after every profile mutation so permission flags are current.
//
// A deleted profile yields the signed-out session; any other failure keeps
// sess as it was.
func (s *Store) Refresh(ctx context.Context, sess model.Session) model.Session {
	if !sess.Authenticated() {
		return model.Session{}
	}
	fresh, err := s.load(ctx, sess.UserID())
	if err != nil {
		s.logger.Warn("session: refresh failed",
			slog.String("userID", sess.UserID()),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, apperror.ErrNotFound) {
			return model.Session{}
		}
		return sess
	}
	fresh.AccessToken = sess.AccessToken
	fresh.ExpiresAt = sess.ExpiresAt
	return fresh
}

// With resolves the caller and passes it to h. Signed-out callers get the
// zero Session.
func (s *Store) With(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, s.Resolve(r))
	}
}

// Require is like With but answers 401 for signed-out callers.
func (s *Store) Require(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.Resolve(r)
		if !sess.Authenticated() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized","message":"sign in required"}` + "\n"))
			return
		}
		h(w, r, sess)
	}
}

// Elevated only lets the administrative role through. Everyone else is sent
// back to the home page with 303 See Other and no error body.
func (s *Store) Elevated(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.Resolve(r)
		if !sess.Elevated() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h(w, r, sess)
	}
}
