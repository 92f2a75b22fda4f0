package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/github"
)

// Identity is what a provider tells us about the person signing in.
type Identity struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Username       string
	FullName       string
	AvatarURL      string
}

// Provider is one OAuth 2.0 Authorization Code sign-in option.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. Redirect the browser to AuthURL(state)
//  2. The provider redirects back with a short-lived code
//  3. Exchange trades the code for a token server-to-server and reads the
//     user's profile with it
//
// The access token never reaches the browser.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Providers is the registry of configured sign-in providers by name.
type Providers map[string]Provider

// Register adds p under its name.
func (ps Providers) Register(p Provider) {
	ps[p.Name()] = p
}

// Get looks a provider up by name.
func (ps Providers) Get(name string) (Provider, bool) {
	p, ok := ps[name]
	return p, ok
}

// Names returns the registered provider names, sorted.
func (ps Providers) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =========================================================================
// GITHUB
// =========================================================================

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider signs runners in with GitHub.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

// NewGitHubProvider creates a GitHubProvider.
//
// callbackURL must match the "Authorization callback URL" registered on the
// OAuth App exactly, e.g. "http://localhost:8080/auth/github/callback".
//
// Scopes:
//   - "read:user"  → public profile (ID, login, name, avatar)
//   - "user:email" → email addresses, including hidden ones
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiURL: "https://api.github.com",
	}
}

func (p *GitHubProvider) Name() string { return "github" }

// AuthURL returns the GitHub authorization URL carrying state.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the code for a token and reads /user (and /user/emails
// when the primary email is hidden).
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging GitHub code: %w", err)
	}
	client := p.config.Client(ctx, tok)

	var u githubUser
	if err := getJSON(ctx, client, p.apiURL+"/user", &u); err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	id := &Identity{
		Provider:       p.Name(),
		ProviderUserID: strconv.FormatInt(u.ID, 10),
		Email:          u.Email,
		Username:       u.Login,
		FullName:       u.Name,
		AvatarURL:      u.AvatarURL,
	}

	var emails []githubEmail
	if err := getJSON(ctx, client, p.apiURL+"/user/emails", &emails); err == nil {
		for _, e := range emails {
			if e.Primary {
				id.Email = e.Email
				id.EmailVerified = e.Verified
				break
			}
		}
	}

	return id, nil
}

// =========================================================================
// GOOGLE
// =========================================================================

type googleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleProvider signs runners in with Google (OpenID Connect userinfo).
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a GoogleProvider.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	}
}

func (p *GoogleProvider) Name() string { return "google" }

// AuthURL returns the Google consent screen URL carrying state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the code for a token and reads the userinfo endpoint.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging Google code: %w", err)
	}

	var u googleUser
	if err := getJSON(ctx, p.config.Client(ctx, tok), p.userInfoURL, &u); err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo: %w", err)
	}
	if u.Sub == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty sub)")
	}

	return &Identity{
		Provider:       p.Name(),
		ProviderUserID: u.Sub,
		Email:          u.Email,
		EmailVerified:  u.EmailVerified,
		FullName:       u.Name,
		AvatarURL:      u.Picture,
	}, nil
}

// getJSON performs an authenticated GET and decodes a 200 response.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
