// Package strava talks to the Strava OAuth token endpoint and REST API.
package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/protanvir/runners-bd/internal/model"
)

// Scope asks for public data plus every activity, private ones included.
const Scope = "read,activity:read_all"

// ActivityURL is the public page of an activity.
const ActivityURL = "https://www.strava.com/activities/"

// maxResponseBytes caps what is read from any Strava response.
const maxResponseBytes = 1 << 20

// ErrMissingGrant means neither a code nor a refresh token was given.
var ErrMissingGrant = errors.New("Missing code or refresh_token")

// ErrAmbiguousGrant means both a code and a refresh token were given.
var ErrAmbiguousGrant = errors.New("Provide either code or refresh_token, not both")

// Grant is what gets exchanged at the token endpoint: an authorization code
// or a refresh token, never both.
type Grant struct {
	Code         string `json:"code"`
	RefreshToken string `json:"refresh_token"`
}

// Validate checks that exactly one of the two fields is set.
func (g Grant) Validate() error {
	hasCode := strings.TrimSpace(g.Code) != ""
	hasRefresh := strings.TrimSpace(g.RefreshToken) != ""
	switch {
	case hasCode && hasRefresh:
		return ErrAmbiguousGrant
	case !hasCode && !hasRefresh:
		return ErrMissingGrant
	}
	return nil
}

// UpstreamError is a failure reported by Strava itself.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// Token is the part of a token response the server keeps.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AthleteID    int64
}

// Client is a Strava API client. The client credentials come from config.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiURL       string
	httpClient   *http.Client
}

// NewClient creates a Client. A nil httpClient gets a 15 second timeout.
func NewClient(clientID, clientSecret, tokenURL, apiURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		apiURL:       strings.TrimRight(apiURL, "/"),
		httpClient:   httpClient,
	}
}

// AuthorizeURL returns the Strava consent page URL.
func (c *Client) AuthorizeURL(redirectURL, state string) string {
	cfg := oauth2.Config{
		ClientID:    c.clientID,
		Endpoint:    endpoints.Strava,
		RedirectURL: redirectURL,
		Scopes:      []string{Scope},
	}
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))
}

// Exchange posts the grant with the client credentials to the token
// endpoint and returns the response body untouched.
func (c *Client) Exchange(ctx context.Context, g Grant) (json.RawMessage, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	payload := map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}
	if g.Code != "" {
		payload["code"] = g.Code
		payload["grant_type"] = "authorization_code"
	} else {
		payload["refresh_token"] = g.RefreshToken
		payload["grant_type"] = "refresh_token"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("strava: encoding grant: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("strava: building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strava: token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("strava: reading token response: %w", err)
	}

	var envelope struct {
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "Failed to exchange token"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || hasErrors(envelope.Errors) {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: string(raw)}
	}
	return json.RawMessage(raw), nil
}

func hasErrors(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// ParseToken decodes the fields of a token response that get persisted.
func ParseToken(raw json.RawMessage) (Token, error) {
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    int64  `json:"expires_at"`
		Athlete      *struct {
			ID int64 `json:"id"`
		} `json:"athlete"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Token{}, fmt.Errorf("strava: decoding token: %w", err)
	}
	if body.AccessToken == "" {
		return Token{}, errors.New("strava: token response has no access_token")
	}

	t := Token{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    time.Unix(body.ExpiresAt, 0).UTC(),
	}
	if body.Athlete != nil {
		t.AthleteID = body.Athlete.ID
	}
	return t, nil
}

// RecentActivities lists the athlete's latest activities, newest first.
func (c *Client) RecentActivities(ctx context.Context, accessToken string, perPage int) ([]model.StravaActivity, error) {
	if perPage <= 0 {
		perPage = 30
	}
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("strava: building activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strava: activities request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &UpstreamError{Status: resp.StatusCode, Message: fmt.Sprintf("strava: activities: %s: %s", resp.Status, raw)}
	}

	var activities []model.StravaActivity
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&activities); err != nil {
		return nil, fmt.Errorf("strava: decoding activities: %w", err)
	}
	for i := range activities {
		activities[i].DistanceKm = activities[i].Distance / 1000
		activities[i].URL = ActivityURL + strconv.FormatInt(activities[i].ID, 10)
	}
	if activities == nil {
		activities = []model.StravaActivity{}
	}
	return activities, nil
}

// IsRun reports whether a Strava activity type counts toward the leaderboard.
func IsRun(activityType string) bool {
	switch activityType {
	case "Run", "TrailRun", "VirtualRun":
		return true
	}
	return false
}
