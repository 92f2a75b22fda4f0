package model

import "time"

// Activity sources.
const (
	SourceManual = "manual"
	SourceStrava = "strava"
)

// Activity is one run. It is only ever inserted, never edited, and exists to
// feed the leaderboard.
type Activity struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	DistanceKm      float64   `json:"distance_km"`
	DurationSeconds int64     `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
	Source          string    `json:"source"`
	ExternalID      string    `json:"external_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewActivity is the manual log payload.
type NewActivity struct {
	Name            string    `json:"name"`
	DistanceKm      float64   `json:"distance_km"`
	DurationSeconds int64     `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
}

// ActivityWithProfile is an activity row joined with its owner's profile.
// DistanceKm is a pointer because the column may be NULL.
type ActivityWithProfile struct {
	UserID     string
	DistanceKm *float64
	User       *PersonRef
}

// Leaderboard medal markers for the first three positions.
const (
	MedalGold   = "gold"
	MedalSilver = "silver"
	MedalBronze = "bronze"
)

// LeaderboardEntry is one runner's aggregated total.
type LeaderboardEntry struct {
	UserID        string  `json:"user_id"`
	FullName      string  `json:"full_name"`
	AvatarURL     string  `json:"avatar_url"`
	TotalDistance float64 `json:"total_distance"`
	ActivityCount int     `json:"activity_count"`
	Rank          int     `json:"rank"`
	Medal         string  `json:"medal,omitempty"`

	// FirstSeen is the zero-based position at which the runner first
	// appeared in the history. Exact ties are ordered by it.
	FirstSeen int `json:"-"`
}

// MedalFor maps a zero-based position to its marker. Positions from 3 on
// have no medal and are shown by their plain ordinal rank (index+1).
func MedalFor(index int) string {
	switch index {
	case 0:
		return MedalGold
	case 1:
		return MedalSilver
	case 2:
		return MedalBronze
	}
	return ""
}

// AnonymousName is displayed for activities whose owner has no name.
const AnonymousName = "Anonymous"

// StravaActivity is a recent activity as listed by the Strava API.
type StravaActivity struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Distance   float64   `json:"distance"`    // meters
	MovingTime int64     `json:"moving_time"` // seconds
	Type       string    `json:"type"`
	StartDate  time.Time `json:"start_date"`
	URL        string    `json:"url,omitempty"`
	DistanceKm float64   `json:"distance_km"`
}
