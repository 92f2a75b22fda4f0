package model

import "time"

// Role is a profile's permission tier.
type Role string

const (
	RoleUser       Role = "user"
	RoleSuperadmin Role = "superadmin" // elevated: unrestricted, exempt from capability toggles
)

// Capability names a per-profile boolean that gates content creation.
// The string values are the column names used by the store and the API.
type Capability string

const (
	CanCreateEvent  Capability = "can_create_event"
	CanCreateReview Capability = "can_create_review"
	CanCreatePost   Capability = "can_create_post"
)

// Capabilities lists every toggleable capability in display order.
var Capabilities = []Capability{CanCreateEvent, CanCreateReview, CanCreatePost}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	for _, known := range Capabilities {
		if c == known {
			return true
		}
	}
	return false
}

// RunningLevels are the self-reported levels a runner can pick.
var RunningLevels = []string{"beginner", "intermediate", "advanced", "elite"}

// DefaultRunningLevel is used when a profile has never set one.
const DefaultRunningLevel = "beginner"

// ValidRunningLevel reports whether level is one of RunningLevels.
func ValidRunningLevel(level string) bool {
	for _, l := range RunningLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Profile is the public face of an Account (one-to-one, same ID).
type Profile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email,omitempty"`
	Username        string    `json:"username"`
	FullName        string    `json:"full_name"`
	AvatarURL       string    `json:"avatar_url"`
	Bio             string    `json:"bio"`
	Location        string    `json:"location"`
	RunningLevel    string    `json:"running_level"`
	Role            Role      `json:"role"`
	CanCreateEvent  bool      `json:"can_create_event"`
	CanCreateReview bool      `json:"can_create_review"`
	CanCreatePost   bool      `json:"can_create_post"`
	StravaConnected bool      `json:"strava_connected"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Elevated reports whether the profile holds the administrative role.
func (p *Profile) Elevated() bool {
	return p != nil && p.Role == RoleSuperadmin
}

// Flag returns the stored value of a capability flag.
func (p *Profile) Flag(c Capability) bool {
	switch c {
	case CanCreateEvent:
		return p.CanCreateEvent
	case CanCreateReview:
		return p.CanCreateReview
	case CanCreatePost:
		return p.CanCreatePost
	}
	return false
}

// SetFlag sets a capability flag. Unknown capabilities are ignored.
func (p *Profile) SetFlag(c Capability, v bool) {
	switch c {
	case CanCreateEvent:
		p.CanCreateEvent = v
	case CanCreateReview:
		p.CanCreateReview = v
	case CanCreatePost:
		p.CanCreatePost = v
	}
}

// Can reports whether the profile may create content of kind c.
// The elevated role always can, regardless of stored flags.
func (p *Profile) Can(c Capability) bool {
	if p == nil {
		return false
	}
	if p.Elevated() {
		return true
	}
	return p.Flag(c)
}

// ProfileUpdate is the ordinary edit path. It carries no role or capability
// fields, so an edit can never change permissions.
type ProfileUpdate struct {
	FullName     string `json:"full_name"`
	Bio          string `json:"bio"`
	Location     string `json:"location"`
	RunningLevel string `json:"running_level"`
}

// PersonRef is the subset of a profile embedded into other rows for display
// (organizer of an event, author of a post or review).
type PersonRef struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// StravaLink holds the fitness-tracker tokens stored on a profile.
// Tokens are kept encrypted at rest; this struct holds them decrypted.
type StravaLink struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is expired or about to be.
func (l StravaLink) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now.Add(time.Minute))
}
