// Package model defines the data structures used throughout the application.
package model

import "time"

// Account is a signed-in identity, created on first OAuth sign-in.
//
// Provider + ProviderUserID is unique: one GitHub (or Google) account maps to
// exactly one Account. The internal ID is an xid and doubles as the profile ID.
type Account struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"-"`
	Email          string    `json:"email"`
	EmailVerified  bool      `json:"emailVerified"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Session is the resolved state of the current caller.
//
// The zero value is the unauthenticated session. It is a plain value: a
// refresh produces a new Session rather than mutating the old one.
type Session struct {
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expiresAt,omitzero"`
	User        *Account  `json:"user,omitempty"`
	Profile     *Profile  `json:"profile,omitempty"`
}

// Authenticated reports whether the session carries a resolved identity.
func (s Session) Authenticated() bool {
	return s.User != nil && s.Profile != nil
}

// UserID returns the signed-in account id, or "" for anonymous sessions.
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Can reports whether the caller may create content of the given kind.
func (s Session) Can(c Capability) bool {
	return s.Authenticated() && s.Profile.Can(c)
}

// Elevated reports whether the caller holds the administrative role.
func (s Session) Elevated() bool {
	return s.Authenticated() && s.Profile.Elevated()
}
