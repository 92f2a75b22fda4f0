// Package repository defines the storage contracts the services depend on.
//
// Services only ever see these interfaces, never a concrete database. The
// sqlite subpackage is the production implementation; tests use in-memory
// fakes. Every "not found" is reported as apperror.ErrNotFound and every
// list method returns rows in the order its doc comment states.
package repository

import (
	"context"

	"github.com/protanvir/runners-bd/internal/model"
)

// AccountRepository stores OAuth identities.
type AccountRepository interface {
	// UpsertAccount inserts or refreshes an account keyed on
	// (Provider, ProviderUserID). On return account.ID and CreatedAt are set.
	UpsertAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
}

// ProfileRepository stores the one-to-one public profile of each account.
type ProfileRepository interface {
	// EnsureProfile inserts profile if no row with profile.ID exists, then
	// loads the stored row back into profile. Existing rows are not modified.
	EnsureProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	// ListProfiles returns every profile, newest first.
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) error
	SetRole(ctx context.Context, id string, role model.Role) error
	SetCapability(ctx context.Context, id string, c model.Capability, value bool) error
	SetAvatarURL(ctx context.Context, id, url string) error

	// SaveStravaLink stores the tracker tokens as given; callers seal them first.
	SaveStravaLink(ctx context.Context, id string, link model.StravaLink) error
	// GetStravaLink returns apperror.ErrNotFound when the profile never connected.
	GetStravaLink(ctx context.Context, id string) (*model.StravaLink, error)
	// ListStravaLinked returns the ids of all connected profiles.
	ListStravaLinked(ctx context.Context) ([]string, error)
}

// EventRepository stores events and their RSVPs.
type EventRepository interface {
	// ListEvents returns events soonest first with organizer and attendee count.
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	CreateEvent(ctx context.Context, event *model.Event) error
	// CreateAttendance returns apperror.ErrAlreadyJoined when the
	// (event, user) pair already exists.
	CreateAttendance(ctx context.Context, a *model.Attendance) error
	// ListAttendees returns RSVPs in the order they were made.
	ListAttendees(ctx context.Context, eventID string) ([]model.Attendance, error)
}

// ForumRepository stores forum categories (read-only) and posts.
type ForumRepository interface {
	ListCategories(ctx context.Context) ([]model.ForumCategory, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.ForumCategory, error)
	// ListPosts returns a category's posts newest first with their author.
	ListPosts(ctx context.Context, categoryID string) ([]model.ForumPost, error)
	CreatePost(ctx context.Context, post *model.ForumPost) error
}

// GearRepository stores gear reviews.
type GearRepository interface {
	// ListReviews returns all reviews newest first with their author.
	ListReviews(ctx context.Context) ([]model.GearReview, error)
	CreateReview(ctx context.Context, review *model.GearReview) error
}

// ActivityRepository stores runs. Inserting an activity also updates the
// leaderboard totals in the same transaction.
type ActivityRepository interface {
	// CreateActivity reports false when an activity with the same
	// (Source, ExternalID) was already stored; nothing changes in that case.
	CreateActivity(ctx context.Context, a *model.Activity) (bool, error)
	// ListActivitiesWithProfiles returns the whole history in insertion order.
	ListActivitiesWithProfiles(ctx context.Context) ([]model.ActivityWithProfile, error)
}

// LeaderboardRepository reads and rebuilds the materialized running totals.
type LeaderboardRepository interface {
	// ListTotals returns totals ordered by distance descending, ties in
	// first-seen order. Rank and Medal are left for the caller.
	ListTotals(ctx context.Context) ([]model.LeaderboardEntry, error)
	// RebuildTotals reads the history and replaces the whole table with
	// build's result inside one transaction. Entry.FirstSeen is stored as
	// the tie-break order.
	RebuildTotals(ctx context.Context, build func([]model.ActivityWithProfile) []model.LeaderboardEntry) error
}
