package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// Each returns copies so a test cannot mutate stored state by accident.

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// ----- profiles -----

type mockProfileRepo struct {
	mu       sync.Mutex
	order    []string
	profiles map[string]*model.Profile
	links    map[string]model.StravaLink

	setCapabilityErr error
	setCapCalls      int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{
		profiles: make(map[string]*model.Profile),
		links:    make(map[string]model.StravaLink),
	}
}

// add stores p as the newest profile.
func (m *mockProfileRepo) add(p model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = &p
	m.order = append(m.order, p.ID)
}

func (m *mockProfileRepo) EnsureProfile(_ context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[p.ID]; ok {
		*p = *existing
		return nil
	}
	stored := *p
	m.profiles[p.ID] = &stored
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockProfileRepo) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	out := *p
	return &out, nil
}

func (m *mockProfileRepo) ListProfiles(_ context.Context) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Profile, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, *m.profiles[m.order[i]])
	}
	return out, nil
}

func (m *mockProfileRepo) UpdateProfile(_ context.Context, id string, upd model.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return apperror.NotFound("profile", id)
	}
	p.FullName = upd.FullName
	p.Bio = upd.Bio
	p.Location = upd.Location
	p.RunningLevel = upd.RunningLevel
	return nil
}

func (m *mockProfileRepo) SetRole(_ context.Context, id string, role model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return apperror.NotFound("profile", id)
	}
	p.Role = role
	return nil
}

func (m *mockProfileRepo) SetCapability(_ context.Context, id string, c model.Capability, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCapCalls++
	if m.setCapabilityErr != nil {
		return m.setCapabilityErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return apperror.NotFound("profile", id)
	}
	if p.Elevated() {
		return apperror.Forbidden("the superadmin role is exempt from capability toggles")
	}
	p.SetFlag(c, value)
	return nil
}

func (m *mockProfileRepo) SetAvatarURL(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return apperror.NotFound("profile", id)
	}
	p.AvatarURL = url
	return nil
}

func (m *mockProfileRepo) SaveStravaLink(_ context.Context, id string, link model.StravaLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return apperror.NotFound("profile", id)
	}
	m.links[id] = link
	m.profiles[id].StravaConnected = true
	return nil
}

func (m *mockProfileRepo) GetStravaLink(_ context.Context, id string) (*model.StravaLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok {
		return nil, apperror.NotFound("strava link", id)
	}
	return &link, nil
}

func (m *mockProfileRepo) ListStravaLinked(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for _, id := range m.order {
		if _, ok := m.links[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ----- events -----

type mockEventRepo struct {
	events    map[string]*model.Event
	attendees []model.Attendance
	nextID    int
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) ListEvents(_ context.Context) ([]model.Event, error) {
	out := []model.Event{}
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEventRepo) GetEvent(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, apperror.NotFound("event", id)
	}
	out := *e
	return &out, nil
}

func (m *mockEventRepo) CreateEvent(_ context.Context, e *model.Event) error {
	m.nextID++
	e.ID = fmt.Sprintf("evt-%d", m.nextID)
	stored := *e
	m.events[e.ID] = &stored
	return nil
}

func (m *mockEventRepo) CreateAttendance(_ context.Context, a *model.Attendance) error {
	for _, existing := range m.attendees {
		if existing.EventID == a.EventID && existing.UserID == a.UserID {
			return apperror.AlreadyJoined()
		}
	}
	m.nextID++
	a.ID = fmt.Sprintf("att-%d", m.nextID)
	m.attendees = append(m.attendees, *a)
	return nil
}

func (m *mockEventRepo) ListAttendees(_ context.Context, eventID string) ([]model.Attendance, error) {
	out := []model.Attendance{}
	for _, a := range m.attendees {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ----- forums -----

type mockForumRepo struct {
	categories []model.ForumCategory
	posts      []model.ForumPost
}

func newMockForumRepo() *mockForumRepo {
	return &mockForumRepo{categories: []model.ForumCategory{
		{ID: "cat-1", Name: "General Discussion", Slug: "general-discussion"},
		{ID: "cat-2", Name: "Gear Talk", Slug: "gear-talk"},
	}}
}

func (m *mockForumRepo) ListCategories(_ context.Context) ([]model.ForumCategory, error) {
	return append([]model.ForumCategory{}, m.categories...), nil
}

func (m *mockForumRepo) GetCategoryBySlug(_ context.Context, slug string) (*model.ForumCategory, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			out := c
			return &out, nil
		}
	}
	return nil, apperror.NotFound("forum category", slug)
}

func (m *mockForumRepo) ListPosts(_ context.Context, categoryID string) ([]model.ForumPost, error) {
	out := []model.ForumPost{}
	for i := len(m.posts) - 1; i >= 0; i-- {
		if m.posts[i].CategoryID == categoryID {
			out = append(out, m.posts[i])
		}
	}
	return out, nil
}

func (m *mockForumRepo) CreatePost(_ context.Context, p *model.ForumPost) error {
	p.ID = fmt.Sprintf("post-%d", len(m.posts)+1)
	m.posts = append(m.posts, *p)
	return nil
}

// ----- gear -----

type mockGearRepo struct {
	reviews []model.GearReview
}

func (m *mockGearRepo) ListReviews(_ context.Context) ([]model.GearReview, error) {
	out := []model.GearReview{}
	for i := len(m.reviews) - 1; i >= 0; i-- {
		out = append(out, m.reviews[i])
	}
	return out, nil
}

func (m *mockGearRepo) CreateReview(_ context.Context, r *model.GearReview) error {
	r.ID = fmt.Sprintf("gear-%d", len(m.reviews)+1)
	m.reviews = append(m.reviews, *r)
	return nil
}

// ----- activities and totals -----

type mockActivityRepo struct {
	mu         sync.Mutex
	activities []model.Activity
	names      map[string]string
	totals     []model.LeaderboardEntry
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{names: make(map[string]string)}
}

func (m *mockActivityRepo) CreateActivity(_ context.Context, a *model.Activity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ExternalID != "" {
		for _, existing := range m.activities {
			if existing.Source == a.Source && existing.ExternalID == a.ExternalID {
				return false, nil
			}
		}
	}
	if a.ID == "" {
		a.ID = fmt.Sprintf("act-%d", len(m.activities)+1)
	}
	m.activities = append(m.activities, *a)
	return true, nil
}

func (m *mockActivityRepo) ListActivitiesWithProfiles(_ context.Context) ([]model.ActivityWithProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history(), nil
}

func (m *mockActivityRepo) history() []model.ActivityWithProfile {
	out := []model.ActivityWithProfile{}
	for _, a := range m.activities {
		d := a.DistanceKm
		out = append(out, model.ActivityWithProfile{
			UserID:     a.UserID,
			DistanceKm: &d,
			User:       &model.PersonRef{FullName: m.names[a.UserID]},
		})
	}
	return out
}

func (m *mockActivityRepo) ListTotals(_ context.Context) ([]model.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.LeaderboardEntry{}, m.totals...), nil
}

func (m *mockActivityRepo) RebuildTotals(_ context.Context, build func([]model.ActivityWithProfile) []model.LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := build(m.history())
	m.totals = make([]model.LeaderboardEntry, len(entries))
	for i, e := range entries {
		e.Rank = 0
		e.Medal = ""
		m.totals[i] = e
	}
	return nil
}

// ----- avatar store -----

type mockAvatarStore struct {
	keys []string
	err  error
}

func (m *mockAvatarStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/" + key, nil
}

// =========================================================================
// SESSION HELPERS
// =========================================================================

func signedIn(p model.Profile) model.Session {
	return model.Session{
		User:      &model.Account{ID: p.ID, Email: p.Email},
		Profile:   &p,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func runner(id, name string) model.Profile {
	return model.Profile{
		ID:              id,
		Email:           id + "@example.com",
		Username:        id,
		FullName:        name,
		RunningLevel:    model.DefaultRunningLevel,
		Role:            model.RoleUser,
		CanCreateEvent:  true,
		CanCreateReview: true,
		CanCreatePost:   true,
	}
}

func superadmin(id string) model.Profile {
	p := runner(id, "Admin "+id)
	p.Role = model.RoleSuperadmin
	return p
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got %v", target, err)
	}
}
