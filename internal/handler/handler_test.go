package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protanvir/runners-bd/internal/auth"
	"github.com/protanvir/runners-bd/internal/handler"
	"github.com/protanvir/runners-bd/internal/model"
	sqliteRepo "github.com/protanvir/runners-bd/internal/repository/sqlite"
	"github.com/protanvir/runners-bd/internal/service"
	"github.com/protanvir/runners-bd/internal/session"
)

// env wires real services over an in-memory database.
type env struct {
	db     *sqliteRepo.DB
	store  *session.Store
	logger *slog.Logger

	profiles    *handler.ProfileHandler
	events      *handler.EventHandler
	forums      *handler.ForumHandler
	gear        *handler.GearHandler
	leaderboard *handler.LeaderboardHandler
	training    *handler.TrainingHandler
	admin       *handler.AdminHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewStore(nil, nil, auth.Cookies{}, db, db, nil, logger)

	return &env{
		db:          db,
		store:       store,
		logger:      logger,
		profiles:    handler.NewProfileHandler(service.NewProfileService(db, nil, logger), store, logger),
		events:      handler.NewEventHandler(service.NewEventService(db, logger), logger),
		forums:      handler.NewForumHandler(service.NewForumService(db, logger), logger),
		gear:        handler.NewGearHandler(service.NewGearService(db, logger), logger),
		leaderboard: handler.NewLeaderboardHandler(service.NewLeaderboardService(db, logger), service.NewActivityService(db, logger), logger),
		training:    handler.NewTrainingHandler(service.NewTrainingService()),
		admin:       handler.NewAdminHandler(service.NewAdminService(db, logger), logger),
	}
}

// signIn creates an account and profile and returns its session.
func (e *env) signIn(t *testing.T, login, fullName string) model.Session {
	t.Helper()
	ctx := context.Background()
	acct := &model.Account{Provider: "github", ProviderUserID: login, Email: login + "@example.com", EmailVerified: true}
	require.NoError(t, e.db.UpsertAccount(ctx, acct))
	p := &model.Profile{ID: acct.ID, Email: acct.Email, Username: login, FullName: fullName}
	require.NoError(t, e.db.EnsureProfile(ctx, p))
	return model.Session{User: acct, Profile: p}
}

func (e *env) signInAdmin(t *testing.T, login string) model.Session {
	t.Helper()
	sess := e.signIn(t, login, "Admin "+login)
	require.NoError(t, e.db.SetRole(context.Background(), sess.UserID(), model.RoleSuperadmin))
	return e.store.Refresh(context.Background(), sess)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withParams attaches chi URL params the way the router would.
func withParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

// ===== EVENT TESTS =====

func TestEventHandler_CreateAndRSVP(t *testing.T) {
	e := newEnv(t)
	organizer := e.signIn(t, "org", "Organizer")
	runner := e.signIn(t, "runner", "Runner")

	rr := httptest.NewRecorder()
	e.events.HandleCreate(rr, jsonRequest(http.MethodPost, "/api/events",
		`{"title":"Sunday Long Run","event_date":"2026-11-01T06:00:00+06:00","location":"Hatirjheel","event_type":"group_run"}`), organizer)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created model.Event
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	t.Run("first RSVP is created", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := withParams(httptest.NewRequest(http.MethodPost, "/api/events/"+created.ID+"/rsvp", nil), "id", created.ID)
		e.events.HandleRSVP(rr, req, runner)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("second RSVP is already joined", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := withParams(httptest.NewRequest(http.MethodPost, "/api/events/"+created.ID+"/rsvp", nil), "id", created.ID)
		e.events.HandleRSVP(rr, req, runner)
		assert.Equal(t, http.StatusConflict, rr.Code)

		resp := decodeError(t, rr)
		assert.Equal(t, "already_joined", resp.Error)
		assert.Equal(t, "You have already RSVP'd to this event!", resp.Message)
		assert.Empty(t, resp.Field)
	})

	t.Run("list shows attendee count", func(t *testing.T) {
		rr := httptest.NewRecorder()
		e.events.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/events", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var events []model.Event
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&events))
		require.Len(t, events, 1)
		assert.Equal(t, 1, events[0].AttendeeCount)
		require.NotNil(t, events[0].Organizer)
		assert.Equal(t, "Organizer", events[0].Organizer.FullName)
	})
}

func TestEventHandler_CreateSignedOut(t *testing.T) {
	e := newEnv(t)

	rr := httptest.NewRecorder()
	e.events.HandleCreate(rr, jsonRequest(http.MethodPost, "/api/events", `{"title":"x"}`), model.Session{})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rr).Error)
}

func TestEventHandler_CreateWithoutCapability(t *testing.T) {
	e := newEnv(t)
	sess := e.signIn(t, "muted", "Muted Runner")
	require.NoError(t, e.db.SetCapability(context.Background(), sess.UserID(), model.CanCreateEvent, false))
	sess = e.store.Refresh(context.Background(), sess)

	rr := httptest.NewRecorder()
	e.events.HandleCreate(rr, jsonRequest(http.MethodPost, "/api/events",
		`{"title":"Blocked","event_date":"2026-11-01T06:00:00Z"}`), sess)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestEventHandler_BadJSON(t *testing.T) {
	e := newEnv(t)
	sess := e.signIn(t, "org", "Organizer")

	rr := httptest.NewRecorder()
	e.events.HandleCreate(rr, jsonRequest(http.MethodPost, "/api/events", `{"title":`), sess)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "validation_error", decodeError(t, rr).Error)
}

func TestEventHandler_EmptyListIsArray(t *testing.T) {
	e := newEnv(t)

	rr := httptest.NewRecorder()
	e.events.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestEventHandler_AttendeesUnknownEvent(t *testing.T) {
	e := newEnv(t)

	rr := httptest.NewRecorder()
	e.events.HandleAttendees(rr, withParams(httptest.NewRequest(http.MethodGet, "/api/events/nope/attendees", nil), "id", "nope"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// ===== FORUM TESTS =====

func TestForumHandler_PostAndList(t *testing.T) {
	e := newEnv(t)
	sess := e.signIn(t, "poster", "Poster")

	rr := httptest.NewRecorder()
	e.forums.HandleCategories(rr, httptest.NewRequest(http.MethodGet, "/api/forums/categories", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var categories []model.ForumCategory
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&categories))
	require.NotEmpty(t, categories)
	slug := categories[0].Slug

	rr = httptest.NewRecorder()
	req := withParams(jsonRequest(http.MethodPost, "/api/forums/categories/"+slug+"/posts",
		`{"title":"Hello","content":"*first* run <b>today</b>"}`), "slug", slug)
	e.forums.HandleCreatePost(rr, req, sess)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	e.forums.HandlePosts(rr, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "slug", slug))
	require.Equal(t, http.StatusOK, rr.Code)

	var posts []model.ForumPost
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&posts))
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].ContentHTML, "<em>first</em>")
	assert.NotContains(t, posts[0].ContentHTML, "<b>")
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "Poster", posts[0].Author.FullName)
}

func TestForumHandler_UnknownCategory(t *testing.T) {
	e := newEnv(t)

	rr := httptest.NewRecorder()
	e.forums.HandlePosts(rr, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "slug", "nope"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// ===== GEAR TESTS =====

func TestGearHandler_CreateValidation(t *testing.T) {
	e := newEnv(t)
	sess := e.signIn(t, "reviewer", "Reviewer")

	rr := httptest.NewRecorder()
	e.gear.HandleCreate(rr, jsonRequest(http.MethodPost, "/api/gear",
		`{"gear_name":"Pegasus","gear_type":"Shoes","rating":9}`), sess)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "rating", resp.Field)

	rr = httptest.NewRecorder()
	e.gear.HandleCreate(rr, jsonRequest(http.MethodPost, "/api/gear",
		`{"gear_name":"Pegasus","gear_type":"Shoes","rating":5,"review_text":"Love them"}`), sess)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	e.gear.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/gear?q=LOVE", nil))
	var reviews []model.GearReview
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&reviews))
	assert.Len(t, reviews, 1)
}

func TestGearHandler_Types(t *testing.T) {
	e := newEnv(t)

	rr := httptest.NewRecorder()
	e.gear.HandleTypes(rr, httptest.NewRequest(http.MethodGet, "/api/gear/types", nil))
	var types []string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&types))
	assert.Equal(t, model.GearTypes, types)
}

// ===== LEADERBOARD TESTS =====

func TestLeaderboardHandler_LogThenStandings(t *testing.T) {
	e := newEnv(t)
	a := e.signIn(t, "a", "Ayesha")
	b := e.signIn(t, "b", "Bilal")

	for _, tc := range []struct {
		sess model.Session
		body string
	}{
		{a, `{"name":"Easy","distance_km":5}`},
		{b, `{"name":"Long","distance_km":12}`},
		{a, `{"name":"Tempo","distance_km":8}`},
	} {
		rr := httptest.NewRecorder()
		e.leaderboard.HandleLogActivity(rr, jsonRequest(http.MethodPost, "/api/activities", tc.body), tc.sess)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := httptest.NewRecorder()
	e.leaderboard.HandleStandings(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var standings service.Standings
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&standings))
	require.Len(t, standings.Entries, 2)
	assert.Equal(t, "Ayesha", standings.Entries[0].FullName)
	assert.InDelta(t, 13, standings.Entries[0].TotalDistance, 1e-9)
	assert.Equal(t, model.MedalGold, standings.Entries[0].Medal)
	assert.Equal(t, 2, standings.Entries[1].Rank)
}

func TestLeaderboardHandler_NegativeDistance(t *testing.T) {
	e := newEnv(t)
	sess := e.signIn(t, "a", "Ayesha")

	rr := httptest.NewRecorder()
	e.leaderboard.HandleLogActivity(rr, jsonRequest(http.MethodPost, "/api/activities", `{"distance_km":-3}`), sess)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ===== TRAINING TESTS =====

func TestTrainingHandler_LevelFilter(t *testing.T) {
	e := newEnv(t)

	rr := httptest.NewRecorder()
	e.training.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/training?level=advanced", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resources []model.TrainingResource
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resources))
	require.Len(t, resources, 2)
	assert.Equal(t, "Interval Training 101", resources[1].Title)
}

// ===== PROFILE TESTS =====

func TestProfileHandler_UpdateReturnsRefreshedProfile(t *testing.T) {
	e := newEnv(t)
	sess := e.signIn(t, "nusrat", "Nusrat")

	rr := httptest.NewRecorder()
	e.profiles.HandleUpdate(rr, jsonRequest(http.MethodPut, "/api/profile",
		`{"full_name":"Nusrat Jahan","bio":"5k a day","location":"Sylhet","running_level":"intermediate"}`), sess)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var p model.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	assert.Equal(t, "Nusrat Jahan", p.FullName)
	assert.Equal(t, "intermediate", p.RunningLevel)
	assert.Equal(t, model.RoleUser, p.Role)
}

func TestProfileHandler_DirectoryHidesEmail(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "nusrat", "Nusrat")

	rr := httptest.NewRecorder()
	e.profiles.HandleDirectory(rr, httptest.NewRequest(http.MethodGet, "/api/profiles?q=nus", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "@example.com")

	var profiles []model.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&profiles))
	assert.Len(t, profiles, 1)
}

func TestProfileHandler_AvatarUnavailable(t *testing.T) {
	e := newEnv(t)
	sess := e.signIn(t, "nusrat", "Nusrat")

	var body bytes.Buffer
	body.WriteString("--b\r\nContent-Disposition: form-data; name=\"avatar\"; filename=\"a.png\"\r\nContent-Type: image/png\r\n\r\npng\r\n--b--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")

	rr := httptest.NewRecorder()
	e.profiles.HandleAvatar(rr, req, sess)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

type fakeAvatarStore struct{}

func (fakeAvatarStore) Put(_ context.Context, key, _ string, _ io.Reader, _ int64) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func TestProfileHandler_AvatarReturnsProfile(t *testing.T) {
	e := newEnv(t)
	h := handler.NewProfileHandler(service.NewProfileService(e.db, fakeAvatarStore{}, e.logger), e.store, e.logger)
	sess := e.signIn(t, "nusrat", "Nusrat")

	var body bytes.Buffer
	body.WriteString("--b\r\nContent-Disposition: form-data; name=\"avatar\"; filename=\"a.png\"\r\nContent-Type: image/png\r\n\r\npng\r\n--b--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")

	rr := httptest.NewRecorder()
	h.HandleAvatar(rr, req, sess)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var p model.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	assert.Equal(t, sess.UserID(), p.ID)
	assert.Equal(t, "Nusrat", p.FullName)
	assert.True(t, strings.HasPrefix(p.AvatarURL, "https://cdn.example.com/"), p.AvatarURL)

	stored, err := e.db.GetProfile(context.Background(), sess.UserID())
	require.NoError(t, err)
	assert.Equal(t, p.AvatarURL, stored.AvatarURL)
}

// ===== ADMIN TESTS =====

func TestAdminHandler_Toggle(t *testing.T) {
	e := newEnv(t)
	admin := e.signInAdmin(t, "root")
	target := e.signIn(t, "runner", "Runner")

	rr := httptest.NewRecorder()
	e.admin.HandleProfiles(rr, httptest.NewRequest(http.MethodGet, "/api/admin/profiles?q=runner@", nil), admin)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []model.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&listed))
	require.Len(t, listed, 1)

	rr = httptest.NewRecorder()
	req := withParams(jsonRequest(http.MethodPost, "/", `{"capability":"can_create_post"}`), "id", target.UserID())
	e.admin.HandleToggle(rr, req, admin)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var p model.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	assert.False(t, p.CanCreatePost)

	stored, err := e.db.GetProfile(context.Background(), target.UserID())
	require.NoError(t, err)
	assert.False(t, stored.CanCreatePost)
	assert.True(t, stored.CanCreateEvent)
}

func TestAdminHandler_UnknownCapability(t *testing.T) {
	e := newEnv(t)
	admin := e.signInAdmin(t, "root")
	target := e.signIn(t, "runner", "Runner")

	rr := httptest.NewRecorder()
	req := withParams(jsonRequest(http.MethodPost, "/", `{"capability":"role"}`), "id", target.UserID())
	e.admin.HandleToggle(rr, req, admin)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ===== SESSION TESTS =====

type stubProvider struct{}

func (stubProvider) Name() string                { return "stub" }
func (stubProvider) AuthURL(state string) string { return "https://idp.example/authorize?state=" + state }
func (stubProvider) Exchange(_ context.Context, code string) (*auth.Identity, error) {
	return &auth.Identity{
		Provider:       "stub",
		ProviderUserID: "42",
		Email:          "coach@example.com",
		EmailVerified:  true,
		Username:       "coach",
		FullName:       "Coach",
	}, nil
}

func newAuthStore(t *testing.T) (*session.Store, *sqliteRepo.DB) {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-123", time.Hour)
	require.NoError(t, err)
	providers := auth.Providers{}
	providers.Register(stubProvider{})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.NewStore(tokens, providers, auth.Cookies{}, db, db, nil, logger), db
}

func TestAuthHandler_SessionSignedOut(t *testing.T) {
	store, _ := newAuthStore(t)
	h := handler.NewAuthHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rr := httptest.NewRecorder()
	store.With(h.HandleSession)(rr, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp handler.SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Authenticated)
	assert.Nil(t, resp.Profile)
	assert.Equal(t, []string{"stub"}, resp.Providers)
}

func TestAuthHandler_LoginCallbackSession(t *testing.T) {
	store, _ := newAuthStore(t)
	h := handler.NewAuthHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Get("/auth/{provider}/login", h.HandleLogin)
	r.Get("/auth/{provider}/callback", h.HandleCallback)
	r.Get("/api/session", store.With(h.HandleSession))

	// login: redirect with a state cookie
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/stub/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	var stateCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.StateCookie {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	assert.Contains(t, rr.Header().Get("Location"), "state="+stateCookie.Value)

	// callback: session cookie and redirect home
	req := httptest.NewRequest(http.MethodGet, "/auth/stub/callback?code=ok&state="+stateCookie.Value, nil)
	req.AddCookie(stateCookie)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	var sessionCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.Value != "" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	// session: resolved from the cookie
	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(sessionCookie)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp handler.SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "Coach", resp.Profile.FullName)
	assert.NotNil(t, resp.ExpiresAt)
}

func TestAuthHandler_CallbackStateMismatch(t *testing.T) {
	store, _ := newAuthStore(t)
	h := handler.NewAuthHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := withParams(httptest.NewRequest(http.MethodGet, "/auth/stub/callback?code=ok&state=forged", nil), "provider", "stub")
	rr := httptest.NewRecorder()
	h.HandleCallback(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_UnknownProvider(t *testing.T) {
	store, _ := newAuthStore(t)
	h := handler.NewAuthHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rr := httptest.NewRecorder()
	h.HandleLogin(rr, withParams(httptest.NewRequest(http.MethodGet, "/auth/myspace/login", nil), "provider", "myspace"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	store, _ := newAuthStore(t)
	h := handler.NewAuthHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

// ===== LANDING TESTS =====

func TestLandingHandler(t *testing.T) {
	h, err := handler.NewLandingHandler([]string{"github", "google"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.HandleLanding(rr, httptest.NewRequest(http.MethodGet, "/", nil), model.Session{})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "/auth/github/login")
	assert.Contains(t, rr.Body.String(), "/api/leaderboard")
}
