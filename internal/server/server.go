// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the database, session store, services,
// handlers and background jobs are all created in New and nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/protanvir/runners-bd/internal/auth"
	"github.com/protanvir/runners-bd/internal/config"
	"github.com/protanvir/runners-bd/internal/handler"
	"github.com/protanvir/runners-bd/internal/middleware"
	sqliteRepo "github.com/protanvir/runners-bd/internal/repository/sqlite"
	"github.com/protanvir/runners-bd/internal/scheduler"
	"github.com/protanvir/runners-bd/internal/secretbox"
	"github.com/protanvir/runners-bd/internal/service"
	"github.com/protanvir/runners-bd/internal/session"
	"github.com/protanvir/runners-bd/internal/storage/avatar"
	"github.com/protanvir/runners-bd/internal/strava"
	"github.com/protanvir/runners-bd/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and the scheduler; both are
// released when Start returns or Close is called.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	jobs   *scheduler.Scheduler
}

// deps is everything the routes need, built once in New.
type deps struct {
	store       *session.Store
	auth        *handler.AuthHandler
	landing     *handler.LandingHandler
	profiles    *handler.ProfileHandler
	events      *handler.EventHandler
	forums      *handler.ForumHandler
	gear        *handler.GearHandler
	leaderboard *handler.LeaderboardHandler
	training    *handler.TrainingHandler
	admin       *handler.AdminHandler
	strava      *handler.StravaHandler
	relay       *handler.RelayHandler
}

// New opens the database, wires every layer and registers the routes.
//
// Optional integrations (sign-in, Strava, avatar uploads) are left off when
// their configuration is missing; the matching routes then answer 503 or
// behave as signed out.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	d, stravaSvc, leaderboardSvc, err := s.build(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	jobs := []scheduler.Job{{
		Name:     "leaderboard-reconcile",
		Interval: cfg.LeaderboardReconcileInterval,
		Run:      leaderboardSvc.Reconcile,
	}}
	if stravaSvc.Enabled() {
		jobs = append(jobs, scheduler.Job{
			Name:     "strava-sync",
			Interval: cfg.StravaSyncInterval,
			Run:      stravaSvc.SyncAll,
		})
	}
	s.jobs, err = scheduler.New(logger, jobs...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	s.setupRoutes(d)
	return s, nil
}

// build creates the session store, services and handlers.
func (s *Server) build(ctx context.Context) (deps, *service.StravaService, *service.LeaderboardService, error) {
	cfg, logger, db := s.config, s.logger, s.db

	// === SESSIONS ===
	var tokens *auth.TokenService
	if cfg.AuthEnabled() {
		var err error
		tokens, err = auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
		if err != nil {
			return deps{}, nil, nil, fmt.Errorf("creating token service: %w", err)
		}
	} else {
		logger.Warn("JWT_SECRET not set, sign-in is disabled")
	}

	providers := auth.Providers{}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		providers.Register(auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.CallbackURL("/auth/github/callback")))
	}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers.Register(auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.CallbackURL("/auth/google/callback")))
	}

	cookies := auth.Cookies{Secure: strings.HasPrefix(cfg.BaseURL, "https://")}
	store := session.NewStore(tokens, providers, cookies, db, db, cfg, logger)

	// === STRAVA ===
	box, err := secretbox.New(cfg.TokenEncryptionKey)
	if err != nil {
		return deps{}, nil, nil, fmt.Errorf("creating token box: %w", err)
	}

	// Interfaces stay untyped nil when Strava is not configured.
	var (
		stravaClient service.StravaClient
		exchanger    handler.TokenExchanger
	)
	if cfg.StravaEnabled() {
		c := strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret, cfg.StravaTokenURL, cfg.StravaAPIURL, nil)
		stravaClient = c
		exchanger = c
		if box.Passthrough() {
			logger.Warn("TOKEN_ENCRYPTION_KEY not set, Strava tokens are stored unencrypted")
		}
	} else {
		logger.Info("Strava credentials not set, Strava integration is disabled")
	}

	// === AVATARS ===
	var avatars service.AvatarStore
	if cfg.AvatarsEnabled() {
		s3Store, err := avatar.NewS3Store(ctx, avatar.Config{
			Bucket:          cfg.AvatarBucket,
			Region:          cfg.AvatarRegion,
			Endpoint:        cfg.AvatarEndpoint,
			AccessKeyID:     cfg.AvatarAccessKeyID,
			SecretAccessKey: cfg.AvatarSecretAccessKey,
			PublicURL:       cfg.AvatarPublicURL,
		})
		if err != nil {
			return deps{}, nil, nil, fmt.Errorf("creating avatar store: %w", err)
		}
		avatars = s3Store
	}

	// === SERVICES ===
	profileSvc := service.NewProfileService(db, avatars, logger)
	leaderboardSvc := service.NewLeaderboardService(db, logger)
	stravaSvc := service.NewStravaService(stravaClient, db, db, box, cfg.CallbackURL("/api/strava/callback"), logger)

	// === HANDLERS ===
	landing, err := handler.NewLandingHandler(store.Providers(), logger)
	if err != nil {
		return deps{}, nil, nil, fmt.Errorf("creating landing handler: %w", err)
	}

	d := deps{
		store:       store,
		auth:        handler.NewAuthHandler(store, logger),
		landing:     landing,
		profiles:    handler.NewProfileHandler(profileSvc, store, logger),
		events:      handler.NewEventHandler(service.NewEventService(db, logger), logger),
		forums:      handler.NewForumHandler(service.NewForumService(db, logger), logger),
		gear:        handler.NewGearHandler(service.NewGearService(db, logger), logger),
		leaderboard: handler.NewLeaderboardHandler(leaderboardSvc, service.NewActivityService(db, logger), logger),
		training:    handler.NewTrainingHandler(service.NewTrainingService()),
		admin:       handler.NewAdminHandler(service.NewAdminService(db, logger), logger),
		strava:      handler.NewStravaHandler(stravaSvc, cookies, logger),
		relay:       handler.NewRelayHandler(exchanger, logger),
	}
	return d, stravaSvc, leaderboardSvc, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /                                      landing page
//	GET  /healthz                               database ping
//	GET  /auth/{provider}/login|callback        OAuth sign-in
//	POST /auth/logout
//	     /api/...                               JSON API
//	OPTIONS|POST /functions/strava-auth         token relay
//
// Session adapters: With passes the caller (possibly signed out), Require
// answers 401 for signed-out callers, Elevated redirects non-admins to /.
func (s *Server) setupRoutes(d deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	store := d.store

	s.router.Get("/", store.With(d.landing.HandleLanding))
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/{provider}/login", d.auth.HandleLogin)
		r.Get("/{provider}/callback", d.auth.HandleCallback)
		r.Post("/logout", d.auth.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/session", store.With(d.auth.HandleSession))

		// Profiles
		r.Get("/profiles", d.profiles.HandleDirectory)
		r.Get("/profiles/{id}", d.profiles.HandleGet)
		r.Put("/profile", store.Require(d.profiles.HandleUpdate))
		r.Post("/profile/avatar", store.Require(d.profiles.HandleAvatar))

		// Events
		r.Get("/events", d.events.HandleList)
		r.Post("/events", store.Require(d.events.HandleCreate))
		r.Post("/events/{id}/rsvp", store.Require(d.events.HandleRSVP))
		r.Get("/events/{id}/attendees", d.events.HandleAttendees)

		// Forums
		r.Get("/forums/categories", d.forums.HandleCategories)
		r.Get("/forums/categories/{slug}/posts", d.forums.HandlePosts)
		r.Post("/forums/categories/{slug}/posts", store.Require(d.forums.HandleCreatePost))

		// Gear
		r.Get("/gear", d.gear.HandleList)
		r.Get("/gear/types", d.gear.HandleTypes)
		r.Post("/gear", store.Require(d.gear.HandleCreate))

		// Leaderboard
		r.Get("/leaderboard", d.leaderboard.HandleStandings)
		r.Post("/activities", store.Require(d.leaderboard.HandleLogActivity))

		r.Get("/training", d.training.HandleList)

		// Admin
		r.Get("/admin/profiles", store.Elevated(d.admin.HandleProfiles))
		r.Post("/admin/profiles/{id}/toggle", store.Elevated(d.admin.HandleToggle))

		// Strava
		r.Get("/strava/connect", store.Require(d.strava.HandleConnect))
		r.Get("/strava/callback", store.Require(d.strava.HandleCallback))
		r.Get("/strava/activities", store.Require(d.strava.HandleActivities))
		r.Post("/strava/sync", store.Require(d.strava.HandleSync))
	})

	s.router.Method(http.MethodOptions, "/functions/strava-auth", d.relay)
	s.router.Method(http.MethodPost, "/functions/strava-auth", d.relay)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}

// Handler is the router wrapped in tracing.
func (s *Server) Handler() http.Handler {
	return telemetry.Middleware(s.router)
}

// Close stops the scheduler and closes the database.
func (s *Server) Close() error {
	return errors.Join(s.jobs.Shutdown(), s.db.Close())
}

// Start runs the scheduler and the HTTP server until SIGINT or SIGTERM, then
// shuts down gracefully:
//  1. Stop accepting connections and wait up to 30s for in-flight requests
//  2. Stop the scheduler, waiting for running jobs
//  3. Close the database
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing server resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	s.jobs.Start()

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("url", s.config.BaseURL),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
