// Package handler contains the HTTP handlers of the runners community API.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming request (path params, query, JSON body)
//  2. Call the service layer
//  3. Write the response through writeJSON / writeError
//
// Handlers that act for the caller take the resolved model.Session as a third
// argument and are adapted with session.Store.With / Require / Elevated at
// the router. No handler reads the caller from the request context.
package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/protanvir/runners-bd/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// LandingHandler renders the home page.
// Templates are parsed once at startup and reused.
type LandingHandler struct {
	templates *template.Template
	providers []string
	logger    *slog.Logger
}

// NewLandingHandler parses the embedded templates. providers are the
// sign-in options offered to signed-out visitors.
func NewLandingHandler(providers []string, logger *slog.Logger) (*LandingHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &LandingHandler{templates: tmpl, providers: providers, logger: logger}, nil
}

// landingData is what the home page template sees.
type landingData struct {
	Title     string
	SignedIn  bool
	Name      string
	Providers []string
	Sections  []landingSection
}

type landingSection struct {
	Name string
	Path string
}

var landingSections = []landingSection{
	{"Runners", "/api/profiles"},
	{"Events", "/api/events"},
	{"Forums", "/api/forums/categories"},
	{"Gear reviews", "/api/gear"},
	{"Leaderboard", "/api/leaderboard"},
	{"Training", "/api/training"},
}

// HandleLanding serves the home page.
//
// HTTP: GET /
func (h *LandingHandler) HandleLanding(w http.ResponseWriter, r *http.Request, sess model.Session) {
	data := landingData{
		Title:     "Runners BD",
		SignedIn:  sess.Authenticated(),
		Providers: h.providers,
		Sections:  landingSections,
	}
	if sess.Authenticated() {
		data.Name = sess.Profile.FullName
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "landing", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
