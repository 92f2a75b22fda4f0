package handler

import (
	"log/slog"
	"net/http"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/service"
)

// LeaderboardHandler serves the standings and the manual activity log.
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
	activities  *service.ActivityService
	logger      *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(
	leaderboard *service.LeaderboardService,
	activities *service.ActivityService,
	logger *slog.Logger,
) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard, activities: activities, logger: logger}
}

// HandleStandings returns ranked totals with medals on the first three.
//
// HTTP: GET /api/leaderboard
func (h *LeaderboardHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.leaderboard.Standings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

// HandleLogActivity records a manual run for the caller.
//
// HTTP: POST /api/activities
func (h *LeaderboardHandler) HandleLogActivity(w http.ResponseWriter, r *http.Request, sess model.Session) {
	var in model.NewActivity
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	a, err := h.activities.Log(r.Context(), sess, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
