package handler

import (
	"log/slog"
	"net/http"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/service"
)

// GearHandler serves gear reviews.
type GearHandler struct {
	gear   *service.GearService
	logger *slog.Logger
}

// NewGearHandler creates a GearHandler.
func NewGearHandler(gear *service.GearService, logger *slog.Logger) *GearHandler {
	return &GearHandler{gear: gear, logger: logger}
}

// HTTP: GET /api/gear?q=pegasus
func (h *GearHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.gear.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// HTTP: GET /api/gear/types
func (h *GearHandler) HandleTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gear.Types())
}

// HTTP: POST /api/gear
func (h *GearHandler) HandleCreate(w http.ResponseWriter, r *http.Request, sess model.Session) {
	var in model.NewGearReview
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	review, err := h.gear.Create(r.Context(), sess, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}
