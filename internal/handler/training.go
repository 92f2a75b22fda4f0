package handler

import (
	"net/http"

	"github.com/protanvir/runners-bd/internal/service"
)

// TrainingHandler serves the training catalog.
type TrainingHandler struct {
	training *service.TrainingService
}

// NewTrainingHandler creates a TrainingHandler.
func NewTrainingHandler(training *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{training: training}
}

// HTTP: GET /api/training?level=beginner
func (h *TrainingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.training.Resources(r.URL.Query().Get("level")))
}
