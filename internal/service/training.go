package service

import (
	"strings"

	"github.com/protanvir/runners-bd/internal/model"
)

// LevelAll marks resources suitable for every level.
const LevelAll = "All Levels"

var trainingCatalog = []model.TrainingResource{
	{
		Title:       "Couch to 5K Plan",
		Description: "A nine week plan that takes you from walking to running 5 kilometres without stopping.",
		Type:        "plan",
		Level:       "Beginner",
		Link:        "/training/couch-to-5k",
	},
	{
		Title:       "Marathon Nutrition Guide",
		Description: "What to eat in the build-up, the night before and on race day.",
		Type:        "guide",
		Level:       "Intermediate",
		Link:        "/training/marathon-nutrition",
	},
	{
		Title:       "Proper Running Form",
		Description: "Posture, cadence and foot strike explained with drills you can do anywhere.",
		Type:        "video",
		Level:       LevelAll,
		Link:        "/training/running-form",
	},
	{
		Title:       "Interval Training 101",
		Description: "Structured speed sessions to raise your threshold and race pace.",
		Type:        "guide",
		Level:       "Advanced",
		Link:        "/training/intervals",
	},
}

// TrainingService serves the static training catalog.
type TrainingService struct{}

// NewTrainingService creates a TrainingService.
func NewTrainingService() *TrainingService {
	return &TrainingService{}
}

// Resources returns the catalog in display order. A non-empty level keeps
// resources for that level (case-insensitive) plus the all-levels ones.
func (s *TrainingService) Resources(level string) []model.TrainingResource {
	level = strings.TrimSpace(level)
	out := make([]model.TrainingResource, 0, len(trainingCatalog))
	for _, r := range trainingCatalog {
		if level == "" || strings.EqualFold(r.Level, level) || r.Level == LevelAll {
			out = append(out, r)
		}
	}
	return out
}
