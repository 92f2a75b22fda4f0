package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// MaxActivityKm rejects obvious typos in manual logs.
const MaxActivityKm = 1000

// ActivityService records runs. Every insert also moves the leaderboard.
type ActivityService struct {
	activities repository.ActivityRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewActivityService creates an ActivityService.
func NewActivityService(activities repository.ActivityRepository, logger *slog.Logger) *ActivityService {
	return &ActivityService{activities: activities, logger: logger, now: time.Now}
}

// Log stores a manually entered run for the caller.
func (s *ActivityService) Log(ctx context.Context, sess model.Session, in model.NewActivity) (*model.Activity, error) {
	if err := requireSignedIn(sess); err != nil {
		return nil, err
	}
	if math.IsNaN(in.DistanceKm) || math.IsInf(in.DistanceKm, 0) || in.DistanceKm < 0 || in.DistanceKm > MaxActivityKm {
		return nil, apperror.ValidationFailed("distance_km", "distance_km must be between 0 and 1000")
	}
	if in.DurationSeconds < 0 {
		return nil, apperror.ValidationFailed("duration_seconds", "duration_seconds must not be negative")
	}
	name, err := limitText("name", in.Name, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	started := in.StartedAt
	if started.IsZero() {
		started = s.now()
	}

	a := &model.Activity{
		UserID:          sess.UserID(),
		Name:            name,
		DistanceKm:      in.DistanceKm,
		DurationSeconds: in.DurationSeconds,
		StartedAt:       started,
		Source:          model.SourceManual,
	}
	if _, err := s.activities.CreateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("service/activity: logging: %w", err)
	}

	s.logger.Info("activity logged",
		slog.String("userID", a.UserID),
		slog.Float64("distanceKm", a.DistanceKm),
	)
	return a, nil
}
