package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// GearService backs the gear reviews page.
type GearService struct {
	gear   repository.GearRepository
	logger *slog.Logger
}

// NewGearService creates a GearService.
func NewGearService(gear repository.GearRepository, logger *slog.Logger) *GearService {
	return &GearService{gear: gear, logger: logger}
}

// List returns reviews newest first, optionally filtered by a
// case-insensitive substring of the gear name or the review text.
func (s *GearService) List(ctx context.Context, query string) ([]model.GearReview, error) {
	all, err := s.gear.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/gear: listing: %w", err)
	}

	out := make([]model.GearReview, 0, len(all))
	for _, g := range all {
		if matches(query, g.GearName, g.ReviewText) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Types returns the gear categories for the create form.
func (s *GearService) Types() []string {
	return append([]string(nil), model.GearTypes...)
}

// Create adds a review by the caller. Any signed-in runner may review.
func (s *GearService) Create(ctx context.Context, sess model.Session, in model.NewGearReview) (*model.GearReview, error) {
	if err := requireSignedIn(sess); err != nil {
		return nil, err
	}

	name, err := requireText("gear_name", in.GearName, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	gearType := strings.TrimSpace(in.GearType)
	if !model.ValidGearType(gearType) {
		return nil, apperror.ValidationFailed("gear_type",
			"gear_type must be one of "+strings.Join(model.GearTypes, ", "))
	}
	if in.Rating < model.MinRating || in.Rating > model.MaxRating {
		return nil, apperror.ValidationFailed("rating", "rating must be between 1 and 5")
	}
	text, err := limitText("review_text", in.ReviewText, MaxBodyLength)
	if err != nil {
		return nil, err
	}

	review := &model.GearReview{
		AuthorID:   sess.UserID(),
		GearName:   name,
		GearType:   gearType,
		Rating:     in.Rating,
		ReviewText: text,
	}
	if err := s.gear.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("service/gear: creating: %w", err)
	}

	s.logger.Info("gear review created",
		slog.String("reviewID", review.ID),
		slog.String("authorID", review.AuthorID),
		slog.Int("rating", review.Rating),
	)
	return review, nil
}
