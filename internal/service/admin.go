package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// AdminService backs the admin permission table.
//
// PERMISSION TABLE:
// The service keeps the last listed profiles in memory, keyed by ID. A toggle
// re-reads the profile from the store, flips the flag in that table first
// (optimistic), then persists it. If the
// write fails the table entry is put back to its pre-toggle value and the
// error is returned, so the table never shows a value the store rejected.
type AdminService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger

	mu    sync.Mutex
	table map[string]*model.Profile
}

// NewAdminService creates an AdminService.
func NewAdminService(profiles repository.ProfileRepository, logger *slog.Logger) *AdminService {
	return &AdminService{
		profiles: profiles,
		logger:   logger,
		table:    make(map[string]*model.Profile),
	}
}

// Profiles lists every profile newest first, optionally filtered by a
// case-insensitive substring of the name or email, and refreshes the
// permission table from the store.
func (s *AdminService) Profiles(ctx context.Context, sess model.Session, query string) ([]model.Profile, error) {
	if !sess.Elevated() {
		return nil, apperror.Forbidden("admin only")
	}

	all, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing profiles: %w", err)
	}

	s.mu.Lock()
	for i := range all {
		p := all[i]
		s.table[p.ID] = &p
	}
	s.mu.Unlock()

	out := make([]model.Profile, 0, len(all))
	for _, p := range all {
		if matches(query, p.FullName, p.Email) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Toggle flips one capability of a profile and returns the profile as the
// table now shows it.
func (s *AdminService) Toggle(ctx context.Context, sess model.Session, userID string, c model.Capability) (*model.Profile, error) {
	if !sess.Elevated() {
		return nil, apperror.Forbidden("admin only")
	}
	if !c.Valid() {
		return nil, apperror.ValidationFailed("capability", fmt.Sprintf("unknown capability %q", c))
	}

	// The stored row decides; the table entry is replaced by it.
	row, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/admin: toggle: %w", err)
	}

	s.mu.Lock()
	s.table[userID] = row
	if row.Elevated() {
		s.mu.Unlock()
		return nil, apperror.Forbidden("the superadmin role is exempt from capability toggles")
	}
	previous := row.Flag(c)
	next := !previous
	row.SetFlag(c, next)
	s.mu.Unlock()

	if err := s.profiles.SetCapability(ctx, userID, c, next); err != nil {
		s.mu.Lock()
		row.SetFlag(c, previous)
		s.mu.Unlock()
		s.logger.Error("capability toggle rolled back",
			slog.String("userID", userID),
			slog.String("capability", string(c)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/admin: toggle: %w", err)
	}

	s.logger.Info("capability toggled",
		slog.String("adminID", sess.UserID()),
		slog.String("userID", userID),
		slog.String("capability", string(c)),
		slog.Bool("value", next),
	)

	s.mu.Lock()
	out := *row
	s.mu.Unlock()
	return &out, nil
}

// TableValue reports what the permission table currently shows for a flag.
func (s *AdminService) TableValue(userID string, c model.Capability) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.table[userID]
	if !ok {
		return false, false
	}
	return row.Flag(c), true
}
