package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// LeaderboardLabel names the window the standings cover. Totals span the
// whole activity history.
const LeaderboardLabel = "all time"

// Aggregate folds a flat activity list into per-runner totals.
//
// ALGORITHM:
//  1. One pass over rows, accumulating distance and count per user ID.
//     A missing, NaN or infinite distance counts as zero (the activity is
//     still counted).
//  2. Stable sort by total distance, descending: exact ties keep the order
//     in which each runner first appeared in rows.
//  3. Rank and medal are assigned after sorting.
//
// The runner's name and avatar come from the first row seen for them.
func Aggregate(rows []model.ActivityWithProfile) []model.LeaderboardEntry {
	index := make(map[string]int)
	entries := []model.LeaderboardEntry{}

	for _, row := range rows {
		i, ok := index[row.UserID]
		if !ok {
			i = len(entries)
			index[row.UserID] = i
			e := model.LeaderboardEntry{UserID: row.UserID, FirstSeen: i}
			if row.User != nil {
				e.FullName = row.User.FullName
				e.AvatarURL = row.User.AvatarURL
			}
			entries = append(entries, e)
		}
		entries[i].TotalDistance += distanceOf(row)
		entries[i].ActivityCount++
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].TotalDistance > entries[b].TotalDistance
	})
	assignRanks(entries)
	return entries
}

func distanceOf(row model.ActivityWithProfile) float64 {
	if row.DistanceKm == nil {
		return 0
	}
	d := *row.DistanceKm
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}

// assignRanks fills Rank (index+1), Medal and the display-name fallback.
func assignRanks(entries []model.LeaderboardEntry) {
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Medal = model.MedalFor(i)
		if entries[i].FullName == "" {
			entries[i].FullName = model.AnonymousName
		}
	}
}

// Standings is the leaderboard as served to the page.
type Standings struct {
	Label   string                   `json:"label"`
	Entries []model.LeaderboardEntry `json:"entries"`
}

// LeaderboardService serves the materialized totals and rebuilds them.
type LeaderboardService struct {
	totals repository.LeaderboardRepository
	logger *slog.Logger
}

// NewLeaderboardService creates a LeaderboardService.
func NewLeaderboardService(totals repository.LeaderboardRepository, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{totals: totals, logger: logger}
}

// Standings reads the running totals, largest distance first.
func (s *LeaderboardService) Standings(ctx context.Context) (Standings, error) {
	entries, err := s.totals.ListTotals(ctx)
	if err != nil {
		return Standings{}, fmt.Errorf("service/leaderboard: listing totals: %w", err)
	}
	assignRanks(entries)
	return Standings{Label: LeaderboardLabel, Entries: entries}, nil
}

// Reconcile recomputes every total from the full history and replaces the
// materialized table with the result. Reading and writing share one
// transaction.
func (s *LeaderboardService) Reconcile(ctx context.Context) error {
	var activities, runners int
	err := s.totals.RebuildTotals(ctx, func(rows []model.ActivityWithProfile) []model.LeaderboardEntry {
		entries := Aggregate(rows)
		activities, runners = len(rows), len(entries)
		return entries
	})
	if err != nil {
		return fmt.Errorf("service/leaderboard: rebuilding totals: %w", err)
	}

	s.logger.Info("leaderboard reconciled",
		slog.Int("activities", activities),
		slog.Int("runners", runners),
	)
	return nil
}
