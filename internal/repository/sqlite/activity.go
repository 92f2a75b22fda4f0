package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

var (
	_ repository.ActivityRepository    = (*DB)(nil)
	_ repository.LeaderboardRepository = (*DB)(nil)
)

// CreateActivity inserts an activity and adds it to its owner's running total.
//
// TRANSACTION:
// Both writes commit together, so leaderboard_totals always equals the sum
// over activities. Imported activities are inserted with OR IGNORE on
// (source, external_id); a repeat import changes nothing and reports false.
//
// A caller-supplied ID is kept (imports use deterministic IDs); otherwise an
// xid is generated.
func (db *DB) CreateActivity(ctx context.Context, a *model.Activity) (bool, error) {
	if a.ID == "" {
		a.ID = xid.New().String()
	}
	if a.Source == "" {
		a.Source = model.SourceManual
	}
	a.CreatedAt = now()
	a.StartedAt = a.StartedAt.UTC()

	var externalID sql.NullString
	if a.ExternalID != "" {
		externalID = sql.NullString{String: a.ExternalID, Valid: true}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning activity tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO activities
		   (id, user_id, name, distance_km, duration_seconds, started_at, source, external_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.DistanceKm, a.DurationSeconds, a.StartedAt, a.Source, externalID, a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting activity for %s: %w", a.UserID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking activity insert: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO leaderboard_totals (user_id, total_distance_km, activity_count, first_seen_seq)
		 VALUES (?, ?, 1, (SELECT COALESCE(MAX(first_seen_seq), 0) + 1 FROM leaderboard_totals))
		 ON CONFLICT (user_id) DO UPDATE SET
		   total_distance_km = total_distance_km + excluded.total_distance_km,
		   activity_count    = activity_count + 1`,
		a.UserID, a.DistanceKm,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: updating leaderboard total for %s: %w", a.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing activity: %w", err)
	}
	return true, nil
}

// ListActivitiesWithProfiles returns the full history joined with each
// owner's display subset, in insertion order.
func (db *DB) ListActivitiesWithProfiles(ctx context.Context) ([]model.ActivityWithProfile, error) {
	return listActivitiesWithProfiles(ctx, db.conn)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listActivitiesWithProfiles(ctx context.Context, q queryer) ([]model.ActivityWithProfile, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT a.user_id, a.distance_km, p.full_name, p.avatar_url
		 FROM activities a
		 LEFT JOIN profiles p ON p.id = a.user_id
		 ORDER BY a.rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing activities: %w", err)
	}
	defer rows.Close()

	activities := []model.ActivityWithProfile{}
	for rows.Next() {
		var (
			a                   model.ActivityWithProfile
			distance            sql.NullFloat64
			fullName, avatarURL sql.NullString
		)
		if err := rows.Scan(&a.UserID, &distance, &fullName, &avatarURL); err != nil {
			return nil, fmt.Errorf("sqlite: scanning activity row: %w", err)
		}
		if distance.Valid {
			d := distance.Float64
			a.DistanceKm = &d
		}
		a.User = personRef(fullName, avatarURL)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating activity rows: %w", err)
	}
	return activities, nil
}

// ListTotals reads the materialized leaderboard.
func (db *DB) ListTotals(ctx context.Context) ([]model.LeaderboardEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.user_id, t.total_distance_km, t.activity_count, p.full_name, p.avatar_url
		 FROM leaderboard_totals t
		 LEFT JOIN profiles p ON p.id = t.user_id
		 ORDER BY t.total_distance_km DESC, t.first_seen_seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing leaderboard totals: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var (
			e                   model.LeaderboardEntry
			fullName, avatarURL sql.NullString
		)
		if err := rows.Scan(&e.UserID, &e.TotalDistance, &e.ActivityCount, &fullName, &avatarURL); err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		e.FullName = fullName.String
		e.AvatarURL = avatarURL.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard rows: %w", err)
	}
	return entries, nil
}

// RebuildTotals recomputes leaderboard_totals from the activity history
// in one transaction. build receives the history in insertion order; each
// returned entry's FirstSeen becomes its tie-break sequence.
//
// The DELETE runs first so the transaction holds the write lock before the
// history is read. An activity inserted concurrently either lands in the
// history that build sees or commits after the rebuild.
func (db *DB) RebuildTotals(
	ctx context.Context,
	build func([]model.ActivityWithProfile) []model.LeaderboardEntry,
) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning leaderboard tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leaderboard_totals`); err != nil {
		return fmt.Errorf("sqlite: clearing leaderboard totals: %w", err)
	}

	history, err := listActivitiesWithProfiles(ctx, tx)
	if err != nil {
		return err
	}
	entries := build(history)

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leaderboard_totals (user_id, total_distance_km, activity_count, first_seen_seq)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("sqlite: preparing leaderboard insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.UserID, e.TotalDistance, e.ActivityCount, e.FirstSeen+1); err != nil {
			return fmt.Errorf("sqlite: inserting leaderboard total for %s: %w", e.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing leaderboard totals: %w", err)
	}
	return nil
}
