package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

var _ repository.GearRepository = (*DB)(nil)

// ListReviews returns every gear review, newest first.
//
// The whole table is returned; search happens in the service so that it can
// use Unicode case folding rather than SQLite's ASCII-only LIKE.
func (db *DB) ListReviews(ctx context.Context) ([]model.GearReview, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT g.id, g.author_id, g.gear_name, g.gear_type, g.rating, g.review_text, g.created_at,
		        p.full_name, p.avatar_url
		 FROM gear_reviews g
		 LEFT JOIN profiles p ON p.id = g.author_id
		 ORDER BY g.created_at DESC, g.rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing gear reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.GearReview{}
	for rows.Next() {
		var (
			g                   model.GearReview
			fullName, avatarURL sql.NullString
		)
		err := rows.Scan(&g.ID, &g.AuthorID, &g.GearName, &g.GearType, &g.Rating, &g.ReviewText,
			&g.CreatedAt, &fullName, &avatarURL)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning gear review row: %w", err)
		}
		g.Author = personRef(fullName, avatarURL)
		reviews = append(reviews, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating gear review rows: %w", err)
	}
	return reviews, nil
}

// CreateReview inserts a gear review. The CHECK constraint on rating backs
// up the service-level validation.
func (db *DB) CreateReview(ctx context.Context, g *model.GearReview) error {
	g.ID = xid.New().String()
	g.CreatedAt = now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO gear_reviews (id, author_id, gear_name, gear_type, rating, review_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.AuthorID, g.GearName, g.GearType, g.Rating, g.ReviewText, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating gear review: %w", err)
	}
	return nil
}
