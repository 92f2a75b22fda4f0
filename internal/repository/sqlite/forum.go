package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

var _ repository.ForumRepository = (*DB)(nil)

// ListCategories returns the seeded categories in display order.
func (db *DB) ListCategories(ctx context.Context) ([]model.ForumCategory, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, slug, description FROM forum_categories ORDER BY position, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing forum categories: %w", err)
	}
	defer rows.Close()

	categories := []model.ForumCategory{}
	for rows.Next() {
		var c model.ForumCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scanning forum category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating forum category rows: %w", err)
	}
	return categories, nil
}

// GetCategoryBySlug looks a category up by its URL slug.
func (db *DB) GetCategoryBySlug(ctx context.Context, slug string) (*model.ForumCategory, error) {
	var c model.ForumCategory
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug, description FROM forum_categories WHERE slug = ?`, slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("forum category", slug)
		}
		return nil, fmt.Errorf("sqlite: getting forum category %s: %w", slug, err)
	}
	return &c, nil
}

// ListPosts returns the posts of one category, newest first.
func (db *DB) ListPosts(ctx context.Context, categoryID string) ([]model.ForumPost, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT fp.id, fp.category_id, fp.author_id, fp.title, fp.content, fp.created_at,
		        p.full_name, p.avatar_url
		 FROM forum_posts fp
		 LEFT JOIN profiles p ON p.id = fp.author_id
		 WHERE fp.category_id = ?
		 ORDER BY fp.created_at DESC, fp.rowid DESC`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts of %s: %w", categoryID, err)
	}
	defer rows.Close()

	posts := []model.ForumPost{}
	for rows.Next() {
		var (
			fp                  model.ForumPost
			fullName, avatarURL sql.NullString
		)
		err := rows.Scan(&fp.ID, &fp.CategoryID, &fp.AuthorID, &fp.Title, &fp.Content, &fp.CreatedAt,
			&fullName, &avatarURL)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		fp.Author = personRef(fullName, avatarURL)
		posts = append(posts, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating post rows: %w", err)
	}
	return posts, nil
}

// CreatePost inserts a forum post.
func (db *DB) CreatePost(ctx context.Context, fp *model.ForumPost) error {
	fp.ID = xid.New().String()
	fp.CreatedAt = now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO forum_posts (id, category_id, author_id, title, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fp.ID, fp.CategoryID, fp.AuthorID, fp.Title, fp.Content, fp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}
