package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
)

// =========================================================================
// FORUM TESTS
// =========================================================================

func TestListCategories_Seeded(t *testing.T) {
	db := newTestDB(t)

	categories, err := db.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("expected seeded categories")
	}
	if categories[0].Slug != "general-discussion" {
		t.Errorf("first slug = %q, want %q", categories[0].Slug, "general-discussion")
	}
}

func TestGetCategoryBySlug_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetCategoryBySlug(context.Background(), "no-such-category")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCategoryBySlug() error = %v, want ErrNotFound", err)
	}
}

func TestPosts_NewestFirstPerCategory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := createTestRunner(t, db, "1", "Poster")

	categories, err := db.ListCategories(ctx)
	if err != nil || len(categories) < 2 {
		t.Fatalf("ListCategories() = %v, %v", categories, err)
	}
	general, other := categories[0], categories[1]

	for _, title := range []string{"first", "second"} {
		fp := &model.ForumPost{CategoryID: general.ID, AuthorID: author.ID, Title: title, Content: "body"}
		if err := db.CreatePost(ctx, fp); err != nil {
			t.Fatalf("CreatePost() error = %v", err)
		}
	}
	if err := db.CreatePost(ctx, &model.ForumPost{CategoryID: other.ID, AuthorID: author.ID, Title: "elsewhere"}); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	posts, err := db.ListPosts(ctx, general.ID)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	if posts[0].Title != "second" {
		t.Errorf("posts[0] = %q, want newest first", posts[0].Title)
	}
	if posts[0].Author == nil || posts[0].Author.FullName != "Poster" {
		t.Errorf("author not joined: %+v", posts[0].Author)
	}
}

// =========================================================================
// GEAR TESTS
// =========================================================================

func TestReviews_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := createTestRunner(t, db, "1", "Reviewer")

	first := &model.GearReview{AuthorID: author.ID, GearName: "Pegasus 41", GearType: "Shoes", Rating: 4}
	second := &model.GearReview{AuthorID: author.ID, GearName: "Forerunner 265", GearType: "Watch", Rating: 5}
	for _, g := range []*model.GearReview{first, second} {
		if err := db.CreateReview(ctx, g); err != nil {
			t.Fatalf("CreateReview() error = %v", err)
		}
	}

	reviews, err := db.ListReviews(ctx)
	if err != nil {
		t.Fatalf("ListReviews() error = %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}
	if reviews[0].GearName != "Forerunner 265" {
		t.Errorf("reviews[0] = %q, want newest first", reviews[0].GearName)
	}
}

func TestCreateReview_RatingCheck(t *testing.T) {
	db := newTestDB(t)
	author := createTestRunner(t, db, "1", "Reviewer")

	g := &model.GearReview{AuthorID: author.ID, GearName: "Socks", GearType: "Apparel", Rating: 6}
	if err := db.CreateReview(context.Background(), g); err == nil {
		t.Error("CreateReview() with rating 6 should fail the CHECK constraint")
	}
}
