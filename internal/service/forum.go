package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// markdown renders post bodies. Raw HTML in the input is escaped because
// WithUnsafe is not set.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts a post body to HTML, falling back to escaped text.
func renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return html.EscapeString(src)
	}
	return buf.String()
}

// ForumService backs the forums page.
type ForumService struct {
	forums repository.ForumRepository
	logger *slog.Logger
}

// NewForumService creates a ForumService.
func NewForumService(forums repository.ForumRepository, logger *slog.Logger) *ForumService {
	return &ForumService{forums: forums, logger: logger}
}

// Categories returns the forum categories in display order.
func (s *ForumService) Categories(ctx context.Context) ([]model.ForumCategory, error) {
	categories, err := s.forums.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/forum: listing categories: %w", err)
	}
	return categories, nil
}

// Posts returns a category's posts newest first, bodies rendered to HTML.
func (s *ForumService) Posts(ctx context.Context, slug string) ([]model.ForumPost, error) {
	category, err := s.forums.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/forum: posts: %w", err)
	}
	posts, err := s.forums.ListPosts(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("service/forum: posts: %w", err)
	}
	for i := range posts {
		posts[i].ContentHTML = renderMarkdown(posts[i].Content)
	}
	return posts, nil
}

// CreatePost adds a post to a category. Gated on can_create_post.
func (s *ForumService) CreatePost(ctx context.Context, sess model.Session, slug string, in model.NewForumPost) (*model.ForumPost, error) {
	if err := requireCapability(sess, model.CanCreatePost); err != nil {
		return nil, err
	}

	title, err := requireText("title", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	content, err := requireText("content", in.Content, MaxBodyLength)
	if err != nil {
		return nil, err
	}

	category, err := s.forums.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/forum: create post: %w", err)
	}

	post := &model.ForumPost{
		CategoryID: category.ID,
		AuthorID:   sess.UserID(),
		Title:      title,
		Content:    content,
	}
	if err := s.forums.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("service/forum: create post: %w", err)
	}
	post.ContentHTML = renderMarkdown(post.Content)

	s.logger.Info("forum post created",
		slog.String("postID", post.ID),
		slog.String("category", category.Slug),
		slog.String("authorID", post.AuthorID),
	)
	return post, nil
}
