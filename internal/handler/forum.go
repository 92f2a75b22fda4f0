package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/service"
)

// ForumHandler serves forum categories and posts.
type ForumHandler struct {
	forums *service.ForumService
	logger *slog.Logger
}

// NewForumHandler creates a ForumHandler.
func NewForumHandler(forums *service.ForumService, logger *slog.Logger) *ForumHandler {
	return &ForumHandler{forums: forums, logger: logger}
}

// HTTP: GET /api/forums/categories
func (h *ForumHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.forums.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HTTP: GET /api/forums/categories/{slug}/posts
func (h *ForumHandler) HandlePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.forums.Posts(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HTTP: POST /api/forums/categories/{slug}/posts
func (h *ForumHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request, sess model.Session) {
	var in model.NewForumPost
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	post, err := h.forums.CreatePost(r.Context(), sess, chi.URLParam(r, "slug"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}
