package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-blog-platform/internal/posts/service"
	"github.com/pribylovaa/go-blog-platform/pkg/web/httperr"
)

type createPostRequest struct {
	Title     string `json:"title"`
	Category  string `json:"category,omitempty"`
	Content   string `json:"content"`
	Published bool   `json:"published,omitempty"`
}

// CreatePost — POST /posts.
func (h *handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeStrict(r, &req); err != nil {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	out, err := h.svc.CreatePost(r.Context(), service.CreatePostInput{
		Title:     req.Title,
		Category:  req.Category,
		Content:   req.Content,
		Published: req.Published,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostView(*out))
}

// PostByID — GET /posts/{id}.
func (h *handlers) PostByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid post id")
		return
	}

	out, err := h.svc.PostByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostView(*out))
}

// PostBySlug — GET /posts/slug/{slug}.
func (h *handlers) PostBySlug(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.PostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostView(*out))
}

// PostExists — GET /posts/{id}/exists.
// Контракт клиента comments-service: {"exists": bool}.
func (h *handlers) PostExists(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid post id")
		return
	}

	exists, err := h.svc.ExistsByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

type updatePostRequest struct {
	Title     *string `json:"title,omitempty"`
	Category  *string `json:"category,omitempty"`
	Content   *string `json:"content,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// UpdatePost — PATCH /posts/{id}.
func (h *handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid post id")
		return
	}

	var req updatePostRequest
	if err := decodeStrict(r, &req); err != nil {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	out, err := h.svc.UpdatePost(r.Context(), id, service.UpdatePostInput{
		Title:     req.Title,
		Category:  req.Category,
		Content:   req.Content,
		Published: req.Published,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostView(*out))
}

// DeletePost — DELETE /posts/{id}.
func (h *handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid post id")
		return
	}

	if err := h.svc.DeletePost(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPosts — GET /posts.
// Фильтры: category, include_drafts=1 (только модератор).
func (h *handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	size, token, ok := parsePage(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid page_size")
		return
	}

	q := r.URL.Query()
	page, err := h.svc.ListPosts(r.Context(), service.ListPostsInput{
		Category:      q.Get("category"),
		IncludeDrafts: q.Get("include_drafts") == "1" || q.Get("include_drafts") == "true",
		PageSize:      size,
		PageToken:     token,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageView(page))
}

// categoryView — представление рубрики.
type categoryView struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	PostsCount int32  `json:"posts_count"`
}

// Categories — GET /categories.
func (h *handlers) Categories(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]categoryView, 0, len(out))
	for _, c := range out {
		views = append(views, categoryView{Name: c.Name, Slug: c.Slug, PostsCount: c.PostsCount})
	}

	writeJSON(w, http.StatusOK, views)
}
