package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/comments/service"
	"github.com/pribylovaa/go-blog-platform/pkg/web/httperr"
)

// parsePage читает page_size/page_token из query.
// Невалидный page_size (не число или < 0) считается ошибкой клиента.
func parsePage(r *http.Request) (int32, string, bool) {
	q := r.URL.Query()

	var size int32
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			return 0, "", false
		}
		size = int32(n)
	}

	return size, q.Get("page_token"), true
}

type submitCommentRequest struct {
	PostID   string `json:"post_id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Content  string `json:"content"`
}

// SubmitComment — POST /comments.
func (h *handlers) SubmitComment(w http.ResponseWriter, r *http.Request) {
	var req submitCommentRequest
	if err := decodeStrict(r, &req); err != nil {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	in := service.SubmitCommentInput{
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if req.PostID != "" {
		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid post_id")
			return
		}
		in.PostID = postID
	}

	out, err := h.svc.SubmitComment(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentView(*out))
}

// CommentByID — GET /comments/{id}.
func (h *handlers) CommentByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	out, err := h.svc.CommentByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentView(*out))
}

type editCommentRequest struct {
	Content string `json:"content"`
}

// EditComment — PATCH /comments/{id}.
func (h *handlers) EditComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req editCommentRequest
	if err := decodeStrict(r, &req); err != nil {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	out, err := h.svc.EditComment(r.Context(), id, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentView(*out))
}

// DeleteComment — DELETE /comments/{id}.
func (h *handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteComment(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LikeComment — POST /comments/{id}/like.
func (h *handlers) LikeComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	likes, err := h.svc.LikeComment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int32{"likes": likes})
}

// ListReplies — GET /comments/{id}/replies.
func (h *handlers) ListReplies(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "id")

	size, token, ok := parsePage(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid page_size")
		return
	}

	page, err := h.svc.ListReplies(r.Context(), service.ListRepliesInput{
		ParentID:  parentID,
		PageSize:  size,
		PageToken: token,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageView(page, toCommentView))
}

// ListByPost — GET /posts/{post_id}/comments.
func (h *handlers) ListByPost(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
	if err != nil {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid post_id")
		return
	}

	size, token, ok := parsePage(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid page_size")
		return
	}

	page, err := h.svc.ListByPost(r.Context(), service.ListByPostInput{
		PostID:    postID,
		PageSize:  size,
		PageToken: token,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageView(page, toCommentView))
}
