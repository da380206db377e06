package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/comments/service"
	"github.com/pribylovaa/go-blog-platform/pkg/web/httperr"
)

// ModerationQueue — GET /moderation/queue.
// Фильтры: status (pending|flagged), priority (low|medium|high|critical),
// sort (recency|reports|priority).
func (h *handlers) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	size, token, ok := parsePage(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid page_size")
		return
	}

	q := r.URL.Query()
	page, err := h.svc.ModerationQueue(r.Context(), service.ModerationQueueInput{
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		Sort:      q.Get("sort"),
		PageSize:  size,
		PageToken: token,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageView(page, toQueueView))
}

type moderateRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ApproveComment — POST /moderation/comments/{id}/approve.
func (h *handlers) ApproveComment(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.svc.ApproveComment)
}

// RejectComment — POST /moderation/comments/{id}/reject.
func (h *handlers) RejectComment(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.svc.RejectComment)
}

// HideComment — POST /moderation/comments/{id}/hide.
func (h *handlers) HideComment(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.svc.HideComment)
}

// FlagComment — POST /moderation/comments/{id}/flag.
func (h *handlers) FlagComment(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.svc.FlagComment)
}

// moderate — общий обработчик модераторских переходов статуса.
func (h *handlers) moderate(w http.ResponseWriter, r *http.Request, do func(ctx context.Context, id, reason string) (*models.Comment, error)) {
	id := chi.URLParam(r, "id")

	var req moderateRequest
	// Тело опционально: причина не обязательна.
	if err := decodeStrict(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	out, err := do(r.Context(), id, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toQueueView(*out))
}
