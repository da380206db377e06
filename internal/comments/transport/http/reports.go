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

type submitReportRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description,omitempty"`
}

// SubmitReport — POST /comments/{id}/reports.
func (h *handlers) SubmitReport(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "id")

	var req submitReportRequest
	if err := decodeStrict(r, &req); err != nil {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	out, err := h.svc.SubmitReport(r.Context(), service.SubmitReportInput{
		CommentID:   commentID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReportView(*out))
}

// ReportsByComment — GET /moderation/comments/{id}/reports.
func (h *handlers) ReportsByComment(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "id")

	size, token, ok := parsePage(r)
	if !ok {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid page_size")
		return
	}

	page, err := h.svc.ReportsByComment(r.Context(), commentID, size, token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportPageView(page))
}

type closeReportRequest struct {
	Note string `json:"note,omitempty"`
}

// ResolveReport — POST /moderation/reports/{id}/resolve.
func (h *handlers) ResolveReport(w http.ResponseWriter, r *http.Request) {
	h.closeReport(w, r, h.svc.ResolveReport)
}

// DismissReport — POST /moderation/reports/{id}/dismiss.
func (h *handlers) DismissReport(w http.ResponseWriter, r *http.Request) {
	h.closeReport(w, r, h.svc.DismissReport)
}

// closeReport — общий обработчик терминального перехода жалобы.
func (h *handlers) closeReport(w http.ResponseWriter, r *http.Request, do func(ctx context.Context, id, note string) (*models.Report, error)) {
	id := chi.URLParam(r, "id")

	var req closeReportRequest
	// Тело опционально: resolve/dismiss можно дернуть без note.
	if err := decodeStrict(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	out, err := do(r.Context(), id, req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportView(*out))
}
