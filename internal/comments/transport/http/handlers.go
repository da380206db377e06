package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/comments/service"
	"github.com/pribylovaa/go-blog-platform/pkg/web/httperr"
)

// handlers агрегирует зависимости REST-слоя.
type handlers struct {
	svc *service.Service
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// writeServiceError — единый маппинг сервисных ошибок в (HTTP-статус, code).
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid argument")
	case errors.Is(err, service.ErrInvalidCursor):
		httperr.Write(w, r, http.StatusBadRequest, "invalid_cursor", "invalid page token")
	case errors.Is(err, service.ErrMaxDepthExceeded):
		httperr.Write(w, r, http.StatusBadRequest, "max_depth_exceeded", "reply depth limit reached")
	case errors.Is(err, service.ErrNotFound):
		httperr.Write(w, r, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, service.ErrPostNotFound):
		httperr.Write(w, r, http.StatusNotFound, "post_not_found", "post not found")
	case errors.Is(err, service.ErrParentNotFound):
		httperr.Write(w, r, http.StatusNotFound, "parent_not_found", "parent comment not found")
	case errors.Is(err, service.ErrPermissionDenied):
		httperr.Write(w, r, http.StatusForbidden, "permission_denied", "permission denied")
	case errors.Is(err, service.ErrEditWindowExpired):
		httperr.Write(w, r, http.StatusForbidden, "edit_window_expired", "edit window expired")
	case errors.Is(err, service.ErrConflict):
		httperr.Write(w, r, http.StatusConflict, "conflict", "conflict")
	case errors.Is(err, service.ErrDuplicateReport):
		httperr.Write(w, r, http.StatusConflict, "duplicate_report", "already reported")
	case errors.Is(err, service.ErrReportTerminal):
		httperr.Write(w, r, http.StatusConflict, "report_terminal", "report already closed")
	case errors.Is(err, service.ErrRateLimited):
		httperr.Write(w, r, http.StatusTooManyRequests, "rate_limited", "too many submissions")
	case errors.Is(err, context.DeadlineExceeded):
		httperr.Write(w, r, http.StatusGatewayTimeout, "deadline_exceeded", "request timed out")
	case errors.Is(err, context.Canceled):
		httperr.Write(w, r, httperr.StatusClientClosedRequest, "canceled", "request canceled")
	default:
		httperr.Internal(w, r)
	}
}

// commentView — публичное представление комментария.
// Контент удалённого комментария замещается плейсхолдером, структура
// ветки при этом сохраняется.
type commentView struct {
	ID           string    `json:"id"`
	PostID       string    `json:"post_id"`
	ParentID     string    `json:"parent_id,omitempty"`
	AuthorName   string    `json:"author_name,omitempty"`
	Content      string    `json:"content"`
	Level        int32     `json:"level"`
	RepliesCount int32     `json:"replies_count"`
	Status       string    `json:"status"`
	Likes        int32     `json:"likes"`
	Edited       bool      `json:"edited"`
	IsDeleted    bool      `json:"is_deleted,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Модераторские поля; наружу не отдаются (см. queueItemView).
	Flags             *models.Flags `json:"flags,omitempty"`
	Score             *int32        `json:"score,omitempty"`
	ReportsCount      *int32        `json:"reports_count,omitempty"`
	MaxReportPriority *int32        `json:"max_report_priority,omitempty"`
}

const deletedPlaceholder = "[comment deleted]"

func toCommentView(c models.Comment) commentView {
	v := commentView{
		ID:           c.ID,
		PostID:       c.PostID.String(),
		ParentID:     c.ParentID,
		AuthorName:   c.AuthorName,
		Content:      c.Content,
		Level:        c.Level,
		RepliesCount: c.RepliesCount,
		Status:       string(c.Status),
		Likes:        c.Likes,
		Edited:       c.Edited,
		IsDeleted:    c.IsDeleted,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	if c.IsDeleted {
		v.Content = deletedPlaceholder
		v.AuthorName = ""
	}

	return v
}

// toQueueView дополняет публичное представление модераторскими полями.
func toQueueView(c models.Comment) commentView {
	v := toCommentView(c)
	flags := c.Flags
	score := c.Score
	reports := c.ReportsCount
	prio := c.MaxReportPriority

	v.Flags = &flags
	v.Score = &score
	v.ReportsCount = &reports
	v.MaxReportPriority = &prio

	return v
}

type pageView struct {
	Items         []commentView `json:"items"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

func toPageView(p *models.Page, view func(models.Comment) commentView) pageView {
	out := pageView{NextPageToken: p.NextPageToken, Items: make([]commentView, 0, len(p.Items))}
	for _, c := range p.Items {
		out.Items = append(out.Items, view(c))
	}
	return out
}

// reportView — представление жалобы (только модераторские ручки).
type reportView struct {
	ID          string    `json:"id"`
	CommentID   string    `json:"comment_id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toReportView(rep models.Report) reportView {
	return reportView{
		ID:          rep.ID,
		CommentID:   rep.CommentID,
		Reason:      string(rep.Reason),
		Description: rep.Description,
		Status:      string(rep.Status),
		Priority:    string(rep.Priority),
		CreatedAt:   rep.CreatedAt,
		UpdatedAt:   rep.UpdatedAt,
	}
}

type reportPageView struct {
	Items         []reportView `json:"items"`
	NextPageToken string       `json:"next_page_token,omitempty"`
}

func toReportPageView(p *models.ReportPage) reportPageView {
	out := reportPageView{NextPageToken: p.NextPageToken, Items: make([]reportView, 0, len(p.Items))}
	for _, rep := range p.Items {
		out.Items = append(out.Items, toReportView(rep))
	}
	return out
}
