package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/posts/models"
	"github.com/pribylovaa/go-blog-platform/internal/posts/service"
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
	case errors.Is(err, service.ErrUnauthenticated):
		httperr.Write(w, r, http.StatusUnauthorized, "unauthenticated", "unauthenticated")
	case errors.Is(err, service.ErrPermissionDenied):
		httperr.Write(w, r, http.StatusForbidden, "permission_denied", "permission denied")
	case errors.Is(err, service.ErrNotFound):
		httperr.Write(w, r, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, service.ErrAlreadyExists):
		httperr.Write(w, r, http.StatusConflict, "already_exists", "already exists")
	case errors.Is(err, context.DeadlineExceeded):
		httperr.Write(w, r, http.StatusGatewayTimeout, "deadline_exceeded", "request timed out")
	case errors.Is(err, context.Canceled):
		httperr.Write(w, r, httperr.StatusClientClosedRequest, "canceled", "request canceled")
	default:
		httperr.Internal(w, r)
	}
}

// parsePage читает page_size/page_token из query.
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

// pathID — uuid из сегмента пути.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// postView — представление поста в API.
type postView struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name,omitempty"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Category      string    `json:"category,omitempty"`
	Content       string    `json:"content"`
	ContentHTML   string    `json:"content_html,omitempty"`
	CommentsCount int32     `json:"comments_count"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toPostView(p models.Post) postView {
	return postView{
		ID:            p.ID.String(),
		AuthorID:      p.AuthorID.String(),
		AuthorName:    p.AuthorName,
		Title:         p.Title,
		Slug:          p.Slug,
		Category:      p.Category,
		Content:       p.Content,
		ContentHTML:   p.ContentHTML,
		CommentsCount: p.CommentsCount,
		Published:     p.Published,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type pageView struct {
	Items         []postView `json:"items"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

func toPageView(p *models.Page) pageView {
	out := pageView{NextPageToken: p.NextPageToken, Items: make([]postView, 0, len(p.Items))}
	for _, post := range p.Items {
		out.Items = append(out.Items, toPostView(post))
	}
	return out
}
