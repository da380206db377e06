// http — REST-транспорт comments-service поверх chi.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-blog-platform/internal/comments/service"
	"github.com/pribylovaa/go-blog-platform/internal/identity"
	webmw "github.com/pribylovaa/go-blog-platform/pkg/web/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, resolver *identity.Resolver, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		webmw.Recover(),              // безопасно ловим паники
		webmw.RequestID(),            // формируем/прокидываем X-Request-Id (до логирования!)
		webmw.Logging(opts.Logger),   // кладём request-scoped логгер в контекст и логируем
		identity.Middleware(resolver), // разрешаем личность (токен или аноним)
	)
	if opts.Timeout > 0 {
		root.Use(webmw.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := &handlers{svc: svc}

	// Публичные маршруты.
	root.Post("/comments", h.SubmitComment)
	root.Get("/comments/{id}", h.CommentByID)
	root.Patch("/comments/{id}", h.EditComment)
	root.Delete("/comments/{id}", h.DeleteComment)
	root.Post("/comments/{id}/like", h.LikeComment)
	root.Get("/comments/{id}/replies", h.ListReplies)
	root.Get("/posts/{post_id}/comments", h.ListByPost)
	root.Post("/comments/{id}/reports", h.SubmitReport)

	// Модераторские маршруты.
	root.Group(func(r chi.Router) {
		r.Use(identity.RequireModerator())

		r.Get("/moderation/queue", h.ModerationQueue)
		r.Post("/moderation/comments/{id}/approve", h.ApproveComment)
		r.Post("/moderation/comments/{id}/reject", h.RejectComment)
		r.Post("/moderation/comments/{id}/hide", h.HideComment)
		r.Post("/moderation/comments/{id}/flag", h.FlagComment)
		r.Get("/moderation/comments/{id}/reports", h.ReportsByComment)
		r.Post("/moderation/reports/{id}/resolve", h.ResolveReport)
		r.Post("/moderation/reports/{id}/dismiss", h.DismissReport)
	})

	return root
}
