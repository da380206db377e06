// http — REST-транспорт posts-service поверх chi.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-blog-platform/internal/identity"
	"github.com/pribylovaa/go-blog-platform/internal/posts/service"
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

	root.Use(
		webmw.Recover(),
		webmw.RequestID(),
		webmw.Logging(opts.Logger),
		identity.Middleware(resolver),
	)
	if opts.Timeout > 0 {
		root.Use(webmw.Timeout(opts.Timeout))
	}

	h := &handlers{svc: svc}

	root.Get("/posts", h.ListPosts)
	root.Post("/posts", h.CreatePost)
	root.Get("/posts/{id}", h.PostByID)
	root.Patch("/posts/{id}", h.UpdatePost)
	root.Delete("/posts/{id}", h.DeletePost)
	root.Get("/posts/{id}/exists", h.PostExists)
	root.Get("/posts/slug/{slug}", h.PostBySlug)
	root.Get("/categories", h.Categories)

	return root
}
