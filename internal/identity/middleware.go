package identity

import (
	"context"
	"net/http"

	"github.com/pribylovaa/go-blog-platform/pkg/web/httperr"
	webmw "github.com/pribylovaa/go-blog-platform/pkg/web/middleware"
)

type ctxKey struct{}

// Into кладёт личность в контекст.
func Into(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From достаёт личность из контекста; ok=false, если мидлвар не отработал.
func From(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Middleware разрешает личность каждого запроса и кладёт её в контекст.
// Анонимные запросы проходят дальше — решения принимает сервисный слой.
func Middleware(r *Resolver) webmw.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := Into(req.Context(), r.Resolve(req))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// RequireModerator пропускает только запросы с подтверждённой модераторской
// личностью; остальным отвечает 403/permission_denied (401 — без личности).
func RequireModerator() webmw.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id, ok := From(req.Context())
			if !ok || id.Anonymous() {
				httperr.Write(w, req, http.StatusUnauthorized, "unauthenticated", "unauthenticated")
				return
			}

			if !id.IsModerator {
				httperr.Write(w, req, http.StatusForbidden, "permission_denied", "permission denied")
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}
