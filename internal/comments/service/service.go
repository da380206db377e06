// service содержит бизнес-логику comments-сервиса: полный пайплайн
// модерации на отправке/правке, жалобы и действия модератора.
package service

import (
	"errors"

	"github.com/pribylovaa/go-blog-platform/internal/comments/clients/posts"
	"github.com/pribylovaa/go-blog-platform/internal/comments/config"
	"github.com/pribylovaa/go-blog-platform/internal/comments/moderation"
	"github.com/pribylovaa/go-blog-platform/internal/comments/moderation/tracker"
	"github.com/pribylovaa/go-blog-platform/internal/comments/storage"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrConflict — конфликт уникальности.
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — родитель не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — превышена максимально допустимая глубина.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
	// ErrPostNotFound — пост, к которому создаётся комментарий, не существует.
	ErrPostNotFound = errors.New("post not found")
	// ErrRateLimited — нарушен минимальный интервал между отправками.
	ErrRateLimited = errors.New("rate limited")
	// ErrEditWindowExpired — окно правки комментария истекло.
	ErrEditWindowExpired = errors.New("edit window expired")
	// ErrPermissionDenied — операция недоступна этой личности.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicateReport — повторная жалоба на тот же комментарий.
	ErrDuplicateReport = errors.New("duplicate report")
	// ErrReportTerminal — жалоба уже закрыта.
	ErrReportTerminal = errors.New("report already terminal")
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal — внутренняя ошибка (стораж/БД/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

// Service — бизнес-логика comments-service.
type Service struct {
	storage storage.Storage
	cfg     config.Config
	scorer  *moderation.Scorer
	tracker *tracker.Tracker
	posts   posts.Checker
}

// New создает новый экземпляр Service.
func New(st storage.Storage, cfg config.Config, tr *tracker.Tracker, postsChecker posts.Checker) *Service {
	return &Service{
		storage: st,
		cfg:     cfg,
		scorer:  moderation.NewScorer(cfg.Moderation.Score),
		tracker: tr,
		posts:   postsChecker,
	}
}
