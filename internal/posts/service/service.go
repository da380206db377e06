// service содержит бизнес-логику posts-service: CRUD постов, рубрики,
// проверка существования для смежных сервисов.
package service

import (
	"errors"
	"strings"
	"unicode"

	"github.com/pribylovaa/go-blog-platform/internal/posts/config"
	"github.com/pribylovaa/go-blog-platform/internal/posts/storage"
)

var (
	// ErrNotFound — пост отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — конфликт уникальности slug.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrUnauthenticated — операция требует подтверждённой личности.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied — операция недоступна этой личности.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal — внутренняя ошибка (стораж/БД/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

// Service — бизнес-логика posts-service.
type Service struct {
	storage storage.Storage
	cfg     config.Config
}

// New создает новый экземпляр Service.
func New(st storage.Storage, cfg config.Config) *Service {
	return &Service{
		storage: st,
		cfg:     cfg,
	}
}

// maxSlugLen — предел длины slug в байтах.
const maxSlugLen = 80

// slugify приводит заголовок к URL-безопасному виду: строчные буквы/цифры,
// остальное схлопывается в дефисы.
func slugify(title string) string {
	var b strings.Builder
	dash := false

	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}

		if b.Len() >= maxSlugLen {
			break
		}
	}

	return strings.Trim(b.String(), "-")
}
