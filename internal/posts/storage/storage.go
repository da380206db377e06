// storage описывает контракт хранилища posts-service.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/posts/models"
)

var (
	// ErrNotFound — пост отсутствует в хранилище.
	ErrNotFound = errors.New("post not found")
	// ErrAlreadyExists — конфликт уникальности (slug).
	ErrAlreadyExists = errors.New("post already exists")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// PostUpdate — частичное обновление поста.
// Nil-поле означает «не менять».
type PostUpdate struct {
	Title     *string
	Category  *string
	Content   *string
	Published *bool
}

// Storage — контракт хранилища постов.
type Storage interface {
	// SavePost сохраняет новый пост; уникальность — по slug.
	SavePost(ctx context.Context, post *models.Post) error

	// PostByID возвращает пост по идентификатору.
	PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error)

	// PostBySlug возвращает пост по slug.
	PostBySlug(ctx context.Context, slug string) (*models.Post, error)

	// ExistsByID сообщает, существует ли опубликованный пост.
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// UpdatePost применяет частичное обновление и возвращает свежую версию.
	UpdatePost(ctx context.Context, id uuid.UUID, upd PostUpdate) (*models.Post, error)

	// DeletePost удаляет пост.
	DeletePost(ctx context.Context, id uuid.UUID) error

	// ListPosts возвращает страницу постов (created_at DESC, id DESC).
	ListPosts(ctx context.Context, opts models.ListOptions) (*models.Page, error)

	// Categories возвращает рубрики с количеством опубликованных постов.
	Categories(ctx context.Context) ([]models.Category, error)

	// Close закрывает соединения с БД.
	Close()
}
