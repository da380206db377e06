// models описывает доменные структуры posts-service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Post — запись блога.
//
// Контент хранится как Markdown-исходник; ContentHTML — производное
// представление, рендерится на чтении и в БД не хранится.
type Post struct {
	ID         uuid.UUID
	AuthorID   uuid.UUID
	AuthorName string

	Title    string
	Slug     string
	Category string

	Content     string
	ContentHTML string

	CommentsCount int32
	Published     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category — рубрика с количеством опубликованных постов.
type Category struct {
	Name       string
	Slug       string
	PostsCount int32
}

// ListOptions — параметры постраничной выдачи постов.
// Сортировка фиксирована: created_at DESC, id DESC.
type ListOptions struct {
	// Category — опциональный фильтр по slug рубрики.
	Category string
	// IncludeDrafts — показывать неопубликованные (только для авторов).
	IncludeDrafts bool
	Limit         int32
	PageToken     string
}

// Page — страница постов с курсором продолжения.
type Page struct {
	Items         []Post
	NextPageToken string
}
