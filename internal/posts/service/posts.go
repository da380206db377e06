package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/identity"
	"github.com/pribylovaa/go-blog-platform/internal/posts/models"
	"github.com/pribylovaa/go-blog-platform/internal/posts/render"
	"github.com/pribylovaa/go-blog-platform/internal/posts/storage"
	"github.com/pribylovaa/go-blog-platform/pkg/log"
)

// CreatePostInput — создание поста.
type CreatePostInput struct {
	Title     string
	Category  string
	Content   string
	Published bool
}

// UpdatePostInput — частичная правка поста; nil-поле означает «не менять».
type UpdatePostInput struct {
	Title     *string
	Category  *string
	Content   *string
	Published *bool
}

// ListPostsInput — параметры публичной выдачи постов.
type ListPostsInput struct {
	Category  string
	PageSize  int32
	PageToken string
	// IncludeDrafts — черновики в выдаче; доступно только модератору.
	IncludeDrafts bool
}

// CreatePost — создание поста автором.
//
// Валидация:
//   - требуется подтверждённая личность (ErrUnauthenticated);
//   - Title и Content обязательны и ограничены по длине.
//
// Поведение:
//   - slug выводится из заголовка; при конфликте уникальности добавляется
//     короткий суффикс и вставка повторяется один раз.
//
// Ошибки: ErrUnauthenticated, ErrInvalidArgument, ErrAlreadyExists, ErrInternal.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	const op = "service/posts/CreatePost"

	ident, _ := identity.From(ctx)
	lg := log.From(ctx).With("op", op, "author_id", ident.UserID.String())

	if ident.Anonymous() {
		lg.Warn("unauthenticated create attempt")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(strings.ToLower(in.Category))

	if in.Title == "" || len(in.Title) > s.cfg.Limits.MaxTitleLen {
		lg.Warn("invalid argument: bad title", "len", len(in.Title))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if strings.TrimSpace(in.Content) == "" || len(in.Content) > s.cfg.Limits.MaxContentLen {
		lg.Warn("invalid argument: bad content", "len", len(in.Content))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	post := models.Post{
		ID:         uuid.New(),
		AuthorID:   ident.UserID,
		AuthorName: ident.Username,
		Title:      in.Title,
		Slug:       slugify(in.Title),
		Category:   in.Category,
		Content:    in.Content,
		Published:  in.Published,
	}
	if post.Slug == "" {
		post.Slug = post.ID.String()
	}

	err := s.storage.SavePost(ctx, &post)
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Одна попытка с суффиксом: заголовки-дубликаты — обычное дело.
		post.Slug = post.Slug + "-" + post.ID.String()[:8]
		err = s.storage.SavePost(ctx, &post)
	}
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Warn("slug conflict")
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}

		lg.Error("storage error on SavePost", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	lg.Info("post created", "id", post.ID.String(), "slug", post.Slug)

	return s.withHTML(ctx, &post), nil
}

// PostByID — пост по идентификатору; черновик видят только автор и модератор.
//
// Ошибки: ErrNotFound, ErrInternal.
func (s *Service) PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "service/posts/PostByID"

	lg := log.From(ctx).With("op", op, "id", id.String())

	post, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on PostByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !s.visible(ctx, post) {
		lg.Warn("draft hidden from requester")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return s.withHTML(ctx, post), nil
}

// PostBySlug — пост по slug; черновик видят только автор и модератор.
//
// Ошибки: ErrNotFound, ErrInvalidArgument, ErrInternal.
func (s *Service) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	const op = "service/posts/PostBySlug"

	slug = strings.TrimSpace(slug)
	lg := log.From(ctx).With("op", op, "slug", slug)

	if slug == "" {
		lg.Warn("invalid argument: empty slug")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	post, err := s.storage.PostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on PostBySlug", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !s.visible(ctx, post) {
		lg.Warn("draft hidden from requester")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return s.withHTML(ctx, post), nil
}

// ExistsByID — проверка существования опубликованного поста
// (контракт клиента comments-service).
//
// Ошибки: ErrInternal.
func (s *Service) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "service/posts/ExistsByID"

	exists, err := s.storage.ExistsByID(ctx, id)
	if err != nil {
		log.From(ctx).Error("storage error on ExistsByID", "op", op, "err", err)
		return false, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return exists, nil
}

// UpdatePost — правка поста автором или модератором.
//
// Ошибки: ErrNotFound, ErrPermissionDenied, ErrInvalidArgument, ErrInternal.
func (s *Service) UpdatePost(ctx context.Context, id uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	const op = "service/posts/UpdatePost"

	ident, _ := identity.From(ctx)
	lg := log.From(ctx).With("op", op, "id", id.String())

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" || len(t) > s.cfg.Limits.MaxTitleLen {
			lg.Warn("invalid argument: bad title")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		in.Title = &t
	}

	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" || len(*in.Content) > s.cfg.Limits.MaxContentLen {
			lg.Warn("invalid argument: bad content")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
	}

	curr, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on PostByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !ident.IsModerator && curr.AuthorID != ident.UserID {
		lg.Warn("update denied: not the author")
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	post, err := s.storage.UpdatePost(ctx, id, storage.PostUpdate{
		Title:     in.Title,
		Category:  in.Category,
		Content:   in.Content,
		Published: in.Published,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on UpdatePost", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	lg.Info("post updated")

	return s.withHTML(ctx, post), nil
}

// DeletePost — удаление поста автором или модератором.
//
// Ошибки: ErrNotFound, ErrPermissionDenied, ErrInternal.
func (s *Service) DeletePost(ctx context.Context, id uuid.UUID) error {
	const op = "service/posts/DeletePost"

	ident, _ := identity.From(ctx)
	lg := log.From(ctx).With("op", op, "id", id.String())

	curr, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on PostByID", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !ident.IsModerator && curr.AuthorID != ident.UserID {
		lg.Warn("delete denied: not the author")
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if err := s.storage.DeletePost(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("post not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on DeletePost", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	lg.Info("post deleted")

	return nil
}

// ListPosts — страница постов; черновики доступны только модератору.
//
// Ошибки: ErrInvalidCursor, ErrPermissionDenied, ErrInternal.
func (s *Service) ListPosts(ctx context.Context, in ListPostsInput) (*models.Page, error) {
	const op = "service/posts/ListPosts"

	ident, _ := identity.From(ctx)
	lg := log.From(ctx).With("op", op, "category", in.Category)

	if in.IncludeDrafts && !ident.IsModerator {
		lg.Warn("drafts listing denied")
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	limit := in.PageSize
	if limit <= 0 {
		limit = s.cfg.Limits.Default
	}
	if limit > s.cfg.Limits.Max {
		limit = s.cfg.Limits.Max
	}

	page, err := s.storage.ListPosts(ctx, models.ListOptions{
		Category:      strings.TrimSpace(strings.ToLower(in.Category)),
		IncludeDrafts: in.IncludeDrafts,
		Limit:         limit,
		PageToken:     in.PageToken,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		}

		lg.Error("storage error on ListPosts", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	// Списку хватает исходника — HTML рендерится на карточке поста.
	return page, nil
}

// Categories — рубрики с количеством опубликованных постов.
//
// Ошибки: ErrInternal.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	const op = "service/posts/Categories"

	out, err := s.storage.Categories(ctx)
	if err != nil {
		log.From(ctx).Error("storage error on Categories", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return out, nil
}

// visible сообщает, доступен ли пост этой личности: опубликованные видят
// все, черновики — автор и модератор.
func (s *Service) visible(ctx context.Context, post *models.Post) bool {
	if post.Published {
		return true
	}

	ident, _ := identity.From(ctx)
	return ident.IsModerator || (!ident.Anonymous() && post.AuthorID == ident.UserID)
}

// withHTML дополняет пост отрендеренным HTML; ошибка рендера не фатальна.
func (s *Service) withHTML(ctx context.Context, post *models.Post) *models.Post {
	html, err := render.HTML(post.Content)
	if err != nil {
		log.From(ctx).Warn("markdown render failed", "id", post.ID.String(), "err", err)
		return post
	}

	post.ContentHTML = html
	return post
}
