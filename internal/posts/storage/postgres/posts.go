package postgres

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-blog-platform/internal/posts/models"
	"github.com/pribylovaa/go-blog-platform/internal/posts/storage"
)

const postColumns = `id, author_id, author_name, title, slug, category, content, comments_count, published, created_at, updated_at`

// scanPost — единый скан строки поста с нормализацией времени в UTC.
func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID,
		&p.AuthorID,
		&p.AuthorName,
		&p.Title,
		&p.Slug,
		&p.Category,
		&p.Content,
		&p.CommentsCount,
		&p.Published,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}

// SavePost сохраняет новый пост.
// Конфликт по slug транслируется в storage.ErrAlreadyExists.
func (s *Storage) SavePost(ctx context.Context, post *models.Post) error {
	const op = "storage/postgres/SavePost"

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}

	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt

	query := `
		INSERT INTO posts (id, author_id, author_name, title, slug, category, content, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		post.ID,
		post.AuthorID,
		post.AuthorName,
		post.Title,
		post.Slug,
		post.Category,
		post.Content,
		post.Published,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PostByID возвращает пост по идентификатору.
func (s *Storage) PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "storage/postgres/PostByID"

	row := s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)

	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// PostBySlug возвращает пост по slug.
func (s *Storage) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	const op = "storage/postgres/PostBySlug"

	row := s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)

	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// ExistsByID сообщает, существует ли опубликованный пост.
// Черновики для внешних потребителей (comments-service) не существуют.
func (s *Storage) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "storage/postgres/ExistsByID"

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1 AND published)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// UpdatePost применяет частичное обновление и возвращает свежую версию.
// Nil-поля PostUpdate не трогают текущие значения (COALESCE).
func (s *Storage) UpdatePost(ctx context.Context, id uuid.UUID, upd storage.PostUpdate) (*models.Post, error) {
	const op = "storage/postgres/UpdatePost"

	query := `
		UPDATE posts
		SET title      = COALESCE($2, title),
		    category   = COALESCE($3, category),
		    content    = COALESCE($4, content),
		    published  = COALESCE($5, published),
		    updated_at = $6
		WHERE id = $1
		RETURNING ` + postColumns

	row := s.db.QueryRow(ctx, query, id, upd.Title, upd.Category, upd.Content, upd.Published, time.Now().UTC())

	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// DeletePost удаляет пост.
func (s *Storage) DeletePost(ctx context.Context, id uuid.UUID) error {
	const op = "storage/postgres/DeletePost"

	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ListPosts возвращает страницу постов с курсорной пагинацией.
// Сортировка фиксирована: created_at DESC, id DESC.
// При некорректном токене возвращает storage.ErrInvalidCursor.
func (s *Storage) ListPosts(ctx context.Context, opts models.ListOptions) (*models.Page, error) {
	const op = "storage/postgres/ListPosts"

	limit := opts.Limit
	if limit <= 0 {
		// Защита от нуля/отрицательного значения.
		limit = 1
	}

	where := []string{"TRUE"}
	args := []any{}

	if !opts.IncludeDrafts {
		where = append(where, "published")
	}
	if opts.Category != "" {
		args = append(args, opts.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}

	if opts.PageToken != "" {
		createdCur, idCur, decErr := decodePageToken(opts.PageToken)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		args = append(args, createdCur, idCur)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT %s FROM posts
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, postColumns, strings.Join(where, " AND "), len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var page models.Page
	for rows.Next() {
		p, scanErr := scanPost(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		page.Items = append(page.Items, *p)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	// Курсор следующей страницы — по последнему элементу.
	if l := len(page.Items); l > 0 {
		last := page.Items[l-1]
		page.NextPageToken = encodePageToken(last.CreatedAt, last.ID)
	}

	return &page, nil
}

// Categories возвращает рубрики с количеством опубликованных постов.
func (s *Storage) Categories(ctx context.Context) ([]models.Category, error) {
	const op = "storage/postgres/Categories"

	rows, err := s.db.Query(ctx, `
		SELECT category, COUNT(*)
		FROM posts
		WHERE published AND category <> ''
		GROUP BY category
		ORDER BY COUNT(*) DESC, category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if scanErr := rows.Scan(&c.Slug, &c.PostsCount); scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		c.Name = c.Slug
		out = append(out, c)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return out, nil
}

// encodePageToken кодирует пару ключей страницы в непрозрачный токен для клиента.
func encodePageToken(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%d|%s", createdAt.UTC().UnixNano(), id.String())

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodePageToken декодирует токен обратно в пару ключей.
func decodePageToken(token string) (time.Time, uuid.UUID, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("bad parts")
	}

	t, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	return time.Unix(0, t).UTC(), id, nil
}
