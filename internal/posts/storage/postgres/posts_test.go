package postgres

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-blog-platform/internal/posts/models"
	"github.com/pribylovaa/go-blog-platform/internal/posts/storage"
)

// Интеграционные тесты хранилища постов:
// — поднимают реальный PostgreSQL через testcontainers-go (postgres:16-alpine);
// — применяют миграцию из ./migrations (1_init_posts.up.sql);
// — проверяют CRUD, уникальность slug, keyset-пагинацию с фильтром рубрики,
//   ExistsByID для черновиков и рубрики с количеством постов.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/posts/storage/postgres -v -race -count=1

// repoRootFromThisFile — корень репозитория относительно текущего файла тестов.
func repoRootFromThisFile() string {
	// internal/posts/storage/postgres/... -> подняться на 4 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", "..", ".."))
}

// readMigration — читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres поднимает PostgreSQL, применяет миграцию posts и возвращает
// инициализированное хранилище с функцией очистки.
// Без GO_TEST_INTEGRATION тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// применяем миграции.
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_posts.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func newPost(title, slug, category string, published bool) *models.Post {
	return &models.Post{
		AuthorID:   uuid.New(),
		AuthorName: "alice",
		Title:      title,
		Slug:       slug,
		Category:   category,
		Content:    "# " + title,
		Published:  published,
	}
}

func TestIntegration_SaveAndGet(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	p := newPost("Hello", "hello", "go", true)
	require.NoError(t, st.SavePost(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := st.PostByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Hello", got.Title)
	require.Equal(t, "hello", got.Slug)
	require.True(t, got.Published)
	require.False(t, got.CreatedAt.IsZero())

	bySlug, err := st.PostBySlug(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, p.ID, bySlug.ID)

	_, err = st.PostByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.PostBySlug(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_SlugUnique(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, st.SavePost(ctx, newPost("A", "same-slug", "", true)))
	err := st.SavePost(ctx, newPost("B", "same-slug", "", true))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_ExistsByID(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	pub := newPost("Pub", "pub", "", true)
	draft := newPost("Draft", "draft", "", false)
	require.NoError(t, st.SavePost(ctx, pub))
	require.NoError(t, st.SavePost(ctx, draft))

	ok, err := st.ExistsByID(ctx, pub.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// Черновик для внешних потребителей не существует.
	ok, err = st.ExistsByID(ctx, draft.ID)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = st.ExistsByID(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIntegration_UpdateAndDelete(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	p := newPost("Before", "before", "go", false)
	require.NoError(t, st.SavePost(ctx, p))

	title := "After"
	published := true
	got, err := st.UpdatePost(ctx, p.ID, storage.PostUpdate{Title: &title, Published: &published})
	require.NoError(t, err)
	require.Equal(t, "After", got.Title)
	require.True(t, got.Published)
	// Незатронутые поля не изменились.
	require.Equal(t, "go", got.Category)
	require.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	_, err = st.UpdatePost(ctx, uuid.New(), storage.PostUpdate{Title: &title})
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, st.DeletePost(ctx, p.ID))
	require.ErrorIs(t, st.DeletePost(ctx, p.ID), storage.ErrNotFound)
}

func TestIntegration_ListPagination(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	for i := 0; i < 5; i++ {
		p := newPost(fmt.Sprintf("Post %d", i), fmt.Sprintf("post-%d", i), "go", true)
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, st.SavePost(ctx, p))
	}
	// Черновик и чужая рубрика в выдачу не попадают.
	require.NoError(t, st.SavePost(ctx, newPost("Draft", "d", "go", false)))
	require.NoError(t, st.SavePost(ctx, newPost("Other", "o", "life", true)))

	page1, err := st.ListPosts(ctx, models.ListOptions{Category: "go", Limit: 3})
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)
	require.Equal(t, "Post 4", page1.Items[0].Title)
	require.NotEmpty(t, page1.NextPageToken)

	page2, err := st.ListPosts(ctx, models.ListOptions{Category: "go", Limit: 3, PageToken: page1.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	require.Equal(t, "Post 0", page2.Items[1].Title)

	// Битый токен.
	_, err = st.ListPosts(ctx, models.ListOptions{PageToken: "%%%"})
	require.ErrorIs(t, err, storage.ErrInvalidCursor)

	_, err = st.ListPosts(ctx, models.ListOptions{
		PageToken: base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
	})
	require.ErrorIs(t, err, storage.ErrInvalidCursor)
}

func TestIntegration_Categories(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, st.SavePost(ctx, newPost("A", "a", "go", true)))
	require.NoError(t, st.SavePost(ctx, newPost("B", "b", "go", true)))
	require.NoError(t, st.SavePost(ctx, newPost("C", "c", "life", true)))
	require.NoError(t, st.SavePost(ctx, newPost("D", "d", "life", false))) // черновик не считается

	cats, err := st.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	require.Equal(t, "go", cats[0].Slug)
	require.Equal(t, int32(2), cats[0].PostsCount)
	require.Equal(t, "life", cats[1].Slug)
	require.Equal(t, int32(1), cats[1].PostsCount)
}
