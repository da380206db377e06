// Тесты сервисного слоя posts-service на gomock-стабе хранилища.
//
// Обновление моков:
//
//	mockgen -source=./internal/posts/storage/storage.go \
//	  -destination=./internal/posts/mocks/storage.go -package=mocks
package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-blog-platform/internal/identity"
	"github.com/pribylovaa/go-blog-platform/internal/posts/config"
	"github.com/pribylovaa/go-blog-platform/internal/posts/mocks"
	"github.com/pribylovaa/go-blog-platform/internal/posts/models"
	"github.com/pribylovaa/go-blog-platform/internal/posts/storage"
)

func testConfig() config.Config {
	return config.Config{
		Limits: config.LimitsConfig{
			Default:       20,
			Max:           100,
			MaxTitleLen:   300,
			MaxContentLen: 200000,
		},
	}
}

func newServiceWithMocks(t *testing.T) (*Service, *mocks.MockStorage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ms := mocks.NewMockStorage(ctrl)
	return New(ms, testConfig()), ms
}

func authorIdentity() identity.Identity {
	return identity.Identity{
		UserID:      uuid.New(),
		Username:    "alice",
		Fingerprint: "fp-alice",
		Trust:       identity.TrustNormal,
	}
}

func ctxWith(id identity.Identity) context.Context {
	return identity.Into(context.Background(), id)
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello-world"},
		{"  Spaces   everywhere  ", "spaces-everywhere"},
		{"Go 1.24 release notes", "go-1-24-release-notes"},
		{"___", ""},
		{"ЖИЗНЬ и Код", "жизнь-и-код"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, slugify(tc.in), "slugify(%q)", tc.in)
	}

	// Длина ограничена.
	long := slugify(strings.Repeat("word ", 100))
	require.LessOrEqual(t, len(long), maxSlugLen+1)
}

func TestCreatePost_HappyPath(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	ident := authorIdentity()

	ms.EXPECT().SavePost(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *models.Post) error {
			require.Equal(t, ident.UserID, p.AuthorID)
			require.Equal(t, "alice", p.AuthorName)
			require.Equal(t, "my-first-post", p.Slug)
			require.True(t, p.Published)
			return nil
		})

	out, err := s.CreatePost(ctxWith(ident), CreatePostInput{
		Title:     "My First Post",
		Category:  "Go",
		Content:   "# Hello\n\nsome *markdown*",
		Published: true,
	})
	require.NoError(t, err)
	require.Equal(t, "go", out.Category)
	// HTML отрендерен на чтении.
	require.Contains(t, out.ContentHTML, "<em>markdown</em>")
}

func TestCreatePost_Unauthenticated(t *testing.T) {
	s, _ := newServiceWithMocks(t)

	_, err := s.CreatePost(context.Background(), CreatePostInput{
		Title:   "t",
		Content: "c",
	})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreatePost_Validation(t *testing.T) {
	s, _ := newServiceWithMocks(t)
	ctx := ctxWith(authorIdentity())

	_, err := s.CreatePost(ctx, CreatePostInput{Title: "   ", Content: "c"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.CreatePost(ctx, CreatePostInput{Title: strings.Repeat("x", 301), Content: "c"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.CreatePost(ctx, CreatePostInput{Title: "t", Content: "  "})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// TestCreatePost_SlugConflictRetry — конфликт slug даёт одну повторную
// попытку с суффиксом, второй конфликт — ErrAlreadyExists.
func TestCreatePost_SlugConflictRetry(t *testing.T) {
	s, ms := newServiceWithMocks(t)
	ctx := ctxWith(authorIdentity())

	var slugs []string
	ms.EXPECT().SavePost(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *models.Post) error {
			slugs = append(slugs, p.Slug)
			return storage.ErrAlreadyExists
		}).Times(2)

	_, err := s.CreatePost(ctx, CreatePostInput{Title: "Duplicate Title", Content: "c"})
	require.ErrorIs(t, err, ErrAlreadyExists)
	require.Len(t, slugs, 2)
	require.Equal(t, "duplicate-title", slugs[0])
	require.True(t, strings.HasPrefix(slugs[1], "duplicate-title-"))
	require.NotEqual(t, slugs[0], slugs[1])
}

// TestPostByID_DraftVisibility — черновик видят только автор и модератор.
func TestPostByID_DraftVisibility(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	author := authorIdentity()
	draft := &models.Post{ID: uuid.New(), AuthorID: author.UserID, Content: "text", Published: false}

	// Чужому — как будто не существует.
	ms.EXPECT().PostByID(gomock.Any(), draft.ID).Return(draft, nil)
	_, err := s.PostByID(ctxWith(authorIdentity()), draft.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Автору — виден.
	ms.EXPECT().PostByID(gomock.Any(), draft.ID).Return(draft, nil)
	out, err := s.PostByID(ctxWith(author), draft.ID)
	require.NoError(t, err)
	require.Equal(t, draft.ID, out.ID)

	// Модератору — виден.
	mod := authorIdentity()
	mod.IsModerator = true
	ms.EXPECT().PostByID(gomock.Any(), draft.ID).Return(draft, nil)
	_, err = s.PostByID(ctxWith(mod), draft.ID)
	require.NoError(t, err)
}

func TestPostBySlug(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	post := &models.Post{ID: uuid.New(), Slug: "hello", Content: "**bold**", Published: true}
	ms.EXPECT().PostBySlug(gomock.Any(), "hello").Return(post, nil)

	out, err := s.PostBySlug(context.Background(), "hello")
	require.NoError(t, err)
	require.Contains(t, out.ContentHTML, "<strong>bold</strong>")

	_, err = s.PostBySlug(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidArgument)

	ms.EXPECT().PostBySlug(gomock.Any(), "gone").Return(nil, storage.ErrNotFound)
	_, err = s.PostBySlug(context.Background(), "gone")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExistsByID(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	id := uuid.New()
	ms.EXPECT().ExistsByID(gomock.Any(), id).Return(true, nil)

	ok, err := s.ExistsByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)

	ms.EXPECT().ExistsByID(gomock.Any(), id).Return(false, errors.New("boom"))
	_, err = s.ExistsByID(context.Background(), id)
	require.ErrorIs(t, err, ErrInternal)
}

func TestUpdatePost_Permissions(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	author := authorIdentity()
	post := &models.Post{ID: uuid.New(), AuthorID: author.UserID, Published: true}

	// Чужой — permission denied.
	ms.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	title := "New Title"
	_, err := s.UpdatePost(ctxWith(authorIdentity()), post.ID, UpdatePostInput{Title: &title})
	require.ErrorIs(t, err, ErrPermissionDenied)

	// Автор — обновление проходит.
	ms.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	ms.EXPECT().UpdatePost(gomock.Any(), post.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, upd storage.PostUpdate) (*models.Post, error) {
			require.NotNil(t, upd.Title)
			require.Equal(t, "New Title", *upd.Title)
			updated := *post
			updated.Title = *upd.Title
			return &updated, nil
		})

	out, err := s.UpdatePost(ctxWith(author), post.ID, UpdatePostInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "New Title", out.Title)
}

func TestDeletePost_Permissions(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	author := authorIdentity()
	post := &models.Post{ID: uuid.New(), AuthorID: author.UserID}

	ms.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	err := s.DeletePost(ctxWith(authorIdentity()), post.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	mod := authorIdentity()
	mod.IsModerator = true
	ms.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	ms.EXPECT().DeletePost(gomock.Any(), post.ID).Return(nil)
	require.NoError(t, s.DeletePost(ctxWith(mod), post.ID))
}

func TestListPosts(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	// Лимит по умолчанию и потолок.
	ms.EXPECT().ListPosts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, opts models.ListOptions) (*models.Page, error) {
			require.Equal(t, int32(20), opts.Limit)
			require.False(t, opts.IncludeDrafts)
			return &models.Page{}, nil
		})
	_, err := s.ListPosts(context.Background(), ListPostsInput{})
	require.NoError(t, err)

	ms.EXPECT().ListPosts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, opts models.ListOptions) (*models.Page, error) {
			require.Equal(t, int32(100), opts.Limit)
			return &models.Page{}, nil
		})
	_, err = s.ListPosts(context.Background(), ListPostsInput{PageSize: 1000})
	require.NoError(t, err)

	// Черновики — только модератору.
	_, err = s.ListPosts(ctxWith(authorIdentity()), ListPostsInput{IncludeDrafts: true})
	require.ErrorIs(t, err, ErrPermissionDenied)

	ms.EXPECT().ListPosts(gomock.Any(), gomock.Any()).Return(nil, storage.ErrInvalidCursor)
	_, err = s.ListPosts(context.Background(), ListPostsInput{PageToken: "junk"})
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestCategories(t *testing.T) {
	s, ms := newServiceWithMocks(t)

	ms.EXPECT().Categories(gomock.Any()).Return([]models.Category{{Slug: "go", Name: "go", PostsCount: 3}}, nil)

	out, err := s.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int32(3), out[0].PostsCount)
}
