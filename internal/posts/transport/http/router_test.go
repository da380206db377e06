package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-blog-platform/internal/identity"
	"github.com/pribylovaa/go-blog-platform/internal/posts/config"
	"github.com/pribylovaa/go-blog-platform/internal/posts/mocks"
	"github.com/pribylovaa/go-blog-platform/internal/posts/models"
	"github.com/pribylovaa/go-blog-platform/internal/posts/service"
	"github.com/pribylovaa/go-blog-platform/internal/posts/storage"
)

const (
	testJWTSecret = "test-jwt-secret"
	testFPSecret  = "test-fp-secret"
)

func testRouter(t *testing.T) (http.Handler, *mocks.MockStorage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ms := mocks.NewMockStorage(ctrl)

	cfg := config.Config{
		Limits: config.LimitsConfig{
			Default:       20,
			Max:           100,
			MaxTitleLen:   300,
			MaxContentLen: 200000,
		},
	}

	svc := service.New(ms, cfg)

	resolver, err := identity.NewResolver(testJWTSecret, testFPSecret)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRouter(svc, resolver, Options{Logger: logger}), ms
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rd)
	req.RemoteAddr = "192.0.2.1:4242"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// authorToken — подписанный HMAC-токен обычного автора.
func authorToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":      userID.String(),
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return raw
}

func TestPostExists(t *testing.T) {
	h, ms := testRouter(t)

	id := uuid.New()
	ms.EXPECT().ExistsByID(gomock.Any(), id).Return(true, nil)

	rec := doJSON(t, h, http.MethodGet, "/posts/"+id.String()+"/exists", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"exists": true}`, rec.Body.String())

	// Невалидный id — ошибка клиента, не 404.
	rec = doJSON(t, h, http.MethodGet, "/posts/not-a-uuid/exists", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePost(t *testing.T) {
	h, ms := testRouter(t)

	userID := uuid.New()
	ms.EXPECT().SavePost(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *models.Post) error {
			require.Equal(t, userID, p.AuthorID)
			return nil
		})

	rec := doJSON(t, h, http.MethodPost, "/posts", map[string]any{
		"title":     "Hello World",
		"content":   "# hi",
		"published": true,
	}, authorToken(t, userID))
	require.Equal(t, http.StatusCreated, rec.Code)

	var view postView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "hello-world", view.Slug)
	require.Contains(t, view.ContentHTML, "<h1")

	// Аноним — 401.
	rec = doJSON(t, h, http.MethodPost, "/posts", map[string]any{
		"title":   "Hello",
		"content": "hi",
	}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostByID_NotFound(t *testing.T) {
	h, ms := testRouter(t)

	id := uuid.New()
	ms.EXPECT().PostByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)

	rec := doJSON(t, h, http.MethodGet, "/posts/"+id.String(), nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPosts(t *testing.T) {
	h, ms := testRouter(t)

	ms.EXPECT().ListPosts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, opts models.ListOptions) (*models.Page, error) {
			require.Equal(t, "go", opts.Category)
			require.Equal(t, int32(5), opts.Limit)
			return &models.Page{Items: []models.Post{{ID: uuid.New(), Title: "t", Published: true}}}, nil
		})

	rec := doJSON(t, h, http.MethodGet, "/posts?category=go&page_size=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page pageView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)

	// Черновики анониму недоступны.
	rec = doJSON(t, h, http.MethodGet, "/posts?include_drafts=1", nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCategories(t *testing.T) {
	h, ms := testRouter(t)

	ms.EXPECT().Categories(gomock.Any()).Return([]models.Category{{Name: "go", Slug: "go", PostsCount: 2}}, nil)

	rec := doJSON(t, h, http.MethodGet, "/categories", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"name":"go","slug":"go","posts_count":2}]`, rec.Body.String())
}

func TestDeletePost_Forbidden(t *testing.T) {
	h, ms := testRouter(t)

	id := uuid.New()
	// Пост чужого автора.
	ms.EXPECT().PostByID(gomock.Any(), id).Return(&models.Post{ID: id, AuthorID: uuid.New()}, nil)

	rec := doJSON(t, h, http.MethodDelete, "/posts/"+id.String(), nil, authorToken(t, uuid.New()))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
