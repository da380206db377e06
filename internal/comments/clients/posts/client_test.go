package posts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestClient_Exists: интерпретация ответов posts-service.
func TestClient_Exists(t *testing.T) {
	t.Parallel()

	known := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/posts/" + known.String() + "/exists":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"exists": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cli := New(srv.URL, srv.Client())

	exists, err := cli.Exists(context.Background(), known)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = cli.Exists(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, exists)
}

// TestClient_Exists_ServerError: 5xx — ошибка, а не «поста нет».
func TestClient_Exists_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cli := New(srv.URL, srv.Client())

	_, err := cli.Exists(context.Background(), uuid.New())
	require.Error(t, err)
}

// TestClient_Exists_ContextTimeout: дедлайн контекста обрывает запрос.
func TestClient_Exists_ContextTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	cli := New(srv.URL, srv.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cli.Exists(ctx, uuid.New())
	require.Error(t, err)
}
