package log

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// From без логгера в контексте возвращает slog.Default().
func TestFrom_Default(t *testing.T) {
	require.Equal(t, slog.Default(), From(context.Background()))
}

// Into/From — положенный логгер возвращается тем же указателем.
func TestIntoFrom_RoundTrip(t *testing.T) {
	l := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := Into(context.Background(), l)
	require.Same(t, l, From(ctx))
}

// Nil-логгер в контексте не ломает From.
func TestFrom_NilLogger(t *testing.T) {
	ctx := Into(context.Background(), nil)
	require.Equal(t, slog.Default(), From(ctx))
}

// Setup не возвращает nil ни для одного окружения.
func TestSetup(t *testing.T) {
	for _, env := range []string{EnvLocal, EnvDev, EnvProd, "unknown"} {
		require.NotNil(t, Setup(env), env)
	}
}
