package identity

// Тесты резолвера личностей (internal/identity).
//
// Проверяем:
//   - валидный токен -> личность из claims, стабильный fingerprint;
//   - невалидный/чужой токен -> деградация до анонимной личности;
//   - анонимный запрос -> trust=normal, banned=false;
//   - fingerprint не содержит сырых идентификаторов и стабилен.

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret = "jwt-secret"
	testFPSecret  = "fp-secret"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(testJWTSecret, testFPSecret)
	require.NoError(t, err)
	return r
}

// signToken подписывает токен с нужными claims тем же секретом, что и резолвер.
func signToken(t *testing.T, secret string, cl claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &cl).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestNewResolver_EmptyFingerprintSecret(t *testing.T) {
	_, err := NewResolver("x", "   ")
	require.Error(t, err)
}

func TestResolve_ValidToken(t *testing.T) {
	r := newTestResolver(t)
	uid := uuid.New()

	tok := signToken(t, testJWTSecret, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Username: "alice",
		Trust:    "trusted",
		Role:     "moderator",
	})

	req := httptest.NewRequest(http.MethodPost, "/comments", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	id := r.Resolve(req)
	require.Equal(t, uid, id.UserID)
	require.Equal(t, "alice", id.Username)
	require.Equal(t, TrustTrusted, id.Trust)
	require.True(t, id.IsModerator)
	require.False(t, id.IsBanned)
	require.False(t, id.Anonymous())
	require.Len(t, id.Fingerprint, 64) // hex sha256

	// Fingerprint стабилен между вызовами.
	require.Equal(t, id.Fingerprint, r.Resolve(req).Fingerprint)
}

func TestResolve_BannedClaim(t *testing.T) {
	r := newTestResolver(t)

	tok := signToken(t, testJWTSecret, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Banned: true,
	})

	req := httptest.NewRequest(http.MethodPost, "/comments", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	id := r.Resolve(req)
	require.True(t, id.IsBanned)
	require.Equal(t, TrustNormal, id.Trust)
}

// Токен с чужой подписью игнорируется: личность анонимная.
func TestResolve_WrongSignature(t *testing.T) {
	r := newTestResolver(t)

	tok := signToken(t, "other-secret", claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
	})

	req := httptest.NewRequest(http.MethodPost, "/comments", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	id := r.Resolve(req)
	require.True(t, id.Anonymous())
	require.Equal(t, TrustNormal, id.Trust)
	require.False(t, id.IsBanned)
}

func TestResolve_Anonymous(t *testing.T) {
	r := newTestResolver(t)

	req := httptest.NewRequest(http.MethodPost, "/comments", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("User-Agent", "curl/8.0")

	id := r.Resolve(req)
	require.True(t, id.Anonymous())
	require.Equal(t, TrustNormal, id.Trust)
	require.NotEmpty(t, id.Fingerprint)
	// Производный токен, не сырой адрес.
	require.NotContains(t, id.Fingerprint, "203.0.113.7")

	// Тот же адрес+UA -> тот же fingerprint; порт не влияет.
	req2 := httptest.NewRequest(http.MethodPost, "/comments", nil)
	req2.RemoteAddr = "203.0.113.7:60000"
	req2.Header.Set("User-Agent", "curl/8.0")
	require.Equal(t, id.Fingerprint, r.Resolve(req2).Fingerprint)

	// Другой адрес -> другой fingerprint.
	req3 := httptest.NewRequest(http.MethodPost, "/comments", nil)
	req3.RemoteAddr = "198.51.100.1:443"
	req3.Header.Set("User-Agent", "curl/8.0")
	require.NotEqual(t, id.Fingerprint, r.Resolve(req3).Fingerprint)
}

func TestResolve_XForwardedFor(t *testing.T) {
	r := newTestResolver(t)

	req := httptest.NewRequest(http.MethodPost, "/comments", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	req2 := httptest.NewRequest(http.MethodPost, "/comments", nil)
	req2.RemoteAddr = "10.0.0.2:2222"
	req2.Header.Set("X-Forwarded-For", "203.0.113.7")

	// Первый hop из XFF определяет fingerprint независимо от RemoteAddr.
	require.Equal(t, r.Resolve(req).Fingerprint, r.Resolve(req2).Fingerprint)
}

func TestParseTrustLevel(t *testing.T) {
	require.Equal(t, TrustLow, ParseTrustLevel(" LOW "))
	require.Equal(t, TrustHigh, ParseTrustLevel("high"))
	require.Equal(t, TrustTrusted, ParseTrustLevel("Trusted"))
	require.Equal(t, TrustNormal, ParseTrustLevel("normal"))
	require.Equal(t, TrustNormal, ParseTrustLevel(""))
	require.Equal(t, TrustNormal, ParseTrustLevel("garbage"))
}
