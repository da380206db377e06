// identity отвечает за разрешение личности отправителя запроса.
//
// Контракт (см. пайплайн модерации):
//   - при валидном Bearer-токене — {user_id, username, trust_level, banned, moderator}
//     из claims + стабильный fingerprint от user_id;
//   - без токена (или с невалидным) — анонимная личность: trust=normal,
//     banned=false, fingerprint от сетевого адреса и User-Agent.
//
// Fingerprint — производный необратимый токен (HMAC-SHA256 с серверным
// секретом), сырые идентификаторы (IP/UA) никогда не сохраняются.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TrustLevel — грубая классификация доверия, влияющая на строгость модерации.
type TrustLevel string

const (
	TrustLow     TrustLevel = "low"
	TrustNormal  TrustLevel = "normal"
	TrustHigh    TrustLevel = "high"
	TrustTrusted TrustLevel = "trusted"
)

// ParseTrustLevel нормализует строку уровня доверия.
// Неизвестные значения деградируют до normal — пайплайн обязан
// переживать любые личности.
func ParseTrustLevel(s string) TrustLevel {
	switch TrustLevel(strings.ToLower(strings.TrimSpace(s))) {
	case TrustLow:
		return TrustLow
	case TrustHigh:
		return TrustHigh
	case TrustTrusted:
		return TrustTrusted
	default:
		return TrustNormal
	}
}

// Identity — разрешённая личность отправителя.
// UserID == uuid.Nil означает анонимного отправителя.
type Identity struct {
	UserID      uuid.UUID
	Username    string
	Fingerprint string
	Trust       TrustLevel
	IsBanned    bool
	IsModerator bool
}

// Anonymous сообщает, что личность не подтверждена токеном.
func (id Identity) Anonymous() bool {
	return id.UserID == uuid.Nil
}

// Resolver разбирает Bearer-токены и выводит fingerprint.
type Resolver struct {
	jwtSecret []byte
	fpSecret  []byte
}

// NewResolver создаёт резолвер личностей.
// jwtSecret может быть пустым — тогда все запросы анонимны.
// fpSecret обязателен: без него fingerprint нестабилен между рестартами.
func NewResolver(jwtSecret, fpSecret string) (*Resolver, error) {
	if strings.TrimSpace(fpSecret) == "" {
		return nil, fmt.Errorf("identity: empty fingerprint secret")
	}

	return &Resolver{
		jwtSecret: []byte(jwtSecret),
		fpSecret:  []byte(fpSecret),
	}, nil
}

// claims — ожидаемый набор полей токена платформы.
type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Trust    string `json:"trust,omitempty"`
	Banned   bool   `json:"banned,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Resolve разрешает личность из HTTP-запроса.
// Любая ошибка разбора токена деградирует до анонимной личности —
// отказ стороннего auth-сервиса не должен блокировать отправку комментариев.
func (r *Resolver) Resolve(req *http.Request) Identity {
	if tok := bearerToken(req); tok != "" && len(r.jwtSecret) > 0 {
		if id, ok := r.fromToken(tok); ok {
			return id
		}
	}

	return r.anonymous(req)
}

// fromToken разбирает и проверяет подпись JWT (только HMAC).
func (r *Resolver) fromToken(raw string) (Identity, bool) {
	var cl claims
	tok, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, false
	}

	userID, err := uuid.Parse(strings.TrimSpace(cl.Subject))
	if err != nil || userID == uuid.Nil {
		return Identity{}, false
	}

	role := strings.ToLower(strings.TrimSpace(cl.Role))

	return Identity{
		UserID:      userID,
		Username:    strings.TrimSpace(cl.Username),
		Fingerprint: r.fingerprint("uid|" + userID.String()),
		Trust:       ParseTrustLevel(cl.Trust),
		IsBanned:    cl.Banned,
		IsModerator: role == "moderator" || role == "admin",
	}, true
}

// anonymous строит псевдоличность по сетевым признакам запроса.
func (r *Resolver) anonymous(req *http.Request) Identity {
	host := clientHost(req)
	ua := req.Header.Get("User-Agent")

	return Identity{
		Fingerprint: r.fingerprint("anon|" + host + "|" + ua),
		Trust:       TrustNormal,
	}
}

// fingerprint — HMAC-SHA256(secret, material) в hex.
func (r *Resolver) fingerprint(material string) string {
	mac := hmac.New(sha256.New, r.fpSecret)
	_, _ = mac.Write([]byte(material))
	return hex.EncodeToString(mac.Sum(nil))
}

// bearerToken извлекает сырой Bearer-токен из Authorization.
func bearerToken(req *http.Request) string {
	auth := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

// clientHost — адрес клиента: X-Forwarded-For (первый hop) либо RemoteAddr без порта.
func clientHost(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
