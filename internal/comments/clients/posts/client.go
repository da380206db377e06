// posts — клиент posts-service для проверки существования поста перед
// созданием корневого комментария.
package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Checker — минимальный контракт проверки существования поста.
type Checker interface {
	// Exists сообщает, существует ли опубликованный пост.
	Exists(ctx context.Context, postID uuid.UUID) (bool, error)
	// Close закрывает ресурсы клиента.
	Close() error
}

// Client — HTTP-клиент posts-service.
type Client struct {
	baseURL string
	http    *http.Client
}

// New создаёт клиент. Таймаут запроса задаётся через http.Client вызывающим
// конфигом; контекст запроса дополнительно ограничивает каждую проверку.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Exists дергает GET /posts/{id}/exists.
// Ответ 200 несёт {"exists": true|false}; 404 трактуется как «поста нет».
func (c *Client) Exists(ctx context.Context, postID uuid.UUID) (bool, error) {
	const op = "clients/posts/Exists"

	url := fmt.Sprintf("%s/posts/%s/exists", c.baseURL, postID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%s: build request: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Exists bool `json:"exists"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false, fmt.Errorf("%s: decode: %w", op, err)
		}

		return body.Exists, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
}

// Close реализует Checker; у голого HTTP-клиента ресурсов нет.
func (c *Client) Close() error { return nil }
