// httperr стандартизирует ответы об ошибках HTTP-слоя обоих сервисов.
// Формат повторяет единый конверт платформы:
//
//	{"error": {"code": "...", "message": "...", "request_id": "..."}}
//
// Code — короткий стабильный код для машиночитаемой обработки на FE,
// Message — безопасное человекочитаемое описание без утечки деталей.
// Конкретный маппинг сервисных ошибок в (HTTP-статус, code) живёт
// в транспортных слоях сервисов — здесь только формат и запись.
package httperr

import (
	"encoding/json"
	"net/http"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Write пишет унифицированный ответ об ошибке.
// request_id прокидывается из заголовка X-Request-Id, если он есть,
// чтобы фронт мог репортить баги с привязкой к запросу.
func Write(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: message,
		},
	}

	if r != nil {
		if rid := r.Header.Get("X-Request-Id"); rid != "" {
			resp.Error.RequestID = rid
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Internal — короткая запись для 500/internal.
func Internal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusInternalServerError, "internal", "internal error")
}
