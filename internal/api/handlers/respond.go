package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Машиночитаемые коды отказа. HTTP-статус определяет класс ошибки,
// code позволяет клиенту различать причины внутри класса.
const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInvalidState = "invalid_state"
	CodeWindowClosed = "window_closed"
	CodeBayInactive  = "bay_inactive"
	CodeBlocked      = "blocked"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeInternal     = "internal_error"
)

// ErrorResponse стандартное тело ошибки API
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// DecodeJSON декодирует тело запроса в dst, запрещая неизвестные поля
func DecodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// RespondJSON пишет ответ с указанным статусом и JSON телом
func RespondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// RespondFailure пишет ошибку с произвольным статусом и кодом отказа
func RespondFailure(w http.ResponseWriter, status int, code string, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// RespondFailureDetails пишет ошибку со структурированными деталями отказа
func RespondFailureDetails(w http.ResponseWriter, status int, code string, message string, details interface{}) {
	RespondJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

// RespondBadRequest пишет 400
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondFailure(w, http.StatusBadRequest, CodeInvalidInput, message)
}

// RespondUnauthorized пишет 401
func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondFailure(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// RespondForbidden пишет 403
func RespondForbidden(w http.ResponseWriter, message string) {
	RespondFailure(w, http.StatusForbidden, CodeForbidden, message)
}

// RespondNotFound пишет 404
func RespondNotFound(w http.ResponseWriter, message string) {
	RespondFailure(w, http.StatusNotFound, CodeNotFound, message)
}

// RespondConflict пишет 409 с кодом conflict
func RespondConflict(w http.ResponseWriter, message string) {
	RespondFailure(w, http.StatusConflict, CodeConflict, message)
}

// RespondInternalError пишет 500 с обезличенным сообщением
func RespondInternalError(w http.ResponseWriter) {
	RespondFailure(w, http.StatusInternalServerError, CodeInternal, "внутренняя ошибка сервера")
}
