package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFailureBodiesCarryReasonCode(t *testing.T) {
	tests := []struct {
		name       string
		respond    func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(w http.ResponseWriter) { RespondBadRequest(w, "плохой запрос") }, http.StatusBadRequest, CodeInvalidInput},
		{"unauthorized", func(w http.ResponseWriter) { RespondUnauthorized(w, "нет пользователя") }, http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { RespondForbidden(w, "чужое бронирование") }, http.StatusForbidden, CodeForbidden},
		{"not found", func(w http.ResponseWriter) { RespondNotFound(w, "не найдено") }, http.StatusNotFound, CodeNotFound},
		{"conflict", func(w http.ResponseWriter) { RespondConflict(w, "окно занято") }, http.StatusConflict, CodeConflict},
		{"internal", RespondInternalError, http.StatusInternalServerError, CodeInternal},
		{"invalid state", func(w http.ResponseWriter) {
			RespondFailure(w, http.StatusConflict, CodeInvalidState, "недопустимый переход")
		}, http.StatusConflict, CodeInvalidState},
		{"window closed", func(w http.ResponseWriter) {
			RespondFailure(w, http.StatusGone, CodeWindowClosed, "окно закрылось")
		}, http.StatusGone, CodeWindowClosed},
		{"bay inactive", func(w http.ResponseWriter) {
			RespondFailure(w, http.StatusBadRequest, CodeBayInactive, "бокс недоступен")
		}, http.StatusBadRequest, CodeBayInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.respond(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestFailureDetailsIncluded(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondFailureDetails(rec, http.StatusConflict, CodeWindowClosed, "окно ещё не открылось",
		map[string]bool{"retryable": true})

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, CodeWindowClosed, raw["code"])
	assert.Equal(t, map[string]interface{}{"retryable": true}, raw["details"])
}

func TestDetailsOmittedWhenEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondConflict(rec, "окно занято")

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	_, present := raw["details"]
	assert.False(t, present)
}
