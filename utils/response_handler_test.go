package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm/apperrors"
	"crm/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) schemas.ApiResponse {
	t.Helper()
	var body schemas.ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSendResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	SendResponse(rec, http.StatusNoContent, "", nil, 0)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec = httptest.NewRecorder()
	SendResponse(rec, http.StatusOK, "ok", map[string]int{"n": 1}, 0)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, "ok", body.Message)
	assert.Equal(t, map[string]any{"n": float64(1)}, body.Data)

	rec = httptest.NewRecorder()
	SendResponse(rec, http.StatusBadGateway, "ignored", nil, CANNOT_LIST_LEADS)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, SendInternalError(CANNOT_LIST_LEADS), decode(t, rec).Message)
}

func TestSendErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.Validation("last_name", "is required"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", apperrors.NotFound("lead")), http.StatusNotFound},
		{apperrors.Conflict("exists"), http.StatusConflict},
		{apperrors.Forbidden("admin role required"), http.StatusForbidden},
		{apperrors.Unauthorized("Token is not valid"), http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		SendError(rec, tc.err, CANNOT_CREATE_LEAD)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestSendErrorBodies(t *testing.T) {
	rec := httptest.NewRecorder()
	SendError(rec, apperrors.Validation("last_name", "is required"), 0)
	assert.Equal(t, map[string]string{"last_name": "is required"}, decode(t, rec).Errors)

	rec = httptest.NewRecorder()
	SendError(rec, &apperrors.ConflictError{Message: "deal cannot be deleted", Blockers: []string{"Deal is Closed Won"}}, 0)
	body := decode(t, rec)
	assert.Equal(t, "deal cannot be deleted", body.Message)
	data := body.Data.(map[string]any)
	assert.Equal(t, []any{"Deal is Closed Won"}, data["blockers"])

	rec = httptest.NewRecorder()
	SendError(rec, errors.New("mongo down"), CANNOT_FIND_DEAL)
	assert.Equal(t, SendInternalError(CANNOT_FIND_DEAL), decode(t, rec).Message)
}
