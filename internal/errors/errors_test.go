package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no data", NewNoDataError("nothing", nil), http.StatusUnprocessableEntity, "NO_DATA"},
		{"validation", NewAppValidationError("bad"), http.StatusBadRequest, "VALIDATION"},
		{"not found", fmt.Errorf("lookup: %w", NewNotFoundError("run")), http.StatusNotFound, "NOT_FOUND"},
		{"persistence", NewPersistenceError("disk", nil), http.StatusInternalServerError, "PERSISTENCE"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"api error passthrough", ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NotFoundError("report"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "report not found", body.Error.Message)
}

func TestValidationFieldErrorKeepsSentinelDistinct(t *testing.T) {
	apiErr := ValidationFieldError("save", "not configured")

	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
	assert.Equal(t, ValidationError{Field: "save", Message: "not configured"}, apiErr.Details)

	wrapped := fmt.Errorf("bind: %w", NewAppValidationError("carbs out of range"))
	assert.ErrorIs(t, wrapped, ErrValidation)
	assert.NotErrorIs(t, apiErr, ErrValidation)
}

func TestWithDetailsDoesNotMutateShared(t *testing.T) {
	tests := []struct {
		name     string
		got      *APIError
		shared   *APIError
		wantCode string
	}{
		{"invalid request", InvalidRequestWithError(errors.New("bad json")), ErrInvalidRequest, "INVALID_REQUEST"},
		{"internal", FromError(errors.New("boom")), ErrInternalServer, "INTERNAL_SERVER_ERROR"},
		{"not found", NotFoundError("run"), ErrNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.got.ErrorCode)
			assert.Equal(t, tt.shared.StatusCode, tt.got.StatusCode)
			assert.NotNil(t, tt.got.Details)
			assert.Nil(t, tt.shared.Details)
		})
	}
}
