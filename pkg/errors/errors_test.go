package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"validation", NewValidationError("bad rating"), IsValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("comment"), IsNotFound, http.StatusNotFound},
		{"duplicate", NewDuplicatePostError("already posted"), IsDuplicatePost, http.StatusConflict},
		{"authorization", NewAuthorizationError("nope"), IsForbidden, http.StatusForbidden},
		{"conflict", NewConflictError("version"), IsConflict, http.StatusConflict},
		{"delivery", NewDeliveryError("c1", fmt.Errorf("closed")), IsDelivery, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.status, GetAppError(tt.err).HTTPStatus)

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFoundError("comment")
	assert.Equal(t, "comment not found", err.Message)
	assert.False(t, IsValidation(err))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	original := NewValidationError("rating must be between 1 and 5")
	wrapped := Wrap(original, "vote")
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, "vote: rating must be between 1 and 5", GetAppError(wrapped).Message)
	assert.Equal(t, "rating must be between 1 and 5", original.Message)

	plain := Wrapf(fmt.Errorf("boom"), "load %s", "votes")
	assert.True(t, IsInternal(plain))
	assert.EqualError(t, GetAppError(plain).Cause, "boom")
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error keeps its status and message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/c1/replies", nil)

		h.Handle(rec, req, NewAuthorizationError("Only the entity owner or the comment author can reply"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Error)
		assert.Equal(t, "FORBIDDEN", body.Type)
		assert.Equal(t, "Only the entity owner or the comment author can reply", body.Message)
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		h.Handle(rec, req, fmt.Errorf("dynamodb exploded"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "An internal error occurred", body.Message)
	})
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
