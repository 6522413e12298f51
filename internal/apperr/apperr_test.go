package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedErrors(t *testing.T) {
	base := Validation("activity_type is required")
	wrapped := fmt.Errorf("record activity: %w", base)

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindValidation))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestLift(t *testing.T) {
	assert.Nil(t, Lift(nil))

	typed := NotFound("user")
	assert.Same(t, typed, Lift(typed))

	cause := errors.New("connection reset")
	lifted := Lift(cause)
	assert.Equal(t, KindPersistence, KindOf(lifted))
	assert.ErrorIs(t, lifted, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindForbidden, http.StatusForbidden},
		{KindNoAssessmentYet, http.StatusConflict},
		{KindInvalidState, http.StatusConflict},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindPersistence, http.StatusInternalServerError},
		{Kind(""), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestPublicMessageHidesPersistenceCause(t *testing.T) {
	err := Persistence(errors.New("pq: relation streaks does not exist"))
	assert.Equal(t, "temporarily unavailable, please retry", PublicMessage(err))
	assert.Equal(t, "temporarily unavailable, please retry", PublicMessage(errors.New("boom")))

	assert.Equal(t, "workshop not found", PublicMessage(NotFound("workshop")))
	assert.Contains(t, PublicMessage(ErrNoAssessmentYet), "test your resume first")
}
