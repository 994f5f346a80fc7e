package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"task-tracker/backend/internal/errs"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := errs.Validation("title", "field required")

	assert.True(t, errors.Is(err, errs.ErrValidation))
	assert.False(t, errors.Is(err, errs.ErrNotFound))
	assert.Equal(t, "title: field required", err.Error())

	wrapped := fmt.Errorf("create task: %w", err)
	assert.True(t, errors.Is(wrapped, errs.ErrValidation))

	var ve *errs.ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "title", ve.Field)
}

func TestSentinelHierarchy(t *testing.T) {
	assert.True(t, errors.Is(errs.ErrTaskNotFound, errs.ErrNotFound))
	assert.True(t, errors.Is(errs.ErrUserNotFound, errs.ErrNotFound))
	assert.True(t, errors.Is(errs.ErrEmailRegistered, errs.ErrConflict))
	assert.True(t, errors.Is(errs.ErrInvalidToken, errs.ErrUnauthorized))
	assert.True(t, errors.Is(errs.ErrInvalidCredentials, errs.ErrUnauthorized))
	assert.False(t, errors.Is(errs.ErrInvalidToken, errs.ErrInvalidCredentials))
}
