package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	err := Validation("INVALID_QUANTITY", "quantity must be positive")
	wrapped := fmt.Errorf("add item: %w", err)

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.Equal(t, "INVALID_QUANTITY", CodeOf(wrapped))
	assert.Equal(t, "quantity must be positive", MessageOf(wrapped))
}

func TestPlainErrorIsInternal(t *testing.T) {
	err := errors.New("connection refused")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "INTERNAL", CodeOf(err))
	assert.Equal(t, "connection refused", MessageOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindProviderUnavailable, "PAYMENT_PROVIDER_UNREACHABLE", "provider unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PAYMENT_PROVIDER_UNREACHABLE")
	assert.Contains(t, err.Error(), "timeout")
}

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}

	assert.True(t, IsUniqueViolation(uniqueErr, ""))
	assert.True(t, IsUniqueViolation(uniqueErr, "users_email_key"))
	assert.False(t, IsUniqueViolation(uniqueErr, "other_constraint"))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
}
