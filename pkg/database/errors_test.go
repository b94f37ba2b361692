package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	wrap := func(code pq.ErrorCode) error {
		return fmt.Errorf("find rating: %w", &pq.Error{Code: code})
	}

	assert.True(t, IsUniqueViolation(wrap("23505")))
	assert.True(t, IsInvalidText(wrap("22P02")))
	assert.False(t, IsInvalidText(wrap("23505")))
	assert.True(t, IsRetryable(wrap("40001")))
	assert.True(t, IsRetryable(wrap("40P01")))
	assert.False(t, IsTransient(wrap("40001")))
	assert.True(t, IsTransient(wrap("08006")))
	assert.True(t, IsTransient(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.False(t, IsTransient(errors.New("syntax error")))
}
