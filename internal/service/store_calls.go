package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cursada/planner-api/pkg/database"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

// DefaultQueryTimeout bounds a single store interaction when no explicit value is configured.
const DefaultQueryTimeout = 5 * time.Second

// storeCalls bounds store interactions and classifies their failures.
type storeCalls struct {
	timeout time.Duration
	logger  *zap.Logger
}

func newStoreCalls(logger *zap.Logger) storeCalls {
	if logger == nil {
		logger = zap.NewNop()
	}
	return storeCalls{timeout: DefaultQueryTimeout, logger: logger}
}

// SetQueryTimeout overrides the per-call store deadline.
func (s *storeCalls) SetQueryTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

func (s storeCalls) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// fail maps a store error: infrastructure failures and exhausted
// serialization retries become ErrTransient, unparsable identifiers
// ErrNotFound, anything else ErrInternal with message.
func (s storeCalls) fail(err error, message string) error {
	switch {
	case database.IsTransient(err):
		s.logger.Warn("store unavailable", zap.String("operation", message), zap.Error(err))
		return appErrors.CloneWrap(appErrors.ErrTransient, err, "store temporarily unavailable")
	case database.IsRetryable(err):
		s.logger.Warn("store contention", zap.String("operation", message), zap.Error(err))
		return appErrors.CloneWrap(appErrors.ErrTransient, err, "store busy, try again")
	case database.IsInvalidText(err):
		return appErrors.CloneWrap(appErrors.ErrNotFound, err, "resource not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// notFoundOr maps sql.ErrNoRows to ErrNotFound with notFound, falling back to fail.
func (s storeCalls) notFoundOr(err error, notFound, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return s.fail(err, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
