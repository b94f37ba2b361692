package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/repository"
	"github.com/cursada/planner-api/pkg/database"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

type postEngagementRepository interface {
	Kind() models.PostKind
	ApplyVote(ctx context.Context, postID, userID string, kind models.VoteKind) (*models.VoteResult, error)
	ApplyReport(ctx context.Context, postID, userID, reason string) (*models.PostCounters, error)
}

type contentChecker interface {
	Check(ctx context.Context, text, author string) error
}

// VoteRequest carries the vote direction.
type VoteRequest struct {
	Kind models.VoteKind `json:"kind" validate:"required,oneof=util no_util"`
}

// ReportRequest carries an optional reason.
type ReportRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// postEngagement implements voting and reporting for one post kind.
type postEngagement struct {
	storeCalls
	repo    postEngagementRepository
	users   userDirectory
	metrics *MetricsService
}

func newPostEngagement(repo postEngagementRepository, users userDirectory, metrics *MetricsService, logger *zap.Logger) postEngagement {
	return postEngagement{storeCalls: newStoreCalls(logger), repo: repo, users: users, metrics: metrics}
}

func (e *postEngagement) vote(ctx context.Context, principal models.Principal, postID string, req VoteRequest) (*models.VoteResult, error) {
	kind := string(e.repo.Kind())
	if !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "vote kind must be util or no_util")
	}
	if err := e.users.Ensure(ctx, principal); err != nil {
		return nil, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	result, err := e.repo.ApplyVote(ctx, postID, principal.UserID, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			e.metrics.RecordVote(kind, "not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		case errors.Is(err, repository.ErrSelfVote):
			e.metrics.RecordVote(kind, "self")
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot vote on your own post")
		case database.IsUniqueViolation(err):
			e.metrics.RecordVote(kind, "conflict")
			return nil, appErrors.CloneWrap(appErrors.ErrConflict, err, "vote already recorded")
		}
		e.metrics.RecordVote(kind, "error")
		return nil, e.fail(err, "failed to apply vote")
	}

	outcome := "removed"
	if result.UserVote != nil {
		outcome = string(*result.UserVote)
	}
	e.metrics.RecordVote(kind, outcome)
	return result, nil
}

func (e *postEngagement) report(ctx context.Context, principal models.Principal, postID string, req ReportRequest) (*models.PostCounters, error) {
	kind := string(e.repo.Kind())
	if len(req.Reason) > 500 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is too long")
	}
	if err := e.users.Ensure(ctx, principal); err != nil {
		return nil, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	counters, err := e.repo.ApplyReport(ctx, postID, principal.UserID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			e.metrics.RecordReport(kind, "not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		case errors.Is(err, repository.ErrSelfReport):
			e.metrics.RecordReport(kind, "self")
			return nil, appErrors.Clone(appErrors.ErrConflict, "cannot report your own post")
		case errors.Is(err, repository.ErrAlreadyReported), database.IsUniqueViolation(err):
			e.metrics.RecordReport(kind, "duplicate")
			return nil, appErrors.Clone(appErrors.ErrConflict, "post already reported")
		}
		e.metrics.RecordReport(kind, "error")
		return nil, e.fail(err, "failed to report post")
	}
	e.metrics.RecordReport(kind, "accepted")
	return counters, nil
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
