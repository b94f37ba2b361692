package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
	"github.com/cursada/planner-api/pkg/moderation"
)

type ratingFixture struct {
	svc        *RatingService
	repo       *fakeRatings
	engagement *fakeEngagement
	moderator  *spyModerator
	metrics    *MetricsService
}

func newRatingFixture() ratingFixture {
	repo := newFakeRatings()
	engagement := newFakeEngagement(models.PostKindRating)
	moderator := &spyModerator{verdict: moderation.Verdict{Approved: true}}
	metrics := NewMetricsService()
	gate := NewContentGate(nil, moderator, metrics, nil)
	svc := NewRatingService(repo, engagement, newFakeCatalog(3), newFakeUsers(), gate, metrics, nil, nil)
	return ratingFixture{svc: svc, repo: repo, engagement: engagement, moderator: moderator, metrics: metrics}
}

func TestRatingServiceCreate(t *testing.T) {
	f := newRatingFixture()

	rating, err := f.svc.Create(context.Background(), alice, 1, CreateRatingRequest{Score: 4, Comment: "  Exigente pero clara  "})
	require.NoError(t, err)
	assert.Equal(t, "Exigente pero clara", rating.Comment)
	assert.Equal(t, "Alice", rating.AuthorName)
	assert.Equal(t, 1, f.moderator.calls)
}

func TestRatingServiceCreateOncePerSubject(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, alice, 1, CreateRatingRequest{Score: 4})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, alice, 1, CreateRatingRequest{Score: 2})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, 1, f.repo.created)
}

func TestRatingServiceCreateRejectsScoreOutOfRange(t *testing.T) {
	f := newRatingFixture()

	_, err := f.svc.Create(context.Background(), alice, 1, CreateRatingRequest{Score: 6})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRatingServiceCreateRejectsProfanity(t *testing.T) {
	f := newRatingFixture()

	_, err := f.svc.Create(context.Background(), alice, 1, CreateRatingRequest{Score: 1, Comment: "sos un boludo"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, 0, f.moderator.calls)
	assert.Equal(t, 0, f.repo.created)
}

func TestRatingServiceUpdateOnlyByAuthor(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()

	rating, err := f.svc.Create(ctx, alice, 1, CreateRatingRequest{Score: 3, Comment: "ok"})
	require.NoError(t, err)

	score := 5
	_, err = f.svc.Update(ctx, bob, rating.ID, UpdateRatingRequest{Score: &score})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	updated, err := f.svc.Update(ctx, alice, rating.ID, UpdateRatingRequest{Score: &score})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Score)
	assert.Equal(t, "ok", updated.Comment)
	assert.Equal(t, 1, f.moderator.calls)

	assert.ErrorIs(t, f.svc.Delete(ctx, bob, rating.ID), appErrors.ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, alice, rating.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, alice, rating.ID), appErrors.ErrNotFound)
}

func TestRatingServiceVoteRoundTrip(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	f.engagement.addPost("r1", alice.UserID)

	result, err := f.svc.Vote(ctx, bob, "r1", VoteRequest{Kind: models.VoteUseful})
	require.NoError(t, err)
	assert.Equal(t, 1, result.UsefulCount)
	require.NotNil(t, result.UserVote)
	assert.Equal(t, models.VoteUseful, *result.UserVote)

	result, err = f.svc.Vote(ctx, bob, "r1", VoteRequest{Kind: models.VoteNotUseful})
	require.NoError(t, err)
	assert.Equal(t, 0, result.UsefulCount)
	assert.Equal(t, 1, result.NotUsefulCount)

	result, err = f.svc.Vote(ctx, bob, "r1", VoteRequest{Kind: models.VoteNotUseful})
	require.NoError(t, err)
	assert.Equal(t, 0, result.UsefulCount)
	assert.Equal(t, 0, result.NotUsefulCount)
	assert.Nil(t, result.UserVote)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.votes.WithLabelValues("rating", "removed")))
}

func TestRatingServiceVoteRejections(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	f.engagement.addPost("r1", alice.UserID)

	_, err := f.svc.Vote(ctx, alice, "r1", VoteRequest{Kind: models.VoteUseful})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Vote(ctx, bob, "missing", VoteRequest{Kind: models.VoteUseful})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Vote(ctx, bob, "r1", VoteRequest{Kind: "meh"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRatingServiceVoteContentionIsTransient(t *testing.T) {
	f := newRatingFixture()
	f.engagement.addPost("r1", alice.UserID)
	f.engagement.voteErr = fmt.Errorf("transaction aborted after 3 attempts: %w", &pq.Error{Code: "40001"})

	_, err := f.svc.Vote(context.Background(), bob, "r1", VoteRequest{Kind: models.VoteUseful})
	assert.ErrorIs(t, err, appErrors.ErrTransient)
	assert.Equal(t, 503, appErrors.FromError(err).Status)
}

func TestRatingServiceMalformedIDIsNotFound(t *testing.T) {
	f := newRatingFixture()
	f.repo.findErr = fmt.Errorf("find rating: %w", &pq.Error{Code: "22P02"})

	err := f.svc.Delete(context.Background(), alice, "abc")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestRatingServiceReport(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	f.engagement.addPost("r1", alice.UserID)

	counters, err := f.svc.Report(ctx, bob, "r1", ReportRequest{Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, 1, counters.ReportsCount)

	_, err = f.svc.Report(ctx, bob, "r1", ReportRequest{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = f.svc.Report(ctx, alice, "r1", ReportRequest{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, 1, f.engagement.counters["r1"].ReportsCount)
}

func TestRatingServiceSummary(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, alice, 2, CreateRatingRequest{Score: 4})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, bob, 2, CreateRatingRequest{Score: 2})
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 3.0, summary.AverageScore, 0.001)

	ratings, page, err := f.svc.ListBySubject(ctx, 2, 0, 0)
	require.NoError(t, err)
	assert.Len(t, ratings, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 2, page.TotalCount)
}
