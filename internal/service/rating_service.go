package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/pkg/database"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

type ratingRepository interface {
	ExistsForUser(ctx context.Context, userID string, subjectID int64) (bool, error)
	Create(ctx context.Context, rating *models.Rating) error
	FindByID(ctx context.Context, id string) (*models.Rating, error)
	Update(ctx context.Context, rating *models.Rating) error
	Delete(ctx context.Context, id string) error
	ListBySubject(ctx context.Context, subjectID int64, page, size int) ([]models.Rating, int, error)
	Summary(ctx context.Context, subjectID int64) (*models.RatingSummary, error)
}

type subjectLookup interface {
	FindSubject(ctx context.Context, id int64) (*models.Subject, error)
}

// CreateRatingRequest rates a subject.
type CreateRatingRequest struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// UpdateRatingRequest changes score and/or comment.
type UpdateRatingRequest struct {
	Score   *int    `json:"score" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// RatingService manages subject ratings. A user rates a subject at most once.
type RatingService struct {
	postEngagement
	repo      ratingRepository
	subjects  subjectLookup
	gate      contentChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRatingService creates a rating service.
func NewRatingService(repo ratingRepository, engagement postEngagementRepository, subjects subjectLookup, users userDirectory, gate contentChecker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RatingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{
		postEngagement: newPostEngagement(engagement, users, metrics, logger),
		repo:           repo,
		subjects:       subjects,
		gate:           gate,
		validator:      validate,
		logger:         logger,
	}
}

// Create stores a new rating after the content gate approves the comment.
func (s *RatingService) Create(ctx context.Context, principal models.Principal, subjectID int64, req CreateRatingRequest) (*models.Rating, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid rating payload")
	}
	comment := strings.TrimSpace(req.Comment)

	if _, err := s.subjects.FindSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	if err := s.users.Ensure(ctx, principal); err != nil {
		return nil, err
	}

	exists, err := s.exists(ctx, principal.UserID, subjectID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already rated")
	}

	if err := s.gate.Check(ctx, comment, principal.DisplayName); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		SubjectID:  subjectID,
		UserID:     principal.UserID,
		AuthorName: principal.DisplayName,
		Score:      req.Score,
		Comment:    comment,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, rating); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.CloneWrap(appErrors.ErrConflict, err, "subject already rated")
		}
		return nil, s.fail(err, "failed to create rating")
	}
	s.logger.Info("rating created", zap.String("rating_id", rating.ID), zap.Int64("subject_id", subjectID))
	return rating, nil
}

// Update modifies the caller's own rating.
func (s *RatingService) Update(ctx context.Context, principal models.Principal, id string, req UpdateRatingRequest) (*models.Rating, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid rating payload")
	}

	rating, err := s.owned(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if req.Comment != nil {
		comment := strings.TrimSpace(*req.Comment)
		if comment != rating.Comment {
			if err := s.gate.Check(ctx, comment, principal.DisplayName); err != nil {
				return nil, err
			}
		}
		rating.Comment = comment
	}
	if req.Score != nil {
		rating.Score = *req.Score
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Update(ctx, rating); err != nil {
		return nil, s.fail(err, "failed to update rating")
	}
	return rating, nil
}

// Delete removes the caller's own rating.
func (s *RatingService) Delete(ctx context.Context, principal models.Principal, id string) error {
	if _, err := s.owned(ctx, principal, id); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(err, "failed to delete rating")
	}
	return nil
}

// ListBySubject returns a page of ratings, most useful first.
func (s *RatingService) ListBySubject(ctx context.Context, subjectID int64, page, size int) ([]models.Rating, *models.Pagination, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ratings, total, err := s.repo.ListBySubject(ctx, subjectID, page, size)
	if err != nil {
		return nil, nil, s.fail(err, "failed to list ratings")
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	return ratings, paginationFor(page, size, total), nil
}

// Summary returns count and average score for a subject.
func (s *RatingService) Summary(ctx context.Context, subjectID int64) (*models.RatingSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	summary, err := s.repo.Summary(ctx, subjectID)
	if err != nil {
		return nil, s.fail(err, "failed to summarise ratings")
	}
	return summary, nil
}

// Vote applies a useful/not-useful vote on another user's rating.
func (s *RatingService) Vote(ctx context.Context, principal models.Principal, id string, req VoteRequest) (*models.VoteResult, error) {
	return s.vote(ctx, principal, id, req)
}

// Report flags a rating once per user.
func (s *RatingService) Report(ctx context.Context, principal models.Principal, id string, req ReportRequest) (*models.PostCounters, error) {
	return s.report(ctx, principal, id, req)
}

func (s *RatingService) exists(ctx context.Context, userID string, subjectID int64) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.repo.ExistsForUser(ctx, userID, subjectID)
	if err != nil {
		return false, s.fail(err, "failed to check rating")
	}
	return exists, nil
}

func (s *RatingService) owned(ctx context.Context, principal models.Principal, id string) (*models.Rating, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rating, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "rating not found", "failed to load rating")
	}
	if rating.UserID != principal.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can modify this rating")
	}
	return rating, nil
}
