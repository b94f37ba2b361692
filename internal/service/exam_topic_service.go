package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

const examDateLayout = "2006-01-02"

type examTopicRepository interface {
	Create(ctx context.Context, topic *models.ExamTopic) error
	FindByID(ctx context.Context, id string) (*models.ExamTopic, error)
	Update(ctx context.Context, topic *models.ExamTopic) error
	Delete(ctx context.Context, id string) error
	ListBySubject(ctx context.Context, subjectID int64, page, size int) ([]models.ExamTopic, int, error)
}

// CreateExamTopicRequest shares the topics of an exam.
type CreateExamTopicRequest struct {
	ExamType models.ExamType `json:"exam_type" validate:"required,oneof=parcial final recuperatorio"`
	ExamDate string          `json:"exam_date" validate:"omitempty,datetime=2006-01-02"`
	Topics   string          `json:"topics" validate:"required,max=4000"`
}

// UpdateExamTopicRequest edits an exam-topic post.
type UpdateExamTopicRequest struct {
	ExamType *models.ExamType `json:"exam_type" validate:"omitempty,oneof=parcial final recuperatorio"`
	ExamDate *string          `json:"exam_date" validate:"omitempty,datetime=2006-01-02"`
	Topics   *string          `json:"topics" validate:"omitempty,max=4000"`
}

// ExamTopicService manages exam-topic posts.
type ExamTopicService struct {
	postEngagement
	repo      examTopicRepository
	subjects  subjectLookup
	gate      contentChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamTopicService creates the service.
func NewExamTopicService(repo examTopicRepository, engagement postEngagementRepository, subjects subjectLookup, users userDirectory, gate contentChecker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExamTopicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamTopicService{
		postEngagement: newPostEngagement(engagement, users, metrics, logger),
		repo:           repo,
		subjects:       subjects,
		gate:           gate,
		validator:      validate,
		logger:         logger,
	}
}

// Create stores a post after the content gate approves the topics.
func (s *ExamTopicService) Create(ctx context.Context, principal models.Principal, subjectID int64, req CreateExamTopicRequest) (*models.ExamTopic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid exam topic payload")
	}
	topics := strings.TrimSpace(req.Topics)
	if topics == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "topics are required")
	}
	examDate, err := parseExamDate(req.ExamDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.subjects.FindSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	if err := s.users.Ensure(ctx, principal); err != nil {
		return nil, err
	}
	if err := s.gate.Check(ctx, topics, principal.DisplayName); err != nil {
		return nil, err
	}

	topic := &models.ExamTopic{
		SubjectID:  subjectID,
		UserID:     principal.UserID,
		AuthorName: principal.DisplayName,
		ExamType:   req.ExamType,
		ExamDate:   examDate,
		Topics:     topics,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, topic); err != nil {
		return nil, s.fail(err, "failed to create exam topic")
	}
	return topic, nil
}

// Update edits the caller's own post.
func (s *ExamTopicService) Update(ctx context.Context, principal models.Principal, id string, req UpdateExamTopicRequest) (*models.ExamTopic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid exam topic payload")
	}

	topic, err := s.owned(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if req.Topics != nil {
		topics := strings.TrimSpace(*req.Topics)
		if topics == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "topics are required")
		}
		if topics != topic.Topics {
			if err := s.gate.Check(ctx, topics, principal.DisplayName); err != nil {
				return nil, err
			}
		}
		topic.Topics = topics
	}
	if req.ExamType != nil {
		topic.ExamType = *req.ExamType
	}
	if req.ExamDate != nil {
		examDate, err := parseExamDate(*req.ExamDate)
		if err != nil {
			return nil, err
		}
		topic.ExamDate = examDate
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Update(ctx, topic); err != nil {
		return nil, s.fail(err, "failed to update exam topic")
	}
	return topic, nil
}

// Delete removes the caller's own post.
func (s *ExamTopicService) Delete(ctx context.Context, principal models.Principal, id string) error {
	if _, err := s.owned(ctx, principal, id); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(err, "failed to delete exam topic")
	}
	return nil
}

// ListBySubject returns a page of posts, most useful first.
func (s *ExamTopicService) ListBySubject(ctx context.Context, subjectID int64, page, size int) ([]models.ExamTopic, *models.Pagination, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	topics, total, err := s.repo.ListBySubject(ctx, subjectID, page, size)
	if err != nil {
		return nil, nil, s.fail(err, "failed to list exam topics")
	}
	if topics == nil {
		topics = []models.ExamTopic{}
	}
	return topics, paginationFor(page, size, total), nil
}

// Vote applies a useful/not-useful vote on another user's post.
func (s *ExamTopicService) Vote(ctx context.Context, principal models.Principal, id string, req VoteRequest) (*models.VoteResult, error) {
	return s.vote(ctx, principal, id, req)
}

// Report flags a post once per user.
func (s *ExamTopicService) Report(ctx context.Context, principal models.Principal, id string, req ReportRequest) (*models.PostCounters, error) {
	return s.report(ctx, principal, id, req)
}

func (s *ExamTopicService) owned(ctx context.Context, principal models.Principal, id string) (*models.ExamTopic, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	topic, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "exam topic not found", "failed to load exam topic")
	}
	if topic.UserID != principal.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can modify this post")
	}
	return topic, nil
}

func parseExamDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	date, err := time.Parse(examDateLayout, raw)
	if err != nil {
		return nil, validationError(err, "exam_date must use YYYY-MM-DD")
	}
	return &date, nil
}
