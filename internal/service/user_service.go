package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

type userRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	FindProfile(ctx context.Context, id string) (*models.UserProfile, error)
	SetCareer(ctx context.Context, id string, careerID *int64) error
	FindCareerID(ctx context.Context, id string) (*int64, error)
}

type careerLookup interface {
	FindCareer(ctx context.Context, id int64) (*models.Career, error)
}

// SelectCareerRequest picks the active career of the caller.
type SelectCareerRequest struct {
	CareerID int64 `json:"career_id" validate:"required,gt=0"`
}

// UserService manages the local profile of authenticated users.
type UserService struct {
	storeCalls
	repo    userRepository
	careers careerLookup
	logger  *zap.Logger
}

// NewUserService creates a user service.
func NewUserService(repo userRepository, careers careerLookup, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{storeCalls: newStoreCalls(logger), repo: repo, careers: careers, logger: logger}
}

// Ensure records the principal locally so rows owned by the user can reference it.
func (s *UserService) Ensure(ctx context.Context, principal models.Principal) error {
	if strings.TrimSpace(principal.UserID) == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing principal")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user := &models.User{ID: principal.UserID, Email: principal.Email, DisplayName: principal.DisplayName}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return s.fail(err, "failed to register user")
	}
	return nil
}

// Me returns the caller's profile, creating it on first sight.
func (s *UserService) Me(ctx context.Context, principal models.Principal) (*models.UserProfile, error) {
	if err := s.Ensure(ctx, principal); err != nil {
		return nil, err
	}
	return s.profile(ctx, principal.UserID)
}

// SelectCareer sets the caller's active career.
func (s *UserService) SelectCareer(ctx context.Context, principal models.Principal, req SelectCareerRequest) (*models.UserProfile, error) {
	if req.CareerID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "career_id is required")
	}
	if _, err := s.careers.FindCareer(ctx, req.CareerID); err != nil {
		return nil, err
	}
	if err := s.Ensure(ctx, principal); err != nil {
		return nil, err
	}
	if err := s.setCareer(ctx, principal.UserID, &req.CareerID); err != nil {
		return nil, err
	}
	s.logger.Info("career selected", zap.String("user_id", principal.UserID), zap.Int64("career_id", req.CareerID))
	return s.profile(ctx, principal.UserID)
}

// ClearCareer removes the caller's active career.
func (s *UserService) ClearCareer(ctx context.Context, principal models.Principal) (*models.UserProfile, error) {
	if err := s.Ensure(ctx, principal); err != nil {
		return nil, err
	}
	if err := s.setCareer(ctx, principal.UserID, nil); err != nil {
		return nil, err
	}
	return s.profile(ctx, principal.UserID)
}

// CareerID returns the caller's active career, nil when none is selected.
func (s *UserService) CareerID(ctx context.Context, principal models.Principal) (*int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	careerID, err := s.repo.FindCareerID(ctx, principal.UserID)
	if err != nil {
		return nil, s.fail(err, "failed to load user career")
	}
	return careerID, nil
}

func (s *UserService) setCareer(ctx context.Context, userID string, careerID *int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.SetCareer(ctx, userID, careerID); err != nil {
		return s.fail(err, "failed to update user career")
	}
	return nil
}

func (s *UserService) profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return nil, s.notFoundOr(err, "user not found", "failed to load user")
	}
	return profile, nil
}
