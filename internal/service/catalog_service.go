package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

type catalogRepository interface {
	ListUniversities(ctx context.Context) ([]models.University, error)
	ListAllCareers(ctx context.Context) ([]models.Career, error)
	ListCareers(ctx context.Context, universityID int64) ([]models.Career, error)
	FindCareerByID(ctx context.Context, id int64) (*models.Career, error)
	ListSubjects(ctx context.Context, careerID int64) ([]models.Subject, error)
	CountSubjects(ctx context.Context, careerID int64) (int, error)
	FindSubjectByID(ctx context.Context, id int64) (*models.Subject, error)
	FindSubjectByName(ctx context.Context, name string) (*models.Subject, error)
	InsertSubjectByName(ctx context.Context, name string) (*models.Subject, error)
	ListPrerequisites(ctx context.Context, subjectID int64) ([]models.PrerequisiteDetail, error)
}

// ResolveSubjectRequest names a subject to find or create.
type ResolveSubjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CatalogService serves the read-mostly university catalog.
type CatalogService struct {
	storeCalls
	repo    catalogRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCatalogService creates a catalog service. cache and metrics may be nil.
func NewCatalogService(repo catalogRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{storeCalls: newStoreCalls(logger), repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// ListUniversities returns every university with its careers nested.
func (s *CatalogService) ListUniversities(ctx context.Context) ([]models.University, error) {
	return readThrough(ctx, s.cache, CatalogCacheNamespace+"universities", s.loadUniversities)
}

func (s *CatalogService) loadUniversities(ctx context.Context) ([]models.University, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer s.observe("list_universities", time.Now())

	universities, err := s.repo.ListUniversities(ctx)
	if err != nil {
		return nil, s.fail(err, "failed to list universities")
	}
	careers, err := s.repo.ListAllCareers(ctx)
	if err != nil {
		return nil, s.fail(err, "failed to list careers")
	}

	byUniversity := make(map[int64][]models.Career, len(universities))
	for _, career := range careers {
		byUniversity[career.UniversityID] = append(byUniversity[career.UniversityID], career)
	}
	result := make([]models.University, 0, len(universities))
	for _, university := range universities {
		university.Careers = byUniversity[university.ID]
		if university.Careers == nil {
			university.Careers = []models.Career{}
		}
		result = append(result, university)
	}
	return result, nil
}

// ListCareers returns the careers of a university; unknown ids yield an empty list.
func (s *CatalogService) ListCareers(ctx context.Context, universityID int64) ([]models.Career, error) {
	key := fmt.Sprintf("%suniversities:%d:careers", CatalogCacheNamespace, universityID)
	return readThrough(ctx, s.cache, key, func(ctx context.Context) ([]models.Career, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		defer s.observe("list_careers", time.Now())

		careers, err := s.repo.ListCareers(ctx, universityID)
		if err != nil {
			return nil, s.fail(err, "failed to list careers")
		}
		if careers == nil {
			careers = []models.Career{}
		}
		return careers, nil
	})
}

// ListSubjects returns the subjects of a career ordered by number; unknown ids yield an empty list.
func (s *CatalogService) ListSubjects(ctx context.Context, careerID int64) ([]models.Subject, error) {
	key := fmt.Sprintf("%scareers:%d:subjects", CatalogCacheNamespace, careerID)
	return readThrough(ctx, s.cache, key, func(ctx context.Context) ([]models.Subject, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		defer s.observe("list_subjects", time.Now())

		subjects, err := s.repo.ListSubjects(ctx, careerID)
		if err != nil {
			return nil, s.fail(err, "failed to list subjects")
		}
		if subjects == nil {
			subjects = []models.Subject{}
		}
		return subjects, nil
	})
}

// GetSubject returns a subject with its outgoing prerequisite edges.
func (s *CatalogService) GetSubject(ctx context.Context, id int64) (*models.SubjectDetail, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	subject, err := s.repo.FindSubjectByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "subject not found", "failed to load subject")
	}
	edges, err := s.repo.ListPrerequisites(ctx, id)
	if err != nil {
		return nil, s.fail(err, "failed to list prerequisites")
	}
	if edges == nil {
		edges = []models.PrerequisiteDetail{}
	}
	return &models.SubjectDetail{Subject: *subject, Prerequisites: edges}, nil
}

// ListPrerequisites returns the edges of an existing subject.
func (s *CatalogService) ListPrerequisites(ctx context.Context, subjectID int64) ([]models.PrerequisiteDetail, error) {
	detail, err := s.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return detail.Prerequisites, nil
}

// FindCareer returns a career or NotFound.
func (s *CatalogService) FindCareer(ctx context.Context, id int64) (*models.Career, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	career, err := s.repo.FindCareerByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "career not found", "failed to load career")
	}
	return career, nil
}

// FindSubject returns a subject or NotFound.
func (s *CatalogService) FindSubject(ctx context.Context, id int64) (*models.Subject, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	subject, err := s.repo.FindSubjectByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "subject not found", "failed to load subject")
	}
	return subject, nil
}

// CountCareerSubjects returns how many subjects a career has.
func (s *CatalogService) CountCareerSubjects(ctx context.Context, careerID int64) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	total, err := s.repo.CountSubjects(ctx, careerID)
	if err != nil {
		return 0, s.fail(err, "failed to count subjects")
	}
	return total, nil
}

// FindOrCreateSubjectByName returns the subject whose name matches exactly
// (case-sensitive) or creates one without career. The boolean reports creation.
func (s *CatalogService) FindOrCreateSubjectByName(ctx context.Context, req ResolveSubjectRequest) (*models.Subject, bool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "subject name is required")
	}
	if len(name) > 200 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "subject name is too long")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	subject, err := s.repo.FindSubjectByName(ctx, name)
	if err == nil {
		return subject, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, s.fail(err, "failed to find subject")
	}

	subject, err = s.repo.InsertSubjectByName(ctx, name)
	if err != nil {
		return nil, false, s.fail(err, "failed to create subject")
	}
	s.logger.Info("subject created from name", zap.Int64("subject_id", subject.ID), zap.String("name", name))
	return subject, true, nil
}

// InvalidateCache drops every cached catalog listing.
func (s *CatalogService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, CatalogCacheNamespace+"*")
}

func (s *CatalogService) observe(label string, start time.Time) {
	s.metrics.ObserveDBQuery(label, time.Since(start))
}
