package service

import (
	"context"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/pkg/database"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

type userSubjectRepository interface {
	Exists(ctx context.Context, userID string, subjectID int64) (bool, error)
	Create(ctx context.Context, record *models.UserSubject) error
	Find(ctx context.Context, userID string, subjectID int64) (*models.UserSubject, error)
	Update(ctx context.Context, record *models.UserSubject) error
	Delete(ctx context.Context, userID string, subjectID int64) (bool, error)
	ListDetailed(ctx context.Context, userID string) ([]models.UserSubjectDetail, error)
	ListAvailable(ctx context.Context, userID string, careerID int64) ([]models.Subject, error)
	CountByStatus(ctx context.Context, userID string) ([]models.StatusCount, error)
}

type subjectCatalog interface {
	FindSubject(ctx context.Context, id int64) (*models.Subject, error)
	CountCareerSubjects(ctx context.Context, careerID int64) (int, error)
}

type userDirectory interface {
	Ensure(ctx context.Context, principal models.Principal) error
	CareerID(ctx context.Context, principal models.Principal) (*int64, error)
}

// ScheduleInput accepts either the legacy flat fields or a list of slots.
// When horarios is present it wins. Flat fields are individually optional.
type ScheduleInput struct {
	Day           *string              `json:"dia"`
	StartHour     *string              `json:"hora"`
	DurationHours *float64             `json:"duracion"`
	Room          *string              `json:"aula"`
	Slots         models.ScheduleSlots `json:"horarios"`
}

func (in ScheduleInput) hasFlat() bool {
	return in.Day != nil || in.StartHour != nil || in.DurationHours != nil || in.Room != nil
}

// apply overwrites the fields of slot that were supplied.
func (in ScheduleInput) apply(slot *models.ScheduleSlot) {
	if in.Day != nil {
		slot.Day = strings.TrimSpace(*in.Day)
	}
	if in.StartHour != nil {
		slot.StartHour = strings.TrimSpace(*in.StartHour)
	}
	if in.DurationHours != nil {
		slot.DurationHours = *in.DurationHours
	}
	if in.Room != nil {
		slot.Room = strings.TrimSpace(*in.Room)
	}
}

// mergeInto returns existing with the input applied and whether anything changed.
// The flat fields patch the first slot, creating it when there is none.
func (in ScheduleInput) mergeInto(existing models.ScheduleSlots) (models.ScheduleSlots, bool) {
	if in.Slots != nil {
		return in.Slots, true
	}
	if !in.hasFlat() {
		return existing, false
	}
	merged := make(models.ScheduleSlots, len(existing), len(existing)+1)
	copy(merged, existing)
	if len(merged) == 0 {
		merged = append(merged, models.ScheduleSlot{})
	}
	in.apply(&merged[0])
	return merged, true
}

// AddUserSubjectRequest starts tracking a subject.
type AddUserSubjectRequest struct {
	SubjectID int64                `json:"subject_id" validate:"required,gt=0"`
	Status    models.SubjectStatus `json:"status" validate:"omitempty,oneof=no_cursada cursando regularizada aprobada"`
	ScheduleInput
}

// UpdateUserSubjectRequest changes status and, when supplied, schedule.
type UpdateUserSubjectRequest struct {
	Status *models.SubjectStatus `json:"status" validate:"omitempty,oneof=no_cursada cursando regularizada aprobada"`
	ScheduleInput
}

// UserSubjectService manages the subjects tracked in a user's plan. Status
// changes are not gated by prerequisites.
type UserSubjectService struct {
	storeCalls
	repo      userSubjectRepository
	catalog   subjectCatalog
	users     userDirectory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserSubjectService creates the service.
func NewUserSubjectService(repo userSubjectRepository, catalog subjectCatalog, users userDirectory, validate *validator.Validate, logger *zap.Logger) *UserSubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserSubjectService{storeCalls: newStoreCalls(logger), repo: repo, catalog: catalog, users: users, validator: validate, logger: logger}
}

// AddSubject starts tracking a subject for the caller.
func (s *UserSubjectService) AddSubject(ctx context.Context, principal models.Principal, req AddUserSubjectRequest) (*models.UserSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	schedule, _ := req.ScheduleInput.mergeInto(nil)
	if err := s.validateSchedule(schedule); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.StatusNotStarted
	}

	if _, err := s.catalog.FindSubject(ctx, req.SubjectID); err != nil {
		return nil, err
	}
	if err := s.users.Ensure(ctx, principal); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.repo.Exists(ctx, principal.UserID, req.SubjectID)
	if err != nil {
		return nil, s.fail(err, "failed to check tracked subject")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already tracked")
	}

	record := &models.UserSubject{UserID: principal.UserID, SubjectID: req.SubjectID, Status: status, Schedule: schedule}
	if err := s.repo.Create(ctx, record); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.CloneWrap(appErrors.ErrConflict, err, "subject already tracked")
		}
		return nil, s.fail(err, "failed to track subject")
	}
	record.MirrorSchedule()
	return record, nil
}

// UpdateStatus overwrites the status and any supplied schedule fields,
// keeping the ones left out.
func (s *UserSubjectService) UpdateStatus(ctx context.Context, principal models.Principal, subjectID int64, req UpdateUserSubjectRequest) (*models.UserSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	record, err := s.repo.Find(ctx, principal.UserID, subjectID)
	if err != nil {
		return nil, s.notFoundOr(err, "subject not tracked", "failed to load tracked subject")
	}
	if req.Status != nil {
		record.Status = *req.Status
	}
	if schedule, changed := req.ScheduleInput.mergeInto(record.Schedule); changed {
		if err := s.validateSchedule(schedule); err != nil {
			return nil, err
		}
		record.Schedule = schedule
	}
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, s.fail(err, "failed to update tracked subject")
	}
	record.MirrorSchedule()
	return record, nil
}

// RemoveSubject stops tracking a subject.
func (s *UserSubjectService) RemoveSubject(ctx context.Context, principal models.Principal, subjectID int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	deleted, err := s.repo.Delete(ctx, principal.UserID, subjectID)
	if err != nil {
		return s.fail(err, "failed to remove tracked subject")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not tracked")
	}
	return nil
}

// ListUserSubjects returns the caller's plan ordered by subject number.
func (s *UserSubjectService) ListUserSubjects(ctx context.Context, principal models.Principal) ([]models.UserSubjectDetail, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, err := s.repo.ListDetailed(ctx, principal.UserID)
	if err != nil {
		return nil, s.fail(err, "failed to list tracked subjects")
	}
	if records == nil {
		records = []models.UserSubjectDetail{}
	}
	for i := range records {
		records[i].MirrorSchedule()
	}
	return records, nil
}

// ListAvailableSubjects returns the subjects of the caller's career not yet tracked.
func (s *UserSubjectService) ListAvailableSubjects(ctx context.Context, principal models.Principal) ([]models.Subject, error) {
	careerID, err := s.users.CareerID(ctx, principal)
	if err != nil {
		return nil, err
	}
	if careerID == nil {
		return []models.Subject{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	subjects, err := s.repo.ListAvailable(ctx, principal.UserID, *careerID)
	if err != nil {
		return nil, s.fail(err, "failed to list available subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Progress summarises the caller's plan.
func (s *UserSubjectService) Progress(ctx context.Context, principal models.Principal) (*models.StudyProgress, error) {
	careerID, err := s.users.CareerID(ctx, principal)
	if err != nil {
		return nil, err
	}

	progress := &models.StudyProgress{CareerID: careerID, ByStatus: make(map[models.SubjectStatus]int, len(models.SubjectStatuses))}
	for _, status := range models.SubjectStatuses {
		progress.ByStatus[status] = 0
	}

	if careerID != nil {
		total, err := s.catalog.CountCareerSubjects(ctx, *careerID)
		if err != nil {
			return nil, err
		}
		progress.CareerSubjects = total
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	counts, err := s.repo.CountByStatus(ctx, principal.UserID)
	if err != nil {
		return nil, s.fail(err, "failed to summarise plan")
	}
	for _, count := range counts {
		progress.ByStatus[count.Status] += count.Count
		progress.Tracked += count.Count
	}
	if progress.CareerSubjects > 0 {
		approved := float64(progress.ByStatus[models.StatusApproved]) / float64(progress.CareerSubjects) * 100
		progress.ApprovedPercent = math.Round(approved*10) / 10
	}
	return progress, nil
}

func (s *UserSubjectService) validateSchedule(slots models.ScheduleSlots) error {
	for _, slot := range slots {
		if err := s.validator.Struct(slot); err != nil {
			return validationError(err, "invalid schedule slot")
		}
	}
	return nil
}
