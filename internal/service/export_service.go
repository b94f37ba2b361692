package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
	"github.com/cursada/planner-api/pkg/export"
)

// Supported plan export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var planHeaders = []string{"Nro", "Materia", "Nivel", "Duración", "Estado", "Horarios"}

type renderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

type planProfileSource interface {
	Me(ctx context.Context, principal models.Principal) (*models.UserProfile, error)
}

type planSubjectSource interface {
	ListUserSubjects(ctx context.Context, principal models.Principal) ([]models.UserSubjectDetail, error)
}

// ExportFile is a rendered plan ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a user's study plan as CSV or PDF.
type ExportService struct {
	profiles  planProfileSource
	subjects  planSubjectSource
	renderers map[string]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(profiles planProfileSource, subjects planSubjectSource, csv renderer, pdf renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		profiles:  profiles,
		subjects:  subjects,
		renderers: map[string]renderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:    logger,
		now:       time.Now,
	}
}

// Plan renders the caller's tracked subjects in the requested format.
func (s *ExportService) Plan(ctx context.Context, principal models.Principal, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	var (
		profile  *models.UserProfile
		subjects []models.UserSubjectDetail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.profiles.Me(gctx, principal)
		return err
	})
	g.Go(func() error {
		var err error
		subjects, err = s.subjects.ListUserSubjects(gctx, principal)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	body, err := r.Render(planDataset(profile, subjects))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render plan")
	}
	s.logger.Info("plan exported", zap.String("user_id", principal.UserID), zap.String("format", format), zap.Int("rows", len(subjects)))

	return &ExportFile{
		Filename:    fmt.Sprintf("plan-%s.%s", s.now().UTC().Format("20060102"), r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func planDataset(profile *models.UserProfile, subjects []models.UserSubjectDetail) export.Dataset {
	title := "Plan de estudios"
	if profile != nil {
		if profile.CareerName != nil {
			title = fmt.Sprintf("%s - %s", title, *profile.CareerName)
		}
		if profile.DisplayName != "" {
			title = fmt.Sprintf("%s (%s)", title, profile.DisplayName)
		}
	}

	rows := make([]map[string]string, 0, len(subjects))
	for _, subject := range subjects {
		number := ""
		if subject.SubjectNumber != nil {
			number = strconv.Itoa(*subject.SubjectNumber)
		}
		rows = append(rows, map[string]string{
			"Nro":      number,
			"Materia":  subject.SubjectName,
			"Nivel":    subject.SubjectLevel,
			"Duración": string(subject.SubjectDuration),
			"Estado":   string(subject.Status),
			"Horarios": formatSchedule(subject.Schedule),
		})
	}
	return export.Dataset{
		Title:   title,
		Headers: planHeaders,
		Widths:  []float64{1, 5, 1, 2.5, 2, 5},
		Rows:    rows,
	}
}

func formatSchedule(slots models.ScheduleSlots) string {
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		part := fmt.Sprintf("%s %s (%gh)", slot.Day, slot.StartHour, slot.DurationHours)
		if slot.Room != "" {
			part += " " + slot.Room
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}
