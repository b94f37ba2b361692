package seed

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/repository"
	"github.com/cursada/planner-api/pkg/database"
)

type store interface {
	UpsertUniversity(ctx context.Context, exec sqlx.ExtContext, name, abbreviation string) (repository.UpsertResult, error)
	UpsertCareer(ctx context.Context, exec sqlx.ExtContext, universityID int64, name string) (repository.UpsertResult, error)
	UpsertSubject(ctx context.Context, exec sqlx.ExtContext, subject models.Subject) (repository.UpsertResult, error)
	InsertPrerequisite(ctx context.Context, exec sqlx.ExtContext, edge models.Prerequisite) (bool, error)
}

// Counts tallies the outcome for one entity type.
type Counts struct {
	Inserted int
	Existing int
	Skipped  int
}

func (c *Counts) record(inserted bool) {
	if inserted {
		c.Inserted++
		return
	}
	c.Existing++
}

// SkippedEdge describes a prerequisite that could not be resolved inside its career.
type SkippedEdge struct {
	Career   string
	Subject  int
	Requires int
	Kind     string
}

// Report summarises a seed run.
type Report struct {
	Universities  Counts
	Careers       Counts
	Subjects      Counts
	Prerequisites Counts
	SkippedEdges  []SkippedEdge
}

// Seeder upserts a catalog in a single transaction.
type Seeder struct {
	db     database.TxBeginner
	store  store
	logger *zap.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(db database.TxBeginner, store store, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: db, store: store, logger: logger}
}

// Run applies the catalog. Re-running the same catalog inserts nothing.
func (s *Seeder) Run(ctx context.Context, catalog *Catalog) (*Report, error) {
	var report *Report
	opts := database.TxOptions{Isolation: database.DefaultTxOptions.Isolation, MaxAttempts: 1}
	err := database.RunInTx(ctx, s.db, opts, func(tx *sqlx.Tx) error {
		report = &Report{}
		for _, university := range catalog.Universities {
			if err := s.seedUniversity(ctx, tx, university, report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	s.logger.Info("catalog seeded",
		zap.Int("universities_inserted", report.Universities.Inserted),
		zap.Int("careers_inserted", report.Careers.Inserted),
		zap.Int("subjects_inserted", report.Subjects.Inserted),
		zap.Int("prerequisites_inserted", report.Prerequisites.Inserted),
		zap.Int("prerequisites_skipped", report.Prerequisites.Skipped),
	)
	return report, nil
}

func (s *Seeder) seedUniversity(ctx context.Context, tx *sqlx.Tx, university University, report *Report) error {
	res, err := s.store.UpsertUniversity(ctx, tx, university.Name, university.Abbreviation)
	if err != nil {
		return err
	}
	report.Universities.record(res.Inserted)

	for _, career := range university.Careers {
		careerRes, err := s.store.UpsertCareer(ctx, tx, res.ID, career.Name)
		if err != nil {
			return err
		}
		report.Careers.record(careerRes.Inserted)
		if err := s.seedCareer(ctx, tx, careerRes.ID, career, report); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedCareer(ctx context.Context, tx *sqlx.Tx, careerID int64, career Career, report *Report) error {
	idsByNumber := make(map[int]int64, len(career.Subjects))
	for _, subject := range career.Subjects {
		number := subject.Number
		res, err := s.store.UpsertSubject(ctx, tx, models.Subject{
			CareerID: &careerID,
			Number:   &number,
			Name:     subject.Name,
			Level:    subject.Level,
			Duration: models.SubjectDuration(subject.Duration),
		})
		if err != nil {
			return err
		}
		report.Subjects.record(res.Inserted)
		idsByNumber[subject.Number] = res.ID
	}

	for _, subject := range career.Subjects {
		for _, req := range subject.Requires {
			requiredID, ok := idsByNumber[req.Number]
			if !ok {
				report.Prerequisites.Skipped++
				report.SkippedEdges = append(report.SkippedEdges, SkippedEdge{
					Career:   career.Name,
					Subject:  subject.Number,
					Requires: req.Number,
					Kind:     req.Kind,
				})
				s.logger.Warn("skipping unresolved prerequisite",
					zap.String("career", career.Name),
					zap.Int("subject", subject.Number),
					zap.Int("requires", req.Number),
				)
				continue
			}
			inserted, err := s.store.InsertPrerequisite(ctx, tx, models.Prerequisite{
				SubjectID:         idsByNumber[subject.Number],
				RequiredSubjectID: requiredID,
				Kind:              models.PrerequisiteKind(req.Kind),
			})
			if err != nil {
				return err
			}
			report.Prerequisites.record(inserted)
		}
	}
	return nil
}
