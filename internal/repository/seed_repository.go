package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cursada/planner-api/internal/models"
)

// UpsertResult carries the id of an upserted row and whether it was new.
type UpsertResult struct {
	ID       int64 `db:"id"`
	Inserted bool  `db:"inserted"`
}

// SeedRepository upserts catalog rows by natural key. Every method runs on the
// supplied executor so a whole seed shares one transaction.
type SeedRepository struct {
	db *sqlx.DB
}

// NewSeedRepository builds repository.
func NewSeedRepository(db *sqlx.DB) *SeedRepository {
	return &SeedRepository{db: db}
}

func (r *SeedRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertUniversity inserts a university or refreshes its abbreviation.
func (r *SeedRepository) UpsertUniversity(ctx context.Context, exec sqlx.ExtContext, name, abbreviation string) (UpsertResult, error) {
	const query = `
INSERT INTO universidades (nombre, abreviatura) VALUES ($1, $2)
ON CONFLICT (nombre) DO UPDATE SET abreviatura = EXCLUDED.abreviatura
RETURNING id, (xmax = 0) AS inserted`
	var res UpsertResult
	if err := sqlx.GetContext(ctx, r.exec(exec), &res, query, name, abbreviation); err != nil {
		return res, fmt.Errorf("upsert university %q: %w", name, err)
	}
	return res, nil
}

// UpsertCareer inserts a career keyed by (university, name).
func (r *SeedRepository) UpsertCareer(ctx context.Context, exec sqlx.ExtContext, universityID int64, name string) (UpsertResult, error) {
	const query = `
INSERT INTO carreras (universidad_id, nombre) VALUES ($1, $2)
ON CONFLICT ON CONSTRAINT carreras_universidad_nombre_key DO UPDATE SET nombre = EXCLUDED.nombre
RETURNING id, (xmax = 0) AS inserted`
	var res UpsertResult
	if err := sqlx.GetContext(ctx, r.exec(exec), &res, query, universityID, name); err != nil {
		return res, fmt.Errorf("upsert career %q: %w", name, err)
	}
	return res, nil
}

// UpsertSubject inserts a subject keyed by (career, number), updating name, level and duration.
func (r *SeedRepository) UpsertSubject(ctx context.Context, exec sqlx.ExtContext, subject models.Subject) (UpsertResult, error) {
	const query = `
INSERT INTO materias (carrera_id, numero, nombre, nivel, duracion) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT ON CONSTRAINT materias_carrera_numero_key DO UPDATE
SET nombre = EXCLUDED.nombre,
    nivel = EXCLUDED.nivel,
    duracion = EXCLUDED.duracion
RETURNING id, (xmax = 0) AS inserted`
	var res UpsertResult
	if err := sqlx.GetContext(ctx, r.exec(exec), &res, query, subject.CareerID, subject.Number, subject.Name, subject.Level, subject.Duration); err != nil {
		return res, fmt.Errorf("upsert subject %q: %w", subject.Name, err)
	}
	return res, nil
}

// InsertPrerequisite adds an edge; an existing identical edge is left untouched
// and reported as not inserted.
func (r *SeedRepository) InsertPrerequisite(ctx context.Context, exec sqlx.ExtContext, edge models.Prerequisite) (bool, error) {
	const query = `
INSERT INTO correlativas_detalle (materia_id, correlativa_id, tipo) VALUES ($1, $2, $3)
ON CONFLICT ON CONSTRAINT correlativas_detalle_key DO NOTHING`
	res, err := r.exec(exec).ExecContext(ctx, query, edge.SubjectID, edge.RequiredSubjectID, edge.Kind)
	if err != nil {
		return false, fmt.Errorf("insert prerequisite %d->%d: %w", edge.SubjectID, edge.RequiredSubjectID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert prerequisite rows: %w", err)
	}
	return affected > 0, nil
}
