package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cursada/planner-api/internal/models"
)

const userSubjectColumns = `id, usuario_id, materia_id, estado, horarios, created_at, updated_at`

// UserSubjectRepository persists the subjects tracked in each user's plan.
type UserSubjectRepository struct {
	db *sqlx.DB
}

// NewUserSubjectRepository creates a new repository instance.
func NewUserSubjectRepository(db *sqlx.DB) *UserSubjectRepository {
	return &UserSubjectRepository{db: db}
}

// Exists reports whether the user already tracks the subject.
func (r *UserSubjectRepository) Exists(ctx context.Context, userID string, subjectID int64) (bool, error) {
	const query = `SELECT 1 FROM usuario_materias WHERE usuario_id = $1 AND materia_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, subjectID); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check user subject: %w", err)
	}
	return true, nil
}

// Create inserts a record. The (usuario_id, materia_id) unique constraint is
// the final guard against concurrent duplicates.
func (r *UserSubjectRepository) Create(ctx context.Context, record *models.UserSubject) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Schedule == nil {
		record.Schedule = models.ScheduleSlots{}
	}
	day, hour, duration, room := flatSchedule(record.Schedule)

	const query = `INSERT INTO usuario_materias (usuario_id, materia_id, estado, dia, hora, duracion, aula, horarios, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.GetContext(ctx, &record.ID, query,
		record.UserID, record.SubjectID, record.Status, day, hour, duration, room, record.Schedule, record.CreatedAt, record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create user subject: %w", err)
	}
	return nil
}

// Find returns the record of a user for a subject.
func (r *UserSubjectRepository) Find(ctx context.Context, userID string, subjectID int64) (*models.UserSubject, error) {
	const query = `SELECT ` + userSubjectColumns + ` FROM usuario_materias WHERE usuario_id = $1 AND materia_id = $2`
	var record models.UserSubject
	if err := r.db.GetContext(ctx, &record, query, userID, subjectID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Update overwrites status and schedule, refreshing the flat mirror columns.
func (r *UserSubjectRepository) Update(ctx context.Context, record *models.UserSubject) error {
	record.UpdatedAt = time.Now().UTC()
	if record.Schedule == nil {
		record.Schedule = models.ScheduleSlots{}
	}
	day, hour, duration, room := flatSchedule(record.Schedule)

	const query = `UPDATE usuario_materias SET estado = $3, dia = $4, hora = $5, duracion = $6, aula = $7, horarios = $8, updated_at = $9
		WHERE usuario_id = $1 AND materia_id = $2`
	if _, err := r.db.ExecContext(ctx, query,
		record.UserID, record.SubjectID, record.Status, day, hour, duration, room, record.Schedule, record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update user subject: %w", err)
	}
	return nil
}

// Delete removes a record and reports whether a row was deleted.
func (r *UserSubjectRepository) Delete(ctx context.Context, userID string, subjectID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM usuario_materias WHERE usuario_id = $1 AND materia_id = $2`, userID, subjectID)
	if err != nil {
		return false, fmt.Errorf("delete user subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user subject rows: %w", err)
	}
	return affected > 0, nil
}

// ListDetailed returns the user's records joined with subject data.
func (r *UserSubjectRepository) ListDetailed(ctx context.Context, userID string) ([]models.UserSubjectDetail, error) {
	const query = `SELECT um.id, um.usuario_id, um.materia_id, um.estado, um.horarios, um.created_at, um.updated_at,
		m.numero AS materia_numero, m.nombre AS materia_nombre, m.nivel AS materia_nivel, m.duracion AS materia_duracion
		FROM usuario_materias um
		JOIN materias m ON m.id = um.materia_id
		WHERE um.usuario_id = $1
		ORDER BY m.numero NULLS LAST, m.nombre`
	var records []models.UserSubjectDetail
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list user subjects: %w", err)
	}
	return records, nil
}

// ListAvailable returns the career's subjects the user does not track yet.
func (r *UserSubjectRepository) ListAvailable(ctx context.Context, userID string, careerID int64) ([]models.Subject, error) {
	const query = `SELECT m.id, m.carrera_id, m.numero, m.nombre, m.nivel, m.duracion
		FROM materias m
		WHERE m.carrera_id = $2
		AND NOT EXISTS (SELECT 1 FROM usuario_materias um WHERE um.usuario_id = $1 AND um.materia_id = m.id)
		ORDER BY m.numero NULLS LAST, m.nombre`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, userID, careerID); err != nil {
		return nil, fmt.Errorf("list available subjects: %w", err)
	}
	return subjects, nil
}

// CountByStatus groups the user's records by status.
func (r *UserSubjectRepository) CountByStatus(ctx context.Context, userID string) ([]models.StatusCount, error) {
	const query = `SELECT estado, COUNT(*) AS total FROM usuario_materias WHERE usuario_id = $1 GROUP BY estado`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("count user subjects by status: %w", err)
	}
	return counts, nil
}

func flatSchedule(slots models.ScheduleSlots) (day, hour, duration, room interface{}) {
	first := slots.First()
	if first == nil {
		return nil, nil, nil, nil
	}
	return nullIfZero(first.Day), nullIfZero(first.StartHour), nullIfZero(first.DurationHours), nullIfZero(first.Room)
}

// nullIfZero stores unset slot attributes as NULL.
func nullIfZero[T comparable](v T) interface{} {
	var zero T
	if v == zero {
		return nil
	}
	return v
}
