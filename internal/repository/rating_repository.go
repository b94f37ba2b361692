package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cursada/planner-api/internal/models"
)

const ratingSelect = `SELECT c.id, c.materia_id, c.usuario_id, u.nombre AS autor_nombre, c.puntuacion, c.comentario,
	c.votos_util, c.votos_no_util, c.reportes, c.created_at, c.updated_at
	FROM calificaciones c
	JOIN usuarios u ON u.id = c.usuario_id`

// RatingRepository persists subject ratings.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository creates a new repository instance.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// ExistsForUser reports whether the user already rated the subject.
func (r *RatingRepository) ExistsForUser(ctx context.Context, userID string, subjectID int64) (bool, error) {
	const query = `SELECT 1 FROM calificaciones WHERE usuario_id = $1 AND materia_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, subjectID); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check rating: %w", err)
	}
	return true, nil
}

// Create persists a new rating with zeroed counters.
func (r *RatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rating.CreatedAt = now
	rating.UpdatedAt = now
	rating.PostCounters = models.PostCounters{}

	const query = `INSERT INTO calificaciones (id, materia_id, usuario_id, puntuacion, comentario, votos_util, votos_no_util, reportes, created_at, updated_at)
		VALUES (:id, :materia_id, :usuario_id, :puntuacion, :comentario, :votos_util, :votos_no_util, :reportes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rating); err != nil {
		return fmt.Errorf("create rating: %w", err)
	}
	return nil
}

// FindByID returns a rating with its author's display name.
func (r *RatingRepository) FindByID(ctx context.Context, id string) (*models.Rating, error) {
	query := ratingSelect + ` WHERE c.id = $1`
	var rating models.Rating
	if err := r.db.GetContext(ctx, &rating, query, id); err != nil {
		return nil, err
	}
	return &rating, nil
}

// Update modifies score and comment.
func (r *RatingRepository) Update(ctx context.Context, rating *models.Rating) error {
	rating.UpdatedAt = time.Now().UTC()
	const query = `UPDATE calificaciones SET puntuacion = :puntuacion, comentario = :comentario, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rating); err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return nil
}

// Delete removes a rating; votes and reports cascade.
func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM calificaciones WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	return nil
}

// ListBySubject returns a page of ratings, most useful first, then newest.
func (r *RatingRepository) ListBySubject(ctx context.Context, subjectID int64, page, size int) ([]models.Rating, int, error) {
	_, size, offset := normalizePage(page, size)
	query := ratingSelect + ` WHERE c.materia_id = $1 ORDER BY c.votos_util DESC, c.created_at DESC LIMIT $2 OFFSET $3`
	var ratings []models.Rating
	if err := r.db.SelectContext(ctx, &ratings, query, subjectID, size, offset); err != nil {
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM calificaciones WHERE materia_id = $1`, subjectID); err != nil {
		return nil, 0, fmt.Errorf("count ratings: %w", err)
	}
	return ratings, total, nil
}

// Summary aggregates count and average score for a subject.
func (r *RatingRepository) Summary(ctx context.Context, subjectID int64) (*models.RatingSummary, error) {
	const query = `SELECT $1::bigint AS materia_id, COUNT(*) AS total, COALESCE(AVG(puntuacion), 0)::float8 AS promedio
		FROM calificaciones WHERE materia_id = $1`
	var summary models.RatingSummary
	if err := r.db.GetContext(ctx, &summary, query, subjectID); err != nil {
		return nil, fmt.Errorf("summarize ratings: %w", err)
	}
	return &summary, nil
}
