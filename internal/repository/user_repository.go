package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cursada/planner-api/internal/models"
)

// UserRepository provides database access for local user profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the user or refreshes email and name of an existing row.
// The selected career is never touched.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO usuarios (id, email, nombre, created_at, updated_at)
		VALUES (:id, :email, :nombre, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, nombre = EXCLUDED.nombre, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// FindProfile returns a user with its selected career and university.
func (r *UserRepository) FindProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	const query = `SELECT u.id, u.email, u.nombre, u.carrera_id, u.created_at, u.updated_at,
		c.nombre AS carrera_nombre, un.id AS universidad_id, un.nombre AS universidad_nombre
		FROM usuarios u
		LEFT JOIN carreras c ON c.id = u.carrera_id
		LEFT JOIN universidades un ON un.id = c.universidad_id
		WHERE u.id = $1`
	var profile models.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetCareer stores the selected career; nil clears it.
func (r *UserRepository) SetCareer(ctx context.Context, id string, careerID *int64) error {
	const query = `UPDATE usuarios SET carrera_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, careerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set user career: %w", err)
	}
	return nil
}

// FindCareerID returns the selected career of a user, nil when unset.
func (r *UserRepository) FindCareerID(ctx context.Context, id string) (*int64, error) {
	const query = `SELECT carrera_id FROM usuarios WHERE id = $1`
	var careerID *int64
	if err := r.db.GetContext(ctx, &careerID, query, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user career: %w", err)
	}
	return careerID, nil
}
