package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cursada/planner-api/internal/models"
)

const examTopicSelect = `SELECT t.id, t.materia_id, t.usuario_id, u.nombre AS autor_nombre, t.tipo_examen, t.fecha_examen, t.temas,
	t.votos_util, t.votos_no_util, t.reportes, t.created_at, t.updated_at
	FROM temas_examen t
	JOIN usuarios u ON u.id = t.usuario_id`

// ExamTopicRepository persists exam-topic posts.
type ExamTopicRepository struct {
	db *sqlx.DB
}

// NewExamTopicRepository creates a new repository instance.
func NewExamTopicRepository(db *sqlx.DB) *ExamTopicRepository {
	return &ExamTopicRepository{db: db}
}

// Create persists a new exam-topic post.
func (r *ExamTopicRepository) Create(ctx context.Context, topic *models.ExamTopic) error {
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	topic.CreatedAt = now
	topic.UpdatedAt = now
	topic.PostCounters = models.PostCounters{}

	const query = `INSERT INTO temas_examen (id, materia_id, usuario_id, tipo_examen, fecha_examen, temas, votos_util, votos_no_util, reportes, created_at, updated_at)
		VALUES (:id, :materia_id, :usuario_id, :tipo_examen, :fecha_examen, :temas, :votos_util, :votos_no_util, :reportes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("create exam topic: %w", err)
	}
	return nil
}

// FindByID returns an exam-topic post with its author's display name.
func (r *ExamTopicRepository) FindByID(ctx context.Context, id string) (*models.ExamTopic, error) {
	query := examTopicSelect + ` WHERE t.id = $1`
	var topic models.ExamTopic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, err
	}
	return &topic, nil
}

// Update modifies exam type, date and topics.
func (r *ExamTopicRepository) Update(ctx context.Context, topic *models.ExamTopic) error {
	topic.UpdatedAt = time.Now().UTC()
	const query = `UPDATE temas_examen SET tipo_examen = :tipo_examen, fecha_examen = :fecha_examen, temas = :temas, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("update exam topic: %w", err)
	}
	return nil
}

// Delete removes an exam-topic post; votes and reports cascade.
func (r *ExamTopicRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM temas_examen WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam topic: %w", err)
	}
	return nil
}

// ListBySubject returns a page of posts, most useful first, then newest.
func (r *ExamTopicRepository) ListBySubject(ctx context.Context, subjectID int64, page, size int) ([]models.ExamTopic, int, error) {
	_, size, offset := normalizePage(page, size)
	query := examTopicSelect + ` WHERE t.materia_id = $1 ORDER BY t.votos_util DESC, t.created_at DESC LIMIT $2 OFFSET $3`
	var topics []models.ExamTopic
	if err := r.db.SelectContext(ctx, &topics, query, subjectID, size, offset); err != nil {
		return nil, 0, fmt.Errorf("list exam topics: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM temas_examen WHERE materia_id = $1`, subjectID); err != nil {
		return nil, 0, fmt.Errorf("count exam topics: %w", err)
	}
	return topics, total, nil
}
