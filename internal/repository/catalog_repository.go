package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cursada/planner-api/internal/models"
)

const subjectColumns = `id, carrera_id, numero, nombre, nivel, duracion`

// CatalogRepository reads universities, careers, subjects and prerequisite edges.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new repository instance.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListUniversities returns every university ordered by name.
func (r *CatalogRepository) ListUniversities(ctx context.Context) ([]models.University, error) {
	const query = `SELECT id, nombre, abreviatura FROM universidades ORDER BY nombre`
	var universities []models.University
	if err := r.db.SelectContext(ctx, &universities, query); err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	return universities, nil
}

// ListAllCareers returns every career ordered by university and name.
func (r *CatalogRepository) ListAllCareers(ctx context.Context) ([]models.Career, error) {
	const query = `SELECT id, universidad_id, nombre FROM carreras ORDER BY universidad_id, nombre`
	var careers []models.Career
	if err := r.db.SelectContext(ctx, &careers, query); err != nil {
		return nil, fmt.Errorf("list all careers: %w", err)
	}
	return careers, nil
}

// ListCareers returns the careers of a university ordered by name.
func (r *CatalogRepository) ListCareers(ctx context.Context, universityID int64) ([]models.Career, error) {
	const query = `SELECT id, universidad_id, nombre FROM carreras WHERE universidad_id = $1 ORDER BY nombre`
	var careers []models.Career
	if err := r.db.SelectContext(ctx, &careers, query, universityID); err != nil {
		return nil, fmt.Errorf("list careers: %w", err)
	}
	return careers, nil
}

// FindCareerByID returns a career by id.
func (r *CatalogRepository) FindCareerByID(ctx context.Context, id int64) (*models.Career, error) {
	const query = `SELECT id, universidad_id, nombre FROM carreras WHERE id = $1`
	var career models.Career
	if err := r.db.GetContext(ctx, &career, query, id); err != nil {
		return nil, err
	}
	return &career, nil
}

// ListSubjects returns the subjects of a career ordered by sequence number.
func (r *CatalogRepository) ListSubjects(ctx context.Context, careerID int64) ([]models.Subject, error) {
	const query = `SELECT ` + subjectColumns + ` FROM materias WHERE carrera_id = $1 ORDER BY numero NULLS LAST, nombre`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, careerID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// CountSubjects returns how many subjects a career has.
func (r *CatalogRepository) CountSubjects(ctx context.Context, careerID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM materias WHERE carrera_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, careerID); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return total, nil
}

// FindSubjectByID returns a subject by id.
func (r *CatalogRepository) FindSubjectByID(ctx context.Context, id int64) (*models.Subject, error) {
	const query = `SELECT ` + subjectColumns + ` FROM materias WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindSubjectByName returns the oldest subject whose name matches exactly.
func (r *CatalogRepository) FindSubjectByName(ctx context.Context, name string) (*models.Subject, error) {
	const query = `SELECT ` + subjectColumns + ` FROM materias WHERE nombre = $1 ORDER BY id LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, name); err != nil {
		return nil, err
	}
	return &subject, nil
}

// InsertSubjectByName creates a subject without career. When a concurrent
// insert wins the partial unique index the existing row is returned.
func (r *CatalogRepository) InsertSubjectByName(ctx context.Context, name string) (*models.Subject, error) {
	const insert = `INSERT INTO materias (carrera_id, numero, nombre, nivel, duracion)
		VALUES (NULL, NULL, $1, '', $2)
		ON CONFLICT (nombre) WHERE carrera_id IS NULL DO NOTHING
		RETURNING ` + subjectColumns
	var subject models.Subject
	err := r.db.GetContext(ctx, &subject, insert, name, models.DurationAnnual)
	if err == nil {
		return &subject, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("insert subject by name: %w", err)
	}

	const existing = `SELECT ` + subjectColumns + ` FROM materias WHERE nombre = $1 AND carrera_id IS NULL`
	if err := r.db.GetContext(ctx, &subject, existing, name); err != nil {
		return nil, fmt.Errorf("load subject by name: %w", err)
	}
	return &subject, nil
}

// ListPrerequisites returns the outgoing edges of a subject with the required subject's identity.
func (r *CatalogRepository) ListPrerequisites(ctx context.Context, subjectID int64) ([]models.PrerequisiteDetail, error) {
	const query = `SELECT cd.materia_id, cd.correlativa_id, cd.tipo, m.numero AS correlativa_numero, m.nombre AS correlativa_nombre
		FROM correlativas_detalle cd
		JOIN materias m ON m.id = cd.correlativa_id
		WHERE cd.materia_id = $1
		ORDER BY m.numero NULLS LAST, m.nombre, cd.tipo`
	var edges []models.PrerequisiteDetail
	if err := r.db.SelectContext(ctx, &edges, query, subjectID); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return edges, nil
}
