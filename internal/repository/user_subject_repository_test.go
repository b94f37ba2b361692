package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/pkg/database"
)

func TestUserSubjectRepositoryCreateMirrorsFirstSlot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserSubjectRepository(db)

	schedule := models.ScheduleSlots{
		{Day: "lunes", StartHour: "18:00", DurationHours: 3, Room: "A1"},
		{Day: "jueves", StartHour: "19:00", DurationHours: 2},
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO usuario_materias")).
		WithArgs("user-1", int64(5), models.StatusInProgress, "lunes", "18:00", 3.0, "A1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	record := &models.UserSubject{UserID: "user-1", SubjectID: 5, Status: models.StatusInProgress, Schedule: schedule}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.Equal(t, int64(10), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSubjectRepositoryUpdateStoresUnsetSlotFieldsAsNull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE usuario_materias SET estado")).
		WithArgs("user-1", int64(5), models.StatusInProgress, "lunes", nil, nil, "Aula 9", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.UserSubject{UserID: "user-1", SubjectID: 5, Status: models.StatusInProgress,
		Schedule: models.ScheduleSlots{{Day: "lunes", Room: "Aula 9"}}}
	require.NoError(t, repo.Update(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSubjectRepositoryCreateKeepsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO usuario_materias")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "usuario_materias_usuario_materia_key"})

	err := repo.Create(context.Background(), &models.UserSubject{UserID: "user-1", SubjectID: 5, Status: models.StatusNotStarted})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestUserSubjectRepositoryDeleteReportsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM usuario_materias WHERE usuario_id = $1 AND materia_id = $2")).
		WithArgs("user-1", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "user-1", 5)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUserSubjectRepositoryListAvailable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserSubjectRepository(db)

	rows := sqlmock.NewRows(subjectCols).AddRow(int64(2), int64(3), 2, "Física I", "1", "anual")
	mock.ExpectQuery(regexp.QuoteMeta("AND NOT EXISTS (SELECT 1 FROM usuario_materias um")).
		WithArgs("user-1", int64(3)).
		WillReturnRows(rows)

	subjects, err := repo.ListAvailable(context.Background(), "user-1", 3)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Física I", subjects[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSubjectRepositoryFindScansSchedule(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "usuario_id", "materia_id", "estado", "horarios", "created_at", "updated_at"}).
		AddRow(int64(1), "user-1", int64(5), "regularizada", []byte(`[{"dia":"martes","hora":"08:00","duracion":4}]`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM usuario_materias WHERE usuario_id = $1 AND materia_id = $2")).
		WithArgs("user-1", int64(5)).
		WillReturnRows(rows)

	record, err := repo.Find(context.Background(), "user-1", 5)
	require.NoError(t, err)
	require.Len(t, record.Schedule, 1)
	assert.Equal(t, "martes", record.Schedule[0].Day)
	assert.Equal(t, models.StatusRegularized, record.Status)
}
