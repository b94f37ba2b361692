package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cursada/planner-api/internal/models"
)

func TestSeedRepositoryInsertPrerequisiteIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSeedRepository(db)

	edge := models.Prerequisite{SubjectID: 2, RequiredSubjectID: 1, Kind: models.PrerequisiteApproved}
	query := regexp.QuoteMeta("ON CONFLICT ON CONSTRAINT correlativas_detalle_key DO NOTHING")
	mock.ExpectExec(query).WithArgs(int64(2), int64(1), "aprobada").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(query).WithArgs(int64(2), int64(1), "aprobada").WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertPrerequisite(context.Background(), nil, edge)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertPrerequisite(context.Background(), nil, edge)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRepositoryUpsertUniversityReportsInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSeedRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO universidades (nombre, abreviatura)")).
		WithArgs("Universidad Tecnológica Nacional", "UTN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(int64(1), true))

	res, err := repo.UpsertUniversity(context.Background(), nil, "Universidad Tecnológica Nacional", "UTN")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ID)
	assert.True(t, res.Inserted)
}
