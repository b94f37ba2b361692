package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
)

func newUserSubjectFixture(subjects int) (*UserSubjectService, *fakeUserSubjects, *fakeUsers) {
	catalog := newFakeCatalog(subjects)
	repo := newFakeUserSubjects(catalog)
	users := newFakeUsers()
	return NewUserSubjectService(repo, catalog, users, nil, zap.NewNop()), repo, users
}

func TestUserSubjectServiceAddSubjectDefaultsStatus(t *testing.T) {
	svc, _, users := newUserSubjectFixture(3)

	record, err := svc.AddSubject(context.Background(), alice, AddUserSubjectRequest{SubjectID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotStarted, record.Status)
	assert.Nil(t, record.Day)
	assert.Equal(t, 1, users.ensured[alice.UserID])
}

func TestUserSubjectServiceAddSubjectTwiceConflicts(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 2, Status: models.StatusInProgress})
	require.NoError(t, err)

	_, err = svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 2})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.AddSubject(ctx, bob, AddUserSubjectRequest{SubjectID: 2})
	assert.NoError(t, err)
}

func TestUserSubjectServiceAddSubjectRaceConflicts(t *testing.T) {
	svc, repo, _ := newUserSubjectFixture(3)
	repo.uniqueErr = &pq.Error{Code: "23505", Constraint: "usuario_materias_usuario_materia_key"}

	_, err := svc.AddSubject(context.Background(), alice, AddUserSubjectRequest{SubjectID: 1})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestUserSubjectServiceAddSubjectUnknownSubject(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)

	_, err := svc.AddSubject(context.Background(), alice, AddUserSubjectRequest{SubjectID: 99})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserSubjectServiceAddSubjectRejectsInvalidInput(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 1, Status: "recursando"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 1, ScheduleInput: ScheduleInput{Day: strPtr("Lunes"), StartHour: strPtr("25:99"), DurationHours: floatPtr(2)}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserSubjectServiceFlatScheduleIsMirrored(t *testing.T) {
	svc, repo, _ := newUserSubjectFixture(3)

	record, err := svc.AddSubject(context.Background(), alice, AddUserSubjectRequest{
		SubjectID:     1,
		Status:        models.StatusInProgress,
		ScheduleInput: ScheduleInput{Day: strPtr("Martes"), StartHour: strPtr("18:30"), DurationHours: floatPtr(3), Room: strPtr("Aula 4")},
	})
	require.NoError(t, err)
	require.Len(t, record.Schedule, 1)
	require.NotNil(t, record.Day)
	assert.Equal(t, "Martes", *record.Day)
	assert.Equal(t, 3.0, *record.DurationHours)
	assert.Equal(t, "18:30", repo.records[alice.UserID][1].Schedule[0].StartHour)
}

func TestUserSubjectServiceUpdateStatusIgnoresPrerequisites(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 2})
	require.NoError(t, err)

	approved := models.StatusApproved
	record, err := svc.UpdateStatus(ctx, alice, 2, UpdateUserSubjectRequest{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, record.Status)
}

func TestUserSubjectServiceUpdateKeepsScheduleWhenOmitted(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{
		SubjectID:     1,
		ScheduleInput: ScheduleInput{Slots: models.ScheduleSlots{{Day: "Jueves", StartHour: "08:00", DurationHours: 4}}},
	})
	require.NoError(t, err)

	regularized := models.StatusRegularized
	record, err := svc.UpdateStatus(ctx, alice, 1, UpdateUserSubjectRequest{Status: &regularized})
	require.NoError(t, err)
	require.Len(t, record.Schedule, 1)
	assert.Equal(t, "Jueves", record.Schedule[0].Day)
}

func TestUserSubjectServiceAddSubjectWithDayOnly(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)

	record, err := svc.AddSubject(context.Background(), alice, AddUserSubjectRequest{
		SubjectID:     1,
		ScheduleInput: ScheduleInput{Day: strPtr("Lunes")},
	})
	require.NoError(t, err)
	require.Len(t, record.Schedule, 1)
	assert.Equal(t, "Lunes", *record.Day)
	assert.Nil(t, record.StartHour)
	assert.Nil(t, record.DurationHours)
}

func TestUserSubjectServiceUpdateRoomKeepsOtherFields(t *testing.T) {
	svc, repo, _ := newUserSubjectFixture(3)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{
		SubjectID:     1,
		Status:        models.StatusInProgress,
		ScheduleInput: ScheduleInput{Day: strPtr("Martes"), StartHour: strPtr("18:30"), DurationHours: floatPtr(3), Room: strPtr("Aula 4")},
	})
	require.NoError(t, err)

	record, err := svc.UpdateStatus(ctx, alice, 1, UpdateUserSubjectRequest{ScheduleInput: ScheduleInput{Room: strPtr("Aula 9")}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, record.Status)
	require.Len(t, record.Schedule, 1)
	assert.Equal(t, models.ScheduleSlot{Day: "Martes", StartHour: "18:30", DurationHours: 3, Room: "Aula 9"}, record.Schedule[0])
	assert.Equal(t, "Aula 9", *record.Room)
	assert.Equal(t, "18:30", *record.StartHour)
	assert.Equal(t, "Aula 9", repo.records[alice.UserID][1].Schedule[0].Room)
}

func TestUserSubjectServiceUpdateFlatFieldCreatesSlot(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 2})
	require.NoError(t, err)

	record, err := svc.UpdateStatus(ctx, alice, 2, UpdateUserSubjectRequest{ScheduleInput: ScheduleInput{StartHour: strPtr("09:00")}})
	require.NoError(t, err)
	require.Len(t, record.Schedule, 1)
	assert.Equal(t, "09:00", record.Schedule[0].StartHour)
	assert.Nil(t, record.Day)

	_, err = svc.UpdateStatus(ctx, alice, 2, UpdateUserSubjectRequest{ScheduleInput: ScheduleInput{StartHour: strPtr("9am")}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserSubjectServiceUpdateUntrackedIsNotFound(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)
	approved := models.StatusApproved

	_, err := svc.UpdateStatus(context.Background(), alice, 1, UpdateUserSubjectRequest{Status: &approved})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserSubjectServiceRemoveSubject(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(3)
	ctx := context.Background()

	_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 3})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveSubject(ctx, alice, 3))
	assert.ErrorIs(t, svc.RemoveSubject(ctx, alice, 3), appErrors.ErrNotFound)
}

func TestUserSubjectServiceAvailableShrinksToEmpty(t *testing.T) {
	svc, _, users := newUserSubjectFixture(4)
	ctx := context.Background()

	available, err := svc.ListAvailableSubjects(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, available)
	assert.NotNil(t, available)

	users.careers[alice.UserID] = int64Ptr(3)
	available, err = svc.ListAvailableSubjects(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, available, 4)

	for id := int64(1); id <= 4; id++ {
		_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: id})
		require.NoError(t, err)
	}

	available, err = svc.ListAvailableSubjects(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestUserSubjectServiceListOrdersByNumber(t *testing.T) {
	svc, _, _ := newUserSubjectFixture(5)
	ctx := context.Background()

	for _, id := range []int64{4, 1, 3} {
		_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: id})
		require.NoError(t, err)
	}

	records, err := svc.ListUserSubjects(ctx, alice)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{1, 3, 4}, []int64{records[0].SubjectID, records[1].SubjectID, records[2].SubjectID})
}

func TestUserSubjectServiceProgress(t *testing.T) {
	svc, _, users := newUserSubjectFixture(4)
	ctx := context.Background()
	users.careers[alice.UserID] = int64Ptr(3)

	_, err := svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 1, Status: models.StatusApproved})
	require.NoError(t, err)
	_, err = svc.AddSubject(ctx, alice, AddUserSubjectRequest{SubjectID: 2, Status: models.StatusInProgress})
	require.NoError(t, err)

	progress, err := svc.Progress(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 4, progress.CareerSubjects)
	assert.Equal(t, 2, progress.Tracked)
	assert.Equal(t, 1, progress.ByStatus[models.StatusApproved])
	assert.Equal(t, 0, progress.ByStatus[models.StatusRegularized])
	assert.Equal(t, 25.0, progress.ApprovedPercent)
}
