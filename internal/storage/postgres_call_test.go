package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
)

func callRows(id string, endedAt interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "organization_id", "contact_id", "conversation_id",
		"direction", "status", "ended_at",
	}).AddRow(id, testOrgID, testContactID, "conv-1", model.DirectionInbound, model.CallStatusInProgress, endedAt)
}

func TestFinalizeCallSuccess(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "calls" WHERE id = .+ AND organization_id = .+ FOR UPDATE`).
		WillReturnRows(callRows("call-1", nil))
	mock.ExpectExec(`UPDATE "calls" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "conversations" SET "last_activity_at"=.+`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := &model.CallResult{
		DurationSeconds: 95,
		Outcome:         model.CallOutcomeAnswered,
		Transcript:      "hi, I'd like to book",
	}
	call, err := repo.FinalizeCall(testCtx(), "call-1", result, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusCompleted, call.Status)
	assert.Equal(t, model.CallOutcomeAnswered, call.Outcome)
	assert.True(t, call.Finalized())
}

func TestFinalizeCallTwiceFails(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "calls" WHERE id = .+ AND organization_id = .+ FOR UPDATE`).
		WillReturnRows(callRows("call-1", time.Now().UTC()))
	mock.ExpectRollback()

	result := &model.CallResult{DurationSeconds: 10, Outcome: model.CallOutcomeAnswered}
	_, err := repo.FinalizeCall(testCtx(), "call-1", result, nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestFinalizeCallMissedMarksFailed(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "calls" WHERE id = .+ AND organization_id = .+ FOR UPDATE`).
		WillReturnRows(callRows("call-1", nil))
	mock.ExpectExec(`UPDATE "calls" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "conversations" SET "last_activity_at"=.+`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := &model.CallResult{DurationSeconds: 0, Outcome: model.CallOutcomeMissed}
	call, err := repo.FinalizeCall(testCtx(), "call-1", result, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusFailed, call.Status)
}

func TestFinalizeCallBookedCreatesAppointment(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "calls" WHERE id = .+ AND organization_id = .+ FOR UPDATE`).
		WillReturnRows(callRows("call-1", nil))
	mock.ExpectExec(`UPDATE "calls" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "conversations" SET "last_activity_at"=.+`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "appointments"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := &model.CallResult{DurationSeconds: 200, Outcome: model.CallOutcomeBooked}
	appt := &model.Appointment{
		Title:           "Consultation",
		ScheduledAt:     time.Now().Add(48 * time.Hour).UTC(),
		DurationMinutes: 30,
	}
	call, err := repo.FinalizeCall(testCtx(), "call-1", result, nil, appt)
	require.NoError(t, err)
	assert.Equal(t, model.CallOutcomeBooked, call.Outcome)
	assert.Equal(t, testOrgID, appt.OrganizationID)
	assert.Equal(t, testContactID, appt.ContactID)
	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)
}

func TestFinalizeCallBookedUsesExistingAppointment(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	// Appointment booked mid-call, finalize carries no payload: the existing
	// row satisfies the booked outcome.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "calls" WHERE id = .+ AND organization_id = .+ FOR UPDATE`).
		WillReturnRows(callRows("call-1", nil))
	mock.ExpectExec(`UPDATE "calls" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "conversations" SET "last_activity_at"=.+`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE organization_id = .+ AND contact_id = .+ AND status IN .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "contact_id", "status"}).
			AddRow("appt-1", testOrgID, testContactID, model.AppointmentStatusScheduled))
	mock.ExpectCommit()

	result := &model.CallResult{DurationSeconds: 200, Outcome: model.CallOutcomeBooked}
	call, err := repo.FinalizeCall(testCtx(), "call-1", result, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.CallOutcomeBooked, call.Outcome)
}

func TestFinalizeCallBookedWithoutAnyAppointment(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "calls" WHERE id = .+ AND organization_id = .+ FOR UPDATE`).
		WillReturnRows(callRows("call-1", nil))
	mock.ExpectExec(`UPDATE "calls" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "conversations" SET "last_activity_at"=.+`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE organization_id = .+ AND contact_id = .+ AND status IN .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	result := &model.CallResult{DurationSeconds: 200, Outcome: model.CallOutcomeBooked}
	_, err := repo.FinalizeCall(testCtx(), "call-1", result, nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestFinalizeCallAppointmentWithoutBookedOutcome(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "calls" WHERE id = .+ AND organization_id = .+ FOR UPDATE`).
		WillReturnRows(callRows("call-1", nil))
	mock.ExpectExec(`UPDATE "calls" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "conversations" SET "last_activity_at"=.+`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	result := &model.CallResult{DurationSeconds: 30, Outcome: model.CallOutcomeAnswered}
	appt := &model.Appointment{Title: "Consultation", ScheduledAt: time.Now().UTC()}
	_, err := repo.FinalizeCall(testCtx(), "call-1", result, nil, appt)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
