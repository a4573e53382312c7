package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
)

func TestBilledMinutesRoundsUp(t *testing.T) {
	testCases := []struct {
		seconds int
		minutes int
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{59, 1},
		{60, 1},
		{61, 2},
		{119, 2},
		{120, 2},
		{121, 3},
	}
	for _, tc := range testCases {
		assert.Equalf(t, tc.minutes, billedMinutes(tc.seconds), "seconds=%d", tc.seconds)
	}
}

func TestFinalizeCallBillsWholeMinutes(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	finalized := &model.Call{ID: "call-1", Outcome: model.CallOutcomeAnswered, DurationSeconds: 95}
	repo.On("FinalizeCall", mock.Anything, "call-1", mock.Anything, mock.MatchedBy(func(charge *model.UsageCharge) bool {
		// 95 seconds bills 2 minutes at $0.10.
		return charge != nil &&
			charge.Type == model.UsageTypeVoiceMinute &&
			charge.Quantity == 2 &&
			charge.TotalCost == 0.20
	}), (*model.Appointment)(nil)).Return(finalized, nil)

	call, err := svc.FinalizeCall(serviceCtx(), FinalizeCallRequest{
		CallID: "call-1",
		Result: model.CallResult{DurationSeconds: 95, Outcome: model.CallOutcomeAnswered},
	})
	require.NoError(t, err)
	assert.Equal(t, "call-1", call.ID)
	repo.AssertExpectations(t)
}

func TestFinalizeCallZeroDurationBillsNothing(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	finalized := &model.Call{ID: "call-1", Outcome: model.CallOutcomeVoicemail}
	repo.On("FinalizeCall", mock.Anything, "call-1", mock.Anything, (*model.UsageCharge)(nil), (*model.Appointment)(nil)).
		Return(finalized, nil)

	_, err := svc.FinalizeCall(serviceCtx(), FinalizeCallRequest{
		CallID: "call-1",
		Result: model.CallResult{DurationSeconds: 0, Outcome: model.CallOutcomeVoicemail},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFinalizeCallBookedWithoutPayloadUsesExistingAppointment(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	// Appointment booked mid-call: finalize carries no payload and the
	// storage layer resolves the existing booking.
	finalized := &model.Call{ID: "call-1", Outcome: model.CallOutcomeBooked, DurationSeconds: 60}
	repo.On("FinalizeCall", mock.Anything, "call-1", mock.Anything, mock.Anything, (*model.Appointment)(nil)).
		Return(finalized, nil)

	call, err := svc.FinalizeCall(serviceCtx(), FinalizeCallRequest{
		CallID: "call-1",
		Result: model.CallResult{DurationSeconds: 60, Outcome: model.CallOutcomeBooked},
	})
	require.NoError(t, err)
	assert.Equal(t, model.CallOutcomeBooked, call.Outcome)
	repo.AssertExpectations(t)
}

func TestFinalizeCallBookedWithNoAppointmentAnywhere(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	repo.On("FinalizeCall", mock.Anything, "call-1", mock.Anything, mock.Anything, (*model.Appointment)(nil)).
		Return(nil, apperrors.ErrInvalidState)

	_, err := svc.FinalizeCall(serviceCtx(), FinalizeCallRequest{
		CallID: "call-1",
		Result: model.CallResult{DurationSeconds: 60, Outcome: model.CallOutcomeBooked},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.False(t, apperrors.IsRetryable(err))
}

func TestFinalizeCallMissedSchedulesFollowUpText(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	finalized := &model.Call{
		ID:        "call-1",
		ContactID: "contact-1",
		Outcome:   model.CallOutcomeMissed,
	}
	org := model.NewOrganization()
	org.MissedCallTextEnabled = true
	org.TextEnabled = true
	org.MissedCallTextDelaySec = 60

	repo.On("FinalizeCall", mock.Anything, "call-1", mock.Anything, (*model.UsageCharge)(nil), (*model.Appointment)(nil)).
		Return(finalized, nil)
	repo.On("FindOrganizationByID", mock.Anything).Return(org, nil)
	repo.On("ScheduleJob", mock.Anything, mock.MatchedBy(func(job *model.ScheduledJob) bool {
		return job.Type == model.JobTypeMissedCallText && job.ContactID == "contact-1"
	})).Return(&model.ScheduledJob{ID: "job-1", Type: model.JobTypeMissedCallText}, true, nil)

	_, err := svc.FinalizeCall(serviceCtx(), FinalizeCallRequest{
		CallID: "call-1",
		Result: model.CallResult{DurationSeconds: 0, Outcome: model.CallOutcomeMissed},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFinalizeCallMissedHonorsDisabledToggle(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	finalized := &model.Call{ID: "call-1", ContactID: "contact-1", Outcome: model.CallOutcomeMissed}
	org := model.NewOrganization()
	org.MissedCallTextEnabled = false

	repo.On("FinalizeCall", mock.Anything, "call-1", mock.Anything, (*model.UsageCharge)(nil), (*model.Appointment)(nil)).
		Return(finalized, nil)
	repo.On("FindOrganizationByID", mock.Anything).Return(org, nil)

	_, err := svc.FinalizeCall(serviceCtx(), FinalizeCallRequest{
		CallID: "call-1",
		Result: model.CallResult{DurationSeconds: 0, Outcome: model.CallOutcomeMissed},
	})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "ScheduleJob", mock.Anything, mock.Anything)
}

func TestStartCallThreadsIntoVoiceConversation(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	contact := &model.Contact{ID: "contact-1", Phone: "+15550001111"}
	conv := &model.Conversation{ID: "conv-voice", ContactID: "contact-1", Channel: model.ChannelVoice}

	repo.On("FindOrCreateContactByPhone", mock.Anything, "+15550001111", model.ContactSourceInboundCall).
		Return(contact, false, nil)
	repo.On("FindOrCreateConversation", mock.Anything, "contact-1", model.ChannelVoice).
		Return(conv, true, nil)
	repo.On("CreateCall", mock.Anything, mock.MatchedBy(func(call *model.Call) bool {
		return call.ConversationID == "conv-voice" && call.Status == model.CallStatusInProgress
	})).Return(nil)

	call, err := svc.StartCall(serviceCtx(), StartCallRequest{
		FromPhone: "+15550001111",
		Direction: model.DirectionInbound,
	})
	require.NoError(t, err)
	assert.Equal(t, "conv-voice", call.ConversationID)
	repo.AssertExpectations(t)
}
