package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/validator"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// StartCallRequest opens a call at ring time.
type StartCallRequest struct {
	FromPhone  string `json:"from_phone" validate:"required"`
	Direction  string `json:"direction" validate:"required,oneof=inbound outbound"`
	VapiCallID string `json:"vapi_call_id,omitempty"`
}

// StartCall records a call at call start, resolving the contact by phone and
// threading it into the active voice conversation.
func (s *DataService) StartCall(ctx context.Context, req StartCallRequest) (*model.Call, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperrors.NewFatal(err, "invalid start call request")
	}

	source := model.ContactSourceInboundCall
	if req.Direction == model.DirectionOutbound {
		source = model.ContactSourceManual
	}
	contact, _, err := s.repo.FindOrCreateContactByPhone(ctx, req.FromPhone, source)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to resolve contact for call")
	}

	conv, _, err := s.repo.FindOrCreateConversation(ctx, contact.ID, model.ChannelVoice)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to resolve conversation for call")
	}

	call := &model.Call{
		ConversationID: conv.ID,
		ContactID:      contact.ID,
		Direction:      req.Direction,
		Status:         model.CallStatusInProgress,
		VapiCallID:     req.VapiCallID,
	}
	if err := s.repo.CreateCall(ctx, call); err != nil {
		return nil, apperrors.NewRetryable(err, "failed to create call")
	}

	logger.FromContext(ctx).Info("Call started",
		zap.String("call_id", call.ID),
		zap.String("contact_id", contact.ID),
		zap.String("direction", call.Direction),
	)
	return call, nil
}

// FinalizeCallRequest closes out a call.
type FinalizeCallRequest struct {
	CallID string           `json:"call_id" validate:"required"`
	Result model.CallResult `json:"result" validate:"required"`
	// Appointment carries the slot booked during the call. Optional for the
	// booked outcome when one was already created mid-call; rejected for any
	// other outcome.
	Appointment *model.Appointment `json:"appointment,omitempty"`
}

// FinalizeCall finalizes a call exactly once: outcome, transcript, the
// voice-minute charge (whole minutes, rounded up) and the booked appointment
// commit atomically. A booked outcome without an appointment payload falls
// back to one already booked for the call's contact, failing with
// ErrInvalidState when none exists. Afterwards a missed outcome schedules the
// missed-call text automation when the organization has it enabled.
func (s *DataService) FinalizeCall(ctx context.Context, req FinalizeCallRequest) (*model.Call, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperrors.NewFatal(err, "invalid finalize call request")
	}
	if err := validator.Validate(req.Result); err != nil {
		return nil, apperrors.NewFatal(err, "invalid call result")
	}

	var charge *model.UsageCharge
	if minutes := billedMinutes(req.Result.DurationSeconds); minutes > 0 {
		charge = model.NewUsageCharge(model.UsageTypeVoiceMinute, minutes, s.pricing.VoicePerMinute, model.EntityRef{})
	}

	call, err := s.repo.FinalizeCall(ctx, req.CallID, &req.Result, charge, req.Appointment)
	if err != nil {
		if apperrors.IsInvalidStateError(err) || apperrors.IsNotFoundError(err) || apperrors.IsInsufficientBalanceError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to finalize call")
	}

	logger.FromContext(ctx).Info("Call finalized",
		zap.String("call_id", call.ID),
		zap.String("outcome", call.Outcome),
		zap.Int("duration_seconds", call.DurationSeconds),
	)

	if call.Outcome == model.CallOutcomeMissed {
		if err := s.scheduleMissedCallText(ctx, call); err != nil {
			// The call itself is finalized; automation scheduling failing
			// must not unwind it.
			logger.FromContext(ctx).Error("Failed to schedule missed-call text",
				zap.String("call_id", call.ID),
				zap.Error(err),
			)
		}
	}

	return call, nil
}

// scheduleMissedCallText queues the missed-call follow-up text for a call,
// honoring the organization's toggle and delay. Idempotent per call window
// through the job's natural identity.
func (s *DataService) scheduleMissedCallText(ctx context.Context, call *model.Call) error {
	org, err := s.repo.FindOrganizationByID(ctx)
	if err != nil {
		return err
	}
	if !org.MissedCallTextEnabled || !org.TextEnabled {
		return nil
	}

	delay := time.Duration(org.MissedCallTextDelaySec) * time.Second
	job := model.NewScheduledJob(org.ID, call.ContactID, model.JobTypeMissedCallText, utils.Now().Add(delay))

	_, _, err = s.ScheduleJob(ctx, job)
	return err
}

// GetCall loads a single call.
func (s *DataService) GetCall(ctx context.Context, callID string) (*model.Call, error) {
	call, err := s.repo.FindCallByID(ctx, callID)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to load call")
	}
	return call, nil
}

// GetRecentCalls returns the newest calls for the organization.
func (s *DataService) GetRecentCalls(ctx context.Context, limit int) ([]model.Call, error) {
	if limit <= 0 {
		limit = 50
	}
	calls, err := s.repo.ListRecentCalls(ctx, limit)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list recent calls")
	}
	return calls, nil
}
