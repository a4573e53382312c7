package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// CreateCall inserts a call row at call start and bumps the parent
// conversation's activity clock when the call belongs to a thread.
func (r *PostgresRepo) CreateCall(ctx context.Context, call *model.Call) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}
	call.OrganizationID = orgID
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	if call.Status == "" {
		call.Status = model.CallStatusInProgress
	}
	if call.StartedAt == nil {
		now := utils.Now()
		call.StartedAt = &now
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "CreateCall", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(call).Error; err != nil {
				return checkConstraintViolation(err)
			}
			if call.ConversationID != "" {
				return touchConversationTx(tx, orgID, call.ConversationID, *call.StartedAt)
			}
			return nil
		})
	})
	observer.ObserveDbOperationDuration("create", "call", orgID, time.Since(startTime), opErr)
	return opErr
}

// FinalizeCall closes out an in-progress call: duration, transcript, outcome
// and ended_at are written exactly once. The voice-minute charge and, for a
// booked outcome, the appointment row commit in the same transaction. A booked
// outcome without an appointment payload requires one already booked for the
// call's contact. A call already finalized fails with ErrInvalidState and
// writes nothing.
func (r *PostgresRepo) FinalizeCall(ctx context.Context, callID string, result *model.CallResult, charge *model.UsageCharge, appointment *model.Appointment) (*model.Call, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if charge != nil && charge.Reference.ID == "" {
		charge.Reference = model.EntityRef{Kind: model.ReferenceKindCall, ID: callID}
	}

	var call model.Call

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "FinalizeCall", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.Clauses(lockForUpdate()).
				Where("id = ? AND organization_id = ?", callID, orgID).
				First(&call).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundf("call %s", callID)
				}
				return checkConstraintViolation(err)
			}
			if call.Finalized() {
				return invalidStatef("call %s already finalized at %s", callID, call.EndedAt.Format(time.RFC3339))
			}

			now := utils.Now()
			status := model.CallStatusCompleted
			if result.Outcome == model.CallOutcomeMissed {
				status = model.CallStatusFailed
			}
			updates := map[string]interface{}{
				"status":           status,
				"duration_seconds": result.DurationSeconds,
				"recording_url":    result.RecordingURL,
				"transcript":       result.Transcript,
				"summary":          result.Summary,
				"outcome":          result.Outcome,
				"transferred_to":   result.TransferredTo,
				"ended_at":         now,
			}
			if err := tx.Model(&model.Call{}).Where("id = ?", call.ID).Updates(updates).Error; err != nil {
				return checkConstraintViolation(err)
			}

			if call.ConversationID != "" {
				if err := touchConversationTx(tx, orgID, call.ConversationID, now); err != nil {
					return err
				}
			}

			if _, err := chargeUsageTx(tx, orgID, charge, fmt.Sprintf("voice minutes for call %s", call.ID)); err != nil {
				return err
			}

			if appointment != nil {
				if result.Outcome != model.CallOutcomeBooked {
					return fmt.Errorf("%w: appointment supplied for outcome %q", apperrors.ErrBadRequest, result.Outcome)
				}
				appointment.OrganizationID = orgID
				if appointment.ID == "" {
					appointment.ID = uuid.NewString()
				}
				if appointment.ContactID == "" {
					appointment.ContactID = call.ContactID
				}
				if appointment.Status == "" {
					appointment.Status = model.AppointmentStatusScheduled
				}
				if err := tx.Create(appointment).Error; err != nil {
					return checkConstraintViolation(err)
				}
			} else if result.Outcome == model.CallOutcomeBooked {
				// No appointment payload: the booking must already exist,
				// typically created mid-call through BookAppointment.
				var existing model.Appointment
				err := tx.Where("organization_id = ? AND contact_id = ? AND status IN ?",
					orgID, call.ContactID,
					[]string{model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed}).
					First(&existing).Error
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return invalidStatef("booked outcome for call %s with no appointment for contact %s", call.ID, call.ContactID)
					}
					return checkConstraintViolation(err)
				}
			}

			call.Status = status
			call.DurationSeconds = result.DurationSeconds
			call.RecordingURL = result.RecordingURL
			call.Transcript = result.Transcript
			call.Summary = result.Summary
			call.Outcome = result.Outcome
			call.TransferredTo = result.TransferredTo
			call.EndedAt = &now
			return nil
		})
	})
	observer.ObserveDbOperationDuration("finalize", "call", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		if apperrors.IsInsufficientBalanceError(opErr) {
			observer.IncInsufficientBalance(orgID)
		}
		return nil, opErr
	}
	return &call, nil
}

// FindCallByID loads a call scoped to the organization in context.
func (r *PostgresRepo) FindCallByID(ctx context.Context, id string) (*model.Call, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var call model.Call
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindCallByID", func() error {
		if err := r.db.WithContext(ctx).
			Where("id = ? AND organization_id = ?", id, orgID).
			First(&call).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "call", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &call, nil
}

// ListRecentCalls returns the organization's calls newest first.
func (r *PostgresRepo) ListRecentCalls(ctx context.Context, limit int) ([]model.Call, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var calls []model.Call
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListRecentCalls", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ?", orgID).
			Order("created_at DESC").
			Limit(limit).
			Find(&calls).Error)
	})
	observer.ObserveDbOperationDuration("list", "call", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return calls, nil
}
