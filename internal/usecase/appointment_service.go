package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/validator"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

// BookAppointmentRequest books a slot for a contact.
type BookAppointmentRequest struct {
	ContactID       string    `json:"contact_id" validate:"required"`
	Title           string    `json:"title" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes,omitempty" validate:"omitempty,gt=0"`
	GoogleEventID   string    `json:"google_event_id,omitempty"`
}

// BookAppointment creates an appointment in the scheduled state.
func (s *DataService) BookAppointment(ctx context.Context, req BookAppointmentRequest) (*model.Appointment, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperrors.NewFatal(err, "invalid appointment")
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 30
	}
	appt := &model.Appointment{
		ContactID:       req.ContactID,
		Title:           req.Title,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: duration,
		GoogleEventID:   req.GoogleEventID,
		Status:          model.AppointmentStatusScheduled,
	}
	if err := s.repo.CreateAppointment(ctx, appt); err != nil {
		return nil, apperrors.NewRetryable(err, "failed to create appointment")
	}

	logger.FromContext(ctx).Info("Appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("contact_id", appt.ContactID),
		zap.Time("scheduled_at", appt.ScheduledAt),
	)
	return appt, nil
}

// ConfirmAppointment moves an appointment to confirmed.
func (s *DataService) ConfirmAppointment(ctx context.Context, appointmentID string) (*model.Appointment, error) {
	return s.transitionAppointment(ctx, appointmentID, model.AppointmentStatusConfirmed)
}

// CompleteAppointment moves an appointment to completed.
func (s *DataService) CompleteAppointment(ctx context.Context, appointmentID string) (*model.Appointment, error) {
	return s.transitionAppointment(ctx, appointmentID, model.AppointmentStatusCompleted)
}

// CancelAppointment moves an appointment to canceled.
func (s *DataService) CancelAppointment(ctx context.Context, appointmentID string) (*model.Appointment, error) {
	return s.transitionAppointment(ctx, appointmentID, model.AppointmentStatusCanceled)
}

func (s *DataService) transitionAppointment(ctx context.Context, appointmentID, status string) (*model.Appointment, error) {
	appt, err := s.repo.TransitionAppointmentStatus(ctx, appointmentID, status)
	if err != nil {
		if apperrors.IsInvalidStateError(err) || apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to transition appointment")
	}
	return appt, nil
}

// GetUpcomingAppointments returns non-canceled appointments from now forward.
func (s *DataService) GetUpcomingAppointments(ctx context.Context, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	appts, err := s.repo.ListUpcomingAppointments(ctx, time.Now().UTC(), limit)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list upcoming appointments")
	}
	return appts, nil
}
