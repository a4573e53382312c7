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
)

// CreateAppointment inserts a booked slot.
func (r *PostgresRepo) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}
	appt.OrganizationID = orgID
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = model.AppointmentStatusScheduled
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "CreateAppointment", func() error {
		if err := r.db.WithContext(ctx).Create(appt).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("create", "appointment", orgID, time.Since(startTime), opErr)
	return opErr
}

// FindAppointmentByID loads an appointment scoped to the organization.
func (r *PostgresRepo) FindAppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var appt model.Appointment
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindAppointmentByID", func() error {
		if err := r.db.WithContext(ctx).
			Where("id = ? AND organization_id = ?", id, orgID).
			First(&appt).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "appointment", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &appt, nil
}

// TransitionAppointmentStatus moves an appointment through its lifecycle
// under a row lock. Completed and canceled are terminal.
func (r *PostgresRepo) TransitionAppointmentStatus(ctx context.Context, id, newStatus string) (*model.Appointment, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var appt model.Appointment

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "TransitionAppointmentStatus", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.Clauses(lockForUpdate()).
				Where("id = ? AND organization_id = ?", id, orgID).
				First(&appt).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundf("appointment %s", id)
				}
				return checkConstraintViolation(err)
			}

			if appt.Status == newStatus {
				return nil
			}
			if !model.ValidAppointmentTransition(appt.Status, newStatus) {
				return fmt.Errorf("%w: appointment transition %s -> %s", apperrors.ErrInvalidState, appt.Status, newStatus)
			}

			if err := tx.Model(&model.Appointment{}).Where("id = ?", appt.ID).
				Update("status", newStatus).Error; err != nil {
				return checkConstraintViolation(err)
			}
			appt.Status = newStatus
			return nil
		})
	})
	observer.ObserveDbOperationDuration("transition", "appointment", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &appt, nil
}

// ListUpcomingAppointments returns non-canceled appointments from a point in
// time forward, soonest first.
func (r *PostgresRepo) ListUpcomingAppointments(ctx context.Context, from time.Time, limit int) ([]model.Appointment, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var appts []model.Appointment
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListUpcomingAppointments", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ? AND scheduled_at >= ? AND status <> ?",
				orgID, from, model.AppointmentStatusCanceled).
			Order("scheduled_at ASC").
			Limit(limit).
			Find(&appts).Error)
	})
	observer.ObserveDbOperationDuration("list", "appointment", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return appts, nil
}
