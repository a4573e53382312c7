package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// CreateContact inserts a contact for the organization in context. A second
// contact with the same phone fails with ErrDuplicate.
func (r *PostgresRepo) CreateContact(ctx context.Context, contact *model.Contact) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}
	contact.OrganizationID = orgID
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "CreateContact", func() error {
		if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("create", "contact", orgID, time.Since(startTime), opErr)
	return opErr
}

// FindOrCreateContactByPhone resolves a phone number to a contact, creating a
// new one with the given source when none exists. The insert races cleanly
// with concurrent callers through the unique (organization_id, phone) index.
// Returns the contact and whether a row was created.
func (r *PostgresRepo) FindOrCreateContactByPhone(ctx context.Context, phone, source string) (*model.Contact, bool, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, false, err
	}

	var contact model.Contact
	created := false

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "FindOrCreateContactByPhone", func() error {
		created = false
		err := r.db.WithContext(ctx).
			Where("organization_id = ? AND phone = ?", orgID, phone).
			First(&contact).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return checkConstraintViolation(err)
		}

		candidate := model.Contact{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			Phone:          phone,
			Source:         source,
			Status:         model.ContactStatusLead,
			CreatedAt:      utils.Now(),
		}
		insert := r.db.WithContext(ctx).Clauses(onConflictDoNothing()).Create(&candidate)
		if insert.Error != nil {
			return checkConstraintViolation(insert.Error)
		}
		if insert.RowsAffected > 0 {
			contact = candidate
			created = true
			return nil
		}

		// Lost the insert race; the winner's row is now visible.
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ? AND phone = ?", orgID, phone).
			First(&contact).Error)
	})
	observer.ObserveDbOperationDuration("find_or_create", "contact", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, false, opErr
	}
	return &contact, created, nil
}

// FindContactByID loads a contact scoped to the organization in context.
func (r *PostgresRepo) FindContactByID(ctx context.Context, id string) (*model.Contact, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var contact model.Contact
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindContactByID", func() error {
		if err := r.db.WithContext(ctx).
			Where("id = ? AND organization_id = ?", id, orgID).
			First(&contact).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "contact", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &contact, nil
}

// ListContacts returns contacts for the organization, newest first.
func (r *PostgresRepo) ListContacts(ctx context.Context, limit, offset int) ([]model.Contact, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var contacts []model.Contact
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListContacts", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ?", orgID).
			Order("created_at DESC").
			Limit(limit).Offset(offset).
			Find(&contacts).Error)
	})
	observer.ObserveDbOperationDuration("list", "contact", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return contacts, nil
}

// RecordOptOut sets the sticky opt-out flag and, in the same transaction,
// fails every pending scheduled job that targets the contact so no queued
// automation can fire afterwards. Opting out twice is a no-op for the flag
// and the timestamp. Returns the number of jobs canceled.
func (r *PostgresRepo) RecordOptOut(ctx context.Context, contactID string) (int64, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var jobsCanceled int64

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "RecordOptOut", func() error {
		jobsCanceled = 0
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var contact model.Contact
			err := tx.Clauses(lockForUpdate()).
				Where("id = ? AND organization_id = ?", contactID, orgID).
				First(&contact).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundf("contact %s", contactID)
				}
				return checkConstraintViolation(err)
			}

			if !contact.OptedOut {
				now := utils.Now()
				updates := map[string]interface{}{
					"opted_out":    true,
					"opted_out_at": now,
				}
				if err := tx.Model(&model.Contact{}).Where("id = ?", contact.ID).Updates(updates).Error; err != nil {
					return checkConstraintViolation(err)
				}
			}

			result := tx.Model(&model.ScheduledJob{}).
				Where("organization_id = ? AND contact_id = ? AND status = ?", orgID, contactID, model.JobStatusPending).
				Updates(map[string]interface{}{
					"status":         model.JobStatusFailed,
					"failure_reason": model.JobFailureOptedOut,
				})
			if result.Error != nil {
				return checkConstraintViolation(result.Error)
			}
			jobsCanceled = result.RowsAffected
			return nil
		})
	})
	observer.ObserveDbOperationDuration("opt_out", "contact", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return 0, opErr
	}

	if jobsCanceled > 0 {
		logger.FromContext(ctx).Info("Canceled pending jobs for opted-out contact",
			zap.String("contact_id", contactID),
			zap.Int64("jobs_canceled", jobsCanceled),
		)
	}
	return jobsCanceled, nil
}
