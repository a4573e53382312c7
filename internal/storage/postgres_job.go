package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
)

// ScheduleJob inserts a scheduled job idempotently on its natural identity
// (organization, contact, type, scheduled_for). A duplicate trigger returns
// the already-existing row instead of creating a second one. The boolean
// reports whether a new row was created.
func (r *PostgresRepo) ScheduleJob(ctx context.Context, job *model.ScheduledJob) (*model.ScheduledJob, bool, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, false, err
	}
	job.OrganizationID = orgID
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	job.ScheduledFor = job.ScheduledFor.UTC()

	created := false
	out := job

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "ScheduleJob", func() error {
		created = false
		insert := r.db.WithContext(ctx).Clauses(onConflictDoNothing()).Create(job)
		if insert.Error != nil {
			return checkConstraintViolation(insert.Error)
		}
		if insert.RowsAffected > 0 {
			created = true
			return nil
		}

		var existing model.ScheduledJob
		err := r.db.WithContext(ctx).
			Where("organization_id = ? AND contact_id = ? AND type = ? AND scheduled_for = ?",
				orgID, job.ContactID, job.Type, job.ScheduledFor).
			First(&existing).Error
		if err != nil {
			return checkConstraintViolation(err)
		}
		out = &existing
		return nil
	})
	observer.ObserveDbOperationDuration("schedule", "scheduled_job", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, false, opErr
	}
	if created {
		observer.IncJobScheduled(orgID, job.Type)
	}
	return out, created, nil
}

// ClaimJob flips a pending job to processing with a conditional update, so
// exactly one of any number of concurrent claimers wins. Losers get
// ErrAlreadyClaimed; a missing job gets ErrNotFound.
func (r *PostgresRepo) ClaimJob(ctx context.Context, jobID string) (*model.ScheduledJob, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var job model.ScheduledJob

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "ClaimJob", func() error {
		result := r.db.WithContext(ctx).Model(&model.ScheduledJob{}).
			Where("id = ? AND organization_id = ? AND status = ?", jobID, orgID, model.JobStatusPending).
			Update("status", model.JobStatusProcessing)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			err := r.db.WithContext(ctx).
				Where("id = ? AND organization_id = ?", jobID, orgID).
				First(&model.ScheduledJob{}).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("scheduled job %s", jobID)
			}
			if err != nil {
				return checkConstraintViolation(err)
			}
			return apperrors.ErrAlreadyClaimed
		}
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("id = ?", jobID).
			First(&job).Error)
	})
	observer.ObserveDbOperationDuration("claim", "scheduled_job", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	observer.IncJobClaimed(orgID)
	return &job, nil
}

// CompleteJob moves a processing job to completed.
func (r *PostgresRepo) CompleteJob(ctx context.Context, jobID string) error {
	return r.settleJob(ctx, jobID, model.JobStatusCompleted, "")
}

// FailJob moves a processing job to failed with a reason.
func (r *PostgresRepo) FailJob(ctx context.Context, jobID, reason string) error {
	return r.settleJob(ctx, jobID, model.JobStatusFailed, reason)
}

// settleJob finishes a processing job either way. Only the claimer's
// processing state can be settled; anything else is an invalid transition.
func (r *PostgresRepo) settleJob(ctx context.Context, jobID, status, reason string) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"status": status}
	if reason != "" {
		updates["failure_reason"] = reason
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "SettleJob", func() error {
		result := r.db.WithContext(ctx).Model(&model.ScheduledJob{}).
			Where("id = ? AND organization_id = ? AND status = ?", jobID, orgID, model.JobStatusProcessing).
			Updates(updates)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			err := r.db.WithContext(ctx).
				Where("id = ? AND organization_id = ?", jobID, orgID).
				First(&model.ScheduledJob{}).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("scheduled job %s", jobID)
			}
			if err != nil {
				return checkConstraintViolation(err)
			}
			return invalidStatef("job %s is not processing", jobID)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("settle", "scheduled_job", orgID, time.Since(startTime), opErr)
	return opErr
}

// SetJobQueueRef stores the external queue's job ID after dispatch.
func (r *PostgresRepo) SetJobQueueRef(ctx context.Context, jobID, queueJobID string) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "SetJobQueueRef", func() error {
		result := r.db.WithContext(ctx).Model(&model.ScheduledJob{}).
			Where("id = ? AND organization_id = ?", jobID, orgID).
			Update("bullmq_job_id", queueJobID)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return notFoundf("scheduled job %s", jobID)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("set_queue_ref", "scheduled_job", orgID, time.Since(startTime), opErr)
	return opErr
}

// ListDueJobs returns pending jobs due at or before the cutoff, oldest first.
func (r *PostgresRepo) ListDueJobs(ctx context.Context, before time.Time, limit int) ([]model.ScheduledJob, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var jobs []model.ScheduledJob
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListDueJobs", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ? AND status = ? AND scheduled_for <= ?", orgID, model.JobStatusPending, before.UTC()).
			Order("scheduled_for ASC").
			Limit(limit).
			Find(&jobs).Error)
	})
	observer.ObserveDbOperationDuration("list_due", "scheduled_job", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return jobs, nil
}

// ListDueJobsAllOrgs returns due pending jobs across all organizations for
// the background dispatch sweep.
func (r *PostgresRepo) ListDueJobsAllOrgs(ctx context.Context, before time.Time, limit int) ([]model.ScheduledJob, error) {
	var jobs []model.ScheduledJob
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListDueJobsAllOrgs", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("status = ? AND scheduled_for <= ?", model.JobStatusPending, before.UTC()).
			Order("scheduled_for ASC").
			Limit(limit).
			Find(&jobs).Error)
	})
	observer.ObserveDbOperationDuration("list_due_all", "scheduled_job", "all", time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return jobs, nil
}
