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

// ScheduleJob persists a scheduled job idempotently and, when a dispatcher is
// wired, pushes it to the work queue recording the queue-side ID. A duplicate
// trigger returns the existing job without re-dispatching. The boolean
// reports whether the job was newly created.
func (s *DataService) ScheduleJob(ctx context.Context, job *model.ScheduledJob) (*model.ScheduledJob, bool, error) {
	if err := validator.Validate(job); err != nil {
		return nil, false, apperrors.NewFatal(err, "invalid scheduled job")
	}

	job, created, err := s.repo.ScheduleJob(ctx, job)
	if err != nil {
		return nil, false, apperrors.NewRetryable(err, "failed to schedule job")
	}
	if !created {
		logger.FromContext(ctx).Debug("Job already scheduled",
			zap.String("job_id", job.ID),
			zap.String("job_type", job.Type),
		)
		return job, false, nil
	}

	if s.dispatcher != nil {
		queueID, err := s.dispatcher.PublishJob(ctx, job)
		if err != nil {
			// The row is the source of truth; a failed publish is retried by
			// the due-job sweep, not surfaced to the caller.
			logger.FromContext(ctx).Error("Failed to dispatch scheduled job",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
		} else if queueID != "" {
			if err := s.repo.SetJobQueueRef(ctx, job.ID, queueID); err != nil {
				logger.FromContext(ctx).Warn("Failed to record queue ref",
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
			}
			job.BullmqJobID = queueID
		}
	}

	return job, true, nil
}

// ClaimJob atomically claims a pending job for processing. Exactly one
// concurrent claimer succeeds; the rest get ErrAlreadyClaimed.
func (s *DataService) ClaimJob(ctx context.Context, jobID string) (*model.ScheduledJob, error) {
	job, err := s.repo.ClaimJob(ctx, jobID)
	if err != nil {
		if apperrors.IsAlreadyClaimedError(err) || apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to claim job")
	}
	return job, nil
}

// CompleteJob settles a claimed job as completed.
func (s *DataService) CompleteJob(ctx context.Context, jobID string) error {
	if err := s.repo.CompleteJob(ctx, jobID); err != nil {
		if apperrors.IsInvalidStateError(err) || apperrors.IsNotFoundError(err) {
			return err
		}
		return apperrors.NewRetryable(err, "failed to complete job")
	}
	return nil
}

// FailJob settles a claimed job as failed with a reason.
func (s *DataService) FailJob(ctx context.Context, jobID, reason string) error {
	if err := s.repo.FailJob(ctx, jobID, reason); err != nil {
		if apperrors.IsInvalidStateError(err) || apperrors.IsNotFoundError(err) {
			return err
		}
		return apperrors.NewRetryable(err, "failed to fail job")
	}
	return nil
}

// DispatchDueJobs sweeps pending jobs due by now and re-publishes them,
// covering dispatches lost at schedule time. Returns how many were published.
func (s *DataService) DispatchDueJobs(ctx context.Context, limit int) (int, error) {
	if s.dispatcher == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = 100
	}

	jobs, err := s.repo.ListDueJobs(ctx, utils.Now(), limit)
	if err != nil {
		return 0, apperrors.NewRetryable(err, "failed to list due jobs")
	}

	dispatched := 0
	for i := range jobs {
		job := &jobs[i]
		queueID, err := s.dispatcher.PublishJob(ctx, job)
		if err != nil {
			logger.FromContext(ctx).Error("Failed to re-dispatch due job",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
			continue
		}
		if queueID != "" && queueID != job.BullmqJobID {
			if err := s.repo.SetJobQueueRef(ctx, job.ID, queueID); err != nil {
				logger.FromContext(ctx).Warn("Failed to record queue ref",
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
			}
		}
		dispatched++
	}
	return dispatched, nil
}

// ScheduleDripCampaign queues the full drip sequence for a contact, one job
// per drip day. Each job is idempotent on its identity, so re-triggering a
// campaign never duplicates sends.
func (s *DataService) ScheduleDripCampaign(ctx context.Context, contactID string, start time.Time) ([]*model.ScheduledJob, error) {
	org, err := s.repo.FindOrganizationByID(ctx)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to load organization")
	}
	if !org.DripEnabled {
		return nil, nil
	}

	contact, err := s.repo.FindContactByID(ctx, contactID)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to load contact")
	}
	if contact.OptedOut {
		return nil, apperrors.NewFatal(apperrors.ErrConsentViolation, "contact %s opted out", contactID)
	}

	dripDays := []int{1, 7, 21, 30}
	scheduled := make([]*model.ScheduledJob, 0, len(dripDays))
	for _, day := range dripDays {
		job := model.NewScheduledJob(org.ID, contactID, model.JobTypeDripCampaign, start.AddDate(0, 0, day))
		job, _, err := s.ScheduleJob(ctx, job)
		if err != nil {
			return scheduled, err
		}
		scheduled = append(scheduled, job)
	}
	return scheduled, nil
}
