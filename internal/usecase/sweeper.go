package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/tenant"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// DispatchSweep publishes every due pending job across all organizations,
// re-covering publishes lost at schedule time. Each job is dispatched under
// its own tenant context. Returns how many jobs were published.
func (s *DataService) DispatchSweep(ctx context.Context, limit int) (int, error) {
	if s.dispatcher == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = 500
	}

	jobs, err := s.repo.ListDueJobsAllOrgs(ctx, utils.Now(), limit)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for i := range jobs {
		job := &jobs[i]
		jobCtx := tenant.WithOrgID(ctx, job.OrganizationID)

		queueID, err := s.dispatcher.PublishJob(jobCtx, job)
		if err != nil {
			logger.FromContext(jobCtx).Error("Sweep failed to dispatch job",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
			continue
		}
		if queueID != "" && queueID != job.BullmqJobID {
			if err := s.repo.SetJobQueueRef(jobCtx, job.ID, queueID); err != nil {
				logger.FromContext(jobCtx).Warn("Sweep failed to record queue ref",
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
			}
		}
		dispatched++
	}
	return dispatched, nil
}

// RunDispatchLoop runs DispatchSweep on an interval until the context is
// canceled.
func (s *DataService) RunDispatchLoop(ctx context.Context, interval time.Duration) {
	if s.dispatcher == nil {
		return
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Log.Info("Starting job dispatch loop", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Job dispatch loop stopped")
			return
		case <-ticker.C:
			n, err := s.DispatchSweep(ctx, 500)
			if err != nil {
				logger.Log.Error("Job dispatch sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Log.Info("Dispatched due jobs", zap.Int("count", n))
			}
		}
	}
}
