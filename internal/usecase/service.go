package usecase

import (
	"context"
	"time"

	"github.com/frontdeskhq/receptionist-core/internal/config"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/storage"
)

// JobDispatcher pushes a scheduled job onto an external work queue and
// returns the queue-side ID. Implementations must tolerate a nil receiver.
type JobDispatcher interface {
	PublishJob(ctx context.Context, job *model.ScheduledJob) (string, error)
}

// DataService implements the tenant data operations on top of the repository.
// All domain rules that span a single aggregate live in the repository's
// transactional methods; this layer validates input, prices metered events,
// and coordinates cross-aggregate flows like automation scheduling.
type DataService struct {
	repo       storage.Repo
	pricing    config.PricingConfig
	dispatcher JobDispatcher
}

// NewDataService creates the service. dispatcher may be nil, in which case
// scheduled jobs are persisted but never pushed to a queue.
func NewDataService(repo storage.Repo, pricing config.PricingConfig, dispatcher JobDispatcher) *DataService {
	return &DataService{
		repo:       repo,
		pricing:    pricing,
		dispatcher: dispatcher,
	}
}

// billedMinutes converts a call duration to billable whole minutes, rounding
// up. Zero-duration calls bill nothing.
func billedMinutes(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return (durationSeconds + 59) / 60
}

// sinceOrDefault returns since, or the trailing 30 days when zero.
func sinceOrDefault(since time.Time) time.Time {
	if since.IsZero() {
		return time.Now().UTC().AddDate(0, 0, -30)
	}
	return since
}
