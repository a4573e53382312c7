package storage

import (
	"context"
	"time"

	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
)

// DashboardCounts aggregates message, call and appointment counts plus total
// usage cost since a timestamp, for the dashboard read model.
func (r *PostgresRepo) DashboardCounts(ctx context.Context, since time.Time) (*DashboardCounts, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var counts DashboardCounts

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "DashboardCounts", func() error {
		db := r.db.WithContext(ctx)

		if err := db.Model(&model.Message{}).
			Where("organization_id = ? AND created_at >= ?", orgID, since).
			Count(&counts.Messages).Error; err != nil {
			return checkConstraintViolation(err)
		}
		if err := db.Model(&model.Call{}).
			Where("organization_id = ? AND created_at >= ?", orgID, since).
			Count(&counts.Calls).Error; err != nil {
			return checkConstraintViolation(err)
		}
		if err := db.Model(&model.Appointment{}).
			Where("organization_id = ? AND created_at >= ?", orgID, since).
			Count(&counts.Appointments).Error; err != nil {
			return checkConstraintViolation(err)
		}

		var total *float64
		if err := db.Model(&model.UsageRecord{}).
			Select("SUM(total_cost)").
			Where("organization_id = ? AND created_at >= ?", orgID, since).
			Scan(&total).Error; err != nil {
			return checkConstraintViolation(err)
		}
		if total != nil {
			counts.UsageCost = *total
		}
		return nil
	})
	observer.ObserveDbOperationDuration("aggregate", "dashboard", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &counts, nil
}
