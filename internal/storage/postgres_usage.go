package storage

import (
	"context"
	"time"

	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
)

// ListUsageRecords returns usage rows since a timestamp, newest first.
func (r *PostgresRepo) ListUsageRecords(ctx context.Context, since time.Time, limit, offset int) ([]model.UsageRecord, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var records []model.UsageRecord
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListUsageRecords", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ? AND created_at >= ?", orgID, since).
			Order("created_at DESC").
			Limit(limit).Offset(offset).
			Find(&records).Error)
	})
	observer.ObserveDbOperationDuration("list", "usage_record", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return records, nil
}

// UsageTotals sums total cost per usage type since a timestamp.
func (r *PostgresRepo) UsageTotals(ctx context.Context, since time.Time) (map[string]float64, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	type row struct {
		Type  string
		Total float64
	}
	var rows []row

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "UsageTotals", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Model(&model.UsageRecord{}).
			Select("type, SUM(total_cost) AS total").
			Where("organization_id = ? AND created_at >= ?", orgID, since).
			Group("type").
			Scan(&rows).Error)
	})
	observer.ObserveDbOperationDuration("aggregate", "usage_record", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}

	totals := make(map[string]float64, len(rows))
	for _, r := range rows {
		totals[r.Type] = r.Total
	}
	return totals, nil
}
