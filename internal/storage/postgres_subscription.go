package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// UpsertSubscription creates or replaces the organization's subscription row.
// One per organization.
func (r *PostgresRepo) UpsertSubscription(ctx context.Context, sub *model.Subscription) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}
	sub.OrganizationID = orgID
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "UpsertSubscription", func() error {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "organization_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"stripe_customer_id", "stripe_subscription_id", "plan_tier", "status",
				"trial_ends_at", "current_period_start", "current_period_end",
				"cancel_at_period_end", "updated_at",
			}),
		}).Create(sub).Error
		return checkConstraintViolation(err)
	})
	observer.ObserveDbOperationDuration("upsert", "subscription", orgID, time.Since(startTime), opErr)
	return opErr
}

// FindSubscription loads the organization's subscription.
func (r *PostgresRepo) FindSubscription(ctx context.Context) (*model.Subscription, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var sub model.Subscription
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindSubscription", func() error {
		if err := r.db.WithContext(ctx).
			Where("organization_id = ?", orgID).
			First(&sub).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "subscription", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &sub, nil
}

// TransitionSubscriptionStatus moves the subscription through its lifecycle
// under a row lock. Invalid transitions (including anything out of canceled)
// fail with ErrInvalidState. Period bounds are updated when supplied.
func (r *PostgresRepo) TransitionSubscriptionStatus(ctx context.Context, newStatus string, periodStart, periodEnd *time.Time) (*model.Subscription, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var sub model.Subscription

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "TransitionSubscriptionStatus", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.Clauses(lockForUpdate()).
				Where("organization_id = ?", orgID).
				First(&sub).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundf("subscription for organization %s", orgID)
				}
				return checkConstraintViolation(err)
			}

			if sub.Status == newStatus {
				// Billing-provider webhooks redeliver; same-status is a no-op.
				return nil
			}
			if !model.ValidSubscriptionTransition(sub.Status, newStatus) {
				return fmt.Errorf("%w: subscription transition %s -> %s", apperrors.ErrInvalidState, sub.Status, newStatus)
			}

			updates := map[string]interface{}{
				"status":     newStatus,
				"updated_at": utils.Now(),
			}
			if periodStart != nil {
				updates["current_period_start"] = *periodStart
			}
			if periodEnd != nil {
				updates["current_period_end"] = *periodEnd
			}
			if err := tx.Model(&model.Subscription{}).Where("id = ?", sub.ID).Updates(updates).Error; err != nil {
				return checkConstraintViolation(err)
			}

			sub.Status = newStatus
			if periodStart != nil {
				sub.CurrentPeriodStart = periodStart
			}
			if periodEnd != nil {
				sub.CurrentPeriodEnd = periodEnd
			}
			return nil
		})
	})
	observer.ObserveDbOperationDuration("transition", "subscription", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &sub, nil
}
