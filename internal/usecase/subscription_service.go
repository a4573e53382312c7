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

// UpsertSubscription creates or replaces the organization's subscription
// record, driven by billing-provider webhooks.
func (s *DataService) UpsertSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := validator.Validate(sub); err != nil {
		return apperrors.NewFatal(err, "invalid subscription")
	}
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		return apperrors.NewRetryable(err, "failed to upsert subscription")
	}
	return nil
}

// GetSubscription loads the organization's subscription.
func (s *DataService) GetSubscription(ctx context.Context) (*model.Subscription, error) {
	sub, err := s.repo.FindSubscription(ctx)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to load subscription")
	}
	return sub, nil
}

// TransitionSubscription moves the subscription to a new status, enforcing
// the lifecycle (canceled is terminal). Redelivered webhooks carrying the
// current status are no-ops.
func (s *DataService) TransitionSubscription(ctx context.Context, newStatus string, periodStart, periodEnd *time.Time) (*model.Subscription, error) {
	if err := validator.ValidateVar(newStatus, "required,oneof=trialing active past_due canceled"); err != nil {
		return nil, apperrors.NewFatal(err, "invalid subscription status %q", newStatus)
	}

	sub, err := s.repo.TransitionSubscriptionStatus(ctx, newStatus, periodStart, periodEnd)
	if err != nil {
		if apperrors.IsInvalidStateError(err) || apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to transition subscription")
	}

	logger.FromContext(ctx).Info("Subscription transitioned",
		zap.String("subscription_id", sub.ID),
		zap.String("status", sub.Status),
	)
	return sub, nil
}
