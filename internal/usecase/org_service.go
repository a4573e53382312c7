package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/storage"
	"github.com/frontdeskhq/receptionist-core/internal/validator"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

// CreateOrganization provisions a new tenant root.
func (s *DataService) CreateOrganization(ctx context.Context, org *model.Organization) error {
	if err := validator.Validate(org); err != nil {
		return apperrors.NewFatal(err, "invalid organization")
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		if apperrors.IsDuplicateError(err) {
			return err
		}
		return apperrors.NewRetryable(err, "failed to create organization")
	}

	logger.FromContext(ctx).Info("Organization created",
		zap.String("organization_id", org.ID),
		zap.String("plan_tier", org.PlanTier),
	)
	return nil
}

// GetOrganization loads the organization in context.
func (s *DataService) GetOrganization(ctx context.Context) (*model.Organization, error) {
	org, err := s.repo.FindOrganizationByID(ctx)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to load organization")
	}
	return org, nil
}

// UpdateOrganizationSettings applies a partial settings update.
func (s *DataService) UpdateOrganizationSettings(ctx context.Context, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return apperrors.NewFatal(apperrors.ErrBadRequest, "no settings to update")
	}
	if err := s.repo.UpdateOrganizationSettings(ctx, updates); err != nil {
		if apperrors.IsNotFoundError(err) {
			return err
		}
		return apperrors.NewRetryable(err, "failed to update organization settings")
	}
	return nil
}

// ProvisionTelecomAccount creates the organization's telecom account.
func (s *DataService) ProvisionTelecomAccount(ctx context.Context, account *model.TelecomAccount) error {
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if apperrors.IsDuplicateError(err) {
			return err
		}
		return apperrors.NewRetryable(err, "failed to create telecom account")
	}
	return nil
}

// GetDashboard returns the activity aggregates for the trailing window.
func (s *DataService) GetDashboard(ctx context.Context, since time.Time) (*storage.DashboardCounts, error) {
	counts, err := s.repo.DashboardCounts(ctx, sinceOrDefault(since))
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to aggregate dashboard counts")
	}
	return counts, nil
}
