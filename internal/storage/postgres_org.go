package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// CreateOrganization inserts the tenant root row. Unlike every other write,
// the organization ID comes from the entity itself, not the context: the row
// being created is what future contexts will reference.
func (r *PostgresRepo) CreateOrganization(ctx context.Context, org *model.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "CreateOrganization", func() error {
		if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("create", "organization", org.ID, time.Since(startTime), opErr)
	return opErr
}

// FindOrganizationByID loads the tenant row for the organization in context.
func (r *PostgresRepo) FindOrganizationByID(ctx context.Context) (*model.Organization, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var org model.Organization
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindOrganizationByID", func() error {
		if err := r.db.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "organization", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &org, nil
}

// UpdateOrganizationSettings applies a partial settings update to the tenant
// row. Callers pass column-name keys.
func (r *PostgresRepo) UpdateOrganizationSettings(ctx context.Context, updates map[string]interface{}) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}

	updates["updated_at"] = utils.Now()

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "UpdateOrganizationSettings", func() error {
		result := r.db.WithContext(ctx).Model(&model.Organization{}).Where("id = ?", orgID).Updates(updates)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return notFoundf("organization %s", orgID)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("update", "organization", orgID, time.Since(startTime), opErr)
	return opErr
}
