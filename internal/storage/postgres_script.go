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

// UpsertScript creates or replaces the organization's script of the given
// type. One script per (organization, type).
func (r *PostgresRepo) UpsertScript(ctx context.Context, script *model.Script) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}
	script.OrganizationID = orgID
	if script.ID == "" {
		script.ID = uuid.NewString()
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "UpsertScript", func() error {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "ai_generated", "updated_at"}),
		}).Create(script).Error
		return checkConstraintViolation(err)
	})
	observer.ObserveDbOperationDuration("upsert", "script", orgID, time.Since(startTime), opErr)
	return opErr
}

// FindScriptByType loads the organization's script of a given type.
func (r *PostgresRepo) FindScriptByType(ctx context.Context, scriptType string) (*model.Script, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var script model.Script
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindScriptByType", func() error {
		if err := r.db.WithContext(ctx).
			Where("organization_id = ? AND type = ?", orgID, scriptType).
			First(&script).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "script", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &script, nil
}

// ListScripts returns all of the organization's scripts.
func (r *PostgresRepo) ListScripts(ctx context.Context) ([]model.Script, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var scripts []model.Script
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListScripts", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ?", orgID).
			Order("type ASC").
			Find(&scripts).Error)
	})
	observer.ObserveDbOperationDuration("list", "script", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return scripts, nil
}

// UpdateScriptContent rewrites a script's content inside one transaction with
// the free-tier meter. When the meter column still has units a free unit is
// consumed and nothing is billed; once exhausted the supplied charge is
// recorded and debited instead. Returns true when the update was billed.
func (r *PostgresRepo) UpdateScriptContent(ctx context.Context, scriptType, content string, aiGenerated bool, meterColumn string, charge *model.UsageCharge) (bool, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return false, err
	}

	billed := false

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "UpdateScriptContent", func() error {
		billed = false
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var script model.Script
			err := tx.Clauses(lockForUpdate()).
				Where("organization_id = ? AND type = ?", orgID, scriptType).
				First(&script).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundf("script %s", scriptType)
				}
				return checkConstraintViolation(err)
			}

			updates := map[string]interface{}{
				"content":      content,
				"ai_generated": aiGenerated,
				"updated_at":   utils.Now(),
			}
			if err := tx.Model(&model.Script{}).Where("id = ?", script.ID).Updates(updates).Error; err != nil {
				return checkConstraintViolation(err)
			}

			free, err := consumeMeterTx(tx, orgID, meterColumn)
			if err != nil {
				return err
			}
			if free {
				return nil
			}

			if charge == nil {
				return fmt.Errorf("%w: meter %s exhausted and no charge supplied", apperrors.ErrBadRequest, meterColumn)
			}
			if charge.Reference.ID == "" {
				charge.Reference = model.EntityRef{Kind: model.ReferenceKindScript, ID: script.ID}
			}
			if _, err := chargeUsageTx(tx, orgID, charge, fmt.Sprintf("script %s %s", scriptType, charge.Type)); err != nil {
				return err
			}
			billed = true
			return nil
		})
	})
	observer.ObserveDbOperationDuration("update_content", "script", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		if apperrors.IsInsufficientBalanceError(opErr) {
			observer.IncInsufficientBalance(orgID)
		}
		return false, opErr
	}
	return billed, nil
}
