package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
)

// CreateKnowledgeSource inserts a pending knowledge source.
func (r *PostgresRepo) CreateKnowledgeSource(ctx context.Context, ks *model.KnowledgeSource) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}
	ks.OrganizationID = orgID
	if ks.ID == "" {
		ks.ID = uuid.NewString()
	}
	if ks.Status == "" {
		ks.Status = model.KnowledgeStatusPending
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "CreateKnowledgeSource", func() error {
		if err := r.db.WithContext(ctx).Create(ks).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("create", "knowledge_source", orgID, time.Since(startTime), opErr)
	return opErr
}

// SetKnowledgeSourceResult records the outcome of ingestion: processed with
// extracted text, or failed.
func (r *PostgresRepo) SetKnowledgeSourceResult(ctx context.Context, id, status, extractedText string) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"status": status}
	if extractedText != "" {
		updates["extracted_text"] = extractedText
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "SetKnowledgeSourceResult", func() error {
		result := r.db.WithContext(ctx).Model(&model.KnowledgeSource{}).
			Where("id = ? AND organization_id = ?", id, orgID).
			Updates(updates)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return notFoundf("knowledge source %s", id)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("set_result", "knowledge_source", orgID, time.Since(startTime), opErr)
	return opErr
}

// FindKnowledgeSourceByID loads a knowledge source scoped to the organization.
func (r *PostgresRepo) FindKnowledgeSourceByID(ctx context.Context, id string) (*model.KnowledgeSource, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var ks model.KnowledgeSource
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindKnowledgeSourceByID", func() error {
		if err := r.db.WithContext(ctx).
			Where("id = ? AND organization_id = ?", id, orgID).
			First(&ks).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "knowledge_source", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &ks, nil
}

// ListKnowledgeSources returns all of the organization's knowledge sources,
// newest first.
func (r *PostgresRepo) ListKnowledgeSources(ctx context.Context) ([]model.KnowledgeSource, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var sources []model.KnowledgeSource
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListKnowledgeSources", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ?", orgID).
			Order("created_at DESC").
			Find(&sources).Error)
	})
	observer.ObserveDbOperationDuration("list", "knowledge_source", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return sources, nil
}
