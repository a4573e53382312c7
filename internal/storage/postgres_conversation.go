package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// FindOrCreateConversation returns the contact's active conversation on the
// given channel, creating one when none exists. Returns the conversation and
// whether it was created.
func (r *PostgresRepo) FindOrCreateConversation(ctx context.Context, contactID, channel string) (*model.Conversation, bool, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, false, err
	}

	var conv model.Conversation
	created := false

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "FindOrCreateConversation", func() error {
		created = false
		err := r.db.WithContext(ctx).
			Where("organization_id = ? AND contact_id = ? AND channel = ? AND status = ?",
				orgID, contactID, channel, model.ConversationStatusActive).
			Order("created_at DESC").
			First(&conv).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return checkConstraintViolation(err)
		}

		now := utils.Now()
		conv = model.Conversation{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			ContactID:      contactID,
			Channel:        channel,
			Status:         model.ConversationStatusActive,
			LastActivityAt: &now,
			CreatedAt:      now,
		}
		if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
			return checkConstraintViolation(err)
		}
		created = true
		return nil
	})
	observer.ObserveDbOperationDuration("find_or_create", "conversation", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, false, opErr
	}
	return &conv, created, nil
}

// FindConversationByID loads a conversation scoped to the organization in
// context.
func (r *PostgresRepo) FindConversationByID(ctx context.Context, id string) (*model.Conversation, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var conv model.Conversation
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindConversationByID", func() error {
		if err := r.db.WithContext(ctx).
			Where("id = ? AND organization_id = ?", id, orgID).
			First(&conv).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "conversation", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &conv, nil
}

// ListConversations returns the organization's conversations ordered by most
// recent activity. An empty status returns all statuses.
func (r *PostgresRepo) ListConversations(ctx context.Context, status string, limit, offset int) ([]model.Conversation, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var convs []model.Conversation
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListConversations", func() error {
		query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
		if status != "" {
			query = query.Where("status = ?", status)
		}
		return checkConstraintViolation(query.
			Order("last_activity_at DESC NULLS LAST").
			Limit(limit).Offset(offset).
			Find(&convs).Error)
	})
	observer.ObserveDbOperationDuration("list", "conversation", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return convs, nil
}

// ArchiveConversation marks a conversation archived.
func (r *PostgresRepo) ArchiveConversation(ctx context.Context, id string) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "ArchiveConversation", func() error {
		result := r.db.WithContext(ctx).Model(&model.Conversation{}).
			Where("id = ? AND organization_id = ?", id, orgID).
			Update("status", model.ConversationStatusArchived)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return notFoundf("conversation %s", id)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("archive", "conversation", orgID, time.Since(startTime), opErr)
	return opErr
}
