package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// CreateMessage appends a message to its conversation. The whole unit is one
// transaction: the consent check for outbound sends, the message insert, the
// conversation activity bump, and the usage record with its paired ledger
// debit. An outbound message to an opted-out contact fails with
// ErrConsentViolation and writes nothing.
func (r *PostgresRepo) CreateMessage(ctx context.Context, msg *model.Message, charge *model.UsageCharge) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}
	msg.OrganizationID = orgID
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Status == "" {
		if msg.Direction == model.DirectionInbound {
			msg.Status = model.MessageStatusReceived
		} else {
			msg.Status = model.MessageStatusQueued
		}
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = utils.Now()
	}
	if charge != nil && charge.Reference.ID == "" {
		charge.Reference = model.EntityRef{Kind: model.ReferenceKindMessage, ID: msg.ID}
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "CreateMessage", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var conv model.Conversation
			err := tx.Where("id = ? AND organization_id = ?", msg.ConversationID, orgID).
				First(&conv).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundf("conversation %s", msg.ConversationID)
				}
				return checkConstraintViolation(err)
			}

			if msg.Direction == model.DirectionOutbound {
				// Consent is checked under the contact's row lock so a
				// concurrent opt-out cannot slip between check and insert.
				var contact model.Contact
				err := tx.Clauses(lockForUpdate()).
					Where("id = ? AND organization_id = ?", conv.ContactID, orgID).
					First(&contact).Error
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return notFoundf("contact %s", conv.ContactID)
					}
					return checkConstraintViolation(err)
				}
				if contact.OptedOut {
					return fmt.Errorf("%w: contact %s opted out", apperrors.ErrConsentViolation, contact.ID)
				}
			}

			if err := tx.Create(msg).Error; err != nil {
				return checkConstraintViolation(err)
			}

			if err := touchConversationTx(tx, orgID, conv.ID, msg.CreatedAt); err != nil {
				return err
			}

			if _, err := chargeUsageTx(tx, orgID, charge, fmt.Sprintf("%s message %s", msg.Direction, msg.ID)); err != nil {
				return err
			}
			return nil
		})
	})
	observer.ObserveDbOperationDuration("create", "message", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		if apperrors.IsConsentViolationError(opErr) {
			observer.IncConsentViolation(orgID)
		}
		if apperrors.IsInsufficientBalanceError(opErr) {
			observer.IncInsufficientBalance(orgID)
		}
		return opErr
	}
	observer.IncMessagesCreated(orgID, msg.Direction)
	return nil
}

// FindMessageByID loads a message scoped to the organization in context.
func (r *PostgresRepo) FindMessageByID(ctx context.Context, id string) (*model.Message, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var msg model.Message
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindMessageByID", func() error {
		if err := r.db.WithContext(ctx).
			Where("id = ? AND organization_id = ?", id, orgID).
			First(&msg).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "message", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &msg, nil
}

// UpdateMessageStatus records a delivery-status callback from the messaging
// provider, tagging the provider's message ID the first time it is seen.
func (r *PostgresRepo) UpdateMessageStatus(ctx context.Context, id, status, providerMessageID string) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"status": status}
	if providerMessageID != "" {
		updates["telnyx_message_id"] = providerMessageID
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "UpdateMessageStatus", func() error {
		result := r.db.WithContext(ctx).Model(&model.Message{}).
			Where("id = ? AND organization_id = ?", id, orgID).
			Updates(updates)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return notFoundf("message %s", id)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("update_status", "message", orgID, time.Since(startTime), opErr)
	return opErr
}

// ListMessagesByConversation returns a conversation's messages oldest first.
func (r *PostgresRepo) ListMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var msgs []model.Message
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListMessagesByConversation", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("conversation_id = ? AND organization_id = ?", conversationID, orgID).
			Order("created_at ASC").
			Limit(limit).Offset(offset).
			Find(&msgs).Error)
	})
	observer.ObserveDbOperationDuration("list", "message", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return msgs, nil
}
