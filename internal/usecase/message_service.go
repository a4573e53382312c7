package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/validator"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

// SendMessageRequest is an outbound message submission.
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Content        string `json:"content" validate:"required"`
	AutomationType string `json:"automation_type,omitempty"`
}

// SendMessage records an outbound SMS with its sms_outbound charge. Consent
// and balance are enforced inside the repository transaction; a rejected
// send leaves no trace.
func (s *DataService) SendMessage(ctx context.Context, req SendMessageRequest) (*model.Message, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperrors.NewFatal(err, "invalid send message request")
	}

	msg := &model.Message{
		ConversationID: req.ConversationID,
		Direction:      model.DirectionOutbound,
		Content:        req.Content,
		AutomationType: req.AutomationType,
	}
	charge := model.NewUsageCharge(model.UsageTypeSMSOutbound, 1, s.pricing.SMSOutbound, model.EntityRef{})

	if err := s.repo.CreateMessage(ctx, msg, charge); err != nil {
		if apperrors.IsConsentViolationError(err) || apperrors.IsInsufficientBalanceError(err) {
			// Domain rejections propagate as-is for typed handling upstream.
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to create outbound message")
	}

	logger.FromContext(ctx).Info("Outbound message created",
		zap.String("message_id", msg.ID),
		zap.String("conversation_id", msg.ConversationID),
	)
	return msg, nil
}

// ReceiveMessageRequest is an inbound SMS from the messaging provider.
type ReceiveMessageRequest struct {
	FromPhone         string `json:"from_phone" validate:"required"`
	Content           string `json:"content" validate:"required"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
}

// ReceiveMessage records an inbound SMS, resolving (or creating) the contact
// by phone and the active SMS conversation, then appending the message with
// its sms_inbound charge. Inbound traffic is never consent-gated.
func (s *DataService) ReceiveMessage(ctx context.Context, req ReceiveMessageRequest) (*model.Message, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperrors.NewFatal(err, "invalid receive message request")
	}

	contact, created, err := s.repo.FindOrCreateContactByPhone(ctx, req.FromPhone, model.ContactSourceInboundText)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to resolve contact for inbound message")
	}
	if created {
		logger.FromContext(ctx).Info("Created contact from inbound text", zap.String("contact_id", contact.ID))
	}

	conv, _, err := s.repo.FindOrCreateConversation(ctx, contact.ID, model.ChannelSMS)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to resolve conversation for inbound message")
	}

	msg := &model.Message{
		ConversationID:  conv.ID,
		Direction:       model.DirectionInbound,
		Content:         req.Content,
		TelnyxMessageID: req.ProviderMessageID,
		Status:          model.MessageStatusReceived,
	}
	charge := model.NewUsageCharge(model.UsageTypeSMSInbound, 1, s.pricing.SMSInbound, model.EntityRef{})

	if err := s.repo.CreateMessage(ctx, msg, charge); err != nil {
		if apperrors.IsInsufficientBalanceError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to create inbound message")
	}
	return msg, nil
}

// UpdateMessageStatus applies a delivery-status callback.
func (s *DataService) UpdateMessageStatus(ctx context.Context, messageID, status, providerMessageID string) error {
	if err := validator.ValidateVar(status, "required,oneof=queued sent delivered failed received"); err != nil {
		return apperrors.NewFatal(err, "invalid message status %q", status)
	}
	if err := s.repo.UpdateMessageStatus(ctx, messageID, status, providerMessageID); err != nil {
		if apperrors.IsNotFoundError(err) {
			return err
		}
		return apperrors.NewRetryable(err, "failed to update message status")
	}
	return nil
}

// GetConversationMessages returns a page of a conversation's messages.
func (s *DataService) GetConversationMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	msgs, err := s.repo.ListMessagesByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list conversation messages")
	}
	return msgs, nil
}
