package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/config"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/tenant"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

func init() {
	_ = logger.Initialize("error")
}

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		SMSOutbound:    0.015,
		SMSInbound:     0.0075,
		VoicePerMinute: 0.10,
		PhoneNumber:    2.00,
		AIEdit:         0.50,
		AIRegen:        1.00,
	}
}

func serviceCtx() context.Context {
	return tenant.WithOrgID(context.Background(), "org-svc-test")
}

func TestSendMessagePricesOutbound(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(msg *model.Message) bool {
		return msg.Direction == model.DirectionOutbound && msg.Content == "hello"
	}), mock.MatchedBy(func(charge *model.UsageCharge) bool {
		return charge.Type == model.UsageTypeSMSOutbound &&
			charge.Quantity == 1 &&
			charge.TotalCost == 0.015
	})).Return(nil)

	msg, err := svc.SendMessage(serviceCtx(), SendMessageRequest{
		ConversationID: "conv-1",
		Content:        "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DirectionOutbound, msg.Direction)
	repo.AssertExpectations(t)
}

func TestSendMessageConsentViolationPropagates(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	repo.On("CreateMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.ErrConsentViolation)

	_, err := svc.SendMessage(serviceCtx(), SendMessageRequest{
		ConversationID: "conv-1",
		Content:        "hello",
	})
	assert.ErrorIs(t, err, apperrors.ErrConsentViolation)
	assert.False(t, apperrors.IsRetryable(err), "consent violations must not look retryable")
}

func TestSendMessageValidation(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	_, err := svc.SendMessage(serviceCtx(), SendMessageRequest{ConversationID: "", Content: ""})
	assert.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestReceiveMessageResolvesContactAndConversation(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	contact := &model.Contact{ID: "contact-1", Phone: "+15550001111"}
	conv := &model.Conversation{ID: "conv-1", ContactID: "contact-1", Channel: model.ChannelSMS}

	repo.On("FindOrCreateContactByPhone", mock.Anything, "+15550001111", model.ContactSourceInboundText).
		Return(contact, true, nil)
	repo.On("FindOrCreateConversation", mock.Anything, "contact-1", model.ChannelSMS).
		Return(conv, false, nil)
	repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(msg *model.Message) bool {
		return msg.Direction == model.DirectionInbound && msg.ConversationID == "conv-1"
	}), mock.MatchedBy(func(charge *model.UsageCharge) bool {
		return charge.Type == model.UsageTypeSMSInbound && charge.TotalCost == 0.0075
	})).Return(nil)

	msg, err := svc.ReceiveMessage(serviceCtx(), ReceiveMessageRequest{
		FromPhone: "+15550001111",
		Content:   "hi, are you open?",
	})
	require.NoError(t, err)
	assert.Equal(t, model.MessageStatusReceived, msg.Status)
	repo.AssertExpectations(t)
}

func TestUpdateMessageStatusRejectsUnknownStatus(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	err := svc.UpdateMessageStatus(serviceCtx(), "msg-1", "bogus", "")
	assert.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}
