package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/storage"
)

func TestEditScriptConsumesEditMeter(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	repo.On("UpdateScriptContent", mock.Anything, model.ScriptTypeVoiceGreeting, "new greeting", false,
		storage.MeterFreeEdits, mock.MatchedBy(func(charge *model.UsageCharge) bool {
			return charge.Type == model.UsageTypeAIEdit && charge.TotalCost == 0.50
		})).Return(false, nil)

	billed, err := svc.EditScript(serviceCtx(), model.ScriptTypeVoiceGreeting, "new greeting")
	require.NoError(t, err)
	assert.False(t, billed)
	repo.AssertExpectations(t)
}

func TestRegenerateScriptBillsAfterMeterExhausted(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	repo.On("UpdateScriptContent", mock.Anything, model.ScriptTypeVoiceBooking, "regenerated", true,
		storage.MeterFreeRegens, mock.MatchedBy(func(charge *model.UsageCharge) bool {
			return charge.Type == model.UsageTypeAIRegen && charge.TotalCost == 1.00
		})).Return(true, nil)

	billed, err := svc.RegenerateScript(serviceCtx(), model.ScriptTypeVoiceBooking, "regenerated")
	require.NoError(t, err)
	assert.True(t, billed)
}

func TestEditScriptRejectsUnknownType(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	_, err := svc.EditScript(serviceCtx(), "pager_duty_runbook", "content")
	assert.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	repo.AssertNotCalled(t, "UpdateScriptContent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditScriptInsufficientBalancePropagates(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	repo.On("UpdateScriptContent", mock.Anything, model.ScriptTypeVoiceGreeting, "content", false,
		storage.MeterFreeEdits, mock.Anything).Return(false, apperrors.ErrInsufficientBalance)

	_, err := svc.EditScript(serviceCtx(), model.ScriptTypeVoiceGreeting, "content")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.False(t, apperrors.IsRetryable(err))
}
