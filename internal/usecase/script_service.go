package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/storage"
	"github.com/frontdeskhq/receptionist-core/internal/validator"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

// SaveScript creates or replaces an organization's script of a type without
// touching the free-tier meters, used for initial onboarding content.
func (s *DataService) SaveScript(ctx context.Context, scriptType, content string, aiGenerated bool) (*model.Script, error) {
	script := &model.Script{
		Type:        scriptType,
		Content:     content,
		AIGenerated: aiGenerated,
	}
	if err := validator.Validate(script); err != nil {
		return nil, apperrors.NewFatal(err, "invalid script")
	}
	if err := s.repo.UpsertScript(ctx, script); err != nil {
		return nil, apperrors.NewRetryable(err, "failed to save script")
	}
	return script, nil
}

// EditScript rewrites a script's content as a user edit. The first
// free_edits_remaining edits are free; after that each edit bills an ai_edit
// charge in the same transaction as the content update.
func (s *DataService) EditScript(ctx context.Context, scriptType, content string) (bool, error) {
	return s.updateScript(ctx, scriptType, content, false, storage.MeterFreeEdits, model.UsageTypeAIEdit, s.pricing.AIEdit)
}

// RegenerateScript replaces a script with AI-regenerated content. The first
// free_regens_remaining regenerations are free; after that each one bills an
// ai_regen charge.
func (s *DataService) RegenerateScript(ctx context.Context, scriptType, content string) (bool, error) {
	return s.updateScript(ctx, scriptType, content, true, storage.MeterFreeRegens, model.UsageTypeAIRegen, s.pricing.AIRegen)
}

func (s *DataService) updateScript(ctx context.Context, scriptType, content string, aiGenerated bool, meterColumn, usageType string, unitCost float64) (bool, error) {
	if err := validator.ValidateVar(scriptType, "required,oneof=voice_greeting voice_booking voice_transfer missed_call_text drip_day_1 drip_day_7 drip_day_21 drip_day_30"); err != nil {
		return false, apperrors.NewFatal(err, "invalid script type %q", scriptType)
	}
	if err := validator.ValidateVar(content, "required"); err != nil {
		return false, apperrors.NewFatal(err, "script content is required")
	}

	charge := model.NewUsageCharge(usageType, 1, unitCost, model.EntityRef{})
	billed, err := s.repo.UpdateScriptContent(ctx, scriptType, content, aiGenerated, meterColumn, charge)
	if err != nil {
		if apperrors.IsNotFoundError(err) || apperrors.IsInsufficientBalanceError(err) {
			return false, err
		}
		return false, apperrors.NewRetryable(err, "failed to update script")
	}

	logger.FromContext(ctx).Info("Script updated",
		zap.String("script_type", scriptType),
		zap.Bool("ai_generated", aiGenerated),
		zap.Bool("billed", billed),
	)
	return billed, nil
}

// GetScript loads the organization's script of a type.
func (s *DataService) GetScript(ctx context.Context, scriptType string) (*model.Script, error) {
	script, err := s.repo.FindScriptByType(ctx, scriptType)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to load script")
	}
	return script, nil
}

// GetScripts returns all of the organization's scripts.
func (s *DataService) GetScripts(ctx context.Context) ([]model.Script, error) {
	scripts, err := s.repo.ListScripts(ctx)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list scripts")
	}
	return scripts, nil
}
