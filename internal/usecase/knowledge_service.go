package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/validator"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

// SubmitKnowledgeSourceRequest submits a document, URL or raw text for
// ingestion.
type SubmitKnowledgeSourceRequest struct {
	Type             string `json:"type" validate:"required,oneof=pdf url text"`
	Title            string `json:"title" validate:"required"`
	OriginalFilename string `json:"original_filename,omitempty"`
	OriginalURL      string `json:"original_url,omitempty"`
	StoragePath      string `json:"storage_path,omitempty"`
	// RawText carries the content for the text type, which needs no
	// extraction step.
	RawText string `json:"raw_text,omitempty"`
}

// SubmitKnowledgeSource creates a pending knowledge source and, when an
// ingestion pool is attached, queues it for extraction. Raw text sources are
// processed inline.
func (s *DataService) SubmitKnowledgeSource(ctx context.Context, req SubmitKnowledgeSourceRequest, pool *IngestionPool) (*model.KnowledgeSource, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperrors.NewFatal(err, "invalid knowledge source")
	}
	if req.Type == model.KnowledgeSourceTypeURL && req.OriginalURL == "" {
		return nil, apperrors.NewFatal(apperrors.ErrBadRequest, "url source requires original_url")
	}
	if req.Type == model.KnowledgeSourceTypeText && req.RawText == "" {
		return nil, apperrors.NewFatal(apperrors.ErrBadRequest, "text source requires raw_text")
	}

	ks := &model.KnowledgeSource{
		Type:             req.Type,
		Title:            req.Title,
		OriginalFilename: req.OriginalFilename,
		OriginalURL:      req.OriginalURL,
		StoragePath:      req.StoragePath,
		Status:           model.KnowledgeStatusPending,
	}
	if err := s.repo.CreateKnowledgeSource(ctx, ks); err != nil {
		return nil, apperrors.NewRetryable(err, "failed to create knowledge source")
	}

	if req.Type == model.KnowledgeSourceTypeText {
		if err := s.repo.SetKnowledgeSourceResult(ctx, ks.ID, model.KnowledgeStatusProcessed, req.RawText); err != nil {
			return nil, apperrors.NewRetryable(err, "failed to store extracted text")
		}
		ks.Status = model.KnowledgeStatusProcessed
		ks.ExtractedText = req.RawText
		return ks, nil
	}

	if pool != nil {
		if err := pool.Submit(ctx, ks); err != nil {
			logger.FromContext(ctx).Error("Failed to queue knowledge source for ingestion",
				zap.String("knowledge_source_id", ks.ID),
				zap.Error(err),
			)
		}
	}
	return ks, nil
}

// GetKnowledgeSource loads a single knowledge source.
func (s *DataService) GetKnowledgeSource(ctx context.Context, id string) (*model.KnowledgeSource, error) {
	ks, err := s.repo.FindKnowledgeSourceByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to load knowledge source")
	}
	return ks, nil
}

// GetKnowledgeSources returns all of the organization's knowledge sources.
func (s *DataService) GetKnowledgeSources(ctx context.Context) ([]model.KnowledgeSource, error) {
	sources, err := s.repo.ListKnowledgeSources(ctx)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list knowledge sources")
	}
	return sources, nil
}
