package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/config"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
	"github.com/frontdeskhq/receptionist-core/internal/storage"
	"github.com/frontdeskhq/receptionist-core/internal/tenant"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

// TextExtractor pulls plain text out of a stored document or URL.
type TextExtractor interface {
	Extract(ctx context.Context, ks *model.KnowledgeSource) (string, error)
}

// IngestionPool runs knowledge-source extraction on a bounded worker pool so
// slow PDF or URL fetches never block the submitting request.
type IngestionPool struct {
	pool      *ants.Pool
	repo      storage.KnowledgeRepo
	extractor TextExtractor
	queued    atomic.Int64
}

// NewIngestionPool creates the worker pool.
func NewIngestionPool(cfg config.IngestionWorkerPoolConfig, repo storage.KnowledgeRepo, extractor TextExtractor) (*IngestionPool, error) {
	pool, err := ants.NewPool(cfg.PoolSize,
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(v interface{}) {
			logger.Log.Error("Ingestion worker panic", zap.Any("panic", v))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion pool: %w", err)
	}
	return &IngestionPool{pool: pool, repo: repo, extractor: extractor}, nil
}

// Submit queues a knowledge source for extraction. The task runs with a fresh
// context carrying the submitting organization, detached from the request's
// cancellation.
func (p *IngestionPool) Submit(ctx context.Context, ks *model.KnowledgeSource) error {
	orgID, err := tenant.FromContext(ctx)
	if err != nil {
		return err
	}
	requestID, _ := tenant.FromRequestIDContext(ctx)

	p.queued.Add(1)
	observer.SetIngestionQueueLength(int(p.queued.Load()))

	err = p.pool.Submit(func() {
		defer func() {
			p.queued.Add(-1)
			observer.SetIngestionQueueLength(int(p.queued.Load()))
		}()

		taskCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		taskCtx = tenant.WithOrgID(taskCtx, orgID)
		if requestID != "" {
			taskCtx = tenant.WithRequestID(taskCtx, requestID)
		}

		p.process(taskCtx, orgID, ks)
	})
	if err != nil {
		p.queued.Add(-1)
		observer.SetIngestionQueueLength(int(p.queued.Load()))
		return fmt.Errorf("failed to submit ingestion task: %w", err)
	}
	return nil
}

func (p *IngestionPool) process(ctx context.Context, orgID string, ks *model.KnowledgeSource) {
	text, err := p.extractor.Extract(ctx, ks)
	if err != nil {
		logger.FromContext(ctx).Error("Knowledge extraction failed",
			zap.String("knowledge_source_id", ks.ID),
			zap.String("type", ks.Type),
			zap.Error(err),
		)
		if setErr := p.repo.SetKnowledgeSourceResult(ctx, ks.ID, model.KnowledgeStatusFailed, ""); setErr != nil {
			logger.FromContext(ctx).Error("Failed to mark knowledge source failed",
				zap.String("knowledge_source_id", ks.ID),
				zap.Error(setErr),
			)
		}
		observer.IncIngestionTask(orgID, model.KnowledgeStatusFailed)
		return
	}

	if err := p.repo.SetKnowledgeSourceResult(ctx, ks.ID, model.KnowledgeStatusProcessed, text); err != nil {
		logger.FromContext(ctx).Error("Failed to store extraction result",
			zap.String("knowledge_source_id", ks.ID),
			zap.Error(err),
		)
		observer.IncIngestionTask(orgID, model.KnowledgeStatusFailed)
		return
	}

	logger.FromContext(ctx).Info("Knowledge source processed",
		zap.String("knowledge_source_id", ks.ID),
		zap.Int("extracted_chars", len(text)),
	)
	observer.IncIngestionTask(orgID, model.KnowledgeStatusProcessed)
}

// Release shuts down the pool, waiting for in-flight tasks.
func (p *IngestionPool) Release() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Release()
}
