package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/takeru911/dagster/internal/models"
	"github.com/takeru911/dagster/internal/storage"
)

// CachingSource decorates a Source, persisting every successful snapshot
// so the next process start can seed its indexes before upstream answers.
// Persistence failures are logged and do not affect the fetch result.
type CachingSource struct {
	inner  Source
	store  storage.Store
	logger *zap.Logger
}

// NewCachingSource wraps inner with snapshot persistence. A nil logger
// disables logging.
func NewCachingSource(inner Source, store storage.Store, logger *zap.Logger) *CachingSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingSource{inner: inner, store: store, logger: logger}
}

func (c *CachingSource) FetchWorkspace(ctx context.Context) models.WorkspaceResult {
	res := c.inner.FetchWorkspace(ctx)
	if res.Err == nil && res.Snapshot != nil {
		if err := c.store.SaveWorkspace(ctx, res.Snapshot); err != nil {
			c.logger.Warn("failed to persist workspace snapshot", zap.Error(err))
		}
	}
	return res
}

func (c *CachingSource) FetchAssets(ctx context.Context) models.AssetsResult {
	res := c.inner.FetchAssets(ctx)
	if res.Err == nil && res.Catalog != nil {
		if err := c.store.SaveAssets(ctx, res.Catalog); err != nil {
			c.logger.Warn("failed to persist asset snapshot", zap.Error(err))
		}
	}
	return res
}

// SeedFromStore loads cached snapshots from store and installs them as
// stale indexes on s. Absent snapshots are skipped; load failures are
// logged and skipped, never fatal.
func SeedFromStore(ctx context.Context, s *Session, store storage.Store, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws, err := store.LoadWorkspace(ctx)
	if err != nil {
		logger.Warn("failed to load cached workspace snapshot", zap.Error(err))
	}
	assets, err := store.LoadAssets(ctx)
	if err != nil {
		logger.Warn("failed to load cached asset snapshot", zap.Error(err))
	}
	if ws == nil && assets == nil {
		return
	}
	s.Seed(ws, assets)
}
