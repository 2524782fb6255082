// Package storage persists upstream snapshots between runs.
package storage

import (
	"context"

	"github.com/takeru911/dagster/internal/models"
)

// Store saves and restores the most recent workspace and asset snapshots
// so a restart can serve results while the first live fetch is in flight.
// Load methods return (nil, nil) when no snapshot of that kind has been
// saved yet.
type Store interface {
	SaveWorkspace(ctx context.Context, ws *models.Workspace) error
	LoadWorkspace(ctx context.Context) (*models.Workspace, error)

	SaveAssets(ctx context.Context, catalog *models.AssetCatalog) error
	LoadAssets(ctx context.Context) (*models.AssetCatalog, error)

	// SizeBytes reports the on-disk footprint of the store.
	SizeBytes() int64

	Close() error
}
