// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/takeru911/dagster/internal/models"
)

const (
	kindWorkspace = "workspace"
	kindAssets    = "assets"
)

// SnapshotStore implements Store using SQLite. Each snapshot kind occupies
// one row; saving replaces the previous snapshot of that kind.
type SnapshotStore struct {
	db   *sql.DB
	path string
}

// NewSnapshotStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SnapshotStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		kind TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		saved_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveWorkspace replaces the stored workspace snapshot.
func (s *SnapshotStore) SaveWorkspace(ctx context.Context, ws *models.Workspace) error {
	return s.save(ctx, kindWorkspace, ws)
}

// LoadWorkspace returns the stored workspace snapshot, or (nil, nil) when
// none has been saved.
func (s *SnapshotStore) LoadWorkspace(ctx context.Context) (*models.Workspace, error) {
	payload, err := s.load(ctx, kindWorkspace)
	if err != nil || payload == nil {
		return nil, err
	}
	var ws models.Workspace
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace snapshot: %w", err)
	}
	return &ws, nil
}

// SaveAssets replaces the stored asset catalog snapshot.
func (s *SnapshotStore) SaveAssets(ctx context.Context, catalog *models.AssetCatalog) error {
	return s.save(ctx, kindAssets, catalog)
}

// LoadAssets returns the stored asset catalog, or (nil, nil) when none has
// been saved.
func (s *SnapshotStore) LoadAssets(ctx context.Context) (*models.AssetCatalog, error) {
	payload, err := s.load(ctx, kindAssets)
	if err != nil || payload == nil {
		return nil, err
	}
	var catalog models.AssetCatalog
	if err := json.Unmarshal(payload, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset snapshot: %w", err)
	}
	return &catalog, nil
}

func (s *SnapshotStore) save(ctx context.Context, kind string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (kind, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(kind) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		kind, string(payload), time.Now().UTC(),
	)
	return err
}

func (s *SnapshotStore) load(ctx context.Context, kind string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE kind = ?`, kind,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// SizeBytes returns the on-disk footprint of the database, including the
// WAL sidecar files. Missing files contribute 0.
func (s *SnapshotStore) SizeBytes() int64 {
	var total int64
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
