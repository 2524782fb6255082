package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/takeru911/dagster/internal/models"
)

func testWorkspace() *models.Workspace {
	return &models.Workspace{
		FetchedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Locations: []models.Location{
			{
				Name: "prod",
				Repositories: []models.Repository{{
					Name:         "analytics",
					LocationName: "prod",
					Pipelines:    []models.Pipeline{{Name: "daily_rollup", IsJob: true}},
					Schedules:    []models.ScheduleSummary{{Name: "nightly", CronSchedule: "0 0 * * *"}},
				}},
			},
		},
	}
}

func TestSnapshotStore_WorkspaceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	got, err := store.LoadWorkspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("empty store returned a workspace: %+v", got)
	}

	ws := testWorkspace()
	if err := store.SaveWorkspace(ctx, ws); err != nil {
		t.Fatal(err)
	}

	got, err = store.LoadWorkspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("saved workspace not found")
	}
	if got.RepositoryCount() != 1 {
		t.Errorf("RepositoryCount() = %d, want 1", got.RepositoryCount())
	}
	if !got.FetchedAt.Equal(ws.FetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, ws.FetchedAt)
	}
	repo := got.FindRepository(models.RepoAddress{RepoName: "analytics", LocationName: "prod"})
	if repo == nil || !repo.HasJob("daily_rollup") {
		t.Errorf("repository content lost in round trip: %+v", repo)
	}
}

func TestSnapshotStore_SaveReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.SaveWorkspace(ctx, testWorkspace()); err != nil {
		t.Fatal(err)
	}
	updated := testWorkspace()
	updated.Locations[0].Repositories = append(updated.Locations[0].Repositories,
		models.Repository{Name: "marketing", LocationName: "prod"})
	if err := store.SaveWorkspace(ctx, updated); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadWorkspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.RepositoryCount() != 2 {
		t.Errorf("RepositoryCount() = %d, want 2 after overwrite", got.RepositoryCount())
	}
}

func TestSnapshotStore_AssetsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	got, err := store.LoadAssets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("empty store returned a catalog: %+v", got)
	}

	catalog := &models.AssetCatalog{
		FetchedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Keys: []models.AssetKey{
			{Path: []string{"warehouse", "users"}},
			{Path: []string{"warehouse", "orders"}},
		},
	}
	if err := store.SaveAssets(ctx, catalog); err != nil {
		t.Fatal(err)
	}

	got, err = store.LoadAssets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("saved catalog not found")
	}
	if len(got.Keys) != 2 {
		t.Fatalf("len(Keys) = %d, want 2", len(got.Keys))
	}
	if got.Keys[0].Path[1] != "users" {
		t.Errorf("Keys[0] = %+v", got.Keys[0])
	}
}

func TestSnapshotStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.SaveWorkspace(ctx, testWorkspace()); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.LoadWorkspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.RepositoryCount() != 1 {
		t.Errorf("snapshot lost across reopen: %+v", got)
	}
}

func TestSnapshotStore_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "snapshots.db")
	store, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatalf("NewSnapshotStore with missing parents: %v", err)
	}
	defer store.Close()
}

func TestSnapshotStore_SizeBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := NewSnapshotStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.SaveWorkspace(context.Background(), testWorkspace()); err != nil {
		t.Fatal(err)
	}
	if got := store.SizeBytes(); got <= 0 {
		t.Errorf("SizeBytes() = %d, want > 0", got)
	}
}
