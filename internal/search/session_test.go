package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/takeru911/dagster/internal/models"
)

// fakeSource serves canned snapshots and counts fetches. When block is set,
// fetches park on it until it is closed.
type fakeSource struct {
	mu             sync.Mutex
	workspaceCalls int
	assetCalls     int
	ws             *models.Workspace
	wsErr          *models.UpstreamError
	assets         *models.AssetCatalog
	assetsErr      *models.UpstreamError
	block          chan struct{}
}

func (f *fakeSource) FetchWorkspace(ctx context.Context) models.WorkspaceResult {
	f.mu.Lock()
	f.workspaceCalls++
	ws, wsErr, block := f.ws, f.wsErr, f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if wsErr != nil {
		return models.WorkspaceResult{Err: wsErr}
	}
	return models.WorkspaceResult{Snapshot: ws}
}

func (f *fakeSource) FetchAssets(ctx context.Context) models.AssetsResult {
	f.mu.Lock()
	f.assetCalls++
	assets, assetsErr, block := f.assets, f.assetsErr, f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if assetsErr != nil {
		return models.AssetsResult{Err: assetsErr}
	}
	return models.AssetsResult{Catalog: assets}
}

func (f *fakeSource) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workspaceCalls, f.assetCalls
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		ws: singleRepoWorkspace(),
		assets: &models.AssetCatalog{
			FetchedAt: time.Now(),
			Keys: []models.AssetKey{
				{Path: []string{"warehouse", "events", "daily"}},
			},
		},
	}
}

func settle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitSettled(ctx); err != nil {
		t.Fatalf("WaitSettled: %v", err)
	}
}

func newTestSession(t *testing.T, src Source) *Session {
	t.Helper()
	s := NewSession(src)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSession_BootstrapIsEager(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src)

	s.Start(context.Background())
	settle(t, s)

	wsCalls, assetCalls := src.counts()
	if wsCalls != 1 {
		t.Errorf("workspace fetches = %d, want 1", wsCalls)
	}
	if assetCalls != 0 {
		t.Errorf("asset fetches = %d, want 0 before any query", assetCalls)
	}

	results := s.Search("", false)
	if len(results) == 0 {
		t.Fatal("expected bootstrap records for empty query")
	}
	for _, r := range results {
		if r.Type == models.TypeAsset {
			t.Fatal("asset record appeared without a secondary fetch")
		}
	}
}

func TestSession_StartIsIdempotent(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src)

	s.Start(context.Background())
	s.Start(context.Background())
	s.Start(context.Background())
	settle(t, s)

	if wsCalls, _ := src.counts(); wsCalls != 1 {
		t.Errorf("workspace fetches = %d, want 1", wsCalls)
	}
}

func TestSession_SecondaryDeferredUntilNonEmptyQuery(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src)
	s.Start(context.Background())
	settle(t, s)

	for i := 0; i < 3; i++ {
		s.Search("", false)
	}
	if _, assetCalls := src.counts(); assetCalls != 0 {
		t.Fatalf("asset fetches = %d after empty queries, want 0", assetCalls)
	}

	s.Search("daily", false)
	settle(t, s)
	if _, assetCalls := src.counts(); assetCalls != 1 {
		t.Fatalf("asset fetches = %d after first non-empty query, want 1", assetCalls)
	}

	results := s.Search("warehouse", false)
	found := false
	for _, r := range results {
		if r.Type == models.TypeAsset {
			found = true
		}
	}
	if !found {
		t.Error("expected asset hit after secondary fetch settled")
	}
}

func TestSession_SecondaryIssuedOnce(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src)
	s.Start(context.Background())
	settle(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Search("daily", false)
		}()
	}
	wg.Wait()
	settle(t, s)

	if _, assetCalls := src.counts(); assetCalls != 1 {
		t.Errorf("asset fetches = %d under concurrent queries, want 1", assetCalls)
	}
}

func TestSession_ForceSecondaryWithEmptyQuery(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src)
	s.Start(context.Background())
	settle(t, s)

	s.Search("", true)
	settle(t, s)

	if _, assetCalls := src.counts(); assetCalls != 1 {
		t.Errorf("asset fetches = %d after forced query, want 1", assetCalls)
	}
}

func TestSession_FetchErrorDegradesToEmpty(t *testing.T) {
	src := newFakeSource()
	src.wsErr = &models.UpstreamError{Kind: models.ErrorUpstream, Message: "boom"}
	src.assetsErr = &models.UpstreamError{Kind: models.ErrorTransport, Message: "down"}
	s := newTestSession(t, src)
	s.Start(context.Background())
	settle(t, s)

	results := s.Search("daily", false)
	settle(t, s)
	if len(results) != 0 {
		t.Errorf("got %d results from failed fetches, want 0", len(results))
	}

	st := s.Status()
	if st.Bootstrap.State != string(SlotFailed) {
		t.Errorf("bootstrap state = %q, want failed", st.Bootstrap.State)
	}
	if st.Secondary.State != string(SlotFailed) {
		t.Errorf("secondary state = %q, want failed", st.Secondary.State)
	}

	// Queries keep working against the empty indexes.
	if got := s.Search("anything", false); len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestSession_ResultsBootstrapFirst(t *testing.T) {
	src := newFakeSource()
	// Both slots can match "daily": the workspace via daily_rollup, the
	// catalog via the asset key segment.
	s := newTestSession(t, src)
	s.Start(context.Background())
	settle(t, s)
	s.Search("daily", false)
	settle(t, s)

	results := s.Search("daily", false)
	if len(results) < 2 {
		t.Fatalf("got %d results, want hits from both indexes", len(results))
	}
	seenAsset := false
	for _, r := range results {
		if r.Type == models.TypeAsset {
			seenAsset = true
		} else if seenAsset {
			t.Fatalf("bootstrap record %q ordered after an asset record", r.Label)
		}
	}
	if !seenAsset {
		t.Fatal("expected at least one asset hit")
	}
}

func TestSession_LoadingWhileFetchInFlight(t *testing.T) {
	src := newFakeSource()
	src.block = make(chan struct{})
	s := newTestSession(t, src)

	s.Start(context.Background())
	if !s.Loading() {
		t.Error("Loading() = false during in-flight bootstrap")
	}

	// Search must not block on the in-flight fetch.
	if got := s.Search("daily", false); len(got) != 0 {
		t.Errorf("got %d results before any index exists, want 0", len(got))
	}

	close(src.block)
	settle(t, s)
	if s.Loading() {
		t.Error("Loading() = true after fetches settled")
	}
}

func TestSession_RefreshReplacesBootstrapOnly(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src)
	s.Start(context.Background())
	settle(t, s)

	renamed := singleRepoWorkspace()
	renamed.Locations[0].Repositories[0].Pipelines[0].Name = "weekly_rollup"
	src.mu.Lock()
	src.ws = renamed
	src.mu.Unlock()

	s.Refresh()
	settle(t, s)

	results := s.Search("weekly", false)
	settle(t, s)
	if len(results) == 0 || results[0].Label != "weekly_rollup" {
		t.Fatalf("refresh did not replace index contents: %+v", results)
	}

	wsCalls, assetCalls := src.counts()
	if wsCalls != 2 {
		t.Errorf("workspace fetches = %d, want 2", wsCalls)
	}
	// The query above was the first secondary trigger; Refresh itself must
	// not have issued one earlier.
	if assetCalls != 1 {
		t.Errorf("asset fetches = %d, want 1", assetCalls)
	}
}

func TestSession_SeedServesUntilLiveFetch(t *testing.T) {
	src := newFakeSource()
	cached := singleRepoWorkspace()
	cached.Locations[0].Repositories[0].Pipelines[0].Name = "cached_rollup"
	cached.FetchedAt = time.Now().Add(-time.Hour)

	s := newTestSession(t, src)
	s.Seed(cached, nil)

	results := s.Search("", false)
	if len(results) == 0 {
		t.Fatal("expected seeded records before Start")
	}
	st := s.Status()
	if !st.Bootstrap.Stale {
		t.Error("seeded bootstrap slot should be stale")
	}
	if st.Bootstrap.State != string(SlotNotFetched) {
		t.Errorf("seeded state = %q, want not_fetched", st.Bootstrap.State)
	}

	s.Start(context.Background())
	settle(t, s)

	st = s.Status()
	if st.Bootstrap.Stale {
		t.Error("bootstrap slot still stale after live fetch")
	}
	found := false
	for _, r := range s.Search("rollup", false) {
		if r.Label == "daily_rollup" {
			found = true
		}
		if r.Label == "cached_rollup" {
			t.Error("cached record survived the live fetch")
		}
	}
	if !found {
		t.Error("live records missing after fetch")
	}
}

func TestSession_WorkspaceSnapshotRetained(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src)

	if s.Workspace() != nil {
		t.Error("workspace should be nil before any fetch")
	}
	s.Start(context.Background())
	settle(t, s)

	ws := s.Workspace()
	if ws == nil {
		t.Fatal("workspace snapshot missing after bootstrap")
	}
	if ws.RepositoryCount() != 1 {
		t.Errorf("RepositoryCount() = %d, want 1", ws.RepositoryCount())
	}
}
