package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/takeru911/dagster/internal/index"
	"github.com/takeru911/dagster/internal/metrics"
	"github.com/takeru911/dagster/internal/models"
)

// Source is the upstream the session fetches snapshots from. Fetches
// report failure inside the result, not as a Go error: a session degrades
// to empty indexes rather than surfacing fetch problems to callers.
type Source interface {
	FetchWorkspace(ctx context.Context) models.WorkspaceResult
	FetchAssets(ctx context.Context) models.AssetsResult
}

// SlotState is the fetch lifecycle of one index slot.
type SlotState string

const (
	SlotNotFetched SlotState = "not_fetched"
	SlotInFlight   SlotState = "in_flight"
	SlotReady      SlotState = "ready"
	SlotFailed     SlotState = "failed"
)

// slot is one index slot. The index pointer survives re-fetches: while a
// refresh is in flight the previous index keeps serving queries, and a new
// index replaces it atomically when the fetch lands.
type slot struct {
	state     SlotState
	issued    bool
	index     *index.RecordIndex
	stale     bool
	fetchedAt time.Time
	// settled is non-nil while a fetch is in flight and is closed when it
	// completes, whatever the outcome.
	settled chan struct{}
}

// Session owns the two search indexes: the bootstrap index over workspace
// definitions, fetched eagerly at Start, and the secondary index over
// assets, fetched lazily the first time a query needs it. All methods are
// safe for concurrent use.
type Session struct {
	source           Source
	logger           *zap.Logger
	includeResources bool
	opts             index.Options

	mu        sync.RWMutex
	ctx       context.Context
	started   bool
	closed    bool
	bootstrap slot
	secondary slot
	// workspace is the last good snapshot, kept for schedule listings and
	// job-versus-pipeline classification.
	workspace *models.Workspace
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIncludeResources toggles resource records in the bootstrap index.
// The setting is fixed for the session's lifetime; flipping it means
// building a new session.
func WithIncludeResources(include bool) SessionOption {
	return func(s *Session) {
		s.includeResources = include
	}
}

// WithIndexOptions sets index construction options for both slots.
func WithIndexOptions(opts index.Options) SessionOption {
	return func(s *Session) {
		s.opts = opts
	}
}

// NewSession creates a session over source. No fetch happens until Start
// or the first triggering Search.
func NewSession(source Source, opts ...SessionOption) *Session {
	s := &Session{
		source:    source,
		logger:    zap.NewNop(),
		ctx:       context.Background(),
		bootstrap: slot{state: SlotNotFetched},
		secondary: slot{state: SlotNotFetched},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start pins the session's fetch lifetime to ctx and issues the eager
// bootstrap fetch. Calling Start again is a no-op apart from re-triggering
// an unissued bootstrap.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.started = true
		if ctx != nil {
			s.ctx = ctx
		}
	}
	s.mu.Unlock()
	s.issueBootstrap(false)
}

// Search queries both indexes and returns bootstrap hits followed by
// secondary hits, with no re-ranking or de-duplication across the two. A
// non-empty query, or includeSecondary, issues the secondary fetch if it
// has never been issued; the current call still returns immediately with
// whatever is indexed right now.
func (s *Session) Search(query string, includeSecondary bool) []models.ScoredRecord {
	if strings.TrimSpace(query) != "" || includeSecondary {
		s.issueSecondary(false)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.query(s.bootstrap.index, query)
	return append(out, s.query(s.secondary.index, query)...)
}

// query runs one index search under the session read lock. A nil index
// (slot never populated) and a failed query both come back empty.
func (s *Session) query(ix *index.RecordIndex, q string) []models.ScoredRecord {
	if ix == nil {
		return nil
	}
	hits, err := ix.Search(q)
	if err != nil {
		s.logger.Debug("index query failed", zap.Error(err))
		return nil
	}
	return hits
}

// Loading reports whether either slot has a fetch in flight.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootstrap.state == SlotInFlight || s.secondary.state == SlotInFlight
}

// Status is a point-in-time view of the session's index slots.
type Status struct {
	Bootstrap models.IndexStatus
	Secondary models.IndexStatus
	Loading   bool
}

// Status returns the current slot states.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Bootstrap: slotStatus(&s.bootstrap),
		Secondary: slotStatus(&s.secondary),
		Loading:   s.bootstrap.state == SlotInFlight || s.secondary.state == SlotInFlight,
	}
}

func slotStatus(sl *slot) models.IndexStatus {
	st := models.IndexStatus{
		State:     string(sl.state),
		Stale:     sl.stale,
		FetchedAt: sl.fetchedAt,
	}
	if sl.index != nil {
		st.Records = sl.index.Size()
		st.Generation = sl.index.Generation()
	}
	return st
}

// Workspace returns the last good workspace snapshot, or nil before one
// has arrived.
func (s *Session) Workspace() *models.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspace
}

// Refresh re-fetches every slot that has been issued before. Slots never
// issued stay untouched, so a refresh cannot promote the secondary fetch
// ahead of its first triggering query.
func (s *Session) Refresh() {
	s.mu.RLock()
	b, sec := s.bootstrap.issued, s.secondary.issued
	s.mu.RUnlock()
	if b {
		s.issueBootstrap(true)
	}
	if sec {
		s.issueSecondary(true)
	}
}

// Seed installs indexes built from cached snapshots. Seeded slots are
// marked stale and their fetch state is untouched, so the next trigger
// still fetches live data; a slot that already has live data ignores the
// seed.
func (s *Session) Seed(ws *models.Workspace, assets *models.AssetCatalog) {
	if ws != nil {
		s.seedSlot(&s.bootstrap, "bootstrap", WorkspaceRecords(ws, s.includeResources), ws.FetchedAt, ws)
	}
	if assets != nil {
		s.seedSlot(&s.secondary, "secondary", AssetRecords(assets), assets.FetchedAt, nil)
	}
}

func (s *Session) seedSlot(sl *slot, name string, records []models.SearchRecord, fetchedAt time.Time, ws *models.Workspace) {
	ix, err := index.Build(records, s.opts)
	if err != nil {
		s.logger.Warn("seed index build failed", zap.String("slot", name), zap.Error(err))
		return
	}
	s.mu.Lock()
	if s.closed || sl.index != nil || sl.state != SlotNotFetched {
		s.mu.Unlock()
		_ = ix.Close()
		return
	}
	sl.index = ix
	sl.stale = true
	sl.fetchedAt = fetchedAt
	if ws != nil && s.workspace == nil {
		s.workspace = ws
	}
	s.mu.Unlock()
	metrics.SearchIndexRecords.WithLabelValues(name).Set(float64(len(records)))
	s.logger.Info("seeded index from cache",
		zap.String("slot", name),
		zap.Int("records", len(records)),
		zap.Time("fetched_at", fetchedAt))
}

// WaitSettled blocks until no fetch is in flight, or ctx is done. It is a
// convenience for one-shot callers; serving paths never wait.
func (s *Session) WaitSettled(ctx context.Context) error {
	for {
		s.mu.RLock()
		var chans []chan struct{}
		if s.bootstrap.settled != nil {
			chans = append(chans, s.bootstrap.settled)
		}
		if s.secondary.settled != nil {
			chans = append(chans, s.secondary.settled)
		}
		s.mu.RUnlock()
		if len(chans) == 0 {
			return nil
		}
		for _, ch := range chans {
			select {
			case <-ch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close releases both indexes. In-flight fetch results arriving after
// Close are discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	b, sec := s.bootstrap.index, s.secondary.index
	s.bootstrap.index, s.secondary.index = nil, nil
	s.mu.Unlock()
	if b != nil {
		_ = b.Close()
	}
	if sec != nil {
		_ = sec.Close()
	}
	return nil
}

// issueBootstrap starts a workspace fetch unless one is in flight or, for
// non-refresh calls, one was already issued this session.
func (s *Session) issueBootstrap(refresh bool) {
	ch, ok := s.takeSlot(&s.bootstrap, refresh)
	if !ok {
		return
	}
	go s.fetchBootstrap(ch)
}

func (s *Session) issueSecondary(refresh bool) {
	ch, ok := s.takeSlot(&s.secondary, refresh)
	if !ok {
		return
	}
	go s.fetchSecondary(ch)
}

// takeSlot transitions a slot to in-flight and returns the channel to
// close on completion. ok is false when no fetch should start.
func (s *Session) takeSlot(sl *slot, refresh bool) (chan struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || sl.state == SlotInFlight {
		return nil, false
	}
	if !refresh && sl.issued {
		return nil, false
	}
	sl.issued = true
	sl.state = SlotInFlight
	sl.settled = make(chan struct{})
	return sl.settled, true
}

func (s *Session) fetchBootstrap(settled chan struct{}) {
	defer close(settled)
	res := s.source.FetchWorkspace(s.fetchContext())

	var records []models.SearchRecord
	var snapshot *models.Workspace
	state := SlotReady
	if res.Err != nil {
		state = SlotFailed
		s.logger.Warn("workspace fetch failed",
			zap.String("kind", string(res.Err.Kind)),
			zap.String("error", res.Err.Message))
	} else {
		snapshot = res.Snapshot
		records = WorkspaceRecords(snapshot, s.includeResources)
	}
	s.install(&s.bootstrap, "bootstrap", records, snapshot, state, settled)
}

func (s *Session) fetchSecondary(settled chan struct{}) {
	defer close(settled)
	res := s.source.FetchAssets(s.fetchContext())

	var records []models.SearchRecord
	state := SlotReady
	if res.Err != nil {
		state = SlotFailed
		s.logger.Warn("asset fetch failed",
			zap.String("kind", string(res.Err.Kind)),
			zap.String("error", res.Err.Message))
	} else {
		records = AssetRecords(res.Catalog)
	}
	s.install(&s.secondary, "secondary", records, nil, state, settled)
}

// install builds the replacement index and swaps it in. A failed fetch
// installs an empty index so the slot keeps answering queries, just with
// nothing in it.
func (s *Session) install(sl *slot, name string, records []models.SearchRecord, snapshot *models.Workspace, state SlotState, settled chan struct{}) {
	ix, err := index.Build(records, s.opts)
	if err != nil {
		s.logger.Error("index build failed", zap.String("slot", name), zap.Error(err))
		state = SlotFailed
		ix = nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if ix != nil {
			_ = ix.Close()
		}
		return
	}
	old := sl.index
	if ix != nil {
		sl.index = ix
	}
	sl.state = state
	sl.stale = false
	sl.fetchedAt = time.Now()
	if sl.settled == settled {
		sl.settled = nil
	}
	if snapshot != nil {
		s.workspace = snapshot
	}
	s.mu.Unlock()

	if old != nil && ix != nil {
		_ = old.Close()
	}
	metrics.SearchIndexRebuildsTotal.WithLabelValues(name).Inc()
	metrics.SearchIndexRecords.WithLabelValues(name).Set(float64(len(records)))
	s.logger.Info("index installed",
		zap.String("slot", name),
		zap.String("state", string(state)),
		zap.Int("records", len(records)))
}

func (s *Session) fetchContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}
