package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/takeru911/dagster/internal/metrics"
	"github.com/takeru911/dagster/internal/models"
)

const defaultPollInterval = 15 * time.Second

// Fetcher retrieves live schedule state.
type Fetcher interface {
	FetchSchedule(ctx context.Context, sel models.ScheduleSelector) models.ScheduleResult
}

// RepoResolver returns the repository snapshot used to classify a row's
// target as a job or pipeline. May return nil.
type RepoResolver func(models.RepoAddress) *models.Repository

// RowWatcher keeps one schedule row fresh. Starting a watcher arms it
// without fetching; the first Touch wakes it for an immediate poll, after
// which it re-polls on the interval until stopped.
type RowWatcher struct {
	fetcher  Fetcher
	resolve  RepoResolver
	selector models.ScheduleSelector
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	row       models.ScheduleRow
	lastTouch time.Time
	started   bool
	wake      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// NewRowWatcher creates a watcher for sel. A nil logger disables logging.
func NewRowWatcher(fetcher Fetcher, sel models.ScheduleSelector, resolve RepoResolver, interval time.Duration, logger *zap.Logger) *RowWatcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RowWatcher{
		fetcher:   fetcher,
		resolve:   resolve,
		selector:  sel,
		interval:  interval,
		logger:    logger,
		row:       models.ScheduleRow{Selector: sel, Name: sel.ScheduleName},
		lastTouch: time.Now(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Start arms the watcher. It runs until ctx is cancelled or Stop is called.
func (w *RowWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	metrics.ScheduleWatchersActive.Inc()
	go w.run(ctx)
}

func (w *RowWatcher) run(ctx context.Context) {
	defer metrics.ScheduleWatchersActive.Dec()

	// No fetch until the row is actually wanted.
	select {
	case <-ctx.Done():
		return
	case <-w.done:
		return
	case <-w.wake:
	}
	w.poll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *RowWatcher) poll(ctx context.Context) {
	res := w.fetcher.FetchSchedule(ctx, w.selector)
	switch {
	case res.Err != nil:
		metrics.SchedulePollsTotal.WithLabelValues("error").Inc()
		w.logger.Warn("schedule poll failed",
			zap.String("schedule", w.selector.String()),
			zap.String("error", res.Err.Message))
		// Keep the last good row; just annotate it.
		w.mu.Lock()
		w.row.Note = res.Err.Message
		w.mu.Unlock()
	case res.NotFound:
		metrics.SchedulePollsTotal.WithLabelValues("not_found").Inc()
		w.mu.Lock()
		w.row = models.ScheduleRow{
			Selector: w.selector,
			Name:     w.selector.ScheduleName,
			Note:     "schedule not found",
		}
		w.mu.Unlock()
	default:
		metrics.SchedulePollsTotal.WithLabelValues("ok").Inc()
		var repo *models.Repository
		if w.resolve != nil {
			repo = w.resolve(w.selector.RepoAddress())
		}
		row := DeriveRow(w.selector, res.Detail, repo)
		w.mu.Lock()
		w.row = row
		w.mu.Unlock()
	}
}

// Touch records demand for the row and wakes a watcher that has not done
// its first poll yet.
func (w *RowWatcher) Touch() {
	w.mu.Lock()
	w.lastTouch = time.Now()
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Row returns the current row. Before the first poll lands this is an
// unloaded placeholder naming the selector.
func (w *RowWatcher) Row() models.ScheduleRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.row
}

// LastTouch returns when the row was last requested.
func (w *RowWatcher) LastTouch() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastTouch
}

// Stop terminates the poll loop. Safe to call more than once.
func (w *RowWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// Registry hands out row watchers keyed by selector and reaps the ones
// nobody has requested for the idle TTL.
type Registry struct {
	fetcher  Fetcher
	resolve  RepoResolver
	interval time.Duration
	idleTTL  time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	ctx      context.Context
	started  bool
	closed   bool
	watchers map[string]*RowWatcher
	done     chan struct{}
	stopOnce sync.Once
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for the registry and its watchers.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry. A non-positive interval falls back to
// 15s; a non-positive idleTTL falls back to three intervals.
func NewRegistry(fetcher Fetcher, resolve RepoResolver, interval, idleTTL time.Duration, opts ...RegistryOption) *Registry {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if idleTTL <= 0 {
		idleTTL = 3 * interval
	}
	r := &Registry{
		fetcher:  fetcher,
		resolve:  resolve,
		interval: interval,
		idleTTL:  idleTTL,
		logger:   zap.NewNop(),
		watchers: make(map[string]*RowWatcher),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins reaping idle watchers. Watchers created before Start run
// against a background context.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.ctx = ctx
	r.mu.Unlock()
	go r.reapLoop(ctx)
}

func (r *Registry) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *Registry) reap() {
	cutoff := time.Now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, w := range r.watchers {
		if w.LastTouch().Before(cutoff) {
			w.Stop()
			delete(r.watchers, key)
			r.logger.Debug("schedule watcher reaped", zap.String("schedule", key))
		}
	}
}

// Row returns the current row for sel, creating and waking a watcher as
// needed. The first call for a selector usually returns the unloaded
// placeholder; the poll it triggered fills the row for later calls.
func (r *Registry) Row(sel models.ScheduleSelector) models.ScheduleRow {
	w := r.watcher(sel)
	w.Touch()
	return w.Row()
}

func (r *Registry) watcher(sel models.ScheduleSelector) *RowWatcher {
	key := sel.String()
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watchers[key]
	if !ok {
		w = NewRowWatcher(r.fetcher, sel, r.resolve, r.interval, r.logger)
		r.watchers[key] = w
		if !r.closed {
			ctx := r.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			w.Start(ctx)
			r.logger.Debug("schedule watcher started", zap.String("schedule", key))
		}
	}
	return w
}

// Peek returns the live row for sel when a watcher exists, without
// creating one or marking demand.
func (r *Registry) Peek(sel models.ScheduleSelector) (models.ScheduleRow, bool) {
	r.mu.Lock()
	w, ok := r.watchers[sel.String()]
	r.mu.Unlock()
	if !ok {
		return models.ScheduleRow{}, false
	}
	return w.Row(), true
}

// ActiveCount returns the number of live watchers.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watchers)
}

// Stop terminates all watchers and the reaper.
func (r *Registry) Stop() {
	r.mu.Lock()
	r.closed = true
	ws := make([]*RowWatcher, 0, len(r.watchers))
	for _, w := range r.watchers {
		ws = append(ws, w)
	}
	r.watchers = make(map[string]*RowWatcher)
	r.mu.Unlock()
	for _, w := range ws {
		w.Stop()
	}
	r.stopOnce.Do(func() { close(r.done) })
}
