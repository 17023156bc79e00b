package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quakehub/internal/domain"
	"github.com/couchcryptid/quakehub/internal/feed"
	"github.com/couchcryptid/quakehub/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultFetchTimeout bounds each source's fetch within a cycle.
const DefaultFetchTimeout = 10 * time.Second

// Publisher forwards a freshly published snapshot downstream.
type Publisher interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// RegionMatcher builds the named-region predicate used for one cycle.
type RegionMatcher interface {
	Predicate(ctx context.Context) domain.RegionPredicate
}

// Config controls the refresh loop.
type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Filter       domain.FilterOptions
}

// SourceResult records how one source fared in a cycle.
type SourceResult struct {
	Source   domain.Source
	Records  int
	Duration time.Duration
	Err      error // *domain.FetchError when the source failed
}

// Cycle is the outcome of one Refresh.
type Cycle struct {
	ID         string
	StartedAt  time.Time
	Sources    []SourceResult
	Malformed  int
	Duplicates int
	Events     []domain.Event

	// Err is domain.ErrNoDataAvailable when every enabled source failed.
	Err error
}

// Empty reports whether every source answered but none returned a record.
func (c Cycle) Empty() bool {
	if c.Err != nil || len(c.Sources) == 0 {
		return false
	}
	for _, s := range c.Sources {
		if s.Err != nil || s.Records > 0 {
			return false
		}
	}
	return true
}

// Failed returns the sources that failed this cycle.
func (c Cycle) Failed() []SourceResult {
	var out []SourceResult
	for _, s := range c.Sources {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Option customizes a Refresher.
type Option func(*Refresher)

// WithClock sets the clock used for the ticker and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(r *Refresher) { r.clock = c }
}

// WithPublisher forwards every published snapshot to p.
func WithPublisher(p Publisher) Option {
	return func(r *Refresher) { r.publisher = p }
}

// WithRegionMatcher supplies the predicate for region mode.
func WithRegionMatcher(m RegionMatcher) Option {
	return func(r *Refresher) { r.region = m }
}

// Refresher runs fetch → normalize → merge → filter → rank cycles and
// publishes each result to a Store.
type Refresher struct {
	adapters  []feed.Adapter
	store     *Store
	cfg       Config
	publisher Publisher
	region    RegionMatcher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Refresher over the enabled adapters. Adapter order is the
// order in which their records are concatenated.
func New(adapters []feed.Adapter, store *Store, cfg Config, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Refresher {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	r := &Refresher{
		adapters: adapters,
		store:    store,
		cfg:      cfg,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CheckReadiness returns nil once the first snapshot has been published.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no snapshot has been published yet")
	}
	return nil
}

// Run refreshes immediately and then once per interval until ctx is
// cancelled. Cycles never overlap.
func (r *Refresher) Run(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", r.cfg.Interval)
	}
	r.logger.Info("refresher started", "interval", r.cfg.Interval, "sources", len(r.adapters))
	r.metrics.RefresherRunning.Set(1)
	defer r.metrics.RefresherRunning.Set(0)

	ticker := r.clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		r.RunOnce(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce performs one cycle and publishes its result. When every source
// failed the previous snapshot is kept; an empty snapshot is published only
// if there is nothing to keep.
func (r *Refresher) RunOnce(ctx context.Context) Cycle {
	cycle := r.Refresh(ctx)
	if ctx.Err() != nil {
		return cycle
	}

	if errors.Is(cycle.Err, domain.ErrNoDataAvailable) {
		r.metrics.RefreshCycles.WithLabelValues("no_data").Inc()
		if _, ok := r.store.Load(); ok {
			r.logger.Warn("no data available this cycle; keeping previous snapshot", "cycle_id", cycle.ID)
			return cycle
		}
		r.logger.Warn("no data available this cycle", "cycle_id", cycle.ID)
	} else if cycle.Empty() {
		r.metrics.RefreshCycles.WithLabelValues("empty").Inc()
		r.logger.Warn("no data available this cycle; every source returned nothing", "cycle_id", cycle.ID)
	} else if len(cycle.Failed()) > 0 {
		r.metrics.RefreshCycles.WithLabelValues("partial").Inc()
	} else {
		r.metrics.RefreshCycles.WithLabelValues("ok").Inc()
	}

	snap := domain.Snapshot{CycleID: cycle.ID, RefreshedAt: r.clock.Now().UTC(), Events: cycle.Events}
	r.store.Publish(snap)
	r.ready.Store(true)
	r.metrics.EventsCurrent.Set(float64(len(snap.Events)))
	r.metrics.LastRefreshTimestamp.Set(float64(snap.RefreshedAt.Unix()))

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, snap); err != nil {
			r.metrics.SnapshotPublishErrors.Inc()
			r.logger.Error("publish snapshot failed", "cycle_id", cycle.ID, "error", err)
		}
	}
	return cycle
}

// Refresh fetches every enabled source concurrently, each under its own
// timeout, and runs the combined records through the reconciliation core.
// A failing source contributes no records; it never aborts the cycle.
func (r *Refresher) Refresh(ctx context.Context) Cycle {
	cycle := Cycle{ID: uuid.NewString(), StartedAt: r.clock.Now()}
	logger := r.logger.With("cycle_id", cycle.ID)

	batches := r.fetchAll(ctx)

	var raws []domain.RawRecord
	failed := 0
	for _, b := range batches {
		cycle.Sources = append(cycle.Sources, b.result)
		if b.result.Err != nil {
			failed++
			logger.Warn("source fetch failed", "source", b.result.Source, "error", b.result.Err)
			continue
		}
		raws = append(raws, b.records...)
	}
	if len(r.adapters) > 0 && failed == len(r.adapters) {
		cycle.Err = domain.ErrNoDataAvailable
	}

	events, errs := domain.Normalize(raws)
	for _, err := range errs {
		logger.Warn("dropping malformed record", "error", err)
	}
	cycle.Malformed = len(errs)
	r.metrics.MalformedRecords.Add(float64(len(errs)))

	merged := domain.Merge(events)
	cycle.Duplicates = len(events) - len(merged)
	r.metrics.DuplicatesMerged.Add(float64(cycle.Duplicates))

	opts := r.cfg.Filter
	if opts.Mode == domain.ModeRegion && r.region != nil {
		opts.Region = r.region.Predicate(ctx)
	}
	cycle.Events = domain.FilterAndRank(merged, opts)

	elapsed := r.clock.Since(cycle.StartedAt)
	r.metrics.RefreshDuration.Observe(elapsed.Seconds())
	logger.Info("refresh complete",
		"records", len(raws),
		"malformed", cycle.Malformed,
		"duplicates", cycle.Duplicates,
		"events", len(cycle.Events),
		"failed_sources", failed,
		"duration", elapsed,
	)
	return cycle
}

type sourceBatch struct {
	result  SourceResult
	records []domain.RawRecord
}

func (r *Refresher) fetchAll(ctx context.Context) []sourceBatch {
	batches := make([]sourceBatch, len(r.adapters))
	var wg sync.WaitGroup
	for i, a := range r.adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batches[i] = r.fetchOne(ctx, a)
		}()
	}
	wg.Wait()
	return batches
}

type fetchResult struct {
	records []domain.RawRecord
	err     error
}

// fetchOne runs a single adapter under the per-source timeout. The adapter
// runs on its own goroutine so one that ignores its context still cannot
// hold the cycle past the deadline.
func (r *Refresher) fetchOne(ctx context.Context, a feed.Adapter) sourceBatch {
	src := a.Source()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	start := r.clock.Now()
	done := make(chan fetchResult, 1)
	go func() {
		records, err := safeFetch(ctx, a)
		done <- fetchResult{records: records, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	elapsed := r.clock.Since(start)
	r.metrics.SourceFetchDuration.WithLabelValues(string(src)).Observe(elapsed.Seconds())

	batch := sourceBatch{result: SourceResult{Source: src, Duration: elapsed}}
	if res.err != nil {
		r.metrics.SourceFetches.WithLabelValues(string(src), "error").Inc()
		batch.result.Err = &domain.FetchError{Source: src, Err: res.err}
		return batch
	}

	r.metrics.SourceFetches.WithLabelValues(string(src), "success").Inc()
	r.metrics.RecordsFetched.WithLabelValues(string(src)).Add(float64(len(res.records)))
	batch.result.Records = len(res.records)
	batch.records = res.records
	return batch
}

func safeFetch(ctx context.Context, a feed.Adapter) (records []domain.RawRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("adapter panic: %v", p)
		}
	}()
	return a.Fetch(ctx)
}
