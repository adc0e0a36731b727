// Package fetch runs screen data requests and guarantees that only the
// response to the most recent request is ever bound to a view.
//
// Each Fetch takes the next sequence number and cancels whatever request was
// still in flight. When a response settles, it is accepted only if its
// sequence number is still current; otherwise it is dropped with
// domain.ErrStaleResponse and never reaches the binder.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
)

// Status is the lifecycle state of a screen's data.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// errNothingToRetry is returned by Retry before any request was issued.
var errNothingToRetry = errors.New("no request to retry")

// LoadFunc performs one backend request. It must honour ctx cancellation.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// BindFunc applies a settled snapshot to a view. It runs while the fetcher
// holds its lock and must not call back into the fetcher.
type BindFunc[T any] func(Snapshot[T])

// Snapshot is the current state of a fetcher.
type Snapshot[T any] struct {
	Status     Status
	RequestID  uint64
	Value      T
	Err        error
	Empty      bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Fetcher serializes one screen's requests. The zero value is not usable;
// use New.
type Fetcher[T any] struct {
	screen  string
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	isEmpty func(T) bool

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	snap     Snapshot[T]
	lastLoad LoadFunc[T]
	lastBind BindFunc[T]
}

// Option configures a Fetcher.
type Option[T any] func(*Fetcher[T])

// WithClock overrides the clock used for snapshot timestamps.
func WithClock[T any](c clockwork.Clock) Option[T] {
	return func(f *Fetcher[T]) { f.clock = c }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(f *Fetcher[T]) { f.logger = l }
}

// WithMetrics records fetch outcomes.
func WithMetrics[T any](m *observability.Metrics) Option[T] {
	return func(f *Fetcher[T]) { f.metrics = m }
}

// WithEmpty marks successful results for which isEmpty returns true as
// empty, so the view can show its "no data" banner.
func WithEmpty[T any](isEmpty func(T) bool) Option[T] {
	return func(f *Fetcher[T]) { f.isEmpty = isEmpty }
}

// New creates a Fetcher for the named screen.
func New[T any](screen string, opts ...Option[T]) *Fetcher[T] {
	f := &Fetcher[T]{
		screen: screen,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues a new request, superseding any request still in flight. It
// returns the settled snapshot, or domain.ErrStaleResponse when a newer
// request was issued before this one settled. bind may be nil.
func (f *Fetcher[T]) Fetch(ctx context.Context, load LoadFunc[T], bind BindFunc[T]) (Snapshot[T], error) {
	reqCtx, id := f.begin(ctx, load, bind)
	value, err := load(reqCtx)
	return f.settle(id, value, err, bind)
}

// Retry re-issues the most recent request. Failed requests are never
// retried automatically.
func (f *Fetcher[T]) Retry(ctx context.Context) (Snapshot[T], error) {
	f.mu.Lock()
	load, bind := f.lastLoad, f.lastBind
	f.mu.Unlock()

	if load == nil {
		return Snapshot[T]{}, errNothingToRetry
	}
	return f.Fetch(ctx, load, bind)
}

// Reset cancels any request in flight and returns to idle. A response that
// arrives afterwards is discarded as stale.
func (f *Fetcher[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.snap = Snapshot[T]{RequestID: f.seq}
	f.lastLoad, f.lastBind = nil, nil
}

// Snapshot returns the current state.
func (f *Fetcher[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *Fetcher[T]) begin(ctx context.Context, load LoadFunc[T], bind BindFunc[T]) (context.Context, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	id := f.seq
	if f.cancel != nil {
		f.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.lastLoad, f.lastBind = load, bind

	// The previous value stays visible while loading.
	f.snap = Snapshot[T]{
		Status:    StatusLoading,
		RequestID: id,
		Value:     f.snap.Value,
		StartedAt: f.clock.Now(),
	}
	f.logger.Debug("fetch started", "screen", f.screen, "request_id", id)
	return reqCtx, id
}

func (f *Fetcher[T]) settle(id uint64, value T, err error, bind BindFunc[T]) (Snapshot[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id != f.seq {
		f.logger.Debug("stale response discarded", "screen", f.screen, "request_id", id, "current", f.seq)
		if f.metrics != nil {
			f.metrics.FetchStale.WithLabelValues(f.screen).Inc()
		}
		return Snapshot[T]{}, domain.ErrStaleResponse
	}

	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}

	snap := Snapshot[T]{
		RequestID:  id,
		StartedAt:  f.snap.StartedAt,
		FinishedAt: f.clock.Now(),
	}
	outcome := "success"
	if err != nil {
		snap.Status = StatusError
		snap.Err = err
		outcome = "error"
		f.logger.Warn("fetch failed", "screen", f.screen, "request_id", id, "error", err)
	} else {
		snap.Status = StatusSuccess
		snap.Value = value
		if f.isEmpty != nil && f.isEmpty(value) {
			snap.Empty = true
			outcome = "empty"
		}
	}
	if f.metrics != nil {
		f.metrics.FetchOutcomes.WithLabelValues(f.screen, outcome).Inc()
	}

	f.snap = snap
	if bind != nil {
		bind(snap)
	}
	return snap, err
}
