// Package screen wires a filter selection, its query, a fetcher and the view
// binder into one controller per dashboard page.
//
// Editing filters never fetches. Apply builds the payload, issues it through
// the screen's fetcher and replaces the bound result only if no newer Apply
// superseded it.
package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/fetch"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
	"github.com/couchcryptid/disaster-dashboard/internal/query"
)

// Banner texts.
const (
	EmptyBanner   = "No data for this selection."
	NetworkBanner = "Error fetching data from the server. Please try again."
)

// Source is the slice of the backend the screens read from.
type Source interface {
	CompareAggregated(ctx context.Context, req query.CompareRequest) ([]domain.Row, error)
	GlobalStats(ctx context.Context, req query.GlobalStatsRequest) ([]domain.Row, error)
	CountryData(ctx context.Context, req query.CountryRequest) (domain.CountryProfile, error)
	StateData(ctx context.Context, req query.StateRequest) (domain.StateProfile, error)
}

// Deps are shared by every screen. Locator, Clock, Metrics and Logger are
// optional.
type Deps struct {
	Source  Source
	Builder *query.Builder
	Locator domain.Locator
	Clock   clockwork.Clock
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) builder() *query.Builder {
	if d.Builder == nil {
		return query.NewBuilder()
	}
	return d.Builder
}

// Banner maps a failure to the inline message shown above a screen. Stale
// responses and nil render nothing.
func Banner(err error) string {
	if err == nil || errors.Is(err, domain.ErrStaleResponse) {
		return ""
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var berr *domain.BackendError
	if errors.As(err, &berr) && berr.Message != "" {
		return berr.Message
	}
	if errors.Is(err, domain.ErrNotLoggedIn) {
		return "Please log in first."
	}
	return NetworkBanner
}

// base is the lifecycle shared by all screens: one fetcher plus the last
// input error, which never reaches the fetcher.
type base[T any] struct {
	fetcher *fetch.Fetcher[T]
	logger  *slog.Logger

	mu      sync.Mutex
	invalid error
}

func newBase[T any](name string, d Deps, isEmpty func(T) bool) *base[T] {
	opts := []fetch.Option[T]{
		fetch.WithLogger[T](d.logger()),
		fetch.WithEmpty(isEmpty),
	}
	if d.Clock != nil {
		opts = append(opts, fetch.WithClock[T](d.Clock))
	}
	if d.Metrics != nil {
		opts = append(opts, fetch.WithMetrics[T](d.Metrics))
	}
	return &base[T]{
		fetcher: fetch.New(name, opts...),
		logger:  d.logger(),
	}
}

// run issues load. A superseded response is not an error for the caller;
// the newer request owns the screen.
func (b *base[T]) run(ctx context.Context, load fetch.LoadFunc[T]) error {
	b.setInvalid(nil)
	_, err := b.fetcher.Fetch(ctx, load, nil)
	if errors.Is(err, domain.ErrStaleResponse) {
		return nil
	}
	return err
}

// reject records an input error without touching the fetcher, so the last
// good result stays on screen.
func (b *base[T]) reject(err error) error {
	b.setInvalid(err)
	return err
}

func (b *base[T]) setInvalid(err error) {
	b.mu.Lock()
	b.invalid = err
	b.mu.Unlock()
}

// Retry re-issues the last request.
func (b *base[T]) Retry(ctx context.Context) error {
	b.setInvalid(nil)
	_, err := b.fetcher.Retry(ctx)
	if errors.Is(err, domain.ErrStaleResponse) {
		return nil
	}
	return err
}

// Status is the fetch lifecycle state.
func (b *base[T]) Status() fetch.Status { return b.fetcher.Snapshot().Status }

// Banner is the message to show above the screen, or "".
func (b *base[T]) Banner() string {
	b.mu.Lock()
	invalid := b.invalid
	b.mu.Unlock()
	if invalid != nil {
		return Banner(invalid)
	}

	snap := b.fetcher.Snapshot()
	switch {
	case snap.Status == fetch.StatusError:
		return Banner(snap.Err)
	case snap.Status == fetch.StatusSuccess && snap.Empty:
		return EmptyBanner
	}
	return ""
}

// Reset cancels anything in flight and clears the result.
func (b *base[T]) Reset() {
	b.setInvalid(nil)
	b.fetcher.Reset()
}

func (b *base[T]) value() T { return b.fetcher.Snapshot().Value }
