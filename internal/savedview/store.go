// Package savedview manages the user's saved (title, filters, page) views.
// The backend owns their lifetime; the Store keeps only the last list it
// fetched, which is what rename and delete resolve ids against.
package savedview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
)

// Backend is the remote saved-graph API.
type Backend interface {
	SaveGraph(ctx context.Context, username, title string, filters json.RawMessage, page domain.Page) (int64, error)
	SavedGraphs(ctx context.Context, username string) ([]domain.SavedView, error)
	UpdateGraphTitle(ctx context.Context, id int64, username, title string) error
	DeleteGraph(ctx context.Context, id int64, username string) error
}

// Identity resolves the current user.
type Identity interface {
	RequireUser() (string, error)
}

// Entry is a saved view with its filters decoded.
type Entry struct {
	View    domain.SavedView
	Filters filter.State
}

// Route is where opening a saved view lands: a screen and the selection to
// restore into it.
type Route struct {
	Page    domain.Page
	Filters filter.State
}

// Store is the client side of saved views.
type Store struct {
	backend   Backend
	identity  Identity
	publisher domain.EventPublisher
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu        sync.Mutex
	loaded    bool
	entries   []Entry
	fetchedAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher ships lifecycle events after each successful change.
func WithPublisher(p domain.EventPublisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithClock overrides the clock used for cache and event timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore creates a Store. metrics may be nil; a nil logger means
// slog.Default.
func NewStore(backend Backend, identity Identity, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend:  backend,
		identity: identity,
		clock:    clockwork.NewRealClock(),
		metrics:  metrics,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores the selection under title for page.
func (s *Store) Save(ctx context.Context, title string, filters filter.State, page domain.Page) (domain.SavedView, error) {
	view, err := s.save(ctx, title, filters, page)
	s.record("save", err)
	return view, err
}

func (s *Store) save(ctx context.Context, title string, filters filter.State, page domain.Page) (domain.SavedView, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.SavedView{}, domain.NewValidationError("title", "please enter a title")
	}
	if _, err := domain.ParsePage(string(page)); err != nil {
		return domain.SavedView{}, domain.NewValidationError("page", "%v", err)
	}
	user, err := s.identity.RequireUser()
	if err != nil {
		return domain.SavedView{}, err
	}
	blob, err := filter.Encode(filters)
	if err != nil {
		return domain.SavedView{}, fmt.Errorf("encode filters: %w", err)
	}

	id, err := s.backend.SaveGraph(ctx, user, title, blob, page)
	if err != nil {
		return domain.SavedView{}, fmt.Errorf("save view: %w", err)
	}
	view := domain.SavedView{ID: id, Title: title, Page: page, Filters: blob, OwnerUsername: user}

	s.mu.Lock()
	// The new id is not always reported; reload before resolving ids again.
	s.loaded = false
	s.mu.Unlock()

	s.publish(ctx, domain.SavedViewCreated, view)
	return view, nil
}

// List fetches the user's saved views. A view whose filters cannot be read
// is listed with default filters instead of failing the list.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	entries, err := s.list(ctx)
	s.record("list", err)
	return entries, err
}

func (s *Store) list(ctx context.Context) ([]Entry, error) {
	user, err := s.identity.RequireUser()
	if err != nil {
		return nil, err
	}
	views, err := s.backend.SavedGraphs(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}

	entries := make([]Entry, 0, len(views))
	for _, v := range views {
		entries = append(entries, Entry{View: v, Filters: filter.Decode(v.Filters)})
	}

	s.mu.Lock()
	s.entries = entries
	s.loaded = true
	s.fetchedAt = s.clock.Now()
	s.mu.Unlock()

	return cloneEntries(entries), nil
}

// Get returns one saved view by id from the cached list, loading it first
// if needed.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return Entry{}, err
	}
	e, ok := s.lookup(id)
	if !ok {
		return Entry{}, fmt.Errorf("view %d: %w", id, domain.ErrViewNotFound)
	}
	return e, nil
}

// Rename changes a saved view's title.
func (s *Store) Rename(ctx context.Context, id int64, title string) error {
	err := s.rename(ctx, id, title)
	s.record("rename", err)
	return err
}

func (s *Store) rename(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NewValidationError("title", "please enter a title")
	}
	e, user, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}

	if err := s.backend.UpdateGraphTitle(ctx, id, user, title); err != nil {
		return s.remoteFailure(id, "rename", err)
	}

	s.mu.Lock()
	for i := range s.entries {
		if s.entries[i].View.ID == id {
			s.entries[i].View.Title = title
		}
	}
	s.mu.Unlock()

	e.View.Title = title
	s.publish(ctx, domain.SavedViewRenamed, e.View)
	return nil
}

// Delete removes a saved view. Deleting an id that is already gone reports
// domain.ErrViewNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	err := s.delete(ctx, id)
	s.record("delete", err)
	return err
}

func (s *Store) delete(ctx context.Context, id int64) error {
	e, user, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := s.backend.DeleteGraph(ctx, id, user); err != nil {
		return s.remoteFailure(id, "delete", err)
	}
	s.forget(id)
	s.publish(ctx, domain.SavedViewDeleted, e.View)
	return nil
}

// Navigate resolves where a saved view opens.
func Navigate(e Entry) (Route, error) {
	page, err := domain.ParsePage(string(e.View.Page))
	if err != nil {
		return Route{}, domain.NewValidationError("page", "saved view %d has %v", e.View.ID, err)
	}
	return Route{Page: page, Filters: e.Filters}, nil
}

// FetchedAt is when the cached list was last refreshed, or zero.
func (s *Store) FetchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchedAt
}

func (s *Store) resolve(ctx context.Context, id int64) (Entry, string, error) {
	user, err := s.identity.RequireUser()
	if err != nil {
		return Entry{}, "", err
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return Entry{}, "", err
	}
	e, ok := s.lookup(id)
	if !ok {
		return Entry{}, "", fmt.Errorf("view %d: %w", id, domain.ErrViewNotFound)
	}
	return e, user, nil
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	_, err := s.list(ctx)
	return err
}

func (s *Store) lookup(id int64) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.View.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Store) forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.View.ID != id {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// remoteFailure maps a backend 404 onto ErrViewNotFound and drops the id
// from the cache.
func (s *Store) remoteFailure(id int64, op string, err error) error {
	var berr *domain.BackendError
	if errors.As(err, &berr) && berr.NotFound() {
		s.forget(id)
		return fmt.Errorf("%s view %d: %w", op, id, domain.ErrViewNotFound)
	}
	return fmt.Errorf("%s view %d: %w", op, id, err)
}

func (s *Store) publish(ctx context.Context, typ domain.SavedViewEventType, v domain.SavedView) {
	if s.publisher == nil {
		return
	}
	ev := domain.SavedViewEvent{
		Type:       typ,
		ViewID:     v.ID,
		Title:      v.Title,
		Page:       v.Page,
		Username:   v.OwnerUsername,
		OccurredAt: s.clock.Now().UTC(),
	}
	if ev.Username == "" {
		ev.Username, _ = s.identity.RequireUser()
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish saved view event", "type", typ, "view_id", v.ID, "error", err)
	}
}

func (s *Store) record(op string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.SavedViewOps.WithLabelValues(op, outcome).Inc()
}

func cloneEntries(in []Entry) []Entry {
	out := make([]Entry, len(in))
	copy(out, in)
	return out
}
