// Package cli is the terminal front end: one-shot commands per screen and an
// interactive shell that keeps screens alive between commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/disaster-dashboard/internal/adapter/backend"
	kafkaadapter "github.com/couchcryptid/disaster-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/disaster-dashboard/internal/config"
	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
	"github.com/couchcryptid/disaster-dashboard/internal/query"
	"github.com/couchcryptid/disaster-dashboard/internal/savedview"
	"github.com/couchcryptid/disaster-dashboard/internal/screen"
	"github.com/couchcryptid/disaster-dashboard/internal/session"
)

// App is everything a command needs, wired once per process.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	Session *session.Session
	Client  *backend.Client
	Source  *backend.CachedClient
	Views   *savedview.Store

	Map         *screen.Map
	Compare     *screen.Compare
	GlobalStats *screen.GlobalStats
	Country     *screen.CountryProfile
	State       *screen.StateProfile

	deps    screen.Deps
	closers []io.Closer
}

// NewApp wires the backend client, session, saved views and screens from
// cfg. Mapbox and Kafka are only connected when enabled.
func NewApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	sess := session.New(cfg.SessionFile, session.WithLogger(logger), session.WithMetrics(metrics))
	if err := sess.Init(); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, sess, metrics, logger)
	source := backend.NewCachedClient(client, cfg.ResponseCacheSize, metrics, logger)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Session: sess,
		Client:  client,
		Source:  source,
	}

	var storeOpts []savedview.Option
	if cfg.EventsEnabled {
		writer := kafkaadapter.NewWriter(cfg, metrics, logger)
		a.closers = append(a.closers, writer)
		storeOpts = append(storeOpts, savedview.WithPublisher(writer))
		logger.Info("saved view events enabled", "topic", cfg.KafkaEventsTopic, "brokers", cfg.KafkaBrokers)
	}
	a.Views = savedview.NewStore(client, sess, metrics, logger, storeOpts...)

	var locator domain.Locator
	if cfg.MapboxEnabled {
		mc := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		locator = mapbox.NewCachedLocator(mc, cfg.MapboxCacheSize, metrics)
		logger.Debug("mapbox map focus enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	}

	a.deps = screen.Deps{
		Source:  source,
		Builder: query.NewBuilder(),
		Locator: locator,
		Metrics: metrics,
		Logger:  logger,
	}
	a.Map = screen.NewMap(a.deps)
	a.Compare = screen.NewCompare(a.deps)
	a.GlobalStats = screen.NewGlobalStats(a.deps)
	a.Country = screen.NewCountryProfile(a.deps)
	a.State = screen.NewStateProfile(a.deps)
	return a, nil
}

// ScreenStatus reports the fetch state of every screen.
func (a *App) ScreenStatus() map[string]string {
	return map[string]string{
		"map":             a.Map.Status().String(),
		"compare":         a.Compare.Status().String(),
		"global_stats":    a.GlobalStats.Status().String(),
		"country_profile": a.Country.Status().String(),
		"state_profile":   a.State.Status().String(),
	}
}

// Close releases the event writer, if any.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
