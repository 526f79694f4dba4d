package lifecycle

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/starline-networks/pwa-gateway/pkg/bucket"
	"github.com/starline-networks/pwa-gateway/pkg/control"
)

// Config holds worker configuration.
type Config struct {
	// Store is the bucket storage backend.
	Store bucket.Store

	// Names are the two current bucket names.
	Names bucket.Names

	// Origin is the transport used for pre-cache fetches.
	Origin http.RoundTripper

	// OriginBase is the origin base URL, e.g. "https://app.example.com".
	OriginBase string

	// Manifest is the fixed list of shell asset paths populated at
	// install time (root document, web manifest, icons).
	Manifest []string

	// Hub broadcasts notifications to connected clients.
	Hub *control.Hub

	// Logger for lifecycle events.
	Logger zerolog.Logger
}

// Worker drives the gateway lifecycle and services control commands.
type Worker struct {
	store      bucket.Store
	names      bucket.Names
	origin     http.RoundTripper
	originBase string
	manifest   []string
	hub        *control.Hub
	logger     zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewWorker creates a worker in the Installing state.
func NewWorker(cfg Config) (*Worker, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Hub == nil {
		return nil, fmt.Errorf("hub is required")
	}
	if cfg.Origin == nil {
		cfg.Origin = http.DefaultTransport
	}
	return &Worker{
		store:      cfg.Store,
		names:      cfg.Names,
		origin:     cfg.Origin,
		originBase: strings.TrimRight(cfg.OriginBase, "/"),
		manifest:   cfg.Manifest,
		hub:        cfg.Hub,
		logger:     cfg.Logger,
	}, nil
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) transition(e Event) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, ok := Next(w.state, e)
	if !ok {
		w.logger.Warn().
			Str("state", w.state.String()).
			Str("event", e.String()).
			Msg("Illegal lifecycle transition ignored")
		return false
	}

	w.logger.Info().
		Str("from", w.state.String()).
		Str("to", next.String()).
		Str("event", e.String()).
		Msg("Lifecycle transition")
	w.state = next
	return true
}

// Install pre-populates the static bucket with the manifest assets and
// moves the worker to Waiting. Pre-caching is best-effort: individual
// fetch or store failures are logged and never abort installation.
func (w *Worker) Install(ctx context.Context) error {
	w.logger.Info().
		Str("bucket", w.names.Static()).
		Int("assets", len(w.manifest)).
		Msg("Installing: pre-caching shell assets")

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range w.manifest {
		g.Go(func() error {
			if err := w.precache(gctx, path); err != nil {
				precacheTotal.WithLabelValues("error").Inc()
				w.logger.Error().Err(err).Str("path", path).Msg("Pre-cache failed")
				return nil // best-effort
			}
			precacheTotal.WithLabelValues("ok").Inc()
			return nil
		})
	}

	// Errors are absorbed above; Wait only observes context cancellation.
	if err := g.Wait(); err != nil {
		w.logger.Error().Err(err).Msg("Installation interrupted")
	}

	w.transition(EventInstalled)
	return nil
}

// precache fetches one shell asset with a cache-busting directive so
// stale intermediary caches cannot poison the initial population.
func (w *Worker) precache(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.originBase+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := w.origin.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if !bucket.Cacheable(resp.StatusCode) {
		return fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
	}

	entry, err := bucket.FromResponse(path, resp)
	if err != nil {
		return err
	}
	return w.store.Put(ctx, w.names.Static(), path, entry)
}

// Activate reconciles stale buckets, claims connected clients, and
// broadcasts the new version. Bucket cleanup covers the previous
// generation's buckets; a superseded worker never cleans itself.
func (w *Worker) Activate(ctx context.Context) error {
	if !w.transition(EventActivated) {
		return fmt.Errorf("activate: illegal in state %s", w.State())
	}

	existing, err := w.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("enumerate buckets: %w", err)
	}

	for _, name := range bucket.Stale(existing, w.names) {
		w.logger.Info().Str("bucket", name).Msg("Deleting superseded bucket")
		if err := w.store.Drop(ctx, name); err != nil {
			w.logger.Error().Err(err).Str("bucket", name).Msg("Failed to delete bucket")
			continue
		}
		bucket.Dropped.WithLabelValues("activation").Inc()
	}

	activationsTotal.Inc()

	// Claimed clients learn about the new worker immediately; none
	// waits for a navigation.
	w.hub.Broadcast(control.WorkerUpdated{Version: w.names.Version})
	w.logger.Info().
		Str("version", w.names.Version).
		Int("clients", w.hub.Len()).
		Msg("Activated")
	return nil
}

// SkipWaiting promotes a Waiting worker to Active immediately.
func (w *Worker) SkipWaiting(ctx context.Context) error {
	if w.State() != Waiting {
		return nil
	}
	return w.Activate(ctx)
}

// Supersede marks the worker replaced by a successor.
func (w *Worker) Supersede() {
	w.transition(EventSuperseded)
}

// Handle services one control command. The switch is exhaustive over
// the closed command set.
func (w *Worker) Handle(ctx context.Context, cmd control.Command) error {
	switch c := cmd.(type) {
	case control.SkipWaiting:
		return w.SkipWaiting(ctx)

	case control.ClearCache:
		if err := w.clearNamespace(ctx); err != nil {
			return err
		}
		if c.Reply != nil {
			c.Reply <- control.AckCacheCleared
		}
		return nil

	case control.ForceRefresh:
		w.logger.Info().Str("bucket", w.names.Runtime()).Msg("Force refresh: dropping runtime bucket")
		if err := w.store.Drop(ctx, w.names.Runtime()); err != nil {
			return fmt.Errorf("drop runtime bucket: %w", err)
		}
		bucket.Dropped.WithLabelValues("force_refresh").Inc()
		if c.Reply != nil {
			c.Reply <- control.AckCacheRefreshed
		}
		return nil

	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
}

// clearNamespace drops every bucket carrying the application prefix.
func (w *Worker) clearNamespace(ctx context.Context) error {
	existing, err := w.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("enumerate buckets: %w", err)
	}
	for _, name := range existing {
		if !w.names.Owns(name) {
			continue
		}
		w.logger.Info().Str("bucket", name).Msg("Clear cache: dropping bucket")
		if err := w.store.Drop(ctx, name); err != nil {
			return fmt.Errorf("drop bucket %s: %w", name, err)
		}
		bucket.Dropped.WithLabelValues("clear_cache").Inc()
	}
	return nil
}

// Sync handles a background sync tag by notifying clients to refetch.
// Notify-only: the worker performs no data fetching itself.
func (w *Worker) Sync(tag string, now time.Time) {
	switch tag {
	case control.SyncTag:
		w.hub.Broadcast(control.SyncData{Timestamp: now})
		syncsTotal.WithLabelValues("sync").Inc()
	case control.PeriodicTag:
		w.hub.Broadcast(control.PeriodicSync{Timestamp: now})
		syncsTotal.WithLabelValues("periodic").Inc()
	default:
		w.logger.Debug().Str("tag", tag).Msg("Ignoring unknown sync tag")
	}
}
