// Package router executes the gateway's caching strategies: every GET
// request is classified once, then served network-only, cache-first, or
// network-first against the versioned buckets.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/starline-networks/pwa-gateway/pkg/bucket"
	"github.com/starline-networks/pwa-gateway/pkg/policy"
)

// DefaultShellPath is the cached document served to offline navigations.
const DefaultShellPath = "/index.html"

// Config holds router configuration.
type Config struct {
	// Origin is the transport requests are forwarded through.
	Origin http.RoundTripper

	// Store is the bucket storage backend.
	Store bucket.Store

	// Names are the two current bucket names.
	Names bucket.Names

	// Patterns is the no-cache pattern set.
	Patterns policy.PatternSet

	// ShellPath is the pre-cached document used as offline fallback
	// for navigations. Defaults to DefaultShellPath.
	ShellPath string

	// Logger for request handling.
	Logger zerolog.Logger
}

// Router applies one caching strategy per request. Classification is
// fully decided before any asynchronous work begins, so a request is
// never reclassified mid-flight.
type Router struct {
	origin    http.RoundTripper
	store     bucket.Store
	names     bucket.Names
	patterns  policy.PatternSet
	shellPath string
	logger    zerolog.Logger

	refresh singleflight.Group
	refreshTracker
}

// New creates a router.
func New(cfg Config) (*Router, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Origin == nil {
		cfg.Origin = http.DefaultTransport
	}
	if cfg.ShellPath == "" {
		cfg.ShellPath = DefaultShellPath
	}
	return &Router{
		origin:    cfg.Origin,
		store:     cfg.Store,
		names:     cfg.Names,
		patterns:  cfg.Patterns,
		shellPath: cfg.ShellPath,
		logger:    cfg.Logger,
	}, nil
}

// requestKey is the storage key for a request: path plus query, stable
// across hosts so pre-cached shell paths and runtime entries share one
// keyspace.
func requestKey(req *http.Request) string {
	if req.URL.RawQuery != "" {
		return req.URL.Path + "?" + req.URL.RawQuery
	}
	return req.URL.Path
}

// Do handles one request according to its classified strategy.
func (r *Router) Do(req *http.Request) (*http.Response, error) {
	strategy := policy.Classify(req, r.patterns)

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(strategy.String()).Observe(time.Since(start).Seconds())
	}()

	switch strategy {
	case policy.Bypass:
		// Never intercepted; the probe sees the request unmodified.
		return r.origin.RoundTrip(req)
	case policy.NetworkOnly:
		return r.networkOnly(req)
	case policy.CacheFirst:
		return r.cacheFirst(req)
	default:
		return r.networkFirst(req)
	}
}

// networkOnly forwards the request as-is and never touches a bucket.
// Network failure becomes a structured offline 503 instead of an error.
func (r *Router) networkOnly(req *http.Request) (*http.Response, error) {
	resp, err := r.origin.RoundTrip(req)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("path", req.URL.Path).
			Msg("Network request failed, synthesizing offline response")
		requestsTotal.WithLabelValues("network_only", "offline").Inc()
		return offlineResponse(), nil
	}
	requestsTotal.WithLabelValues("network_only", "ok").Inc()
	return resp, nil
}

// cacheFirst serves a cached match immediately and refreshes it in the
// background; misses fetch synchronously and store before returning.
func (r *Router) cacheFirst(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	key := requestKey(req)

	if entry, err := r.lookup(ctx, key); err == nil {
		requestsTotal.WithLabelValues("cache_first", "hit").Inc()
		r.refreshAsync(req, key)
		return entry.Response(), nil
	}

	resp, err := r.origin.RoundTrip(req)
	if err != nil {
		if policy.IsDocument(req) {
			if shell, serr := r.lookup(ctx, r.shellPath); serr == nil {
				requestsTotal.WithLabelValues("cache_first", "shell_fallback").Inc()
				return shell.Response(), nil
			}
		}
		requestsTotal.WithLabelValues("cache_first", "error").Inc()
		return nil, unreachable(policy.CacheFirst, err)
	}

	if bucket.Cacheable(resp.StatusCode) {
		r.storeBestEffort(ctx, key, resp)
	}
	requestsTotal.WithLabelValues("cache_first", "miss").Inc()
	return resp, nil
}

// networkFirst fetches, stores a copy of successful responses, and
// falls back to a cached match on failure. No synthesized error here:
// with no cached match the failure propagates.
func (r *Router) networkFirst(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	key := requestKey(req)

	resp, err := r.origin.RoundTrip(req)
	if err == nil {
		if bucket.Cacheable(resp.StatusCode) {
			r.storeBestEffort(ctx, key, resp)
		}
		requestsTotal.WithLabelValues("network_first", "ok").Inc()
		return resp, nil
	}

	if entry, lerr := r.lookup(ctx, key); lerr == nil {
		requestsTotal.WithLabelValues("network_first", "cache_fallback").Inc()
		return entry.Response(), nil
	}

	// Offline navigations without an exact match still get the shell.
	if policy.IsDocument(req) {
		if shell, serr := r.lookup(ctx, r.shellPath); serr == nil {
			requestsTotal.WithLabelValues("network_first", "shell_fallback").Inc()
			return shell.Response(), nil
		}
	}

	requestsTotal.WithLabelValues("network_first", "error").Inc()
	return nil, unreachable(policy.NetworkFirst, err)
}

// lookup searches both live buckets, static first.
func (r *Router) lookup(ctx context.Context, key string) (*bucket.Entry, error) {
	for _, name := range r.names.Current() {
		entry, err := r.store.Get(ctx, name, key)
		if err == nil {
			return entry, nil
		}
		if err != bucket.ErrMiss {
			r.logger.Warn().Err(err).Str("bucket", name).Str("key", key).Msg("Bucket lookup error")
		}
	}
	return nil, bucket.ErrMiss
}

// storeBestEffort writes a response copy into the runtime bucket.
// Failures are logged only; they never affect the response path.
func (r *Router) storeBestEffort(ctx context.Context, key string, resp *http.Response) {
	entry, err := bucket.FromResponse(key, resp)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Failed to snapshot response")
		return
	}
	if err := r.store.Put(ctx, r.names.Runtime(), key, entry); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Failed to store response")
	}
}

// refreshAsync re-fetches a served-from-cache asset in a detached task.
// The client never waits on it; failures are swallowed. Concurrent
// refreshes for the same key collapse into one fetch.
func (r *Router) refreshAsync(req *http.Request, key string) {
	clone := req.Clone(context.WithoutCancel(req.Context()))

	r.track(func() {
		r.refresh.Do(key, func() (any, error) {
			resp, err := r.origin.RoundTrip(clone)
			if err != nil {
				refreshesTotal.WithLabelValues("error").Inc()
				return nil, nil // silent background failure
			}
			defer resp.Body.Close()

			if bucket.Cacheable(resp.StatusCode) {
				r.storeBestEffort(clone.Context(), key, resp)
				refreshesTotal.WithLabelValues("ok").Inc()
			} else {
				refreshesTotal.WithLabelValues("skipped").Inc()
			}
			return nil, nil
		})
	})
}
