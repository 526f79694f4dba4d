package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/starline-networks/pwa-gateway/pkg/bucket"
	"github.com/starline-networks/pwa-gateway/pkg/config"
	"github.com/starline-networks/pwa-gateway/pkg/control"
	"github.com/starline-networks/pwa-gateway/pkg/lifecycle"
	"github.com/starline-networks/pwa-gateway/pkg/logging"
	"github.com/starline-networks/pwa-gateway/pkg/policy"
	"github.com/starline-networks/pwa-gateway/pkg/router"
	"github.com/starline-networks/pwa-gateway/pkg/session"
)

func main() {
	configPath := flag.String("config", "", "path to the gateway YAML config (empty: environment only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Gateway failed")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	store, levelDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if levelDB != nil {
		defer levelDB.Close()
	}

	names := bucket.Names{Prefix: cfg.Cache.Prefix, Version: cfg.Cache.Version}
	patterns := policy.DefaultPatterns().Extend(cfg.Cache.NoCache...)

	hub := control.NewHub()
	go logNotifications(ctx, hub, logger)

	worker, err := lifecycle.NewWorker(lifecycle.Config{
		Store:      store,
		Names:      names,
		OriginBase: cfg.Server.Origin,
		Manifest:   cfg.Cache.Manifest,
		Hub:        hub,
		Logger:     logging.NewLogger("lifecycle"),
	})
	if err != nil {
		return fmt.Errorf("lifecycle worker: %w", err)
	}
	if err := worker.Install(ctx); err != nil {
		return fmt.Errorf("install: %w", err)
	}
	// There is no previous worker generation in a fresh process;
	// promote immediately instead of waiting.
	if err := worker.SkipWaiting(ctx); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	rt, err := router.New(router.Config{
		Store:    store,
		Names:    names,
		Patterns: patterns,
		Logger:   logging.NewLogger("router"),
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	if levelDB != nil {
		runSessionGuard(ctx, levelDB, cfg)
	}

	originURL, err := url.Parse(cfg.Server.Origin)
	if err != nil {
		return fmt.Errorf("origin url: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", proxyHandler(rt, originURL, logger))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("origin", cfg.Server.Origin).
			Str("backend", cfg.Storage.Backend).
			Str("version", cfg.Cache.Version).
			Msg("Gateway listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	rt.Wait()
	return nil
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

// openStore builds the configured bucket store. The LevelDB handle is
// returned as well when that backend is selected so the session layer
// can share the database.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (bucket.Store, *leveldb.DB, error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info().Str("addr", cfg.Storage.Redis.Addr).Msg("Connected to Redis")
		return bucket.NewRedis(client), nil, nil

	case config.BackendLevelDB:
		store, err := bucket.OpenLevelDB(cfg.Storage.LevelDB.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open leveldb: %w", err)
		}
		logger.Info().Str("path", cfg.Storage.LevelDB.Path).Msg("Opened LevelDB store")
		return store, store.DB(), nil

	default:
		return bucket.NewMemory(), nil, nil
	}
}

// runSessionGuard runs the bootstrap guard once over the persisted
// local state and starts the background session sweeper.
func runSessionGuard(ctx context.Context, db *leveldb.DB, cfg config.Config) {
	local := session.NewLevelLocal(db)
	guardLogger := logging.NewLogger("session")

	guard := session.NewGuard(session.GuardConfig{
		Auth:       originAuth{base: cfg.Server.Origin},
		Wiper:      session.StorageWiper{Store: local},
		Navigator:  logNavigator{logger: guardLogger},
		Flags:      session.NewMemoryLocal(),
		Local:      local,
		LoginRoute: cfg.Session.LoginRoute,
		Logger:     guardLogger,
	})
	// A process restart with a persisted session is the hard-reload case.
	outcome := guard.Run(ctx, session.Timing{Type: session.Reload})
	guardLogger.Info().Str("outcome", outcome.String()).Msg("Bootstrap guard finished")

	sweeper := session.NewSweeper(local, session.DefaultSweepInterval, guardLogger)
	go sweeper.Run(ctx)
}

// originAuth signs out against the origin's auth endpoint.
type originAuth struct {
	base string
}

func (a originAuth) SignOut(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("logout returned status %d", resp.StatusCode)
	}
	return nil
}

// logNavigator records forced navigations; the gateway has no browser
// window to move, clients land on the login route on their next load.
type logNavigator struct {
	logger zerolog.Logger
}

func (n logNavigator) Navigate(route string) {
	n.logger.Info().Str("route", route).Msg("Forcing navigation")
}

// logNotifications drains a hub client into the log.
func logNotifications(ctx context.Context, hub *control.Hub, logger zerolog.Logger) {
	client := hub.Attach(16)
	defer client.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-client.Notifications():
			if !ok {
				return
			}
			switch msg := n.(type) {
			case control.WorkerUpdated:
				logger.Info().Str("version", msg.Version).Msg("Worker updated")
			case control.SyncData:
				logger.Debug().Time("at", msg.Timestamp).Msg("Sync broadcast")
			case control.PeriodicSync:
				logger.Debug().Time("at", msg.Timestamp).Msg("Periodic sync broadcast")
			}
		}
	}
}

// proxyHandler forwards requests through the router, rewriting them to
// the configured origin.
func proxyHandler(rt *router.Router, origin *url.URL, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outbound := r.Clone(r.Context())
		outbound.RequestURI = ""
		outbound.URL.Scheme = origin.Scheme
		outbound.URL.Host = origin.Host
		outbound.Host = origin.Host

		resp, err := rt.Do(outbound)
		if err != nil {
			if errors.Is(err, router.ErrOriginUnreachable) {
				http.Error(w, "origin unreachable", http.StatusBadGateway)
			} else {
				http.Error(w, "gateway error", http.StatusInternalServerError)
			}
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
			return
		}
		defer resp.Body.Close()

		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to write response body")
		}
	})
}
