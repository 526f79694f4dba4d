package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often the sweeper runs.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes stale auth entries from local storage:
// token bundles past their expiry and payloads that no longer parse.
// The Remember-Me credential is exempt, like in every clear operation.
type Sweeper struct {
	store    Local
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store Local, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// authKey reports whether a storage key belongs to auth state.
func authKey(key string) bool {
	if key == RememberMeKey || key == LegacyRememberMeKey {
		return false
	}
	return strings.Contains(key, "auth") || strings.Contains(key, "supabase") || strings.HasPrefix(key, "sb-")
}

// SweepOnce removes expired and corrupted auth entries, returning how
// many keys were deleted.
func (s *Sweeper) SweepOnce(now time.Time) int {
	keys, err := s.store.Keys()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Sweep: enumerate keys failed")
		return 0
	}

	removed := 0
	for _, key := range keys {
		if !authKey(key) {
			continue
		}
		raw, ok := s.store.Get(key)
		if !ok {
			continue
		}

		var snap Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			s.logger.Info().Str("key", key).Msg("Removing corrupted session data")
			_ = s.store.Delete(key)
			removed++
			continue
		}
		if snap.Expired(now) {
			s.logger.Info().Str("key", key).Msg("Removing expired session")
			_ = s.store.Delete(key)
			removed++
		}
	}
	return removed
}

// Run sweeps on the configured interval until the context is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.SweepOnce(now); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("Sweep completed")
			}
		}
	}
}
