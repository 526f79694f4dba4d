package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession indicates no token bundle is mirrored locally.
var ErrNoSession = errors.New("no session stored")

// Snapshot mirrors the external auth provider's token bundle.
type Snapshot struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the expiry as unix seconds. Zero when the provider
	// omitted it; the access token's JWT claim is the fallback.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// Expiry returns the snapshot's expiry time. When the bundle carries no
// explicit expiry, the exp claim is recovered from the access token
// without signature verification (the token is only read, never trusted).
func (s *Snapshot) Expiry() (time.Time, bool) {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0), true
	}
	if s.AccessToken == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the snapshot is past its expiry. Snapshots
// without a recoverable expiry are treated as not expired.
func (s *Snapshot) Expired(now time.Time) bool {
	expiry, ok := s.Expiry()
	if !ok {
		return false
	}
	return now.After(expiry)
}

// Load reads the mirrored session, falling back to the legacy storage
// key once and copying it forward to the current key (the legacy copy
// is left in place until the next Save).
func Load(store Local) (*Snapshot, error) {
	raw, ok := store.Get(StorageKey)
	if !ok {
		raw, ok = store.Get(LegacyStorageKey)
		if !ok {
			return nil, ErrNoSession
		}
		// Copy forward without deleting the legacy key.
		_ = store.Set(StorageKey, raw)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &snap, nil
}

// Save writes the session under the current key and retires the legacy
// key.
func Save(store Local, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := store.Set(StorageKey, string(data)); err != nil {
		return err
	}
	_ = store.Delete(LegacyStorageKey)
	return nil
}

// Remove deletes the mirrored session under both key names.
func Remove(store Local) {
	_ = store.Delete(StorageKey)
	_ = store.Delete(LegacyStorageKey)
}

// Fresh reports whether a session last updated at lastUpdate is younger
// than maxAge.
func Fresh(lastUpdate time.Time, maxAge time.Duration, now time.Time) bool {
	return now.Sub(lastUpdate) < maxAge
}
