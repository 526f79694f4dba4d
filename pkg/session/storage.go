// Package session implements the auth-session mirror and the startup
// bootstrap guard that wipes local credentials on detected hard reloads.
package session

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Storage keys. The auth token moved namespaces once; reads fall back
// to the legacy key and migrate forward.
const (
	// StorageKey holds the mirrored auth token bundle.
	StorageKey = "sb-starline-auth-token"

	// LegacyStorageKey is the pre-migration token key.
	LegacyStorageKey = "sb-starnetx-auth-token"

	// RememberMeKey holds the persisted (email, password, flag) tuple.
	// Every clear operation special-cases and preserves it.
	RememberMeKey = "starline_auth_data"

	// LegacyRememberMeKey is the pre-migration Remember-Me key.
	LegacyRememberMeKey = "starnetx_auth_data"
)

// Session-scoped flag keys used by the bootstrap guard.
const (
	// FlagRefreshDetected marks that the current load is the product
	// of a just-performed wipe redirect.
	FlagRefreshDetected = "app_refresh_detected"

	// FlagWasAuthenticated marks that a user signed in this session.
	FlagWasAuthenticated = "app_was_authenticated"
)

// Local is device-local key-value storage.
// Implementations must be safe for concurrent use.
type Local interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool)

	// Set stores a value.
	Set(key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys enumerates all stored keys.
	Keys() ([]string, error)
}

// MemoryLocal is an in-process Local, used for session-scoped flags and
// in tests.
type MemoryLocal struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryLocal creates an empty store.
func NewMemoryLocal() *MemoryLocal {
	return &MemoryLocal{data: make(map[string]string)}
}

func (m *MemoryLocal) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryLocal) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryLocal) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryLocal) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// LevelLocal persists local storage on disk under an "ls:" key prefix,
// so it can share a database with the bucket store.
type LevelLocal struct {
	db *leveldb.DB
}

const levelLocalPrefix = "ls:"

// NewLevelLocal wraps an open LevelDB database.
func NewLevelLocal(db *leveldb.DB) *LevelLocal {
	if db == nil {
		panic("leveldb handle cannot be nil")
	}
	return &LevelLocal{db: db}
}

func (l *LevelLocal) Get(key string) (string, bool) {
	data, err := l.db.Get([]byte(levelLocalPrefix+key), nil)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (l *LevelLocal) Set(key, value string) error {
	if err := l.db.Put([]byte(levelLocalPrefix+key), []byte(value), nil); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

func (l *LevelLocal) Delete(key string) error {
	if err := l.db.Delete([]byte(levelLocalPrefix+key), nil); err != nil {
		return fmt.Errorf("leveldb delete: %w", err)
	}
	return nil
}

func (l *LevelLocal) Keys() ([]string, error) {
	it := l.db.NewIterator(util.BytesPrefix([]byte(levelLocalPrefix)), nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(bytes.TrimPrefix(it.Key(), []byte(levelLocalPrefix))))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("leveldb iterate: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// ClearPreservingRememberMe removes every key from the store except the
// Remember-Me credential, which is read first (current or legacy key)
// and restored under the current key afterwards.
func ClearPreservingRememberMe(store Local) error {
	remembered, ok := store.Get(RememberMeKey)
	if !ok {
		remembered, ok = store.Get(LegacyRememberMeKey)
	}

	keys, err := store.Keys()
	if err != nil {
		return fmt.Errorf("enumerate keys: %w", err)
	}
	for _, key := range keys {
		if err := store.Delete(key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}

	if ok {
		if err := store.Set(RememberMeKey, remembered); err != nil {
			return fmt.Errorf("restore remember-me: %w", err)
		}
	}
	return nil
}
