// Package bucket implements the versioned cache-bucket model of the
// offline gateway.
//
// A bucket is a named persistent key-value container of HTTP response
// snapshots. At any time at most two buckets are live: the static bucket
// (shell assets pre-cached at install) and the runtime bucket (responses
// captured while serving). Superseded buckets are discovered and deleted
// during activation via the pure Stale function.
//
// # Backends
//
// Three Store implementations are provided:
//
//   - Memory: map-backed, for tests and single-process use
//   - Redis: shared cache across gateway instances
//   - LevelDB: on-disk persistence across restarts
//
// # Basic Usage
//
//	store := bucket.NewMemory()
//	names := bucket.Names{Prefix: "starnetx", Version: "v1.0.0"}
//
//	entry, _ := bucket.FromResponse(url, resp)
//	if bucket.Cacheable(entry.StatusCode) {
//		_ = store.Put(ctx, names.Runtime(), url, entry)
//	}
//
//	cached, err := store.Get(ctx, names.Runtime(), url)
//	if err == bucket.ErrMiss {
//		// fetch from network
//	}
//
// # Reconciliation
//
//	existing, _ := store.Buckets(ctx)
//	for _, name := range bucket.Stale(existing, names) {
//		_ = store.Drop(ctx, name)
//	}
//
// Only buckets carrying the application namespace prefix are ever
// considered for deletion; foreign buckets sharing a store are left alone.
package bucket
