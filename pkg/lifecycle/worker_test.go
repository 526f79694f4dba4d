package lifecycle

import (
	"context"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/starline-networks/pwa-gateway/internal/testutil"
	"github.com/starline-networks/pwa-gateway/pkg/bucket"
	"github.com/starline-networks/pwa-gateway/pkg/control"
)

var testManifest = []string{
	"/",
	"/index.html",
	"/site.webmanifest",
	"/starnetx-logo.svg",
	"/favicon.png",
	"/apple-touch-icon.png",
}

func newTestWorker(t *testing.T, origin *testutil.MockOrigin, store bucket.Store) (*Worker, *control.Hub) {
	t.Helper()

	hub := control.NewHub()
	w, err := NewWorker(Config{
		Store:      store,
		Names:      bucket.Names{Prefix: "starnetx", Version: "v1.0.0"},
		Origin:     origin.Transport(),
		OriginBase: origin.URL(),
		Manifest:   testManifest,
		Hub:        hub,
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewWorker failed: %v", err)
	}
	return w, hub
}

func TestInstall_PopulatesExactlyManifest(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	store := bucket.NewMemory()
	w, _ := newTestWorker(t, origin, store)
	ctx := context.Background()

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if w.State() != Waiting {
		t.Errorf("state after install = %v, want Waiting", w.State())
	}

	keys, err := store.Keys(ctx, "starnetx-cache-v1.0.0")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}

	want := make(map[string]bool, len(testManifest))
	for _, p := range testManifest {
		want[p] = true
	}
	if len(keys) != len(testManifest) {
		t.Fatalf("static bucket has %d entries, want %d: %v", len(keys), len(testManifest), keys)
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected pre-cached key %q", k)
		}
	}
}

func TestInstall_SendsCacheBustingDirective(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w, _ := newTestWorker(t, origin, bucket.NewMemory())
	if err := w.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if got := origin.LastHeader.Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want %q", got, "no-cache")
	}
}

func TestInstall_BestEffortOnFailure(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/favicon.png", testutil.MockResponse{StatusCode: http.StatusInternalServerError})

	store := bucket.NewMemory()
	w, _ := newTestWorker(t, origin, store)
	ctx := context.Background()

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install should not fail on a bad asset: %v", err)
	}
	if w.State() != Waiting {
		t.Errorf("state = %v, want Waiting", w.State())
	}

	// The failed asset is simply absent.
	if _, err := store.Get(ctx, "starnetx-cache-v1.0.0", "/favicon.png"); err != bucket.ErrMiss {
		t.Errorf("failed asset should not be cached, got err = %v", err)
	}
	if _, err := store.Get(ctx, "starnetx-cache-v1.0.0", "/index.html"); err != nil {
		t.Errorf("healthy asset missing: %v", err)
	}
}

func TestActivate_DeletesExactlyLegacyBucket(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	store := bucket.NewMemory()
	ctx := context.Background()

	seed := &bucket.Entry{URL: "/x", Body: []byte("x"), StatusCode: 200, Header: http.Header{}}
	for _, name := range []string{
		"starnetx-cache-v1.0.0",
		"starnetx-runtime-v1.0.0",
		"starnetx-cache-v0.9.0",
	} {
		if err := store.Put(ctx, name, "/x", seed); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	w, _ := newTestWorker(t, origin, store)
	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	names, err := store.Buckets(ctx)
	if err != nil {
		t.Fatalf("Buckets failed: %v", err)
	}
	want := []string{"starnetx-cache-v1.0.0", "starnetx-runtime-v1.0.0"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Buckets after activation = %v, want %v", names, want)
	}
	if w.State() != Active {
		t.Errorf("state = %v, want Active", w.State())
	}
}

func TestActivate_BroadcastsVersion(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w, hub := newTestWorker(t, origin, bucket.NewMemory())
	client := hub.Attach(1)
	defer client.Close()

	ctx := context.Background()
	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	select {
	case n := <-client.Notifications():
		updated, ok := n.(control.WorkerUpdated)
		if !ok {
			t.Fatalf("got %T, want WorkerUpdated", n)
		}
		if updated.Version != "v1.0.0" {
			t.Errorf("version = %q, want %q", updated.Version, "v1.0.0")
		}
	default:
		t.Fatal("no WorkerUpdated notification")
	}
}

func TestHandle_ClearCache(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	store := bucket.NewMemory()
	ctx := context.Background()

	seed := &bucket.Entry{URL: "/x", Body: []byte("x"), StatusCode: 200, Header: http.Header{}}
	for _, name := range []string{
		"starnetx-cache-v1.0.0",
		"starnetx-runtime-v1.0.0",
		"other-app-cache",
	} {
		if err := store.Put(ctx, name, "/x", seed); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	w, _ := newTestWorker(t, origin, store)

	reply := make(chan control.Ack, 1)
	if err := w.Handle(ctx, control.ClearCache{Reply: reply}); err != nil {
		t.Fatalf("Handle(ClearCache) failed: %v", err)
	}

	select {
	case ack := <-reply:
		if ack != control.AckCacheCleared {
			t.Errorf("ack = %q, want %q", ack, control.AckCacheCleared)
		}
	default:
		t.Fatal("no confirmation posted on reply port")
	}

	names, err := store.Buckets(ctx)
	if err != nil {
		t.Fatalf("Buckets failed: %v", err)
	}
	if want := []string{"other-app-cache"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Buckets after ClearCache = %v, want %v", names, want)
	}
}

func TestHandle_ForceRefreshPreservesStatic(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	store := bucket.NewMemory()
	ctx := context.Background()

	seed := &bucket.Entry{URL: "/x", Body: []byte("x"), StatusCode: 200, Header: http.Header{}}
	if err := store.Put(ctx, "starnetx-cache-v1.0.0", "/x", seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := store.Put(ctx, "starnetx-runtime-v1.0.0", "/x", seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	w, _ := newTestWorker(t, origin, store)

	reply := make(chan control.Ack, 1)
	if err := w.Handle(ctx, control.ForceRefresh{Reply: reply}); err != nil {
		t.Fatalf("Handle(ForceRefresh) failed: %v", err)
	}
	if ack := <-reply; ack != control.AckCacheRefreshed {
		t.Errorf("ack = %q, want %q", ack, control.AckCacheRefreshed)
	}

	if _, err := store.Get(ctx, "starnetx-runtime-v1.0.0", "/x"); err != bucket.ErrMiss {
		t.Errorf("runtime entry should be gone, err = %v", err)
	}
	if _, err := store.Get(ctx, "starnetx-cache-v1.0.0", "/x"); err != nil {
		t.Errorf("static entry should survive: %v", err)
	}
}

func TestHandle_SkipWaitingActivates(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w, _ := newTestWorker(t, origin, bucket.NewMemory())
	ctx := context.Background()

	// SkipWaiting before install is a no-op.
	if err := w.Handle(ctx, control.SkipWaiting{}); err != nil {
		t.Fatalf("Handle(SkipWaiting) failed: %v", err)
	}
	if w.State() != Installing {
		t.Errorf("state = %v, want Installing", w.State())
	}

	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := w.Handle(ctx, control.SkipWaiting{}); err != nil {
		t.Fatalf("Handle(SkipWaiting) failed: %v", err)
	}
	if w.State() != Active {
		t.Errorf("state = %v, want Active", w.State())
	}
}

func TestSync_Broadcasts(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	w, hub := newTestWorker(t, origin, bucket.NewMemory())
	client := hub.Attach(2)
	defer client.Close()

	now := time.Now()
	w.Sync(control.SyncTag, now)
	w.Sync(control.PeriodicTag, now)
	w.Sync("unknown-tag", now)

	var got []control.Notification
	for i := 0; i < 2; i++ {
		select {
		case n := <-client.Notifications():
			got = append(got, n)
		default:
			t.Fatalf("expected 2 notifications, got %d", len(got))
		}
	}

	if _, ok := got[0].(control.SyncData); !ok {
		t.Errorf("first notification = %T, want SyncData", got[0])
	}
	if _, ok := got[1].(control.PeriodicSync); !ok {
		t.Errorf("second notification = %T, want PeriodicSync", got[1])
	}

	select {
	case n := <-client.Notifications():
		t.Fatalf("unknown tag should not broadcast, got %T", n)
	default:
	}
}
