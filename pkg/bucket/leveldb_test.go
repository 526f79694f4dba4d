package bucket

import (
	"context"
	"reflect"
	"testing"
)

func TestLevelDB_RoundTrip(t *testing.T) {
	store, err := OpenLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenLevelDB failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Put(ctx, "static", "/", testEntry("/", "<html/>")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "runtime", "/app.js", testEntry("/app.js", "js")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "static", "/")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != "<html/>" {
		t.Errorf("Body = %q, want %q", got.Body, "<html/>")
	}

	names, err := store.Buckets(ctx)
	if err != nil {
		t.Fatalf("Buckets failed: %v", err)
	}
	if want := []string{"runtime", "static"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Buckets = %v, want %v", names, want)
	}

	if err := store.Drop(ctx, "runtime"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, err := store.Get(ctx, "runtime", "/app.js"); err != ErrMiss {
		t.Errorf("Get after Drop: err = %v, want ErrMiss", err)
	}
	names, err = store.Buckets(ctx)
	if err != nil {
		t.Fatalf("Buckets failed: %v", err)
	}
	if want := []string{"static"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Buckets after Drop = %v, want %v", names, want)
	}
}

func TestLevelDB_MissOnEmpty(t *testing.T) {
	store, err := OpenLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenLevelDB failed: %v", err)
	}
	defer store.Close()

	if _, err := store.Get(context.Background(), "runtime", "/a"); err != ErrMiss {
		t.Errorf("Get on empty store: err = %v, want ErrMiss", err)
	}
}

func TestLevelDB_KeysPrefixIsolation(t *testing.T) {
	store, err := OpenLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenLevelDB failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// "run" is a name-prefix of "runtime"; key iteration must not bleed
	// between the two buckets.
	if err := store.Put(ctx, "run", "/a", testEntry("/a", "1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "runtime", "/b", testEntry("/b", "2")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	keys, err := store.Keys(ctx, "run")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if want := []string{"/a"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys(run) = %v, want %v", keys, want)
	}
}
