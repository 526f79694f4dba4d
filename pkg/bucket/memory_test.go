package bucket

import (
	"context"
	"net/http"
	"reflect"
	"testing"
	"time"
)

func testEntry(url, body string) *Entry {
	return &Entry{
		URL:        url,
		Body:       []byte(body),
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		CachedAt:   time.Now(),
	}
}

func TestMemory_PutGet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Put(ctx, "runtime", "/a", testEntry("/a", "one")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "runtime", "/a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != "one" {
		t.Errorf("Body = %q, want %q", got.Body, "one")
	}

	if _, err := store.Get(ctx, "runtime", "/missing"); err != ErrMiss {
		t.Errorf("Get missing key: err = %v, want ErrMiss", err)
	}
	if _, err := store.Get(ctx, "nope", "/a"); err != ErrMiss {
		t.Errorf("Get missing bucket: err = %v, want ErrMiss", err)
	}
}

func TestMemory_OverwriteConverges(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Put(ctx, "runtime", "/a", testEntry("/a", "old")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "runtime", "/a", testEntry("/a", "new")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "runtime", "/a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != "new" {
		t.Errorf("Body = %q, want %q", got.Body, "new")
	}
}

func TestMemory_KeysAndBuckets(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	for _, key := range []string{"/b", "/a", "/c"} {
		if err := store.Put(ctx, "static", key, testEntry(key, key)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := store.Put(ctx, "runtime", "/x", testEntry("/x", "x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	keys, err := store.Keys(ctx, "static")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if want := []string{"/a", "/b", "/c"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys = %v, want %v", keys, want)
	}

	names, err := store.Buckets(ctx)
	if err != nil {
		t.Fatalf("Buckets failed: %v", err)
	}
	if want := []string{"runtime", "static"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Buckets = %v, want %v", names, want)
	}
}

func TestMemory_Drop(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Put(ctx, "runtime", "/a", testEntry("/a", "one")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Drop(ctx, "runtime"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	if _, err := store.Get(ctx, "runtime", "/a"); err != ErrMiss {
		t.Errorf("Get after Drop: err = %v, want ErrMiss", err)
	}
	names, err := store.Buckets(ctx)
	if err != nil {
		t.Fatalf("Buckets failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Buckets after Drop = %v, want empty", names)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Put(ctx, "runtime", "/a", testEntry("/a", "abc")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	first, err := store.Get(ctx, "runtime", "/a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	first.Body[0] = 'z'

	second, err := store.Get(ctx, "runtime", "/a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(second.Body) != "abc" {
		t.Errorf("stored entry mutated through returned copy: %q", second.Body)
	}
}
