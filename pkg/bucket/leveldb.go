package bucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB key layout:
//
//	b:<bucket>               bucket marker
//	e:<bucket>\x00<key>      JSON-encoded Entry
//
// The NUL separator never appears in bucket names or URLs, so prefix
// iteration over "e:<bucket>\x00" enumerates exactly one bucket.
const levelSep = "\x00"

// LevelDB is a Store persisted on local disk, so cached shell assets
// survive gateway restarts while the device is offline.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a LevelDB store at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &LevelDB{db: db}, nil
}

// Close releases the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// DB exposes the underlying handle so other layers can share the same
// database under their own key prefixes.
func (l *LevelDB) DB() *leveldb.DB {
	return l.db
}

func levelEntryKey(bucket, key string) []byte {
	return []byte("e:" + bucket + levelSep + key)
}

// Get retrieves an entry. Returns ErrMiss if absent.
func (l *LevelDB) Get(ctx context.Context, bucket, key string) (*Entry, error) {
	data, err := l.db.Get(levelEntryKey(bucket, key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			Misses.Inc()
			return nil, ErrMiss
		}
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("leveldb get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	Hits.WithLabelValues("leveldb").Inc()
	return &entry, nil
}

// Put stores an entry and the bucket marker in one batch.
func (l *LevelDB) Put(ctx context.Context, bucket, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("bucket entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		Errors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal bucket entry: %w", err)
	}

	batch := new(leveldb.Batch)
	batch.Put(levelEntryKey(bucket, key), data)
	batch.Put([]byte("b:"+bucket), nil)
	if err := l.db.Write(batch, nil); err != nil {
		Errors.WithLabelValues("put").Inc()
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

// Delete removes one entry.
func (l *LevelDB) Delete(ctx context.Context, bucket, key string) error {
	if err := l.db.Delete(levelEntryKey(bucket, key), nil); err != nil {
		Errors.WithLabelValues("delete").Inc()
		return fmt.Errorf("leveldb delete: %w", err)
	}
	return nil
}

// Keys enumerates the keys of one bucket in sorted order.
func (l *LevelDB) Keys(ctx context.Context, bucket string) ([]string, error) {
	prefix := []byte("e:" + bucket + levelSep)
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(bytes.TrimPrefix(it.Key(), prefix)))
	}
	if err := it.Error(); err != nil {
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("leveldb iterate: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Buckets enumerates all bucket names in sorted order.
func (l *LevelDB) Buckets(ctx context.Context) ([]string, error) {
	it := l.db.NewIterator(util.BytesPrefix([]byte("b:")), nil)
	defer it.Release()

	var names []string
	for it.Next() {
		names = append(names, string(bytes.TrimPrefix(it.Key(), []byte("b:"))))
	}
	if err := it.Error(); err != nil {
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("leveldb iterate: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Drop removes a bucket marker and every entry under it.
func (l *LevelDB) Drop(ctx context.Context, bucket string) error {
	prefix := []byte("e:" + bucket + levelSep)
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)

	batch := new(leveldb.Batch)
	for it.Next() {
		k := make([]byte, len(it.Key()))
		copy(k, it.Key())
		batch.Delete(k)
	}
	err := it.Error()
	it.Release()
	if err != nil {
		Errors.WithLabelValues("drop").Inc()
		return fmt.Errorf("leveldb iterate: %w", err)
	}

	batch.Delete([]byte("b:" + bucket))
	if err := l.db.Write(batch, nil); err != nil {
		Errors.WithLabelValues("drop").Inc()
		return fmt.Errorf("leveldb drop: %w", err)
	}
	return nil
}
