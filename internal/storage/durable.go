package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketName = []byte("verisimdb")

// DurableBackend is a single-file B-tree backend. Read transactions are
// concurrent; write transactions are serialised internally by bbolt itself.
// Grounded on cuemby-warren's pkg/storage/boltdb.go bucket-per-concern idiom,
// collapsed to a single bucket since namespacing is handled one layer up by
// the typed store (spec.md §4.1 "Typed namespacing").
type DurableBackend struct {
	db     *bolt.DB
	pool   *blockingPool
	log    *zap.Logger
	maxKey int
	maxVal int
}

// DurableOptions configures a DurableBackend.
type DurableOptions struct {
	Path          string
	PoolSize      int
	MaxKeyBytes   int
	MaxValueBytes int
}

// OpenDurable opens (creating if absent) a single-file durable backend.
func OpenDurable(opts DurableOptions, log *zap.Logger) (*DurableBackend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, &CorruptionError{Detail: "create data directory: " + err.Error()}
	}

	db, err := bolt.Open(opts.Path, 0o600, nil)
	if err != nil {
		return nil, &CorruptionError{Detail: err.Error()}
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &CorruptionError{Detail: err.Error()}
	}

	maxKey := opts.MaxKeyBytes
	if maxKey <= 0 {
		maxKey = 1024
	}
	maxVal := opts.MaxValueBytes
	if maxVal <= 0 {
		maxVal = 32 * 1024 * 1024
	}

	log.Info("durable storage backend opened", zap.String("path", opts.Path))
	return &DurableBackend{
		db:     db,
		pool:   newBlockingPool(opts.PoolSize),
		log:    log,
		maxKey: maxKey,
		maxVal: maxVal,
	}, nil
}

func (d *DurableBackend) Limits() (int, int) { return d.maxKey, d.maxVal }

func (d *DurableBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := d.pool.run(ctx, func() error {
		return d.db.View(func(tx *bolt.Tx) error {
			v := tx.Bucket(bucketName).Get(key)
			if v != nil {
				value = append([]byte(nil), v...)
				found = true
			}
			return nil
		})
	})
	return value, found, err
}

func (d *DurableBackend) Put(ctx context.Context, key, value []byte) error {
	if err := checkLimits(d, key, value); err != nil {
		return err
	}
	return d.pool.run(ctx, func() error {
		return d.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketName).Put(key, value)
		})
	})
}

func (d *DurableBackend) Delete(ctx context.Context, key []byte) (bool, error) {
	var existed bool
	err := d.pool.run(ctx, func() error {
		return d.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketName)
			if b.Get(key) != nil {
				existed = true
			}
			return b.Delete(key)
		})
	})
	return existed, err
}

func (d *DurableBackend) Exists(ctx context.Context, key []byte) (bool, error) {
	_, found, err := d.Get(ctx, key)
	return found, err
}

func (d *DurableBackend) ScanPrefix(ctx context.Context, prefix []byte, limit int) ([]Entry, error) {
	var out []Entry
	err := d.pool.run(ctx, func() error {
		return d.db.View(func(tx *bolt.Tx) error {
			c := tx.Bucket(bucketName).Cursor()
			for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
				out = append(out, Entry{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
				if limit > 0 && len(out) >= limit {
					break
				}
			}
			return nil
		})
	})
	return out, err
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (d *DurableBackend) MultiGet(ctx context.Context, keys [][]byte) ([][]byte, []bool, error) {
	values := make([][]byte, len(keys))
	found := make([]bool, len(keys))
	err := d.pool.run(ctx, func() error {
		return d.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketName)
			for i, k := range keys {
				if v := b.Get(k); v != nil {
					values[i] = append([]byte(nil), v...)
					found[i] = true
				}
			}
			return nil
		})
	})
	return values, found, err
}

// BatchPut is atomic by construction: a single bolt write transaction either
// commits every Put or none of them.
func (d *DurableBackend) BatchPut(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := checkLimits(d, e.Key, e.Value); err != nil {
			return err
		}
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return string(sorted[i].Key) < string(sorted[j].Key) })

	return d.pool.run(ctx, func() error {
		return d.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketName)
			for _, e := range sorted {
				if err := b.Put(e.Key, e.Value); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// Flush fsyncs the database file, guaranteeing acknowledged writes survive a crash.
func (d *DurableBackend) Flush(ctx context.Context) error {
	return d.pool.run(ctx, func() error {
		return d.db.Sync()
	})
}

func (d *DurableBackend) ApproximateSize(_ context.Context) (uint64, bool) {
	info, err := os.Stat(d.db.Path())
	if err != nil {
		return 0, false
	}
	return uint64(info.Size()), true
}

func (d *DurableBackend) Close() error { return d.db.Close() }
