package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

// Package runlog keeps a local journal of completed sync runs so operators
// can inspect recent outcomes without trawling logs.

const runBucket = "sync_runs"

// Options controls retention for the journal.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// Journal is a bbolt-backed record of SyncResults keyed by run start time.
type Journal struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
}

// Open initializes the journal file, creating parent directories as needed.
func Open(path string, opts Options) (*Journal, error) {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create runlog directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open runlog db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init runlog bucket: %w", err)
	}

	j := &Journal{
		db:              db,
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
	}
	j.lastCleanup.Store(time.Now().Unix())
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one completed run. Keys are the zero-padded unix-nano run
// start time so bucket order matches chronology.
func (j *Journal) Record(result domain.SyncResult) error {
	if j == nil || j.db == nil {
		return nil
	}

	if err := j.maybeCleanupExpired(time.Now()); err != nil {
		return err
	}

	startedAt := result.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	key := []byte(fmt.Sprintf("%020d", startedAt.UnixNano()))

	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode sync result: %w", err)
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}
		return bucket.Put(key, value)
	})
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(limit int) ([]domain.SyncResult, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var out []domain.SyncResult
	err := j.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}

		c := bucket.Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var result domain.SyncResult
			if err := json.Unmarshal(v, &result); err != nil {
				continue // skip unreadable entries rather than failing the listing
			}
			out = append(out, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// maybeCleanupExpired drops entries older than the TTL, at most once per
// cleanup interval.
func (j *Journal) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(j.lastCleanup.Load(), 0)
	if now.Sub(last) < j.cleanupInterval {
		return nil
	}

	j.cleanupMu.Lock()
	defer j.cleanupMu.Unlock()

	last = time.Unix(j.lastCleanup.Load(), 0)
	if now.Sub(last) < j.cleanupInterval {
		return nil
	}

	cutoff := now.Add(-j.ttl).UTC()
	err := j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}

		c := bucket.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			var nanos int64
			_, err := fmt.Sscanf(string(k), "%d", &nanos)
			if err != nil || time.Unix(0, nanos).Before(cutoff) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cleanup expired runs: %w", err)
	}

	j.lastCleanup.Store(now.Unix())
	return nil
}
