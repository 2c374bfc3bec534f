package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketSettings  = []byte("settings")
	bucketSnapshots = []byte("snapshots")
)

// snapshotEntry is the persisted form of a query's record snapshot
type snapshotEntry struct {
	Query   string          `json:"query"`
	SavedAt int64           `json:"saved_at"`
	Records []domain.Record `json:"records"`
}

// DB is the local BoltDB cache. It holds persisted settings and the
// record snapshot of the current query.
type DB struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// Open opens (or creates) the cache database. An empty baseDir selects
// memory-only mode with no persistence.
func Open(baseDir, sourceURL string) (*DB, error) {
	if baseDir == "" {
		return &DB{cache: make(map[string][]byte)}, nil
	}

	dir := baseDir
	if sourceURL != "" {
		dir = filepath.Join(baseDir, hashKey(sourceURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "reel.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSettings, bucketSnapshots} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, cache: make(map[string][]byte)}, nil
}

func hashKey(s string) string {
	normalized := strings.TrimRight(strings.ToLower(s), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *DB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *DB) getRaw(bucket []byte, key string) ([]byte, bool) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil, false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data, true
}

func (s *DB) setRaw(bucket []byte, key string, data []byte) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *DB) delete(bucket []byte, key string) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *DB) deletePrefix(bucket []byte, prefix string) error {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		// Collect first: deleting under a live cursor skips keys
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Settings (raw key/value, consumed by the settings package) ===

// Get returns the raw value stored for a settings key
func (s *DB) Get(key string) ([]byte, bool) {
	return s.getRaw(bucketSettings, key)
}

// Set stores a raw settings value
func (s *DB) Set(key string, value []byte) error {
	return s.setRaw(bucketSettings, key, value)
}

// Delete removes a settings key
func (s *DB) Delete(key string) error {
	return s.delete(bucketSettings, key)
}

// === Snapshots (key: q:{hash(query key)}) ===

func snapshotKey(queryKey string) string {
	return "q:" + hashKey(queryKey)
}

// SaveSnapshot persists the ordered records of a query
func (s *DB) SaveSnapshot(queryKey string, records []domain.Record) error {
	data, err := json.Marshal(snapshotEntry{
		Query:   queryKey,
		SavedAt: time.Now().Unix(),
		Records: records,
	})
	if err != nil {
		return err
	}
	return s.setRaw(bucketSnapshots, snapshotKey(queryKey), data)
}

// LoadSnapshot returns the persisted records of a query
func (s *DB) LoadSnapshot(queryKey string) ([]domain.Record, bool) {
	data, ok := s.getRaw(bucketSnapshots, snapshotKey(queryKey))
	if !ok {
		return nil, false
	}
	var entry snapshotEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	// Hash collisions are not worth a second lookup structure
	if entry.Query != queryKey {
		return nil, false
	}
	return entry.Records, true
}

// DiscardSnapshot removes the persisted records of a query
func (s *DB) DiscardSnapshot(queryKey string) error {
	return s.delete(bucketSnapshots, snapshotKey(queryKey))
}

// InvalidateSnapshots removes every persisted snapshot
func (s *DB) InvalidateSnapshots() error {
	return s.deletePrefix(bucketSnapshots, "q:")
}
