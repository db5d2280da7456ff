package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	prefsBucket   = []byte("prefs")
	historyBucket = []byte("history")
)

// ErrNotFound is returned for keys that were never written.
var ErrNotFound = errors.New("not found")

// MaxHistory bounds the recent-query list.
const MaxHistory = 20

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{prefsBucket, historyBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetBool persists a boolean preference.
func (s *Store) SetBool(key string, value bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return tx.Bucket(prefsBucket).Put([]byte(key), data)
	})
}

// GetBool reads a boolean preference. Absent or unreadable keys are false.
func (s *Store) GetBool(key string) bool {
	var v bool
	if err := s.getPref(key, &v); err != nil {
		return false
	}
	return v
}

func (s *Store) getPref(key string, into any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(prefsBucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("pref %q: %w", key, ErrNotFound)
		}
		return json.Unmarshal(data, into)
	})
}

// AddHistory records a query as the most recent. An earlier identical query
// is moved rather than duplicated, and the list is trimmed to MaxHistory.
func (s *Store) AddHistory(entry HistoryEntry) error {
	if entry.At.IsZero() {
		entry.At = s.now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)

		var stale [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var h HistoryEntry
			if err := json.Unmarshal(v, &h); err != nil || h.sameQuery(entry) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := b.Put(historyKey(entry.At), data); err != nil {
			return err
		}

		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for len(keys) > MaxHistory {
			if err := b.Delete(keys[0]); err != nil {
				return err
			}
			keys = keys[1:]
		}
		return nil
	})
}

// RecentQueries returns up to n entries, newest first. n <= 0 means all.
func (s *Store) RecentQueries(n int) ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(out) >= n {
				break
			}
			var h HistoryEntry
			if err := json.Unmarshal(v, &h); err != nil {
				continue
			}
			out = append(out, h)
		}
		return nil
	})
	return out, err
}

func historyKey(t time.Time) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(t.UnixNano()))
	return k
}
