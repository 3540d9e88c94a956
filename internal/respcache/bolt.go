package respcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	responsesBucket = []byte("responses")
	// indexBucket holds only timestamps per key so eviction does not have
	// to decode response bodies.
	indexBucket = []byte("index")
)

type indexEntry struct {
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Bolt keeps entries in a bbolt database file so the cache survives
// restarts.
type Bolt struct {
	MaxItems int
	db       *bbolt.DB
}

func OpenBolt(path string, maxItems int) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{responsesBucket, indexBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache buckets: %w", err)
	}
	return &Bolt{MaxItems: maxItems, db: db}, nil
}

func (b *Bolt) Get(key string) (Entry, bool, error) {
	var (
		e  Entry
		ok bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(responsesBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("decoding entry %q: %w", key, err)
		}
		ok = true
		return nil
	})
	return e, ok, err
}

func (b *Bolt) Put(key string, e Entry) error {
	v, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	iv, err := json.Marshal(indexEntry{StoredAt: e.StoredAt, ExpiresAt: e.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encoding index entry: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		responses, index := tx.Bucket(responsesBucket), tx.Bucket(indexBucket)
		if err := responses.Put([]byte(key), v); err != nil {
			return err
		}
		if err := index.Put([]byte(key), iv); err != nil {
			return err
		}
		if b.MaxItems <= 0 {
			return nil
		}

		var all []keyed
		err := index.ForEach(func(k, v []byte) error {
			var ie indexEntry
			// unreadable index entries sort as expired
			_ = json.Unmarshal(v, &ie)
			all = append(all, keyed{key: string(k), entry: Entry{StoredAt: ie.StoredAt, ExpiresAt: ie.ExpiresAt}})
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range evictionOrder(all, b.MaxItems, e.StoredAt) {
			if err := responses.Delete([]byte(k)); err != nil {
				return err
			}
			if err := index.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bolt) Len() int {
	n := 0
	_ = b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(indexBucket).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n
}

func (b *Bolt) Close() error { return b.db.Close() }
