package cache

import (
	"fmt"
	"time"

	"github.com/artyom/imagedups/internal/fingerprint"
	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("fingerprints")

// Bolt is a cache persisted in a bbolt database file.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates database file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

func (c *Bolt) Get(k Key) (fingerprint.Fingerprint, bool, error) {
	var e entry
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(k.Path))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &e)
	})
	if err != nil {
		return fingerprint.Fingerprint{}, false, fmt.Errorf("reading cache entry %s: %w", k.Path, err)
	}
	if !found || !e.matches(k) {
		return fingerprint.Fingerprint{}, false, nil
	}
	f, err := e.fingerprint(k.Path)
	if err != nil {
		return fingerprint.Fingerprint{}, false, err
	}
	return f, true, nil
}

// Put stores fingerprint. Concurrent calls are coalesced into shared write
// transactions.
func (c *Bolt) Put(k Key, f fingerprint.Fingerprint) error {
	v, err := json.Marshal(newEntry(k, f))
	if err != nil {
		return err
	}
	return c.db.Batch(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(k.Path), v)
	})
}

// Len returns number of stored entries.
func (c *Bolt) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n, err
}

func (c *Bolt) Close() error { return c.db.Close() }
