// Package kvstore is the per-collection embedded key-value store described
// in §3/§6: one bbolt database per collection, bucket-per-concern, single
// writer with concurrent snapshot readers (§5 "Shared-resource policy").
package kvstore

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	bolt "go.etcd.io/bbolt"
)

// Bucket names, one per concern held in a collection's store.
var (
	BucketFolders   = []byte("folders")
	BucketPositions = []byte("positions")
	BucketLatest    = []byte("latest") // group -> latest PositionRecord, the §3 secondary index
	BucketMeta      = []byte("meta")   // scan bookkeeping: last-scan timestamps, force-rescan markers
)

var allBuckets = [][]byte{BucketFolders, BucketPositions, BucketLatest, BucketMeta}

// Store wraps a single collection's bbolt database.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if necessary) the bbolt database at path and ensures
// every bucket this package uses exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open kvstore %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database file. §3 "dropped at shutdown".
func (s *Store) Close() error {
	return errors.WithStack(s.db.Close())
}

// Path returns the on-disk path of the store's database file.
func (s *Store) Path() string {
	return s.path
}

// PutJSON marshals v and writes it under key in bucket, in one write
// transaction.
func (s *Store) PutJSON(bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	}))
}

// GetJSON reads the value under key in bucket into v. It returns
// ErrNotFound if the key is absent, from a point-in-time snapshot read
// (§5 "readers use point-in-time snapshots").
func (s *Store) GetJSON(bucket, key []byte, v interface{}) error {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucket).Get(key)
		if raw == nil {
			return ErrNotFound
		}
		data = append(data, raw...)
		return nil
	})
	if err != nil {
		return err
	}
	return errors.WithStack(json.Unmarshal(data, v))
}

// Delete removes key from bucket. Deleting an absent key is a no-op.
func (s *Store) Delete(bucket, key []byte) error {
	return errors.WithStack(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	}))
}

// ErrNotFound is returned by GetJSON when the key is absent from the bucket.
var ErrNotFound = errors.New("kvstore: key not found")

// ForEach iterates every key/value pair in bucket within a single read
// transaction, calling fn with the raw JSON bytes. Iteration stops and
// ForEach returns fn's error if fn returns non-nil.
func (s *Store) ForEach(bucket []byte, fn func(key, value []byte) error) error {
	return errors.WithStack(s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(fn)
	}))
}

// Update runs fn inside a single read-write transaction against the raw
// bbolt handle, for callers (e.g. pkg/position) that need multi-bucket
// atomicity that PutJSON/GetJSON don't expose.
func (s *Store) Update(fn func(tx *bolt.Tx) error) error {
	return errors.WithStack(s.db.Update(fn))
}

// View runs fn inside a single read-only transaction.
func (s *Store) View(fn func(tx *bolt.Tx) error) error {
	return errors.WithStack(s.db.View(fn))
}
