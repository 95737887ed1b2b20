package transcode

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

var cacheBucket = []byte("entries")

// entry is the sidecar record tracked per cached blob, grounded on the same
// size+recency bookkeeping shape as the collection index's other kvstore
// buckets (§4.B "a sidecar KV tracks size and an access-recency list").
type entry struct {
	Size       int64 `json:"size"`
	LastAccess int64 `json:"last_access"`
}

// Cache is the optional content-addressed transcoding cache (§4.B
// "Transcoding cache (optional)").
type Cache struct {
	dir      string
	store    *kvstore.Store
	maxBytes int64
	maxFiles int

	mu sync.Mutex
}

// OpenCache opens (creating if necessary) the cache directory and its
// sidecar store at dir.
func OpenCache(dir string, maxBytes int64, maxFiles int) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.WithStack(err)
	}
	store, err := kvstore.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		return nil, err
	}
	return &Cache{dir: dir, store: store, maxBytes: maxBytes, maxFiles: maxFiles}, nil
}

// Close releases the sidecar store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Key derives the cache key for a source file + profile, per §4.B
// "hash(source_absolute_path || source_mtime || profile_identifier)".
func Key(sourceAbsPath string, sourceMTime int64, profileID string) string {
	h := sha256.New()
	h.Write([]byte(sourceAbsPath))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatInt(sourceMTime, 10)))
	h.Write([]byte("|"))
	h.Write([]byte(profileID))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) blobPath(key string) string {
	return filepath.Join(c.dir, key)
}

// Get returns the cached blob path for key if present, touching its
// access-recency, or ("", false) on a miss.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var e entry
	if err := c.store.GetJSON(cacheBucket, []byte(key), &e); err != nil {
		return "", false
	}
	path := c.blobPath(key)
	if _, err := os.Stat(path); err != nil {
		c.store.Delete(cacheBucket, []byte(key))
		return "", false
	}

	e.LastAccess = nowUnix()
	c.store.PutJSON(cacheBucket, []byte(key), e)

	return path, true
}

// Put tees the reencoder output into a temporary file and returns a
// commit func (atomically renames into the cache and admits the entry,
// then evicts) and an abort func (deletes the partial file), per §4.B
// "Misses tee the reencoder output into a temporary file...".
func (c *Cache) Put(key string) (w *os.File, commit func() error, abort func(), err error) {
	tmp, err := os.CreateTemp(c.dir, "tmp-"+key+"-*")
	if err != nil {
		return nil, nil, nil, errors.WithStack(err)
	}

	abort = func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	commit = func() error {
		info, statErr := tmp.Stat()
		if statErr != nil {
			tmp.Close()
			return errors.WithStack(statErr)
		}
		size := info.Size()
		if closeErr := tmp.Close(); closeErr != nil {
			return errors.WithStack(closeErr)
		}

		dest := c.blobPath(key)
		if err := os.Rename(tmp.Name(), dest); err != nil {
			return errors.WithStack(err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.store.PutJSON(cacheBucket, []byte(key), entry{Size: size, LastAccess: nowUnix()}); err != nil {
			return err
		}
		return c.evictLocked()
	}

	return tmp, commit, abort, nil
}

// evictLocked removes least-recently-used entries until the size and
// count bounds hold (§4.B "Eviction runs when either bound is exceeded").
// Caller must hold c.mu.
func (c *Cache) evictLocked() error {
	type keyed struct {
		key string
		e   entry
	}
	var all []keyed
	var totalSize int64

	err := c.store.ForEach(cacheBucket, func(k, v []byte) error {
		var e entry
		if err := json.Unmarshal(v, &e); err != nil {
			return nil
		}
		all = append(all, keyed{key: string(k), e: e})
		totalSize += e.Size
		return nil
	})
	if err != nil {
		return err
	}

	if (c.maxBytes <= 0 || totalSize <= c.maxBytes) && (c.maxFiles <= 0 || len(all) <= c.maxFiles) {
		return nil
	}

	sort.Slice(all, func(i, j int) bool { return all[i].e.LastAccess < all[j].e.LastAccess })

	for _, k := range all {
		if (c.maxBytes <= 0 || totalSize <= c.maxBytes) && (c.maxFiles <= 0 || len(all) <= c.maxFiles) {
			break
		}
		if err := c.store.Delete(cacheBucket, []byte(k.key)); err != nil {
			return err
		}
		os.Remove(c.blobPath(k.key))
		totalSize -= k.e.Size
		all = all[1:]
	}

	return nil
}

func nowUnix() int64 {
	return time.Now().UnixNano()
}
