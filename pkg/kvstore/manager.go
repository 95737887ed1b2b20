package kvstore

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// DirName returns the store directory name for a collection root, per §4.A
// "identify the store by hash(absolute_normalized_path) || last_segment":
// <last_segment>_<hex16>.
func DirName(absNormalizedRoot string) string {
	sum := sha256.Sum256([]byte(absNormalizedRoot))
	hex16 := hex.EncodeToString(sum[:8])
	last := filepath.Base(absNormalizedRoot)
	return last + "_" + hex16
}

// Manager owns one Store per collection, opened under
// <dataDir>/col_db/<DirName(root)>/collection.db.
type Manager struct {
	dataDir string

	mu     sync.Mutex
	stores map[int]*Store
}

// NewManager returns a Manager rooted at dataDir.
func NewManager(dataDir string) *Manager {
	return &Manager{
		dataDir: dataDir,
		stores:  make(map[int]*Store),
	}
}

// Open opens or creates the store for the collection identified by id and
// absNormalizedRoot, remembering it for later Get/CloseAll calls.
func (m *Manager) Open(id int, absNormalizedRoot string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[id]; ok {
		return s, nil
	}

	dir := filepath.Join(m.dataDir, "col_db", DirName(absNormalizedRoot))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.WithStack(err)
	}

	s, err := Open(filepath.Join(dir, "collection.db"))
	if err != nil {
		return nil, err
	}

	m.stores[id] = s
	return s, nil
}

// Get returns the already-opened store for a collection id, or nil.
func (m *Manager) Get(id int) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores[id]
}

// Close closes and forgets the store for a single collection, isolating a
// corrupted collection without affecting others (§7 "Corruption").
func (m *Manager) Close(id int) error {
	m.mu.Lock()
	s, ok := m.stores[id]
	delete(m.stores, id)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Close()
}

// CloseAll closes every open store. Called on graceful shutdown.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	stores := m.stores
	m.stores = make(map[int]*Store)
	m.mu.Unlock()

	var firstErr error
	for _, s := range stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
