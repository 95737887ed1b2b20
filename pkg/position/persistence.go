package position

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

// backupGroup is the on-disk shape of one group's state in the JSON
// backup file (§4.E "Persistence": "an optional cron-like backup dumps all
// positions to a JSON file atomically"), grounded on original_source's
// services/position/cache.rs CacheInner serialization.
type backupGroup struct {
	Order   []string           `json:"order"`
	Records map[string]*Record `json:"records"`
}

type backupFile struct {
	Groups map[string]backupGroup `json:"groups"`
}

// LoadBackup seeds the manager from a JSON backup file written by Save, if
// one is present. A missing file is not an error — the manager simply
// starts empty, mirroring original_source's Cache::new logging and
// continuing on NotFound.
func (m *Manager) LoadBackup(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	var bf backupFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return false, errors.Wrap(err, "parse positions backup")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, bg := range bf.Groups {
		g := newGroupState(m.maxFoldersPerGroup)
		g.order = append([]string{}, bg.Order...)
		for k, v := range bg.Records {
			g.records[k] = v
			if g.last == nil || v.TimestampMS > g.last.TimestampMS {
				g.last = v
			}
		}
		shrink(g, m.maxFoldersPerGroup)
		m.groups[name] = g
	}
	return true, nil
}

// shrink trims a freshly loaded group down to at most maxSize entries,
// dropping the oldest first (original_source's CacheInner::shrink, applied
// when the configured bound has tightened since the backup was written).
func shrink(g *groupState, maxSize int) {
	if maxSize <= 0 {
		return
	}
	for len(g.order) > maxSize {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.records, oldest)
	}
}

// LoadFromStores reconstructs group state from every collection's
// BucketPositions bucket, used as a fallback when no backup file is
// configured or present.
func (m *Manager) LoadFromStores() error {
	for _, col := range m.registry.All() {
		err := col.Store.ForEach(kvstore.BucketPositions, func(k, v []byte) error {
			group, key, ok := strings.Cut(string(k), "|")
			if !ok {
				return nil
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}

			m.mu.Lock()
			g, ok := m.groups[group]
			if !ok {
				if m.maxGroups > 0 && len(m.groups) >= m.maxGroups {
					m.mu.Unlock()
					return nil
				}
				g = newGroupState(m.maxFoldersPerGroup)
				m.groups[group] = g
			}
			m.mu.Unlock()

			g.insert(key, &rec)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Save atomically dumps every group's state to path: write to a temp file
// in the same directory, then rename over it (§4.E "Persistence"). This is
// stricter than original_source's plain fs::File::create, chosen because
// §4.E explicitly calls for atomicity.
func (m *Manager) Save(path string) error {
	if path == "" {
		return nil
	}

	m.mu.Lock()
	names := make([]string, 0, len(m.groups))
	groups := make(map[string]*groupState, len(m.groups))
	for name, g := range m.groups {
		names = append(names, name)
		groups[name] = g
	}
	m.mu.Unlock()

	bf := backupFile{Groups: make(map[string]backupGroup, len(names))}
	for _, name := range names {
		order, records := groups[name].snapshot()
		bf.Groups[name] = backupGroup{Order: order, Records: records}
	}

	data, err := json.Marshal(bf)
	if err != nil {
		return errors.WithStack(err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.WithStack(err)
		}
	}

	tmp, err := os.CreateTemp(dir, "positions-*.json.tmp")
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmp.Name(), path))
}
