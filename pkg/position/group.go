package position

import "sync"

// groupState is one group's serialized view: a folder-keyed LRU bounded by
// maxSize, plus the group's most-recently-written record. The mutex is the
// "per-group actor" §4.E requires ("all reads and writes for a given group
// are serialized") — the same serialize-with-a-mutex shape pkg/transcode's
// Cache already uses for its own bookkeeping.
//
// Grounded on original_source's services/position/cache.rs CacheInner: a
// per-group LinkedHashMap evicting its oldest entry (pop_front) once the
// group exceeds maxSize.
type groupState struct {
	mu      sync.Mutex
	order   []string // LRU order of "<col>/<folder>" keys, oldest first
	records map[string]*Record
	last    *Record
	maxSize int
}

func newGroupState(maxSize int) *groupState {
	return &groupState{records: make(map[string]*Record), maxSize: maxSize}
}

// insert unconditionally stores rec under key, moving it to the back of the
// LRU order and updating the group's latest, evicting the oldest entry if
// the group is now over maxSize.
func (g *groupState) insert(key string, rec *Record) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.records[key]; exists {
		g.touchLocked(key)
	} else {
		g.order = append(g.order, key)
	}
	g.records[key] = rec
	g.last = rec

	if g.maxSize > 0 && len(g.order) > g.maxSize {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.records, oldest)
	}
}

func (g *groupState) touchLocked(key string) {
	for i, k := range g.order {
		if k == key {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.order = append(g.order, key)
}

func (g *groupState) get(key string) *Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.records[key]
}

func (g *groupState) getLast() *Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func (g *groupState) snapshot() (order []string, records map[string]*Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order = append([]string{}, g.order...)
	records = make(map[string]*Record, len(g.records))
	for k, v := range g.records {
		records[k] = v
	}
	return order, records
}
