package position

import (
	"path"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/ondrejsika/audioserve-go/pkg/collection"
	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

// Default bounds for the per-group LRU (§9 SUPPLEMENTED DETAIL: "a
// per-group LRU bounded by a max-folders-per-group and a max-groups
// count"). spec.md does not expose these as CLI flags, so they are
// hardcoded constants rather than invented options.
const (
	defaultMaxGroups          = 100
	defaultMaxFoldersPerGroup = 50
)

// ErrGroupsFull is returned when a brand-new group would exceed
// maxGroups (original_source's services/position/cache.rs: "Positions
// cache is full, all groups taken" — new groups are rejected, existing
// groups are never evicted to make room).
var ErrGroupsFull = errors.New("position: groups cache full")

// ErrOlderThanStored is returned when a deferred (timestamped) update is
// older than the record already stored for the same (group,
// collection, folder) key (§3 invariant I4).
var ErrOlderThanStored = errors.New("position: update older than stored record")

// ErrUnknownCollection flags a protocol-violating reference to a
// collection id the server doesn't have (§4.E "Lifecycle").
var ErrUnknownCollection = errors.New("position: unknown collection")

// Manager owns every group's state and writes each update through to the
// owning collection's KV store (§4.E "Persistence").
type Manager struct {
	registry *collection.Registry
	log      logger.Logger

	maxGroups          int
	maxFoldersPerGroup int

	mu     sync.Mutex
	groups map[string]*groupState
}

// NewManager returns a Manager bound to registry, with empty state. Call
// LoadBackup then, on a miss, LoadFromStores to seed it from prior runs.
func NewManager(registry *collection.Registry, log logger.Logger) *Manager {
	return &Manager{
		registry:           registry,
		log:                log,
		maxGroups:          defaultMaxGroups,
		maxFoldersPerGroup: defaultMaxFoldersPerGroup,
		groups:             make(map[string]*groupState),
	}
}

func (m *Manager) group(name string) (*groupState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.groups[name]; ok {
		return g, nil
	}
	if m.maxGroups > 0 && len(m.groups) >= m.maxGroups {
		return nil, ErrGroupsFull
	}
	g := newGroupState(m.maxFoldersPerGroup)
	m.groups[name] = g
	return g, nil
}

// Update applies an immediate position update (§4.E "Update (long)" and
// "Update (short)", the latter already resolved to its group/col/path by
// the caller's connection state).
func (m *Manager) Update(group string, colID int, relPath string, secs float64, timestampMS int64) (*Record, error) {
	return m.apply(group, colID, relPath, secs, timestampMS, false)
}

// UpdateIfNewer applies a deferred update carrying its own timestamp,
// rejecting it (§3 I4, "dropped silently" at the protocol layer — the
// caller decides whether to log or ignore ErrOlderThanStored) if it is
// older than the record already stored for the same key.
func (m *Manager) UpdateIfNewer(group string, colID int, relPath string, secs float64, unixSeconds int64) (*Record, error) {
	return m.apply(group, colID, relPath, secs, unixSeconds*1000, true)
}

func (m *Manager) apply(group string, colID int, relPath string, secs float64, timestampMS int64, checkMonotonic bool) (*Record, error) {
	col, err := m.registry.Get(colID)
	if err != nil {
		return nil, ErrUnknownCollection
	}

	g, err := m.group(group)
	if err != nil {
		return nil, err
	}

	folder := path.Dir(relPath)
	if folder == "." {
		folder = ""
	}
	file := path.Base(relPath)
	key := recordKey(colID, folder)

	if checkMonotonic {
		if existing := g.get(key); existing != nil && existing.TimestampMS > timestampMS {
			return nil, ErrOlderThanStored
		}
	}

	rec := &Record{File: file, Folder: path.Join(strconv.Itoa(colID), folder), PositionSecs: secs, TimestampMS: timestampMS}
	g.insert(key, rec)

	if err := persist(col, group, key, rec); err != nil {
		m.log.Warn("failed to persist position update", logger.Data{"error": err.Error(), "group": group, "key": key})
	}

	return rec, nil
}

// Query resolves a full "<group>/<col>/<folder_path>" query (§4.E
// "Query"): the folder's own last position plus the group-wide latest.
func (m *Manager) Query(group string, colID int, folder string) (*Response, error) {
	if _, err := m.registry.Get(colID); err != nil {
		return nil, ErrUnknownCollection
	}

	g, err := m.group(group)
	if err != nil {
		return nil, err
	}

	key := recordKey(colID, folder)
	return buildResponse(g.get(key), g.getLast()), nil
}

// GenericQuery resolves a "?"/empty query (§4.E "Generic query"): only the
// group-wide latest. group is resolved by the caller from the connection's
// context (the last long-update's group, or the ?group= given at upgrade
// time — see pkg/position's ServeConn and DESIGN.md's Open Question
// decision on this).
func (m *Manager) GenericQuery(group string) (*Response, error) {
	if group == "" {
		return &Response{}, nil
	}
	g, err := m.group(group)
	if err != nil {
		return nil, err
	}
	return buildResponse(nil, g.getLast()), nil
}

func recordKey(colID int, folder string) string {
	return strconv.Itoa(colID) + "/" + folder
}

func persist(col *collection.Collection, group, key string, rec *Record) error {
	if err := col.Store.PutJSON(kvstore.BucketPositions, []byte(group+"|"+key), rec); err != nil {
		return err
	}
	return col.Store.PutJSON(kvstore.BucketLatest, []byte(group), rec)
}
