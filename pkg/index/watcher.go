package index

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// debounceWindow is the §4.A "Watcher" default: "debounce events per
// parent-directory for a short window (default 2s)".
const debounceWindow = 2 * time.Second

const maxBackoff = 30 * time.Second

// Watcher subscribes to recursive file-system notifications for one
// collection root and re-ingests debounced, affected parent directories.
type Watcher struct {
	idx *Index

	mu      sync.Mutex
	pending map[string]*time.Timer
	visited map[string]bool // real paths visited within a walk, cycle guard

	stop chan struct{}
}

// NewWatcher builds a Watcher for idx. Call Run to start it.
func NewWatcher(idx *Index) *Watcher {
	return &Watcher{
		idx:     idx,
		pending: make(map[string]*time.Timer),
		stop:    make(chan struct{}),
	}
}

// Run subscribes to every directory under the collection root and blocks,
// processing events until Stop is called. On a watcher stream failure it
// re-subscribes with exponential backoff capped at 30s and performs a full
// verification walk on recovery (§4.A "Failure semantics").
func (w *Watcher) Run() {
	backoff := time.Second
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		fw, err := w.subscribe()
		if err != nil {
			w.idx.Log.Warn("watcher subscribe failed, retrying", logger.Data{"error": err.Error(), "backoff": backoff.String()})
			select {
			case <-time.After(backoff):
			case <-w.stop:
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = time.Second
		w.eventLoop(fw)
		fw.Close()

		if err := VerificationWalk(w.idx); err != nil {
			w.idx.Log.Warn("verification walk after watcher recovery failed", logger.Data{"error": err.Error()})
		}
	}
}

// Stop terminates Run.
func (w *Watcher) Stop() {
	close(w.stop)
}

func (w *Watcher) subscribe() (*fsnotify.Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	visited := make(map[string]bool)
	err = filepath.WalkDir(w.idx.Collection.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if !d.IsDir() {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 && !w.idx.Options.AllowSymlinks {
			return filepath.SkipDir
		}
		real, err := filepath.EvalSymlinks(path)
		if err == nil {
			if visited[real] {
				return filepath.SkipDir
			}
			visited[real] = true
		}
		return fw.Add(path)
	})
	if err != nil {
		fw.Close()
		return nil, err
	}

	return fw, nil
}

func (w *Watcher) eventLoop(fw *fsnotify.Watcher) {
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.idx.Log.Warn("watcher stream error", logger.Data{"error": err.Error()})
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	parent := filepath.Dir(event.Name)
	w.scheduleDebounced(parent)
}

// scheduleDebounced coalesces repeated events for the same parent directory
// into a single re-ingestion after debounceWindow of quiet (§4.A).
func (w *Watcher) scheduleDebounced(absParent string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[absParent]; ok {
		t.Stop()
	}
	w.pending[absParent] = time.AfterFunc(debounceWindow, func() {
		w.flush(absParent)
	})
}

func (w *Watcher) flush(absParent string) {
	w.mu.Lock()
	delete(w.pending, absParent)
	w.mu.Unlock()

	rel, err := w.idx.Collection.RelPath(absParent)
	if err != nil {
		return
	}
	if rel == "." {
		rel = ""
	}

	if _, err := os.Stat(absParent); err != nil {
		if os.IsNotExist(err) {
			if err := w.idx.RemoveFolder(rel); err != nil {
				w.idx.Log.Warn("failed to remove vanished folder", logger.Data{"path": rel, "error": err.Error()})
			}
			return
		}
		w.idx.Log.Warn("failed to stat changed folder", logger.Data{"path": rel, "error": err.Error()})
		return
	}

	if _, err := w.idx.ingestAndPublish(rel); err != nil {
		w.idx.Log.Warn("failed to re-ingest changed folder", logger.Data{"path": rel, "error": err.Error()})
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
