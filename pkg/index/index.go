package index

import (
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/ondrejsika/audioserve-go/pkg/collection"
	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

// onDemandTimeout bounds the synchronous fetch-on-miss described in §4.A
// "Startup scan": "a folder whose record is missing is fetched
// synchronously on demand with a short timeout".
const onDemandTimeout = 3 * time.Second

// Index is the synchronous read contract over one collection's indexed
// tree, plus the derived search and recent views (§4.A "Contract").
type Index struct {
	Collection *collection.Collection
	Options    IngestOptions
	Log        logger.Logger

	Search *SearchIndex
	Recent *RecentRing
}

// New builds an Index for col. It does not scan; call (*Scanner).FullScan
// or VerificationWalk to populate it.
func New(col *collection.Collection, opts IngestOptions, log logger.Logger) *Index {
	return &Index{
		Collection: col,
		Options:    opts,
		Log:        log,
		Search:     NewSearchIndex(),
		Recent:     NewRecentRing(),
	}
}

// ListFolder returns the FolderRecord for rel, ingesting it synchronously
// on a cache miss (§4.A "a folder whose record is missing is fetched
// synchronously on demand with a short timeout").
func (idx *Index) ListFolder(rel string) (*FolderRecord, error) {
	var record FolderRecord
	err := idx.Collection.Store.GetJSON(kvstore.BucketFolders, []byte(rel), &record)
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		return nil, err
	}

	done := make(chan struct{})
	var fetched *FolderRecord
	var fetchErr error
	go func() {
		fetched, fetchErr = idx.ingestAndPublish(rel)
		close(done)
	}()

	select {
	case <-done:
		return fetched, fetchErr
	case <-time.After(onDemandTimeout):
		return nil, errors.New("index: on-demand fetch timed out")
	}
}

// ingestAndPublish ingests rel, writes it to the store, and updates the
// derived search/recent views (§4.A step 6 "Write the record; publish an
// 'updated' event to the search index").
func (idx *Index) ingestAndPublish(rel string) (*FolderRecord, error) {
	record, err := Ingest(idx.Collection, rel, idx.Options, idx.Log)
	if err != nil {
		return nil, err
	}

	if err := idx.Collection.Store.PutJSON(kvstore.BucketFolders, []byte(rel), record); err != nil {
		return nil, err
	}

	idx.Search.Update(rel, record.MTime)
	idx.Recent.Update(rel, record.MTime)

	return record, nil
}

// RemoveFolder drops rel from the store and derived views, called when the
// watcher observes the directory has vanished.
func (idx *Index) RemoveFolder(rel string) error {
	if err := idx.Collection.Store.Delete(kvstore.BucketFolders, []byte(rel)); err != nil {
		return err
	}
	idx.Search.Remove(rel)
	idx.Recent.Remove(rel)
	return nil
}

// SearchFolders runs a conjunctive substring search (§4.A "Search").
func (idx *Index) SearchFolders(query string, order Order) []string {
	return idx.Search.Search(query, order)
}

// RecentFolders returns the top-64-by-mtime folder list (§4.A "Recent").
func (idx *Index) RecentFolders() []string {
	return idx.Recent.Top(recentCapacity)
}
