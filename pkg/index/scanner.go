package index

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"

	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

// FullScan walks every directory under the collection root and ingests it,
// used on first run or when --force-cache-update is set (§4.A "Startup
// scan").
func FullScan(idx *Index) error {
	return filepath.WalkDir(idx.Collection.Root, func(absPath string, d os.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if !d.IsDir() {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 && !idx.Options.AllowSymlinks {
			return filepath.SkipDir
		}

		rel, err := idx.Collection.RelPath(absPath)
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}

		if _, err := idx.ingestAndPublish(rel); err != nil {
			idx.Log.Warn("failed to ingest folder during full scan", logger.Data{"path": rel, "error": err.Error()})
		}
		return nil
	})
}

// VerificationWalk re-ingests only the stored folders whose on-disk mtime
// has diverged from the stored record, and drops records whose directory
// no longer exists (§4.A "schedule a background verification walk").
func VerificationWalk(idx *Index) error {
	var toReingest []string
	var toRemove []string

	err := idx.Collection.Store.ForEach(kvstore.BucketFolders, func(key, value []byte) error {
		rel := string(key)
		abs := idx.Collection.AbsPath(rel)

		info, statErr := os.Stat(abs)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				toRemove = append(toRemove, rel)
				return nil
			}
			return errors.WithStack(statErr)
		}

		var record FolderRecord
		if err := unmarshalRecord(value, &record); err != nil {
			toReingest = append(toReingest, rel)
			return nil
		}
		if info.ModTime().Unix() != record.MTime {
			toReingest = append(toReingest, rel)
		} else {
			idx.Search.Update(rel, record.MTime)
			idx.Recent.Update(rel, record.MTime)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, rel := range toRemove {
		if err := idx.RemoveFolder(rel); err != nil {
			idx.Log.Warn("failed to remove vanished folder", logger.Data{"path": rel, "error": err.Error()})
		}
	}
	for _, rel := range toReingest {
		if _, err := idx.ingestAndPublish(rel); err != nil {
			idx.Log.Warn("failed to re-ingest changed folder", logger.Data{"path": rel, "error": err.Error()})
		}
	}

	return nil
}

func unmarshalRecord(data []byte, record *FolderRecord) error {
	return errors.WithStack(json.Unmarshal(data, record))
}
