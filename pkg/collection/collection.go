// Package collection holds the Collection type and the process-wide
// registry that maps collection ids to their roots, options and stores
// (§3 "Collection").
package collection

import (
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"

	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

// Collection is an identified, read-only media root owning a hashed
// on-disk key-value store.
type Collection struct {
	ID       int
	Name     string
	Root     string // absolute, normalized
	NoCache  bool

	CollapseCDFolders bool
	CDFolderRegexp    *regexp.Regexp

	Store *kvstore.Store
}

// Options bundles the CD-folder collapse settings a Collection copies from
// the process-wide Config; a collection's positional-argument suffix does
// not change them.
type Options struct {
	CollapseCDFolders bool
	CDFolderRegexp    *regexp.Regexp
}

// New normalizes root and constructs a Collection with id and store
// already resolved through mgr.
func New(id int, root string, noCache bool, opts Options, mgr *kvstore.Manager) (*Collection, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	abs = filepath.Clean(abs)

	store, err := mgr.Open(id, abs)
	if err != nil {
		return nil, errors.Wrapf(err, "open store for collection %d (%s)", id, abs)
	}

	return &Collection{
		ID:                id,
		Name:              filepath.Base(abs),
		Root:              abs,
		NoCache:           noCache,
		CollapseCDFolders: opts.CollapseCDFolders,
		CDFolderRegexp:    opts.CDFolderRegexp,
		Store:             store,
	}, nil
}

// AbsPath resolves a collection-relative path to an absolute filesystem
// path under the collection root.
func (c *Collection) AbsPath(rel string) string {
	if rel == "" || rel == "." {
		return c.Root
	}
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// RelPath converts an absolute path under the collection root back into a
// forward-slash relative path.
func (c *Collection) RelPath(abs string) (string, error) {
	rel, err := filepath.Rel(c.Root, abs)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return filepath.ToSlash(rel), nil
}
