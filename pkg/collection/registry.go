package collection

import (
	"github.com/pkg/errors"

	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

// Registry is the process-wide, immutable-after-startup ordered list of
// collections, indexed by id (§9 "no singletons" — one Registry is built at
// startup and passed by handle).
type Registry struct {
	byID []*Collection
}

// NewRegistry builds a Registry from resolved collection specs, opening one
// store per collection through mgr. Collection ids are assigned by
// positional order, starting at 0 (§3, §4.D default collection id 0).
func NewRegistry(specs []Spec, mgr *kvstore.Manager) (*Registry, error) {
	r := &Registry{}
	for i, spec := range specs {
		c, err := New(i, spec.Root, spec.NoCache, spec.Options, mgr)
		if err != nil {
			return nil, err
		}
		r.byID = append(r.byID, c)
	}
	return r, nil
}

// Spec is the resolved input to NewRegistry, one per positional collection
// root argument.
type Spec struct {
	Root    string
	NoCache bool
	Options Options
}

// Get returns the collection for id, or an error if id is out of range.
func (r *Registry) Get(id int) (*Collection, error) {
	if id < 0 || id >= len(r.byID) {
		return nil, errors.Errorf("no such collection: %d", id)
	}
	return r.byID[id], nil
}

// All returns every collection in id order.
func (r *Registry) All() []*Collection {
	return r.byID
}

// Names returns collection names in id order, for the /collections endpoint.
func (r *Registry) Names() []string {
	names := make([]string, len(r.byID))
	for i, c := range r.byID {
		names[i] = c.Name
	}
	return names
}

// Count returns the number of registered collections.
func (r *Registry) Count() int {
	return len(r.byID)
}

// Close closes every collection's store.
func (r *Registry) Close() error {
	var firstErr error
	for _, c := range r.byID {
		if err := c.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
