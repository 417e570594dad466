// Package catalog discovers type definitions in archives and directory trees
// and indexes the resulting type handles by canonical name.
package catalog

import (
	"iter"
	"sort"
)

// Catalog maps canonical names to type handles. Consumers only read it; the
// Loader is the only writer. A catalog returned by a load is safe for
// concurrent reads. Loader.Add mutates it in place and must not run
// concurrently with readers.
type Catalog struct {
	types map[string]*TypeHandle
}

// New returns an empty catalog, ready for Loader.Add.
func New() *Catalog {
	return &Catalog{types: make(map[string]*TypeHandle)}
}

// Lookup returns the handle for name. A miss is reported by ok == false.
func (c *Catalog) Lookup(name string) (h *TypeHandle, ok bool) {
	h, ok = c.types[name]
	return h, ok
}

// Entries yields every (name, handle) pair in unspecified order. The
// sequence can be ranged over repeatedly.
func (c *Catalog) Entries() iter.Seq2[string, *TypeHandle] {
	return func(yield func(string, *TypeHandle) bool) {
		for name, h := range c.types {
			if !yield(name, h) {
				return
			}
		}
	}
}

// Len returns the number of cataloged types.
func (c *Catalog) Len() int { return len(c.types) }

// Names returns all canonical names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// put inserts or replaces; the newest handle for a name wins.
func (c *Catalog) put(name string, h *TypeHandle) {
	c.types[name] = h
}
