package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/funvibe/reflector/internal/registry"
	"github.com/funvibe/reflector/internal/typedef"
	"github.com/funvibe/reflector/internal/utils"
)

// definitionSource reads definition files by slash-separated path relative
// to the scope of a loading context.
type definitionSource interface {
	ReadFile(name string) ([]byte, error)
}

// fsSource adapts a directory root.
type fsSource struct {
	fsys fs.FS
}

func (s fsSource) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(s.fsys, name)
}

// LoadContext resolves definitions within one scope: a whole archive, or a
// directory root. Every definition in the scope can require any other, and a
// name resolved twice yields the same handle. Contexts are never shared
// between unrelated scopes.
type LoadContext struct {
	id        uuid.UUID
	origin    string
	archive   bool
	src       definitionSource
	reg       *registry.Registry
	handles   map[string]*TypeHandle
	resolving map[string]bool
}

func newLoadContext(src definitionSource, origin string, archive bool, reg *registry.Registry) *LoadContext {
	return &LoadContext{
		id:        uuid.New(),
		origin:    origin,
		archive:   archive,
		src:       src,
		reg:       reg,
		handles:   make(map[string]*TypeHandle),
		resolving: make(map[string]bool),
	}
}

// ID returns the context's identifier, shared by every handle it loads.
func (c *LoadContext) ID() uuid.UUID { return c.id }

// Resolve loads name from wherever its definition lives in the scope.
func (c *LoadContext) Resolve(name string) (*TypeHandle, error) {
	if h, ok := c.handles[name]; ok {
		return h, nil
	}
	for _, p := range utils.DefinitionPaths(name) {
		if _, err := c.src.ReadFile(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", c.sourcePath(p), err)
		}
		return c.Load(name, p)
	}
	return nil, fmt.Errorf("%s in %s: %w", name, c.origin, ErrTypeNotFound)
}

// Load loads the definition stored at path under the canonical name name.
func (c *LoadContext) Load(name, path string) (*TypeHandle, error) {
	if h, ok := c.handles[name]; ok {
		return h, nil
	}
	if c.resolving[name] {
		return nil, fmt.Errorf("%s: %w", name, ErrRequireCycle)
	}
	c.resolving[name] = true
	defer delete(c.resolving, name)

	data, err := c.src.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.sourcePath(path), err)
	}
	def, err := typedef.Parse(data, name)
	if err != nil {
		return nil, err
	}
	for _, req := range def.Requires {
		if _, err := c.Resolve(req); err != nil {
			return nil, fmt.Errorf("%s requires %s: %w", name, req, err)
		}
	}
	b, ok := c.reg.Lookup(def.Binding)
	if !ok {
		return nil, fmt.Errorf("%s: %w %s", name, ErrUnknownBinding, def.Binding)
	}

	h := &TypeHandle{
		name:      name,
		source:    c.sourcePath(path),
		contextID: c.id,
		binding:   b,
		def:       def,
	}
	c.handles[name] = h
	return h, nil
}

func (c *LoadContext) sourcePath(path string) string {
	return entryPath(c.origin, path, c.archive)
}

// entryPath formats where a definition lives: "archive.zip!/a/B.type" for
// archive entries, or the file path under a directory root.
func entryPath(origin, rel string, archive bool) string {
	if archive {
		return origin + "!/" + rel
	}
	return filepath.Join(origin, filepath.FromSlash(rel))
}
