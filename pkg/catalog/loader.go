package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/funvibe/reflector/internal/archive"
	"github.com/funvibe/reflector/internal/config"
	"github.com/funvibe/reflector/internal/registry"
	"github.com/funvibe/reflector/internal/utils"
)

// Loader scans archives and directory trees into catalogs.
//
// Per-entry problems never abort a scan: they are collected in the returned
// LoadReport. A load call only fails when its top-level path cannot be
// opened or listed.
type Loader struct {
	registry *registry.Registry
	logger   *slog.Logger
	nested   bool
	exclude  []glob.Glob
}

// Option configures a Loader.
type Option func(*Loader) error

// WithRegistry resolves bindings in reg instead of registry.Default.
func WithRegistry(reg *registry.Registry) Option {
	return func(l *Loader) error {
		if reg == nil {
			return fmt.Errorf("nil registry")
		}
		l.registry = reg
		return nil
	}
}

// WithLogger sets the logger used for per-entry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			return fmt.Errorf("nil logger")
		}
		l.logger = logger
		return nil
	}
}

// WithNestedArchives controls whether Add descends into archives found while
// walking a directory. LoadDirectory takes the flag explicitly.
func WithNestedArchives(nested bool) Option {
	return func(l *Loader) error {
		l.nested = nested
		return nil
	}
}

// WithExclude skips paths matching any of the glob patterns. Patterns are
// matched against slash-separated paths relative to the scan root (or to the
// archive root for archive entries); "/" is the glob separator.
func WithExclude(patterns ...string) Option {
	return func(l *Loader) error {
		for _, p := range patterns {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return fmt.Errorf("invalid exclude pattern %q: %w", p, err)
			}
			l.exclude = append(l.exclude, g)
		}
		return nil
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{
		registry: registry.Default,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadArchive catalogs every type definition in the archive at path, all
// loaded through one context bound to the archive.
func (l *Loader) LoadArchive(path string) (*Catalog, *LoadReport, error) {
	c := New()
	report := &LoadReport{}
	if err := l.addArchive(c, report, path); err != nil {
		return nil, nil, err
	}
	return c, report, nil
}

// LoadDirectory walks root recursively and catalogs every type definition
// file, plus the contents of archives found on the way when nested is true.
func (l *Loader) LoadDirectory(root string, nested bool) (*Catalog, *LoadReport, error) {
	c := New()
	report := &LoadReport{}
	if err := l.addDirectory(c, report, root, nested); err != nil {
		return nil, nil, err
	}
	return c, report, nil
}

// Add scans path (an archive or a directory) into an existing catalog.
// Existing names are replaced by newer handles.
func (l *Loader) Add(c *Catalog, path string) (*LoadReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("adding %s: %w", path, err)
	}
	report := &LoadReport{}
	switch {
	case info.IsDir():
		err = l.addDirectory(c, report, path, l.nested)
	case config.HasArchiveExt(path):
		err = l.addArchive(c, report, path)
	default:
		err = fmt.Errorf("adding %s: not an archive or directory", path)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (l *Loader) addArchive(c *Catalog, report *LoadReport, path string) error {
	r, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx := newLoadContext(r, path, true, l.registry)
	l.logger.Debug("scanning archive", "path", path, "context", ctx.ID())

	for entry := range r.Entries() {
		if !utils.IsTypeFile(entry.Name) || l.excluded(entry.Name) {
			continue
		}
		where := entryPath(path, entry.Name, true)
		name, err := utils.CanonicalName(entry.Name)
		if err != nil {
			l.record(report, where, err)
			continue
		}
		h, err := ctx.Load(name, entry.Name)
		if err != nil {
			l.record(report, where, err)
			continue
		}
		l.insert(c, name, h)
	}
	return nil
}

func (l *Loader) addDirectory(c *Catalog, report *LoadReport, root string, nested bool) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scanning %s: not a directory", root)
	}
	src := fsSource{fsys: os.DirFS(root)}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("scanning %s: %w", root, walkErr)
			}
			l.record(report, path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			l.record(report, path, err)
			return nil
		}
		rel = filepath.ToSlash(rel)
		if l.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if config.HasArchiveExt(path) {
			if !nested {
				return nil
			}
			sub := &LoadReport{}
			if err := l.addArchive(c, sub, path); err != nil {
				l.record(report, path, err)
				return nil
			}
			report.merge(sub)
			return nil
		}

		if !utils.IsTypeFile(rel) {
			return nil
		}
		name, err := utils.CanonicalName(rel)
		if err != nil {
			l.record(report, path, err)
			return nil
		}
		ctx := newLoadContext(src, root, false, l.registry)
		h, err := ctx.Load(name, rel)
		if err != nil {
			l.record(report, path, err)
			return nil
		}
		l.insert(c, name, h)
		return nil
	})
}

func (l *Loader) insert(c *Catalog, name string, h *TypeHandle) {
	if prev, ok := c.Lookup(name); ok {
		l.logger.Debug("replacing type", "name", name, "previous", prev.Source(), "source", h.Source())
	} else {
		l.logger.Debug("loaded type", "name", name, "source", h.Source())
	}
	c.put(name, h)
}

func (l *Loader) record(report *LoadReport, path string, err error) {
	l.logger.Warn("type definition skipped", "path", path, "error", err)
	report.add(path, err)
}

func (l *Loader) excluded(rel string) bool {
	for _, g := range l.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
