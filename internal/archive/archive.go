// Package archive exposes a packaged archive as a lazy sequence of entries.
// Entry content is only read when requested, so a scan over a large archive
// touches the bytes of type definition files and nothing else.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path"
	"strings"
)

// Entry is a single file inside an archive.
type Entry struct {
	// Name is the slash-separated path inside the archive.
	Name string
	file *zip.File
}

// ReadAll returns the entry's content.
func (e Entry) ReadAll() ([]byte, error) {
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", e.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", e.Name, err)
	}
	return data, nil
}

// Reader is an open archive.
type Reader struct {
	path  string
	zr    *zip.ReadCloser
	index map[string]*zip.File
}

// Open opens the archive at path. The caller must Close it.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	r := &Reader{
		path:  path,
		zr:    zr,
		index: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		r.index[normalize(f.Name)] = f
	}
	return r, nil
}

// Path returns the filesystem path the archive was opened from.
func (r *Reader) Path() string { return r.path }

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// Entries yields every regular file in archive order. Directory entries are
// skipped. The sequence can be ranged over any number of times.
func (r *Reader) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, f := range r.zr.File {
			if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
				continue
			}
			if !yield(Entry{Name: normalize(f.Name), file: f}) {
				return
			}
		}
	}
}

// Lookup returns the entry stored under name, if any.
func (r *Reader) Lookup(name string) (Entry, bool) {
	f, ok := r.index[normalize(name)]
	if !ok || f.FileInfo().IsDir() {
		return Entry{}, false
	}
	return Entry{Name: normalize(name), file: f}, true
}

// ReadFile implements a read-only file lookup over the archive.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	e, ok := r.Lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return e.ReadAll()
}

// normalize maps archive names written on any platform to clean slash paths.
func normalize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return name
	}
	cleaned := path.Clean(name)
	if strings.HasSuffix(name, "/") {
		cleaned += "/"
	}
	return cleaned
}
