package catalog

import (
	"archive/zip"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/funvibe/reflector/internal/registry"
)

type widget struct{ Label string }
type gadget struct{ Count int }
type gizmo struct{}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	reg.MustRegister(registry.Bind[*widget]("pkg.A").Constructor(func() *widget { return &widget{} }))
	reg.MustRegister(registry.Bind[*gadget]("pkg.B").Constructor(func() *gadget { return &gadget{} }))
	reg.MustRegister(registry.Bind[*gizmo]("pkg.sub.C").Constructor(func() *gizmo { return &gizmo{} }))
	return reg
}

func testLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithRegistry(testRegistry(t)), WithLogger(quiet)}, opts...)
	l, err := NewLoader(opts...)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return l
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirectoryCatalogsEveryType(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/A.type":     "",
		"pkg/B.type":     "doc: the B type\n",
		"pkg/sub/C.type": "",
		"pkg/README.md":  "not a type",
	})

	c, report, err := testLoader(t).LoadDirectory(root, false)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if !report.Empty() {
		t.Fatalf("unexpected failures: %v", report.Err())
	}
	if c.Len() != 3 {
		t.Fatalf("catalog has %d entries; want 3 (%v)", c.Len(), c.Names())
	}
	for _, name := range []string{"pkg.A", "pkg.B", "pkg.sub.C"} {
		h, ok := c.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) missed", name)
			continue
		}
		if h.Name() != name {
			t.Errorf("handle name = %q; want %q", h.Name(), name)
		}
	}
	if h, _ := c.Lookup("pkg.B"); h.Doc() != "the B type" {
		t.Errorf("doc = %q", h.Doc())
	}
	if _, ok := c.Lookup("pkg.Missing"); ok {
		t.Error("Lookup of an absent name should miss")
	}
}

func TestLoadArchiveExcludesNestedFragments(t *testing.T) {
	p := filepath.Join(t.TempDir(), "types.zip")
	writeZip(t, p, map[string]string{
		"a/B.type":       "binding: pkg.B\n",
		"a/B$Inner.type": "binding: pkg.B\n",
	})

	c, report, err := testLoader(t).LoadArchive(p)
	if err != nil {
		t.Fatalf("LoadArchive: %v", err)
	}
	if !report.Empty() {
		t.Fatalf("unexpected failures: %v", report.Err())
	}
	if got := c.Names(); len(got) != 1 || got[0] != "a.B" {
		t.Fatalf("names = %v; want [a.B]", got)
	}
}

func TestLoadArchiveSharesOneContext(t *testing.T) {
	p := filepath.Join(t.TempDir(), "types.zip")
	writeZip(t, p, map[string]string{
		"pkg/A.type": "requires: [pkg.B]\n",
		"pkg/B.type": "",
	})

	c, report, err := testLoader(t).LoadArchive(p)
	if err != nil || !report.Empty() {
		t.Fatalf("LoadArchive: %v / %v", err, report.Err())
	}
	a, _ := c.Lookup("pkg.A")
	b, _ := c.Lookup("pkg.B")
	if a.ContextID() == uuid.Nil || a.ContextID() != b.ContextID() {
		t.Errorf("archive entries should share a context: %v vs %v", a.ContextID(), b.ContextID())
	}
	if a.Source() != p+"!/pkg/A.type" {
		t.Errorf("source = %q", a.Source())
	}
}

func TestLoadDirectoryUsesOneContextPerFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/A.type": "requires: [pkg.B]\n",
		"pkg/B.type": "",
	})
	c, report, err := testLoader(t).LoadDirectory(root, false)
	if err != nil || !report.Empty() {
		t.Fatalf("LoadDirectory: %v / %v", err, report.Err())
	}
	a, _ := c.Lookup("pkg.A")
	b, _ := c.Lookup("pkg.B")
	if a.ContextID() == b.ContextID() {
		t.Error("files under a directory root should not share a loading context")
	}
}

func TestScanToleratesBadEntries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/A.type":       "",
		"pkg/Unknown.type": "",
		"pkg/Broken.type":  "binding: [",
		"pkg/Needy.type":   "binding: pkg.B\nrequires: [pkg.Absent]\n",
		"pkg/B.type":       "",
	})

	c, report, err := testLoader(t).LoadDirectory(root, false)
	if err != nil {
		t.Fatalf("a per-entry failure must not fail the load: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("catalog = %v; want pkg.A and pkg.B", c.Names())
	}
	if report.Len() != 3 {
		t.Fatalf("report has %d failures; want 3: %v", report.Len(), report.Err())
	}
	if !errors.Is(report.Err(), ErrUnknownBinding) {
		t.Error("report should carry the unknown binding failure")
	}
	if !errors.Is(report.Err(), ErrTypeNotFound) {
		t.Error("report should carry the unsatisfied requirement")
	}
	var de *DiscoveryError
	if !errors.As(report.Err(), &de) || de.Path == "" {
		t.Error("failures should be DiscoveryErrors with a path")
	}
}

func TestRequireCycleIsReported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cycle.zip")
	writeZip(t, p, map[string]string{
		"pkg/A.type": "requires: [pkg.B]\n",
		"pkg/B.type": "requires: [pkg.A]\n",
	})
	c, report, err := testLoader(t).LoadArchive(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("names = %v; want none", c.Names())
	}
	if !errors.Is(report.Err(), ErrRequireCycle) {
		t.Errorf("report = %v; want a require cycle", report.Err())
	}
}

func TestNestedArchives(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"pkg/A.type": ""})
	writeZip(t, filepath.Join(root, "lib", "extra.zip"), map[string]string{"pkg/B.type": ""})

	l := testLoader(t)

	c, report, err := l.LoadDirectory(root, false)
	if err != nil || !report.Empty() {
		t.Fatalf("LoadDirectory: %v / %v", err, report.Err())
	}
	if got := c.Names(); len(got) != 1 || got[0] != "pkg.A" {
		t.Errorf("without nesting names = %v; want [pkg.A]", got)
	}

	c, report, err = l.LoadDirectory(root, true)
	if err != nil || !report.Empty() {
		t.Fatalf("LoadDirectory: %v / %v", err, report.Err())
	}
	// archive entries are named from the archive root, not the walk root
	if got := c.Names(); len(got) != 2 || got[1] != "pkg.B" {
		t.Errorf("with nesting names = %v; want [pkg.A pkg.B]", got)
	}
}

func TestCorruptNestedArchiveIsRecorded(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/A.type": "",
		"bad.zip":    "not an archive",
	})
	c, report, err := testLoader(t).LoadDirectory(root, true)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 || report.Len() != 1 {
		t.Errorf("catalog = %v, failures = %v", c.Names(), report.Err())
	}
}

func TestAddReplacesExistingNames(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeTree(t, first, map[string]string{"pkg/A.type": "", "pkg/B.type": ""})
	writeTree(t, second, map[string]string{"pkg/A.type": "doc: newer\n"})

	l := testLoader(t)
	c, _, err := l.LoadDirectory(first, false)
	if err != nil {
		t.Fatal(err)
	}
	old, _ := c.Lookup("pkg.A")

	report, err := l.Add(c, second)
	if err != nil || !report.Empty() {
		t.Fatalf("Add: %v / %v", err, report.Err())
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d; want 2 after replacement", c.Len())
	}
	h, _ := c.Lookup("pkg.A")
	if h == old || h.Doc() != "newer" {
		t.Error("the newest handle should win")
	}
}

func TestAddArchiveAndRejectsPlainFiles(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "more.tpk")
	writeZip(t, zipPath, map[string]string{"pkg/sub/C.type": ""})
	plain := filepath.Join(dir, "notes.txt")
	writeTree(t, dir, map[string]string{"notes.txt": "x"})

	l := testLoader(t)
	c := New()
	if _, err := l.Add(c, zipPath); err != nil {
		t.Fatalf("Add archive: %v", err)
	}
	if _, ok := c.Lookup("pkg.sub.C"); !ok {
		t.Error("pkg.sub.C should be cataloged from the archive")
	}
	if _, err := l.Add(c, plain); err == nil {
		t.Error("Add should reject a plain file")
	}
}

func TestTopLevelFailures(t *testing.T) {
	l := testLoader(t)
	missing := filepath.Join(t.TempDir(), "nope")

	if _, _, err := l.LoadDirectory(missing, false); err == nil {
		t.Error("LoadDirectory on a missing root should fail")
	}
	if _, _, err := l.LoadArchive(missing + ".zip"); err == nil {
		t.Error("LoadArchive on a missing file should fail")
	}

	file := filepath.Join(t.TempDir(), "A.type")
	writeTree(t, filepath.Dir(file), map[string]string{"A.type": ""})
	if _, _, err := l.LoadDirectory(file, false); err == nil {
		t.Error("LoadDirectory on a file should fail")
	}
}

func TestExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/A.type":          "",
		"testdata/pkg/B.type": "",
		"pkg/B.type":          "",
	})
	l := testLoader(t, WithExclude("testdata/**", "**/B.type"))
	c, _, err := l.LoadDirectory(root, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Names(); len(got) != 1 || got[0] != "pkg.A" {
		t.Errorf("names = %v; want [pkg.A]", got)
	}

	if _, err := NewLoader(WithExclude("[")); err == nil {
		t.Error("an invalid glob should be rejected")
	}
}

func TestEntriesIsRestartable(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"pkg/A.type": "", "pkg/B.type": ""})
	c, _, err := testLoader(t).LoadDirectory(root, false)
	if err != nil {
		t.Fatal(err)
	}
	for pass := 0; pass < 2; pass++ {
		seen := map[string]bool{}
		for name, h := range c.Entries() {
			if h.Name() != name {
				t.Errorf("entry %q carries handle %q", name, h.Name())
			}
			seen[name] = true
		}
		if len(seen) != 2 {
			t.Errorf("pass %d saw %d entries; want 2", pass, len(seen))
		}
	}
}
