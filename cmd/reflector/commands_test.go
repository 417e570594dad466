package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/reflector/internal/registry"
	"github.com/funvibe/reflector/pkg/catalog"
)

type gauge struct {
	Label string
	Level int
	note  string
}

func (g *gauge) Raise(by int) int {
	g.Level += by
	return g.Level
}

func (g *gauge) Reset() { g.Level = 0 }

var unit = "bar"

func testRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(registry.Bind[*gauge]("tools.Gauge").
		Constructor(func() *gauge { return &gauge{} }).
		HiddenConstructor(func(note string) *gauge { return &gauge{note: note} }).
		HiddenMethod("note", func(g *gauge) string { return g.note }).
		Func("Parse", func(s string) (*gauge, error) { return &gauge{Label: s}, nil }).
		Var("Unit", &unit))
	return reg
}

func writeTypes(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScanRoots(t *testing.T) {
	first := writeTypes(t, map[string]string{
		"tools/Gauge.type": "binding: tools.Gauge\ndoc: first\n",
		"tools/Bad.type":   "binding: tools.Missing\n",
	})
	second := writeTypes(t, map[string]string{
		"tools/Gauge.type": "binding: tools.Gauge\ndoc: second\n",
	})

	c, report, err := scanRoots(testRegistry(), quietLogger(), scanOptions{roots: []string{first, second}})
	if err != nil {
		t.Fatalf("scanRoots: %v", err)
	}
	if report.Len() != 1 {
		t.Fatalf("expected 1 failure, got %d: %v", report.Len(), report.Err())
	}
	if !errors.Is(report.Failures[0], catalog.ErrUnknownBinding) {
		t.Errorf("failure = %v, want ErrUnknownBinding", report.Failures[0])
	}

	h, ok := c.Lookup("tools.Gauge")
	if !ok {
		t.Fatal("tools.Gauge missing")
	}
	if h.Doc() != "second" {
		t.Errorf("doc = %q, want the later root to win", h.Doc())
	}

	var out bytes.Buffer
	if err := printCatalog(&out, c); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "NAME") || !strings.HasPrefix(lines[1], "tools.Gauge") {
		t.Errorf("catalog output:\n%s", out.String())
	}
}

func TestScanRootsMissingRoot(t *testing.T) {
	_, _, err := scanRoots(testRegistry(), quietLogger(), scanOptions{roots: []string{filepath.Join(t.TempDir(), "missing")}})
	if err == nil {
		t.Error("expected an error for a missing root")
	}
}

func TestScanRootsBadExclude(t *testing.T) {
	_, _, err := scanRoots(testRegistry(), quietLogger(), scanOptions{exclude: []string{"["}})
	if err == nil {
		t.Error("expected an error for an invalid exclude pattern")
	}
}

func TestDescribe(t *testing.T) {
	b, _ := testRegistry().Lookup("tools.Gauge")
	var out bytes.Buffer
	describe(&out, catalog.NewHandle(b))

	got := out.String()
	for _, want := range []string{
		"tools.Gauge (*main.gauge)",
		"  constructors:\n    new() *main.gauge\n    new(string) *main.gauge [hidden]\n",
		"Parse(string) *main.gauge",
		"    Raise(int) int\n",
		"    Reset()\n",
		"note() string [hidden]",
		"  fields:\n    Label string\n    Level int\n",
		"  vars:\n    Unit string\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("describe output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "requires") || strings.Contains(got, "note string") {
		t.Errorf("unexpected lines:\n%s", got)
	}
}

func TestSplitNested(t *testing.T) {
	nested, rest := splitNested([]string{"a", "--nested", "b"})
	if !nested || !reflect.DeepEqual(rest, []string{"a", "b"}) {
		t.Errorf("splitNested = %v, %v", nested, rest)
	}
	nested, rest = splitNested(nil)
	if nested || rest != nil {
		t.Errorf("splitNested(nil) = %v, %v", nested, rest)
	}
}

func TestResolveScanExplicitPaths(t *testing.T) {
	opts, err := resolveScan([]string{"types", "lib.zip"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.nested || !reflect.DeepEqual(opts.roots, []string{"types", "lib.zip"}) {
		t.Errorf("opts = %+v", opts)
	}
}

func TestLoadConfigScanOptions(t *testing.T) {
	dir := writeTypes(t, map[string]string{
		"reflector.yaml": "scan:\n  roots: [types, lib.zip]\n  include_nested: true\n  exclude: [\"**/draft/**\"]\n",
	})
	cfg, err := loadConfig(filepath.Join(dir, "reflector.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	opts := scanOptionsFromConfig(cfg)
	want := []string{filepath.Join(dir, "types"), filepath.Join(dir, "lib.zip")}
	if !reflect.DeepEqual(opts.roots, want) {
		t.Errorf("roots = %v, want %v", opts.roots, want)
	}
	if !opts.nested || !reflect.DeepEqual(opts.exclude, []string{"**/draft/**"}) {
		t.Errorf("opts = %+v", opts)
	}
}

func TestNewLoggerPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("scanned", "types", 3)

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug message logged at info level: %s", got)
	}
	if !strings.Contains(got, "scanned") || !strings.Contains(got, "types=3") {
		t.Errorf("unexpected log output: %s", got)
	}

	buf.Reset()
	newLogger(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug logger dropped message: %q", buf.String())
	}
}
