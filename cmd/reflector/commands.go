package main

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/funvibe/reflector/internal/boxing"
	"github.com/funvibe/reflector/internal/ext"
	"github.com/funvibe/reflector/internal/overload"
	"github.com/funvibe/reflector/internal/registry"
	"github.com/funvibe/reflector/pkg/catalog"
)

// scanOptions selects what a scan covers.
type scanOptions struct {
	roots   []string
	nested  bool
	exclude []string
}

// scanOptionsFromConfig takes roots and excludes from a reflector.yaml.
func scanOptionsFromConfig(cfg *ext.Config) scanOptions {
	return scanOptions{
		roots:   cfg.ScanRoots(),
		nested:  cfg.Scan.IncludeNested,
		exclude: cfg.Scan.Exclude,
	}
}

// scanRoots catalogs every root into one catalog. Later roots replace names
// defined by earlier ones. Per-entry failures are collected in the report;
// an error means a root could not be scanned at all.
func scanRoots(reg *registry.Registry, logger *slog.Logger, opts scanOptions) (*catalog.Catalog, *catalog.LoadReport, error) {
	l, err := catalog.NewLoader(
		catalog.WithRegistry(reg),
		catalog.WithLogger(logger),
		catalog.WithNestedArchives(opts.nested),
		catalog.WithExclude(opts.exclude...),
	)
	if err != nil {
		return nil, nil, err
	}

	c := catalog.New()
	report := &catalog.LoadReport{}
	for _, root := range opts.roots {
		rep, err := l.Add(c, root)
		if err != nil {
			return nil, nil, err
		}
		report.Failures = append(report.Failures, rep.Failures...)
	}
	return c, report, nil
}

func printCatalog(w io.Writer, c *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGO TYPE\tSOURCE")
	for _, name := range c.Names() {
		h, _ := c.Lookup(name)
		fmt.Fprintf(tw, "%s\t%v\t%s\n", name, h.Type(), h.Source())
	}
	return tw.Flush()
}

func printReport(w io.Writer, report *catalog.LoadReport) {
	for _, f := range report.Failures {
		fmt.Fprintf(w, "- %s\n", f.Error())
	}
}

// describe prints the members a facade over h can reach.
func describe(w io.Writer, h *catalog.TypeHandle) {
	b := h.Binding()
	fmt.Fprintf(w, "%s (%v)\n", h.Name(), h.Type())
	if src := h.Source(); src != "" {
		fmt.Fprintf(w, "  source: %s\n", src)
	}
	if doc := h.Doc(); doc != "" {
		fmt.Fprintf(w, "  doc: %s\n", doc)
	}
	if req := h.Requires(); len(req) > 0 {
		fmt.Fprintf(w, "  requires: %s\n", strings.Join(req, ", "))
	}

	var ctors []string
	for _, m := range b.Constructors {
		ctors = append(ctors, memberLine("new", m))
	}
	section(w, "constructors", ctors)

	var funcs []string
	for _, m := range b.Funcs {
		funcs = append(funcs, memberLine(m.Name, m))
	}
	section(w, "functions", funcs)

	var methods []string
	t := h.Type()
	skip := 1
	if t.Kind() == reflect.Interface {
		skip = 0
	}
	for i := range t.NumMethod() {
		m := t.Method(i)
		methods = append(methods, formatSignature(m.Name, overload.Params(m.Type, skip), boxing.ResultType(m.Type)))
	}
	for _, m := range b.Methods {
		methods = append(methods, memberLine(m.Name, m))
	}
	section(w, "methods", methods)

	var fields []string
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(st) {
			if f.IsExported() && !f.Anonymous {
				fields = append(fields, fmt.Sprintf("%s %v", f.Name, f.Type))
			}
		}
	}
	section(w, "fields", fields)

	var vars []string
	for _, v := range b.Vars {
		vars = append(vars, fmt.Sprintf("%s %v", v.Name, v.Ptr.Type().Elem()))
	}
	section(w, "vars", vars)
}

func section(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", title)
	for _, l := range lines {
		fmt.Fprintf(w, "    %s\n", l)
	}
}

func memberLine(name string, m registry.Member) string {
	line := formatSignature(name, m.Params(), m.Returns())
	if !m.Exported {
		line += " [hidden]"
	}
	return line
}

func formatSignature(name string, params []reflect.Type, ret reflect.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	sig := name + "(" + strings.Join(parts, ", ") + ")"
	if ret != boxing.VoidType {
		sig += " " + ret.String()
	}
	return sig
}
