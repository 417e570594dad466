// Command reflector catalogs .type definitions against the compiled-in
// bindings, inspects catalogued types and generates bindings from Go
// packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/protobuf/reflect/protoregistry"
	_ "google.golang.org/protobuf/types/known/anypb"
	_ "google.golang.org/protobuf/types/known/durationpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/funvibe/reflector/internal/ext"
	"github.com/funvibe/reflector/internal/registry"
	"github.com/funvibe/reflector/internal/watch"
	"github.com/funvibe/reflector/pkg/catalog"
)

const usage = `Usage: reflector <command> [arguments]

Commands:
  scan [--nested] [path...]      catalog .type files under directories and archives
  inspect <name> [path...]       describe a catalogued type
  gen [config]                   generate bindings from reflector.yaml
  watch [--nested] [dir]         rescan whenever definitions change
  help                           show this message

Without paths, scan, inspect and watch use the roots of the nearest
reflector.yaml. Pass --debug for verbose logging.
`

var logger *slog.Logger

// args are the command-line arguments without host flags.
var args []string

func handleHelp() bool {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	switch args[0] {
	case "help", "-help", "--help", "-h":
		fmt.Print(usage)
		return true
	}
	return false
}

func handleScan() bool {
	if args[0] != "scan" {
		return false
	}
	nested, paths := splitNested(args[1:])
	opts, err := resolveScan(paths, nested)
	if err != nil {
		fatal(err)
	}

	c, report, err := scanRoots(registry.Default, logger, opts)
	if err != nil {
		fatal(err)
	}
	if err := printCatalog(os.Stdout, c); err != nil {
		fatal(err)
	}
	if !report.Empty() {
		fmt.Fprintf(os.Stderr, "%d definition(s) failed:\n", report.Len())
		printReport(os.Stderr, report)
		os.Exit(1)
	}
	return true
}

func handleInspect() bool {
	if args[0] != "inspect" {
		return false
	}
	if len(args) < 2 {
		fatal(errors.New("usage: reflector inspect <name> [path...]"))
	}
	name := args[1]
	opts, err := resolveScan(args[2:], false)
	if err != nil {
		fatal(err)
	}

	c, report, err := scanRoots(registry.Default, logger, opts)
	if err != nil {
		fatal(err)
	}
	h, ok := c.Lookup(name)
	if !ok {
		for _, f := range report.Failures {
			logger.Warn("definition failed", "path", f.Path, "error", f.Err)
		}
		fatal(fmt.Errorf("%w: %s", catalog.ErrTypeNotFound, name))
	}
	describe(os.Stdout, h)
	return true
}

func handleGen() bool {
	if args[0] != "gen" {
		return false
	}
	var path string
	if len(args) > 1 {
		path = args[1]
	}
	cfg, err := loadConfig(path)
	if err != nil {
		fatal(err)
	}
	summary, err := ext.Generate(cfg, logger)
	if err != nil {
		fatal(err)
	}
	for _, p := range summary.GoFiles {
		fmt.Println(p)
	}
	for _, p := range summary.Descriptors {
		fmt.Println(p)
	}
	return true
}

func handleWatch() bool {
	if args[0] != "watch" {
		return false
	}
	nested, paths := splitNested(args[1:])
	if len(paths) > 1 {
		fatal(errors.New("usage: reflector watch [--nested] [dir]"))
	}
	opts, err := resolveScan(paths, nested)
	if err != nil {
		fatal(err)
	}
	if len(opts.roots) != 1 {
		fatal(fmt.Errorf("watch needs exactly one root directory, got %d", len(opts.roots)))
	}

	rescan := func(ctx context.Context, changed []string) error {
		logger.Info("rescanning", "changed", len(changed))
		c, report, err := scanRoots(registry.Default, logger, opts)
		if err != nil {
			return err
		}
		for _, f := range report.Failures {
			logger.Warn("definition failed", "path", f.Path, "error", f.Err)
		}
		logger.Info("catalog updated", "types", c.Len(), "failures", report.Len())
		return nil
	}

	w, err := watch.New(watch.Config{
		Root:     opts.roots[0],
		Exclude:  opts.exclude,
		Logger:   logger,
		OnChange: rescan,
	})
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rescan(ctx, nil); err != nil {
		fatal(err)
	}
	logger.Info("watching", "root", w.Root())
	if err := w.Run(ctx); err != nil {
		fatal(err)
	}
	return true
}

// resolveScan uses explicit paths when given and the nearest config
// otherwise.
func resolveScan(paths []string, nested bool) (scanOptions, error) {
	if len(paths) > 0 {
		return scanOptions{roots: paths, nested: nested}, nil
	}
	cfg, err := loadConfig("")
	if err != nil {
		return scanOptions{}, err
	}
	opts := scanOptionsFromConfig(cfg)
	opts.nested = opts.nested || nested
	if len(opts.roots) == 0 {
		return scanOptions{}, fmt.Errorf("%s: no scan roots configured", cfg.Dir())
	}
	return opts, nil
}

// loadConfig loads path, or the nearest reflector.yaml when path is empty.
func loadConfig(path string) (*ext.Config, error) {
	if path == "" {
		found, err := ext.FindConfig(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return nil, errors.New("no reflector.yaml found and no path given")
		}
		path = found
	}
	return ext.LoadConfig(path)
}

func splitNested(in []string) (bool, []string) {
	var (
		nested bool
		rest   []string
	)
	for _, a := range in {
		if a == "--nested" || a == "-nested" {
			nested = true
			continue
		}
		rest = append(rest, a)
	}
	return nested, rest
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	debug := false
	for _, a := range os.Args[1:] {
		if a == "-debug" || a == "--debug" {
			debug = true
			continue
		}
		args = append(args, a)
	}
	logger = newLogger(os.Stderr, debug)
	slog.SetDefault(logger)

	n, err := registry.RegisterProtoTypes(registry.Default, protoregistry.GlobalTypes)
	if err != nil {
		fatal(fmt.Errorf("registering protobuf types: %w", err))
	}
	logger.Debug("protobuf types registered", "count", n)

	if handleHelp() {
		return
	}
	if handleScan() {
		return
	}
	if handleInspect() {
		return
	}
	if handleGen() {
		return
	}
	if handleWatch() {
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
	os.Exit(2)
}
