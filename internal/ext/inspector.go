package ext

import (
	"fmt"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// InspectResult holds all extracted type information for code generation.
type InspectResult struct {
	// Packages lists the inspected dependencies in config order.
	Packages []*PackageBindings
}

// PackageBindings groups the bindings generated for one Go package.
type PackageBindings struct {
	// Path is the Go import path.
	Path string

	// Name is the Go package name.
	Name string

	// Bindings are in config order (sorted by type name for bind_all).
	Bindings []*ResolvedBinding
}

// ResolvedBinding is a bind entry checked against the package's types.
type ResolvedBinding struct {
	// Name is the canonical dotted name.
	Name string

	// TypeName is the Go type name.
	TypeName string

	// Pointer is true when instances are *TypeName (struct types).
	Pointer bool

	// Constructors, Funcs and Vars are package-level identifiers.
	Constructors []string
	Funcs        []string
	Vars         []string

	Requires []string
	Doc      string
}

// Inspector loads Go packages and resolves bind entries against them.
type Inspector struct {
	// dir is the directory packages are loaded from (the config directory).
	dir string

	// loadedPkgs caches loaded packages by pattern.
	loadedPkgs map[string]*packages.Package
}

// NewInspector creates an Inspector that loads packages relative to dir,
// which must be inside a Go module that can resolve every dependency.
func NewInspector(dir string) *Inspector {
	return &Inspector{
		dir:        dir,
		loadedPkgs: make(map[string]*packages.Package),
	}
}

// Inspect loads all Go packages referenced in the config and resolves their
// bindings.
func (ins *Inspector) Inspect(cfg *Config) (*InspectResult, error) {
	var patterns []string
	for i := range cfg.Deps {
		patterns = append(patterns, cfg.Deps[i].LoadPattern())
	}
	if err := ins.loadPackages(patterns); err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	result := &InspectResult{}
	for i := range cfg.Deps {
		dep := cfg.Deps[i]
		pkg := ins.loadedPkgs[dep.LoadPattern()]
		pb, err := ResolvePackage(pkg.Types, dep)
		if err != nil {
			return nil, err
		}
		result.Packages = append(result.Packages, pb)
	}
	return result, nil
}

func (ins *Inspector) loadPackages(patterns []string) error {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedDeps |
			packages.NeedImports,
		Dir: ins.dir,
	}

	for _, pattern := range patterns {
		if _, ok := ins.loadedPkgs[pattern]; ok {
			continue
		}
		pkgs, err := packages.Load(cfg, pattern)
		if err != nil {
			return fmt.Errorf("loading %s: %w", pattern, err)
		}
		if len(pkgs) != 1 {
			return fmt.Errorf("loading %s: expected one package, got %d", pattern, len(pkgs))
		}
		pkg := pkgs[0]
		if len(pkg.Errors) > 0 {
			return fmt.Errorf("loading %s: %v", pattern, pkg.Errors[0])
		}
		ins.loadedPkgs[pattern] = pkg
	}
	return nil
}

// ResolvePackage resolves a dependency's bind entries against a type-checked
// package.
func ResolvePackage(pkg *types.Package, dep Dep) (*PackageBindings, error) {
	pb := &PackageBindings{Path: pkg.Path(), Name: pkg.Name()}

	if dep.BindAll {
		prefix := dep.As
		if prefix == "" {
			prefix = pkg.Name()
		}
		scope := pkg.Scope()
		for _, name := range scope.Names() { // sorted
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !tn.Exported() || isGeneric(tn) {
				continue
			}
			b, err := resolveType(pkg, BindSpec{Type: name, As: prefix + "." + name})
			if err != nil {
				return nil, fmt.Errorf("%s: %w", dep.Pkg, err)
			}
			pb.Bindings = append(pb.Bindings, b)
		}
		return pb, nil
	}

	for _, spec := range dep.Bind {
		b, err := resolveType(pkg, spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dep.Pkg, err)
		}
		pb.Bindings = append(pb.Bindings, b)
	}
	return pb, nil
}

func resolveType(pkg *types.Package, spec BindSpec) (*ResolvedBinding, error) {
	obj := pkg.Scope().Lookup(spec.Type)
	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("type %s not found", spec.Type)
	}
	if !tn.Exported() {
		return nil, fmt.Errorf("type %s is not exported", spec.Type)
	}
	if isGeneric(tn) {
		return nil, fmt.Errorf("type %s: generic types are not supported", spec.Type)
	}

	b := &ResolvedBinding{
		Name:     spec.As,
		TypeName: spec.Type,
		Requires: spec.Requires,
		Doc:      spec.Doc,
	}
	if b.Name == "" {
		b.Name = pkg.Name() + "." + spec.Type
	}
	if !validCanonicalName(b.Name) {
		return nil, fmt.Errorf("type %s: %q is not a dotted name", spec.Type, b.Name)
	}

	bound := tn.Type()
	if _, ok := bound.Underlying().(*types.Struct); ok {
		b.Pointer = true
		bound = types.NewPointer(bound)
	}

	if len(spec.Constructors) > 0 {
		for _, name := range spec.Constructors {
			sig, err := lookupFunc(pkg, name)
			if err != nil {
				return nil, fmt.Errorf("type %s: constructor %w", spec.Type, err)
			}
			if !constructs(sig, bound) {
				return nil, fmt.Errorf("type %s: constructor %s must return %s (and optionally error)",
					spec.Type, name, types.TypeString(bound, (*types.Package).Name))
			}
			b.Constructors = append(b.Constructors, name)
		}
	} else {
		b.Constructors = findConstructors(pkg, bound)
	}

	for _, name := range spec.Funcs {
		if _, err := lookupFunc(pkg, name); err != nil {
			return nil, fmt.Errorf("type %s: func %w", spec.Type, err)
		}
		b.Funcs = append(b.Funcs, name)
	}

	for _, name := range spec.Vars {
		v, ok := pkg.Scope().Lookup(name).(*types.Var)
		if !ok || !v.Exported() {
			return nil, fmt.Errorf("type %s: var %s not found", spec.Type, name)
		}
		b.Vars = append(b.Vars, name)
	}

	return b, nil
}

// lookupFunc finds a bindable package function: exported, not generic, not
// variadic.
func lookupFunc(pkg *types.Package, name string) (*types.Signature, error) {
	fn, ok := pkg.Scope().Lookup(name).(*types.Func)
	if !ok || !fn.Exported() {
		return nil, fmt.Errorf("%s not found", name)
	}
	sig := fn.Type().(*types.Signature)
	if sig.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("%s: generic functions are not supported", name)
	}
	if sig.Variadic() {
		return nil, fmt.Errorf("%s: variadic functions are not supported", name)
	}
	return sig, nil
}

// findConstructors returns the exported New* functions that construct bound,
// sorted by name.
func findConstructors(pkg *types.Package, bound types.Type) []string {
	var names []string
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		if !strings.HasPrefix(name, "New") {
			continue
		}
		sig, err := lookupFunc(pkg, name)
		if err != nil || !constructs(sig, bound) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// constructs reports whether sig returns bound, optionally followed by error.
func constructs(sig *types.Signature, bound types.Type) bool {
	res := sig.Results()
	switch res.Len() {
	case 1:
	case 2:
		if !isErrorType(res.At(1).Type()) {
			return false
		}
	default:
		return false
	}
	return types.Identical(res.At(0).Type(), bound)
}

func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func isGeneric(tn *types.TypeName) bool {
	if tn.IsAlias() {
		return false
	}
	named, ok := tn.Type().(*types.Named)
	return ok && named.TypeParams().Len() > 0
}
