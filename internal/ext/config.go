// Package ext implements the project configuration and the binding
// generator.
//
// It provides the infrastructure for declaring scan roots and Go package
// dependencies in reflector.yaml, introspecting those packages, and generating
// the registration code and type definition files that make their types
// reachable by name.
//
// The ext package handles:
//   - Parsing and validating reflector.yaml configuration
//   - Introspecting Go packages via go/packages
//   - Generating Go registration code (one file per dependency)
//   - Generating .type definition files for the scan root
package ext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/reflector/internal/config"
)

// Config represents the top-level reflector.yaml configuration.
type Config struct {
	// Scan configures which roots are catalogued.
	Scan ScanConfig `yaml:"scan,omitempty"`

	// Gen configures where generated files are written.
	Gen GenConfig `yaml:"gen,omitempty"`

	// Deps lists the Go packages whose types are bound.
	Deps []Dep `yaml:"deps,omitempty"`

	// dir is the directory containing the config file.
	dir string
}

// ScanConfig describes the catalog scan.
type ScanConfig struct {
	// Roots are directories or archives, relative to the config file.
	Roots []string `yaml:"roots,omitempty"`

	// IncludeNested descends into archives found under directory roots.
	IncludeNested bool `yaml:"include_nested,omitempty"`

	// Exclude lists glob patterns of relative paths to skip.
	Exclude []string `yaml:"exclude,omitempty"`
}

// GenConfig describes generator output.
type GenConfig struct {
	// Package is the Go package name of generated registration files.
	// Defaults to "bindings".
	Package string `yaml:"package,omitempty"`

	// Out is the directory for generated Go files. Defaults to "bindings".
	Out string `yaml:"out,omitempty"`

	// Types is the directory for generated .type files. Defaults to the
	// first scan root when it is a directory, otherwise "types".
	Types string `yaml:"types,omitempty"`
}

// Dep represents a single Go package dependency.
type Dep struct {
	// Pkg is the Go import path (e.g. "example.com/geo").
	Pkg string `yaml:"pkg"`

	// Local is a package directory relative to the config file. When set it
	// is loaded instead of resolving Pkg through the module graph.
	Local string `yaml:"local,omitempty"`

	// Bind lists the types to bind from this package.
	// Mutually exclusive with BindAll.
	Bind []BindSpec `yaml:"bind,omitempty"`

	// BindAll binds every exported non-generic type of the package.
	// Mutually exclusive with Bind.
	BindAll bool `yaml:"bind_all,omitempty"`

	// As is the canonical name prefix used with BindAll. Defaults to the Go
	// package name.
	As string `yaml:"as,omitempty"`
}

// BindSpec describes one bound Go type.
type BindSpec struct {
	// Type is the Go type name (e.g. "Point").
	Type string `yaml:"type"`

	// As is the canonical dotted name (e.g. "geo.Point"). Defaults to
	// "<package name>.<Type>".
	As string `yaml:"as,omitempty"`

	// Constructors names the package functions used as constructors. When
	// empty, exported New* functions returning the bound type are used.
	Constructors []string `yaml:"constructors,omitempty"`

	// Funcs names package functions exposed as static functions.
	Funcs []string `yaml:"funcs,omitempty"`

	// Vars names package variables exposed as static fields.
	Vars []string `yaml:"vars,omitempty"`

	// Requires is copied to the generated .type file.
	Requires []string `yaml:"requires,omitempty"`

	// Doc is copied to the generated .type file.
	Doc string `yaml:"doc,omitempty"`
}

// LoadConfig reads and parses a reflector.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses reflector.yaml content from bytes.
// The path argument is used for error messages and to resolve relative paths.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for reflector.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file and nil error if found,
// or empty string and nil error if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{config.ConfigFileName, config.ConfigFileNameAlt} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if len(c.Scan.Roots) == 0 && len(c.Deps) == 0 {
		return fmt.Errorf("%s: no scan roots or deps defined", path)
	}

	for i, root := range c.Scan.Roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("%s: scan.roots[%d]: empty path", path, i)
		}
	}
	for i, pattern := range c.Scan.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("%s: scan.exclude[%d]: invalid pattern %q: %w", path, i, pattern, err)
		}
	}
	if c.Gen.Package != "" && !isIdentifier(c.Gen.Package) {
		return fmt.Errorf("%s: gen.package: %q is not a Go identifier", path, c.Gen.Package)
	}

	seenNames := make(map[string]string) // canonical name → pkg

	for i, dep := range c.Deps {
		if dep.Pkg == "" {
			return fmt.Errorf("%s: deps[%d]: pkg is required", path, i)
		}

		if dep.BindAll && len(dep.Bind) > 0 {
			return fmt.Errorf("%s: deps[%d] (%s): bind_all and bind are mutually exclusive", path, i, dep.Pkg)
		}
		if !dep.BindAll && len(dep.Bind) == 0 {
			return fmt.Errorf("%s: deps[%d] (%s): either bind or bind_all is required", path, i, dep.Pkg)
		}
		if dep.As != "" && !validCanonicalName(dep.As) {
			return fmt.Errorf("%s: deps[%d] (%s): as %q is not a dotted name", path, i, dep.Pkg, dep.As)
		}

		for j, bind := range dep.Bind {
			if bind.Type == "" {
				return fmt.Errorf("%s: deps[%d].bind[%d] (%s): type is required", path, i, j, dep.Pkg)
			}
			if bind.As == "" {
				continue
			}
			if !validCanonicalName(bind.As) {
				return fmt.Errorf("%s: deps[%d].bind[%d] (%s): as %q is not a dotted name",
					path, i, j, dep.Pkg, bind.As)
			}

			// Check canonical name conflicts
			if prev, ok := seenNames[bind.As]; ok {
				return fmt.Errorf("%s: deps[%d].bind[%d]: name %q conflicts with %s",
					path, i, j, bind.As, prev)
			}
			seenNames[bind.As] = dep.Pkg
		}
	}

	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Gen.Package == "" {
		c.Gen.Package = "bindings"
	}
	if c.Gen.Out == "" {
		c.Gen.Out = "bindings"
	}
	if c.Gen.Types == "" {
		c.Gen.Types = "types"
		if len(c.Scan.Roots) > 0 && !config.HasArchiveExt(c.Scan.Roots[0]) {
			c.Gen.Types = c.Scan.Roots[0]
		}
	}
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string { return c.dir }

// Resolve makes a config-relative path absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// ScanRoots returns the scan roots resolved against the config directory.
func (c *Config) ScanRoots() []string {
	roots := make([]string, len(c.Scan.Roots))
	for i, r := range c.Scan.Roots {
		roots[i] = c.Resolve(r)
	}
	return roots
}

// LoadPattern returns the go/packages pattern for the dependency, relative
// to the config directory.
func (dep *Dep) LoadPattern() string {
	if dep.Local == "" {
		return dep.Pkg
	}
	if filepath.IsAbs(dep.Local) {
		return dep.Local
	}
	local := filepath.ToSlash(filepath.Clean(dep.Local))
	if !strings.HasPrefix(local, "../") {
		local = "./" + local
	}
	return local
}

func validCanonicalName(name string) bool {
	if name == "" || strings.ContainsAny(name, config.NestedSeparator+"/\\ \t") {
		return false
	}
	for _, seg := range strings.Split(name, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}
