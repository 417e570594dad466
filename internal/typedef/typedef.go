// Package typedef parses type definition files.
//
// A type definition file is a YAML document stored at the path that gives a
// type its canonical name (pkg/sub/Name.type → pkg.sub.Name):
//
//	binding: geo.Point        # registry binding to load; defaults to the canonical name
//	requires: [geo.Vector]    # types that must be loadable from the same scope
//	doc: A point in the plane
//
// An empty file is valid and binds to the canonical name.
package typedef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is one parsed type definition file.
type Definition struct {
	// Binding is the registry name the definition resolves to.
	Binding string `yaml:"binding,omitempty"`

	// Requires lists canonical names that must resolve in the same loading
	// context before this definition can load.
	Requires []string `yaml:"requires,omitempty"`

	// Doc is a free-form description shown by `reflector inspect`.
	Doc string `yaml:"doc,omitempty"`
}

// Parse decodes a definition. The name argument is the canonical name the
// file was found under; it fills in Binding when omitted and labels errors.
func Parse(data []byte, name string) (*Definition, error) {
	var def Definition
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing definition %s: %w", name, err)
		}
	}
	if err := def.validate(name); err != nil {
		return nil, err
	}
	def.setDefaults(name)
	return &def, nil
}

// Marshal renders a definition back to YAML, as written by `reflector gen`.
func Marshal(def *Definition) ([]byte, error) {
	return yaml.Marshal(def)
}

func (d *Definition) validate(name string) error {
	if strings.TrimSpace(d.Binding) != d.Binding {
		return fmt.Errorf("definition %s: binding %q has surrounding whitespace", name, d.Binding)
	}
	seen := make(map[string]bool, len(d.Requires))
	for i, req := range d.Requires {
		if req == "" {
			return fmt.Errorf("definition %s: requires[%d] is empty", name, i)
		}
		if req == name {
			return fmt.Errorf("definition %s: requires itself", name)
		}
		if seen[req] {
			return fmt.Errorf("definition %s: requires %s twice", name, req)
		}
		seen[req] = true
	}
	return nil
}

func (d *Definition) setDefaults(name string) {
	if d.Binding == "" {
		d.Binding = name
	}
}
