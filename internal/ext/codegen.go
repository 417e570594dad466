package ext

import (
	"fmt"
	"go/format"
	"path"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/funvibe/reflector/internal/config"
	"github.com/funvibe/reflector/internal/typedef"
)

// CodeGenerator produces the registration code and type definition files
// for inspected packages.
type CodeGenerator struct {
	// modulePath is the Go import path of this module, used to import pkg/ext
	// from generated code.
	modulePath string

	// pkgName is the package clause of generated Go files.
	pkgName string
}

// NewCodeGenerator creates a new code generator.
func NewCodeGenerator(modulePath, pkgName string) *CodeGenerator {
	return &CodeGenerator{modulePath: modulePath, pkgName: pkgName}
}

// GeneratedFile represents a generated file.
type GeneratedFile struct {
	// Filename is the slash-separated path relative to the output directory
	// (e.g. "reflector_geo.go" or "geo/Point.type").
	Filename string

	// Content is the full file content.
	Content string
}

// Generate produces one registration file per inspected package, sorted by
// file name.
func (cg *CodeGenerator) Generate(result *InspectResult) ([]GeneratedFile, error) {
	var files []GeneratedFile
	used := make(map[string]bool)

	for _, pb := range result.Packages {
		if len(pb.Bindings) == 0 {
			continue
		}
		file, err := cg.generateBindingFile(pb)
		if err != nil {
			return nil, fmt.Errorf("generating bindings for %s: %w", pb.Path, err)
		}
		// two packages with the same alias
		base := strings.TrimSuffix(file.Filename, ".go")
		for n := 2; used[file.Filename]; n++ {
			file.Filename = fmt.Sprintf("%s_%d.go", base, n)
		}
		used[file.Filename] = true
		files = append(files, file)
	}

	// Sort files for deterministic output
	sort.Slice(files, func(i, j int) bool {
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

// Descriptors produces one .type file per binding, placed at the path its
// canonical name maps to ("geo.Point" → "geo/Point.type").
func (cg *CodeGenerator) Descriptors(result *InspectResult) ([]GeneratedFile, error) {
	var files []GeneratedFile
	for _, pb := range result.Packages {
		for _, b := range pb.Bindings {
			def := &typedef.Definition{
				Binding:  b.Name,
				Requires: b.Requires,
				Doc:      b.Doc,
			}
			data, err := typedef.Marshal(def)
			if err != nil {
				return nil, fmt.Errorf("descriptor for %s: %w", b.Name, err)
			}
			files = append(files, GeneratedFile{
				Filename: DescriptorPath(b.Name),
				Content:  descriptorHeader + string(data),
			})
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

// DescriptorPath maps a canonical name to its definition file path.
func DescriptorPath(name string) string {
	return path.Join(strings.Split(name, ".")...) + config.TypeFileExt
}

type bindingEntry struct {
	Name         string
	GoType       string
	Constructors []string
	Funcs        []string
	Vars         []string
}

func (cg *CodeGenerator) generateBindingFile(pb *PackageBindings) (GeneratedFile, error) {
	alias := ImportAlias(pb.Path)

	entries := make([]bindingEntry, len(pb.Bindings))
	for i, b := range pb.Bindings {
		goType := alias + "." + b.TypeName
		if b.Pointer {
			goType = "*" + goType
		}
		entries[i] = bindingEntry{
			Name:         b.Name,
			GoType:       goType,
			Constructors: b.Constructors,
			Funcs:        b.Funcs,
			Vars:         b.Vars,
		}
	}

	tmpl, err := template.New("binding").Parse(bindingFileTemplate)
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("parsing template: %w", err)
	}

	data := struct {
		Package    string
		ModulePath string
		Alias      string
		Path       string
		Bindings   []bindingEntry
	}{
		Package:    cg.pkgName,
		ModulePath: cg.modulePath,
		Alias:      alias,
		Path:       pb.Path,
		Bindings:   entries,
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return GeneratedFile{}, fmt.Errorf("executing template: %w", err)
	}

	src, err := format.Source([]byte(buf.String()))
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("formatting generated code: %w", err)
	}

	return GeneratedFile{
		Filename: "reflector_" + identifier(alias) + ".go",
		Content:  string(src),
	}, nil
}

// goReservedWords are Go keywords that cannot be used as import aliases.
var goReservedWords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
	// Generated code uses these identifiers, so avoid them as aliases
	"ext": true, "init": true,
}

// ImportAlias returns a valid Go identifier for an import path.
// Handles hyphens (go-geo → gogeo), versioned paths (v2 → parent),
// and reserved words (map → pkgMap).
func ImportAlias(pkgPath string) string {
	parts := strings.Split(pkgPath, "/")
	last := parts[len(parts)-1]
	// Handle versioned imports like "v2" → use parent
	if isVersionSegment(last) && len(parts) > 1 {
		last = parts[len(parts)-2]
	}

	// Keep only letters, digits, and underscores
	alias := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, last)

	if alias == "" || unicode.IsDigit(rune(alias[0])) {
		alias = "pkg" + alias
	}

	if goReservedWords[alias] {
		alias = "pkg" + strings.ToUpper(alias[:1]) + alias[1:]
	}
	return alias
}

func isVersionSegment(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, c := range seg[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// identifier returns a valid Go identifier for a string.
// Replaces invalid characters with underscores.
func identifier(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func isIdentifier(s string) bool {
	if s == "" || goReservedWords[s] {
		return false
	}
	for i, r := range s {
		if !unicode.IsLetter(r) && r != '_' && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

const descriptorHeader = "# Code generated by reflector gen. DO NOT EDIT.\n"

// Templates

const bindingFileTemplate = `// Code generated by reflector gen. DO NOT EDIT.

package {{.Package}}

import (
	"{{.ModulePath}}/pkg/ext"

	{{.Alias}} "{{.Path}}"
)

func init() {
{{- range .Bindings}}
	ext.MustRegister(ext.Bind[{{.GoType}}]("{{.Name}}"){{range .Constructors}}.
		Constructor({{$.Alias}}.{{.}}){{end}}{{range .Funcs}}.
		Func("{{.}}", {{$.Alias}}.{{.}}){{end}}{{range .Vars}}.
		Var("{{.}}", &{{$.Alias}}.{{.}}){{end}})
{{- end}}
}
`
