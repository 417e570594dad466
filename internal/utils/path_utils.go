package utils

import (
	"fmt"
	"path"
	"strings"

	"github.com/funvibe/reflector/internal/config"
)

// ToSlash normalizes both forward and backward separators to "/" regardless
// of the host platform. filepath.ToSlash only rewrites the host separator.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// IsNested reports whether a type file denotes a nested/inner fragment.
// Only the base name is checked; directories may legitimately contain "$".
func IsNested(p string) bool {
	return strings.Contains(path.Base(ToSlash(p)), config.NestedSeparator)
}

// IsTypeFile reports whether p is a loadable, non-nested type definition file.
func IsTypeFile(p string) bool {
	return config.HasTypeFileExt(p) && !IsNested(p)
}

// CanonicalName derives the dotted type name from a path relative to a scan
// root or archive: separators become ".", the type file extension is stripped.
// "a/b/C.type" and "a\\b\\C.type" both yield "a.b.C".
func CanonicalName(rel string) (string, error) {
	p := strings.TrimPrefix(ToSlash(rel), "./")
	p = strings.TrimPrefix(p, "/")
	if !config.HasTypeFileExt(p) {
		return "", fmt.Errorf("%s: not a type definition file", rel)
	}
	p = config.TrimTypeFileExt(p)
	if p == "" {
		return "", fmt.Errorf("%s: empty type name", rel)
	}
	segments := strings.Split(p, "/")
	for _, s := range segments {
		if s == "" || s == "." || s == ".." {
			return "", fmt.Errorf("%s: malformed path segment %q", rel, s)
		}
		if strings.Contains(s, ".") {
			return "", fmt.Errorf("%s: path segment %q contains a dot", rel, s)
		}
	}
	return strings.Join(segments, "."), nil
}

// DefinitionPaths is the inverse of CanonicalName: the slash-separated paths a
// type definition for name may live at, relative to its root.
func DefinitionPaths(name string) []string {
	base := strings.ReplaceAll(name, ".", "/")
	paths := make([]string, len(config.TypeFileExtensions))
	for i, ext := range config.TypeFileExtensions {
		paths[i] = base + ext
	}
	return paths
}
