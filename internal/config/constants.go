package config

import (
	"path/filepath"
	"strings"
)

// ModulePath is the import path generated code uses to reach pkg/ext
const ModulePath = "github.com/funvibe/reflector"

const TypeFileExt = ".type"

// TypeFileExtensions are all recognized type definition file extensions
var TypeFileExtensions = []string{".type", ".rtype"}

// ArchiveExtensions are the packaged archive formats a scan can open
var ArchiveExtensions = []string{".zip", ".tpk"}

// NestedSeparator marks nested/inner type fragments in a base file name
// (e.g. "B$Inner.type"). Such entries are never cataloged on their own.
const NestedSeparator = "$"

// Config file names, searched in this order
const (
	ConfigFileName    = "reflector.yaml"
	ConfigFileNameAlt = "reflector.yml"
)

// HasTypeFileExt reports whether path ends in a recognized type file
// extension. The match is case-sensitive so that every catalogued file is
// also reachable through DefinitionPaths when named in requires.
func HasTypeFileExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range TypeFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// TrimTypeFileExt removes a recognized type file extension, if any.
func TrimTypeFileExt(path string) string {
	if HasTypeFileExt(path) {
		return path[:len(path)-len(filepath.Ext(path))]
	}
	return path
}

// HasArchiveExt reports whether path names a packaged archive.
func HasArchiveExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ArchiveExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
