package utils

import "testing"

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		rel      string
		expected string
		wantErr  bool
	}{
		{"a/B.type", "a.B", false},
		{"a\\B.type", "a.B", false},
		{"pkg\\sub/C.rtype", "pkg.sub.C", false},
		{"./pkg/A.type", "pkg.A", false},
		{"/pkg/A.type", "pkg.A", false},
		{"Top.type", "Top", false},
		{"a//B.type", "", true},
		{".type", "", true},
		{"a/../B.type", "", true},
		{"a.b/C.type", "", true},
		{"a/B.txt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, err := CanonicalName(tt.rel)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CanonicalName(%q) = %q; want error", tt.rel, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("CanonicalName(%q): unexpected error: %v", tt.rel, err)
			}
			if got != tt.expected {
				t.Errorf("CanonicalName(%q) = %q; want %q", tt.rel, got, tt.expected)
			}
		})
	}
}

func TestIsTypeFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"a/B.type", true},
		{"a/B$Inner.type", false},
		{"a\\B$1.type", false},
		{"dir$x/B.type", true},
		{"a/B.TYPE", false},
		{"a/B.rtype", true},
		{"a/B.zip", false},
		{"a/B", false},
	}
	for _, tt := range tests {
		if got := IsTypeFile(tt.path); got != tt.expected {
			t.Errorf("IsTypeFile(%q) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestDefinitionPaths(t *testing.T) {
	paths := DefinitionPaths("pkg.sub.A")
	if len(paths) == 0 || paths[0] != "pkg/sub/A.type" {
		t.Fatalf("DefinitionPaths = %v; want pkg/sub/A.type first", paths)
	}
	for _, p := range paths {
		name, err := CanonicalName(p)
		if err != nil || name != "pkg.sub.A" {
			t.Errorf("CanonicalName(%q) = %q, %v; want pkg.sub.A", p, name, err)
		}
	}
}

func TestMemberFallbackName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"sum", "Sum"},
		{"Sum", ""},
		{"", ""},
		{"_x", ""},
		{"éclair", "Éclair"},
	}
	for _, tt := range tests {
		if got := MemberFallbackName(tt.in); got != tt.want {
			t.Errorf("MemberFallbackName(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
