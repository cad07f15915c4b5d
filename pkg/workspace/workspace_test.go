package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/errors"
)

func testGraph(t *testing.T) *depgraph.Graph {
	t.Helper()
	g := depgraph.New()
	for _, p := range []depgraph.Package{
		{ID: "path+file:///work/app#0.1.0", Name: "app", Version: "0.1.0"},
		{ID: "path+file:///work/core#0.1.0", Name: "core", Version: "0.1.0"},
		{ID: "registry+https://github.com/rust-lang/crates.io-index#rand@0.7.3", Name: "rand", Version: "0.7.3"},
		{ID: "registry+https://github.com/rust-lang/crates.io-index#rand@0.8.5", Name: "rand", Version: "0.8.5"},
		{ID: "path+file:///work/tagged#1.0.0+a", Name: "tagged", Version: "1.0.0+a"},
	} {
		if err := g.AddPackage(p); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestFindPackage(t *testing.T) {
	g := testGraph(t)

	tests := []struct {
		spec     string
		want     depgraph.PackageID
		code     errors.Code
		contains string
	}{
		{spec: "app", want: "path+file:///work/app#0.1.0"},
		{spec: "app:0.1.0", want: "path+file:///work/app#0.1.0"},
		{spec: "rand:0.8.5", want: "registry+https://github.com/rust-lang/crates.io-index#rand@0.8.5"},
		{spec: "rand", code: errors.ErrCodeAmbiguousPackage, contains: "rand:0.7.3, rand:0.8.5"},
		{spec: "missing", code: errors.ErrCodePackageNotFound, contains: "`missing`"},
		{spec: "app:9.9.9", code: errors.ErrCodePackageNotFound},
		{spec: "app:1.2", code: errors.ErrCodeInvalidVersion},
		{spec: "app:latest", code: errors.ErrCodeInvalidVersion},
		{spec: "tagged:1.0.0+a", want: "path+file:///work/tagged#1.0.0+a"},
		{spec: "tagged:1.0.0+b", code: errors.ErrCodePackageNotFound},
		{spec: "tagged:1.0.0", code: errors.ErrCodePackageNotFound},
		{spec: "../x", code: errors.ErrCodeInvalidPackage},
		{spec: "", code: errors.ErrCodeInvalidPackage},
		{spec: "my.crate:1.0.0", code: errors.ErrCodeInvalidPackage},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := FindPackage(g, tt.spec)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("FindPackage() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("FindPackage() = %s, want %s", got, tt.want)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("FindPackage() error = %v, want code %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("FindPackage() error = %q, want it to contain %q", err, tt.contains)
			}
		})
	}
}

func TestRoots(t *testing.T) {
	g := testGraph(t)
	members := []depgraph.PackageID{"path+file:///work/core#0.1.0", "path+file:///work/app#0.1.0"}

	got, err := Roots(g, members, nil)
	if err != nil {
		t.Fatalf("Roots() error = %v", err)
	}
	if len(got) != 2 || got[0] != members[0] || got[1] != members[1] {
		t.Errorf("Roots() = %v, want members in workspace order", got)
	}

	got, err = Roots(g, members, []string{"rand:0.7.3"})
	if err != nil {
		t.Fatalf("Roots(specs) error = %v", err)
	}
	if len(got) != 1 || got[0] != "registry+https://github.com/rust-lang/crates.io-index#rand@0.7.3" {
		t.Errorf("Roots(specs) = %v", got)
	}

	if _, err := Roots(g, members, []string{"app", "rand"}); !errors.Is(err, errors.ErrCodeAmbiguousPackage) {
		t.Errorf("Roots(ambiguous) error = %v, want %s", err, errors.ErrCodeAmbiguousPackage)
	}
	if _, err := Roots(g, []depgraph.PackageID{"gone"}, nil); !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("Roots(unknown member) error = %v, want %s", err, errors.ErrCodePackageNotFound)
	}
}

func TestManifestPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	got, err := ManifestPath("")
	if err != nil {
		t.Fatalf("ManifestPath() error = %v", err)
	}
	wd, _ := os.Getwd()
	if got != filepath.Join(wd, "Cargo.toml") {
		t.Errorf("ManifestPath() = %s", got)
	}

	got, err = ManifestPath("sub/Cargo.toml")
	if err != nil {
		t.Fatalf("ManifestPath(relative) error = %v", err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "Cargo.toml" {
		t.Errorf("ManifestPath(relative) = %s, want absolute", got)
	}

	if _, err := ManifestPath("sub/Other.toml"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("ManifestPath(bad name) error = %v, want %s", err, errors.ErrCodeInvalidPath)
	}
}

func TestRulesPath(t *testing.T) {
	got := RulesPath("/work/tangled/Cargo.toml")
	if got != filepath.Join("/work/tangled", RulesFileName) {
		t.Errorf("RulesPath() = %s", got)
	}
}
