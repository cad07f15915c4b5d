// Package metadata collects Cargo workspace metadata.
//
// The metadata is the JSON document printed by
//
//	cargo metadata --format-version 1
//
// It lists every package in the resolved dependency graph together with the
// resolve section that links packages to their dependencies. [Collect] runs
// cargo as a subprocess; [ReadFile] and [Decode] load a previously saved
// document, which keeps tests and offline runs independent of a toolchain.
//
// Only the fields deprule needs are decoded. Unknown fields are ignored so
// newer cargo releases keep working.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/deprule/pkg/errors"
)

// Metadata is the decoded output of `cargo metadata --format-version 1`.
type Metadata struct {
	Packages         []Package `json:"packages"`
	WorkspaceMembers []string  `json:"workspace_members"`
	Resolve          *Resolve  `json:"resolve"`
	WorkspaceRoot    string    `json:"workspace_root"`
	TargetDirectory  string    `json:"target_directory"`
	Version          int       `json:"version"`
}

// Package describes one package instance.
// Source is nil for path dependencies and workspace members.
type Package struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	Source       *string `json:"source"`
	License      *string `json:"license"`
	Repository   *string `json:"repository"`
	ManifestPath string  `json:"manifest_path"`
}

// Resolve is the dependency resolution section.
// Root is nil for virtual workspaces.
type Resolve struct {
	Nodes []Node  `json:"nodes"`
	Root  *string `json:"root"`
}

// Node lists the resolved dependencies of a single package.
type Node struct {
	ID           string    `json:"id"`
	Dependencies []string  `json:"dependencies"`
	Deps         []NodeDep `json:"deps"`
	Features     []string  `json:"features"`
}

// NodeDep is one dependency edge with the kinds it was declared under.
type NodeDep struct {
	Name     string        `json:"name"`
	Pkg      string        `json:"pkg"`
	DepKinds []DepKindInfo `json:"dep_kinds"`
}

// DepKindInfo is the kind of a dependency and the platform it applies to.
// Kind is nil for normal dependencies, "build" or "dev" otherwise.
type DepKindInfo struct {
	Kind   *string `json:"kind"`
	Target *string `json:"target"`
}

// Package returns the package with the given ID.
func (m *Metadata) Package(id string) (*Package, bool) {
	for i := range m.Packages {
		if m.Packages[i].ID == id {
			return &m.Packages[i], true
		}
	}
	return nil, false
}

// Decode reads a metadata document from r.
func Decode(r io.Reader) (*Metadata, error) {
	var m Metadata
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadata, err, "error parsing cargo metadata output")
	}
	if m.Version != 0 && m.Version != 1 {
		return nil, errors.New(errors.ErrCodeMetadata, "unsupported cargo metadata format version %d", m.Version)
	}
	return &m, nil
}

// ReadFile reads a saved metadata document at path.
// The file is closed before ReadFile returns.
func ReadFile(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadata, err, "open %s", path)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
