package depgraph

import (
	"errors"
	"maps"
	"path/filepath"
	"slices"
)

var (
	// ErrInvalidPackageID is returned by [Graph.AddPackage] when the package
	// ID is empty.
	ErrInvalidPackageID = errors.New("package ID must not be empty")

	// ErrDuplicatePackage is returned by [Graph.AddPackage] when a package
	// with the same ID already exists. A graph holds one node per PackageID.
	ErrDuplicatePackage = errors.New("duplicate package ID")

	// ErrUnknownSourcePackage is returned by [Graph.AddEdge] when the From
	// package does not exist.
	ErrUnknownSourcePackage = errors.New("unknown source package")

	// ErrUnknownTargetPackage is returned by [Graph.AddEdge] when the To
	// package does not exist.
	ErrUnknownTargetPackage = errors.New("unknown target package")
)

// PackageID uniquely identifies one package instance (name, version and
// source). Comparison is exact string equality.
type PackageID string

// Registry source strings of crates.io, for the git and sparse protocols.
const (
	CratesIOGitSource    = "registry+https://github.com/rust-lang/crates.io-index"
	CratesIOSparseSource = "sparse+https://index.crates.io/"
)

// Package is a node of the dependency graph.
//
// Source is empty for packages without a registry or git origin (path
// dependencies and workspace members). License and Repository are empty when
// the manifest does not declare them.
type Package struct {
	ID           PackageID
	Name         string
	Version      string
	Source       string
	License      string
	Repository   string
	ManifestPath string
}

// IsCratesIO reports whether the package comes from the default public
// registry.
func (p *Package) IsCratesIO() bool {
	return p.Source == CratesIOGitSource || p.Source == CratesIOSparseSource
}

// ManifestDir returns the directory containing the package manifest.
func (p *Package) ManifestDir() string {
	if p.ManifestPath == "" {
		return ""
	}
	return filepath.Dir(p.ManifestPath)
}

// Spec returns the "name:version" form accepted by root lookup.
func (p *Package) Spec() string {
	return p.Name + ":" + p.Version
}

// Kind classifies a dependency edge.
type Kind int

const (
	// KindNormal is a regular [dependencies] entry.
	KindNormal Kind = iota
	// KindBuild is a [build-dependencies] entry.
	KindBuild
	// KindDevelopment is a [dev-dependencies] entry.
	KindDevelopment
)

// Kinds lists every dependency kind in traversal order.
var Kinds = []Kind{KindNormal, KindBuild, KindDevelopment}

// String returns the cargo metadata spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindDevelopment:
		return "dev"
	default:
		return "normal"
	}
}

// Label returns the manifest section heading for the kind, or "" for
// normal dependencies which are printed without a heading.
func (k Kind) Label() string {
	switch k {
	case KindBuild:
		return "[build-dependencies]"
	case KindDevelopment:
		return "[dev-dependencies]"
	default:
		return ""
	}
}

// Direction selects which edges of a node are followed.
type Direction int

const (
	// Outgoing follows edges from a package to its dependencies.
	Outgoing Direction = iota
	// Incoming follows edges from a package to its dependents.
	Incoming
)

// Edge is a directed dependency edge: From depends on To.
type Edge struct {
	From PackageID
	To   PackageID
	Kind Kind
}

// Graph is a directed dependency graph keyed by PackageID.
//
// The zero value is not usable; create graphs with [New]. A Graph is
// read-only once built and may then be shared freely. It is not safe for
// concurrent mutation.
type Graph struct {
	packages map[PackageID]*Package
	edges    []Edge
	seen     map[Edge]struct{}
	outgoing map[PackageID][]Edge
	incoming map[PackageID][]Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		packages: make(map[PackageID]*Package),
		seen:     make(map[Edge]struct{}),
		outgoing: make(map[PackageID][]Edge),
		incoming: make(map[PackageID][]Edge),
	}
}

// AddPackage adds a package node.
// Returns ErrInvalidPackageID if the ID is empty, or ErrDuplicatePackage if
// the ID is already present.
func (g *Graph) AddPackage(p Package) error {
	if p.ID == "" {
		return ErrInvalidPackageID
	}
	if _, exists := g.packages[p.ID]; exists {
		return ErrDuplicatePackage
	}
	pkg := p
	g.packages[p.ID] = &pkg
	return nil
}

// AddEdge adds a dependency edge between two existing packages.
// Adding the same (from, to, kind) edge twice is a no-op; cargo reports one
// entry per platform target and those collapse here.
func (g *Graph) AddEdge(from, to PackageID, kind Kind) error {
	if _, ok := g.packages[from]; !ok {
		return ErrUnknownSourcePackage
	}
	if _, ok := g.packages[to]; !ok {
		return ErrUnknownTargetPackage
	}
	e := Edge{From: from, To: to, Kind: kind}
	if _, dup := g.seen[e]; dup {
		return nil
	}
	g.seen[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[from] = append(g.outgoing[from], e)
	g.incoming[to] = append(g.incoming[to], e)
	return nil
}

// Package returns the package with the given ID.
func (g *Graph) Package(id PackageID) (*Package, bool) {
	p, ok := g.packages[id]
	return p, ok
}

// Packages returns all packages sorted by ID.
func (g *Graph) Packages() []*Package {
	ids := slices.Sorted(maps.Keys(g.packages))
	pkgs := make([]*Package, len(ids))
	for i, id := range ids {
		pkgs[i] = g.packages[id]
	}
	return pkgs
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of packages.
func (g *Graph) NodeCount() int { return len(g.packages) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Neighbors returns the packages adjacent to id along edges of the given
// kind, in edge insertion order. For Outgoing these are the dependencies of
// id, for Incoming its dependents. Callers that need a stable order sort the
// result themselves.
func (g *Graph) Neighbors(id PackageID, dir Direction, kind Kind) []*Package {
	var edges []Edge
	if dir == Incoming {
		edges = g.incoming[id]
	} else {
		edges = g.outgoing[id]
	}

	var result []*Package
	for _, e := range edges {
		if e.Kind != kind {
			continue
		}
		other := e.To
		if dir == Incoming {
			other = e.From
		}
		result = append(result, g.packages[other])
	}
	return result
}

// Reachable returns the IDs reachable from roots following outgoing edges
// of any kind, roots included.
func (g *Graph) Reachable(roots ...PackageID) map[PackageID]bool {
	seen := make(map[PackageID]bool)
	stack := make([]PackageID, 0, len(roots))
	for _, r := range roots {
		if _, ok := g.packages[r]; ok {
			stack = append(stack, r)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, e := range g.outgoing[id] {
			if !seen[e.To] {
				stack = append(stack, e.To)
			}
		}
	}
	return seen
}

// Retain removes every package whose ID is not in keep, together with all
// edges touching it.
func (g *Graph) Retain(keep map[PackageID]bool) {
	for id := range g.packages {
		if !keep[id] {
			delete(g.packages, id)
			delete(g.outgoing, id)
			delete(g.incoming, id)
		}
	}

	kept := func(e Edge) bool { return keep[e.From] && keep[e.To] }
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return !kept(e) })
	for e := range g.seen {
		if !kept(e) {
			delete(g.seen, e)
		}
	}
	for id, es := range g.outgoing {
		g.outgoing[id] = slices.DeleteFunc(es, func(e Edge) bool { return !kept(e) })
	}
	for id, es := range g.incoming {
		g.incoming[id] = slices.DeleteFunc(es, func(e Edge) bool { return !kept(e) })
	}
}

// FindByName returns every package whose name equals name, sorted by ID.
func (g *Graph) FindByName(name string) []*Package {
	var result []*Package
	for _, p := range g.Packages() {
		if p.Name == name {
			result = append(result, p)
		}
	}
	return result
}
