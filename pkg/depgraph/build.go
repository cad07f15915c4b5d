package depgraph

import (
	"github.com/matzehuels/deprule/pkg/errors"
	"github.com/matzehuels/deprule/pkg/metadata"
)

// BuildOptions controls graph construction.
type BuildOptions struct {
	// NoDevDependencies drops [dev-dependencies] edges.
	NoDevDependencies bool
}

// Build constructs the dependency graph from cargo metadata.
//
// Every package becomes a node; every resolved dependency becomes one edge
// per distinct kind it was declared under. Packages that cannot be reached
// from a workspace member are pruned, so the graph only contains what the
// workspace actually builds.
//
// Build fails with INVALID_GRAPH when the metadata has no resolve section
// (cargo was run with --no-deps), when the resolve section refers to a
// package missing from the package list, or when the metadata predates
// per-kind dependency information (cargo older than 1.41).
func Build(m *metadata.Metadata, opts BuildOptions) (*Graph, error) {
	if m.Resolve == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "cargo metadata has no resolve section")
	}

	g := New()
	for _, p := range m.Packages {
		if err := g.AddPackage(fromMetadata(p)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "package %s", p.ID)
		}
	}

	for _, node := range m.Resolve.Nodes {
		if len(node.Deps) != len(node.Dependencies) {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "deprule requires cargo 1.41 or newer")
		}

		from := PackageID(node.ID)
		for _, dep := range node.Deps {
			if len(dep.DepKinds) == 0 {
				return nil, errors.New(errors.ErrCodeInvalidGraph, "deprule requires cargo 1.41 or newer")
			}

			for _, kind := range distinctKinds(dep.DepKinds) {
				if opts.NoDevDependencies && kind == KindDevelopment {
					continue
				}
				if err := g.AddEdge(from, PackageID(dep.Pkg), kind); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "edge %s -> %s", node.ID, dep.Pkg)
				}
			}
		}
	}

	members := make([]PackageID, len(m.WorkspaceMembers))
	for i, id := range m.WorkspaceMembers {
		members[i] = PackageID(id)
	}
	if len(members) > 0 {
		g.Retain(g.Reachable(members...))
	}

	return g, nil
}

func fromMetadata(p metadata.Package) Package {
	return Package{
		ID:           PackageID(p.ID),
		Name:         p.Name,
		Version:      p.Version,
		Source:       deref(p.Source),
		License:      deref(p.License),
		Repository:   deref(p.Repository),
		ManifestPath: p.ManifestPath,
	}
}

// distinctKinds collapses the per-platform kind entries of one dependency.
func distinctKinds(infos []metadata.DepKindInfo) []Kind {
	var kinds []Kind
	for _, info := range infos {
		k := parseKind(info.Kind)
		seen := false
		for _, existing := range kinds {
			if existing == k {
				seen = true
				break
			}
		}
		if !seen {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func parseKind(s *string) Kind {
	if s == nil {
		return KindNormal
	}
	switch *s {
	case "build":
		return KindBuild
	case "dev":
		return KindDevelopment
	default:
		return KindNormal
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
