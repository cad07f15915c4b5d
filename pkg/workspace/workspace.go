// Package workspace locates the files of a Cargo workspace and resolves
// the packages a tree is rendered from.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/errors"
)

const (
	// RulesFileName is the rules file looked up next to the manifest.
	RulesFileName = "dependency_rules.toml"
	// ManifestFileName is the workspace manifest.
	ManifestFileName = "Cargo.toml"
)

// ManifestPath returns the absolute manifest path. An empty explicit path
// selects Cargo.toml in the working directory.
func ManifestPath(explicit string) (string, error) {
	if explicit == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "determine working directory")
		}
		return filepath.Join(wd, ManifestFileName), nil
	}

	if err := errors.ValidateManifestPath(explicit); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(explicit)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", explicit)
	}
	return abs, nil
}

// RulesPath returns the rules file that belongs to manifestPath.
func RulesPath(manifestPath string) string {
	return filepath.Join(filepath.Dir(manifestPath), RulesFileName)
}

// FindPackage resolves spec, either "name" or "name:version", to a single
// package of g.
//
// A name that is not a valid crate name fails with INVALID_PACKAGE and a
// version that is not a full semantic version with INVALID_VERSION.
// No match fails with PACKAGE_NOT_FOUND; several matches fail with
// AMBIGUOUS_PACKAGE and the message lists every candidate so the caller can
// retry with a version.
func FindPackage(g *depgraph.Graph, spec string) (depgraph.PackageID, error) {
	name, version, qualified := strings.Cut(spec, ":")
	if err := errors.ValidateCrateName(name); err != nil {
		return "", err
	}
	if qualified && !validVersion(version) {
		return "", errors.New(errors.ErrCodeInvalidVersion, "error parsing package version `%s`", version)
	}

	var candidates []*depgraph.Package
	for _, p := range g.FindByName(name) {
		if qualified && p.Version != version {
			continue
		}
		candidates = append(candidates, p)
	}

	switch len(candidates) {
	case 0:
		return "", errors.New(errors.ErrCodePackageNotFound, "no crates found for package `%s`", spec)
	case 1:
		return candidates[0].ID, nil
	}

	specs := make([]string, len(candidates))
	for i, p := range candidates {
		specs[i] = p.Spec()
	}
	return "", errors.New(errors.ErrCodeAmbiguousPackage, "multiple crates found for package `%s`: %s", spec, strings.Join(specs, ", "))
}

// Roots returns the packages to render from. Explicit specs are resolved in
// the given order. Without specs, every workspace member is resolved by its
// name and version, in workspace order.
func Roots(g *depgraph.Graph, members []depgraph.PackageID, specs []string) ([]depgraph.PackageID, error) {
	if len(specs) == 0 {
		for _, id := range members {
			p, ok := g.Package(id)
			if !ok {
				return nil, errors.New(errors.ErrCodePackageNotFound, "workspace member `%s` is not in the dependency graph", id)
			}
			specs = append(specs, p.Spec())
		}
	}

	roots := make([]depgraph.PackageID, 0, len(specs))
	for _, spec := range specs {
		id, err := FindPackage(g, spec)
		if err != nil {
			return nil, err
		}
		roots = append(roots, id)
	}
	return roots, nil
}

// validVersion accepts MAJOR.MINOR.PATCH with optional pre-release and build
// metadata. Shorthands such as "1" or "1.2" are rejected.
func validVersion(v string) bool {
	if !semver.IsValid("v" + v) {
		return false
	}
	core := v
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	return strings.Count(core, ".") == 2
}
