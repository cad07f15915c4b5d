// Package pkg holds the libraries behind deprule, a checker for layering
// rules in Cargo workspaces.
//
// # Overview
//
// A rule says "package X must not depend on package Y". deprule renders the
// resolved dependency graph of a workspace as an indented tree and marks
// every edge that breaks a rule. The packages follow the data flow:
//
//	cargo metadata JSON
//	         ↓
//	    [metadata]  (run cargo, decode its output)
//	         ↓
//	    [depgraph]  (packages and typed edges)
//	         ↓
//	    [workspace] (find roots by name or name:version)
//	         ↓
//	    [tree]      (render, check [rules], format lines with [format])
//	         ↓
//	    tree text, [report] JSON, [nodelink] DOT/SVG
//
// # Quick Start
//
//	m, _ := metadata.ReadFile("metadata.json")
//	g, _ := depgraph.Build(m, depgraph.BuildOptions{})
//	r, _ := rules.Load("dependency_rules.toml")
//	roots, _ := workspace.Roots(g, members, nil)
//
//	p := tree.NewPrinter(os.Stdout, g, r, nil, tree.Options{})
//	status, err := p.Print(roots)
//
// Errors carry codes from package errors, so callers can tell a broken
// rules file (RULES_SCHEMA) from an unknown package (PACKAGE_NOT_FOUND).
//
// [metadata]: https://pkg.go.dev/github.com/matzehuels/deprule/pkg/metadata
// [depgraph]: https://pkg.go.dev/github.com/matzehuels/deprule/pkg/depgraph
// [workspace]: https://pkg.go.dev/github.com/matzehuels/deprule/pkg/workspace
// [tree]: https://pkg.go.dev/github.com/matzehuels/deprule/pkg/tree
// [rules]: https://pkg.go.dev/github.com/matzehuels/deprule/pkg/rules
// [format]: https://pkg.go.dev/github.com/matzehuels/deprule/pkg/format
// [report]: https://pkg.go.dev/github.com/matzehuels/deprule/pkg/report
// [nodelink]: https://pkg.go.dev/github.com/matzehuels/deprule/pkg/render/nodelink
package pkg
