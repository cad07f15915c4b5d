// Package depgraph provides the dependency graph that deprule checks.
//
// # Overview
//
// A [Graph] holds one [Package] per [PackageID] and directed edges tagged
// with a dependency [Kind] (normal, build or development). Edges can be
// followed in either [Direction], filtered by kind:
//
//	g := depgraph.New()
//	_ = g.AddPackage(depgraph.Package{ID: "a", Name: "a", Version: "1.0.0"})
//	_ = g.AddPackage(depgraph.Package{ID: "b", Name: "b", Version: "1.0.0"})
//	_ = g.AddEdge("a", "b", depgraph.KindNormal)
//
//	for _, dep := range g.Neighbors("a", depgraph.Outgoing, depgraph.KindNormal) {
//	    fmt.Println(dep.Name)
//	}
//
// # Construction from cargo metadata
//
// [Build] turns the output of `cargo metadata` (see package metadata) into
// a graph, collapsing per-platform duplicates and pruning packages that no
// workspace member depends on.
//
// Graphs are built once per invocation and are read-only afterwards.
package depgraph
