// Package rules loads and serializes dependency rules.
//
// A rules file declares, per package, the dependencies it must not have:
//
//	[[rules.rule]]
//	package = "domain"
//	forbidden_dependencies = ["infra", "app"]
//
// The inline-array form is accepted as well:
//
//	[rules]
//	rule = [
//	    {package = "domain", forbidden_dependencies = ["infra"]},
//	]
//
// A file without a [rules] table is valid and yields no rules.
package rules

import (
	"bytes"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/errors"
)

// DependencyRule forbids Package from depending on any identifier in
// Forbidden. Forbidden is a set: order and duplicates carry no meaning.
type DependencyRule struct {
	Package   depgraph.PackageID
	Forbidden map[depgraph.PackageID]struct{}
}

// NewRule creates a rule; duplicate forbidden identifiers collapse.
func NewRule(pkg depgraph.PackageID, forbidden ...depgraph.PackageID) DependencyRule {
	set := make(map[depgraph.PackageID]struct{}, len(forbidden))
	for _, f := range forbidden {
		set[f] = struct{}{}
	}
	return DependencyRule{Package: pkg, Forbidden: set}
}

// Forbids reports whether id is in the forbidden set.
func (r DependencyRule) Forbids(id depgraph.PackageID) bool {
	_, ok := r.Forbidden[id]
	return ok
}

// ForbiddenIDs returns the forbidden set sorted ascending.
func (r DependencyRule) ForbiddenIDs() []depgraph.PackageID {
	return slices.Sorted(maps.Keys(r.Forbidden))
}

// DependencyRules is an ordered list of rules. Order is kept for
// serialization; matching considers every rule regardless of order.
type DependencyRules struct {
	rules []DependencyRule
}

// New returns a rule set holding rules in the given order.
func New(rules ...DependencyRule) *DependencyRules {
	return &DependencyRules{rules: slices.Clone(rules)}
}

// Rules returns the rules in declaration order.
func (d *DependencyRules) Rules() []DependencyRule {
	if d == nil {
		return nil
	}
	return slices.Clone(d.rules)
}

// Len returns the number of rules.
func (d *DependencyRules) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rules)
}

// Equal reports whether both rule sets hold the same rules in the same
// order, comparing forbidden sets by membership.
func (d *DependencyRules) Equal(other *DependencyRules) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i, r := range d.Rules() {
		o := other.rules[i]
		if r.Package != o.Package || !maps.Equal(r.Forbidden, o.Forbidden) {
			return false
		}
	}
	return true
}

// Violates reports whether the edge parent -> dep breaks a rule: some rule's
// package identifier matches parent and its forbidden set holds an
// identifier matching dep.
//
// An identifier matches a package when it equals either the full package
// ID or the package name. A nil rule set never reports a violation.
func (d *DependencyRules) Violates(parent, dep *depgraph.Package) bool {
	if d == nil || parent == nil || dep == nil {
		return false
	}
	for _, r := range d.rules {
		if !matches(r.Package, parent) {
			continue
		}
		if r.Forbids(dep.ID) || r.Forbids(depgraph.PackageID(dep.Name)) {
			return true
		}
	}
	return false
}

func matches(id depgraph.PackageID, p *depgraph.Package) bool {
	return id == p.ID || string(id) == p.Name
}

// Validate returns one warning per rule identifier that matches no package
// in g. Unmatched identifiers are usually typos and make a rule inert.
func (d *DependencyRules) Validate(g *depgraph.Graph) []string {
	known := func(id depgraph.PackageID) bool {
		if _, ok := g.Package(id); ok {
			return true
		}
		return len(g.FindByName(string(id))) > 0
	}

	var warnings []string
	for _, r := range d.Rules() {
		if !known(r.Package) {
			warnings = append(warnings, "rule package `"+string(r.Package)+"` matches no package in the dependency graph")
		}
		for _, f := range r.ForbiddenIDs() {
			if !known(f) {
				warnings = append(warnings, "forbidden dependency `"+string(f)+"` of `"+string(r.Package)+"` matches no package in the dependency graph")
			}
		}
	}
	return warnings
}

// Load reads and parses the rules file at path.
// A file that cannot be read fails with RULES_IO; invalid content fails
// with RULES_SCHEMA.
func Load(path string) (*DependencyRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRulesIO, err, "cannot read rules file %s", path)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRulesSchema, err, "invalid rules file %s", path)
	}
	return r, nil
}

// Parse decodes rules from TOML text.
func Parse(data []byte) (*DependencyRules, error) {
	var file fileSchema
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRulesSchema, err, "decode rules")
	}
	return file.toRules()
}

// Marshal encodes rules as TOML using [[rules.rule]] tables, with forbidden
// identifiers sorted. An empty rule set encodes to an empty document.
func Marshal(d *DependencyRules) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes rules to w; see [Marshal].
func Write(w io.Writer, d *DependencyRules) error {
	if d.Len() == 0 {
		return nil
	}
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(fromRules(d)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode rules")
	}
	return nil
}
