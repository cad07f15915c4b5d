package rules

import (
	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/errors"
)

// fileSchema mirrors the rules file. Pointer fields distinguish a missing
// key from an empty value.
type fileSchema struct {
	Rules *rulesSchema `toml:"rules,omitempty"`
}

type rulesSchema struct {
	Rule *[]ruleSchema `toml:"rule"`
}

type ruleSchema struct {
	Package               *string   `toml:"package"`
	ForbiddenDependencies *[]string `toml:"forbidden_dependencies"`
}

func (f fileSchema) toRules() (*DependencyRules, error) {
	if f.Rules == nil {
		return New(), nil
	}
	if f.Rules.Rule == nil {
		return nil, errors.New(errors.ErrCodeRulesSchema, "missing field `rule` in table `rules`")
	}

	entries := *f.Rules.Rule
	rules := make([]DependencyRule, 0, len(entries))
	for i, entry := range entries {
		if entry.Package == nil {
			return nil, errors.New(errors.ErrCodeRulesSchema, "rule %d: missing field `package`", i+1)
		}
		if entry.ForbiddenDependencies == nil {
			return nil, errors.New(errors.ErrCodeRulesSchema, "rule %d (%s): missing field `forbidden_dependencies`", i+1, *entry.Package)
		}

		forbidden := make([]depgraph.PackageID, len(*entry.ForbiddenDependencies))
		for j, f := range *entry.ForbiddenDependencies {
			forbidden[j] = depgraph.PackageID(f)
		}
		rules = append(rules, NewRule(depgraph.PackageID(*entry.Package), forbidden...))
	}
	return New(rules...), nil
}

func fromRules(d *DependencyRules) fileSchema {
	entries := make([]ruleSchema, 0, d.Len())
	for _, r := range d.Rules() {
		pkg := string(r.Package)
		ids := r.ForbiddenIDs()
		forbidden := make([]string, len(ids))
		for i, id := range ids {
			forbidden[i] = string(id)
		}
		entries = append(entries, ruleSchema{Package: &pkg, ForbiddenDependencies: &forbidden})
	}
	return fileSchema{Rules: &rulesSchema{Rule: &entries}}
}
