// Package tree renders a dependency graph as an indented tree and checks
// every rendered edge against the dependency rules.
//
// Each root is walked depth first. Dependencies are grouped by kind (normal,
// then build, then dev) and sorted by package ID inside a group, so the
// output depends only on the graph and the order of the roots. A package
// reached a second time is printed once more with a " (*)" suffix and not
// expanded again, which keeps the walk linear in the size of the graph.
//
// The violation flag of an edge flows upward: every ancestor of a violating
// edge, and every root above it, reports [Violation].
//
//	p := tree.NewPrinter(os.Stdout, g, rules, pattern, tree.Options{})
//	status, err := p.Print(roots)
//	if err != nil {
//	    return err
//	}
//	if status.Failed() {
//	    // at least one forbidden edge was printed
//	}
package tree

import (
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/errors"
	"github.com/matzehuels/deprule/pkg/format"
	"github.com/matzehuels/deprule/pkg/rules"
)

// RepeatMarker is appended to a package that was already printed.
const RepeatMarker = " (*)"

// Options configures a Printer. The zero value prints dependencies with
// UTF-8 glyphs and indentation.
type Options struct {
	Charset   Charset
	Prefix    Prefix
	Direction depgraph.Direction

	// ExpandAll expands every occurrence of a package instead of only the
	// first. Repeats still carry the marker. A package is never expanded
	// below itself.
	ExpandAll bool
}

// ForbiddenEdge is a rendered edge that breaks a rule: From depends on To.
type ForbiddenEdge struct {
	From *depgraph.Package
	To   *depgraph.Package
}

// Printer writes dependency trees. Graph, rules and pattern are only read.
// A Printer is not safe for concurrent use.
type Printer struct {
	w       io.Writer
	graph   *depgraph.Graph
	rules   *rules.DependencyRules
	pattern *format.Pattern
	opts    Options
	symbols Symbols

	violations []ForbiddenEdge
	err        error
}

// NewPrinter creates a printer writing to w. A nil pattern renders with
// [format.DefaultTemplate]; nil rules never report a violation.
func NewPrinter(w io.Writer, g *depgraph.Graph, r *rules.DependencyRules, p *format.Pattern, opts Options) *Printer {
	if p == nil {
		p = format.MustCompile(format.DefaultTemplate)
	}
	return &Printer{
		w:       w,
		graph:   g,
		rules:   r,
		pattern: p,
		opts:    opts,
		symbols: opts.Charset.Symbols(),
	}
}

// frame is the state of one root's traversal.
type frame struct {
	visited map[depgraph.PackageID]bool
	// onPath holds the packages between the root and the current line.
	onPath map[depgraph.PackageID]bool
	// levels has one entry per ancestor below the root: true when that
	// ancestor has siblings still to be printed.
	levels []bool
}

func newFrame() *frame {
	return &frame{
		visited: make(map[depgraph.PackageID]bool),
		onPath:  make(map[depgraph.PackageID]bool),
	}
}

// Print renders one tree per root, in order, and combines their outcomes.
// Each root starts with an empty visited set, so a package shared by two
// roots is expanded under both.
//
// An unknown root fails with PACKAGE_NOT_FOUND before anything is written.
// A write error stops the traversal and is returned.
func (p *Printer) Print(roots []depgraph.PackageID) (Status, error) {
	pkgs := make([]*depgraph.Package, len(roots))
	for i, id := range roots {
		pkg, ok := p.graph.Package(id)
		if !ok {
			return NoViolation, errors.New(errors.ErrCodePackageNotFound, "root package `%s` is not in the dependency graph", id)
		}
		pkgs[i] = pkg
	}

	status := NoViolation
	for _, root := range pkgs {
		status = status.Or(p.visit(newFrame(), nil, root, NoViolation))
		if p.err != nil {
			return status, p.err
		}
	}
	return status, nil
}

// Violations returns the violating edges printed so far, in output order.
func (p *Printer) Violations() []ForbiddenEdge {
	return slices.Clone(p.violations)
}

func (p *Printer) visit(f *frame, parent, pkg *depgraph.Package, inherited Status) Status {
	if p.err != nil {
		return inherited
	}

	first := !f.visited[pkg.ID]
	f.visited[pkg.ID] = true
	expand := first || (p.opts.ExpandAll && !f.onPath[pkg.ID])

	violation := p.violates(parent, pkg)
	if violation {
		from, to := parent, pkg
		if p.opts.Direction == depgraph.Incoming {
			from, to = pkg, parent
		}
		p.violations = append(p.violations, ForbiddenEdge{From: from, To: to})
	}

	var line strings.Builder
	p.writePrefix(&line, f)
	line.WriteString(p.pattern.Render(pkg, violation))
	if !first {
		line.WriteString(RepeatMarker)
	}
	p.writeLine(line.String())

	status := inherited.Or(StatusOf(violation))
	if !expand {
		return status
	}

	f.onPath[pkg.ID] = true
	for _, kind := range depgraph.Kinds {
		status = status.Or(p.visitDependencies(f, pkg, kind, status))
	}
	delete(f.onPath, pkg.ID)

	return status
}

func (p *Printer) visitDependencies(f *frame, pkg *depgraph.Package, kind depgraph.Kind, inherited Status) Status {
	deps := p.graph.Neighbors(pkg.ID, p.opts.Direction, kind)
	if len(deps) == 0 {
		return inherited
	}
	slices.SortFunc(deps, func(a, b *depgraph.Package) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})

	if label := kind.Label(); label != "" && p.opts.Prefix == PrefixIndent {
		var line strings.Builder
		for _, more := range f.levels {
			p.writeContinuation(&line, more)
		}
		line.WriteString(label)
		p.writeLine(line.String())
	}

	status := inherited
	for i, dep := range deps {
		f.levels = append(f.levels, i < len(deps)-1)
		status = status.Or(p.visit(f, pkg, dep, status))
		f.levels = f.levels[:len(f.levels)-1]
	}
	return status
}

// violates checks the real dependency edge, which for an inverted tree
// points from the printed package to its parent line.
func (p *Printer) violates(parent, pkg *depgraph.Package) bool {
	if parent == nil {
		return false
	}
	if p.opts.Direction == depgraph.Incoming {
		return p.rules.Violates(pkg, parent)
	}
	return p.rules.Violates(parent, pkg)
}

func (p *Printer) writePrefix(b *strings.Builder, f *frame) {
	switch p.opts.Prefix {
	case PrefixDepth:
		b.WriteString(strconv.Itoa(len(f.levels)))
	case PrefixIndent:
		if len(f.levels) == 0 {
			return
		}
		for _, more := range f.levels[:len(f.levels)-1] {
			p.writeContinuation(b, more)
		}
		branch := p.symbols.Ell
		if f.levels[len(f.levels)-1] {
			branch = p.symbols.Tee
		}
		b.WriteString(branch + p.symbols.Right + p.symbols.Right + " ")
	}
}

func (p *Printer) writeContinuation(b *strings.Builder, more bool) {
	if more {
		b.WriteString(p.symbols.Down + "   ")
	} else {
		b.WriteString("    ")
	}
}

func (p *Printer) writeLine(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s+"\n")
}
