package nodelink

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/render"
	"github.com/matzehuels/deprule/pkg/rules"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the source and license to node labels.
	// When false, only "name vVERSION" is shown.
	Detailed bool

	// Members are drawn filled to set the workspace apart from its
	// dependencies.
	Members []depgraph.PackageID
}

// ToDOT converts a dependency graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Nodes and edges are emitted sorted by package ID, so equal graphs produce
// equal DOT. Edges that break a rule in r are drawn red and bold; build
// edges are dotted and dev edges dashed.
func ToDOT(g *depgraph.Graph, r *rules.DependencyRules, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, p := range g.Packages() {
		label := fmtLabel(p, opts.Detailed)
		attrs := fmtAttrs(label, slices.Contains(opts.Members, p.ID))
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range sortedEdges(g) {
		from, _ := g.Package(e.From)
		to, _ := g.Package(e.To)
		attrs := edgeAttrs(e.Kind, r.Violates(from, to))
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func sortedEdges(g *depgraph.Graph) []depgraph.Edge {
	edges := g.Edges()
	slices.SortFunc(edges, func(a, b depgraph.Edge) int {
		return cmp.Or(
			cmp.Compare(a.From, b.From),
			cmp.Compare(a.To, b.To),
			cmp.Compare(a.Kind, b.Kind),
		)
	})
	return edges
}

func fmtLabel(p *depgraph.Package, detailed bool) string {
	label := p.Name + " v" + p.Version
	if !detailed {
		return label
	}

	var parts []string
	switch {
	case p.Source == "":
		parts = append(parts, "path: "+p.ManifestDir())
	case !p.IsCratesIO():
		parts = append(parts, "source: "+p.Source)
	}
	if p.License != "" {
		parts = append(parts, "license: "+p.License)
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(label string, member bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if member {
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}

func edgeAttrs(kind depgraph.Kind, violation bool) []string {
	var attrs []string
	switch kind {
	case depgraph.KindBuild:
		attrs = append(attrs, "style=dotted")
	case depgraph.KindDevelopment:
		attrs = append(attrs, "style=dashed")
	}
	if violation {
		attrs = append(attrs, "color=red", "penwidth=3")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
