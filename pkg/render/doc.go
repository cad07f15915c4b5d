// Package render converts rendered diagrams between output formats.
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// The [nodelink] subpackage renders the dependency graph itself.
//
// [nodelink]: github.com/matzehuels/deprule/pkg/render/nodelink
package render
