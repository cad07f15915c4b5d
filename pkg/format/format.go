// Package format renders one package as a line of text from a small template
// language.
//
// A template mixes literal text with placeholders:
//
//	{p}  package: "name vVERSION" plus an origin suffix
//	{l}  license, or nothing
//	{r}  repository URL, or nothing
//
// "{{" and "}}" produce literal braces. A template is compiled once with
// [Compile] and the resulting [Pattern] is reused for every line of a tree:
//
//	p, err := format.Compile("{p} {l}")
//	if err != nil {
//	    return err // UNSUPPORTED_PLACEHOLDER or MALFORMED_TEMPLATE
//	}
//	line := p.Render(pkg, false)
//
// Rendering in violation mode passes the package text through the pattern's
// highlight function so the offending dependency stands out in the tree.
package format

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/errors"
)

// DefaultTemplate renders just the package.
const DefaultTemplate = "{p}"

type chunkKind int

const (
	chunkText chunkKind = iota
	chunkPackage
	chunkViolationPackage
	chunkLicense
	chunkRepository
)

type chunk struct {
	kind chunkKind
	text string
}

// Pattern is a compiled template. It is immutable and safe to share.
type Pattern struct {
	chunks    []chunk
	highlight func(string) string
}

// Option configures a Pattern at compile time.
type Option func(*Pattern)

// WithHighlight sets the function that emphasizes a package rendered in
// violation mode. A nil function leaves the text unchanged.
func WithHighlight(fn func(string) string) Option {
	return func(p *Pattern) {
		p.highlight = fn
	}
}

// ViolationStyle is the default emphasis: reverse video in red. Whether
// escape codes are emitted depends on the color profile of the default
// lipgloss renderer.
var ViolationStyle = lipgloss.NewStyle().Reverse(true).Foreground(lipgloss.Color("167"))

// DefaultHighlight renders s with [ViolationStyle].
func DefaultHighlight(s string) string {
	return ViolationStyle.Render(s)
}

// MarkerHighlight appends a textual marker, for output without colors.
func MarkerHighlight(s string) string {
	return s + " (!)"
}

// Compile parses template into a Pattern.
//
// Unknown placeholder names fail with UNSUPPORTED_PLACEHOLDER; the message
// names the placeholder. Brace syntax errors fail with MALFORMED_TEMPLATE.
func Compile(template string, opts ...Option) (*Pattern, error) {
	tokens, err := Lex(template)
	if err != nil {
		return nil, err
	}

	p := &Pattern{highlight: DefaultHighlight}
	for _, opt := range opts {
		opt(p)
	}

	for _, tok := range tokens {
		if tok.Kind == TokenText {
			p.chunks = append(p.chunks, chunk{kind: chunkText, text: tok.Value})
			continue
		}
		switch tok.Value {
		case "p":
			p.chunks = append(p.chunks, chunk{kind: chunkPackage})
		case "l":
			p.chunks = append(p.chunks, chunk{kind: chunkLicense})
		case "r":
			p.chunks = append(p.chunks, chunk{kind: chunkRepository})
		default:
			return nil, errors.New(errors.ErrCodeUnsupportedPlaceholder, "unsupported pattern `%s`", tok.Value)
		}
	}

	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(template string, opts ...Option) *Pattern {
	p, err := Compile(template, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Render formats pkg. In violation mode every package chunk is rendered
// with the highlight function; all other chunks are unaffected.
func (p *Pattern) Render(pkg *depgraph.Package, violation bool) string {
	var b strings.Builder
	for _, c := range p.chunks {
		kind := c.kind
		if violation && kind == chunkPackage {
			kind = chunkViolationPackage
		}

		switch kind {
		case chunkText:
			b.WriteString(c.text)
		case chunkPackage:
			b.WriteString(packageText(pkg))
		case chunkViolationPackage:
			text := packageText(pkg)
			if p.highlight != nil {
				text = p.highlight(text)
			}
			b.WriteString(text)
		case chunkLicense:
			b.WriteString(pkg.License)
		case chunkRepository:
			b.WriteString(pkg.Repository)
		}
	}
	return b.String()
}

// packageText is "name vVERSION", followed by the source in parentheses for
// packages outside crates.io, or by the manifest directory for packages
// without any source.
func packageText(pkg *depgraph.Package) string {
	s := pkg.Name + " v" + pkg.Version
	switch {
	case pkg.Source == "":
		s += " (" + pkg.ManifestDir() + ")"
	case !pkg.IsCratesIO():
		s += " (" + pkg.Source + ")"
	}
	return s
}
