package tree

import (
	"github.com/matzehuels/deprule/pkg/errors"
)

// Symbols are the glyphs used to draw tree branches.
type Symbols struct {
	Down  string // continuation of an ancestor with more siblings
	Tee   string // branch with more siblings following
	Ell   string // last branch
	Right string // horizontal stroke after Tee or Ell
}

var (
	// UTF8Symbols draws with box-drawing characters.
	UTF8Symbols = Symbols{Down: "│", Tee: "├", Ell: "└", Right: "─"}
	// ASCIISymbols draws with plain ASCII.
	ASCIISymbols = Symbols{Down: "|", Tee: "|", Ell: "`", Right: "-"}
)

// Charset selects a glyph set.
type Charset int

const (
	CharsetUTF8 Charset = iota
	CharsetASCII
)

// ParseCharset parses "utf8" or "ascii".
func ParseCharset(s string) (Charset, error) {
	switch s {
	case "utf8":
		return CharsetUTF8, nil
	case "ascii":
		return CharsetASCII, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid charset %q (want utf8 or ascii)", s)
	}
}

// Symbols returns the glyph set of c.
func (c Charset) Symbols() Symbols {
	if c == CharsetASCII {
		return ASCIISymbols
	}
	return UTF8Symbols
}

func (c Charset) String() string {
	if c == CharsetASCII {
		return "ascii"
	}
	return "utf8"
}

// Prefix selects what precedes each rendered package.
type Prefix int

const (
	// PrefixIndent draws branch glyphs and category labels.
	PrefixIndent Prefix = iota
	// PrefixDepth writes the depth of the line as a number. Category labels
	// are omitted.
	PrefixDepth
	// PrefixNone writes the package alone.
	PrefixNone
)

// ParsePrefix parses "indent", "depth" or "none".
func ParsePrefix(s string) (Prefix, error) {
	switch s {
	case "indent":
		return PrefixIndent, nil
	case "depth":
		return PrefixDepth, nil
	case "none":
		return PrefixNone, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid prefix %q (want indent, depth or none)", s)
	}
}

func (p Prefix) String() string {
	switch p {
	case PrefixDepth:
		return "depth"
	case PrefixNone:
		return "none"
	default:
		return "indent"
	}
}
