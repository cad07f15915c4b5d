package format

import (
	"strings"

	"github.com/matzehuels/deprule/pkg/errors"
)

// TokenKind distinguishes literal text from placeholders.
type TokenKind int

const (
	// TokenText is a run of literal text. Escaped braces are already
	// unescaped in Value.
	TokenText TokenKind = iota
	// TokenPlaceholder is a brace-delimited name; Value holds the name
	// without braces.
	TokenPlaceholder
)

// Token is one lexical element of a template.
type Token struct {
	Kind  TokenKind
	Value string
	// Offset is the byte offset of the token in the template.
	Offset int
}

// Lex splits a template into tokens in a single pass.
//
// "{{" and "}}" stand for literal braces. "{name}" is a placeholder.
// An unterminated "{", an empty "{}", a "{" inside a placeholder, or a
// single "}" outside a placeholder yield a MALFORMED_TEMPLATE error. Lex does
// not check placeholder names; that is [Compile]'s job.
func Lex(template string) ([]Token, error) {
	var (
		tokens []Token
		text   strings.Builder
		start  int
	)

	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenText, Value: text.String(), Offset: start})
			text.Reset()
		}
	}

	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				if text.Len() == 0 {
					start = i
				}
				text.WriteByte('{')
				i += 2
				continue
			}

			end := strings.IndexAny(template[i+1:], "{}")
			if end < 0 || template[i+1+end] == '{' {
				return nil, errors.New(errors.ErrCodeMalformedTemplate, "expected '}' to close placeholder at offset %d", i)
			}
			name := template[i+1 : i+1+end]
			if name == "" {
				return nil, errors.New(errors.ErrCodeMalformedTemplate, "empty placeholder at offset %d", i)
			}

			flush()
			tokens = append(tokens, Token{Kind: TokenPlaceholder, Value: name, Offset: i})
			i += end + 2

		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				if text.Len() == 0 {
					start = i
				}
				text.WriteByte('}')
				i += 2
				continue
			}
			return nil, errors.New(errors.ErrCodeMalformedTemplate, "unexpected '}' at offset %d", i)

		default:
			if text.Len() == 0 {
				start = i
			}
			text.WriteByte(template[i])
			i++
		}
	}
	flush()

	return tokens, nil
}
