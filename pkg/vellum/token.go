package vellum

// The tokenizer scans template source and yields a flat token sequence for
// literal text and the marker forms: variables {{ }}, block commands {% %},
// and comments {# #} (comments are dropped, never tokenized).

import "strings"

type TokenKind int

const (
	TokenText TokenKind = iota
	TokenVariable
	TokenBlock
)

// Token is one scanned unit of template source. For Variable and Block
// tokens Raw holds the whitespace-normalized inner expression; for Text
// tokens it holds the verbatim source slice.
type Token struct {
	Kind  TokenKind
	Raw   string
	Start int // byte offset of the token's first character
	End   int // byte offset just past the token
}

const (
	openVar   = "{{"
	closeVar  = "}}"
	openStmt  = "{%"
	closeStmt = "%}"
	openComm  = "{#"
	closeComm = "#}"
)

// Tokenize scans content left to right and returns its token sequence.
// A marker without its matching closer is a *SyntaxError; the tokenizer
// never needs look-ahead past the next closing marker.
func Tokenize(content string) ([]Token, error) {
	var toks []Token
	pos := 0
	for pos < len(content) {
		next, open := nextMarker(content, pos)
		if next < 0 {
			toks = append(toks, Token{Kind: TokenText, Raw: content[pos:], Start: pos, End: len(content)})
			break
		}
		if next > pos {
			toks = append(toks, Token{Kind: TokenText, Raw: content[pos:next], Start: pos, End: next})
		}
		var closer string
		var kind TokenKind
		switch open {
		case openVar:
			closer, kind = closeVar, TokenVariable
		case openStmt:
			closer, kind = closeStmt, TokenBlock
		case openComm:
			closer = closeComm
		}
		inner := next + len(open)
		end := strings.Index(content[inner:], closer)
		if end < 0 {
			return nil, &SyntaxError{Offset: next, Msg: "unterminated " + markerName(open) + " " + open + " ... " + closer}
		}
		end += inner
		if open != openComm {
			toks = append(toks, Token{
				Kind:  kind,
				Raw:   normalize(content[inner:end]),
				Start: next,
				End:   end + len(closer),
			})
		}
		pos = end + len(closer)
	}
	return toks, nil
}

// nextMarker returns the offset and opener of the nearest marker at or
// after pos, or (-1, "") when the rest of the content is plain text.
func nextMarker(content string, pos int) (int, string) {
	best := -1
	opener := ""
	for _, open := range []string{openVar, openStmt, openComm} {
		if i := strings.Index(content[pos:], open); i >= 0 {
			if best < 0 || pos+i < best {
				best = pos + i
				opener = open
			}
		}
	}
	return best, opener
}

// normalize collapses internal whitespace runs (including newlines) to
// single spaces and trims the ends, so the parser sees expressions
// independent of source formatting.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func markerName(open string) string {
	switch open {
	case openVar:
		return "variable"
	case openStmt:
		return "block"
	default:
		return "comment"
	}
}
