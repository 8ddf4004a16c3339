package vellum

import (
	"fmt"
	"strconv"
)

// SyntaxError is a fatal compile-time error: unterminated marker, unknown
// block command, invalid loop syntax, or an unmatched closing tag. It
// carries the byte offset into the source and, once known, the template name.
type SyntaxError struct {
	Template string
	Offset   int
	Tag      string // the offending block command, when there is one
	Msg      string
}

func (e *SyntaxError) Error() string {
	out := "syntax error"
	if e.Template != "" {
		out += " in " + strconv.Quote(e.Template)
	}
	out += " at offset " + strconv.Itoa(e.Offset)
	if e.Tag != "" {
		out += " (" + e.Tag + ")"
	}
	return out + ": " + e.Msg
}

// TemplateNotFoundError is returned by a Loader when no root contains the
// named template.
type TemplateNotFoundError struct{ Name string }

func (e *TemplateNotFoundError) Error() string { return "template not found: " + e.Name }

func syntaxErr(tok Token, tag, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: tok.Start, Tag: tag, Msg: fmt.Sprintf(format, args...)}
}
