package vellum

import (
	"strings"
)

// Parse tokenizes and parses template content into a ParsedTemplate.
// Block commands dispatch on the first word of a {% %} token; each opener
// recursively consumes the token stream until its matching closer, so
// unmatched or stray closing tags fail here, never at render time.
func Parse(name, content string) (*ParsedTemplate, error) {
	toks, err := Tokenize(content)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.Template = name
		}
		return nil, err
	}
	p := &parser{toks: toks}
	nodes, _, err := p.parseNodes(nil)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.Template = name
		}
		return nil, err
	}

	parent := ""
	if len(nodes) > 0 {
		if en, ok := nodes[0].(*ExtendsNode); ok {
			parent = en.Template
		}
	}
	// An extends anywhere but the very first statement is an error, even
	// nested inside a body.
	var first Node
	if len(nodes) > 0 {
		first = nodes[0]
	}
	err = Walk(visitorFunc(func(n Node) error {
		if _, ok := n.(*ExtendsNode); ok && n != first {
			return &SyntaxError{Template: name, Tag: "extends", Msg: "extends must be the first statement of a template"}
		}
		return nil
	}), nodes)
	if err != nil {
		return nil, err
	}
	return NewParsedTemplate(nodes, parent), nil
}

type parser struct {
	toks []Token
	pos  int
}

// closer describes the end of a body consumed by parseNodes: the closing
// tag's command word and any trailing arguments.
type closer struct {
	tag  string
	args string
	tok  Token
}

// parseNodes consumes tokens until a block command named in terminators is
// reached, or until the end of the stream when terminators is nil. The
// matched terminator is returned to the caller, which owns the decision of
// whether it was the expected one.
func (p *parser) parseNodes(terminators map[string]bool) ([]Node, closer, error) {
	var nodes []Node
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		p.pos++
		switch tok.Kind {
		case TokenText:
			nodes = append(nodes, &TextNode{Text: tok.Raw})
		case TokenVariable:
			vn, err := parseVariable(tok)
			if err != nil {
				return nil, closer{}, err
			}
			nodes = append(nodes, vn)
		case TokenBlock:
			word, args := splitCommand(tok.Raw)
			if terminators[word] {
				return nodes, closer{tag: word, args: args, tok: tok}, nil
			}
			n, err := p.parseCommand(tok, word, args)
			if err != nil {
				return nil, closer{}, err
			}
			nodes = append(nodes, n)
		}
	}
	return nodes, closer{}, nil
}

func (p *parser) parseCommand(tok Token, word, args string) (Node, error) {
	switch word {
	case "extends":
		tpl, ok := takeQuoted(args)
		if !ok || tpl == "" {
			return nil, syntaxErr(tok, "extends", "extends expects a quoted template name")
		}
		return &ExtendsNode{Template: tpl}, nil
	case "block":
		return p.parseBlock(tok, args)
	case "if":
		return p.parseIf(tok, args)
	case "for":
		return p.parseFor(tok, args)
	case "include":
		return parseInclude(tok, args)
	case "endif", "endfor", "endblock", "else":
		return nil, syntaxErr(tok, word, "unexpected closing tag %q", word)
	default:
		return nil, syntaxErr(tok, word, "unknown block command %q", word)
	}
}

func (p *parser) parseBlock(tok Token, args string) (Node, error) {
	name := strings.TrimSpace(args)
	if name == "" || strings.ContainsAny(name, " .|") {
		return nil, syntaxErr(tok, "block", "block expects a single name, got %q", args)
	}
	body, end, err := p.parseNodes(map[string]bool{"endblock": true})
	if err != nil {
		return nil, err
	}
	if end.tag != "endblock" {
		return nil, syntaxErr(tok, "block", "block %q is never closed; expected endblock", name)
	}
	if n := strings.TrimSpace(end.args); n != "" && n != name {
		return nil, syntaxErr(end.tok, "endblock", "endblock name %q does not match block %q", n, name)
	}
	return &BlockNode{Name: name, Body: body}, nil
}

func (p *parser) parseIf(tok Token, args string) (Node, error) {
	cond, err := parseCondition(tok, args)
	if err != nil {
		return nil, err
	}
	body, end, err := p.parseNodes(map[string]bool{"else": true, "endif": true})
	if err != nil {
		return nil, err
	}
	n := &IfNode{Cond: cond, Body: body}
	if end.tag == "else" {
		elseBody, end2, err := p.parseNodes(map[string]bool{"endif": true})
		if err != nil {
			return nil, err
		}
		if end2.tag != "endif" {
			return nil, syntaxErr(tok, "if", "if with else is never closed; expected endif")
		}
		n.Else = elseBody
		return n, nil
	}
	if end.tag != "endif" {
		return nil, syntaxErr(tok, "if", "if is never closed; expected endif")
	}
	return n, nil
}

// parseFor accepts both surface syntaxes, "item in expr" and
// "expr as item", and normalizes them to one node shape.
func (p *parser) parseFor(tok Token, args string) (Node, error) {
	var item, iterable string
	if before, after, ok := strings.Cut(args, " in "); ok {
		item, iterable = strings.TrimSpace(before), strings.TrimSpace(after)
	} else if before, after, ok := strings.Cut(args, " as "); ok {
		iterable, item = strings.TrimSpace(before), strings.TrimSpace(after)
	} else {
		return nil, syntaxErr(tok, "for", "invalid for syntax %q; expected %q or %q", args, "for <item> in <expr>", "for <expr> as <item>")
	}
	if !isIdent(item) {
		return nil, syntaxErr(tok, "for", "invalid loop variable %q", item)
	}
	if iterable == "" || strings.ContainsAny(iterable, " |") {
		return nil, syntaxErr(tok, "for", "invalid iterable expression %q", iterable)
	}
	body, end, err := p.parseNodes(map[string]bool{"endfor": true})
	if err != nil {
		return nil, err
	}
	if end.tag != "endfor" {
		return nil, syntaxErr(tok, "for", "for is never closed; expected endfor")
	}
	return &ForNode{ItemVar: item, Iterable: iterable, Body: body}, nil
}

func parseInclude(tok Token, args string) (Node, error) {
	tpl, rest, ok := cutQuoted(args)
	if !ok || tpl == "" {
		return nil, syntaxErr(tok, "include", "include expects a quoted template name, got %q", args)
	}
	n := &IncludeNode{Template: tpl}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return n, nil
	}
	fields := strings.Fields(rest)
	if len(fields) != 4 || fields[0] != "with" || fields[2] != "as" || !isIdent(fields[3]) {
		return nil, syntaxErr(tok, "include", "invalid include clause %q; expected %q", rest, "with <expr> as <alias>")
	}
	n.DataSource = fields[1]
	n.Alias = fields[3]
	return n, nil
}

// parseVariable splits a {{ }} expression into a dotted base path and an
// ordered filter chain; each chain entry may carry colon-separated string
// arguments.
func parseVariable(tok Token) (*VariableNode, error) {
	parts := strings.Split(tok.Raw, "|")
	base := strings.TrimSpace(parts[0])
	vn, err := parsePath(tok, base)
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		clauses := strings.Split(strings.TrimSpace(part), ":")
		name := strings.TrimSpace(clauses[0])
		if !isIdent(name) {
			return nil, syntaxErr(tok, "", "invalid filter name %q", name)
		}
		fc := FilterCall{Name: name}
		for _, a := range clauses[1:] {
			fc.Args = append(fc.Args, strings.TrimSpace(a))
		}
		vn.Filters = append(vn.Filters, fc)
	}
	return vn, nil
}

func parsePath(tok Token, expr string) (*VariableNode, error) {
	if expr == "" || strings.ContainsAny(expr, " \t") {
		return nil, syntaxErr(tok, "", "invalid variable path %q", expr)
	}
	segs := strings.Split(expr, ".")
	for _, s := range segs {
		if s == "" {
			return nil, syntaxErr(tok, "", "invalid variable path %q", expr)
		}
	}
	return &VariableNode{Name: segs[0], Path: segs[1:]}, nil
}

// parseCondition recognizes a single == comparison (dotted path on the
// left, quoted literal on the right) and otherwise treats the whole
// expression as a truthiness test.
func parseCondition(tok Token, expr string) (Condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, syntaxErr(tok, "if", "if expects a condition")
	}
	if left, right, ok := strings.Cut(expr, "=="); ok {
		lv, err := parsePath(tok, strings.TrimSpace(left))
		if err != nil {
			return nil, err
		}
		lit := strings.TrimSpace(right)
		if s, ok := unquote(lit); ok {
			lit = s
		}
		return &Comparison{Left: lv, Right: lit}, nil
	}
	ev, err := parsePath(tok, expr)
	if err != nil {
		return nil, err
	}
	return &Truthiness{Expr: ev}, nil
}

// splitCommand separates a block token's content into its command word and
// the remaining arguments.
func splitCommand(s string) (string, string) {
	word, args, _ := strings.Cut(s, " ")
	return word, args
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '"' && q != '\'') || s[len(s)-1] != q {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// takeQuoted returns the quoted string when s is exactly one quoted value.
func takeQuoted(s string) (string, bool) {
	v, rest, ok := cutQuoted(s)
	if !ok || strings.TrimSpace(rest) != "" {
		return "", false
	}
	return v, true
}

// cutQuoted takes a leading quoted string off s and returns it with the
// remainder.
func cutQuoted(s string) (string, string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", "", false
	}
	q := s[0]
	if q != '"' && q != '\'' {
		return "", "", false
	}
	end := strings.IndexByte(s[1:], q)
	if end < 0 {
		return "", "", false
	}
	return s[1 : 1+end], s[2+end:], true
}
