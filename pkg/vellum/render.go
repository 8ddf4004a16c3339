package vellum

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
)

// maxIncludeDepth bounds recursive includes so a template including
// itself degrades into an inline diagnostic instead of unbounded
// recursion.
const maxIncludeDepth = 16

// renderer walks one template tree for one render call. It borrows the
// ParsedTemplate and never mutates it; all mutable state (the loop-frame
// stack, include depth) lives here and dies with the call.
type renderer struct {
	eng          *Engine
	res          *resolver
	includeDepth int
}

func (e *Engine) renderParsed(pt *ParsedTemplate, data map[string]any) (string, error) {
	r := &renderer{eng: e, res: &resolver{data: data}}
	var buf bytes.Buffer
	if err := r.renderTemplate(&buf, pt, map[string]bool{}, nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderTemplate renders pt, following its inheritance chain. overrides
// accumulates block bodies from child templates; a child's entry always
// wins over an ancestor's block of the same name. Substitution happens at
// the root template's top-level Block nodes only: a parent block nested
// inside an if or for body is not an override point and always renders
// its own body. The chain walk is guarded against extends cycles.
func (r *renderer) renderTemplate(buf *bytes.Buffer, pt *ParsedTemplate, seen map[string]bool, overrides map[string][]Node) error {
	if pt.Parent == "" {
		return r.renderNodes(buf, pt.Nodes, overrides)
	}
	if seen[pt.Parent] {
		return fmt.Errorf("inheritance cycle through %q", pt.Parent)
	}
	seen[pt.Parent] = true
	merged := make(map[string][]Node, len(pt.Blocks)+len(overrides))
	for name, body := range pt.Blocks {
		merged[name] = body
	}
	for name, body := range overrides {
		merged[name] = body
	}
	parent, err := r.eng.load(pt.Parent)
	if err != nil {
		return fmt.Errorf("loading parent template %q: %w", pt.Parent, err)
	}
	return r.renderTemplate(buf, parent, seen, merged)
}

// renderNodes renders one node list. overrides is only consulted for
// Block nodes in this list; override substitution happens at the
// inheritance boundary, not inside nested bodies.
func (r *renderer) renderNodes(buf *bytes.Buffer, nodes []Node, overrides map[string][]Node) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case *TextNode:
			buf.WriteString(t.Text)
		case *VariableNode:
			if err := r.renderVariable(buf, t); err != nil {
				return err
			}
		case *IfNode:
			body := t.Body
			if !r.res.evaluateCondition(t.Cond) {
				body = t.Else
			}
			if err := r.renderNodes(buf, body, nil); err != nil {
				return err
			}
		case *ForNode:
			if err := r.renderFor(buf, t); err != nil {
				return err
			}
		case *BlockNode:
			body := t.Body
			if ov, ok := overrides[t.Name]; ok {
				body = ov
			}
			if err := r.renderNodes(buf, body, nil); err != nil {
				return err
			}
		case *IncludeNode:
			r.renderInclude(buf, t)
		case *ExtendsNode:
			// Consumed by renderTemplate.
		}
	}
	return nil
}

func (r *renderer) renderVariable(buf *bytes.Buffer, v *VariableNode) error {
	val := r.res.resolveVar(v)
	raw := false
	for _, fc := range v.Filters {
		if fc.Name == "raw" {
			raw = true
			continue
		}
		out, err := r.eng.filters.Apply(fc.Name, val, fc.Args)
		if err != nil {
			return fmt.Errorf("filter %q on %s: %w", fc.Name, v.dotted(), err)
		}
		val = out
	}
	s := stringify(val)
	if !raw {
		s = html.EscapeString(s)
	}
	buf.WriteString(s)
	return nil
}

// renderFor pushes one loop-context frame per element, binding the loop
// variable and a "loop" metadata map, and pops it when the iteration body
// completes. An empty or non-iterable value renders nothing. The stack is
// left at its entry depth on every path.
func (r *renderer) renderFor(buf *bytes.Buffer, f *ForNode) error {
	items, ok := iterate(r.res.resolve(f.Iterable))
	if !ok || len(items) == 0 {
		return nil
	}
	for i, item := range items {
		r.res.push(frame{
			f.ItemVar: item,
			"loop": map[string]any{
				"index":  i + 1,
				"index0": i,
				"first":  i == 0,
				"last":   i == len(items)-1,
				"length": len(items),
			},
		})
		err := r.renderNodes(buf, f.Body, nil)
		r.res.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// renderInclude renders the referenced template against the full ambient
// context (plus the alias binding, when given). Inclusion failures are
// never fatal to the parent render: the include's position gets an inert
// HTML comment naming the template and the error instead.
func (r *renderer) renderInclude(buf *bytes.Buffer, in *IncludeNode) {
	out, err := r.include(in)
	if err != nil {
		r.eng.logger.Warn("include failed", "template", in.Template, "error", err)
		fmt.Fprintf(buf, "<!-- include %q failed: %s -->", in.Template, html.EscapeString(err.Error()))
		return
	}
	buf.WriteString(out)
}

func (r *renderer) include(in *IncludeNode) (string, error) {
	if r.includeDepth >= maxIncludeDepth {
		return "", fmt.Errorf("include depth limit (%d) exceeded", maxIncludeDepth)
	}
	pt, err := r.eng.load(in.Template)
	if err != nil {
		return "", err
	}
	if in.Alias != "" {
		r.res.push(frame{in.Alias: r.res.resolve(in.DataSource)})
		defer r.res.pop()
	}
	r.includeDepth++
	defer func() { r.includeDepth-- }()

	// Render into a scratch buffer so a mid-body failure does not leave
	// partial include output ahead of the diagnostic comment.
	var sub bytes.Buffer
	if err := r.renderTemplate(&sub, pt, map[string]bool{}, nil); err != nil {
		return "", err
	}
	return sub.String(), nil
}

// stringify converts a resolved value to its output text; nil becomes the
// empty string so missing data renders leniently.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
