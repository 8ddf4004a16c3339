package vellum

import (
	"bytes"
	"fmt"
)

type Visitor interface {
	Visit(n Node) error
}

type visitorFunc func(n Node) error

func (f visitorFunc) Visit(n Node) error { return f(n) }

// Walk visits every node in the list depth-first, in document order.
func Walk(v Visitor, nodes []Node) error {
	for _, n := range nodes {
		if err := v.Visit(n); err != nil {
			return err
		}
		switch t := n.(type) {
		case *IfNode:
			if err := Walk(v, t.Body); err != nil {
				return err
			}
			if err := Walk(v, t.Else); err != nil {
				return err
			}
		case *ForNode:
			if err := Walk(v, t.Body); err != nil {
				return err
			}
		case *BlockNode:
			if err := Walk(v, t.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

// templateRefs returns the names of every template the tree loads at
// render time: the parent plus all includes, in encounter order.
func templateRefs(pt *ParsedTemplate) []string {
	var refs []string
	if pt.Parent != "" {
		refs = append(refs, pt.Parent)
	}
	_ = Walk(visitorFunc(func(n Node) error {
		if in, ok := n.(*IncludeNode); ok {
			refs = append(refs, in.Template)
		}
		return nil
	}), pt.Nodes)
	return refs
}

// Pretty returns a line-oriented string representation of the AST.
func Pretty(pt *ParsedTemplate) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Template(parent=%q)\n", pt.Parent)
	ppNodes(&buf, 2, pt.Nodes)
	return buf.String()
}

func ppNodes(buf *bytes.Buffer, indent int, nodes []Node) {
	for _, n := range nodes {
		ppNode(buf, indent, n)
	}
}

func ppNode(buf *bytes.Buffer, indent int, n Node) {
	ind := func() {
		for i := 0; i < indent; i++ {
			buf.WriteByte(' ')
		}
	}
	switch t := n.(type) {
	case *TextNode:
		ind()
		fmt.Fprintf(buf, "Text(%q)\n", t.Text)
	case *VariableNode:
		ind()
		fmt.Fprintf(buf, "Variable(%s", t.dotted())
		for _, f := range t.Filters {
			fmt.Fprintf(buf, " | %s", f.Name)
			for _, a := range f.Args {
				fmt.Fprintf(buf, ":%s", a)
			}
		}
		buf.WriteString(")\n")
	case *IfNode:
		ind()
		switch c := t.Cond.(type) {
		case *Comparison:
			fmt.Fprintf(buf, "If(%s == %q)\n", c.Left.dotted(), c.Right)
		case *Truthiness:
			fmt.Fprintf(buf, "If(%s)\n", c.Expr.dotted())
		}
		ppNodes(buf, indent+2, t.Body)
		if len(t.Else) > 0 {
			ind()
			buf.WriteString("Else\n")
			ppNodes(buf, indent+2, t.Else)
		}
	case *ForNode:
		ind()
		fmt.Fprintf(buf, "For(%s in %s)\n", t.ItemVar, t.Iterable)
		ppNodes(buf, indent+2, t.Body)
	case *BlockNode:
		ind()
		fmt.Fprintf(buf, "Block(%s)\n", t.Name)
		ppNodes(buf, indent+2, t.Body)
	case *ExtendsNode:
		ind()
		fmt.Fprintf(buf, "Extends(%q)\n", t.Template)
	case *IncludeNode:
		ind()
		if t.Alias != "" {
			fmt.Fprintf(buf, "Include(%q with %s as %s)\n", t.Template, t.DataSource, t.Alias)
		} else {
			fmt.Fprintf(buf, "Include(%q)\n", t.Template)
		}
	}
}

func (v *VariableNode) dotted() string {
	out := v.Name
	for _, p := range v.Path {
		out += "." + p
	}
	return out
}
