package cache

// Tagged-JSON encoding of the template AST. Each node carries a "kind"
// discriminator; decoding an unknown kind means the artifact was written
// by an incompatible build and is treated as corruption by the caller.

import (
	"fmt"

	"github.com/vellumhq/vellum/pkg/vellum"
)

type nodeJSON struct {
	Kind string `json:"kind"`

	Text string `json:"text,omitempty"` // text

	Var *varJSON `json:"var,omitempty"` // var

	Cond *condJSON  `json:"cond,omitempty"` // if
	Body []nodeJSON `json:"body,omitempty"` // if, for, block
	Else []nodeJSON `json:"else,omitempty"` // if

	ItemVar  string `json:"item_var,omitempty"` // for
	Iterable string `json:"iterable,omitempty"` // for

	Name string `json:"name,omitempty"` // block

	Template   string `json:"template,omitempty"`    // include, extends
	DataSource string `json:"data_source,omitempty"` // include
	Alias      string `json:"alias,omitempty"`       // include
}

type varJSON struct {
	Name    string       `json:"name"`
	Path    []string     `json:"path,omitempty"`
	Filters []filterJSON `json:"filters,omitempty"`
}

type filterJSON struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

type condJSON struct {
	Kind  string   `json:"kind"` // "cmp" or "truth"
	Left  *varJSON `json:"left,omitempty"`
	Right string   `json:"right,omitempty"`
}

func encodeNodes(nodes []vellum.Node) []nodeJSON {
	out := make([]nodeJSON, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, encodeNode(n))
	}
	return out
}

func encodeNode(n vellum.Node) nodeJSON {
	switch t := n.(type) {
	case *vellum.TextNode:
		return nodeJSON{Kind: "text", Text: t.Text}
	case *vellum.VariableNode:
		return nodeJSON{Kind: "var", Var: encodeVar(t)}
	case *vellum.IfNode:
		return nodeJSON{Kind: "if", Cond: encodeCond(t.Cond), Body: encodeNodes(t.Body), Else: encodeNodes(t.Else)}
	case *vellum.ForNode:
		return nodeJSON{Kind: "for", ItemVar: t.ItemVar, Iterable: t.Iterable, Body: encodeNodes(t.Body)}
	case *vellum.BlockNode:
		return nodeJSON{Kind: "block", Name: t.Name, Body: encodeNodes(t.Body)}
	case *vellum.IncludeNode:
		return nodeJSON{Kind: "include", Template: t.Template, DataSource: t.DataSource, Alias: t.Alias}
	case *vellum.ExtendsNode:
		return nodeJSON{Kind: "extends", Template: t.Template}
	default:
		// Unreachable for trees produced by the parser.
		return nodeJSON{Kind: fmt.Sprintf("?%T", n)}
	}
}

func encodeVar(v *vellum.VariableNode) *varJSON {
	out := &varJSON{Name: v.Name, Path: v.Path}
	for _, f := range v.Filters {
		out.Filters = append(out.Filters, filterJSON{Name: f.Name, Args: f.Args})
	}
	return out
}

func encodeCond(c vellum.Condition) *condJSON {
	switch t := c.(type) {
	case *vellum.Comparison:
		return &condJSON{Kind: "cmp", Left: encodeVar(t.Left), Right: t.Right}
	case *vellum.Truthiness:
		return &condJSON{Kind: "truth", Left: encodeVar(t.Expr)}
	default:
		return nil
	}
}

func decodeNodes(nodes []nodeJSON) ([]vellum.Node, error) {
	var out []vellum.Node
	for _, n := range nodes {
		dec, err := decodeNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, dec)
	}
	return out, nil
}

func decodeNode(n nodeJSON) (vellum.Node, error) {
	switch n.Kind {
	case "text":
		return &vellum.TextNode{Text: n.Text}, nil
	case "var":
		if n.Var == nil {
			return nil, fmt.Errorf("var node without payload")
		}
		return decodeVar(n.Var), nil
	case "if":
		cond, err := decodeCond(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeNodes(n.Body)
		if err != nil {
			return nil, err
		}
		els, err := decodeNodes(n.Else)
		if err != nil {
			return nil, err
		}
		return &vellum.IfNode{Cond: cond, Body: body, Else: els}, nil
	case "for":
		body, err := decodeNodes(n.Body)
		if err != nil {
			return nil, err
		}
		return &vellum.ForNode{ItemVar: n.ItemVar, Iterable: n.Iterable, Body: body}, nil
	case "block":
		body, err := decodeNodes(n.Body)
		if err != nil {
			return nil, err
		}
		return &vellum.BlockNode{Name: n.Name, Body: body}, nil
	case "include":
		return &vellum.IncludeNode{Template: n.Template, DataSource: n.DataSource, Alias: n.Alias}, nil
	case "extends":
		return &vellum.ExtendsNode{Template: n.Template}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", n.Kind)
	}
}

func decodeVar(v *varJSON) *vellum.VariableNode {
	out := &vellum.VariableNode{Name: v.Name, Path: v.Path}
	for _, f := range v.Filters {
		out.Filters = append(out.Filters, vellum.FilterCall{Name: f.Name, Args: f.Args})
	}
	return out
}

func decodeCond(c *condJSON) (vellum.Condition, error) {
	if c == nil {
		return nil, fmt.Errorf("if node without condition")
	}
	switch c.Kind {
	case "cmp":
		if c.Left == nil {
			return nil, fmt.Errorf("comparison without left operand")
		}
		return &vellum.Comparison{Left: decodeVar(c.Left), Right: c.Right}, nil
	case "truth":
		if c.Left == nil {
			return nil, fmt.Errorf("truthiness without operand")
		}
		return &vellum.Truthiness{Expr: decodeVar(c.Left)}, nil
	default:
		return nil, fmt.Errorf("unknown condition kind %q", c.Kind)
	}
}
