package vellum

// Node is any AST node in a parsed template.
type Node interface {
	node()
}

// TextNode represents literal text between markers.
type TextNode struct {
	Text string
}

func (*TextNode) node() {}

// FilterCall is one entry of a variable's filter chain. Args are the
// literal strings following the filter name, in written order.
type FilterCall struct {
	Name string
	Args []string
}

// VariableNode represents an output expression: {{ a.b.c | f:x | g }}.
// Name is the root path segment, Path the remaining segments.
type VariableNode struct {
	Name    string
	Path    []string
	Filters []FilterCall
}

func (*VariableNode) node() {}

// Condition is the small union tested by an if command: either a single
// equality comparison or a truthiness test of a variable path.
type Condition interface {
	cond()
}

// Comparison compares a resolved variable against a literal string.
type Comparison struct {
	Left  *VariableNode
	Right string
}

func (*Comparison) cond() {}

// Truthiness tests a resolved variable for its natural boolean coercion.
type Truthiness struct {
	Expr *VariableNode
}

func (*Truthiness) cond() {}

// IfNode represents an if/else block.
type IfNode struct {
	Cond Condition
	Body []Node
	Else []Node
}

func (*IfNode) node() {}

// ForNode represents a loop over a resolved iterable. Both surface forms,
// {% for item in expr %} and {% for expr as item %}, parse to this shape.
type ForNode struct {
	ItemVar  string
	Iterable string // dotted path of the iterable expression
	Body     []Node
}

func (*ForNode) node() {}

// BlockNode represents a named, overridable region used by inheritance.
type BlockNode struct {
	Name string
	Body []Node
}

func (*BlockNode) node() {}

// ExtendsNode declares the template's parent. It must be the first
// statement of a template.
type ExtendsNode struct {
	Template string
}

func (*ExtendsNode) node() {}

// IncludeNode renders another template in place. When DataSource/Alias are
// set, the resolved DataSource value is exposed under Alias in addition to
// the ambient context.
type IncludeNode struct {
	Template   string
	DataSource string
	Alias      string
}

func (*IncludeNode) node() {}

// ParsedTemplate is the compiled artifact: the node list plus the parent
// template name (if the first statement is an extends) and every block in
// the tree indexed by name. It is immutable after parse; re-parsing
// produces a fresh value.
type ParsedTemplate struct {
	Nodes  []Node
	Parent string
	Blocks map[string][]Node
}

// NewParsedTemplate builds a ParsedTemplate from a node list, indexing
// every BlockNode found anywhere in the tree. The cache codec uses it to
// rebuild the block index after decoding.
func NewParsedTemplate(nodes []Node, parent string) *ParsedTemplate {
	pt := &ParsedTemplate{Nodes: nodes, Parent: parent, Blocks: map[string][]Node{}}
	_ = Walk(visitorFunc(func(n Node) error {
		if bn, ok := n.(*BlockNode); ok {
			pt.Blocks[bn.Name] = bn.Body
		}
		return nil
	}), nodes)
	return pt
}
