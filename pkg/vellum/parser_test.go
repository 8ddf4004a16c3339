package vellum

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *ParsedTemplate {
	t.Helper()
	pt, err := Parse("test", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return pt
}

func TestParseTextAndVariable(t *testing.T) {
	pt := mustParse(t, "Hello {{ user.name }}!")
	if len(pt.Nodes) != 3 {
		t.Fatalf("want 3 nodes, got %d", len(pt.Nodes))
	}
	vn, ok := pt.Nodes[1].(*VariableNode)
	if !ok {
		t.Fatalf("node 1 not a variable: %#v", pt.Nodes[1])
	}
	if vn.Name != "user" || len(vn.Path) != 1 || vn.Path[0] != "name" {
		t.Fatalf("unexpected path: %#v", vn)
	}
}

func TestParseFilterChain(t *testing.T) {
	pt := mustParse(t, "{{ title | trim | truncate:20 | default:untitled }}")
	vn := pt.Nodes[0].(*VariableNode)
	if len(vn.Filters) != 3 {
		t.Fatalf("want 3 filters, got %#v", vn.Filters)
	}
	if vn.Filters[1].Name != "truncate" || vn.Filters[1].Args[0] != "20" {
		t.Fatalf("filter 1: %#v", vn.Filters[1])
	}
	if vn.Filters[2].Args[0] != "untitled" {
		t.Fatalf("filter 2: %#v", vn.Filters[2])
	}
}

func TestParseIfComparisonAndTruthiness(t *testing.T) {
	pt := mustParse(t, `{% if user.role == "admin" %}A{% else %}B{% endif %}`)
	ifn := pt.Nodes[0].(*IfNode)
	cmp, ok := ifn.Cond.(*Comparison)
	if !ok {
		t.Fatalf("want comparison, got %#v", ifn.Cond)
	}
	if cmp.Left.dotted() != "user.role" || cmp.Right != "admin" {
		t.Fatalf("comparison: %#v", cmp)
	}
	if len(ifn.Body) != 1 || len(ifn.Else) != 1 {
		t.Fatalf("bodies: %d/%d", len(ifn.Body), len(ifn.Else))
	}

	pt = mustParse(t, "{% if active %}x{% endif %}")
	if _, ok := pt.Nodes[0].(*IfNode).Cond.(*Truthiness); !ok {
		t.Fatalf("want truthiness condition")
	}
}

func TestParseForBothSyntaxes(t *testing.T) {
	for _, src := range []string{
		"{% for p in team.players %}{{ p }}{% endfor %}",
		"{% for team.players as p %}{{ p }}{% endfor %}",
	} {
		pt := mustParse(t, src)
		fn, ok := pt.Nodes[0].(*ForNode)
		if !ok {
			t.Fatalf("%q: not a for node", src)
		}
		if fn.ItemVar != "p" || fn.Iterable != "team.players" {
			t.Fatalf("%q: normalized to %#v", src, fn)
		}
	}
}

func TestParseForInvalid(t *testing.T) {
	for _, src := range []string{
		"{% for %}x{% endfor %}",
		"{% for a b c %}x{% endfor %}",
		"{% for 1x in items %}x{% endfor %}",
	} {
		if _, err := Parse("test", src); err == nil {
			t.Fatalf("%q: want parse error", src)
		}
	}
}

func TestParseNestedSameKind(t *testing.T) {
	pt := mustParse(t, "{% block outer %}a{% block inner %}b{% endblock %}c{% endblock %}")
	outer := pt.Nodes[0].(*BlockNode)
	if outer.Name != "outer" || len(outer.Body) != 3 {
		t.Fatalf("outer: %#v", outer)
	}
	inner, ok := outer.Body[1].(*BlockNode)
	if !ok || inner.Name != "inner" {
		t.Fatalf("inner: %#v", outer.Body[1])
	}
	if pt.Blocks["outer"] == nil || pt.Blocks["inner"] == nil {
		t.Fatalf("blocks index missing entries: %v", pt.Blocks)
	}
}

func TestParseStrayClosers(t *testing.T) {
	for _, src := range []string{
		"{% endif %}",
		"{% endfor %}",
		"{% endblock %}",
		"{% else %}",
		"{% if a %}x{% endif %}{% endif %}",
	} {
		_, err := Parse("test", src)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("%q: want SyntaxError, got %v", src, err)
		}
		if !strings.Contains(se.Msg, "closing tag") {
			t.Fatalf("%q: unexpected message %q", src, se.Msg)
		}
	}
}

func TestParseUnclosedOpeners(t *testing.T) {
	for _, src := range []string{
		"{% if a %}x",
		"{% for x in xs %}y",
		"{% block b %}z",
		"{% if a %}x{% else %}y",
	} {
		if _, err := Parse("test", src); err == nil {
			t.Fatalf("%q: want parse error", src)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("test", "{% frobnicate x %}")
	var se *SyntaxError
	if !errors.As(err, &se) || se.Tag != "frobnicate" {
		t.Fatalf("want unknown-command SyntaxError, got %v", err)
	}
}

func TestParseExtends(t *testing.T) {
	pt := mustParse(t, `{% extends "base.html" %}{% block t %}x{% endblock %}`)
	if pt.Parent != "base.html" {
		t.Fatalf("parent: %q", pt.Parent)
	}
	if _, err := Parse("test", `x{% extends "base.html" %}`); err == nil {
		t.Fatal("extends after content: want error")
	}
	if _, err := Parse("test", `{% if a %}{% extends "base.html" %}{% endif %}`); err == nil {
		t.Fatal("nested extends: want error")
	}
}

func TestParseInclude(t *testing.T) {
	pt := mustParse(t, `{% include "nav.html" %}`)
	in := pt.Nodes[0].(*IncludeNode)
	if in.Template != "nav.html" || in.Alias != "" {
		t.Fatalf("include: %#v", in)
	}

	pt = mustParse(t, `{% include "card.html" with team.captain as player %}`)
	in = pt.Nodes[0].(*IncludeNode)
	if in.DataSource != "team.captain" || in.Alias != "player" {
		t.Fatalf("include with: %#v", in)
	}

	for _, src := range []string{
		`{% include nav.html %}`,
		`{% include "card.html" with x %}`,
		`{% include "card.html" as y %}`,
	} {
		if _, err := Parse("test", src); err == nil {
			t.Fatalf("%q: want parse error", src)
		}
	}
}

func TestParseErrorCarriesTemplateName(t *testing.T) {
	_, err := Parse("pages/home.html", "{{ broken")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("want SyntaxError, got %v", err)
	}
	if se.Template != "pages/home.html" {
		t.Fatalf("template name: %q", se.Template)
	}
}

func TestReparseRendersIdentically(t *testing.T) {
	src := `{% for p in players %}{{ p.name | upper }},{% endfor %}`
	data := map[string]any{"players": []any{
		map[string]any{"name": "ana"},
		map[string]any{"name": "bo"},
	}}
	e := newTestEngine(t, nil)
	a, err := e.renderParsed(mustParse(t, src), data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := e.renderParsed(mustParse(t, src), data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if a != b || a != "ANA,BO," {
		t.Fatalf("renders differ: %q vs %q", a, b)
	}
}
