package vellum

import "testing"

type account struct {
	Email string
	plan  string
}

func (a account) Plan() string { return a.plan }

func TestResolveDottedPath(t *testing.T) {
	r := &resolver{data: map[string]any{
		"user": map[string]any{
			"profile": map[string]any{"name": "Ana"},
		},
	}}
	if got := r.resolve("user.profile.name"); got != "Ana" {
		t.Fatalf("got %v", got)
	}
	if got := r.resolve("user.profile.missing"); got != nil {
		t.Fatalf("miss should be nil, got %v", got)
	}
	if got := r.resolve("user.missing.name"); got != nil {
		t.Fatalf("intermediate miss should be nil, got %v", got)
	}
	if got := r.resolve("nope"); got != nil {
		t.Fatalf("root miss should be nil, got %v", got)
	}
}

func TestResolveStructFieldAndMethod(t *testing.T) {
	r := &resolver{data: map[string]any{
		"acct": account{Email: "a@b.c", plan: "pro"},
	}}
	if got := r.resolve("acct.email"); got != "a@b.c" {
		t.Fatalf("field lookup: got %v", got)
	}
	if got := r.resolve("acct.plan"); got != "pro" {
		t.Fatalf("method lookup: got %v", got)
	}
}

func TestResolveLoopFrameShadowing(t *testing.T) {
	r := &resolver{data: map[string]any{"x": "outer", "y": "ambient"}}
	r.push(frame{"x": "mid"})
	r.push(frame{"x": "inner"})
	if got := r.resolve("x"); got != "inner" {
		t.Fatalf("innermost frame should win: got %v", got)
	}
	if got := r.resolve("y"); got != "ambient" {
		t.Fatalf("fallthrough to data context: got %v", got)
	}
	r.pop()
	if got := r.resolve("x"); got != "mid" {
		t.Fatalf("after pop: got %v", got)
	}
	r.pop()
	if r.depth() != 0 {
		t.Fatalf("stack depth: %d", r.depth())
	}
}

func TestResolveFalsyFrameBindingWins(t *testing.T) {
	// A frame that binds the root key wins even when the value is falsy.
	r := &resolver{data: map[string]any{"n": 42}}
	r.push(frame{"n": 0})
	if got := r.resolve("n"); got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestResolveNestedIntoFrameValue(t *testing.T) {
	r := &resolver{data: map[string]any{}}
	r.push(frame{"p": map[string]any{"name": "Bo"}})
	if got := r.resolve("p.name"); got != "Bo" {
		t.Fatalf("got %v", got)
	}
}

func TestTruthiness(t *testing.T) {
	cases := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{"", false},
		{"x", true},
		{0, false},
		{3, true},
		{0.0, false},
		{false, false},
		{true, true},
		{[]any{}, false},
		{[]any{1}, true},
		{map[string]any{}, false},
		{map[string]any{"k": 1}, true},
	}
	for _, tc := range cases {
		if got := truthy(tc.v); got != tc.want {
			t.Fatalf("truthy(%#v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestEvaluateCondition(t *testing.T) {
	r := &resolver{data: map[string]any{
		"role":  "admin",
		"empty": []any{},
	}}
	cmp := &Comparison{Left: &VariableNode{Name: "role"}, Right: "admin"}
	if !r.evaluateCondition(cmp) {
		t.Fatal("comparison should hold")
	}
	cmp.Right = "guest"
	if r.evaluateCondition(cmp) {
		t.Fatal("comparison should fail")
	}
	if r.evaluateCondition(&Truthiness{Expr: &VariableNode{Name: "empty"}}) {
		t.Fatal("empty collection is falsy")
	}
	if r.evaluateCondition(&Truthiness{Expr: &VariableNode{Name: "missing"}}) {
		t.Fatal("missing path is falsy")
	}
}
