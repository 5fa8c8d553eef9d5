package grammar

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestExprString(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.grammar")
	defer teardown()
	//
	var tests = []struct {
		e    Expr
		repr string
	}{
		{Str("if"), `"if"`},
		{Pat(`[0-9]+`), `/[0-9]+/`},
		{Sym("number"), `$.number`},
		{Empty(), `blank()`},
		{Sequence(Str("a"), Sym("b")), `seq("a", $.b)`},
		{Alt(Str("a"), Empty()), `choice("a", blank())`},
		{Repeat0(Sym("x")), `repeat($.x)`},
		{Repeat1(Sym("x")), `repeat1($.x)`},
		{Opt(Sym("x")), `optional($.x)`},
		{Tok(Str("x")), `token("x")`},
		{ImmediateTok(Str("l")), `token.immediate("l")`},
		{PLeft(1, Sym("e")), `prec.left(1, $.e)`},
		{PDynamic(-2, Sym("e")), `prec.dynamic(-2, $.e)`},
		{As(Sym("_h"), "v"), `alias($._h, $.v)`},
		{AsStr(Sym("a"), "b"), `alias($.a, "b")`},
		{Label("lhs", Sym("e")), `field("lhs", $.e)`},
	}
	for i, test := range tests {
		if test.e.String() != test.repr {
			t.Errorf("test #%d: expected %s, got %s", i, test.repr, test.e.String())
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.grammar")
	defer teardown()
	//
	orig := Sequence(Str("a"), Opt(Sym("b")))
	c := Clone(orig)
	if !Equal(orig, c) {
		t.Fatalf("clone differs from original: %s vs %s", c, orig)
	}
	c.(*Seq).Members[1].(*Optional).Body.(*Ref).Name = "z"
	if orig.String() != `seq("a", optional($.b))` {
		t.Errorf("modifying a clone changed the original: %s", orig)
	}
}

func TestRewriteBottomUp(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.grammar")
	defer teardown()
	//
	e := Alt(Sym("a"), Sequence(Sym("a"), Str("x")))
	r := Rewrite(e, func(x Expr) Expr {
		if ref, ok := x.(*Ref); ok && ref.Name == "a" {
			return Sym("A")
		}
		return x
	})
	if r.String() != `choice($.A, seq($.A, "x"))` {
		t.Errorf("unexpected rewrite result %s", r)
	}
	if e.String() != `choice($.a, seq($.a, "x"))` {
		t.Errorf("rewrite changed its input: %s", e)
	}
}

func TestRefsAndWalk(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.grammar")
	defer teardown()
	//
	e := Sequence(Sym("b"), Tok(Sym("hidden")), Repeat0(Alt(Sym("a"), Sym("b"))))
	refs := Refs(e)
	if len(refs) != 3 || refs[0] != "b" || refs[1] != "hidden" || refs[2] != "a" {
		t.Errorf("unexpected references %v", refs)
	}
	count := 0
	Walk(e, func(x Expr) bool {
		count++
		return x.Kind() != TokenKind
	})
	// seq, $.b, token, repeat, choice, $.a, $.b
	if count != 7 {
		t.Errorf("expected walk to visit 7 nodes, visited %d", count)
	}
}

func TestStripPrec(t *testing.T) {
	e := P(1, PRight(2, Str("x")))
	if s := StripPrec(e); s.Kind() != LiteralKind {
		t.Errorf("expected precedences to be stripped, got %s", s)
	}
	if !IsHiddenName("_expr") || IsHiddenName("expr") {
		t.Errorf("hidden name convention not recognized")
	}
}
