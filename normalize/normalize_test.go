package normalize

import (
	"errors"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/grammar"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, b *grammar.Builder) *grammar.Grammar {
	t.Helper()
	g, err := b.Grammar()
	require.NoError(t, err)
	return g
}

func normalized(t *testing.T, b *grammar.Builder, opts ...Option) *canon.Grammar {
	t.Helper()
	cg, err := Normalize(build(t, b), opts...)
	require.NoError(t, err)
	t.Logf("\n%s", cg)
	return cg
}

func rule(t *testing.T, cg *canon.Grammar, name string) *canon.Rule {
	t.Helper()
	r, ok := cg.Rule(name)
	require.True(t, ok, "no rule %q in grammar %s", name, cg.Name)
	return r
}

func exprGrammar() *grammar.Builder {
	S, Y := grammar.Str, grammar.Sym
	return grammar.NewBuilder("expr").
		Rule("program", grammar.Repeat0(Y("_statement"))).
		Rule("_statement", grammar.Sequence(Y("expr"), S(";"))).
		Rule("expr", grammar.Alt(
			Y("number"),
			grammar.PLeft(1, grammar.Sequence(grammar.Label("left", Y("expr")), S("+"), grammar.Label("right", Y("expr")))),
			grammar.Sequence(S("("), Y("expr"), S(")")),
		)).
		Rule("number", grammar.Tok(grammar.Repeat1(grammar.Pat(`[0-9]`)))).
		Rule("comment", grammar.Pat(`//.*`)).
		Extras(Y("comment"), grammar.Pat(`\s`)).
		Conflict("expr", "number")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	g := build(t, exprGrammar())
	cg1, err := Normalize(g)
	require.NoError(t, err)
	cg2, err := Normalize(g)
	require.NoError(t, err)
	assert.Equal(t, cg1.String(), cg2.String())
	assert.Equal(t, cg1.Fingerprint(), cg2.Fingerprint())
	t.Logf("\n%s", cg1)
}

func TestNormalizeShapes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	cg := normalized(t, exprGrammar())
	assert.Equal(t, "program", cg.Entry().Name)
	assert.Equal(t, "program = (_statement)*", rule(t, cg, "program").String())
	assert.Equal(t, `_statement = expr, ";"`, rule(t, cg, "_statement").String())
	assert.Equal(t, `expr = number | prec.left(1, left: expr, "+", right: expr) | ("(", expr, ")")`,
		rule(t, cg, "expr").String())
	assert.Equal(t, "number = token(repeat1(/[0-9]/))", rule(t, cg, "number").String())
	assert.Equal(t, canon.Hidden, rule(t, cg, "_statement").Visibility)
	assert.False(t, rule(t, cg, "_statement").Named)
	assert.True(t, rule(t, cg, "expr").Named)
	assert.True(t, rule(t, cg, "comment").Extra)
	assert.Equal(t, [][]string{{"expr", "number"}}, cg.Conflicts)
	//
	number := rule(t, cg, "number").Shape.(*canon.Terminal)
	assert.Equal(t, `(?:(?:[0-9]))+`, number.Regexp)
	flat, err := cg.Flatten("program")
	require.NoError(t, err)
	assert.Equal(t, `(expr, ";")*`, flat.String())
}

func TestCanonicalForm(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	S, Y := grammar.Str, grammar.Sym
	cg := normalized(t, grammar.NewBuilder("canonical").
		Rule("program", grammar.Sequence(S("a"), grammar.Alt(Y("b"), grammar.Empty()), grammar.Sequence())).
		Rule("b", grammar.Alt(grammar.Empty(), S("b"))).
		Rule("c", grammar.Alt()))
	assert.Equal(t, `program = "a", (b)?, blank`, rule(t, cg, "program").String())
	assert.Equal(t, `b = ("b")?`, rule(t, cg, "b").String())
	assert.Equal(t, `c = blank`, rule(t, cg, "c").String())
}

func TestInlineRules(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	S, Y := grammar.Str, grammar.Sym
	cg := normalized(t, grammar.NewBuilder("inline").
		Rule("program", grammar.Sequence(Y("_value"), Y("_value"))).
		Rule("_value", grammar.Alt(S("a"), S("b"))).
		Inline("_value"))
	assert.Equal(t, `program = ("a" | "b"), ("a" | "b")`, rule(t, cg, "program").String())
	assert.Equal(t, canon.Inlined, rule(t, cg, "_value").Visibility)
}

func TestInlineCycle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	S, Y := grammar.Str, grammar.Sym
	g := build(t, grammar.NewBuilder("inline-cycle").
		Rule("program", Y("_a")).
		Rule("_a", Y("_b")).
		Rule("_b", grammar.Alt(S("x"), Y("_a"))).
		Inline("_a", "_b"))
	_, err := Normalize(g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, grammar.ErrIllegalInlineCycle), "expected inline cycle, got %v", err)
	var gerr *grammar.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, []string{"program", "_a", "_b", "_a"}, gerr.Names)
}

func TestInlineRecursionThroughRule(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	S, Y := grammar.Str, grammar.Sym
	cg := normalized(t, grammar.NewBuilder("inline-recursive").
		Rule("program", Y("b")).
		Rule("b", grammar.Alt(S("y"), Y("_a"))).
		Rule("_a", grammar.Sequence(S("x"), Y("b"))).
		Inline("_a"))
	assert.Equal(t, canon.Inlined, rule(t, cg, "_a").Visibility)
	selfRef := false
	canon.Walk(rule(t, cg, "b").Shape, func(s canon.Shape) bool {
		if ref, ok := s.(*canon.SelfRef); ok && ref.Name == "b" {
			selfRef = true
		}
		return true
	})
	assert.True(t, selfRef, "expected b to refer to itself: %s", rule(t, cg, "b"))
}

func TestUnresolvedReference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	Y := grammar.Sym
	for _, b := range []*grammar.Builder{
		grammar.NewBuilder("rule").Rule("expr", grammar.Sequence(Y("atom"))),
		grammar.NewBuilder("extra").Rule("expr", grammar.Str("x")).Extras(Y("comment")),
		grammar.NewBuilder("inline").Rule("expr", grammar.Str("x")).Inline("atom"),
		grammar.NewBuilder("word").Rule("expr", grammar.Str("x")).Word("identifier"),
	} {
		_, err := Normalize(build(t, b))
		assert.True(t, errors.Is(err, grammar.ErrUnresolvedRuleRef), "expected unresolved reference, got %v", err)
	}
	// references to external tokens are fine
	g := build(t, grammar.NewBuilder("external").
		Rule("expr", grammar.Sequence(Y("heredoc"), Y("_newline"))).
		Externals(Y("heredoc"), Y("_newline"), grammar.Str("<<")))
	cg, err := Normalize(g)
	require.NoError(t, err)
	require.Len(t, cg.Externals, 3)
	assert.Equal(t, canon.External{Name: "heredoc", Kind: canon.ExternalRule}, cg.Externals[0])
	assert.Equal(t, canon.ExternalLiteral, cg.Externals[2].Kind)
	assert.Equal(t, "lt_lt", cg.Externals[2].Name)
	assert.True(t, cg.HasNodeType("heredoc", true))
	assert.False(t, cg.HasNodeType("_newline", true))
}

func TestEmptyGrammar(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	_, err := Normalize(nil)
	assert.True(t, errors.Is(err, grammar.ErrEmptyGrammar))
}

func TestConflicts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	_, err := Normalize(build(t, exprGrammar().Conflict("expr", "nope", "atom")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, grammar.ErrConflictDeclarationMismatch), "got %v", err)
	var gerr *grammar.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, []string{"atom", "nope"}, gerr.Names)
	// inline rules count as declared
	cg := normalized(t, grammar.NewBuilder("inline-conflict").
		Rule("a", grammar.Sym("_b")).
		Rule("_b", grammar.Str("b")).
		Inline("_b").
		Conflict("a", "_b"))
	assert.Equal(t, [][]string{{"a", "_b"}}, cg.Conflicts)
}

func TestHiddenRulesDoNotProduceNodes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	S, Y := grammar.Str, grammar.Sym
	cg := normalized(t, grammar.NewBuilder("hidden").
		Rule("program", grammar.Repeat0(grammar.Alt(Y("_hidden"), Y("visible"), Y("__weird"), Y("_")))).
		Rule("_hidden", grammar.Pat(`a`)).
		Rule("visible", S("b")).
		Rule("__weird", S("c")).
		Rule("_", grammar.Sequence(S("d"), Y("visible"))))
	types := cg.NodeTypes()
	t.Logf("node types: %s", repr.String(types))
	assert.Equal(t, []canon.NodeType{
		{Type: "d"},
		{Type: "program", Named: true},
		{Type: "visible", Named: true},
	}, types)
	for _, name := range []string{"_hidden", "__weird", "_"} {
		assert.Equal(t, canon.Hidden, rule(t, cg, name).Visibility, name)
	}
}

func TestAliasToHiddenName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	Y := grammar.Sym
	cg := normalized(t, grammar.NewBuilder("alias").
		Rule("program", grammar.Sequence(
			grammar.As(Y("_hidden_number"), "visible_number"),
			grammar.As(Y("visible_number"), "_hidden_number"),
			grammar.AsStr(grammar.Pat(`x+`), "xs"),
		)).
		Rule("_hidden_number", grammar.Pat(`\d+`)).
		Rule("visible_number", grammar.Pat(`\d+`)))
	// an alias always produces a node, even if its name is hidden
	assert.True(t, cg.HasNodeType("_hidden_number", true))
	assert.True(t, cg.HasNodeType("visible_number", true))
	assert.True(t, cg.HasNodeType("xs", false))
	assert.Equal(t, []string{"_hidden_number"}, rule(t, cg, "visible_number").AliasedAs)
	assert.Equal(t, []string{"visible_number"}, rule(t, cg, "_hidden_number").AliasedAs)
	assert.Equal(t, canon.Hidden, rule(t, cg, "_hidden_number").Visibility)
}

func TestTokenNodes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	S, T := grammar.Str, grammar.Tok
	cg := normalized(t, grammar.NewBuilder("tokens").
		Rule("program", grammar.Sequence(
			T(S("a")),
			T(grammar.P(1, S("b"))),
			T(grammar.Sequence(S("c"), S("d"))),
			T(grammar.Alt(S("e"), S("f"))),
			T(grammar.Repeat1(S("g"))),
			T(grammar.Pat(`h`)),
			T(T(S("i"))),
			grammar.ImmediateTok(S("k")),
			T(grammar.ImmediateTok(S("m"))),
			grammar.ImmediateTok(T(S("z"))),
			S("j"),
			grammar.Pat(`l`),
		)))
	assert.Equal(t, []canon.NodeType{
		{Type: "a"}, {Type: "b"}, {Type: "j"}, {Type: "k"},
		{Type: "program", Named: true},
	}, cg.NodeTypes())
}

func TestExtras(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	Y := grammar.Sym
	cg := normalized(t, grammar.NewBuilder("extras").
		Rule("program", grammar.Repeat0(Y("number"))).
		Rule("number", grammar.Pat(`\d+`)).
		Rule("comment", grammar.Pat(`#.*`)).
		Rule("_ws", grammar.Pat(`\s+`)).
		Extras(Y("comment"), grammar.Pat(`\s|\\\n`), Y("_ws"), grammar.Str(";")))
	require.Len(t, cg.Extras, 4)
	assert.True(t, cg.Extras[0].Named)
	assert.Equal(t, "comment", cg.Extras[0].Rule)
	assert.False(t, cg.Extras[1].Named)
	assert.False(t, cg.Extras[2].Named)
	assert.Equal(t, "_ws", cg.Extras[2].Rule)
	assert.False(t, cg.Extras[3].Named)
	assert.True(t, rule(t, cg, "comment").Extra)
	assert.False(t, rule(t, cg, "_ws").Extra)
	assert.True(t, cg.HasNodeType("comment", true))
	assert.False(t, cg.HasNodeType(";", false))
	assert.Equal(t, "program = (number)*", rule(t, cg, "program").String())
}

func TestRecursiveTypes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	Y := grammar.Sym
	cg := normalized(t, grammar.NewBuilder("rectypes").
		Rule("program", grammar.Repeat0(Y("tuple"))).
		Rule("tuple", grammar.Sequence(Y("number"), grammar.Opt(Y("tuple")))).
		Rule("number", grammar.Pat(`\d+`)))
	tuple := rule(t, cg, "tuple")
	assert.Equal(t, "tuple = number, (tuple)?", tuple.String())
	assert.Equal(t, "sequence(symbol[number] option(selfref[tuple]))", canon.Dump(tuple.Shape))
	assert.Equal(t, "repeated0(symbol[tuple])", canon.Dump(rule(t, cg, "program").Shape))
}

func TestMutualRecursion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	S, Y := grammar.Str, grammar.Sym
	cg := normalized(t, grammar.NewBuilder("recurse").
		Rule("list", grammar.Sequence(S("("), grammar.Repeat0(Y("_item")), S(")"))).
		Rule("_item", grammar.Alt(Y("atom"), Y("list"))).
		Rule("atom", grammar.Pat(`[a-z]+`)))
	list := canon.Dump(rule(t, cg, "list").Shape)
	assert.Contains(t, list, "repeated0(selfref[_item])")
	assert.Contains(t, list, `name="lpar" node=true type="("`)
	item := rule(t, cg, "_item").Shape.(*canon.Sum)
	assert.IsType(t, &canon.Symbol{}, item.Variants[0])
	assert.IsType(t, &canon.SelfRef{}, item.Variants[1])
	// self-references are never unfolded
	flat, err := cg.Flatten("list")
	require.NoError(t, err)
	assert.Equal(t, `"(", (_item)*, ")"`, flat.String())
}

func TestIllegalRecursion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	S, Y := grammar.Str, grammar.Sym
	for _, b := range []*grammar.Builder{
		grammar.NewBuilder("mutual").Rule("a", grammar.Sequence(Y("b"))).Rule("b", grammar.Sequence(Y("a"))),
		grammar.NewBuilder("self").Rule("a", grammar.Sequence(S("x"), Y("a"))),
		grammar.NewBuilder("repeat1").Rule("a", grammar.Repeat1(Y("a"))),
	} {
		_, err := Normalize(build(t, b))
		require.Error(t, err)
		assert.True(t, errors.Is(err, grammar.ErrIllegalRecursion), "expected illegal recursion, got %v", err)
	}
	_, err := Normalize(build(t, grammar.NewBuilder("mutual").
		Rule("a", grammar.Sequence(Y("b"))).
		Rule("b", grammar.Sequence(Y("a")))))
	var gerr *grammar.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, []string{"a", "b"}, gerr.Names)
	// a base case makes the cycle legal
	_, err = Normalize(build(t, grammar.NewBuilder("based").
		Rule("a", grammar.Sequence(Y("b"))).
		Rule("b", grammar.Alt(S("x"), Y("a")))))
	assert.NoError(t, err)
}

func TestBacktrackingHints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	Y := grammar.Sym
	number := grammar.Pat(`\d+`)
	cg := normalized(t, grammar.NewBuilder("backtrack-choice").
		Rule("program", grammar.Alt(
			grammar.Sequence(Y("number"), Y("number")),
			grammar.Sequence(Y("number"), Y("number"), Y("number")),
		)).
		Rule("number", number))
	require.Len(t, cg.BacktrackHints, 1)
	assert.Equal(t, "program", cg.BacktrackHints[0].Rule)
	assert.Equal(t, []string{"number"}, cg.BacktrackHints[0].Overlap)
	//
	cg = normalized(t, grammar.NewBuilder("backtrack-repeat").
		Rule("program", grammar.Sequence(grammar.Repeat0(Y("number")), Y("number"))).
		Rule("number", number))
	require.Len(t, cg.BacktrackHints, 1)
	assert.Equal(t, "(number)* before number", cg.BacktrackHints[0].Where)
	//
	cg = normalized(t, grammar.NewBuilder("no-backtrack").
		Rule("program", grammar.Sequence(grammar.Repeat0(Y("number")), grammar.Str(";"))).
		Rule("number", number))
	assert.Empty(t, cg.BacktrackHints)
}

func TestNormalizeExtendedGrammar(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.normalize")
	defer teardown()
	//
	base := build(t, exprGrammar())
	ext, err := grammar.Extend(base, grammar.Extension{
		Name: "semgrep-expr",
		Patches: []grammar.Patch{
			{Name: "semgrep_program", Transform: grammar.Define(grammar.Alt(
				grammar.Sym("program"),
				grammar.Sequence(grammar.Str("__SEMGREP_EXPRESSION"), grammar.Sym("expr")),
			))},
			{Name: "expr", Transform: grammar.Variants(func(r *grammar.Resolver, previous []grammar.Expr) []grammar.Expr {
				return append(previous, r.Sym("ellipsis"))
			})},
			{Name: "ellipsis", Transform: grammar.Define(grammar.Str("..."))},
		},
	})
	require.NoError(t, err)
	cg, err := Normalize(ext)
	require.NoError(t, err)
	t.Logf("\n%s", cg)
	assert.Equal(t, "semgrep-expr", cg.Name)
	assert.Equal(t, "program", cg.Entry().Name)
	assert.True(t, cg.HasNodeType("ellipsis", true))
	assert.True(t, cg.HasNodeType("__SEMGREP_EXPRESSION", false))
	assert.Equal(t, "ellipsis", rule(t, cg, "expr").Shape.(*canon.Sum).Variants[3].String())
}
