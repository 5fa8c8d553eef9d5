package canon

import (
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tupleGrammar() *Grammar {
	return NewGrammar("rectypes", []*Rule{
		{Name: "program", Named: true, Shape: &Repeated{Elem: &Symbol{Name: "tuple"}}},
		{Name: "tuple", Named: true, Shape: &Sequence{Elems: []Shape{
			&Symbol{Name: "number"},
			&Option{Elem: &SelfRef{Name: "tuple"}},
		}}},
		{Name: "number", Named: true, Shape: &Terminal{Text: `\d+`, Pattern: true, Regexp: `\d+`}},
	})
}

func TestRuleRendering(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.canon")
	defer teardown()
	//
	g := tupleGrammar()
	r, ok := g.Rule("tuple")
	require.True(t, ok)
	assert.Equal(t, "tuple = number, (tuple)?", r.String())
	assert.Equal(t, "program", g.Entry().Name)
	s := &Sum{Variants: []Shape{
		&Sequence{Elems: []Shape{&Terminal{Text: "("}, &Symbol{Name: "e"}, &Terminal{Text: ")"}}},
		&Product{Fields: []Field{{Name: "left", Shape: &Symbol{Name: "e"}}, {Shape: &Terminal{Text: "+"}}}},
		&Terminal{Text: `seq("a", /b/)`, Token: true, Pattern: true},
		&Alias{Target: "x", Named: true, Elem: &Symbol{Name: "_h"}},
		&Blank{},
	}}
	assert.Equal(t, `("(", e, ")") | (left: e, "+") | token(seq("a", /b/)) | alias(_h, $.x) | blank`, s.String())
}

func TestRuleOfLiteralGrammar(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.canon")
	defer teardown()
	//
	g := &Grammar{Name: "literal", Rules: tupleGrammar().Rules}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, ok := g.Rule("number")
			assert.True(t, ok)
			assert.Equal(t, "number", r.Name)
			_, ok = g.Rule("missing")
			assert.False(t, ok)
		}()
	}
	wg.Wait()
	assert.Nil(t, g.index, "lookup must not modify the grammar")
}

func TestFingerprint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.canon")
	defer teardown()
	//
	g1, g2 := tupleGrammar(), tupleGrammar()
	assert.Equal(t, g1.String(), g2.String())
	assert.Equal(t, g1.Fingerprint(), g2.Fingerprint())
	// SelfRef and Symbol render identically, but are different shapes
	g2.Rules[1].Shape.(*Sequence).Elems[1] = &Option{Elem: &Symbol{Name: "tuple"}}
	assert.Equal(t, g1.String(), g2.String())
	assert.NotEqual(t, g1.Fingerprint(), g2.Fingerprint())
}

func TestNodeTypes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.canon")
	defer teardown()
	//
	g := NewGrammar("G", []*Rule{
		{Name: "expr", Named: true, Shape: &Sequence{Elems: []Shape{
			&Symbol{Name: "_atom"},
			&Terminal{Text: "+", Node: true, NodeType: "+"},
			&Terminal{Text: `\s*`, Pattern: true, Name: "pat_1"},
			&Alias{Target: "operand", Named: true, Elem: &Symbol{Name: "_atom"}},
			&Alias{Target: "op", Elem: &Terminal{Text: "-", Node: true, NodeType: "-"}},
		}}},
		{Name: "_atom", Visibility: Hidden, Shape: &Terminal{Text: "x"}},
		{Name: "comment", Named: true, Extra: true, Shape: &Terminal{Text: "#.*", Pattern: true}},
	})
	g.Extras = []Extra{{Shape: &Symbol{Name: "comment"}, Named: true, Rule: "comment"}}
	types := g.NodeTypes()
	assert.Equal(t, []NodeType{
		{Type: "+"},
		{Type: "comment", Named: true},
		{Type: "expr", Named: true},
		{Type: "op"},
		{Type: "operand", Named: true},
	}, types)
	assert.False(t, g.HasNodeType("_atom", true))
	assert.False(t, g.HasNodeType("-", false))
}

func TestFlatten(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.canon")
	defer teardown()
	//
	g := NewGrammar("G", []*Rule{
		{Name: "list", Named: true, Shape: &Sequence{Elems: []Shape{
			&Symbol{Name: "_item"}, &Option{Elem: &SelfRef{Name: "list"}},
		}}},
		{Name: "_item", Visibility: Hidden, Shape: &Sum{Variants: []Shape{
			&Symbol{Name: "number"}, &Symbol{Name: "_paren"},
		}}},
		{Name: "_paren", Visibility: Hidden, Shape: &Sequence{Elems: []Shape{
			&Terminal{Text: "("}, &SelfRef{Name: "list"}, &Terminal{Text: ")"},
		}}},
		{Name: "number", Named: true, Shape: &Terminal{Text: `\d+`, Pattern: true}},
	})
	s, err := g.Flatten("list")
	require.NoError(t, err)
	assert.Equal(t, `(number | ("(", list, ")")), (list)?`, s.String())
	_, err = g.Flatten("nonexistent")
	assert.Error(t, err)
}

func TestDumpShowsKinds(t *testing.T) {
	s := &Option{Elem: &SelfRef{Name: "tuple"}}
	assert.Equal(t, "option(selfref[tuple])", Dump(s))
	r := &Repeated{Elem: &Symbol{Name: "x"}, Min: 1}
	assert.Equal(t, "repeated1(symbol[x])", Dump(r))
}

func TestPrintTree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.canon")
	defer teardown()
	//
	g := tupleGrammar()
	ll := g.leveledList()
	assert.Equal(t, "program", ll[0].Text)
	assert.Equal(t, 0, ll[0].Level)
	g.PrintTree()
}
