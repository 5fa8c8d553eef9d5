package grammar

import (
	"fmt"
)

// Rule is a named rule of a grammar.
type Rule struct {
	Name string
	Body Expr
}

// Grammar is the grammar IR. The first rule of a grammar is its entry rule.
// Create grammars with a Builder, by extending another grammar or by decoding
// a grammar.json file.
//
// Grammars are immutable. Accessors returning slices return copies.
type Grammar struct {
	Name      string
	rules     []Rule
	index     map[string]int
	extras    []Expr
	conflicts [][]string
	externals []Expr
	inline    []string
	word      string
}

// Entry returns the name of the entry rule.
func (g *Grammar) Entry() string {
	if len(g.rules) == 0 {
		return ""
	}
	return g.rules[0].Name
}

// Size returns the number of rules.
func (g *Grammar) Size() int {
	return len(g.rules)
}

// Rule returns the body of a rule.
func (g *Grammar) Rule(name string) (Expr, bool) {
	if inx, ok := g.index[name]; ok {
		return g.rules[inx].Body, true
	}
	return nil, false
}

// Declares is true if name is the name of a rule of g.
func (g *Grammar) Declares(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Rules returns all rules in order of declaration.
func (g *Grammar) Rules() []Rule {
	return append([]Rule(nil), g.rules...)
}

// RuleNames returns the names of all rules in order of declaration.
func (g *Grammar) RuleNames() []string {
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name
	}
	return names
}

// EachRule calls f for every rule, in order of declaration.
func (g *Grammar) EachRule(f func(name string, body Expr)) {
	for _, r := range g.rules {
		f(r.Name, r.Body)
	}
}

// Extras returns the extras of g.
func (g *Grammar) Extras() []Expr {
	return append([]Expr(nil), g.extras...)
}

// Conflicts returns the declared conflict groups of g.
func (g *Grammar) Conflicts() [][]string {
	return copyGroups(g.conflicts)
}

// Externals returns the external tokens of g.
func (g *Grammar) Externals() []Expr {
	return append([]Expr(nil), g.externals...)
}

// IsExternal is true if name is the name of an external token.
func (g *Grammar) IsExternal(name string) bool {
	for _, e := range g.externals {
		if r, ok := e.(*Ref); ok && r.Name == name {
			return true
		}
	}
	return false
}

// Inline returns the names of rules to be inlined.
func (g *Grammar) Inline() []string {
	return append([]string(nil), g.inline...)
}

// IsInline is true if rule name is to be inlined.
func (g *Grammar) IsInline(name string) bool {
	for _, n := range g.inline {
		if n == name {
			return true
		}
	}
	return false
}

// Word returns the name of the keyword-extraction rule, if any.
func (g *Grammar) Word() string {
	return g.word
}

// Dump is a debugging helper.
func (g *Grammar) Dump() {
	tracer().Debugf("--- grammar %s --------------------------", g.Name)
	for i, r := range g.rules {
		tracer().Debugf("%3d: %s ::= %s", i, r.Name, r.Body)
	}
	if len(g.extras) > 0 {
		tracer().Debugf("extras:    [%s]", joinExprs(g.extras))
	}
	if len(g.externals) > 0 {
		tracer().Debugf("externals: [%s]", joinExprs(g.externals))
	}
	if len(g.inline) > 0 {
		tracer().Debugf("inline:    %v", g.inline)
	}
	if len(g.conflicts) > 0 {
		tracer().Debugf("conflicts: %v", g.conflicts)
	}
	if g.word != "" {
		tracer().Debugf("word:      %s", g.word)
	}
	tracer().Debugf("-----------------------------------------")
}

func copyGroups(groups [][]string) [][]string {
	if groups == nil {
		return nil
	}
	c := make([][]string, len(groups))
	for i, grp := range groups {
		c[i] = append([]string(nil), grp...)
	}
	return c
}

// --- Grammar Builder -------------------------------------------------------

// Builder is used to construct a grammar. Errors are collected and reported
// by Grammar(); the first error wins.
//
//    b := grammar.NewBuilder("G")
//    b.Rule("S", Sequence(Sym("A"), Str("a")))   // S  ->  A 'a'
//    b.Rule("A", Opt(Str("b")))                  // A  ->  'b'?
//    g, err := b.Grammar()
//
type Builder struct {
	g   *Grammar
	err error
}

// NewBuilder creates a builder for a grammar with a given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		g: &Grammar{
			Name:  name,
			index: make(map[string]int),
		},
	}
}

// Rule adds a rule. Rule names must be unique.
func (b *Builder) Rule(name string, body Expr) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" || body == nil {
		b.err = Errorf(MalformedGrammar, b.g.Name, name, "rule needs a name and a body")
		return b
	}
	if _, exists := b.g.index[name]; exists {
		b.err = Errorf(DuplicateRule, b.g.Name, name, "rule %q already defined", name)
		return b
	}
	b.g.index[name] = len(b.g.rules)
	b.g.rules = append(b.g.rules, Rule{Name: name, Body: body})
	return b
}

// Extras appends extras, i.e. tokens which may occur between any two tokens.
func (b *Builder) Extras(extras ...Expr) *Builder {
	b.g.extras = append(b.g.extras, extras...)
	return b
}

// Conflict declares a group of rules in conflict with each other.
func (b *Builder) Conflict(names ...string) *Builder {
	b.g.conflicts = append(b.g.conflicts, append([]string(nil), names...))
	return b
}

// Externals appends external tokens. Externals are literals, patterns or
// rule references.
func (b *Builder) Externals(externals ...Expr) *Builder {
	if b.err != nil {
		return b
	}
	for _, e := range externals {
		switch e.(type) {
		case *Literal, *Pattern, *Ref:
			b.g.externals = append(b.g.externals, e)
		default:
			b.err = Errorf(MalformedGrammar, b.g.Name, "", "illegal external token %v", e)
			return b
		}
	}
	return b
}

// Inline marks rules to be inlined at their reference sites.
func (b *Builder) Inline(names ...string) *Builder {
	for _, n := range names {
		if !b.g.IsInline(n) {
			b.g.inline = append(b.g.inline, n)
		}
	}
	return b
}

// Word sets the rule for keyword extraction.
func (b *Builder) Word(name string) *Builder {
	b.g.word = name
	return b
}

// Grammar returns the grammar built so far. The builder hands over the
// grammar and must not be used afterwards.
func (b *Builder) Grammar() (*Grammar, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.g.rules) == 0 {
		return nil, Errorf(EmptyGrammar, b.g.Name, "", "grammar has no rules")
	}
	g := b.g
	b.g = nil
	b.err = fmt.Errorf("grammar builder for %q has already been used", g.Name)
	return g, nil
}
