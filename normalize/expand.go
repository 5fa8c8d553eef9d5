package normalize

import (
	"github.com/npillmayer/gramnorm/grammar"
)

// expansion is the result of the rule expander: every rule body in canonical
// combinator form, with inline rules substituted at their reference sites.
type expansion struct {
	g      *grammar.Grammar
	rules  []grammar.Rule // in order of declaration, including inline rules
	index  map[string]int
	inline map[string]bool
}

func (x *expansion) body(name string) (grammar.Expr, bool) {
	if inx, ok := x.index[name]; ok {
		return x.rules[inx].Body, true
	}
	return nil, false
}

func (x *expansion) declares(name string) bool {
	_, ok := x.index[name]
	return ok
}

// expand checks that every reference resolves and creates canonical copies
// of all rule bodies:
//
//   - choice(x, blank) and choice(blank, x) become optional(x)
//   - empty sequences and choices become blank
//   - references to inline rules are replaced by the rules' bodies
//
// Nested sequences and choices are not merged.
func expand(g *grammar.Grammar) (*expansion, error) {
	if g == nil || g.Size() == 0 {
		return nil, grammar.Errorf(grammar.EmptyGrammar, nameOf(g), "", "nothing to normalize")
	}
	if err := checkReferences(g); err != nil {
		return nil, err
	}
	x := &expansion{
		g:      g,
		index:  make(map[string]int, g.Size()),
		inline: make(map[string]bool),
	}
	for _, n := range g.Inline() {
		x.inline[n] = true
	}
	canonical := make(map[string]grammar.Expr, g.Size())
	g.EachRule(func(name string, body grammar.Expr) {
		canonical[name] = grammar.Rewrite(body, canonicalForm)
	})
	// substitute inline rules, detecting cycles through inline-only chains
	subst := &inliner{x: x, canonical: canonical, done: make(map[string]grammar.Expr)}
	for _, name := range g.RuleNames() {
		body, err := subst.substitute(name, canonical[name], []string{name})
		if err != nil {
			return nil, err
		}
		x.index[name] = len(x.rules)
		x.rules = append(x.rules, grammar.Rule{Name: name, Body: body})
	}
	tracer().Debugf("expanded %d rules of grammar %s, %d inlined", len(x.rules), g.Name, len(x.inline))
	return x, nil
}

func nameOf(g *grammar.Grammar) string {
	if g == nil {
		return ""
	}
	return g.Name
}

func canonicalForm(e grammar.Expr) grammar.Expr {
	switch x := e.(type) {
	case *grammar.Seq:
		if len(x.Members) == 0 {
			return grammar.Empty()
		}
	case *grammar.Choice:
		switch len(x.Members) {
		case 0:
			return grammar.Empty()
		case 2:
			if x.Members[1].Kind() == grammar.BlankKind && x.Members[0].Kind() != grammar.BlankKind {
				return grammar.Opt(x.Members[0])
			}
			if x.Members[0].Kind() == grammar.BlankKind && x.Members[1].Kind() != grammar.BlankKind {
				return grammar.Opt(x.Members[1])
			}
		}
	}
	return e
}

// checkReferences checks references of rules, extras, externals, the inline
// list and the word rule. References to external tokens are legal in rules
// and extras.
func checkReferences(g *grammar.Grammar) error {
	known := func(name string) bool {
		return g.Declares(name) || g.IsExternal(name)
	}
	var err error
	g.EachRule(func(name string, body grammar.Expr) {
		if err != nil {
			return
		}
		for _, ref := range grammar.Refs(body) {
			if !known(ref) {
				err = grammar.Errorf(grammar.UnresolvedRuleRef, g.Name, name,
					"reference to undefined rule %q", ref).WithNames(ref)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	for _, e := range g.Extras() {
		for _, ref := range grammar.Refs(e) {
			if !known(ref) {
				return grammar.Errorf(grammar.UnresolvedRuleRef, g.Name, "",
					"extra references undefined rule %q", ref).WithNames(ref)
			}
		}
	}
	for _, n := range g.Inline() {
		if !g.Declares(n) {
			return grammar.Errorf(grammar.UnresolvedRuleRef, g.Name, "",
				"inline rule %q is not defined", n).WithNames(n)
		}
	}
	if w := g.Word(); w != "" && !g.Declares(w) {
		return grammar.Errorf(grammar.UnresolvedRuleRef, g.Name, "",
			"word rule %q is not defined", w).WithNames(w)
	}
	return nil
}

// inliner substitutes inline rules. Substituted bodies are memoized.
type inliner struct {
	x         *expansion
	canonical map[string]grammar.Expr
	done      map[string]grammar.Expr // inline rules with substitutions applied
}

func (in *inliner) substitute(rule string, e grammar.Expr, chain []string) (grammar.Expr, error) {
	var err error
	r := grammar.Rewrite(e, func(c grammar.Expr) grammar.Expr {
		ref, ok := c.(*grammar.Ref)
		if !ok || err != nil || !in.x.inline[ref.Name] {
			return c
		}
		var body grammar.Expr
		body, err = in.inlined(ref.Name, chain)
		if err != nil {
			return c
		}
		return grammar.Clone(body)
	})
	return r, err
}

func (in *inliner) inlined(name string, chain []string) (grammar.Expr, error) {
	if body, ok := in.done[name]; ok {
		return body, nil
	}
	for _, n := range chain {
		if n == name {
			cycle := append(append([]string(nil), chain...), name)
			return nil, grammar.Errorf(grammar.IllegalInlineCycle, in.x.g.Name, chain[0],
				"rule %q reaches itself through inline rules", name).WithNames(cycle...)
		}
	}
	body, err := in.substitute(name, in.canonical[name], append(chain, name))
	if err != nil {
		return nil, err
	}
	in.done[name] = body
	return body, nil
}
