package grammar

// Resolver gives patches access to the base grammar of an extension.
type Resolver struct {
	base *Grammar
}

// Sym creates a reference to a rule, as the builder constructor does.
func (r *Resolver) Sym(name string) Expr {
	return Sym(name)
}

// Previous returns a copy of the body of rule name in the base grammar, or
// nil if the base grammar does not define it.
func (r *Resolver) Previous(name string) Expr {
	if body, ok := r.base.Rule(name); ok {
		return Clone(body)
	}
	return nil
}

// Grammar returns the base grammar.
func (r *Resolver) Grammar() *Grammar {
	return r.base
}

// Patch overrides or adds a rule. Transform receives the previous definition
// of the rule (nil for new rules) and returns the new one.
type Patch struct {
	Name      string
	Transform func(r *Resolver, previous Expr) Expr
}

// Extension describes how to derive a grammar from a base grammar.
// The list-valued hooks receive the base grammar's setting and return the
// new one; a nil hook keeps the base setting.
type Extension struct {
	Name      string
	Patches   []Patch
	Extras    func(r *Resolver, previous []Expr) []Expr
	Conflicts func(r *Resolver, previous [][]string) [][]string
	Externals func(r *Resolver, previous []Expr) []Expr
	Inline    func(r *Resolver, previous []string) []string
	Word      string // empty keeps the base word
}

// Extend derives a new grammar from base. Patches are applied in declared
// order, each one seeing the results of its predecessors. Overridden rules
// keep their position, new rules are appended. base is left untouched.
//
// References are not checked here; this is up to the normalizer.
func Extend(base *Grammar, ext Extension) (*Grammar, error) {
	if base == nil {
		return nil, Errorf(MalformedGrammar, ext.Name, "", "extension without base grammar")
	}
	name := ext.Name
	if name == "" {
		name = base.Name
	}
	tracer().Debugf("extending grammar %s to %s", base.Name, name)
	g := &Grammar{
		Name:      name,
		rules:     append([]Rule(nil), base.rules...),
		index:     make(map[string]int, len(base.index)),
		extras:    base.Extras(),
		conflicts: base.Conflicts(),
		externals: base.Externals(),
		inline:    base.Inline(),
		word:      base.word,
	}
	for k, v := range base.index {
		g.index[k] = v
	}
	// patches see previous definitions of the grammar under construction
	current := &Resolver{base: g}
	for _, p := range ext.Patches {
		if p.Name == "" || p.Transform == nil {
			return nil, Errorf(MalformedGrammar, name, p.Name, "patch needs a name and a transform")
		}
		var previous Expr
		if body, ok := g.Rule(p.Name); ok {
			previous = Clone(body)
		}
		body := p.Transform(current, previous)
		if body == nil {
			return nil, Errorf(MalformedGrammar, name, p.Name, "patch produced no rule body")
		}
		if inx, ok := g.index[p.Name]; ok {
			g.rules[inx] = Rule{Name: p.Name, Body: body}
			tracer().Debugf("override %s ::= %s", p.Name, body)
		} else {
			g.index[p.Name] = len(g.rules)
			g.rules = append(g.rules, Rule{Name: p.Name, Body: body})
			tracer().Debugf("add      %s ::= %s", p.Name, body)
		}
	}
	r := &Resolver{base: base}
	if ext.Extras != nil {
		g.extras = ext.Extras(r, base.Extras())
	}
	if ext.Conflicts != nil {
		g.conflicts = copyGroups(ext.Conflicts(r, base.Conflicts()))
	}
	if ext.Externals != nil {
		g.externals = nil
		for _, e := range ext.Externals(r, base.Externals()) {
			switch e.(type) {
			case *Literal, *Pattern, *Ref:
				g.externals = append(g.externals, e)
			default:
				return nil, Errorf(MalformedGrammar, name, "", "illegal external token %v", e)
			}
		}
	}
	if ext.Inline != nil {
		g.inline = nil
		for _, n := range ext.Inline(r, base.Inline()) {
			if !g.IsInline(n) {
				g.inline = append(g.inline, n)
			}
		}
	}
	if ext.Word != "" {
		g.word = ext.Word
	}
	return g, nil
}

// Members returns the variants of a previous rule definition: the members of
// a choice, or the definition itself otherwise. Precedence annotations
// around the choice are looked through.
func Members(previous Expr) []Expr {
	if previous == nil {
		return nil
	}
	if c, ok := StripPrec(previous).(*Choice); ok {
		return append([]Expr(nil), c.Members...)
	}
	return []Expr{previous}
}

// Define returns a transform which replaces any previous definition by e.
func Define(e Expr) func(*Resolver, Expr) Expr {
	return func(*Resolver, Expr) Expr {
		return Clone(e)
	}
}

// Variants returns a transform operating on the list of variants of the
// previous definition. The result is a choice of the returned variants, or
// the single variant itself.
func Variants(f func(r *Resolver, previous []Expr) []Expr) func(*Resolver, Expr) Expr {
	return func(r *Resolver, previous Expr) Expr {
		vs := f(r, Members(previous))
		switch len(vs) {
		case 0:
			return nil
		case 1:
			return vs[0]
		}
		return Alt(vs...)
	}
}
