package normalize

import (
	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/grammar"
)

// Diagnostic is a recoverable finding of the normalizer, e.g. a resolved
// name collision.
type Diagnostic = canon.Diagnostic

// Normalize runs the normalization pipeline for a grammar. On success it
// returns the canonical typed grammar; otherwise the error is a
// *grammar.Error and no canonical grammar is returned.
//
// Normalize does not modify g. Normalizing the same grammar twice results in
// canonical grammars with equal textual forms and equal fingerprints.
func Normalize(g *grammar.Grammar, opts ...Option) (*canon.Grammar, error) {
	return normalize(g, configure(opts))
}

func normalize(g *grammar.Grammar, cfg *config) (*canon.Grammar, error) {
	cg, err := pipeline(g, cfg)
	if err != nil {
		tracer().Errorf("cannot normalize grammar %s: %v", nameOf(g), err)
		return nil, err
	}
	tracer().Infof("normalized grammar %s: %d rules, %d diagnostics, %d backtracking hints",
		cg.Name, len(cg.Rules), len(cg.Diagnostics), len(cg.BacktrackHints))
	return cg, nil
}

func pipeline(g *grammar.Grammar, cfg *config) (*canon.Grammar, error) {
	x, err := expand(g)
	if err != nil {
		return nil, err
	}
	names := nameTerminals(x, cfg)
	vis := resolveVisibility(x)
	rec, err := resolveRecursion(x)
	if err != nil {
		return nil, err
	}
	conflicts, err := validateConflicts(x)
	if err != nil {
		return nil, err
	}
	sh := &shaper{x: x, names: names, vis: vis, rec: rec}
	rules := make([]*canon.Rule, 0, len(x.rules))
	for _, r := range x.rules {
		shape, err := sh.ruleShape(r)
		if err != nil {
			return nil, err
		}
		v := vis.of(r.Name)
		rules = append(rules, &canon.Rule{
			Name:       r.Name,
			Visibility: v,
			Named:      v == canon.Visible,
			AliasedAs:  vis.aliases[r.Name],
			Shape:      shape,
		})
	}
	extras, named, err := integrateExtras(x, vis, sh)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		r.Extra = named[r.Name]
	}
	cg := canon.NewGrammar(g.Name, rules)
	cg.Extras = extras
	cg.Externals = externals(x, names)
	cg.Word = g.Word()
	cg.Conflicts = conflicts
	cg.Diagnostics = names.diagnostics
	cg.BacktrackHints = adviseBacktracking(cg)
	return cg, nil
}

func externals(x *expansion, names *namer) []canon.External {
	var ext []canon.External
	for _, e := range x.g.Externals() {
		switch t := e.(type) {
		case *grammar.Ref:
			ext = append(ext, canon.External{Name: t.Name, Kind: canon.ExternalRule})
		case *grammar.Literal:
			ext = append(ext, canon.External{Name: names.nameOf(e), Text: t.Text, Kind: canon.ExternalLiteral})
		case *grammar.Pattern:
			ext = append(ext, canon.External{Name: names.nameOf(e), Text: t.Source, Kind: canon.ExternalPattern})
		}
	}
	return ext
}
