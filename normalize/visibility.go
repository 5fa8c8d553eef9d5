package normalize

import (
	"sort"

	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/grammar"
)

// visibility holds the derived visibility of rules. It is computed once per
// pipeline run; passes downstream never re-derive it.
type visibility struct {
	rules   map[string]canon.Visibility
	aliases map[string][]string // rule name → alias targets at use sites
}

// resolveVisibility classifies every rule as Inlined, Hidden or Visible and
// collects the alias targets of rules.
func resolveVisibility(x *expansion) *visibility {
	v := &visibility{
		rules:   make(map[string]canon.Visibility, len(x.rules)),
		aliases: make(map[string][]string),
	}
	for _, r := range x.rules {
		v.rules[r.Name] = ruleVisibility(r.Name, x.inline)
	}
	seen := make(map[string]map[string]bool)
	for _, r := range x.rules {
		grammar.Walk(r.Body, func(e grammar.Expr) bool {
			a, ok := e.(*grammar.Alias)
			if !ok {
				return true
			}
			if ref, ok := grammar.StripPrec(a.Body).(*grammar.Ref); ok {
				if seen[ref.Name] == nil {
					seen[ref.Name] = make(map[string]bool)
				}
				if !seen[ref.Name][a.Target] {
					seen[ref.Name][a.Target] = true
					v.aliases[ref.Name] = append(v.aliases[ref.Name], a.Target)
				}
			}
			return true
		})
	}
	for _, targets := range v.aliases {
		sort.Strings(targets)
	}
	return v
}

func ruleVisibility(name string, inline map[string]bool) canon.Visibility {
	if inline[name] {
		return canon.Inlined
	} else if grammar.IsHiddenName(name) {
		return canon.Hidden
	}
	return canon.Visible
}

// of returns the visibility of a rule. External tokens, which have no rule,
// follow the hidden-name convention.
func (v *visibility) of(name string) canon.Visibility {
	if vis, ok := v.rules[name]; ok {
		return vis
	}
	return ruleVisibility(name, nil)
}

// tokenMakesNode decides if a token occurrence produces a node. This is the
// case only if the token wraps a single literal, possibly annotated with
// precedences. Tokens wrapping sequences, choices, repetitions, patterns or
// other tokens do not produce nodes.
func tokenMakesNode(t *grammar.Token) bool {
	_, ok := grammar.StripPrec(t.Body).(*grammar.Literal)
	return ok
}

// occurrenceNode decides if a terminal occurrence within a rule body
// produces a node, and of which type. Literals produce anonymous nodes
// typed by their text; inline patterns do not produce nodes.
func occurrenceNode(e grammar.Expr) (string, bool) {
	switch x := e.(type) {
	case *grammar.Literal:
		return x.Text, true
	case *grammar.Token:
		if tokenMakesNode(x) {
			return grammar.StripPrec(x.Body).(*grammar.Literal).Text, true
		}
	}
	return "", false
}
