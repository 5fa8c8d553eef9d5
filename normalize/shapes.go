package normalize

import (
	"regexp"
	"strings"

	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/grammar"
)

// shaper converts expanded rule bodies into canonical shapes.
type shaper struct {
	x     *expansion
	names *namer
	vis   *visibility
	rec   *recursion
}

// ruleShape creates the shape of a rule. A terminal which is the whole body
// of a rule is named by the rule and does not produce a node of its own.
func (sh *shaper) ruleShape(r grammar.Rule) (canon.Shape, error) {
	return sh.shape(r.Name, r.Body, true)
}

func (sh *shaper) shape(rule string, e grammar.Expr, ruleBody bool) (canon.Shape, error) {
	switch x := e.(type) {
	case *grammar.Blank:
		return &canon.Blank{}, nil
	case *grammar.Literal, *grammar.Pattern, *grammar.Token:
		return sh.terminal(rule, e, ruleBody)
	case *grammar.Ref:
		if sh.rec.closesCycle(rule, x.Name) {
			return &canon.SelfRef{Name: x.Name}, nil
		}
		return &canon.Symbol{Name: x.Name}, nil
	case *grammar.Prec:
		elem, err := sh.shape(rule, x.Body, ruleBody)
		return &canon.Prec{Assoc: x.Assoc, Value: x.Value, Label: x.Label, Elem: elem}, err
	case *grammar.Seq:
		return sh.sequence(rule, x)
	case *grammar.Choice:
		variants, err := sh.shapes(rule, x.Members)
		return &canon.Sum{Variants: variants}, err
	case *grammar.Repeat:
		elem, err := sh.shape(rule, x.Body, false)
		return &canon.Repeated{Elem: elem, Min: x.Min}, err
	case *grammar.Optional:
		elem, err := sh.shape(rule, x.Body, false)
		return &canon.Option{Elem: elem}, err
	case *grammar.Alias:
		elem, err := sh.shape(rule, x.Body, false)
		return &canon.Alias{Target: x.Target, Named: x.Named, Elem: elem}, err
	case *grammar.Field:
		elem, err := sh.shape(rule, x.Body, false)
		return &canon.Product{Fields: []canon.Field{{Name: x.Name, Shape: elem}}}, err
	}
	return nil, grammar.Errorf(grammar.MalformedGrammar, sh.x.g.Name, rule, "unexpected expression %v", e)
}

func (sh *shaper) shapes(rule string, exprs []grammar.Expr) ([]canon.Shape, error) {
	shapes := make([]canon.Shape, len(exprs))
	for i, e := range exprs {
		s, err := sh.shape(rule, e, false)
		if err != nil {
			return nil, err
		}
		shapes[i] = s
	}
	return shapes, nil
}

// sequence creates a Product if at least one member is labeled, a Sequence
// otherwise.
func (sh *shaper) sequence(rule string, seq *grammar.Seq) (canon.Shape, error) {
	labeled := false
	for _, m := range seq.Members {
		if m.Kind() == grammar.FieldKind {
			labeled = true
			break
		}
	}
	if !labeled {
		elems, err := sh.shapes(rule, seq.Members)
		return &canon.Sequence{Elems: elems}, err
	}
	p := &canon.Product{Fields: make([]canon.Field, len(seq.Members))}
	for i, m := range seq.Members {
		if f, ok := m.(*grammar.Field); ok {
			s, err := sh.shape(rule, f.Body, false)
			if err != nil {
				return nil, err
			}
			p.Fields[i] = canon.Field{Name: f.Name, Shape: s}
			continue
		}
		s, err := sh.shape(rule, m, false)
		if err != nil {
			return nil, err
		}
		p.Fields[i] = canon.Field{Shape: s}
	}
	return p, nil
}

func (sh *shaper) terminal(rule string, e grammar.Expr, ruleBody bool) (*canon.Terminal, error) {
	t := &canon.Terminal{}
	switch x := e.(type) {
	case *grammar.Literal:
		t.Text = x.Text
		t.Regexp = regexp.QuoteMeta(x.Text)
	case *grammar.Pattern:
		t.Text = x.Source
		t.Pattern = true
		t.Regexp = patternRegexp(x)
	case *grammar.Token:
		t.Text = x.Body.String()
		t.Token = true
		t.Immediate = x.Immediate
		re, err := sh.regexpOf(rule, x.Body, map[string]bool{})
		if err != nil {
			return nil, err
		}
		t.Regexp = re
	}
	if !ruleBody {
		t.Name = sh.names.nameOf(e)
		t.NodeType, t.Node = occurrenceNode(e)
	}
	return t, nil
}

// patternRegexp translates a pattern to RE2 syntax. Of the regex flags only
// i, m and s carry over.
func patternRegexp(p *grammar.Pattern) string {
	var flags strings.Builder
	for _, f := range p.Flags {
		if f == 'i' || f == 'm' || f == 's' {
			flags.WriteRune(f)
		}
	}
	return "(?" + flags.String() + ":" + p.Source + ")"
}

// regexpOf creates a regular expression matching the body of a token.
// References to rules are resolved, as long as they are lexical.
func (sh *shaper) regexpOf(rule string, e grammar.Expr, active map[string]bool) (string, error) {
	switch x := e.(type) {
	case *grammar.Blank:
		return "", nil
	case *grammar.Literal:
		return regexp.QuoteMeta(x.Text), nil
	case *grammar.Pattern:
		return patternRegexp(x), nil
	case *grammar.Seq:
		var b strings.Builder
		for _, m := range x.Members {
			re, err := sh.regexpOf(rule, m, active)
			if err != nil {
				return "", err
			}
			b.WriteString("(?:" + re + ")")
		}
		return b.String(), nil
	case *grammar.Choice:
		alts := make([]string, len(x.Members))
		for i, m := range x.Members {
			re, err := sh.regexpOf(rule, m, active)
			if err != nil {
				return "", err
			}
			alts[i] = re
		}
		return "(?:" + strings.Join(alts, "|") + ")", nil
	case *grammar.Repeat:
		re, err := sh.regexpOf(rule, x.Body, active)
		if x.Min > 0 {
			return "(?:" + re + ")+", err
		}
		return "(?:" + re + ")*", err
	case *grammar.Optional:
		re, err := sh.regexpOf(rule, x.Body, active)
		return "(?:" + re + ")?", err
	case *grammar.Token:
		return sh.regexpOf(rule, x.Body, active)
	case *grammar.Prec:
		return sh.regexpOf(rule, x.Body, active)
	case *grammar.Alias:
		return sh.regexpOf(rule, x.Body, active)
	case *grammar.Field:
		return sh.regexpOf(rule, x.Body, active)
	case *grammar.Ref:
		body, ok := sh.x.body(x.Name)
		if !ok || active[x.Name] {
			return "", grammar.Errorf(grammar.MalformedGrammar, sh.x.g.Name, rule,
				"token references non-lexical rule %q", x.Name).WithNames(x.Name)
		}
		active[x.Name] = true
		defer delete(active, x.Name)
		return sh.regexpOf(rule, body, active)
	}
	return "", grammar.Errorf(grammar.MalformedGrammar, sh.x.g.Name, rule, "unexpected expression %v in token", e)
}
