package canon

import (
	"fmt"
	"strings"

	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/gramnorm/grammar"
)

// Visibility of a rule in the trees produced by a parser.
type Visibility int8

// Rules are either visible, hidden, or inlined at their reference sites.
const (
	Visible Visibility = iota
	Hidden
	Inlined
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Inlined:
		return "inlined"
	}
	return fmt.Sprintf("visibility(%d)", v)
}

// Rule is a canonical rule.
type Rule struct {
	Name       string
	Visibility Visibility
	Named      bool     // rule produces a named node
	Extra      bool     // rule is a named extra
	AliasedAs  []string // alias targets at use sites, sorted
	Shape      Shape
}

func (r *Rule) String() string {
	return r.Name + " = " + str(r.Shape)
}

// Extra is a token which may appear between any two tokens.
type Extra struct {
	Shape Shape
	Named bool   // matched extras produce a node
	Rule  string // name of the extra's rule, if any
}

// ExternalKind tells how an external token has been declared.
type ExternalKind int8

// External tokens are declared as literals, patterns or rule names.
const (
	ExternalLiteral ExternalKind = iota
	ExternalPattern
	ExternalRule
)

// External is a token provided by an external scanner.
type External struct {
	Name string // node type or inferred name
	Text string // literal text or pattern source, empty for rules
	Kind ExternalKind
}

// Severity of a diagnostic.
type Severity int8

// Diagnostics are warnings or hints.
const (
	Warning Severity = iota
	Hint
)

func (s Severity) String() string {
	if s == Hint {
		return "hint"
	}
	return "warning"
}

// Diagnostic is a recoverable finding of the normalizer.
type Diagnostic struct {
	Severity Severity
	Kind     grammar.ErrorKind // NameCollision for naming conflicts, NoError for hints
	Rule     string
	Names    []string
	Message  string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	if d.Rule != "" {
		b.WriteString(" in rule ")
		b.WriteString(d.Rule)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	if len(d.Names) > 0 {
		b.WriteString(" [" + strings.Join(d.Names, ", ") + "]")
	}
	return b.String()
}

// BacktrackHint marks a place in a rule where a parser will need to look
// ahead or backtrack, because alternatives may start with the same token.
type BacktrackHint struct {
	Rule    string
	Where   string   // textual form of the sub-shape concerned
	Overlap []string // tokens the alternatives may both start with
}

func (h BacktrackHint) String() string {
	return fmt.Sprintf("%s: %s may start with %s", h.Rule, h.Where, strings.Join(h.Overlap, ", "))
}

// NodeType is a type of node in a parse tree.
type NodeType struct {
	Type  string
	Named bool
}

// Grammar is a canonical typed grammar.
type Grammar struct {
	Name           string
	Rules          []*Rule
	Extras         []Extra
	Externals      []External
	Word           string
	Conflicts      [][]string
	Diagnostics    []Diagnostic
	BacktrackHints []BacktrackHint
	index          map[string]int
}

// NewGrammar creates a canonical grammar from a list of rules. The first
// rule is the entry rule.
func NewGrammar(name string, rules []*Rule) *Grammar {
	g := &Grammar{
		Name:  name,
		Rules: rules,
		index: make(map[string]int, len(rules)),
	}
	for i, r := range rules {
		g.index[r.Name] = i
	}
	return g
}

// Entry returns the entry rule.
func (g *Grammar) Entry() *Rule {
	if len(g.Rules) == 0 {
		return nil
	}
	return g.Rules[0]
}

// Rule returns the canonical rule for name. Rule does not modify g and is
// safe for concurrent use.
func (g *Grammar) Rule(name string) (*Rule, bool) {
	if g.index == nil { // grammar has been created as a literal
		for _, r := range g.Rules {
			if r.Name == name {
				return r, true
			}
		}
		return nil, false
	}
	if inx, ok := g.index[name]; ok {
		return g.Rules[inx], true
	}
	return nil, false
}

// String renders the grammar, one rule per line, followed by extras,
// externals and conflicts.
func (g *Grammar) String() string {
	var b strings.Builder
	for _, r := range g.Rules {
		switch r.Visibility {
		case Hidden:
			b.WriteString("hidden  ")
		case Inlined:
			b.WriteString("inlined ")
		default:
			b.WriteString("        ")
		}
		b.WriteString(r.String())
		if r.Extra {
			b.WriteString("   [extra]")
		}
		if len(r.AliasedAs) > 0 {
			b.WriteString("   [as " + strings.Join(r.AliasedAs, ", ") + "]")
		}
		b.WriteString("\n")
	}
	if len(g.Extras) > 0 {
		parts := make([]string, len(g.Extras))
		for i, x := range g.Extras {
			parts[i] = str(x.Shape)
			if x.Named {
				parts[i] += "!"
			}
		}
		b.WriteString("extras: " + strings.Join(parts, ", ") + "\n")
	}
	if len(g.Externals) > 0 {
		parts := make([]string, len(g.Externals))
		for i, x := range g.Externals {
			parts[i] = x.Name
		}
		b.WriteString("externals: " + strings.Join(parts, ", ") + "\n")
	}
	if g.Word != "" {
		b.WriteString("word: " + g.Word + "\n")
	}
	for _, grp := range g.Conflicts {
		b.WriteString("conflict: " + strings.Join(grp, ", ") + "\n")
	}
	return b.String()
}

// fingerprint is the hashed snapshot of a canonical grammar.
type fingerprint struct {
	Name      string
	Rules     []string
	Extras    []string
	Externals []string
	Word      string
	Conflicts [][]string
}

// Fingerprint returns a hash over the structure of g. Two grammars with
// equal structure have equal fingerprints. Diagnostics are not included.
func (g *Grammar) Fingerprint() string {
	fp := fingerprint{
		Name:      g.Name,
		Word:      g.Word,
		Conflicts: g.Conflicts,
	}
	for _, r := range g.Rules {
		fp.Rules = append(fp.Rules, fmt.Sprintf("%s %s %v %v %v %s", r.Name, r.Visibility,
			r.Named, r.Extra, r.AliasedAs, Dump(r.Shape)))
	}
	for _, x := range g.Extras {
		fp.Extras = append(fp.Extras, fmt.Sprintf("%v %s %s", x.Named, x.Rule, Dump(x.Shape)))
	}
	for _, x := range g.Externals {
		fp.Externals = append(fp.Externals, fmt.Sprintf("%d %s %s", x.Kind, x.Name, x.Text))
	}
	return fmt.Sprintf("%x", structhash.Md5(fp, 1))
}

// NodeTypes lists the types of nodes a parser for g will produce, sorted by
// name. Named and anonymous node types with equal names are listed
// separately.
func (g *Grammar) NodeTypes() []NodeType {
	set := treeset.NewWith(nodeTypeComparator)
	for _, r := range g.Rules {
		if r.Visibility == Visible && r.Named {
			set.Add(NodeType{Type: r.Name, Named: true})
		}
		Walk(r.Shape, func(s Shape) bool {
			switch x := s.(type) {
			case *Terminal:
				if x.Node {
					set.Add(NodeType{Type: x.NodeType})
				}
			case *Alias:
				set.Add(NodeType{Type: x.Target, Named: x.Named})
				_, renamed := x.Elem.(*Terminal)
				return !renamed
			}
			return true
		})
	}
	for _, x := range g.Extras {
		if x.Named && x.Rule != "" {
			set.Add(NodeType{Type: x.Rule, Named: true})
		}
	}
	for _, x := range g.Externals {
		if x.Kind == ExternalRule && !grammar.IsHiddenName(x.Name) {
			set.Add(NodeType{Type: x.Name, Named: true})
		}
	}
	types := make([]NodeType, 0, set.Size())
	for _, v := range set.Values() {
		types = append(types, v.(NodeType))
	}
	return types
}

func nodeTypeComparator(a, b interface{}) int {
	n1, n2 := a.(NodeType), b.(NodeType)
	if c := utils.StringComparator(n1.Type, n2.Type); c != 0 {
		return c
	}
	if n1.Named == n2.Named {
		return 0
	} else if n2.Named {
		return -1
	}
	return 1
}

// HasNodeType is true if a parser for g produces nodes of type t.
func (g *Grammar) HasNodeType(t string, named bool) bool {
	for _, nt := range g.NodeTypes() {
		if nt.Type == t && nt.Named == named {
			return true
		}
	}
	return false
}

// Flatten returns the shape of rule name, with references to hidden rules
// unfolded. References closing a cycle are never unfolded, thus Flatten
// always terminates.
func (g *Grammar) Flatten(name string) (Shape, error) {
	r, ok := g.Rule(name)
	if !ok {
		return nil, fmt.Errorf("grammar %s has no rule %q", g.Name, name)
	}
	return g.flatten(r.Shape, map[string]bool{name: true})
}

func (g *Grammar) flatten(s Shape, active map[string]bool) (Shape, error) {
	switch x := s.(type) {
	case *Symbol:
		r, ok := g.Rule(x.Name)
		if !ok || r.Visibility != Hidden {
			return x, nil
		}
		if active[x.Name] {
			// Symbol shapes never close a cycle; refuse to loop anyway
			return nil, fmt.Errorf("grammar %s: reference cycle through %q not marked as self-reference", g.Name, x.Name)
		}
		active[x.Name] = true
		defer delete(active, x.Name)
		return g.flatten(r.Shape, active)
	case *Sum:
		vs, err := g.flattenAll(x.Variants, active)
		return &Sum{Variants: vs}, err
	case *Sequence:
		es, err := g.flattenAll(x.Elems, active)
		return &Sequence{Elems: es}, err
	case *Product:
		p := &Product{Fields: make([]Field, len(x.Fields))}
		for i, f := range x.Fields {
			fs, err := g.flatten(f.Shape, active)
			if err != nil {
				return nil, err
			}
			p.Fields[i] = Field{Name: f.Name, Shape: fs}
		}
		return p, nil
	case *Repeated:
		e, err := g.flatten(x.Elem, active)
		return &Repeated{Elem: e, Min: x.Min}, err
	case *Option:
		e, err := g.flatten(x.Elem, active)
		return &Option{Elem: e}, err
	case *Alias:
		e, err := g.flatten(x.Elem, active)
		return &Alias{Target: x.Target, Named: x.Named, Elem: e}, err
	case *Prec:
		e, err := g.flatten(x.Elem, active)
		return &Prec{Assoc: x.Assoc, Value: x.Value, Label: x.Label, Elem: e}, err
	}
	return s, nil
}

func (g *Grammar) flattenAll(shapes []Shape, active map[string]bool) ([]Shape, error) {
	r := make([]Shape, len(shapes))
	for i, s := range shapes {
		f, err := g.flatten(s, active)
		if err != nil {
			return nil, err
		}
		r[i] = f
	}
	return r, nil
}
