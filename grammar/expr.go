package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag of a rule expression.
type Kind int8

// Kinds of rule expressions.
const (
	BlankKind Kind = iota
	LiteralKind
	PatternKind
	SeqKind
	ChoiceKind
	RepeatKind
	OptionalKind
	TokenKind
	PrecKind
	AliasKind
	FieldKind
	RefKind
)

var kindNames = [...]string{"blank", "literal", "pattern", "seq", "choice", "repeat",
	"optional", "token", "prec", "alias", "field", "ref"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Expr is a rule expression, i.e. the unit of grammar structure.
// Concrete types are *Blank, *Literal, *Pattern, *Seq, *Choice, *Repeat,
// *Optional, *Token, *Prec, *Alias, *Field and *Ref.
//
// Expressions are treated as values: once part of a grammar, they must not be
// modified. Use Clone to derive a modifiable copy.
type Expr interface {
	Kind() Kind
	String() string
	children() []Expr
}

// Blank matches the empty string.
type Blank struct{}

// Literal matches a fixed string.
type Literal struct {
	Text string
}

// Pattern matches a regular expression, given as source text.
type Pattern struct {
	Source string
	Flags  string // regex flags, as found in grammar.json
}

// Seq matches its members in order.
type Seq struct {
	Members []Expr
}

// Choice matches one of its members. Member order is significant for
// tie-breaking.
type Choice struct {
	Members []Expr
}

// Repeat matches Body at least Min times, with Min ∈ {0,1}.
type Repeat struct {
	Body Expr
	Min  int
}

// Optional matches Body or the empty string.
type Optional struct {
	Body Expr
}

// Token wraps its body as a single lexical unit. Immediate tokens do not
// allow extras in front of them.
type Token struct {
	Body      Expr
	Immediate bool
}

// Assoc denotes the associativity flavour of a precedence annotation.
type Assoc int8

// Flavours of precedence annotations.
const (
	PrecNone Assoc = iota
	PrecLeft
	PrecRight
	PrecDynamic
)

var precNames = [...]string{"prec", "prec.left", "prec.right", "prec.dynamic"}

func (pk Assoc) String() string {
	if int(pk) < len(precNames) {
		return precNames[pk]
	}
	return "prec.?"
}

// Prec annotates its body with a precedence. Precedences are passed through
// unchanged to parser engines.
type Prec struct {
	Assoc Assoc
	Value int
	Label string // named precedence, if any
	Body  Expr
}

// Alias renames the node produced by its body. Named aliases produce named
// nodes ($.target), others produce anonymous nodes ("target").
type Alias struct {
	Body   Expr
	Target string
	Named  bool
}

// Field labels its body with a field name.
type Field struct {
	Name string
	Body Expr
}

// Ref references another rule (or an external token) by name.
type Ref struct {
	Name string
}

// --- Constructors ----------------------------------------------------------

// Str creates a literal expression.
func Str(text string) Expr { return &Literal{Text: text} }

// Pat creates a pattern expression from a regular expression source.
func Pat(source string) Expr { return &Pattern{Source: source} }

// Sym creates a reference to a rule.
func Sym(name string) Expr { return &Ref{Name: name} }

// Empty creates a blank expression.
func Empty() Expr { return &Blank{} }

// Sequence creates a sequence.
func Sequence(members ...Expr) Expr { return &Seq{Members: members} }

// Alt creates a choice.
func Alt(members ...Expr) Expr { return &Choice{Members: members} }

// Repeat0 creates a repetition matching zero or more times.
func Repeat0(body Expr) Expr { return &Repeat{Body: body, Min: 0} }

// Repeat1 creates a repetition matching one or more times.
func Repeat1(body Expr) Expr { return &Repeat{Body: body, Min: 1} }

// Opt creates an optional expression.
func Opt(body Expr) Expr { return &Optional{Body: body} }

// Tok wraps body as a token.
func Tok(body Expr) Expr { return &Token{Body: body} }

// ImmediateTok wraps body as an immediate token.
func ImmediateTok(body Expr) Expr { return &Token{Body: body, Immediate: true} }

// P annotates body with a precedence.
func P(value int, body Expr) Expr { return &Prec{Assoc: PrecNone, Value: value, Body: body} }

// PLeft annotates body with a left-associative precedence.
func PLeft(value int, body Expr) Expr { return &Prec{Assoc: PrecLeft, Value: value, Body: body} }

// PRight annotates body with a right-associative precedence.
func PRight(value int, body Expr) Expr { return &Prec{Assoc: PrecRight, Value: value, Body: body} }

// PDynamic annotates body with a dynamic precedence.
func PDynamic(value int, body Expr) Expr { return &Prec{Assoc: PrecDynamic, Value: value, Body: body} }

// As creates a named alias.
func As(body Expr, target string) Expr { return &Alias{Body: body, Target: target, Named: true} }

// AsStr creates an anonymous alias.
func AsStr(body Expr, target string) Expr { return &Alias{Body: body, Target: target} }

// Label creates a field.
func Label(name string, body Expr) Expr { return &Field{Name: name, Body: body} }

// --- Kinds and children ----------------------------------------------------

func (*Blank) Kind() Kind    { return BlankKind }
func (*Literal) Kind() Kind  { return LiteralKind }
func (*Pattern) Kind() Kind  { return PatternKind }
func (*Seq) Kind() Kind      { return SeqKind }
func (*Choice) Kind() Kind   { return ChoiceKind }
func (*Repeat) Kind() Kind   { return RepeatKind }
func (*Optional) Kind() Kind { return OptionalKind }
func (*Token) Kind() Kind    { return TokenKind }
func (*Prec) Kind() Kind     { return PrecKind }
func (*Alias) Kind() Kind    { return AliasKind }
func (*Field) Kind() Kind    { return FieldKind }
func (*Ref) Kind() Kind      { return RefKind }

func (*Blank) children() []Expr      { return nil }
func (*Literal) children() []Expr    { return nil }
func (*Pattern) children() []Expr    { return nil }
func (e *Seq) children() []Expr      { return e.Members }
func (e *Choice) children() []Expr   { return e.Members }
func (e *Repeat) children() []Expr   { return []Expr{e.Body} }
func (e *Optional) children() []Expr { return []Expr{e.Body} }
func (e *Token) children() []Expr    { return []Expr{e.Body} }
func (e *Prec) children() []Expr     { return []Expr{e.Body} }
func (e *Alias) children() []Expr    { return []Expr{e.Body} }
func (e *Field) children() []Expr    { return []Expr{e.Body} }
func (*Ref) children() []Expr        { return nil }

// Children returns the direct sub-expressions of e.
func Children(e Expr) []Expr {
	if e == nil {
		return nil
	}
	return e.children()
}

// --- Stringers -------------------------------------------------------------

func (*Blank) String() string     { return "blank()" }
func (e *Literal) String() string { return strconv.Quote(e.Text) }
func (e *Pattern) String() string { return "/" + e.Source + "/" + e.Flags }
func (e *Ref) String() string     { return "$." + e.Name }

func (e *Seq) String() string    { return "seq(" + joinExprs(e.Members) + ")" }
func (e *Choice) String() string { return "choice(" + joinExprs(e.Members) + ")" }

func (e *Repeat) String() string {
	if e.Min > 0 {
		return "repeat1(" + str(e.Body) + ")"
	}
	return "repeat(" + str(e.Body) + ")"
}

func (e *Optional) String() string { return "optional(" + str(e.Body) + ")" }

func (e *Token) String() string {
	if e.Immediate {
		return "token.immediate(" + str(e.Body) + ")"
	}
	return "token(" + str(e.Body) + ")"
}

func (e *Prec) String() string {
	if e.Label != "" {
		return fmt.Sprintf("%s(%q, %s)", e.Assoc, e.Label, str(e.Body))
	}
	return fmt.Sprintf("%s(%d, %s)", e.Assoc, e.Value, str(e.Body))
}

func (e *Alias) String() string {
	if e.Named {
		return fmt.Sprintf("alias(%s, $.%s)", str(e.Body), e.Target)
	}
	return fmt.Sprintf("alias(%s, %q)", str(e.Body), e.Target)
}

func (e *Field) String() string { return fmt.Sprintf("field(%q, %s)", e.Name, str(e.Body)) }

func str(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

func joinExprs(exprs []Expr) string {
	s := make([]string, len(exprs))
	for i, e := range exprs {
		s[i] = str(e)
	}
	return strings.Join(s, ", ")
}

// --- Helpers ---------------------------------------------------------------

// Clone creates a deep copy of e.
func Clone(e Expr) Expr {
	return Rewrite(e, func(x Expr) Expr { return x })
}

// Rewrite creates a copy of e bottom-up. Every node is copied, its children
// rewritten, and then handed to f, which returns the replacement node.
func Rewrite(e Expr, f func(Expr) Expr) Expr {
	var c Expr
	switch x := e.(type) {
	case nil:
		return nil
	case *Blank:
		c = &Blank{}
	case *Literal:
		c = &Literal{Text: x.Text}
	case *Pattern:
		c = &Pattern{Source: x.Source, Flags: x.Flags}
	case *Ref:
		c = &Ref{Name: x.Name}
	case *Seq:
		c = &Seq{Members: rewriteAll(x.Members, f)}
	case *Choice:
		c = &Choice{Members: rewriteAll(x.Members, f)}
	case *Repeat:
		c = &Repeat{Body: Rewrite(x.Body, f), Min: x.Min}
	case *Optional:
		c = &Optional{Body: Rewrite(x.Body, f)}
	case *Token:
		c = &Token{Body: Rewrite(x.Body, f), Immediate: x.Immediate}
	case *Prec:
		c = &Prec{Assoc: x.Assoc, Value: x.Value, Label: x.Label, Body: Rewrite(x.Body, f)}
	case *Alias:
		c = &Alias{Body: Rewrite(x.Body, f), Target: x.Target, Named: x.Named}
	case *Field:
		c = &Field{Name: x.Name, Body: Rewrite(x.Body, f)}
	default:
		panic(fmt.Sprintf("grammar.Rewrite: unknown expression type %T", e))
	}
	return f(c)
}

func rewriteAll(exprs []Expr, f func(Expr) Expr) []Expr {
	r := make([]Expr, len(exprs))
	for i, e := range exprs {
		r[i] = Rewrite(e, f)
	}
	return r
}

// Walk visits e and its sub-expressions in depth-first pre-order. If visit
// returns false, the sub-expressions of the current node are skipped.
func Walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	for _, c := range e.children() {
		Walk(c, visit)
	}
}

// Refs returns the names of all rules referenced by e, in order of first
// appearance.
func Refs(e Expr) []string {
	var names []string
	seen := map[string]bool{}
	Walk(e, func(x Expr) bool {
		if r, ok := x.(*Ref); ok && !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
		return true
	})
	return names
}

// StripPrec removes precedence annotations around e.
func StripPrec(e Expr) Expr {
	for {
		p, ok := e.(*Prec)
		if !ok {
			return e
		}
		e = p.Body
	}
}

// IsTerminal is true for literals and patterns.
func IsTerminal(e Expr) bool {
	k := e.Kind()
	return k == LiteralKind || k == PatternKind
}

// Equal compares two expressions structurally.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// IsHiddenName is true for names following the hidden-rule convention, i.e.
// names starting with an underscore.
func IsHiddenName(name string) bool {
	return strings.HasPrefix(name, "_")
}
