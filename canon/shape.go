package canon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/gramnorm/grammar"
)

// ShapeKind is the tag of a shape.
type ShapeKind int8

// Kinds of shapes.
const (
	TerminalShape ShapeKind = iota
	ProductShape
	SumShape
	SequenceShape
	RepeatedShape
	OptionShape
	SymbolShape
	SelfRefShape
	AliasShape
	PrecShape
	BlankShape
)

var shapeKindNames = [...]string{"terminal", "product", "sum", "sequence", "repeated",
	"option", "symbol", "selfref", "alias", "prec", "blank"}

func (k ShapeKind) String() string {
	if int(k) < len(shapeKindNames) {
		return shapeKindNames[k]
	}
	return fmt.Sprintf("shape(%d)", k)
}

// Shape is the structural type of a canonical rule or of one of its parts.
type Shape interface {
	Kind() ShapeKind
	String() string
	Elements() []Shape
}

// Terminal is a lexical unit: a literal, a pattern or a token.
//
// For tokens, Text is the textual form of the token's body. Regexp holds
// a Go regular expression matching the terminal.
type Terminal struct {
	Text      string
	Pattern   bool   // Text is a pattern
	Token     bool   // wrapped by token()
	Immediate bool   // no extras allowed in front
	Regexp    string // matching expression, RE2 syntax
	Name      string // inferred identifier; empty for terminals naming a rule
	Node      bool   // does matching produce a node
	NodeType  string // type of the node, if any
}

// Field is a member of a Product. Unlabeled members have an empty name.
type Field struct {
	Name  string
	Shape Shape
}

// Product is a sequence with labeled members.
type Product struct {
	Fields []Field
}

// Sum is a choice of variants.
type Sum struct {
	Variants []Shape
}

// Sequence is a sequence without labels.
type Sequence struct {
	Elems []Shape
}

// Repeated repeats its element, at least Min times.
type Repeated struct {
	Elem Shape
	Min  int
}

// Option is an optional element.
type Option struct {
	Elem Shape
}

// Symbol references a rule, without closing a reference cycle.
type Symbol struct {
	Name string
}

// SelfRef references a rule and closes a reference cycle.
type SelfRef struct {
	Name string
}

// Alias renames the node of its element.
type Alias struct {
	Target string
	Named  bool
	Elem   Shape
}

// Prec carries a precedence annotation.
type Prec struct {
	Assoc grammar.Assoc
	Value int
	Label string
	Elem  Shape
}

// Blank matches the empty string.
type Blank struct{}

func (*Terminal) Kind() ShapeKind { return TerminalShape }
func (*Product) Kind() ShapeKind  { return ProductShape }
func (*Sum) Kind() ShapeKind      { return SumShape }
func (*Sequence) Kind() ShapeKind { return SequenceShape }
func (*Repeated) Kind() ShapeKind { return RepeatedShape }
func (*Option) Kind() ShapeKind   { return OptionShape }
func (*Symbol) Kind() ShapeKind   { return SymbolShape }
func (*SelfRef) Kind() ShapeKind  { return SelfRefShape }
func (*Alias) Kind() ShapeKind    { return AliasShape }
func (*Prec) Kind() ShapeKind     { return PrecShape }
func (*Blank) Kind() ShapeKind    { return BlankShape }

func (*Terminal) Elements() []Shape   { return nil }
func (*Symbol) Elements() []Shape     { return nil }
func (*SelfRef) Elements() []Shape    { return nil }
func (*Blank) Elements() []Shape      { return nil }
func (s *Sum) Elements() []Shape      { return s.Variants }
func (s *Sequence) Elements() []Shape { return s.Elems }
func (s *Repeated) Elements() []Shape { return []Shape{s.Elem} }
func (s *Option) Elements() []Shape   { return []Shape{s.Elem} }
func (s *Alias) Elements() []Shape    { return []Shape{s.Elem} }
func (s *Prec) Elements() []Shape     { return []Shape{s.Elem} }

func (s *Product) Elements() []Shape {
	elems := make([]Shape, len(s.Fields))
	for i, f := range s.Fields {
		elems[i] = f.Shape
	}
	return elems
}

// --- Stringers -------------------------------------------------------------

func (s *Terminal) String() string {
	var t string
	switch {
	case s.Token:
		t = s.Text
	case s.Pattern:
		t = "/" + s.Text + "/"
	default:
		t = strconv.Quote(s.Text)
	}
	if s.Immediate {
		return "token.immediate(" + t + ")"
	} else if s.Token {
		return "token(" + t + ")"
	}
	return t
}

func (s *Product) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			parts[i] = nested(f.Shape)
		} else {
			parts[i] = f.Name + ": " + nested(f.Shape)
		}
	}
	return strings.Join(parts, ", ")
}

func (s *Sum) String() string {
	parts := make([]string, len(s.Variants))
	for i, v := range s.Variants {
		parts[i] = nested(v)
	}
	return strings.Join(parts, " | ")
}

func (s *Sequence) String() string {
	parts := make([]string, len(s.Elems))
	for i, e := range s.Elems {
		parts[i] = nested(e)
	}
	return strings.Join(parts, ", ")
}

func (s *Repeated) String() string {
	if s.Min > 0 {
		return "(" + str(s.Elem) + ")+"
	}
	return "(" + str(s.Elem) + ")*"
}

func (s *Option) String() string  { return "(" + str(s.Elem) + ")?" }
func (s *Symbol) String() string  { return s.Name }
func (s *SelfRef) String() string { return s.Name }
func (*Blank) String() string     { return "blank" }

func (s *Alias) String() string {
	if s.Named {
		return fmt.Sprintf("alias(%s, $.%s)", str(s.Elem), s.Target)
	}
	return fmt.Sprintf("alias(%s, %q)", str(s.Elem), s.Target)
}

func (s *Prec) String() string {
	if s.Label != "" {
		return fmt.Sprintf("%s(%q, %s)", s.Assoc, s.Label, str(s.Elem))
	}
	return fmt.Sprintf("%s(%d, %s)", s.Assoc, s.Value, str(s.Elem))
}

// nested renders a shape as a member of a composite shape.
func nested(s Shape) string {
	if s == nil {
		return "<nil>"
	}
	switch s.Kind() {
	case SumShape, SequenceShape, ProductShape:
		return "(" + s.String() + ")"
	}
	return s.String()
}

func str(s Shape) string {
	if s == nil {
		return "<nil>"
	}
	return s.String()
}

// Walk visits s and its sub-shapes in depth-first pre-order. If visit
// returns false, the sub-shapes of the current shape are skipped.
func Walk(s Shape, visit func(Shape) bool) {
	if s == nil || !visit(s) {
		return
	}
	for _, e := range s.Elements() {
		Walk(e, visit)
	}
}

// Dump renders a shape together with the kind of every sub-shape. Other than
// String, Dump distinguishes Symbol from SelfRef and shows node information
// of terminals.
func Dump(s Shape) string {
	var b strings.Builder
	dump(&b, s)
	return b.String()
}

func dump(b *strings.Builder, s Shape) {
	if s == nil {
		b.WriteString("nil")
		return
	}
	b.WriteString(s.Kind().String())
	switch x := s.(type) {
	case *Terminal:
		fmt.Fprintf(b, "[%s name=%q node=%v type=%q re=%q]", x.String(), x.Name, x.Node, x.NodeType, x.Regexp)
		return
	case *Symbol:
		b.WriteString("[" + x.Name + "]")
		return
	case *SelfRef:
		b.WriteString("[" + x.Name + "]")
		return
	case *Repeated:
		fmt.Fprintf(b, "%d", x.Min)
	case *Alias:
		fmt.Fprintf(b, "[%s named=%v]", x.Target, x.Named)
	case *Prec:
		fmt.Fprintf(b, "[%s %d %q]", x.Assoc, x.Value, x.Label)
	case *Product:
		b.WriteString("(")
		for i, f := range x.Fields {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(f.Name + "=")
			dump(b, f.Shape)
		}
		b.WriteString(")")
		return
	}
	elems := s.Elements()
	if len(elems) == 0 {
		return
	}
	b.WriteString("(")
	for i, e := range elems {
		if i > 0 {
			b.WriteString(" ")
		}
		dump(b, e)
	}
	b.WriteString(")")
}
