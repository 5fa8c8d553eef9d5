package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/npillmayer/gramnorm"
	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/cst"
	"github.com/npillmayer/gramnorm/grammar"
	"github.com/npillmayer/schuko/gconf"
)

// Parser is the contract of parser engines: parse an input into a concrete
// syntax tree.
type Parser interface {
	Parse(ctx context.Context, input []byte) (*cst.Node, error)
}

// ErrSyntax is matched by errors for inputs not covered by the grammar.
var ErrSyntax = errors.New("syntax error")

// ErrBudgetExhausted is matched by errors for parses aborted after too many
// matching steps.
var ErrBudgetExhausted = errors.New("matching budget exhausted")

// SyntaxError reports the farthest position the engine could reach.
type SyntaxError struct {
	Offset int
	At     gramnorm.Point
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s (offset %d)", e.At, e.Offset)
}

// Unwrap makes SyntaxError match ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

const defaultMaxSteps = 1000000

// Engine is a reference parser for a canonical grammar. An Engine is
// immutable after creation and may be used for concurrent parses.
type Engine struct {
	g        *canon.Grammar
	matchers map[*canon.Terminal]Matcher
	keywords map[*canon.Terminal]bool // literals subject to keyword extraction
	word     Matcher
	extras   []canon.Extra
	maxSteps int
}

var _ Parser = (*Engine)(nil)

// Option configures an Engine.
type Option func(*options)

type options struct {
	maxSteps int
	factory  MatcherFactory
}

// MaxSteps sets the budget of matching steps per parse.
func MaxSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// WithMatchers sets the factory used to create terminal matchers.
func WithMatchers(f MatcherFactory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// New creates an engine for a canonical grammar. It fails if a terminal
// cannot be compiled.
func New(g *canon.Grammar, opts ...Option) (*Engine, error) {
	if g == nil || len(g.Rules) == 0 {
		return nil, grammar.Errorf(grammar.EmptyGrammar, "", "", "no grammar to parse with")
	}
	o := &options{maxSteps: defaultMaxSteps, factory: NewRegexpMatcher}
	if gconf.IsSet("engine-max-steps") && gconf.GetInt("engine-max-steps") > 0 {
		o.maxSteps = gconf.GetInt("engine-max-steps")
	}
	for _, opt := range opts {
		opt(o)
	}
	e := &Engine{
		g:        g,
		matchers: make(map[*canon.Terminal]Matcher),
		keywords: make(map[*canon.Terminal]bool),
		extras:   g.Extras,
		maxSteps: o.maxSteps,
	}
	if len(e.extras) == 0 {
		e.extras = []canon.Extra{{Shape: &canon.Terminal{Text: `\s`, Pattern: true, Regexp: `\s`}}}
	}
	compile := func(rule string, s canon.Shape) error {
		var err error
		canon.Walk(s, func(s canon.Shape) bool {
			t, ok := s.(*canon.Terminal)
			if !ok || err != nil {
				return err == nil
			}
			var m Matcher
			if m, err = o.factory(t); err != nil {
				err = grammar.Errorf(grammar.MalformedGrammar, g.Name, rule,
					"cannot compile terminal %s: %v", t, err)
				return false
			}
			e.matchers[t] = m
			return true
		})
		return err
	}
	for _, r := range g.Rules {
		if err := compile(r.Name, r.Shape); err != nil {
			tracer().Errorf("%v", err)
			return nil, err
		}
	}
	for _, x := range e.extras {
		if err := compile(x.Rule, x.Shape); err != nil {
			tracer().Errorf("%v", err)
			return nil, err
		}
	}
	e.setupKeywords()
	tracer().Debugf("engine for grammar %s: %d terminals", g.Name, len(e.matchers))
	return e, nil
}

// setupKeywords finds the word rule's matcher. Literals which match the word
// rule completely are keywords: they must not match a prefix of a word.
func (e *Engine) setupKeywords() {
	if e.g.Word == "" {
		return
	}
	r, ok := e.g.Rule(e.g.Word)
	if !ok {
		return
	}
	t, ok := stripPrec(r.Shape).(*canon.Terminal)
	if !ok {
		return
	}
	e.word = e.matchers[t]
	for t := range e.matchers {
		if t.Pattern || t.Token || t.Text == "" {
			continue
		}
		if e.word.Match([]byte(t.Text), 0) == len(t.Text) {
			e.keywords[t] = true
		}
	}
}

// Parse parses an input, starting with the entry rule of the grammar, which
// has to cover the complete input.
func (e *Engine) Parse(ctx context.Context, input []byte) (*cst.Node, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := &run{
		Engine: e,
		ctx:    ctx,
		input:  input,
		lines:  gramnorm.NewLineIndex(string(input)),
		active: make(map[activation]int),
		skips:  make(map[int]skip),
	}
	tree := r.parse()
	if r.err != nil {
		tracer().Infof("parse aborted after %d steps: %v", r.steps, r.err)
		return nil, r.err
	}
	if tree == nil {
		err := &SyntaxError{Offset: r.farthest, At: r.lines.Point(r.farthest)}
		tracer().Infof("%v", err)
		return nil, err
	}
	tracer().Debugf("parsed %d bytes in %d steps", len(input), r.steps)
	return tree, nil
}

func stripPrec(s canon.Shape) canon.Shape {
	for {
		p, ok := s.(*canon.Prec)
		if !ok {
			return s
		}
		s = p.Elem
	}
}
