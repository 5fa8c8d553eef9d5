package lexmach

import (
	"errors"
	"strings"
	"unicode"

	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/engine"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// DFAMatcher matches a single terminal with a lexmachine DFA.
type DFAMatcher struct {
	Lexer *lexmachine.Lexer
}

var _ engine.Matcher = (*DFAMatcher)(nil)

// errUnsupported flags terminals lexmachine is not asked to compile.
var errUnsupported = errors.New("terminal not supported by lexmachine")

// NewMatcher is an engine.MatcherFactory. It creates a DFA matcher for a
// terminal, or a regexp matcher if lexmachine cannot handle the terminal.
func NewMatcher(t *canon.Terminal) (engine.Matcher, error) {
	m, err := NewDFAMatcher(t)
	if err != nil {
		tracer().Debugf("terminal %s falls back to regexp: %v", t, err)
		return engine.NewRegexpMatcher(t)
	}
	return m, nil
}

// NewDFAMatcher compiles a literal or a pattern without flags into a DFA.
func NewDFAMatcher(t *canon.Terminal) (*DFAMatcher, error) {
	re, err := lexmachineRegexp(t)
	if err != nil {
		return nil, err
	}
	lexer := lexmachine.NewLexer()
	lexer.Add([]byte(re), matchLength)
	if err := lexer.Compile(); err != nil {
		return nil, err
	}
	return &DFAMatcher{Lexer: lexer}, nil
}

func lexmachineRegexp(t *canon.Terminal) (string, error) {
	switch {
	case t.Token || t.Text == "":
		return "", errUnsupported
	case t.Pattern:
		if t.Regexp != "(?:"+t.Text+")" { // flags
			return "", errUnsupported
		}
		if hasWildcard(t.Text) {
			return "", errUnsupported
		}
		return t.Text, nil
	}
	return escape(t.Text), nil
}

// hasWildcard is true if a pattern contains an unescaped '.' outside of a
// character class. lexmachine lets '.' match a newline, regexp does not.
func hasWildcard(pattern string) bool {
	inClass, escaped := false, false
	for _, r := range pattern {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '[':
			inClass = true
		case r == ']':
			inClass = false
		case r == '.' && !inClass:
			return true
		}
	}
	return false
}

// escape quotes every character of a literal which is not a letter or
// digit.
func escape(lit string) string {
	var b strings.Builder
	for _, r := range lit {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Match is part of interface engine.Matcher.
func (m *DFAMatcher) Match(input []byte, pos int) int {
	if pos >= len(input) {
		return -1
	}
	s, err := m.Lexer.Scanner(input)
	if err != nil {
		tracer().Errorf("cannot create scanner: %v", err)
		return -1
	}
	s.TC = pos
	tok, err, eof := s.Next()
	if err != nil || eof {
		if _, unconsumed := err.(*machines.UnconsumedInput); err != nil && !unconsumed {
			tracer().Debugf("lexmachine: %v", err)
		}
		return -1
	}
	return tok.(int)
}

// matchLength is the lexmachine action for terminals: the token value is the
// length of the match.
func matchLength(_ *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	return len(m.Bytes), nil
}
