package engine

import (
	"regexp"

	"github.com/npillmayer/gramnorm/canon"
)

// Matcher matches a terminal at a position of the input.
type Matcher interface {
	// Match returns the length of the longest match at pos, or -1.
	Match(input []byte, pos int) int
}

// MatcherFactory creates a matcher for a terminal.
type MatcherFactory func(t *canon.Terminal) (Matcher, error)

// RegexpMatcher matches terminals using package regexp, with
// leftmost-longest semantics.
type RegexpMatcher struct {
	re *regexp.Regexp
}

// NewRegexpMatcher is the default MatcherFactory.
func NewRegexpMatcher(t *canon.Terminal) (Matcher, error) {
	re, err := regexp.Compile(`^(?:` + t.Regexp + `)`)
	if err != nil {
		return nil, err
	}
	re.Longest()
	return &RegexpMatcher{re: re}, nil
}

// Match is part of interface Matcher.
func (m *RegexpMatcher) Match(input []byte, pos int) int {
	if pos > len(input) {
		return -1
	}
	loc := m.re.FindIndex(input[pos:])
	if loc == nil {
		return -1
	}
	return loc[1]
}
