/*
Package lexmach provides terminal matchers for the reference engine, built
with the lexmachine scanner generator.

For more information on lexmachine, see e.g.
https://hackthology.com/how-to-tokenize-complex-strings-with-lexmachine.html

Every literal and every plain pattern of a grammar is compiled into a DFA.
Lexmachine understands a subset of the regular expression syntax of package
regexp; terminals it cannot handle (tokens, patterns with flags, or patterns
using unsupported syntax) fall back to the default regexp matcher.

	p, err := engine.New(cg, engine.WithMatchers(lexmach.NewMatcher))

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lexmach

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gramnorm.engine'.
func tracer() tracing.Trace {
	return tracing.Select("gramnorm.engine")
}
