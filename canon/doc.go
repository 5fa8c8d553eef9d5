/*
Package canon holds the canonical typed grammar, the result of normalizing
a grammar.

A canonical grammar is a finite, uniquely named description of the typed
nodes a parser for the grammar will produce. Every rule carries its
visibility and a shape:

    Terminal        a literal, pattern or token
    Product         a sequence with at least one labeled field
    Sum             a choice of variants
    Sequence        an unlabeled sequence
    Repeated        repetition of an element, at least Min times
    Option          an optional element
    Symbol          a non-recursive reference to another rule
    SelfRef         a reference closing a reference cycle
    Alias           an element renamed at its use site
    Prec            a precedence annotation, passed through unchanged
    Blank           the empty string

Recursion is never unfolded. Consumers are expected to realize SelfRef
shapes as indirect or boxed types. The textual form of a rule uses EBNF-like
notation, e.g.

    tuple = number, (tuple)?

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package canon

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gramnorm.canon'.
func tracer() tracing.Trace {
	return tracing.Select("gramnorm.canon")
}
