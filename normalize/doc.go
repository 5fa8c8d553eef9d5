/*
Package normalize turns a grammar into a canonical typed grammar.

Normalization is a pipeline of passes, each of which consumes immutable
input and produces a new structure:

    grammar.Grammar
        → expand          canonical combinator form, inline rules substituted
        → names           identifiers for anonymous literals and patterns
        → visibility      which rules and occurrences produce tree nodes
        → extras          named and unnamed extras
        → recursion       SCCs of the reference graph, self-references
        → conflicts       validated conflict groups, backtracking hints
        → canon.Grammar

Normalize runs the pipeline for a single grammar. NormalizeAll runs it for a
batch of grammars on a bounded pool of workers; a failing grammar does not
affect the others.

    cg, err := normalize.Normalize(g)
    if err != nil {
        // err is a *grammar.Error; use errors.Is(err, grammar.ErrIllegalRecursion) etc.
    }
    fmt.Println(cg)

Errors are fatal for the grammar concerned, no partial results are
returned. Name collisions are not errors, they are resolved and reported
as diagnostics of the resulting canonical grammar.

Configuration

Package normalize reads the following keys from the global configuration
(package gconf), if set:

    normalize-workers      size of the worker pool of NormalizeAll
    pattern-hash-length    number of hex digits of disambiguating hashes

Options passed to Normalize or NormalizeAll take precedence.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package normalize

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gramnorm.normalize'.
func tracer() tracing.Trace {
	return tracing.Select("gramnorm.normalize")
}
