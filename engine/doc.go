/*
Package engine provides a reference parser engine for canonical grammars.

The engine is a backtracking recursive-descent parser interpreting the shapes
of a canonical grammar directly. It is not meant to compete with table-driven
LR/GLR engines; its purpose is to check the visibility decisions of the
normalizer end-to-end: which rules produce nodes, which are spliced into
their parent, how aliases rename or wrap nodes, and where extras show up.

    p, err := engine.New(cg)
    if err != nil {
        // a terminal could not be compiled
    }
    tree, err := p.Parse(ctx, []byte("1 2 #x\n3"))
    fmt.Println(tree) // (program (number) (number) (comment) (number))

Alternatives are tried in order, repetitions are greedy, and the engine
backtracks until the entry rule covers the complete input. Extras are
skipped before every token; a grammar without extras skips white space.
Left recursion is curtailed, external tokens never match.

Terminals are matched by Go regular expressions by default. Package lexmach
provides DFA-based matchers built with lexmachine.

Configuration

Package engine reads the following key from the global configuration
(package gconf), if set:

    engine-max-steps     budget of matching steps per parse (default 1,000,000)

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package engine

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gramnorm.engine'.
func tracer() tracing.Trace {
	return tracing.Select("gramnorm.engine")
}
