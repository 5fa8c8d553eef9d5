/*
Package grammar defines the grammar IR consumed by the normalizer.

Building a Grammar

Grammars are composed of rule expressions, written with combinators in the
style of tree-sitter grammar descriptions. Clients add rules to a grammar
builder; the first rule is the entry rule.

Example:

    b := grammar.NewBuilder("G")
    b.Rule("program", Repeat0(Sym("number")))
    b.Rule("number", Pat(`[0-9]+`))
    b.Rule("comment", Pat(`#.*`))
    b.Extras(Sym("comment"), Pat(`\s`))
    g, err := b.Grammar()

Grammars are immutable after construction. Passes of the normalizer never
change a grammar or any of its rule expressions, but derive new structures.

Extending a Grammar

An existing grammar may serve as the base for an extension. Extensions
override rules by transforming the previous rule definition, or add new
rules:

    ext := grammar.Extension{
        Name: "G-ext",
        Patches: []grammar.Patch{
            {Name: "ellipsis", Transform: grammar.Define(Str("..."))},
            {Name: "_expression", Transform: grammar.Variants(
                func(r *grammar.Resolver, previous []grammar.Expr) []grammar.Expr {
                    return append(previous, r.Sym("ellipsis"))
                })},
        },
    }
    g2, err := grammar.Extend(g, ext)

Grammars may as well be decoded from tree-sitter's grammar.json files,
see FromJSON.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package grammar

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gramnorm.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("gramnorm.grammar")
}
