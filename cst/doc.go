/*
Package cst defines the concrete syntax tree contract between parser engines
and the typed bindings derived from a canonical grammar.

A parser engine produces a tree of nodes. Named nodes stem from visible rules,
named aliases and named extras; anonymous nodes stem from literals. Hidden
rules, inlined rules and unnamed extras never show up in a tree, their
children are spliced into the parent node.

Trees may be dumped as JSON, restricted to the fields

    type, startPosition, endPosition, row, column, children

which is the format test fixtures are recorded in.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package cst

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gramnorm.cst'.
func tracer() tracing.Trace {
	return tracing.Select("gramnorm.cst")
}
