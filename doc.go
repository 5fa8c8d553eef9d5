/*
Package gramnorm normalizes combinator-based grammars into a canonical,
typed representation.

GramNorm takes grammars written in the style of tree-sitter grammar
descriptions (sequences, choices, repetitions, tokens, aliases, fields) and
infers which rules and sub-expressions will show up as nodes of a concrete
syntax tree, which anonymous patterns need names, and how recursive rules
have to be represented to keep a typed binding finite. Package structure is
as follows:

■ grammar: Package grammar holds the grammar IR, a builder, grammar
extensions and a decoder for tree-sitter's grammar.json.

■ normalize: Package normalize implements the normalization pipeline,
producing a canonical typed grammar.

■ canon: Package canon defines the canonical typed grammar handed to binding
generators.

■ cst and engine: Package cst defines the concrete syntax tree contract of
parser engines; package engine provides a small reference engine to check
visibility decisions end-to-end.

The base package contains data types which are used throughout all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package gramnorm
