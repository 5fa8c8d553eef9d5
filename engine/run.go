package engine

import (
	"context"

	"github.com/npillmayer/gramnorm"
	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/cst"
)

// cell is an element of a persistent list of matched items, linked
// backwards. Backtracking simply drops cells. A cell without a node records
// a token which does not produce a node, for the span of its rule.
type cell struct {
	node  *cst.Node
	span  gramnorm.Span
	extra bool
	prev  *cell
}

func (c *cell) push(node *cst.Node, span gramnorm.Span, extra bool) *cell {
	return &cell{node: node, span: span, extra: extra, prev: c}
}

// since returns the cells pushed after stop, in input order.
func (c *cell) since(stop *cell) []*cell {
	var cells []*cell
	for ; c != stop && c != nil; c = c.prev {
		cells = append(cells, c)
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

// cont is a continuation, receiving the position after a match and the
// cells matched so far. It returns true if the complete parse succeeded.
type cont func(pos int, acc *cell) bool

type activation struct {
	rule string
	pos  int
}

type skip struct {
	pos   int
	cells []*cell
}

// run holds the state of a single parse.
type run struct {
	*Engine
	ctx      context.Context
	input    []byte
	lines    gramnorm.LineIndex
	active   map[activation]int // nesting of rule calls without progress
	skips    map[int]skip       // extras skipped at a position
	inExtra  bool
	steps    int
	farthest int
	err      error
}

func (r *run) parse() *cst.Node {
	entry := r.g.Entry()
	var root *cst.Node
	r.match(entry.Shape, 0, nil, func(pos int, acc *cell) bool {
		end, trailing := r.skipExtras(pos)
		if end != len(r.input) {
			if end > r.farthest {
				r.farthest = end
			}
			return false
		}
		for _, c := range trailing {
			acc = acc.push(c.node, c.span, true)
		}
		cells := acc.since(nil)
		root = r.makeNode(entry.Name, true, cells, 0)
		return true
	})
	return root
}

// step counts matching steps and checks for cancellation.
func (r *run) step() bool {
	if r.err != nil {
		return false
	}
	r.steps++
	if r.steps > r.maxSteps {
		r.err = ErrBudgetExhausted
		return false
	}
	if r.steps%1024 == 0 {
		if err := r.ctx.Err(); err != nil {
			r.err = err
			return false
		}
	}
	return true
}

func (r *run) match(s canon.Shape, pos int, acc *cell, k cont) bool {
	if !r.step() {
		return false
	}
	switch x := s.(type) {
	case *canon.Terminal:
		return r.terminal(x, pos, acc, k)
	case *canon.Blank:
		return k(pos, acc)
	case *canon.Symbol:
		return r.call(x.Name, pos, acc, k)
	case *canon.SelfRef:
		return r.call(x.Name, pos, acc, k)
	case *canon.Prec:
		return r.match(x.Elem, pos, acc, k)
	case *canon.Sum:
		for _, v := range x.Variants {
			if r.match(v, pos, acc, k) {
				return true
			}
			if r.err != nil {
				return false
			}
		}
		return false
	case *canon.Sequence:
		return r.sequence(x.Elems, nil, pos, acc, k)
	case *canon.Product:
		elems := make([]canon.Shape, len(x.Fields))
		fields := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			elems[i], fields[i] = f.Shape, f.Name
		}
		return r.sequence(elems, fields, pos, acc, k)
	case *canon.Option:
		return r.match(x.Elem, pos, acc, k) || (r.err == nil && k(pos, acc))
	case *canon.Repeated:
		return r.repeat(x, 0, pos, acc, k)
	case *canon.Alias:
		return r.alias(x, pos, acc, k)
	}
	return false
}

func (r *run) sequence(elems []canon.Shape, fields []string, pos int, acc *cell, k cont) bool {
	if len(elems) == 0 {
		return k(pos, acc)
	}
	next := func(p int, a *cell) bool {
		if fields != nil && fields[0] != "" {
			label(a.since(acc), fields[0])
		}
		var rest []string
		if fields != nil {
			rest = fields[1:]
		}
		return r.sequence(elems[1:], rest, p, a, k)
	}
	return r.match(elems[0], pos, acc, next)
}

func label(cells []*cell, field string) {
	for _, c := range cells {
		if c.node != nil && !c.extra {
			c.node.Field = field
		}
	}
}

// repeat matches greedily, then backtracks to fewer repetitions.
func (r *run) repeat(x *canon.Repeated, count int, pos int, acc *cell, k cont) bool {
	more := r.match(x.Elem, pos, acc, func(p int, a *cell) bool {
		if p == pos { // no progress
			return count+1 >= x.Min && k(p, a)
		}
		return r.repeat(x, count+1, p, a, k)
	})
	if more || r.err != nil {
		return more
	}
	return count >= x.Min && k(pos, acc)
}

func (r *run) terminal(t *canon.Terminal, pos int, acc *cell, k cont) bool {
	p := pos
	if !t.Immediate {
		var extras []*cell
		p, extras = r.skipExtras(pos)
		for _, c := range extras {
			acc = acc.push(c.node, c.span, true)
		}
	}
	if p > r.farthest {
		r.farthest = p
	}
	l := r.matchers[t].Match(r.input, p)
	if l <= 0 {
		return false
	}
	if r.keywords[t] && r.word.Match(r.input, p) > l {
		return false // prefix of a longer word
	}
	span := gramnorm.Span{uint64(p), uint64(p + l)}
	var node *cst.Node
	if t.Node {
		node = r.leaf(t.NodeType, false, span)
	}
	return k(p+l, acc.push(node, span, false))
}

// skipExtras skips extras greedily. Named extras are returned as cells.
// Extras are not skipped within extras.
func (r *run) skipExtras(pos int) (int, []*cell) {
	if r.inExtra {
		return pos, nil
	}
	if s, ok := r.skips[pos]; ok {
		return s.pos, s.cells
	}
	start := pos
	var cells []*cell
	r.inExtra = true
	for progress := true; progress && pos < len(r.input); {
		progress = false
		for _, x := range r.extras {
			end, matched := pos, (*cell)(nil)
			ok := r.match(x.Shape, pos, nil, func(p int, a *cell) bool {
				end, matched = p, a
				return p > pos
			})
			if !ok {
				continue
			}
			if x.Named {
				for _, c := range matched.since(nil) {
					if c.node != nil {
						cells = append(cells, c)
					}
				}
			}
			pos, progress = end, true
			break
		}
	}
	r.inExtra = false
	r.skips[start] = skip{pos: pos, cells: cells}
	return pos, cells
}

// call matches a rule. Visible rules wrap their cells into a node, hidden
// and inlined rules are spliced into the caller.
func (r *run) call(name string, pos int, acc *cell, k cont) bool {
	rule, ok := r.g.Rule(name)
	if !ok {
		return false // external token
	}
	a := activation{rule: name, pos: pos}
	if r.active[a] > len(r.input)-pos+1 {
		return false // curtail left recursion
	}
	r.active[a]++
	defer func() { r.active[a]-- }()
	return r.match(rule.Shape, pos, nil, func(p int, inner *cell) bool {
		r.active[a]--
		defer func() { r.active[a]++ }()
		cells, out := inner.since(nil), acc
		if rule.Visibility != canon.Visible {
			for _, c := range cells {
				out = out.push(c.node, c.span, c.extra)
			}
			return k(p, out)
		}
		out, cells = hoistExtras(out, cells)
		node := r.makeNode(name, true, cells, p)
		return k(p, out.push(node, node.Span, false))
	})
}

// alias renames the node produced by a visible rule or a literal. Otherwise
// a node is created, wrapping the matched cells.
func (r *run) alias(x *canon.Alias, pos int, acc *cell, k cont) bool {
	rename := false
	switch e := stripPrec(x.Elem).(type) {
	case *canon.Symbol:
		rename = r.visible(e.Name)
	case *canon.SelfRef:
		rename = r.visible(e.Name)
	case *canon.Terminal:
		rename = e.Node
	}
	return r.match(x.Elem, pos, nil, func(p int, inner *cell) bool {
		cells, out := inner.since(nil), acc
		if rename {
			for _, c := range cells {
				node := c.node
				if node != nil && !c.extra {
					renamed := *node
					renamed.Type, renamed.Named = x.Target, x.Named
					node = &renamed
				}
				out = out.push(node, c.span, c.extra)
			}
			return k(p, out)
		}
		out, cells = hoistExtras(out, cells)
		node := r.makeNode(x.Target, x.Named, cells, p)
		return k(p, out.push(node, node.Span, false))
	})
}

// hoistExtras moves extras preceding the first token of a node to the
// enclosing list.
func hoistExtras(acc *cell, cells []*cell) (*cell, []*cell) {
	lead := 0
	for lead < len(cells) && cells[lead].extra {
		acc = acc.push(cells[lead].node, cells[lead].span, true)
		lead++
	}
	return acc, cells[lead:]
}

func (r *run) visible(name string) bool {
	rule, ok := r.g.Rule(name)
	return ok && rule.Visibility == canon.Visible
}

// makeNode creates a node from matched cells. A node without cells is
// empty and located at pos.
func (r *run) makeNode(typ string, named bool, cells []*cell, pos int) *cst.Node {
	span := gramnorm.Span{uint64(pos), uint64(pos)}
	if len(cells) > 0 {
		span = gramnorm.Span{cells[0].span.From(), cells[len(cells)-1].span.To()}
	}
	node := r.leaf(typ, named, span)
	for _, c := range cells {
		if c.node != nil {
			node.Children = append(node.Children, c.node)
		}
	}
	return node
}

func (r *run) leaf(typ string, named bool, span gramnorm.Span) *cst.Node {
	return &cst.Node{
		Type:  typ,
		Named: named,
		Span:  span,
		Start: r.lines.Point(int(span.From())),
		End:   r.lines.Point(int(span.To())),
	}
}
