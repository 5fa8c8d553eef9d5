package normalize

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/npillmayer/gramnorm/grammar"
	"golang.org/x/exp/slices"
)

// refEdge is a reference from one rule to another. A reference is mandatory
// if it is not guarded by a branch point, i.e. not below a choice, an
// optional or a repetition which may match zero times.
type refEdge struct {
	to        string
	mandatory bool
}

// recursion is the result of the recursive type resolver.
type recursion struct {
	component map[string]int // rule → strongly connected component
	cyclic    map[int]bool   // components containing a cycle
}

// closesCycle is true if a reference from rule `from` to rule `to` is part of
// a reference cycle.
func (rec *recursion) closesCycle(from, to string) bool {
	c1, ok1 := rec.component[from]
	c2, ok2 := rec.component[to]
	return ok1 && ok2 && c1 == c2 && rec.cyclic[c1]
}

// resolveRecursion finds the strongly connected components of the reference
// graph of an expansion. It fails if a reference cycle consists of mandatory
// references only, as such a rule has no finite derivation.
func resolveRecursion(x *expansion) (*recursion, error) {
	graph := make(map[string][]refEdge, len(x.rules))
	order := make([]string, len(x.rules))
	for i, r := range x.rules {
		order[i] = r.Name
		graph[r.Name] = refEdges(r.Body, x)
	}
	rec := &recursion{cyclic: make(map[int]bool)}
	var components [][]string
	rec.component, components = tarjan(order, graph, func(refEdge) bool { return true })
	for i, comp := range components {
		rec.cyclic[i] = isCyclic(comp, graph)
	}
	// look for cycles of mandatory references
	_, mandatory := tarjan(order, graph, func(e refEdge) bool { return e.mandatory })
	for _, comp := range mandatory {
		if isCyclic(comp, graph, func(e refEdge) bool { return e.mandatory }) {
			return nil, grammar.Errorf(grammar.IllegalRecursion, x.g.Name, comp[0],
				"reference cycle without base case").WithNames(comp...)
		}
	}
	tracer().Debugf("%d components in reference graph of %s", len(components), x.g.Name)
	return rec, nil
}

// refEdges lists the references of a rule body to other rules, in order of
// appearance. References to external tokens are ignored.
func refEdges(e grammar.Expr, x *expansion) []refEdge {
	var edges []refEdge
	inx := make(map[string]int)
	var walk func(e grammar.Expr, mandatory bool)
	walk = func(e grammar.Expr, mandatory bool) {
		switch y := e.(type) {
		case *grammar.Ref:
			if !x.declares(y.Name) {
				return
			}
			if i, ok := inx[y.Name]; ok {
				edges[i].mandatory = edges[i].mandatory || mandatory
				return
			}
			inx[y.Name] = len(edges)
			edges = append(edges, refEdge{to: y.Name, mandatory: mandatory})
			return
		case *grammar.Choice:
			if len(y.Members) > 1 {
				mandatory = false
			}
		case *grammar.Optional:
			mandatory = false
		case *grammar.Repeat:
			if y.Min == 0 {
				mandatory = false
			}
		}
		for _, c := range grammar.Children(e) {
			walk(c, mandatory)
		}
	}
	walk(e, true)
	return edges
}

// tarjan computes the strongly connected components of a graph, considering
// only edges accepted by filter. Components are numbered in the order of
// completion, rules inside a component are listed in declaration order.
func tarjan(order []string, graph map[string][]refEdge, filter func(refEdge) bool) (map[string]int, [][]string) {
	position := make(map[string]int, len(order))
	for i, n := range order {
		position[n] = i
	}
	index := make(map[string]int, len(order))
	lowlink := make(map[string]int, len(order))
	onStack := make(map[string]bool, len(order))
	stack := arraystack.New()
	component := make(map[string]int, len(order))
	var components [][]string
	counter := 0
	var connect func(v string)
	connect = func(v string) {
		index[v], lowlink[v] = counter, counter
		counter++
		stack.Push(v)
		onStack[v] = true
		for _, e := range graph[v] {
			if !filter(e) {
				continue
			}
			if _, visited := index[e.to]; !visited {
				connect(e.to)
				lowlink[v] = min(lowlink[v], lowlink[e.to])
			} else if onStack[e.to] {
				lowlink[v] = min(lowlink[v], index[e.to])
			}
		}
		if lowlink[v] == index[v] {
			var comp []string
			for {
				w, _ := stack.Pop()
				name := w.(string)
				onStack[name] = false
				component[name] = len(components)
				comp = append(comp, name)
				if name == v {
					break
				}
			}
			slices.SortFunc(comp, func(a, b string) int { return position[a] - position[b] })
			components = append(components, comp)
		}
	}
	for _, v := range order {
		if _, visited := index[v]; !visited {
			connect(v)
		}
	}
	return component, components
}

// isCyclic is true if a component has more than one member or a member
// references itself.
func isCyclic(comp []string, graph map[string][]refEdge, filter ...func(refEdge) bool) bool {
	if len(comp) > 1 {
		return true
	}
	for _, e := range graph[comp[0]] {
		if e.to == comp[0] && (len(filter) == 0 || filter[0](e)) {
			return true
		}
	}
	return false
}
