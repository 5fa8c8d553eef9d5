package normalize

import (
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/gramnorm/canon"
)

// firstSets holds nullability and FIRST sets of the rules of a canonical
// grammar. Lexical items are identified by the name of the rule they form the
// body of, or by their textual form if anonymous.
type firstSets struct {
	g        *canon.Grammar
	nullable map[string]bool
	first    map[string]*treeset.Set
}

// computeFirstSets iterates to a fixed point over all rules.
func computeFirstSets(g *canon.Grammar) *firstSets {
	fs := &firstSets{
		g:        g,
		nullable: make(map[string]bool, len(g.Rules)),
		first:    make(map[string]*treeset.Set, len(g.Rules)),
	}
	for _, r := range g.Rules {
		fs.first[r.Name] = treeset.NewWithStringComparator()
	}
	for changed := true; changed; {
		changed = false
		for _, r := range g.Rules {
			var f *treeset.Set
			var n bool
			if lexical(r.Shape) {
				f, n = treeset.NewWithStringComparator(r.Name), false
			} else {
				f, n = fs.of(r.Shape)
			}
			if n && !fs.nullable[r.Name] {
				fs.nullable[r.Name] = true
				changed = true
			}
			before := fs.first[r.Name].Size()
			fs.first[r.Name].Add(f.Values()...)
			if fs.first[r.Name].Size() != before {
				changed = true
			}
		}
	}
	return fs
}

// lexical is true if a shape is a terminal, possibly annotated with
// precedences.
func lexical(s canon.Shape) bool {
	for {
		switch x := s.(type) {
		case *canon.Prec:
			s = x.Elem
			continue
		case *canon.Terminal:
			return true
		}
		return false
	}
}

// of computes FIRST set and nullability of a shape, using the current
// approximation for rules.
func (fs *firstSets) of(s canon.Shape) (*treeset.Set, bool) {
	switch x := s.(type) {
	case *canon.Terminal:
		return treeset.NewWithStringComparator(x.String()), false
	case *canon.Blank:
		return treeset.NewWithStringComparator(), true
	case *canon.Symbol:
		return fs.rule(x.Name)
	case *canon.SelfRef:
		return fs.rule(x.Name)
	case *canon.Option:
		f, _ := fs.of(x.Elem)
		return f, true
	case *canon.Repeated:
		f, n := fs.of(x.Elem)
		return f, n || x.Min == 0
	case *canon.Alias:
		return fs.of(x.Elem)
	case *canon.Prec:
		return fs.of(x.Elem)
	case *canon.Sum:
		set, nullable := treeset.NewWithStringComparator(), false
		for _, v := range x.Variants {
			f, n := fs.of(v)
			set.Add(f.Values()...)
			nullable = nullable || n
		}
		return set, nullable
	}
	return fs.sequence(s.Elements())
}

func (fs *firstSets) sequence(elems []canon.Shape) (*treeset.Set, bool) {
	set := treeset.NewWithStringComparator()
	for _, e := range elems {
		f, n := fs.of(e)
		set.Add(f.Values()...)
		if !n {
			return set, false
		}
	}
	return set, true
}

func (fs *firstSets) rule(name string) (*treeset.Set, bool) {
	f, ok := fs.first[name]
	if !ok { // external token
		return treeset.NewWithStringComparator(name), false
	}
	c := treeset.NewWithStringComparator()
	c.Add(f.Values()...)
	return c, fs.nullable[name]
}

// adviseBacktracking finds places where a parser has to look ahead or
// backtrack: choices with alternatives starting with the same token, and
// optional or repeated elements followed by elements which may start with
// the same token. Hints are advisory only.
func adviseBacktracking(g *canon.Grammar) []canon.BacktrackHint {
	fs := computeFirstSets(g)
	var hints []canon.BacktrackHint
	seen := make(map[string]bool)
	add := func(rule, where string, overlap *treeset.Set) {
		key := rule + "|" + where
		if overlap.Empty() || seen[key] {
			return
		}
		seen[key] = true
		h := canon.BacktrackHint{Rule: rule, Where: where}
		for _, v := range overlap.Values() {
			h.Overlap = append(h.Overlap, v.(string))
		}
		tracer().Debugf("backtracking hint: %s", h)
		hints = append(hints, h)
	}
	for _, r := range g.Rules {
		canon.Walk(r.Shape, func(s canon.Shape) bool {
			switch x := s.(type) {
			case *canon.Sum:
				overlap := treeset.NewWithStringComparator()
				for i := 0; i < len(x.Variants); i++ {
					fi, _ := fs.of(x.Variants[i])
					for j := i + 1; j < len(x.Variants); j++ {
						fj, _ := fs.of(x.Variants[j])
						overlap.Add(intersect(fi, fj).Values()...)
					}
				}
				add(r.Name, x.String(), overlap)
			case *canon.Sequence, *canon.Product:
				elems := s.Elements()
				for i, e := range elems[:max(len(elems)-1, 0)] {
					if !mayAbsorb(e, fs) {
						continue
					}
					fe, _ := fs.of(e)
					rest, _ := fs.sequence(elems[i+1:])
					add(r.Name, strings.TrimSpace(e.String()+" before "+elemList(elems[i+1:])), intersect(fe, rest))
				}
			}
			return true
		})
	}
	return hints
}

// mayAbsorb is true for shapes which may match a varying number of tokens
// at their end, thus competing with their successors.
func mayAbsorb(s canon.Shape, fs *firstSets) bool {
	switch x := s.(type) {
	case *canon.Option, *canon.Repeated:
		return true
	case *canon.Prec:
		return mayAbsorb(x.Elem, fs)
	}
	_, n := fs.of(s)
	return n
}

func intersect(a, b *treeset.Set) *treeset.Set {
	r := treeset.NewWithStringComparator()
	for _, v := range a.Values() {
		if b.Contains(v) {
			r.Add(v)
		}
	}
	return r
}

func elemList(elems []canon.Shape) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
