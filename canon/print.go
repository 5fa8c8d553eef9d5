package canon

import (
	"github.com/pterm/pterm"
)

// PrintTree renders the rules of g as a tree on the terminal, one subtree
// per rule. It is intended for interactive debugging.
func (g *Grammar) PrintTree() {
	pterm.Println(g.Name)
	root := pterm.NewTreeFromLeveledList(g.leveledList())
	pterm.DefaultTree.WithRoot(root).Render()
}

func (g *Grammar) leveledList() pterm.LeveledList {
	ll := pterm.LeveledList{}
	for _, r := range g.Rules {
		text := r.Name
		if r.Visibility != Visible {
			text += " (" + r.Visibility.String() + ")"
		}
		ll = append(ll, pterm.LeveledListItem{Level: 0, Text: text})
		ll = leveledShape(r.Shape, ll, 1)
	}
	return ll
}

func leveledShape(s Shape, ll pterm.LeveledList, level int) pterm.LeveledList {
	if s == nil {
		return ll
	}
	switch x := s.(type) {
	case *Terminal, *Symbol, *SelfRef, *Blank:
		return append(ll, pterm.LeveledListItem{Level: level, Text: s.Kind().String() + " " + s.String()})
	case *Product:
		ll = append(ll, pterm.LeveledListItem{Level: level, Text: "product"})
		for _, f := range x.Fields {
			if f.Name != "" {
				ll = append(ll, pterm.LeveledListItem{Level: level + 1, Text: f.Name + ":"})
				ll = leveledShape(f.Shape, ll, level+2)
			} else {
				ll = leveledShape(f.Shape, ll, level+1)
			}
		}
		return ll
	case *Alias:
		ll = append(ll, pterm.LeveledListItem{Level: level, Text: "alias " + x.Target})
	case *Repeated:
		if x.Min > 0 {
			ll = append(ll, pterm.LeveledListItem{Level: level, Text: "repeated +"})
		} else {
			ll = append(ll, pterm.LeveledListItem{Level: level, Text: "repeated *"})
		}
	case *Prec:
		ll = append(ll, pterm.LeveledListItem{Level: level, Text: x.Assoc.String()})
	default:
		ll = append(ll, pterm.LeveledListItem{Level: level, Text: s.Kind().String()})
	}
	for _, e := range s.Elements() {
		ll = leveledShape(e, ll, level+1)
	}
	return ll
}
