package cst

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/npillmayer/gramnorm"
)

// Node is a node of a concrete syntax tree.
type Node struct {
	Type     string
	Named    bool
	Field    string        // field name of the node within its parent, if any
	Span     gramnorm.Span // byte positions covered
	Start    gramnorm.Point
	End      gramnorm.Point
	Children []*Node
}

// NamedChildren returns the children of n which are named nodes.
func (n *Node) NamedChildren() []*Node {
	var named []*Node
	for _, c := range n.Children {
		if c.Named {
			named = append(named, c)
		}
	}
	return named
}

// ChildrenOfType returns the children of n with a given type.
func (n *Node) ChildrenOfType(typ string) []*Node {
	var children []*Node
	for _, c := range n.Children {
		if c.Type == typ {
			children = append(children, c)
		}
	}
	return children
}

// ChildByField returns the first child of n labeled with field name.
func (n *Node) ChildByField(name string) *Node {
	for _, c := range n.Children {
		if c.Field == name {
			return c
		}
	}
	return nil
}

// Text returns the portion of the input covered by n.
func (n *Node) Text(input []byte) string {
	if n.Span.To() > uint64(len(input)) {
		return ""
	}
	return string(input[n.Span.From():n.Span.To()])
}

// String renders the tree in S-expression form, showing named nodes only,
// as tree-sitter does.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	var b strings.Builder
	n.sexpr(&b)
	return b.String()
}

func (n *Node) sexpr(b *strings.Builder) {
	b.WriteString("(" + n.Type)
	for _, c := range n.Children {
		if !c.Named {
			continue
		}
		b.WriteString(" ")
		if c.Field != "" {
			b.WriteString(c.Field + ": ")
		}
		c.sexpr(b)
	}
	b.WriteString(")")
}

// Walk visits the nodes of a tree in depth-first order. If visit returns
// false for a node, its children are skipped.
func Walk(root *Node, visit func(n *Node, depth int) bool) {
	if root == nil {
		return
	}
	type entry struct {
		node  *Node
		depth int
	}
	stack := arraystack.New()
	stack.Push(entry{root, 0})
	for !stack.Empty() {
		v, _ := stack.Pop()
		e := v.(entry)
		if !visit(e.node, e.depth) {
			continue
		}
		for i := len(e.node.Children) - 1; i >= 0; i-- {
			stack.Push(entry{e.node.Children[i], e.depth + 1})
		}
	}
}

// Count returns the number of nodes of type typ in a tree. If typ is empty,
// all nodes are counted.
func Count(root *Node, typ string) int {
	count := 0
	Walk(root, func(n *Node, _ int) bool {
		if typ == "" || n.Type == typ {
			count++
		}
		return true
	})
	return count
}

// --- JSON -------------------------------------------------------------

type jsonNode struct {
	Type          string         `json:"type"`
	StartPosition gramnorm.Point `json:"startPosition"`
	EndPosition   gramnorm.Point `json:"endPosition"`
	Children      []*Node        `json:"children"`
}

// MarshalJSON encodes a node restricted to the fields of the dumper format.
// Whether a node is named is not part of the format.
func (n *Node) MarshalJSON() ([]byte, error) {
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(jsonNode{
		Type:          n.Type,
		StartPosition: n.Start,
		EndPosition:   n.End,
		Children:      children,
	})
}

// UnmarshalJSON decodes a node from the dumper format. As the format does not
// tell named from anonymous nodes, nodes are considered named if their type
// looks like an identifier.
func (n *Node) UnmarshalJSON(data []byte) error {
	var j jsonNode
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*n = Node{
		Type:     j.Type,
		Named:    looksNamed(j.Type),
		Start:    j.StartPosition,
		End:      j.EndPosition,
		Children: j.Children,
	}
	if len(n.Children) == 0 {
		n.Children = nil
	}
	return nil
}

func looksNamed(typ string) bool {
	if typ == "" {
		return false
	}
	for i, r := range typ {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Dump renders a tree as indented JSON in the dumper format.
func Dump(root *Node) (string, error) {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		tracer().Errorf("cannot dump tree: %v", err)
		return "", err
	}
	return string(data), nil
}

// FromJSON decodes a tree in the dumper format. The format does not record
// whether a node is named, so Named is guessed from the spelling of the type:
// an anonymous alias like "xs" comes back as a named node. Dump followed by
// FromJSON yields a tree Equal to the original, but Named may differ.
func FromJSON(data []byte) (*Node, error) {
	root := &Node{}
	if err := json.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("cannot decode syntax tree: %w", err)
	}
	return root, nil
}

// Equal compares two trees in terms of the dumper format, i.e. by type,
// positions and children.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Start != b.Start || a.End != b.End || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
