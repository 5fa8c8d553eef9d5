package cst

import (
	"testing"

	"github.com/alecthomas/repr"
	"github.com/npillmayer/gramnorm"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(typ string, named bool, row, from, to int) *Node {
	return &Node{
		Type:  typ,
		Named: named,
		Span:  gramnorm.Span{uint64(from), uint64(to)},
		Start: gramnorm.Point{Row: row, Column: from},
		End:   gramnorm.Point{Row: row, Column: to},
	}
}

// (program (number) (number) (comment) (number)) for "1 2 #x\n3"
func programTree() *Node {
	n3 := leaf("number", true, 1, 0, 1)
	n3.Span = gramnorm.Span{7, 8}
	return &Node{
		Type:  "program",
		Named: true,
		Span:  gramnorm.Span{0, 8},
		Start: gramnorm.Point{Row: 0, Column: 0},
		End:   gramnorm.Point{Row: 1, Column: 1},
		Children: []*Node{
			leaf("number", true, 0, 0, 1),
			leaf("number", true, 0, 2, 3),
			leaf("comment", true, 0, 4, 6),
			n3,
		},
	}
}

func TestSExpression(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.cst")
	defer teardown()
	//
	root := programTree()
	assert.Equal(t, "(program (number) (number) (comment) (number))", root.String())
	root.Children = append(root.Children, leaf(";", false, 1, 1, 2))
	root.Children[0].Field = "first"
	assert.Equal(t, "(program first: (number) (number) (comment) (number))", root.String())
	assert.Len(t, root.NamedChildren(), 4)
	assert.Len(t, root.ChildrenOfType("number"), 3)
	assert.Same(t, root.Children[0], root.ChildByField("first"))
	assert.Nil(t, root.ChildByField("second"))
}

func TestWalkAndCount(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.cst")
	defer teardown()
	//
	root := programTree()
	var order []string
	Walk(root, func(n *Node, depth int) bool {
		order = append(order, n.Type)
		return depth == 0
	})
	assert.Equal(t, []string{"program", "number", "number", "comment", "number"}, order)
	assert.Equal(t, 3, Count(root, "number"))
	assert.Equal(t, 1, Count(root, "comment"))
	assert.Equal(t, 5, Count(root, ""))
	assert.Equal(t, "#x", root.Children[2].Text([]byte("1 2 #x\n3")))
	assert.Equal(t, "3", root.Children[3].Text([]byte("1 2 #x\n3")))
}

func TestDumpFormat(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.cst")
	defer teardown()
	//
	n := leaf("number", true, 0, 0, 1)
	n.Field = "value"
	data, err := n.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"number","startPosition":{"row":0,"column":0},`+
		`"endPosition":{"row":0,"column":1},"children":[]}`, string(data))
	//
	root := programTree()
	dump, err := Dump(root)
	require.NoError(t, err)
	t.Logf("\n%s", dump)
	back, err := FromJSON([]byte(dump))
	require.NoError(t, err)
	assert.True(t, Equal(root, back), "trees differ: %s", repr.String(back))
	assert.True(t, back.Named)
	assert.Equal(t, root.String(), back.String())
	//
	_, err = FromJSON([]byte(`{"type": 1}`))
	assert.Error(t, err)
}

func TestLooksNamed(t *testing.T) {
	assert.True(t, looksNamed("number"))
	assert.True(t, looksNamed("_hidden_number"))
	assert.True(t, looksNamed("num_2"))
	assert.False(t, looksNamed("2num"))
	assert.False(t, looksNamed(";"))
	assert.False(t, looksNamed(""))
}

func TestNamedIsGuessedOnDecode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gramnorm.cst")
	defer teardown()
	//
	root := &Node{
		Type:     "program",
		Named:    true,
		Span:     gramnorm.Span{0, 2},
		End:      gramnorm.Point{Row: 0, Column: 2},
		Children: []*Node{leaf("xs", false, 0, 0, 2)},
	}
	dump, err := Dump(root)
	require.NoError(t, err)
	back, err := FromJSON([]byte(dump))
	require.NoError(t, err)
	assert.True(t, Equal(root, back))
	assert.False(t, root.Children[0].Named)
	assert.True(t, back.Children[0].Named, "anonymous alias decoded as named")
}
