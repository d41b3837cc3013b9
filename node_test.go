package parsley

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTree() *Node {
	return newRuleNode("Sum", 0, 3, []*Node{
		newRuleNode("Num", 0, 1, nil),
		newTerminalNode(`"+"`, 1, 2),
		newRuleNode("Num", 2, 3, nil),
	})
}

func TestNode(t *testing.T) {
	input := NewText("1+2")
	tree := testTree()

	t.Run("text", func(t *testing.T) {
		assert.Equal(t, "1+2", tree.Text(input))
		assert.Equal(t, "+", tree.Children[1].Text(input))
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, `Sum(Num() @ 0..1, "+" @ 1..2, Num() @ 2..3) @ 0..3`, tree.String())
	})

	t.Run("pretty", func(t *testing.T) {
		assert.Equal(t, `Sum (0..3)
├── Num "1" (0..1)
├── "+" "+" (1..2)
└── Num "2" (2..3)`, tree.Pretty(input))
	})

	t.Run("equal compares shape", func(t *testing.T) {
		assert.True(t, tree.Equal(testTree()))

		other := testTree()
		other.Children[2].Name = "Var"
		assert.False(t, tree.Equal(other))

		other = testTree()
		other.Children = other.Children[:2]
		assert.False(t, tree.Equal(other))

		var nilNode *Node
		assert.False(t, tree.Equal(nil))
		assert.True(t, nilNode.Equal(nil))
	})

	t.Run("clone copies the whole subtree", func(t *testing.T) {
		c := tree.clone()
		assert.True(t, tree.Equal(c))
		assert.NotSame(t, tree, c)
		assert.NotSame(t, tree.Children[0], c.Children[0])
	})

	t.Run("visit", func(t *testing.T) {
		var names []string
		tree.Visit(func(n *Node) bool {
			names = append(names, n.Name)
			return true
		})
		assert.Equal(t, []string{"Sum", "Num", `"+"`, "Num"}, names)

		count := 0
		tree.Visit(func(n *Node) bool {
			count++
			return false
		})
		assert.Equal(t, 1, count)
	})

	t.Run("depth counts rule nodes", func(t *testing.T) {
		assert.Equal(t, 2, tree.Depth())
		assert.Equal(t, 0, tree.Children[1].Depth())
	})

	t.Run("ranges", func(t *testing.T) {
		assert.Equal(t, "0..3", tree.Range().String())
		assert.True(t, NewRange(4, 4).Empty())
		assert.Equal(t, "4", NewRange(4, 4).String())
		assert.False(t, tree.IsEmpty())
		assert.True(t, newRuleNode("Empty", 1, 1, nil).IsEmpty())
	})
}
