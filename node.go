package parsley

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

type NodeKind int

const (
	RuleNode NodeKind = iota
	TerminalNode
)

func (k NodeKind) String() string {
	switch k {
	case RuleNode:
		return "rule"
	case TerminalNode:
		return "terminal"
	default:
		return "unknown"
	}
}

// Node is an element of the parse tree.  Rule nodes carry the rule
// name; terminal nodes carry the terminal written in the grammar
// syntax (`"+"`, `@digits`).  Nodes aren't modified once the matcher
// returns them.
type Node struct {
	Kind     NodeKind
	Name     string
	Start    int
	End      int
	Children []*Node
}

func newRuleNode(name string, start, end int, children []*Node) *Node {
	return &Node{Kind: RuleNode, Name: name, Start: start, End: end, Children: children}
}

func newTerminalNode(name string, start, end int) *Node {
	return &Node{Kind: TerminalNode, Name: name, Start: start, End: end}
}

func (n *Node) Range() Range { return NewRange(n.Start, n.End) }

func (n *Node) clone() *Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone()
		}
	}
	return &c
}

// IsEmpty is true for nodes that consumed nothing and hold nothing
func (n *Node) IsEmpty() bool { return n.Start == n.End && len(n.Children) == 0 }

// Text returns the input covered by the node
func (n *Node) Text(input Input) string { return input.Slice(n.Start, n.End) }

// Equal compares the shape of two trees: kind, name, span and,
// recursively, children
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind || n.Name != other.Name || n.Start != other.Start || n.End != other.End {
		return false
	}
	return nodesEqual(n.Children, other.Children)
}

func nodesEqual(a, b []*Node) bool {
	return slices.EqualFunc(a, b, func(x, y *Node) bool { return x.Equal(y) })
}

// Visit calls `fn` on the node and its descendants, depth first.
// Children are skipped when `fn` returns false.
func (n *Node) Visit(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Visit(fn)
	}
}

// Depth returns the number of rule nodes in the longest path from
// this node down to a leaf, counting itself
func (n *Node) Depth() int {
	depth := 0
	for _, child := range n.Children {
		depth = max(depth, child.Depth())
	}
	if n.Kind == RuleNode {
		depth++
	}
	return depth
}

func (n *Node) String() string {
	if n.Kind == TerminalNode {
		return fmt.Sprintf("%s @ %s", n.Name, n.Range())
	}
	return nodesString(n.Name, n.Range(), n.Children)
}

// Pretty renders the tree with box drawing glyphs.  The text matched
// by terminals and leaf rules is taken from `input`.
func (n *Node) Pretty(input Input) string {
	var s strings.Builder
	n.pretty(&s, input, "")
	return s.String()
}

func (n *Node) pretty(s *strings.Builder, input Input, prefix string) {
	s.WriteString(n.label(input))
	for i, child := range n.Children {
		branch, pad := "├── ", "│   "
		if i == len(n.Children)-1 {
			branch, pad = "└── ", "    "
		}
		s.WriteString("\n" + prefix + branch)
		child.pretty(s, input, prefix+pad)
	}
}

func (n *Node) label(input Input) string {
	if n.Kind == TerminalNode || (len(n.Children) == 0 && !n.Range().Empty()) {
		return fmt.Sprintf("%s %s (%s)", n.Name, strconv.Quote(n.Text(input)), n.Range())
	}
	return fmt.Sprintf("%s (%s)", n.Name, n.Range())
}

func nodesString(name string, r Range, items []*Node) string {
	s := name + "("
	for i, child := range items {
		if i > 0 {
			s += ", "
		}
		s += child.String()
	}
	return s + ") @ " + r.String()
}
