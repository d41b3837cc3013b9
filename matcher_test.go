package parsley

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherScenarios(t *testing.T) {
	t.Run("Digit run spans the whole input", func(t *testing.T) {
		m := mustMatcher(t, `Digits : @digits ;`, nil)
		node, err := m.Parse(NewText("42"))
		require.NoError(t, err)

		assert.Equal(t, "Digits", node.Name)
		assert.Equal(t, NewRange(0, 2), node.Range())
		assert.Empty(t, node.Children)
	})

	t.Run("Right recursion over text", func(t *testing.T) {
		m := mustMatcher(t, `
			Expr  : Term Expr? ;
			Term  : @digits Space? ;
			Space : @whitespace ;
		`, nil)
		input := NewText("1 2 3")
		node, err := m.Parse(input)
		require.NoError(t, err)

		assert.Equal(t, 3, nestedRules(node, "Expr"))
		assert.Equal(t, `Expr (0..5)
├── Term (0..2)
│   ├── @digits "1" (0..1)
│   └── Space " " (1..2)
└── Expr (2..5)
    ├── Term (2..4)
    │   ├── @digits "2" (2..3)
    │   └── Space " " (3..4)
    └── Expr (4..5)
        └── Term "3" (4..5)`, node.Pretty(input))
	})

	t.Run("Right recursion over tokens", func(t *testing.T) {
		m := mustMatcher(t, `Expr : Term Expr? ; Term : @digits ;`, nil)
		input := NewTokens([]string{"1", "2", "3"})
		node, err := m.Parse(input)
		require.NoError(t, err)

		assert.Equal(t, 3, nestedRules(node, "Expr"))
		assert.Equal(t, `Expr (0..3)
├── Term "1" (0..1)
└── Expr (1..3)
    ├── Term "2" (1..2)
    └── Expr (2..3)
        └── Term "3" (2..3)`, node.Pretty(input))
	})

	t.Run("Deep right recursion with a base case", func(t *testing.T) {
		m := mustMatcher(t, `A : "a" A | "a" ;`, nil)
		input := NewTokens(repeatToken("a", 1000))
		node, err := m.Parse(input)
		require.NoError(t, err)
		assert.Equal(t, 1000, node.End)
		assert.Equal(t, 1000, nestedRules(node, "A"))

		out, err := m.Match("A", input, 0)
		require.NoError(t, err)
		assert.Equal(t, Succeeded, out.State)
		assert.Equal(t, 1000, out.End)
	})

	t.Run("Deep right recursion", func(t *testing.T) {
		m := mustMatcher(t, `A : "a" A? ;`, nil)
		node, err := m.Parse(NewTokens(repeatToken("a", 1000)))
		require.NoError(t, err)
		assert.Equal(t, 1000, node.Depth())
		assert.Equal(t, 1000, node.End)
	})
}

func TestMatcherRecursionLimit(t *testing.T) {
	cfg := NewConfig()
	cfg.SetInt("matcher.max_depth", 50)
	m := mustMatcher(t, `A : "a" A? ;`, cfg)

	// n items take n+1 nested invocations, the last one fails
	t.Run("within the limit", func(t *testing.T) {
		_, err := m.Parse(NewText(strings.Repeat("a", 49)))
		require.NoError(t, err)
	})

	t.Run("beyond the limit", func(t *testing.T) {
		_, err := m.Parse(NewText(strings.Repeat("a", 50)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRecursionLimit))
		assert.Equal(t, "more than 50 nested rules: recursion limit exceeded", err.Error())

		_, err = m.Match("A", NewText(strings.Repeat("a", 50)), 0)
		assert.True(t, errors.Is(err, ErrRecursionLimit))
	})
}

func TestMatcherNeverFailingExpressions(t *testing.T) {
	t.Run("Optional succeeds with zero width", func(t *testing.T) {
		m := mustMatcher(t, `Maybe : "x"? ;`, nil)

		out, err := m.Match("Maybe", NewText("y"), 0)
		require.NoError(t, err)
		assert.Equal(t, Succeeded, out.State)
		assert.Equal(t, 0, out.End)
		assert.Equal(t, NewRange(0, 0), out.Node.Range())
		assert.Empty(t, out.Node.Children)
		assert.NoError(t, out.Err())

		node, err := m.Parse(NewText(""))
		require.NoError(t, err)
		assert.Equal(t, "Maybe", node.Name)
	})

	t.Run("Many terminates on zero width iterations", func(t *testing.T) {
		m := mustMatcher(t, `Loop : Empty* ; Empty : "x"? ;`, nil)
		require.Len(t, m.Warnings(), 1)
		assert.Equal(t, NullableRepetition, m.Warnings()[0].Kind)

		out, err := m.Match("Loop", NewText("xxy"), 0)
		require.NoError(t, err)
		assert.Equal(t, Succeeded, out.State)
		assert.Equal(t, 2, out.End)
		assert.Len(t, out.Node.Children, 2)
	})

	t.Run("Many of an empty literal", func(t *testing.T) {
		m := mustMatcher(t, `Loop : ""* ;`, nil)
		out, err := m.Match("Loop", NewText("abc"), 0)
		require.NoError(t, err)
		assert.Equal(t, Succeeded, out.State)
		assert.Equal(t, 0, out.End)
	})

	t.Run("OneOrMore needs the first iteration", func(t *testing.T) {
		m := mustMatcher(t, `Xs : "x"+ ;`, nil)

		out, err := m.Match("Xs", NewText("xxy"), 0)
		require.NoError(t, err)
		assert.Equal(t, 2, out.End)

		out, err = m.Match("Xs", NewText("y"), 0)
		require.NoError(t, err)
		assert.Equal(t, Failed, out.State)
		assert.Equal(t, []string{`"x"`}, out.Failure.Expected)
	})
}

func TestMatcherFurthestFailure(t *testing.T) {
	m := mustMatcher(t, `
		Expr : Term (("+" | "-") Term)* ;
		Term : @digits | "(" Expr ")" ;
	`, nil)

	_, err := m.Parse(NewText("1+(2*3)"))

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 4, failure.Pos)
	assert.Equal(t, []string{"Expr", "Term", "Expr"}, failure.Path)
	assert.Equal(t, []string{`"+"`, `"-"`, `")"`}, failure.Expected)
	assert.Equal(t, "'*'", failure.Found)
	assert.False(t, failure.EOF)
	assert.Equal(t, `unexpected '*' @ 4: expected "+", "-", ")" (Expr > Term > Expr)`, err.Error())
}

func TestMatcherLeftRecursion(t *testing.T) {
	m := mustMatcher(t, `E : E "+" "1" | "1" ;`, nil)
	require.Len(t, m.Warnings(), 1)
	assert.Equal(t, PotentialNonTermination, m.Warnings()[0].Kind)

	t.Run("terminates and falls back to the other alternatives", func(t *testing.T) {
		out, err := m.Match("E", NewText("1+1"), 0)
		require.NoError(t, err)
		assert.Equal(t, Succeeded, out.State)
		assert.Equal(t, 1, out.End)
	})

	t.Run("leftovers are reported at the end of the match", func(t *testing.T) {
		_, err := m.Parse(NewText("1+1"))
		require.Error(t, err)
		assert.Equal(t, "unexpected '+' @ 1: expected end of input (E)", err.Error())
	})

	t.Run("self reference without anything else", func(t *testing.T) {
		m := mustMatcher(t, `A : A ;`, nil)
		_, err := m.Parse(NewText("x"))
		assert.Equal(t, "unexpected 'x' @ 0 (A)", err.Error())

		_, err = m.Parse(NewText(""))
		assert.Equal(t, "unexpected end of input @ 0 (A)", err.Error())
	})
}

// countingInput counts how many times class runs are measured at
// each position
type countingInput struct {
	Input
	runs map[int]int
}

func (c *countingInput) Run(pos int, class func(rune) bool) int {
	c.runs[pos]++
	return c.Input.Run(pos, class)
}

func TestMatcherMemoization(t *testing.T) {
	m := mustMatcher(t, `
		S : A | B ;
		A : R "x" ;
		B : R "y" ;
		R : @digits ;
	`, nil)
	input := &countingInput{Input: NewText("12y"), runs: map[int]int{}}

	node, err := m.Parse(input)
	require.NoError(t, err)
	assert.Equal(t, `S (0..3)
└── B (0..3)
    ├── R "12" (0..2)
    └── "y" "y" (2..3)`, node.Pretty(input))
	assert.Equal(t, map[int]int{0: 1}, input.runs)
}

func TestMatcherZeroWidthNodes(t *testing.T) {
	grammar := `A : "a" B "c" ; B : "b"? ;`

	t.Run("elided by default", func(t *testing.T) {
		input := NewText("ac")
		node, err := mustMatcher(t, grammar, nil).Parse(input)
		require.NoError(t, err)
		assert.Equal(t, `A (0..2)
├── "a" "a" (0..1)
└── "c" "c" (1..2)`, node.Pretty(input))
	})

	t.Run("kept when configured", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("matcher.keep_empty", true)
		input := NewText("ac")
		node, err := mustMatcher(t, grammar, cfg).Parse(input)
		require.NoError(t, err)
		assert.Equal(t, `A (0..2)
├── "a" "a" (0..1)
├── B (1)
└── "c" "c" (1..2)`, node.Pretty(input))
	})

	t.Run("kept nodes aren't shared", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("matcher.keep_empty", true)
		node, err := mustMatcher(t, `S : B B ; B : "b"? ;`, cfg).Parse(NewText(""))
		require.NoError(t, err)
		require.Len(t, node.Children, 2)
		assert.True(t, node.Children[0].Equal(node.Children[1]))
		assert.NotSame(t, node.Children[0], node.Children[1])
	})

	t.Run("the invoked rule is always present", func(t *testing.T) {
		out, err := mustMatcher(t, grammar, nil).Match("B", NewText("c"), 0)
		require.NoError(t, err)
		require.NotNil(t, out.Node)
		assert.Equal(t, "B", out.Node.Name)
		assert.True(t, out.Node.IsEmpty())
	})
}

func TestMatcherMatch(t *testing.T) {
	m := mustMatcher(t, `Word : @lower+ ; Number : @digits ;`, nil)

	t.Run("from an offset without consuming everything", func(t *testing.T) {
		out, err := m.Match("Number", NewText("ab123cd"), 2)
		require.NoError(t, err)
		assert.Equal(t, Succeeded, out.State)
		assert.Equal(t, 5, out.End)
		assert.Equal(t, NewRange(2, 5), out.Node.Range())
	})

	t.Run("failure", func(t *testing.T) {
		out, err := m.Match("Number", NewText("ab"), 0)
		require.NoError(t, err)
		assert.Equal(t, Failed, out.State)
		assert.Nil(t, out.Node)
		assert.Equal(t, "unexpected 'a' @ 0: expected @digits (Number)", out.Err().Error())
	})

	t.Run("unknown rule", func(t *testing.T) {
		_, err := m.Match("Nope", NewText("ab"), 0)
		assert.True(t, errors.Is(err, ErrUnknownRule))

		_, err = m.ParseRule("Nope", NewText("ab"))
		assert.True(t, errors.Is(err, ErrUnknownRule))
	})

	t.Run("start outside of the input", func(t *testing.T) {
		_, err := m.Match("Word", NewText("ab"), 3)
		assert.EqualError(t, err, "start position 3 is outside of the input [0, 2]")
	})

	t.Run("parse from another rule", func(t *testing.T) {
		node, err := m.ParseRule("Number", NewText("42"))
		require.NoError(t, err)
		assert.Equal(t, "Number", node.Name)
	})
}

func TestNewMatcher(t *testing.T) {
	t.Run("validation errors", func(t *testing.T) {
		_, err := NewMatcher(mustGrammar(t, `A : B ;`), nil)
		var gerr *GrammarError
		require.True(t, errors.As(err, &gerr))
		assert.Equal(t, UndefinedRule, gerr.Kind)
	})

	t.Run("rules the start rule doesn't reach are validated too", func(t *testing.T) {
		_, err := NewMatcher(mustGrammar(t, `S : "s" ; Other : Missing ;`), nil)
		var gerr *GrammarError
		require.True(t, errors.As(err, &gerr))
		assert.Equal(t, UndefinedRule, gerr.Kind)
		assert.Equal(t, "Missing", gerr.Rule)
	})

	t.Run("warnings as errors", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("grammar.warnings_as_errors", true)
		_, err := NewMatcher(mustGrammar(t, `E : E "+" "1" | "1" ;`), cfg)
		var gerr *GrammarError
		require.True(t, errors.As(err, &gerr))
		assert.Equal(t, PotentialNonTermination, gerr.Kind)
	})

	t.Run("skipping validation breaks an invariant", func(t *testing.T) {
		m := &Matcher{
			grammar:  newTestGrammar(t, "A", NewRule("A", Ref("Missing"))),
			maxDepth: 10,
			logger:   hclog.NewNullLogger(),
		}
		assert.Panics(t, func() { m.Parse(NewText("x")) })
	})

	t.Run("tracing", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("matcher.trace", true)
		m := mustMatcher(t, `Digits : @digits ;`, cfg)

		var buf bytes.Buffer
		m.SetLogger(hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Trace}))
		_, err := m.Parse(NewText("42"))
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "enter: rule=Digits pos=0")
		assert.Contains(t, buf.String(), "leave: rule=Digits pos=0 state=succeeded end=2 derivations=1")
	})
}

func TestMatcherIsDeterministic(t *testing.T) {
	m := mustMatcher(t, `
		Expr : Term (("+" | "-") Term)* ;
		Term : @digits | "(" Expr ")" ;
	`, nil)

	for _, text := range []string{"1+(2-3)+4", "1+(2*3)"} {
		first, firstErr := m.Parse(NewText(text))
		second, secondErr := m.Parse(NewText(text))
		assert.Equal(t, first, second)
		assert.Equal(t, firstErr, secondErr)
	}
}

func TestMatcherConcurrentCalls(t *testing.T) {
	m := mustMatcher(t, `
		Expr : Term (("+" | "-") Term)* ;
		Term : @digits | "(" Expr ")" ;
	`, nil)
	inputs := []string{"1+2", "(1-2)+3", "1+(2", "((4))", "7-", "12+(34-(56+78))"}

	expected := make([]string, len(inputs))
	for i, text := range inputs {
		expected[i] = parseResult(m, text)
	}

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for g := range results {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for _, text := range inputs {
				results[g] = append(results[g], parseResult(m, text))
			}
		}(g)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, expected, r)
	}
}

func parseResult(m *Matcher, text string) string {
	input := NewText(text)
	node, err := m.Parse(input)
	if err != nil {
		return err.Error()
	}
	return node.Pretty(input)
}

func mustMatcher(t *testing.T, src string, cfg *Config) *Matcher {
	t.Helper()
	m, err := NewMatcher(mustGrammar(t, src), cfg)
	require.NoError(t, err)
	m.SetLogger(hclog.NewNullLogger())
	return m
}

// nestedRules counts how many `name` nodes are nested within each
// other following the last child
func nestedRules(n *Node, name string) int {
	count := 0
	for n != nil && n.Name == name {
		count++
		if len(n.Children) == 0 {
			break
		}
		n = n.Children[len(n.Children)-1]
	}
	return count
}

func repeatToken(token string, n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = token
	}
	return items
}
