package parsley

import (
	"strings"
	"unicode/utf8"
)

// Input is a read-only view over the items being parsed.  Positions
// are offsets into the view; the matcher only ever passes positions
// around and never copies the underlying data.
type Input interface {
	// Len returns how many positions the input has
	Len() int

	// Literal reports whether `lit` matches at `pos` and how many
	// positions it occupies when it does
	Literal(pos int, lit string) (int, bool)

	// Is reports whether the item at `pos` belongs to `class`
	Is(pos int, class func(rune) bool) bool

	// Run returns how many positions starting at `pos` make up a
	// single run of items belonging to `class`
	Run(pos int, class func(rune) bool) int

	// Slice returns the text covered by the positions [start, end)
	Slice(start, end int) string
}

// Text is an Input in which every position holds a single rune
type Text struct{ runes []rune }

// NewText creates a rune view over `s`
func NewText(s string) *Text {
	return &Text{runes: []rune(s)}
}

func (t *Text) Len() int { return len(t.runes) }

func (t *Text) Literal(pos int, lit string) (int, bool) {
	n := 0
	for _, r := range lit {
		if pos+n >= len(t.runes) || t.runes[pos+n] != r {
			return 0, false
		}
		n++
	}
	return n, true
}

func (t *Text) Is(pos int, class func(rune) bool) bool {
	return pos < len(t.runes) && class(t.runes[pos])
}

// Run is as long as the runes keep belonging to `class`
func (t *Text) Run(pos int, class func(rune) bool) int {
	n := 0
	for t.Is(pos+n, class) {
		n++
	}
	return n
}

func (t *Text) Slice(start, end int) string { return string(t.runes[start:end]) }

// Tokens is an Input in which every position holds a whole token, as
// produced by an external lexer.  A literal matches a single token
// with the same text, and a class holds for a token when every rune
// of the token satisfies it.
type Tokens struct{ items []string }

// NewTokens creates a token view over `items`
func NewTokens(items []string) *Tokens {
	return &Tokens{items: items}
}

func (t *Tokens) Len() int { return len(t.items) }

func (t *Tokens) Literal(pos int, lit string) (int, bool) {
	if lit == "" {
		return 0, true
	}
	if pos < len(t.items) && t.items[pos] == lit {
		return 1, true
	}
	return 0, false
}

func (t *Tokens) Is(pos int, class func(rune) bool) bool {
	if pos >= len(t.items) || t.items[pos] == "" {
		return false
	}
	for _, r := range t.items[pos] {
		if !class(r) {
			return false
		}
	}
	return true
}

// Run never spans more than one token; a token is a run on its own
func (t *Tokens) Run(pos int, class func(rune) bool) int {
	if t.Is(pos, class) {
		return 1
	}
	return 0
}

func (t *Tokens) Slice(start, end int) string {
	return strings.Join(t.items[start:end], " ")
}

// describeAt returns a short quoted description of what sits at
// `pos`, used by error messages
func describeAt(input Input, pos int) string {
	if pos >= input.Len() {
		return "EOF"
	}
	s := input.Slice(pos, pos+1)
	if utf8.RuneCountInString(s) > 16 {
		s = string([]rune(s)[:16]) + "..."
	}
	return "'" + escapeLiteral(s) + "'"
}

var literalEscaper = strings.NewReplacer(
	`'`, `\'`,
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// escapeLiteral makes `s` printable between single quotes
func escapeLiteral(s string) string { return literalEscaper.Replace(s) }
