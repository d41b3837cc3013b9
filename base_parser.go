package parsley

import (
	"fmt"
	"strings"
)

const eof = -1

// BaseParser keeps the state necessary to build parsing expressions
// on top of the basic combinators available, like choice,
// zeroOrMore, oneOrMore, optional, etc.
type BaseParser struct {
	cursor int
	line   int
	column int
	input  []rune

	// furthest position an expectation failed at, and what was
	// expected there
	ffp      Location
	expected []string

	predStkCnt int
}

// SetInput associates an input to the parser and resets its state
func (p *BaseParser) SetInput(input string) {
	p.cursor = 0
	p.line = 0
	p.column = 0
	p.input = []rune(input)
	p.ffp = Location{}
	p.expected = nil
	p.predStkCnt = 0
}

// Location returns in which line/column/cursor the parser's input is currently in
func (p BaseParser) Location() Location {
	return Location{
		Line:   p.line,
		Column: p.column,
		Cursor: p.cursor,
	}
}

// Peek returns the character under the input cursor, or eof if the entire input has been consumed
func (p *BaseParser) Peek() rune {
	if p.cursor >= len(p.input) {
		return eof
	}
	return p.input[p.cursor]
}

// Backtrack resets the internal parser state to the Location l
func (p *BaseParser) Backtrack(l Location) {
	p.cursor = l.Cursor
	p.line = l.Line
	p.column = l.Column
}

func (p *BaseParser) ExpectRune(v rune) (rune, error) {
	if p.Peek() == v {
		return p.Any()
	}
	return 0, p.NewError(fmt.Sprintf("'%c'", v))
}

func (p *BaseParser) ExpectRuneFn(v rune) ParserFn[rune] {
	return func(p Parser) (rune, error) { return p.ExpectRune(v) }
}

// ExpectClass returns the rune under the cursor if `class` holds for
// it.  `label` names the class in error messages.
func (p *BaseParser) ExpectClass(label string, class func(rune) bool) (rune, error) {
	if c := p.Peek(); c != eof && class(c) {
		return p.Any()
	}
	return 0, p.NewError(label)
}

// NewError records `expected` as one of the things that could have
// been under the cursor, unless a predicate is being evaluated, and
// returns an error the combinators can backtrack from
func (p *BaseParser) NewError(expected string) error {
	if !p.WithinPredicate() {
		switch {
		case p.cursor > p.ffp.Cursor || p.expected == nil:
			p.ffp = p.Location()
			p.expected = []string{expected}
		case p.cursor == p.ffp.Cursor:
			p.expect(expected)
		}
	}
	return &backtrackingError{
		Message:  "expected " + expected,
		Expected: expected,
	}
}

func (p *BaseParser) expect(expected string) {
	for _, e := range p.expected {
		if e == expected {
			return
		}
	}
	p.expected = append(p.expected, expected)
}

// Throw returns an error that can't be caught by the backtracking
// combinators and will error right away
func (p *BaseParser) Throw(msg string, span Span) error {
	return ParsingError{Message: msg, Span: span}
}

// FurthestError reports the expectations recorded at the furthest
// position the parser got to
func (p *BaseParser) FurthestError() error {
	found := "EOF"
	if p.ffp.Cursor < len(p.input) {
		found = "'" + escapeLiteral(string(p.input[p.ffp.Cursor])) + "'"
	}
	msg := "unexpected " + found
	if len(p.expected) > 0 {
		msg += ", expected " + strings.Join(p.expected, ", ")
	}
	return ParsingError{Message: msg, Span: NewSpan(p.ffp, p.ffp)}
}

// Any matches any rune under the input cursor, and will error on EOF
func (p *BaseParser) Any() (rune, error) {
	c := p.Peek()
	if c == eof {
		return 0, p.NewError("any character")
	}
	p.cursor++
	p.column++
	if c == '\n' {
		p.column = 0
		p.line++
	}
	return c, nil
}

func (p *BaseParser) WithinPredicate() bool { return p.predStkCnt > 0 }
func (p *BaseParser) EnterPredicate()       { p.predStkCnt++ }
func (p *BaseParser) LeavePredicate()       { p.predStkCnt-- }
