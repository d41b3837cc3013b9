package parsley

import "fmt"

// Location is a point within a grammar's text.  Line and Column are
// zero based; they're printed one based.
type Location struct {
	Line   int
	Column int
	Cursor int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line+1, l.Column+1)
}

// Span is the stretch of a grammar's text between two locations
type Span struct {
	Start Location
	End   Location
}

func NewSpan(start, end Location) Span {
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	if s.Start.Cursor == s.End.Cursor {
		return s.Start.String()
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s..%d", s.Start, s.End.Column+1)
	}
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}
