package parsley

import "strings"

// Parser is what the combinators below need from a hand written
// parser in order to backtrack and report errors
type Parser interface {
	// Peek returns the rune under the cursor, or eof, without
	// moving the cursor
	Peek() rune

	// Any consumes the rune under the cursor.  It fails at the end
	// of the input.
	Any() (rune, error)

	// Backtrack moves the cursor back to `location`
	Backtrack(location Location)

	// Location returns where the cursor is
	Location() Location

	// NewError creates a backtracking error saying `expected` was
	// expected under the cursor
	NewError(expected string) error

	// Throw creates an error that can't be handled by backtracking
	Throw(msg string, span Span) error

	// ExpectRune consumes `r` or fails without moving the cursor
	ExpectRune(r rune) (rune, error)

	// ExpectRuneFn is ExpectRune in the shape combinators take
	ExpectRuneFn(r rune) ParserFn[rune]

	// WithinPredicate returns true while a `not` predicate is
	// being evaluated.  Failures within predicates aren't
	// expectations and aren't reported.
	WithinPredicate() bool

	// EnterPredicate is called by `not` when a predicate
	// evaluation starts.  It's reentrant.
	EnterPredicate()

	// LeavePredicate is called by `not` once the predicate is
	// done
	LeavePredicate()
}

// ParserFn is a parsing step producing a `T`.  Methods can't carry
// their own type parameters, so steps are closures over the parser
// and combinators are plain generic functions.
type ParserFn[T any] func(p Parser) (T, error)

// zeroOrMore calls `fn` until it fails and collects the outputs.  The
// cursor is restored to where the failed attempt started.  Thrown
// errors are returned right away.
func zeroOrMore[T any](p Parser, fn ParserFn[T]) ([]T, error) {
	var output []T
	for {
		pos := p.Location()
		item, err := fn(p)
		if err != nil {
			p.Backtrack(pos)
			if isthrown(err) {
				return nil, err
			}
			break
		}
		output = append(output, item)
	}
	return output, nil
}

// oneOrMore requires a first successful call of `fn`
func oneOrMore[T any](p Parser, fn ParserFn[T]) ([]T, error) {
	head, err := fn(p)
	if err != nil {
		return nil, err
	}
	tail, err := zeroOrMore(p, fn)
	if err != nil {
		return nil, err
	}
	return append([]T{head}, tail...), nil
}

// choiceRune is `choice` over single runes
func choiceRune(p Parser, runes []rune) (rune, error) {
	fns := make([]ParserFn[rune], 0, len(runes))
	for _, r := range runes {
		fns = append(fns, p.ExpectRuneFn(r))
	}
	return choice(p, fns)
}

// choice returns the output of the first of `fns` to succeed.  The
// failure of all of them carries everything they expected.
func choice[T any](p Parser, fns []ParserFn[T]) (T, error) {
	var (
		zero     T
		expected []string
		pos      = p.Location()
	)
	for _, fn := range fns {
		item, err := fn(p)
		if err == nil {
			return item, nil
		}
		p.Backtrack(pos)
		if isthrown(err) {
			return zero, err
		}
		if berr, ok := err.(*backtrackingError); ok && berr.Expected != "" {
			expected = append(expected, berr.Expected)
		}
	}
	exp := strings.Join(expected, ", ")
	return zero, &backtrackingError{Message: "expected " + exp, Expected: exp}
}

// not returns an error if fn succeeds, or succeed if fn doesn't succeed
func not[T any](p Parser, fn ParserFn[T]) (T, error) {
	var zero T
	pos := p.Location()
	p.EnterPredicate()
	_, err := fn(p)
	p.LeavePredicate()

	// predicates never consume input
	p.Backtrack(pos)

	if err == nil {
		return zero, &backtrackingError{Message: "not"}
	}
	return zero, nil
}
