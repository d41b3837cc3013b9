package parsley

import (
	"fmt"
	"strconv"
	"strings"
)

// State of a match invocation.  Pending is only observed while the
// matcher is still descending; the other three are final.
type State int

const (
	Pending State = iota
	Succeeded
	Failed
	Ambiguous
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Outcome is what a single Match call produces.  Node and End are set
// on success, Failure on failure and Ambiguity when more than one
// distinct derivation reached the accepted end.
type Outcome struct {
	State     State
	Node      *Node
	End       int
	Failure   *Failure
	Ambiguity *Ambiguity
}

// Err returns the diagnostic of an unsuccessful outcome as an error
func (o Outcome) Err() error {
	switch o.State {
	case Failed:
		return o.Failure
	case Ambiguous:
		return o.Ambiguity
	default:
		return nil
	}
}

// Failure describes the furthest position any explored derivation
// reached before the whole attempt failed
type Failure struct {
	// Pos is the furthest position reached
	Pos int

	// Path holds the names of the rules active at Pos, outermost
	// first
	Path []string

	// Expected holds the terminals attempted at Pos, in the order
	// they were first attempted
	Expected []string

	// Found describes what sits in the input at Pos
	Found string

	// EOF is true when Pos is the end of the input
	EOF bool
}

func (e *Failure) Error() string {
	var s strings.Builder
	if e.EOF {
		s.WriteString("unexpected end of input")
	} else {
		fmt.Fprintf(&s, "unexpected %s", e.Found)
	}
	fmt.Fprintf(&s, " @ %d", e.Pos)
	if len(e.Expected) > 0 {
		s.WriteString(": expected ")
		s.WriteString(strings.Join(e.Expected, ", "))
	}
	if len(e.Path) > 0 {
		fmt.Fprintf(&s, " (%s)", strings.Join(e.Path, " > "))
	}
	return s.String()
}

// Candidate is one of the competing derivations within an ambiguity
// report
type Candidate struct {
	// Alternative is the 1-based index of the alternative the
	// derivation went through, or 0 when the derivations split
	// within a sequence or a repetition
	Alternative int
	Children    []*Node
}

// Ambiguity reports more than one structurally distinct derivation
// covering the same span.  Only derivations that reach the accepted
// end compete: one that can't be completed is never reported.
type Ambiguity struct {
	Pos        int
	End        int
	Rule       string
	Path       []string
	Candidates []Candidate
}

func (e *Ambiguity) Error() string {
	var (
		s    strings.Builder
		alts []string
	)
	fmt.Fprintf(&s, "ambiguous parse of %s @ %s: %d derivations", e.Rule, NewRange(e.Pos, e.End), len(e.Candidates))
	for _, c := range e.Candidates {
		if c.Alternative == 0 {
			return s.String()
		}
		alts = append(alts, strconv.Itoa(c.Alternative))
	}
	if len(alts) > 0 {
		fmt.Fprintf(&s, " (alternatives %s)", strings.Join(alts, ", "))
	}
	return s.String()
}
