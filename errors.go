package parsley

import (
	"fmt"

	"github.com/pkg/errors"
)

// GrammarErrorKind discriminates the problems found while building
// or validating a grammar
type GrammarErrorKind int

const (
	DuplicateRuleName GrammarErrorKind = iota
	UndefinedStartRule
	UndefinedRule
	PotentialNonTermination
	NullableRepetition
)

func (k GrammarErrorKind) String() string {
	switch k {
	case DuplicateRuleName:
		return "duplicate-rule-name"
	case UndefinedStartRule:
		return "undefined-start-rule"
	case UndefinedRule:
		return "undefined-rule"
	case PotentialNonTermination:
		return "potential-non-termination"
	case NullableRepetition:
		return "nullable-repetition"
	default:
		return "unknown"
	}
}

// Severity tells hard configuration errors apart from warnings
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// GrammarError is a configuration error: the grammar itself is
// wrong, so retrying the same parse won't ever help
type GrammarError struct {
	Kind     GrammarErrorKind
	Severity Severity
	Rule     string
	Message  string
}

func (e *GrammarError) Error() string {
	var msg string
	switch e.Kind {
	case DuplicateRuleName:
		msg = fmt.Sprintf("rule '%s' is defined more than once", e.Rule)
	case UndefinedStartRule:
		msg = fmt.Sprintf("start rule '%s' is not defined", e.Rule)
	case UndefinedRule:
		msg = fmt.Sprintf("undefined rule '%s'", e.Rule)
	case PotentialNonTermination:
		msg = fmt.Sprintf("rule '%s' can call itself without consuming input", e.Rule)
	case NullableRepetition:
		msg = fmt.Sprintf("repetition within rule '%s' can match empty", e.Rule)
	}
	if e.Message != "" {
		if msg == "" || e.Rule == "" {
			msg = e.Message
		} else {
			msg = msg + ": " + e.Message
		}
	}
	return fmt.Sprintf("%s: %s [%s]", e.Severity, msg, e.Kind)
}

// IsWarning returns true for problems that don't prevent parsing
func (e *GrammarError) IsWarning() bool { return e.Severity == SeverityWarning }

// ErrRecursionLimit is returned when matching nests more rule
// invocations than the configured `matcher.max_depth`.  It's a
// resource limit, not a statement about the input.
var ErrRecursionLimit = errors.New("recursion limit exceeded")

// InvariantViolation is panicked when the matcher runs into a state
// validation should have made impossible, like a reference to an
// undefined rule.  It means the caller skipped validation.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return "internal invariant violation: " + e.Message
}

// ParsingError is returned when a grammar's text can't be loaded
type ParsingError struct {
	Message string
	Span    Span
}

func (e ParsingError) Error() string {
	return fmt.Sprintf("%s @ %s", e.Message, e.Span)
}

// backtrackingError is an internal error type that is captured by the
// choice operator
type backtrackingError struct {
	Message  string
	Expected string
}

func (e *backtrackingError) Error() string { return e.Message }

func isthrown(err error) bool {
	_, ok := err.(ParsingError)
	return ok
}
