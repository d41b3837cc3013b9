package parsley

import "unicode"

// Builtin is one of the primitive character class matchers grammar
// authors can use as terminals.  The set is closed: adding a new one
// takes a code change, there is no runtime registration.
type Builtin int

const (
	Whitespace Builtin = iota
	Lower
	Upper
	Digit
	Digits
)

var builtinNames = [...]string{
	Whitespace: "whitespace",
	Lower:      "lower",
	Upper:      "upper",
	Digit:      "digit",
	Digits:     "digits",
}

// Builtins returns every builtin in its fixed declaration order
func Builtins() []Builtin {
	return []Builtin{Whitespace, Lower, Upper, Digit, Digits}
}

// BuiltinByName returns the builtin called `name`
func BuiltinByName(name string) (Builtin, bool) {
	for i, n := range builtinNames {
		if n == name {
			return Builtin(i), true
		}
	}
	return 0, false
}

func (b Builtin) String() string {
	if b < 0 || int(b) >= len(builtinNames) {
		return "unknown"
	}
	return builtinNames[b]
}

func (Builtin) isExpr() {}

// Match checks the builtin against `input` at `pos` and returns how
// many positions it consumed.  Runs are greedy and never backtrack.
func (b Builtin) Match(input Input, pos int) (int, bool) {
	switch b {
	case Whitespace:
		return matchRun(input, pos, unicode.IsSpace)
	case Lower:
		return matchOne(input, pos, unicode.IsLower)
	case Upper:
		return matchOne(input, pos, unicode.IsUpper)
	case Digit:
		return matchOne(input, pos, isDigit)
	case Digits:
		return matchRun(input, pos, isDigit)
	default:
		panic(&InvariantViolation{Message: "unknown builtin " + b.String()})
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func matchOne(input Input, pos int, class func(rune) bool) (int, bool) {
	if input.Is(pos, class) {
		return 1, true
	}
	return 0, false
}

func matchRun(input Input, pos int, class func(rune) bool) (int, bool) {
	n := input.Run(pos, class)
	return n, n > 0
}
