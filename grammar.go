package parsley

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Expr is the closed set of expressions a rule body is made of:
// *Literal, Builtin, *RuleRef, *Sequence, *Alternation, *Optional,
// *Many and *OneOrMore.  Values are immutable once built.
type Expr interface {
	// Text returns the expression written in the grammar syntax
	Text() string

	isExpr()
}

// Expr Type: Literal

type Literal struct{ value string }

func Lit(value string) *Literal { return &Literal{value: value} }

func (e *Literal) Value() string { return e.value }
func (e *Literal) Text() string  { return strconv.Quote(e.value) }
func (*Literal) isExpr()         {}

// Builtin expressions are implemented in builtins.go

func (b Builtin) Text() string { return "@" + b.String() }

// Expr Type: RuleRef

type RuleRef struct{ name string }

func Ref(name string) *RuleRef { return &RuleRef{name: name} }

func (e *RuleRef) Name() string { return e.name }
func (e *RuleRef) Text() string { return e.name }
func (*RuleRef) isExpr()        {}

// Expr Type: Sequence

type Sequence struct{ items []Expr }

func Seq(items ...Expr) *Sequence { return &Sequence{items: slices.Clone(items)} }

func (e *Sequence) Items() []Expr { return slices.Clone(e.items) }
func (e *Sequence) Text() string  { return exprsText(e.items, " ") }
func (*Sequence) isExpr()         {}

// Expr Type: Alternation

type Alternation struct{ items []Expr }

func Alt(items ...Expr) *Alternation { return &Alternation{items: slices.Clone(items)} }

func (e *Alternation) Items() []Expr { return slices.Clone(e.items) }
func (e *Alternation) Text() string  { return exprsText(e.items, " | ") }
func (*Alternation) isExpr()         {}

// Expr Type: Optional

type Optional struct{ expr Expr }

func Opt(expr Expr) *Optional { return &Optional{expr: expr} }

func (e *Optional) Expr() Expr   { return e.expr }
func (e *Optional) Text() string { return suffixText(e.expr, "?") }
func (*Optional) isExpr()        {}

// Expr Type: Many

type Many struct{ expr Expr }

func ZeroOrMore(expr Expr) *Many { return &Many{expr: expr} }

func (e *Many) Expr() Expr   { return e.expr }
func (e *Many) Text() string { return suffixText(e.expr, "*") }
func (*Many) isExpr()        {}

// Expr Type: OneOrMore

type OneOrMore struct{ expr Expr }

func OneOrMoreOf(expr Expr) *OneOrMore { return &OneOrMore{expr: expr} }

func (e *OneOrMore) Expr() Expr   { return e.expr }
func (e *OneOrMore) Text() string { return suffixText(e.expr, "+") }
func (*OneOrMore) isExpr()        {}

// Rule is a named expression, the unit of recursion and reference
type Rule struct {
	name string
	expr Expr
}

func NewRule(name string, expr Expr) *Rule {
	return &Rule{name: name, expr: expr}
}

func (r *Rule) Name() string { return r.name }
func (r *Rule) Expr() Expr   { return r.expr }
func (r *Rule) Text() string { return fmt.Sprintf("%s : %s ;", r.name, r.expr.Text()) }

// ErrUnknownRule is returned when a rule name can't be found within
// a grammar
var ErrUnknownRule = errors.New("unknown rule")

// Grammar is an immutable set of rules plus the name of the rule
// parsing starts from.  Rule references hold names and are resolved
// by lookup, so recursive grammars need no pointer cycles.
type Grammar struct {
	start  string
	rules  []*Rule
	byName map[string]int
}

// NewGrammar assembles `rules` into a grammar.  It doesn't validate
// anything besides rule names being unique; see Validate for that.
func NewGrammar(start string, rules ...*Rule) (*Grammar, error) {
	g := &Grammar{
		start:  start,
		rules:  make([]*Rule, 0, len(rules)),
		byName: make(map[string]int, len(rules)),
	}
	for _, r := range rules {
		if r == nil || r.name == "" {
			return nil, &GrammarError{
				Kind:     DuplicateRuleName,
				Severity: SeverityError,
				Message:  "rule without a name",
			}
		}
		if _, ok := g.byName[r.name]; ok {
			return nil, &GrammarError{
				Kind:     DuplicateRuleName,
				Severity: SeverityError,
				Rule:     r.name,
			}
		}
		g.byName[r.name] = len(g.rules)
		g.rules = append(g.rules, r)
	}
	return g, nil
}

// Start returns the name of the start rule
func (g *Grammar) Start() string { return g.start }

// Rules returns the rules in declaration order
func (g *Grammar) Rules() []*Rule { return slices.Clone(g.rules) }

// Rule looks a rule up by its name
func (g *Grammar) Rule(name string) (*Rule, error) {
	if id, ok := g.byName[name]; ok {
		return g.rules[id], nil
	}
	return nil, errors.Wrapf(ErrUnknownRule, "rule %q", name)
}

func (g *Grammar) ruleID(name string) (int, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// Text returns the grammar written in the grammar syntax, one rule
// per line, starting with the start rule when it's defined
func (g *Grammar) Text() string {
	var s strings.Builder
	if id, ok := g.byName[g.start]; ok {
		s.WriteString(g.rules[id].Text())
		s.WriteRune('\n')
	}
	for _, r := range g.rules {
		if r.name == g.start {
			continue
		}
		s.WriteString(r.Text())
		s.WriteRune('\n')
	}
	return s.String()
}

func (g *Grammar) String() string {
	return fmt.Sprintf("Grammar(start=%s, rules=%d)", g.start, len(g.rules))
}

// Helpers

func exprsText(items []Expr, sep string) string {
	var (
		s  strings.Builder
		ln = len(items) - 1
	)
	for i, item := range items {
		s.WriteString(groupText(item))
		if i < ln {
			s.WriteString(sep)
		}
	}
	return s.String()
}

func suffixText(expr Expr, suffix string) string {
	switch expr.(type) {
	case *Sequence, *Alternation:
		return "(" + expr.Text() + ")" + suffix
	default:
		return expr.Text() + suffix
	}
}

func groupText(expr Expr) string {
	if _, ok := expr.(*Alternation); ok {
		return "(" + expr.Text() + ")"
	}
	return expr.Text()
}
