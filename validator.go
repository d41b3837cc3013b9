package parsley

import (
	"sort"

	"golang.org/x/exp/slices"
)

// Validate checks that `g` is fit for matching.  It returns the
// first hard error found, or nil, and the warnings that don't stop
// the grammar from being used.  The checks run in this order:
//
//  1. the start rule is defined
//  2. every reference reachable from the start rule is defined,
//     reporting the first one a depth-first walk runs into, then
//     the references of the rules it doesn't reach
//  3. warnings: rules that can call themselves again without
//     consuming any input, and repetitions whose body can match
//     empty
//
// The grammar is never modified, so calling Validate again yields
// the same result.
func Validate(g *Grammar) ([]*GrammarError, error) {
	if _, ok := g.ruleID(g.start); !ok {
		return nil, &GrammarError{
			Kind:     UndefinedStartRule,
			Severity: SeverityError,
			Rule:     g.start,
		}
	}
	reachable, err := reachableRules(g, g.start)
	if err != nil {
		return nil, err
	}
	if err := checkUnreachableRules(g, reachable); err != nil {
		return nil, err
	}
	return grammarWarnings(g, reachable), nil
}

// checkUnreachableRules reports undefined references within the rules
// the start rule never gets to, in declaration order.  Matching can
// still start from any of them.
func checkUnreachableRules(g *Grammar, reachable []string) error {
	for _, rule := range g.rules {
		if slices.Contains(reachable, rule.name) {
			continue
		}
		for _, ref := range findReferences(rule.expr) {
			if _, ok := g.ruleID(ref); !ok {
				return undefinedRule(ref, rule.name)
			}
		}
	}
	return nil
}

func undefinedRule(name, from string) *GrammarError {
	return &GrammarError{
		Kind:     UndefinedRule,
		Severity: SeverityError,
		Rule:     name,
		Message:  "referenced from '" + from + "'",
	}
}

// reachableRules walks the grammar depth first from `start`, entering
// each referenced rule as soon as the reference is found.  It returns
// the rule names in the order they were entered.
func reachableRules(g *Grammar, start string) ([]string, error) {
	var (
		order   []string
		visited = map[string]bool{}
		walk    func(name string) error
	)
	walk = func(name string) error {
		visited[name] = true
		order = append(order, name)
		rule := g.rules[g.byName[name]]
		for _, ref := range findReferences(rule.expr) {
			if _, ok := g.ruleID(ref); !ok {
				return undefinedRule(ref, name)
			}
			if !visited[ref] {
				if err := walk(ref); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(start); err != nil {
		return nil, err
	}
	return order, nil
}

func grammarWarnings(g *Grammar, reachable []string) []*GrammarError {
	var (
		warnings  []*GrammarError
		nullables = nullableRules(g)
		leftRec   = leftCallGraph(g, reachable, nullables).cyclic()
	)
	for _, name := range reachable {
		if _, ok := leftRec[name]; ok {
			warnings = append(warnings, &GrammarError{
				Kind:     PotentialNonTermination,
				Severity: SeverityWarning,
				Rule:     name,
			})
		}
	}
	for _, name := range reachable {
		rule := g.rules[g.byName[name]]
		var culprit Expr
		Inspect(rule.expr, func(e Expr) bool {
			switch n := e.(type) {
			case *Many:
				if culprit == nil && isNullable(n.expr, nullables) {
					culprit = n
				}
			case *OneOrMore:
				if culprit == nil && isNullable(n.expr, nullables) {
					culprit = n
				}
			}
			return culprit == nil
		})
		if culprit != nil {
			warnings = append(warnings, &GrammarError{
				Kind:     NullableRepetition,
				Severity: SeverityWarning,
				Rule:     name,
				Message:  culprit.Text(),
			})
		}
	}
	return warnings
}

// nullableRules computes the set of rules that can match the empty
// input.  It iterates until a fixpoint since rules reference each
// other in cycles.
func nullableRules(g *Grammar) map[string]bool {
	nullables := make(map[string]bool, len(g.rules))
	for changed := true; changed; {
		changed = false
		for _, r := range g.rules {
			if !nullables[r.name] && isNullable(r.expr, nullables) {
				nullables[r.name] = true
				changed = true
			}
		}
	}
	return nullables
}

// isNullable returns true if the expression can match the empty
// input, given the rules already known to be nullable
func isNullable(expr Expr, nullables map[string]bool) bool {
	switch e := expr.(type) {
	case *Literal:
		return e.value == ""
	case Builtin:
		return false // every builtin consumes at least one item
	case *RuleRef:
		return nullables[e.name]
	case *Sequence:
		for _, item := range e.items {
			if !isNullable(item, nullables) {
				return false
			}
		}
		return true
	case *Alternation:
		for _, item := range e.items {
			if isNullable(item, nullables) {
				return true
			}
		}
		return false
	case *Optional, *Many:
		return true
	case *OneOrMore:
		return isNullable(e.expr, nullables)
	default:
		return false
	}
}

type callGraph map[string]map[string]struct{}

// leftCallGraph builds a graph where an edge from A to B means A can
// invoke B at the position A itself started at, considering nullable
// prefixes.  In `B? A`, both B and A are left calls.
func leftCallGraph(g *Grammar, names []string, nullables map[string]bool) callGraph {
	cg := make(callGraph, len(names))
	for _, name := range names {
		edges := make(map[string]struct{})
		collectLeftCalls(g.rules[g.byName[name]].expr, nullables, edges)
		cg[name] = edges
	}
	return cg
}

func collectLeftCalls(expr Expr, nullables map[string]bool, calls map[string]struct{}) {
	switch e := expr.(type) {
	case *RuleRef:
		calls[e.name] = struct{}{}
	case *Sequence:
		for _, item := range e.items {
			collectLeftCalls(item, nullables, calls)
			if !isNullable(item, nullables) {
				break
			}
		}
	case *Alternation:
		for _, item := range e.items {
			collectLeftCalls(item, nullables, calls)
		}
	case *Optional:
		collectLeftCalls(e.expr, nullables, calls)
	case *Many:
		collectLeftCalls(e.expr, nullables, calls)
	case *OneOrMore:
		collectLeftCalls(e.expr, nullables, calls)
	}
}

// cyclic returns the vertices that belong to a cycle: strongly
// connected components with more than one vertex, or vertices with
// an edge to themselves.
func (g callGraph) cyclic() map[string]struct{} {
	var (
		index   = 0
		stack   = []string{}
		onStack = map[string]bool{}
		indices = map[string]int{}
		lowlink = map[string]int{}
		cyclic  = map[string]struct{}{}
		connect func(string)
	)
	connect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		// Sort edges for deterministic traversal
		for _, w := range sortedKeys(g[v]) {
			if _, seen := indices[w]; !seen {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}
		if lowlink[v] != indices[v] {
			return
		}

		// v is the root of a component; pop it off the stack
		i := slices.Index(stack, v)
		component := stack[i:]
		stack = stack[:i]
		for _, w := range component {
			onStack[w] = false
		}
		if _, self := g[v][v]; len(component) > 1 || self {
			for _, w := range component {
				cyclic[w] = struct{}{}
			}
		}
	}

	for _, v := range sortedKeys(g) {
		if _, seen := indices[v]; !seen {
			connect(v)
		}
	}
	return cyclic
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
