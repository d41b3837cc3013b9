package parsley

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Matcher runs a validated grammar against inputs.  It's read-only
// once created, so a single Matcher can serve any number of
// concurrent Match and Parse calls; each call owns its memoization
// table and failure tracker.
type Matcher struct {
	grammar   *Grammar
	warnings  []*GrammarError
	keepEmpty bool
	maxDepth  int
	trace     bool
	logger    hclog.Logger
}

// NewMatcher validates `g` and returns a matcher for it.  Validation
// errors are returned as *GrammarError; warnings are logged and kept
// available through Warnings, unless `grammar.warnings_as_errors` is
// set, in which case the first warning is returned as the error.
func NewMatcher(g *Grammar, cfg *Config) (*Matcher, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	warnings, err := Validate(g)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 && cfg.GetBool("grammar.warnings_as_errors") {
		return nil, warnings[0]
	}
	m := &Matcher{
		grammar:   g,
		warnings:  warnings,
		keepEmpty: cfg.GetBool("matcher.keep_empty"),
		maxDepth:  cfg.GetInt("matcher.max_depth"),
		trace:     cfg.GetBool("matcher.trace"),
	}
	if m.trace {
		m.logger = hclog.New(&hclog.LoggerOptions{Name: "parsley", Level: hclog.Trace})
	} else {
		m.logger = hclog.Default().Named("parsley")
	}
	for _, w := range warnings {
		m.logger.Warn("grammar warning", "kind", w.Kind.String(), "rule", w.Rule, "detail", w.Message)
	}
	return m, nil
}

// SetLogger replaces the logger used for tracing
func (m *Matcher) SetLogger(logger hclog.Logger) { m.logger = logger }

// Grammar returns the grammar the matcher was created with
func (m *Matcher) Grammar() *Grammar { return m.grammar }

// Warnings returns the validation warnings of the grammar
func (m *Matcher) Warnings() []*GrammarError { return m.warnings }

// Match tries `rule` against `input` starting at `start`.  It doesn't
// need to consume the whole input: when the rule can end at several
// positions, the outcome describes the longest match.  Parse failures
// and ambiguities are reported through the Outcome; the error is
// reserved for an unknown rule, a start outside of the input and
// ErrRecursionLimit.
func (m *Matcher) Match(rule string, input Input, start int) (Outcome, error) {
	if err := m.checkRule(rule); err != nil {
		return Outcome{}, err
	}
	if start < 0 || start > input.Len() {
		return Outcome{}, errors.Errorf("start position %d is outside of the input [0, %d]", start, input.Len())
	}
	s := m.newMatchState(input)
	matches, err := s.run(rule, start)
	if err != nil {
		return Outcome{}, err
	}
	var longest *branch
	for i := range matches {
		if longest == nil || matches[i].end > longest.end {
			longest = &matches[i]
		}
	}
	return s.outcome(rule, start, longest), nil
}

// Parse matches the start rule against the entire input.  The error
// is a *Failure when no derivation covers the input, an *Ambiguity
// when more than one does, or ErrRecursionLimit.
func (m *Matcher) Parse(input Input) (*Node, error) {
	return m.ParseRule(m.grammar.start, input)
}

// ParseRule is like Parse but starts from `rule`
func (m *Matcher) ParseRule(rule string, input Input) (*Node, error) {
	if err := m.checkRule(rule); err != nil {
		return nil, err
	}
	s := m.newMatchState(input)
	matches, err := s.run(rule, 0)
	if err != nil {
		return nil, err
	}
	var complete *branch
	for i := range matches {
		if matches[i].end == input.Len() {
			complete = &matches[i]
		}
	}
	if complete == nil {
		// derivations that stopped short are reported as failures
		// at the point they stopped
		for _, b := range matches {
			s.ffp.fail(b.end, "end of input", &frame{rule: rule})
		}
	}
	out := s.outcome(rule, 0, complete)
	if out.State != Succeeded {
		return nil, out.Err()
	}
	return out.Node, nil
}

// checkRule makes sure `rule` is defined
func (m *Matcher) checkRule(rule string) error {
	if _, ok := m.grammar.ruleID(rule); !ok {
		return errors.Wrapf(ErrUnknownRule, "rule %q", rule)
	}
	return nil
}

// matchState is the state owned by a single top-level call
type matchState struct {
	*Matcher
	input Input
	memo  map[memoKey]*memoEntry
	ffp   failureTracker
	frame *frame
	depth int
}

type memoKey struct{ rule, pos int }

type memoEntry struct {
	state   State
	matches []branch
}

// branch is one derivation of an expression: where it ended and the
// nodes it produced.  Evaluating an expression yields at most one
// branch per end position; amb is set when more than one distinct
// derivation reached that end.
type branch struct {
	end   int
	nodes *nodeList
	amb   *Ambiguity
	alt   int
}

// extend appends the derivation `next` to `b`
func (b branch) extend(next branch) branch {
	amb := b.amb
	if amb == nil {
		amb = next.amb
	}
	return branch{end: next.end, nodes: b.nodes.concat(next.nodes), amb: amb}
}

// nodeList is a persistent list of nodes, most recent first.
// Derivations that share a prefix share its cells.
type nodeList struct {
	node *Node
	prev *nodeList
	size int
}

func (l *nodeList) len() int {
	if l == nil {
		return 0
	}
	return l.size
}

func (l *nodeList) push(n *Node) *nodeList {
	return &nodeList{node: n, prev: l, size: l.len() + 1}
}

func (l *nodeList) concat(tail *nodeList) *nodeList {
	if l == nil {
		return tail
	}
	for _, n := range tail.slice() {
		l = l.push(n)
	}
	return l
}

// slice returns the nodes in the order they were pushed
func (l *nodeList) slice() []*Node {
	if l == nil {
		return nil
	}
	nodes := make([]*Node, l.size)
	for i := l.size - 1; l != nil; i, l = i-1, l.prev {
		nodes[i] = l.node
	}
	return nodes
}

func listsEqual(a, b *nodeList) bool {
	if a.len() != b.len() {
		return false
	}
	for ; a != nil; a, b = a.prev, b.prev {
		if a != b && !a.node.Equal(b.node) {
			return false
		}
	}
	return true
}

// frame is an element of the stack of active rule invocations.
// Frames are never modified, so the failure tracker can hold on to
// one without copying the stack.
type frame struct {
	rule   string
	parent *frame
}

func (f *frame) path() []string {
	var path []string
	for ; f != nil; f = f.parent {
		path = append(path, f.rule)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (m *Matcher) newMatchState(input Input) *matchState {
	return &matchState{
		Matcher: m,
		input:   input,
		memo:    make(map[memoKey]*memoEntry),
		ffp:     failureTracker{pos: -1},
	}
}

type recursionLimit struct{}

// run invokes the rule and converts the unwinding triggered by the
// recursion limit into ErrRecursionLimit
func (s *matchState) run(rule string, start int) (matches []branch, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(recursionLimit); !ok {
				panic(r)
			}
			err = errors.Wrapf(ErrRecursionLimit, "more than %d nested rules", s.maxDepth)
		}
	}()
	return s.invoke(rule, start), nil
}

// outcome describes the accepted derivation `b`, or the furthest
// failure when there's none
func (s *matchState) outcome(rule string, start int, b *branch) Outcome {
	switch {
	case b == nil:
		return Outcome{State: Failed, Failure: s.ffp.failure(s.input, rule, start)}
	case b.amb != nil:
		return Outcome{State: Ambiguous, Ambiguity: b.amb}
	default:
		return Outcome{State: Succeeded, Node: b.nodes.node, End: b.end}
	}
}

// invoke evaluates a rule at `pos`, at most once per position, and
// returns one rule node per position the rule can end at.  A rule
// entered again at the same position before its first evaluation
// finished is left recursive and fails right away.
func (s *matchState) invoke(name string, pos int) []branch {
	id, ok := s.grammar.ruleID(name)
	if !ok {
		panic(&InvariantViolation{Message: fmt.Sprintf("reference to undefined rule '%s'", name)})
	}
	key := memoKey{rule: id, pos: pos}
	if entry, ok := s.memo[key]; ok {
		if entry.state == Pending {
			return nil
		}
		return entry.matches
	}
	entry := &memoEntry{state: Pending}
	s.memo[key] = entry

	s.enter(name, pos)
	body := s.eval(s.grammar.rules[id].expr, pos)
	s.leave(name, pos, body)

	entry.state = Failed
	if len(body) > 0 {
		entry.state = Succeeded
	}
	entry.matches = make([]branch, len(body))
	for i, b := range body {
		node := newRuleNode(name, pos, b.end, tokenChildren(b.nodes.slice(), pos, b.end))
		entry.matches[i] = branch{end: b.end, nodes: (*nodeList)(nil).push(node), amb: b.amb}
	}
	return entry.matches
}

// tokenChildren drops the only child of a rule when it's a terminal
// covering the rule's whole span, so rules like `Digits : @digits ;`
// become leaves.  The text is still available through Node.Text.
func tokenChildren(nodes []*Node, start, end int) []*Node {
	if len(nodes) == 1 && nodes[0].Kind == TerminalNode && nodes[0].Range() == NewRange(start, end) {
		return nil
	}
	return nodes
}

func (s *matchState) enter(name string, pos int) {
	s.depth++
	if s.maxDepth > 0 && s.depth > s.maxDepth {
		panic(recursionLimit{})
	}
	s.frame = &frame{rule: name, parent: s.frame}
	if s.trace {
		s.logger.Trace("enter", "rule", name, "pos", pos)
	}
}

func (s *matchState) leave(name string, pos int, body []branch) {
	if s.trace {
		state, end := Failed, pos
		for _, b := range body {
			state, end = Succeeded, max(end, b.end)
		}
		s.logger.Trace("leave", "rule", name, "pos", pos, "state", state.String(), "end", end, "derivations", len(body))
	}
	s.frame = s.frame.parent
	s.depth--
}

// eval returns every derivation of `expr` starting at `pos`, at most
// one per end position.  No derivations means the expression failed.
func (s *matchState) eval(expr Expr, pos int) []branch {
	switch e := expr.(type) {
	case *Literal:
		if n, ok := s.input.Literal(pos, e.value); ok {
			return s.terminal(e, pos, pos+n)
		}
		s.ffp.fail(pos, e.Text(), s.frame)
		return nil

	case Builtin:
		if n, ok := e.Match(s.input, pos); ok {
			return s.terminal(e, pos, pos+n)
		}
		s.ffp.fail(pos, e.Text(), s.frame)
		return nil

	case *RuleRef:
		matches := s.invoke(e.name, pos)
		refs := make([]branch, len(matches))
		for i, m := range matches {
			refs[i] = branch{end: m.end, nodes: s.splice(m.nodes.node), amb: m.amb}
		}
		return refs

	case *Sequence:
		return s.sequence(e, pos)

	case *Alternation:
		return s.alternation(e, pos)

	case *Optional:
		if matches := s.eval(e.expr, pos); len(matches) > 0 {
			return matches
		}
		return []branch{{end: pos}}

	case *Many:
		return s.repeat(e.expr, pos, 0)

	case *OneOrMore:
		return s.repeat(e.expr, pos, 1)

	default:
		panic(&InvariantViolation{Message: fmt.Sprintf("unknown expression %T", e)})
	}
}

func (s *matchState) terminal(expr Expr, start, end int) []branch {
	return []branch{{end: end, nodes: s.splice(newTerminalNode(expr.Text(), start, end))}}
}

// splice returns what gets added to the parent's children for
// `node`: nothing for empty nodes, unless configured to keep them.
// Zero-width nodes are copied since the same memoized node can show
// up more than once within a tree.
func (s *matchState) splice(node *Node) *nodeList {
	if node.Range().Empty() {
		if !s.keepEmpty && node.IsEmpty() {
			return nil
		}
		node = node.clone()
	}
	return (*nodeList)(nil).push(node)
}

// sequence threads every derivation of each item into the next one
func (s *matchState) sequence(e *Sequence, pos int) []branch {
	frontier := []branch{{end: pos}}
	for _, item := range e.items {
		var next branchSet
		for _, b := range frontier {
			for _, m := range s.eval(item, b.end) {
				s.merge(&next, b.extend(m), pos)
			}
		}
		if len(next.branches) == 0 {
			return nil
		}
		frontier = next.branches
	}
	return frontier
}

// repeat matches `expr` greedily, at least `atLeast` times.  A
// derivation stops at the first iteration that fails or doesn't
// advance, and that iteration isn't kept, so the loop always
// terminates.
func (s *matchState) repeat(expr Expr, pos, atLeast int) []branch {
	var (
		done     branchSet
		frontier = []branch{{end: pos}}
	)
	for count := 0; len(frontier) > 0; count++ {
		var next branchSet
		for _, b := range frontier {
			matches := s.eval(expr, b.end)
			advanced := false
			for _, m := range matches {
				if m.end > b.end {
					advanced = true
					s.merge(&next, b.extend(m), pos)
				}
			}
			if !advanced && (count >= atLeast || len(matches) > 0) {
				s.merge(&done, b, pos)
			}
		}
		frontier = next.branches
	}
	return done.branches
}

// failureTracker remembers the furthest position a terminal failed
// at, the rules active there and the terminals expected there
type failureTracker struct {
	pos      int
	frame    *frame
	expected []string
}

func (t *failureTracker) fail(pos int, expected string, f *frame) {
	if pos > t.pos {
		t.pos = pos
		t.frame = f
		t.expected = t.expected[:0]
	}
	if pos < t.pos {
		return
	}
	for _, e := range t.expected {
		if e == expected {
			return
		}
	}
	t.expected = append(t.expected, expected)
}

func (t *failureTracker) failure(input Input, rule string, start int) *Failure {
	f := &Failure{Pos: t.pos, Path: t.frame.path()}
	if t.pos < 0 {
		// nothing was ever attempted, like when the only thing a
		// rule does is to call itself
		f.Pos = start
		f.Path = []string{rule}
	} else {
		f.Expected = append([]string(nil), t.expected...)
	}
	f.EOF = f.Pos >= input.Len()
	f.Found = describeAt(input, f.Pos)
	return f
}
