package parsley

// alternation tries every alternative, in declaration order, at the
// same position, and keeps the derivations of all of them.  Whether
// two derivations compete is only known once they end at the same
// position, which is what merge decides.
func (s *matchState) alternation(e *Alternation, pos int) []branch {
	var matches branchSet
	for i, item := range e.items {
		for _, m := range s.eval(item, pos) {
			m.alt = i + 1
			s.merge(&matches, m, pos)
		}
	}
	return matches.branches
}

// branchSet holds derivations that started at the same position, at
// most one per end position
type branchSet struct {
	branches []branch
	ends     map[int]int
}

// merge adds `b` to a set of derivations that started at `pos`.  A
// derivation ending where another one already does is dropped when
// both built the same tree; otherwise the one in the set is marked as
// ambiguous.  The ambiguity only matters if that derivation ends up
// accepted, so it is never settled by picking one of them.
func (s *matchState) merge(set *branchSet, b branch, pos int) {
	i, ok := set.ends[b.end]
	if !ok {
		if set.ends == nil {
			set.ends = make(map[int]int)
		}
		set.ends[b.end] = len(set.branches)
		set.branches = append(set.branches, b)
		return
	}
	cur := &set.branches[i]
	switch {
	case cur.amb != nil:
	case b.amb != nil:
		cur.amb = b.amb
	case !listsEqual(cur.nodes, b.nodes):
		cur.amb = s.ambiguity(pos, *cur, b)
	}
}

func (s *matchState) ambiguity(pos int, first, second branch) *Ambiguity {
	amb := &Ambiguity{
		Pos:  pos,
		End:  first.end,
		Path: s.frame.path(),
		Candidates: []Candidate{
			{Alternative: first.alt, Children: first.nodes.slice()},
			{Alternative: second.alt, Children: second.nodes.slice()},
		},
	}
	if s.frame != nil {
		amb.Rule = s.frame.rule
	}
	if s.trace {
		s.logger.Trace("ambiguity", "rule", amb.Rule, "pos", pos, "end", amb.End)
	}
	return amb
}
