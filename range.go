package parsley

import "fmt"

// Range is a half open [Start, End) interval of input positions
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Empty is true for zero-width ranges
func (r Range) Empty() bool { return r.Start == r.End }
