package parsley

import "fmt"

// Inspect traverses an expression tree in depth-first order, children
// in declaration order.  It starts by calling f(expr), which must not
// be nil.  If f returns true, Inspect is called recursively for each
// of the children of expr.  Rule references are not followed.
//
// Example:
//
//	Inspect(rule.Expr(), func(e Expr) bool {
//	    if ref, ok := e.(*RuleRef); ok {
//	        fmt.Println(ref.Name())
//	    }
//	    return true
//	})
func Inspect(expr Expr, f func(Expr) bool) {
	if expr == nil || !f(expr) {
		return
	}
	switch e := expr.(type) {
	case *Sequence:
		for _, item := range e.items {
			Inspect(item, f)
		}
	case *Alternation:
		for _, item := range e.items {
			Inspect(item, f)
		}
	case *Optional:
		Inspect(e.expr, f)
	case *Many:
		Inspect(e.expr, f)
	case *OneOrMore:
		Inspect(e.expr, f)
	case *Literal, Builtin, *RuleRef:
		// Leaf nodes, so no children to traverse
	default:
		panic(fmt.Sprintf("Inspect is outdated, missing expression %T", e))
	}
}

// findReferences returns the names referenced within expr in the
// order they appear
func findReferences(expr Expr) []string {
	var names []string
	Inspect(expr, func(e Expr) bool {
		if ref, ok := e.(*RuleRef); ok {
			names = append(names, ref.name)
		}
		return true
	})
	return names
}
