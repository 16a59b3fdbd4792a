package symbolic

// Rewrite rebuilds e bottom-up, replacing every node for which fn
// returns true. Rebuilt nodes are simplified.
func Rewrite(e Expr, fn func(Expr) (Expr, bool)) Expr {
	var out Expr
	switch v := e.(type) {
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = Rewrite(t, fn)
		}
		out = AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = Rewrite(f, fn)
		}
		out = MulOf(factors...)
	case *Pow:
		out = PowOf(Rewrite(v.base, fn), Rewrite(v.exp, fn))
	case *Func:
		out = funcOf(v.name, Rewrite(v.arg, fn))
	default:
		out = e
	}
	if r, ok := fn(out); ok {
		return r.Simplify()
	}
	return out.Simplify()
}

// Addends returns the terms of a sum, or e itself.
func Addends(e Expr) []Expr { return addends(e) }

// Factors returns the factors of a product, or e itself.
func Factors(e Expr) []Expr {
	if m, ok := e.(*Mul); ok {
		return m.factors
	}
	return []Expr{e}
}
