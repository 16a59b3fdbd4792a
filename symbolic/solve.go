package symbolic

import (
	"errors"
	"fmt"
)

// ============================================================
// Equation
// ============================================================

// Equation is LHS = RHS.
type Equation struct{ LHS, RHS Expr }

func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }
func (e *Equation) String() string {
	return e.LHS.String() + " = " + e.RHS.String()
}

// Residual returns LHS - RHS.
func (e *Equation) Residual() Expr {
	return AddOf(e.LHS, MulOf(N(-1), e.RHS))
}

// ============================================================
// Solvers
// ============================================================

var (
	// ErrNotLinear reports an expression that is not linear in the
	// requested symbol.
	ErrNotLinear = errors.New("symbolic: expression is not linear")
	// ErrNoSolution reports an inconsistent or indeterminate equation.
	ErrNoSolution = errors.New("symbolic: no unique solution")
)

type SolveResult struct {
	Solutions []Expr
	ExactForm bool
	Error     string
}

// SolveLinear solves a*x + b = 0 for x.
func SolveLinear(a, b Expr) SolveResult {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	if aok && bok {
		if an.IsZero() {
			if bn.IsZero() {
				return SolveResult{Error: "identity (0 = 0): infinite solutions"}
			}
			return SolveResult{Error: "no solution (inconsistent)"}
		}
		return SolveResult{Solutions: []Expr{numMul(numNeg(bn), numRecip(an))}, ExactForm: true}
	}
	if isNumEqual(a, 0) {
		return SolveResult{Error: "no solution (zero coefficient)"}
	}
	return SolveResult{Solutions: []Expr{MulOf(N(-1), b, PowOf(a, N(-1)))}}
}

// SolveFor solves expr = 0 for varName when expr is linear in it.
func SolveFor(expr Expr, varName string) ([]Expr, error) {
	a, b, err := LinearCoefficients(expr, varName)
	if err != nil {
		return nil, err
	}
	res := SolveLinear(a, b)
	if res.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSolution, res.Error)
	}
	return res.Solutions, nil
}

// LinearCoefficients writes expr as a*varName + b with a and b free of
// varName.
func LinearCoefficients(expr Expr, varName string) (a, b Expr, err error) {
	e := Expand(expr)
	terms := []Expr{e}
	if add, ok := e.(*Add); ok {
		terms = add.terms
	}
	var as, bs []Expr
	for _, t := range terms {
		if !DependsOn(t, varName) {
			bs = append(bs, t)
			continue
		}
		c, ok := linearCoefficient(t, varName)
		if !ok {
			return nil, nil, fmt.Errorf("%w: term %s in %s", ErrNotLinear, t, varName)
		}
		as = append(as, c)
	}
	if len(as) == 0 {
		return nil, nil, fmt.Errorf("%w: %s does not occur", ErrNotLinear, varName)
	}
	return AddOf(as...), AddOf(bs...), nil
}

func linearCoefficient(t Expr, varName string) (Expr, bool) {
	switch v := t.(type) {
	case *Sym:
		return N(1), v.name == varName
	case *Mul:
		var rest []Expr
		seen := false
		for _, f := range v.factors {
			if s, ok := f.(*Sym); ok && s.name == varName && !seen {
				seen = true
				continue
			}
			if DependsOn(f, varName) {
				return nil, false
			}
			rest = append(rest, f)
		}
		return MulOf(rest...), seen
	}
	return nil, false
}
