// Package classify decides which differentiation rule fits the top of an
// expression tree. Matching is done on the parsed tree, so operators
// nested inside parentheses never affect the outcome.
package classify

import (
	"fmt"

	"github.com/njchilds90/calcsteps/adapter"
	"github.com/njchilds90/calcsteps/symbolic"
)

// Kind is the structural shape of an expression.
type Kind string

const (
	Sum      Kind = "sum"
	Product  Kind = "product"
	Quotient Kind = "quotient"
	Power    Kind = "power"
	Chain    Kind = "chain"
	Simple   Kind = "simple"
)

// Match is the outcome of classification together with the parts the
// matching rule needs.
type Match struct {
	Kind Kind

	// Terms holds the addends of a sum.
	Terms []symbolic.Expr
	// Factors holds every factor of a product.
	Factors []symbolic.Expr

	// Left and Right are the first factor and the remaining product, the
	// numerator and denominator of a quotient, or the base and exponent
	// of a power.
	Left, Right symbolic.Expr

	// Func and Inner describe a chain composition func(inner).
	Func  string
	Inner symbolic.Expr
}

// Classify inspects the top node of e. Precedence, first match wins:
// sum, product, quotient, power, chain, simple.
func Classify(e symbolic.Expr, v string) Match {
	switch n := e.(type) {
	case *symbolic.Add:
		return Match{Kind: Sum, Terms: n.Terms()}
	case *symbolic.Mul:
		if num, den, ok := symbolic.NumerDenom(n); ok {
			return Match{Kind: Quotient, Left: num, Right: den}
		}
		fs := n.Factors()
		return Match{Kind: Product, Factors: fs, Left: fs[0], Right: symbolic.MulOf(fs[1:]...)}
	case *symbolic.Pow:
		if radicand, ok := symbolic.IsSqrt(n); ok {
			return Match{Kind: Chain, Func: "sqrt", Inner: radicand}
		}
		if exp, ok := n.ExpExpr().(*symbolic.Num); ok && exp.IsNegative() && !isVar(n.Base(), v) {
			num, den, _ := symbolic.NumerDenom(n)
			return Match{Kind: Quotient, Left: num, Right: den}
		}
		return Match{Kind: Power, Left: n.Base(), Right: n.ExpExpr()}
	case *symbolic.Func:
		if symbolic.IsKnownFunc(n.FuncName()) {
			return Match{Kind: Chain, Func: n.FuncName(), Inner: n.Arg()}
		}
	}
	return Match{Kind: Simple}
}

// ClassifyString parses s and classifies it.
func ClassifyString(alg adapter.Algebra, s, v string) (Match, error) {
	e, err := alg.Parse(s)
	if err != nil {
		return Match{}, err
	}
	return Classify(e, v), nil
}

func isVar(e symbolic.Expr, v string) bool {
	s, ok := e.(*symbolic.Sym)
	return ok && s.Name() == v
}

// Describe renders the match for narration.
func (m Match) Describe() string {
	switch m.Kind {
	case Sum:
		return fmt.Sprintf("a sum of %d terms", len(m.Terms))
	case Product:
		if len(m.Factors) > 2 {
			return fmt.Sprintf("a product of %d factors", len(m.Factors))
		}
		return fmt.Sprintf("a product of %s and %s", m.Left, m.Right)
	case Quotient:
		return fmt.Sprintf("a quotient with numerator %s and denominator %s", m.Left, m.Right)
	case Power:
		return fmt.Sprintf("a power with base %s and exponent %s", m.Left, m.Right)
	case Chain:
		return fmt.Sprintf("the composition %s(u) with inner function u = %s", m.Func, m.Inner)
	}
	return "an elementary expression"
}
