package limit

import (
	"errors"
	"fmt"
	"math"

	"github.com/njchilds90/calcsteps/symbolic"
)

var (
	errNoPattern   = errors.New("pattern does not match")
	errStillUndef  = errors.New("rewritten expression is still undefined at the point")
	errNoLimitHere = errors.New("one-sided limits disagree")
)

// evalAt evaluates x at the finite point and requires a finite value.
func (e *Engine) evalAt(x symbolic.Expr, p *problem) (float64, error) {
	v, err := e.eval(x, p.v, p.point.Float64())
	if err != nil {
		return v, fmt.Errorf("%w: %w", errStillUndef, err)
	}
	return v, nil
}

// squareRoot returns r with r^2 = x for perfect squares: positive
// rationals with an exact root and even integer powers, factor by factor.
func squareRoot(x symbolic.Expr) (symbolic.Expr, bool) {
	switch n := x.(type) {
	case *symbolic.Num:
		if !n.IsPositive() {
			return nil, false
		}
		r := symbolic.PowOf(n, symbolic.F(1, 2))
		_, exact := r.(*symbolic.Num)
		return r, exact
	case *symbolic.Pow:
		en, ok := n.ExpExpr().(*symbolic.Num)
		if !ok || !en.IsInteger() || en.Rat().Num().Bit(0) != 0 || !en.IsPositive() {
			return nil, false
		}
		return symbolic.PowOf(n.Base(), symbolic.MulOf(en, symbolic.F(1, 2))), true
	case *symbolic.Mul:
		roots := make([]symbolic.Expr, 0, len(n.Factors()))
		for _, f := range n.Factors() {
			r, ok := squareRoot(f)
			if !ok {
				return nil, false
			}
			roots = append(roots, r)
		}
		return symbolic.MulOf(roots...), true
	}
	return nil, false
}

func isNegative(t symbolic.Expr) bool {
	if n, ok := t.(*symbolic.Num); ok {
		return n.IsNegative()
	}
	c, _ := symbolic.Coefficient(t)
	return c.IsNegative()
}

// differenceOfSquares factors a numerator A^2 - B as (A + sqrt(B))*(A - sqrt(B)).
func (e *Engine) differenceOfSquares(p *problem) (Value, error) {
	terms := symbolic.Addends(e.alg.Simplify(p.num))
	if len(terms) != 2 {
		return Null, fmt.Errorf("%w: numerator is not a two-term difference", errNoPattern)
	}
	pos, neg := terms[0], terms[1]
	if isNegative(pos) {
		pos, neg = neg, pos
	}
	if !isNegative(neg) || isNegative(pos) {
		return Null, fmt.Errorf("%w: numerator is not a difference", errNoPattern)
	}
	a, ok := squareRoot(pos)
	if !ok {
		return Null, fmt.Errorf("%w: %s is not a square", errNoPattern, e.alg.Render(pos))
	}
	b := symbolic.MulOf(symbolic.N(-1), neg)
	rb, ok := squareRoot(b)
	if !ok {
		n, isNum := b.(*symbolic.Num)
		if !isNum || !n.IsPositive() {
			return Null, fmt.Errorf("%w: %s is not a square", errNoPattern, e.alg.Render(b))
		}
		rb = symbolic.SqrtOf(n)
	}
	plus := symbolic.AddOf(a, rb)
	minus := symbolic.AddOf(a, symbolic.MulOf(symbolic.N(-1), rb))
	factored := symbolic.RawMul(plus, minus)
	p.b.Result("Difference of squares", fmt.Sprintf("%s = %s", e.alg.Render(p.num), factored), factored.String())

	reduced := symbolic.MulOf(plus, minus, symbolic.PowOf(p.den, symbolic.N(-1)))
	p.b.Result("Cancel", fmt.Sprintf("%s/(%s) = %s", factored, e.alg.Render(p.den), e.alg.Render(reduced)), e.alg.Render(reduced))
	v, err := e.evalAt(reduced, p)
	if err != nil {
		return Null, err
	}
	p.b.Result("Evaluate", fmt.Sprintf("Substituting %s = %s gives %s", p.v, p.point, Number(v)), Number(v).String())
	return Number(v), nil
}

// commonFactor cancels the polynomial GCD of numerator and denominator.
func (e *Engine) commonFactor(p *problem) (Value, error) {
	reduced, ok := e.alg.Cancel(p.num, p.den, p.v)
	if !ok {
		return Null, fmt.Errorf("%w: no common polynomial factor", errNoPattern)
	}
	for _, side := range []symbolic.Expr{p.num, p.den} {
		if fs, ok := e.alg.Factor(side, p.v); ok && len(fs) > 1 {
			factored := symbolic.RawMul(fs...)
			p.b.Result("Factor", fmt.Sprintf("%s = %s", e.alg.Render(side), factored), factored.String())
		}
	}
	p.b.Result("Cancel common factor", fmt.Sprintf("%s = %s", e.alg.Render(p.expr), e.alg.Render(reduced)), e.alg.Render(reduced))
	v, err := e.evalAt(reduced, p)
	if err != nil {
		return Null, err
	}
	p.b.Result("Evaluate", fmt.Sprintf("Substituting %s = %s gives %s", p.v, p.point, Number(v)), Number(v).String())
	return Number(v), nil
}

// radicalPair splits a two-term sum containing a square root into a and b
// with x = a + b.
func radicalPair(x symbolic.Expr) (a, b symbolic.Expr, ok bool) {
	terms := symbolic.Addends(x)
	if len(terms) != 2 {
		return nil, nil, false
	}
	if !hasSqrt(terms[0]) && !hasSqrt(terms[1]) {
		return nil, nil, false
	}
	return terms[0], terms[1], true
}

func hasSqrt(t symbolic.Expr) bool {
	_, rest := symbolic.Coefficient(t)
	_, ok := symbolic.IsSqrt(rest)
	return ok
}

// conjugate rationalizes a numerator or denominator of the form
// sqrt(E1) - sqrt(E2) or sqrt(E1) - c.
func (e *Engine) conjugate(p *problem) (Value, error) {
	num, den := e.alg.Simplify(p.num), e.alg.Simplify(p.den)
	onTop := true
	a, b, ok := radicalPair(num)
	if !ok {
		onTop = false
		if a, b, ok = radicalPair(den); !ok {
			return Null, fmt.Errorf("%w: no square root difference to rationalize", errNoPattern)
		}
	}
	conj := symbolic.AddOf(a, symbolic.MulOf(symbolic.N(-1), b))
	// (a + b)(a - b) = a^2 - b^2 with the roots removed.
	squared := e.alg.Expand(symbolic.AddOf(symbolic.PowOf(a, symbolic.N(2)), symbolic.MulOf(symbolic.N(-1), symbolic.PowOf(b, symbolic.N(2)))))
	which := "numerator"
	if !onTop {
		which = "denominator"
	}
	p.b.Result("Multiply by the conjugate", fmt.Sprintf("Multiply the %s and the other part by %s: (%s)*(%s) = %s",
		which, conj, e.alg.Render(symbolic.AddOf(a, b)), conj, e.alg.Render(squared)), e.alg.Render(squared))

	var reduced symbolic.Expr
	if onTop {
		rest, ok := e.alg.Cancel(squared, den, p.v)
		if !ok {
			rest = symbolic.MulOf(squared, symbolic.PowOf(den, symbolic.N(-1)))
		}
		reduced = symbolic.MulOf(rest, symbolic.PowOf(conj, symbolic.N(-1)))
	} else {
		rest, ok := e.alg.Cancel(num, squared, p.v)
		if !ok {
			rest = symbolic.MulOf(num, symbolic.PowOf(squared, symbolic.N(-1)))
		}
		reduced = symbolic.MulOf(rest, conj)
	}
	p.b.Result("Simplify", fmt.Sprintf("The expression becomes %s", e.alg.Render(reduced)), e.alg.Render(reduced))
	v, err := e.evalAt(reduced, p)
	if err != nil {
		return Null, err
	}
	p.b.Result("Evaluate", fmt.Sprintf("Substituting %s = %s gives %s", p.v, p.point, Number(v)), Number(v).String())
	return Number(v), nil
}

// lhopital differentiates numerator and denominator until the quotient
// of their values at the point is determined.
func (e *Engine) lhopital(p *problem) (Value, error) {
	if !p.fraction {
		return Null, fmt.Errorf("%w: not a quotient", errNoPattern)
	}
	num, den := p.num, p.den
	for round := 1; round <= maxLHopital; round++ {
		num = e.alg.Derivative(num, p.v)
		den = e.alg.Derivative(den, p.v)
		p.b.Add(fmt.Sprintf("L'Hôpital's rule, round %d", round),
			fmt.Sprintf("Differentiate numerator and denominator: %s over %s", e.alg.Render(num), e.alg.Render(den)))
		n, nerr := e.evalAt(num, p)
		d, derr := e.evalAt(den, p)
		if nerr != nil || derr != nil {
			return Null, errors.Join(nerr, derr)
		}
		if d != 0 {
			v := n / d
			p.b.Result("Evaluate", fmt.Sprintf("At %s = %s the quotient is %s/%s = %s", p.v, p.point, Number(n), Number(d), Number(v)), Number(v).String())
			return Number(v), nil
		}
		if n != 0 {
			return Null, fmt.Errorf("%w: denominator vanishes after %d rounds", errNoPattern, round)
		}
	}
	return Null, fmt.Errorf("%w: still 0/0 after %d rounds", errNoPattern, maxLHopital)
}

// sides evaluates the expression just left and right of the point.
func (e *Engine) sides(p *problem) (left, right float64, lerr, rerr error) {
	at := p.point.Float64()
	left, lerr = e.eval(p.expr, p.v, at-e.epsilon)
	right, rerr = e.eval(p.expr, p.v, at+e.epsilon)
	return
}

// numerical averages the values at point ± epsilon, falling back to a
// one-sided value when the other side is undefined.
func (e *Engine) numerical(p *problem) (Value, error) {
	left, right, lerr, rerr := e.sides(p)
	eps := Number(e.epsilon)
	switch {
	case lerr == nil && rerr == nil:
		p.b.Add("Numerical approximation", fmt.Sprintf("f(%s - %s) = %s and f(%s + %s) = %s", p.point, eps, Number(left), p.point, eps, Number(right)))
		if math.Abs(left) > e.threshold || math.Abs(right) > e.threshold {
			return e.divergent(left, right)
		}
		v := e.round((left + right) / 2)
		p.b.Result("Average", fmt.Sprintf("The average rounded to %d decimals is %s", e.decimals, Number(v)), Number(v).String())
		return Number(v), nil
	case lerr == nil || rerr == nil:
		side, v, which := "left", left, "-"
		if rerr == nil {
			side, v, which = "right", right, "+"
		}
		p.b.Add("Numerical approximation", fmt.Sprintf("Only the %s side is defined: f(%s %s %s) = %s", side, p.point, which, eps, Number(v)))
		if math.Abs(v) > e.threshold {
			return Infinity(sign(v)), nil
		}
		dir := 1.0
		if which == "-" {
			dir = -1
		}
		return e.oneSided(p, side, dir)
	}
	return Null, fmt.Errorf("undefined on both sides: %w", errors.Join(lerr, rerr))
}

// oneSided samples the defined side at epsilon, epsilon/10 and
// epsilon/100. Magnitudes that keep growing by steps that do not shrink
// mean divergence; otherwise the samples are extrapolated with Aitken's
// delta-squared process.
func (e *Engine) oneSided(p *problem, side string, dir float64) (Value, error) {
	at := p.point.Float64()
	h := e.epsilon
	var vs [3]float64
	for i := range vs {
		v, err := e.eval(p.expr, p.v, at+dir*h)
		if err != nil {
			return Null, fmt.Errorf("%w: %s side at distance %s: %w", errStillUndef, side, Number(h), err)
		}
		vs[i] = v
		h /= 10
	}
	p.b.Add("One-sided samples", fmt.Sprintf("Approaching from the %s: %s, %s, %s",
		side, Number(vs[0]), Number(vs[1]), Number(vs[2])))

	d1, d2 := vs[1]-vs[0], vs[2]-vs[1]
	growing := math.Abs(vs[2]) > math.Abs(vs[1]) && math.Abs(vs[1]) > math.Abs(vs[0])
	if math.Abs(vs[2]) > e.threshold || (growing && math.Abs(d2) >= math.Abs(d1)/2 && sign(d1) == sign(d2)) {
		val := Infinity(sign(vs[2]))
		p.b.Result("One-sided divergence", fmt.Sprintf("The values keep growing without settling, so the %s-hand limit is %s", side, val), val.String())
		return val, nil
	}
	est := vs[2]
	if d2 != d1 && d1 != 0 && d2 != 0 {
		est = vs[2] - d2*d2/(d2-d1)
	}
	r := e.round(est)
	p.b.Result("One-sided value", fmt.Sprintf("The %s-hand values settle at %s (rounded to %d decimals); this is a one-sided limit",
		side, Number(r), e.decimals), Number(r).String())
	return Number(r), nil
}

func (e *Engine) divergent(left, right float64) (Value, error) {
	if sign(left) != sign(right) {
		return Null, fmt.Errorf("%w: the left side tends to %s and the right side to %s", errNoLimitHere, Infinity(sign(left)), Infinity(sign(right)))
	}
	return Infinity(sign(left)), nil
}

// signAnalysis decides k/0 forms from the sign on each side.
func (e *Engine) signAnalysis(p *problem) (Value, error) {
	left, right, lerr, rerr := e.sides(p)
	if lerr != nil && rerr != nil {
		return Null, errors.Join(lerr, rerr)
	}
	switch {
	case lerr != nil:
		left = right
	case rerr != nil:
		right = left
	}
	p.b.Add("Sign analysis", fmt.Sprintf("Near %s the expression is %s on the left and %s on the right",
		p.point, signWord(left), signWord(right)))
	return e.divergent(left, right)
}

func sign(f float64) int {
	if f < 0 {
		return -1
	}
	return 1
}

func signWord(f float64) string {
	if f < 0 {
		return "negative"
	}
	return "positive"
}
