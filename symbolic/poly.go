package symbolic

import (
	"math"
	"math/big"
)

// ============================================================
// Top-level helpers
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

// Expand distributes products over sums and expands small integer powers.
func Expand(e Expr) Expr { return expandExpr(e.Simplify()).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			a, ok := f.(*Add)
			if !ok {
				continue
			}
			rest := make([]Expr, 0, len(expanded)-1)
			rest = append(rest, expanded[:i]...)
			rest = append(rest, expanded[i+1:]...)
			terms := make([]Expr, len(a.terms))
			for k, t := range a.terms {
				terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
			}
			return expandExpr(AddOf(terms...))
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			exp := n.val.Num().Int64()
			if exp >= 0 && exp <= 10 {
				result := Expr(N(1))
				base := expandExpr(v.base)
				for i := int64(0); i < exp; i++ {
					result = distribute(result, base)
				}
				return result
			}
		}
		return PowOf(expandExpr(v.base), expandExpr(v.exp))
	}
	return e
}

// distribute multiplies two expanded expressions term by term. Going
// through MulOf directly would fold equal sums back into a power.
func distribute(a, b Expr) Expr {
	var terms []Expr
	for _, ta := range addends(a) {
		for _, tb := range addends(b) {
			terms = append(terms, MulOf(ta, tb))
		}
	}
	return AddOf(terms...)
}

func addends(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Free symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

// DependsOn reports whether varName occurs in e.
func DependsOn(e Expr, varName string) bool {
	_, ok := FreeSymbols(e)[varName]
	return ok
}

// ============================================================
// Polynomial utilities
// ============================================================

func Degree(expr Expr, varName string) int {
	expr = expr.Simplify()
	switch v := expr.(type) {
	case *Sym:
		if v.name == varName {
			return 1
		}
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() {
				return int(n.val.Num().Int64())
			}
		}
	case *Add:
		maxDeg := 0
		for _, t := range v.terms {
			if d := Degree(t, varName); d > maxDeg {
				maxDeg = d
			}
		}
		return maxDeg
	case *Mul:
		totalDeg := 0
		for _, f := range v.factors {
			totalDeg += Degree(f, varName)
		}
		return totalDeg
	}
	return 0
}

type PolyCoeffsResult map[int]Expr

func PolyCoeffs(expr Expr, varName string) PolyCoeffsResult {
	result := PolyCoeffsResult{}
	extractCoeffs(Expand(expr), varName, result)
	return result
}

func extractCoeffs(e Expr, varName string, out PolyCoeffsResult) {
	switch v := e.(type) {
	case *Num:
		addCoeff(out, 0, v)
	case *Sym:
		if v.name == varName {
			addCoeff(out, 1, N(1))
		} else {
			addCoeff(out, 0, v)
		}
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() {
				addCoeff(out, int(n.val.Num().Int64()), N(1))
				return
			}
		}
		addCoeff(out, 0, e)
	case *Mul:
		deg := 0
		coeffFactors := []Expr{}
		for _, f := range v.factors {
			if d := Degree(f, varName); d > 0 {
				deg += d
			} else {
				coeffFactors = append(coeffFactors, f)
			}
		}
		addCoeff(out, deg, MulOf(coeffFactors...))
	case *Add:
		for _, t := range v.terms {
			extractCoeffs(t, varName, out)
		}
	default:
		addCoeff(out, 0, e)
	}
}

func addCoeff(out PolyCoeffsResult, deg int, val Expr) {
	if existing, ok := out[deg]; ok {
		out[deg] = AddOf(existing, val)
	} else {
		out[deg] = val.Simplify()
	}
}

// ============================================================
// Rational polynomials over Q
// ============================================================

// maxPolyDegree bounds the dense representation used for cancellation.
const maxPolyDegree = 64

// poly is a dense univariate polynomial, lowest degree first.
type poly []*big.Rat

func toPoly(e Expr, varName string) (poly, bool) {
	e = Expand(e)
	terms := []Expr{e}
	if a, ok := e.(*Add); ok {
		terms = a.terms
	}
	var p poly
	for _, t := range terms {
		c, k, ok := monomial(t, varName)
		if !ok || k > maxPolyDegree {
			return nil, false
		}
		for len(p) <= k {
			p = append(p, new(big.Rat))
		}
		p[k].Add(p[k], c)
	}
	return p.trim(), true
}

func monomial(t Expr, varName string) (*big.Rat, int, bool) {
	switch v := t.(type) {
	case *Num:
		return v.Rat(), 0, true
	case *Sym:
		if v.name == varName {
			return big.NewRat(1, 1), 1, true
		}
	case *Pow:
		sym, ok := v.base.(*Sym)
		n, ok2 := v.exp.(*Num)
		if ok && ok2 && sym.name == varName && n.IsInteger() && n.IsPositive() && n.val.Num().IsInt64() {
			return big.NewRat(1, 1), int(n.val.Num().Int64()), true
		}
	case *Mul:
		c, k := big.NewRat(1, 1), 0
		for _, f := range v.factors {
			fc, fk, ok := monomial(f, varName)
			if !ok {
				return nil, 0, false
			}
			c.Mul(c, fc)
			k += fk
		}
		return c, k, true
	}
	return nil, 0, false
}

func (p poly) trim() poly {
	n := len(p)
	for n > 0 && p[n-1].Sign() == 0 {
		n--
	}
	return p[:n]
}

func (p poly) degree() int { return len(p) - 1 }

func (p poly) clone() poly {
	out := make(poly, len(p))
	for i, c := range p {
		out[i] = new(big.Rat).Set(c)
	}
	return out
}

func (p poly) divmod(d poly) (poly, poly) {
	r := p.clone()
	if len(d) == 0 {
		return nil, r
	}
	q := make(poly, max(len(p)-len(d)+1, 0))
	for i := range q {
		q[i] = new(big.Rat)
	}
	lead := d[len(d)-1]
	for len(r) >= len(d) && len(r) > 0 {
		shift := len(r) - len(d)
		factor := new(big.Rat).Quo(r[len(r)-1], lead)
		q[shift] = factor
		for i, c := range d {
			r[i+shift].Sub(r[i+shift], new(big.Rat).Mul(factor, c))
		}
		r = r.trim()
	}
	return q.trim(), r
}

func (p poly) monic() poly {
	if len(p) == 0 {
		return p
	}
	lead := p[len(p)-1]
	out := make(poly, len(p))
	for i, c := range p {
		out[i] = new(big.Rat).Quo(c, lead)
	}
	return out
}

func polyGCD(a, b poly) poly {
	for len(b) > 0 {
		_, r := a.divmod(b)
		a, b = b, r
	}
	return a.monic()
}

func (p poly) expr(varName string) Expr {
	terms := make([]Expr, 0, len(p))
	for k, c := range p {
		if c.Sign() == 0 {
			continue
		}
		terms = append(terms, MulOf(NRat(c), PowOf(S(varName), N(int64(k)))))
	}
	return AddOf(terms...)
}

// CancelRational divides num and den by their polynomial GCD in varName.
// ok is false when either side is not a polynomial with rational
// coefficients or the GCD is constant.
func CancelRational(num, den Expr, varName string) (Expr, bool) {
	pn, ok1 := toPoly(num, varName)
	pd, ok2 := toPoly(den, varName)
	if !ok1 || !ok2 || len(pd) == 0 {
		return nil, false
	}
	g := polyGCD(pn, pd)
	if g.degree() < 1 {
		return nil, false
	}
	qn, _ := pn.divmod(g)
	qd, _ := pd.divmod(g)
	return MulOf(qn.expr(varName), PowOf(qd.expr(varName), N(-1))), true
}

// Cancel simplifies the rational expression num/denom, removing any
// common polynomial factor in varName.
func Cancel(num, denom Expr, varName string) Expr {
	num = num.Simplify()
	denom = denom.Simplify()
	if dn, ok := denom.(*Num); ok && !dn.IsZero() {
		return MulOf(num, numRecip(dn))
	}
	if r, ok := CancelRational(num, denom, varName); ok {
		return r
	}
	numCoeff, numRest := extractCoefficient(num)
	denCoeff, denRest := extractCoefficient(denom)
	if numRest.Equal(denRest) {
		return numDiv(numCoeff, denCoeff)
	}
	return MulOf(num, PowOf(denom, N(-1)))
}

// ============================================================
// Symbolic factoring
// ============================================================

// FactorResult holds the result of a factoring attempt.
type FactorResult struct {
	Factors []Expr
	Success bool
}

// Factor attempts to factor a polynomial in varName with integer
// coefficients. Handles a common integer factor, difference of squares,
// perfect square trinomials, quadratics with integer roots, and sums or
// differences of cubes.
func Factor(expr Expr, varName string) FactorResult {
	coeffs := map[int]int64{}
	deg := 0
	for d, c := range PolyCoeffs(expr, varName) {
		cn, ok := c.(*Num)
		if !ok || !cn.IsInteger() || !cn.val.Num().IsInt64() || d < 0 {
			return FactorResult{Factors: []Expr{expr}}
		}
		if v := cn.val.Num().Int64(); v != 0 {
			coeffs[d] = v
			deg = max(deg, d)
		}
	}
	common := int64(0)
	for _, c := range coeffs {
		common = gcdInt(common, abs64(c))
	}
	if common == 0 {
		return FactorResult{Factors: []Expr{expr}}
	}
	if coeffs[deg] < 0 {
		common = -common
	}
	for d := range coeffs {
		coeffs[d] /= common
	}

	x := S(varName)
	var found []Expr
	switch deg {
	case 2:
		found = factorQuadratic(x, coeffs[2], coeffs[1], coeffs[0])
	case 3:
		if coeffs[2] == 0 && coeffs[1] == 0 {
			found = factorCubes(x, coeffs[3], coeffs[0])
		}
	}
	if found != nil {
		if common != 1 {
			found = append([]Expr{N(common)}, found...)
		}
		return FactorResult{Factors: found, Success: true}
	}
	if common != 1 {
		rest := make([]Expr, 0, len(coeffs))
		for d, c := range coeffs {
			rest = append(rest, MulOf(N(c), PowOf(x, N(int64(d)))))
		}
		return FactorResult{Factors: []Expr{N(common), AddOf(rest...)}, Success: true}
	}
	return FactorResult{Factors: []Expr{expr.Simplify()}}
}

func factorQuadratic(x Expr, a, b, c int64) []Expr {
	if b == 0 && a == 1 && c < 0 {
		if r, ok := perfectSquare(-c); ok {
			return []Expr{AddOf(x, N(-r)), AddOf(x, N(r))}
		}
	}
	sa, okA := perfectSquare(a)
	sc, okC := perfectSquare(abs64(c))
	if okA && okC && c > 0 && 2*sa*sc == abs64(b) {
		sign := int64(1)
		if b < 0 {
			sign = -1
		}
		return []Expr{PowOf(AddOf(MulOf(N(sa), x), N(sign*sc)), N(2))}
	}
	if a != 1 {
		return nil
	}
	ac := abs64(c)
	for d := int64(1); d <= ac && d <= 1000; d++ {
		if ac%d != 0 {
			continue
		}
		for _, r := range []int64{d, -d, ac / d, -(ac / d)} {
			if r*r+b*r+c == 0 {
				return []Expr{AddOf(x, N(-r)), AddOf(x, N(b+r))}
			}
		}
	}
	return nil
}

func factorCubes(x Expr, a, c int64) []Expr {
	if a != 1 {
		return nil
	}
	r := int64(math.Round(math.Cbrt(float64(abs64(c)))))
	if r*r*r != abs64(c) {
		return nil
	}
	if c < 0 {
		return []Expr{AddOf(x, N(-r)), AddOf(PowOf(x, N(2)), MulOf(N(r), x), N(r*r))}
	}
	return []Expr{AddOf(x, N(r)), AddOf(PowOf(x, N(2)), MulOf(N(-r), x), N(r*r))}
}

func perfectSquare(n int64) (int64, bool) {
	if n < 0 {
		return 0, false
	}
	r := int64(math.Round(math.Sqrt(float64(n))))
	return r, r*r == n
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
