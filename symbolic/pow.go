package symbolic

import (
	"math"
	"math/big"
)

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

// RawPow builds a power exactly as given.
func RawPow(base, exp Expr) *Pow { return &Pow{base: base, exp: exp} }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok && bn.IsZero() {
		// 0^0 and 0^negative stay unevaluated.
		if expIsNum && !en.IsPositive() {
			return &Pow{base: base, exp: exp}
		}
		return N(0)
	}
	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}
	if bn, ok := base.(*Num); ok && expIsNum {
		if en.IsInteger() {
			if r, ok := intPow(bn, en.val.Num().Int64()); ok {
				return r
			}
		} else if r, ok := exactRoot(bn, en); ok {
			return r
		}
	}
	if inner, ok := base.(*Pow); ok && expIsNum && en.IsInteger() {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	if m, ok := base.(*Mul); ok && expIsNum && en.IsInteger() {
		fs := make([]Expr, len(m.factors))
		for i, f := range m.factors {
			fs[i] = PowOf(f, exp)
		}
		return MulOf(fs...)
	}
	return &Pow{base: base, exp: exp}
}

// intPow folds b^e for small integer exponents.
func intPow(b *Num, e int64) (*Num, bool) {
	if e > 20 || e < -20 {
		return nil, false
	}
	neg := e < 0
	if neg {
		e = -e
	}
	result := N(1)
	for i := int64(0); i < e; i++ {
		result = numMul(result, b)
	}
	if neg {
		return numRecip(result), true
	}
	return result, true
}

// exactRoot folds b^(p/q) when b is a perfect q-th power.
func exactRoot(b, e *Num) (Expr, bool) {
	q := e.val.Denom()
	if !q.IsInt64() || q.Int64() > 12 {
		return nil, false
	}
	qi := q.Int64()
	v := b.Rat()
	neg := v.Sign() < 0
	if neg {
		if qi%2 == 0 {
			return nil, false
		}
		v.Neg(v)
	}
	rn, ok1 := intRoot(v.Num(), qi)
	rd, ok2 := intRoot(v.Denom(), qi)
	if !ok1 || !ok2 {
		return nil, false
	}
	root := new(big.Rat).SetFrac(rn, rd)
	if neg {
		root.Neg(root)
	}
	return PowOf(NRat(root), &Num{val: new(big.Rat).SetInt(e.val.Num())}), true
}

func intRoot(n *big.Int, q int64) (*big.Int, bool) {
	if !n.IsInt64() {
		return nil, false
	}
	guess := int64(math.Round(math.Pow(float64(n.Int64()), 1/float64(q))))
	for c := guess - 1; c <= guess+1; c++ {
		if c < 0 {
			continue
		}
		cb := big.NewInt(c)
		if new(big.Int).Exp(cb, big.NewInt(q), nil).Cmp(n) == 0 {
			return cb, true
		}
	}
	return nil, false
}

func isHalf(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.Equal(F(1, 2))
}

func (p *Pow) String() string {
	if en, ok := p.exp.(*Num); ok {
		if isHalf(en) {
			return "sqrt(" + p.base.String() + ")"
		}
		if en.IsNegative() {
			return (&Mul{factors: []Expr{p}}).String()
		}
	}
	return powBaseString(p.base) + "^" + powExpString(p.exp)
}

func powBaseString(b Expr) string {
	s := b.String()
	switch v := b.(type) {
	case *Add, *Mul, *Pow:
		return "(" + s + ")"
	case *Num:
		if v.IsNegative() || !v.IsInteger() {
			return "(" + s + ")"
		}
	}
	return s
}

func powExpString(e Expr) string {
	s := e.String()
	switch v := e.(type) {
	case *Sym:
		return s
	case *Num:
		if v.IsInteger() && !v.IsNegative() {
			return s
		}
	}
	return "(" + s + ")"
}

func (p *Pow) LaTeX() string {
	if en, ok := p.exp.(*Num); ok {
		if isHalf(en) {
			return "\\sqrt{" + p.base.LaTeX() + "}"
		}
		if en.IsNegative() {
			return (&Mul{factors: []Expr{p}}).LaTeX()
		}
	}
	baseStr := p.base.LaTeX()
	switch v := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	case *Num:
		if v.IsNegative() {
			baseStr = "\\left(" + baseStr + "\\right)"
		}
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if _, expIsNum := p.exp.(*Num); expIsNum {
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if _, baseIsNum := p.base.(*Num); baseIsNum {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if e.IsInteger() && !(b.IsZero() && !e.IsPositive()) {
		if r, ok := intPow(b, e.val.Num().Int64()); ok {
			return r, true
		}
	}
	bf, _ := b.val.Float64()
	ef, _ := e.val.Float64()
	pf := math.Pow(bf, ef)
	if math.IsNaN(pf) || math.IsInf(pf, 0) {
		return nil, false
	}
	return NFloat(pf), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

// IsSqrt reports whether e is a square root and returns its radicand.
func IsSqrt(e Expr) (Expr, bool) {
	p, ok := e.(*Pow)
	if !ok || !isHalf(p.exp) {
		return nil, false
	}
	return p.base, true
}
