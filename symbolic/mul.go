package symbolic

import (
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// RawMul builds a product exactly as given.
func RawMul(factors ...Expr) *Mul { return &Mul{factors: factors} }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	// Like factors are grouped by base and their exponents summed.
	type power struct{ base, exp Expr }
	coeff := N(1)
	groups := map[string]*power{}
	order := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := f, Expr(N(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		key := base.String()
		if g, seen := groups[key]; seen {
			g.exp = AddOf(g.exp, exp)
			continue
		}
		groups[key] = &power{base: base, exp: exp}
		order = append(order, key)
	}
	if coeff.IsZero() {
		return N(0)
	}

	others := []Expr{}
	for _, key := range order {
		g := groups[key]
		switch v := PowOf(g.base, g.exp).(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			for _, f := range v.factors {
				if n, ok := f.(*Num); ok {
					coeff = numMul(coeff, n)
				} else {
					others = append(others, f)
				}
			}
		default:
			others = append(others, v)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}
	sortFactors(others)
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func sortFactors(fs []Expr) {
	type keyed struct {
		e    Expr
		rank int
		key  string
	}
	ks := make([]keyed, len(fs))
	for i, e := range fs {
		ks[i] = keyed{e: e, rank: factorRank(e), key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].rank != ks[j].rank {
			return ks[i].rank < ks[j].rank
		}
		return ks[i].key < ks[j].key
	})
	for i := range ks {
		fs[i] = ks[i].e
	}
}

func factorRank(e Expr) int {
	switch v := e.(type) {
	case *Pow:
		switch v.base.(type) {
		case *Num:
			return 0
		case *Sym:
			return 1
		case *Func:
			return 2
		}
		return 3
	case *Sym:
		return 1
	case *Func:
		return 2
	case *Add:
		return 3
	}
	return 4
}

// render returns the product's magnitude text and whether it carries a
// negative sign. Negative-exponent factors and the denominator of a
// rational coefficient are written after a single "/".
func (m *Mul) render() (string, bool) {
	if len(m.factors) == 0 {
		return "1", false
	}
	neg := false
	var numer, denom []string
	groupDenom := false
	for i, f := range m.factors {
		if n, ok := f.(*Num); ok && i == 0 {
			c := n
			if c.IsNegative() {
				neg = true
				c = numAbs(c)
			}
			if c.IsInteger() || c.val.Denom().Cmp(big.NewInt(maxFractionDenom)) > 0 {
				if !c.IsOne() {
					numer = append(numer, c.String())
				}
			} else {
				if c.val.Num().Cmp(big.NewInt(1)) != 0 {
					numer = append(numer, c.val.Num().String())
				}
				denom = append(denom, c.val.Denom().String())
			}
			continue
		}
		if p, ok := f.(*Pow); ok {
			if en, ok := p.exp.(*Num); ok && en.IsNegative() {
				r := reciprocal(p)
				s := factorString(r)
				if _, isMul := r.(*Mul); isMul || strings.Contains(s, "/") {
					groupDenom = true
				}
				denom = append(denom, s)
				continue
			}
		}
		numer = append(numer, factorString(f))
	}
	body := "1"
	if len(numer) > 0 {
		body = strings.Join(numer, "*")
	}
	if len(denom) == 0 {
		return body, neg
	}
	d := strings.Join(denom, "*")
	if len(denom) > 1 || groupDenom {
		d = "(" + d + ")"
	}
	return body + "/" + d, neg
}

// reciprocal returns base^(-exp) for a power with a negative numeric exponent.
func reciprocal(p *Pow) Expr {
	en := p.exp.(*Num)
	if en.IsNegOne() {
		return p.base
	}
	return &Pow{base: p.base, exp: numNeg(en)}
}

// factorString renders one factor of a product, parenthesizing sums and
// anything that would otherwise read as signed.
func factorString(f Expr) string {
	s := f.String()
	switch v := f.(type) {
	case *Add:
		return "(" + s + ")"
	case *Num:
		if v.IsNegative() || !v.IsInteger() {
			return "(" + s + ")"
		}
	}
	if strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	return s
}

func (m *Mul) String() string {
	body, neg := m.render()
	if neg {
		return "-" + body
	}
	return body
}

func (m *Mul) renderLaTeX() (string, bool) {
	neg := false
	var numer, denom []string
	for i, f := range m.factors {
		if n, ok := f.(*Num); ok && i == 0 {
			c := n
			if c.IsNegative() {
				neg = true
				c = numAbs(c)
			}
			if c.IsInteger() {
				if !c.IsOne() {
					numer = append(numer, c.LaTeX())
				}
			} else {
				if c.val.Num().Cmp(big.NewInt(1)) != 0 {
					numer = append(numer, c.val.Num().String())
				}
				denom = append(denom, c.val.Denom().String())
			}
			continue
		}
		if p, ok := f.(*Pow); ok {
			if en, ok := p.exp.(*Num); ok && en.IsNegative() {
				denom = append(denom, factorLaTeX(reciprocal(p)))
				continue
			}
		}
		numer = append(numer, factorLaTeX(f))
	}
	body := "1"
	if len(numer) > 0 {
		body = joinLaTeX(numer)
	}
	if len(denom) == 0 {
		return body, neg
	}
	return "\\frac{" + body + "}{" + joinLaTeX(denom) + "}", neg
}

func factorLaTeX(f Expr) string {
	s := f.LaTeX()
	if _, isAdd := f.(*Add); isAdd || strings.HasPrefix(s, "-") {
		return "\\left(" + s + "\\right)"
	}
	return s
}

// joinLaTeX separates juxtaposed factors, using \cdot before a digit.
func joinLaTeX(parts []string) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			if p != "" && p[0] >= '0' && p[0] <= '9' {
				sb.WriteString(" \\cdot ")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(p)
	}
	return sb.String()
}

func (m *Mul) LaTeX() string {
	body, neg := m.renderLaTeX()
	if neg {
		return "-" + body
	}
	return body
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		others := make([]Expr, 0, len(m.factors)-1)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(append([]Expr{dfi}, others...)...)
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return m.factors }

// NumerDenom splits a product into the factors with positive exponents
// and the reciprocals of those with negative numeric exponents. ok is
// false when there is no denominator.
func NumerDenom(e Expr) (num, den Expr, ok bool) {
	var numFactors, denFactors []Expr
	switch v := e.(type) {
	case *Mul:
		for _, f := range v.factors {
			if p, isPow := f.(*Pow); isPow {
				if en, isNum := p.exp.(*Num); isNum && en.IsNegative() {
					denFactors = append(denFactors, reciprocal(p))
					continue
				}
			}
			if n, isNum := f.(*Num); isNum && !n.IsInteger() {
				if n.val.Num().Cmp(big.NewInt(1)) != 0 {
					numFactors = append(numFactors, &Num{val: new(big.Rat).SetInt(n.val.Num())})
				}
				denFactors = append(denFactors, &Num{val: new(big.Rat).SetInt(n.val.Denom())})
				continue
			}
			numFactors = append(numFactors, f)
		}
	case *Pow:
		if en, isNum := v.exp.(*Num); isNum && en.IsNegative() {
			return N(1), reciprocal(v).Simplify(), true
		}
		return nil, nil, false
	default:
		return nil, nil, false
	}
	if len(denFactors) == 0 {
		return nil, nil, false
	}
	return MulOf(numFactors...), MulOf(denFactors...), true
}
