package derive

import (
	"errors"
	"fmt"

	"github.com/njchilds90/calcsteps/classify"
	"github.com/njchilds90/calcsteps/symbolic"
)

var (
	errTooManyFactors = errors.New("product rule applies to exactly two factors")
	errUnknownFunc    = errors.New("no derivative table entry")
)

// structural applies the constant and constant multiple rules, then the
// rule selected by the classifier.
func (e *Engine) structural(expr symbolic.Expr, v string, s *session) (symbolic.Expr, error) {
	if !symbolic.DependsOn(expr, v) {
		s.use(RuleConstant)
		s.b.Result("Constant rule", fmt.Sprintf("%s does not depend on %s, so its derivative is 0", e.alg.Render(expr), v), "0")
		return symbolic.N(0), nil
	}
	coeff, rest := splitConstant(expr, v)
	if coeff == nil {
		return e.apply(expr, v, s)
	}
	s.use(RuleConstantMultiple)
	c := e.alg.Render(coeff)
	s.b.Add("Constant multiple rule", fmt.Sprintf("d/d%s[%s * %s] = %s * d/d%s[%s]", v, c, rest, c, v, rest))
	d, err := e.apply(rest, v, s)
	if err != nil {
		return nil, err
	}
	return e.simplified(symbolic.RawMul(coeff, d), s), nil
}

// splitConstant separates the factors of a product that do not depend on
// v. coeff is nil when there is nothing to split off.
func splitConstant(expr symbolic.Expr, v string, also ...string) (coeff, rest symbolic.Expr) {
	m, ok := expr.(*symbolic.Mul)
	if !ok {
		return nil, expr
	}
	var consts, others []symbolic.Expr
	for _, f := range m.Factors() {
		if dependsOnAny(f, v, also...) {
			others = append(others, f)
		} else {
			consts = append(consts, f)
		}
	}
	if len(consts) == 0 || len(others) == 0 {
		return nil, expr
	}
	return symbolic.MulOf(consts...), symbolic.MulOf(others...)
}

func dependsOnAny(e symbolic.Expr, v string, also ...string) bool {
	if symbolic.DependsOn(e, v) {
		return true
	}
	for _, name := range also {
		if symbolic.DependsOn(e, name) {
			return true
		}
	}
	return false
}

// apply dispatches on the structural classification.
func (e *Engine) apply(expr symbolic.Expr, v string, s *session) (symbolic.Expr, error) {
	m := classify.Classify(expr, v)
	switch m.Kind {
	case classify.Sum:
		return e.sumRule(m, v, s), nil
	case classify.Product:
		return e.productRule(m, v, s)
	case classify.Quotient:
		return e.quotientRule(m, v, s), nil
	case classify.Power:
		return e.powerRule(m, v, s), nil
	case classify.Chain:
		return e.chainRule(m, v, s)
	}
	if sym, ok := expr.(*symbolic.Sym); ok && sym.Name() == v {
		s.use(RulePower)
		s.b.Result("Power rule", fmt.Sprintf("d/d%s[%s] = 1", v, v), "1")
		return symbolic.N(1), nil
	}
	return e.generic(expr, v, s)
}

func (e *Engine) sumRule(m classify.Match, v string, s *session) symbolic.Expr {
	s.use(RuleSum)
	s.b.Add("Sum rule", fmt.Sprintf("The expression is %s; differentiate each term separately", m.Describe()))
	ds := make([]symbolic.Expr, len(m.Terms))
	for i, t := range m.Terms {
		ds[i] = e.alg.Derivative(t, v)
		title := fmt.Sprintf("Term %d", i+1)
		if rule := termRule(t, v); rule != "" {
			s.use(rule)
			title += " (" + rule + ")"
		}
		s.b.Result(title, fmt.Sprintf("d/d%s[%s] = %s", v, e.alg.Render(t), e.alg.Render(ds[i])), e.alg.Render(ds[i]))
	}
	return e.simplified(symbolic.RawAdd(ds...), s)
}

// termRule names the rule that differentiates one addend.
func termRule(t symbolic.Expr, v string) string {
	if !symbolic.DependsOn(t, v) {
		return RuleConstant
	}
	if _, rest := splitConstant(t, v); rest != t {
		t = rest
	}
	switch m := classify.Classify(t, v); m.Kind {
	case classify.Product:
		return RuleProduct
	case classify.Quotient:
		return RuleQuotient
	case classify.Power:
		if symbolic.DependsOn(m.Right, v) {
			return RuleLogarithmic
		}
		if isVar(m.Left, v) {
			return RulePower
		}
		return RuleChain
	case classify.Chain:
		return RuleChain
	case classify.Simple:
		if isVar(t, v) {
			return RulePower
		}
	}
	return ""
}

func isVar(e symbolic.Expr, v string) bool {
	s, ok := e.(*symbolic.Sym)
	return ok && s.Name() == v
}

func (e *Engine) productRule(m classify.Match, v string, s *session) (symbolic.Expr, error) {
	if len(m.Factors) != 2 {
		return nil, fmt.Errorf("%w, found %d", errTooManyFactors, len(m.Factors))
	}
	f, g := m.Left, m.Right
	s.use(RuleProduct)
	s.b.Add("Product rule", fmt.Sprintf("d/d%s[f*g] = f'*g + f*g' with f = %s and g = %s", v, e.alg.Render(f), e.alg.Render(g)))
	df := e.alg.Derivative(f, v)
	dg := e.alg.Derivative(g, v)
	s.b.Result("Derivative of f", fmt.Sprintf("f' = %s", e.alg.Render(df)), e.alg.Render(df))
	s.b.Result("Derivative of g", fmt.Sprintf("g' = %s", e.alg.Render(dg)), e.alg.Render(dg))
	raw := symbolic.RawAdd(symbolic.MulOf(df, g), symbolic.MulOf(f, dg))
	s.b.Result("Apply product rule", fmt.Sprintf("f'*g + f*g' = %s", raw), raw.String())
	return e.simplified(raw, s), nil
}

func (e *Engine) quotientRule(m classify.Match, v string, s *session) symbolic.Expr {
	f, g := m.Left, m.Right
	s.use(RuleQuotient)
	s.b.Add("Quotient rule", fmt.Sprintf("d/d%s[f/g] = (f'*g - f*g')/g^2 with f = %s and g = %s", v, e.alg.Render(f), e.alg.Render(g)))
	df := e.alg.Derivative(f, v)
	dg := e.alg.Derivative(g, v)
	s.b.Result("Derivative of numerator", fmt.Sprintf("f' = %s", e.alg.Render(df)), e.alg.Render(df))
	s.b.Result("Derivative of denominator", fmt.Sprintf("g' = %s", e.alg.Render(dg)), e.alg.Render(dg))
	numer := symbolic.RawAdd(symbolic.MulOf(df, g), symbolic.MulOf(symbolic.N(-1), f, dg))
	raw := symbolic.RawMul(numer, symbolic.RawPow(g, symbolic.N(-2)))
	s.b.Result("Apply quotient rule", fmt.Sprintf("(f'*g - f*g')/g^2 = %s", raw), raw.String())
	return e.simplified(raw, s)
}

func (e *Engine) powerRule(m classify.Match, v string, s *session) symbolic.Expr {
	base, exp := m.Left, m.Right
	if symbolic.DependsOn(exp, v) {
		return e.logarithmic(base, exp, v, s)
	}
	s.use(RulePower)
	n := e.alg.Render(exp)
	lowered := symbolic.AddOf(exp, symbolic.N(-1))
	if isVar(base, v) {
		s.b.Add("Power rule", fmt.Sprintf("d/d%s[%s^n] = n*%s^(n-1) with n = %s", v, v, v, n))
		raw := symbolic.RawMul(exp, symbolic.RawPow(base, lowered))
		s.b.Result("Apply power rule", fmt.Sprintf("%s*%s^(%s) = %s", n, v, lowered, raw), raw.String())
		return e.simplified(raw, s)
	}
	s.use(RuleChain)
	du := e.alg.Derivative(base, v)
	s.b.Add("Power rule with chain rule", fmt.Sprintf("d/d%s[u^n] = n*u^(n-1)*u' with u = %s and n = %s", v, e.alg.Render(base), n))
	s.b.Result("Derivative of the base", fmt.Sprintf("u' = %s", e.alg.Render(du)), e.alg.Render(du))
	raw := symbolic.RawMul(exp, symbolic.RawPow(base, lowered), du)
	s.b.Result("Apply power rule", fmt.Sprintf("n*u^(n-1)*u' = %s", raw), raw.String())
	return e.simplified(raw, s)
}

// logarithmic differentiates u^w where the exponent depends on v:
// ln(y) = w*ln(u), so y' = u^w*(w'*ln(u) + w*u'/u).
func (e *Engine) logarithmic(base, exp symbolic.Expr, v string, s *session) symbolic.Expr {
	s.use(RuleLogarithmic)
	u, w := e.alg.Render(base), e.alg.Render(exp)
	s.b.Add("Logarithmic differentiation",
		fmt.Sprintf("The exponent depends on %s. Take logarithms: ln(y) = %s*ln(%s), then differentiate both sides: y'/y = w'*ln(u) + w*u'/u", v, w, u))
	du := e.alg.Derivative(base, v)
	dw := e.alg.Derivative(exp, v)
	s.b.Result("Derivatives of base and exponent", fmt.Sprintf("u' = %s, w' = %s", e.alg.Render(du), e.alg.Render(dw)), e.alg.Render(dw))
	inner := symbolic.RawAdd(
		symbolic.MulOf(dw, symbolic.LnOf(base)),
		symbolic.MulOf(exp, du, symbolic.PowOf(base, symbolic.N(-1))),
	)
	raw := symbolic.RawMul(symbolic.RawPow(base, exp), inner)
	s.b.Result("Multiply by y", fmt.Sprintf("y' = y*(w'*ln(u) + w*u'/u) = %s", raw), raw.String())
	return e.simplified(raw, s)
}

// outerDerivative is the derivative table for chain compositions. Entries
// are built without simplification so the narration shows the textbook
// form.
func outerDerivative(fn string, u symbolic.Expr) (symbolic.Expr, bool) {
	switch fn {
	case "sin":
		return symbolic.CosOf(u), true
	case "cos":
		return symbolic.RawMul(symbolic.N(-1), symbolic.SinOf(u)), true
	case "tan":
		return symbolic.RawPow(symbolic.SecOf(u), symbolic.N(2)), true
	case "ln", "log":
		return symbolic.RawPow(u, symbolic.N(-1)), true
	case "exp":
		return symbolic.ExpOf(u), true
	case "sqrt":
		return symbolic.RawPow(symbolic.RawMul(symbolic.N(2), symbolic.SqrtOf(u)), symbolic.N(-1)), true
	}
	return symbolic.OuterDiff(fn, u)
}

func (e *Engine) chainRule(m classify.Match, v string, s *session) (symbolic.Expr, error) {
	outer, ok := outerDerivative(m.Func, m.Inner)
	if !ok {
		return nil, fmt.Errorf("%w for %s", errUnknownFunc, m.Func)
	}
	s.use(RuleChain)
	u := e.alg.Render(m.Inner)
	s.b.Add("Chain rule", fmt.Sprintf("d/d%s[%s(u)] = %s'(u)*u' with u = %s", v, m.Func, m.Func, u))
	s.b.Result("Outer derivative", fmt.Sprintf("%s'(u) = %s", m.Func, outer), outer.String())
	du := e.alg.Derivative(m.Inner, v)
	s.b.Result("Inner derivative", fmt.Sprintf("u' = d/d%s[%s] = %s", v, u, e.alg.Render(du)), e.alg.Render(du))
	raw := symbolic.RawMul(outer, du)
	s.b.Result("Apply chain rule", fmt.Sprintf("%s'(u)*u' = %s", m.Func, raw), raw.String())
	return e.simplified(raw, s), nil
}
