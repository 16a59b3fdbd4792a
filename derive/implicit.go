package derive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/njchilds90/calcsteps/symbolic"
)

var (
	errSameSymbol     = errors.New("variable and dependent symbol must differ")
	errMultipleEquals = errors.New("equation contains more than one '='")
	errNotIsolable    = errors.New("derivative cannot be isolated")
)

// DifferentiateImplicit differentiates both sides of equation with respect
// to variable, treating the dependent symbol as a function of it, and
// solves for its derivative. An equation without "=" means expression = 0.
func (e *Engine) DifferentiateImplicit(ctx context.Context, equation, variable string) *Result {
	_, span := tracer.Start(ctx, "derive.DifferentiateImplicit", trace.WithAttributes(
		attribute.String("equation", equation),
		attribute.String("variable", variable),
		attribute.String("dependent", e.dependent),
	))
	defer span.End()

	res := &Result{Expression: equation, Variable: variable, Order: 1, Implicit: true}
	s := newSession()
	dep := e.dependent

	invalid := func(err error) *Result {
		span.SetStatus(codes.Error, err.Error())
		return s.fail(res, "Invalid input", fmt.Sprintf("Cannot differentiate %q implicitly: %v", equation, err))
	}
	if err := validVariable(variable); err != nil {
		return invalid(err)
	}
	if err := validVariable(dep); err != nil {
		return invalid(err)
	}
	if variable == dep {
		return invalid(fmt.Errorf("%w: both are %q", errSameSymbol, dep))
	}
	parts := strings.Split(equation, "=")
	if len(parts) > 2 {
		return invalid(errMultipleEquals)
	}
	if len(parts) == 1 {
		parts = append(parts, "0")
	}
	lhs, err := e.alg.Parse(parts[0])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return s.fail(res, "Parse error", fmt.Sprintf("Could not parse the left side %q: %v", strings.TrimSpace(parts[0]), err))
	}
	rhs, err := e.alg.Parse(parts[1])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return s.fail(res, "Parse error", fmt.Sprintf("Could not parse the right side %q: %v", strings.TrimSpace(parts[1]), err))
	}

	s.use(RuleImplicit)
	prime := dep + "'"
	s.b.Add("Equation", fmt.Sprintf("Differentiate both sides of %s with respect to %s, treating %s as a function of %s",
		symbolic.Eq(lhs, rhs), variable, dep, variable))

	dl := e.implicitSide("Left side", lhs, variable, dep, s)
	dr := e.implicitSide("Right side", rhs, variable, dep, s)

	differentiated := symbolic.Eq(dl, dr)
	combined := e.alg.Expand(differentiated.Residual())
	s.b.Result("Collect terms", fmt.Sprintf("Moving everything to one side of %s gives %s = 0",
		differentiated, e.alg.Render(combined)), e.alg.Render(combined)+" = 0")

	sol, err := e.isolate(combined, variable, dep, s)
	if err != nil {
		e.logger.Warn("implicit derivative not isolated", "equation", equation, "error", err)
		rendered := e.alg.Render(combined) + " = 0"
		res.Result = rendered
		s.b.Final("Result", fmt.Sprintf("%s could not be isolated automatically; the differentiated equation is %s", prime, rendered), rendered)
		return s.finish(res)
	}
	rendered := e.alg.Render(sol)
	res.Result = rendered
	res.Isolated = true
	s.b.Final("Result", fmt.Sprintf("%s = %s", prime, rendered), rendered)
	e.logger.Debug("implicit derivative computed", "equation", equation, "variable", variable, "result", rendered)
	return s.finish(res)
}

// implicitSide differentiates one side of the equation term by term.
func (e *Engine) implicitSide(label string, side symbolic.Expr, v, dep string, s *session) symbolic.Expr {
	terms := symbolic.Addends(side)
	ds := make([]symbolic.Expr, len(terms))
	for i, t := range terms {
		d, how := e.implicitTerm(t, v, dep, s)
		ds[i] = d
		s.b.Result(fmt.Sprintf("%s, term %d", label, i+1),
			fmt.Sprintf("d/d%s[%s] = %s (%s)", v, e.alg.Render(t), e.alg.Render(d), how), e.alg.Render(d))
	}
	d := symbolic.AddOf(ds...)
	s.b.Result(label, fmt.Sprintf("d/d%s[%s] = %s", v, e.alg.Render(side), e.alg.Render(d)), e.alg.Render(d))
	return d
}

// implicitTerm differentiates one addend and describes how.
func (e *Engine) implicitTerm(t symbolic.Expr, v, dep string, s *session) (symbolic.Expr, string) {
	prime := symbolic.S(dep + "'")
	if !symbolic.DependsOn(t, dep) {
		return e.alg.Derivative(t, v), fmt.Sprintf("no %s, differentiated directly", dep)
	}
	c, rest := symbolic.Coefficient(t)
	switch r := rest.(type) {
	case *symbolic.Sym:
		if r.Name() == dep {
			return symbolic.MulOf(c, prime), fmt.Sprintf("linear in %s", dep)
		}
	case *symbolic.Pow:
		if isVar(r.Base(), dep) && !dependsOnAny(r.ExpExpr(), v, dep) {
			s.use(RuleChain)
			n := r.ExpExpr()
			d := symbolic.MulOf(n, c,
				symbolic.PowOf(r.Base(), symbolic.AddOf(n, symbolic.N(-1))), prime)
			return d, "chain rule"
		}
	case *symbolic.Mul:
		var ypart, xpart []symbolic.Expr
		for _, f := range r.Factors() {
			if symbolic.DependsOn(f, dep) {
				ypart = append(ypart, f)
			} else {
				xpart = append(xpart, f)
			}
		}
		if len(ypart) > 0 && len(xpart) > 0 {
			s.use(RuleProduct)
			f := symbolic.MulOf(xpart...)
			g := symbolic.MulOf(ypart...)
			df := e.alg.Derivative(f, v)
			dg, _ := e.implicitTerm(g, v, dep, s)
			d := symbolic.MulOf(c, symbolic.AddOf(symbolic.MulOf(df, g), symbolic.MulOf(f, dg)))
			return d, fmt.Sprintf("product rule with f = %s and g = %s", e.alg.Render(f), e.alg.Render(g))
		}
	}
	return e.compositeTerm(t, v, dep), fmt.Sprintf("%s treated as %s(%s)", dep, dep, v)
}

// compositeTerm substitutes dep(v) for dep, differentiates and rewrites
// the kernel's D[dep](v) notation back to dep'.
func (e *Engine) compositeTerm(t symbolic.Expr, v, dep string) symbolic.Expr {
	fn := symbolic.FuncOf(dep, symbolic.S(v))
	d := e.alg.Derivative(symbolic.Sub(t, dep, fn), v)
	return symbolic.Rewrite(d, func(n symbolic.Expr) (symbolic.Expr, bool) {
		f, ok := n.(*symbolic.Func)
		if !ok || !isVar(f.Arg(), v) {
			return nil, false
		}
		switch f.FuncName() {
		case "D[" + dep + "]":
			return symbolic.S(dep + "'"), true
		case dep:
			return symbolic.S(dep), true
		}
		return nil, false
	})
}

// placeholder picks a plain symbol name for dep' that does not occur in e.
func placeholder(e symbolic.Expr, dep, v string) string {
	free := symbolic.FreeSymbols(e)
	name := "d" + dep + "d" + v
	for {
		if _, taken := free[name]; !taken {
			return name
		}
		name += "_"
	}
}

// isolate solves combined = 0 for prime: first through the adapter, then
// by collecting coefficients term by term.
func (e *Engine) isolate(combined symbolic.Expr, v, dep string, s *session) (symbolic.Expr, error) {
	prime := dep + "'"
	if !symbolic.DependsOn(combined, prime) {
		s.b.Add("Solve", fmt.Sprintf("No term contains %s, so it cannot be isolated", prime))
		return nil, fmt.Errorf("%w: no term contains %s", errNotIsolable, prime)
	}
	ph := placeholder(combined, dep, v)
	eq := symbolic.Sub(combined, prime, symbolic.S(ph))
	s.b.Add("Substitute", fmt.Sprintf("Write %s for %s: %s = 0", ph, prime, e.alg.Render(eq)))

	sols, err := e.alg.SolveFor(eq, ph)
	if err == nil {
		sol := e.alg.Simplify(sols[0])
		s.b.Result("Solve", fmt.Sprintf("Solving for %s gives %s = %s", ph, prime, e.alg.Render(sol)), e.alg.Render(sol))
		return sol, nil
	}
	s.b.Add("Fallback", fmt.Sprintf("Automatic solve failed (%v); collecting the coefficient of %s by hand", err, ph))
	return e.manualIsolate(eq, ph, s)
}

// manualIsolate writes eq as coef*ph + rest and returns -rest/coef. Each
// coefficient is the term with ph replaced by 1.
func (e *Engine) manualIsolate(eq symbolic.Expr, ph string, s *session) (symbolic.Expr, error) {
	var coefs, consts []symbolic.Expr
	for _, t := range symbolic.Addends(e.alg.Expand(eq)) {
		if !symbolic.DependsOn(t, ph) {
			consts = append(consts, t)
			continue
		}
		if symbolic.DependsOn(e.alg.Derivative(t, ph), ph) {
			s.b.Add("Solve", fmt.Sprintf("The term %s is not linear in %s", e.alg.Render(t), ph))
			return nil, fmt.Errorf("%w: %s is not linear in %s", errNotIsolable, t, ph)
		}
		coefs = append(coefs, symbolic.Sub(t, ph, symbolic.N(1)))
	}
	coef := e.alg.Simplify(symbolic.AddOf(coefs...))
	if len(coefs) == 0 || symbolic.IsNum(coef, 0) {
		s.b.Add("Solve", fmt.Sprintf("The coefficient of %s vanishes", ph))
		return nil, fmt.Errorf("%w: zero coefficient", errNotIsolable)
	}
	rest := symbolic.AddOf(consts...)
	s.b.Result("Coefficients", fmt.Sprintf("coefficient = %s, constant = %s", e.alg.Render(coef), e.alg.Render(rest)), e.alg.Render(coef))
	sol := symbolic.MulOf(symbolic.N(-1), rest, symbolic.PowOf(coef, symbolic.N(-1)))
	s.b.Result("Solve", fmt.Sprintf("%s = -(%s)/(%s) = %s", ph, e.alg.Render(rest), e.alg.Render(coef), e.alg.Render(sol)), e.alg.Render(sol))
	return sol, nil
}
