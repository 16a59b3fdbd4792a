package limit

import (
	"errors"
	"fmt"
	"math"

	"github.com/njchilds90/calcsteps/symbolic"
)

var errNotRational = errors.New("not a ratio of polynomials")

// leading is the degree and leading coefficient of one side of a
// rational function.
type leading struct {
	degree float64
	coeff  float64
}

func (l leading) String() string {
	return fmt.Sprintf("degree %s, leading coefficient %s", Number(l.degree), Number(l.coeff))
}

// leadingTerm reads the degree and leading coefficient of an expanded
// polynomial in v. Terms may be constants, v, powers of v with numeric
// exponents, or products of those.
func (e *Engine) leadingTerm(x symbolic.Expr, v string) (leading, error) {
	var lead leading
	found := false
	for _, t := range symbolic.Addends(e.alg.Expand(x)) {
		deg, coeff, err := e.monomial(t, v)
		if err != nil {
			return leading{}, err
		}
		if coeff == 0 {
			continue
		}
		if !found || deg > lead.degree {
			lead = leading{degree: deg, coeff: coeff}
			found = true
		} else if deg == lead.degree {
			lead.coeff += coeff
		}
	}
	if !found {
		return leading{}, fmt.Errorf("%w: %s vanishes", errNotRational, e.alg.Render(x))
	}
	return lead, nil
}

func (e *Engine) monomial(t symbolic.Expr, v string) (float64, float64, error) {
	switch n := t.(type) {
	case *symbolic.Sym:
		if n.Name() == v {
			return 1, 1, nil
		}
	case *symbolic.Pow:
		if exp, ok := n.ExpExpr().(*symbolic.Num); ok {
			if s, ok := n.Base().(*symbolic.Sym); ok && s.Name() == v {
				return exp.Float64(), 1, nil
			}
		}
	case *symbolic.Mul:
		deg, coeff := 0.0, 1.0
		for _, f := range n.Factors() {
			d, c, err := e.monomial(f, v)
			if err != nil {
				return 0, 0, err
			}
			deg += d
			coeff *= c
		}
		return deg, coeff, nil
	}
	if !symbolic.DependsOn(t, v) {
		c, err := e.alg.Evaluate(t, nil)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: coefficient %s: %w", errNotRational, e.alg.Render(t), err)
		}
		return 0, c, nil
	}
	return 0, 0, fmt.Errorf("%w: term %s", errNotRational, e.alg.Render(t))
}

func (e *Engine) atInfinity(p *problem) (Value, error) {
	if p.fraction {
		val, err := e.compareDegrees(p)
		if err == nil {
			p.res.FactorizationMethod = MethodDegreeComparison
			return val, nil
		}
		p.b.Add("Degree analysis", fmt.Sprintf("Not applicable: %v", err))
	}
	return e.surrogates(p)
}

// compareDegrees decides the limit of a rational function at ±∞ from the
// degrees and leading coefficients of numerator and denominator.
func (e *Engine) compareDegrees(p *problem) (Value, error) {
	ln, err := e.leadingTerm(p.num, p.v)
	if err != nil {
		return Null, err
	}
	ld, err := e.leadingTerm(p.den, p.v)
	if err != nil {
		return Null, err
	}
	diff := ln.degree - ld.degree
	if p.point.Sign() < 0 && diff != math.Trunc(diff) {
		return Null, fmt.Errorf("%w: fractional degree difference at -infinity", errNotRational)
	}
	if ln.degree > 0 && ld.degree > 0 {
		p.res.Indetermination = FormInfOverInf
	}
	p.b.Add("Degree analysis", fmt.Sprintf("Numerator %s: %s. Denominator %s: %s",
		e.alg.Render(p.num), ln, e.alg.Render(p.den), ld))

	switch {
	case diff == 0:
		v := ln.coeff / ld.coeff
		p.b.Result("Compare degrees", fmt.Sprintf("Equal degrees: the limit is the ratio of leading coefficients %s/%s = %s",
			Number(ln.coeff), Number(ld.coeff), Number(v)), Number(v).String())
		return Number(v), nil
	case diff < 0:
		p.b.Result("Compare degrees", "The denominator has the higher degree, so the quotient tends to 0", "0")
		return Number(0), nil
	}
	s := sign(ln.coeff / ld.coeff)
	// x^k changes sign at -infinity for odd k.
	if p.point.Sign() < 0 && math.Mod(diff, 2) != 0 {
		s = -s
	}
	val := Infinity(s)
	p.b.Result("Compare degrees", fmt.Sprintf("The numerator has the higher degree, so the quotient tends to %s", val), val.String())
	return val, nil
}

// surrogates substitutes decreasing large magnitudes for the infinite
// point until one of them evaluates, then checks the value against the
// next smaller magnitude.
func (e *Engine) surrogates(p *problem) (Value, error) {
	dir := float64(p.point.Sign())
	var errs []error
	for mag := e.surrogate; mag >= minSurrogate; mag /= 10 {
		at := dir * mag
		v, err := e.eval(p.expr, p.v, at)
		if errors.Is(err, symbolic.ErrOverflow) {
			val := Infinity(sign(v))
			p.b.Result("Large-value substitution", fmt.Sprintf("At %s = %s the value overflows, so the limit is %s", p.v, Number(at), val), val.String())
			p.res.FactorizationMethod = MethodSurrogate
			return val, nil
		}
		if err != nil {
			errs = append(errs, err)
			p.b.Add("Large-value substitution", fmt.Sprintf("At %s = %s the expression is undefined: %v", p.v, Number(at), err))
			continue
		}
		if p.fraction {
			n, nerr := e.eval(p.num, p.v, at)
			d, derr := e.eval(p.den, p.v, at)
			if nerr == nil && derr == nil && math.Abs(n) > e.threshold && math.Abs(d) > e.threshold {
				p.res.Indetermination = FormInfOverInf
			}
		}
		p.res.FactorizationMethod = MethodSurrogate
		if math.Abs(v) > e.threshold {
			val := Infinity(sign(v))
			p.b.Result("Large-value substitution", fmt.Sprintf("At %s = %s the value is %s, beyond %s, so the limit is %s",
				p.v, Number(at), Number(v), Number(e.threshold), val), val.String())
			return val, nil
		}
		if next := mag / 10; next >= minSurrogate {
			w, werr := e.eval(p.expr, p.v, dir*next)
			if werr == nil && math.Abs(w-v) > surrogateTolerance*math.Max(1, math.Abs(v)) {
				p.b.Add("Large-value substitution", fmt.Sprintf("At %s = %s the value is %s but at %s = %s it is %s",
					p.v, Number(at), Number(v), p.v, Number(dir*next), Number(w)))
				p.res.FactorizationMethod = ""
				return Null, fmt.Errorf("%w: the values do not settle as %s grows", errNoLimitHere, p.v)
			}
		}
		r := snap(v, integerTolerance)
		p.b.Result("Large-value substitution", fmt.Sprintf("At %s = %s the value is %s", p.v, Number(at), Number(r)), Number(r).String())
		return Number(r), nil
	}
	return Null, fmt.Errorf("%w: %w", errNoLimit, errors.Join(errs...))
}
