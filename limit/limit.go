// Package limit evaluates one-variable limits and narrates how each
// indeterminate form was resolved.
package limit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/njchilds90/calcsteps/adapter"
	"github.com/njchilds90/calcsteps/steps"
	"github.com/njchilds90/calcsteps/symbolic"
)

// Indeterminate forms.
const (
	FormZeroOverZero    = "0/0"
	FormInfOverInf      = "∞/∞"
	FormNonzeroOverZero = "k/0"
	FormUndefined       = "undefined"
)

// Resolution methods recorded in Result.FactorizationMethod.
const (
	MethodDifferenceOfSquares = "difference of squares"
	MethodCommonFactor        = "common factor cancellation"
	MethodConjugate           = "radical conjugate"
	MethodLHopital            = "L'Hôpital's rule"
	MethodNumerical           = "numerical approximation"
	MethodSignAnalysis        = "sign analysis"
	MethodDegreeComparison    = "degree comparison"
	MethodSurrogate           = "large-value substitution"
)

const (
	DefaultEpsilon   = 1e-5
	DefaultSurrogate = 1e6
	DefaultThreshold = 1e5
	DefaultDecimals  = 4

	// integerTolerance snaps surrogate values that are this close to an
	// integer.
	integerTolerance = 1e-6
	// surrogateTolerance is the relative disagreement allowed between two
	// surrogate magnitudes.
	surrogateTolerance = 1e-3
	// minSurrogate is the smallest magnitude tried at infinity.
	minSurrogate = 1e2
	// maxLHopital bounds the rounds of L'Hôpital's rule.
	maxLHopital = 3
)

var tracer = otel.Tracer("github.com/njchilds90/calcsteps/limit")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Result is the outcome of one limit call.
type Result struct {
	Expression          string       `json:"expression"`
	Variable            string       `json:"variable"`
	Point               Point        `json:"point"`
	Result              Value        `json:"result"`
	Indetermination     string       `json:"indetermination,omitempty"`
	FactorizationMethod string       `json:"factorization_method,omitempty"`
	Steps               []steps.Step `json:"steps"`
	Error               string       `json:"error,omitempty"`
}

func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Steps = steps.Clone(r.Steps)
	return &out
}

// Engine is stateless and safe for concurrent use.
type Engine struct {
	alg       adapter.Algebra
	logger    *slog.Logger
	epsilon   float64
	surrogate float64
	threshold float64
	decimals  int
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithEpsilon sets the offset used for two-sided evaluation.
func WithEpsilon(eps float64) Option { return func(e *Engine) { e.epsilon = eps } }

// WithSurrogate sets the magnitude substituted for an infinite point.
func WithSurrogate(s float64) Option { return func(e *Engine) { e.surrogate = s } }

// WithThreshold sets the magnitude above which a value counts as infinite.
func WithThreshold(t float64) Option { return func(e *Engine) { e.threshold = t } }

// WithDecimals sets the rounding applied to numerical approximations.
func WithDecimals(n int) Option { return func(e *Engine) { e.decimals = n } }

func New(alg adapter.Algebra, opts ...Option) *Engine {
	e := &Engine{
		alg:       alg,
		logger:    slog.Default(),
		epsilon:   DefaultEpsilon,
		surrogate: DefaultSurrogate,
		threshold: DefaultThreshold,
		decimals:  DefaultDecimals,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var errNoLimit = errors.New("limit could not be determined")

// problem holds the parsed input of one call.
type problem struct {
	expr     symbolic.Expr
	v        string
	point    Point
	num, den symbolic.Expr
	fraction bool
	b        *steps.Builder
	res      *Result
}

// Limit computes the limit of expression as variable approaches point.
// Failures are reported as an error step with a null result.
func (e *Engine) Limit(ctx context.Context, expression, variable string, point Point) *Result {
	_, span := tracer.Start(ctx, "limit.Limit", trace.WithAttributes(
		attribute.String("expression", expression),
		attribute.String("variable", variable),
		attribute.String("point", point.String()),
	))
	defer span.End()

	res := &Result{Expression: expression, Variable: variable, Point: point}
	b := steps.NewBuilder()
	fail := func(title, msg string) *Result {
		span.SetStatus(codes.Error, msg)
		b.Fail(title, msg)
		res.Result = Null
		res.Error = msg
		res.Steps = b.Steps()
		return res
	}

	if !identPattern.MatchString(variable) {
		return fail("Invalid input", fmt.Sprintf("Cannot take the limit of %q: variable %q is not an identifier", expression, variable))
	}
	expr, err := e.alg.Parse(expression)
	if err != nil {
		return fail("Parse error", fmt.Sprintf("Could not parse %q: %v", expression, err))
	}

	p := &problem{expr: expr, v: variable, point: point, b: b, res: res}
	p.num, p.den, p.fraction = symbolic.NumerDenom(expr)
	b.Add("Expression", fmt.Sprintf("Find the limit of %s as %s approaches %s", e.alg.Render(expr), variable, point))

	var val Value
	if point.IsInf() {
		val, err = e.atInfinity(p)
	} else {
		val, err = e.atFinite(p)
	}
	if err != nil {
		e.logger.Warn("limit not determined", "expression", expression, "point", point.String(), "error", err)
		return fail("Error", fmt.Sprintf("Could not determine the limit of %q as %s approaches %s: %v", expression, variable, point, err))
	}

	res.Result = val
	b.Final("Result", fmt.Sprintf("The limit of %s as %s approaches %s is %s", e.alg.Render(expr), variable, point, val), val.String())
	res.Steps = b.Steps()
	e.logger.Debug("limit computed", "expression", expression, "point", point.String(), "result", val.String(), "method", res.FactorizationMethod)
	return res
}

// eval evaluates x at the given value of the variable.
func (e *Engine) eval(x symbolic.Expr, v string, at float64) (float64, error) {
	return e.alg.Evaluate(x, map[string]float64{v: at})
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func (e *Engine) round(f float64) float64 {
	scale := math.Pow(10, float64(e.decimals))
	r := math.Round(f*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}

// snap rounds f to the nearest integer when it is within tol of it.
func snap(f, tol float64) float64 {
	if r := math.Round(f); math.Abs(f-r) < tol {
		if r == 0 {
			return 0
		}
		return r
	}
	return f
}

func (e *Engine) atFinite(p *problem) (Value, error) {
	at := p.point.Float64()
	v, err := e.eval(p.expr, p.v, at)
	if err == nil && isFinite(v) {
		p.b.Result("Direct substitution", fmt.Sprintf("Substituting %s = %s gives %s", p.v, p.point, Number(v)), Number(v).String())
		return Number(v), nil
	}
	p.b.Add("Direct substitution", fmt.Sprintf("Substituting %s = %s fails: %v", p.v, p.point, evalFailure(err, v)))

	form := e.classify(p)
	p.res.Indetermination = form
	p.b.Result("Indeterminate form", describeForm(form, p), form)

	return e.resolve(p, e.strategiesFor(form, p))
}

func evalFailure(err error, v float64) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: value %v", symbolic.ErrUndefined, v)
}

func describeForm(form string, p *problem) string {
	switch form {
	case FormZeroOverZero:
		if p.fraction {
			return "Numerator and denominator both approach 0: the form 0/0 is indeterminate"
		}
		return "The expression has no value at the point; treating it as the indeterminate form 0/0"
	case FormInfOverInf:
		return "Numerator and denominator both grow without bound: the form ∞/∞ is indeterminate"
	case FormNonzeroOverZero:
		return "The denominator approaches 0 while the numerator does not: the form k/0 diverges or has no limit"
	}
	return "The expression is undefined on both sides of the point"
}

// classify names the indeterminate form at a finite point. Inconclusive
// cases default to 0/0.
func (e *Engine) classify(p *problem) string {
	at := p.point.Float64()
	_, lerr := e.eval(p.expr, p.v, at-e.epsilon)
	_, rerr := e.eval(p.expr, p.v, at+e.epsilon)
	if lerr != nil && rerr != nil {
		return FormUndefined
	}
	if !p.fraction {
		return FormZeroOverZero
	}
	n, nerr := e.eval(p.num, p.v, at)
	d, derr := e.eval(p.den, p.v, at)
	if nerr == nil && derr == nil {
		tiny := e.epsilon * e.epsilon
		switch {
		case math.Abs(d) < tiny && math.Abs(n) < tiny:
			return FormZeroOverZero
		case math.Abs(d) < tiny && isFinite(n):
			return FormNonzeroOverZero
		}
	}
	nn, nerr := e.eval(p.num, p.v, at+e.epsilon)
	dn, derr := e.eval(p.den, p.v, at+e.epsilon)
	if nerr == nil && derr == nil && math.Abs(nn) > e.threshold && math.Abs(dn) > e.threshold {
		return FormInfOverInf
	}
	return FormZeroOverZero
}

// strategy is one candidate method for resolving an indeterminate form.
type strategy struct {
	name string
	run  func(p *problem) (Value, error)
}

func (e *Engine) strategiesFor(form string, p *problem) []strategy {
	numeric := strategy{MethodNumerical, e.numerical}
	switch form {
	case FormNonzeroOverZero:
		return []strategy{{MethodSignAnalysis, e.signAnalysis}}
	case FormUndefined:
		return []strategy{numeric}
	case FormInfOverInf:
		return []strategy{{MethodLHopital, e.lhopital}, numeric}
	}
	if !p.fraction {
		return []strategy{numeric}
	}
	return []strategy{
		{MethodDifferenceOfSquares, e.differenceOfSquares},
		{MethodCommonFactor, e.commonFactor},
		{MethodConjugate, e.conjugate},
		{MethodLHopital, e.lhopital},
		numeric,
	}
}

// resolve tries each strategy in order and records the first that works.
func (e *Engine) resolve(p *problem, candidates []strategy) (Value, error) {
	var errs []error
	for _, c := range candidates {
		val, err := attempt(c, p)
		if err == nil {
			p.res.FactorizationMethod = c.name
			return val, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		e.logger.Debug("limit strategy failed", "strategy", c.name, "expression", p.expr.String(), "error", err)
		p.b.Add("Not applicable", fmt.Sprintf("%s: %v", capitalize(c.name), err))
	}
	return Null, fmt.Errorf("%w: %w", errNoLimit, errors.Join(errs...))
}

func attempt(c strategy, p *problem) (val Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return c.run(p)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
