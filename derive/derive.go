// Package derive computes derivatives and narrates each rule applied.
//
// The explicit engine classifies the expression tree, applies one
// structural rule per order and falls back to the kernel's generic
// derivative when a rule cannot be applied. The implicit engine
// differentiates both sides of an equation and isolates y'.
package derive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/njchilds90/calcsteps/adapter"
	"github.com/njchilds90/calcsteps/steps"
	"github.com/njchilds90/calcsteps/symbolic"
)

const (
	RuleConstant         = "constant rule"
	RuleConstantMultiple = "constant multiple rule"
	RuleSum              = "sum rule"
	RuleProduct          = "product rule"
	RuleQuotient         = "quotient rule"
	RuleChain            = "chain rule"
	RulePower            = "power rule"
	RuleLogarithmic      = "logarithmic differentiation"
	RuleImplicit         = "implicit differentiation"
	RuleGeneric          = "generic differentiation"
)

// DefaultMaxOrder bounds the derivative order accepted by Differentiate.
const DefaultMaxOrder = 10

var tracer = otel.Tracer("github.com/njchilds90/calcsteps/derive")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Result is the outcome of one differentiation call. An empty Result
// field means no derivative could be produced.
type Result struct {
	Expression string       `json:"expression"`
	Variable   string       `json:"variable"`
	Order      int          `json:"order"`
	Implicit   bool         `json:"implicit"`
	Result     string       `json:"result,omitempty"`
	Steps      []steps.Step `json:"steps"`
	Rules      []string     `json:"rules"`
	Isolated   bool         `json:"isolated,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Clone returns a deep copy, so cached results stay immutable.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Steps = steps.Clone(r.Steps)
	out.Rules = append([]string(nil), r.Rules...)
	return &out
}

// Engine is stateless and safe for concurrent use.
type Engine struct {
	alg       adapter.Algebra
	logger    *slog.Logger
	maxOrder  int
	dependent string
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithMaxOrder(n int) Option { return func(e *Engine) { e.maxOrder = n } }

// WithDependent sets the symbol treated as a function of the variable in
// implicit mode. The default is y.
func WithDependent(name string) Option { return func(e *Engine) { e.dependent = name } }

func New(alg adapter.Algebra, opts ...Option) *Engine {
	e := &Engine{alg: alg, logger: slog.Default(), maxOrder: DefaultMaxOrder, dependent: "y"}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// session carries the trace of one top-level call.
type session struct {
	b     *steps.Builder
	rules map[string]struct{}
}

func newSession() *session {
	return &session{b: steps.NewBuilder(), rules: map[string]struct{}{}}
}

func (s *session) use(rule string) { s.rules[rule] = struct{}{} }

func (s *session) sortedRules() []string {
	out := make([]string, 0, len(s.rules))
	for r := range s.rules {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (s *session) finish(res *Result) *Result {
	res.Steps = s.b.Steps()
	res.Rules = s.sortedRules()
	return res
}

func (s *session) fail(res *Result, title, msg string) *Result {
	s.b.Fail(title, msg)
	res.Result = ""
	res.Error = msg
	return s.finish(res)
}

var (
	errInvalidVariable = errors.New("variable must be an identifier")
	errInvalidOrder    = errors.New("order out of range")
)

func validVariable(v string) error {
	if !identPattern.MatchString(v) {
		return fmt.Errorf("%w: %q", errInvalidVariable, v)
	}
	return nil
}

// Differentiate returns the order-th derivative of expression. Failures
// are reported as an error step, never as a panic or returned error.
func (e *Engine) Differentiate(ctx context.Context, expression, variable string, order int) *Result {
	_, span := tracer.Start(ctx, "derive.Differentiate", trace.WithAttributes(
		attribute.String("expression", expression),
		attribute.String("variable", variable),
		attribute.Int("order", order),
	))
	defer span.End()

	if order == 0 {
		order = 1
	}
	res := &Result{Expression: expression, Variable: variable, Order: order}
	s := newSession()

	if err := validVariable(variable); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return s.fail(res, "Invalid input", fmt.Sprintf("Cannot differentiate %q: %v", expression, err))
	}
	if order < 1 || order > e.maxOrder {
		err := fmt.Errorf("%w: %d (allowed 1..%d)", errInvalidOrder, order, e.maxOrder)
		span.SetStatus(codes.Error, err.Error())
		return s.fail(res, "Invalid input", fmt.Sprintf("Cannot differentiate %q: %v", expression, err))
	}
	expr, err := e.alg.Parse(expression)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return s.fail(res, "Parse error", fmt.Sprintf("Could not parse %q: %v", expression, err))
	}

	current := expr
	title := fmt.Sprintf("Differentiate f(%s) = %s with respect to %s", variable, e.alg.Render(expr), variable)
	if order > 1 {
		title += fmt.Sprintf(" %d times", order)
	}
	s.b.Add("Expression", title)

	for level := 1; level <= order; level++ {
		if order > 1 {
			s.b.Add(fmt.Sprintf("Derivative %d", level), fmt.Sprintf("Differentiate %s", e.alg.Render(current)))
		}
		d, err := e.differentiateOnce(current, variable, s)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return s.fail(res, "Error", fmt.Sprintf("Could not differentiate %q: %v", e.alg.Render(current), err))
		}
		rendered := e.alg.Render(d)
		if level < order {
			s.b.Result(fmt.Sprintf("%s result", notation(level, variable)), fmt.Sprintf("%s = %s", notation(level, variable), rendered), rendered)
			// The next order starts from the simplified text, as a person would.
			if next, err := e.alg.Parse(rendered); err == nil {
				d = next
			}
		}
		current = d
	}

	rendered := e.alg.Render(current)
	res.Result = rendered
	s.b.Final("Result", fmt.Sprintf("%s = %s", notation(order, variable), rendered), rendered)
	e.logger.Debug("derivative computed", "expression", expression, "variable", variable, "order", order, "result", rendered)
	return s.finish(res)
}

// notation renders f', f'' and f^(n) for higher orders.
func notation(order int, v string) string {
	if order <= 3 {
		return "f" + strings.Repeat("'", order) + "(" + v + ")"
	}
	return fmt.Sprintf("f^(%d)(%s)", order, v)
}

// strategy is one candidate way of differentiating an expression.
type strategy struct {
	name string
	run  func(expr symbolic.Expr, v string, s *session) (symbolic.Expr, error)
}

// differentiateOnce tries the structural rules, then the generic
// derivative. Each failure is narrated before the next candidate runs.
func (e *Engine) differentiateOnce(expr symbolic.Expr, v string, s *session) (symbolic.Expr, error) {
	candidates := []strategy{
		{name: "structural rule", run: e.structural},
		{name: RuleGeneric, run: e.generic},
	}
	var errs []error
	for _, c := range candidates {
		d, err := attempt(c, expr, v, s)
		if err == nil {
			return d, nil
		}
		errs = append(errs, err)
		e.logger.Warn("differentiation strategy failed", "strategy", c.name, "expression", expr.String(), "error", err)
		s.b.Add("Fallback", fmt.Sprintf("The %s could not be applied (%v); trying the next method", c.name, err))
	}
	return nil, errors.Join(errs...)
}

func attempt(c strategy, expr symbolic.Expr, v string, s *session) (d symbolic.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", c.name, r)
		}
	}()
	return c.run(expr, v, s)
}

func (e *Engine) generic(expr symbolic.Expr, v string, s *session) (symbolic.Expr, error) {
	d := e.alg.Derivative(expr, v)
	s.use(RuleGeneric)
	s.b.Result("Generic differentiation", fmt.Sprintf("d/d%s[%s] = %s", v, e.alg.Render(expr), e.alg.Render(d)), e.alg.Render(d))
	return d, nil
}

// simplified simplifies a rule's raw output, documenting the rewrite when
// the text changes.
func (e *Engine) simplified(raw symbolic.Expr, s *session) symbolic.Expr {
	out := e.alg.Simplify(raw)
	if before, after := raw.String(), e.alg.Render(out); before != after {
		s.b.Result("Simplify", fmt.Sprintf("%s = %s", before, after), after)
	}
	return out
}
