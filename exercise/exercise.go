// Package exercise generates randomized practice problems for the
// derivative and limit engines.
package exercise

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/njchilds90/calcsteps/limit"
	"github.com/njchilds90/calcsteps/symbolic"
)

// Kind separates derivative exercises from limit exercises.
type Kind string

const (
	KindDerivative Kind = "derivative"
	KindLimit      Kind = "limit"
)

// Category selects the shape of a generated expression.
type Category string

// Derivative categories.
const (
	Polynomial    Category = "polynomial"
	Product       Category = "product"
	Quotient      Category = "quotient"
	Chain         Category = "chain"
	Trigonometric Category = "trigonometric"
	Exponential   Category = "exponential"
	Logarithmic   Category = "logarithmic"
	Implicit      Category = "implicit"
)

// Limit categories. Polynomial and Trigonometric are shared with the
// derivative set.
const (
	RationalZero     Category = "rational-0/0"
	RationalInfinity Category = "rational-∞/∞"
	Radical          Category = "radical"
)

var ErrUnknownCategory = errors.New("exercise: unknown category")

// Exercise is one generated problem. Point is set for limit exercises.
type Exercise struct {
	Kind        Kind         `json:"kind"`
	Category    Category     `json:"category"`
	Expression  string       `json:"expression"`
	Variable    string       `json:"variable"`
	Order       int          `json:"order"`
	Implicit    bool         `json:"implicit"`
	Description string       `json:"description"`
	Point       *limit.Point `json:"point,omitempty"`
}

func DerivativeCategories() []Category {
	return []Category{Polynomial, Product, Quotient, Chain, Trigonometric, Exponential, Logarithmic, Implicit}
}

func LimitCategories() []Category {
	return []Category{Polynomial, RationalZero, RationalInfinity, Radical, Trigonometric}
}

// Generator produces exercises from a seeded PCG source. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a generator whose output is fully determined by seed.
func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandom returns a generator seeded from the clock.
func NewRandom() *Generator { return New(uint64(time.Now().UnixNano())) }

// between returns an integer in [lo, hi].
func (g *Generator) between(lo, hi int) int { return lo + g.rng.IntN(hi-lo+1) }

// nonZero returns an integer in [-n, n] other than 0.
func (g *Generator) nonZero(n int) int {
	v := g.between(1, n)
	if g.rng.IntN(2) == 0 {
		return -v
	}
	return v
}

// fill substitutes a and b into a template.
func fill(tmpl string, a, b int) string {
	return strings.NewReplacer("{a}", strconv.Itoa(a), "{b}", strconv.Itoa(b)).Replace(tmpl)
}

func pick[T any](g *Generator, items []T) T { return items[g.rng.IntN(len(items))] }

var x = symbolic.S("x")

func term(c, n int) symbolic.Expr {
	return symbolic.MulOf(symbolic.N(int64(c)), symbolic.PowOf(x, symbolic.N(int64(n))))
}

// Derivative generates a derivative exercise. An empty category picks one
// at random.
func (g *Generator) Derivative(cat Category) (Exercise, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cat == "" {
		cat = pick(g, DerivativeCategories())
	}
	ex := Exercise{Kind: KindDerivative, Category: cat, Variable: "x", Order: 1}
	switch cat {
	case Polynomial:
		n := g.between(3, 5)
		p := symbolic.AddOf(term(g.between(1, 9), n), term(g.nonZero(9), n-1), term(g.nonZero(9), 1), symbolic.N(int64(g.nonZero(9))))
		ex.Expression = p.String()
		ex.Order = g.between(1, 2)
		ex.Description = "Differentiate the polynomial term by term"
		if ex.Order == 2 {
			ex.Description = "Find the second derivative of the polynomial"
		}
	case Product:
		fs := g.rng.Perm(len(productFactors))
		a, b := g.between(2, 4), g.between(2, 4)
		ex.Expression = fill(productFactors[fs[0]], a, b) + "*" + fill(productFactors[fs[1]], a, b)
		ex.Description = "Differentiate using the product rule"
	case Quotient:
		ex.Expression = fill(pick(g, quotientTemplates), g.between(1, 9), g.between(1, 9))
		ex.Description = "Differentiate using the quotient rule"
	case Chain:
		ex.Expression = fill(pick(g, chainTemplates), g.between(2, 5), g.between(1, 9))
		ex.Description = "Differentiate the composition using the chain rule"
	case Trigonometric:
		ex.Expression = fill(pick(g, trigTemplates), g.between(2, 5), g.between(2, 5))
		ex.Description = "Differentiate the trigonometric expression"
	case Exponential:
		ex.Expression = fill(pick(g, expTemplates), g.between(2, 5), g.between(2, 5))
		ex.Description = "Differentiate the exponential expression"
	case Logarithmic:
		ex.Expression = fill(pick(g, logTemplates), g.between(2, 5), g.between(1, 9))
		ex.Description = "Differentiate the logarithmic expression"
	case Implicit:
		ex.Expression = fill(pick(g, implicitTemplates), g.between(2, 9), g.between(2, 9))
		ex.Implicit = true
		ex.Description = "Find dy/dx by implicit differentiation, treating y as a function of x"
	default:
		return Exercise{}, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	return ex, nil
}

// Templates mark their integer slots with {a} and {b}.
var (
	productFactors = []string{"x^{a}", "sin({b}*x)", "exp(x)", "ln(x)", "cos(x)"}

	quotientTemplates = []string{
		"(x^2 + {a})/(x + {b})",
		"sin(x)/(x + {a})",
		"({a}*x + {b})/(x^2 + 1)",
		"exp(x)/(x^2 + {a})",
	}
	chainTemplates = []string{
		"sin({a}*x^2 + {b})",
		"({a}*x + {b})^5",
		"sqrt(x^2 + {b})",
		"exp({a}*x^2)",
		"cos(x^{a})",
	}
	trigTemplates = []string{
		"sin({a}*x) + cos({b}*x)",
		"tan({a}*x)",
		"sin(x)*cos({b}*x)",
		"{a}*sin(x)^2",
	}
	expTemplates = []string{
		"exp({a}*x)",
		"{a}*exp(x^2)",
		"x*exp({b}*x)",
		"exp(sin(x))",
	}
	logTemplates = []string{
		"ln({a}*x + {b})",
		"x*ln(x)",
		"ln(x^2 + {b})",
		"ln(sin(x))",
	}
	implicitTemplates = []string{
		"x^2 + y^2 = {a}",
		"x*y = {a}",
		"x^3 + y^3 = {a}*x*y",
		"x^2 - x*y + y^2 = {b}",
		"sin(y) + x = {a}",
	}
)

// Limit generates a limit exercise. An empty category picks one at random.
func (g *Generator) Limit(cat Category) (Exercise, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cat == "" {
		cat = pick(g, LimitCategories())
	}
	ex := Exercise{Kind: KindLimit, Category: cat, Variable: "x", Order: 1}
	var point limit.Point
	switch cat {
	case Polynomial:
		p := symbolic.AddOf(term(g.nonZero(9), 2), term(g.nonZero(9), 1), symbolic.N(int64(g.nonZero(9))))
		ex.Expression = p.String()
		point = limit.At(float64(g.between(-3, 3)))
		ex.Description = "Evaluate the limit by direct substitution"
	case RationalZero:
		r, q := g.nonZero(5), g.nonZero(5)
		for q == r {
			q = g.nonZero(5)
		}
		root := symbolic.AddOf(x, symbolic.N(int64(-r)))
		num := symbolic.Expand(symbolic.MulOf(root, symbolic.AddOf(x, symbolic.N(int64(-q)))))
		if g.rng.IntN(2) == 0 {
			num = symbolic.Expand(symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(int64(-r*r))))
		}
		ex.Expression = "(" + num.String() + ")/(" + root.String() + ")"
		point = limit.At(float64(r))
		ex.Description = "Resolve the 0/0 form by factoring and cancelling"
	case RationalInfinity:
		n := g.between(1, 3)
		num := symbolic.AddOf(term(g.between(1, 9), n), symbolic.N(int64(g.nonZero(9))))
		den := symbolic.AddOf(term(g.between(1, 9), g.between(2, 3)), term(g.nonZero(9), 1))
		ex.Expression = "(" + num.String() + ")/(" + den.String() + ")"
		point = limit.PosInf
		if g.rng.IntN(3) == 0 {
			point = limit.NegInf
		}
		ex.Description = "Compare the degrees of numerator and denominator"
	case Radical:
		a := g.between(1, 5)
		ex.Expression = fill(pick(g, radicalTemplates), a*a, a)
		point = limit.At(0)
		ex.Description = "Rationalize with the conjugate to resolve the 0/0 form"
	case Trigonometric:
		ex.Expression = fill(pick(g, trigLimitTemplates), g.between(2, 5), 0)
		point = limit.At(0)
		ex.Description = "Evaluate the trigonometric limit at 0"
	default:
		return Exercise{}, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	ex.Point = &point
	return ex, nil
}

var (
	radicalTemplates = []string{
		"(sqrt(x + {a}) - {b})/x",
		"x/(sqrt(x + {a}) - {b})",
	}
	trigLimitTemplates = []string{
		"sin({a}*x)/x",
		"(1 - cos(x))/x^2",
		"tan({a}*x)/x",
		"x/sin({a}*x)",
	}
)

// Generate produces an exercise of the given kind and category.
func (g *Generator) Generate(kind Kind, cat Category) (Exercise, error) {
	switch kind {
	case KindLimit:
		return g.Limit(cat)
	case KindDerivative, "":
		return g.Derivative(cat)
	}
	return Exercise{}, fmt.Errorf("exercise: unknown kind %q", kind)
}
