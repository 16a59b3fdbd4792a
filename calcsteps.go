// Package calcsteps is a step-narrating calculus engine. It differentiates
// expressions (explicitly or implicitly), evaluates limits, and generates
// practice exercises, returning every intermediate inference alongside the
// answer.
//
//	c := calcsteps.New()
//	res := c.Differentiate(ctx, "x^3 + 2*x^2 + x", "x", 1)
//	fmt.Println(res.Result) // 3*x^2 + 4*x + 1
package calcsteps

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/njchilds90/calcsteps/adapter"
	"github.com/njchilds90/calcsteps/derive"
	"github.com/njchilds90/calcsteps/exercise"
	"github.com/njchilds90/calcsteps/internal/cache"
	"github.com/njchilds90/calcsteps/internal/config"
	"github.com/njchilds90/calcsteps/limit"
)

// Calculator wires the expression adapter, the engines and a bounded
// result cache. It is safe for concurrent use.
type Calculator struct {
	cfg    config.Config
	logger *slog.Logger
	alg    adapter.Algebra
	seed   *uint64

	derive *derive.Engine
	limit  *limit.Engine
	gen    *exercise.Generator

	derivatives *cache.LRU[*derive.Result]
	limits      *cache.LRU[*limit.Result]
}

type Option func(*Calculator)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option { return func(c *Calculator) { c.cfg = cfg } }

func WithLogger(l *slog.Logger) Option { return func(c *Calculator) { c.logger = l } }

// WithCacheSize bounds each result cache. Zero uses the default capacity.
func WithCacheSize(n int) Option { return func(c *Calculator) { c.cfg.CacheSize = n } }

// WithSeed makes exercise generation deterministic.
func WithSeed(seed uint64) Option { return func(c *Calculator) { c.seed = &seed } }

func New(opts ...Option) *Calculator {
	c := &Calculator{cfg: config.Default(), logger: slog.Default(), alg: adapter.New()}
	for _, opt := range opts {
		opt(c)
	}
	c.derive = derive.New(c.alg,
		derive.WithLogger(c.logger),
		derive.WithMaxOrder(c.cfg.MaxOrder),
		derive.WithDependent(c.cfg.Dependent),
	)
	c.limit = limit.New(c.alg,
		limit.WithLogger(c.logger),
		limit.WithEpsilon(c.cfg.Limit.Epsilon),
		limit.WithSurrogate(c.cfg.Limit.Surrogate),
		limit.WithThreshold(c.cfg.Limit.InfinityThreshold),
		limit.WithDecimals(c.cfg.Limit.Decimals),
	)
	if c.seed != nil {
		c.gen = exercise.New(*c.seed)
	} else {
		c.gen = exercise.NewRandom()
	}
	c.derivatives = cache.New[*derive.Result]("derivative", c.cfg.CacheSize)
	c.limits = cache.New[*limit.Result]("limit", c.cfg.CacheSize)
	return c
}

func cacheKey(parts ...string) string { return strings.Join(parts, "\x00") }

// Differentiate returns the order-th derivative of expression with respect
// to variable. Order 0 means 1.
func (c *Calculator) Differentiate(ctx context.Context, expression, variable string, order int) *derive.Result {
	if order == 0 {
		order = 1
	}
	key := cacheKey("d", adapter.Normalize(expression), variable, strconv.Itoa(order))
	res := c.derivatives.GetOrCompute(ctx, key, func() *derive.Result {
		return c.derive.Differentiate(ctx, expression, variable, order)
	}, cacheable).Clone()
	res.Expression = expression
	return res
}

// DifferentiateImplicit finds dy/dx for an equation in variable and the
// configured dependent symbol.
func (c *Calculator) DifferentiateImplicit(ctx context.Context, equation, variable string) *derive.Result {
	key := cacheKey("i", adapter.Normalize(equation), variable)
	res := c.derivatives.GetOrCompute(ctx, key, func() *derive.Result {
		return c.derive.DifferentiateImplicit(ctx, equation, variable)
	}, cacheable).Clone()
	res.Expression = equation
	return res
}

// Limit evaluates the limit of expression as variable approaches point.
func (c *Calculator) Limit(ctx context.Context, expression, variable string, point limit.Point) *limit.Result {
	key := cacheKey("l", adapter.Normalize(expression), variable, point.String())
	res := c.limits.GetOrCompute(ctx, key, func() *limit.Result {
		return c.limit.Limit(ctx, expression, variable, point)
	}, nil).Clone()
	res.Expression = expression
	return res
}

// cacheable skips results for input that was rejected before parsing
// succeeded.
func cacheable(r *derive.Result) bool {
	if r.Error == "" {
		return true
	}
	last := r.Steps[len(r.Steps)-1]
	return last.Title != "Invalid input" && !strings.HasPrefix(last.Title, "Parse error")
}

// GenerateExercise produces an exercise. An empty kind means derivative
// and an empty category picks one at random.
func (c *Calculator) GenerateExercise(kind exercise.Kind, category exercise.Category) (exercise.Exercise, error) {
	ex, err := c.gen.Generate(kind, category)
	if err != nil {
		return exercise.Exercise{}, err
	}
	c.logger.Debug("exercise generated", "kind", ex.Kind, "category", ex.Category, "expression", ex.Expression)
	return ex, nil
}

// Simplify returns the canonical rendering of expression.
func (c *Calculator) Simplify(expression string) (string, error) {
	return c.alg.SimplifyString(expression)
}

// LaTeX renders expression as LaTeX after simplification.
func (c *Calculator) LaTeX(expression string) (string, error) {
	e, err := c.alg.Parse(expression)
	if err != nil {
		return "", err
	}
	return c.alg.LaTeX(e), nil
}

// CacheStats reports counters for the derivative and limit caches.
func (c *Calculator) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"derivative": c.derivatives.Stats(),
		"limit":      c.limits.Stats(),
	}
}

func (c *Calculator) String() string {
	return fmt.Sprintf("calcsteps.Calculator{cache_size: %d, max_order: %d, dependent: %s}",
		c.cfg.CacheSize, c.cfg.MaxOrder, c.cfg.Dependent)
}
