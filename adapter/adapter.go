// Package adapter is the narrow surface the calculus engines use to reach
// the symbolic kernel: parse, simplify, differentiate, evaluate, solve and
// render. Errors are classified so callers can tell bad input from a value
// that does not exist.
package adapter

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/njchilds90/calcsteps/symbolic"
)

var (
	ErrParse      = errors.New("cannot parse expression")
	ErrEvaluate   = errors.New("cannot evaluate expression")
	ErrNoSolution = errors.New("no solution found")
)

// Algebra is the set of primitive operations the engines depend on.
type Algebra interface {
	Parse(s string) (symbolic.Expr, error)
	Simplify(e symbolic.Expr) symbolic.Expr
	SimplifyString(s string) (string, error)
	Derivative(e symbolic.Expr, v string) symbolic.Expr
	Evaluate(e symbolic.Expr, env map[string]float64) (float64, error)
	SolveFor(e symbolic.Expr, v string) ([]symbolic.Expr, error)
	Cancel(num, den symbolic.Expr, v string) (symbolic.Expr, bool)
	Expand(e symbolic.Expr) symbolic.Expr
	Factor(e symbolic.Expr, v string) ([]symbolic.Expr, bool)
	Render(e symbolic.Expr) string
	LaTeX(e symbolic.Expr) string
}

// Kernel implements Algebra over the symbolic package.
type Kernel struct{}

func New() *Kernel { return &Kernel{} }

var _ Algebra = (*Kernel)(nil)

// folder maps typographic symbols onto the ASCII grammar.
var folder = strings.NewReplacer(
	"−", "-",
	"–", "-",
	"×", "*",
	"·", "*",
	"⋅", "*",
	"÷", "/",
	"√", "sqrt",
	"²", "^2",
	"³", "^3",
)

// Normalize applies NFC normalization and folds typographic operators.
func Normalize(s string) string {
	return strings.TrimSpace(folder.Replace(norm.NFC.String(s)))
}

func (k *Kernel) Parse(s string) (symbolic.Expr, error) {
	src := Normalize(s)
	if src == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}
	e, err := symbolic.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return e, nil
}

func (k *Kernel) Simplify(e symbolic.Expr) symbolic.Expr { return e.Simplify() }

// SimplifyString parses and re-renders s. Rendering a simplified tree is
// stable, so applying it twice gives the same text.
func (k *Kernel) SimplifyString(s string) (string, error) {
	e, err := k.Parse(s)
	if err != nil {
		return "", err
	}
	return e.String(), nil
}

func (k *Kernel) Derivative(e symbolic.Expr, v string) symbolic.Expr {
	return symbolic.Diff(e, v)
}

func (k *Kernel) Evaluate(e symbolic.Expr, env map[string]float64) (float64, error) {
	val, err := symbolic.Evaluate(e, env)
	if err != nil {
		return val, fmt.Errorf("%w: %w", ErrEvaluate, err)
	}
	return val, nil
}

func (k *Kernel) SolveFor(e symbolic.Expr, v string) ([]symbolic.Expr, error) {
	sols, err := symbolic.SolveFor(e, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSolution, err)
	}
	if len(sols) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoSolution, v)
	}
	return sols, nil
}

func (k *Kernel) Cancel(num, den symbolic.Expr, v string) (symbolic.Expr, bool) {
	return symbolic.CancelRational(num, den, v)
}

func (k *Kernel) Expand(e symbolic.Expr) symbolic.Expr { return symbolic.Expand(e) }

func (k *Kernel) Factor(e symbolic.Expr, v string) ([]symbolic.Expr, bool) {
	res := symbolic.Factor(e, v)
	return res.Factors, res.Success
}

func (k *Kernel) Render(e symbolic.Expr) string { return e.String() }
func (k *Kernel) LaTeX(e symbolic.Expr) string  { return e.LaTeX() }
