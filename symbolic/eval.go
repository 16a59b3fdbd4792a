package symbolic

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUndefined reports a value that does not exist over the reals:
	// division by zero, a domain error, or an unbound symbol.
	ErrUndefined = errors.New("symbolic: undefined value")
	// ErrOverflow reports a result too large for float64. The returned
	// value is an infinity carrying the overflowing sign.
	ErrOverflow = errors.New("symbolic: value overflows float64")
)

// Evaluate computes e numerically with the symbols bound by env.
func Evaluate(e Expr, env map[string]float64) (float64, error) {
	v, err := evaluate(e, env)
	if err != nil {
		return v, err
	}
	if math.IsInf(v, 0) {
		return v, fmt.Errorf("%w: %s", ErrOverflow, e)
	}
	return v, nil
}

func evaluate(e Expr, env map[string]float64) (float64, error) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), nil
	case *Sym:
		x, ok := env[v.name]
		if !ok {
			return math.NaN(), fmt.Errorf("%w: unbound symbol %q", ErrUndefined, v.name)
		}
		return x, nil
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			x, err := evaluate(t, env)
			if err != nil {
				return x, err
			}
			acc += x
		}
		return checked(acc, e)
	case *Mul:
		acc := 1.0
		for _, f := range v.factors {
			x, err := evaluate(f, env)
			if err != nil {
				return x, err
			}
			acc *= x
		}
		return checked(acc, e)
	case *Pow:
		b, err := evaluate(v.base, env)
		if err != nil {
			return b, err
		}
		x, err := evaluate(v.exp, env)
		if err != nil {
			return x, err
		}
		if b == 0 && x < 0 {
			return math.NaN(), fmt.Errorf("%w: division by zero in %s", ErrUndefined, e)
		}
		if b < 0 && x != math.Trunc(x) {
			return math.NaN(), fmt.Errorf("%w: even root of a negative number in %s", ErrUndefined, e)
		}
		return checked(math.Pow(b, x), e)
	case *Func:
		x, err := evaluate(v.arg, env)
		if err != nil {
			return x, err
		}
		switch v.name {
		case "ln":
			if x <= 0 {
				return math.NaN(), fmt.Errorf("%w: ln of non-positive value in %s", ErrUndefined, e)
			}
		case "sec":
			if math.Cos(x) == 0 {
				return math.NaN(), fmt.Errorf("%w: division by zero in %s", ErrUndefined, e)
			}
		}
		r, ok := apply(v.name, x)
		if !ok {
			return math.NaN(), fmt.Errorf("%w: unknown function %q", ErrUndefined, v.name)
		}
		return checked(r, e)
	}
	return math.NaN(), fmt.Errorf("%w: cannot evaluate %s", ErrUndefined, e)
}

func checked(v float64, e Expr) (float64, error) {
	if math.IsNaN(v) {
		return v, fmt.Errorf("%w: %s is not a number", ErrUndefined, e)
	}
	if math.IsInf(v, 0) {
		return v, fmt.Errorf("%w: %s", ErrOverflow, e)
	}
	return v, nil
}

// EvaluateAt evaluates e with a single variable bound to x.
func EvaluateAt(e Expr, varName string, x float64) (float64, error) {
	return Evaluate(e, map[string]float64{varName: x})
}
