package symbolic

import (
	"math"
	"math/big"
)

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

// FuncOf applies a named function to arg. Names outside the built-in set
// are kept as opaque functions whose derivative is written D[name].
func FuncOf(name string, arg Expr) Expr { return funcOf(name, arg).Simplify() }

func SinOf(arg Expr) Expr  { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr  { return funcOf("tan", arg).Simplify() }
func SecOf(arg Expr) Expr  { return funcOf("sec", arg).Simplify() }
func ExpOf(arg Expr) Expr  { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr   { return funcOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr  { return funcOf("abs", arg).Simplify() }
func SinhOf(arg Expr) Expr { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr { return funcOf("tanh", arg).Simplify() }

// knownFuncs lists the functions the parser and evaluator understand.
var knownFuncs = map[string]bool{
	"sin": true, "cos": true, "tan": true, "sec": true,
	"exp": true, "ln": true, "abs": true,
	"asin": true, "acos": true, "atan": true,
	"sinh": true, "cosh": true, "tanh": true,
}

// IsKnownFunc reports whether name is a built-in function.
func IsKnownFunc(name string) bool { return knownFuncs[name] }

// zeroAt holds f(0) for the functions with an exact value there.
var zeroAt = map[string]int64{
	"sin": 0, "cos": 1, "tan": 0, "sec": 1, "exp": 1,
	"asin": 0, "atan": 0, "sinh": 0, "cosh": 1, "tanh": 0,
}

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if isNumEqual(arg, 0) {
		if v, ok := zeroAt[f.name]; ok {
			return N(v)
		}
	}
	switch f.name {
	case "ln":
		if n, ok := arg.(*Num); ok && n.IsOne() {
			return N(0)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			return numAbs(n)
		}
		if m, ok := arg.(*Mul); ok && len(m.factors) >= 2 {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegOne() {
				return AbsOf(MulOf(m.factors[1:]...))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	switch f.name {
	case "sin", "cos", "tan", "sec", "exp", "ln", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

// OuterDiff returns the derivative of the outer function evaluated at the
// argument, without the chain factor. ok is false for opaque functions.
func OuterDiff(name string, arg Expr) (Expr, bool) {
	switch name {
	case "sin":
		return CosOf(arg), true
	case "cos":
		return MulOf(N(-1), SinOf(arg)), true
	case "tan":
		return PowOf(SecOf(arg), N(2)), true
	case "sec":
		return MulOf(SecOf(arg), TanOf(arg)), true
	case "exp":
		return ExpOf(arg), true
	case "ln":
		return PowOf(arg, N(-1)), true
	case "abs":
		return MulOf(arg, PowOf(AbsOf(arg), N(-1))), true
	case "asin":
		return PowOf(AddOf(N(1), MulOf(N(-1), PowOf(arg, N(2)))), F(-1, 2)), true
	case "acos":
		return MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(arg, N(2)))), F(-1, 2))), true
	case "atan":
		return PowOf(AddOf(N(1), PowOf(arg, N(2))), N(-1)), true
	case "sinh":
		return CoshOf(arg), true
	case "cosh":
		return SinhOf(arg), true
	case "tanh":
		return AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(arg), N(2)))), true
	}
	return nil, false
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	outer, ok := OuterDiff(f.name, f.arg)
	if !ok {
		return MulOf(funcOf("D["+f.name+"]", f.arg), du)
	}
	return MulOf(outer, du)
}

// apply evaluates a built-in function over float64.
func apply(name string, v float64) (float64, bool) {
	switch name {
	case "sin":
		return math.Sin(v), true
	case "cos":
		return math.Cos(v), true
	case "tan":
		return math.Tan(v), true
	case "sec":
		return 1 / math.Cos(v), true
	case "exp":
		return math.Exp(v), true
	case "ln":
		return math.Log(v), true
	case "abs":
		return math.Abs(v), true
	case "asin":
		return math.Asin(v), true
	case "acos":
		return math.Acos(v), true
	case "atan":
		return math.Atan(v), true
	case "sinh":
		return math.Sinh(v), true
	case "cosh":
		return math.Cosh(v), true
	case "tanh":
		return math.Tanh(v), true
	}
	return 0, false
}

func (f *Func) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	if f.name == "abs" {
		return numAbs(n), true
	}
	v, _ := n.val.Float64()
	r, ok := apply(f.name, v)
	if !ok || math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFloat64(r)}, true
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }
