package symbolic_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/calcsteps/symbolic"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := symbolic.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := symbolic.F(1, 3)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_Decimal(t *testing.T) {
	n := symbolic.F(1, 10000)
	if n.String() != "0.0001" {
		t.Errorf("want 0.0001, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	n := symbolic.F(2, 5)
	if n.LaTeX() != `\frac{2}{5}` {
		t.Errorf("want \\frac{2}{5}, got %s", n.LaTeX())
	}
}

func TestNum_Diff_IsZero(t *testing.T) {
	result := symbolic.N(5).Diff("x")
	if symbolic.String(result) != "0" {
		t.Errorf("d/dx(5) should be 0, got %s", symbolic.String(result))
	}
}

// ============================================================
// Sym tests
// ============================================================

func TestSym_Sub(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.String(x.Sub("x", symbolic.N(3))); got != "3" {
		t.Errorf("want 3, got %s", got)
	}
	if got := symbolic.String(x.Sub("y", symbolic.N(3))); got != "x" {
		t.Errorf("want x, got %s", got)
	}
}

func TestSym_Diff(t *testing.T) {
	if got := symbolic.String(symbolic.S("x").Diff("x")); got != "1" {
		t.Errorf("d/dx(x) should be 1, got %s", got)
	}
	if got := symbolic.String(symbolic.S("y").Diff("x")); got != "0" {
		t.Errorf("d/dx(y) should be 0, got %s", got)
	}
}

// ============================================================
// Add / Mul tests
// ============================================================

func TestAdd_Simple(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.N(3))
	if symbolic.String(expr) != "x + 3" {
		t.Errorf("want 'x + 3', got %s", symbolic.String(expr))
	}
}

func TestAdd_CollapseToZero(t *testing.T) {
	expr := symbolic.AddOf(symbolic.N(1), symbolic.N(-1))
	if symbolic.String(expr) != "0" {
		t.Errorf("want 0, got %s", symbolic.String(expr))
	}
}

func TestAdd_LikeTerms(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.String(symbolic.AddOf(x, x)); got != "2*x" {
		t.Errorf("want '2*x', got %s", got)
	}
	x2 := symbolic.PowOf(x, symbolic.N(2))
	if got := symbolic.String(symbolic.AddOf(symbolic.MulOf(symbolic.N(2), x2), x2)); got != "3*x^2" {
		t.Errorf("want '3*x^2', got %s", got)
	}
}

func TestAdd_Subtraction(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.MulOf(symbolic.N(-3), x), symbolic.N(2))
	if got := symbolic.String(expr); got != "x^2 - 3*x + 2" {
		t.Errorf("want 'x^2 - 3*x + 2', got %s", got)
	}
}

func TestAdd_Diff(t *testing.T) {
	// d/dx(x^2 + 3x + 1) = 2x + 3
	x := symbolic.S("x")
	expr := symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.MulOf(symbolic.N(3), x), symbolic.N(1))
	if got := symbolic.String(symbolic.Diff(expr, "x")); got != "2*x + 3" {
		t.Errorf("want '2*x + 3', got %s", got)
	}
}

func TestMul_LikeFactors(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.String(symbolic.MulOf(x, symbolic.PowOf(x, symbolic.N(2)))); got != "x^3" {
		t.Errorf("want x^3, got %s", got)
	}
	if got := symbolic.String(symbolic.MulOf(x, symbolic.PowOf(x, symbolic.N(-1)))); got != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestMul_ZeroFactor(t *testing.T) {
	if got := symbolic.String(symbolic.MulOf(symbolic.N(0), symbolic.S("x"))); got != "0" {
		t.Errorf("want 0, got %s", got)
	}
}

func TestMul_Quotients(t *testing.T) {
	x, y := symbolic.S("x"), symbolic.S("y")
	cases := []struct {
		expr symbolic.Expr
		want string
	}{
		{symbolic.MulOf(x, symbolic.PowOf(symbolic.AddOf(x, symbolic.N(1)), symbolic.N(-1))), "x/(x + 1)"},
		{symbolic.MulOf(symbolic.N(-1), x, symbolic.PowOf(y, symbolic.N(-1))), "-x/y"},
		{symbolic.MulOf(symbolic.F(1, 2), x), "x/2"},
		{symbolic.PowOf(symbolic.MulOf(symbolic.N(2), x), symbolic.N(-1)), "1/(2*x)"},
	}
	for _, c := range cases {
		if got := c.expr.String(); got != c.want {
			t.Errorf("want %s, got %s", c.want, got)
		}
	}
}

// ============================================================
// Pow / Func tests
// ============================================================

func TestPow_ExactRoots(t *testing.T) {
	cases := []struct {
		expr symbolic.Expr
		want string
	}{
		{symbolic.SqrtOf(symbolic.N(4)), "2"},
		{symbolic.PowOf(symbolic.N(8), symbolic.F(1, 3)), "2"},
		{symbolic.SqrtOf(symbolic.F(1, 4)), "1/2"},
		{symbolic.SqrtOf(symbolic.N(2)), "sqrt(2)"},
		{symbolic.SqrtOf(symbolic.S("x")), "sqrt(x)"},
	}
	for _, c := range cases {
		if got := c.expr.String(); got != c.want {
			t.Errorf("want %s, got %s", c.want, got)
		}
	}
}

func TestPow_SqrtSquared(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.PowOf(symbolic.SqrtOf(x), symbolic.N(2)).String(); got != "x" {
		t.Errorf("want x, got %s", got)
	}
}

func TestFunc_Inverses(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.LnOf(symbolic.ExpOf(x)).String(); got != "x" {
		t.Errorf("ln(exp(x)) want x, got %s", got)
	}
	if got := symbolic.ExpOf(symbolic.LnOf(x)).String(); got != "x" {
		t.Errorf("exp(ln(x)) want x, got %s", got)
	}
	if got := symbolic.SinOf(symbolic.N(0)).String(); got != "0" {
		t.Errorf("sin(0) want 0, got %s", got)
	}
	if got := symbolic.SecOf(symbolic.N(0)).String(); got != "1" {
		t.Errorf("sec(0) want 1, got %s", got)
	}
}

func TestFunc_Diff(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.Diff(symbolic.SinOf(x), "x").String(); got != "cos(x)" {
		t.Errorf("want cos(x), got %s", got)
	}
	if got := symbolic.Diff(symbolic.TanOf(x), "x").String(); got != "sec(x)^2" {
		t.Errorf("want sec(x)^2, got %s", got)
	}
	y := symbolic.FuncOf("y", x)
	if got := symbolic.Diff(y, "x").String(); got != "D[y](x)" {
		t.Errorf("want D[y](x), got %s", got)
	}
}

func TestOrdering_Deterministic(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.AddOf(symbolic.SinOf(x), symbolic.PowOf(x, symbolic.N(2)))
	if got := expr.String(); got != "x^2 + sin(x)" {
		t.Errorf("want 'x^2 + sin(x)', got %s", got)
	}
}

// ============================================================
// Evaluate tests
// ============================================================

func TestEvaluate(t *testing.T) {
	e := symbolic.MustParse("x^2 + 2*x + 1")
	v, err := symbolic.EvaluateAt(e, "x", 3)
	if err != nil || v != 16 {
		t.Errorf("want 16, got %v (%v)", v, err)
	}
}

func TestEvaluate_Undefined(t *testing.T) {
	cases := []string{"1/x", "ln(x)", "sqrt(x - 1)"}
	for _, src := range cases {
		_, err := symbolic.EvaluateAt(symbolic.MustParse(src), "x", 0)
		if !errors.Is(err, symbolic.ErrUndefined) {
			t.Errorf("%s at 0: want ErrUndefined, got %v", src, err)
		}
	}
	if _, err := symbolic.Evaluate(symbolic.S("q"), nil); !errors.Is(err, symbolic.ErrUndefined) {
		t.Errorf("unbound symbol: want ErrUndefined, got %v", err)
	}
}

func TestEvaluate_Overflow(t *testing.T) {
	v, err := symbolic.EvaluateAt(symbolic.MustParse("exp(x)"), "x", 1000)
	if !errors.Is(err, symbolic.ErrOverflow) || !math.IsInf(v, 1) {
		t.Errorf("want +Inf overflow, got %v (%v)", v, err)
	}
}

// ============================================================
// Polynomial tests
// ============================================================

func TestExpand_Square(t *testing.T) {
	e := symbolic.Expand(symbolic.MustParse("(x + 1)^2"))
	if got := e.String(); got != "x^2 + 2*x + 1" {
		t.Errorf("want 'x^2 + 2*x + 1', got %s", got)
	}
}

func TestExpand_Product(t *testing.T) {
	e := symbolic.Expand(symbolic.MustParse("(x - 2)*(x + 2)"))
	if got := e.String(); got != "x^2 - 4" {
		t.Errorf("want 'x^2 - 4', got %s", got)
	}
}

func TestDegree(t *testing.T) {
	if d := symbolic.Degree(symbolic.MustParse("4*x^3 - x + 7"), "x"); d != 3 {
		t.Errorf("want 3, got %d", d)
	}
}

func TestCancelRational(t *testing.T) {
	cases := []struct{ num, den, want string }{
		{"x^2 - 4", "x - 2", "x + 2"},
		{"x^2 - 3*x + 2", "x^2 - 1", "(x - 2)/(x + 1)"},
	}
	for _, c := range cases {
		got, ok := symbolic.CancelRational(symbolic.MustParse(c.num), symbolic.MustParse(c.den), "x")
		if !ok {
			t.Errorf("(%s)/(%s): expected cancellation", c.num, c.den)
			continue
		}
		if got.String() != c.want {
			t.Errorf("want %s, got %s", c.want, got)
		}
	}
	if _, ok := symbolic.CancelRational(symbolic.MustParse("x + 1"), symbolic.MustParse("x - 1"), "x"); ok {
		t.Errorf("coprime polynomials should not cancel")
	}
}

func TestFactor(t *testing.T) {
	cases := []struct {
		src  string
		want []string
	}{
		{"x^2 - 4", []string{"x - 2", "x + 2"}},
		{"x^2 - 5*x + 6", []string{"x - 2", "x - 3"}},
		{"2*x^2 - 8", []string{"2", "x - 2", "x + 2"}},
	}
	for _, c := range cases {
		res := symbolic.Factor(symbolic.MustParse(c.src), "x")
		if !res.Success || len(res.Factors) != len(c.want) {
			t.Errorf("%s: want %v, got %v", c.src, c.want, res.Factors)
			continue
		}
		for i, f := range res.Factors {
			if f.String() != c.want[i] {
				t.Errorf("%s: factor %d want %s, got %s", c.src, i, c.want[i], f)
			}
		}
	}
}

// ============================================================
// Solver tests
// ============================================================

func TestSolveFor_Linear(t *testing.T) {
	sols, err := symbolic.SolveFor(symbolic.MustParse("2*x + 2*y*d"), "d")
	if err != nil || len(sols) != 1 {
		t.Fatalf("want one solution, got %v (%v)", sols, err)
	}
	if got := sols[0].String(); got != "-x/y" {
		t.Errorf("want -x/y, got %s", got)
	}
}

func TestSolveFor_NotLinear(t *testing.T) {
	_, err := symbolic.SolveFor(symbolic.MustParse("d^2 + x"), "d")
	if !errors.Is(err, symbolic.ErrNotLinear) {
		t.Errorf("want ErrNotLinear, got %v", err)
	}
}

func TestSolveLinear_Numeric(t *testing.T) {
	res := symbolic.SolveLinear(symbolic.N(2), symbolic.N(-6))
	if res.Error != "" || res.Solutions[0].String() != "3" {
		t.Errorf("want 3, got %v %s", res.Solutions, res.Error)
	}
}

func TestEquation_Residual(t *testing.T) {
	eq := symbolic.Eq(symbolic.MustParse("x^2"), symbolic.N(4))
	if got := eq.Residual().String(); got != "x^2 - 4" {
		t.Errorf("want 'x^2 - 4', got %s", got)
	}
	if got := eq.String(); got != "x^2 = 4" {
		t.Errorf("want 'x^2 = 4', got %s", got)
	}
}

// ============================================================
// JSON tests
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	e := symbolic.MustParse("sin(x)^2 + 3*x/(x + 1)")
	s, err := symbolic.ToJSON(e)
	if err != nil {
		t.Fatal(err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		t.Fatal(err)
	}
	back, err := symbolic.FromJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(e) {
		t.Errorf("want %s, got %s", e, back)
	}
}

func TestJSON_Errors(t *testing.T) {
	if _, err := symbolic.FromJSON(map[string]interface{}{"type": "wat"}); err == nil {
		t.Errorf("unknown type should fail")
	}
	if _, err := symbolic.FromJSON(nil); err == nil {
		t.Errorf("nil object should fail")
	}
}
