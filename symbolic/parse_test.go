package symbolic_test

import (
	"errors"
	"testing"

	"github.com/njchilds90/calcsteps/symbolic"
)

func TestParse_Canonical(t *testing.T) {
	cases := []struct{ src, want string }{
		{"x^3 + 2*x^2 + x", "x^3 + 2*x^2 + x"},
		{"2*x^2 - 4*x + 1", "2*x^2 - 4*x + 1"},
		{"x - x", "0"},
		{"x*x", "x^2"},
		{"(x^2 - 4)/(x - 2)", "(x^2 - 4)/(x - 2)"},
		{"sin(x)/x", "sin(x)/x"},
		{"-x/y", "-x/y"},
		{"2^-1", "1/2"},
		{"log(x)", "ln(x)"},
		{"sqrt(x + 1)", "sqrt(x + 1)"},
		{"y'", "y'"},
		{"0.5*x", "x/2"},
	}
	for _, c := range cases {
		e, err := symbolic.Parse(c.src)
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.src, err)
			continue
		}
		if got := e.String(); got != c.want {
			t.Errorf("%s: want %s, got %s", c.src, c.want, got)
		}
	}
}

func TestParse_Precedence(t *testing.T) {
	cases := []struct {
		src  string
		x    float64
		want float64
	}{
		{"-x^2", 3, -9},
		{"2^3^2", 0, 512},
		{"1 - 2 - 3", 0, -4},
		{"12/3/2", 0, 2},
		{"2*x^2 + 1", 2, 9},
	}
	for _, c := range cases {
		v, err := symbolic.EvaluateAt(symbolic.MustParse(c.src), "x", c.x)
		if err != nil || v != c.want {
			t.Errorf("%s: want %v, got %v (%v)", c.src, c.want, v, err)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"x^3 + 2*x^2 + x",
		"(4*x^2 + 2)/(x^2 + 1)",
		"sqrt(x + 1) - 1",
		"exp(-x^2)",
		"x^(1/2) + x^(3/2)",
		"2^x*ln(x)",
		"1/(2*x)",
		"cos(x)*sin(x)/(x^2 - 1)",
		"x^2*y + 3*y^2 - 1/3",
		"(x + 1)^(-2)",
	}
	for _, src := range inputs {
		first := symbolic.MustParse(src)
		again, err := symbolic.Parse(first.String())
		if err != nil {
			t.Errorf("%s: rendered %q does not parse: %v", src, first.String(), err)
			continue
		}
		if again.String() != first.String() {
			t.Errorf("%s: want %s, got %s", src, first.String(), again.String())
		}
	}
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{"", "x +", "(x", "sin x", "2 $ 3", "foo(x)", "x)", "1.2.3"}
	for _, src := range inputs {
		_, err := symbolic.Parse(src)
		var pe *symbolic.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%q: want *ParseError, got %v", src, err)
		}
	}
}
