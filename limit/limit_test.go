package limit

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/calcsteps/adapter"
)

func newEngine(opts ...Option) *Engine { return New(adapter.New(), opts...) }

func requireValue(t *testing.T, res *Result) float64 {
	t.Helper()
	require.Empty(t, res.Error)
	v, ok := res.Result.Float64()
	require.True(t, ok, "result is null")
	require.NotEmpty(t, res.Steps)
	last := res.Steps[len(res.Steps)-1]
	require.True(t, last.Final)
	require.False(t, last.Error)
	return v
}

func TestLimit_DirectSubstitution(t *testing.T) {
	res := newEngine().Limit(context.Background(), "x^2 + 3*x", "x", At(2))
	assert.Equal(t, 10.0, requireValue(t, res))
	assert.Empty(t, res.Indetermination)
	assert.Empty(t, res.FactorizationMethod)
}

func TestLimit_DifferenceOfSquares(t *testing.T) {
	res := newEngine().Limit(context.Background(), "(x^2 - 4)/(x - 2)", "x", At(2))
	assert.Equal(t, 4.0, requireValue(t, res))
	assert.Equal(t, FormZeroOverZero, res.Indetermination)
	assert.Equal(t, MethodDifferenceOfSquares, res.FactorizationMethod)
}

func TestLimit_Strategies(t *testing.T) {
	cases := []struct {
		src    string
		at     float64
		want   float64
		method string
	}{
		{"(x^2 - 9)/(x + 3)", -3, -6, MethodDifferenceOfSquares},
		{"(x^2 - 3*x + 2)/(x - 1)", 1, -1, MethodCommonFactor},
		{"(x^3 - 8)/(x - 2)", 2, 12, MethodCommonFactor},
		{"(sqrt(x + 4) - 2)/x", 0, 0.25, MethodConjugate},
		{"x/(sqrt(x + 1) - 1)", 0, 2, MethodConjugate},
		{"sin(x)/x", 0, 1, MethodLHopital},
		{"(1 - cos(x))/x^2", 0, 0.5, MethodLHopital},
		{"(exp(x) - 1)/x", 0, 1, MethodLHopital},
	}
	e := newEngine()
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			res := e.Limit(context.Background(), c.src, "x", At(c.at))
			assert.InDelta(t, c.want, requireValue(t, res), 1e-9)
			assert.Equal(t, FormZeroOverZero, res.Indetermination)
			assert.Equal(t, c.method, res.FactorizationMethod)
		})
	}
}

func TestLimit_NumericalFallback(t *testing.T) {
	res := newEngine().Limit(context.Background(), "x*ln(x^2)", "x", At(0))
	v := requireValue(t, res)
	assert.InDelta(t, 0, v, 1e-3)
	assert.Equal(t, MethodNumerical, res.FactorizationMethod)

	res = newEngine().Limit(context.Background(), "ln(x)", "x", At(0))
	requireValue(t, res)
	assert.Equal(t, "-infinity", res.Result.String())
	assert.Equal(t, MethodNumerical, res.FactorizationMethod)
	assert.Equal(t, "One-sided divergence", res.Steps[len(res.Steps)-1].Title)

	res = newEngine().Limit(context.Background(), "x*ln(x)", "x", At(0))
	assert.InDelta(t, 0, requireValue(t, res), 1e-9)
	last := res.Steps[len(res.Steps)-1]
	assert.Equal(t, "One-sided value", last.Title)
	assert.Contains(t, last.Content, "one-sided limit")
}

func TestLimit_NonzeroOverZero(t *testing.T) {
	e := newEngine()
	res := e.Limit(context.Background(), "1/x^2", "x", At(0))
	requireValue(t, res)
	assert.True(t, res.Result.IsInf())
	assert.Equal(t, FormNonzeroOverZero, res.Indetermination)
	assert.Equal(t, MethodSignAnalysis, res.FactorizationMethod)

	res = e.Limit(context.Background(), "1/x", "x", At(0))
	assert.True(t, res.Result.IsNull())
	assert.Contains(t, res.Error, "disagree")
	assert.True(t, res.Steps[len(res.Steps)-1].Error)
}

func TestLimit_Undefined(t *testing.T) {
	res := newEngine().Limit(context.Background(), "ln(x)", "x", At(-1))
	assert.True(t, res.Result.IsNull())
	assert.Equal(t, FormUndefined, res.Indetermination)
	assert.NotEmpty(t, res.Error)
}

func TestLimit_AtInfinity(t *testing.T) {
	cases := []struct {
		src    string
		point  Point
		want   float64
		method string
	}{
		{"(4*x^2 + 2)/(x^2 + 1)", PosInf, 4, MethodDegreeComparison},
		{"(3*x + 1)/(x^2 - 5)", PosInf, 0, MethodDegreeComparison},
		{"(x^3 + 1)/(2*x + 1)", PosInf, math.Inf(1), MethodDegreeComparison},
		{"(x^3 + 1)/(2*x + 1)", NegInf, math.Inf(1), MethodDegreeComparison},
		{"x^2/(1 - x)", NegInf, math.Inf(1), MethodDegreeComparison},
		{"x^2/(1 - x)", PosInf, math.Inf(-1), MethodDegreeComparison},
		{"1/x", NegInf, 0, MethodDegreeComparison},
		{"sqrt(x^2 + 1)/x", PosInf, 1, MethodSurrogate},
		{"x^2", PosInf, math.Inf(1), MethodSurrogate},
		{"exp(x)", NegInf, 0, MethodSurrogate},
	}
	e := newEngine()
	for _, c := range cases {
		t.Run(c.src+" at "+c.point.String(), func(t *testing.T) {
			res := e.Limit(context.Background(), c.src, "x", c.point)
			assert.Equal(t, c.want, requireValue(t, res))
			assert.Equal(t, c.method, res.FactorizationMethod)
		})
	}
}

func TestLimit_InfinityIndetermination(t *testing.T) {
	res := newEngine().Limit(context.Background(), "(4*x^2 + 2)/(x^2 + 1)", "x", PosInf)
	assert.Equal(t, FormInfOverInf, res.Indetermination)
}

func TestLimit_SurrogateOverflow(t *testing.T) {
	res := newEngine().Limit(context.Background(), "exp(x)/x", "x", PosInf)
	requireValue(t, res)
	assert.True(t, res.Result.IsInf())
}

func TestLimit_SurrogatesMustAgree(t *testing.T) {
	res := newEngine().Limit(context.Background(), "sin(x)", "x", PosInf)
	assert.True(t, res.Result.IsNull())
	assert.Contains(t, res.Error, "do not settle")
	assert.Empty(t, res.FactorizationMethod)
	assert.True(t, res.Steps[len(res.Steps)-1].Error)
}

func TestLimit_InvalidInput(t *testing.T) {
	e := newEngine()
	res := e.Limit(context.Background(), "(x^2", "x", At(1))
	assert.True(t, res.Result.IsNull())
	assert.Equal(t, "Parse error", res.Steps[len(res.Steps)-1].Title)
	assert.Contains(t, res.Error, "(x^2")

	res = e.Limit(context.Background(), "x", "1x", At(1))
	assert.Equal(t, "Invalid input", res.Steps[len(res.Steps)-1].Title)
}

func TestLimit_NarratesEveryStrategy(t *testing.T) {
	res := newEngine().Limit(context.Background(), "sin(x)/x", "x", At(0))
	var skipped int
	for _, st := range res.Steps {
		if st.Title == "Not applicable" {
			skipped++
		}
	}
	assert.Equal(t, 3, skipped)
	assert.Equal(t, "Direct substitution", res.Steps[1].Title)
	assert.Equal(t, "Indeterminate form", res.Steps[2].Title)
}

func TestOptions(t *testing.T) {
	e := newEngine(WithDecimals(2), WithEpsilon(1e-3))
	res := e.Limit(context.Background(), "x*ln(x^2)", "x", At(0))
	v := requireValue(t, res)
	assert.Equal(t, 0.0, v)
}

func TestParsePoint(t *testing.T) {
	cases := map[string]Point{
		"2":         At(2),
		"-1.5":      At(-1.5),
		"inf":       PosInf,
		"+inf":      PosInf,
		"-inf":      NegInf,
		"Infinity":  PosInf,
		"-infinity": NegInf,
		"oo":        PosInf,
		"∞":         PosInf,
		"-∞":        NegInf,
	}
	for in, want := range cases {
		got, err := ParsePoint(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePoint("two")
	assert.ErrorIs(t, err, ErrInvalidPoint)
	_, err = ParsePoint("NaN")
	assert.ErrorIs(t, err, ErrInvalidPoint)
}

func TestValueJSON(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Number(4), "4"},
		{Number(0.25), "0.25"},
		{Infinity(1), `"Infinity"`},
		{Infinity(-1), `"-Infinity"`},
		{Null, "null"},
	}
	for _, c := range cases {
		b, err := json.Marshal(c.v)
		require.NoError(t, err)
		assert.Equal(t, c.want, string(b))

		var back Value
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, c.v, back)
	}
}

func TestResultJSON(t *testing.T) {
	res := newEngine().Limit(context.Background(), "(4*x^2 + 2)/(x^2 + 1)", "x", PosInf)
	b, err := json.Marshal(res)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "Infinity", raw["point"])
	assert.Equal(t, 4.0, raw["result"])
	assert.Equal(t, MethodDegreeComparison, raw["factorization_method"])

	var back Result
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, PosInf, back.Point)
}
