package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/calcsteps/adapter"
)

func TestClassify_Kinds(t *testing.T) {
	alg := adapter.New()
	cases := []struct {
		src  string
		want Kind
	}{
		{"x^3 + 2*x^2 + x", Sum},
		{"x - 1", Sum},
		{"x*sin(x)", Product},
		{"sin(x)/x", Quotient},
		{"1/(x + 1)", Quotient},
		{"x^-2", Power},
		{"x^5", Power},
		{"(x + 1)^3", Power},
		{"sin(x^2)", Chain},
		{"sqrt(x + 1)", Chain},
		{"ln(x)", Chain},
		{"x", Simple},
		{"7", Simple},
	}
	for _, c := range cases {
		m, err := ClassifyString(alg, c.src, "x")
		require.NoError(t, err, c.src)
		assert.Equal(t, c.want, m.Kind, c.src)
	}
}

// Parenthesized operators must not leak into the top-level decision.
func TestClassify_NestedOperatorsIgnored(t *testing.T) {
	alg := adapter.New()
	m, err := ClassifyString(alg, "sin(x + 1)", "x")
	require.NoError(t, err)
	assert.Equal(t, Chain, m.Kind)
	assert.Equal(t, "sin", m.Func)
	assert.Equal(t, "x + 1", m.Inner.String())

	m, err = ClassifyString(alg, "(x + 1)*(x - 1)", "x")
	require.NoError(t, err)
	assert.Equal(t, Product, m.Kind)
	assert.Len(t, m.Factors, 2)
}

func TestClassify_QuotientParts(t *testing.T) {
	alg := adapter.New()
	m, err := ClassifyString(alg, "(x^2 - 4)/(x - 2)", "x")
	require.NoError(t, err)
	require.Equal(t, Quotient, m.Kind)
	assert.Equal(t, "x^2 - 4", m.Left.String())
	assert.Equal(t, "x - 2", m.Right.String())
}

func TestClassify_ParseError(t *testing.T) {
	_, err := ClassifyString(adapter.New(), "x +", "x")
	assert.ErrorIs(t, err, adapter.ErrParse)
}

func TestMatch_Describe(t *testing.T) {
	m := Classify(nil, "x")
	assert.Equal(t, Simple, m.Kind)
	assert.Equal(t, "an elementary expression", m.Describe())

	m, _ = ClassifyString(adapter.New(), "x*cos(x)", "x")
	assert.Equal(t, "a product of x and cos(x)", m.Describe())
}
