package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_AppendOrder(t *testing.T) {
	b := NewBuilder()
	b.Add("Expression", "x^2")
	b.Result("Power rule", "d/dx x^n = n*x^(n-1)", "2*x")
	b.Final("Result", "done", "2*x")

	got := b.Steps()
	require.Len(t, got, 3)
	assert.Equal(t, "Expression", got[0].Title)
	assert.Equal(t, "2*x", got[1].Result)
	assert.True(t, got[2].Final)
	assert.False(t, got[2].Error)
	assert.True(t, b.Finished())
}

func TestBuilder_StepsIsACopy(t *testing.T) {
	b := NewBuilder()
	b.Add("a", "b")
	s := b.Steps()
	s[0].Title = "changed"
	assert.Equal(t, "a", b.Steps()[0].Title)
}

func TestBuilder_Finished(t *testing.T) {
	b := NewBuilder()
	assert.False(t, b.Finished())
	b.Add("a", "b")
	assert.False(t, b.Finished())
	b.Fail("Error", "could not parse")
	assert.True(t, b.Finished())
	assert.Equal(t, 2, b.Len())
}

func TestClone(t *testing.T) {
	assert.Nil(t, Clone(nil))
	in := []Step{{Title: "x"}}
	out := Clone(in)
	out[0].Title = "y"
	assert.Equal(t, "x", in[0].Title)
}
