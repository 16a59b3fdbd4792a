package calcsteps

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/calcsteps/derive"
	"github.com/njchilds90/calcsteps/exercise"
	"github.com/njchilds90/calcsteps/internal/config"
	"github.com/njchilds90/calcsteps/limit"
)

func TestCalculator_Differentiate(t *testing.T) {
	c := New()
	ctx := context.Background()
	res := c.Differentiate(ctx, "x^3 + 2*x^2 + x", "x", 1)
	require.Empty(t, res.Error)
	assert.Equal(t, "3*x^2 + 4*x + 1", res.Result)
	assert.Contains(t, res.Rules, derive.RulePower)
	assert.Contains(t, res.Rules, derive.RuleSum)

	again := c.Differentiate(ctx, "x^3 + 2*x^2 + x", "x", 1)
	assert.Equal(t, res, again)
	st := c.CacheStats()["derivative"]
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, 1, st.Size)
}

func TestCalculator_CachedResultsAreCopies(t *testing.T) {
	c := New()
	ctx := context.Background()
	first := c.Differentiate(ctx, "sin(x^2)", "x", 1)
	first.Steps[0].Title = "tampered"
	first.Rules[0] = "tampered"

	second := c.Differentiate(ctx, "sin(x^2)", "x", 1)
	assert.NotEqual(t, "tampered", second.Steps[0].Title)
	assert.NotContains(t, second.Rules, "tampered")
}

func TestCalculator_CachedResultKeepsCallerInput(t *testing.T) {
	c := New()
	ctx := context.Background()
	first := c.Differentiate(ctx, "x^2", "x", 1)
	second := c.Differentiate(ctx, "x²", "x", 1)
	assert.Equal(t, "x^2", first.Expression)
	assert.Equal(t, "x²", second.Expression)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, uint64(1), c.CacheStats()["derivative"].Hits)

	lim := c.Limit(ctx, "(x^2 - 4)/(x - 2)", "x", limit.At(2))
	again := c.Limit(ctx, "(x² - 4)/(x - 2)", "x", limit.At(2))
	assert.Equal(t, "(x^2 - 4)/(x - 2)", lim.Expression)
	assert.Equal(t, "(x² - 4)/(x - 2)", again.Expression)
	assert.Equal(t, uint64(1), c.CacheStats()["limit"].Hits)
}

func TestCalculator_RejectedInputIsNotCached(t *testing.T) {
	c := New()
	ctx := context.Background()
	res := c.Differentiate(ctx, "x +", "x", 1)
	assert.NotEmpty(t, res.Error)
	c.Differentiate(ctx, "x^2", "2x", 1)
	assert.Equal(t, 0, c.CacheStats()["derivative"].Size)
}

func TestCalculator_Implicit(t *testing.T) {
	res := New().DifferentiateImplicit(context.Background(), "x^2 + y^2 = 25", "x")
	require.Empty(t, res.Error)
	assert.True(t, res.Implicit)
	assert.True(t, res.Isolated)
	assert.Equal(t, "-x/y", res.Result)
}

func TestCalculator_Limit(t *testing.T) {
	c := New()
	ctx := context.Background()
	res := c.Limit(ctx, "(x^2 - 4)/(x - 2)", "x", limit.At(2))
	v, ok := res.Result.Float64()
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
	assert.Equal(t, limit.MethodDifferenceOfSquares, res.FactorizationMethod)

	res = c.Limit(ctx, "sin(x)/x", "x", limit.At(0))
	v, _ = res.Result.Float64()
	assert.InDelta(t, 1, v, 1e-9)

	res = c.Limit(ctx, "(4*x^2 + 2)/(x^2 + 1)", "x", limit.PosInf)
	v, _ = res.Result.Float64()
	assert.Equal(t, 4.0, v)
	assert.Equal(t, 3, c.CacheStats()["limit"].Size)
}

func TestCalculator_Config(t *testing.T) {
	cfg := config.Default()
	cfg.MaxOrder = 2
	cfg.Dependent = "u"
	c := New(WithConfig(cfg), WithCacheSize(1))

	assert.NotEmpty(t, c.Differentiate(context.Background(), "x^5", "x", 3).Error)
	res := c.DifferentiateImplicit(context.Background(), "t^2 + u^2 = 1", "t")
	assert.Equal(t, "-t/u", res.Result)

	c.Differentiate(context.Background(), "x^2", "x", 1)
	assert.Equal(t, 1, c.CacheStats()["derivative"].Capacity)
	assert.Equal(t, 1, c.CacheStats()["derivative"].Size)
}

func TestCalculator_SimplifyIdempotent(t *testing.T) {
	c := New()
	for _, src := range []string{"x + x + 2*x^2", "(x^2 - 4)/(x - 2)", "sin(x)*sin(x)", "3*(x + 1) - 3"} {
		once, err := c.Simplify(src)
		require.NoError(t, err, src)
		twice, err := c.Simplify(once)
		require.NoError(t, err, once)
		assert.Equal(t, once, twice, src)
	}
	_, err := c.Simplify("(x")
	assert.Error(t, err)
}

func TestCalculator_GenerateExercise(t *testing.T) {
	a, b := New(WithSeed(99)), New(WithSeed(99))
	for range 10 {
		x, err := a.GenerateExercise(exercise.KindLimit, "")
		require.NoError(t, err)
		y, err := b.GenerateExercise(exercise.KindLimit, "")
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}
	_, err := a.GenerateExercise(exercise.KindDerivative, "integral")
	assert.ErrorIs(t, err, exercise.ErrUnknownCategory)
}

func call(t *testing.T, c *Calculator, tool string, params map[string]any) ToolResponse {
	t.Helper()
	resp := c.HandleToolCall(context.Background(), ToolRequest{Tool: tool, Params: params})
	_, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, tool, resp.Tool)
	return resp
}

func TestHandleToolCall(t *testing.T) {
	c := New(WithSeed(1))

	resp := call(t, c, "differentiate", map[string]any{"expression": "x^2"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "2*x", resp.String)
	assert.NotEmpty(t, resp.LaTeX)
	assert.IsType(t, &derive.Result{}, resp.Result)

	resp = call(t, c, "differentiate", map[string]any{"expression": "x^3", "order": 2.0})
	assert.Equal(t, "6*x", resp.String)

	resp = call(t, c, "differentiate_implicit", map[string]any{"equation": "x*y = 1"})
	assert.Equal(t, "-y/x", resp.String)

	resp = call(t, c, "limit", map[string]any{"expression": "(4*x^2 + 2)/(x^2 + 1)", "point": "inf"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "4", resp.String)

	resp = call(t, c, "limit", map[string]any{"expression": "(x^2 - 4)/(x - 2)", "point": 2.0})
	assert.Equal(t, "4", resp.String)

	resp = call(t, c, "generate_exercise", map[string]any{"kind": "limit", "category": "radical"})
	require.Empty(t, resp.Error)
	ex, ok := resp.Result.(exercise.Exercise)
	require.True(t, ok)
	assert.Equal(t, exercise.Radical, ex.Category)

	resp = call(t, c, "simplify", map[string]any{"expression": "x + x"})
	assert.Equal(t, "2*x", resp.String)

	resp = call(t, c, "to_latex", map[string]any{"expression": "x^2"})
	assert.NotEmpty(t, resp.LaTeX)

	resp = call(t, c, "tool_spec", nil)
	spec, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Len(t, spec["tools"], 7)
}

func TestHandleToolCall_TreeRoundTrip(t *testing.T) {
	c := New()
	resp := call(t, c, "simplify", map[string]any{"expression": "x^2 + x + x"})
	require.Empty(t, resp.Error)
	out, ok := resp.Result.(map[string]any)
	require.True(t, ok)

	// Trees arrive from agents as decoded JSON.
	raw, err := json.Marshal(out["tree"])
	require.NoError(t, err)
	var tree map[string]any
	require.NoError(t, json.Unmarshal(raw, &tree))

	back := call(t, c, "to_latex", map[string]any{"tree": tree})
	require.Empty(t, back.Error)
	assert.Equal(t, resp.LaTeX, back.LaTeX)

	bad := call(t, c, "simplify", map[string]any{"tree": map[string]any{"type": "matrix"}})
	assert.Contains(t, bad.Error, "invalid params")
}

func TestHandleToolCall_Errors(t *testing.T) {
	c := New()
	cases := []struct {
		tool   string
		params map[string]any
		want   string
	}{
		{"integrate", nil, "unknown tool"},
		{"differentiate", map[string]any{}, "invalid params"},
		{"differentiate", map[string]any{"expression": "x", "order": -2.0}, "invalid params"},
		{"limit", map[string]any{"expression": "x"}, "invalid params"},
		{"limit", map[string]any{"expression": "x", "point": "nowhere"}, "invalid params"},
		{"generate_exercise", map[string]any{"kind": "integral"}, "invalid params"},
		{"simplify", map[string]any{"expression": "(x"}, "cannot parse"},
	}
	for _, tc := range cases {
		t.Run(tc.tool+"/"+tc.want, func(t *testing.T) {
			resp := call(t, c, tc.tool, tc.params)
			assert.Contains(t, resp.Error, tc.want)
		})
	}

	resp := call(t, c, "differentiate", map[string]any{"expression": "x +"})
	assert.Contains(t, resp.Error, "Could not parse")
	assert.NotNil(t, resp.Result)
}

func TestToolSpecJSON(t *testing.T) {
	var doc struct {
		Tools []Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(ToolSpecJSON()), &doc))
	names := make([]string, 0, len(doc.Tools))
	for _, tl := range doc.Tools {
		names = append(names, tl.Name)
		assert.Equal(t, "object", tl.InputSchema.Type)
		assert.NotNil(t, tl.InputSchema.Required)
	}
	assert.ElementsMatch(t, []string{"differentiate", "differentiate_implicit", "limit", "generate_exercise", "simplify", "to_latex", "tool_spec"}, names)
}
