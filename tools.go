package calcsteps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/njchilds90/calcsteps/exercise"
	"github.com/njchilds90/calcsteps/limit"
	"github.com/njchilds90/calcsteps/symbolic"
)

// ToolRequest is one tool invocation from an agent.
type ToolRequest struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

// ToolResponse carries the tool output. Result holds the engine's
// structured result; String and LaTeX are set when a single expression is
// the answer.
type ToolResponse struct {
	ID     string `json:"id"`
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	String string `json:"string,omitempty"`
	LaTeX  string `json:"latex,omitempty"`
	Error  string `json:"error,omitempty"`
}

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrInvalidParams = errors.New("invalid params")
)

type differentiateParams struct {
	Expression string `json:"expression" validate:"required"`
	Variable   string `json:"variable"`
	Order      int    `json:"order" validate:"gte=0"`
}

type implicitParams struct {
	Equation string `json:"equation" validate:"required"`
	Variable string `json:"variable"`
}

type limitParams struct {
	Expression string       `json:"expression" validate:"required"`
	Variable   string       `json:"variable"`
	Point      *limit.Point `json:"point" validate:"required"`
}

type exerciseParams struct {
	Kind     string `json:"kind" validate:"omitempty,oneof=derivative limit"`
	Category string `json:"category"`
}

// expressionParams takes either infix text or an expression tree.
type expressionParams struct {
	Expression string         `json:"expression" validate:"required_without=Tree"`
	Tree       map[string]any `json:"tree"`
}

func (p expressionParams) source() (string, error) {
	if p.Tree == nil {
		return p.Expression, nil
	}
	e, err := symbolic.FromJSON(p.Tree)
	if err != nil {
		return "", fmt.Errorf("%w: tree: %w", ErrInvalidParams, err)
	}
	return e.String(), nil
}

var validate = validator.New()

// decode copies the loose params map into dst and validates it.
func decode(params map[string]any, dst any) error {
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// HandleToolCall dispatches req to the matching tool. Errors are reported
// in the response, never returned.
func (c *Calculator) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	resp := ToolResponse{ID: uuid.NewString(), Tool: req.Tool}
	fail := func(err error) ToolResponse {
		c.logger.Warn("tool call failed", "tool", req.Tool, "id", resp.ID, "error", err)
		resp.Error = err.Error()
		return resp
	}

	switch req.Tool {
	case "differentiate":
		var p differentiateParams
		if err := decode(req.Params, &p); err != nil {
			return fail(err)
		}
		res := c.Differentiate(ctx, p.Expression, orDefault(p.Variable, "x"), p.Order)
		resp.Result, resp.String, resp.Error = res, res.Result, res.Error
		resp.LaTeX = c.latexOf(res.Result)

	case "differentiate_implicit":
		var p implicitParams
		if err := decode(req.Params, &p); err != nil {
			return fail(err)
		}
		res := c.DifferentiateImplicit(ctx, p.Equation, orDefault(p.Variable, "x"))
		resp.Result, resp.String, resp.Error = res, res.Result, res.Error
		if res.Isolated {
			resp.LaTeX = c.latexOf(res.Result)
		}

	case "limit":
		var p limitParams
		if err := decode(req.Params, &p); err != nil {
			return fail(err)
		}
		res := c.Limit(ctx, p.Expression, orDefault(p.Variable, "x"), *p.Point)
		resp.Result, resp.String, resp.Error = res, res.Result.String(), res.Error

	case "generate_exercise":
		var p exerciseParams
		if err := decode(req.Params, &p); err != nil {
			return fail(err)
		}
		ex, err := c.GenerateExercise(exercise.Kind(p.Kind), exercise.Category(p.Category))
		if err != nil {
			return fail(err)
		}
		resp.Result, resp.String = ex, ex.Expression

	case "simplify":
		var p expressionParams
		if err := decode(req.Params, &p); err != nil {
			return fail(err)
		}
		src, err := p.source()
		if err != nil {
			return fail(err)
		}
		e, err := c.alg.Parse(src)
		if err != nil {
			return fail(err)
		}
		resp.Result = map[string]any{"expression": e.String(), "tree": symbolic.Tree(e)}
		resp.String, resp.LaTeX = e.String(), c.alg.LaTeX(e)

	case "to_latex":
		var p expressionParams
		if err := decode(req.Params, &p); err != nil {
			return fail(err)
		}
		src, err := p.source()
		if err != nil {
			return fail(err)
		}
		l, err := c.LaTeX(src)
		if err != nil {
			return fail(err)
		}
		resp.Result, resp.LaTeX = l, l

	case "tool_spec":
		resp.Result = ToolSpec()

	default:
		return fail(fmt.Errorf("%w: %q", ErrUnknownTool, req.Tool))
	}
	return resp
}

func (c *Calculator) latexOf(s string) string {
	if s == "" {
		return ""
	}
	l, err := c.LaTeX(s)
	if err != nil {
		return ""
	}
	return l
}

// Tool describes one tool for agent registration.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

type Property struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

func tool(name, description string, required []string, props map[string]Property) Tool {
	if required == nil {
		required = []string{}
	}
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: InputSchema{Type: "object", Properties: props, Required: required},
	}
}

func categoryNames(cats ...[]exercise.Category) []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range cats {
		for _, c := range list {
			if !seen[string(c)] {
				seen[string(c)] = true
				out = append(out, string(c))
			}
		}
	}
	sort.Strings(out)
	return out
}

var (
	expressionProp = Property{Type: "string", Description: "Infix expression, e.g. x^2*sin(x)"}
	variableProp   = Property{Type: "string", Description: "Variable name (default x)"}
	treeProp       = Property{Type: "object", Description: "Expression tree as returned by simplify; used when expression is empty"}
)

// Tools lists every tool HandleToolCall accepts.
func Tools() []Tool {
	return []Tool{
		tool("differentiate", "Differentiate an expression step by step",
			[]string{"expression"}, map[string]Property{
				"expression": expressionProp,
				"variable":   variableProp,
				"order":      {Type: "integer", Description: "Derivative order (default 1)"},
			}),
		tool("differentiate_implicit", "Find dy/dx of an equation by implicit differentiation",
			[]string{"equation"}, map[string]Property{
				"equation": {Type: "string", Description: "Equation such as x^2 + y^2 = 25"},
				"variable": variableProp,
			}),
		tool("limit", "Evaluate a limit and explain how the indeterminate form is resolved",
			[]string{"expression", "point"}, map[string]Property{
				"expression": expressionProp,
				"variable":   variableProp,
				"point":      {Description: "A number, or \"inf\" / \"-inf\""},
			}),
		tool("generate_exercise", "Generate a practice exercise",
			nil, map[string]Property{
				"kind":     {Type: "string", Enum: []string{string(exercise.KindDerivative), string(exercise.KindLimit)}},
				"category": {Type: "string", Enum: categoryNames(exercise.DerivativeCategories(), exercise.LimitCategories())},
			}),
		tool("simplify", "Simplify an expression and return its tree", nil, map[string]Property{
			"expression": expressionProp,
			"tree":       treeProp,
		}),
		tool("to_latex", "Render an expression as LaTeX", nil, map[string]Property{
			"expression": expressionProp,
			"tree":       treeProp,
		}),
		tool("tool_spec", "Return this tool schema", nil, map[string]Property{}),
	}
}

// ToolSpec is the schema document served to agents.
func ToolSpec() map[string]any {
	return map[string]any{"tools": Tools()}
}

// ToolSpecJSON renders ToolSpec as indented JSON.
func ToolSpecJSON() string {
	b, _ := json.MarshalIndent(ToolSpec(), "", "  ")
	return string(b)
}
