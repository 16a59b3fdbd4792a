package symbolic

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON tree codec
// ============================================================

// ToJSON encodes the expression tree.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// Tree returns the expression as a generic JSON-ready map.
func Tree(e Expr) map[string]interface{} { return e.toJSON() }

// FromJSON decodes a tree produced by ToJSON. The result is simplified.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}
	d := jsonNode{typ: typ, data: data}

	switch typ {
	case "num":
		val, err := d.str("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("invalid num value: %s", val)
		}
		return &Num{val: r}, nil

	case "sym":
		name, err := d.str("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "add", "mul":
		field := "terms"
		if typ == "mul" {
			field = "factors"
		}
		children, err := d.children(field)
		if err != nil {
			return nil, err
		}
		if typ == "add" {
			return AddOf(children...), nil
		}
		return MulOf(children...), nil

	case "pow":
		base, err := d.child("base")
		if err != nil {
			return nil, err
		}
		exp, err := d.child("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := d.str("name")
		if err != nil {
			return nil, err
		}
		arg, err := d.child("arg")
		if err != nil {
			return nil, err
		}
		return FuncOf(name, arg), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}

type jsonNode struct {
	typ  string
	data map[string]interface{}
}

func (d jsonNode) str(field string) (string, error) {
	s, ok := d.data[field].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s: %q must be a non-empty string", d.typ, field)
	}
	return s, nil
}

func (d jsonNode) child(field string) (Expr, error) {
	m, ok := d.data[field].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: %q must be an object", d.typ, field)
	}
	e, err := FromJSON(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", d.typ, field, err)
	}
	return e, nil
}

func (d jsonNode) children(field string) ([]Expr, error) {
	raw, ok := d.data[field].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: %q must be an array", d.typ, field)
	}
	out := make([]Expr, len(raw))
	for i, it := range raw {
		m, ok := it.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q[%d] must be an object", d.typ, field, i)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s[%d]: %w", d.typ, field, i, err)
		}
		out[i] = e
	}
	return out, nil
}
