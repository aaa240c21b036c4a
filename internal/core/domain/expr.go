package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Domain operators in prefix notation.
const (
	OpAnd = "&"
	OpOr  = "|"
	OpNot = "!"
)

// SelfPlaceholder is substituted by the searched value in a field's
// filter domain template.
const SelfPlaceholder = "$self"

// Condition is a single leaf of a domain: field operator value.
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// Term is one element of a prefix-notation domain.
// Exactly one of Op or Cond is set.
type Term struct {
	Op   string
	Cond *Condition
}

// Domain is a boolean expression over record fields written in prefix
// (Polish) notation, e.g. ["|", ["x","=",1], ["x","=",2]]. Leaves that follow
// each other without an operator are implicitly ANDed.
type Domain []Term

// Leaf returns a one-condition domain.
func Leaf(field, operator string, value any) Domain {
	return Domain{{Cond: &Condition{Field: field, Operator: operator, Value: value}}}
}

// Operator returns an operator term.
func Operator(op string) Term {
	return Term{Op: op}
}

// IsOperator reports whether the term is an operator rather than a leaf.
func (t Term) IsOperator() bool {
	return t.Cond == nil
}

func arity(op string) int {
	switch op {
	case OpNot:
		return 1
	case OpAnd, OpOr:
		return 2
	default:
		return 0
	}
}

// Normalize makes implicit ANDs explicit so the domain is a single
// well-formed prefix expression.
func (d Domain) Normalize() Domain {
	if len(d) == 0 {
		return nil
	}
	result := make(Domain, 0, len(d)+1)
	expected := 1
	for _, t := range d {
		if expected == 0 {
			result = append(Domain{Operator(OpAnd)}, result...)
			expected = 1
		}
		if t.IsOperator() {
			expected += arity(t.Op) - 1
		} else {
			expected--
		}
		result = append(result, t)
	}
	return result
}

// Validate checks the domain is a complete prefix expression with known operators.
func (d Domain) Validate() error {
	expected := 1
	for i, t := range d.Normalize() {
		if expected == 0 {
			return fmt.Errorf("%w: dangling term at %d", ErrInvalidInput, i)
		}
		if t.IsOperator() {
			if arity(t.Op) == 0 {
				return fmt.Errorf("%w: unknown domain operator %q", ErrInvalidInput, t.Op)
			}
			expected += arity(t.Op) - 1
			continue
		}
		if t.Cond.Field == "" || t.Cond.Operator == "" {
			return fmt.Errorf("%w: incomplete condition at %d", ErrInvalidInput, i)
		}
		expected--
	}
	if len(d) > 0 && expected != 0 {
		return fmt.Errorf("%w: missing %d operand(s)", ErrInvalidInput, expected)
	}
	return nil
}

// Combine joins domains with a binary operator, dropping empty ones.
// A single remaining domain is returned as is.
func Combine(op string, domains ...Domain) Domain {
	parts := make([]Domain, 0, len(domains))
	for _, d := range domains {
		if len(d) > 0 {
			parts = append(parts, d.Normalize())
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	var out Domain
	for i := 1; i < len(parts); i++ {
		out = append(out, Operator(op))
	}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// And combines domains conjunctively.
func And(domains ...Domain) Domain {
	return Combine(OpAnd, domains...)
}

// Or combines domains disjunctively.
func Or(domains ...Domain) Domain {
	return Combine(OpOr, domains...)
}

// Substitute returns a copy where every condition value equal to
// SelfPlaceholder is replaced by value.
func (d Domain) Substitute(value any) Domain {
	out := make(Domain, len(d))
	for i, t := range d {
		if t.IsOperator() {
			out[i] = t
			continue
		}
		c := *t.Cond
		if s, ok := c.Value.(string); ok && s == SelfPlaceholder {
			c.Value = value
		}
		out[i] = Term{Cond: &c}
	}
	return out
}

// Clone returns a deep copy of the domain. Terms of the copy never share a
// Condition with d.
func (d Domain) Clone() Domain {
	if d == nil {
		return nil
	}
	out := make(Domain, len(d))
	for i, t := range d {
		if t.IsOperator() {
			out[i] = t
			continue
		}
		c := *t.Cond
		c.Value = cloneValue(c.Value)
		out[i] = Term{Cond: &c}
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Conditions returns the leaves of the domain in order.
func (d Domain) Conditions() []Condition {
	var out []Condition
	for _, t := range d {
		if !t.IsOperator() {
			out = append(out, *t.Cond)
		}
	}
	return out
}

// String renders the domain as JSON.
func (d Domain) String() string {
	b, err := EncodeJSON(d, "")
	if err != nil {
		return "[]"
	}
	return string(b)
}

// MarshalJSON encodes the empty domain as [] rather than null.
func (d Domain) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return EncodeJSON([]Term(d), "")
}

// MarshalJSON encodes an operator as a string and a leaf as a 3-element array.
func (t Term) MarshalJSON() ([]byte, error) {
	if t.IsOperator() {
		return EncodeJSON(t.Op, "")
	}
	return EncodeJSON([]any{t.Cond.Field, t.Cond.Operator, t.Cond.Value}, "")
}

// UnmarshalJSON decodes either form written by MarshalJSON.
func (t *Term) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var op string
		if err := json.Unmarshal(data, &op); err != nil {
			return err
		}
		t.Op, t.Cond = op, nil
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("%w: domain term %s", ErrInvalidInput, data)
	}
	if len(parts) != 3 {
		return fmt.Errorf("%w: condition needs 3 elements, got %d", ErrInvalidInput, len(parts))
	}
	var c Condition
	if err := json.Unmarshal(parts[0], &c.Field); err != nil {
		return fmt.Errorf("%w: condition field: %v", ErrInvalidInput, err)
	}
	if err := json.Unmarshal(parts[1], &c.Operator); err != nil {
		return fmt.Errorf("%w: condition operator: %v", ErrInvalidInput, err)
	}
	v, err := decodeValue(parts[2])
	if err != nil {
		return err
	}
	c.Value = v
	t.Op, t.Cond = "", &c
	return nil
}

// decodeValue keeps integers as int64 so domains read back compare equal
// to the ones built in code.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: condition value: %v", ErrInvalidInput, err)
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = normalizeNumbers(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumbers(x[k])
		}
		return x
	default:
		return v
	}
}

// ParseDomain reads a JSON domain such as `[["state","=","draft"]]`.
// The empty string is the empty domain.
func ParseDomain(s string) (Domain, error) {
	if len(bytes.TrimSpace([]byte(s))) == 0 {
		return nil, nil
	}
	var d Domain
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, fmt.Errorf("parse domain: %w", err)
		}
		return nil, fmt.Errorf("%w: parse domain: %v", ErrInvalidInput, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("parse domain: %w", err)
	}
	return d, nil
}
