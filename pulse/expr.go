package pulse

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Expr is an operand of a schedule instruction. It is either a constant Value or a reference
// to a named free parameter which is bound when the schedule is built for a set of qubits.
type Expr struct {
	param string
	value Value
}

// Const returns a constant operand.
func Const(v Value) Expr { return Expr{value: v} }

// Param returns an operand referencing the free parameter with the given name.
func Param(name string) Expr { return Expr{param: name} }

// IsParameter reports whether the operand is an unbound parameter.
func (e Expr) IsParameter() bool { return e.param != "" }

// Name returns the parameter name, or an empty string for constants.
func (e Expr) Name() string { return e.param }

// Value returns the constant value. It is the zero Value for parameters.
func (e Expr) Value() Value { return e.value }

// Equals returns true if both operands reference the same parameter or hold the same constant.
func (e Expr) Equals(other Expr) bool {
	if e.IsParameter() || other.IsParameter() {
		return e.param == other.param
	}

	return e.value.Equals(other.value)
}

// String formats the operand.
func (e Expr) String() string {
	if e.IsParameter() {
		return e.param
	}

	return e.value.String()
}

// bind replaces the parameter with its value if one is provided.
func (e Expr) bind(values map[string]Value) Expr {
	if !e.IsParameter() {
		return e
	}
	if v, ok := values[e.param]; ok {
		return Const(v)
	}

	return e
}

type exprJSON struct {
	Param string `json:"param,omitempty"`
	Value *Value `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Expr) MarshalJSON() ([]byte, error) {
	if e.IsParameter() {
		return json.Marshal(exprJSON{Param: e.param})
	}
	v := e.value

	return json.Marshal(exprJSON{Value: &v})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Expr) UnmarshalJSON(data []byte) error {
	var raw exprJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Param != "" && raw.Value != nil:
		return errors.New("operand cannot be both a parameter and a constant")
	case raw.Param != "":
		*e = Param(raw.Param)
	case raw.Value != nil:
		*e = Const(*raw.Value)
	default:
		return fmt.Errorf("empty operand %s", data)
	}

	return nil
}
