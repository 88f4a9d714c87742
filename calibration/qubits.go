package calibration

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Qubits is an ordered tuple of physical qubit indices. The empty tuple means "default for
// all qubits".
type Qubits []int

// Q builds a Qubits tuple.
func Q(indices ...int) Qubits { return Qubits(indices) }

// IsDefault reports whether the tuple is the empty default tuple.
func (q Qubits) IsDefault() bool { return len(q) == 0 }

// Equals returns true if both tuples hold the same indices in the same order. Nil and empty
// tuples are equal.
func (q Qubits) Equals(other Qubits) bool {
	return slices.Equal(q, other)
}

// Clone returns a copy of the tuple.
func (q Qubits) Clone() Qubits {
	if q == nil {
		return nil
	}

	return slices.Clone(q)
}

// String formats the tuple like (0, 1). The default tuple is ().
func (q Qubits) String() string {
	parts := make([]string, len(q))
	for i, n := range q {
		parts[i] = strconv.Itoa(n)
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// MarshalJSON encodes the tuple as a JSON array, the default tuple as [].
func (q Qubits) MarshalJSON() ([]byte, error) {
	if q == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]int(q))
}

// ParseQubits parses "(0, 1)", "0,1", "[0 1]" or "" into a tuple.
func ParseQubits(s string) (Qubits, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "()[]")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	q := make(Qubits, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid qubit index %q in %q: %w", f, s, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid qubit index %d: must not be negative", n)
		}
		q = append(q, n)
	}

	return q, nil
}

// Components returns the device components of the tuple, e.g. [Q0 Q1].
func (q Qubits) Components() []string {
	out := make([]string, len(q))
	for i, n := range q {
		out[i] = Qubit(n).String()
	}

	return out
}
