package pulse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"
)

// ValueKind identifies the numeric domain of a Value.
type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindFloat
	KindComplex
)

// String returns the name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// typeComplex is the type tag of the typed JSON envelope used for complex values.
const typeComplex = "complex"

var ErrUnknownValueType = errors.New("unknown typed value")

// Value is a calibration number. It keeps track of whether it was provided as an integer,
// a real or a complex number so that a save/load round trip preserves the representation.
// Integers keep their full int64 range; v holds their nearest float for arithmetic.
type Value struct {
	kind ValueKind
	n    int64
	v    complex128
}

// Int returns an integer Value.
func Int(n int64) Value { return Value{kind: KindInt, n: n, v: complex(float64(n), 0)} }

// Float returns a real Value.
func Float(x float64) Value { return Value{kind: KindFloat, v: complex(x, 0)} }

// Complex returns a complex Value. The kind stays complex even when the imaginary part is zero.
func Complex(c complex128) Value { return Value{kind: KindComplex, v: c} }

// Kind returns the numeric kind of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsComplex reports whether the value was provided as a complex number.
func (v Value) IsComplex() bool { return v.kind == KindComplex }

// Float64 returns the real part of the value.
func (v Value) Float64() float64 { return real(v.v) }

// Int64 returns the integer, or the real part of the value truncated to an integer.
func (v Value) Int64() int64 {
	if v.kind == KindInt {
		return v.n
	}

	return int64(real(v.v))
}

// Complex128 returns the value as a complex number.
func (v Value) Complex128() complex128 { return v.v }

// IsInteger reports whether the value is a real number without fractional part.
func (v Value) IsInteger() bool {
	if v.kind == KindInt {
		return true
	}
	if imag(v.v) != 0 {
		return false
	}
	f := real(v.v)

	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// Abs returns the magnitude of the value.
func (v Value) Abs() float64 { return cmplx.Abs(v.v) }

// Phase returns the argument of the value in (-π, π].
func (v Value) Phase() float64 { return cmplx.Phase(v.v) }

// Equals returns true if both values have the same kind and the same number.
func (v Value) Equals(other Value) bool {
	return v.kind == other.kind && v.n == other.n && v.v == other.v
}

// String formats the value, complex numbers as re+imj.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.Int64(), 10)
	case KindComplex:
		re := strconv.FormatFloat(real(v.v), 'g', -1, 64)
		im := strconv.FormatFloat(imag(v.v), 'g', -1, 64)
		if imag(v.v) >= 0 || math.IsNaN(imag(v.v)) {
			im = "+" + im
		}

		return re + im + "j"
	default:
		return strconv.FormatFloat(real(v.v), 'g', -1, 64)
	}
}

type typedEnvelope struct {
	Type  string          `json:"__type__"`
	Value json.RawMessage `json:"__value__"`
}

// MarshalJSON encodes integers and reals as JSON numbers and complex values with the typed
// envelope {"__type__": "complex", "__value__": [re, im]}.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.Int64(), 10)), nil
	case KindFloat:
		return marshalFloat(real(v.v))
	case KindComplex:
		re, err := marshalFloat(real(v.v))
		if err != nil {
			return nil, err
		}
		im, err := marshalFloat(imag(v.v))
		if err != nil {
			return nil, err
		}

		return json.Marshal(typedEnvelope{
			Type:  typeComplex,
			Value: json.RawMessage("[" + string(re) + "," + string(im) + "]"),
		})
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %d", v.kind)
	}
}

func marshalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("cannot marshal non-finite number %v", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// keep a marker of the real kind so that 1.0 does not come back as an integer
	if !bytes.ContainsAny([]byte(s), ".eE") {
		s += ".0"
	}

	return []byte(s), nil
}

// UnmarshalJSON decodes the representations written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty value")
	}

	if data[0] == '{' {
		var env typedEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return err
		}
		if env.Type != typeComplex {
			return fmt.Errorf("%w: %q", ErrUnknownValueType, env.Type)
		}
		var parts []float64
		if err := json.Unmarshal(env.Value, &parts); err != nil {
			return fmt.Errorf("invalid complex value: %w", err)
		}
		if len(parts) != 2 {
			return fmt.Errorf("invalid complex value: expected [re, im], got %d elements", len(parts))
		}
		*v = Complex(complex(parts[0], parts[1]))

		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("invalid numeric value %s: %w", data, err)
	}
	if !bytes.ContainsAny(data, ".eE") {
		n, err := num.Int64()
		if err == nil {
			*v = Int(n)
			return nil
		}
	}
	f, err := num.Float64()
	if err != nil {
		return fmt.Errorf("invalid numeric value %s: %w", data, err)
	}
	*v = Float(f)

	return nil
}

// ParseValue parses the text form of a value. Numbers without a decimal point or exponent are
// integers, numbers ending in j (or i) are complex, e.g. 0.1-0.2j.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, errors.New("empty value")
	}

	if last := s[len(s)-1]; last == 'j' || last == 'i' {
		c, err := strconv.ParseComplex(s[:len(s)-1]+"i", 128)
		if err != nil {
			return Value{}, fmt.Errorf("invalid complex value %q: %w", s, err)
		}

		return Complex(c), nil
	}

	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid numeric value %q: %w", s, err)
	}

	return Float(f), nil
}
