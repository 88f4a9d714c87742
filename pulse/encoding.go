package pulse

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/snappy"
)

// Schedule payload layout:
//
//	magic "CSB1" | version (1 byte) | compression (1 byte) | CBOR body
//
// The body is snappy compressed when it is larger than compressThreshold.
const (
	PayloadVersion = 1

	compressionNone   = 0
	compressionSnappy = 1

	compressThreshold = 256
	headerLen         = 6

	// MaxPayloadLen bounds the decoded size of a compressed schedule body.
	MaxPayloadLen = 16 << 20
)

var payloadMagic = []byte("CSB1")

var (
	ErrBadPayload         = errors.New("invalid schedule payload")
	ErrUnsupportedVersion = errors.New("unsupported schedule payload version")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

type wireExpr struct {
	Param string  `cbor:"1,keyasint,omitempty"`
	Kind  uint8   `cbor:"2,keyasint"`
	Int   int64   `cbor:"3,keyasint,omitempty"`
	Re    float64 `cbor:"4,keyasint,omitempty"`
	Im    float64 `cbor:"5,keyasint,omitempty"`
}

type wireChannel struct {
	Kind  string   `cbor:"1,keyasint"`
	Index wireExpr `cbor:"2,keyasint"`
}

type wirePulse struct {
	Shape  string              `cbor:"1,keyasint"`
	Name   string              `cbor:"2,keyasint,omitempty"`
	Params map[string]wireExpr `cbor:"3,keyasint"`
}

type wireReference struct {
	Schedule string `cbor:"1,keyasint"`
	Slots    []int  `cbor:"2,keyasint,omitempty"`
}

type wireInstruction struct {
	Kind      string         `cbor:"1,keyasint"`
	Channel   *wireChannel   `cbor:"2,keyasint,omitempty"`
	Pulse     *wirePulse     `cbor:"3,keyasint,omitempty"`
	Operand   *wireExpr      `cbor:"4,keyasint,omitempty"`
	Reference *wireReference `cbor:"5,keyasint,omitempty"`
}

type wireSchedule struct {
	Name         string            `cbor:"1,keyasint"`
	Alignment    string            `cbor:"2,keyasint"`
	Metadata     map[string]string `cbor:"3,keyasint,omitempty"`
	Instructions []wireInstruction `cbor:"4,keyasint"`
}

// Marshal encodes the schedule into the binary payload format.
func Marshal(s *ScheduleBlock) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	body, err := encMode.Marshal(toWire(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule %q: %w", s.Name, err)
	}

	compression := byte(compressionNone)
	if len(body) > compressThreshold {
		body = snappy.Encode(nil, body)
		compression = compressionSnappy
	}

	out := make([]byte, 0, headerLen+len(body))
	out = append(out, payloadMagic...)
	out = append(out, PayloadVersion, compression)

	return append(out, body...), nil
}

// Unmarshal decodes a payload produced by Marshal.
func Unmarshal(data []byte) (*ScheduleBlock, error) {
	if len(data) < headerLen || !bytes.Equal(data[:len(payloadMagic)], payloadMagic) {
		return nil, fmt.Errorf("%w: missing header", ErrBadPayload)
	}
	if v := data[4]; v != PayloadVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	body := data[headerLen:]
	switch data[5] {
	case compressionNone:
	case compressionSnappy:
		n, err := snappy.DecodedLen(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
		}
		if n > MaxPayloadLen {
			return nil, fmt.Errorf("%w: decoded body of %d bytes exceeds %d", ErrBadPayload, n, MaxPayloadLen)
		}
		if body, err = snappy.Decode(nil, body); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrBadPayload, data[5])
	}

	var w wireSchedule
	if err := decMode.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}

	s, err := fromWire(w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func toWireExpr(e Expr) wireExpr {
	if e.IsParameter() {
		return wireExpr{Param: e.Name()}
	}
	v := e.Value()
	w := wireExpr{Kind: uint8(v.Kind())}
	switch v.Kind() {
	case KindInt:
		w.Int = v.Int64()
	default:
		w.Re, w.Im = real(v.v), imag(v.v)
	}

	return w
}

func fromWireExpr(w wireExpr) (Expr, error) {
	if w.Param != "" {
		return Param(w.Param), nil
	}
	switch ValueKind(w.Kind) {
	case KindInt:
		return Const(Int(w.Int)), nil
	case KindFloat:
		return Const(Float(w.Re)), nil
	case KindComplex:
		return Const(Complex(complex(w.Re, w.Im))), nil
	default:
		return Expr{}, fmt.Errorf("unknown value kind %d", w.Kind)
	}
}

func toWire(s *ScheduleBlock) wireSchedule {
	w := wireSchedule{
		Name:         s.Name,
		Alignment:    string(s.Alignment),
		Metadata:     s.Metadata,
		Instructions: make([]wireInstruction, 0, len(s.Instructions)),
	}
	for _, in := range s.Instructions {
		wi := wireInstruction{Kind: string(in.Kind)}
		if in.Kind != ReferenceKind {
			wi.Channel = &wireChannel{Kind: string(in.Channel.Kind), Index: toWireExpr(in.Channel.Index)}
		}
		if in.Pulse != nil {
			wp := &wirePulse{Shape: string(in.Pulse.Shape), Name: in.Pulse.Name, Params: map[string]wireExpr{}}
			for slot, op := range in.Pulse.Params {
				wp.Params[slot] = toWireExpr(op)
			}
			wi.Pulse = wp
		}
		if in.usesOperand() {
			op := toWireExpr(in.Operand)
			wi.Operand = &op
		}
		if in.Reference != nil {
			wi.Reference = &wireReference{Schedule: in.Reference.Schedule, Slots: in.Reference.Slots}
		}
		w.Instructions = append(w.Instructions, wi)
	}

	return w
}

func fromWire(w wireSchedule) (*ScheduleBlock, error) {
	s := &ScheduleBlock{
		Name:         w.Name,
		Alignment:    Alignment(w.Alignment),
		Metadata:     w.Metadata,
		Instructions: make([]Instruction, 0, len(w.Instructions)),
	}
	if s.Metadata == nil {
		s.Metadata = map[string]string{}
	}

	for i, wi := range w.Instructions {
		in := Instruction{Kind: InstructionKind(wi.Kind)}
		if wi.Channel != nil {
			idx, err := fromWireExpr(wi.Channel.Index)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
			in.Channel = Channel{Kind: ChannelKind(wi.Channel.Kind), Index: idx}
		}
		if wi.Pulse != nil {
			p := Pulse{Shape: Shape(wi.Pulse.Shape), Name: wi.Pulse.Name, Params: make(map[string]Expr, len(wi.Pulse.Params))}
			for slot, we := range wi.Pulse.Params {
				op, err := fromWireExpr(we)
				if err != nil {
					return nil, fmt.Errorf("instruction %d operand %q: %w", i, slot, err)
				}
				p.Params[slot] = op
			}
			in.Pulse = &p
		}
		if wi.Operand != nil {
			op, err := fromWireExpr(*wi.Operand)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
			in.Operand = op
		}
		if wi.Reference != nil {
			in.Reference = &Reference{Schedule: wi.Reference.Schedule, Slots: wi.Reference.Slots}
		}
		s.Instructions = append(s.Instructions, in)
	}

	return s, nil
}
