package pulse

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Alignment controls how the instructions of a block are scheduled in time.
type Alignment string

const (
	AlignLeft       Alignment = "left"
	AlignRight      Alignment = "right"
	AlignSequential Alignment = "sequential"
)

// Valid reports whether the alignment is known.
func (a Alignment) Valid() bool {
	switch a {
	case AlignLeft, AlignRight, AlignSequential:
		return true
	default:
		return false
	}
}

var ErrInvalidSchedule = errors.New("invalid schedule")

// ScheduleBlock is a named pulse program. Templates keep some operands as free parameters which
// are bound when the schedule is built for concrete qubits.
type ScheduleBlock struct {
	Name         string
	Alignment    Alignment
	Metadata     map[string]string
	Instructions []Instruction
}

// NewScheduleBlock returns a block with the given name, alignment and instructions.
func NewScheduleBlock(name string, alignment Alignment, instructions ...Instruction) *ScheduleBlock {
	return &ScheduleBlock{
		Name:         name,
		Alignment:    alignment,
		Metadata:     map[string]string{},
		Instructions: instructions,
	}
}

// Append adds instructions at the end of the block.
func (s *ScheduleBlock) Append(instructions ...Instruction) *ScheduleBlock {
	s.Instructions = append(s.Instructions, instructions...)
	return s
}

// Validate checks the block and all its instructions.
func (s *ScheduleBlock) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil schedule", ErrInvalidSchedule)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: schedule has no name", ErrInvalidSchedule)
	}
	if !s.Alignment.Valid() {
		return fmt.Errorf("%w: schedule %q has unknown alignment %q", ErrInvalidSchedule, s.Name, s.Alignment)
	}

	channelParams := map[string]bool{}
	for _, in := range s.Instructions {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("%w: schedule %q: %w", ErrInvalidSchedule, s.Name, err)
		}
		if in.Kind != ReferenceKind && in.Channel.Index.IsParameter() {
			channelParams[in.Channel.Index.Name()] = true
		}
	}
	for _, in := range s.Instructions {
		for _, op := range in.operands() {
			if !op.IsParameter() {
				continue
			}
			if channelParams[op.Name()] || IsChannelParameter(op.Name()) {
				return fmt.Errorf("%w: schedule %q uses channel parameter name %q as a %s operand",
					ErrInvalidSchedule, s.Name, op.Name(), in.Kind)
			}
		}
	}

	return nil
}

// Parameters returns the sorted names of every free parameter, channel index parameters included.
func (s *ScheduleBlock) Parameters() []string {
	set := map[string]struct{}{}
	for _, in := range s.Instructions {
		if in.Kind != ReferenceKind && in.Channel.Index.IsParameter() {
			set[in.Channel.Index.Name()] = struct{}{}
		}
		for _, op := range in.operands() {
			if op.IsParameter() {
				set[op.Name()] = struct{}{}
			}
		}
	}

	return slices.Sorted(maps.Keys(set))
}

// ChannelParameters returns the sorted names of the channel index parameters.
func (s *ScheduleBlock) ChannelParameters() []string {
	set := map[string]struct{}{}
	for _, in := range s.Instructions {
		if in.Kind != ReferenceKind && in.Channel.Index.IsParameter() {
			set[in.Channel.Index.Name()] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(set))
}

// FreeParameters returns the sorted names of the free parameters that are not channel indices.
func (s *ScheduleBlock) FreeParameters() []string {
	channels := s.ChannelParameters()
	out := []string{}
	for _, name := range s.Parameters() {
		if !slices.Contains(channels, name) {
			out = append(out, name)
		}
	}

	return out
}

// IsBound reports whether the block has no free parameter left.
func (s *ScheduleBlock) IsBound() bool {
	return len(s.Parameters()) == 0
}

// References returns the names of the templates called by the block, in order of first use.
func (s *ScheduleBlock) References() []string {
	var out []string
	for _, in := range s.Instructions {
		if in.Kind == ReferenceKind && in.Reference != nil && !slices.Contains(out, in.Reference.Schedule) {
			out = append(out, in.Reference.Schedule)
		}
	}

	return out
}

// Assign returns a copy of the block where the supplied parameters are bound. Names that the
// block does not use are ignored. Channel indices must bind to non-negative integers.
func (s *ScheduleBlock) Assign(values map[string]Value) (*ScheduleBlock, error) {
	out := s.Clone()
	for i := range out.Instructions {
		in := &out.Instructions[i]
		if in.Kind != ReferenceKind {
			idx := in.Channel.Index.bind(values)
			if in.Channel.Index.IsParameter() && !idx.IsParameter() {
				v := idx.Value()
				if !v.IsInteger() || v.Float64() < 0 {
					return nil, fmt.Errorf("channel parameter %q of schedule %q bound to %s, expected a non-negative integer",
						in.Channel.Index.Name(), s.Name, v)
				}
				idx = Const(Int(v.Int64()))
			}
			in.Channel.Index = idx
		}
		if in.Pulse != nil {
			for slot, op := range in.Pulse.Params {
				in.Pulse.Params[slot] = op.bind(values)
			}
		}
		if in.usesOperand() {
			in.Operand = in.Operand.bind(values)
		}
	}

	return out, nil
}

// PulseFor returns the first played pulse whose amp operand references the named parameter.
func (s *ScheduleBlock) PulseFor(ampParam string) (Pulse, Channel, bool) {
	for _, in := range s.Instructions {
		if in.Kind != PlayKind || in.Pulse == nil {
			continue
		}
		if amp, ok := in.Pulse.Params[SlotAmp]; ok && amp.IsParameter() && amp.Name() == ampParam {
			return in.Pulse.Clone(), in.Channel, true
		}
	}

	return Pulse{}, Channel{}, false
}

// Clone returns a deep copy of the block.
func (s *ScheduleBlock) Clone() *ScheduleBlock {
	if s == nil {
		return nil
	}
	out := &ScheduleBlock{
		Name:         s.Name,
		Alignment:    s.Alignment,
		Metadata:     maps.Clone(s.Metadata),
		Instructions: make([]Instruction, len(s.Instructions)),
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	for i, in := range s.Instructions {
		out.Instructions[i] = in.Clone()
	}

	return out
}

// Equals returns true if both blocks are structurally identical. Nil and empty metadata are equal.
func (s *ScheduleBlock) Equals(other *ScheduleBlock) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Name != other.Name || s.Alignment != other.Alignment || len(s.Instructions) != len(other.Instructions) {
		return false
	}
	if len(s.Metadata) != len(other.Metadata) || !maps.Equal(s.Metadata, other.Metadata) {
		return false
	}
	for i := range s.Instructions {
		if !s.Instructions[i].Equals(other.Instructions[i]) {
			return false
		}
	}

	return true
}

// metadataKeys returns the metadata keys in sorted order.
func (s *ScheduleBlock) metadataKeys() []string {
	keys := make([]string, 0, len(s.Metadata))
	for k := range s.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
