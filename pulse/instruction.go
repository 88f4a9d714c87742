package pulse

import (
	"fmt"
	"slices"
)

// InstructionKind identifies the operation performed by an Instruction.
type InstructionKind string

const (
	PlayKind           InstructionKind = "play"
	DelayKind          InstructionKind = "delay"
	ShiftPhaseKind     InstructionKind = "shift_phase"
	SetPhaseKind       InstructionKind = "set_phase"
	ShiftFrequencyKind InstructionKind = "shift_frequency"
	SetFrequencyKind   InstructionKind = "set_frequency"
	ReferenceKind      InstructionKind = "reference"
)

// Reference calls another template. Slots lists, in order, the qubit slots of the calling
// template that become the qubits of the referenced one. An empty Slots passes all qubits.
type Reference struct {
	Schedule string
	Slots    []int
}

// Instruction is one element of a ScheduleBlock.
//
// Play uses Channel and Pulse; Delay, ShiftPhase, SetPhase, ShiftFrequency and SetFrequency use
// Channel and Operand; Reference uses Reference only.
type Instruction struct {
	Kind      InstructionKind
	Channel   Channel
	Pulse     *Pulse
	Operand   Expr
	Reference *Reference
}

// Play returns an instruction playing p on ch.
func Play(p Pulse, ch Channel) Instruction {
	return Instruction{Kind: PlayKind, Channel: ch, Pulse: &p}
}

// Delay returns a delay of the given duration on ch.
func Delay(duration Expr, ch Channel) Instruction {
	return Instruction{Kind: DelayKind, Channel: ch, Operand: duration}
}

// ShiftPhase returns a phase shift on ch.
func ShiftPhase(phase Expr, ch Channel) Instruction {
	return Instruction{Kind: ShiftPhaseKind, Channel: ch, Operand: phase}
}

// SetPhase returns a phase assignment on ch.
func SetPhase(phase Expr, ch Channel) Instruction {
	return Instruction{Kind: SetPhaseKind, Channel: ch, Operand: phase}
}

// ShiftFrequency returns a frequency shift on ch.
func ShiftFrequency(freq Expr, ch Channel) Instruction {
	return Instruction{Kind: ShiftFrequencyKind, Channel: ch, Operand: freq}
}

// SetFrequency returns a frequency assignment on ch.
func SetFrequency(freq Expr, ch Channel) Instruction {
	return Instruction{Kind: SetFrequencyKind, Channel: ch, Operand: freq}
}

// Ref returns an instruction calling the named template with the given qubit slots.
func Ref(schedule string, slots ...int) Instruction {
	return Instruction{Kind: ReferenceKind, Reference: &Reference{Schedule: schedule, Slots: slots}}
}

func (in Instruction) usesOperand() bool {
	switch in.Kind {
	case DelayKind, ShiftPhaseKind, SetPhaseKind, ShiftFrequencyKind, SetFrequencyKind:
		return true
	default:
		return false
	}
}

// Validate checks that the instruction carries the fields its kind requires.
func (in Instruction) Validate() error {
	switch {
	case in.Kind == PlayKind:
		if in.Pulse == nil {
			return fmt.Errorf("play instruction on %s has no pulse", in.Channel)
		}
		if err := in.Pulse.Validate(); err != nil {
			return err
		}
	case in.Kind == ReferenceKind:
		if in.Reference == nil || in.Reference.Schedule == "" {
			return fmt.Errorf("reference instruction has no target schedule")
		}
		for _, s := range in.Reference.Slots {
			if s < 0 {
				return fmt.Errorf("reference to %q has negative qubit slot %d", in.Reference.Schedule, s)
			}
		}

		return nil
	case in.usesOperand():
	default:
		return fmt.Errorf("unknown instruction kind %q", in.Kind)
	}

	if !in.Channel.Kind.Valid() {
		return fmt.Errorf("%s instruction has unknown channel kind %q", in.Kind, in.Channel.Kind)
	}
	if in.Channel.Index.IsParameter() && !IsChannelParameter(in.Channel.Index.Name()) {
		return fmt.Errorf("channel index parameter %q of %s instruction does not match the ch<i>(.<j>) convention",
			in.Channel.Index.Name(), in.Kind)
	}

	return nil
}

// operands returns every operand of the instruction except the channel index.
func (in Instruction) operands() []Expr {
	switch {
	case in.Kind == PlayKind && in.Pulse != nil:
		out := make([]Expr, 0, len(in.Pulse.Params))
		for _, slot := range in.Pulse.slotNames() {
			out = append(out, in.Pulse.Params[slot])
		}

		return out
	case in.usesOperand():
		return []Expr{in.Operand}
	default:
		return nil
	}
}

// Clone returns a deep copy of the instruction.
func (in Instruction) Clone() Instruction {
	out := in
	if in.Pulse != nil {
		p := in.Pulse.Clone()
		out.Pulse = &p
	}
	if in.Reference != nil {
		out.Reference = &Reference{Schedule: in.Reference.Schedule, Slots: slices.Clone(in.Reference.Slots)}
	}

	return out
}

// Equals returns true if both instructions are identical.
func (in Instruction) Equals(other Instruction) bool {
	if in.Kind != other.Kind {
		return false
	}
	switch in.Kind {
	case ReferenceKind:
		if in.Reference == nil || other.Reference == nil {
			return in.Reference == other.Reference
		}

		return in.Reference.Schedule == other.Reference.Schedule &&
			slices.Equal(in.Reference.Slots, other.Reference.Slots)
	case PlayKind:
		if in.Pulse == nil || other.Pulse == nil {
			return in.Pulse == other.Pulse && in.Channel.Equals(other.Channel)
		}

		return in.Channel.Equals(other.Channel) && in.Pulse.Equals(*other.Pulse)
	default:
		return in.Channel.Equals(other.Channel) && in.Operand.Equals(other.Operand)
	}
}

// String formats the instruction.
func (in Instruction) String() string {
	switch in.Kind {
	case PlayKind:
		if in.Pulse == nil {
			return fmt.Sprintf("Play(<nil>, %s)", in.Channel)
		}

		return fmt.Sprintf("Play(%s, %s)", in.Pulse, in.Channel)
	case ReferenceKind:
		if in.Reference == nil {
			return "Reference(<nil>)"
		}

		return fmt.Sprintf("Reference(%q, slots=%v)", in.Reference.Schedule, in.Reference.Slots)
	default:
		return fmt.Sprintf("%s(%s, %s)", in.Kind, in.Operand, in.Channel)
	}
}
