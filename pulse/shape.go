package pulse

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Shape is the parametric envelope of a played pulse.
type Shape string

const (
	Gaussian       Shape = "Gaussian"
	Drag           Shape = "Drag"
	GaussianSquare Shape = "GaussianSquare"
	Constant       Shape = "Constant"
)

// Operand slot names shared by the shapes.
const (
	SlotDuration = "duration"
	SlotAmp      = "amp"
	SlotSigma    = "sigma"
	SlotBeta     = "beta"
	SlotWidth    = "width"
	SlotAngle    = "angle"
)

var shapeSlots = map[Shape][]string{
	Gaussian:       {SlotDuration, SlotAmp, SlotSigma, SlotAngle},
	Drag:           {SlotDuration, SlotAmp, SlotSigma, SlotBeta, SlotAngle},
	GaussianSquare: {SlotDuration, SlotAmp, SlotSigma, SlotWidth, SlotAngle},
	Constant:       {SlotDuration, SlotAmp, SlotAngle},
}

// Slots returns the ordered operand slots of the shape, or nil for unknown shapes.
func (s Shape) Slots() []string {
	return slices.Clone(shapeSlots[s])
}

// Pulse is a parametric pulse envelope. Params maps each slot of the shape to its operand.
type Pulse struct {
	Shape  Shape
	Name   string
	Params map[string]Expr
}

// NewPulse builds a pulse from operands given in the slot order of the shape.
func NewPulse(shape Shape, name string, operands ...Expr) (Pulse, error) {
	slots := shapeSlots[shape]
	if slots == nil {
		return Pulse{}, fmt.Errorf("unknown pulse shape %q", shape)
	}
	if len(operands) != len(slots) {
		return Pulse{}, fmt.Errorf("pulse shape %s takes %d operands (%s), got %d",
			shape, len(slots), strings.Join(slots, ", "), len(operands))
	}
	params := make(map[string]Expr, len(slots))
	for i, slot := range slots {
		params[slot] = operands[i]
	}

	return Pulse{Shape: shape, Name: name, Params: params}, nil
}

// Validate checks that every slot of the shape has an operand and that no unknown slot is set.
func (p Pulse) Validate() error {
	slots := shapeSlots[p.Shape]
	if slots == nil {
		return fmt.Errorf("unknown pulse shape %q", p.Shape)
	}
	for _, slot := range slots {
		if _, ok := p.Params[slot]; !ok {
			return fmt.Errorf("pulse %q (%s) is missing operand %q", p.Name, p.Shape, slot)
		}
	}
	for slot := range p.Params {
		if !slices.Contains(slots, slot) {
			return fmt.Errorf("pulse %q (%s) has unknown operand %q", p.Name, p.Shape, slot)
		}
	}

	return nil
}

// Clone returns a copy of the pulse with its own operand map.
func (p Pulse) Clone() Pulse {
	params := make(map[string]Expr, len(p.Params))
	for k, v := range p.Params {
		params[k] = v
	}

	return Pulse{Shape: p.Shape, Name: p.Name, Params: params}
}

// Equals returns true if both pulses have the same shape, name and operands.
func (p Pulse) Equals(other Pulse) bool {
	if p.Shape != other.Shape || p.Name != other.Name || len(p.Params) != len(other.Params) {
		return false
	}
	for k, v := range p.Params {
		o, ok := other.Params[k]
		if !ok || !v.Equals(o) {
			return false
		}
	}

	return true
}

// slotNames returns the operand slots in shape order, with unknown slots sorted at the end.
func (p Pulse) slotNames() []string {
	names := make([]string, 0, len(p.Params))
	for _, slot := range shapeSlots[p.Shape] {
		if _, ok := p.Params[slot]; ok {
			names = append(names, slot)
		}
	}
	var extra []string
	for slot := range p.Params {
		if !slices.Contains(names, slot) {
			extra = append(extra, slot)
		}
	}
	sort.Strings(extra)

	return append(names, extra...)
}

// String formats the pulse as Shape(slot=operand, ...).
func (p Pulse) String() string {
	parts := make([]string, 0, len(p.Params))
	for _, slot := range p.slotNames() {
		parts = append(parts, slot+"="+p.Params[slot].String())
	}

	return fmt.Sprintf("%s(%s, name=%q)", p.Shape, strings.Join(parts, ", "), p.Name)
}
