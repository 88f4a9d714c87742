package pulse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ChannelKind is the prefix identifying the type of a pulse channel.
type ChannelKind string

const (
	DriveChannel   ChannelKind = "d"
	ControlChannel ChannelKind = "u"
	MeasureChannel ChannelKind = "m"
	AcquireChannel ChannelKind = "a"
)

// Valid reports whether the kind is one of the known channel kinds.
func (k ChannelKind) Valid() bool {
	switch k {
	case DriveChannel, ControlChannel, MeasureChannel, AcquireChannel:
		return true
	default:
		return false
	}
}

// channelParamPattern is the naming convention for channel index parameters of templates:
// "ch0" addresses the first qubit of the template, "ch0.1" the control channel between
// the first and the second qubit.
var channelParamPattern = regexp.MustCompile(`^ch\d+(\.\d+)*$`)

// IsChannelParameter reports whether name follows the channel index parameter convention.
func IsChannelParameter(name string) bool {
	return channelParamPattern.MatchString(name)
}

// ChannelSlots returns the template qubit slots referenced by a channel index parameter,
// e.g. "ch0.1" -> [0 1].
func ChannelSlots(name string) ([]int, error) {
	if !IsChannelParameter(name) {
		return nil, fmt.Errorf("channel parameter %q does not match the ch<i>(.<j>) convention", name)
	}
	parts := strings.Split(strings.TrimPrefix(name, "ch"), ".")
	slots := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid channel parameter %q: %w", name, err)
		}
		slots = append(slots, n)
	}

	return slots, nil
}

// Channel is a pulse channel. Its index is a constant for bound schedules and a channel
// parameter for templates.
type Channel struct {
	Kind  ChannelKind
	Index Expr
}

// Drive returns a drive channel with the given index operand.
func Drive(index Expr) Channel { return Channel{Kind: DriveChannel, Index: index} }

// Control returns a control channel with the given index operand.
func Control(index Expr) Channel { return Channel{Kind: ControlChannel, Index: index} }

// Measure returns a measure channel with the given index operand.
func Measure(index Expr) Channel { return Channel{Kind: MeasureChannel, Index: index} }

// Acquire returns an acquire channel with the given index operand.
func Acquire(index Expr) Channel { return Channel{Kind: AcquireChannel, Index: index} }

// Equals returns true if both channels have the same kind and index.
func (c Channel) Equals(other Channel) bool {
	return c.Kind == other.Kind && c.Index.Equals(other.Index)
}

// String returns d0 for bound channels and d(ch0) for parametrised ones.
func (c Channel) String() string {
	if c.Index.IsParameter() {
		return fmt.Sprintf("%s(%s)", c.Kind, c.Index.Name())
	}

	return fmt.Sprintf("%s%s", c.Kind, c.Index.Value())
}
