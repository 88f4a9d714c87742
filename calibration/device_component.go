package calibration

import (
	"strconv"
	"strings"
)

// DeviceComponent is a physical element of a device a calibration can refer to.
type DeviceComponent interface {
	String() string
}

// Qubit is a physical qubit, formatted Q<index>.
type Qubit int

func (q Qubit) String() string { return "Q" + strconv.Itoa(int(q)) }

// Resonator is a readout resonator, formatted R<index>.
type Resonator int

func (r Resonator) String() string { return "R" + strconv.Itoa(int(r)) }

// UnknownComponent is any component that is neither a qubit nor a resonator.
type UnknownComponent string

func (u UnknownComponent) String() string { return string(u) }

// ToComponent parses the string form of a device component.
func ToComponent(s string) DeviceComponent {
	switch {
	case strings.HasPrefix(s, "Q"):
		if n, err := strconv.Atoi(s[1:]); err == nil && n >= 0 {
			return Qubit(n)
		}
	case strings.HasPrefix(s, "R"):
		if n, err := strconv.Atoi(s[1:]); err == nil && n >= 0 {
			return Resonator(n)
		}
	}

	return UnknownComponent(s)
}
