package calibration

import (
	"github.com/qexp/calstore/pulse"
)

// ScheduleTemplate implements the UniqueRecord interface.
var _ UniqueRecord[ScheduleKey, ScheduleTemplate] = ScheduleTemplate{}

// ScheduleTemplate is a user supplied pulse program stored in the calibrations.
type ScheduleTemplate struct {
	// Qubits the template is specific to. Empty for the default template.
	Qubits Qubits
	// NumQubits is the number of qubits the template acts on.
	NumQubits int
	// Schedule is the template itself. Its name is the schedule name.
	Schedule *pulse.ScheduleBlock
}

// Name returns the schedule name of the template.
func (r ScheduleTemplate) Name() string {
	if r.Schedule == nil {
		return ""
	}

	return r.Schedule.Name
}

// Key returns the ScheduleKey of the template.
func (r ScheduleTemplate) Key() ScheduleKey {
	return NewScheduleKey(r.Name(), r.Qubits)
}

// Clone returns a deep copy of the template.
func (r ScheduleTemplate) Clone() ScheduleTemplate {
	return ScheduleTemplate{
		Qubits:    r.Qubits.Clone(),
		NumQubits: r.NumQubits,
		Schedule:  r.Schedule.Clone(),
	}
}

// Equals returns true if both templates are identical.
func (r ScheduleTemplate) Equals(other ScheduleTemplate) bool {
	return r.Key().Equals(other.Key()) &&
		r.NumQubits == other.NumQubits &&
		r.Schedule.Equals(other.Schedule)
}
