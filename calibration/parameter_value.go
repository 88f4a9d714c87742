package calibration

import (
	"time"

	"github.com/qexp/calstore/pulse"
)

// DefaultGroup is the calibration group used when none is given.
const DefaultGroup = "default"

// ParameterValue implements the UniqueRecord interface.
var _ UniqueRecord[ParameterValueKey, ParameterValue] = ParameterValue{}

// ParameterValue is one entry in the value history of a calibrated parameter.
type ParameterValue struct {
	// Parameter is the name of the parameter.
	Parameter string
	// Qubits the value applies to. Empty for the default value.
	Qubits Qubits
	// Schedule the parameter belongs to. Empty for parameters shared by all schedules.
	Schedule string
	// Value is the calibrated number. Complex values are kept as complex.
	Value pulse.Value
	// DateTime is when the value was produced.
	DateTime time.Time
	// Valid is false for values that should be ignored by default.
	Valid bool
	// ExpID is the id of the experiment that produced the value.
	ExpID string
	// Group allows several sets of calibrations to coexist.
	Group string
}

// ParameterKey returns the key of the parameter the value belongs to.
func (r ParameterValue) ParameterKey() ParameterKey {
	return NewParameterKey(r.Parameter, r.Qubits, r.Schedule)
}

// Key returns the ParameterValueKey of the record.
func (r ParameterValue) Key() ParameterValueKey {
	return ParameterValueKey{ParameterKey: r.ParameterKey(), Group: r.Group, DateTime: r.DateTime}
}

// Clone returns a copy of the record.
func (r ParameterValue) Clone() ParameterValue {
	r.Qubits = r.Qubits.Clone()
	return r
}

// Equals returns true if both records hold the same data.
func (r ParameterValue) Equals(other ParameterValue) bool {
	return r.Key().Equals(other.Key()) &&
		r.Value.Equals(other.Value) &&
		r.Valid == other.Valid &&
		r.ExpID == other.ExpID
}

// normalize fills the group and brings the timestamp to the precision kept by the data model.
func (r ParameterValue) normalize(now func() time.Time) ParameterValue {
	if r.Group == "" {
		r.Group = DefaultGroup
	}
	if r.DateTime.IsZero() {
		r.DateTime = now()
	}
	r.DateTime = normalizeTime(r.DateTime)

	return r
}

// normalizeTime converts t to UTC with microsecond precision.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
