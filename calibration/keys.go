package calibration

import (
	"fmt"
	"time"
)

// ParameterKey identifies a calibrated parameter. An empty Schedule denotes a parameter shared
// by all schedules, empty Qubits the default value for all qubits.
type ParameterKey struct {
	Parameter string
	Qubits    Qubits
	Schedule  string
}

// NewParameterKey creates a new ParameterKey.
func NewParameterKey(parameter string, qubits Qubits, schedule string) ParameterKey {
	return ParameterKey{Parameter: parameter, Qubits: qubits.Clone(), Schedule: schedule}
}

// Equals returns true if the two ParameterKey instances are equal, false otherwise.
func (k ParameterKey) Equals(other ParameterKey) bool {
	return k.Parameter == other.Parameter &&
		k.Qubits.Equals(other.Qubits) &&
		k.Schedule == other.Schedule
}

// String is used as a map key and in error messages.
func (k ParameterKey) String() string {
	return fmt.Sprintf("%s%s/%s", k.Parameter, k.Qubits, k.Schedule)
}

// ParameterValueKey identifies one entry of the value history of a parameter.
type ParameterValueKey struct {
	ParameterKey
	Group    string
	DateTime time.Time
}

// Equals returns true if the two ParameterValueKey instances are equal, false otherwise.
func (k ParameterValueKey) Equals(other ParameterValueKey) bool {
	return k.ParameterKey.Equals(other.ParameterKey) &&
		k.Group == other.Group &&
		k.DateTime.Equal(other.DateTime)
}

// ScheduleKey identifies a schedule template. Empty Qubits denotes the default template.
type ScheduleKey struct {
	Schedule string
	Qubits   Qubits
}

// NewScheduleKey creates a new ScheduleKey.
func NewScheduleKey(schedule string, qubits Qubits) ScheduleKey {
	return ScheduleKey{Schedule: schedule, Qubits: qubits.Clone()}
}

// Equals returns true if the two ScheduleKey instances are equal, false otherwise.
func (k ScheduleKey) Equals(other ScheduleKey) bool {
	return k.Schedule == other.Schedule && k.Qubits.Equals(other.Qubits)
}

// String formats the key as name(qubits).
func (k ScheduleKey) String() string {
	return k.Schedule + k.Qubits.String()
}
