package calibration

import (
	"slices"
	"time"
)

// ParameterRow is one row of the parameters table.
type ParameterRow struct {
	Parameter  string    `json:"parameter" yaml:"parameter" toml:"parameter"`
	Qubits     Qubits    `json:"qubits" yaml:"qubits" toml:"qubits"`
	Schedule   string    `json:"schedule" yaml:"schedule" toml:"schedule"`
	Value      string    `json:"value" yaml:"value" toml:"value"`
	DateTime   time.Time `json:"date_time" yaml:"date_time" toml:"date_time"`
	Valid      bool      `json:"valid" yaml:"valid" toml:"valid"`
	ExpID      string    `json:"exp_id" yaml:"exp_id" toml:"exp_id"`
	Group      string    `json:"group" yaml:"group" toml:"group"`
	Components []string  `json:"components" yaml:"components" toml:"components"`
}

// TableOption narrows the rows of the parameters table.
type TableOption func(*tableOptions)

type tableOptions struct {
	parameters     []string
	qubits         []Qubits
	schedules      []string
	group          string
	mostRecentOnly bool
}

// TableParameters keeps the rows of the named parameters.
func TableParameters(parameters ...string) TableOption {
	return func(o *tableOptions) { o.parameters = append(o.parameters, parameters...) }
}

// TableQubits keeps the rows for any of the given qubit tuples.
func TableQubits(qubits ...Qubits) TableOption {
	return func(o *tableOptions) { o.qubits = append(o.qubits, qubits...) }
}

// TableSchedules keeps the rows of the named schedules. Use "" for shared parameters.
func TableSchedules(schedules ...string) TableOption {
	return func(o *tableOptions) { o.schedules = append(o.schedules, schedules...) }
}

// TableGroup keeps the rows of one calibration group.
func TableGroup(group string) TableOption {
	return func(o *tableOptions) { o.group = group }
}

// TableMostRecentOnly keeps only the latest value of every parameter.
func TableMostRecentOnly() TableOption {
	return func(o *tableOptions) { o.mostRecentOnly = true }
}

// ParametersTable returns the stored parameter values as table rows in insertion order.
func ParametersTable(store CalibrationStore, opts ...TableOption) []ParameterRow {
	var o tableOptions
	for _, opt := range opts {
		opt(&o)
	}

	var filters []FilterFunc[ParameterValueKey, ParameterValue]
	if len(o.parameters) > 0 {
		filters = append(filters, ParameterValueByParameters(o.parameters...))
	}
	if len(o.qubits) > 0 {
		filters = append(filters, parameterValueFilter(func(r ParameterValue) bool {
			return slices.ContainsFunc(o.qubits, r.Qubits.Equals)
		}))
	}
	if len(o.schedules) > 0 {
		filters = append(filters, parameterValueFilter(func(r ParameterValue) bool {
			return slices.Contains(o.schedules, r.Schedule)
		}))
	}
	if o.group != "" {
		filters = append(filters, ParameterValueByGroup(o.group))
	}
	if o.mostRecentOnly {
		filters = append(filters, ParameterValueMostRecent())
	}

	records := store.ParameterValues().Filter(filters...)
	rows := make([]ParameterRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, ParameterRow{
			Parameter:  r.Parameter,
			Qubits:     r.Qubits,
			Schedule:   r.Schedule,
			Value:      r.Value.String(),
			DateTime:   r.DateTime,
			Valid:      r.Valid,
			ExpID:      r.ExpID,
			Group:      r.Group,
			Components: r.Qubits.Components(),
		})
	}

	return rows
}
