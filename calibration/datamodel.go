package calibration

import (
	"encoding/base64"
	"fmt"
	"slices"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/qexp/calstore/pkg/logger"
	"github.com/qexp/calstore/pulse"
)

// SchemaVersion is the version of the calibration document written by this package.
const SchemaVersion = "1.0"

// dateTimeLayout is the timestamp format of the document. Timestamps are always UTC.
const dateTimeLayout = "2006-01-02T15:04:05.000000Z"

// CalibrationModelV1 is the JSON document a set of calibrations is saved as. It only uses plain
// JSON types so that other tools can read it. Schedule templates are embedded as base64
// encoded binary payloads, see pulse.Marshal.
type CalibrationModelV1 struct {
	SchemaVersion        string                `json:"schema_version"`
	BackendName          string                `json:"backend_name"`
	BackendVersion       string                `json:"backend_version"`
	DeviceCouplingGraph  [][2]int              `json:"device_coupling_graph"`
	ControlChannelMap    map[string][]int      `json:"control_channel_map"`
	Schedules            []ScheduleModel       `json:"schedules"`
	Parameters           []ParameterValueModel `json:"parameters"`
	RegisteredParameters []ParameterKeyModel   `json:"registered_parameters"`
}

// ScheduleModel is a schedule template entry of the document.
type ScheduleModel struct {
	Name      string `json:"name"`
	Qubits    Qubits `json:"qubits"`
	NumQubits int    `json:"num_qubits"`
	Payload   string `json:"payload"`
}

// ParameterValueModel is a parameter value entry of the document.
type ParameterValueModel struct {
	ParamName string      `json:"param_name"`
	Qubits    Qubits      `json:"qubits"`
	Schedule  string      `json:"schedule"`
	Value     pulse.Value `json:"value"`
	Group     string      `json:"group"`
	Valid     bool        `json:"valid"`
	DateTime  string      `json:"date_time"`
	ExpID     string      `json:"exp_id"`
}

// ParameterKeyModel is a registered parameter entry of the document.
type ParameterKeyModel struct {
	ParamName string `json:"param_name"`
	Qubits    Qubits `json:"qubits"`
	Schedule  string `json:"schedule"`
}

// ToModel converts store into its document form. With mostRecentOnly, only the latest value
// of every parameter and group is kept.
func ToModel(store CalibrationStore, mostRecentOnly bool) (CalibrationModelV1, error) {
	backend := store.Backend()
	model := CalibrationModelV1{
		SchemaVersion:        SchemaVersion,
		BackendName:          backend.Name,
		BackendVersion:       backend.Version,
		DeviceCouplingGraph:  backend.CouplingMap,
		ControlChannelMap:    backend.ControlChannels,
		Schedules:            []ScheduleModel{},
		Parameters:           []ParameterValueModel{},
		RegisteredParameters: []ParameterKeyModel{},
	}
	if model.DeviceCouplingGraph == nil {
		model.DeviceCouplingGraph = [][2]int{}
	}
	if model.ControlChannelMap == nil {
		model.ControlChannelMap = map[string][]int{}
	}

	templates, err := store.Templates().Fetch()
	if err != nil {
		return CalibrationModelV1{}, err
	}
	for _, template := range templates {
		payload, err := pulse.Marshal(template.Schedule)
		if err != nil {
			return CalibrationModelV1{}, fmt.Errorf("failed to encode schedule %s: %w", template.Key(), err)
		}
		model.Schedules = append(model.Schedules, ScheduleModel{
			Name:      template.Name(),
			Qubits:    template.Qubits,
			NumQubits: template.NumQubits,
			Payload:   base64.StdEncoding.EncodeToString(payload),
		})
	}

	var filters []FilterFunc[ParameterValueKey, ParameterValue]
	if mostRecentOnly {
		filters = append(filters, ParameterValueMostRecent())
	}
	for _, value := range store.ParameterValues().Filter(filters...) {
		model.Parameters = append(model.Parameters, ParameterValueModel{
			ParamName: value.Parameter,
			Qubits:    value.Qubits,
			Schedule:  value.Schedule,
			Value:     value.Value,
			Group:     value.Group,
			Valid:     value.Valid,
			DateTime:  value.DateTime.UTC().Format(dateTimeLayout),
			ExpID:     value.ExpID,
		})
	}

	for _, key := range store.RegisteredParameters() {
		model.RegisteredParameters = append(model.RegisteredParameters, ParameterKeyModel{
			ParamName: key.Parameter,
			Qubits:    key.Qubits,
			Schedule:  key.Schedule,
		})
	}

	return model, nil
}

// FromModel rebuilds calibrations from their document form. opts are applied after the backend
// description of the document.
func FromModel(model CalibrationModelV1, opts ...Option) (*Calibrations, error) {
	cals := NewCalibrations(append([]Option{
		WithBackend(model.BackendName, model.BackendVersion),
		WithCouplingMap(model.DeviceCouplingGraph),
		WithControlChannels(model.ControlChannelMap),
	}, opts...)...)

	if err := checkSchemaVersion(model.SchemaVersion, cals.lggr); err != nil {
		return nil, err
	}

	for i, s := range model.Schedules {
		payload, err := base64.StdEncoding.DecodeString(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("schedule %d (%s): invalid payload encoding: %w", i, s.Name, err)
		}
		block, err := pulse.Unmarshal(payload)
		if err != nil {
			return nil, fmt.Errorf("schedule %d (%s): %w", i, s.Name, err)
		}
		if block.Name != s.Name {
			return nil, fmt.Errorf("schedule %d: payload holds schedule %q, expected %q", i, block.Name, s.Name)
		}
		template, err := newScheduleTemplate(block, s.Qubits, s.NumQubits)
		if err != nil {
			return nil, err
		}
		if err = cals.ScheduleStore.Upsert(template); err != nil {
			return nil, err
		}
	}

	cals.mu.Lock()
	for _, key := range model.RegisteredParameters {
		cals.registerLocked(NewParameterKey(key.ParamName, key.Qubits, key.Schedule))
	}
	cals.mu.Unlock()

	for i, p := range model.Parameters {
		dt, err := parseDateTime(p.DateTime)
		if err != nil {
			return nil, fmt.Errorf("parameter %d (%s): %w", i, p.ParamName, err)
		}
		err = cals.AddParameterValue(ParameterValue{
			Parameter: p.ParamName,
			Qubits:    p.Qubits,
			Schedule:  p.Schedule,
			Value:     p.Value,
			DateTime:  dt,
			Valid:     p.Valid,
			ExpID:     p.ExpID,
			Group:     p.Group,
		})
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
	}

	return cals, nil
}

func parseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(dateTimeLayout, s)
	if err == nil {
		return t, nil
	}
	if t, rerr := time.Parse(time.RFC3339Nano, s); rerr == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date_time %q: %w", s, err)
}

// checkSchemaVersion accepts any 1.x document. Documents from a newer minor version are read
// on a best effort basis.
func checkSchemaVersion(version string, lggr logger.Logger) error {
	if version == "" {
		return fmt.Errorf("%w: missing schema_version", ErrUnsupportedSchema)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedSchema, version, err)
	}

	current := semver.MustParse(SchemaVersion)
	if v.Major() != current.Major() {
		return fmt.Errorf("%w: %s, expected %d.x", ErrUnsupportedSchema, v, current.Major())
	}
	if v.Minor() > current.Minor() {
		lggr.Warnw("Calibration document has a newer schema version, unknown fields are ignored",
			"documentVersion", v.String(), "supportedVersion", current.String())
	}

	return nil
}

// Equal reports whether two stores hold the same backend, templates, registrations and values.
// Record order is not significant.
func Equal(a, b CalibrationStore) bool {
	if !a.Backend().Equals(b.Backend()) {
		return false
	}

	ra, rb := a.RegisteredParameters(), b.RegisteredParameters()
	if len(ra) != len(rb) {
		return false
	}
	for _, key := range ra {
		if !slices.ContainsFunc(rb, key.Equals) {
			return false
		}
	}

	ta, err := a.Templates().Fetch()
	if err != nil {
		return false
	}
	tb, err := b.Templates().Fetch()
	if err != nil || len(ta) != len(tb) {
		return false
	}
	for _, t := range ta {
		if !slices.ContainsFunc(tb, t.Equals) {
			return false
		}
	}

	va, err := a.ParameterValues().Fetch()
	if err != nil {
		return false
	}
	vb, err := b.ParameterValues().Fetch()
	if err != nil || len(va) != len(vb) {
		return false
	}
	for _, v := range va {
		if !slices.ContainsFunc(vb, v.Equals) {
			return false
		}
	}

	return true
}
