package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/qexp/calstore/internal/jsonutils"
	"github.com/qexp/calstore/pulse"
)

// ScheduleInformation returns a human-readable dump of every template in store.
//
// Deprecated: the dump cannot be parsed back into templates. Use Save.
func ScheduleInformation(store CalibrationStore) (string, error) {
	templates, err := store.Templates().Fetch()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, t := range templates {
		fmt.Fprintf(&b, "%s qubits=%s num_qubits=%d\n", t.Name(), t.Qubits, t.NumQubits)
		b.WriteString(pulse.Format(t.Schedule))
	}

	return b.String(), nil
}

// Config returns the backend description and the parameter values of c as a plain map.
//
// Deprecated: templates are not part of the configuration. Use ToModel.
func (c *Calibrations) Config() map[string]any {
	backend := c.Backend()
	values, _ := c.ParameterValueStore.Fetch()

	params := make([]map[string]any, 0, len(values))
	for _, v := range values {
		params = append(params, map[string]any{
			"parameter": v.Parameter,
			"qubits":    []int(v.Qubits.Clone()),
			"schedule":  v.Schedule,
			"value":     v.Value,
			"group":     v.Group,
			"valid":     v.Valid,
			"date_time": v.DateTime.UTC().Format(dateTimeLayout),
			"exp_id":    v.ExpID,
		})
	}

	return map[string]any{
		"class": "Calibrations",
		"kwargs": map[string]any{
			"backend_name":     backend.Name,
			"backend_version":  backend.Version,
			"coupling_map":     backend.CouplingMap,
			"control_channels": backend.ControlChannels,
		},
		"parameters": params,
	}
}

// configDocument is the shape of the map returned by Config once encoded as JSON.
type configDocument struct {
	Class  string `json:"class"`
	Kwargs struct {
		BackendName     string           `json:"backend_name"`
		BackendVersion  string           `json:"backend_version"`
		CouplingMap     [][2]int         `json:"coupling_map"`
		ControlChannels map[string][]int `json:"control_channels"`
	} `json:"kwargs"`
	Parameters []configParameter `json:"parameters"`
}

type configParameter struct {
	Parameter string       `json:"parameter"`
	Qubits    Qubits       `json:"qubits"`
	Schedule  string       `json:"schedule"`
	Value     *pulse.Value `json:"value"`
	Group     string       `json:"group"`
	Valid     bool         `json:"valid"`
	DateTime  string       `json:"date_time"`
	ExpID     string       `json:"exp_id"`
}

// FromConfig rebuilds calibrations from the output of Config. cfg may hold the typed values
// returned by Config or the generic shapes of a decoded JSON or YAML document ([]any,
// map[string]any, float64, json.Number, complex envelopes). Since templates are not part of the
// configuration, every value is registered for its own key.
//
// Deprecated: use FromModel.
func FromConfig(cfg map[string]any, opts ...Option) (*Calibrations, error) {
	if class, _ := cfg["class"].(string); class != "Calibrations" {
		return nil, fmt.Errorf("%w: config class %q", ErrUnsupportedFormat, cfg["class"])
	}

	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	doc, err := jsonutils.Decode[configDocument](b, false)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid config: %w", ErrUnsupportedFormat, err)
	}

	cals := NewCalibrations(append([]Option{
		WithBackend(doc.Kwargs.BackendName, doc.Kwargs.BackendVersion),
		WithCouplingMap(doc.Kwargs.CouplingMap),
		WithControlChannels(doc.Kwargs.ControlChannels),
	}, opts...)...)

	for i, p := range doc.Parameters {
		value, err := p.toValue()
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		cals.mu.Lock()
		cals.registerLocked(value.ParameterKey())
		cals.mu.Unlock()
		if err = cals.AddParameterValue(value); err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
	}

	return cals, nil
}

func (p configParameter) toValue() (ParameterValue, error) {
	if p.Parameter == "" {
		return ParameterValue{}, errors.New("missing parameter name")
	}
	if p.Value == nil {
		return ParameterValue{}, fmt.Errorf("missing value of %s", p.Parameter)
	}

	v := ParameterValue{
		Parameter: p.Parameter,
		Qubits:    p.Qubits,
		Schedule:  p.Schedule,
		Value:     *p.Value,
		Group:     p.Group,
		Valid:     p.Valid,
		ExpID:     p.ExpID,
	}
	if p.DateTime != "" {
		dt, err := parseDateTime(p.DateTime)
		if err != nil {
			return ParameterValue{}, err
		}
		v.DateTime = dt
	}

	return v, nil
}
