// Package updater writes the results of calibration experiments back into a set of
// calibrations.
package updater

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/pulse"
)

const (
	// BetaParameter is the default name of the DRAG coefficient.
	BetaParameter = "β"
	// FrequencyParameter is the default name of the qubit drive frequency.
	FrequencyParameter = "drive_freq"
)

var (
	// ErrAngleNaming is returned when the angle of a pulse is not the parameter named after
	// its amplitude parameter, e.g. angle for amp and angle_sx for amp_sx.
	ErrAngleNaming = errors.New("pulse angle parameter does not follow the amplitude naming convention")
	// ErrLegacyComplexAmplitude is returned when the stored amplitude to update is complex.
	// Such amplitudes predate the (amp, angle) representation and must be converted first.
	ErrLegacyComplexAmplitude = errors.New("stored amplitude is complex")
)

// Request describes a new value for one parameter.
type Request struct {
	Parameter string
	Schedule  string
	Qubits    calibration.Qubits
	Value     pulse.Value
	// Group defaults to calibration.DefaultGroup.
	Group string
	// ExpID defaults to a random UUID.
	ExpID string
	// Time defaults to the current time of the calibrations.
	Time time.Time
}

func (r Request) withDefaults(cals *calibration.Calibrations) Request {
	if r.Group == "" {
		r.Group = calibration.DefaultGroup
	}
	if r.ExpID == "" {
		r.ExpID = uuid.NewString()
	}
	if r.Time.IsZero() {
		r.Time = cals.Now()
	}

	return r
}

// Update adds req as a new valid value of its parameter.
func Update(cals *calibration.Calibrations, req Request) (calibration.ParameterValue, error) {
	req = req.withDefaults(cals)
	value := calibration.ParameterValue{
		Parameter: req.Parameter,
		Qubits:    req.Qubits,
		Schedule:  req.Schedule,
		Value:     req.Value,
		DateTime:  req.Time,
		Valid:     true,
		ExpID:     req.ExpID,
		Group:     req.Group,
	}
	if err := cals.AddParameterValue(value); err != nil {
		return calibration.ParameterValue{}, &calibration.CalibrationError{Op: "update", Schedule: req.Schedule, Err: err}
	}

	cals.Logger().Infow("Parameter updated",
		"parameter", req.Parameter, "qubits", req.Qubits.String(), "schedule", req.Schedule,
		"value", req.Value.String(), "expID", req.ExpID)

	return value, nil
}

// AmplitudeRequest describes a new amplitude for the pulse of a schedule.
type AmplitudeRequest struct {
	Schedule string
	Qubits   calibration.Qubits
	// AmpParameter names the parameter in the amp slot of the pulse. The angle parameter
	// of the pulse must be named after it.
	AmpParameter string
	Amp          pulse.Value
	Group        string
	ExpID        string
	Time         time.Time
}

// AngleParameter returns the name of the angle parameter paired with an amplitude parameter:
// amp pairs with angle and amp_<suffix> with angle_<suffix>.
func AngleParameter(ampParameter string) (string, error) {
	switch {
	case ampParameter == "amp":
		return "angle", nil
	case strings.HasPrefix(ampParameter, "amp_") && len(ampParameter) > len("amp_"):
		return "angle_" + strings.TrimPrefix(ampParameter, "amp_"), nil
	default:
		return "", fmt.Errorf("%w: amplitude parameter %q does not start with amp", ErrAngleNaming, ampParameter)
	}
}

// UpdateAmplitude stores a new amplitude for the pulse of req.Schedule whose amp slot is
// req.AmpParameter. Amplitudes are stored as a non-negative magnitude and an angle: a complex
// amplitude a is stored as (|a|, arg a), a negative amplitude as (|a|, angle + π).
func UpdateAmplitude(cals *calibration.Calibrations, req AmplitudeRequest) ([]calibration.ParameterValue, error) {
	fail := func(err error) ([]calibration.ParameterValue, error) {
		return nil, &calibration.CalibrationError{Op: "update amplitude", Schedule: req.Schedule, Err: err}
	}

	template, err := cals.GetTemplate(req.Schedule, req.Qubits)
	if err != nil {
		return fail(err)
	}
	p, _, ok := template.Schedule.PulseFor(req.AmpParameter)
	if !ok {
		return fail(fmt.Errorf("no pulse plays with amplitude parameter %q", req.AmpParameter))
	}

	angleName, err := AngleParameter(req.AmpParameter)
	if err != nil {
		return fail(err)
	}
	angle := p.Params[pulse.SlotAngle]
	if !angle.IsParameter() || angle.Name() != angleName {
		return fail(fmt.Errorf("%w: pulse %q uses %s as angle, expected parameter %q",
			ErrAngleNaming, p.Name, angle, angleName))
	}

	group := req.Group
	if group == "" {
		group = calibration.DefaultGroup
	}
	current, err := cals.GetParameterValueRecord(req.AmpParameter, req.Qubits, req.Schedule,
		calibration.WithGroup(group), calibration.WithInvalid())
	if err == nil && current.Value.IsComplex() {
		return fail(fmt.Errorf("%w: %s = %s for qubits %s, store it as amplitude and angle first",
			ErrLegacyComplexAmplitude, req.AmpParameter, current.Value, req.Qubits))
	}

	base := Request{
		Schedule: req.Schedule,
		Qubits:   req.Qubits,
		Group:    group,
		ExpID:    req.ExpID,
		Time:     req.Time,
	}.withDefaults(cals)

	amp := req.Amp
	var newAngle float64
	changeAngle := true
	switch {
	case req.Amp.IsComplex():
		amp = pulse.Float(req.Amp.Abs())
		newAngle = wrapAngle(req.Amp.Phase())
	case req.Amp.Float64() < 0:
		amp = pulse.Float(-req.Amp.Float64())
		if v, err := cals.GetParameterValue(angleName, req.Qubits, req.Schedule, calibration.WithGroup(group)); err == nil {
			newAngle = v.Float64()
		}
		newAngle = wrapAngle(newAngle + math.Pi)
	default:
		changeAngle = false
	}

	ampReq := base
	ampReq.Parameter = req.AmpParameter
	ampReq.Value = amp
	ampValue, err := Update(cals, ampReq)
	if err != nil {
		return nil, err
	}
	if !changeAngle {
		return []calibration.ParameterValue{ampValue}, nil
	}

	angleReq := base
	angleReq.Parameter = angleName
	angleReq.Value = pulse.Float(newAngle)
	angleValue, err := Update(cals, angleReq)
	if err != nil {
		return nil, err
	}

	return []calibration.ParameterValue{ampValue, angleValue}, nil
}

// wrapAngle maps a to (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}

	return a - math.Pi
}

// UpdateDragBeta stores a new DRAG coefficient. req.Parameter defaults to BetaParameter.
func UpdateDragBeta(cals *calibration.Calibrations, req Request) (calibration.ParameterValue, error) {
	if req.Parameter == "" {
		req.Parameter = BetaParameter
	}
	if req.Value.IsComplex() {
		return calibration.ParameterValue{}, fmt.Errorf("DRAG coefficient %s must be real", req.Value)
	}

	return Update(cals, req)
}

// UpdateFrequency stores a new frequency. req.Parameter defaults to FrequencyParameter, which
// is usually shared by all schedules.
func UpdateFrequency(cals *calibration.Calibrations, req Request) (calibration.ParameterValue, error) {
	if req.Parameter == "" {
		req.Parameter = FrequencyParameter
	}
	if req.Value.IsComplex() || req.Value.Float64() <= 0 {
		return calibration.ParameterValue{}, fmt.Errorf("frequency %s must be a positive real number", req.Value)
	}

	return Update(cals, req)
}
