package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qexp/calstore/pulse"
)

var testTime = time.Date(2021, 7, 19, 10, 41, 22, 0, time.UTC)

func mustPulse(t *testing.T, shape pulse.Shape, name string, operands ...pulse.Expr) pulse.Pulse {
	t.Helper()
	p, err := pulse.NewPulse(shape, name, operands...)
	require.NoError(t, err)

	return p
}

// dragTemplate returns a single qubit template playing a DRAG pulse whose amplitude and angle
// are the parameters amp and angle.
func dragTemplate(t *testing.T, name, amp, angle string) *pulse.ScheduleBlock {
	t.Helper()
	p := mustPulse(t, pulse.Drag, name+"p",
		pulse.Param("duration"), pulse.Param(amp), pulse.Param("σ"), pulse.Param("β"), pulse.Param(angle))

	return pulse.NewScheduleBlock(name, pulse.AlignLeft, pulse.Play(p, pulse.Drive(pulse.Param("ch0"))))
}

func crTemplate(t *testing.T) *pulse.ScheduleBlock {
	t.Helper()
	p := mustPulse(t, pulse.GaussianSquare, "cr90p",
		pulse.Param("duration"), pulse.Param("amp"), pulse.Param("σ"), pulse.Param("width"), pulse.Const(pulse.Float(0)))

	return pulse.NewScheduleBlock("cr", pulse.AlignSequential,
		pulse.Ref("x", 0),
		pulse.Play(p, pulse.Control(pulse.Param("ch0.1"))),
		pulse.Ref("sx", 1),
	)
}

// newTestCalibrations returns calibrations for a two qubit device with x, sx and cr templates
// and a complete set of default values.
func newTestCalibrations(t *testing.T, opts ...Option) *Calibrations {
	t.Helper()

	cals := NewCalibrations(append([]Option{
		WithBackend("fake_device", "1.2.0"),
		WithCouplingMap([][2]int{{0, 1}, {1, 0}}),
		WithControlChannels(map[string][]int{"(0, 1)": {0}, "(1, 0)": {1}}),
		WithClock(func() time.Time { return testTime }),
	}, opts...)...)

	require.NoError(t, cals.AddSchedule(dragTemplate(t, "x", "amp", "angle"), nil, 1))
	require.NoError(t, cals.AddSchedule(dragTemplate(t, "sx", "amp", "angle"), nil, 1))
	require.NoError(t, cals.AddSchedule(crTemplate(t), nil, 2))
	require.NoError(t, cals.RegisterParameter(NewParameterKey("qubit_lo_freq", nil, "")))

	add := func(param string, qubits Qubits, schedule string, v pulse.Value) {
		require.NoError(t, cals.AddParameterValue(ParameterValue{
			Parameter: param, Qubits: qubits, Schedule: schedule, Value: v, Valid: true, ExpID: "exp-0",
		}))
	}
	for _, s := range []string{"x", "sx"} {
		add("duration", nil, s, pulse.Int(160))
		add("σ", nil, s, pulse.Float(40))
		add("β", nil, s, pulse.Float(0))
		add("angle", nil, s, pulse.Float(0))
	}
	add("amp", nil, "x", pulse.Float(0.5))
	add("amp", nil, "sx", pulse.Float(0.25))
	add("duration", Q(0, 1), "cr", pulse.Int(1200))
	add("amp", Q(0, 1), "cr", pulse.Complex(complex(0.3, 0.1)))
	add("σ", Q(0, 1), "cr", pulse.Float(64))
	add("width", Q(0, 1), "cr", pulse.Float(944))
	add("qubit_lo_freq", Q(0), "", pulse.Float(5.1e9))
	add("qubit_lo_freq", Q(1), "", pulse.Float(5.2e9))

	return cals
}
