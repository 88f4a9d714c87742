package commands

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/config"
	"github.com/qexp/calstore/pkg/logger"
	"github.com/qexp/calstore/pulse"
)

var testTime = time.Date(2024, 3, 11, 14, 5, 0, 0, time.UTC)

// dragTemplate returns a single qubit template playing a DRAG pulse.
func dragTemplate(t *testing.T, name string) *pulse.ScheduleBlock {
	t.Helper()

	p, err := pulse.NewPulse(pulse.Drag, name+"p",
		pulse.Param("duration"), pulse.Param("amp"), pulse.Param("σ"), pulse.Param("β"), pulse.Param("angle"))
	require.NoError(t, err)

	return pulse.NewScheduleBlock(name, pulse.AlignLeft, pulse.Play(p, pulse.Drive(pulse.Param("ch0"))))
}

// newTestCalibrations returns calibrations with an x template, default values for it, an
// amplitude for qubit 3 and a shared drive frequency.
func newTestCalibrations(t *testing.T) *calibration.Calibrations {
	t.Helper()

	cals := calibration.NewCalibrations(
		calibration.WithBackend("fake_device", "3.1.0"),
		calibration.WithCouplingMap([][2]int{{2, 3}}),
		calibration.WithControlChannels(map[string][]int{"(2, 3)": {4}}),
		calibration.WithClock(func() time.Time { return testTime }),
	)
	require.NoError(t, cals.AddSchedule(dragTemplate(t, "x"), nil, 1))
	require.NoError(t, cals.RegisterParameter(calibration.NewParameterKey("drive_freq", nil, "")))

	add := func(param string, qubits calibration.Qubits, schedule string, v pulse.Value, dt time.Time) {
		require.NoError(t, cals.AddParameterValue(calibration.ParameterValue{
			Parameter: param, Qubits: qubits, Schedule: schedule, Value: v, Valid: true, ExpID: "exp-0", DateTime: dt,
		}))
	}
	add("duration", nil, "x", pulse.Int(160), testTime)
	add("amp", nil, "x", pulse.Float(0.5), testTime)
	add("σ", nil, "x", pulse.Float(40), testTime)
	add("β", nil, "x", pulse.Float(0), testTime)
	add("angle", nil, "x", pulse.Float(0), testTime)
	add("amp", calibration.Q(3), "x", pulse.Float(0.21), testTime.Add(time.Hour))
	add("drive_freq", calibration.Q(3), "", pulse.Float(4.97e9), testTime)

	return cals
}

// writeDocument saves cals as <dir>/<prefix>calibrations.json and returns the path.
func writeDocument(t *testing.T, dir, prefix string, cals *calibration.Calibrations) string {
	t.Helper()

	path, err := calibration.Save(cals.Seal(), calibration.SaveOptions{Folder: dir, FilePrefix: prefix})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, prefix+calibration.FileName), path)

	return path
}

// testConfig returns a tool config saving into folder.
func testConfig(folder string) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Folder: folder},
		Catalog: config.CatalogConfig{
			Driver:          "ramsql",
			DSN:             "calibrations",
			ConnectAttempts: 1,
			CreateSchema:    true,
		},
		Log: config.LogConfig{Level: "info"},
	}
}

// newTestCommand returns the root command with a fixed tool config and its output buffer.
func newTestCommand(t *testing.T, toolCfg *config.Config, deps Deps) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	if deps.ConfigLoader == nil {
		deps.ConfigLoader = func(string) (*config.Config, error) { return toolCfg, nil }
	}

	cmd, err := NewCommand(Config{Logger: logger.Test(t), Deps: deps})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)

	return cmd, out
}

// execute runs the root command with args.
func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)

	return cmd.Execute()
}
