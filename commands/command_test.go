package commands

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/config"
	"github.com/qexp/calstore/pkg/logger"
	"github.com/qexp/calstore/pulse"
)

func TestNewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Nop()})
	require.NoError(t, err)

	assert.Equal(t, "calctl", cmd.Use)
	assert.Equal(t, rootShort, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	uses := make([]string, 0, len(cmd.Commands()))
	for _, sc := range cmd.Commands() {
		uses = append(uses, strings.Fields(sc.Use)[0])
	}
	assert.ElementsMatch(t, []string{
		"show", "schedules", "merge", "validate", "query", "export-csv", "update", "sync",
	}, uses)
}

func TestNewCommand_MissingLogger(t *testing.T) {
	t.Parallel()

	_, err := NewCommand(Config{})
	require.EqualError(t, err, "commands.Config: missing required fields: Logger")
}

func TestShow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeDocument(t, dir, "", newTestCalibrations(t))

	tests := []struct {
		name    string
		args    []string
		assert  func(t *testing.T, out string)
		wantErr string
	}{
		{
			name: "table",
			args: []string{"show", file},
			assert: func(t *testing.T, out string) {
				t.Helper()
				assert.Contains(t, out, "PARAMETER")
				assert.Contains(t, out, "0.21")
				assert.Contains(t, out, "4.97e+09")
				assert.Contains(t, out, "7 parameter values")
			},
		},
		{
			name: "filtered json",
			args: []string{"show", file, "-p", "amp", "-q", "3", "-o", "json"},
			assert: func(t *testing.T, out string) {
				t.Helper()
				var rows []map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &rows))
				require.Len(t, rows, 1)
				assert.Equal(t, "0.21", rows[0]["value"])
				assert.Equal(t, []any{"Q3"}, rows[0]["components"])
			},
		},
		{
			name: "shared parameters as yaml",
			args: []string{"show", file, "-s", "", "-o", "yaml"},
			assert: func(t *testing.T, out string) {
				t.Helper()
				var rows []map[string]any
				require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
				require.Len(t, rows, 1)
				assert.Equal(t, "drive_freq", rows[0]["parameter"])
			},
		},
		{
			name: "most recent as toml",
			args: []string{"show", file, "--most-recent", "-s", "x", "-o", "toml"},
			assert: func(t *testing.T, out string) {
				t.Helper()
				var doc map[string][]map[string]any
				require.NoError(t, toml.Unmarshal([]byte(out), &doc))
				assert.Len(t, doc["parameters"], 6)
			},
		},
		{
			name: "group filter",
			args: []string{"show", file, "-g", "other", "-o", "json"},
			assert: func(t *testing.T, out string) {
				t.Helper()
				assert.Equal(t, "[]\n", out)
			},
		},
		{
			name:    "unsupported format",
			args:    []string{"show", file, "-o", "xml"},
			wantErr: `unsupported output format "xml"`,
		},
		{
			name:    "invalid qubits",
			args:    []string{"show", file, "-q", "x"},
			wantErr: "invalid --qubits",
		},
		{
			name:    "missing file",
			args:    []string{"show", filepath.Join(dir, "missing.json")},
			wantErr: "failed to load calibrations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, out := newTestCommand(t, testConfig(dir), Deps{})
			err := execute(cmd, tt.args...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.assert(t, out.String())
		})
	}
}

func TestSchedules(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeDocument(t, dir, "", newTestCalibrations(t))

	cmd, out := newTestCommand(t, testConfig(dir), Deps{})
	require.NoError(t, execute(cmd, "schedules", file))
	assert.Contains(t, out.String(), "NUM_QUBITS")
	assert.Contains(t, out.String(), "amp, angle, duration, β, σ")

	cmd, out = newTestCommand(t, testConfig(dir), Deps{})
	require.NoError(t, execute(cmd, "schedules", file, "-o", "json"))
	var rows []scheduleRow
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0].Name)
	assert.Equal(t, 1, rows[0].NumQubits)
	assert.Empty(t, rows[0].References)

	cmd, out = newTestCommand(t, testConfig(dir), Deps{})
	require.NoError(t, execute(cmd, "schedules", file, "--dump"))
	assert.True(t, strings.HasPrefix(out.String(), "x qubits=() num_qubits=1\n"), out.String())
}

func TestMerge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeDocument(t, filepath.Join(dir, "run1"), "", newTestCalibrations(t))

	second := newTestCalibrations(t)
	require.NoError(t, second.AddParameterValue(calibration.ParameterValue{
		Parameter: "amp", Qubits: calibration.Q(3), Schedule: "x", Value: pulse.Float(0.22), Valid: true,
		DateTime: testTime.Add(2 * time.Hour), ExpID: "exp-1",
	}))
	secondFile := writeDocument(t, filepath.Join(dir, "run2"), "", second)

	merged := filepath.Join(dir, "merged")

	cmd, out := newTestCommand(t, testConfig(dir), Deps{})
	require.NoError(t, execute(cmd, "merge", merged, first, secondFile, "--prefix", "all_"))
	assert.Contains(t, out.String(), "Merged 2 files into "+filepath.Join(merged, "all_calibrations.json"))

	got, err := calibration.Load(filepath.Join(merged, "all_calibrations.json"))
	require.NoError(t, err)
	values, err := got.ParameterValues().Fetch()
	require.NoError(t, err)
	assert.Len(t, values, 8, "identical records of both runs are kept once")

	v, err := got.GetParameterValue("amp", calibration.Q(3), "x")
	require.NoError(t, err)
	assert.True(t, v.Equals(pulse.Float(0.22)))

	// the merged file exists now and the config does not allow overwriting
	cmd, _ = newTestCommand(t, testConfig(dir), Deps{})
	err = execute(cmd, "merge", merged, first, secondFile, "--prefix", "all_")
	require.ErrorIs(t, err, calibration.ErrFileExists)

	cfg := testConfig(dir)
	cfg.Store.Overwrite = true
	cfg.Store.MostRecentOnly = true
	cmd, _ = newTestCommand(t, cfg, Deps{})
	require.NoError(t, execute(cmd, "merge", merged, first, secondFile, "--prefix", "all_"))

	got, err = calibration.Load(filepath.Join(merged, "all_calibrations.json"))
	require.NoError(t, err)
	values, err = got.ParameterValues().Fetch()
	require.NoError(t, err)
	assert.Len(t, values, 7)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeDocument(t, dir, "good_", newTestCalibrations(t))

	incomplete := newTestCalibrations(t)
	require.NoError(t, incomplete.AddSchedule(dragTemplate(t, "sx"), nil, 1))
	require.NoError(t, incomplete.AddParameterValue(calibration.ParameterValue{
		Parameter: "amp", Qubits: calibration.Q(1), Schedule: "sx", Value: pulse.Float(0.25), Valid: true,
	}))
	bad := writeDocument(t, dir, "bad_", incomplete)

	cmd, out := newTestCommand(t, testConfig(dir), Deps{})
	require.NoError(t, execute(cmd, "validate", good, bad))
	assert.Contains(t, out.String(), "✅ "+good+": backend fake_device 3.1.0, 1 schedules, 6 registered parameters, 7 values")

	cmd, out = newTestCommand(t, testConfig(dir), Deps{})
	err := execute(cmd, "validate", good, bad, "--resolve")
	require.ErrorContains(t, err, "1 of 2 files failed validation")
	require.ErrorIs(t, err, calibration.ErrUnboundParameter)
	assert.Contains(t, out.String(), "❌ "+bad)

	cmd, _ = newTestCommand(t, testConfig(dir), Deps{})
	err = execute(cmd, "validate", good, filepath.Join(dir, "missing.json"))
	require.ErrorContains(t, err, "1 of 2 files failed validation")
}

func TestQuery(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeDocument(t, dir, "", newTestCalibrations(t))

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{
			name: "schedule names",
			args: []string{"query", file, "-c", "[.schedules[].name]"},
			want: "[\"x\"]\n",
		},
		{
			name: "count values",
			args: []string{"query", file, ".parameters | length"},
			want: "7\n",
		},
		{
			name: "most recent amp values",
			args: []string{"query", file, "-c", "--most-recent",
				`.parameters[] | select(.param_name == "amp") | .value`},
			want: "0.5\n0.21\n",
		},
		{
			name:    "invalid expression",
			args:    []string{"query", file, ".parameters[] |"},
			wantErr: "invalid query",
		},
		{
			name:    "runtime error",
			args:    []string{"query", file, ".backend_name + 1"},
			wantErr: "query failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, out := newTestCommand(t, testConfig(dir), Deps{})
			err := execute(cmd, tt.args...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeDocument(t, dir, "", newTestCalibrations(t))
	csvDir := filepath.Join(dir, "csv")

	cmd, out := newTestCommand(t, testConfig(dir), Deps{})
	require.NoError(t, execute(cmd, "export-csv", file, csvDir, "--prefix", "run_"))
	assert.Contains(t, out.String(), "deprecated")

	b, err := os.ReadFile(filepath.Join(csvDir, "run_"+calibration.CSVFileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Len(t, lines, 8)

	// the folder defaults to the configured store folder
	cmd, _ = newTestCommand(t, testConfig(csvDir), Deps{})
	require.NoError(t, execute(cmd, "export-csv", file))
	assert.FileExists(t, filepath.Join(csvDir, calibration.CSVFileName))

	// an existing export is only replaced with --overwrite
	cmd, _ = newTestCommand(t, testConfig(csvDir), Deps{})
	require.ErrorIs(t, execute(cmd, "export-csv", file), calibration.ErrFileExists)

	cmd, _ = newTestCommand(t, testConfig(csvDir), Deps{})
	require.NoError(t, execute(cmd, "export-csv", file, "--overwrite"))
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cals *calibration.Calibrations)
		wantErr string
	}{
		{
			name: "plain value",
			args: []string{"-p", "σ", "-s", "x", "-q", "3", "--value", "48.0", "--exp-id", "exp-7"},
			check: func(t *testing.T, cals *calibration.Calibrations) {
				t.Helper()
				record, err := cals.GetParameterValueRecord("σ", calibration.Q(3), "x")
				require.NoError(t, err)
				assert.True(t, record.Value.Equals(pulse.Float(48)))
				assert.Equal(t, "exp-7", record.ExpID)
			},
		},
		{
			name: "negative amplitude",
			args: []string{"--kind", "amplitude", "-p", "amp", "-s", "x", "-q", "3", "--value", "-0.3"},
			check: func(t *testing.T, cals *calibration.Calibrations) {
				t.Helper()
				amp, err := cals.GetParameterValue("amp", calibration.Q(3), "x")
				require.NoError(t, err)
				assert.InDelta(t, 0.3, amp.Float64(), 1e-12)
				angle, err := cals.GetParameterValue("angle", calibration.Q(3), "x")
				require.NoError(t, err)
				assert.InDelta(t, math.Pi, angle.Float64(), 1e-12)
			},
		},
		{
			name: "frequency",
			args: []string{"--kind", "frequency", "-q", "3", "--value", "5.01e9"},
			check: func(t *testing.T, cals *calibration.Calibrations) {
				t.Helper()
				v, err := cals.GetParameterValue("drive_freq", calibration.Q(3), "")
				require.NoError(t, err)
				assert.True(t, v.Equals(pulse.Float(5.01e9)))
			},
		},
		{
			name: "drag beta in another group",
			args: []string{"--kind", "drag-beta", "-s", "x", "-q", "3", "--value", "-1.5", "-g", "tuned"},
			check: func(t *testing.T, cals *calibration.Calibrations) {
				t.Helper()
				v, err := cals.GetParameterValue("β", calibration.Q(3), "x", calibration.WithGroup("tuned"))
				require.NoError(t, err)
				assert.True(t, v.Equals(pulse.Float(-1.5)))
			},
		},
		{
			name:    "complex beta",
			args:    []string{"--kind", "drag-beta", "-s", "x", "--value", "1+1j"},
			wantErr: "must be real",
		},
		{
			name:    "unregistered parameter",
			args:    []string{"-p", "width", "-s", "x", "--value", "10"},
			wantErr: "not registered",
		},
		{
			name:    "missing parameter",
			args:    []string{"--value", "10"},
			wantErr: "--parameter is required",
		},
		{
			name:    "unknown kind",
			args:    []string{"--kind", "phase", "--value", "10"},
			wantErr: `unsupported --kind "phase"`,
		},
		{
			name:    "invalid value",
			args:    []string{"-p", "amp", "--value", "abc"},
			wantErr: "invalid --value",
		},
		{
			name:    "missing value",
			args:    []string{"-p", "amp"},
			wantErr: `required flag(s) "value" not set`,
		},
		{
			name:    "several qubits",
			args:    []string{"-p", "amp", "-q", "1", "-q", "2", "--value", "1"},
			wantErr: "--qubits can only be given once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			file := writeDocument(t, dir, "dev_", newTestCalibrations(t))

			cmd, out := newTestCommand(t, testConfig(dir), Deps{})
			err := execute(cmd, append([]string{"update", file}, tt.args...)...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), "✅")

			cals, err := calibration.Load(file)
			require.NoError(t, err)
			tt.check(t, cals)
		})
	}
}

func TestUpdate_FileName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeDocument(t, dir, "", newTestCalibrations(t))
	renamed := filepath.Join(dir, "cals.json")
	require.NoError(t, os.Rename(file, renamed))

	cmd, _ := newTestCommand(t, testConfig(dir), Deps{})
	err := execute(cmd, "update", renamed, "-p", "amp", "-s", "x", "--value", "0.4")
	require.ErrorContains(t, err, "file name must end with calibrations.json")
}

func TestConfigLoadError(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("config not found")
	cmd, _ := newTestCommand(t, nil, Deps{
		ConfigLoader: func(path string) (*config.Config, error) {
			assert.Equal(t, "custom.yaml", path)
			return nil, loadErr
		},
	})

	err := execute(cmd, "sync", "snapshots", "--config", "custom.yaml")
	require.ErrorIs(t, err, loadErr)
	assert.ErrorContains(t, err, "failed to load config")
}
