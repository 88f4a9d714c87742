package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qexp/calstore/calibration"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	Format(cmd)

	f := cmd.Flags().Lookup("output")
	require.NotNil(t, f)
	assert.Equal(t, "o", f.Shorthand)
	assert.Equal(t, OutputTable, f.DefValue)

	require.NoError(t, cmd.Flags().Set("output", "yaml"))
	assert.Equal(t, "yaml", MustString(cmd.Flags().GetString("output")))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"table", "json", "yaml", "toml"} {
		require.NoError(t, ValidateFormat(f))
	}
	require.EqualError(t, ValidateFormat("xml"),
		`unsupported output format "xml", expected one of table, json, yaml, toml`)
}

func TestGetQubits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    []calibration.Qubits
		wantErr string
	}{
		{
			name: "not set",
			want: []calibration.Qubits{},
		},
		{
			name: "repeated",
			args: []string{"-q", "0", "--qubits", "(0, 1)", "-q", "2,3"},
			want: []calibration.Qubits{calibration.Q(0), calibration.Q(0, 1), calibration.Q(2, 3)},
		},
		{
			name:    "invalid",
			args:    []string{"-q", "a"},
			wantErr: "invalid --qubits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := &cobra.Command{Use: "test"}
			Qubits(cmd, "qubits")
			require.NoError(t, cmd.ParseFlags(tt.args))

			got, err := GetQubits(cmd.Flags())
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroup(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	Group(cmd, calibration.DefaultGroup, "Calibration group")

	f := cmd.Flags().Lookup("group")
	require.NotNil(t, f)
	assert.Equal(t, "g", f.Shorthand)
	assert.Equal(t, calibration.DefaultGroup, f.DefValue)
}

func TestMust(t *testing.T) {
	t.Parallel()

	assert.True(t, MustBool(true, nil))
	assert.Equal(t, []string{"a"}, MustStringSlice([]string{"a"}, nil))
}
