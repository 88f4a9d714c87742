// Package flags provides reusable flag helpers for calctl commands.
//
// Only flags shared by several commands belong here. Command-specific flags are defined in the
// command file.
package flags

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/qexp/calstore/calibration"
)

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
// Safe to use with registered flags where GetBool cannot fail.
func MustBool(b bool, _ error) bool { return b }

// MustStringSlice returns the slice value, ignoring the error.
func MustStringSlice(s []string, _ error) []string { return s }

// Output formats understood by Format.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
	OutputTOML  = "toml"
)

var outputFormats = []string{OutputTable, OutputJSON, OutputYAML, OutputTOML}

// Format adds the --output/-o flag selecting how results are printed.
// Retrieve the value with cmd.Flags().GetString("output") and check it with ValidateFormat.
func Format(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", OutputTable,
		"Output format, one of "+strings.Join(outputFormats, "|"))
}

// ValidateFormat returns an error for output formats other than the ones added by Format.
func ValidateFormat(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("unsupported output format %q, expected one of %s",
			format, strings.Join(outputFormats, ", "))
	}

	return nil
}

// Qubits adds the repeatable --qubits/-q flag. Values are qubit tuples such as "0", "0,1" or
// "(0, 1)".
func Qubits(cmd *cobra.Command, usage string) {
	cmd.Flags().StringArrayP("qubits", "q", nil, usage)
}

// GetQubits parses the values of the --qubits flag.
func GetQubits(fs *pflag.FlagSet) ([]calibration.Qubits, error) {
	raw, err := fs.GetStringArray("qubits")
	if err != nil {
		return nil, err
	}

	out := make([]calibration.Qubits, 0, len(raw))
	for _, r := range raw {
		q, err := calibration.ParseQubits(r)
		if err != nil {
			return nil, fmt.Errorf("invalid --qubits: %w", err)
		}
		out = append(out, q)
	}

	return out, nil
}

// Group adds the --group/-g flag for the calibration group.
func Group(cmd *cobra.Command, defaultValue, usage string) {
	cmd.Flags().StringP("group", "g", defaultValue, usage)
}
