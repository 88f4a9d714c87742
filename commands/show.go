package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
)

var (
	showShort = "Show the parameter values of a calibration file"

	showLong = text.LongDesc(`
		Prints the parameter values stored in a calibration file, in insertion order.

		Rows can be narrowed by parameter, qubits, schedule and group. Use "" as schedule to
		select parameters shared by all schedules.
	`)

	showExample = text.Examples(`
		# Show every value
		calctl show calibrations.json

		# Show the latest amplitude of the x gate on qubit 3 as yaml
		calctl show calibrations.json -p amp -s x -q 3 --most-recent -o yaml
	`)
)

type showFlags struct {
	file       string
	parameters []string
	schedules  []string
	qubits     []calibration.Qubits
	group      string
	mostRecent bool
	output     string
}

// newShowCmd creates the "show" command printing the parameters table.
func newShowCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <file>",
		Short:   showShort,
		Long:    showLong,
		Example: showExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qubits, err := flags.GetQubits(cmd.Flags())
			if err != nil {
				return err
			}
			f := showFlags{
				file:       args[0],
				parameters: flags.MustStringSlice(cmd.Flags().GetStringArray("parameter")),
				schedules:  flags.MustStringSlice(cmd.Flags().GetStringArray("schedule")),
				qubits:     qubits,
				group:      flags.MustString(cmd.Flags().GetString("group")),
				mostRecent: flags.MustBool(cmd.Flags().GetBool("most-recent")),
				output:     flags.MustString(cmd.Flags().GetString("output")),
			}

			return runShow(cmd, cfg, f)
		},
	}

	flags.Format(cmd)
	flags.Qubits(cmd, "Only show values for these qubits (repeatable)")
	flags.Group(cmd, "", "Only show values of this calibration group")
	cmd.Flags().StringArrayP("parameter", "p", nil, "Only show these parameters (repeatable)")
	cmd.Flags().StringArrayP("schedule", "s", nil, "Only show parameters of these schedules (repeatable)")
	cmd.Flags().Bool("most-recent", false, "Only show the latest value of every parameter")

	return cmd
}

func runShow(cmd *cobra.Command, cfg Config, f showFlags) error {
	if err := flags.ValidateFormat(f.output); err != nil {
		return err
	}

	cals, err := loadCalibrations(cfg, f.file)
	if err != nil {
		return err
	}

	var opts []calibration.TableOption
	if len(f.parameters) > 0 {
		opts = append(opts, calibration.TableParameters(f.parameters...))
	}
	if len(f.schedules) > 0 {
		opts = append(opts, calibration.TableSchedules(f.schedules...))
	}
	if len(f.qubits) > 0 {
		opts = append(opts, calibration.TableQubits(f.qubits...))
	}
	if f.group != "" {
		opts = append(opts, calibration.TableGroup(f.group))
	}
	if f.mostRecent {
		opts = append(opts, calibration.TableMostRecentOnly())
	}

	rows := calibration.ParametersTable(cals.Seal(), opts...)

	if f.output == flags.OutputTable {
		writeTable(cmd.OutOrStdout(), parameterHeader, parameterRowsTable(rows))
		cmd.Printf("%d parameter values\n", len(rows))

		return nil
	}

	if err := encode(cmd.OutOrStdout(), f.output, "parameters", rows); err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	return nil
}
