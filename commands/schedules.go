package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
)

var (
	schedulesShort = "List the schedule templates of a calibration file"

	schedulesLong = text.LongDesc(`
		Lists the schedule templates stored in a calibration file with their qubits, free
		parameters and references.

		--dump prints the instructions of every template instead. The dump is meant for
		reading only and cannot be loaded back.
	`)

	schedulesExample = text.Examples(`
		# List templates
		calctl schedules calibrations.json

		# Print the instructions of every template
		calctl schedules calibrations.json --dump
	`)
)

// newSchedulesCmd creates the "schedules" command.
func newSchedulesCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedules <file>",
		Short:   schedulesShort,
		Long:    schedulesLong,
		Example: schedulesExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedules(cmd, cfg, args[0],
				flags.MustBool(cmd.Flags().GetBool("dump")),
				flags.MustString(cmd.Flags().GetString("output")),
			)
		},
	}

	flags.Format(cmd)
	cmd.Flags().Bool("dump", false, "Print the instructions of every template")

	return cmd
}

func runSchedules(cmd *cobra.Command, cfg Config, file string, dump bool, output string) error {
	if err := flags.ValidateFormat(output); err != nil {
		return err
	}

	cals, err := loadCalibrations(cfg, file)
	if err != nil {
		return err
	}

	if dump {
		//nolint:staticcheck // the dump is the purpose of the flag
		info, err := calibration.ScheduleInformation(cals.Seal())
		if err != nil {
			return fmt.Errorf("failed to dump schedules: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), info)

		return err
	}

	templates, err := cals.Templates().Fetch()
	if err != nil {
		return err
	}
	rows := scheduleRows(templates)

	if output == flags.OutputTable {
		writeTable(cmd.OutOrStdout(), scheduleHeader, scheduleRowsTable(rows))

		return nil
	}

	return encode(cmd.OutOrStdout(), output, "schedules", rows)
}
