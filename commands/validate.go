package commands

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
)

var (
	validateShort = "Check that calibration files can be loaded"

	validateLong = text.LongDesc(`
		Loads every given calibration file and reports its content. Loading checks the schema
		version, decodes every schedule template and verifies that every value belongs to a
		registered parameter.

		With --resolve, every default template is also resolved for the qubits of the stored
		values, which reports parameters that have no value.
	`)

	validateExample = text.Examples(`
		# Check two files
		calctl validate a/calibrations.json b/calibrations.json
	`)
)

// newValidateCmd creates the "validate" command.
func newValidateCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate <file>...",
		Short:   validateShort,
		Long:    validateLong,
		Example: validateExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, cfg, args, flags.MustBool(cmd.Flags().GetBool("resolve")))
		},
	}

	cmd.Flags().Bool("resolve", false, "Resolve every template for the qubits that have values")

	return cmd
}

func runValidate(cmd *cobra.Command, cfg Config, files []string, resolve bool) error {
	var (
		errs   []error
		failed int
	)
	for _, file := range files {
		cals, err := loadCalibrations(cfg, file)
		if err != nil {
			cmd.Printf("❌ %s: %v\n", file, err)
			errs = append(errs, err)
			failed++

			continue
		}

		templates, err := cals.Templates().Fetch()
		if err != nil {
			return err
		}
		values, err := cals.ParameterValues().Fetch()
		if err != nil {
			return err
		}
		backend := cals.Backend()

		if resolve {
			if rerrs := resolveAll(cals, templates, values); len(rerrs) > 0 {
				for _, rerr := range rerrs {
					cmd.Printf("❌ %s: %v\n", file, rerr)
				}
				errs = append(errs, rerrs...)
				failed++

				continue
			}
		}

		cmd.Printf("✅ %s: backend %s %s, %d schedules, %d registered parameters, %d values\n",
			file, backend.Name, backend.Version, len(templates), len(cals.RegisteredParameters()), len(values))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d files failed validation: %w", failed, len(files), errors.Join(errs...))
	}

	return nil
}

// resolveAll resolves every template for every qubit tuple that has a value of that template.
func resolveAll(
	cals *calibration.Calibrations, templates []calibration.ScheduleTemplate, values []calibration.ParameterValue,
) []error {
	var errs []error
	for _, t := range templates {
		var tried []calibration.Qubits
		for _, v := range values {
			if v.Schedule != t.Name() || len(v.Qubits) != t.NumQubits {
				continue
			}
			if !t.Qubits.IsDefault() && !t.Qubits.Equals(v.Qubits) {
				continue
			}
			if slices.ContainsFunc(tried, v.Qubits.Equals) {
				continue
			}
			tried = append(tried, v.Qubits)

			if _, err := cals.GetSchedule(t.Name(), v.Qubits, nil); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errs
}
