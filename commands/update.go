package commands

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/calibration/updater"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
	"github.com/qexp/calstore/pulse"
)

// Kinds of update understood by the update command.
const (
	updateValue     = "value"
	updateAmplitude = "amplitude"
	updateDragBeta  = "drag-beta"
	updateFrequency = "frequency"
)

var updateKinds = []string{updateValue, updateAmplitude, updateDragBeta, updateFrequency}

var (
	updateShort = "Add a calibrated value to a calibration file"

	updateLong = text.LongDesc(`
		Adds a new valid value to a calibration file and saves it in place.

		Kinds:
		  value      stores --value for --parameter as is
		  amplitude  stores the amplitude --parameter of the pulse of --schedule as a
		             magnitude and an angle; negative and complex values are converted
		  drag-beta  stores a real DRAG coefficient, --parameter defaults to β
		  frequency  stores a positive frequency, --parameter defaults to drive_freq

		Values are integers (160), reals (0.25, 4.9e9) or complex numbers (0.1-0.2j).
	`)

	updateExample = text.Examples(`
		# Store a new pi pulse amplitude for qubit 3
		calctl update calibrations.json --kind amplitude -p amp -s x -q 3 --value -0.21

		# Store a qubit frequency
		calctl update calibrations.json --kind frequency -q 3 --value 4.971e9
	`)
)

type updateFlags struct {
	file      string
	kind      string
	parameter string
	schedule  string
	qubits    calibration.Qubits
	value     pulse.Value
	group     string
	expID     string
}

// newUpdateCmd creates the "update" command.
func newUpdateCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update <file>",
		Short:   updateShort,
		Long:    updateLong,
		Example: updateExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qubits, err := flags.GetQubits(cmd.Flags())
			if err != nil {
				return err
			}
			if len(qubits) > 1 {
				return fmt.Errorf("--qubits can only be given once, got %d", len(qubits))
			}
			value, err := pulse.ParseValue(flags.MustString(cmd.Flags().GetString("value")))
			if err != nil {
				return fmt.Errorf("invalid --value: %w", err)
			}

			f := updateFlags{
				file:      args[0],
				kind:      flags.MustString(cmd.Flags().GetString("kind")),
				parameter: flags.MustString(cmd.Flags().GetString("parameter")),
				schedule:  flags.MustString(cmd.Flags().GetString("schedule")),
				value:     value,
				group:     flags.MustString(cmd.Flags().GetString("group")),
				expID:     flags.MustString(cmd.Flags().GetString("exp-id")),
			}
			if len(qubits) == 1 {
				f.qubits = qubits[0]
			}

			return runUpdate(cmd, cfg, f)
		},
	}

	flags.Qubits(cmd, "Qubits the value applies to, omit for the default value")
	flags.Group(cmd, calibration.DefaultGroup, "Calibration group of the value")
	cmd.Flags().String("kind", updateValue, "Kind of update, one of "+strings.Join(updateKinds, "|"))
	cmd.Flags().StringP("parameter", "p", "", "Parameter name")
	cmd.Flags().StringP("schedule", "s", "", "Schedule of the parameter, empty for shared parameters")
	cmd.Flags().String("value", "", "New value (required)")
	cmd.Flags().String("exp-id", "", "Experiment id recorded with the value, defaults to a random UUID")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func runUpdate(cmd *cobra.Command, cfg Config, f updateFlags) error {
	if !slices.Contains(updateKinds, f.kind) {
		return fmt.Errorf("unsupported --kind %q, expected one of %s", f.kind, strings.Join(updateKinds, ", "))
	}
	folder, prefix, err := splitDocumentPath(f.file)
	if err != nil {
		return err
	}

	cals, err := loadCalibrations(cfg, f.file)
	if err != nil {
		return err
	}

	req := updater.Request{
		Parameter: f.parameter,
		Schedule:  f.schedule,
		Qubits:    f.qubits,
		Value:     f.value,
		Group:     f.group,
		ExpID:     f.expID,
	}

	var stored []calibration.ParameterValue
	switch f.kind {
	case updateAmplitude:
		stored, err = updater.UpdateAmplitude(cals, updater.AmplitudeRequest{
			Schedule:     f.schedule,
			Qubits:       f.qubits,
			AmpParameter: f.parameter,
			Amp:          f.value,
			Group:        f.group,
			ExpID:        f.expID,
		})
	case updateDragBeta:
		var v calibration.ParameterValue
		v, err = updater.UpdateDragBeta(cals, req)
		stored = []calibration.ParameterValue{v}
	case updateFrequency:
		var v calibration.ParameterValue
		v, err = updater.UpdateFrequency(cals, req)
		stored = []calibration.ParameterValue{v}
	default:
		if f.parameter == "" {
			return fmt.Errorf("--parameter is required for --kind %s", updateValue)
		}
		var v calibration.ParameterValue
		v, err = updater.Update(cals, req)
		stored = []calibration.ParameterValue{v}
	}
	if err != nil {
		return err
	}

	if _, err = calibration.Save(cals.Seal(), calibration.SaveOptions{
		Folder:     folder,
		FilePrefix: prefix,
		Overwrite:  true,
		Logger:     cfg.Logger,
	}); err != nil {
		return fmt.Errorf("failed to save calibrations: %w", err)
	}

	for _, v := range stored {
		cmd.Printf("✅ %s %s %s = %s (exp %s)\n", v.Parameter, v.Qubits, v.Schedule, v.Value, v.ExpID)
	}

	return nil
}

// splitDocumentPath splits the path of a saved document into the folder and file prefix that
// Save writes it to.
func splitDocumentPath(path string) (folder, prefix string, err error) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, calibration.FileName) {
		return "", "", fmt.Errorf("%s: file name must end with %s to be saved in place", path, calibration.FileName)
	}

	return filepath.Dir(path), strings.TrimSuffix(base, calibration.FileName), nil
}
