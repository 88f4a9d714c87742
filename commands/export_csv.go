package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
)

var (
	exportCSVShort = "Export parameter values to CSV (deprecated)"

	exportCSVLong = text.LongDesc(`
		Writes the parameter values of a calibration file to parameter_values.csv in the given
		folder, which defaults to the store folder of the calctl config.

		CSV files hold neither templates nor registrations and cannot be loaded back. Prefer
		the JSON document, or "calctl show -o json" for other tools.
	`)
)

// newExportCSVCmd creates the deprecated "export-csv" command.
func newExportCSVCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:        "export-csv <file> [folder]",
		Short:      exportCSVShort,
		Long:       exportCSVLong,
		Args:       cobra.RangeArgs(1, 2),
		Deprecated: "CSV files cannot be loaded back, use the JSON document instead",
		RunE: func(cmd *cobra.Command, args []string) error {
			toolCfg, err := loadConfig(cmd, cfg)
			if err != nil {
				return err
			}

			folder := toolCfg.Store.Folder
			if len(args) == 2 {
				folder = args[1]
			}
			prefix := toolCfg.Store.FilePrefix
			if cmd.Flags().Changed("prefix") {
				prefix = flags.MustString(cmd.Flags().GetString("prefix"))
			}
			overwrite := toolCfg.Store.Overwrite
			if cmd.Flags().Changed("overwrite") {
				overwrite = flags.MustBool(cmd.Flags().GetBool("overwrite"))
			}

			return runExportCSV(cmd, cfg, args[0], folder, prefix, overwrite)
		},
	}

	cmd.Flags().String("prefix", "", "Prefix of the CSV file name")
	cmd.Flags().Bool("overwrite", false, "Replace an existing CSV file")

	return cmd
}

func runExportCSV(cmd *cobra.Command, cfg Config, file, folder, prefix string, overwrite bool) error {
	cals, err := loadCalibrations(cfg, file)
	if err != nil {
		return err
	}

	//nolint:staticcheck // this command is the deprecated export path
	path, err := calibration.ExportCSV(cals.Seal(), folder, prefix, overwrite, cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to export CSV: %w", err)
	}

	cmd.Printf("✅ Exported parameter values to %s\n", path)

	return nil
}
