package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
)

var (
	mergeShort = "Merge calibration files"

	mergeLong = text.LongDesc(`
		Loads calibration files in order and merges them into one document saved in the output
		folder. Templates of later files replace templates with the same name and qubits, values
		are appended and the backend of the first file that has one is kept.

		The file prefix, overwrite and most-recent settings default to the store section of the
		calctl config.
	`)

	mergeExample = text.Examples(`
		# Merge two runs into ./merged/calibrations.json
		calctl merge ./merged run1/calibrations.json run2/calibrations.json

		# Keep only the latest value of every parameter
		calctl merge ./merged run1/calibrations.json run2/calibrations.json --most-recent --overwrite
	`)
)

type mergeFlags struct {
	folder     string
	files      []string
	prefix     string
	overwrite  bool
	mostRecent bool
}

// newMergeCmd creates the "merge" command.
func newMergeCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "merge <folder> <file>...",
		Short:   mergeShort,
		Long:    mergeLong,
		Example: mergeExample,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolCfg, err := loadConfig(cmd, cfg)
			if err != nil {
				return err
			}

			f := mergeFlags{
				folder:     args[0],
				files:      args[1:],
				prefix:     toolCfg.Store.FilePrefix,
				overwrite:  toolCfg.Store.Overwrite,
				mostRecent: toolCfg.Store.MostRecentOnly,
			}
			if cmd.Flags().Changed("prefix") {
				f.prefix = flags.MustString(cmd.Flags().GetString("prefix"))
			}
			if cmd.Flags().Changed("overwrite") {
				f.overwrite = flags.MustBool(cmd.Flags().GetBool("overwrite"))
			}
			if cmd.Flags().Changed("most-recent") {
				f.mostRecent = flags.MustBool(cmd.Flags().GetBool("most-recent"))
			}

			return runMerge(cmd, cfg, f)
		},
	}

	cmd.Flags().String("prefix", "", "Prefix of the merged file name")
	cmd.Flags().Bool("overwrite", false, "Replace an existing merged file")
	cmd.Flags().Bool("most-recent", false, "Only keep the latest value of every parameter")

	return cmd
}

func runMerge(cmd *cobra.Command, cfg Config, f mergeFlags) error {
	merged, err := loadCalibrations(cfg, f.files[0])
	if err != nil {
		return err
	}

	for _, file := range f.files[1:] {
		cals, err := loadCalibrations(cfg, file)
		if err != nil {
			return err
		}
		if err = merged.Merge(cals.Seal()); err != nil {
			return fmt.Errorf("failed to merge %s: %w", file, err)
		}
	}

	path, err := calibration.Save(merged.Seal(), calibration.SaveOptions{
		Folder:         f.folder,
		FilePrefix:     f.prefix,
		Overwrite:      f.overwrite,
		MostRecentOnly: f.mostRecent,
		Logger:         cfg.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to save merged calibrations: %w", err)
	}

	cmd.Printf("✅ Merged %d files into %s\n", len(f.files), path)

	return nil
}
