package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
	"github.com/qexp/calstore/config"
)

var (
	syncShort = "Sync calibration files with the SQL catalog"

	syncLong = text.LongDesc(`
		Commands for sharing calibrations through the SQL catalog configured in the catalog
		section of the calctl config.

		The catalog holds the calibrations of the last push and a history of snapshots.
	`)

	syncPushExample = text.Examples(`
		# Push a file to the catalog
		calctl sync push calibrations.json

		# Push to a postgres catalog given by env vars
		CALCTL_CATALOG_DRIVER=postgres CALCTL_CATALOG_DSN=postgres://... calctl sync push calibrations.json
	`)

	syncPullExample = text.Examples(`
		# Pull the catalog into ./pulled/calibrations.json
		calctl sync pull ./pulled
	`)
)

// newSyncCmd creates the "sync" command group.
func newSyncCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: syncShort,
		Long:  syncLong,
	}

	cmd.AddCommand(newSyncPushCmd(cfg))
	cmd.AddCommand(newSyncPullCmd(cfg))
	cmd.AddCommand(newSyncSnapshotsCmd(cfg))

	return cmd
}

func newSyncPushCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:     "push <file>",
		Short:   "Push a calibration file to the catalog",
		Example: syncPushExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, cfg, func(catalog Catalog, _ *config.Config) error {
				cals, err := loadCalibrations(cfg, args[0])
				if err != nil {
					return err
				}

				id, err := catalog.Push(cmd.Context(), cals.Seal())
				if err != nil {
					return err
				}
				cmd.Printf("✅ Pushed %s to the catalog as snapshot %s\n", args[0], id)

				return nil
			})
		},
	}
}

func newSyncPullCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pull [folder]",
		Short:   "Pull the catalog into a calibration file",
		Example: syncPullExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, cfg, func(catalog Catalog, toolCfg *config.Config) error {
				opts := calibration.SaveOptions{
					Folder:         toolCfg.Store.Folder,
					FilePrefix:     toolCfg.Store.FilePrefix,
					Overwrite:      toolCfg.Store.Overwrite,
					MostRecentOnly: toolCfg.Store.MostRecentOnly,
					Logger:         cfg.Logger,
				}
				if len(args) == 1 {
					opts.Folder = args[0]
				}
				if cmd.Flags().Changed("overwrite") {
					opts.Overwrite = flags.MustBool(cmd.Flags().GetBool("overwrite"))
				}

				cals, err := catalog.Pull(cmd.Context(), calibration.WithLogger(cfg.Logger))
				if err != nil {
					return err
				}
				path, err := calibration.Save(cals.Seal(), opts)
				if err != nil {
					return fmt.Errorf("failed to save pulled calibrations: %w", err)
				}
				cmd.Printf("✅ Pulled the catalog into %s\n", path)

				return nil
			})
		},
	}

	cmd.Flags().Bool("overwrite", false, "Replace an existing file")

	return cmd
}

func newSyncSnapshotsCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List the snapshots recorded by push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, cfg, func(catalog Catalog, _ *config.Config) error {
				snapshots, err := catalog.Snapshots(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(snapshots))
				for _, s := range snapshots {
					rows = append(rows, []string{
						s.ID,
						s.CreatedAt.UTC().Format(time.RFC3339),
						s.BackendName,
						s.BackendVersion,
						s.SchemaVersion,
						strconv.Itoa(s.NumSchedules),
						strconv.Itoa(s.NumParameters),
					})
				}
				writeTable(cmd.OutOrStdout(),
					[]string{"ID", "CREATED_AT", "BACKEND", "VERSION", "SCHEMA", "SCHEDULES", "PARAMETERS"}, rows)

				return nil
			})
		},
	}
}

// withCatalog opens the configured catalog, runs fn and closes the catalog.
func withCatalog(cmd *cobra.Command, cfg Config, fn func(Catalog, *config.Config) error) (err error) {
	toolCfg, err := loadConfig(cmd, cfg)
	if err != nil {
		return err
	}

	catalog, err := cfg.deps().CatalogOpener(cmd.Context(), toolCfg.Catalog, cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		err = errors.Join(err, catalog.Close())
	}()

	return fn(catalog, toolCfg)
}
