// Package commands provides the command tree of the calctl tool.
//
// The tree is built from a Config, whose Deps can be replaced in tests:
//
//	cmd, err := commands.NewCommand(commands.Config{
//	    Logger: lggr,
//	    Deps:   commands.Deps{CatalogOpener: openFakeCatalog},
//	})
//	if err != nil {
//	    return err
//	}
//	return cmd.ExecuteContext(ctx)
package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
	"github.com/qexp/calstore/config"
	"github.com/qexp/calstore/pkg/logger"
)

// DefaultConfigPath is the config file read when --config is not given.
const DefaultConfigPath = "calctl.yaml"

var (
	rootShort = "Inspect and maintain saved pulse calibrations"

	rootLong = text.LongDesc(`
		calctl reads and writes the calibration documents saved by the calibration package.

		A document holds the schedule templates of a backend, the registered parameters and
		every calibrated value with its timestamp, group and validity. Documents can be shown,
		queried, merged, updated and synced with a shared SQL catalog.
	`)
)

// Config holds the configuration of the calctl commands.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	var missing []string

	if c.Logger == nil {
		missing = append(missing, "Logger")
	}

	if len(missing) > 0 {
		return errors.New("commands.Config: missing required fields: " + strings.Join(missing, ", "))
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates the calctl root command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	cmd := &cobra.Command{
		Use:           "calctl",
		Short:         rootShort,
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", DefaultConfigPath, "Path of the calctl config file")

	cmd.AddCommand(newShowCmd(cfg))
	cmd.AddCommand(newSchedulesCmd(cfg))
	cmd.AddCommand(newMergeCmd(cfg))
	cmd.AddCommand(newValidateCmd(cfg))
	cmd.AddCommand(newQueryCmd(cfg))
	cmd.AddCommand(newExportCSVCmd(cfg))
	cmd.AddCommand(newUpdateCmd(cfg))
	cmd.AddCommand(newSyncCmd(cfg))

	return cmd, nil
}

// loadConfig loads the tool configuration named by the --config flag.
func loadConfig(cmd *cobra.Command, cfg Config) (*config.Config, error) {
	path := flags.MustString(cmd.Flags().GetString("config"))

	toolCfg, err := cfg.deps().ConfigLoader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return toolCfg, nil
}

// loadCalibrations loads the calibration document at path.
func loadCalibrations(cfg Config, path string) (*calibration.Calibrations, error) {
	cals, err := cfg.deps().CalibrationsLoader(path, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load calibrations: %w", err)
	}

	return cals, nil
}
