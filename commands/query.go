package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
	"github.com/qexp/calstore/commands/text"
)

var (
	queryShort = "Run a jq query over a calibration file"

	queryLong = text.LongDesc(`
		Loads a calibration file and runs a jq expression over its JSON document. Every result
		is printed as one JSON value.

		The document is the one written by the calibration package, with the keys
		schema_version, backend_name, backend_version, device_coupling_graph,
		control_channel_map, schedules, parameters and registered_parameters.
	`)

	queryExample = text.Examples(`
		# Latest amplitude values of the x gate
		calctl query calibrations.json '.parameters[] | select(.param_name == "amp" and .schedule == "x")' --most-recent

		# Names of all templates
		calctl query calibrations.json '[.schedules[].name] | unique'
	`)
)

// newQueryCmd creates the "query" command.
func newQueryCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query <file> <expression>",
		Short:   queryShort,
		Long:    queryLong,
		Example: queryExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, cfg, args[0], args[1],
				flags.MustBool(cmd.Flags().GetBool("most-recent")),
				flags.MustBool(cmd.Flags().GetBool("compact")),
			)
		},
	}

	cmd.Flags().Bool("most-recent", false, "Only keep the latest value of every parameter")
	cmd.Flags().BoolP("compact", "c", false, "Print every result on a single line")

	return cmd
}

func runQuery(cmd *cobra.Command, cfg Config, file, expr string, mostRecent, compact bool) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	cals, err := loadCalibrations(cfg, file)
	if err != nil {
		return err
	}
	doc, err := documentOf(cals, mostRecent)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !compact {
		enc.SetIndent("", "  ")
	}

	iter := code.RunWithContext(cmd.Context(), doc)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}

			return fmt.Errorf("query failed: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

// documentOf returns the saved document of cals as plain JSON values.
func documentOf(cals *calibration.Calibrations, mostRecent bool) (any, error) {
	model, err := calibration.ToModel(cals.Seal(), mostRecent)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}
