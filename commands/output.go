package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/qexp/calstore/calibration"
	"github.com/qexp/calstore/commands/flags"
)

// writeTable renders rows with a header and no side borders.
func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorders(tablewriter.Border{
		Left:   false,
		Right:  false,
		Top:    true,
		Bottom: true,
	})
	table.AppendBulk(rows)
	table.Render()
}

// encode writes v to w in one of the structured output formats. TOML documents need a table at
// the top level, so v is wrapped under key for that format.
func encode(w io.Writer, format, key string, v any) error {
	switch format {
	case flags.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case flags.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	case flags.OutputTOML:
		return toml.NewEncoder(w).Encode(map[string]any{key: v})
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func parameterRowsTable(rows []calibration.ParameterRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Parameter,
			r.Qubits.String(),
			r.Schedule,
			r.Value,
			r.Group,
			strconv.FormatBool(r.Valid),
			r.DateTime.UTC().Format(time.RFC3339),
			r.ExpID,
		})
	}

	return out
}

var parameterHeader = []string{"PARAMETER", "QUBITS", "SCHEDULE", "VALUE", "GROUP", "VALID", "DATE_TIME", "EXP_ID"}

// scheduleRow is the printed form of a schedule template.
type scheduleRow struct {
	Name       string             `json:"name" yaml:"name" toml:"name"`
	Qubits     calibration.Qubits `json:"qubits" yaml:"qubits" toml:"qubits"`
	NumQubits  int                `json:"num_qubits" yaml:"num_qubits" toml:"num_qubits"`
	Parameters []string           `json:"parameters" yaml:"parameters" toml:"parameters"`
	References []string           `json:"references" yaml:"references" toml:"references"`
}

func scheduleRows(templates []calibration.ScheduleTemplate) []scheduleRow {
	out := make([]scheduleRow, 0, len(templates))
	for _, t := range templates {
		refs := t.Schedule.References()
		if refs == nil {
			refs = []string{}
		}
		out = append(out, scheduleRow{
			Name:       t.Name(),
			Qubits:     t.Qubits,
			NumQubits:  t.NumQubits,
			Parameters: t.Schedule.FreeParameters(),
			References: refs,
		})
	}

	return out
}

func scheduleRowsTable(rows []scheduleRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Name,
			r.Qubits.String(),
			strconv.Itoa(r.NumQubits),
			strings.Join(r.Parameters, ", "),
			strings.Join(r.References, ", "),
		})
	}

	return out
}

var scheduleHeader = []string{"NAME", "QUBITS", "NUM_QUBITS", "PARAMETERS", "REFERENCES"}
