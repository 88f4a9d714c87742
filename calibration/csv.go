package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/qexp/calstore/pkg/logger"
)

// CSVFileName is the name of the file written by ExportCSV, after the optional prefix.
const CSVFileName = "parameter_values.csv"

var csvHeader = []string{"parameter", "qubits", "schedule", "value", "group", "valid", "date_time", "exp_id"}

// ExportCSV writes the parameter values of store to <folder>/<prefix>parameter_values.csv and
// returns the path written. Schedule templates and registrations are not exported. An existing
// file is only replaced with overwrite, otherwise ErrFileExists is returned.
//
// Deprecated: the file cannot be loaded back. Use Save, which writes a lossless document.
func ExportCSV(
	store CalibrationStore, folder, prefix string, overwrite bool, lggr logger.Logger,
) (path string, err error) {
	if lggr == nil {
		lggr = logger.Nop()
	}
	lggr.Warnw("CSV export is deprecated and cannot be loaded back, save the calibrations as JSON instead",
		"folder", folder)

	values, err := store.ParameterValues().Fetch()
	if err != nil {
		return "", err
	}

	path = filepath.Join(folder, prefix+CSVFileName)
	f, err := createFile(path, overwrite)
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	w := csv.NewWriter(f)
	if err = w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, v := range values {
		err = w.Write([]string{
			v.Parameter,
			v.Qubits.String(),
			v.Schedule,
			v.Value.String(),
			v.Group,
			strconv.FormatBool(v.Valid),
			v.DateTime.UTC().Format(dateTimeLayout),
			v.ExpID,
		})
		if err != nil {
			return "", err
		}
	}
	w.Flush()

	return path, w.Error()
}

// createFile opens path for writing, creating missing parent folders. Without overwrite an
// existing file is left untouched and ErrFileExists is returned.
func createFile(path string, overwrite bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create folder for %s: %w", path, err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0600)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileExists, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return f, nil
}
