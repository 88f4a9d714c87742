package calibration

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qexp/calstore/internal/jsonutils"
	"github.com/qexp/calstore/pkg/logger"
)

// FileName is the name of the calibration document, after the optional prefix.
const FileName = "calibrations.json"

// Format selects the file format written by Save.
type Format string

const (
	FormatJSON Format = "json"
	// FormatCSV writes the parameter values only.
	//
	// Deprecated: CSV files cannot be loaded back. Use FormatJSON.
	FormatCSV Format = "csv"
)

// SaveOptions configures Save.
type SaveOptions struct {
	// Folder the file is written to. Defaults to the working directory.
	Folder string
	// FilePrefix is prepended to the file name.
	FilePrefix string
	// Overwrite replaces an existing file instead of failing with ErrFileExists.
	Overwrite bool
	// MostRecentOnly keeps only the latest value of every parameter.
	MostRecentOnly bool
	// Format defaults to FormatJSON.
	Format Format
	// Logger defaults to a no-op logger.
	Logger logger.Logger
}

// Save writes store to <Folder>/<FilePrefix>calibrations.json and returns the path written.
func Save(store CalibrationStore, opts SaveOptions) (string, error) {
	lggr := opts.Logger
	if lggr == nil {
		lggr = logger.Nop()
	}
	folder := opts.Folder
	if folder == "" {
		folder = "."
	}

	switch opts.Format {
	case "", FormatJSON:
	case FormatCSV:
		return ExportCSV(store, folder, opts.FilePrefix, opts.Overwrite, lggr)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}

	model, err := ToModel(store, opts.MostRecentOnly)
	if err != nil {
		return "", err
	}

	path := filepath.Join(folder, opts.FilePrefix+FileName)
	if err = jsonutils.WriteFile(path, model, opts.Overwrite); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrFileExists, path)
		}

		return "", fmt.Errorf("failed to save calibrations to %s: %w", path, err)
	}

	lggr.Infow("Calibrations saved",
		"path", path, "schedules", len(model.Schedules), "parameters", len(model.Parameters))

	return path, nil
}

// Load reads calibrations saved by Save.
func Load(path string, opts ...Option) (*Calibrations, error) {
	if isCSV(path) {
		return nil, fmt.Errorf("%w: %s: loading CSV files is not supported", ErrUnsupportedFormat, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return decode(path, b, opts)
}

// LoadFromFS reads calibrations saved by Save from fsys.
func LoadFromFS(fsys fs.FS, path string, opts ...Option) (*Calibrations, error) {
	if isCSV(path) {
		return nil, fmt.Errorf("%w: %s: loading CSV files is not supported", ErrUnsupportedFormat, path)
	}
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return decode(path, b, opts)
}

// ReadModel reads the document at path without building calibrations from it.
func ReadModel(path string) (CalibrationModelV1, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return CalibrationModelV1{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !isJSONObject(b) {
		return CalibrationModelV1{}, fmt.Errorf("%w: %s is not a calibration document", ErrUnsupportedFormat, path)
	}

	return jsonutils.Decode[CalibrationModelV1](b, false)
}

func decode(path string, b []byte, opts []Option) (*Calibrations, error) {
	if !isJSONObject(b) {
		return nil, fmt.Errorf("%w: %s is not a calibration document", ErrUnsupportedFormat, path)
	}

	model, err := jsonutils.Decode[CalibrationModelV1](b, false)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal calibrations at %s: %w", path, err)
	}

	cals, err := FromModel(model, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load calibrations from %s: %w", path, err)
	}

	return cals, nil
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func isJSONObject(b []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(b), []byte("{"))
}
