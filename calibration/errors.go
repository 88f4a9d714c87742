package calibration

import (
	"errors"
	"fmt"
)

var (
	ErrParameterValueNotFound = errors.New("no parameter value can be found for the provided key")
	ErrParameterValueExists   = errors.New("a parameter value with the supplied key already exists")
	ErrParameterNotRegistered = errors.New("parameter is not registered in the calibrations")
	ErrScheduleNotFound       = errors.New("no schedule template can be found for the provided key")
	ErrScheduleExists         = errors.New("a schedule template with the supplied key already exists")
	ErrInvalidTemplate        = errors.New("invalid schedule template")
	ErrUnboundParameter       = errors.New("schedule has unbound parameters")
	ErrReferenceCycle         = errors.New("schedule references form a cycle")
	ErrFileExists             = errors.New("calibration file already exists")
	ErrUnsupportedFormat      = errors.New("unsupported calibration file format")
	ErrUnsupportedSchema      = errors.New("unsupported calibration schema version")
)

// CalibrationError reports a failed calibration operation on a given schedule.
type CalibrationError struct {
	Op       string
	Schedule string
	Err      error
}

func (e *CalibrationError) Error() string {
	if e.Schedule == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %q: %v", e.Op, e.Schedule, e.Err)
}

func (e *CalibrationError) Unwrap() error { return e.Err }
