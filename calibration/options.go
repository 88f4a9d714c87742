package calibration

import (
	"time"

	"github.com/qexp/calstore/pkg/logger"
)

// Option configures a Calibrations instance.
type Option func(*Calibrations)

// WithBackend sets the name and version of the device the calibrations belong to.
func WithBackend(name, version string) Option {
	return func(c *Calibrations) {
		c.backend.Name = name
		c.backend.Version = version
	}
}

// WithCouplingMap sets the directed qubit coupling edges of the device.
func WithCouplingMap(edges [][2]int) Option {
	return func(c *Calibrations) {
		c.backend.CouplingMap = append([][2]int(nil), edges...)
	}
}

// WithControlChannels sets the control channel indices for qubit pairs.
func WithControlChannels(channels map[string][]int) Option {
	return func(c *Calibrations) {
		c.backend.ControlChannels = cloneControlChannels(channels)
	}
}

// WithLogger sets the logger used to report deprecated paths and schema warnings.
func WithLogger(lggr logger.Logger) Option {
	return func(c *Calibrations) {
		c.lggr = lggr
	}
}

// WithClock overrides the clock used to timestamp values added without a date.
func WithClock(now func() time.Time) Option {
	return func(c *Calibrations) {
		c.now = now
	}
}

// GetOption configures a parameter value lookup.
type GetOption func(*getOptions)

type getOptions struct {
	group        string
	cutoff       time.Time
	includeInval bool
}

// WithGroup looks up values in the given calibration group instead of the default one.
func WithGroup(group string) GetOption {
	return func(o *getOptions) { o.group = group }
}

// WithCutoff ignores values produced after cutoff.
func WithCutoff(cutoff time.Time) GetOption {
	return func(o *getOptions) { o.cutoff = cutoff }
}

// WithInvalid also considers values marked invalid.
func WithInvalid() GetOption {
	return func(o *getOptions) { o.includeInval = true }
}
