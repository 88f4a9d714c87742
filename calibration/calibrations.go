package calibration

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/qexp/calstore/pkg/logger"
	"github.com/qexp/calstore/pulse"
)

// Backend describes the device a set of calibrations belongs to.
type Backend struct {
	Name    string
	Version string
	// CouplingMap lists the directed qubit pairs of the device.
	CouplingMap [][2]int
	// ControlChannels maps a qubit tuple, formatted as by Qubits.String, to the indices of the
	// control channels driving that pair.
	ControlChannels map[string][]int
}

// Clone returns a deep copy of the backend description.
func (b Backend) Clone() Backend {
	return Backend{
		Name:            b.Name,
		Version:         b.Version,
		CouplingMap:     slices.Clone(b.CouplingMap),
		ControlChannels: cloneControlChannels(b.ControlChannels),
	}
}

// Equals returns true if both descriptions are identical.
func (b Backend) Equals(other Backend) bool {
	return b.Name == other.Name &&
		b.Version == other.Version &&
		slices.Equal(b.CouplingMap, other.CouplingMap) &&
		maps.EqualFunc(b.ControlChannels, other.ControlChannels, slices.Equal[[]int])
}

// ControlChannel returns the first control channel index for the ordered qubit pair.
func (b Backend) ControlChannel(qubits Qubits) (int, bool) {
	channels := b.ControlChannels[qubits.String()]
	if len(channels) == 0 {
		return 0, false
	}

	return channels[0], true
}

func cloneControlChannels(in map[string][]int) map[string][]int {
	if in == nil {
		return nil
	}
	out := make(map[string][]int, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}

	return out
}

// Calibrations implements the MutableCalibrationStore interface.
var _ MutableCalibrationStore = &Calibrations{}

// Calibrations holds the schedule templates of a device together with the value history of
// their parameters.
type Calibrations struct {
	ParameterValueStore *MemoryParameterValueStore
	ScheduleStore       *MemoryScheduleStore

	mu         sync.RWMutex
	backend    Backend
	registered []ParameterKey

	lggr logger.Logger
	now  func() time.Time
}

// NewCalibrations creates a new, empty Calibrations instance.
// NOTE: The instance returned is mutable and can be modified.
func NewCalibrations(opts ...Option) *Calibrations {
	c := &Calibrations{
		ParameterValueStore: NewMemoryParameterValueStore(),
		ScheduleStore:       NewMemoryScheduleStore(),
		lggr:                logger.Nop(),
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Logger returns the logger the calibrations report to.
func (c *Calibrations) Logger() logger.Logger { return c.lggr }

// Now returns the current time of the calibrations clock.
func (c *Calibrations) Now() time.Time { return c.now() }

// ParameterValues returns the value history store.
func (c *Calibrations) ParameterValues() MutableParameterValueStore {
	return c.ParameterValueStore
}

// Templates returns the schedule template store.
func (c *Calibrations) Templates() MutableScheduleStore {
	return c.ScheduleStore
}

// Backend returns a copy of the device description.
func (c *Calibrations) Backend() Backend {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.backend.Clone()
}

// RegisteredParameters returns a copy of the registered parameter keys in registration order.
func (c *Calibrations) RegisteredParameters() []ParameterKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return cloneKeys(c.registered)
}

// Seal returns a read-only view of the calibrations.
func (c *Calibrations) Seal() CalibrationStore {
	return &sealedCalibrations{
		ParameterValueStore: c.ParameterValueStore,
		ScheduleStore:       c.ScheduleStore,
		backend:             c.Backend(),
		registered:          c.RegisteredParameters(),
	}
}

// Merge merges the templates, registrations and values of other into the calibrations. Records
// with the same key are replaced. The backend description is only taken over when the
// receiver has none.
func (c *Calibrations) Merge(other CalibrationStore) error {
	templates, err := other.Templates().Fetch()
	if err != nil {
		return err
	}
	for _, template := range templates {
		if err = c.ScheduleStore.Upsert(template); err != nil {
			return err
		}
	}

	c.mu.Lock()
	for _, key := range other.RegisteredParameters() {
		c.registerLocked(key)
	}
	if c.backend.Name == "" && len(c.backend.CouplingMap) == 0 {
		c.backend = other.Backend()
	}
	c.mu.Unlock()

	values, err := other.ParameterValues().Fetch()
	if err != nil {
		return err
	}
	for _, value := range values {
		if err = c.ParameterValueStore.Upsert(value.normalize(c.now)); err != nil {
			return err
		}
	}

	return nil
}

// AddSchedule validates schedule and stores it as the template for qubits, replacing any
// template with the same name and qubits. Every free parameter of the template that is not a
// channel index is registered for (qubits, schedule name).
//
// numQubits may be zero when qubits is not empty or when the number of qubits can be inferred
// from the channel index parameters and references of the template.
func (c *Calibrations) AddSchedule(schedule *pulse.ScheduleBlock, qubits Qubits, numQubits int) error {
	template, err := newScheduleTemplate(schedule, qubits, numQubits)
	if err != nil {
		return err
	}

	if err = c.ScheduleStore.Upsert(template); err != nil {
		return err
	}

	c.mu.Lock()
	c.unregisterLocked(template.Name(), template.Qubits)
	for _, name := range schedule.FreeParameters() {
		c.registerLocked(NewParameterKey(name, template.Qubits, template.Name()))
	}
	c.mu.Unlock()

	c.lggr.Debugw("Schedule template added",
		"schedule", template.Name(), "qubits", template.Qubits.String(), "numQubits", template.NumQubits)

	return nil
}

func newScheduleTemplate(schedule *pulse.ScheduleBlock, qubits Qubits, numQubits int) (ScheduleTemplate, error) {
	if schedule == nil {
		return ScheduleTemplate{}, &CalibrationError{Op: "add schedule", Err: ErrInvalidTemplate}
	}
	fail := func(err error) (ScheduleTemplate, error) {
		return ScheduleTemplate{}, &CalibrationError{Op: "add schedule", Schedule: schedule.Name, Err: err}
	}

	if err := schedule.Validate(); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrInvalidTemplate, err))
	}

	required, err := requiredQubits(schedule)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrInvalidTemplate, err))
	}

	switch {
	case len(qubits) > 0 && numQubits != 0 && numQubits != len(qubits):
		return fail(fmt.Errorf("%w: template for qubits %s cannot act on %d qubits",
			ErrInvalidTemplate, qubits, numQubits))
	case len(qubits) > 0:
		numQubits = len(qubits)
	case numQubits == 0:
		numQubits = required
	}
	if numQubits <= 0 {
		return fail(fmt.Errorf("%w: number of qubits cannot be inferred", ErrInvalidTemplate))
	}
	if required > numQubits {
		return fail(fmt.Errorf("%w: template uses qubit slot %d but acts on %d qubits",
			ErrInvalidTemplate, required-1, numQubits))
	}

	return ScheduleTemplate{Qubits: qubits.Clone(), NumQubits: numQubits, Schedule: schedule.Clone()}, nil
}

// requiredQubits returns one more than the highest qubit slot used by the template.
func requiredQubits(schedule *pulse.ScheduleBlock) (int, error) {
	highest := -1
	for _, name := range schedule.ChannelParameters() {
		slots, err := pulse.ChannelSlots(name)
		if err != nil {
			return 0, err
		}
		highest = max(highest, slices.Max(slots))
	}
	for _, in := range schedule.Instructions {
		if in.Kind == pulse.ReferenceKind && in.Reference != nil && len(in.Reference.Slots) > 0 {
			highest = max(highest, slices.Max(in.Reference.Slots))
		}
	}

	return highest + 1, nil
}

// RemoveSchedule removes the template for (name, qubits) and its parameter registrations.
// Stored parameter values are kept.
func (c *Calibrations) RemoveSchedule(name string, qubits Qubits) error {
	if err := c.ScheduleStore.Delete(NewScheduleKey(name, qubits)); err != nil {
		return fmt.Errorf("remove schedule %s: %w", NewScheduleKey(name, qubits), err)
	}

	c.mu.Lock()
	c.unregisterLocked(name, qubits)
	c.mu.Unlock()

	return nil
}

// HasTemplate reports whether a template named name applies to qubits, either specifically or
// as the default template.
func (c *Calibrations) HasTemplate(name string, qubits Qubits) bool {
	_, err := c.GetTemplate(name, qubits)
	return err == nil
}

// GetTemplate returns the template for (name, qubits), falling back to the default template.
func (c *Calibrations) GetTemplate(name string, qubits Qubits) (ScheduleTemplate, error) {
	template, err := c.ScheduleStore.Get(NewScheduleKey(name, qubits))
	if errors.Is(err, ErrScheduleNotFound) && !qubits.IsDefault() {
		template, err = c.ScheduleStore.Get(NewScheduleKey(name, nil))
	}
	if err != nil {
		return ScheduleTemplate{}, fmt.Errorf("%w: %s", err, NewScheduleKey(name, qubits))
	}

	return template, nil
}

// RegisterParameter registers a parameter that is not a free parameter of any template, such
// as a qubit frequency shared by all schedules (empty schedule name). A non-empty schedule must
// have a template for the qubits.
func (c *Calibrations) RegisterParameter(key ParameterKey) error {
	if key.Parameter == "" {
		return errors.New("cannot register a parameter without a name")
	}
	if key.Schedule != "" && !c.HasTemplate(key.Schedule, key.Qubits) {
		return fmt.Errorf("register %s: %w", key, ErrScheduleNotFound)
	}

	c.mu.Lock()
	c.registerLocked(key)
	c.mu.Unlock()

	return nil
}

// IsRegistered reports whether values may be added for key. A registration for the default
// qubits covers every qubit tuple.
func (c *Calibrations) IsRegistered(key ParameterKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return isRegistered(c.registered, key)
}

func isRegistered(registered []ParameterKey, key ParameterKey) bool {
	for _, r := range registered {
		if r.Parameter != key.Parameter || r.Schedule != key.Schedule {
			continue
		}
		if r.Qubits.IsDefault() || key.Qubits.IsDefault() || r.Qubits.Equals(key.Qubits) {
			return true
		}
	}

	return false
}

func (c *Calibrations) registerLocked(key ParameterKey) {
	if slices.ContainsFunc(c.registered, key.Equals) {
		return
	}
	c.registered = append(c.registered, NewParameterKey(key.Parameter, key.Qubits, key.Schedule))
}

func (c *Calibrations) unregisterLocked(schedule string, qubits Qubits) {
	c.registered = slices.DeleteFunc(c.registered, func(k ParameterKey) bool {
		return k.Schedule == schedule && k.Qubits.Equals(qubits)
	})
}

// AddParameterValue appends value to the history of its parameter. The parameter must be
// registered. An empty group becomes DefaultGroup and a zero DateTime the current time. A value
// with the same parameter, group and DateTime as an existing one replaces it.
func (c *Calibrations) AddParameterValue(value ParameterValue) error {
	if value.Parameter == "" {
		return errors.New("cannot add a value for a parameter without a name")
	}
	if !c.IsRegistered(value.ParameterKey()) {
		return fmt.Errorf("add value for %s: %w", value.ParameterKey(), ErrParameterNotRegistered)
	}

	value = value.normalize(c.now)
	if err := c.ParameterValueStore.Upsert(value); err != nil {
		return err
	}

	c.lggr.Debugw("Parameter value added",
		"parameter", value.Parameter, "qubits", value.Qubits.String(), "schedule", value.Schedule,
		"group", value.Group, "value", value.Value.String())

	return nil
}

func cloneKeys(keys []ParameterKey) []ParameterKey {
	out := make([]ParameterKey, len(keys))
	for i, k := range keys {
		out[i] = NewParameterKey(k.Parameter, k.Qubits, k.Schedule)
	}

	return out
}

// sealedCalibrations implements the CalibrationStore interface.
// It represents calibrations that cannot be modified further.
var _ CalibrationStore = &sealedCalibrations{}

type sealedCalibrations struct {
	ParameterValueStore *MemoryParameterValueStore
	ScheduleStore       *MemoryScheduleStore

	backend    Backend
	registered []ParameterKey
}

func (s *sealedCalibrations) ParameterValues() ParameterValueStore {
	return s.ParameterValueStore
}

func (s *sealedCalibrations) Templates() ScheduleStore {
	return s.ScheduleStore
}

func (s *sealedCalibrations) Backend() Backend {
	return s.backend.Clone()
}

func (s *sealedCalibrations) RegisteredParameters() []ParameterKey {
	return cloneKeys(s.registered)
}
