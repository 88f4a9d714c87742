package calibration

import (
	"fmt"
	"maps"
	"slices"

	"github.com/qexp/calstore/pulse"
)

// lookupKeys returns the keys searched for a parameter value, most specific first.
func lookupKeys(parameter string, qubits Qubits, schedule string) []ParameterKey {
	keys := []ParameterKey{NewParameterKey(parameter, qubits, schedule)}
	if !qubits.IsDefault() {
		keys = append(keys, NewParameterKey(parameter, nil, schedule))
	}
	if schedule != "" {
		keys = append(keys, NewParameterKey(parameter, qubits, ""))
		if !qubits.IsDefault() {
			keys = append(keys, NewParameterKey(parameter, nil, ""))
		}
	}

	return keys
}

// GetParameterValueRecord returns the record that GetParameterValue would read its value from.
func (c *Calibrations) GetParameterValueRecord(
	parameter string, qubits Qubits, schedule string, opts ...GetOption,
) (ParameterValue, error) {
	o := getOptions{group: DefaultGroup}
	for _, opt := range opts {
		opt(&o)
	}

	filters := []FilterFunc[ParameterValueKey, ParameterValue]{ParameterValueByGroup(o.group)}
	if !o.includeInval {
		filters = append(filters, ParameterValueValidOnly())
	}
	if !o.cutoff.IsZero() {
		filters = append(filters, ParameterValueBefore(o.cutoff))
	}

	keys := lookupKeys(parameter, qubits, schedule)
	for _, key := range keys {
		candidates := c.ParameterValueStore.Filter(append([]FilterFunc[ParameterValueKey, ParameterValue]{
			ParameterValueByKey(key),
		}, filters...)...)
		if len(candidates) == 0 {
			continue
		}

		latest := candidates[0]
		for _, candidate := range candidates[1:] {
			if !candidate.DateTime.Before(latest.DateTime) {
				latest = candidate
			}
		}

		return latest, nil
	}

	return ParameterValue{}, fmt.Errorf("%w: %s in group %q", ErrParameterValueNotFound, keys[0], o.group)
}

// GetParameterValue returns the current value of a parameter. The search goes from the value
// for (qubits, schedule) to the default qubits, then to the parameter shared by all schedules.
// Within the first key that has values, the most recent value wins.
func (c *Calibrations) GetParameterValue(
	parameter string, qubits Qubits, schedule string, opts ...GetOption,
) (pulse.Value, error) {
	record, err := c.GetParameterValueRecord(parameter, qubits, schedule, opts...)
	if err != nil {
		return pulse.Value{}, err
	}

	return record.Value, nil
}

// GetSchedule returns the schedule name for qubits with every parameter bound. Channel index
// parameters are bound to the physical channels of qubits, values in assign take precedence
// over stored values for the template itself, and references are inlined with the schedules
// they point to. Referenced schedules read their parameters from the stored values.
func (c *Calibrations) GetSchedule(
	name string, qubits Qubits, assign map[string]pulse.Value, opts ...GetOption,
) (*pulse.ScheduleBlock, error) {
	return c.resolveSchedule(name, qubits, assign, nil, opts)
}

func (c *Calibrations) resolveSchedule(
	name string, qubits Qubits, assign map[string]pulse.Value, stack []string, opts []GetOption,
) (*pulse.ScheduleBlock, error) {
	fail := func(err error) (*pulse.ScheduleBlock, error) {
		return nil, &CalibrationError{Op: "get schedule", Schedule: name, Err: err}
	}

	if slices.Contains(stack, name) {
		return fail(fmt.Errorf("%w: %v", ErrReferenceCycle, append(stack, name)))
	}
	stack = append(stack, name)

	template, err := c.GetTemplate(name, qubits)
	if err != nil {
		return fail(err)
	}
	if len(qubits) != template.NumQubits {
		return fail(fmt.Errorf("template acts on %d qubits, got %s", template.NumQubits, qubits))
	}

	values := map[string]pulse.Value{}
	var unbound []string
	for _, param := range template.Schedule.FreeParameters() {
		if v, ok := assign[param]; ok {
			values[param] = v
			continue
		}
		v, err := c.GetParameterValue(param, qubits, name, opts...)
		if err != nil {
			unbound = append(unbound, param)
			continue
		}
		values[param] = v
	}
	if len(unbound) > 0 {
		return fail(fmt.Errorf("%w: %v for qubits %s", ErrUnboundParameter, unbound, qubits))
	}

	channels, err := c.channelValues(template.Schedule, qubits)
	if err != nil {
		return fail(err)
	}
	maps.Copy(values, channels)

	bound, err := template.Schedule.Assign(values)
	if err != nil {
		return fail(err)
	}

	instructions := make([]pulse.Instruction, 0, len(bound.Instructions))
	for _, in := range bound.Instructions {
		if in.Kind != pulse.ReferenceKind {
			instructions = append(instructions, in)
			continue
		}

		refQubits := qubits.Clone()
		if len(in.Reference.Slots) > 0 {
			refQubits = make(Qubits, len(in.Reference.Slots))
			for i, slot := range in.Reference.Slots {
				refQubits[i] = qubits[slot]
			}
		}

		inlined, err := c.resolveSchedule(in.Reference.Schedule, refQubits, nil, stack, opts)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, inlined.Instructions...)
	}
	bound.Instructions = instructions

	return bound, nil
}

// channelValues maps the channel index parameters of schedule to physical channel indices.
// ch<i> binds to qubits[i]; ch<i>.<j> binds to the control channel of (qubits[i], qubits[j]).
func (c *Calibrations) channelValues(schedule *pulse.ScheduleBlock, qubits Qubits) (map[string]pulse.Value, error) {
	backend := c.Backend()
	values := map[string]pulse.Value{}
	for _, name := range schedule.ChannelParameters() {
		slots, err := pulse.ChannelSlots(name)
		if err != nil {
			return nil, err
		}

		physical := make(Qubits, len(slots))
		for i, slot := range slots {
			if slot >= len(qubits) {
				return nil, fmt.Errorf("channel parameter %q needs qubit slot %d, got %s", name, slot, qubits)
			}
			physical[i] = qubits[slot]
		}

		if len(physical) == 1 {
			values[name] = pulse.Int(int64(physical[0]))
			continue
		}
		index, ok := backend.ControlChannel(physical)
		if !ok {
			return nil, fmt.Errorf("no control channel for qubits %s", physical)
		}
		values[name] = pulse.Int(int64(index))
	}

	return values, nil
}
