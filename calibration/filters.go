package calibration

import (
	"slices"
	"time"
)

// The following functions are composable filters for the Filter method of the stores. For example,
// to get the valid amplitude history of qubit 3 in the default group:
//
//	records := store.Filter(
//		ParameterValueByParameter("amp"),
//		ParameterValueByQubits(Q(3)),
//		ParameterValueByGroup(DefaultGroup),
//		ParameterValueValidOnly(),
//	)

var _ FilterFunc[ParameterValueKey, ParameterValue] = ParameterValueByParameter("")
var _ FilterFunc[ScheduleKey, ScheduleTemplate] = ScheduleByName("")

func parameterValueFilter(predicate func(record ParameterValue) bool) FilterFunc[ParameterValueKey, ParameterValue] {
	return func(records []ParameterValue) []ParameterValue {
		filtered := make([]ParameterValue, 0, len(records))
		for _, record := range records {
			if predicate(record) {
				filtered = append(filtered, record)
			}
		}

		return filtered
	}
}

// ParameterValueByParameter keeps the values of the named parameter.
func ParameterValueByParameter(parameter string) FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return record.Parameter == parameter
	})
}

// ParameterValueByParameters keeps the values of any of the named parameters.
func ParameterValueByParameters(parameters ...string) FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return slices.Contains(parameters, record.Parameter)
	})
}

// ParameterValueByQubits keeps the values for exactly the given qubits.
func ParameterValueByQubits(qubits Qubits) FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return record.Qubits.Equals(qubits)
	})
}

// ParameterValueBySchedule keeps the values attached to the named schedule.
func ParameterValueBySchedule(schedule string) FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return record.Schedule == schedule
	})
}

// ParameterValueByKey keeps the values of one parameter key.
func ParameterValueByKey(key ParameterKey) FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return record.ParameterKey().Equals(key)
	})
}

// ParameterValueByGroup keeps the values of the given group.
func ParameterValueByGroup(group string) FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return record.Group == group
	})
}

// ParameterValueByExpID keeps the values produced by the given experiment.
func ParameterValueByExpID(expID string) FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return record.ExpID == expID
	})
}

// ParameterValueValidOnly drops the values marked invalid.
func ParameterValueValidOnly() FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return record.Valid
	})
}

// ParameterValueBefore keeps the values produced at or before cutoff.
func ParameterValueBefore(cutoff time.Time) FilterFunc[ParameterValueKey, ParameterValue] {
	return parameterValueFilter(func(record ParameterValue) bool {
		return !record.DateTime.After(cutoff)
	})
}

// ParameterValueMostRecent keeps, for every parameter key and group, only the most recent
// value. Ties on the timestamp are won by the later record.
func ParameterValueMostRecent() FilterFunc[ParameterValueKey, ParameterValue] {
	return func(records []ParameterValue) []ParameterValue {
		latest := map[string]int{}
		order := []string{}
		for i, record := range records {
			id := record.ParameterKey().String() + "|" + record.Group
			j, ok := latest[id]
			if !ok {
				order = append(order, id)
				latest[id] = i

				continue
			}
			if !record.DateTime.Before(records[j].DateTime) {
				latest[id] = i
			}
		}

		filtered := make([]ParameterValue, 0, len(order))
		for _, id := range order {
			filtered = append(filtered, records[latest[id]])
		}

		return filtered
	}
}

// ScheduleByName keeps the templates with the given schedule name.
func ScheduleByName(name string) FilterFunc[ScheduleKey, ScheduleTemplate] {
	return func(records []ScheduleTemplate) []ScheduleTemplate {
		filtered := make([]ScheduleTemplate, 0, len(records))
		for _, record := range records {
			if record.Name() == name {
				filtered = append(filtered, record)
			}
		}

		return filtered
	}
}

// ScheduleByQubits keeps the templates specific to exactly the given qubits.
func ScheduleByQubits(qubits Qubits) FilterFunc[ScheduleKey, ScheduleTemplate] {
	return func(records []ScheduleTemplate) []ScheduleTemplate {
		filtered := make([]ScheduleTemplate, 0, len(records))
		for _, record := range records {
			if record.Qubits.Equals(qubits) {
				filtered = append(filtered, record)
			}
		}

		return filtered
	}
}
