package calibration

// Comparable provides an Equals() method which returns true if the two instances are equal, false otherwise.
type Comparable[T any] interface {
	// Equals returns true if the two instances are equal, false otherwise.
	Equals(T) bool
}

// Fetcher provides a Fetch() method which is used to complete a read query from a Store.
type Fetcher[R any] interface {
	// Fetch returns a slice of records representing the entire data set. The returned slice
	// is newly allocated and each record is a copy of the stored data.
	Fetch() ([]R, error)
}

// Getter provides a Get() method which is used to complete a read by key query from a Store.
type Getter[K Comparable[K], R UniqueRecord[K, R]] interface {
	// Get returns the record with the given key, or an error if no such record exists.
	Get(K) (R, error)
}

// PrimaryKeyHolder is an interface for types that can provide a unique identifier key for themselves.
type PrimaryKeyHolder[K Comparable[K]] interface {
	// Key returns the primary key for the implementing type.
	Key() K
}

// UniqueRecord represents a data entry that is both cloneable and uniquely identifiable by its primary key.
type UniqueRecord[K Comparable[K], R PrimaryKeyHolder[K]] interface {
	PrimaryKeyHolder[K]
	Clone() R
}

// FilterFunc is a function that filters a slice of records.
type FilterFunc[K Comparable[K], R UniqueRecord[K, R]] func([]R) []R

// Filterable provides a Filter() method which is used to complete a filtered query from a Store.
type Filterable[K Comparable[K], R UniqueRecord[K, R]] interface {
	Filter(filters ...FilterFunc[K, R]) []R
}

// Store is an interface that represents an immutable set of records.
type Store[K Comparable[K], R UniqueRecord[K, R]] interface {
	Fetcher[R]
	Getter[K, R]
	Filterable[K, R]
}

// MutableStore is an interface that represents a mutable set of records.
type MutableStore[K Comparable[K], R UniqueRecord[K, R]] interface {
	Store[K, R]

	// Add inserts a new record, failing if a record with the same key exists.
	Add(record R) error

	// Upsert behaves like Add when there is no record with the same key, otherwise like Update.
	Upsert(record R) error

	// Update replaces the record with the same key, failing if there is none.
	Update(record R) error

	// Delete deletes the record with the given key, failing if there is none.
	Delete(key K) error
}

// ParameterValueStore is an immutable view over ParameterValue records.
type ParameterValueStore interface {
	Store[ParameterValueKey, ParameterValue]
}

// MutableParameterValueStore is a mutable ParameterValueStore.
type MutableParameterValueStore interface {
	MutableStore[ParameterValueKey, ParameterValue]
}

// ScheduleStore is an immutable view over ScheduleTemplate records.
type ScheduleStore interface {
	Store[ScheduleKey, ScheduleTemplate]
}

// MutableScheduleStore is a mutable ScheduleStore.
type MutableScheduleStore interface {
	MutableStore[ScheduleKey, ScheduleTemplate]
}

// BaseCalibrationStore is parameterized by the parameter value store and the schedule store it exposes.
type BaseCalibrationStore[P ParameterValueStore, S ScheduleStore] interface {
	ParameterValues() P
	Templates() S
	// Backend returns the device description the calibrations belong to.
	Backend() Backend
	// RegisteredParameters returns every parameter key values may be added for.
	RegisteredParameters() []ParameterKey
}

// CalibrationStore is a read-only calibration record.
type CalibrationStore interface {
	BaseCalibrationStore[ParameterValueStore, ScheduleStore]
}

// Merger merges another record into the receiver.
type Merger[T any] interface {
	Merge(other T) error
}

// Sealer returns a read-only view which cannot be modified further.
type Sealer[T any] interface {
	Seal() T
}

// MutableCalibrationStore is a calibration record that can be modified, merged and sealed.
type MutableCalibrationStore interface {
	Merger[CalibrationStore]
	Sealer[CalibrationStore]

	BaseCalibrationStore[MutableParameterValueStore, MutableScheduleStore]
}
