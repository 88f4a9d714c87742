package calibration

import (
	"strconv"
	"sync"
)

// MemoryParameterValueStore is an in-memory implementation of the ParameterValueStore and
// MutableParameterValueStore interfaces. Records keep their insertion order.
//
// Key lookups go through an index rebuilt whenever Records was replaced or grown outside the
// store. Records must not be edited in place.
type MemoryParameterValueStore struct {
	mu      sync.RWMutex
	Records []ParameterValue

	index   map[string]int
	indexed int
	base    *ParameterValue
}

// MemoryParameterValueStore implements ParameterValueStore interface.
var _ ParameterValueStore = &MemoryParameterValueStore{}

// MemoryParameterValueStore implements MutableParameterValueStore interface.
var _ MutableParameterValueStore = &MemoryParameterValueStore{}

// NewMemoryParameterValueStore creates a new MemoryParameterValueStore instance.
func NewMemoryParameterValueStore() *MemoryParameterValueStore {
	return &MemoryParameterValueStore{Records: []ParameterValue{}}
}

// Get returns the ParameterValue for the provided key, or an error if no such record exists.
func (s *MemoryParameterValueStore) Get(key ParameterValueKey) (ParameterValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(key)
	if idx == -1 {
		return ParameterValue{}, ErrParameterValueNotFound
	}

	return s.Records[idx].Clone(), nil
}

// Fetch returns a copy of all ParameterValue records in the store.
func (s *MemoryParameterValueStore) Fetch() ([]ParameterValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]ParameterValue, 0, len(s.Records))
	for _, record := range s.Records {
		records = append(records, record.Clone())
	}

	return records, nil
}

// Filter returns a copy of all ParameterValue records that pass all of the provided filters.
// Filters are applied in the order they are provided.
// If no filters are provided, all records are returned.
func (s *MemoryParameterValueStore) Filter(filters ...FilterFunc[ParameterValueKey, ParameterValue]) []ParameterValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]ParameterValue, 0, len(s.Records))
	for _, record := range s.Records {
		records = append(records, record.Clone())
	}
	for _, filter := range filters {
		records = filter(records)
	}

	return records
}

// indexOf returns the index of the record with the provided key, or -1 if no such record exists.
func (s *MemoryParameterValueStore) indexOf(key ParameterValueKey) int {
	if s.stale() {
		s.reindex()
	}
	k := indexKey(key)
	i, ok := s.index[k]
	if !ok {
		return -1
	}
	if i < len(s.Records) && s.Records[i].Key().Equals(key) {
		return i
	}

	s.reindex()
	if i, ok = s.index[k]; ok && s.Records[i].Key().Equals(key) {
		return i
	}

	return -1
}

func (s *MemoryParameterValueStore) stale() bool {
	if s.index == nil || s.indexed != len(s.Records) {
		return true
	}

	return len(s.Records) > 0 && s.base != &s.Records[0]
}

func (s *MemoryParameterValueStore) reindex() {
	s.index = make(map[string]int, len(s.Records))
	for i, record := range s.Records {
		k := indexKey(record.Key())
		if _, ok := s.index[k]; !ok {
			s.index[k] = i
		}
	}
	s.track()
}

// appendRecord adds record at the end of Records and to the index.
func (s *MemoryParameterValueStore) appendRecord(record ParameterValue) {
	if s.stale() {
		s.reindex()
	}
	s.Records = append(s.Records, record.Clone())
	s.index[indexKey(record.Key())] = len(s.Records) - 1
	s.track()
}

func (s *MemoryParameterValueStore) track() {
	s.indexed = len(s.Records)
	s.base = nil
	if len(s.Records) > 0 {
		s.base = &s.Records[0]
	}
}

func indexKey(key ParameterValueKey) string {
	return strconv.Quote(key.Parameter) + key.Qubits.String() + strconv.Quote(key.Schedule) +
		strconv.Quote(key.Group) + strconv.FormatInt(key.DateTime.UnixNano(), 10)
}

// Add inserts a new record into the store.
// If a record with the same key already exists, an error is returned.
func (s *MemoryParameterValueStore) Add(record ParameterValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(record.Key()) != -1 {
		return ErrParameterValueExists
	}
	s.appendRecord(record)

	return nil
}

// Upsert inserts a new record into the store if no record with the same key already exists.
// If a record with the same key already exists, it is updated.
func (s *MemoryParameterValueStore) Upsert(record ParameterValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(record.Key())
	if idx == -1 {
		s.appendRecord(record)
		return nil
	}
	s.Records[idx] = record.Clone()

	return nil
}

// Update edits the record whose key matches the supplied ParameterValue.
// If no such record exists, an error is returned.
func (s *MemoryParameterValueStore) Update(record ParameterValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(record.Key())
	if idx == -1 {
		return ErrParameterValueNotFound
	}
	s.Records[idx] = record.Clone()

	return nil
}

// Delete deletes the record whose key matches the supplied key, returning an error if no
// such record exists.
func (s *MemoryParameterValueStore) Delete(key ParameterValueKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(key)
	if idx == -1 {
		return ErrParameterValueNotFound
	}
	s.Records = append(s.Records[:idx], s.Records[idx+1:]...)
	s.index = nil

	return nil
}
