package calibration

import (
	"sync"
)

// MemoryScheduleStore is an in-memory implementation of the ScheduleStore and
// MutableScheduleStore interfaces.
type MemoryScheduleStore struct {
	mu      sync.RWMutex
	Records []ScheduleTemplate
}

// MemoryScheduleStore implements ScheduleStore interface.
var _ ScheduleStore = &MemoryScheduleStore{}

// MemoryScheduleStore implements MutableScheduleStore interface.
var _ MutableScheduleStore = &MemoryScheduleStore{}

// NewMemoryScheduleStore creates a new MemoryScheduleStore instance.
func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{Records: []ScheduleTemplate{}}
}

// Get returns the template for the provided key, or an error if no such record exists.
func (s *MemoryScheduleStore) Get(key ScheduleKey) (ScheduleTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(key)
	if idx == -1 {
		return ScheduleTemplate{}, ErrScheduleNotFound
	}

	return s.Records[idx].Clone(), nil
}

// Fetch returns a copy of all templates in the store.
func (s *MemoryScheduleStore) Fetch() ([]ScheduleTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]ScheduleTemplate, 0, len(s.Records))
	for _, record := range s.Records {
		records = append(records, record.Clone())
	}

	return records, nil
}

// Filter returns a copy of all templates that pass all of the provided filters.
func (s *MemoryScheduleStore) Filter(filters ...FilterFunc[ScheduleKey, ScheduleTemplate]) []ScheduleTemplate {
	records, _ := s.Fetch()
	for _, filter := range filters {
		records = filter(records)
	}

	return records
}

func (s *MemoryScheduleStore) indexOf(key ScheduleKey) int {
	for i, record := range s.Records {
		if record.Key().Equals(key) {
			return i
		}
	}

	return -1
}

// Add inserts a new template into the store.
// If a template with the same key already exists, an error is returned.
func (s *MemoryScheduleStore) Add(record ScheduleTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(record.Key()) != -1 {
		return ErrScheduleExists
	}
	s.Records = append(s.Records, record.Clone())

	return nil
}

// Upsert inserts the template, replacing any template with the same key.
func (s *MemoryScheduleStore) Upsert(record ScheduleTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(record.Key())
	if idx == -1 {
		s.Records = append(s.Records, record.Clone())
		return nil
	}
	s.Records[idx] = record.Clone()

	return nil
}

// Update replaces the template with the same key.
// If no such template exists, an error is returned.
func (s *MemoryScheduleStore) Update(record ScheduleTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(record.Key())
	if idx == -1 {
		return ErrScheduleNotFound
	}
	s.Records[idx] = record.Clone()

	return nil
}

// Delete removes the template with the given key.
func (s *MemoryScheduleStore) Delete(key ScheduleKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(key)
	if idx == -1 {
		return ErrScheduleNotFound
	}
	s.Records = append(s.Records[:idx], s.Records[idx+1:]...)

	return nil
}
