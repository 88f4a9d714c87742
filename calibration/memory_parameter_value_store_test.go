package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qexp/calstore/pulse"
)

func TestMemoryParameterValueStore(t *testing.T) {
	t.Parallel()

	var (
		recordOne = ParameterValue{
			Parameter: "amp", Qubits: Q(0), Schedule: "x", Value: pulse.Float(0.5),
			DateTime: testTime, Valid: true, ExpID: "exp-1", Group: DefaultGroup,
		}
		recordTwo = ParameterValue{
			Parameter: "amp", Qubits: Q(0), Schedule: "x", Value: pulse.Float(0.45),
			DateTime: testTime.Add(time.Minute), Valid: true, ExpID: "exp-2", Group: DefaultGroup,
		}
	)

	tests := []struct {
		name       string
		givenState []ParameterValue
		run        func(s *MemoryParameterValueStore) error
		wantErr    error
		wantState  []ParameterValue
	}{
		{
			name: "success: add",
			run:  func(s *MemoryParameterValueStore) error { return s.Add(recordOne) },
			wantState: []ParameterValue{
				recordOne,
			},
		},
		{
			name:       "error: add duplicate",
			givenState: []ParameterValue{recordOne},
			run:        func(s *MemoryParameterValueStore) error { return s.Add(recordOne) },
			wantErr:    ErrParameterValueExists,
			wantState:  []ParameterValue{recordOne},
		},
		{
			name:       "success: upsert appends a new key",
			givenState: []ParameterValue{recordOne},
			run:        func(s *MemoryParameterValueStore) error { return s.Upsert(recordTwo) },
			wantState:  []ParameterValue{recordOne, recordTwo},
		},
		{
			name:       "success: upsert replaces an existing key",
			givenState: []ParameterValue{recordOne, recordTwo},
			run: func(s *MemoryParameterValueStore) error {
				r := recordOne
				r.Valid = false
				return s.Upsert(r)
			},
			wantState: func() []ParameterValue {
				r := recordOne
				r.Valid = false
				return []ParameterValue{r, recordTwo}
			}(),
		},
		{
			name:    "error: update missing",
			run:     func(s *MemoryParameterValueStore) error { return s.Update(recordOne) },
			wantErr: ErrParameterValueNotFound,
		},
		{
			name:       "success: delete",
			givenState: []ParameterValue{recordOne, recordTwo},
			run:        func(s *MemoryParameterValueStore) error { return s.Delete(recordOne.Key()) },
			wantState:  []ParameterValue{recordTwo},
		},
		{
			name:    "error: delete missing",
			run:     func(s *MemoryParameterValueStore) error { return s.Delete(recordOne.Key()) },
			wantErr: ErrParameterValueNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := NewMemoryParameterValueStore()
			store.Records = append(store.Records, tt.givenState...)

			err := tt.run(store)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			got, err := store.Fetch()
			require.NoError(t, err)
			require.Len(t, got, len(tt.wantState))
			for i := range got {
				assert.True(t, tt.wantState[i].Equals(got[i]), "record %d", i)
			}
		})
	}
}

func TestMemoryParameterValueStore_Get(t *testing.T) {
	t.Parallel()

	record := ParameterValue{
		Parameter: "amp", Qubits: Q(0), Schedule: "x", Value: pulse.Float(0.5),
		DateTime: testTime, Valid: true, Group: DefaultGroup,
	}
	store := NewMemoryParameterValueStore()
	require.NoError(t, store.Add(record))

	got, err := store.Get(record.Key())
	require.NoError(t, err)
	assert.True(t, record.Equals(got))

	// returned records are copies
	got.Qubits[0] = 9
	again, err := store.Get(record.Key())
	require.NoError(t, err)
	assert.Equal(t, Q(0), again.Qubits)

	_, err = store.Get(ParameterValueKey{ParameterKey: NewParameterKey("amp", Q(1), "x")})
	require.ErrorIs(t, err, ErrParameterValueNotFound)
}

func TestMemoryParameterValueStore_KeyLookups(t *testing.T) {
	t.Parallel()

	record := func(i int) ParameterValue {
		return ParameterValue{
			Parameter: "amp", Qubits: Q(i % 3), Schedule: "x", Value: pulse.Float(float64(i)),
			DateTime: testTime.Add(time.Duration(i) * time.Second), Valid: true, Group: DefaultGroup,
		}
	}

	store := NewMemoryParameterValueStore()
	for i := range 1000 {
		require.NoError(t, store.Upsert(record(i)))
	}
	require.Len(t, store.Records, 1000)

	// replaying the history replaces instead of appending
	for i := range 1000 {
		require.NoError(t, store.Upsert(record(i)))
	}
	require.Len(t, store.Records, 1000)
	require.ErrorIs(t, store.Add(record(500)), ErrParameterValueExists)

	require.NoError(t, store.Delete(record(10).Key()))
	_, err := store.Get(record(10).Key())
	require.ErrorIs(t, err, ErrParameterValueNotFound)
	got, err := store.Get(record(11).Key())
	require.NoError(t, err)
	assert.True(t, record(11).Equals(got))

	// Records replaced or grown outside the store
	store.Records = []ParameterValue{record(2000), record(2001)}
	_, err = store.Get(record(11).Key())
	require.ErrorIs(t, err, ErrParameterValueNotFound)
	require.NoError(t, store.Update(record(2001)))

	store.Records = append(store.Records, record(3000))
	got, err = store.Get(record(3000).Key())
	require.NoError(t, err)
	assert.True(t, record(3000).Equals(got))
}

func TestMemoryScheduleStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryScheduleStore()
	x := ScheduleTemplate{NumQubits: 1, Schedule: dragTemplate(t, "x", "amp", "angle")}
	x3 := ScheduleTemplate{Qubits: Q(3), NumQubits: 1, Schedule: dragTemplate(t, "x", "amp", "angle")}
	sx := ScheduleTemplate{NumQubits: 1, Schedule: dragTemplate(t, "sx", "amp", "angle")}

	require.NoError(t, store.Add(x))
	require.NoError(t, store.Add(x3))
	require.NoError(t, store.Add(sx))
	require.ErrorIs(t, store.Add(x), ErrScheduleExists)

	assert.Len(t, store.Filter(ScheduleByName("x")), 2)
	assert.Len(t, store.Filter(ScheduleByName("x"), ScheduleByQubits(Q(3))), 1)
	assert.Empty(t, store.Filter(ScheduleByName("cr")))

	got, err := store.Get(x3.Key())
	require.NoError(t, err)
	assert.True(t, x3.Equals(got))

	changed := x.Clone()
	changed.Schedule.Metadata["note"] = "updated"
	require.NoError(t, store.Update(changed))
	got, err = store.Get(x.Key())
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Schedule.Metadata["note"])

	require.NoError(t, store.Delete(x.Key()))
	require.ErrorIs(t, store.Delete(x.Key()), ErrScheduleNotFound)
	require.ErrorIs(t, store.Update(x), ErrScheduleNotFound)

	records, err := store.Fetch()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
