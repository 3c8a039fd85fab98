package logbook

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsCaseInsensitive(t *testing.T) {
	f := Fields{}
	f.SetItem("band", "20m")
	assert.Equal(t, "20m", f.Item("BAND"))
	assert.Equal(t, "20m", f.Item("Band"))
	assert.Equal(t, "", f.Item("MODE"))
}

func TestMemoryRecordOutOfRange(t *testing.T) {
	m := NewMemory(Fields{"CALL": "G4ABC"})
	idx := m.Append(Fields{"CALL": "DL1XYZ"})
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, m.Len())

	rec, err := m.Record(1)
	require.NoError(t, err)
	assert.Equal(t, "DL1XYZ", rec.Item(FieldCall))

	_, err = m.Record(2)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = m.Record(-1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		timeOn  string
		want    time.Time
		wantErr bool
	}{
		{name: "hhmm", date: "20240101", timeOn: "1234", want: time.Date(2024, 1, 1, 12, 34, 0, 0, time.UTC)},
		{name: "hhmmss", date: "20240101", timeOn: "123456", want: time.Date(2024, 1, 1, 12, 34, 56, 0, time.UTC)},
		{name: "date only", date: "20240101", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "bad time", date: "20240101", timeOn: "12", wantErr: true},
		{name: "bad date", date: "2024-01-01", timeOn: "1200", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Timestamp(Fields{FieldQSODate: tt.date, FieldTimeOn: tt.timeOn})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
		})
	}
}

func TestSetTimestampRoundTrip(t *testing.T) {
	want := time.Date(2024, 3, 9, 7, 5, 3, 0, time.UTC)
	f := Fields{}
	SetTimestamp(f, want)
	assert.Equal(t, "20240309", f.Item(FieldQSODate))
	assert.Equal(t, "070503", f.Item(FieldTimeOn))
	got, err := Timestamp(f)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}
