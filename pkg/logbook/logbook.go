// Package logbook defines the log-book contract the scoring engine reads QSO
// records through, plus a slice-backed implementation.
package logbook

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrOutOfRange is returned when a record index does not exist in a book.
var ErrOutOfRange = errors.New("record index out of range")

// ADIF field names read or written by the scoring engine.
const (
	FieldContestID   = "CONTEST_ID"
	FieldCall        = "CALL"
	FieldQSODate     = "QSO_DATE"
	FieldTimeOn      = "TIME_ON"
	FieldBand        = "BAND"
	FieldMode        = "MODE"
	FieldDXCC        = "DXCC"
	FieldITUZ        = "ITUZ"
	FieldCont        = "CONT"
	FieldRSTSent     = "RST_SENT"
	FieldRSTRcvd     = "RST_RCVD"
	FieldSRX         = "SRX"
	FieldSTX         = "STX"
	FieldMyDXCC      = "MY_DXCC"
	FieldMyITUZone   = "MY_ITU_ZONE"
	FieldMyContinent = "APP_ZZA_MY_CONT"
)

// Record is a single QSO with named fields.
type Record interface {
	Item(name string) string
	SetItem(name, value string)
}

// Book gives indexed access to records in chronological order; the most
// recent record has index Len()-1.
type Book interface {
	Len() int
	Record(i int) (Record, error)
}

// Fields is a map-backed Record. Field names are case-insensitive.
type Fields map[string]string

func (f Fields) Item(name string) string {
	return f[strings.ToUpper(name)]
}

func (f Fields) SetItem(name, value string) {
	f[strings.ToUpper(name)] = value
}

// Memory is an in-memory Book.
type Memory struct {
	records []Record
}

// NewMemory returns a book holding recs in the given order.
func NewMemory(recs ...Record) *Memory {
	return &Memory{records: recs}
}

// Append adds rec as the most recent record and returns its index.
func (m *Memory) Append(rec Record) int {
	m.records = append(m.records, rec)
	return len(m.records) - 1
}

func (m *Memory) Len() int {
	return len(m.records)
}

func (m *Memory) Record(i int) (Record, error) {
	if i < 0 || i >= len(m.records) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return m.records[i], nil
}

// Timestamp returns the UTC start time of a QSO from QSO_DATE (YYYYMMDD) and
// TIME_ON (HHMM or HHMMSS).
func Timestamp(rec Record) (time.Time, error) {
	date := strings.TrimSpace(rec.Item(FieldQSODate))
	clock := strings.TrimSpace(rec.Item(FieldTimeOn))

	layout := "20060102"
	value := date
	switch len(clock) {
	case 0:
	case 4:
		layout += "1504"
		value += clock
	case 6:
		layout += "150405"
		value += clock
	default:
		return time.Time{}, fmt.Errorf("invalid %s %q", FieldTimeOn, clock)
	}

	t, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid QSO timestamp %q %q: %w", date, clock, err)
	}
	return t, nil
}

// SetTimestamp writes t into QSO_DATE and TIME_ON.
func SetTimestamp(rec Record, t time.Time) {
	t = t.UTC()
	rec.SetItem(FieldQSODate, t.Format("20060102"))
	rec.SetItem(FieldTimeOn, t.Format("150405"))
}
